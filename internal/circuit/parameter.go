// Package circuit defines parametrized quantum circuits: named parameter
// handles, linear parameter expressions, gates and batches of bindings.
package circuit

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrBatchSize is returned when a batch column does not match the batch size.
var ErrBatchSize = errors.New("batch size mismatch")

var nextParameterID atomic.Uint64

// Parameter is a named symbolic handle.
//
// Identity is the pointer: two parameters created with the same name are
// distinct. The id only orders parameters deterministically.
type Parameter struct {
	name string
	id   uint64
}

// NewParameter creates a parameter with a process-unique identity.
func NewParameter(name string) *Parameter {
	return &Parameter{name: name, id: nextParameterID.Add(1)}
}

// NewParameterVector creates n parameters named prefix[0] ... prefix[n-1].
func NewParameterVector(prefix string, n int) []*Parameter {
	params := make([]*Parameter, n)
	for i := range params {
		params[i] = NewParameter(fmt.Sprintf("%s[%d]", prefix, i))
	}
	return params
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// String implements fmt.Stringer.
func (p *Parameter) String() string {
	return p.name
}

// SortParameters orders parameters by creation, in place.
func SortParameters(ps []*Parameter) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].id < ps[j].id })
}

// Values binds each parameter to a single value.
type Values map[*Parameter]float64

// Batch binds each parameter to one value per batch row.
type Batch struct {
	size   int
	values map[*Parameter][]float64
}

// NewBatch creates an empty batch of the given number of rows.
func NewBatch(size int) *Batch {
	return &Batch{size: size, values: make(map[*Parameter][]float64)}
}

// Size returns the number of rows.
func (b *Batch) Size() int {
	return b.size
}

// Set binds p to vals, one value per row.
func (b *Batch) Set(p *Parameter, vals []float64) error {
	if len(vals) != b.size {
		return errors.Wrapf(ErrBatchSize, "parameter %s: got %d values for %d rows", p, len(vals), b.size)
	}
	b.values[p] = vals
	return nil
}

// Get returns the values bound to p.
func (b *Batch) Get(p *Parameter) ([]float64, bool) {
	v, ok := b.values[p]
	return v, ok
}

// Len returns the number of bound parameters.
func (b *Batch) Len() int {
	return len(b.values)
}

// Row returns the bindings of row i.
func (b *Batch) Row(i int) Values {
	row := make(Values, len(b.values))
	for p, vals := range b.values {
		row[p] = vals[i]
	}
	return row
}
