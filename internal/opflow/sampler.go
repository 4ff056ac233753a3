package opflow

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/backend"
	"github.com/born-ml/qnn/internal/backend/sim"
	"github.com/born-ml/qnn/internal/circuit"
	"github.com/born-ml/qnn/internal/parallel"
)

// Sampler evaluates the circuits of an expression on an execution backend
// and replaces each leaf's circuit with the resulting state.
//
// A Sampler caches the compiled circuits of the last expression it
// converted. Separate expressions that alternate (a forward and a gradient
// expression) should use separate samplers so they do not evict each other.
//
// A Sampler is not safe for concurrent use.
type Sampler struct {
	ctx         *backend.ExecutionContext
	accelerated bool
	logger      *slog.Logger

	root      *Expr
	leafIndex map[*Expr]int
	programs  map[*Expr]*sim.Program
}

// NewSampler creates a sampler bound to ctx.
//
// When ctx's backend is an in-process simulator, circuits are compiled once
// and each batch row is bound into the compiled program, rows running in
// parallel. Other backends receive one bound circuit per row and leaf.
func NewSampler(ctx *backend.ExecutionContext) *Sampler {
	return &Sampler{
		ctx:         ctx,
		accelerated: backend.IsAccelerated(ctx.Backend()),
		logger:      ctx.Logger(),
	}
}

// Accelerated reports whether the sampler binds parameters into compiled programs.
func (s *Sampler) Accelerated() bool {
	return s.accelerated
}

// ExecutionContext returns the context the sampler runs on.
func (s *Sampler) ExecutionContext() *backend.ExecutionContext {
	return s.ctx
}

// Convert evaluates the circuits of e for every row of b.
//
// The result is a List with one child per row; evaluating it yields
// (b.Size(), *shape of e).
func (s *Sampler) Convert(e *Expr, b *circuit.Batch) (*Expr, error) {
	if err := s.prepare(e); err != nil {
		return nil, err
	}
	cfg := parallel.Config{Enabled: false}
	if s.accelerated {
		cfg = s.ctx.Config().Parallel
	}
	rows := make([]*Expr, b.Size())
	err := parallel.ForErr(b.Size(), func(i int) error {
		r, err := s.convertRow(e, b.Row(i), i)
		if err != nil {
			return errors.Wrapf(err, "batch row %d", i)
		}
		rows[i] = r
		return nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	return NewList(rows, nil), nil
}

// ConvertValues evaluates the circuits of e for a single binding.
func (s *Sampler) ConvertValues(e *Expr, values circuit.Values) (*Expr, error) {
	if err := s.prepare(e); err != nil {
		return nil, err
	}
	return s.convertRow(e, values, 0)
}

// prepare indexes and compiles the leaves of e unless e is already cached.
func (s *Sampler) prepare(e *Expr) error {
	if s.root == e {
		return nil
	}
	leafIndex := make(map[*Expr]int)
	programs := make(map[*Expr]*sim.Program)
	var err error
	e.walk(func(x *Expr) {
		if err != nil || x.kind != KindExpectation || x.state != stateCircuit {
			return
		}
		if _, seen := leafIndex[x]; seen {
			return
		}
		leafIndex[x] = len(leafIndex)
		if s.accelerated || x.exact {
			var prog *sim.Program
			if prog, err = sim.Compile(x.circuit); err == nil {
				programs[x] = prog
			}
		}
	})
	if err != nil {
		return err
	}
	s.logger.Debug("sampler cache miss",
		slog.String("backend", s.ctx.Backend().Name()),
		slog.Int("circuits", len(leafIndex)),
		slog.Bool("accelerated", s.accelerated))
	s.root, s.leafIndex, s.programs = e, leafIndex, programs
	return nil
}

func (s *Sampler) convertRow(e *Expr, values circuit.Values, row int) (*Expr, error) {
	out, err := e.mapLeaves(func(leaf *Expr) (*Expr, error) {
		idx, ok := s.leafIndex[leaf]
		if !ok {
			// Already evaluated.
			return leaf, nil
		}
		return s.sampleLeaf(leaf, values, row, idx)
	})
	if err != nil {
		return nil, err
	}
	// Leaves now hold states; this resolves the remaining coefficients.
	return out.Bind(values), nil
}

func (s *Sampler) sampleLeaf(leaf *Expr, values circuit.Values, row, idx int) (*Expr, error) {
	out := leaf.shallow()
	out.circuit = nil
	b := s.ctx.Backend()

	if prog, ok := s.programs[leaf]; ok {
		vec, err := prog.Run(values)
		if err != nil {
			return nil, err
		}
		if leaf.exact || b.Statevector() {
			out.state, out.vector = stateVector, vec
			return out, nil
		}
		opts := s.ctx.RunOptions(row, idx)
		counts := sim.SampleCounts(vec, opts.Shots, opts.Seed)
		res := &backend.Result{NumQubits: prog.NumQubits(), Counts: counts, Shots: opts.Shots}
		probs, err := res.Probabilities()
		if err != nil {
			return nil, err
		}
		out.state, out.probs = stateProbs, probs
		return out, nil
	}

	bound := leaf.circuit.Bind(values)
	if !bound.IsBound() {
		return nil, errors.Wrapf(ErrUnbound, "circuit parameters %v", bound.Parameters())
	}
	res, err := b.Run(bound, s.ctx.RunOptions(row, idx))
	if err != nil {
		return nil, errors.Wrapf(err, "backend %s", b.Name())
	}
	if res.Statevector != nil {
		out.state, out.vector = stateVector, res.Statevector
		return out, nil
	}
	probs, err := res.Probabilities()
	if err != nil {
		return nil, err
	}
	out.state, out.probs = stateProbs, probs
	return out, nil
}
