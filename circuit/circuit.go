// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package circuit provides parametrized quantum circuits.
//
// Gate angles are linear expressions over named parameters; binding values
// produces a concrete circuit for a simulator.
//
// Example:
//
//	x := circuit.NewParameter("x")
//	c := circuit.New(2).RY(circuit.Param(x), 0).CX(0, 1)
package circuit

import (
	"github.com/born-ml/qnn/internal/circuit"
)

// Circuit is an ordered list of gates on a fixed register.
type Circuit = circuit.Circuit

// Gate is one circuit instruction.
type Gate = circuit.Gate

// GateKind identifies a gate type.
type GateKind = circuit.GateKind

// Gate kinds.
const (
	H   = circuit.H
	X   = circuit.X
	Y   = circuit.Y
	Z   = circuit.Z
	S   = circuit.S
	Sdg = circuit.Sdg
	RX  = circuit.RX
	RY  = circuit.RY
	RZ  = circuit.RZ
	P   = circuit.P
	CX  = circuit.CX
	CZ  = circuit.CZ
)

// Parameter is a named symbolic value.
type Parameter = circuit.Parameter

// Expression is a linear form over parameters.
type Expression = circuit.Expression

// Values binds parameters to numbers.
type Values = circuit.Values

// Batch binds parameters to one value per row.
type Batch = circuit.Batch

// ErrBatchSize is returned when a batch column has the wrong length.
var ErrBatchSize = circuit.ErrBatchSize

// New creates an empty circuit on n qubits.
func New(n int) *Circuit { return circuit.New(n) }

// NewParameter creates a parameter.
func NewParameter(name string) *Parameter { return circuit.NewParameter(name) }

// NewParameterVector creates parameters prefix[0], ..., prefix[n-1].
func NewParameterVector(prefix string, n int) []*Parameter {
	return circuit.NewParameterVector(prefix, n)
}

// NewBatch creates a batch of size rows.
func NewBatch(size int) *Batch { return circuit.NewBatch(size) }

// Constant returns the expression c.
func Constant(c float64) Expression { return circuit.Constant(c) }

// Param returns the expression 1·p.
func Param(p *Parameter) Expression { return circuit.Param(p) }

// Linear returns the expression a·p + c.
func Linear(p *Parameter, a, c float64) Expression { return circuit.Linear(p, a, c) }
