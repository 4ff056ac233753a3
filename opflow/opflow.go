// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package opflow provides operator expressions over parametrized circuits.
//
// # Overview
//
// An expression is a tree whose leaves are expectation values
// ⟨ψ(θ)|O|ψ(θ)⟩ and whose inner nodes are lists (with an optional combo
// function), sums and gradients. Converters rewrite expressions:
//   - PauliExpectation: measure in the Z basis on shot-based backends
//   - MatrixExpectation: evaluate exactly from the statevector
//   - Gradient: parameter-shift or finite-difference derivatives
//   - Sampler: run every circuit on a backend for a batch of bindings
//
// # Basic Usage
//
//	x := circuit.NewParameter("x")
//	z, _ := opflow.Pauli("Z", 1)
//	op, _ := opflow.NewExpectation(z, circuit.New(1).RY(circuit.Param(x), 0))
//	v, _ := op.Bind(circuit.Values{x: 0.3}).Eval() // cos(0.3)
package opflow

import (
	"github.com/born-ml/qnn/internal/backend"
	"github.com/born-ml/qnn/internal/circuit"
	"github.com/born-ml/qnn/internal/opflow"
)

// Expr is an operator expression.
type Expr = opflow.Expr

// Kind identifies an expression variant.
type Kind = opflow.Kind

// Expression kinds.
const (
	KindExpectation = opflow.KindExpectation
	KindList        = opflow.KindList
	KindSummed      = opflow.KindSummed
	KindGradient    = opflow.KindGradient
	KindChain       = opflow.KindChain
)

// ComboFn post-processes the stacked values of a list's children.
type ComboFn = opflow.ComboFn

// Observable is a weighted sum of Pauli strings.
type Observable = opflow.Observable

// PauliTerm is one weighted Pauli string.
type PauliTerm = opflow.PauliTerm

// Converter rewrites an expression for evaluation.
type Converter = opflow.Converter

// PauliExpectation converts leaves to Z-basis measurements.
type PauliExpectation = opflow.PauliExpectation

// MatrixExpectation marks leaves for exact evaluation.
type MatrixExpectation = opflow.MatrixExpectation

// GradientConverter builds derivative expressions.
type GradientConverter = opflow.GradientConverter

// Gradient differentiates by parameter shift or finite differences.
type Gradient = opflow.Gradient

// GradientMethod selects how leaves are differentiated.
type GradientMethod = opflow.GradientMethod

// Gradient methods.
const (
	ParamShift = opflow.ParamShift
	FiniteDiff = opflow.FiniteDiff
)

// Sampler evaluates expression circuits on a backend.
type Sampler = opflow.Sampler

// Errors.
var (
	ErrUnbound           = opflow.ErrUnbound
	ErrNonDiagonal       = opflow.ErrNonDiagonal
	ErrNotDifferentiable = opflow.ErrNotDifferentiable
	ErrQubitMismatch     = opflow.ErrQubitMismatch
	ErrInvalidPauli      = opflow.ErrInvalidPauli
	ErrNonLinear         = opflow.ErrNonLinear
	ErrBatchRows         = opflow.ErrBatchRows
)

// Pauli creates a single-term observable such as Pauli("ZI", 1).
func Pauli(label string, coeff complex128) (Observable, error) {
	return opflow.Pauli(label, coeff)
}

// Sum adds observables of equal width.
func Sum(obs ...Observable) (Observable, error) {
	return opflow.Sum(obs...)
}

// NewExpectation creates the leaf ⟨ψ(θ)|O|ψ(θ)⟩ with ψ(θ) = C(θ)|0…0⟩.
func NewExpectation(obs Observable, c *circuit.Circuit) (*Expr, error) {
	return opflow.NewExpectation(obs, c)
}

// NewList creates a composite expression. A nil combo stacks the children.
func NewList(children []*Expr, combo ComboFn) *Expr {
	return opflow.NewList(children, combo)
}

// NewSummed creates the sum of children.
func NewSummed(children ...*Expr) *Expr {
	return opflow.NewSummed(children...)
}

// SumCombo reduces the leading axis by summation.
var SumCombo ComboFn = opflow.SumCombo

// NewGradient returns the default parameter-shift gradient.
func NewGradient() *Gradient {
	return opflow.NewGradient()
}

// NewSampler creates a sampler bound to ctx.
func NewSampler(ctx *backend.ExecutionContext) *Sampler {
	return opflow.NewSampler(ctx)
}
