// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend provides execution contexts for quantum circuits.
//
// An ExecutionContext pairs a backend (see backend/sim) with shot counts,
// seeds, parallelism and a logger.
//
// Example:
//
//	ctx := backend.NewExecutionContext(sim.NewQasm(), backend.Config{Shots: 2048, Seed: 7})
package backend

import (
	"github.com/born-ml/qnn/internal/backend"
)

// Backend executes bound circuits.
type Backend = backend.Backend

// RunOptions are per-run execution options.
type RunOptions = backend.RunOptions

// Result is the outcome of one circuit run.
type Result = backend.Result

// Config holds execution options.
type Config = backend.Config

// ExecutionContext pairs a backend with its execution options.
type ExecutionContext = backend.ExecutionContext

// AcceleratedProvider is the provider name of the in-process simulators.
const AcceleratedProvider = backend.AcceleratedProvider

// DefaultConfig returns sensible execution defaults.
func DefaultConfig() Config { return backend.DefaultConfig() }

// NewExecutionContext creates an execution context.
func NewExecutionContext(b Backend, cfg Config) *ExecutionContext {
	return backend.NewExecutionContext(b, cfg)
}

// FromBackend wraps a raw backend with default options.
func FromBackend(b Backend) *ExecutionContext { return backend.FromBackend(b) }
