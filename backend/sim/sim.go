// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sim provides the in-process statevector simulators.
//
// Example:
//
//	ctx := backend.FromBackend(sim.NewStatevector())
package sim

import (
	"github.com/born-ml/qnn/internal/backend/sim"
)

// Statevector is an exact simulator returning final states.
type Statevector = sim.Statevector

// Qasm is a shot-based simulator returning measurement counts.
type Qasm = sim.Qasm

// NewStatevector creates an exact simulator.
func NewStatevector() *Statevector { return sim.NewStatevector() }

// NewQasm creates a shot-based simulator.
func NewQasm() *Qasm { return sim.NewQasm() }
