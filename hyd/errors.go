// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import "github.com/cpmech/gosl/io"

// FailReason tells why a hydraulic solution could not be found
type FailReason int

// reasons
const (
	MaxIterations       FailReason = iota // Newton iterations did not converge
	MaxStatusIterations                   // statuses did not reach a fixed point
	SingularMatrix                        // Jacobian could not be factorised
	NotANumber                            // residual or update has NaN or Inf
)

var failNames = []string{"max iterations reached", "max status iterations reached", "singular matrix", "not a number"}

// String returns the description of the reason
func (o FailReason) String() string {
	return failNames[o]
}

// ConvergenceError reports a hydraulic time that could not be solved
type ConvergenceError struct {
	Time         float64    // simulation time
	Reason       FailReason // reason
	Iterations   int        // number of iterations performed
	ResidualNorm float64    // largest residual at exit
}

// Error returns the error message
func (o *ConvergenceError) Error() string {
	return io.Sf("hydraulic failure at t=%gs: %v (it=%d, largest residual=%g)", o.Time, o.Reason, o.Iterations, o.ResidualNorm)
}

// event kinds
const (
	EvControl      = "control"       // control action changed the network
	EvStatus       = "status"        // solver changed a link status
	EvTankFull     = "tank-full"     // tank level clipped at maximum
	EvTankEmpty    = "tank-empty"    // tank level clipped at minimum
	EvTankOverflow = "tank-overflow" // tank spilled water
	EvPumpRange    = "pump-range"    // pump operating outside its curve
	EvDemandCut    = "demand-cut"    // demands were reduced to find a solution
	EvFailure      = "failure"       // time step failed and run continued
)

// Event records a recoverable condition or a change made during the run
type Event struct {
	Time   float64 `json:"time"`   // simulation time
	Kind   string  `json:"kind"`   // kind of event
	Object string  `json:"object"` // node or link name
	Value  float64 `json:"value"`  // new value, clipped amount, etc.
	Msg    string  `json:"msg"`    // description
}

// TimestepFailure records a time that failed to converge
type TimestepFailure struct {
	Time        float64 `json:"time"`        // simulation time
	Reason      string  `json:"reason"`      // reason
	Iterations  int     `json:"iterations"`  // iterations of last attempt
	Residual    float64 `json:"residual"`    // largest residual of last attempt
	DemandScale float64 `json:"demandscale"` // demand multiplier used by the accepted solution; 1 if none
	Recovered   bool    `json:"recovered"`   // a solution with reduced demands was accepted
}
