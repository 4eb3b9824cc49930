// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// NewtonStats holds statistics of one Newton solve
type NewtonStats struct {
	Iterations int     // number of linear solves
	Residual   float64 // largest absolute residual at exit
	Step       float64 // largest absolute update at exit
	Backtracks int     // number of step reductions
}

// linsys holds the linear system and the sparse solver
type linsys struct {
	Kb       *la.Triplet     // Jacobian matrix
	F        la.Vector       // residual
	mF       la.Vector       // negative of residual
	dx       la.Vector       // update
	xt       la.Vector       // trial solution
	Ft       la.Vector       // trial residual
	LinSol   la.SparseSolver // linear solver
	args     *la.SpArgs      // linear solver arguments
	InitLSol bool            // linear solver must be initialised
}

// newLinsys allocates the linear system
func newLinsys(neq, nnz int) (o *linsys) {
	o = new(linsys)
	o.Kb = la.NewTriplet(neq, neq, nnz)
	o.F = la.NewVector(neq)
	o.mF = la.NewVector(neq)
	o.dx = la.NewVector(neq)
	o.xt = la.NewVector(neq)
	o.Ft = la.NewVector(neq)
	o.InitLSol = true
	return
}

// solve factorises Kb and solves Kb dx = -F. Panics of the sparse solver are converted into errors
func (o *linsys) solve() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if o.InitLSol {
		o.LinSol = la.NewSparseSolver("umfpack")
		o.args = &la.SpArgs{}
		o.LinSol.Init(o.Kb, o.args)
		o.InitLSol = false
	}
	o.LinSol.Fact()
	for i, v := range o.F {
		o.mF[i] = -v
	}
	o.LinSol.Solve(o.dx, o.mF, false)
	return finite(o.dx)
}

// clean frees memory held by the sparse solver
func (o *linsys) clean() {
	if o.LinSol != nil {
		o.LinSol.Free()
		o.LinSol = nil
	}
	o.InitLSol = true
}

// largest returns the largest absolute component of v
func largest(v []float64) (res float64) {
	for _, x := range v {
		if math.IsNaN(x) {
			return math.NaN()
		}
		res = math.Max(res, math.Abs(x))
	}
	return
}

// sumsq returns the sum of squares of v
func sumsq(v []float64) (res float64) {
	for _, x := range v {
		res += x * x
	}
	return
}

// finite tells whether all components of v are finite
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// lineSearch reduces α until ‖F(x+αδx)‖² ≤ (1-2cα)‖F(x)‖² or nmax reductions were made.
// The returned step is always one that was tried
//  f0    -- ‖F(x)‖²
//  trial -- returns ‖F(x+αδx)‖²
func lineSearch(f0, α, rho, c float64, nmax int, trial func(α float64) float64) (res float64, nred int) {
	for {
		ft := trial(α)
		if ft <= (1-2*c*α)*f0 && !math.IsNaN(ft) {
			return α, nred
		}
		if nred == nmax {
			return α, nred
		}
		α *= rho
		nred++
	}
}

// newton solves the hydraulic equations with fixed statuses at time t, starting from the
// current state of the network. The solution is written back to the network on success
func (o *Simulator) newton(t float64) (stats NewtonStats, err error) {

	// auxiliary
	sol := &o.Net.Solver
	a, s := o.asm, o.sys
	x := o.x
	a.Setup()
	a.Gather(x)

	// variables
	var it int
	var largF, step float64
	step = math.Inf(1)
	converged := false

	// message
	if sol.ShowR {
		io.Pf("\n%13s%4s%23s%23s\n", "t", "it", "largF", "Lδx")
		defer func() {
			io.Pf("%13.6e%4d%23.15e%23.15e\n", t, it, largF, step)
		}()
	}

	// iterations
	for it = 0; it <= sol.NmaxIt; it++ {

		// residual
		a.Residual(x, s.F)
		largF = largest(s.F)
		if math.IsNaN(largF) || math.IsInf(largF, 0) {
			err = &ConvergenceError{Time: t, Reason: NotANumber, Iterations: it, ResidualNorm: largF}
			break
		}

		// check convergence
		if it > 0 && largF < sol.Tol && step < sol.StepTol {
			converged = true
			break
		}
		if it == sol.NmaxIt {
			break
		}

		// Jacobian and update
		a.Jacobian(x, s.Kb)
		if !s.solve() {
			err = &ConvergenceError{Time: t, Reason: SingularMatrix, Iterations: it, ResidualNorm: largF}
			break
		}

		// limit changes of heads
		α := 1.0
		if sol.MaxHstep > 0 {
			if dh := a.MaxHeadChange(s.dx); dh > sol.MaxHstep {
				α = sol.MaxHstep / dh
			}
		}

		// backtracking
		if it >= sol.BtStartIt && sol.BtMaxIt > 0 {
			var nred int
			α, nred = lineSearch(sumsq(s.F), α, sol.BtRho, sol.BtC, sol.BtMaxIt, func(α float64) float64 {
				for i := range x {
					s.xt[i] = x[i] + α*s.dx[i]
				}
				a.Residual(s.xt, s.Ft)
				return sumsq(s.Ft)
			})
			stats.Backtracks += nred
		}

		// update
		for i := range x {
			x[i] += α * s.dx[i]
		}
		step = α * largest(s.dx)
		if o.Verbose && !sol.ShowR {
			io.Pf("  it=%3d  largF=%13.6e  Lδx=%13.6e  α=%g\n", it, largF, step, α)
		}
	}

	// results
	stats.Iterations = it
	stats.Residual = largF
	stats.Step = step
	if o.Obs != nil {
		o.Obs.ObserveNewton(it, largF)
	}
	if err != nil {
		return
	}
	if !converged {
		err = &ConvergenceError{Time: t, Reason: MaxIterations, Iterations: it, ResidualNorm: largF}
		return
	}
	a.Scatter(x)
	return
}
