// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/num"
)

// Pattern holds a multiplier pattern
type Pattern struct {
	Name        string    // name
	Multipliers []float64 // one multiplier per pattern step
}

// PatternIndex returns the index of the pattern period containing t
//  step  -- pattern time step
//  start -- pattern start time
func PatternIndex(t, step, start float64) int {
	if step <= 0 {
		return 0
	}
	return int(math.Floor((t + start) / step))
}

// At returns the multiplier at time t. Patterns wrap around. A nil pattern returns 1
func (o *Pattern) At(t, step, start float64) float64 {
	if o == nil || len(o.Multipliers) == 0 {
		return 1
	}
	n := len(o.Multipliers)
	k := PatternIndex(t, step, start) % n
	if k < 0 {
		k += n
	}
	return o.Multipliers[k]
}

// Curve holds (x,y) points defining a piecewise linear function
type Curve struct {
	Name string    // name
	Kind string    // pump, volume, headloss or efficiency
	X    []float64 // x values in increasing order
	Y    []float64 // y values

	// pump curve fit: h = A - B q^C
	A, B, C float64
}

// NewCurve returns a new curve with copies of x and y
func NewCurve(name, kind string, x, y []float64) *Curve {
	return &Curve{Name: name, Kind: kind, X: append([]float64{}, x...), Y: append([]float64{}, y...)}
}

// Interp returns y(x) using linear interpolation; outside the range, the end segments are
// extrapolated. Single point curves are constant
func (o *Curve) Interp(x float64) float64 {
	n := len(o.X)
	if n == 1 {
		return o.Y[0]
	}
	i := o.segment(x)
	return o.Y[i] + (x-o.X[i])*(o.Y[i+1]-o.Y[i])/(o.X[i+1]-o.X[i])
}

// Slope returns dy/dx at x consistent with Interp
func (o *Curve) Slope(x float64) float64 {
	if len(o.X) == 1 {
		return 0
	}
	i := o.segment(x)
	return (o.Y[i+1] - o.Y[i]) / (o.X[i+1] - o.X[i])
}

// InvInterp returns x(y) for curves with increasing y; e.g. level from volume
func (o *Curve) InvInterp(y float64) float64 {
	n := len(o.Y)
	if n == 1 {
		return o.X[0]
	}
	i := sort.SearchFloat64s(o.Y, y) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	dy := o.Y[i+1] - o.Y[i]
	if dy == 0 {
		return o.X[i]
	}
	return o.X[i] + (y-o.Y[i])*(o.X[i+1]-o.X[i])/dy
}

// segment returns the index i of the segment [X[i],X[i+1]] to be used for x
func (o *Curve) segment(x float64) (i int) {
	n := len(o.X)
	i = sort.SearchFloat64s(o.X, x) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	return
}

// CheckMonotonic checks that x is strictly increasing and that y is increasing (ydir > 0),
// decreasing (ydir < 0) or arbitrary (ydir == 0). Strict selects strict monotonicity of y
func (o *Curve) CheckMonotonic(ydir int, strict bool) (err error) {
	if len(o.X) != len(o.Y) {
		return chk.Err("curve %q has %d x values but %d y values", o.Name, len(o.X), len(o.Y))
	}
	if len(o.X) == 0 {
		return chk.Err("curve %q is empty", o.Name)
	}
	for i := 1; i < len(o.X); i++ {
		if o.X[i] <= o.X[i-1] {
			return chk.Err("x values of curve %q must be strictly increasing. x[%d]=%g <= x[%d]=%g", o.Name, i, o.X[i], i-1, o.X[i-1])
		}
		dy := float64(ydir) * (o.Y[i] - o.Y[i-1])
		if dy < 0 || (strict && ydir != 0 && dy == 0) {
			return chk.Err("y values of curve %q are not monotonic at point %d", o.Name, i)
		}
	}
	return
}

// FitPump computes the coefficients of h = A - B q^C. Curves must have decreasing heads.
//  1 point:                A = 4/3 h, B = h/(3 q²), C = 2
//  3 points with q0 = 0:   exact fit
//  otherwise:              least squares fit with optimal exponent
func (o *Curve) FitPump() (err error) {
	err = o.CheckMonotonic(-1, true)
	if err != nil {
		return
	}
	if o.X[0] < 0 {
		return chk.Err("flows of pump curve %q must not be negative", o.Name)
	}
	o.A, o.B, o.C, err = FitPumpCurve(o.X, o.Y)
	if err != nil {
		return chk.Err("cannot fit pump curve %q:\n%v", o.Name, err)
	}
	return
}

// ShutoffHead returns the head at zero flow (A)
func (o *Curve) ShutoffHead() float64 {
	return o.A
}

// MaxFlow returns the largest flow of the curve data
func (o *Curve) MaxFlow() float64 {
	return o.X[len(o.X)-1]
}

// FitPumpCurve fits h = A - B q^C to flow/head data
func FitPumpCurve(q, h []float64) (A, B, C float64, err error) {
	n := len(q)
	switch {

	// design point
	case n == 1:
		if q[0] <= 0 || h[0] <= 0 {
			return 0, 0, 0, chk.Err("single point curve needs positive flow and head. q=%g h=%g", q[0], h[0])
		}
		A = 4.0 * h[0] / 3.0
		B = h[0] / (3.0 * q[0] * q[0])
		C = 2

	// shutoff, design and maximum flow points
	case n == 3 && q[0] == 0:
		h0, h1, h2 := h[0], h[1], h[2]
		if !(h0 > h1 && h1 > h2 && q[1] > 0 && q[2] > q[1]) {
			return 0, 0, 0, chk.Err("three point curve must have decreasing heads and increasing flows")
		}
		A = h0
		C = math.Log((h0-h1)/(h0-h2)) / math.Log(q[1]/q[2])
		B = (h0 - h1) / math.Pow(q[1], C)

	// least squares
	default:
		if n < 2 {
			return 0, 0, 0, chk.Err("pump curve needs at least one point")
		}
		sse := func(c float64) (a, b, e float64) {
			a, b = linearFit(q, h, c)
			for i := 0; i < n; i++ {
				r := a - b*math.Pow(q[i], c) - h[i]
				e += r * r
			}
			return
		}
		C = num.NewBrent(func(c float64) float64 {
			_, _, e := sse(c)
			return e
		}, nil).Min(0.5, 5.0)
		A, B, _ = sse(C)
	}

	if A <= 0 || B <= 0 || C <= 0 || math.IsNaN(A+B+C) || math.IsInf(A+B+C, 0) {
		return 0, 0, 0, chk.Err("invalid pump curve coefficients: A=%g B=%g C=%g", A, B, C)
	}
	if C > 20 {
		return 0, 0, 0, chk.Err("pump curve exponent is too large: C=%g", C)
	}
	return
}

// linearFit computes a and b minimising Σ(a - b q^c - h)²
func linearFit(q, h []float64, c float64) (a, b float64) {
	n := float64(len(q))
	var su, sh, suu, suh float64
	for i := range q {
		u := math.Pow(q[i], c)
		su += u
		sh += h[i]
		suu += u * u
		suh += u * h[i]
	}
	den := n*suu - su*su
	if den == 0 {
		return sh / n, 0
	}
	slope := (n*suh - su*sh) / den
	a = (sh - slope*su) / n
	b = -slope
	return
}
