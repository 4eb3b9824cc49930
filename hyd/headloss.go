// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import "math"

// smoothing constants
const (
	Q2smooth = 4e-4 // [m³/s] below this flow, headloss functions are smoothed
	Q1smooth = 2e-4 // [m³/s] below this flow, headloss functions are linear
	ReLam    = 2000 // upper Reynolds number of laminar flow
	ReTurb   = 4000 // lower Reynolds number of turbulent flow
)

// hermite evaluates the cubic Hermite polynomial connecting (x1,y1) with slope d1 and (x2,y2)
// with slope d2. Returns the value and derivative at x
func hermite(x, x1, x2, y1, y2, d1, d2 float64) (y, dy float64) {
	h := x2 - x1
	t := (x - x1) / h
	t2, t3 := t*t, t*t*t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	y = h00*y1 + h10*h*d1 + h01*y2 + h11*h*d2
	dh00 := (6*t2 - 6*t) / h
	dh10 := (3*t2 - 4*t + 1)
	dh01 := (-6*t2 + 6*t) / h
	dh11 := (3*t2 - 2*t)
	dy = dh00*y1 + dh10*d1 + dh01*y2 + dh11*d2
	return
}

// smoothOdd evaluates an odd function f(q) = sign(q) g(|q|) with g increasing and g(0) = 0.
// Above Q2smooth, g is used; below Q1smooth, f is linear with slope g(Q2)/Q2; in between, a cubic
// Hermite polynomial connects both parts. Returns f and df/dq
func smoothOdd(q float64, g func(a float64) (v, dv float64)) (f, df float64) {
	a := math.Abs(q)
	s := 1.0
	if q < 0 {
		s = -1.0
	}
	if a >= Q2smooth {
		v, dv := g(a)
		return s * v, dv
	}
	v2, d2 := g(Q2smooth)
	slope := v2 / Q2smooth
	if a <= Q1smooth {
		return slope * q, slope
	}
	v, dv := hermite(a, Q1smooth, Q2smooth, slope*Q1smooth, v2, slope, d2)
	return s * v, dv
}

// pipeHeadloss returns the friction plus minor headloss and its derivative for a positive flow
func (o *Network) pipeHeadloss(l *Link, a float64) (v, dv float64) {
	p := l.Pipe
	if p.Length > 0 {
		if o.Data.Headloss == "D-W" {
			v, dv = o.darcyWeisbach(l, a)
		} else {
			v = p.K * math.Pow(a, p.N)
			dv = p.N * p.K * math.Pow(a, p.N-1)
		}
	}
	v += p.Mloss * a * a
	dv += 2 * p.Mloss * a
	return
}

// darcyWeisbach returns the Darcy-Weisbach friction loss and derivative for a positive flow a.
// Laminar flow follows Hagen-Poiseuille; turbulent flow uses Swamee-Jain; the friction factor
// is interpolated linearly in between
func (o *Network) darcyWeisbach(l *Link, a float64) (v, dv float64) {
	p := l.Pipe
	d := l.Diam
	cre := 4.0 / (math.Pi * d * o.Nu) // Re = cre q
	re := cre * a
	var f, dfdre float64
	switch {
	case re < ReLam:
		if re <= 0 {
			// h = 128νL/(gπd⁴) q  =>  f = 64/Re
			r := 64.0 / cre
			return p.K * r * a, p.K * r
		}
		f = 64.0 / re
		dfdre = -64.0 / (re * re)
	case re < ReTurb:
		f4, _ := swameeJain(ReTurb, p.Rough/d)
		f2 := 64.0 / ReLam
		dfdre = (f4 - f2) / (ReTurb - ReLam)
		f = f2 + dfdre*(re-ReLam)
	default:
		f, dfdre = swameeJain(re, p.Rough/d)
	}
	v = p.K * f * a * a
	dv = p.K * (2*f*a + dfdre*cre*a*a)
	return
}

// swameeJain returns the Swamee-Jain friction factor and its derivative w.r.t Re
func swameeJain(re, relRough float64) (f, dfdre float64) {
	u := relRough/3.7 + 5.74*math.Pow(re, -0.9)
	x := math.Log10(u)
	f = 0.25 / (x * x)
	dudre := -0.9 * 5.74 * math.Pow(re, -1.9)
	dxdre := dudre / (u * math.Ln10)
	dfdre = -0.5 / (x * x * x) * dxdre
	return
}

// pressureFraction returns the fraction of the expected demand delivered at pressure p and
// its derivative. Zero below pmin, one above preq, power law in between, with cubic blends
// of width δ next to pmin and preq
func pressureFraction(p, pmin, preq, pexp float64) (f, df float64) {
	if p <= pmin {
		return 0, 0
	}
	if p >= preq {
		return 1, 0
	}
	r := preq - pmin
	δ := math.Min(0.2, r/4)
	g := func(x float64) (v, dv float64) {
		v = math.Pow((x-pmin)/r, pexp)
		dv = pexp * math.Pow((x-pmin)/r, pexp-1) / r
		return
	}
	if p < pmin+δ {
		v2, d2 := g(pmin + δ)
		return hermite(p, pmin, pmin+δ, 0, v2, 0, d2)
	}
	if p > preq-δ {
		v1, d1 := g(preq - δ)
		return hermite(p, preq-δ, preq, v1, 1, d1, 0)
	}
	return g(p)
}
