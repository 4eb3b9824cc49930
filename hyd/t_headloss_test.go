// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/num"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/gowater/inp"
)

// build prepares input data and allocates the runtime network
func build(tst *testing.T, in *inp.Network) *Network {
	require.NoError(tst, in.Prepare())
	net, err := NewNetwork(in)
	require.NoError(tst, err)
	return net
}

// onePipe returns a network with one pipe from a reservoir to a junction (SI units)
func onePipe(tst *testing.T, headloss string, length, diam, rough float64) *Network {
	in := inp.NewNetwork("SI")
	in.Data.Headloss = headloss
	in.AddReservoir("R1", 20)
	in.AddJunction("J1", 0, 0.1)
	in.AddPipe("P1", "R1", "J1", length, diam, rough)
	return build(tst, in)
}

// checkLinkEq checks the derivative of a link equation with respect to the flow
func checkLinkEq(tst *testing.T, msg string, a *Assembler, l *Link, eq LinkEq, flows []float64, h, tol float64) {
	for _, q := range flows {
		_, _, _, dqAna := eq(a, l, 0, 0, q)
		dqNum := num.DerivCen5(q, h, func(x float64) float64 {
			f, _, _, _ := eq(a, l, 0, 0, x)
			return f
		})
		if chk.Verbose {
			io.Pforan("%s: q=%12.5e dfdq: ana=%23.15e num=%23.15e\n", msg, q, dqAna, dqNum)
		}
		chk.Float64(tst, io.Sf("%s: q=%g", msg, q), tol*math.Max(1, math.Abs(dqAna)), dqAna, dqNum)
	}
}

func Test_headloss01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("headloss01. Hazen-Williams and smoothing")

	net := onePipe(tst, "H-W", 1000, 0.3, 100)
	a := NewAssembler(net)
	l := net.Links[0]
	chk.Float64(tst, "K", 1e-10, l.Pipe.K, 10.667*math.Pow(100, -1.852)*math.Pow(0.3, -4.871)*1000)

	// value above smoothing range
	f, dh1, dh2, _ := pipeEq(a, l, 20, 10, 0.1)
	chk.Float64(tst, "f", 1e-12, f, l.Pipe.K*math.Pow(0.1, 1.852)-10)
	chk.Float64(tst, "dh1", 1e-15, dh1, -1)
	chk.Float64(tst, "dh2", 1e-15, dh2, 1)

	// odd function
	fp, _, _, _ := pipeEq(a, l, 0, 0, 0.05)
	fm, _, _, _ := pipeEq(a, l, 0, 0, -0.05)
	chk.Float64(tst, "odd", 1e-15, fp, -fm)

	// continuity at the ends of the smoothing range
	for _, q := range []float64{Q1smooth, Q2smooth} {
		lo, _, _, dlo := pipeEq(a, l, 0, 0, q*(1-1e-12))
		hi, _, _, dhi := pipeEq(a, l, 0, 0, q*(1+1e-12))
		chk.Float64(tst, io.Sf("f(%g)", q), 1e-9, lo, hi)
		chk.Float64(tst, io.Sf("df(%g)", q), 1e-6, dlo, dhi)
	}

	// derivatives
	checkLinkEq(tst, "H-W", a, l, pipeEq, []float64{-0.1, -3e-4, -1e-4, 0, 1.5e-4, 3e-4, 0.05}, 1e-7, 1e-6)

	// zero length pipe without minor loss: f = h2 - h1
	net = onePipe(tst, "H-W", 0, 0.3, 100)
	a = NewAssembler(net)
	l = net.Links[0]
	f, _, _, dq := pipeEq(a, l, 20, 10, 0.1)
	chk.Float64(tst, "f zero length", 1e-15, f, -10)
	chk.Float64(tst, "dq zero length", 1e-15, dq, 0)
}

func Test_headloss02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("headloss02. Darcy-Weisbach and Chezy-Manning")

	d, ε, L := 0.3, 0.26e-3, 1000.0
	net := onePipe(tst, "D-W", L, d, ε)
	a := NewAssembler(net)
	l := net.Links[0]

	// turbulent flow against the Darcy formula
	q := 0.05
	re := 4 * q / (math.Pi * d * net.Nu)
	x := math.Log10(ε/(3.7*d) + 5.74/math.Pow(re, 0.9))
	fric := 0.25 / (x * x)
	v := q / (math.Pi * d * d / 4)
	hl := fric * L / d * v * v / (2 * 9.81)
	f, _, _, _ := pipeEq(a, l, 0, 0, q)
	io.Pforan("Re = %v  f = %v  hl = %v\n", re, fric, hl)
	chk.Float64(tst, "hl turbulent", 1e-12, f, hl)

	// laminar flow against Hagen-Poiseuille
	q = 4.5e-4
	re = 4 * q / (math.Pi * d * net.Nu)
	require.Less(tst, re, float64(ReLam))
	f, _, _, _ = pipeEq(a, l, 0, 0, q)
	chk.Float64(tst, "hl laminar", 1e-14, f, 128*net.Nu*L*q/(9.81*math.Pi*math.Pow(d, 4)))

	// derivatives in all regimes
	checkLinkEq(tst, "D-W", a, l, pipeEq, []float64{-0.05, 1e-4, 3e-4, 4.5e-4, 8e-4, 1.5e-3, 0.05}, 1e-8, 1e-6)

	// Chezy-Manning
	net = onePipe(tst, "C-M", L, d, 0.012)
	a = NewAssembler(net)
	l = net.Links[0]
	f, _, _, _ = pipeEq(a, l, 0, 0, 0.05)
	chk.Float64(tst, "C-M", 1e-12, f, 10.294*0.012*0.012*math.Pow(d, -16.0/3.0)*L*0.05*0.05)
	checkLinkEq(tst, "C-M", a, l, pipeEq, []float64{-0.05, 3e-4, 0.05}, 1e-7, 1e-6)
}

func Test_headloss03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("headloss03. pumps")

	in := inp.NewNetwork("SI")
	in.AddReservoir("R1", 0)
	in.AddJunction("J1", 0, 0)
	in.AddReservoir("R2", 20)
	in.AddPump("PU1", "R1", "J1", "C1")
	in.AddPipe("P1", "J1", "R2", 1000, 0.3, 100)
	in.AddCurve("C1", "pump", []float64{0.05}, []float64{30})
	net := build(tst, in)
	a := NewAssembler(net)
	l := net.Link("PU1")
	c := l.Pump.Curve

	// gain
	g, _ := pumpGain(l, 0.05)
	chk.Float64(tst, "G(design)", 1e-12, g, 30)
	f, dh1, dh2, _ := curvePumpEq(a, l, 0, 35, 0.05)
	chk.Float64(tst, "f", 1e-12, f, 5)
	chk.Float64(tst, "dh1", 1e-15, dh1, -1)
	chk.Float64(tst, "dh2", 1e-15, dh2, 1)

	// speed
	l.Setting = 0.5
	g, _ = pumpGain(l, 0.02)
	chk.Float64(tst, "G(ω=0.5)", 1e-12, g, 0.25*c.A-math.Pow(0.5, 2-c.C)*c.B*math.Pow(0.02, c.C))
	l.Setting = 1

	// continuity at small flows
	lo, dlo := pumpGain(l, PumpQsmall*(1-1e-12))
	hi, dhi := pumpGain(l, PumpQsmall*(1+1e-12))
	chk.Float64(tst, "G(qs)", 1e-9, lo, hi)
	chk.Float64(tst, "dG(qs)", 1e-6, dlo, dhi)
	checkLinkEq(tst, "pump", a, l, curvePumpEq, []float64{-0.01, 0, 5e-6, 0.02, 0.08}, 1e-7, 1e-6)

	// constant power pump
	l.Pump.Curve = nil
	l.Pump.Power = 10e3
	g, _ = powerGain(l, 1, 0.1)
	chk.Float64(tst, "power gain", 1e-12, g, 10e3/(9810*0.1))
	checkLinkEq(tst, "power", a, l, powerPumpEq, []float64{-0.01, 5e-4, 0.1}, 1e-7, 1e-6)
	chk.Float64(tst, "init flow", 1e-12, powerInitFlow(l, 1, 10), 10e3/(9810*10))
}

func Test_headloss04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("headloss04. pressure dependent demands")

	pmin, preq, pexp := 0.0, 20.0, 0.5
	f, df := pressureFraction(-1, pmin, preq, pexp)
	chk.Float64(tst, "f(-1)", 1e-15, f, 0)
	chk.Float64(tst, "df(-1)", 1e-15, df, 0)
	f, _ = pressureFraction(25, pmin, preq, pexp)
	chk.Float64(tst, "f(25)", 1e-15, f, 1)
	f, _ = pressureFraction(5, pmin, preq, pexp)
	chk.Float64(tst, "f(5)", 1e-15, f, math.Sqrt(0.25))

	// monotonic and smooth
	prev := 0.0
	for _, p := range []float64{0.01, 0.1, 0.19, 0.21, 1, 10, 19.85, 19.95, 19.999} {
		f, df = pressureFraction(p, pmin, preq, pexp)
		require.GreaterOrEqual(tst, f, prev, "p=%g", p)
		prev = f
		dnum := num.DerivCen5(p, 1e-6, func(x float64) float64 {
			v, _ := pressureFraction(x, pmin, preq, pexp)
			return v
		})
		chk.Float64(tst, io.Sf("df(%g)", p), 1e-6, df, dnum)
	}
	for _, p := range []float64{0.2, 19.8} {
		lo, dlo := pressureFraction(p-1e-10, pmin, preq, pexp)
		hi, dhi := pressureFraction(p+1e-10, pmin, preq, pexp)
		chk.Float64(tst, io.Sf("f(%g)", p), 1e-8, lo, hi)
		chk.Float64(tst, io.Sf("df(%g)", p), 1e-6, dlo, dhi)
	}
}
