// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"

	"github.com/cpmech/gowater/units"
)

// pump constants
const (
	PumpQsmall  = 1e-5 // [m³/s] below this flow, head gain of curve pumps is linear
	PowerQsmall = 1e-3 // [m³/s] below this flow, head gain of constant power pumps is linear
)

func init() {
	linkEqs[Pump] = func(l *Link) LinkEq {
		if l.Pump.Curve == nil {
			return powerPumpEq
		}
		return curvePumpEq
	}
}

// curvePumpEq implements (h2 - h1) - G(q) = 0 with G(q) = ω²A - ω^(2-C) B q^C
func curvePumpEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	g, dg := pumpGain(l, q)
	return (h2 - h1) - g, -1, 1, -dg
}

// powerPumpEq implements (h2 - h1) - G(q) = 0 with G(q) = ω³P/(γq)
func powerPumpEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	g, dg := powerGain(l, a.Net.Sg, q)
	return (h2 - h1) - g, -1, 1, -dg
}

// pumpGain returns the head gain of a curve pump and its derivative. The gain is extended
// linearly below PumpQsmall, including reverse flows
func pumpGain(l *Link, q float64) (g, dg float64) {
	c := l.Pump.Curve
	ω := l.Setting
	if q < PumpQsmall {
		gs, dgs := pumpGain(l, PumpQsmall)
		return gs + dgs*(q-PumpQsmall), dgs
	}
	b := math.Pow(ω, 2-c.C) * c.B
	g = ω*ω*c.A - b*math.Pow(q, c.C)
	dg = -c.C * b * math.Pow(q, c.C-1)
	return
}

// powerGain returns the head gain of a constant power pump and its derivative. The gain is
// extended linearly below PowerQsmall
func powerGain(l *Link, sg, q float64) (g, dg float64) {
	ω := l.Setting
	c := ω * ω * ω * l.Pump.Power / (units.WaterGamma * sg)
	if q < PowerQsmall {
		gs, dgs := c/PowerQsmall, -c/(PowerQsmall*PowerQsmall)
		return gs + dgs*(q-PowerQsmall), dgs
	}
	return c / q, -c / (q * q)
}

// powerInitFlow returns an initial flow for constant power pumps
func powerInitFlow(l *Link, sg, h0 float64) float64 {
	if h0 <= 0 {
		h0 = 1
	}
	return l.Setting * l.Pump.Power / (units.WaterGamma * sg * h0)
}
