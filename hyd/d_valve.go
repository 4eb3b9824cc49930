// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

// ValveRsmall is the linear resistance of open valves without minor loss
const ValveRsmall = 1e-6

func init() {
	active := func(eq LinkEq) func(l *Link) LinkEq {
		return func(l *Link) LinkEq {
			if l.Status == Active {
				return eq
			}
			return openValveEq
		}
	}
	linkEqs[PRV] = active(prvEq)
	linkEqs[PSV] = active(psvEq)
	linkEqs[FCV] = active(fcvEq)
	linkEqs[TCV] = active(tcvEq)
	linkEqs[PBV] = active(pbvEq)
	linkEqs[GPV] = active(gpvEq)
}

// openValveEq implements the minor loss of a fully open valve
func openValveEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	m := l.Valve.Mloss
	hl, dhl := smoothOdd(q, func(x float64) (float64, float64) {
		return m * x * x, 2 * m * x
	})
	return hl + ValveRsmall*q - (h1 - h2), -1, 1, dhl + ValveRsmall
}

// prvEq fixes the downstream head: h2 = z2 + setting
func prvEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	return h2 - (a.Net.Nodes[l.N2].Elev + l.Setting), 0, 1, 0
}

// psvEq fixes the upstream head: h1 = z1 + setting
func psvEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	return h1 - (a.Net.Nodes[l.N1].Elev + l.Setting), 1, 0, 0
}

// fcvEq fixes the flow: q = setting
func fcvEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	return q - l.Setting, 0, 0, 1
}

// pbvEq fixes the head drop: h1 - h2 = setting
func pbvEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	return (h1 - h2) - l.Setting, 1, -1, 0
}

// tcvEq implements a minor loss with coefficient given by the setting
func tcvEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	m := minorLoss(l.Setting, l.Diam)
	hl, dhl := smoothOdd(q, func(x float64) (float64, float64) {
		return m * x * x, 2 * m * x
	})
	return hl + ValveRsmall*q - (h1 - h2), -1, 1, dhl + ValveRsmall
}

// gpvEq implements the headloss given by the curve of the valve
func gpvEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	c := l.Valve.Curve
	hl, dhl := smoothOdd(q, func(x float64) (float64, float64) {
		return c.Interp(x), c.Slope(x)
	})
	return hl - (h1 - h2), -1, 1, dhl
}
