// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

func init() {
	linkEqs[Pipe] = func(l *Link) LinkEq {
		return pipeEq
	}
}

// pipeEq implements hl(q) - (h1 - h2) = 0
func pipeEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	hl, dhl := smoothOdd(q, func(x float64) (float64, float64) {
		return a.Net.pipeHeadloss(l, x)
	})
	return hl - (h1 - h2), -1, 1, dhl
}
