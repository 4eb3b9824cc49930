// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements the handling of simulation results for analyses and reports
package out

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gowater/hyd"
)

// constants
var (
	TolT = 1e-3 // tolerance to compare times
)

// ResultsMap maps aliases to points
type ResultsMap map[string]Points

// Output holds results of one run and the entities selected for post-processing
type Output struct {

	// data set by Start
	Res *hyd.Results // results of a run

	// defined entities and results loaded by LoadResults
	Results  ResultsMap // maps labels => points
	TimeInds []int      // selected output indices
	Times    []float64  // selected output times
}

// Start starts handling of results
func Start(res *hyd.Results) (o *Output) {
	if res == nil {
		chk.Panic("results must not be nil")
	}
	o = new(Output)
	o.Res = res
	o.Results = make(map[string]Points)
	return
}
