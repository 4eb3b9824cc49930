// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"bytes"
	"math"
	"sort"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/num"

	"github.com/cpmech/gowater/hyd"
)

// Extreme holds the extreme value of one quantity among all nodes or links and report times
type Extreme struct {
	Min, Max     float64 // extreme values
	MinAt, MaxAt string  // names of nodes or links
	MinTime      float64 // time of minimum
	MaxTime      float64 // time of maximum
	Mean         float64 // mean over all values
}

// Summary holds a summary of a run
type Summary struct {
	RunID     string              // identifier of run
	Network   string              // network name
	Ntimes    int                 // number of report times
	Nodes     map[string]*Extreme // node quantities
	Links     map[string]*Extreme // link quantities
	Events    map[string]int      // number of events by kind
	Failures  int                 // number of failed times
	Recovered int                 // failed times recovered by cutting demands
	Volume    float64             // total volume delivered to junctions [m³]
}

// Summarize computes a summary of results
func Summarize(res *hyd.Results) (o *Summary) {
	o = &Summary{RunID: res.RunID, Network: res.Network, Ntimes: res.Ntimes()}
	o.Nodes = make(map[string]*Extreme)
	o.Links = make(map[string]*Extreme)
	for _, key := range hyd.NodeQuantities {
		if e := extreme(res.Times, res.Node[key], res.NodeNames); e != nil {
			o.Nodes[key] = e
		}
	}
	for _, key := range []string{hyd.QFlow, hyd.QVelocity, hyd.QHeadloss} {
		if e := extreme(res.Times, res.Link[key], res.LinkNames); e != nil {
			o.Links[key] = e
		}
	}
	o.Events = make(map[string]int)
	for _, e := range res.Events {
		o.Events[e.Kind]++
	}
	for _, f := range res.Failures {
		if f.Recovered {
			o.Recovered++
		} else {
			o.Failures++
		}
	}
	if dem, ok := res.Node[hyd.QDemand]; ok {
		total := make([]float64, len(res.Times))
		for tidx, vals := range dem {
			for _, v := range vals {
				if v > 0 {
					total[tidx] += v
				}
			}
		}
		o.Volume = num.QuadDiscreteTrapzXY(res.Times, total)
	}
	return
}

// extreme computes the extremes of values[tidx][idx]; nil if there are no values
func extreme(times []float64, values [][]float64, names []string) (e *Extreme) {
	var n int
	for tidx, vals := range values {
		for idx, v := range vals {
			if e == nil {
				e = &Extreme{Min: math.Inf(1), Max: math.Inf(-1)}
			}
			if v < e.Min {
				e.Min, e.MinAt, e.MinTime = v, names[idx], times[tidx]
			}
			if v > e.Max {
				e.Max, e.MaxAt, e.MaxTime = v, names[idx], times[tidx]
			}
			e.Mean += v
			n++
		}
	}
	if e != nil {
		e.Mean /= float64(n)
	}
	return
}

// String returns a table with the summary
func (o *Summary) String() string {
	var b bytes.Buffer
	io.Ff(&b, "run %s of network %q: %d report times\n", o.RunID, o.Network, o.Ntimes)
	io.Ff(&b, "%-10s%14s%10s%10s%14s%10s%10s%14s\n", "quantity", "min", "at", "time", "max", "at", "time", "mean")
	write := func(keys []string, data map[string]*Extreme) {
		for _, key := range keys {
			if e, ok := data[key]; ok {
				io.Ff(&b, "%-10s%14.6g%10s%10g%14.6g%10s%10g%14.6g\n", key, e.Min, e.MinAt, e.MinTime, e.Max, e.MaxAt, e.MaxTime, e.Mean)
			}
		}
	}
	write(hyd.NodeQuantities, o.Nodes)
	write(hyd.LinkQuantities, o.Links)
	kinds := make([]string, 0, len(o.Events))
	for k := range o.Events {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		io.Ff(&b, "events %-14s %d\n", k, o.Events[k])
	}
	io.Ff(&b, "failures %d (recovered %d)\n", o.Failures, o.Recovered)
	io.Ff(&b, "delivered volume %g m³\n", o.Volume)
	return b.String()
}
