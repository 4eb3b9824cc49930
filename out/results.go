// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/num"
	"github.com/cpmech/gosl/utl"

	"github.com/cpmech/gowater/hyd"
)

// Define defines aliases
//  alias -- an alias to a group of points, an individual point, or to a set of points.
//           Example: "A", "sources" or "a b c". If the number of points found is different
//           than the number of aliases, a group is created.
//  Note:
//    To use spaces in aliases, prefix the alias with an exclamation mark; e.g "!main line"
func (o *Output) Define(alias string, loc Locator) {

	// check
	if len(alias) < 1 {
		chk.Panic("alias must have at least one character. %q is invalid", alias)
	}

	// locate points
	pts := loc.Locate(o.Res)
	if len(pts) < 1 {
		chk.Panic("cannot define entities with alias=%q and locator=%v", alias, loc)
	}

	// set results map
	if alias[0] == '!' {
		o.Results[alias[1:]] = pts
		return
	}
	lbls := strings.Fields(alias)
	if len(lbls) == len(pts) {
		for i, l := range lbls {
			o.Results[l] = []*Point{pts[i]}
		}
		return
	}
	o.Results[alias] = pts
}

// LoadResults loads all results after points are defined
//  times -- specified selected output times
//           use nil to indicate that all times are required
func (o *Output) LoadResults(times []float64) {
	if times == nil {
		times = o.Res.Times
	}
	o.TimeInds, o.Times = utl.GetITout(o.Res.Times, times, TolT)
	for _, pts := range o.Results {
		for _, p := range pts {
			p.Vals = make(map[string][]float64)
			data, keys := o.Res.Node, hyd.NodeQuantities
			if p.IsLink {
				data, keys = o.Res.Link, hyd.LinkQuantities
			}
			for _, key := range keys {
				vals := make([]float64, len(o.TimeInds))
				for i, tidx := range o.TimeInds {
					vals[i] = data[key][tidx][p.Idx]
				}
				p.Vals[key] = vals
			}
		}
	}
}

// GetRes gets results as a time series or as values at one time corresponding to a given alias
// for a single point or set of points.
//  idxI -- index in TimeInds slice corresponding to selected output time; use -1 for the last item.
//          If alias defines a single point, the whole time series is returned and idxI is ignored.
func (o *Output) GetRes(key, alias string, idxI int) []float64 {
	if idxI < 0 {
		idxI = len(o.TimeInds) - 1
	}
	if pts, ok := o.Results[alias]; ok {
		if len(pts) == 1 {
			if v, found := pts[0].Vals[key]; found {
				return v
			}
		} else {
			var res []float64
			for _, p := range pts {
				if v, found := p.Vals[key]; found {
					res = append(res, v[idxI])
				}
			}
			if len(res) > 0 {
				return res
			}
		}
	}
	chk.Panic("cannot get %q at %q", key, alias)
	return nil
}

// GetNames returns the names of the nodes or links corresponding to alias
func (o *Output) GetNames(alias string) (names []string) {
	for _, p := range o.Results[alias] {
		names = append(names, p.Name)
	}
	return
}

// Integrate integrates key over the selected times for a single point; e.g. the volume
// delivered by a junction or conveyed by a link
func (o *Output) Integrate(key, alias string) float64 {
	pts, ok := o.Results[alias]
	if !ok || len(pts) != 1 {
		chk.Panic("cannot integrate %q at %q (make sure this alias corresponds to a single point)", key, alias)
	}
	return num.QuadDiscreteTrapzXY(o.Times, o.GetRes(key, alias, 0))
}
