// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

// UpdateDemands sets the expected demands of junctions at time t
//  scale -- multiplier of all demands; 1 for normal runs
func (o *Network) UpdateDemands(t, scale float64) {
	step, start := float64(o.Time.PatStep), float64(o.Time.PatStart)
	for _, n := range o.Juncs {
		node := o.Nodes[n]
		var d float64
		for _, dem := range node.Junc.Demands {
			d += dem.Base * dem.Pat.At(t, step, start)
		}
		node.ExpDemand = d * o.Data.DemandMult * scale
	}
}

// UpdateSources sets the heads of reservoirs and tanks at time t
func (o *Network) UpdateSources(t float64) {
	step, start := float64(o.Time.PatStep), float64(o.Time.PatStart)
	for _, n := range o.Fixed {
		node := o.Nodes[n]
		switch node.Kind {
		case Tank:
			node.Head = node.Elev + node.Tank.Level
		case Reservoir:
			r := node.Res
			if r.Fixed {
				node.Head = r.FixedVal
			} else {
				node.Head = r.Base * r.Pat.At(t, step, start)
			}
		}
	}
}

// UpdateSpeeds applies speed patterns to pumps. It must be called at the beginning of pattern
// periods only, so that speeds set by controls last until the next period
func (o *Network) UpdateSpeeds(t float64) {
	step, start := float64(o.Time.PatStep), float64(o.Time.PatStart)
	for _, l := range o.Links {
		if l.Kind != Pump || l.Pump.Pat == nil {
			continue
		}
		l.Setting = l.Pump.Speed * l.Pump.Pat.At(t, step, start)
	}
}

// Supply returns the total delivered demand and the total expected demand
func (o *Network) Supply() (delivered, expected float64) {
	for _, n := range o.Juncs {
		delivered += o.Nodes[n].Demand
		expected += o.Nodes[n].ExpDemand
	}
	return
}
