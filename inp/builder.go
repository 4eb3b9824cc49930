// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

// functions to build networks programmatically. Values are given in the units selected by
// Data.FlowUnits and converted by Prepare

// AddJunction adds a junction
func (o *Network) AddJunction(name string, elev, demand float64) *JunctionData {
	j := &JunctionData{Name: name, Elev: elev, Demand: demand}
	o.Junctions = append(o.Junctions, j)
	return j
}

// AddTank adds a cylindrical tank
func (o *Network) AddTank(name string, elev, init, min, max, diam float64) *TankData {
	t := &TankData{Name: name, Elev: elev, Init: init, Min: min, Max: max, Diam: diam}
	o.Tanks = append(o.Tanks, t)
	return t
}

// AddReservoir adds a reservoir
func (o *Network) AddReservoir(name string, head float64) *ReservoirData {
	r := &ReservoirData{Name: name, Head: head}
	o.Reservoirs = append(o.Reservoirs, r)
	return r
}

// AddPipe adds an open pipe
func (o *Network) AddPipe(name, node1, node2 string, length, diam, rough float64) *PipeData {
	p := &PipeData{Name: name, Node1: node1, Node2: node2, Length: length, Diam: diam, Rough: rough}
	o.Pipes = append(o.Pipes, p)
	return p
}

// AddPump adds a pump with a head curve
func (o *Network) AddPump(name, node1, node2, curve string) *PumpData {
	p := &PumpData{Name: name, Node1: node1, Node2: node2, Curve: curve, Speed: 1}
	o.Pumps = append(o.Pumps, p)
	return p
}

// AddValve adds a valve
func (o *Network) AddValve(name, node1, node2, kind string, diam, setting float64) *ValveData {
	v := &ValveData{Name: name, Node1: node1, Node2: node2, Type: kind, Diam: diam, Setting: setting}
	o.Valves = append(o.Valves, v)
	return v
}

// AddPattern adds a pattern
func (o *Network) AddPattern(name string, multipliers ...float64) *PatternData {
	p := &PatternData{Name: name, Multipliers: multipliers}
	o.Patterns = append(o.Patterns, p)
	return p
}

// AddCurve adds a curve
func (o *Network) AddCurve(name, kind string, x, y []float64) *CurveData {
	c := &CurveData{Name: name, Type: kind, X: x, Y: y}
	o.Curves = append(o.Curves, c)
	return c
}

// AddControl adds a control with one condition and one action
//  Example: AddControl("close-p1", "P1", "status", "closed", &CondData{Attrib: "time", Rel: "=", Value: "3600"})
func (o *Network) AddControl(name, object, attrib string, value Scalar, conds ...*CondData) *ControlData {
	c := &ControlData{Name: name, If: conds, Then: []*ActionData{{Object: object, Attrib: attrib, Value: value}}}
	o.Controls = append(o.Controls, c)
	return c
}
