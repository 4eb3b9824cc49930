// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import "math"

// node quantities
const (
	QHead     = "head"     // total head
	QDemand   = "demand"   // delivered demand
	QPressure = "pressure" // pressure head
)

// link quantities
const (
	QFlow     = "flowrate" // flow from N1 to N2
	QVelocity = "velocity" // mean velocity
	QStatus   = "status"   // 0: closed, 1: open, 2: active
	QHeadloss = "headloss" // h1 - h2
	QSetting  = "setting"  // valve setting, pump speed or pipe roughness
)

// NodeQuantities lists all node quantities
var NodeQuantities = []string{QHead, QDemand, QPressure}

// LinkQuantities lists all link quantities
var LinkQuantities = []string{QFlow, QVelocity, QStatus, QHeadloss, QSetting}

// Results holds time series computed at report times. Values are given in SI units.
//  Node[quantity][timeIndex][nodeIndex]
//  Link[quantity][timeIndex][linkIndex]
type Results struct {
	RunID     string                 `json:"runid"`     // identifier of run
	Network   string                 `json:"network"`   // network name
	Times     []float64              `json:"times"`     // report times
	NodeNames []string               `json:"nodenames"` // names of nodes
	LinkNames []string               `json:"linknames"` // names of links
	Node      map[string][][]float64 `json:"node"`      // node results
	Link      map[string][][]float64 `json:"link"`      // link results
	Events    []*Event               `json:"events"`    // events
	Failures  []*TimestepFailure     `json:"failures"`  // failed times
}

// newResults allocates results of network
func newResults(net *Network, runID string) (o *Results) {
	o = new(Results)
	o.RunID = runID
	o.Network = net.Name
	for _, n := range net.Nodes {
		o.NodeNames = append(o.NodeNames, n.Name)
	}
	for _, l := range net.Links {
		o.LinkNames = append(o.LinkNames, l.Name)
	}
	o.Node = make(map[string][][]float64)
	o.Link = make(map[string][][]float64)
	return
}

// record appends the current state of network at time t
func (o *Results) record(net *Network, t float64) {
	o.Times = append(o.Times, t)
	nn, nl := len(net.Nodes), len(net.Links)
	head, dem, pres := make([]float64, nn), make([]float64, nn), make([]float64, nn)
	for i, n := range net.Nodes {
		head[i] = n.Head
		dem[i] = n.Demand
		pres[i] = net.Pressure(n)
	}
	o.Node[QHead] = append(o.Node[QHead], head)
	o.Node[QDemand] = append(o.Node[QDemand], dem)
	o.Node[QPressure] = append(o.Node[QPressure], pres)
	flow, vel, stat, hl, set := make([]float64, nl), make([]float64, nl), make([]float64, nl), make([]float64, nl), make([]float64, nl)
	for i, l := range net.Links {
		flow[i] = l.Flow
		if l.Kind != Pump && l.Diam > 0 {
			vel[i] = math.Abs(l.Flow) / (math.Pi * l.Diam * l.Diam / 4.0)
		}
		stat[i] = float64(l.Status)
		hl[i] = net.Nodes[l.N1].Head - net.Nodes[l.N2].Head
		switch l.Kind {
		case Pipe:
			set[i] = l.Pipe.Rough
		default:
			set[i] = l.Setting
		}
	}
	o.Link[QFlow] = append(o.Link[QFlow], flow)
	o.Link[QVelocity] = append(o.Link[QVelocity], vel)
	o.Link[QStatus] = append(o.Link[QStatus], stat)
	o.Link[QHeadloss] = append(o.Link[QHeadloss], hl)
	o.Link[QSetting] = append(o.Link[QSetting], set)
}

// Ntimes returns the number of report times
func (o *Results) Ntimes() int {
	return len(o.Times)
}

// NodeIndex returns the index of node named name or -1
func (o *Results) NodeIndex(name string) int {
	for i, s := range o.NodeNames {
		if s == name {
			return i
		}
	}
	return -1
}

// LinkIndex returns the index of link named name or -1
func (o *Results) LinkIndex(name string) int {
	for i, s := range o.LinkNames {
		if s == name {
			return i
		}
	}
	return -1
}

// NodeValue returns quantity of node at time index tidx
func (o *Results) NodeValue(quantity, node string, tidx int) float64 {
	return o.Node[quantity][tidx][o.NodeIndex(node)]
}

// LinkValue returns quantity of link at time index tidx
func (o *Results) LinkValue(quantity, link string, tidx int) float64 {
	return o.Link[quantity][tidx][o.LinkIndex(link)]
}

// EventsOf returns the events of a given kind
func (o *Results) EventsOf(kind string) (res []*Event) {
	for _, e := range o.Events {
		if e.Kind == kind {
			res = append(res, e)
		}
	}
	return
}
