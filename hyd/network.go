// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package hyd implements the hydraulic solver of water distribution networks
package hyd

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gowater/inp"
	"github.com/cpmech/gowater/units"
)

// NodeKind defines the kind of node
type NodeKind int

// node kinds
const (
	Junction NodeKind = iota
	Tank
	Reservoir
)

// String returns the name of the node kind
func (o NodeKind) String() string {
	switch o {
	case Junction:
		return "junction"
	case Tank:
		return "tank"
	}
	return "reservoir"
}

// LinkKind defines the kind of link
type LinkKind int

// link kinds
const (
	Pipe LinkKind = iota
	Pump
	PRV
	PSV
	FCV
	TCV
	PBV
	GPV
)

var linkKindNames = []string{"pipe", "pump", "PRV", "PSV", "FCV", "TCV", "PBV", "GPV"}

// String returns the name of the link kind
func (o LinkKind) String() string {
	return linkKindNames[o]
}

// IsValve tells whether the link is a valve
func (o LinkKind) IsValve() bool {
	return o >= PRV
}

// LinkStatus defines the status of links
type LinkStatus int

// statuses
const (
	Closed LinkStatus = iota
	Open
	Active
)

// String returns the name of the status
func (o LinkStatus) String() string {
	switch o {
	case Closed:
		return "closed"
	case Open:
		return "open"
	}
	return "active"
}

// TempReason tells why a link was temporarily closed or opened by the solver
type TempReason int

// reasons
const (
	NoReason   TempReason = iota // status set by user or controls
	CheckValve                   // check valve prevents reverse flow
	Xhead                        // pump cannot deliver the head
	Reverse                      // reverse flow through pump or valve
	TankFull                     // link fills a full tank
	TankEmpty                    // link drains an empty tank
	Throttle                     // valve cannot keep its setting
)

var reasonNames = []string{"", "check-valve", "xhead", "reverse", "tank-full", "tank-empty", "throttle"}

// String returns the name of the reason
func (o TempReason) String() string {
	return reasonNames[o]
}

// Node holds node data. Exactly one of Junc, Tank or Res is non-nil, as selected by Kind
type Node struct {
	Id    int      // index in Network.Nodes
	Name  string   // name
	Kind  NodeKind // kind
	Elev  float64  // elevation (tank bottom; reservoir head is held in Head)
	Links []int    // incident links

	// state
	Head      float64 // current head
	Demand    float64 // delivered demand (junctions)
	ExpDemand float64 // expected demand at current time (junctions)

	// kind data
	Junc *JunctionState  // junction data
	Tank *TankState      // tank data
	Res  *ReservoirState // reservoir data
}

// Demand holds one demand category
type Demand struct {
	Base float64      // base demand
	Pat  *inp.Pattern // pattern; nil means constant
}

// JunctionState holds junction data
type JunctionState struct {
	Demands []Demand // demand categories
	Pmin    float64  // PDD minimum pressure
	Preq    float64  // PDD required pressure
}

// TankState holds tank data
type TankState struct {
	Init     float64    // initial level
	Min      float64    // minimum level
	Max      float64    // maximum level
	Diam     float64    // diameter
	Area     float64    // cross section area of cylinder
	VolCurve *inp.Curve // level => volume; nil for cylinders
	Overflow bool       // can overflow
	Level    float64    // current level
}

// ReservoirState holds reservoir data
type ReservoirState struct {
	Base     float64      // base head
	Pat      *inp.Pattern // head pattern
	Fixed    bool         // head was set by a control and is not driven by the pattern
	FixedVal float64      // head set by a control
}

// Volume returns the volume of water at a given level
func (o *TankState) Volume(level float64) float64 {
	if o.VolCurve != nil {
		return o.VolCurve.Interp(level)
	}
	return o.Area * level
}

// LevelOf returns the level corresponding to a volume
func (o *TankState) LevelOf(vol float64) float64 {
	if o.VolCurve != nil {
		return o.VolCurve.InvInterp(vol)
	}
	return vol / o.Area
}

// Link holds link data. Pipe, Pump and Valve hold the data of the corresponding kinds
type Link struct {
	Id   int      // index in Network.Links
	Name string   // name
	Kind LinkKind // kind
	N1   int      // start node
	N2   int      // end node

	// state
	Status     LinkStatus // current status used by the solver
	UserStatus LinkStatus // status set by input or controls
	Reason     TempReason // why Status differs from UserStatus
	Flow       float64    // flow from N1 to N2
	Setting    float64    // valve setting or pump speed

	// common data
	Diam       float64 // diameter
	Minor      float64 // minor loss coefficient
	CheckValve bool    // pipe has a check valve

	// kind data
	Pipe  *PipeData  // pipe data
	Pump  *PumpData  // pump data
	Valve *ValveData // valve data
}

// PipeData holds pipe data
type PipeData struct {
	Length float64 // length
	Rough  float64 // roughness
	K      float64 // resistance coefficient of H-W and C-M formulae
	N      float64 // flow exponent
	Mloss  float64 // minor loss resistance: hl = Mloss q|q|
}

// PumpData holds pump data
type PumpData struct {
	Curve *inp.Curve   // head curve; nil for constant power pumps
	Power float64      // constant power
	Speed float64      // base speed
	Pat   *inp.Pattern // speed pattern
}

// ValveData holds valve data
type ValveData struct {
	Curve *inp.Curve // GPV headloss curve
	Mloss float64    // minor loss resistance when fully open
}

// Network holds the runtime state of a water distribution network
type Network struct {

	// input
	Name   string         // name
	Data   inp.Data       // global data
	Solver inp.SolverData // solver data
	Time   inp.TimeData   // time data
	Ctrls  []*inp.Control // controls (read-only)

	// entities
	Nodes     []*Node        // all nodes
	Links     []*Link        // all links
	NodeIndex map[string]int // node name => index
	LinkIndex map[string]int // link name => index

	// subsets
	Juncs  []int // junctions
	Fixed  []int // tanks and reservoirs
	Tanks  []int // tanks
	Valves []int // valves

	// constants
	Nu float64 // kinematic viscosity
	Sg float64 // specific gravity
}

// NewNetwork builds a runtime network from prepared input data
func NewNetwork(in *inp.Network) (o *Network, err error) {
	if !in.Ready {
		return nil, chk.Err("input data must be prepared before building the network")
	}
	o = new(Network)
	o.Name = in.Key
	o.Data = in.Data
	o.Solver = in.Solver
	o.Time = in.Time
	o.Ctrls = in.Ctrls
	o.Nu = units.KinVisc * in.Data.Viscosity
	o.Sg = in.Data.SpecGrav
	o.NodeIndex = make(map[string]int)
	o.LinkIndex = make(map[string]int)

	// nodes
	defpat := in.Pattern(in.Data.DefPattern)
	for _, j := range in.Junctions {
		js := &JunctionState{Pmin: in.Data.Pmin, Preq: in.Data.Preq}
		if j.Pmin != nil {
			js.Pmin = *j.Pmin
		}
		if j.Preq != nil {
			js.Preq = *j.Preq
		}
		pat := in.Pattern(j.Pattern)
		if j.Pattern == "" {
			pat = defpat
		}
		if j.Demand != 0 {
			js.Demands = append(js.Demands, Demand{Base: j.Demand, Pat: pat})
		}
		for _, d := range j.Demands {
			p := in.Pattern(d.Pattern)
			if d.Pattern == "" {
				p = defpat
			}
			js.Demands = append(js.Demands, Demand{Base: d.Base, Pat: p})
		}
		o.addNode(&Node{Name: j.Name, Kind: Junction, Elev: j.Elev, Head: j.Elev, Junc: js})
	}
	for _, t := range in.Tanks {
		ts := &TankState{Init: t.Init, Min: t.Min, Max: t.Max, Diam: t.Diam, Overflow: t.Overflow, Level: t.Init}
		ts.Area = math.Pi * t.Diam * t.Diam / 4.0
		if t.VolCurve != "" {
			ts.VolCurve = in.Curve(t.VolCurve)
		}
		o.addNode(&Node{Name: t.Name, Kind: Tank, Elev: t.Elev, Head: t.Elev + t.Init, Tank: ts})
	}
	for _, r := range in.Reservoirs {
		rs := &ReservoirState{Base: r.Head, Pat: in.Pattern(r.Pattern)}
		o.addNode(&Node{Name: r.Name, Kind: Reservoir, Elev: r.Head, Head: r.Head, Res: rs})
	}

	// links
	for _, p := range in.Pipes {
		l := &Link{Name: p.Name, Kind: Pipe, Diam: p.Diam, Minor: p.Minor, Status: Open}
		l.Pipe = &PipeData{Length: p.Length, Rough: p.Rough}
		switch p.Status {
		case "closed", "CLOSED":
			l.Status = Closed
		case "cv", "CV":
			l.CheckValve = true
		}
		o.setPipeCoefs(l)
		if err = o.addLink(l, p.Node1, p.Node2); err != nil {
			return
		}
	}
	for _, p := range in.Pumps {
		l := &Link{Name: p.Name, Kind: Pump, Status: Open, Setting: p.Speed}
		l.Pump = &PumpData{Curve: in.Curve(p.Curve), Power: p.Power, Speed: p.Speed, Pat: in.Pattern(p.Pattern)}
		if p.Status == "closed" || p.Status == "CLOSED" {
			l.Status = Closed
		}
		if err = o.addLink(l, p.Node1, p.Node2); err != nil {
			return
		}
	}
	for _, v := range in.Valves {
		l := &Link{Name: v.Name, Kind: valveKinds[v.Type], Diam: v.Diam, Minor: v.Minor, Setting: v.Setting, Status: Active}
		l.Valve = &ValveData{Curve: in.Curve(v.Curve), Mloss: minorLoss(v.Minor, v.Diam)}
		switch v.Status {
		case "open", "OPEN":
			l.Status = Open
		case "closed", "CLOSED":
			l.Status = Closed
		}
		if err = o.addLink(l, v.Node1, v.Node2); err != nil {
			return
		}
		o.Valves = append(o.Valves, l.Id)
	}
	for _, l := range o.Links {
		l.UserStatus = l.Status
	}
	return
}

var valveKinds = map[string]LinkKind{"PRV": PRV, "PSV": PSV, "FCV": FCV, "TCV": TCV, "PBV": PBV, "GPV": GPV}

// addNode adds node to arena
func (o *Network) addNode(n *Node) {
	n.Id = len(o.Nodes)
	o.Nodes = append(o.Nodes, n)
	o.NodeIndex[n.Name] = n.Id
	switch n.Kind {
	case Junction:
		o.Juncs = append(o.Juncs, n.Id)
	case Tank:
		o.Tanks = append(o.Tanks, n.Id)
		o.Fixed = append(o.Fixed, n.Id)
	default:
		o.Fixed = append(o.Fixed, n.Id)
	}
}

// addLink adds link to arena
func (o *Network) addLink(l *Link, n1, n2 string) error {
	i, ok1 := o.NodeIndex[n1]
	j, ok2 := o.NodeIndex[n2]
	if !ok1 || !ok2 {
		return chk.Err("cannot find nodes of link %q", l.Name)
	}
	l.Id = len(o.Links)
	l.N1, l.N2 = i, j
	o.Links = append(o.Links, l)
	o.LinkIndex[l.Name] = l.Id
	o.Nodes[i].Links = append(o.Nodes[i].Links, l.Id)
	o.Nodes[j].Links = append(o.Nodes[j].Links, l.Id)
	return nil
}

// setPipeCoefs computes resistance coefficients of pipes
func (o *Network) setPipeCoefs(l *Link) {
	p := l.Pipe
	p.Mloss = minorLoss(l.Minor, l.Diam)
	switch o.Data.Headloss {
	case "H-W":
		p.N = 1.852
		p.K = 10.667 * math.Pow(p.Rough, -1.852) * math.Pow(l.Diam, -4.871) * p.Length
	case "C-M":
		p.N = 2
		p.K = 10.294 * p.Rough * p.Rough * math.Pow(l.Diam, -16.0/3.0) * p.Length
	default: // D-W: K holds 8L/(gπ²d⁵); friction factor depends on flow
		p.N = 2
		p.K = 8.0 * p.Length / (units.Gravity * math.Pi * math.Pi * math.Pow(l.Diam, 5))
	}
}

// minorLoss returns the minor loss resistance 8K/(gπ²d⁴)
func minorLoss(k, d float64) float64 {
	if k <= 0 || d <= 0 {
		return 0
	}
	return 8.0 * k / (units.Gravity * math.Pi * math.Pi * math.Pow(d, 4))
}

// graph queries ///////////////////////////////////////////////////////////////////////////////////

// Other returns the node of link l opposite to node n
func (o *Network) Other(l *Link, n int) int {
	if l.N1 == n {
		return l.N2
	}
	return l.N1
}

// IncidentLinks returns the links connected to node n
func (o *Network) IncidentLinks(n int) []int {
	return o.Nodes[n].Links
}

// Neighbors returns the nodes connected to node n by a link, in link order and without repetition
func (o *Network) Neighbors(n int) (nodes []int) {
	seen := make(map[int]bool)
	for _, lid := range o.Nodes[n].Links {
		m := o.Other(o.Links[lid], n)
		if !seen[m] {
			seen[m] = true
			nodes = append(nodes, m)
		}
	}
	return
}

// LinksOfKind returns the links of the given kinds
func (o *Network) LinksOfKind(kinds ...LinkKind) (links []int) {
	for _, l := range o.Links {
		for _, k := range kinds {
			if l.Kind == k {
				links = append(links, l.Id)
				break
			}
		}
	}
	return
}

// Node returns the node named name or nil
func (o *Network) Node(name string) *Node {
	if i, ok := o.NodeIndex[name]; ok {
		return o.Nodes[i]
	}
	return nil
}

// Link returns the link named name or nil
func (o *Network) Link(name string) *Link {
	if i, ok := o.LinkIndex[name]; ok {
		return o.Links[i]
	}
	return nil
}

// Pressure returns the pressure head at node n
func (o *Network) Pressure(n *Node) float64 {
	if n.Kind == Reservoir {
		return 0
	}
	return n.Head - n.Elev
}

// Clone returns a deep copy of the network. Patterns, curves and controls are immutable and
// shared between copies
func (o *Network) Clone() *Network {
	c := *o
	c.NodeIndex = make(map[string]int, len(o.NodeIndex))
	for k, v := range o.NodeIndex {
		c.NodeIndex[k] = v
	}
	c.LinkIndex = make(map[string]int, len(o.LinkIndex))
	for k, v := range o.LinkIndex {
		c.LinkIndex[k] = v
	}
	c.Juncs = append([]int{}, o.Juncs...)
	c.Fixed = append([]int{}, o.Fixed...)
	c.Tanks = append([]int{}, o.Tanks...)
	c.Valves = append([]int{}, o.Valves...)
	c.Nodes = make([]*Node, len(o.Nodes))
	for i, n := range o.Nodes {
		m := *n
		m.Links = append([]int{}, n.Links...)
		if n.Junc != nil {
			js := *n.Junc
			js.Demands = append([]Demand{}, n.Junc.Demands...)
			m.Junc = &js
		}
		if n.Tank != nil {
			ts := *n.Tank
			m.Tank = &ts
		}
		if n.Res != nil {
			rs := *n.Res
			m.Res = &rs
		}
		c.Nodes[i] = &m
	}
	c.Links = make([]*Link, len(o.Links))
	for i, l := range o.Links {
		m := *l
		if l.Pipe != nil {
			p := *l.Pipe
			m.Pipe = &p
		}
		if l.Pump != nil {
			p := *l.Pump
			m.Pump = &p
		}
		if l.Valve != nil {
			v := *l.Valve
			m.Valve = &v
		}
		c.Links[i] = &m
	}
	return &c
}
