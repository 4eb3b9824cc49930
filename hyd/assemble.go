// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"

	"github.com/cpmech/gosl/la"
)

// LinkEq computes the residual of the equation of a link and its derivatives with respect to
// the heads at both ends and the flow
type LinkEq func(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64)

// linkEqs holds the allocators of link equations; kind => allocator.
// Allocators are called whenever statuses change and return the equation valid for the
// current status of the link
var linkEqs = make(map[LinkKind]func(l *Link) LinkEq)

// closedEq is the equation of closed or isolated links: q = 0
func closedEq(a *Assembler, l *Link, h1, h2, q float64) (f, dh1, dh2, dq float64) {
	return q, 0, 0, 1
}

// Assembler maps the network into the unknowns vector and assembles residual and Jacobian.
//  unknowns: x = [h (junctions), q (links), d (junctions; pressure-dependent demand only)]
// The equation of row i is associated with unknown i: mass balance for heads, link equations
// for flows and delivered demand relations for demands
type Assembler struct {
	Net      *Network // network
	Pdd      bool     // pressure-dependent demands
	Neq      int      // number of equations
	HeadEq   []int    // node => equation of head; -1 for tanks and reservoirs
	FlowEq   []int    // link => equation of flow
	DemEq    []int    // node => equation of delivered demand; -1 if none
	Isolated []bool   // node is not connected to any tank or reservoir
	LinkIso  []bool   // link touches an isolated node
	NoFlow   []bool   // link equation is q = 0
	Eqs      []LinkEq // current link equations
	Nnz      int      // number of non-zeros in Jacobian
}

// NewAssembler allocates a new assembler
func NewAssembler(net *Network) (o *Assembler) {
	o = new(Assembler)
	o.Net = net
	o.Pdd = net.Data.Pdd
	nn, nl := len(net.Nodes), len(net.Links)
	o.HeadEq = make([]int, nn)
	o.DemEq = make([]int, nn)
	for i := range o.HeadEq {
		o.HeadEq[i], o.DemEq[i] = -1, -1
	}
	for _, n := range net.Juncs {
		o.HeadEq[n] = o.Neq
		o.Neq++
	}
	o.FlowEq = make([]int, nl)
	for i := range net.Links {
		o.FlowEq[i] = o.Neq
		o.Neq++
	}
	if o.Pdd {
		for _, n := range net.Juncs {
			o.DemEq[n] = o.Neq
			o.Neq++
		}
	}
	o.Isolated = make([]bool, nn)
	o.LinkIso = make([]bool, nl)
	o.NoFlow = make([]bool, nl)
	o.Eqs = make([]LinkEq, nl)

	// the sparsity pattern does not depend on statuses
	o.Nnz = 3 * nl
	for _, n := range net.Juncs {
		o.Nnz += 1 + len(net.Nodes[n].Links)
		if o.Pdd {
			o.Nnz += 3
		}
	}
	return
}

// conducting tells whether a link may carry flow with its current status
func conducting(l *Link) bool {
	if l.Status == Closed {
		return false
	}
	if l.Kind == Pump && l.Setting <= 0 {
		return false
	}
	return true
}

// Setup finds isolated nodes and selects the equations of links. It must be called whenever
// statuses or settings change
func (o *Assembler) Setup() {
	net := o.Net

	// breadth-first search from tanks and reservoirs through conducting links
	for i := range o.Isolated {
		o.Isolated[i] = true
	}
	queue := make([]int, 0, len(net.Nodes))
	for _, n := range net.Fixed {
		o.Isolated[n] = false
		queue = append(queue, n)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, lid := range net.Nodes[n].Links {
			l := net.Links[lid]
			if !conducting(l) {
				continue
			}
			m := net.Other(l, n)
			if o.Isolated[m] {
				o.Isolated[m] = false
				queue = append(queue, m)
			}
		}
	}

	// equations
	for i, l := range net.Links {
		o.LinkIso[i] = o.Isolated[l.N1] || o.Isolated[l.N2]
		o.NoFlow[i] = o.LinkIso[i] || !conducting(l)
		if o.NoFlow[i] {
			o.Eqs[i] = closedEq
			continue
		}
		o.Eqs[i] = linkEqs[l.Kind](l)
	}
}

// head returns the head at node n
func (o *Assembler) head(n int, x []float64) float64 {
	if eq := o.HeadEq[n]; eq >= 0 {
		return x[eq]
	}
	return o.Net.Nodes[n].Head
}

// Gather copies the current state of the network into x
func (o *Assembler) Gather(x []float64) {
	net := o.Net
	for _, n := range net.Juncs {
		node := net.Nodes[n]
		x[o.HeadEq[n]] = node.Head
		if o.Pdd {
			x[o.DemEq[n]] = node.Demand
		}
	}
	for i, l := range net.Links {
		x[o.FlowEq[i]] = l.Flow
	}
}

// Scatter copies x into the network. Links with q = 0 get exactly zero flow
func (o *Assembler) Scatter(x []float64) {
	net := o.Net
	for _, n := range net.Juncs {
		node := net.Nodes[n]
		node.Head = x[o.HeadEq[n]]
		switch {
		case o.Isolated[n]:
			node.Demand = 0
		case o.Pdd:
			node.Demand = x[o.DemEq[n]]
		default:
			node.Demand = node.ExpDemand
		}
	}
	for i, l := range net.Links {
		if o.NoFlow[i] {
			l.Flow = 0
			continue
		}
		l.Flow = x[o.FlowEq[i]]
	}
}

// Residual computes the residual vector F(x)
func (o *Assembler) Residual(x, F []float64) {
	net := o.Net
	for i, l := range net.Links {
		row := o.FlowEq[i]
		F[row], _, _, _ = o.Eqs[i](o, l, o.head(l.N1, x), o.head(l.N2, x), x[row])
	}
	for _, n := range net.Juncs {
		node := net.Nodes[n]
		row := o.HeadEq[n]
		if o.Isolated[n] {
			F[row] = x[row] - node.Elev
			if o.Pdd {
				F[o.DemEq[n]] = x[o.DemEq[n]]
			}
			continue
		}
		var sum float64
		for _, lid := range node.Links {
			sum += o.sign(lid, n) * x[o.FlowEq[lid]]
		}
		if o.Pdd {
			deq := o.DemEq[n]
			frac, _ := o.fraction(node, x[row])
			F[row] = sum - x[deq]
			F[deq] = x[deq] - node.ExpDemand*frac
			continue
		}
		F[row] = sum - node.ExpDemand
	}
}

// Jacobian assembles the Jacobian matrix dF/dx into Kb
func (o *Assembler) Jacobian(x []float64, Kb *la.Triplet) {
	net := o.Net
	Kb.Start()
	for i, l := range net.Links {
		row := o.FlowEq[i]
		_, dh1, dh2, dq := o.Eqs[i](o, l, o.head(l.N1, x), o.head(l.N2, x), x[row])
		Kb.Put(row, o.colOf(l.N1, row), dh1*o.hasHead(l.N1))
		Kb.Put(row, o.colOf(l.N2, row), dh2*o.hasHead(l.N2))
		Kb.Put(row, row, dq)
	}
	for _, n := range net.Juncs {
		node := net.Nodes[n]
		row := o.HeadEq[n]
		iso := o.Isolated[n]
		c := 1.0
		if iso {
			Kb.Put(row, row, 1)
			c = 0
		} else {
			Kb.Put(row, row, 0)
		}
		for _, lid := range node.Links {
			Kb.Put(row, o.FlowEq[lid], c*o.sign(lid, n))
		}
		if o.Pdd {
			deq := o.DemEq[n]
			Kb.Put(row, deq, -c)
			Kb.Put(deq, deq, 1)
			_, dfrac := o.fraction(node, x[row])
			Kb.Put(deq, row, -c*node.ExpDemand*dfrac)
		}
	}
}

// sign returns +1 if link lid flows into node n and -1 otherwise
func (o *Assembler) sign(lid, n int) float64 {
	if o.Net.Links[lid].N2 == n {
		return 1
	}
	return -1
}

// colOf returns the column of the head of node n; fixed-head nodes map onto the diagonal of
// row with zero value, keeping the sparsity pattern constant
func (o *Assembler) colOf(n, row int) int {
	if eq := o.HeadEq[n]; eq >= 0 {
		return eq
	}
	return row
}

// hasHead returns 1 if node n has an unknown head and 0 otherwise
func (o *Assembler) hasHead(n int) float64 {
	if o.HeadEq[n] >= 0 {
		return 1
	}
	return 0
}

// fraction returns the fraction of the expected demand delivered with head h at junction node
func (o *Assembler) fraction(node *Node, h float64) (f, df float64) {
	pexp := o.Net.Data.Pexp
	return pressureFraction(h-node.Elev, node.Junc.Pmin, node.Junc.Preq, pexp)
}

// MaxHeadChange returns the largest absolute change of heads in dx
func (o *Assembler) MaxHeadChange(dx []float64) (res float64) {
	for _, n := range o.Net.Juncs {
		res = math.Max(res, math.Abs(dx[o.HeadEq[n]]))
	}
	return
}
