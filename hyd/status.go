// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import "github.com/cpmech/gosl/io"

// StatusChange records a change of status made by the solver
type StatusChange struct {
	Link   int        // link index
	From   LinkStatus // previous status
	To     LinkStatus // new status
	Reason TempReason // reason
}

// checkStatus computes new statuses of all links from the current solution. All statuses are
// computed from the same solution and then applied together
func (o *Simulator) checkStatus(t float64) (changes []StatusChange) {
	net := o.Net
	htol, qtol := net.Solver.Htol, net.Solver.Qtol
	type pending struct {
		l      *Link
		status LinkStatus
		reason TempReason
	}
	var todo []pending
	for _, l := range net.Links {
		if l.UserStatus == Closed {
			continue
		}
		if l.Kind == Pump && l.Setting <= 0 {
			continue
		}
		if o.asm.LinkIso[l.Id] && l.Status != Closed {
			continue
		}
		h1, h2 := net.Nodes[l.N1].Head, net.Nodes[l.N2].Head
		status, reason := l.Status, l.Reason

		// links closed by full or empty tanks
		if l.Status == Closed && (l.Reason == TankFull || l.Reason == TankEmpty) {
			if o.tankReleases(l, htol) {
				status, reason = l.UserStatus, NoReason
			}
			if status != l.Status {
				todo = append(todo, pending{l, status, reason})
			}
			continue
		}

		// device rules
		switch l.Kind {
		case Pipe:
			if l.CheckValve {
				status, reason = cvStatus(l, h1, h2, htol, qtol)
			}
		case Pump:
			status, reason = pumpStatus(l, net.Sg, h1, h2, htol, qtol)
		case PRV:
			if l.UserStatus == Active {
				status, reason = prvStatus(l, h1, h2, net.Nodes[l.N2].Elev+l.Setting, htol, qtol)
			}
		case PSV:
			if l.UserStatus == Active {
				status, reason = psvStatus(l, h1, h2, net.Nodes[l.N1].Elev+l.Setting, htol, qtol)
			}
		case FCV:
			if l.UserStatus == Active {
				status, reason = fcvStatus(l, h1, h2, htol, qtol)
			}
		}

		// tank bounds
		if status != Closed {
			if r := o.tankBlocks(l, qtol); r != NoReason {
				status, reason = Closed, r
			}
		}
		if status != l.Status || reason != l.Reason {
			todo = append(todo, pending{l, status, reason})
		}
	}

	// apply
	for _, p := range todo {
		if p.status != p.l.Status {
			changes = append(changes, StatusChange{p.l.Id, p.l.Status, p.status, p.reason})
			if o.Verbose {
				io.Pfyel("%13.6e: %s %q: %v => %v %v\n", t, p.l.Kind, p.l.Name, p.l.Status, p.status, p.reason)
			}
		}
		p.l.Status, p.l.Reason = p.status, p.reason
	}
	return
}

// cvStatus returns the status of pipes with check valves
func cvStatus(l *Link, h1, h2, htol, qtol float64) (LinkStatus, TempReason) {
	dh := h1 - h2
	if dh < -htol {
		return Closed, CheckValve
	}
	if l.Flow < -qtol {
		return Closed, CheckValve
	}
	if dh > htol {
		return Open, NoReason
	}
	return l.Status, l.Reason
}

// pumpStatus returns the status of pumps. Closed constant power pumps reopen only if the head
// across them is below the gain at PowerQsmall, so that the reopened pump carries positive flow
//  sg -- specific gravity
func pumpStatus(l *Link, sg, h1, h2, htol, qtol float64) (LinkStatus, TempReason) {
	gain := h2 - h1
	curve := l.Pump.Curve
	if l.Status != Closed {
		if l.Flow < -qtol {
			return Closed, Reverse
		}
		if curve != nil && gain > l.Setting*l.Setting*curve.A+htol {
			return Closed, Xhead
		}
		return Open, NoReason
	}
	if curve == nil {
		if gmax, _ := powerGain(l, sg, PowerQsmall); gain < gmax-htol {
			return Open, NoReason
		}
		return l.Status, l.Reason
	}
	if gain < l.Setting*l.Setting*curve.A {
		return Open, NoReason
	}
	return l.Status, l.Reason
}

// prvStatus returns the status of pressure reducing valves
//  hset -- head corresponding to setting at downstream node
func prvStatus(l *Link, h1, h2, hset, htol, qtol float64) (LinkStatus, TempReason) {
	switch l.Status {
	case Active:
		if l.Flow < -qtol {
			return Closed, Reverse
		}
		if h1 < hset-htol {
			return Open, Throttle
		}
	case Open:
		if l.Flow < -qtol {
			return Closed, Reverse
		}
		if h2 >= hset+htol {
			return Active, NoReason
		}
	case Closed:
		if h1 >= hset+htol && h2 < hset-htol {
			return Active, NoReason
		}
		if h1 < hset-htol && h1 > h2+htol {
			return Open, Throttle
		}
	}
	return l.Status, l.Reason
}

// psvStatus returns the status of pressure sustaining valves
//  hset -- head corresponding to setting at upstream node
func psvStatus(l *Link, h1, h2, hset, htol, qtol float64) (LinkStatus, TempReason) {
	switch l.Status {
	case Active:
		if l.Flow < -qtol {
			return Closed, Reverse
		}
		if h2 > hset+htol {
			return Open, Throttle
		}
	case Open:
		if l.Flow < -qtol {
			return Closed, Reverse
		}
		if h1 < hset-htol {
			return Active, NoReason
		}
	case Closed:
		if h2 < hset-htol && h1 > hset+htol {
			return Active, NoReason
		}
		if h2 >= hset+htol && h1 > h2+htol {
			return Open, Throttle
		}
	}
	return l.Status, l.Reason
}

// fcvStatus returns the status of flow control valves
func fcvStatus(l *Link, h1, h2, htol, qtol float64) (LinkStatus, TempReason) {
	switch l.Status {
	case Active:
		if l.Flow < -qtol {
			return Closed, Reverse
		}
		if h1-h2 < -htol {
			return Open, Throttle
		}
	case Open:
		if l.Flow < -qtol {
			return Closed, Reverse
		}
		if l.Flow >= l.Setting {
			return Active, NoReason
		}
	case Closed:
		if h1 > h2+htol {
			return Open, Throttle
		}
	}
	return l.Status, l.Reason
}

// tank bounds ////////////////////////////////////////////////////////////////////////////////////

// tankFull tells whether the level of tank node n is at its maximum
func tankFull(n *Node) bool {
	return n.Kind == Tank && !n.Tank.Overflow && n.Tank.Level >= n.Tank.Max
}

// tankEmpty tells whether the level of tank node n is at its minimum
func tankEmpty(n *Node) bool {
	return n.Kind == Tank && n.Tank.Level <= n.Tank.Min
}

// tankBlocks returns TankFull or TankEmpty if link l fills a full tank or drains an empty one
func (o *Simulator) tankBlocks(l *Link, qtol float64) TempReason {
	for _, end := range []struct {
		n   int
		sgn float64 // +1 if positive flow enters the tank
	}{{l.N2, 1}, {l.N1, -1}} {
		n := o.Net.Nodes[end.n]
		inflow := end.sgn * l.Flow
		if tankFull(n) && inflow > qtol {
			return TankFull
		}
		if tankEmpty(n) && inflow < -qtol {
			return TankEmpty
		}
	}
	return NoReason
}

// tankReleases tells whether a link closed by a tank bound may reopen. Pumps reopen only after
// the tank left its bound; other links reopen when the heads would drive water away from the bound
func (o *Simulator) tankReleases(l *Link, htol float64) bool {
	net := o.Net
	for _, end := range []struct {
		n, m int
	}{{l.N2, l.N1}, {l.N1, l.N2}} {
		n := net.Nodes[end.n]
		if n.Kind != Tank {
			continue
		}
		other := net.Nodes[end.m].Head
		switch l.Reason {
		case TankFull:
			if !tankFull(n) {
				return true
			}
			if l.Kind != Pump && other < n.Head-htol {
				return true
			}
			return false
		case TankEmpty:
			if !tankEmpty(n) {
				return true
			}
			if l.Kind != Pump && other > n.Head+htol {
				return true
			}
			return false
		}
	}
	return true
}
