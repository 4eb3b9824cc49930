// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gowater/inp"
)

// TimeTol is the tolerance used when comparing times [s]
const TimeTol = 0.5

// sortControls returns the order of evaluation of controls: higher priority first, then input order
func sortControls(ctrls []*inp.Control) (order []int) {
	order = make([]int, len(ctrls))
	for i := range ctrls {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return ctrls[order[i]].Priority > ctrls[order[j]].Priority
	})
	return
}

// clockTime returns the time of the day at simulation time t
func (o *Network) clockTime(t float64) float64 {
	return math.Mod(float64(o.Time.StartClock)+t, 86400)
}

// condition evaluates a condition at time t
func (o *Simulator) condition(c *inp.Condition, t float64) bool {
	net := o.Net
	htol, qtol := net.Solver.Htol, net.Solver.Qtol
	switch c.Kind {
	case inp.CondTime:
		return c.Rel.Compare(t, c.Value, TimeTol)
	case inp.CondClock:
		return c.Rel.Compare(net.clockTime(t), c.Value, TimeTol)
	case inp.CondLevel:
		n := net.Node(c.Object)
		return c.Rel.Compare(n.Tank.Level, c.Value, htol)
	case inp.CondStatus:
		l := net.Link(c.Object)
		return c.Rel.Compare(float64(l.Status), c.Value, 0.1)
	case inp.CondSetting, inp.CondSpeed:
		l := net.Link(c.Object)
		return c.Rel.Compare(l.Setting, c.Value, 1e-9)
	}

	// conditions on results require a solution
	if !o.haveSol {
		return false
	}
	switch c.Kind {
	case inp.CondPressure:
		n := net.Node(c.Object)
		return c.Rel.Compare(net.Pressure(n), c.Value, htol)
	case inp.CondHead:
		n := net.Node(c.Object)
		return c.Rel.Compare(n.Head, c.Value, htol)
	case inp.CondDemand:
		n := net.Node(c.Object)
		return c.Rel.Compare(n.Demand, c.Value, qtol)
	case inp.CondFlow:
		l := net.Link(c.Object)
		return c.Rel.Compare(l.Flow, c.Value, qtol)
	}
	return false
}

// premise evaluates the conditions of a control. Conditions are combined from left to right
func (o *Simulator) premise(c *inp.Control, t float64) (res bool) {
	for i, cond := range c.Conds {
		v := o.condition(cond, t)
		switch {
		case i == 0:
			res = v
		case cond.Or:
			res = res || v
		default:
			res = res && v
		}
	}
	return
}

// applyControls evaluates all controls at time t and applies their actions. When more than one
// action targets the same attribute of an object, only the first one in priority order is
// applied. Returns the number of changes
func (o *Simulator) applyControls(t float64) (nchanges int) {
	done := make(map[string]bool)
	for _, idx := range o.ctrlOrder {
		c := o.Net.Ctrls[idx]
		actions := c.Then
		if !o.premise(c, t) {
			actions = c.Else
		}
		for _, a := range actions {
			key := a.Object + "/status"
			if a.Kind != inp.ActStatus {
				key = a.Object + "/setting"
			}
			if done[key] {
				continue
			}
			done[key] = true
			if o.act(a) {
				nchanges++
				o.event(t, EvControl, a.Object, a.Value, io.Sf("control %q", c.Name))
				if o.Verbose {
					io.Pfcyan("%13.6e: control %q changed %q\n", t, c.Name, a.Object)
				}
			}
		}
	}
	return
}

// act applies an action and tells whether something changed
func (o *Simulator) act(a *inp.Action) (changed bool) {
	net := o.Net
	if a.Kind == inp.ActHead {
		n := net.Node(a.Object)
		r := n.Res
		if r.Fixed && r.FixedVal == a.Value {
			return false
		}
		r.Fixed, r.FixedVal = true, a.Value
		n.Head = a.Value
		return true
	}
	l := net.Link(a.Object)
	switch a.Kind {
	case inp.ActStatus:
		s := LinkStatus(a.Value)
		if l.UserStatus == s {
			return false
		}
		l.UserStatus, l.Status, l.Reason = s, s, NoReason
		return true
	case inp.ActSetting, inp.ActSpeed:
		if l.Kind == Pump {
			if l.Setting == a.Value && (a.Value == 0 || l.UserStatus == Open) {
				return false
			}
			l.Setting = a.Value
			if a.Value > 0 && l.UserStatus == Closed {
				l.UserStatus, l.Status, l.Reason = Open, Open, NoReason
			}
			return true
		}
		if l.Setting == a.Value && l.UserStatus == Active {
			return false
		}
		l.Setting = a.Value
		l.UserStatus, l.Status, l.Reason = Active, Active, NoReason
		return true
	}
	return false
}

// nextControlTime returns the next time after t at which a time or clock time condition holds
// with equality; +Inf if none
func (o *Simulator) nextControlTime(t float64) (next float64) {
	next = math.Inf(1)
	for _, c := range o.Net.Ctrls {
		for _, cond := range c.Conds {
			switch cond.Kind {
			case inp.CondTime:
				if cond.Value > t+TimeTol {
					next = math.Min(next, cond.Value)
				}
			case inp.CondClock:
				clock := o.Net.clockTime(t)
				dt := cond.Value - clock
				if dt <= TimeTol {
					dt += 86400
				}
				next = math.Min(next, t+dt)
			}
		}
	}
	return
}
