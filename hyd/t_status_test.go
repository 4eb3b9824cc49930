// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/gowater/inp"
)

// statusCase holds one row of a table of status rules
type statusCase struct {
	status  LinkStatus // current status
	flow    float64    // current flow
	h1, h2  float64    // heads at ends
	status2 LinkStatus // expected status
	reason  TempReason // expected reason
}

func Test_status01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("status01. check valves and pumps")

	htol, qtol := 1e-3, 1e-4
	cv := []statusCase{
		{Open, 0.1, 10, 20, Closed, CheckValve},    // adverse heads
		{Open, -0.1, 10, 10, Closed, CheckValve},   // reverse flow
		{Closed, 0, 20, 10, Open, NoReason},        // favourable heads
		{Closed, 0, 10, 10.0005, Closed, NoReason}, // within tolerance
	}
	for i, c := range cv {
		l := &Link{Status: c.status, Flow: c.flow}
		s, r := cvStatus(l, c.h1, c.h2, htol, qtol)
		require.Equal(tst, c.status2, s, "cv case %d", i)
		require.Equal(tst, c.reason, r, "cv case %d", i)
	}

	// shutoff head = 40
	curve := inp.NewCurve("C1", "pump", []float64{0.05}, []float64{30})
	require.NoError(tst, curve.FitPump())
	chk.Float64(tst, "A", 1e-12, curve.A, 40)
	pump := []statusCase{
		{Open, 0.05, 0, 30, Open, NoReason},
		{Open, -0.01, 0, 30, Closed, Reverse},
		{Open, 0.001, 0, 41, Closed, Xhead},
		{Closed, 0, 0, 41, Closed, NoReason},
		{Closed, 0, 0, 39, Open, NoReason},
	}
	for i, c := range pump {
		l := &Link{Kind: Pump, Status: c.status, Flow: c.flow, Setting: 1, Pump: &PumpData{Curve: curve, Speed: 1}}
		s, r := pumpStatus(l, 1, c.h1, c.h2, htol, qtol)
		require.Equal(tst, c.status2, s, "pump case %d", i)
		require.Equal(tst, c.reason, r, "pump case %d", i)
	}

	// half speed: shutoff head = 10
	l := &Link{Kind: Pump, Status: Open, Flow: 0.001, Setting: 0.5, Pump: &PumpData{Curve: curve, Speed: 1}}
	s, r := pumpStatus(l, 1, 0, 11, htol, qtol)
	require.Equal(tst, Closed, s)
	require.Equal(tst, Xhead, r)

	// constant power: reopens only below the gain at PowerQsmall
	l = &Link{Kind: Pump, Setting: 1, Pump: &PumpData{Power: 5000, Speed: 1}}
	gmax, _ := powerGain(l, 1, PowerQsmall)
	g0, _ := powerGain(l, 1, 0)
	chk.Float64(tst, "g(0)", 1e-9, g0, 2*gmax)
	power := []statusCase{
		{Open, 0.01, 0, 20, Open, NoReason},
		{Open, -0.01, 0, 1.5 * gmax, Closed, Reverse},
		{Closed, 0, 0, 1.5 * gmax, Closed, Reverse},
		{Closed, 0, 0, gmax, Closed, Reverse},
		{Closed, 0, 0, 0.5 * gmax, Open, NoReason},
		{Closed, 0, 10, 5, Open, NoReason},
	}
	for i, c := range power {
		l.Status, l.Flow = c.status, c.flow
		l.Reason = NoReason
		if c.status == Closed {
			l.Reason = Reverse
		}
		s, r = pumpStatus(l, 1, c.h1, c.h2, htol, qtol)
		require.Equal(tst, c.status2, s, "power pump case %d", i)
		require.Equal(tst, c.reason, r, "power pump case %d", i)
	}
}

func Test_status02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("status02. pressure and flow control valves")

	htol, qtol := 1e-3, 1e-4
	hset := 30.0
	prv := []statusCase{
		{Active, 0.1, 50, 30, Active, NoReason},
		{Active, -0.1, 50, 30, Closed, Reverse},
		{Active, 0.1, 25, 30, Open, Throttle},
		{Open, 0.1, 50, 35, Active, NoReason},
		{Open, 0.1, 28, 25, Open, NoReason},
		{Closed, 0, 50, 20, Active, NoReason},
		{Closed, 0, 25, 20, Open, Throttle},
		{Closed, 0, 50, 40, Closed, NoReason},
	}
	for i, c := range prv {
		l := &Link{Kind: PRV, Status: c.status, Flow: c.flow, Setting: hset}
		s, r := prvStatus(l, c.h1, c.h2, hset, htol, qtol)
		require.Equal(tst, c.status2, s, "prv case %d", i)
		require.Equal(tst, c.reason, r, "prv case %d", i)
	}

	psv := []statusCase{
		{Active, 0.1, 30, 20, Active, NoReason},
		{Active, -0.1, 30, 20, Closed, Reverse},
		{Active, 0.1, 40, 35, Open, Throttle},
		{Open, 0.1, 25, 20, Active, NoReason},
		{Open, 0.1, 40, 35, Open, NoReason},
		{Closed, 0, 40, 20, Active, NoReason},
		{Closed, 0, 50, 40, Open, Throttle},
		{Closed, 0, 20, 40, Closed, NoReason},
	}
	for i, c := range psv {
		l := &Link{Kind: PSV, Status: c.status, Flow: c.flow, Setting: hset}
		s, r := psvStatus(l, c.h1, c.h2, hset, htol, qtol)
		require.Equal(tst, c.status2, s, "psv case %d", i)
		require.Equal(tst, c.reason, r, "psv case %d", i)
	}

	qset := 0.05
	fcv := []statusCase{
		{Active, 0.05, 50, 30, Active, NoReason},
		{Active, -0.05, 50, 30, Closed, Reverse},
		{Active, 0.05, 30, 50, Open, Throttle},
		{Open, 0.02, 30, 29, Open, NoReason},
		{Open, 0.06, 50, 30, Active, NoReason},
		{Closed, 0, 50, 30, Open, Throttle},
		{Closed, 0, 30, 50, Closed, NoReason},
	}
	for i, c := range fcv {
		l := &Link{Kind: FCV, Status: c.status, Flow: c.flow, Setting: qset}
		s, r := fcvStatus(l, c.h1, c.h2, htol, qtol)
		require.Equal(tst, c.status2, s, "fcv case %d", i)
		require.Equal(tst, c.reason, r, "fcv case %d", i)
	}
}

func Test_status03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("status03. tank bounds")

	net := tankNet(tst)
	sim := NewSimulator(net)
	defer sim.Clean()
	qtol, htol := net.Solver.Qtol, net.Solver.Htol
	t1 := net.Node("T1")
	l := net.Link("P1")

	// filling a full tank
	t1.Tank.Level, t1.Head = t1.Tank.Max, t1.Tank.Max
	l.Flow = 0.01
	require.Equal(tst, TankFull, sim.tankBlocks(l, qtol))
	l.Flow = -0.01
	require.Equal(tst, NoReason, sim.tankBlocks(l, qtol))

	// draining an empty tank
	t1.Tank.Level, t1.Head = t1.Tank.Min, t1.Tank.Min
	require.Equal(tst, TankEmpty, sim.tankBlocks(l, qtol))

	// release of closed links
	l.Status, l.Reason = Closed, TankEmpty
	net.Node("R1").Head = 50
	require.True(tst, sim.tankReleases(l, htol))
	net.Node("R1").Head = 0
	require.False(tst, sim.tankReleases(l, htol))
	t1.Tank.Level = 2
	require.True(tst, sim.tankReleases(l, htol))

	// overflowing tanks never block
	t1.Tank.Overflow = true
	t1.Tank.Level = t1.Tank.Max
	l.Flow = 0.01
	require.Equal(tst, NoReason, sim.tankBlocks(l, qtol))
}

func Test_controls01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("controls01. priorities and premises")

	ctrls := []*inp.Control{
		{Name: "a", Priority: 0},
		{Name: "b", Priority: 2},
		{Name: "c", Priority: 1},
		{Name: "d", Priority: 2},
	}
	chk.Ints(tst, "order", sortControls(ctrls), []int{1, 3, 2, 0})

	// conditions on time are combined from left to right
	sim := NewSimulator(tankNet(tst))
	defer sim.Clean()
	cond := func(rel inp.Relation, val float64, or bool) *inp.Condition {
		return &inp.Condition{Kind: inp.CondTime, Rel: rel, Value: val, Or: or}
	}
	c := &inp.Control{Conds: []*inp.Condition{cond(inp.RelGE, 3600, false), cond(inp.RelLT, 7200, false)}}
	require.True(tst, sim.premise(c, 5000))
	require.False(tst, sim.premise(c, 8000))
	c.Conds = append(c.Conds, cond(inp.RelEQ, 9000, true))
	require.True(tst, sim.premise(c, 9000.2))
	require.False(tst, sim.premise(c, 100))

	// conditions on results need a solution
	c = &inp.Control{Conds: []*inp.Condition{{Kind: inp.CondHead, Object: "T1", Rel: inp.RelGT, Value: -1}}}
	require.False(tst, sim.premise(c, 0))
	sim.haveSol = true
	require.True(tst, sim.premise(c, 0))
}

func Test_controls02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("controls02. conflicting actions")

	in := inp.NewNetwork("SI")
	in.AddReservoir("R1", 50)
	in.AddJunction("J1", 0, 0.01)
	in.AddPipe("P1", "R1", "J1", 100, 0.2, 100)
	low := in.AddControl("low", "P1", "status", "open", &inp.CondData{Attrib: "time", Rel: ">=", Value: "0"})
	low.Priority = 1
	high := in.AddControl("high", "P1", "status", "closed", &inp.CondData{Attrib: "time", Rel: ">=", Value: "0"})
	high.Priority = 5
	net := build(tst, in)
	sim := NewSimulator(net)
	defer sim.Clean()

	require.Equal(tst, 1, sim.applyControls(0))
	l := net.Link("P1")
	require.Equal(tst, Closed, l.Status)
	require.Equal(tst, Closed, l.UserStatus)
	ev := sim.Res.EventsOf(EvControl)
	require.Len(tst, ev, 1)
	require.Equal(tst, "P1", ev[0].Object)

	// same state again: nothing changes
	require.Equal(tst, 0, sim.applyControls(10))
	require.Len(tst, sim.Res.EventsOf(EvControl), 1)
	require.True(tst, math.IsInf(sim.nextControlTime(0), 1))
}

func Test_controls03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("controls03. settings and speeds")

	in := inp.NewNetwork("SI")
	in.AddReservoir("R1", 0)
	in.AddJunction("J1", 0, 0)
	in.AddJunction("J2", 0, 0.01)
	in.AddReservoir("R2", 20)
	in.AddPump("PU1", "R1", "J1", "C1")
	in.AddValve("V1", "J1", "J2", "PRV", 0.2, 30)
	in.AddPipe("P1", "J2", "R2", 1000, 0.3, 100)
	in.AddCurve("C1", "pump", []float64{0.05}, []float64{30})
	in.AddControl("stop", "PU1", "speed", "0", &inp.CondData{Attrib: "time", Rel: "=", Value: "1:00"})
	in.AddControl("start", "PU1", "setting", "0.8", &inp.CondData{Attrib: "time", Rel: "=", Value: "2:00"})
	in.AddControl("open", "V1", "status", "open", &inp.CondData{Attrib: "time", Rel: "=", Value: "3:00"})
	in.AddControl("set", "V1", "setting", "25", &inp.CondData{Attrib: "time", Rel: "=", Value: "4:00"})
	net := build(tst, in)
	sim := NewSimulator(net)
	defer sim.Clean()
	pu, v := net.Link("PU1"), net.Link("V1")

	chk.Float64(tst, "next", 1e-15, sim.nextControlTime(0), 3600)
	chk.Float64(tst, "next", 1e-15, sim.nextControlTime(3600), 7200)

	require.Equal(tst, 1, sim.applyControls(3600))
	chk.Float64(tst, "speed", 1e-15, pu.Setting, 0)
	require.Equal(tst, 1, sim.applyControls(7200))
	chk.Float64(tst, "speed", 1e-15, pu.Setting, 0.8)
	require.Equal(tst, Open, pu.Status)

	require.Equal(tst, 1, sim.applyControls(3*3600))
	require.Equal(tst, Open, v.Status)
	require.Equal(tst, 1, sim.applyControls(4*3600))
	require.Equal(tst, Active, v.Status)
	chk.Float64(tst, "setting", 1e-15, v.Setting, 25)
}
