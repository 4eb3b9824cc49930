// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/gowater/inp"
)

// tankNet returns a network with a reservoir filling a tank
//  R1 (50 m) -- P1 -- T1 (elev 0, level 2 in [1, 5], diameter 5 m)
func tankNet(tst *testing.T) *Network {
	in := inp.NewNetwork("SI")
	in.Time.Duration = 10 * 3600
	in.AddReservoir("R1", 50)
	in.AddTank("T1", 0, 2, 1, 5, 5)
	in.AddJunction("J1", 0, 0.001)
	in.AddPipe("P1", "R1", "T1", 5000, 0.1, 100)
	in.AddPipe("P2", "R1", "J1", 100, 0.1, 100)
	return build(tst, in)
}

func Test_driver01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver01. time control closing a pipe")

	in, err := inp.ReadNetwork("../inp/data/net1.json")
	require.NoError(tst, err)
	net, err := NewNetwork(in)
	require.NoError(tst, err)
	sim := NewSimulator(net)
	defer sim.Clean()
	sim.Verbose = chk.Verbose
	require.NoError(tst, sim.Run(context.Background()))

	res := sim.Res
	require.Equal(tst, []float64{0, 3600, 7200}, res.Times)
	chk.Float64(tst, "q(0)", 1e-9, res.LinkValue(QFlow, "P1", 0), 5e-3)
	chk.Float64(tst, "status(0)", 1e-15, res.LinkValue(QStatus, "P1", 0), 1)
	for tidx := 1; tidx < 3; tidx++ {
		chk.Float64(tst, "q", 1e-15, res.LinkValue(QFlow, "P1", tidx), 0)
		chk.Float64(tst, "status", 1e-15, res.LinkValue(QStatus, "P1", tidx), 0)
		chk.Float64(tst, "demand", 1e-15, res.NodeValue(QDemand, "J1", tidx), 0)
		chk.Float64(tst, "head", 1e-12, res.NodeValue(QHead, "J1", tidx), 10)
	}
	ctrl := res.EventsOf(EvControl)
	require.Len(tst, ctrl, 1)
	chk.Float64(tst, "control time", 1e-15, ctrl[0].Time, 3600)
	require.Equal(tst, "P1", ctrl[0].Object)
}

func Test_driver02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver02. check valve closed by a control changing a reservoir head")

	in := inp.NewNetwork("SI")
	in.Time.Duration = 7200
	in.AddReservoir("R1", 50)
	in.AddReservoir("R2", 40)
	in.AddJunction("J1", 0, 0.01)
	p1 := in.AddPipe("P1", "R1", "J1", 1000, 0.2, 100)
	p1.Status = "cv"
	in.AddPipe("P2", "R2", "J1", 1000, 0.2, 100)
	in.AddControl("drop", "R1", "head", "30", &inp.CondData{Attrib: "time", Rel: ">=", Value: "1:00"})
	net := build(tst, in)
	sim := solve(tst, net)
	defer sim.Clean()

	res := sim.Res
	require.Equal(tst, []float64{0, 3600, 7200}, res.Times)
	require.Greater(tst, res.LinkValue(QFlow, "P1", 0), 0.0)
	chk.Float64(tst, "status(0)", 1e-15, res.LinkValue(QStatus, "P1", 0), 1)
	for tidx := 1; tidx < 3; tidx++ {
		chk.Float64(tst, "R1", 1e-15, res.NodeValue(QHead, "R1", tidx), 30)
		chk.Float64(tst, "status", 1e-15, res.LinkValue(QStatus, "P1", tidx), 0)
		chk.Float64(tst, "q(P1)", 1e-15, res.LinkValue(QFlow, "P1", tidx), 0)
		chk.Float64(tst, "q(P2)", 1e-9, res.LinkValue(QFlow, "P2", tidx), 0.01)
	}
	require.Equal(tst, CheckValve, net.Link("P1").Reason)
	require.Len(tst, res.EventsOf(EvControl), 1)
	require.NotEmpty(tst, res.EventsOf(EvStatus))
}

func Test_driver03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver03. tank filling")

	net := tankNet(tst)
	sim := NewSimulator(net)
	defer sim.Clean()
	sim.Verbose = chk.Verbose
	require.NoError(tst, sim.Run(context.Background()))
	res := sim.Res
	chk.IntAssert(res.Ntimes(), 11)

	// explicit integration of first step
	tk := net.Node("T1").Tank
	q0 := res.LinkValue(QFlow, "P1", 0)
	io.Pforan("q0 = %v\n", q0)
	chk.Float64(tst, "level(1h)", 1e-9, res.NodeValue(QHead, "T1", 1), 2+q0*3600/tk.Area)

	// bounds and monotonicity
	prev := 0.0
	for tidx := range res.Times {
		level := res.NodeValue(QHead, "T1", tidx)
		require.GreaterOrEqual(tst, level, tk.Min-1e-12)
		require.LessOrEqual(tst, level, tk.Max+1e-12)
		require.GreaterOrEqual(tst, level, prev)
		prev = level
	}

	// full tank
	chk.Float64(tst, "final level", 1e-12, tk.Level, tk.Max)
	l := net.Link("P1")
	require.Equal(tst, Closed, l.Status)
	require.Equal(tst, TankFull, l.Reason)
	chk.Float64(tst, "q(end)", 1e-15, res.LinkValue(QFlow, "P1", 10), 0)
}

func Test_driver04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver04. reset")

	sim := NewSimulator(tankNet(tst))
	defer sim.Clean()
	require.NoError(tst, sim.Run(context.Background()))
	first := sim.Res
	require.Equal(tst, Complete, sim.State)

	sim.Reset()
	require.Equal(tst, Initializing, sim.State)
	chk.Float64(tst, "t", 1e-15, sim.T, 0)
	chk.Float64(tst, "level", 1e-15, sim.Net.Node("T1").Tank.Level, 2)
	chk.IntAssert(sim.Res.Ntimes(), 0)

	require.NoError(tst, sim.Run(context.Background()))
	require.Equal(tst, first.Times, sim.Res.Times)
	for _, key := range NodeQuantities {
		require.Equal(tst, first.Node[key], sim.Res.Node[key], key)
	}
	for _, key := range LinkQuantities {
		require.Equal(tst, first.Link[key], sim.Res.Link[key], key)
	}
	require.Equal(tst, len(first.Events), len(sim.Res.Events))
}

func Test_driver05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver05. restart")

	// uninterrupted run
	ref := NewSimulator(tankNet(tst))
	defer ref.Clean()
	require.NoError(tst, ref.Run(context.Background()))

	// run until 4h and take snapshot
	first := NewSimulator(tankNet(tst))
	defer first.Clean()
	require.NoError(tst, first.RunUntil(context.Background(), 4*3600))
	chk.Float64(tst, "t", 1e-15, first.T, 4*3600)
	chk.IntAssert(first.Res.Ntimes(), 5)
	snap := first.TakeSnapshot()
	require.NotEmpty(tst, snap.ID)
	var buf bytes.Buffer
	require.NoError(tst, snap.Encode(&buf, "gob"))
	snap, err := DecodeSnapshot(&buf, "gob")
	require.NoError(tst, err)

	// continue from snapshot
	second := NewSimulator(tankNet(tst))
	defer second.Clean()
	require.NoError(tst, second.Restore(snap))
	require.NoError(tst, second.Run(context.Background()))
	require.Equal(tst, ref.Res.Times[5:], second.Res.Times)
	for _, key := range NodeQuantities {
		for i, vals := range second.Res.Node[key] {
			chk.Array(tst, key, 1e-12, vals, ref.Res.Node[key][5+i])
		}
	}
	for _, key := range LinkQuantities {
		for i, vals := range second.Res.Link[key] {
			chk.Array(tst, key, 1e-12, vals, ref.Res.Link[key][5+i])
		}
	}

	// continue first run
	require.NoError(tst, first.Run(context.Background()))
	require.Equal(tst, ref.Res.Times, first.Res.Times)
	require.Equal(tst, ref.Res.Node[QHead], first.Res.Node[QHead])
}

func Test_driver06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver06. snapshot encoding")

	sim := NewSimulator(tankNet(tst))
	defer sim.Clean()
	require.NoError(tst, sim.RunUntil(context.Background(), 3600))
	snap := sim.TakeSnapshot()

	var buf bytes.Buffer
	require.NoError(tst, snap.Encode(&buf, "json"))
	res, err := DecodeSnapshot(&buf, "json")
	require.NoError(tst, err)
	require.Equal(tst, snap, res)

	// errors
	_, err = DecodeSnapshot(bytes.NewReader([]byte("not snappy")), "gob")
	require.Error(tst, err)
	bad := *snap
	bad.Version = 99
	require.Error(tst, sim.Restore(&bad))
	bad = *snap
	bad.NetworkName = "other"
	require.Error(tst, sim.Restore(&bad))
	bad = *snap
	bad.Flows = bad.Flows[:1]
	require.Error(tst, sim.Restore(&bad))
}

func Test_driver07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver07. failure policies")

	// abort
	net := onePipe(tst, "H-W", 1000, 0.3, 100)
	net.Time.Duration = 7200
	net.Solver.NmaxIt = 1
	sim := NewSimulator(net)
	defer sim.Clean()
	err := sim.Run(context.Background())
	var cerr *ConvergenceError
	require.True(tst, errors.As(err, &cerr))
	require.Equal(tst, MaxIterations, cerr.Reason)
	chk.Float64(tst, "time", 1e-15, cerr.Time, 0)
	require.Equal(tst, Failed, sim.State)
	require.Len(tst, sim.Res.Failures, 1)
	require.Equal(tst, err, sim.Run(context.Background()))
	io.Pforan("err = %v\n", err)

	// continue
	net = onePipe(tst, "H-W", 1000, 0.3, 100)
	net.Time.Duration = 7200
	net.Solver.NmaxIt = 1
	net.Solver.Abort = false
	obs := new(recorder)
	sim = NewSimulator(net)
	defer sim.Clean()
	sim.Obs = obs
	require.NoError(tst, sim.Run(context.Background()))
	require.Equal(tst, Complete, sim.State)
	require.Len(tst, sim.Res.Failures, 3)
	require.Len(tst, sim.Res.EventsOf(EvFailure), 3)
	chk.IntAssert(sim.Res.Ntimes(), 3)
	chk.IntAssert(obs.fails, 3)
	require.Equal(tst, "max iterations reached", sim.Res.Failures[0].Reason)
}

func Test_driver08(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver08. cancellation and partial runs")

	sim := NewSimulator(tankNet(tst))
	defer sim.Clean()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(tst, sim.Run(ctx), context.Canceled)
	require.NoError(tst, sim.RunUntil(context.Background(), 5400))
	chk.Float64(tst, "t", 1e-15, sim.T, 3600)
	require.NoError(tst, sim.RunUntil(context.Background(), 1e9))
	require.Equal(tst, Complete, sim.State)
	chk.Float64(tst, "t", 1e-15, sim.T, 36000)
}

func Test_driver09(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver09. pumped network with tank, valve, patterns and controls")

	in, err := inp.ReadNetwork("../inp/data/net1.yaml")
	require.NoError(tst, err)
	in.Solver.Abort = false
	net, err := NewNetwork(in)
	require.NoError(tst, err)
	sim := NewSimulator(net)
	defer sim.Clean()
	sim.Verbose = chk.Verbose
	require.NoError(tst, sim.Run(context.Background()))
	res := sim.Res
	chk.IntAssert(res.Ntimes(), 25)
	tk := net.Node("T1")
	for tidx := range res.Times {
		level := res.NodeValue(QHead, "T1", tidx) - tk.Elev
		require.GreaterOrEqual(tst, level, tk.Tank.Min-1e-9)
		require.LessOrEqual(tst, level, tk.Tank.Max+1e-9)
	}
	if chk.Verbose {
		for _, e := range res.Events {
			io.Pf("%8.0f %-16s %-4s %v\n", e.Time, e.Kind, e.Object, e.Msg)
		}
	}
	for _, f := range res.Failures {
		io.Pfred("failure at t=%g: %s\n", f.Time, f.Reason)
	}
	require.Equal(tst, Complete, sim.State)
}

func Test_driver10(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver10. next time")

	in := inp.NewNetwork("SI")
	in.Time.Duration = 86400
	in.Time.HydStep = 3600
	in.Time.PatStep = 1800
	in.Time.PatStart = 600
	in.Time.RepStep = 7200
	in.Time.RepStart = 900
	in.Time.StartClock = 6 * 3600
	in.AddReservoir("R1", 50)
	in.AddJunction("J1", 0, 0.001)
	in.AddPipe("P1", "R1", "J1", 100, 0.1, 100)
	in.AddControl("c1", "P1", "status", "closed", &inp.CondData{Attrib: "clocktime", Rel: "=", Value: "6:10"})
	net := build(tst, in)
	sim := NewSimulator(net)
	defer sim.Clean()

	chk.Float64(tst, "t=0", 1e-15, sim.nextTime(0), 600)     // control at 6:10
	chk.Float64(tst, "t=600", 1e-15, sim.nextTime(600), 900) // report start
	chk.Float64(tst, "t=900", 1e-15, sim.nextTime(900), 1200)
	chk.Float64(tst, "t=1200", 1e-15, sim.nextTime(1200), 3000)
	chk.Float64(tst, "t=3000", 1e-15, sim.nextTime(3000), 3600)
	chk.Float64(tst, "end", 1e-15, sim.nextTime(86000), 86400)
	chk.Float64(tst, "clock", 1e-15, net.clockTime(20*3600), 2*3600)
	require.True(tst, sim.isReportTime(900))
	require.True(tst, sim.isReportTime(8100))
	require.False(tst, sim.isReportTime(3600))
	require.False(tst, math.IsInf(sim.nextControlTime(700), 1))
}
