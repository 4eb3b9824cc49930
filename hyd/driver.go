// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"context"
	"math"
	"time"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/google/uuid"

	"github.com/cpmech/gowater/inp"
	"github.com/cpmech/gowater/units"
)

// RunState defines the state of a simulation
type RunState int

// states
const (
	Initializing RunState = iota
	Solving
	StatusCorrecting
	TankUpdating
	Reporting
	Advancing
	Complete
	Failed
)

var stateNames = []string{"initializing", "solving", "status-correcting", "tank-updating", "reporting", "advancing", "complete", "failed"}

// String returns the name of the state
func (o RunState) String() string {
	return stateNames[o]
}

// Observer receives statistics of simulations
type Observer interface {
	ObserveNewton(iterations int, residual float64) // one Newton solve
	ObserveStatus(iterations int)                  // statuses reached a fixed point
	ObserveStep(ok bool)                           // one hydraulic time
	ObserveEvent(kind string)                      // one event
	ObserveRun(ok bool, seconds float64)           // one call to Run or RunUntil
}

// Simulator runs extended period simulations of a network
type Simulator struct {

	// data
	Net     *Network // network; modified during the run
	Res     *Results // results
	State   RunState // current state
	T       float64  // current time
	RunID   string   // identifier of this simulator
	Verbose bool     // show messages
	Obs     Observer // observer; may be nil

	// auxiliary
	asm       *Assembler // assembler
	sys       *linsys    // linear system
	x         la.Vector  // unknowns
	ctrlOrder []int      // order of evaluation of controls
	initial   *Network   // initial state
	haveSol   bool       // network holds a solution
	needSolve bool       // current time has not been solved yet
	patIdx    int        // pattern period of last speed update
	err       error      // error that stopped the run
}

// NewSimulator returns a new simulator. The network is modified by the simulator
func NewSimulator(net *Network) (o *Simulator) {
	o = new(Simulator)
	o.Net = net
	o.RunID = uuid.NewString()
	o.initial = net.Clone()
	o.asm = NewAssembler(net)
	o.sys = newLinsys(o.asm.Neq, o.asm.Nnz)
	o.x = la.NewVector(o.asm.Neq)
	o.ctrlOrder = sortControls(net.Ctrls)
	o.start()
	return
}

// Clean frees memory held by the linear solver
func (o *Simulator) Clean() {
	o.sys.clean()
}

// Reset restores the initial conditions. Results are cleared
func (o *Simulator) Reset() {
	o.Net = o.initial.Clone()
	o.asm.Net = o.Net
	o.start()
}

// Err returns the error that stopped the run, if any
func (o *Simulator) Err() error {
	return o.err
}

// start initialises the state of the simulation
func (o *Simulator) start() {
	o.setState(Initializing)
	o.T = 0
	o.haveSol = false
	o.needSolve = true
	o.patIdx = -1
	o.err = nil
	o.Res = newResults(o.Net, o.RunID)
	o.coldStart()
}

// coldStart sets the initial guess of heads and flows
func (o *Simulator) coldStart() {
	net := o.Net
	net.UpdateSources(0)
	hmin, hmax := math.Inf(1), math.Inf(-1)
	for _, n := range net.Fixed {
		hmin = math.Min(hmin, net.Nodes[n].Head)
		hmax = math.Max(hmax, net.Nodes[n].Head)
	}
	for _, n := range net.Juncs {
		node := net.Nodes[n]
		node.Head = math.Max(hmax, node.Elev)
		node.Demand = 0
	}
	for _, l := range net.Links {
		switch {
		case l.Kind == Pump && l.Pump.Curve != nil:
			c := l.Pump.Curve
			l.Flow = c.X[len(c.X)/2]
			if l.Flow <= 0 {
				l.Flow = c.MaxFlow() / 2
			}
		case l.Kind == Pump:
			l.Flow = powerInitFlow(l, net.Sg, math.Max(10, hmax-hmin))
		case l.Kind == FCV:
			l.Flow = l.Setting
		default:
			l.Flow = math.Pi * l.Diam * l.Diam / 4.0 * units.Foot
		}
		if l.Status == Closed {
			l.Flow = 0
		}
	}
}

// setState sets the state of the simulation
func (o *Simulator) setState(s RunState) {
	o.State = s
	if o.Verbose && (s == Initializing || s == Complete || s == Failed) {
		io.Pf("%13.6e: %v\n", o.T, s)
	}
}

// event records an event
func (o *Simulator) event(t float64, kind, object string, value float64, msg string) {
	o.Res.Events = append(o.Res.Events, &Event{Time: t, Kind: kind, Object: object, Value: value, Msg: msg})
	if o.Obs != nil {
		o.Obs.ObserveEvent(kind)
	}
}

// Run runs the simulation until the end
func (o *Simulator) Run(ctx context.Context) error {
	return o.RunUntil(ctx, float64(o.Net.Time.Duration))
}

// RunUntil runs the simulation through all hydraulic times not greater than tend. The run may
// be continued by calling RunUntil again; the outcome is the same as running without stopping
func (o *Simulator) RunUntil(ctx context.Context, tend float64) (err error) {

	// check
	if o.State == Complete {
		return nil
	}
	if o.State == Failed {
		return o.err
	}

	// statistics
	tic := time.Now()
	if o.Obs != nil {
		defer func() {
			o.Obs.ObserveRun(err == nil, time.Since(tic).Seconds())
		}()
	}

	// time loop
	dur := float64(o.Net.Time.Duration)
	tend = math.Min(tend, dur)
	for {
		if err = ctx.Err(); err != nil {
			return
		}

		// solve current time
		if o.needSolve {
			if err = o.solveTime(o.T); err != nil {
				o.err = err
				o.setState(Failed)
				return
			}
			o.needSolve = false
		}

		// end of run
		if o.T >= dur-TimeTol {
			o.setState(Complete)
			return
		}

		// advance
		tnext := o.nextTime(o.T)
		if tnext > tend+TimeTol {
			return
		}
		o.advance(tnext)
	}
}

// solveTime solves the network at time t applying the failure policy
func (o *Simulator) solveTime(t float64) (err error) {
	net := o.Net

	// data depending on time
	if k := inp.PatternIndex(t, float64(net.Time.PatStep), float64(net.Time.PatStart)); k != o.patIdx {
		net.UpdateSpeeds(t)
		o.patIdx = k
	}
	net.UpdateSources(t)

	// controls before solving
	o.applyControls(t)
	net.UpdateSources(t)
	good := o.capture()
	hadSol := o.haveSol

	// solve
	err = o.solveControlled(t, 1)
	if err != nil && net.Data.Pdd {
		failed := err
		nretries := net.Solver.PddRetries
		for k := 1; k <= nretries+1 && err != nil; k++ {
			o.restore(good)
			o.haveSol = hadSol
			scale := math.Pow(0.5, float64(k))
			if k == nretries+1 {
				scale = 0
			}
			err = o.solveControlled(t, scale)
			if err == nil {
				f := newFailure(t, failed)
				f.DemandScale, f.Recovered = scale, true
				o.Res.Failures = append(o.Res.Failures, f)
				o.event(t, EvDemandCut, "", scale, io.Sf("demands multiplied by %g", scale))
			}
		}
	}

	// failure
	if err != nil {
		o.Res.Failures = append(o.Res.Failures, newFailure(t, err))
		if o.Obs != nil {
			o.Obs.ObserveStep(false)
		}
		if net.Solver.Abort {
			return
		}
		o.restore(good)
		o.haveSol = hadSol
		o.event(t, EvFailure, "", t, err.Error())
		if o.Verbose {
			io.Pfred("%13.6e: %v\n", t, err)
		}
		err = nil
	} else if o.Obs != nil {
		o.Obs.ObserveStep(true)
	}

	// report
	if o.isReportTime(t) {
		o.setState(Reporting)
		o.Res.record(net, t)
	}
	return
}

// newFailure returns a new failure record
func newFailure(t float64, err error) *TimestepFailure {
	f := &TimestepFailure{Time: t, Reason: err.Error(), DemandScale: 1}
	if cerr, ok := err.(*ConvergenceError); ok {
		f.Reason = cerr.Reason.String()
		f.Iterations = cerr.Iterations
		f.Residual = cerr.ResidualNorm
	}
	return f
}

// solveControlled solves the network at time t and re-solves while controls change it
//  scale -- demand multiplier
func (o *Simulator) solveControlled(t, scale float64) (err error) {
	net := o.Net
	net.UpdateDemands(t, scale)
	if !o.haveSol && net.Data.Pdd {
		for _, n := range net.Juncs {
			net.Nodes[n].Demand = net.Nodes[n].ExpDemand
		}
	}
	for k := 0; ; k++ {
		if err = o.solveStatus(t); err != nil {
			return
		}
		o.haveSol = true
		if k+1 >= net.Solver.NmaxCtrl {
			break
		}
		if o.applyControls(t) == 0 {
			break
		}
		net.UpdateSources(t)
	}
	o.checkPumps(t)
	return
}

// solveStatus solves the network at time t until statuses do not change
func (o *Simulator) solveStatus(t float64) (err error) {
	nmax := o.Net.Solver.NmaxStatus
	for it := 0; ; it++ {
		o.setState(Solving)
		if _, err = o.newton(t); err != nil {
			return
		}
		o.setState(StatusCorrecting)
		changes := o.checkStatus(t)
		for _, c := range changes {
			l := o.Net.Links[c.Link]
			o.event(t, EvStatus, l.Name, float64(c.To), io.Sf("%v => %v %v", c.From, c.To, c.Reason))
		}
		if len(changes) == 0 {
			if o.Obs != nil {
				o.Obs.ObserveStatus(it + 1)
			}
			return
		}
		if it+1 >= nmax {
			return &ConvergenceError{Time: t, Reason: MaxStatusIterations, Iterations: it + 1}
		}
	}
}

// checkPumps records pumps running beyond the flow range of their curves
func (o *Simulator) checkPumps(t float64) {
	for _, l := range o.Net.Links {
		if l.Kind != Pump || l.Pump.Curve == nil || l.Status == Closed || l.Setting <= 0 {
			continue
		}
		if l.Flow > l.Setting*l.Pump.Curve.MaxFlow() {
			o.event(t, EvPumpRange, l.Name, l.Flow, "flow beyond pump curve")
		}
	}
}

// time stepping /////////////////////////////////////////////////////////////////////////////////

// isReportTime tells whether results are recorded at time t
func (o *Simulator) isReportTime(t float64) bool {
	tm := o.Net.Time
	start, step := float64(tm.RepStart), float64(tm.RepStep)
	if t < start-TimeTol {
		return false
	}
	k := math.Round((t - start) / step)
	return math.Abs(t-start-k*step) < TimeTol
}

// nextTime returns the next hydraulic time after t
func (o *Simulator) nextTime(t float64) (next float64) {
	tm := o.Net.Time
	hstep, pstep, pstart := float64(tm.HydStep), float64(tm.PatStep), float64(tm.PatStart)
	rstep, rstart := float64(tm.RepStep), float64(tm.RepStart)

	// hydraulic step
	next = (math.Floor((t+TimeTol)/hstep) + 1) * hstep

	// pattern boundary
	k := inp.PatternIndex(t+TimeTol, pstep, pstart)
	next = math.Min(next, float64(k+1)*pstep-pstart)

	// report time
	if t < rstart-TimeTol {
		next = math.Min(next, rstart)
	} else {
		next = math.Min(next, rstart+(math.Floor((t-rstart+TimeTol)/rstep)+1)*rstep)
	}

	// controls and tanks
	next = math.Min(next, o.nextControlTime(t))
	next = math.Min(next, t+o.tankTime())
	return math.Min(next, float64(tm.Duration))
}

// inflow returns the net inflow into node n
func (o *Simulator) inflow(n int) (q float64) {
	for _, lid := range o.Net.Nodes[n].Links {
		q += o.asm.sign(lid, n) * o.Net.Links[lid].Flow
	}
	return
}

// tankTime returns the time until the first tank fills or drains; +Inf if none
func (o *Simulator) tankTime() (dt float64) {
	dt = math.Inf(1)
	for _, n := range o.Net.Tanks {
		tk := o.Net.Nodes[n].Tank
		q := o.inflow(n)
		var vol float64
		switch {
		case q > 0 && tk.Level < tk.Max:
			vol = tk.Volume(tk.Max) - tk.Volume(tk.Level)
		case q < 0 && tk.Level > tk.Min:
			vol = tk.Volume(tk.Level) - tk.Volume(tk.Min)
		default:
			continue
		}
		dt = math.Min(dt, math.Max(1, math.Ceil(vol/math.Abs(q))))
	}
	return
}

// advance integrates tank levels up to tnext and moves the simulation to tnext
func (o *Simulator) advance(tnext float64) {
	net := o.Net
	o.setState(TankUpdating)
	dt := tnext - o.T
	for _, n := range net.Tanks {
		node := net.Nodes[n]
		tk := node.Tank
		vol := tk.Volume(tk.Level) + o.inflow(n)*dt
		level := tk.LevelOf(vol)
		switch {
		case level > tk.Max:
			extra := vol - tk.Volume(tk.Max)
			if tk.Overflow {
				o.event(tnext, EvTankOverflow, node.Name, extra, "tank spilled water")
			} else if extra > 1e-9 {
				o.event(tnext, EvTankFull, node.Name, extra, "level clipped at maximum")
			}
			level = tk.Max
		case level < tk.Min:
			o.event(tnext, EvTankEmpty, node.Name, tk.Volume(tk.Min)-vol, "level clipped at minimum")
			level = tk.Min
		}
		tk.Level = level
		node.Head = node.Elev + level
	}
	o.setState(Advancing)
	o.T = tnext
	o.needSolve = true
}
