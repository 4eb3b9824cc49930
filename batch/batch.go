// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package batch implements concurrent runs of demand scenarios on copies of one network
package batch

import (
	"context"
	"math/rand"
	"os"
	"runtime"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cpmech/gowater/hyd"
	"github.com/cpmech/gowater/inp"
)

// Scenario holds data of one run
type Scenario struct {
	Name        string  `json:"name" yaml:"name" validate:"required"`                 // name
	Seed        int64   `json:"seed" yaml:"seed"`                                     // seed of random numbers
	DemandScale float64 `json:"demandscale" yaml:"demandscale" validate:"gte=0"`      // multiplier of all demands; 0 => 1
	DemandNoise float64 `json:"demandnoise" yaml:"demandnoise" validate:"gte=0,lt=1"` // relative amplitude of random perturbation of base demands
	Duration    float64 `json:"duration" yaml:"duration" validate:"gte=0"`            // duration [s]; 0 => duration of network
}

// Outcome holds the outcome of one scenario
type Outcome struct {
	Scenario *Scenario    // scenario
	Res      *hyd.Results // results; nil if the run could not start
	Err      error        // error that stopped the run
}

// Apply modifies a copy of a network according to the scenario
func (o *Scenario) Apply(net *hyd.Network) {
	if o.DemandScale > 0 {
		net.Data.DemandMult *= o.DemandScale
	}
	if o.Duration > 0 {
		net.Time.Duration = inp.Seconds(o.Duration)
	}
	if o.DemandNoise > 0 {
		rnd := rand.New(rand.NewSource(o.Seed))
		for _, n := range net.Juncs {
			js := net.Nodes[n].Junc
			for k := range js.Demands {
				js.Demands[k].Base *= 1 + o.DemandNoise*(2*rnd.Float64()-1)
			}
		}
	}
}

// Runner runs scenarios concurrently
type Runner struct {
	Workers  int                          // max number of concurrent runs; 0 => number of CPUs
	Obs      hyd.Observer                 // observer shared by all runs; may be nil
	Progress func(done int, out *Outcome) // called after each run; may be nil
}

// RunAll runs all scenarios on copies of net. Outcomes are returned in the order of scenarios.
// Failed runs are reported in Outcome.Err; err is only non-nil if ctx was cancelled
func (o *Runner) RunAll(ctx context.Context, net *hyd.Network, scens []*Scenario) (res []*Outcome, err error) {
	if net == nil {
		return nil, chk.Err("network must not be nil")
	}
	workers := o.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	res = make([]*Outcome, len(scens))
	done := make(chan *Outcome)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// progress
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		count := 0
		for out := range done {
			count++
			if o.Progress != nil {
				o.Progress(count, out)
			}
		}
	}()

	// runs
	for i, sc := range scens {
		i, sc := i, sc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clone := net.Clone()
			sc.Apply(clone)
			sim := hyd.NewSimulator(clone)
			defer sim.Clean()
			sim.Obs = o.Obs
			runErr := sim.Run(gctx)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res[i] = &Outcome{Scenario: sc, Res: sim.Res, Err: runErr}
			done <- res[i]
			return nil
		})
	}
	err = g.Wait()
	close(done)
	<-finished
	return
}

// ReadScenarios reads scenarios from a YAML file
//  Example:
//   - {name: base}
//   - {name: peak, demandscale: 1.5, demandnoise: 0.1, seed: 7}
func ReadScenarios(fnpath string) (scens []*Scenario, err error) {
	b, err := os.ReadFile(os.ExpandEnv(fnpath))
	if err != nil {
		return nil, chk.Err("cannot read scenarios file %q:\n%v", fnpath, err)
	}
	err = yaml.Unmarshal(b, &scens)
	if err != nil {
		return nil, chk.Err("cannot unmarshal scenarios:\n%v", err)
	}
	names := make(map[string]bool)
	for _, sc := range scens {
		if err = inp.CheckStruct(io.Sf("scenario %q", sc.Name), sc); err != nil {
			return nil, err
		}
		if names[sc.Name] {
			return nil, chk.Err("scenario %q is defined more than once", sc.Name)
		}
		names[sc.Name] = true
	}
	return
}
