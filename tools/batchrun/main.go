// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// batchrun runs demand scenarios of one network concurrently
//  Usage: batchrun network.yaml scenarios.yaml [workers] [dirout] [enctype]
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/cpmech/gosl/io"
	"github.com/gosuri/uiprogress"

	"github.com/cpmech/gowater/batch"
	"github.com/cpmech/gowater/hyd"
	"github.com/cpmech/gowater/inp"
	"github.com/cpmech/gowater/metrics"
	"github.com/cpmech/gowater/out"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	// input data
	netfn, fnkey := io.ArgToFilename(0, "", ".yaml", true)
	scenfn, _ := io.ArgToFilename(1, "", ".yaml", true)
	workers := io.ArgToInt(2, 0)
	dirout := io.ArgToString(3, "/tmp/gowater")
	enctype := io.ArgToString(4, "gob")
	io.Pf("\n%v\n", io.ArgsTable(
		"network file", "netfn", netfn,
		"scenarios file", "scenfn", scenfn,
		"max concurrent runs; 0 => number of CPUs", "workers", workers,
		"output directory", "dirout", dirout,
		"encoding: gob or json", "enctype", enctype,
	))

	// network and scenarios
	in, err := inp.ReadNetwork(netfn)
	if err != nil {
		panic(err)
	}
	net, err := hyd.NewNetwork(in)
	if err != nil {
		panic(err)
	}
	scens, err := batch.ReadScenarios(scenfn)
	if err != nil {
		panic(err)
	}

	// progress bar
	uiprogress.Start()
	bar := uiprogress.AddBar(len(scens)).AppendCompleted().PrependElapsed()
	var mu sync.Mutex
	current := ""
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		mu.Lock()
		defer mu.Unlock()
		return io.Sf("%-16s", current)
	})

	// run
	reg := metrics.NewRegistry()
	runner := &batch.Runner{Workers: workers, Obs: reg, Progress: func(done int, o *batch.Outcome) {
		mu.Lock()
		current = o.Scenario.Name
		mu.Unlock()
		bar.Incr()
	}}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := runner.RunAll(ctx, net, scens)
	uiprogress.Stop()
	if err != nil {
		panic(err)
	}

	// results
	for _, o := range res {
		if o.Err != nil {
			io.Pfred("%s: %v\n", o.Scenario.Name, o.Err)
		}
		fn, err := out.Save(o.Res, dirout, fnkey+"-"+o.Scenario.Name, enctype)
		if err != nil {
			panic(err)
		}
		sum := out.Summarize(o.Res)
		pmin, at := minPressure(sum)
		io.Pf("%-16s %8d times %6d failures  min pressure %10.4f m at %s  file <%s>\n",
			o.Scenario.Name, sum.Ntimes, sum.Failures, pmin, at, fn)
	}
	err = reg.WriteTextfile(filepath.Join(dirout, fnkey+"-batch.prom"))
	if err != nil {
		panic(err)
	}
}

// minPressure returns the smallest pressure in a summary and where it happens
func minPressure(sum *out.Summary) (float64, string) {
	if e, ok := sum.Nodes[hyd.QPressure]; ok {
		return e.Min, e.MinAt
	}
	return 0, "-"
}
