// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gowater/hyd"
	"github.com/cpmech/gowater/inp"
	"github.com/cpmech/gowater/metrics"
	"github.com/cpmech/gowater/out"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			for i := 8; i > 3; i-- {
				chk.CallerInfo(i)
			}
			io.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	// read input parameters
	fnamepath, fnkey := io.ArgToFilename(0, "", ".yaml", true)
	verbose := io.ArgToBool(1, true)
	dirout := io.ArgToString(2, "/tmp/gowater")
	enctype := io.ArgToString(3, "gob")
	stopAt := io.ArgToFloat(4, -1)
	restart := io.ArgToString(5, "")

	// message
	if verbose {
		io.PfWhite("\nGowater -- hydraulic simulation of water distribution networks\n\n")
		io.Pf("Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n\n")
		io.Pf("\n%v\n", io.ArgsTable(
			"network file", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
			"output directory", "dirout", dirout,
			"encoding: gob or json", "enctype", enctype,
			"save snapshot at time [s]", "stopAt", stopAt,
			"restart from snapshot", "restart", restart,
		))
	}

	// network
	in, err := inp.ReadNetwork(fnamepath)
	if err != nil {
		chk.Panic("%v", err)
	}
	net, err := hyd.NewNetwork(in)
	if err != nil {
		chk.Panic("%v", err)
	}

	// simulator
	reg := metrics.NewRegistry()
	sim := hyd.NewSimulator(net)
	defer sim.Clean()
	sim.Verbose = verbose
	sim.Obs = reg
	if restart != "" {
		restoreSnapshot(sim, restart, enctype)
	}

	// run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if stopAt >= 0 {
		err = sim.RunUntil(ctx, stopAt)
		if err == nil {
			saveSnapshot(sim, filepath.Join(dirout, io.Sf("%s-%g.snap", fnkey, sim.T)), enctype)
		}
	}
	if err == nil {
		err = sim.Run(ctx)
	}
	if err != nil {
		io.Pfred("run stopped at t=%g: %v\n", sim.T, err)
	}

	// results
	fn, e := out.Save(sim.Res, dirout, fnkey, enctype)
	if e != nil {
		chk.Panic("%v", e)
	}
	for _, key := range []string{hyd.QHead, hyd.QPressure, hyd.QDemand, hyd.QFlow, hyd.QVelocity} {
		writeCSV(sim.Res, filepath.Join(dirout, io.Sf("%s-%s.csv", fnkey, key)), key, in)
	}
	e = reg.WriteTextfile(filepath.Join(dirout, fnkey+".prom"))
	if e != nil {
		chk.Panic("%v", e)
	}
	if verbose {
		io.Pf("\n%v\n", out.Summarize(sim.Res))
		io.Pfblue2("file <%s> written\n", fn)
	}
	if err != nil {
		os.Exit(1)
	}
}

// saveSnapshot writes the state of the simulation
func saveSnapshot(sim *hyd.Simulator, fnpath, enctype string) {
	err := os.MkdirAll(filepath.Dir(fnpath), 0777)
	if err != nil {
		chk.Panic("cannot create directory:\n%v", err)
	}
	fil, err := os.Create(fnpath)
	if err != nil {
		chk.Panic("cannot create snapshot file:\n%v", err)
	}
	defer fil.Close()
	err = sim.TakeSnapshot().Encode(fil, enctype)
	if err != nil {
		chk.Panic("%v", err)
	}
	io.Pfblue2("file <%s> written\n", fnpath)
}

// restoreSnapshot continues the simulation from a snapshot file
func restoreSnapshot(sim *hyd.Simulator, fnpath, enctype string) {
	fil, err := os.Open(fnpath)
	if err != nil {
		chk.Panic("cannot open snapshot file:\n%v", err)
	}
	defer fil.Close()
	snap, err := hyd.DecodeSnapshot(fil, enctype)
	if err != nil {
		chk.Panic("%v", err)
	}
	err = sim.Restore(snap)
	if err != nil {
		chk.Panic("%v", err)
	}
}

// writeCSV writes one quantity in the units of the input file
func writeCSV(res *hyd.Results, fnpath, key string, in *inp.Network) {
	fil, err := os.Create(fnpath)
	if err != nil {
		chk.Panic("cannot create file:\n%v", err)
	}
	defer fil.Close()
	err = out.WriteCSV(fil, res, key, in.Data.Units)
	if err != nil {
		chk.Panic("%v", err)
	}
}
