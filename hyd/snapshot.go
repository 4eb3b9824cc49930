// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hyd

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	goio "io"

	"github.com/cpmech/gosl/chk"
	"github.com/golang/snappy"
	"github.com/google/uuid"
)

// SnapshotVersion is the version of the snapshot format
const SnapshotVersion = 1

// Snapshot holds the state of a simulation; enough to continue it later
type Snapshot struct {
	Version        int          `json:"version"`        // format version
	ID             string       `json:"id"`             // identifier of snapshot
	RunID          string       `json:"runid"`          // identifier of simulator that took the snapshot
	NetworkName    string       `json:"network"`        // network name
	Time           float64      `json:"time"`           // simulation time
	Solved         bool         `json:"solved"`         // state holds the solution at Time
	HaveSol        bool         `json:"havesol"`        // at least one time was solved
	PatternIndex   int          `json:"patternindex"`   // pattern period of last speed update
	Heads          []float64    `json:"heads"`          // node heads
	Demands        []float64    `json:"demands"`        // delivered demands
	TankLevels     []float64    `json:"tanklevels"`     // tank levels (same order as Network.Tanks)
	Flows          []float64    `json:"flows"`          // link flows
	Status         []LinkStatus `json:"status"`         // link statuses
	UserStatus     []LinkStatus `json:"userstatus"`     // user statuses
	TempReason     []TempReason `json:"tempreason"`     // reasons of temporary statuses
	Settings       []float64    `json:"settings"`       // valve settings and pump speeds
	ReservoirHeads []float64    `json:"reservoirheads"` // heads set by controls (same order as Network.Fixed)
	ReservoirFixed []bool       `json:"reservoirfixed"` // head was set by a control
}

// Encoder defines encoders; e.g. gob or json
type Encoder interface {
	Encode(e interface{}) error
}

// Decoder defines decoders; e.g. gob or json
type Decoder interface {
	Decode(e interface{}) error
}

// GetEncoder returns a new encoder
func GetEncoder(w goio.Writer, enctype string) Encoder {
	if enctype == "json" {
		return json.NewEncoder(w)
	}
	return gob.NewEncoder(w)
}

// GetDecoder returns a new decoder
func GetDecoder(r goio.Reader, enctype string) Decoder {
	if enctype == "json" {
		return json.NewDecoder(r)
	}
	return gob.NewDecoder(r)
}

// capture returns the state of the network
func (o *Simulator) capture() (s *Snapshot) {
	net := o.Net
	s = &Snapshot{Version: SnapshotVersion, RunID: o.RunID, NetworkName: net.Name, Time: o.T}
	s.Solved = !o.needSolve
	s.HaveSol = o.haveSol
	s.PatternIndex = o.patIdx
	for _, n := range net.Nodes {
		s.Heads = append(s.Heads, n.Head)
		s.Demands = append(s.Demands, n.Demand)
	}
	for _, n := range net.Tanks {
		s.TankLevels = append(s.TankLevels, net.Nodes[n].Tank.Level)
	}
	for _, n := range net.Fixed {
		var h float64
		var fixed bool
		if r := net.Nodes[n].Res; r != nil {
			h, fixed = r.FixedVal, r.Fixed
		}
		s.ReservoirHeads = append(s.ReservoirHeads, h)
		s.ReservoirFixed = append(s.ReservoirFixed, fixed)
	}
	for _, l := range net.Links {
		s.Flows = append(s.Flows, l.Flow)
		s.Status = append(s.Status, l.Status)
		s.UserStatus = append(s.UserStatus, l.UserStatus)
		s.TempReason = append(s.TempReason, l.Reason)
		s.Settings = append(s.Settings, l.Setting)
	}
	return
}

// restore sets the state of the network
func (o *Simulator) restore(s *Snapshot) {
	net := o.Net
	for i, n := range net.Nodes {
		n.Head, n.Demand = s.Heads[i], s.Demands[i]
	}
	for i, n := range net.Tanks {
		net.Nodes[n].Tank.Level = s.TankLevels[i]
	}
	for i, n := range net.Fixed {
		if r := net.Nodes[n].Res; r != nil {
			r.FixedVal, r.Fixed = s.ReservoirHeads[i], s.ReservoirFixed[i]
		}
	}
	for i, l := range net.Links {
		l.Flow = s.Flows[i]
		l.Status, l.UserStatus, l.Reason = s.Status[i], s.UserStatus[i], s.TempReason[i]
		l.Setting = s.Settings[i]
	}
}

// TakeSnapshot returns the current state of the simulation
func (o *Simulator) TakeSnapshot() (s *Snapshot) {
	s = o.capture()
	s.ID = uuid.NewString()
	return
}

// Restore continues the simulation from a snapshot. Results recorded so far are kept
func (o *Simulator) Restore(s *Snapshot) (err error) {
	net := o.Net
	if s.Version != SnapshotVersion {
		return chk.Err("snapshot version %d is not supported; expected %d", s.Version, SnapshotVersion)
	}
	if s.NetworkName != net.Name {
		return chk.Err("snapshot of network %q cannot be restored into network %q", s.NetworkName, net.Name)
	}
	if len(s.Heads) != len(net.Nodes) || len(s.Demands) != len(net.Nodes) || len(s.TankLevels) != len(net.Tanks) ||
		len(s.ReservoirHeads) != len(net.Fixed) || len(s.ReservoirFixed) != len(net.Fixed) ||
		len(s.Flows) != len(net.Links) || len(s.Status) != len(net.Links) || len(s.UserStatus) != len(net.Links) ||
		len(s.TempReason) != len(net.Links) || len(s.Settings) != len(net.Links) {
		return chk.Err("snapshot does not match the topology of network %q", net.Name)
	}
	o.restore(s)
	o.T = s.Time
	o.needSolve = !s.Solved
	o.haveSol = s.HaveSol
	o.patIdx = s.PatternIndex
	o.err = nil
	o.setState(Advancing)
	return
}

// Encode writes the snapshot to w. Gob data is compressed with snappy
//  enctype -- "gob" or "json"
func (o *Snapshot) Encode(w goio.Writer, enctype string) (err error) {
	var buf bytes.Buffer
	if err = GetEncoder(&buf, enctype).Encode(o); err != nil {
		return chk.Err("cannot encode snapshot\n%v", err)
	}
	b := buf.Bytes()
	if enctype != "json" {
		b = snappy.Encode(nil, b)
	}
	_, err = w.Write(b)
	return
}

// DecodeSnapshot reads a snapshot written by Encode
func DecodeSnapshot(r goio.Reader, enctype string) (o *Snapshot, err error) {
	b, err := goio.ReadAll(r)
	if err != nil {
		return
	}
	if enctype != "json" {
		if b, err = snappy.Decode(nil, b); err != nil {
			return nil, chk.Err("cannot uncompress snapshot\n%v", err)
		}
	}
	o = new(Snapshot)
	if err = GetDecoder(bytes.NewReader(b), enctype).Decode(o); err != nil {
		return nil, chk.Err("cannot decode snapshot\n%v", err)
	}
	if o.Version != SnapshotVersion {
		return nil, chk.Err("snapshot version %d is not supported; expected %d", o.Version, SnapshotVersion)
	}
	return
}
