// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data of a water distribution network read from a
// YAML (.yaml, .yml) or JSON (.json) file
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"gopkg.in/yaml.v3"

	"github.com/cpmech/gowater/units"
)

// Data holds global data for simulations
type Data struct {
	Desc       string  `json:"desc" yaml:"desc"`                                                      // description of network
	FlowUnits  string  `json:"flowunits" yaml:"flowunits"`                                            // flow units; e.g. GPM, LPS, SI
	Headloss   string  `json:"headloss" yaml:"headloss" validate:"omitempty,oneof=H-W D-W C-M"`       // headloss formula
	Viscosity  float64 `json:"viscosity" yaml:"viscosity" validate:"gte=0"`                           // viscosity relative to water at 20°C
	SpecGrav   float64 `json:"specgrav" yaml:"specgrav" validate:"gte=0"`                             // specific gravity relative to water
	DemandMod  string  `json:"demandmodel" yaml:"demandmodel" validate:"omitempty,oneof=DD PDD"`      // demand model: demand-driven or pressure-dependent
	Pmin       float64 `json:"pmin" yaml:"pmin"`                                                      // PDD: minimum pressure (no delivery below)
	Preq       float64 `json:"preq" yaml:"preq"`                                                      // PDD: required pressure (full delivery above)
	Pexp       float64 `json:"pexp" yaml:"pexp" validate:"gte=0"`                                     // PDD: pressure exponent
	DemandMult float64 `json:"demandmult" yaml:"demandmult" validate:"gte=0"`                         // global demand multiplier
	DefPattern string  `json:"defpattern" yaml:"defpattern"`                                          // default demand pattern

	// derived
	Units units.FlowUnits `json:"-" yaml:"-"` // parsed flow units
	Pdd   bool            `json:"-" yaml:"-"` // pressure-dependent demand is on
}

// SolverData holds data for the nonlinear solver. Tolerances are always given in SI units
type SolverData struct {
	NmaxIt     int     `json:"nmaxit" yaml:"nmaxit" validate:"gt=0"`                                // max number of Newton iterations
	Tol        float64 `json:"tol" yaml:"tol" validate:"gt=0"`                                      // tolerance on the largest residual
	StepTol    float64 `json:"steptol" yaml:"steptol" validate:"gt=0"`                              // tolerance on the largest update
	BtRho      float64 `json:"btrho" yaml:"btrho" validate:"gt=0,lt=1"`                             // backtracking reduction factor
	BtMaxIt    int     `json:"btmaxit" yaml:"btmaxit" validate:"gte=0"`                             // max number of backtracking steps
	BtStartIt  int     `json:"btstartit" yaml:"btstartit" validate:"gte=0"`                         // first iteration using backtracking
	BtC        float64 `json:"btc" yaml:"btc" validate:"gte=0,lt=1"`                                // sufficient decrease coefficient
	MaxHstep   float64 `json:"maxhstep" yaml:"maxhstep" validate:"gte=0"`                           // max change of heads per iteration [m]; 0 => unlimited
	NmaxStatus int     `json:"nmaxstatus" yaml:"nmaxstatus" validate:"gt=0"`                        // max number of status corrections per time
	NmaxCtrl   int     `json:"nmaxctrl" yaml:"nmaxctrl" validate:"gt=0"`                            // max number of control re-solves per time
	Htol       float64 `json:"htol" yaml:"htol" validate:"gt=0"`                                    // head tolerance for status checks [m]
	Qtol       float64 `json:"qtol" yaml:"qtol" validate:"gt=0"`                                    // flow tolerance for status checks [m³/s]
	OnFailure  string  `json:"onfailure" yaml:"onfailure" validate:"omitempty,oneof=abort continue"` // what to do when a time fails
	PddRetries int     `json:"pddretries" yaml:"pddretries" validate:"gte=0"`                       // PDD: number of demand reductions before giving up
	ShowR      bool    `json:"showr" yaml:"showr"`                                                  // show residuals

	// derived
	Abort bool `json:"-" yaml:"-"` // abort run on failure
}

// TimeData holds data for the time stepping
type TimeData struct {
	Duration   Seconds `json:"duration" yaml:"duration" validate:"gte=0"`     // total duration
	HydStep    Seconds `json:"hydstep" yaml:"hydstep" validate:"gte=0"`       // hydraulic time step
	PatStep    Seconds `json:"patstep" yaml:"patstep" validate:"gte=0"`       // pattern time step
	PatStart   Seconds `json:"patstart" yaml:"patstart" validate:"gte=0"`     // time offset of patterns
	RepStep    Seconds `json:"repstep" yaml:"repstep" validate:"gte=0"`       // report time step
	RepStart   Seconds `json:"repstart" yaml:"repstart" validate:"gte=0"`     // first report time
	StartClock Seconds `json:"startclock" yaml:"startclock" validate:"gte=0"` // clock time at t = 0
}

// JunctionData holds junction data
type JunctionData struct {
	Name    string        `json:"name" yaml:"name" validate:"required"` // name
	Elev    float64       `json:"elev" yaml:"elev"`                     // elevation
	Demand  float64       `json:"demand" yaml:"demand"`                 // base demand
	Pattern string        `json:"pattern" yaml:"pattern"`               // demand pattern
	Demands []*DemandData `json:"demands" yaml:"demands"`               // additional demand categories
	Pmin    *float64      `json:"pmin" yaml:"pmin"`                     // PDD minimum pressure (overrides Data.Pmin)
	Preq    *float64      `json:"preq" yaml:"preq"`                     // PDD required pressure (overrides Data.Preq)
}

// DemandData holds one demand category
type DemandData struct {
	Base    float64 `json:"base" yaml:"base"`       // base demand
	Pattern string  `json:"pattern" yaml:"pattern"` // pattern name
}

// TankData holds tank data
type TankData struct {
	Name     string  `json:"name" yaml:"name" validate:"required"`  // name
	Elev     float64 `json:"elev" yaml:"elev"`                      // bottom elevation
	Init     float64 `json:"init" yaml:"init" validate:"gte=0"`     // initial level
	Min      float64 `json:"min" yaml:"min" validate:"gte=0"`       // minimum level
	Max      float64 `json:"max" yaml:"max" validate:"gte=0"`       // maximum level
	Diam     float64 `json:"diam" yaml:"diam" validate:"gte=0"`     // diameter (if VolCurve is empty)
	VolCurve string  `json:"volcurve" yaml:"volcurve"`              // level => volume curve
	Overflow bool    `json:"overflow" yaml:"overflow"`              // tank may overflow at max level
}

// ReservoirData holds reservoir data
type ReservoirData struct {
	Name    string  `json:"name" yaml:"name" validate:"required"` // name
	Head    float64 `json:"head" yaml:"head"`                     // total head
	Pattern string  `json:"pattern" yaml:"pattern"`               // head pattern
}

// PipeData holds pipe data
type PipeData struct {
	Name   string  `json:"name" yaml:"name" validate:"required"`                                 // name
	Node1  string  `json:"node1" yaml:"node1" validate:"required"`                               // start node
	Node2  string  `json:"node2" yaml:"node2" validate:"required"`                               // end node
	Length float64 `json:"length" yaml:"length" validate:"gte=0"`                                // length
	Diam   float64 `json:"diam" yaml:"diam" validate:"gt=0"`                                     // diameter
	Rough  float64 `json:"rough" yaml:"rough" validate:"gt=0"`                                   // roughness (H-W C, D-W ε or C-M n)
	Minor  float64 `json:"minor" yaml:"minor" validate:"gte=0"`                                  // minor loss coefficient
	Status string  `json:"status" yaml:"status" validate:"omitempty,oneof=open closed cv OPEN CLOSED CV"` // initial status; "cv" => check valve
}

// PumpData holds pump data
type PumpData struct {
	Name    string  `json:"name" yaml:"name" validate:"required"`                               // name
	Node1   string  `json:"node1" yaml:"node1" validate:"required"`                             // suction node
	Node2   string  `json:"node2" yaml:"node2" validate:"required"`                             // discharge node
	Curve   string  `json:"curve" yaml:"curve"`                                                 // head curve
	Power   float64 `json:"power" yaml:"power" validate:"gte=0"`                                // constant power (if Curve is empty)
	Speed   float64 `json:"speed" yaml:"speed" validate:"gte=0"`                                // relative speed
	Pattern string  `json:"pattern" yaml:"pattern"`                                             // speed pattern
	Status  string  `json:"status" yaml:"status" validate:"omitempty,oneof=open closed OPEN CLOSED"` // initial status
}

// ValveData holds valve data
type ValveData struct {
	Name    string  `json:"name" yaml:"name" validate:"required"`                                             // name
	Node1   string  `json:"node1" yaml:"node1" validate:"required"`                                           // upstream node
	Node2   string  `json:"node2" yaml:"node2" validate:"required"`                                           // downstream node
	Type    string  `json:"type" yaml:"type" validate:"required,oneof=PRV PSV FCV TCV PBV GPV"`               // valve type
	Diam    float64 `json:"diam" yaml:"diam" validate:"gt=0"`                                                 // diameter
	Setting float64 `json:"setting" yaml:"setting"`                                                           // pressure, flow or loss coefficient
	Minor   float64 `json:"minor" yaml:"minor" validate:"gte=0"`                                              // minor loss coefficient when fully open
	Curve   string  `json:"curve" yaml:"curve"`                                                               // GPV headloss curve
	Status  string  `json:"status" yaml:"status" validate:"omitempty,oneof=active open closed ACTIVE OPEN CLOSED"` // initial status
}

// PatternData holds a multiplier pattern
type PatternData struct {
	Name        string    `json:"name" yaml:"name" validate:"required"`           // name
	Multipliers []float64 `json:"multipliers" yaml:"multipliers" validate:"min=1"` // multipliers; one per pattern step
}

// CurveData holds (x, y) data
type CurveData struct {
	Name string    `json:"name" yaml:"name" validate:"required"`                                   // name
	Type string    `json:"type" yaml:"type" validate:"required,oneof=pump volume headloss efficiency"` // type of curve
	X    []float64 `json:"x" yaml:"x" validate:"min=1"`                                            // x values; e.g. flow or level
	Y    []float64 `json:"y" yaml:"y" validate:"min=1"`                                            // y values; e.g. head or volume
}

// Network holds all network data
type Network struct {

	// input
	Data       Data             `json:"data" yaml:"data"`             // global data
	Solver     SolverData       `json:"solver" yaml:"solver"`         // nonlinear solver data
	Time       TimeData         `json:"time" yaml:"time"`             // time stepping data
	Junctions  []*JunctionData  `json:"junctions" yaml:"junctions"`   // junctions
	Tanks      []*TankData      `json:"tanks" yaml:"tanks"`           // tanks
	Reservoirs []*ReservoirData `json:"reservoirs" yaml:"reservoirs"` // reservoirs
	Pipes      []*PipeData      `json:"pipes" yaml:"pipes"`           // pipes
	Pumps      []*PumpData      `json:"pumps" yaml:"pumps"`           // pumps
	Valves     []*ValveData     `json:"valves" yaml:"valves"`         // valves
	Patterns   []*PatternData   `json:"patterns" yaml:"patterns"`     // patterns
	Curves     []*CurveData     `json:"curves" yaml:"curves"`         // curves
	Controls   []*ControlData   `json:"controls" yaml:"controls"`     // controls and rules

	// derived
	Key      string              `json:"-" yaml:"-"` // network key; e.g. net1.yaml => net1
	Ready    bool                `json:"-" yaml:"-"` // Prepare was called successfully
	Ctrls    []*Control          `json:"-" yaml:"-"` // parsed controls
	patterns map[string]*Pattern // name => pattern
	curves   map[string]*Curve   // name => curve
	nodeKind map[string]string   // node name => "junction", "tank" or "reservoir"
	linkKind map[string]string   // link name => "pipe", "pump" or valve type
}

// Network ////////////////////////////////////////////////////////////////////////////////////////

// NewNetwork returns a new (empty) network with default values
//  flowunits -- e.g. "GPM", "LPS" or "SI" (data already in internal units)
func NewNetwork(flowunits string) (o *Network) {
	o = new(Network)
	o.SetDefault()
	o.Data.FlowUnits = flowunits
	return
}

// ReadNetwork reads all network data from a .yaml, .yml or .json file
func ReadNetwork(fnpath string) (o *Network, err error) {
	b, err := os.ReadFile(os.ExpandEnv(fnpath))
	if err != nil {
		return nil, chk.Err("cannot read network file %q:\n%v", fnpath, err)
	}
	o, err = DecodeNetwork(b, filepath.Ext(fnpath))
	if err != nil {
		return nil, chk.Err("cannot load network file %q:\n%v", fnpath, err)
	}
	o.Key = io.FnKey(filepath.Base(fnpath))
	return
}

// DecodeNetwork decodes and prepares network data
//  ext -- ".yaml", ".yml" or ".json"
func DecodeNetwork(b []byte, ext string) (o *Network, err error) {

	// new network with default values
	o = new(Network)
	o.SetDefault()

	// decode
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(b, o)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(b, o)
	default:
		return nil, chk.Err("file extension %q is not supported. use .yaml, .yml or .json", ext)
	}
	if err != nil {
		return nil, chk.Err("cannot unmarshal network data:\n%v", err)
	}

	// validate and convert units
	err = o.Prepare()
	if err != nil {
		return nil, err
	}
	return
}

// SetDefault sets default values
func (o *Network) SetDefault() {
	o.Data.SetDefault()
	o.Solver.SetDefault()
	o.Time.SetDefault()
}

// Prepare validates all data, converts values into SI units and builds auxiliary maps.
// Prepare must be called once after all data is set
func (o *Network) Prepare() (err error) {
	if o.Ready {
		return chk.Err("network data was already prepared")
	}

	// global data
	o.Data.Units, err = units.ParseFlowUnits(o.Data.FlowUnits)
	if err != nil {
		return &ConfigError{"flowunits", err.Error()}
	}
	o.Data.PostProcess()
	o.Solver.PostProcess()
	o.Time.PostProcess()

	// check input values
	err = o.validate()
	if err != nil {
		return
	}

	// convert values to internal units
	o.toSI()

	// auxiliary maps
	o.patterns = make(map[string]*Pattern)
	for _, p := range o.Patterns {
		o.patterns[p.Name] = &Pattern{Name: p.Name, Multipliers: p.Multipliers}
	}
	o.curves = make(map[string]*Curve)
	for _, c := range o.Curves {
		o.curves[c.Name] = NewCurve(c.Name, c.Type, c.X, c.Y)
	}

	// curves that must be fitted or inverted
	err = o.checkCurves()
	if err != nil {
		return
	}

	// controls
	o.Ctrls = make([]*Control, len(o.Controls))
	for i, c := range o.Controls {
		o.Ctrls[i], err = o.parseControl(i, c)
		if err != nil {
			return
		}
	}
	o.Ready = true
	return
}

// Pattern returns the pattern named name or nil if not found or name is empty
func (o *Network) Pattern(name string) *Pattern {
	if name == "" {
		return nil
	}
	return o.patterns[name]
}

// Curve returns the curve named name or nil if not found
func (o *Network) Curve(name string) *Curve {
	return o.curves[name]
}

// NodeKind returns "junction", "tank", "reservoir" or "" if node does not exist
func (o *Network) NodeKind(name string) string {
	return o.nodeKind[name]
}

// LinkKind returns "pipe", "pump", the valve type or "" if link does not exist
func (o *Network) LinkKind(name string) string {
	return o.linkKind[name]
}

// Nnodes returns the number of nodes
func (o *Network) Nnodes() int {
	return len(o.Junctions) + len(o.Tanks) + len(o.Reservoirs)
}

// Nlinks returns the number of links
func (o *Network) Nlinks() int {
	return len(o.Pipes) + len(o.Pumps) + len(o.Valves)
}

// extra settings //////////////////////////////////////////////////////////////////////////////////

// SetDefault sets default values
func (o *Data) SetDefault() {
	o.FlowUnits = "GPM"
	o.Headloss = "H-W"
	o.Viscosity = 1
	o.SpecGrav = 1
	o.DemandMod = "DD"
	o.Pexp = 0.5
	o.DemandMult = 1
	o.DefPattern = "1"
}

// PostProcess performs a post-processing of the just read data
func (o *Data) PostProcess() {
	o.Headloss = strings.ToUpper(o.Headloss)
	o.DemandMod = strings.ToUpper(o.DemandMod)
	if o.Headloss == "" {
		o.Headloss = "H-W"
	}
	if o.DemandMod == "" {
		o.DemandMod = "DD"
	}
	if o.Viscosity == 0 {
		o.Viscosity = 1
	}
	if o.SpecGrav == 0 {
		o.SpecGrav = 1
	}
	o.Pdd = o.DemandMod == "PDD"
}

// SetDefault sets default values
func (o *SolverData) SetDefault() {
	o.NmaxIt = 100
	o.Tol = 1e-6
	o.StepTol = 1e-4
	o.BtRho = 0.5
	o.BtMaxIt = 20
	o.BtStartIt = 2
	o.BtC = 1e-4
	o.NmaxStatus = 10
	o.NmaxCtrl = 10
	o.Htol = 0.0005 * units.Foot
	o.Qtol = 0.0001 * units.CfsFactor
	o.OnFailure = "abort"
	o.PddRetries = 4
}

// PostProcess performs a post-processing of the just read data
func (o *SolverData) PostProcess() {
	o.OnFailure = strings.ToLower(o.OnFailure)
	if o.OnFailure == "" {
		o.OnFailure = "abort"
	}
	o.Abort = o.OnFailure == "abort"
}

// SetDefault sets default values
func (o *TimeData) SetDefault() {
	o.HydStep = 3600
	o.PatStep = 3600
	o.RepStep = 3600
}

// PostProcess performs a post-processing of the just read data
func (o *TimeData) PostProcess() {
	if o.HydStep <= 0 {
		o.HydStep = 3600
	}
	if o.PatStep <= 0 {
		o.PatStep = o.HydStep
	}
	if o.RepStep <= 0 {
		o.RepStep = o.HydStep
	}
}
