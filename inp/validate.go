// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"strings"

	"github.com/cpmech/gosl/io"
	"github.com/go-playground/validator/v10"

	"github.com/cpmech/gowater/units"
)

// validate is the validator of input records
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ConfigError reports invalid input data
type ConfigError struct {
	Entity string // offending entity; e.g. `pipe "P1"`
	Msg    string // message
}

// Error returns the error message
func (o *ConfigError) Error() string {
	return io.Sf("invalid %s: %s", o.Entity, o.Msg)
}

// CheckStruct validates the tags of a record defined outside this package
//  entity -- name used in error messages; e.g. `scenario "peak"`
func CheckStruct(entity string, rec interface{}) error {
	return checkStruct(entity, rec)
}

// checkStruct validates the tags of record rec
func checkStruct(entity string, rec interface{}) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ConfigError{entity, err.Error()}
	}
	e := verrs[0]
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return &ConfigError{entity, io.Sf("%s is required", field)}
	case "gt":
		return &ConfigError{entity, io.Sf("%s must be greater than %s. %v is invalid", field, e.Param(), e.Value())}
	case "gte":
		return &ConfigError{entity, io.Sf("%s must not be smaller than %s. %v is invalid", field, e.Param(), e.Value())}
	case "lt":
		return &ConfigError{entity, io.Sf("%s must be smaller than %s. %v is invalid", field, e.Param(), e.Value())}
	case "min":
		return &ConfigError{entity, io.Sf("%s must have at least %s item(s)", field, e.Param())}
	case "oneof":
		return &ConfigError{entity, io.Sf("%s must be one of [%s]. %q is invalid", field, e.Param(), e.Value())}
	}
	return &ConfigError{entity, io.Sf("%s failed on %q", field, e.Tag())}
}

// validate checks all input data
func (o *Network) validate() (err error) {

	// global data
	if err = checkStruct("data", &o.Data); err != nil {
		return
	}
	if err = checkStruct("solver data", &o.Solver); err != nil {
		return
	}
	if err = checkStruct("time data", &o.Time); err != nil {
		return
	}
	if o.Data.Pdd && o.Data.Preq <= o.Data.Pmin {
		return &ConfigError{"data", io.Sf("required pressure (%g) must be greater than minimum pressure (%g)", o.Data.Preq, o.Data.Pmin)}
	}

	// patterns and curves
	pats := make(map[string]bool)
	for _, p := range o.Patterns {
		ent := io.Sf("pattern %q", p.Name)
		if err = checkStruct(ent, p); err != nil {
			return
		}
		if pats[p.Name] {
			return &ConfigError{ent, "name is repeated"}
		}
		pats[p.Name] = true
	}
	curveKind := make(map[string]string)
	for _, c := range o.Curves {
		ent := io.Sf("curve %q", c.Name)
		if err = checkStruct(ent, c); err != nil {
			return
		}
		if _, ok := curveKind[c.Name]; ok {
			return &ConfigError{ent, "name is repeated"}
		}
		if len(c.X) != len(c.Y) {
			return &ConfigError{ent, io.Sf("number of x values (%d) differs from number of y values (%d)", len(c.X), len(c.Y))}
		}
		curveKind[c.Name] = c.Type
	}
	checkPat := func(ent, name string) error {
		if name != "" && !pats[name] {
			return &ConfigError{ent, io.Sf("cannot find pattern %q", name)}
		}
		return nil
	}
	checkCurve := func(ent, name, kind string) error {
		k, ok := curveKind[name]
		if !ok {
			return &ConfigError{ent, io.Sf("cannot find curve %q", name)}
		}
		if k != kind {
			return &ConfigError{ent, io.Sf("curve %q must be a %s curve; it is a %s curve", name, kind, k)}
		}
		return nil
	}

	// nodes
	o.nodeKind = make(map[string]string)
	addNode := func(ent, name, kind string) error {
		if _, ok := o.nodeKind[name]; ok {
			return &ConfigError{ent, "node name is repeated"}
		}
		o.nodeKind[name] = kind
		return nil
	}
	for _, j := range o.Junctions {
		ent := io.Sf("junction %q", j.Name)
		if err = checkStruct(ent, j); err != nil {
			return
		}
		if err = addNode(ent, j.Name, "junction"); err != nil {
			return
		}
		if err = checkPat(ent, j.Pattern); err != nil {
			return
		}
		for _, d := range j.Demands {
			if err = checkPat(ent, d.Pattern); err != nil {
				return
			}
		}
		if j.Pmin != nil && j.Preq != nil && *j.Preq <= *j.Pmin {
			return &ConfigError{ent, "required pressure must be greater than minimum pressure"}
		}
	}
	for _, t := range o.Tanks {
		ent := io.Sf("tank %q", t.Name)
		if err = checkStruct(ent, t); err != nil {
			return
		}
		if err = addNode(ent, t.Name, "tank"); err != nil {
			return
		}
		if t.Min > t.Max {
			return &ConfigError{ent, io.Sf("minimum level (%g) is greater than maximum level (%g)", t.Min, t.Max)}
		}
		if t.Init < t.Min || t.Init > t.Max {
			return &ConfigError{ent, io.Sf("initial level (%g) is outside [%g, %g]", t.Init, t.Min, t.Max)}
		}
		if t.VolCurve != "" {
			if err = checkCurve(ent, t.VolCurve, "volume"); err != nil {
				return
			}
		} else if t.Diam <= 0 {
			return &ConfigError{ent, "diameter must be positive when there is no volume curve"}
		}
	}
	for _, r := range o.Reservoirs {
		ent := io.Sf("reservoir %q", r.Name)
		if err = checkStruct(ent, r); err != nil {
			return
		}
		if err = addNode(ent, r.Name, "reservoir"); err != nil {
			return
		}
		if err = checkPat(ent, r.Pattern); err != nil {
			return
		}
	}
	if len(o.Tanks)+len(o.Reservoirs) == 0 {
		return &ConfigError{"network", "there must be at least one tank or reservoir"}
	}

	// links
	o.linkKind = make(map[string]string)
	addLink := func(ent, name, kind, n1, n2 string) error {
		if _, ok := o.linkKind[name]; ok {
			return &ConfigError{ent, "link name is repeated"}
		}
		if _, ok := o.nodeKind[n1]; !ok {
			return &ConfigError{ent, io.Sf("cannot find start node %q", n1)}
		}
		if _, ok := o.nodeKind[n2]; !ok {
			return &ConfigError{ent, io.Sf("cannot find end node %q", n2)}
		}
		if n1 == n2 {
			return &ConfigError{ent, io.Sf("start and end nodes are the same (%q)", n1)}
		}
		o.linkKind[name] = kind
		return nil
	}
	for _, p := range o.Pipes {
		ent := io.Sf("pipe %q", p.Name)
		if err = checkStruct(ent, p); err != nil {
			return
		}
		if err = addLink(ent, p.Name, "pipe", p.Node1, p.Node2); err != nil {
			return
		}
	}
	for _, p := range o.Pumps {
		ent := io.Sf("pump %q", p.Name)
		if err = checkStruct(ent, p); err != nil {
			return
		}
		if err = addLink(ent, p.Name, "pump", p.Node1, p.Node2); err != nil {
			return
		}
		if p.Curve == "" && p.Power <= 0 {
			return &ConfigError{ent, "either a head curve or a positive power must be given"}
		}
		if p.Curve != "" {
			if err = checkCurve(ent, p.Curve, "pump"); err != nil {
				return
			}
		}
		if err = checkPat(ent, p.Pattern); err != nil {
			return
		}
	}
	for _, v := range o.Valves {
		v.Type = strings.ToUpper(v.Type)
		ent := io.Sf("valve %q", v.Name)
		if err = checkStruct(ent, v); err != nil {
			return
		}
		if err = addLink(ent, v.Name, v.Type, v.Node1, v.Node2); err != nil {
			return
		}
		if v.Type == "PRV" || v.Type == "PSV" {
			for _, n := range []string{v.Node1, v.Node2} {
				if k := o.nodeKind[n]; k != "junction" {
					return &ConfigError{ent, io.Sf("%s cannot be connected to %s %q", v.Type, k, n)}
				}
			}
		}
		if v.Type == "PBV" {
			k1, k2 := o.nodeKind[v.Node1], o.nodeKind[v.Node2]
			if k1 != "junction" && k2 != "junction" {
				return &ConfigError{ent, io.Sf("PBV cannot connect %s %q to %s %q", k1, v.Node1, k2, v.Node2)}
			}
		}
		if v.Type == "GPV" {
			if err = checkCurve(ent, v.Curve, "headloss"); err != nil {
				return
			}
		}
		if v.Setting < 0 && v.Type != "GPV" {
			return &ConfigError{ent, io.Sf("setting must not be negative. %g is invalid", v.Setting)}
		}
	}

	// controls
	for _, c := range o.Controls {
		ent := io.Sf("control %q", c.Name)
		if err = checkStruct(ent, c); err != nil {
			return
		}
		for _, cd := range c.If {
			if err = checkStruct(ent, cd); err != nil {
				return
			}
		}
		for _, ad := range append(append([]*ActionData{}, c.Then...), c.Else...) {
			if err = checkStruct(ent, ad); err != nil {
				return
			}
		}
	}

	// every node must reach a tank or reservoir
	return o.checkConnectivity()
}

// checkConnectivity checks that every junction is connected to a tank or reservoir,
// regardless of link status
func (o *Network) checkConnectivity() error {
	adj := make(map[string][]string)
	link := func(a, b string) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for _, p := range o.Pipes {
		link(p.Node1, p.Node2)
	}
	for _, p := range o.Pumps {
		link(p.Node1, p.Node2)
	}
	for _, v := range o.Valves {
		link(v.Node1, v.Node2)
	}
	seen := make(map[string]bool)
	var queue []string
	for _, t := range o.Tanks {
		seen[t.Name] = true
		queue = append(queue, t.Name)
	}
	for _, r := range o.Reservoirs {
		seen[r.Name] = true
		queue = append(queue, r.Name)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range adj[n] {
			if !seen[m] {
				seen[m] = true
				queue = append(queue, m)
			}
		}
	}
	for _, j := range o.Junctions {
		if !seen[j.Name] {
			return &ConfigError{io.Sf("junction %q", j.Name), "not connected to any tank or reservoir"}
		}
	}
	return nil
}

// checkCurves fits pump curves and checks the other curves. Values must be in SI units
func (o *Network) checkCurves() error {
	for _, c := range o.Curves {
		crv := o.curves[c.Name]
		var err error
		switch c.Type {
		case "pump":
			err = crv.FitPump()
		case "volume":
			err = crv.CheckMonotonic(1, true)
		case "headloss":
			err = crv.CheckMonotonic(1, false)
		default:
			err = crv.CheckMonotonic(0, false)
		}
		if err != nil {
			return &ConfigError{io.Sf("curve %q", c.Name), err.Error()}
		}
	}
	for _, t := range o.Tanks {
		if t.VolCurve == "" {
			continue
		}
		crv := o.curves[t.VolCurve]
		if t.Min < crv.X[0] || t.Max > crv.X[len(crv.X)-1] {
			return &ConfigError{io.Sf("tank %q", t.Name), io.Sf("volume curve %q does not cover levels [%g, %g]", t.VolCurve, t.Min, t.Max)}
		}
	}
	return nil
}

// toSI converts all values into SI units
func (o *Network) toSI() {
	fu := o.Data.Units
	cv := func(p units.Param, v float64) float64 { return units.ToSI(p, v, fu) }
	o.Data.Pmin = cv(units.Pressure, o.Data.Pmin)
	o.Data.Preq = cv(units.Pressure, o.Data.Preq)
	for _, j := range o.Junctions {
		j.Elev = cv(units.Elevation, j.Elev)
		j.Demand = cv(units.Demand, j.Demand)
		for _, d := range j.Demands {
			d.Base = cv(units.Demand, d.Base)
		}
		if j.Pmin != nil {
			v := cv(units.Pressure, *j.Pmin)
			j.Pmin = &v
		}
		if j.Preq != nil {
			v := cv(units.Pressure, *j.Preq)
			j.Preq = &v
		}
	}
	for _, t := range o.Tanks {
		t.Elev = cv(units.Elevation, t.Elev)
		t.Init = cv(units.Level, t.Init)
		t.Min = cv(units.Level, t.Min)
		t.Max = cv(units.Level, t.Max)
		t.Diam = cv(units.TankDiameter, t.Diam)
	}
	for _, r := range o.Reservoirs {
		r.Head = cv(units.Head, r.Head)
	}
	rough := units.Unitless
	if o.Data.Headloss == "D-W" {
		rough = units.RoughnessDW
	}
	for _, p := range o.Pipes {
		p.Length = cv(units.Length, p.Length)
		p.Diam = cv(units.PipeDiameter, p.Diam)
		p.Rough = cv(rough, p.Rough)
	}
	for _, p := range o.Pumps {
		p.Power = cv(units.Power, p.Power)
		if p.Speed == 0 {
			p.Speed = 1
		}
	}
	for _, v := range o.Valves {
		v.Diam = cv(units.PipeDiameter, v.Diam)
		v.Setting = units.ValveSettingToSI(v.Type, v.Setting, fu)
	}
	for _, c := range o.Curves {
		switch c.Type {
		case "pump":
			units.ToSIs(units.Flow, c.X, fu)
			units.ToSIs(units.Head, c.Y, fu)
		case "volume":
			units.ToSIs(units.Level, c.X, fu)
			units.ToSIs(units.Volume, c.Y, fu)
		case "headloss":
			units.ToSIs(units.Flow, c.X, fu)
			units.ToSIs(units.HeadLoss, c.Y, fu)
		case "efficiency":
			units.ToSIs(units.Flow, c.X, fu)
		}
	}
}
