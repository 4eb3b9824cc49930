// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gowater/units"
)

// Scalar holds a number or a word such as "open" as given in input files
type Scalar string

// UnmarshalJSON accepts numbers and strings
func (o *Scalar) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = Scalar(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*o = Scalar(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// ControlData holds input data of a control or rule
//  Example (YAML):
//   - name: pump-on
//     priority: 2
//     if:
//       - {object: T1, attrib: level, rel: "<", value: 2}
//     then:
//       - {object: PU1, attrib: status, value: open}
type ControlData struct {
	Name     string        `json:"name" yaml:"name" validate:"required"` // name
	Priority float64       `json:"priority" yaml:"priority"`             // larger values are applied first
	If       []*CondData   `json:"if" yaml:"if" validate:"min=1"`        // conditions
	Then     []*ActionData `json:"then" yaml:"then" validate:"min=1"`    // actions when conditions hold
	Else     []*ActionData `json:"else" yaml:"else"`                     // actions otherwise
}

// CondData holds input data of a condition
type CondData struct {
	Object string `json:"object" yaml:"object"`                                                                               // node or link name; empty for time conditions
	Attrib string `json:"attrib" yaml:"attrib" validate:"required,oneof=time clocktime level pressure head demand flow status setting speed"` // attribute
	Rel    string `json:"rel" yaml:"rel" validate:"required,oneof=< <= > >= = == != <>"`                                    // relation
	Value  Scalar `json:"value" yaml:"value" validate:"required"`                                                             // value
	Or     bool   `json:"or" yaml:"or"`                                                                                       // joined to the previous condition with OR instead of AND
}

// ActionData holds input data of an action
type ActionData struct {
	Object string `json:"object" yaml:"object" validate:"required"`                                 // link or reservoir name
	Attrib string `json:"attrib" yaml:"attrib" validate:"required,oneof=status setting speed head"` // attribute
	Value  Scalar `json:"value" yaml:"value" validate:"required"`                                   // value
}

// CondKind defines the kind of condition
type CondKind int

// conditions
const (
	CondTime     CondKind = iota // elapsed time
	CondClock                    // time of day
	CondLevel                    // tank level
	CondPressure                 // node pressure
	CondHead                     // node head
	CondDemand                   // junction demand
	CondFlow                     // link flow
	CondStatus                   // link status
	CondSetting                  // valve setting
	CondSpeed                    // pump speed
)

var condKinds = map[string]CondKind{
	"time": CondTime, "clocktime": CondClock, "level": CondLevel, "pressure": CondPressure, "head": CondHead,
	"demand": CondDemand, "flow": CondFlow, "status": CondStatus, "setting": CondSetting, "speed": CondSpeed,
}

// Relation defines a comparison operator
type Relation int

// relations
const (
	RelLT Relation = iota // <
	RelLE                 // <=
	RelGT                 // >
	RelGE                 // >=
	RelEQ                 // =
	RelNE                 // !=
)

var relations = map[string]Relation{"<": RelLT, "<=": RelLE, ">": RelGT, ">=": RelGE, "=": RelEQ, "==": RelEQ, "!=": RelNE, "<>": RelNE}

// Compare returns whether "a rel b" holds; equality uses the tolerance tol
func (o Relation) Compare(a, b, tol float64) bool {
	switch o {
	case RelLT:
		return a < b
	case RelLE:
		return a <= b+tol
	case RelGT:
		return a > b
	case RelGE:
		return a >= b-tol
	case RelEQ:
		return math.Abs(a-b) <= tol
	case RelNE:
		return math.Abs(a-b) > tol
	}
	return false
}

// ActionKind defines the kind of action
type ActionKind int

// actions
const (
	ActStatus  ActionKind = iota // set link status
	ActSetting                   // set valve setting or pump speed
	ActSpeed                     // set pump speed
	ActHead                      // set reservoir head
)

var actionKinds = map[string]ActionKind{"status": ActStatus, "setting": ActSetting, "speed": ActSpeed, "head": ActHead}

// status values used by controls
const (
	CtrlClosed = 0.0 // closed
	CtrlOpen   = 1.0 // open
	CtrlActive = 2.0 // active (valves only)
)

// Condition holds a parsed condition with values in SI units
type Condition struct {
	Kind   CondKind // kind
	Object string   // node or link name
	Rel    Relation // relation
	Value  float64  // value
	Or     bool     // OR with previous condition
}

// Action holds a parsed action with values in SI units
type Action struct {
	Kind   ActionKind // kind
	Object string     // link or reservoir name
	Value  float64    // value
}

// Control holds a parsed control
type Control struct {
	Name     string       // name
	Priority float64      // priority
	Index    int          // position in input
	Conds    []*Condition // conditions
	Then     []*Action    // actions if true
	Else     []*Action    // actions if false
}

// TimeOnly tells whether all conditions are time or clock time conditions
func (o *Control) TimeOnly() bool {
	for _, c := range o.Conds {
		if c.Kind != CondTime && c.Kind != CondClock {
			return false
		}
	}
	return true
}

// parseControl converts input data into a Control
func (o *Network) parseControl(idx int, dat *ControlData) (c *Control, err error) {
	entity := io.Sf("control %q", dat.Name)
	c = &Control{Name: dat.Name, Priority: dat.Priority, Index: idx}
	fu := o.Data.Units
	for i, cd := range dat.If {
		cnd := &Condition{Kind: condKinds[strings.ToLower(cd.Attrib)], Object: cd.Object, Rel: relations[cd.Rel], Or: cd.Or}
		if i == 0 {
			cnd.Or = false
		}
		val := string(cd.Value)
		switch cnd.Kind {
		case CondTime, CondClock:
			cnd.Value, err = ParseClock(val)
		case CondLevel:
			if o.NodeKind(cd.Object) != "tank" {
				return nil, &ConfigError{entity, io.Sf("level condition requires a tank. %q is not a tank", cd.Object)}
			}
			cnd.Value, err = parseNumber(val, units.Level, fu)
		case CondPressure, CondHead, CondDemand:
			kind := o.NodeKind(cd.Object)
			if kind == "" {
				return nil, &ConfigError{entity, io.Sf("cannot find node %q", cd.Object)}
			}
			if cnd.Kind == CondDemand && kind != "junction" {
				return nil, &ConfigError{entity, io.Sf("demand condition requires a junction. %q is a %s", cd.Object, kind)}
			}
			p := map[CondKind]units.Param{CondPressure: units.Pressure, CondHead: units.Head, CondDemand: units.Demand}[cnd.Kind]
			cnd.Value, err = parseNumber(val, p, fu)
		case CondFlow, CondStatus, CondSetting, CondSpeed:
			kind := o.LinkKind(cd.Object)
			if kind == "" {
				return nil, &ConfigError{entity, io.Sf("cannot find link %q", cd.Object)}
			}
			switch cnd.Kind {
			case CondFlow:
				cnd.Value, err = parseNumber(val, units.Flow, fu)
			case CondStatus:
				cnd.Value, err = parseStatus(val)
			case CondSetting:
				cnd.Value, err = o.parseSetting(kind, val)
			case CondSpeed:
				if kind != "pump" {
					return nil, &ConfigError{entity, io.Sf("speed condition requires a pump. %q is a %s", cd.Object, kind)}
				}
				cnd.Value, err = parseNumber(val, units.Unitless, fu)
			}
		}
		if err != nil {
			return nil, &ConfigError{entity, err.Error()}
		}
		c.Conds = append(c.Conds, cnd)
	}
	c.Then, err = o.parseActions(entity, dat.Then)
	if err != nil {
		return nil, err
	}
	c.Else, err = o.parseActions(entity, dat.Else)
	if err != nil {
		return nil, err
	}
	return
}

// parseActions converts action data
func (o *Network) parseActions(entity string, dats []*ActionData) (acts []*Action, err error) {
	for _, ad := range dats {
		a := &Action{Kind: actionKinds[strings.ToLower(ad.Attrib)], Object: ad.Object}
		val := string(ad.Value)
		if a.Kind == ActHead {
			if o.NodeKind(ad.Object) != "reservoir" {
				return nil, &ConfigError{entity, io.Sf("head action requires a reservoir. %q is not a reservoir", ad.Object)}
			}
			a.Value, err = parseNumber(val, units.Head, o.Data.Units)
			if err != nil {
				return nil, &ConfigError{entity, err.Error()}
			}
			acts = append(acts, a)
			continue
		}
		kind := o.LinkKind(ad.Object)
		if kind == "" {
			return nil, &ConfigError{entity, io.Sf("cannot find link %q", ad.Object)}
		}
		switch a.Kind {
		case ActStatus:
			a.Value, err = parseStatus(val)
			if err == nil && a.Value == CtrlActive && (kind == "pipe" || kind == "pump") {
				err = chk.Err("status of %s %q cannot be set to active", kind, ad.Object)
			}
		case ActSetting:
			a.Value, err = o.parseSetting(kind, val)
		case ActSpeed:
			if kind != "pump" {
				err = chk.Err("speed action requires a pump. %q is a %s", ad.Object, kind)
			} else {
				a.Value, err = parseNumber(val, units.Unitless, o.Data.Units)
			}
		}
		if err != nil {
			return nil, &ConfigError{entity, err.Error()}
		}
		acts = append(acts, a)
	}
	return
}

// parseSetting parses a setting value of a link of the given kind
func (o *Network) parseSetting(kind, val string) (v float64, err error) {
	switch kind {
	case "pipe":
		return 0, chk.Err("pipes do not have settings")
	case "pump":
		return parseNumber(val, units.Unitless, o.Data.Units)
	}
	v, err = strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, chk.Err("cannot parse setting %q", val)
	}
	return units.ValveSettingToSI(kind, v, o.Data.Units), nil
}

// parseNumber parses a number given in the system of fu and converts it into SI units
func parseNumber(val string, p units.Param, fu units.FlowUnits) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, chk.Err("cannot parse number %q", val)
	}
	return units.ToSI(p, v, fu), nil
}

// parseStatus parses "open", "closed" or "active"
func parseStatus(val string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "open", "1":
		return CtrlOpen, nil
	case "closed", "0":
		return CtrlClosed, nil
	case "active", "2":
		return CtrlActive, nil
	}
	return 0, chk.Err("cannot parse status %q. options: open, closed, active", val)
}
