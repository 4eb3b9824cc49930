// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package units converts quantities between the unit systems accepted in input files and
// the SI units used internally by the hydraulic solver
//
//  Internal units:
//   length, elevation, head, level, pressure head, headloss -- m
//   pipe and tank diameters                                 -- m
//   flow, demand                                            -- m³/s
//   volume                                                  -- m³
//   velocity                                                -- m/s
//   power                                                   -- W
//   Darcy-Weisbach roughness                                -- m
package units

import (
	"strings"

	"github.com/cpmech/gosl/chk"
)

// FlowUnits defines the flow units of an input file. The flow units also select the unit
// system of all other quantities: US customary for CFS, GPM, MGD, IMGD and AFD; SI otherwise
type FlowUnits int

// flow units
const (
	CFS  FlowUnits = iota // cubic feet per second
	GPM                   // gallons per minute
	MGD                   // million gallons per day
	IMGD                  // imperial million gallons per day
	AFD                   // acre-feet per day
	LPS                   // litres per second
	LPM                   // litres per minute
	MLD                   // million litres per day
	CMH                   // cubic metres per hour
	CMD                   // cubic metres per day
	SI                    // m³/s; used when data is already given in internal units
)

// conversion factors
const (
	Foot       = 0.3048                 // m
	Inch       = 0.0254                 // m
	Gallon     = 3.785411784e-3         // m³ (US)
	ImpGallon  = 4.54609e-3             // m³
	AcreFoot   = 1233.48183754752       // m³
	Psi        = Foot / 0.4333          // m of water column per psi
	Horsepower = 745.699872             // W
	CubicFoot  = Foot * Foot * Foot     // m³
	Litre      = 1e-3                   // m³
	Day        = 86400.0                // s
	Hour       = 3600.0                 // s
	Minute     = 60.0                   // s
	Gravity    = 9.81                   // m/s²
	WaterRho   = 1000.0                 // kg/m³
	WaterGamma = WaterRho * Gravity     // N/m³
	KinVisc    = 1.1e-6                 // m²/s; kinematic viscosity of water at 20°C
	MilliFoot  = Foot / 1000.0          // m
	Millimetre = 1e-3                   // m
	MgalPerDay = 1e6 * Gallon / Day     // m³/s
	ImgdFactor = 1e6 * ImpGallon / Day  // m³/s
	MldFactor  = 1e6 * Litre / Day      // m³/s
	AfdFactor  = AcreFoot / Day         // m³/s
	GpmFactor  = Gallon / Minute        // m³/s
	LpmFactor  = Litre / Minute         // m³/s
	CmhFactor  = 1.0 / Hour             // m³/s
	CmdFactor  = 1.0 / Day              // m³/s
	CfsFactor  = CubicFoot              // m³/s
	LpsFactor  = Litre                  // m³/s
	SiFactor   = 1.0                    // m³/s
	FpsFactor  = Foot                   // m/s
)

// flowFactors maps flow units to m³/s
var flowFactors = map[FlowUnits]float64{
	CFS:  CfsFactor,
	GPM:  GpmFactor,
	MGD:  MgalPerDay,
	IMGD: ImgdFactor,
	AFD:  AfdFactor,
	LPS:  LpsFactor,
	LPM:  LpmFactor,
	MLD:  MldFactor,
	CMH:  CmhFactor,
	CMD:  CmdFactor,
	SI:   SiFactor,
}

var flowNames = map[FlowUnits]string{
	CFS: "CFS", GPM: "GPM", MGD: "MGD", IMGD: "IMGD", AFD: "AFD",
	LPS: "LPS", LPM: "LPM", MLD: "MLD", CMH: "CMH", CMD: "CMD", SI: "SI",
}

// ParseFlowUnits returns the flow units corresponding to a (case insensitive) name
func ParseFlowUnits(name string) (fu FlowUnits, err error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return GPM, nil
	}
	for u, n := range flowNames {
		if n == key {
			return u, nil
		}
	}
	return GPM, chk.Err("flow units %q are not available. options: CFS GPM MGD IMGD AFD LPS LPM MLD CMH CMD SI", name)
}

// String returns the name of the flow units
func (o FlowUnits) String() string {
	if n, ok := flowNames[o]; ok {
		return n
	}
	return "unknown"
}

// IsUS tells whether the flow units belong to the US customary system
func (o FlowUnits) IsUS() bool {
	return o <= AFD
}

// FlowFactor returns the multiplier converting flows given in these units into m³/s
func (o FlowUnits) FlowFactor() float64 {
	f, ok := flowFactors[o]
	if !ok {
		chk.Panic("flow units %d are invalid", o)
	}
	return f
}

// Param defines the kind of quantity being converted
type Param int

// quantities
const (
	Elevation    Param = iota // node elevation
	Head                      // hydraulic head
	Length                    // pipe length
	Level                     // tank level
	PipeDiameter              // pipe or valve diameter
	TankDiameter              // tank diameter
	Volume                    // tank volume
	Flow                      // link flow
	Demand                    // node demand
	Velocity                  // link velocity
	Pressure                  // node pressure
	HeadLoss                  // headloss per link
	Power                     // pump power
	RoughnessDW               // Darcy-Weisbach absolute roughness
	Unitless                  // no conversion; e.g. Hazen-Williams C, minor loss K
)

// factor returns the multiplier converting p given in the system selected by fu into SI
func factor(p Param, fu FlowUnits) float64 {
	us := fu.IsUS()
	switch p {
	case Elevation, Head, Length, Level, HeadLoss:
		if us {
			return Foot
		}
		return 1
	case Pressure:
		if us {
			return Psi
		}
		return 1
	case PipeDiameter:
		if fu == SI {
			return 1
		}
		if us {
			return Inch
		}
		return Millimetre
	case TankDiameter:
		if us {
			return Foot
		}
		return 1
	case Volume:
		if us {
			return CubicFoot
		}
		return 1
	case Flow, Demand:
		return fu.FlowFactor()
	case Velocity:
		if us {
			return FpsFactor
		}
		return 1
	case Power:
		if fu == SI {
			return 1
		}
		if us {
			return Horsepower
		}
		return 1000 // kW
	case RoughnessDW:
		if fu == SI {
			return 1
		}
		if us {
			return MilliFoot
		}
		return Millimetre
	case Unitless:
		return 1
	}
	chk.Panic("cannot convert parameter %d", p)
	return 0
}

// ToSI converts value v of quantity p, given in the system of fu, into SI units
func ToSI(p Param, v float64, fu FlowUnits) float64 {
	return v * factor(p, fu)
}

// FromSI converts value v of quantity p, given in SI units, into the system of fu
func FromSI(p Param, v float64, fu FlowUnits) float64 {
	return v / factor(p, fu)
}

// ToSIs converts a slice in place and returns it
func ToSIs(p Param, vals []float64, fu FlowUnits) []float64 {
	f := factor(p, fu)
	for i := range vals {
		vals[i] *= f
	}
	return vals
}

// ValveSettingToSI converts the setting of a valve of type kind (PRV, PSV, PBV, FCV, TCV or GPV)
// into SI units. Pressure settings become metres of water; flow settings become m³/s
func ValveSettingToSI(kind string, v float64, fu FlowUnits) float64 {
	switch strings.ToUpper(kind) {
	case "PRV", "PSV", "PBV":
		return ToSI(Pressure, v, fu)
	case "FCV":
		return ToSI(Flow, v, fu)
	}
	return v
}

// ValveSettingFromSI converts the setting of a valve of type kind from SI units
func ValveSettingFromSI(kind string, v float64, fu FlowUnits) float64 {
	switch strings.ToUpper(kind) {
	case "PRV", "PSV", "PBV":
		return FromSI(Pressure, v, fu)
	case "FCV":
		return FromSI(Flow, v, fu)
	}
	return v
}
