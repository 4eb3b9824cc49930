// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package units

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"
)

func Test_units01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("units01. flow factors")

	chk.Float64(tst, "1 CFS", 1e-12, ToSI(Flow, 1, CFS), 0.028316846592)
	chk.Float64(tst, "1000 GPM", 1e-12, ToSI(Flow, 1000, GPM), 0.0630901964)
	chk.Float64(tst, "1 LPS", 1e-15, ToSI(Flow, 1, LPS), 1e-3)
	chk.Float64(tst, "3600 CMH", 1e-15, ToSI(Flow, 3600, CMH), 1)
	chk.Float64(tst, "86400 CMD", 1e-15, ToSI(Demand, 86400, CMD), 1)
	chk.Float64(tst, "1 MLD", 1e-15, ToSI(Flow, 1, MLD), 1e3/86400.0)
}

func Test_units02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("units02. unit systems")

	// US customary
	chk.Float64(tst, "elev ft", 1e-15, ToSI(Elevation, 100, GPM), 30.48)
	chk.Float64(tst, "diam in", 1e-15, ToSI(PipeDiameter, 12, GPM), 0.3048)
	chk.Float64(tst, "press psi", 1e-12, ToSI(Pressure, 0.4333, CFS), Foot)
	chk.Float64(tst, "power hp", 1e-12, ToSI(Power, 1, MGD), 745.699872)
	chk.Float64(tst, "rough mft", 1e-15, ToSI(RoughnessDW, 1, GPM), 0.0003048)

	// SI
	chk.Float64(tst, "elev m", 1e-15, ToSI(Elevation, 100, LPS), 100)
	chk.Float64(tst, "diam mm", 1e-15, ToSI(PipeDiameter, 300, LPS), 0.3)
	chk.Float64(tst, "power kW", 1e-15, ToSI(Power, 2, CMH), 2000)
	chk.Float64(tst, "rough mm", 1e-15, ToSI(RoughnessDW, 0.26, CMD), 0.26e-3)

	// internal
	chk.Float64(tst, "diam SI", 1e-15, ToSI(PipeDiameter, 0.3, SI), 0.3)
	chk.Float64(tst, "C unitless", 1e-15, ToSI(Unitless, 130, GPM), 130)
}

func Test_units03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("units03. round trip")

	params := []Param{Elevation, Head, Length, Level, PipeDiameter, TankDiameter, Volume, Flow, Demand, Velocity, Pressure, HeadLoss, Power, RoughnessDW}
	for fu := CFS; fu <= SI; fu++ {
		for _, p := range params {
			v := 123.456
			back := FromSI(p, ToSI(p, v, fu), fu)
			if math.Abs(back-v) > 1e-12*v {
				tst.Errorf("round trip failed for param %d and units %v: %v != %v", p, fu, back, v)
			}
		}
	}

	vals := ToSIs(Length, []float64{1, 2}, CFS)
	chk.Array(tst, "ToSIs", 1e-15, vals, []float64{Foot, 2 * Foot})
}

func Test_units04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("units04. parsing")

	fu, err := ParseFlowUnits("lps")
	require.NoError(tst, err)
	require.Equal(tst, LPS, fu)
	require.False(tst, fu.IsUS())

	fu, err = ParseFlowUnits("")
	require.NoError(tst, err)
	require.Equal(tst, GPM, fu)
	require.True(tst, fu.IsUS())
	require.Equal(tst, "GPM", fu.String())

	_, err = ParseFlowUnits("furlongs")
	require.Error(tst, err)
}

func Test_units05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("units05. valve settings")

	chk.Float64(tst, "PRV psi", 1e-12, ValveSettingToSI("PRV", 0.4333, GPM), Foot)
	chk.Float64(tst, "PBV m", 1e-15, ValveSettingToSI("pbv", 10, LPS), 10)
	chk.Float64(tst, "FCV lps", 1e-15, ValveSettingToSI("FCV", 5, LPS), 5e-3)
	chk.Float64(tst, "TCV K", 1e-15, ValveSettingToSI("TCV", 3.5, GPM), 3.5)
	chk.Float64(tst, "FCV back", 1e-12, ValveSettingFromSI("FCV", ValveSettingToSI("FCV", 250, GPM), GPM), 250)
}
