// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"encoding/csv"
	"encoding/json"
	goio "io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cpmech/gosl/chk"
	"github.com/golang/snappy"

	"github.com/cpmech/gowater/hyd"
	"github.com/cpmech/gowater/units"
)

// params maps quantities to unit conversion parameters
var params = map[string]units.Param{
	hyd.QHead:     units.Head,
	hyd.QDemand:   units.Demand,
	hyd.QPressure: units.Pressure,
	hyd.QFlow:     units.Flow,
	hyd.QVelocity: units.Velocity,
	hyd.QHeadloss: units.HeadLoss,
	hyd.QStatus:   units.Unitless,
	hyd.QSetting:  units.Unitless,
}

// IsLinkQuantity tells whether key is a link quantity
func IsLinkQuantity(key string) bool {
	for _, k := range hyd.LinkQuantities {
		if k == key {
			return true
		}
	}
	return false
}

// ResultsPath returns the path of the results file
func ResultsPath(dirout, fnkey, enctype string) string {
	if enctype == "json" {
		return filepath.Join(dirout, fnkey+".json")
	}
	return filepath.Join(dirout, fnkey+".res")
}

// Save saves results into dirout. Gob files are compressed with snappy
//  enctype -- "gob" or "json"
func Save(res *hyd.Results, dirout, fnkey, enctype string) (fnpath string, err error) {
	err = os.MkdirAll(dirout, 0777)
	if err != nil {
		return "", chk.Err("cannot create directory %q:\n%v", dirout, err)
	}
	fnpath = ResultsPath(dirout, fnkey, enctype)
	fil, err := os.Create(fnpath)
	if err != nil {
		return "", chk.Err("cannot create results file %q:\n%v", fnpath, err)
	}
	defer func() {
		if e := fil.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if enctype == "json" {
		err = WriteJSON(fil, res)
		return
	}
	w := snappy.NewBufferedWriter(fil)
	err = hyd.GetEncoder(w, enctype).Encode(res)
	if err != nil {
		return "", chk.Err("cannot encode results:\n%v", err)
	}
	err = w.Close()
	return
}

// Load reads results saved by Save
func Load(fnpath, enctype string) (res *hyd.Results, err error) {
	fil, err := os.Open(fnpath)
	if err != nil {
		return nil, chk.Err("cannot open results file %q:\n%v", fnpath, err)
	}
	defer fil.Close()
	var r goio.Reader = fil
	if enctype != "json" {
		r = snappy.NewReader(fil)
	}
	res = new(hyd.Results)
	err = hyd.GetDecoder(r, enctype).Decode(res)
	if err != nil {
		return nil, chk.Err("cannot decode results file %q:\n%v", fnpath, err)
	}
	return
}

// WriteJSON writes results in JSON format
func WriteJSON(w goio.Writer, res *hyd.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes one quantity of all nodes or links as a table with one row per report time.
// Values are converted from SI units into the system selected by fu
func WriteCSV(w goio.Writer, res *hyd.Results, key string, fu units.FlowUnits) (err error) {
	p, ok := params[key]
	if !ok {
		return chk.Err("quantity %q is not available", key)
	}
	data, names := res.Node[key], res.NodeNames
	if IsLinkQuantity(key) {
		data, names = res.Link[key], res.LinkNames
	}
	cw := csv.NewWriter(w)
	err = cw.Write(append([]string{"time"}, names...))
	if err != nil {
		return
	}
	row := make([]string, len(names)+1)
	for tidx, t := range res.Times {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for i, v := range data[tidx] {
			row[i+1] = strconv.FormatFloat(units.FromSI(p, v, fu), 'g', 10, 64)
		}
		err = cw.Write(row)
		if err != nil {
			return
		}
	}
	cw.Flush()
	return cw.Error()
}
