// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cpmech/gosl/chk"
	"gopkg.in/yaml.v3"
)

// Seconds holds a time value in seconds. In input files it can be given as a number of seconds,
// as a clock string "hh:mm[:ss]" with optional AM/PM suffix, or as a Go duration such as "1h30m"
type Seconds float64

// ParseClock parses a time string and returns the number of seconds
func ParseClock(str string) (secs float64, err error) {
	s := strings.ToUpper(strings.TrimSpace(str))
	if s == "" {
		return 0, chk.Err("time string is empty")
	}

	// plain number
	if v, e := strconv.ParseFloat(s, 64); e == nil {
		return v, nil
	}

	// AM/PM
	ampm := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		ampm = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	// clock
	if strings.Contains(s, ":") || ampm != "" {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, chk.Err("cannot parse clock time %q", str)
		}
		mult := 3600.0
		for _, p := range parts {
			v, e := strconv.ParseFloat(p, 64)
			if e != nil || v < 0 {
				return 0, chk.Err("cannot parse clock time %q", str)
			}
			secs += v * mult
			mult /= 60
		}
		switch ampm {
		case "AM":
			if secs >= 12*3600 {
				secs -= 12 * 3600
			}
		case "PM":
			if secs < 12*3600 {
				secs += 12 * 3600
			}
		}
		return secs, nil
	}

	// duration
	d, e := time.ParseDuration(strings.ToLower(s))
	if e != nil {
		return 0, chk.Err("cannot parse time %q", str)
	}
	return d.Seconds(), nil
}

// UnmarshalYAML decodes a number or a time string
func (o *Seconds) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err == nil {
		*o = Seconds(f)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*o = Seconds(v)
	return nil
}

// UnmarshalJSON decodes a number or a time string
func (o *Seconds) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*o = Seconds(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*o = Seconds(v)
	return nil
}
