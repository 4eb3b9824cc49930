// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"strings"

	"github.com/cpmech/gowater/hyd"
)

// Point holds the results of one node or link
type Point struct {
	Name   string               // name of node or link
	IsLink bool                 // point is a link
	Idx    int                  // index in Results.NodeNames or Results.LinkNames
	Vals   map[string][]float64 // maps quantity to values at selected times
}

// Points is a set of points
type Points []*Point

// Locator defines interface for locating nodes and links
type Locator interface {
	Locate(res *hyd.Results) Points
}

// N implements node locator by names
type N []string

// L implements link locator by names
type L []string

// Prefix implements locator of nodes or links with names starting with a prefix
//  Example: Prefix{"J", false} => all nodes with names starting with "J"
type Prefix struct {
	Pfx    string // prefix
	IsLink bool   // search links instead of nodes
}

// AllNodes implements locator of all nodes
type AllNodes struct{}

// AllLinks implements locator of all links
type AllLinks struct{}

// Locate finds nodes
func (o N) Locate(res *hyd.Results) (pts Points) {
	for _, name := range o {
		if idx := res.NodeIndex(name); idx >= 0 {
			pts = append(pts, &Point{Name: name, Idx: idx})
		}
	}
	return
}

// Locate finds links
func (o L) Locate(res *hyd.Results) (pts Points) {
	for _, name := range o {
		if idx := res.LinkIndex(name); idx >= 0 {
			pts = append(pts, &Point{Name: name, IsLink: true, Idx: idx})
		}
	}
	return
}

// Locate finds nodes or links
func (o Prefix) Locate(res *hyd.Results) (pts Points) {
	names := res.NodeNames
	if o.IsLink {
		names = res.LinkNames
	}
	for idx, name := range names {
		if strings.HasPrefix(name, o.Pfx) {
			pts = append(pts, &Point{Name: name, IsLink: o.IsLink, Idx: idx})
		}
	}
	return
}

// Locate finds all nodes
func (o AllNodes) Locate(res *hyd.Results) Points {
	return N(res.NodeNames).Locate(res)
}

// Locate finds all links
func (o AllLinks) Locate(res *hyd.Results) Points {
	return L(res.LinkNames).Locate(res)
}
