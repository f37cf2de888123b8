// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"strings"
)

// Stage is a programmable pipeline stage.
type Stage int

const (
	Compute Stage = iota
	Vertex
	Hull
	Domain
	Geometry
	Pixel
)

var stageCodes = [...]string{
	Compute:  "CS",
	Vertex:   "VS",
	Hull:     "HS",
	Domain:   "DS",
	Geometry: "GS",
	Pixel:    "PS",
}

var stageNames = [...]string{
	Compute:  "compute",
	Vertex:   "vertex",
	Hull:     "hull",
	Domain:   "domain",
	Geometry: "geometry",
	Pixel:    "pixel",
}

// GraphicsStages lists the graphics stages in pipeline order.
var GraphicsStages = []Stage{Vertex, Hull, Domain, Geometry, Pixel}

func (s Stage) valid() bool { return s >= Compute && s <= Pixel }

// Code returns the two letter code the driver uses to tag the stage.
func (s Stage) Code() string {
	if !s.valid() {
		return ""
	}
	return stageCodes[s]
}

func (s Stage) String() string {
	if !s.valid() {
		return "unknown"
	}
	return stageNames[s]
}

// Bit returns the driver's stage flag for s.
func (s Stage) Bit() StageMask {
	if !s.valid() {
		return 0
	}
	return StageMask(1) << uint(s)
}

// StageFromCode looks up a stage by its two letter code.
func StageFromCode(code string) (Stage, bool) {
	for s, c := range stageCodes {
		if c == code {
			return Stage(s), true
		}
	}
	return 0, false
}

// StageMask is the set of stages a compiled shader covers. The driver may
// report more than one bit for a shader when it merges stages.
type StageMask uint32

// Has returns true if s is in the mask.
func (m StageMask) Has(s Stage) bool { return s.Bit() != 0 && m&s.Bit() != 0 }

// Stages returns the stages in the mask, in stage order.
func (m StageMask) Stages() []Stage {
	out := []Stage{}
	for s := Compute; s <= Pixel; s++ {
		if m.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

func (m StageMask) String() string {
	codes := []string{}
	for _, s := range m.Stages() {
		codes = append(codes, s.Code())
	}
	if len(codes) == 0 {
		return "none"
	}
	return strings.Join(codes, "|")
}
