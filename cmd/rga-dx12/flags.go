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

package main

type (
	pipelineKind int

	TargetsFlags struct {
		Config string `help:"YAML backend configuration file"`
		YAML   bool   `help:"print the targets as YAML"`
	}

	DisasmFlags struct {
		Kind pipelineKind `help:"the kind of pipeline the container was produced for"`
		Out  string       `help:"directory to write per stage .isa files to"`
		Base string       `help:"base name of the files written to -out"`
		YAML bool         `help:"print the decoded stages as YAML"`
	}
)

const (
	graphicsKind pipelineKind = iota
	computeKind
)

func (k pipelineKind) String() string {
	switch k {
	case graphicsKind:
		return "graphics"
	case computeKind:
		return "compute"
	default:
		return ""
	}
}

func (k *pipelineKind) Choose(v interface{}) { *k = v.(pipelineKind) }
