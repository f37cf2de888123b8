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

// Target is a virtual GPU the driver can compile for.
type Target struct {
	Name string `yaml:"name"`
	ID   uint32 `yaml:"id"`
}

// Targets is the list of targets in driver enumeration order.
type Targets []Target

// Names returns the target names in order.
func (l Targets) Names() []string {
	out := make([]string, len(l))
	for i, t := range l {
		out[i] = t.Name
	}
	return out
}

// IDs returns a map of target name to driver id.
func (l Targets) IDs() map[string]uint32 {
	out := make(map[string]uint32, len(l))
	for _, t := range l {
		out[t.Name] = t.ID
	}
	return out
}

// Find returns the target with the given name.
func (l Targets) Find(name string) (Target, bool) {
	for _, t := range l {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}
