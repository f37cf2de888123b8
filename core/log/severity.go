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

package log

import "github.com/gpuanalyzer/rga/core/app/flags"

// Severity defines the severity of a logging message.
type Severity int32

const (
	// Verbose indicates extremely verbose level messages.
	Verbose Severity = iota
	// Debug indicates debug-level messages.
	Debug
	// Info indicates minor informational messages that should generally be ignored.
	Info
	// Warning indicates issues that might affect performance or compatibility, but could be ignored.
	Warning
	// Error indicates non terminal failure conditions that may have an effect on results.
	Error
	// Fatal indicates a fatal error.
	Fatal
)

var severityNames = [...]struct{ long, short string }{
	Verbose: {"Verbose", "V"},
	Debug:   {"Debug", "D"},
	Info:    {"Info", "I"},
	Warning: {"Warning", "W"},
	Error:   {"Error", "E"},
	Fatal:   {"Fatal", "F"},
}

func (s Severity) valid() bool { return s >= Verbose && s <= Fatal }

// String returns the full name of the severity.
func (s Severity) String() string {
	if !s.valid() {
		return "Unknown"
	}
	return severityNames[s].long
}

// Short returns the severity as a single character.
func (s Severity) Short() string {
	if !s.valid() {
		return "?"
	}
	return severityNames[s].short
}

// Choose sets the severity to the supplied choice.
func (s *Severity) Choose(v interface{}) { *s = v.(Severity) }

// Chooser returns a flags chooser over every valid severity.
func (s *Severity) Chooser() flags.Chooser {
	return flags.Chooser{Value: s, Choices: flags.Choices{Verbose, Debug, Info, Warning, Error, Fatal}}
}
