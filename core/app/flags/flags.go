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

// Package flags binds command line flags onto tagged structs.
package flags

import (
	"flag"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
)

// Set is a named set of flags, bound from struct fields with Bind.
type Set struct {
	Raw flag.FlagSet
}

// NewSet returns an empty flag set that reports parse errors to the caller.
func NewSet(name string) *Set {
	s := &Set{}
	s.Raw.Init(name, flag.ContinueOnError)
	s.Raw.SetOutput(io.Discard)
	return s
}

// Bind registers value under name.
// Pointers to structs are walked field by field; each exported field becomes
// a flag named from its lower cased field name, or from the "name" tag, with
// the usage text taken from the "help" tag. Nested structs prefix their
// fields with the parent name.
func (s *Set) Bind(name string, value interface{}, help string) {
	switch val := value.(type) {
	case *bool:
		s.Raw.BoolVar(val, name, *val, help)
		return
	case *int:
		s.Raw.IntVar(val, name, *val, help)
		return
	case *uint:
		s.Raw.UintVar(val, name, *val, help)
		return
	case *string:
		s.Raw.StringVar(val, name, *val, help)
		return
	case *time.Duration:
		s.Raw.DurationVar(val, name, *val, help)
		return
	case Choosable:
		chooser := val.Chooser()
		s.Raw.Var(chooser, name, fmt.Sprintf("%s [one of: %s]", help, chooser.Choices))
		return
	case Enum:
		chooser := ForEnum(val)
		s.Raw.Var(chooser, name, fmt.Sprintf("%s [one of: %s]", help, chooser.Choices))
		return
	case flag.Value:
		s.Raw.Var(val, name, help)
		return
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("Unhandled flag type: %v", rv.Type()))
	}
	e := rv.Elem()
	t := e.Type()
	for i := 0; i < e.NumField(); i++ {
		tf := t.Field(i)
		if tf.PkgPath != "" {
			continue // Unexported.
		}
		fname := strings.ToLower(tf.Name)
		if tf.Anonymous {
			fname = ""
		}
		if n := tf.Tag.Get("name"); n != "" {
			fname = n
		}
		full := fname
		switch {
		case fname == "":
			full = name
		case name != "":
			full = name + "-" + fname
		}
		s.Bind(full, e.Field(i).Addr().Interface(), tf.Tag.Get("help"))
	}
}

// Parse parses args against the bound flags.
func (s *Set) Parse(args []string) error {
	return s.Raw.Parse(args)
}

// Args returns the arguments left over after parsing.
func (s *Set) Args() []string {
	return s.Raw.Args()
}

// Usage returns the help text for every bound flag, sorted by name.
func (s *Set) Usage() string {
	lines := []string{}
	s.Raw.VisitAll(func(fl *flag.Flag) {
		kind, usage := flag.UnquoteUsage(fl)
		line := fmt.Sprintf("  -%s %s\n\t%s", fl.Name, kind, usage)
		switch fl.DefValue {
		case "", "false", "0":
		default:
			line += fmt.Sprintf(" (default %v)", fl.DefValue)
		}
		lines = append(lines, line)
	})
	return strings.Join(lines, "\n")
}
