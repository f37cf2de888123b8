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

package flags

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type (
	// Choice is a single named value of an enumerated type.
	Choice interface {
		String() string
	}

	// Choices is the set of values an enumerated flag may take.
	Choices []Choice

	// Enum is an enumerated value that can be set from one of its Choices.
	// Anything that implements Enum is directly usable as a flag value.
	Enum interface {
		String() string
		Choose(interface{})
	}

	// Choosable is a type that supplies its own Chooser, for enums whose
	// values are not a dense integer range.
	Choosable interface {
		Chooser() Chooser
	}

	// Chooser selects a value for an Enum from a list of Choices.
	// It implements flag.Value.
	Chooser struct {
		Value   Enum
		Choices Choices
	}
)

func (c Chooser) String() string {
	if c.Value == nil {
		return ""
	}
	return c.Value.String()
}

// Set picks the choice whose name matches value, ignoring case.
func (c Chooser) Set(value string) error {
	for _, e := range c.Choices {
		if strings.EqualFold(e.String(), value) {
			c.Value.Choose(e)
			return nil
		}
	}
	return fmt.Errorf("Unknown value %q, valid options are: %s", value, c.Choices)
}

func (c Choices) String() string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = strconv.Quote(e.String())
	}
	return strings.Join(names, ", ")
}

// ForEnum builds a Chooser for an integer backed enum by walking values
// upwards from zero until String stops producing a new name.
func ForEnum(v Enum) Chooser {
	t := reflect.ValueOf(v).Elem().Type()
	c := Chooser{Value: v}
	seen := map[string]bool{}
	for i := 0; ; i++ {
		ptr := reflect.New(t).Elem()
		switch ptr.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			ptr.SetInt(int64(i))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			ptr.SetUint(uint64(i))
		default:
			panic("Invalid enum kind")
		}
		e := ptr.Interface().(Choice)
		name := e.String()
		if name == strconv.Itoa(i) || name == "" || seen[name] {
			return c
		}
		seen[name] = true
		c.Choices = append(c.Choices, e)
	}
}
