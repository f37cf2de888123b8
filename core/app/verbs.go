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

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gpuanalyzer/rga/core/app/flags"
)

// Action is the body of a verb. Its exported fields are bound as the verb's
// flags.
type Action interface {
	Run(ctx context.Context, flags *flags.Set) error
}

// Verb is a named sub command.
type Verb struct {
	Name       string
	ShortHelp  string
	ShortUsage string
	Action     Action
	Flags      *flags.Set

	verbs    []*Verb
	selected *Verb
}

var globalVerbs Verb

func newFlags(name string) *flags.Set { return flags.NewSet(name) }

// Add registers child, binding its Action's fields as flags. It panics on a
// duplicate name.
func (v *Verb) Add(child *Verb) {
	for _, existing := range v.verbs {
		if existing.Name == child.Name {
			panic(fmt.Errorf("Duplicate verb name %s", child.Name))
		}
	}
	if child.Flags == nil {
		child.Flags = newFlags(child.Name)
	}
	if child.Action != nil {
		child.Flags.Bind("", child.Action, "")
	}
	v.verbs = append(v.verbs, child)
}

// Filter returns the verbs whose names start with prefix.
func (v *Verb) Filter(prefix string) []*Verb {
	out := []*Verb{}
	for _, child := range v.verbs {
		if strings.HasPrefix(child.Name, prefix) {
			out = append(out, child)
		}
	}
	return out
}

// Invoke picks the verb named by args[0], parses its flags from the rest of
// args and runs it.
func (v *Verb) Invoke(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usagef(ctx, v, "Must supply a verb to %s", v.Name)
	}
	name := args[0]
	if name == "help" {
		usage(Stdout(ctx), v)
		return nil
	}
	if exact := v.exact(name); exact != nil {
		return v.run(ctx, exact, args[1:])
	}
	matches := v.Filter(name)
	switch len(matches) {
	case 1:
		return v.run(ctx, matches[0], args[1:])
	case 0:
		return usagef(ctx, v, "Verb '%s' is unknown", name)
	default:
		return usagef(ctx, v, "Verb '%s' is ambiguous", name)
	}
}

func (v *Verb) exact(name string) *Verb {
	for _, child := range v.verbs {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func (v *Verb) run(ctx context.Context, child *Verb, args []string) error {
	v.selected = child
	if err := child.Flags.Parse(args); err != nil {
		return usagef(ctx, v, "%v", err)
	}
	if len(child.verbs) > 0 {
		return child.Invoke(ctx, child.Flags.Args())
	}
	if child.Action == nil {
		return usagef(ctx, v, "Verb '%s' has no action", child.Name)
	}
	return child.Action.Run(ctx, child.Flags)
}

// AddVerb registers a top level verb.
func AddVerb(v *Verb) { globalVerbs.Add(v) }

// VerbMain is a Task that dispatches to the verb named on the command line.
func VerbMain(ctx context.Context) error {
	return globalVerbs.Invoke(ctx, globalVerbs.Flags.Args())
}
