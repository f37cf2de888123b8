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
	"io"
)

// usagef prints message and the usage text to stderr and returns ErrUsage.
func usagef(ctx context.Context, v *Verb, message string, args ...interface{}) error {
	w := Stderr(ctx)
	fmt.Fprintf(w, message, args...)
	fmt.Fprint(w, "\n\n")
	usage(w, v)
	return ErrUsage
}

func usage(w io.Writer, v *Verb) {
	if v.ShortHelp != "" {
		fmt.Fprintf(w, "%s: %s\n", v.Name, v.ShortHelp)
	}
	fmt.Fprintf(w, "Usage: %s", v.Name)
	if v.Flags != nil && v.Flags.Usage() != "" {
		fmt.Fprintf(w, " [%s-flags]", v.Name)
	}
	switch {
	case v.selected != nil:
		fmt.Fprintf(w, " %s", v.selected.Name)
		if v.selected.ShortUsage != "" {
			fmt.Fprintf(w, " %s", v.selected.ShortUsage)
		}
	case v.ShortUsage != "":
		fmt.Fprintf(w, " %s", v.ShortUsage)
	case len(v.verbs) > 0:
		fmt.Fprint(w, " verb [args]")
	}
	fmt.Fprintln(w)
	if v.Flags != nil && v.Flags.Usage() != "" {
		fmt.Fprintf(w, "%s-flags:\n%s\n", v.Name, v.Flags.Usage())
	}
	if v.selected != nil {
		if u := v.selected.Flags.Usage(); u != "" {
			fmt.Fprintf(w, "%s-flags:\n%s\n", v.selected.Name, u)
		}
		return
	}
	if len(v.verbs) > 0 {
		fmt.Fprintf(w, "%s verbs:\n", v.Name)
		longest := 0
		for _, child := range v.verbs {
			if longest < len(child.Name) {
				longest = len(child.Name)
			}
		}
		for _, child := range v.verbs {
			fmt.Fprintf(w, "    %-*s - %s\n", longest, child.Name, child.ShortHelp)
		}
	}
}
