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

// Package app runs command line tools built from verbs.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/core/log"
)

var (
	// Name is the name of the application, taken from the executable.
	Name = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
	// ShortHelp is shown at the top of the usage text.
	ShortHelp = ""
	// ShortUsage describes the arguments that follow the flags.
	ShortUsage = ""
	// ExitFuncForTesting replaces os.Exit in tests.
	ExitFuncForTesting = os.Exit
)

// ErrUsage is returned when the command line could not be understood. The
// usage text has already been printed when it is returned.
const ErrUsage = fault.Const("Invalid command line")

// Task is the body of an application.
type Task func(ctx context.Context) error

// AppFlags are the flags every application accepts before its verb.
type AppFlags struct {
	Log LogFlags
}

// Run parses the global flags from os.Args, runs main with a context that is
// cancelled on interrupt and exits the process with the result.
func Run(main Task) {
	ExitFuncForTesting(RunArgs(os.Args[1:], os.Stdout, os.Stderr, main))
}

// RunArgs is Run with explicit arguments and output streams. It returns the
// process exit code.
func RunArgs(args []string, stdout, stderr io.Writer, main Task) int {
	appFlags := &AppFlags{Log: logDefaults()}
	globalVerbs.Name = Name
	globalVerbs.ShortHelp = ShortHelp
	globalVerbs.ShortUsage = ShortUsage
	globalVerbs.Flags = newFlags(Name)
	globalVerbs.Flags.Bind("", appFlags, "")
	if err := globalVerbs.Flags.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%v\n\n", err)
		usage(stderr, &globalVerbs)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = prepareContext(ctx, &appFlags.Log, stderr)
	ctx = putStreams(ctx, stdout, stderr)

	err := main(ctx)
	switch {
	case err == nil:
		return 0
	case err == ErrUsage:
		return 2
	default:
		log.E(ctx, "Main failed\nError: %v", err)
		return 1
	}
}

type streamsKeyTy string

const streamsKey streamsKeyTy = "app.streams"

type streams struct{ stdout, stderr io.Writer }

func putStreams(ctx context.Context, stdout, stderr io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey, streams{stdout, stderr})
}

// Stdout returns the standard output of the running application.
func Stdout(ctx context.Context) io.Writer {
	if s, ok := ctx.Value(streamsKey).(streams); ok {
		return s.stdout
	}
	return os.Stdout
}

// Stderr returns the standard error of the running application.
func Stderr(ctx context.Context) io.Writer {
	if s, ok := ctx.Value(streamsKey).(streams); ok {
		return s.stderr
	}
	return os.Stderr
}
