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

package app_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/gpuanalyzer/rga/core/app"
	"github.com/gpuanalyzer/rga/core/app/flags"
	"github.com/gpuanalyzer/rga/core/assert"
	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/core/log"
)

type echoVerb struct {
	Upper bool `help:"print in upper case"`
}

func (v *echoVerb) Run(ctx context.Context, f *flags.Set) error {
	text := strings.Join(f.Args(), " ")
	if v.Upper {
		text = strings.ToUpper(text)
	}
	fmt.Fprintln(app.Stdout(ctx), text)
	return nil
}

type failVerb struct{}

func (failVerb) Run(ctx context.Context, f *flags.Set) error { return fault.Const("broken") }

func init() {
	app.AddVerb(&app.Verb{Name: "echo", ShortHelp: "Prints its arguments", Action: &echoVerb{}})
	app.AddVerb(&app.Verb{Name: "fail", ShortHelp: "Always fails", Action: &failVerb{}})
}

func run(args ...string) (int, string, string) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := app.RunArgs(args, stdout, stderr, app.VerbMain)
	return code, stdout.String(), stderr.String()
}

func TestVerbs(t *testing.T) {
	ctx := log.Testing(t)
	code, out, _ := run("echo", "-upper", "hello", "world")
	assert.For(ctx, "code").ThatInteger(code).Equals(0)
	assert.For(ctx, "out").ThatString(out).Equals("HELLO WORLD\n")

	code, out, _ = run("-log-level", "debug", "ec", "-upper=false", "x")
	assert.For(ctx, "prefix code").ThatInteger(code).Equals(0)
	assert.For(ctx, "prefix out").ThatString(out).Equals("x\n")

	code, _, errs := run("fail")
	assert.For(ctx, "fail code").ThatInteger(code).Equals(1)
	assert.For(ctx, "fail log").ThatString(errs).Contains("broken")

	code, _, errs = run("unknown")
	assert.For(ctx, "unknown code").ThatInteger(code).Equals(2)
	assert.For(ctx, "unknown usage").ThatString(errs).Contains("Verb 'unknown' is unknown")

	code, _, errs = run()
	assert.For(ctx, "no verb").ThatInteger(code).Equals(2)
	assert.For(ctx, "verb list").ThatString(errs).Contains("Prints its arguments")

	code, _, _ = run("-log-level", "loud")
	assert.For(ctx, "bad flag").ThatInteger(code).Equals(2)
}
