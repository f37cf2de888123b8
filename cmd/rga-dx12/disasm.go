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

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gpuanalyzer/rga/core/app"
	"github.com/gpuanalyzer/rga/core/app/flags"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/disasm"
	"github.com/gpuanalyzer/rga/dx12/report"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
)

type disasmVerb struct{ DisasmFlags }

func init() {
	app.AddVerb(&app.Verb{
		Name:       "disasm",
		ShortHelp:  "Decodes a saved disassembly container",
		ShortUsage: "<container.xml>",
		Action:     &disasmVerb{},
	})
}

func (verb *disasmVerb) Run(ctx context.Context, f *flags.Set) error {
	if len(f.Args()) != 1 {
		log.E(ctx, "Expected exactly one container file, got %d", len(f.Args()))
		return app.ErrUsage
	}
	path := f.Args()[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return log.Errf(ctx, err, "Failed to read %s", path)
	}
	base := verb.Base
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	out := app.Stdout(ctx)

	switch verb.Kind {
	case computeKind:
		shader, err := disasm.ParseCompute(ctx, data)
		if err != nil {
			return log.Errf(ctx, err, "Failed to decode %s", path)
		}
		res := telemetry.ComputePipelineResult{Shader: shader}
		switch {
		case verb.YAML:
			return report.WriteYAML(out, res)
		case verb.Out != "":
			paths, err := report.WriteComputeFiles(verb.Out, base, res)
			printPaths(out, paths)
			return err
		}
		printStage(out, telemetry.Compute, shader.Disassembly)
	default:
		res, err := disasm.ParseGraphics(ctx, data)
		if err != nil {
			return log.Errf(ctx, err, "Failed to decode %s", path)
		}
		switch {
		case verb.YAML:
			return report.WriteYAML(out, res)
		case verb.Out != "":
			paths, err := report.WriteGraphicsFiles(verb.Out, base, res)
			printPaths(out, paths)
			return err
		}
		for _, s := range res.Populated() {
			printStage(out, s, res.Stage(s).Disassembly)
		}
	}
	return nil
}

func printStage(w io.Writer, s telemetry.Stage, text string) {
	fmt.Fprintf(w, "; %s (%v)\n%s\n\n", s.Code(), s, text)
}

func printPaths(w io.Writer, paths []string) {
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
}
