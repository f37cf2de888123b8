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

	"github.com/gpuanalyzer/rga/core/app"
	"github.com/gpuanalyzer/rga/core/app/flags"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/gpuanalyzer/rga/dx12/backend"
	"github.com/gpuanalyzer/rga/dx12/report"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
)

type targetsVerb struct{ TargetsFlags }

func init() {
	app.AddVerb(&app.Verb{
		Name:      "targets",
		ShortHelp: "Lists the virtual GPUs the driver can compile for",
		Action:    &targetsVerb{},
	})
}

func (verb *targetsVerb) Run(ctx context.Context, f *flags.Set) error {
	cfg := backend.DefaultConfig()
	if verb.Config != "" {
		var err error
		if cfg, err = backend.LoadConfig(verb.Config); err != nil {
			return err
		}
	}

	dev, err := amdext.CreateDevice()
	if err != nil {
		return log.Err(ctx, err, "Failed to create a D3D12 device")
	}
	defer dev.Release()

	b := backend.New(amdext.NativeLoader{}, cfg)
	defer b.Close()
	if err := b.Init(ctx, dev); err != nil {
		return log.Errf(ctx, err, "Failed to load %s", cfg.DriverModule)
	}
	names, ids, err := b.GetSupportedTargets(ctx)
	if err != nil {
		return log.Err(ctx, err, "Failed to list targets")
	}

	targets := make(telemetry.Targets, len(names))
	for i, n := range names {
		targets[i] = telemetry.Target{Name: n, ID: ids[n]}
	}
	out := app.Stdout(ctx)
	if verb.YAML {
		return report.WriteYAML(out, targets)
	}
	for _, t := range targets {
		fmt.Fprintf(out, "%4d  %s\n", t.ID, t.Name)
	}
	return nil
}
