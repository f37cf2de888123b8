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

// Package report writes compilation results in the formats produced by the
// Radeon GPU Analyzer command line tool.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type stat struct {
	name  string
	value uint64
}

func stats(r telemetry.ShaderStageResult) []stat {
	return []stat{
		{"shaderStageMask", uint64(r.StageMask)},
		{"resourceUsage.numUsedVgprs", r.VGPRUsed},
		{"resourceUsage.numUsedSgprs", r.SGPRUsed},
		{"resourceUsage.ldsSizePerLocalWorkGroup", r.LDSAvailableBytes},
		{"resourceUsage.ldsUsageSizeInBytes", r.LDSUsedBytes},
		{"resourceUsage.scratchMemUsageInBytes", r.ScratchUsedBytes},
		{"numPhysicalVgprs", r.VGPRPhysical},
		{"numPhysicalSgprs", r.SGPRPhysical},
		{"numAvailableVgprs", r.VGPRAvailable},
		{"numAvailableSgprs", r.SGPRAvailable},
	}
}

func writeStats(w *bufio.Writer, r telemetry.ShaderStageResult) {
	fmt.Fprintln(w, "Statistics:")
	for _, s := range stats(r) {
		fmt.Fprintf(w, "    - %-42s= %d\n", s.name, s.value)
	}
}

// WriteStats writes the resource usage of a shader stage.
func WriteStats(w io.Writer, r telemetry.ShaderStageResult) error {
	b := bufio.NewWriter(w)
	writeStats(b, r)
	return b.Flush()
}

// WriteComputeStats writes the resource usage of a compute shader followed
// by its thread group size.
func WriteComputeStats(w io.Writer, r telemetry.ShaderStageResult, tg telemetry.ThreadGroupSize) error {
	b := bufio.NewWriter(w)
	writeStats(b, r)
	fmt.Fprintf(b, "    - computeWorkGroupSizeX = %d\n", tg.X)
	fmt.Fprintf(b, "    - computeWorkGroupSizeY = %d\n", tg.Y)
	fmt.Fprintf(b, "    - computeWorkGroupSizeZ = %d\n", tg.Z)
	return b.Flush()
}

// WriteYAML writes v, typically a pipeline result or a target list, as YAML.
func WriteYAML(w io.Writer, v interface{}) error {
	e := yaml.NewEncoder(w)
	e.SetIndent(2)
	if err := e.Encode(v); err != nil {
		return errors.Wrap(err, "Encoding YAML")
	}
	return e.Close()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Creating %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "Writing %s", path)
	}
	return f.Close()
}

func writeText(text string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	}
}

// stageFiles writes the ISA and stats files of one stage and returns their paths.
func stageFiles(dir, base string, s telemetry.Stage, r telemetry.ShaderStageResult, writeStats func(io.Writer) error) ([]string, error) {
	prefix := filepath.Join(dir, base+"_"+s.String())
	isa, statsFile := prefix+".isa", prefix+"_stats.txt"
	if err := writeFile(isa, writeText(r.Disassembly)); err != nil {
		return nil, err
	}
	if err := writeFile(statsFile, writeStats); err != nil {
		return nil, err
	}
	return []string{isa, statsFile}, nil
}

func binaryFile(dir, base string, bin []byte) ([]string, error) {
	if len(bin) == 0 {
		return nil, nil
	}
	path := filepath.Join(dir, base+".bin")
	if err := os.WriteFile(path, bin, 0644); err != nil {
		return nil, errors.Wrapf(err, "Writing %s", path)
	}
	return []string{path}, nil
}

// WriteGraphicsFiles writes <base>_<stage>.isa and <base>_<stage>_stats.txt
// for every stage with disassembly, plus <base>.bin if the pipeline binary is
// present. A stage that fails to write does not stop the others; it returns
// the paths written and every failure.
func WriteGraphicsFiles(dir, base string, res telemetry.GraphicsPipelineResult) ([]string, error) {
	out, errs := []string{}, fault.List{}
	for _, s := range res.Populated() {
		r := *res.Stage(s)
		paths, err := stageFiles(dir, base, s, r, func(w io.Writer) error { return WriteStats(w, r) })
		errs.Collect(err)
		out = append(out, paths...)
	}
	paths, err := binaryFile(dir, base, res.Binary)
	errs.Collect(err)
	return append(out, paths...), errs.Err()
}

// WriteComputeFiles writes the ISA, stats and binary files of a compute
// pipeline. The binary is still attempted if the shader files fail; it
// returns the paths written and every failure.
func WriteComputeFiles(dir, base string, res telemetry.ComputePipelineResult) ([]string, error) {
	out, errs := []string{}, fault.List{}
	if res.Shader.HasDisassembly() {
		paths, err := stageFiles(dir, base, telemetry.Compute, res.Shader, func(w io.Writer) error {
			return WriteComputeStats(w, res.Shader, res.ThreadGroup)
		})
		errs.Collect(err)
		out = append(out, paths...)
	}
	paths, err := binaryFile(dir, base, res.Binary)
	errs.Collect(err)
	return append(out, paths...), errs.Err()
}
