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

package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/dx12/report"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var vertex = telemetry.ShaderStageResult{
	Disassembly:       "  v_mov_b32 v0, 0",
	VGPRUsed:          24,
	VGPRAvailable:     128,
	VGPRPhysical:      256,
	SGPRUsed:          16,
	SGPRAvailable:     104,
	SGPRPhysical:      800,
	LDSUsedBytes:      1024,
	LDSAvailableBytes: 65536,
	ScratchUsedBytes:  32,
	StageMask:         telemetry.Vertex.Bit(),
}

const vertexStats = `Statistics:
    - shaderStageMask                           = 2
    - resourceUsage.numUsedVgprs                = 24
    - resourceUsage.numUsedSgprs                = 16
    - resourceUsage.ldsSizePerLocalWorkGroup    = 65536
    - resourceUsage.ldsUsageSizeInBytes         = 1024
    - resourceUsage.scratchMemUsageInBytes      = 32
    - numPhysicalVgprs                          = 256
    - numPhysicalSgprs                          = 800
    - numAvailableVgprs                         = 128
    - numAvailableSgprs                         = 104
`

func TestWriteStats(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, report.WriteStats(buf, vertex))
	assert.Equal(t, vertexStats, buf.String())
}

func TestWriteComputeStats(t *testing.T) {
	buf := &bytes.Buffer{}
	cs := vertex
	cs.StageMask = telemetry.Compute.Bit()
	require.NoError(t, report.WriteComputeStats(buf, cs, telemetry.ThreadGroupSize{X: 8, Y: 8, Z: 1}))
	out := buf.String()
	assert.Contains(t, out, "    - shaderStageMask                           = 1\n")
	assert.Contains(t, out, "    - computeWorkGroupSizeX = 8\n    - computeWorkGroupSizeY = 8\n    - computeWorkGroupSizeZ = 1\n")
}

func TestWriteYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	res := telemetry.GraphicsPipelineResult{Vertex: vertex}
	require.NoError(t, report.WriteYAML(buf, res))

	decoded := telemetry.GraphicsPipelineResult{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, res, decoded)
	assert.Contains(t, buf.String(), "vgpr_used: 24")
}

func TestWriteGraphicsFiles(t *testing.T) {
	dir := t.TempDir()
	res := telemetry.GraphicsPipelineResult{
		Vertex: vertex,
		Pixel:  telemetry.ShaderStageResult{Disassembly: "  s_endpgm"},
		Binary: []byte("\x7fELF"),
	}
	paths, err := report.WriteGraphicsFiles(dir, "triangle", res)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "triangle_vertex.isa"),
		filepath.Join(dir, "triangle_vertex_stats.txt"),
		filepath.Join(dir, "triangle_pixel.isa"),
		filepath.Join(dir, "triangle_pixel_stats.txt"),
		filepath.Join(dir, "triangle.bin"),
	}, paths)

	isa, err := os.ReadFile(filepath.Join(dir, "triangle_vertex.isa"))
	require.NoError(t, err)
	assert.Equal(t, vertex.Disassembly, string(isa))
	stats, err := os.ReadFile(filepath.Join(dir, "triangle_vertex_stats.txt"))
	require.NoError(t, err)
	assert.Equal(t, vertexStats, string(stats))
	assert.NoFileExists(t, filepath.Join(dir, "triangle_hull.isa"))
}

func TestWriteGraphicsFilesCollectsFailures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	res := telemetry.GraphicsPipelineResult{
		Vertex: vertex,
		Pixel:  telemetry.ShaderStageResult{Disassembly: "  s_endpgm"},
		Binary: []byte("\x7fELF"),
	}
	paths, err := report.WriteGraphicsFiles(dir, "triangle", res)
	assert.Empty(t, paths)
	var list fault.List
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, 3)
}

func TestWriteComputeFilesCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	// A directory where the ISA file belongs makes only the shader files fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cs_compute.isa"), 0755))
	res := telemetry.ComputePipelineResult{
		Shader: telemetry.ShaderStageResult{Disassembly: "  s_endpgm"},
		Binary: []byte("\x7fELF"),
	}
	paths, err := report.WriteComputeFiles(dir, "cs", res)
	require.Error(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "cs.bin")}, paths)
	assert.FileExists(t, filepath.Join(dir, "cs.bin"))

	missing := filepath.Join(dir, "missing")
	_, err = report.WriteComputeFiles(missing, "cs", res)
	var list fault.List
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, 2)
}

func TestWriteComputeFiles(t *testing.T) {
	dir := t.TempDir()
	res := telemetry.ComputePipelineResult{
		Shader:      telemetry.ShaderStageResult{Disassembly: "  s_endpgm"},
		ThreadGroup: telemetry.ThreadGroupSize{X: 64, Y: 1, Z: 1},
	}
	paths, err := report.WriteComputeFiles(dir, "reduce", res)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	stats, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(stats), "computeWorkGroupSizeX = 64")

	_, err = report.WriteComputeFiles(filepath.Join(dir, "missing"), "reduce", res)
	assert.Error(t, err)
}
