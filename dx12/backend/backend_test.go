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

package backend_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gpuanalyzer/rga/core/assert"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/gpuanalyzer/rga/dx12/backend"
	"github.com/gpuanalyzer/rga/dx12/fakedriver"
	"github.com/gpuanalyzer/rga/dx12/session"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
)

var targets = []amdext.GpuIDEntry{{ID: 1, Name: "gfx900"}, {ID: 2, Name: "gfx906"}, {ID: 3, Name: "gfx1010"}}

func newBackend(ctx context.Context, d *fakedriver.Driver) *backend.Backend {
	cfg := backend.DefaultConfig()
	cfg.Allocator = d.Allocator()
	b := backend.New(d, cfg)
	assert.For(ctx, "init").ThatError(b.Init(ctx, d.Device())).Succeeded()
	return b
}

func graphicsPipeline(d *fakedriver.Driver) *fakedriver.Pipeline {
	return d.Describe(&fakedriver.Pipeline{
		Disassembly: map[telemetry.Stage]string{
			telemetry.Vertex: "  v_mov_b32 v0, 0",
			telemetry.Pixel:  "  s_endpgm",
		},
		Stats: map[telemetry.Stage]amdext.ShaderStats{
			telemetry.Vertex: {
				StageMask: amdext.StageVertex | amdext.StageGeometry,
				Usage: amdext.ShaderUsageStats{
					NumUsedVgprs:           24,
					NumUsedSgprs:           16,
					LdsSizePerThreadGroup:  65536,
					LdsUsageSizeInBytes:    1024,
					ScratchMemUsageInBytes: 32,
				},
				NumPhysicalVgprs:  256,
				NumPhysicalSgprs:  800,
				NumAvailableVgprs: 128,
				NumAvailableSgprs: 104,
				IsaSizeInBytes:    96,
			},
			telemetry.Pixel: {Usage: amdext.ShaderUsageStats{NumUsedVgprs: 4}},
		},
		Binary: []byte("\x7fELF"),
	})
}

func TestGetSupportedTargets(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	b := newBackend(ctx, d)
	defer b.Close()
	names, ids, err := b.GetSupportedTargets(ctx)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "names").ThatSlice(names).Equals([]string{"gfx900", "gfx906", "gfx1010"})
	assert.For(ctx, "ids").ThatMap(ids).Equals(map[string]uint32{"gfx900": 1, "gfx906": 2, "gfx1010": 3})
}

func TestCompileGraphicsPipeline(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	d.ExportBinary = true
	b := newBackend(ctx, d)
	res, err := b.CompileGraphicsPipeline(ctx, graphicsPipeline(d))
	assert.For(ctx, "err").ThatError(err).Succeeded()

	vs := res.Vertex
	assert.For(ctx, "vs text").ThatString(vs.Disassembly).Equals("  v_mov_b32 v0, 0")
	assert.For(ctx, "vgpr used").ThatUnsigned(vs.VGPRUsed).Equals(24)
	assert.For(ctx, "vgpr available").ThatUnsigned(vs.VGPRAvailable).Equals(128)
	assert.For(ctx, "vgpr physical").ThatUnsigned(vs.VGPRPhysical).Equals(256)
	assert.For(ctx, "sgpr used").ThatUnsigned(vs.SGPRUsed).Equals(16)
	assert.For(ctx, "sgpr available").ThatUnsigned(vs.SGPRAvailable).Equals(104)
	assert.For(ctx, "sgpr physical").ThatUnsigned(vs.SGPRPhysical).Equals(800)
	assert.For(ctx, "lds used").ThatUnsigned(vs.LDSUsedBytes).Equals(1024)
	assert.For(ctx, "lds available").ThatUnsigned(vs.LDSAvailableBytes).Equals(65536)
	assert.For(ctx, "scratch").ThatUnsigned(vs.ScratchUsedBytes).Equals(32)
	assert.For(ctx, "code size").ThatUnsigned(vs.CodeSizeBytes).Equals(96)
	assert.For(ctx, "merged").ThatBoolean(vs.IsMerged(telemetry.Vertex)).IsTrue()

	assert.For(ctx, "ps text").ThatString(res.Pixel.Disassembly).Equals("  s_endpgm")
	assert.For(ctx, "ps vgprs").ThatUnsigned(res.Pixel.VGPRUsed).Equals(4)
	for _, s := range []telemetry.Stage{telemetry.Hull, telemetry.Domain, telemetry.Geometry} {
		assert.For(ctx, "%v absent", s).That(*res.Stage(s)).DeepEquals(telemetry.ShaderStageResult{})
	}
	assert.For(ctx, "binary").ThatString(res.Binary).Equals("\x7fELF")

	assert.For(ctx, "close").ThatError(b.Close()).Succeeded()
	assert.For(ctx, "leaked objects").ThatInteger(d.Counts().Live()).Equals(0)
	assert.For(ctx, "leaked buffers").ThatInteger(d.Allocations.Live()).Equals(0)
}

func TestGraphicsRejected(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	b := newBackend(ctx, d)
	defer b.Close()
	d.CreateStatus = amdext.EInvalidArg
	res, err := b.CompileGraphicsPipeline(ctx, graphicsPipeline(d))
	assert.For(ctx, "err").ThatError(err).Failed()
	assert.For(ctx, "text").ThatString(err).Equals("failed to create D3D12 graphics pipeline with error code: 0x80070057")
	assert.For(ctx, "result").That(res).DeepEquals(telemetry.GraphicsPipelineResult{})
	perr, ok := err.(*backend.PipelineError)
	assert.For(ctx, "type").ThatBoolean(ok).IsTrue()
	if ok {
		assert.For(ctx, "status").That(perr.Status).Equals(amdext.EInvalidArg)
	}
}

func TestGraphicsWithoutDisassembly(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	b := newBackend(ctx, d)
	defer b.Close()
	p := graphicsPipeline(d)
	p.Container = []byte("<comments></comments>")
	res, err := b.CompileGraphicsPipeline(ctx, p)
	assert.For(ctx, "err").ThatError(err).HasCause(backend.ErrNoDisassembly)
	assert.For(ctx, "numeric kept").ThatUnsigned(res.Vertex.VGPRUsed).Equals(24)
	assert.For(ctx, "no text").ThatSlice(res.Populated()).IsEmpty()
	assert.For(ctx, "leaked buffers").ThatInteger(d.Allocations.Live()).Equals(0)
}

func TestCompileComputePipeline(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	b := newBackend(ctx, d)
	defer b.Close()
	p := d.Describe(&fakedriver.Pipeline{
		Disassembly: map[telemetry.Stage]string{telemetry.Compute: "  s_endpgm"},
		Stats: map[telemetry.Stage]amdext.ShaderStats{
			telemetry.Compute: {NumAvailableVgprs: 256, Usage: amdext.ShaderUsageStats{NumUsedVgprs: 12}},
		},
		ThreadGroup: telemetry.ThreadGroupSize{X: 8, Y: 8, Z: 1},
	})
	res, err := b.CompileComputePipeline(ctx, p)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "thread group").That(res.ThreadGroup).Equals(telemetry.ThreadGroupSize{X: 8, Y: 8, Z: 1})
	assert.For(ctx, "text").ThatString(res.Shader.Disassembly).Equals("  s_endpgm")
	assert.For(ctx, "vgprs").ThatUnsigned(res.Shader.VGPRUsed).Equals(12)
	assert.For(ctx, "mask").That(res.Shader.StageMask).Equals(telemetry.Compute.Bit())
	assert.For(ctx, "binary").ThatSlice(res.Binary).IsEmpty()
}

func TestComputeRejected(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	b := newBackend(ctx, d)
	defer b.Close()
	d.CreateStatus = amdext.EFail
	res, err := b.CompileComputePipeline(ctx, d.Describe(&fakedriver.Pipeline{}))
	assert.For(ctx, "text").ThatString(err).Equals("failed to create compute pipeline state")
	assert.For(ctx, "result").That(res).DeepEquals(telemetry.ComputePipelineResult{})
}

func TestExtractionFailuresKeepTelemetry(t *testing.T) {
	ctx := log.Testing(t)
	isaFailure := amdext.StatusError{Call: "GetShaderIsaCode", Status: amdext.EFail}
	for _, test := range []struct {
		name  string
		setup func(d *fakedriver.Driver, p *fakedriver.Pipeline)
		cause error
	}{
		{"isa size", func(d *fakedriver.Driver, p *fakedriver.Pipeline) { d.SizeStatus = amdext.EFail }, isaFailure},
		{"isa fill", func(d *fakedriver.Driver, p *fakedriver.Pipeline) { d.IsaStatus = amdext.EFail }, isaFailure},
		{"empty binary", func(d *fakedriver.Driver, p *fakedriver.Pipeline) {
			d.ExportBinary = true
			p.Binary = nil
		}, session.ErrBinarySize},
		{"binary fill", func(d *fakedriver.Driver, p *fakedriver.Pipeline) {
			d.ExportBinary = true
			d.BinaryStatus = amdext.EFail
		}, session.ErrBinarySize},
	} {
		ctx := log.Enter(ctx, test.name)

		d := fakedriver.New(targets...)
		p := graphicsPipeline(d)
		test.setup(d, p)
		b := newBackend(ctx, d)
		res, err := b.CompileGraphicsPipeline(ctx, p)
		assert.For(ctx, "graphics cause").ThatError(err).HasCause(test.cause)
		assert.For(ctx, "graphics vgprs").ThatUnsigned(res.Vertex.VGPRUsed).Equals(24)
		assert.For(ctx, "graphics binary").ThatSlice(res.Binary).IsEmpty()

		c := d.Describe(&fakedriver.Pipeline{
			Disassembly: map[telemetry.Stage]string{telemetry.Compute: "  s_endpgm"},
			Stats: map[telemetry.Stage]amdext.ShaderStats{
				telemetry.Compute: {Usage: amdext.ShaderUsageStats{NumUsedVgprs: 12}},
			},
			ThreadGroup: telemetry.ThreadGroupSize{X: 64, Y: 1, Z: 1},
			Binary:      p.Binary,
		})
		cres, err := b.CompileComputePipeline(ctx, c)
		assert.For(ctx, "compute cause").ThatError(err).HasCause(test.cause)
		assert.For(ctx, "compute vgprs").ThatUnsigned(cres.Shader.VGPRUsed).Equals(12)
		assert.For(ctx, "compute thread group").That(cres.ThreadGroup).Equals(telemetry.ThreadGroupSize{X: 64, Y: 1, Z: 1})

		assert.For(ctx, "close").ThatError(b.Close()).Succeeded()
		assert.For(ctx, "leaked objects").ThatInteger(d.Counts().Live()).Equals(0)
		assert.For(ctx, "leaked buffers").ThatInteger(d.Allocations.Live()).Equals(0)
	}
}

func TestBinaryInterface(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	d.BinaryInterface = amdext.IID{Data1: 0x0C5B2F15, Data2: 0x1A2B, Data3: 0x4C3D, Data4: [8]byte{0x8E, 1, 2, 3, 4, 5, 6, 7}}
	cfg := backend.DefaultConfig()
	cfg.Allocator = d.Allocator()
	cfg.BinaryInterface = d.BinaryInterface.String()
	b := backend.New(d, cfg)
	assert.For(ctx, "init").ThatError(b.Init(ctx, d.Device())).Succeeded()
	res, err := b.CompileGraphicsPipeline(ctx, graphicsPipeline(d))
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "binary").ThatString(res.Binary).Equals("\x7fELF")
	assert.For(ctx, "close").ThatError(b.Close()).Succeeded()
	assert.For(ctx, "leaked objects").ThatInteger(d.Counts().Live()).Equals(0)

	cfg.BinaryInterface = "not-a-guid"
	b = backend.New(d, cfg)
	assert.For(ctx, "bad guid").ThatError(b.Init(ctx, d.Device())).HasCause(backend.ErrInvalidConfig)
}

func TestLoaderFailure(t *testing.T) {
	ctx := log.Testing(t)
	d := &fakedriver.Driver{FailLoad: true}
	b := backend.New(d, backend.DefaultConfig())
	assert.For(ctx, "init").ThatError(b.Init(ctx, d.Device())).HasCause(fakedriver.ErrLoad)
	_, err := b.CompileGraphicsPipeline(ctx, d.Describe(&fakedriver.Pipeline{}))
	assert.For(ctx, "compile").ThatError(err).Equals(backend.ErrNotInitialized)
	_, err = b.CompileComputePipeline(ctx, d.Describe(&fakedriver.Pipeline{}))
	assert.For(ctx, "compile compute").ThatError(err).Equals(backend.ErrNotInitialized)
	_, _, err = b.GetSupportedTargets(ctx)
	assert.For(ctx, "targets").ThatError(err).Equals(backend.ErrNotInitialized)
}

func TestLifecycle(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	b := newBackend(ctx, d)
	assert.For(ctx, "double init").ThatError(b.Init(ctx, d.Device())).Equals(backend.ErrAlreadyInitialized)
	assert.For(ctx, "close").ThatError(b.Close()).Succeeded()
	assert.For(ctx, "close again").ThatError(b.Close()).Succeeded()
	_, _, err := b.GetSupportedTargets(ctx)
	assert.For(ctx, "after close").ThatError(err).Equals(backend.ErrClosed)
	assert.For(ctx, "init after close").ThatError(b.Init(ctx, d.Device())).Equals(backend.ErrClosed)
	assert.For(ctx, "live").ThatInteger(d.Counts().Live()).Equals(0)
}

func TestCancelledContext(t *testing.T) {
	ctx := log.Testing(t)
	d := fakedriver.New(targets...)
	b := newBackend(ctx, d)
	defer b.Close()
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := b.CompileGraphicsPipeline(cancelled, graphicsPipeline(d))
	assert.For(ctx, "err").ThatError(err).Equals(context.Canceled)
	assert.For(ctx, "no pipeline created").ThatInteger(d.Counts().Pipelines).Equals(0)
}

func TestLoadConfig(t *testing.T) {
	ctx := log.Testing(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "rga.yaml")
	err := os.WriteFile(path, []byte("driver_module: amdxc64_test.dll\nextract_binary: false\n"), 0644)
	assert.For(ctx, "write").ThatError(err).Succeeded()
	cfg, err := backend.LoadConfig(path)
	assert.For(ctx, "load").ThatError(err).Succeeded()
	assert.For(ctx, "module").ThatString(cfg.DriverModule).Equals("amdxc64_test.dll")
	assert.For(ctx, "entry point default").ThatString(cfg.EntryPoint).Equals(amdext.DefaultEntryPoint)
	assert.For(ctx, "binary").ThatBoolean(cfg.ExtractBinary).IsFalse()

	err = os.WriteFile(path, []byte("entry_point: \"\"\n"), 0644)
	assert.For(ctx, "write").ThatError(err).Succeeded()
	_, err = backend.LoadConfig(path)
	assert.For(ctx, "invalid").ThatError(err).HasCause(backend.ErrInvalidConfig)

	_, err = backend.LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.For(ctx, "missing").ThatError(err).Failed()
}
