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

// Package backend compiles DX12 pipelines for virtual AMD GPUs and returns
// per stage disassembly and hardware resource usage.
//
// A Backend is created with New, initialized once per device with Init and
// then used to compile any number of pipelines. It is not safe for
// concurrent use.
package backend

import (
	"context"
	"fmt"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/gpuanalyzer/rga/dx12/disasm"
	"github.com/gpuanalyzer/rga/dx12/session"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
	"github.com/pkg/errors"
)

const (
	ErrNotInitialized     = session.ErrNotInitialized
	ErrAlreadyInitialized = session.ErrAlreadyInitialized
	ErrNoDisassembly      = disasm.ErrNoDisassembly
	ErrClosed             = fault.Const("Backend is closed")
)

// PipelineError is returned when the driver refuses to create a pipeline.
type PipelineError struct {
	message string
	// Status is the driver's return code, or amdext.OK if the driver
	// succeeded without producing a pipeline.
	Status amdext.Status
	cause  error
}

func (e *PipelineError) Error() string { return e.message }

// Cause returns the underlying driver error.
func (e *PipelineError) Cause() error { return e.cause }

// Unwrap returns the underlying driver error.
func (e *PipelineError) Unwrap() error { return e.cause }

func statusOf(err error) amdext.Status {
	if se, ok := errors.Cause(err).(amdext.StatusError); ok {
		return se.Status
	}
	return amdext.OK
}

// Backend is the DX12 compilation backend.
type Backend struct {
	cfg     Config
	session *session.Session
	closed  bool
}

// New returns an uninitialized backend that loads the driver through loader.
func New(loader amdext.Loader, cfg Config) *Backend {
	opts := []session.Option{
		session.WithModuleName(cfg.DriverModule),
		session.WithEntryPoint(cfg.EntryPoint),
	}
	if cfg.Allocator != nil {
		opts = append(opts, session.WithAllocator(cfg.Allocator))
	}
	if iid, err := cfg.binaryIID(); err == nil && !iid.IsZero() {
		opts = append(opts, session.WithBinaryInterface(iid))
	}
	return &Backend{cfg: cfg, session: session.New(loader, opts...)}
}

// Init binds the backend to dev. It must succeed before anything else is
// called.
func (b *Backend) Init(ctx context.Context, dev amdext.Device) error {
	if b.closed {
		return ErrClosed
	}
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.session.Init(ctx, dev)
}

// Close releases the driver. Every later call fails with ErrClosed.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.session.Close()
}

func (b *Backend) ready(ctx context.Context) error {
	switch {
	case b.closed:
		return ErrClosed
	case !b.session.Ready():
		return ErrNotInitialized
	}
	return ctx.Err()
}

// GetSupportedTargets returns the target names in driver order and a map of
// name to driver id.
func (b *Backend) GetSupportedTargets(ctx context.Context) ([]string, map[string]uint32, error) {
	if err := b.ready(ctx); err != nil {
		return nil, nil, err
	}
	targets, err := b.session.EnumerateTargets(ctx)
	if err != nil {
		return nil, nil, err
	}
	return targets.Names(), targets.IDs(), nil
}

func stageResult(st amdext.ShaderStats) telemetry.ShaderStageResult {
	return telemetry.ShaderStageResult{
		VGPRUsed:          uint64(st.Usage.NumUsedVgprs),
		VGPRAvailable:     uint64(st.NumAvailableVgprs),
		VGPRPhysical:      uint64(st.NumPhysicalVgprs),
		SGPRUsed:          uint64(st.Usage.NumUsedSgprs),
		SGPRAvailable:     uint64(st.NumAvailableSgprs),
		SGPRPhysical:      uint64(st.NumPhysicalSgprs),
		LDSUsedBytes:      uint64(st.Usage.LdsUsageSizeInBytes),
		LDSAvailableBytes: uint64(st.Usage.LdsSizePerThreadGroup),
		ScratchUsedBytes:  uint64(st.Usage.ScratchMemUsageInBytes),
		CodeSizeBytes:     uint64(st.IsaSizeInBytes),
		StageMask:         telemetry.StageMask(st.StageMask),
	}
}

// container reads the disassembly container of p and hands it to parse.
// The container buffer is released before returning.
func (b *Backend) container(ctx context.Context, p *session.Pipeline, parse func([]byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := b.session.ExtractContainerBytes(ctx, p.Handle)
	if err != nil {
		return errors.Wrap(err, "failed to retrieve disassembly")
	}
	defer buf.Release()
	return parse(buf.Items())
}

// binary returns the pipeline ELF if configured and supported.
func (b *Backend) binary(ctx context.Context, p *session.Pipeline) ([]byte, error) {
	if !b.cfg.ExtractBinary {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bin, err := b.session.ExtractPipelineBinary(ctx, p.Handle)
	if errors.Cause(err) == session.ErrBinaryUnsupported {
		log.I(ctx, "Pipeline binary not attached: the driver cannot export it")
		return nil, nil
	}
	return bin, err
}

// CompileGraphicsPipeline compiles desc and returns the telemetry of its five
// stages. If the driver refuses the pipeline the result is empty and the
// error is a *PipelineError carrying the driver's status. If the pipeline is
// created but no stage has disassembly the numeric telemetry is still
// returned, along with ErrNoDisassembly.
func (b *Backend) CompileGraphicsPipeline(ctx context.Context, desc amdext.PipelineDesc) (telemetry.GraphicsPipelineResult, error) {
	res := telemetry.GraphicsPipelineResult{}
	if err := b.ready(ctx); err != nil {
		return res, err
	}
	ctx = log.Enter(ctx, "CompileGraphicsPipeline")

	p, stats, err := b.session.CreateGraphicsPipelineWithTelemetry(ctx, desc)
	if err != nil {
		st := statusOf(err)
		return res, &PipelineError{
			message: fmt.Sprintf("failed to create D3D12 graphics pipeline with error code: %v", st.Error()),
			Status:  st,
			cause:   err,
		}
	}
	defer p.Release()

	res.Vertex = stageResult(stats.Vertex)
	res.Hull = stageResult(stats.Hull)
	res.Domain = stageResult(stats.Domain)
	res.Geometry = stageResult(stats.Geometry)
	res.Pixel = stageResult(stats.Pixel)

	err = b.container(ctx, p, func(data []byte) error {
		parsed, err := disasm.ParseGraphics(ctx, data)
		for _, s := range telemetry.GraphicsStages {
			res.Stage(s).Disassembly = parsed.Stage(s).Disassembly
		}
		return err
	})
	if err != nil {
		log.E(ctx, "No disassembly: %v", err)
		return res, err
	}

	if res.Binary, err = b.binary(ctx, p); err != nil {
		return res, err
	}
	log.D(ctx, "Compiled stages %v", res.Populated())
	return res, nil
}

// CompileComputePipeline compiles desc and returns the telemetry of its
// compute shader and its thread group size.
func (b *Backend) CompileComputePipeline(ctx context.Context, desc amdext.PipelineDesc) (telemetry.ComputePipelineResult, error) {
	res := telemetry.ComputePipelineResult{}
	if err := b.ready(ctx); err != nil {
		return res, err
	}
	ctx = log.Enter(ctx, "CompileComputePipeline")

	p, stats, err := b.session.CreateComputePipelineWithTelemetry(ctx, desc)
	if err != nil {
		return res, &PipelineError{
			message: "failed to create compute pipeline state",
			Status:  statusOf(err),
			cause:   err,
		}
	}
	defer p.Release()

	res.Shader = stageResult(stats.ShaderStats)
	res.ThreadGroup = telemetry.ThreadGroupSize{
		X: stats.NumThreadsPerGroupX,
		Y: stats.NumThreadsPerGroupY,
		Z: stats.NumThreadsPerGroupZ,
	}

	err = b.container(ctx, p, func(data []byte) error {
		parsed, err := disasm.ParseCompute(ctx, data)
		res.Shader.Disassembly = parsed.Disassembly
		return err
	})
	if err != nil {
		log.E(ctx, "No disassembly: %v", err)
		return res, err
	}

	if res.Binary, err = b.binary(ctx, p); err != nil {
		return res, err
	}
	return res, nil
}
