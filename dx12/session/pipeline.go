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

package session

import (
	"context"

	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/pkg/errors"
)

// Pipeline is a pipeline state object created through the shader analyzer.
// Handle is only valid until Release is called.
type Pipeline struct {
	Handle amdext.PipelineHandle
	state  amdext.Interface
}

// Release releases the pipeline state object. It is safe to call more than
// once.
func (p *Pipeline) Release() {
	if p != nil && p.state != nil {
		p.state.Release()
		p.state = nil
	}
}

func created(call string, state amdext.Interface, st amdext.Status, handle amdext.PipelineHandle) (*Pipeline, error) {
	if st.Failed() {
		if state != nil {
			state.Release()
		}
		return nil, amdext.StatusError{Call: call, Status: st}
	}
	if state == nil {
		return nil, errors.Wrap(amdext.ErrNilInterface, call)
	}
	return &Pipeline{Handle: handle, state: state}, nil
}

// CreateGraphicsPipelineWithTelemetry creates a graphics pipeline from desc
// and returns it along with the driver's per stage statistics.
func (s *Session) CreateGraphicsPipelineWithTelemetry(ctx context.Context, desc amdext.PipelineDesc) (*Pipeline, amdext.GraphicsShaderStats, error) {
	stats := amdext.GraphicsShaderStats{}
	if !s.Ready() {
		return nil, stats, ErrNotInitialized
	}
	var handle amdext.PipelineHandle
	state, st := s.analyzer.CreateGraphicsPipelineState(desc, &stats, &handle)
	p, err := created("CreateGraphicsPipelineState", state, st, handle)
	if err != nil {
		log.E(ctx, "Graphics pipeline creation failed: %v", err)
		return nil, amdext.GraphicsShaderStats{}, err
	}
	return p, stats, nil
}

// CreateComputePipelineWithTelemetry creates a compute pipeline from desc
// and returns it along with the driver's statistics.
func (s *Session) CreateComputePipelineWithTelemetry(ctx context.Context, desc amdext.PipelineDesc) (*Pipeline, amdext.ComputeShaderStats, error) {
	stats := amdext.ComputeShaderStats{}
	if !s.Ready() {
		return nil, stats, ErrNotInitialized
	}
	var handle amdext.PipelineHandle
	state, st := s.analyzer.CreateComputePipelineState(desc, &stats, &handle)
	p, err := created("CreateComputePipelineState", state, st, handle)
	if err != nil {
		log.E(ctx, "Compute pipeline creation failed: %v", err)
		return nil, amdext.ComputeShaderStats{}, err
	}
	return p, stats, nil
}

// ExtractContainerBytes reads the disassembly container for handle. The
// caller owns the returned buffer and must release it.
func (s *Session) ExtractContainerBytes(ctx context.Context, handle amdext.PipelineHandle) (*amdext.Buffer[byte], error) {
	if !s.Ready() {
		return nil, ErrNotInitialized
	}
	size, st := s.analyzer.ShaderIsaCode(handle, nil)
	if err := amdext.Check("GetShaderIsaCode", st); err != nil {
		log.E(ctx, "Disassembly size query failed: %v", st)
		return nil, err
	}
	if size <= 0 {
		return nil, ErrEmptyContainer
	}
	log.D(ctx, "Disassembly container is %d bytes", size)

	buf, err := amdext.Alloc[byte](s.alloc, size)
	if err != nil {
		return nil, errors.Wrap(err, "Allocating disassembly buffer")
	}
	n, st := s.analyzer.ShaderIsaCode(handle, buf.Items())
	if err := amdext.Check("GetShaderIsaCode", st); err != nil {
		buf.Release()
		log.E(ctx, "Disassembly query failed: %v", st)
		return nil, err
	}
	buf.Truncate(n)
	return buf, nil
}

// ExtractPipelineBinary reads the pipeline ELF for handle. It fails with
// ErrBinaryUnsupported if neither the analyzer nor the interface named by
// WithBinaryInterface can export binaries.
func (s *Session) ExtractPipelineBinary(ctx context.Context, handle amdext.PipelineHandle) ([]byte, error) {
	if !s.Ready() {
		return nil, ErrNotInitialized
	}
	var exporter amdext.BinaryExporter = s.exporter
	if s.exporter == nil {
		var ok bool
		if exporter, ok = s.analyzer.(amdext.BinaryExporter); !ok {
			return nil, ErrBinaryUnsupported
		}
	}
	size, st := exporter.PipelineElfBinary(handle, nil)
	if st.Failed() || size <= 0 {
		return nil, log.Errf(ctx, ErrBinarySize, "Status %v, size %d", st, size)
	}
	buf, err := amdext.Alloc[byte](s.alloc, size)
	if err != nil {
		return nil, errors.Wrap(err, "Allocating pipeline binary buffer")
	}
	defer buf.Release()
	n, st := exporter.PipelineElfBinary(handle, buf.Items())
	if st.Failed() {
		return nil, log.Errf(ctx, ErrBinaryExtraction, "Status %v", st)
	}
	buf.Truncate(n)
	out := make([]byte, buf.Len())
	copy(out, buf.Items())
	return out, nil
}
