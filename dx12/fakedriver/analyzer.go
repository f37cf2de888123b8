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

package fakedriver

import (
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
)

type analyzer struct {
	driver *Driver
	releaser
}

type exportingAnalyzer struct {
	*analyzer
}

func (a *analyzer) AvailableVirtualGpuIDs(entries []amdext.GpuIDEntry) (uint32, amdext.Status) {
	d := a.driver
	d.count(func(c *Counts) { c.TargetQueries++ })
	if entries == nil {
		if d.CountStatus.Failed() {
			return 0, d.CountStatus
		}
		return uint32(len(d.Targets)), amdext.OK
	}
	if d.FillStatus.Failed() {
		return 0, d.FillStatus
	}
	n := copy(entries, d.Targets)
	return uint32(n), amdext.OK
}

func (a *analyzer) pipeline(desc amdext.PipelineDesc) *Pipeline {
	p, ok := desc.(*Pipeline)
	if !ok || p.native == 0 {
		return nil
	}
	return p
}

func (a *analyzer) register(p *Pipeline, handle *amdext.PipelineHandle) amdext.Interface {
	d := a.driver
	d.mutex.Lock()
	if d.handles == nil {
		d.handles = map[amdext.PipelineHandle]*Pipeline{}
	}
	h := amdext.PipelineHandle(len(d.handles) + 1)
	d.handles[h] = p
	d.counts.Pipelines++
	d.mutex.Unlock()
	*handle = h
	return &pipelineState{releaser{driver: d, counter: func(c *Counts) { c.PipelineReleases++ }}}
}

type pipelineState struct{ releaser }

func (a *analyzer) CreateGraphicsPipelineState(desc amdext.PipelineDesc, stats *amdext.GraphicsShaderStats, handle *amdext.PipelineHandle) (amdext.Interface, amdext.Status) {
	p := a.pipeline(desc)
	if p == nil {
		return nil, amdext.EInvalidArg
	}
	if a.driver.CreateStatus.Failed() {
		return nil, a.driver.CreateStatus
	}
	stats.Vertex = p.stats(telemetry.Vertex)
	stats.Hull = p.stats(telemetry.Hull)
	stats.Domain = p.stats(telemetry.Domain)
	stats.Geometry = p.stats(telemetry.Geometry)
	stats.Pixel = p.stats(telemetry.Pixel)
	return a.register(p, handle), amdext.OK
}

func (a *analyzer) CreateComputePipelineState(desc amdext.PipelineDesc, stats *amdext.ComputeShaderStats, handle *amdext.PipelineHandle) (amdext.Interface, amdext.Status) {
	p := a.pipeline(desc)
	if p == nil {
		return nil, amdext.EInvalidArg
	}
	if a.driver.CreateStatus.Failed() {
		return nil, a.driver.CreateStatus
	}
	stats.ShaderStats = p.stats(telemetry.Compute)
	stats.NumThreadsPerGroupX = p.ThreadGroup.X
	stats.NumThreadsPerGroupY = p.ThreadGroup.Y
	stats.NumThreadsPerGroupZ = p.ThreadGroup.Z
	return a.register(p, handle), amdext.OK
}

func (a *analyzer) lookup(handle amdext.PipelineHandle) *Pipeline {
	a.driver.mutex.Lock()
	defer a.driver.mutex.Unlock()
	return a.driver.handles[handle]
}

// twoPhase implements the size then fill protocol over data.
func twoPhase(data, buf []byte, sizeStatus, fillStatus amdext.Status) (int, amdext.Status) {
	if buf == nil {
		if sizeStatus.Failed() {
			return 0, sizeStatus
		}
		return len(data), amdext.OK
	}
	if fillStatus.Failed() {
		return 0, fillStatus
	}
	if len(buf) < len(data) {
		return len(data), amdext.EInvalidArg
	}
	return copy(buf, data), amdext.OK
}

func (a *analyzer) ShaderIsaCode(handle amdext.PipelineHandle, buf []byte) (int, amdext.Status) {
	a.driver.count(func(c *Counts) { c.IsaQueries++ })
	p := a.lookup(handle)
	if p == nil {
		return 0, amdext.EInvalidArg
	}
	data, err := p.container()
	if err != nil {
		return 0, amdext.EFail
	}
	return twoPhase(data, buf, a.driver.SizeStatus, a.driver.IsaStatus)
}

func (a *exportingAnalyzer) PipelineElfBinary(handle amdext.PipelineHandle, buf []byte) (int, amdext.Status) {
	a.driver.count(func(c *Counts) { c.Exports++ })
	p := a.lookup(handle)
	if p == nil {
		return 0, amdext.EInvalidArg
	}
	return twoPhase(p.Binary, buf, a.driver.BinaryStatus, a.driver.BinaryStatus)
}
