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

// Package telemetry holds the per-stage results of compiling a DX12 pipeline
// through the AMD shader analysis extension.
package telemetry

// ShaderStageResult is the disassembly and resource usage of one compiled
// stage. The zero value is the result for a stage that is not present.
type ShaderStageResult struct {
	Disassembly string `yaml:"disassembly,omitempty"`

	VGPRUsed      uint64 `yaml:"vgpr_used"`
	VGPRAvailable uint64 `yaml:"vgpr_available"`
	VGPRPhysical  uint64 `yaml:"vgpr_physical"`
	SGPRUsed      uint64 `yaml:"sgpr_used"`
	SGPRAvailable uint64 `yaml:"sgpr_available"`
	SGPRPhysical  uint64 `yaml:"sgpr_physical"`

	LDSUsedBytes      uint64 `yaml:"lds_used_bytes"`
	LDSAvailableBytes uint64 `yaml:"lds_available_bytes"`
	ScratchUsedBytes  uint64 `yaml:"scratch_used_bytes"`
	CodeSizeBytes     uint64 `yaml:"code_size_bytes"`

	StageMask StageMask `yaml:"stage_mask"`
}

// HasDisassembly returns true if the stage received disassembly text.
func (r ShaderStageResult) HasDisassembly() bool { return r.Disassembly != "" }

// IsMerged returns true if the driver reported stages other than own in the
// stage mask, meaning own was compiled together with another stage.
func (r ShaderStageResult) IsMerged(own Stage) bool {
	return r.StageMask&^own.Bit() != 0
}

// GraphicsPipelineResult holds a result for each graphics stage. Stages
// absent from the pipeline keep their zero value.
type GraphicsPipelineResult struct {
	Vertex   ShaderStageResult `yaml:"vertex"`
	Hull     ShaderStageResult `yaml:"hull"`
	Domain   ShaderStageResult `yaml:"domain"`
	Geometry ShaderStageResult `yaml:"geometry"`
	Pixel    ShaderStageResult `yaml:"pixel"`

	// Binary is the pipeline ELF, if the driver could export one.
	Binary []byte `yaml:"-"`
}

// Stage returns the result slot for s, or nil for Compute or an unknown
// stage.
func (r *GraphicsPipelineResult) Stage(s Stage) *ShaderStageResult {
	switch s {
	case Vertex:
		return &r.Vertex
	case Hull:
		return &r.Hull
	case Domain:
		return &r.Domain
	case Geometry:
		return &r.Geometry
	case Pixel:
		return &r.Pixel
	default:
		return nil
	}
}

// Populated returns the stages that received disassembly, in pipeline order.
func (r *GraphicsPipelineResult) Populated() []Stage {
	out := []Stage{}
	for _, s := range GraphicsStages {
		if r.Stage(s).HasDisassembly() {
			out = append(out, s)
		}
	}
	return out
}

// ThreadGroupSize is the compute thread group dimensions.
type ThreadGroupSize struct {
	X uint32 `yaml:"x"`
	Y uint32 `yaml:"y"`
	Z uint32 `yaml:"z"`
}

// ComputePipelineResult is the result of compiling a compute pipeline.
type ComputePipelineResult struct {
	Shader      ShaderStageResult `yaml:"shader"`
	ThreadGroup ThreadGroupSize   `yaml:"thread_group"`
	Binary      []byte            `yaml:"-"`
}
