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

package amdext

// Stage flags as reported in ShaderStats.StageMask.
const (
	StageCompute  = 0x01
	StageVertex   = 0x02
	StageHull     = 0x04
	StageDomain   = 0x08
	StageGeometry = 0x10
	StagePixel    = 0x20
)

// The records below match the driver's C layout field for field so the
// native binding can pass pointers to them directly.

// ShaderUsageStats is the register and memory usage of a shader.
type ShaderUsageStats struct {
	NumUsedVgprs           uint32
	NumUsedSgprs           uint32
	LdsSizePerThreadGroup  uint32
	LdsUsageSizeInBytes    uintptr
	ScratchMemUsageInBytes uintptr
}

// ShaderStats is the statistics block for one stage. When the hardware
// merges stages, more than one bit is set in StageMask and the block is
// repeated for each of the merged stages.
type ShaderStats struct {
	StageMask         uint32
	Usage             ShaderUsageStats
	NumPhysicalVgprs  uint32
	NumPhysicalSgprs  uint32
	NumAvailableVgprs uint32
	NumAvailableSgprs uint32
	IsaSizeInBytes    uintptr
}

// GraphicsShaderStats holds a block per graphics stage.
type GraphicsShaderStats struct {
	Vertex   ShaderStats
	Hull     ShaderStats
	Domain   ShaderStats
	Geometry ShaderStats
	Pixel    ShaderStats
}

// ComputeShaderStats is the compute stage block plus the thread group size.
type ComputeShaderStats struct {
	ShaderStats
	NumThreadsPerGroupX uint32
	NumThreadsPerGroupY uint32
	NumThreadsPerGroupZ uint32
}
