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

// Package amdext describes the AMD D3D12 driver extension used to compile
// pipelines for virtual GPUs and read back shader statistics and ISA.
//
// The package exposes the driver as a small set of Go interfaces so that the
// native binding (amdxc64.dll on Windows) and in-process fakes can be used
// interchangeably.
package amdext

import "github.com/gpuanalyzer/rga/core/fault"

const (
	// DefaultModuleName is the driver extension library.
	DefaultModuleName = "amdxc64.dll"
	// DefaultEntryPoint is the exported factory constructor.
	DefaultEntryPoint = "AmdExtD3DCreateInterface"

	ErrUnsupportedPlatform = fault.Const("The AMD driver extension is only available on Windows")
	ErrWrongCapability     = fault.Const("Driver returned an object that does not implement the requested capability")
	ErrNilInterface        = fault.Const("Driver reported success but returned no object")
	ErrInvalidIID          = fault.Const("Malformed interface identifier")
)

// Device is a caller owned D3D12 device.
type Device interface {
	Native() uintptr
}

// PipelineDesc is a caller owned D3D12 graphics or compute pipeline state
// description.
type PipelineDesc interface {
	Native() uintptr
}

// NativeDevice wraps a raw ID3D12Device pointer.
type NativeDevice uintptr

// Native returns the raw pointer.
func (d NativeDevice) Native() uintptr { return uintptr(d) }

// NativeDesc wraps a raw pointer to a D3D12_*_PIPELINE_STATE_DESC.
type NativeDesc uintptr

// Native returns the raw pointer.
func (d NativeDesc) Native() uintptr { return uintptr(d) }

// PipelineHandle is the driver's token for the disassembly of a created
// pipeline. It is only valid while the pipeline object is alive.
type PipelineHandle uintptr

// Interface is any reference counted object handed out by the driver.
type Interface interface {
	Release()
}

// Loader loads driver modules by name.
type Loader interface {
	Load(name string) (Module, error)
}

// Module is a loaded driver library.
type Module interface {
	// Lookup resolves an exported factory constructor.
	Lookup(symbol string) (EntryPoint, error)
	// Release unloads the library.
	Release()
}

// EntryPoint is the exported constructor of the extension factory.
type EntryPoint func(dev Device, iid IID) (Interface, Status)

// Factory creates extension objects for a device.
type Factory interface {
	Interface
	CreateInterface(dev Device, iid IID) (Interface, Status)
}

// GpuIDEntry is a virtual GPU the driver can compile for. Name is of the
// form "gpuName:gfxIp" or a plain target name, depending on the driver.
type GpuIDEntry struct {
	ID   uint32
	Name string
}

// ShaderAnalyzer is the shader analysis capability of the driver.
type ShaderAnalyzer interface {
	Interface

	// AvailableVirtualGpuIDs is a two phase query. Called with a nil slice it
	// returns the number of targets. Called with a slice it fills at most
	// len(entries) entries and returns how many were written.
	AvailableVirtualGpuIDs(entries []GpuIDEntry) (uint32, Status)

	// CreateGraphicsPipelineState compiles a graphics pipeline, filling stats
	// and the disassembly handle.
	CreateGraphicsPipelineState(desc PipelineDesc, stats *GraphicsShaderStats, handle *PipelineHandle) (Interface, Status)

	// CreateComputePipelineState compiles a compute pipeline, filling stats
	// and the disassembly handle.
	CreateComputePipelineState(desc PipelineDesc, stats *ComputeShaderStats, handle *PipelineHandle) (Interface, Status)

	// ShaderIsaCode is a two phase query for the disassembly container.
	// Called with a nil buffer it returns the required size in bytes.
	// Called with a buffer it fills it and returns the bytes written.
	ShaderIsaCode(handle PipelineHandle, buf []byte) (int, Status)
}

// BinaryExporter is implemented by analyzers that can export the pipeline
// ELF. It uses the same two phase protocol as ShaderIsaCode.
type BinaryExporter interface {
	PipelineElfBinary(handle PipelineHandle, buf []byte) (int, Status)
}
