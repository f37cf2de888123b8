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

//go:build windows

package amdext

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	d3d12              = windows.NewLazySystemDLL("d3d12.dll")
	_D3D12CreateDevice = d3d12.NewProc("D3D12CreateDevice")
)

// d3dFeatureLevel11_0 is D3D_FEATURE_LEVEL_11_0.
const d3dFeatureLevel11_0 = 0xb000

// IUnknown vtable slots.
const (
	vtblQueryInterface = iota
	vtblAddRef
	vtblRelease
	vtblFirstMethod
)

// IAmdExtD3DFactory vtable slots.
const (
	vtblFactoryCreateInterface = vtblFirstMethod + iota
)

// IAmdExtD3DShaderAnalyzer vtable slots.
const (
	vtblGetAvailableVirtualGpuIds = vtblFirstMethod + iota
	vtblCreateGraphicsPipelineState
	vtblCreateComputePipelineState
	vtblGetShaderIsaCode
	// Appended by IAmdExtD3DShaderAnalyzer1.
	vtblGetPipelineElfBinary
)

// comObject is a pointer to a COM object, whose first word is its vtable.
type comObject struct {
	ptr unsafe.Pointer
}

func (o comObject) method(slot int) uintptr {
	vtbl := *(*unsafe.Pointer)(o.ptr)
	return *(*uintptr)(unsafe.Add(vtbl, slot*int(unsafe.Sizeof(uintptr(0)))))
}

func (o comObject) Release() {
	if o.ptr != nil {
		syscall.SyscallN(o.method(vtblRelease), uintptr(o.ptr))
	}
}

func toStatus(r uintptr) Status { return Status(int32(uint32(r))) }

// NativeLoader loads the driver extension with LoadLibrary.
type NativeLoader struct{}

// Load loads the named library from the system search path.
func (NativeLoader) Load(name string) (Module, error) {
	dll, err := windows.LoadDLL(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Loading %s", name)
	}
	return nativeModule{dll}, nil
}

type nativeModule struct {
	dll *windows.DLL
}

func (m nativeModule) Lookup(symbol string) (EntryPoint, error) {
	proc, err := m.dll.FindProc(symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "Resolving %s in %s", symbol, m.dll.Name)
	}
	return func(dev Device, iid IID) (Interface, Status) {
		var out unsafe.Pointer
		r, _, _ := proc.Call(
			dev.Native(),                  // pOuter
			uintptr(unsafe.Pointer(&iid)), // riid
			uintptr(unsafe.Pointer(&out)), // ppvObject
		)
		st := toStatus(r)
		if st.Failed() || out == nil {
			return nil, st
		}
		return nativeFactory{comObject{out}}, st
	}, nil
}

func (m nativeModule) Release() { m.dll.Release() }

type nativeFactory struct{ comObject }

func (f nativeFactory) CreateInterface(dev Device, iid IID) (Interface, Status) {
	var out unsafe.Pointer
	r, _, _ := syscall.SyscallN(f.method(vtblFactoryCreateInterface),
		uintptr(f.ptr),
		dev.Native(),
		uintptr(unsafe.Pointer(&iid)),
		uintptr(unsafe.Pointer(&out)),
	)
	st := toStatus(r)
	if st.Failed() || out == nil {
		return nil, st
	}
	if iid == IIDShaderAnalyzer {
		return nativeAnalyzer{comObject{out}}, st
	}
	// The factory only creates shader analyzers. Any other interface is a
	// later analyzer revision, which extends the vtable with the ELF export.
	return nativeElfAnalyzer{nativeAnalyzer{comObject{out}}}, st
}

type nativeGpuIDEntry struct {
	id   uint32
	name *byte
}

type nativeGpuIDList struct {
	num     uint32
	entries *nativeGpuIDEntry
}

type nativeDisassembly struct {
	compute, vertex, hull, domain, geometry, pixel *byte
}

type nativeAnalyzer struct{ comObject }

func (a nativeAnalyzer) AvailableVirtualGpuIDs(entries []GpuIDEntry) (uint32, Status) {
	list := nativeGpuIDList{}
	var raw []nativeGpuIDEntry
	if len(entries) > 0 {
		raw = make([]nativeGpuIDEntry, len(entries))
		list.num = uint32(len(raw))
		list.entries = &raw[0]
	}
	r, _, _ := syscall.SyscallN(a.method(vtblGetAvailableVirtualGpuIds),
		uintptr(a.ptr),
		uintptr(unsafe.Pointer(&list)),
	)
	st := toStatus(r)
	if st.Failed() || raw == nil {
		return list.num, st
	}
	n := list.num
	if int(n) > len(raw) {
		n = uint32(len(raw))
	}
	for i := uint32(0); i < n; i++ {
		entries[i] = GpuIDEntry{ID: raw[i].id, Name: windows.BytePtrToString(raw[i].name)}
	}
	return n, st
}

func (a nativeAnalyzer) CreateGraphicsPipelineState(desc PipelineDesc, stats *GraphicsShaderStats, handle *PipelineHandle) (Interface, Status) {
	var out unsafe.Pointer
	r, _, _ := syscall.SyscallN(a.method(vtblCreateGraphicsPipelineState),
		uintptr(a.ptr),
		desc.Native(),
		uintptr(unsafe.Pointer(&IIDPipelineState)),
		uintptr(unsafe.Pointer(&out)),
		uintptr(unsafe.Pointer(stats)),
		uintptr(unsafe.Pointer(handle)),
	)
	st := toStatus(r)
	if out == nil {
		return nil, st
	}
	return comObject{out}, st
}

func (a nativeAnalyzer) CreateComputePipelineState(desc PipelineDesc, stats *ComputeShaderStats, handle *PipelineHandle) (Interface, Status) {
	var out unsafe.Pointer
	r, _, _ := syscall.SyscallN(a.method(vtblCreateComputePipelineState),
		uintptr(a.ptr),
		desc.Native(),
		uintptr(unsafe.Pointer(&IIDPipelineState)),
		uintptr(unsafe.Pointer(&out)),
		uintptr(unsafe.Pointer(stats)),
		uintptr(unsafe.Pointer(handle)),
	)
	st := toStatus(r)
	if out == nil {
		return nil, st
	}
	return comObject{out}, st
}

func (a nativeAnalyzer) ShaderIsaCode(handle PipelineHandle, buf []byte) (int, Status) {
	size := uintptr(len(buf))
	var data *byte
	if len(buf) > 0 {
		data = &buf[0]
	}
	disasm := nativeDisassembly{}
	r, _, _ := syscall.SyscallN(a.method(vtblGetShaderIsaCode),
		uintptr(a.ptr),
		uintptr(handle),
		uintptr(unsafe.Pointer(data)),
		uintptr(unsafe.Pointer(&size)),
		uintptr(unsafe.Pointer(&disasm)),
	)
	return int(size), toStatus(r)
}

type nativeElfAnalyzer struct{ nativeAnalyzer }

func (a nativeElfAnalyzer) PipelineElfBinary(handle PipelineHandle, buf []byte) (int, Status) {
	size := uint32(len(buf))
	var data *byte
	if len(buf) > 0 {
		data = &buf[0]
	}
	r, _, _ := syscall.SyscallN(a.method(vtblGetPipelineElfBinary),
		uintptr(a.ptr),
		uintptr(handle),
		uintptr(unsafe.Pointer(data)),
		uintptr(unsafe.Pointer(&size)),
	)
	return int(size), toStatus(r)
}

// D3DDevice is an ID3D12Device created for pipeline compilation.
type D3DDevice struct {
	obj comObject
}

// Native returns the ID3D12Device pointer.
func (d *D3DDevice) Native() uintptr { return uintptr(d.obj.ptr) }

// Release releases the device.
func (d *D3DDevice) Release() { d.obj.Release() }

// CreateDevice creates a D3D12 device on the default adapter.
func CreateDevice() (*D3DDevice, error) {
	if err := _D3D12CreateDevice.Find(); err != nil {
		return nil, errors.Wrap(err, "Locating D3D12CreateDevice")
	}
	var out unsafe.Pointer
	r, _, _ := _D3D12CreateDevice.Call(
		0,                                   // pAdapter
		d3dFeatureLevel11_0,                 // MinimumFeatureLevel
		uintptr(unsafe.Pointer(&IIDDevice)), // riid
		uintptr(unsafe.Pointer(&out)),       // ppDevice
	)
	if err := Check("D3D12CreateDevice", toStatus(r)); err != nil {
		return nil, err
	}
	return &D3DDevice{comObject{out}}, nil
}
