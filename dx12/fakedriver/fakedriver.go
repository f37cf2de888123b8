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

// Package fakedriver is an in-process stand in for the AMD driver extension.
//
// A Driver is an amdext.Loader whose every step can be made to fail, and
// which counts the objects and buffers it hands out so tests can check that
// nothing leaks.
package fakedriver

import (
	"sync"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/gpuanalyzer/rga/dx12/disasm"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
	"github.com/pkg/errors"
)

const (
	ErrLoad           = fault.Const("Fake driver module failed to load")
	ErrMissingSymbol  = fault.Const("Fake driver module does not export the entry point")
	ErrOutOfMemory    = fault.Const("Fake allocation limit exceeded")
	DefaultDeviceID   = amdext.NativeDevice(0xD3D12)
	DefaultEntryPoint = amdext.DefaultEntryPoint
)

// Driver is a configurable fake of amdxc64.dll.
type Driver struct {
	// FailLoad makes Load fail.
	FailLoad bool
	// EntryPoint is the exported symbol. Defaults to DefaultEntryPoint.
	EntryPoint string
	// FactoryStatus is returned by the entry point.
	FactoryStatus amdext.Status
	// AnalyzerStatus is returned when the shader analyzer is requested.
	AnalyzerStatus amdext.Status
	// WrongAnalyzer makes the factory return an object that is not a
	// shader analyzer.
	WrongAnalyzer bool
	// ExportBinary makes the analyzer implement amdext.BinaryExporter.
	ExportBinary bool
	// BinaryInterface, when set, is a second analyzer interface that
	// exports binaries even if the base analyzer does not.
	BinaryInterface amdext.IID

	// Targets is the list reported by the target query.
	Targets []amdext.GpuIDEntry
	// CountStatus and FillStatus are returned by the two target query phases.
	CountStatus amdext.Status
	FillStatus  amdext.Status

	// CreateStatus is returned by pipeline creation.
	CreateStatus amdext.Status
	// SizeStatus and IsaStatus are returned by the two ISA query phases.
	SizeStatus amdext.Status
	IsaStatus  amdext.Status
	// BinaryStatus is returned by the ELF export.
	BinaryStatus amdext.Status

	// Allocations tracks buffers acquired through Allocator.
	Allocations Tracker

	mutex    sync.Mutex
	counts   Counts
	handles  map[amdext.PipelineHandle]*Pipeline
	nextDesc uintptr
}

// Counts is the number of driver objects created and released.
type Counts struct {
	Loads, Unloads                     int
	Factories, FactoryReleases         int
	Analyzers, AnalyzerReleases        int
	Pipelines, PipelineReleases        int
	Others, OtherReleases              int
	Overreleases                       int
	TargetQueries, IsaQueries, Exports int
}

// Live returns the number of objects that have not been released.
func (c Counts) Live() int {
	return (c.Loads - c.Unloads) +
		(c.Factories - c.FactoryReleases) +
		(c.Analyzers - c.AnalyzerReleases) +
		(c.Pipelines - c.PipelineReleases) +
		(c.Others - c.OtherReleases)
}

// New returns a driver that succeeds at everything and reports the given
// targets.
func New(targets ...amdext.GpuIDEntry) *Driver {
	return &Driver{Targets: targets}
}

// Counts returns a snapshot of the object counters.
func (d *Driver) Counts() Counts {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.counts
}

// Allocator returns the tracker for buffers.
func (d *Driver) Allocator() *Tracker { return &d.Allocations }

// Device returns a device handle accepted by the fake.
func (d *Driver) Device() amdext.Device { return DefaultDeviceID }

// Load implements amdext.Loader.
func (d *Driver) Load(name string) (amdext.Module, error) {
	if d.FailLoad {
		return nil, ErrLoad
	}
	d.count(func(c *Counts) { c.Loads++ })
	return &module{driver: d, name: name, releaser: releaser{driver: d, counter: func(c *Counts) { c.Unloads++ }}}, nil
}

func (d *Driver) count(f func(*Counts)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	f(&d.counts)
}

// releaser releases an object once, counting any further release as an
// overrelease.
type releaser struct {
	driver   *Driver
	released bool
	counter  func(*Counts)
}

func (r *releaser) Release() {
	if r.released {
		r.driver.count(func(c *Counts) { c.Overreleases++ })
		return
	}
	r.released = true
	r.driver.count(r.counter)
}

type module struct {
	driver *Driver
	name   string
	releaser
}

func (m *module) Lookup(symbol string) (amdext.EntryPoint, error) {
	want := m.driver.EntryPoint
	if want == "" {
		want = DefaultEntryPoint
	}
	if symbol != want {
		return nil, errors.Wrapf(ErrMissingSymbol, "%s in %s", symbol, m.name)
	}
	return m.driver.createFactory, nil
}

func (d *Driver) createFactory(dev amdext.Device, iid amdext.IID) (amdext.Interface, amdext.Status) {
	if d.FactoryStatus.Failed() {
		return nil, d.FactoryStatus
	}
	if iid != amdext.IIDFactory {
		return nil, amdext.ENoInterface
	}
	d.count(func(c *Counts) { c.Factories++ })
	return &factory{driver: d, releaser: releaser{driver: d, counter: func(c *Counts) { c.FactoryReleases++ }}}, amdext.OK
}

type factory struct {
	driver *Driver
	releaser
}

type other struct{ releaser }

func (f *factory) CreateInterface(dev amdext.Device, iid amdext.IID) (amdext.Interface, amdext.Status) {
	d := f.driver
	revision := !d.BinaryInterface.IsZero() && iid == d.BinaryInterface
	if iid != amdext.IIDShaderAnalyzer && !revision {
		return nil, amdext.ENoInterface
	}
	if d.AnalyzerStatus.Failed() {
		return nil, d.AnalyzerStatus
	}
	if d.WrongAnalyzer {
		d.count(func(c *Counts) { c.Others++ })
		return &other{releaser{driver: d, counter: func(c *Counts) { c.OtherReleases++ }}}, amdext.OK
	}
	d.count(func(c *Counts) { c.Analyzers++ })
	a := &analyzer{driver: d, releaser: releaser{driver: d, counter: func(c *Counts) { c.AnalyzerReleases++ }}}
	if d.ExportBinary || revision {
		return &exportingAnalyzer{a}, amdext.OK
	}
	return a, amdext.OK
}

// Pipeline is a fake pipeline state description. It implements
// amdext.PipelineDesc.
type Pipeline struct {
	// Disassembly is the text reported per stage.
	Disassembly map[telemetry.Stage]string
	// Stats is the raw statistics block reported per stage.
	Stats map[telemetry.Stage]amdext.ShaderStats
	// ThreadGroup is reported for compute pipelines.
	ThreadGroup telemetry.ThreadGroupSize
	// Container replaces the generated disassembly container when set.
	Container []byte
	// Binary is the pipeline ELF.
	Binary []byte

	native uintptr
}

// Native implements amdext.PipelineDesc.
func (p *Pipeline) Native() uintptr { return p.native }

// Describe registers p with the driver so the analyzer will accept it.
func (d *Driver) Describe(p *Pipeline) *Pipeline {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.nextDesc++
	p.native = d.nextDesc
	return p
}

func (p *Pipeline) container() ([]byte, error) {
	if p.Container != nil {
		return p.Container, nil
	}
	data, err := disasm.Marshal(p.Disassembly)
	if err != nil {
		return nil, err
	}
	return append(data, 0), nil
}

// stats returns the statistics block for s. A stage with disassembly but no
// explicit stage mask reports its own bit.
func (p *Pipeline) stats(s telemetry.Stage) amdext.ShaderStats {
	st := p.Stats[s]
	if _, ok := p.Disassembly[s]; ok && st.StageMask == 0 {
		st.StageMask = uint32(s.Bit())
	}
	return st
}
