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

// Package session owns a loaded AMD driver extension and the interfaces
// obtained from it for one D3D12 device.
package session

import (
	"context"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
	"github.com/pkg/errors"
)

const (
	ErrNotInitialized     = fault.Const("Driver extension session is not initialized")
	ErrAlreadyInitialized = fault.Const("Driver extension session is already initialized")
	ErrNoTargets          = fault.Const("Driver reported no virtual GPU targets")
	ErrDuplicateTarget    = fault.Const("Driver reported a virtual GPU target twice")
	ErrEmptyContainer     = fault.Const("Driver reported an empty disassembly container")
	ErrBinaryUnsupported  = fault.Const("Driver cannot export pipeline binaries")
	ErrBinarySize         = fault.Const("failed to retrieve pipeline binary size")
	ErrBinaryExtraction   = fault.Const("failed to extract pipeline binary")
)

// Session is the lifetime of one driver extension module, its factory and
// its shader analyzer. A Session is not safe for concurrent use.
type Session struct {
	loader     amdext.Loader
	moduleName string
	entryPoint string
	alloc      amdext.Allocator
	binaryIID  amdext.IID

	module   amdext.Module
	factory  amdext.Factory
	analyzer amdext.ShaderAnalyzer
	exporter elfExporter
}

// elfExporter is an analyzer revision obtained separately for ELF export.
type elfExporter interface {
	amdext.Interface
	amdext.BinaryExporter
}

// Option configures a Session.
type Option func(*Session)

// WithModuleName sets the driver library to load.
func WithModuleName(name string) Option {
	return func(s *Session) { s.moduleName = name }
}

// WithEntryPoint sets the exported factory constructor to resolve.
func WithEntryPoint(symbol string) Option {
	return func(s *Session) { s.entryPoint = symbol }
}

// WithAllocator sets the allocator used for query buffers.
func WithAllocator(a amdext.Allocator) Option {
	return func(s *Session) { s.alloc = a }
}

// WithBinaryInterface names the analyzer revision that exports pipeline
// binaries. Init requests it after the base analyzer.
func WithBinaryInterface(iid amdext.IID) Option {
	return func(s *Session) { s.binaryIID = iid }
}

// New returns an uninitialized session that will load the driver through
// loader.
func New(loader amdext.Loader, opts ...Option) *Session {
	s := &Session{
		loader:     loader,
		moduleName: amdext.DefaultModuleName,
		entryPoint: amdext.DefaultEntryPoint,
		alloc:      amdext.HeapAllocator{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ready returns true once Init has succeeded and Close has not been called.
func (s *Session) Ready() bool { return s.analyzer != nil }

// Init loads the driver extension and obtains the shader analyzer for dev.
// On failure everything acquired so far is released and the session stays
// uninitialized, so Init may be called again.
func (s *Session) Init(ctx context.Context, dev amdext.Device) (err error) {
	ctx = log.Enter(ctx, "Init")
	if s.Ready() {
		return ErrAlreadyInitialized
	}
	if s.loader == nil {
		return log.Err(ctx, amdext.ErrUnsupportedPlatform, "No driver loader")
	}
	defer func() {
		if err != nil {
			s.release()
		}
	}()

	log.I(ctx, "Loading %s", s.moduleName)
	if s.module, err = s.loader.Load(s.moduleName); err != nil {
		return errors.Wrapf(err, "Loading driver extension %s", s.moduleName)
	}
	create, err := s.module.Lookup(s.entryPoint)
	if err != nil {
		return errors.Wrapf(err, "Resolving %s", s.entryPoint)
	}

	obj, st := create(dev, amdext.IIDFactory)
	if st.Failed() {
		if obj != nil {
			obj.Release()
		}
		log.E(ctx, "%s returned %v", s.entryPoint, st)
		return amdext.StatusError{Call: s.entryPoint, Status: st}
	}
	factory, ok := obj.(amdext.Factory)
	if !ok {
		if obj != nil {
			obj.Release()
		}
		return log.Errf(ctx, amdext.ErrWrongCapability, "%s did not return a factory", s.entryPoint)
	}
	s.factory = factory

	analyzer, err := amdext.TryGetCapability[amdext.ShaderAnalyzer](s.factory, dev, amdext.IIDShaderAnalyzer)
	if err != nil {
		log.E(ctx, "Shader analyzer unavailable: %v", err)
		return errors.Wrap(err, "Querying shader analyzer")
	}
	s.analyzer = analyzer

	if !s.binaryIID.IsZero() {
		exporter, err := amdext.TryGetCapability[elfExporter](s.factory, dev, s.binaryIID)
		if err != nil {
			log.W(ctx, "Pipeline binary interface %v unavailable: %v", s.binaryIID, err)
		} else {
			s.exporter = exporter
		}
	}
	log.I(ctx, "Driver extension ready")
	return nil
}

// release drops the exporter, analyzer, factory and module in that order.
func (s *Session) release() {
	if s.exporter != nil {
		s.exporter.Release()
		s.exporter = nil
	}
	if s.analyzer != nil {
		s.analyzer.Release()
		s.analyzer = nil
	}
	if s.factory != nil {
		s.factory.Release()
		s.factory = nil
	}
	if s.module != nil {
		s.module.Release()
		s.module = nil
	}
}

// Close releases the driver extension. The session may be initialized again
// afterwards.
func (s *Session) Close() error {
	s.release()
	return nil
}

// EnumerateTargets returns the virtual GPUs the driver can compile for, in
// the order the driver reports them.
func (s *Session) EnumerateTargets(ctx context.Context) (telemetry.Targets, error) {
	if !s.Ready() {
		return nil, ErrNotInitialized
	}
	ctx = log.Enter(ctx, "EnumerateTargets")
	count, st := s.analyzer.AvailableVirtualGpuIDs(nil)
	if err := amdext.Check("GetAvailableVirtualGpuIds", st); err != nil {
		log.E(ctx, "Target count query failed: %v", st)
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoTargets
	}

	buf, err := amdext.Alloc[amdext.GpuIDEntry](s.alloc, int(count))
	if err != nil {
		return nil, errors.Wrap(err, "Allocating target list")
	}
	defer buf.Release()

	filled, st := s.analyzer.AvailableVirtualGpuIDs(buf.Items())
	if err := amdext.Check("GetAvailableVirtualGpuIds", st); err != nil {
		log.E(ctx, "Target list query failed: %v", st)
		return nil, err
	}
	if filled == 0 {
		return nil, ErrNoTargets
	}
	buf.Truncate(int(filled))

	out := make(telemetry.Targets, 0, buf.Len())
	seen := map[string]bool{}
	for _, e := range buf.Items() {
		if seen[e.Name] {
			return nil, log.Errf(ctx, ErrDuplicateTarget, "Target %s", e.Name)
		}
		seen[e.Name] = true
		out = append(out, telemetry.Target{Name: e.Name, ID: e.ID})
	}
	log.D(ctx, "Found %d targets", len(out))
	return out, nil
}
