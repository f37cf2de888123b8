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

//go:build !windows

package amdext

// NativeLoader loads the driver extension. It only works on Windows.
type NativeLoader struct{}

// Load always fails with ErrUnsupportedPlatform.
func (NativeLoader) Load(name string) (Module, error) {
	return nil, ErrUnsupportedPlatform
}

// D3DDevice is an ID3D12Device created for pipeline compilation.
type D3DDevice struct{}

// Native returns 0.
func (d *D3DDevice) Native() uintptr { return 0 }

// Release does nothing.
func (d *D3DDevice) Release() {}

// CreateDevice always fails with ErrUnsupportedPlatform.
func CreateDevice() (*D3DDevice, error) {
	return nil, ErrUnsupportedPlatform
}
