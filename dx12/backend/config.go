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

package backend

import (
	"os"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/dx12/amdext"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const ErrInvalidConfig = fault.Const("Invalid backend configuration")

// Config controls how the backend reaches the driver extension.
type Config struct {
	// DriverModule is the driver extension library.
	DriverModule string `yaml:"driver_module"`
	// EntryPoint is the exported factory constructor.
	EntryPoint string `yaml:"entry_point"`
	// ExtractBinary attaches the pipeline ELF to results when the driver can
	// export it.
	ExtractBinary bool `yaml:"extract_binary"`
	// BinaryInterface is the GUID of the analyzer revision that exports the
	// pipeline ELF, for drivers whose base analyzer cannot.
	BinaryInterface string `yaml:"binary_interface"`

	// Allocator accounts for driver query buffers. Nil uses the heap.
	Allocator amdext.Allocator `yaml:"-"`
}

// DefaultConfig returns the configuration for the installed AMD driver.
func DefaultConfig() Config {
	return Config{
		DriverModule:  amdext.DefaultModuleName,
		EntryPoint:    amdext.DefaultEntryPoint,
		ExtractBinary: true,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "Reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the names needed to reach the driver are set.
func (c Config) Validate() error {
	switch {
	case c.DriverModule == "":
		return errors.Wrap(ErrInvalidConfig, "driver_module is empty")
	case c.EntryPoint == "":
		return errors.Wrap(ErrInvalidConfig, "entry_point is empty")
	}
	if _, err := c.binaryIID(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "binary_interface: %v", err)
	}
	return nil
}

func (c Config) binaryIID() (amdext.IID, error) {
	if c.BinaryInterface == "" {
		return amdext.IID{}, nil
	}
	return amdext.ParseIID(c.BinaryInterface)
}
