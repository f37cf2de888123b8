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

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// IID is a COM interface identifier, laid out as a Windows GUID.
type IID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

var (
	// IIDFactory is IAmdExtD3DFactory.
	IIDFactory = IID{0x014937EC, 0x9288, 0x446F, [8]byte{0xA9, 0xAC, 0xD7, 0x5A, 0x8E, 0x3A, 0x98, 0x4F}}
	// IIDShaderAnalyzer is IAmdExtD3DShaderAnalyzer.
	IIDShaderAnalyzer = IID{0xA2783A2E, 0xFECA, 0x4881, [8]byte{0xB3, 0xFD, 0x7F, 0x8F, 0x1D, 0x6F, 0x4A, 0x08}}
	// IIDPipelineState is ID3D12PipelineState.
	IIDPipelineState = IID{0x765a30f3, 0xf624, 0x4c6f, [8]byte{0xa8, 0x28, 0xac, 0xe9, 0x48, 0x62, 0x24, 0x45}}
	// IIDDevice is ID3D12Device.
	IIDDevice = IID{0x189819f1, 0x1db6, 0x4b57, [8]byte{0xbe, 0x54, 0x18, 0x21, 0x33, 0x9b, 0x85, 0xf7}}
)

func (i IID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		i.Data1, i.Data2, i.Data3,
		i.Data4[0], i.Data4[1], i.Data4[2], i.Data4[3],
		i.Data4[4], i.Data4[5], i.Data4[6], i.Data4[7])
}

// IsZero returns true for the null IID.
func (i IID) IsZero() bool { return i == IID{} }

// ParseIID parses a GUID in registry form, with or without braces, such as
// "{A2783A2E-FECA-4881-B3FD-7F8F1D6F4A08}".
func ParseIID(s string) (IID, error) {
	t := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	if len(t) != 36 || t[8] != '-' || t[13] != '-' || t[18] != '-' || t[23] != '-' {
		return IID{}, errors.Wrapf(ErrInvalidIID, "%q", s)
	}
	i, d := IID{}, [8]uint8{}
	n, err := fmt.Sscanf(t, "%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		&i.Data1, &i.Data2, &i.Data3,
		&d[0], &d[1], &d[2], &d[3], &d[4], &d[5], &d[6], &d[7])
	if err != nil || n != 11 {
		return IID{}, errors.Wrapf(ErrInvalidIID, "%q", s)
	}
	i.Data4 = d
	return i, nil
}
