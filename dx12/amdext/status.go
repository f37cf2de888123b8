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

import "fmt"

// Status is an HRESULT returned by the driver.
type Status int32

const (
	OK           = Status(0)
	EFail        = Status(-0x7fffbffb) // 0x80004005
	ENoInterface = Status(-0x7fffbffe) // 0x80004002
	EInvalidArg  = Status(-0x7ff8ffa9) // 0x80070057
	EOutOfMemory = Status(-0x7ff8fff2) // 0x8007000E
)

// Failed returns true for any negative HRESULT.
func (s Status) Failed() bool { return s < 0 }

// Succeeded returns true for S_OK and the other non negative codes.
func (s Status) Succeeded() bool { return s >= 0 }

func (s Status) Error() string { return fmt.Sprintf("0x%08X", uint32(s)) }

// StatusError is a failed driver call.
type StatusError struct {
	Call   string
	Status Status
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s failed with error code: %v", e.Call, e.Status.Error())
}

// Check returns nil if st succeeded, otherwise a StatusError naming call.
func Check(call string, st Status) error {
	if st.Succeeded() {
		return nil
	}
	return StatusError{Call: call, Status: st}
}
