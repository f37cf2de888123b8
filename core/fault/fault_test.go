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

package fault_test

import (
	"testing"

	"github.com/gpuanalyzer/rga/core/fault"
)

const (
	errorMessage = "Some message"
	anError      = fault.Const(errorMessage)
	anotherError = fault.Const("another")
)

func TestConst(t *testing.T) {
	if anError.Error() != errorMessage {
		t.Errorf("Const has the wrong string form, expected %q got %q", errorMessage, anError)
	}
}

func TestList(t *testing.T) {
	list := fault.List{}
	if list.First() != nil || list.Err() != nil {
		t.Errorf("Empty error list did not report nil")
	}
	list.Collect(nil)
	if len(list) != 0 {
		t.Errorf("Collecting nil grew the list")
	}
	list.Collect(anError)
	if list.Err() != anError {
		t.Errorf("Err on a single entry list should be the entry, got %v", list.Err())
	}
	list.Collect(anotherError)
	if len(list) != 2 {
		t.Errorf("Adding a second error did not make the list length 2")
	}
	if list.First() != anError {
		t.Errorf("First did not return the first error, got %v", list.First())
	}
	if got, expect := list.Err().Error(), errorMessage+"\nanother"; got != expect {
		t.Errorf("List message was %q, expected %q", got, expect)
	}
}
