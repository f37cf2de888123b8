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

// TryGetCapability asks f for the interface iid on dev and returns it as a T.
// If the driver hands back an object that is not a T the object is released
// and ErrWrongCapability is returned.
func TryGetCapability[T Interface](f Factory, dev Device, iid IID) (T, error) {
	var zero T
	obj, st := f.CreateInterface(dev, iid)
	if st.Failed() {
		if obj != nil {
			obj.Release()
		}
		return zero, StatusError{Call: "CreateInterface " + iid.String(), Status: st}
	}
	if obj == nil {
		return zero, ErrNilInterface
	}
	t, ok := obj.(T)
	if !ok {
		obj.Release()
		return zero, ErrWrongCapability
	}
	return t, nil
}
