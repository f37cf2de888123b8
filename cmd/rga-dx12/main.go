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

// The rga-dx12 command lists the virtual GPUs offered by the AMD DX12
// driver extension and decodes saved disassembly containers.
package main

import "github.com/gpuanalyzer/rga/core/app"

func main() {
	app.ShortHelp = "rga-dx12 inspects the AMD DX12 shader analysis extension"
	app.Run(app.VerbMain)
}
