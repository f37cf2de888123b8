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

package telemetry_test

import (
	"testing"

	"github.com/gpuanalyzer/rga/core/assert"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
)

func TestStageCodes(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		stage telemetry.Stage
		code  string
		bit   telemetry.StageMask
	}{
		{telemetry.Compute, "CS", 0x1},
		{telemetry.Vertex, "VS", 0x2},
		{telemetry.Hull, "HS", 0x4},
		{telemetry.Domain, "DS", 0x8},
		{telemetry.Geometry, "GS", 0x10},
		{telemetry.Pixel, "PS", 0x20},
	} {
		assert.For(ctx, "%v code", test.stage).ThatString(test.stage.Code()).Equals(test.code)
		assert.For(ctx, "%v bit", test.stage).That(test.stage.Bit()).Equals(test.bit)
		got, ok := telemetry.StageFromCode(test.code)
		assert.For(ctx, "lookup %v", test.code).ThatBoolean(ok).IsTrue()
		assert.For(ctx, "lookup %v", test.code).That(got).Equals(test.stage)
	}
	_, ok := telemetry.StageFromCode("RS")
	assert.For(ctx, "unknown code").ThatBoolean(ok).IsFalse()
}

func TestStageMask(t *testing.T) {
	ctx := log.Testing(t)
	m := telemetry.Vertex.Bit() | telemetry.Hull.Bit()
	assert.For(ctx, "has VS").ThatBoolean(m.Has(telemetry.Vertex)).IsTrue()
	assert.For(ctx, "has PS").ThatBoolean(m.Has(telemetry.Pixel)).IsFalse()
	assert.For(ctx, "stages").ThatSlice(m.Stages()).Equals([]telemetry.Stage{telemetry.Vertex, telemetry.Hull})
	assert.For(ctx, "string").ThatString(m).Equals("VS|HS")
	assert.For(ctx, "empty").ThatString(telemetry.StageMask(0)).Equals("none")
}

func TestMerged(t *testing.T) {
	ctx := log.Testing(t)
	r := telemetry.ShaderStageResult{StageMask: telemetry.Vertex.Bit() | telemetry.Geometry.Bit()}
	assert.For(ctx, "vertex merged").ThatBoolean(r.IsMerged(telemetry.Vertex)).IsTrue()
	r.StageMask = telemetry.Pixel.Bit()
	assert.For(ctx, "pixel alone").ThatBoolean(r.IsMerged(telemetry.Pixel)).IsFalse()
}

func TestGraphicsResultSlots(t *testing.T) {
	ctx := log.Testing(t)
	r := telemetry.GraphicsPipelineResult{}
	assert.For(ctx, "none populated").ThatSlice(r.Populated()).IsEmpty()
	r.Stage(telemetry.Pixel).Disassembly = "s_endpgm"
	r.Stage(telemetry.Vertex).Disassembly = "v_mov_b32"
	assert.For(ctx, "populated").ThatSlice(r.Populated()).Equals([]telemetry.Stage{telemetry.Vertex, telemetry.Pixel})
	assert.For(ctx, "compute slot").That(r.Stage(telemetry.Compute)).IsNil()
	assert.For(ctx, "hull untouched").That(r.Hull).DeepEquals(telemetry.ShaderStageResult{})
}

func TestTargets(t *testing.T) {
	ctx := log.Testing(t)
	l := telemetry.Targets{{"gfx900", 1}, {"gfx906", 2}, {"gfx1010", 3}}
	assert.For(ctx, "names").ThatSlice(l.Names()).Equals([]string{"gfx900", "gfx906", "gfx1010"})
	assert.For(ctx, "ids").ThatMap(l.IDs()).Equals(map[string]uint32{"gfx900": 1, "gfx906": 2, "gfx1010": 3})
	got, ok := l.Find("gfx906")
	assert.For(ctx, "find").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "find id").That(got.ID).Equals(uint32(2))
}
