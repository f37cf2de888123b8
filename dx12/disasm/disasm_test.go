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

package disasm_test

import (
	"testing"

	"github.com/gpuanalyzer/rga/core/assert"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/disasm"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
)

const vsText = "  s_mov_b32 s0, s1\n  v_mov_b32 v0, 0"
const psText = "  exp mrt0 v0, v1, v2, v3 done vm\n  s_endpgm"

func TestParseGraphics(t *testing.T) {
	ctx := log.Testing(t)
	data := []byte("<comments>" +
		"<shader stage=\"VS\"><comment>\n" + vsText + "\n</comment></shader>" +
		"<shader stage=\"PS\"><comment>\n" + psText + "\n</comment></shader>" +
		"</comments>\x00")
	res, err := disasm.ParseGraphics(ctx, data)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "vertex").ThatString(res.Vertex.Disassembly).Equals(vsText)
	assert.For(ctx, "pixel").ThatString(res.Pixel.Disassembly).Equals(psText)
	assert.For(ctx, "hull").ThatString(res.Hull.Disassembly).IsEmpty()
	assert.For(ctx, "domain").ThatString(res.Domain.Disassembly).IsEmpty()
	assert.For(ctx, "geometry").ThatString(res.Geometry.Disassembly).IsEmpty()

	again, err := disasm.ParseGraphics(ctx, data)
	assert.For(ctx, "reparse err").ThatError(err).Succeeded()
	assert.For(ctx, "reparse").That(again).DeepEquals(res)
}

func TestRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	stages := map[telemetry.Stage]string{
		telemetry.Vertex:   vsText,
		telemetry.Geometry: "  s_sendmsg sendmsg(MSG_GS_DONE, GS_OP_NOP)",
		telemetry.Pixel:    psText,
	}
	data, err := disasm.Marshal(stages)
	assert.For(ctx, "marshal").ThatError(err).Succeeded()
	res, err := disasm.ParseGraphics(ctx, data)
	assert.For(ctx, "parse").ThatError(err).Succeeded()
	for _, s := range telemetry.GraphicsStages {
		assert.For(ctx, "%v", s).ThatString(res.Stage(s).Disassembly).Equals(stages[s])
	}
	assert.For(ctx, "populated").ThatSlice(res.Populated()).Equals(
		[]telemetry.Stage{telemetry.Vertex, telemetry.Geometry, telemetry.Pixel})
}

func TestCommentsNotRoot(t *testing.T) {
	ctx := log.Testing(t)
	data := []byte(`<?xml version="1.0"?><pipeline><comments><vs stage="VS"><comment>v_nop</comment></vs></comments></pipeline>`)
	res, err := disasm.ParseGraphics(ctx, data)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "vertex").ThatString(res.Vertex.Disassembly).Equals("v_nop")
}

func TestGraphicsFailures(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		name   string
		data   string
		expect error
	}{
		{"no comments", `<pipeline><shader stage="VS"><comment>x</comment></shader></pipeline>`, disasm.ErrNoCommentsNode},
		{"empty comments", `<comments></comments>`, disasm.ErrNoDisassembly},
		{"no comment node", `<comments><shader stage="VS"></shader></comments>`, disasm.ErrNoDisassembly},
		{"empty text", "<comments><shader stage=\"PS\"><comment>\n\n</comment></shader></comments>", disasm.ErrNoDisassembly},
		{"unknown stage", `<comments><shader stage="RS"><comment>x</comment></shader></comments>`, disasm.ErrNoDisassembly},
		{"missing stage", `<comments><shader><comment>x</comment></shader></comments>`, disasm.ErrNoDisassembly},
		{"duplicate stage", `<comments><shader stage="VS"><comment>x</comment></shader><shader stage="VS"><comment>y</comment></shader></comments>`, disasm.ErrDuplicateStage},
		{"compute in graphics", `<comments><shader stage="CS"><comment>x</comment></shader></comments>`, disasm.ErrNoDisassembly},
	} {
		_, err := disasm.ParseGraphics(ctx, []byte(test.data))
		assert.For(ctx, test.name).ThatError(err).HasCause(test.expect)
	}
	_, err := disasm.ParseGraphics(ctx, []byte("<comments><shader"))
	assert.For(ctx, "malformed").ThatError(err).Failed()
}

func TestPartialStages(t *testing.T) {
	ctx := log.Testing(t)
	data := []byte(`<comments><shader stage="VS"></shader><shader stage="PS"><comment>s_endpgm</comment></shader></comments>`)
	res, err := disasm.ParseGraphics(ctx, data)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "vertex skipped").ThatString(res.Vertex.Disassembly).IsEmpty()
	assert.For(ctx, "pixel").ThatString(res.Pixel.Disassembly).Equals("s_endpgm")
}

func TestUnknownStagesSkipped(t *testing.T) {
	ctx := log.Testing(t)
	data := []byte(`<comments>` +
		`<shader stage="VS"><comment>v_nop</comment></shader>` +
		`<shader stage="XX"><comment>garbage</comment></shader>` +
		`<shader><comment>unlabelled</comment></shader>` +
		`<shader stage="CS"><comment>s_endpgm</comment></shader>` +
		`</comments>`)
	res, err := disasm.ParseGraphics(ctx, data)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "vertex").ThatString(res.Vertex.Disassembly).Equals("v_nop")
	assert.For(ctx, "populated").ThatSlice(res.Populated()).Equals([]telemetry.Stage{telemetry.Vertex})

	cs, err := disasm.ParseCompute(ctx, []byte(`<comments>`+
		`<shader stage="XX"><comment>garbage</comment></shader>`+
		`<shader stage="CS"><comment>s_endpgm</comment></shader>`+
		`</comments>`))
	assert.For(ctx, "compute err").ThatError(err).Succeeded()
	assert.For(ctx, "compute").ThatString(cs.Disassembly).Equals("s_endpgm")
}

func TestParseCompute(t *testing.T) {
	ctx := log.Testing(t)
	data, err := disasm.Marshal(map[telemetry.Stage]string{telemetry.Compute: "  s_endpgm"})
	assert.For(ctx, "marshal").ThatError(err).Succeeded()
	res, err := disasm.ParseCompute(ctx, append(data, 0))
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "text").ThatString(res.Disassembly).Equals("  s_endpgm")

	for _, test := range []struct {
		name   string
		data   string
		expect error
	}{
		{"empty", `<comments></comments>`, disasm.ErrNoDisassembly},
		{"graphics stage", `<comments><shader stage="VS"><comment>x</comment></shader></comments>`, disasm.ErrNotCompute},
		{"two shaders", `<comments><shader stage="CS"><comment>x</comment></shader><shader stage="PS"><comment>y</comment></shader></comments>`, disasm.ErrNotCompute},
		{"no text", `<comments><shader stage="CS"><comment></comment></shader></comments>`, disasm.ErrNoDisassembly},
	} {
		_, err := disasm.ParseCompute(ctx, []byte(test.data))
		assert.For(ctx, test.name).ThatError(err).HasCause(test.expect)
	}
}
