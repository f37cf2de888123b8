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

// Package disasm decodes the XML disassembly container produced by the AMD
// shader analysis extension.
//
// The container holds a "comments" element with one child per compiled
// shader. Each child carries a two letter "stage" attribute and a nested
// "comment" element holding the disassembly text:
//
//	<comments>
//	  <shader stage="VS"><comment>...</comment></shader>
//	  <shader stage="PS"><comment>...</comment></shader>
//	</comments>
package disasm

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/gpuanalyzer/rga/core/fault"
	"github.com/gpuanalyzer/rga/core/log"
	"github.com/gpuanalyzer/rga/dx12/telemetry"
	"github.com/pkg/errors"
)

const (
	ErrNoCommentsNode = fault.Const("Disassembly container has no comments node")
	ErrNoDisassembly  = fault.Const("Disassembly container holds no shader disassembly")
	ErrUnknownStage   = fault.Const("Disassembly container names an unknown shader stage")
	ErrDuplicateStage = fault.Const("Disassembly container repeats a shader stage")
	ErrNotCompute     = fault.Const("Disassembly container does not hold a single compute shader")
)

const (
	commentsTag = "comments"
	commentTag  = "comment"
	stageAttr   = "stage"
)

// node is a generic element, used because the shader element names are not
// fixed by the driver.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) child(name string) *node {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

// shader is one decoded child of the comments node.
type shader struct {
	stage telemetry.Stage
	text  string
}

// decode parses data and returns the children of the comments node.
// Children with an unknown stage code or without usable text are logged and
// dropped. A repeated stage code fails the whole container.
func decode(ctx context.Context, data []byte) ([]shader, error) {
	data = bytes.TrimRight(data, "\x00")
	root := node{}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "Decoding disassembly container")
	}
	comments := &root
	if root.XMLName.Local != commentsTag {
		if comments = root.child(commentsTag); comments == nil {
			return nil, ErrNoCommentsNode
		}
	}

	seen := map[telemetry.Stage]bool{}
	out := []shader{}
	for i := range comments.Nodes {
		n := &comments.Nodes[i]
		code, _ := n.attr(stageAttr)
		stage, ok := telemetry.StageFromCode(code)
		if !ok {
			log.E(ctx, "%v: <%s stage=%q> skipped", ErrUnknownStage, n.XMLName.Local, code)
			continue
		}
		if seen[stage] {
			return nil, log.Errf(ctx, ErrDuplicateStage, "Stage %v", code)
		}
		seen[stage] = true

		comment := n.child(commentTag)
		if comment == nil {
			log.W(ctx, "Stage %v has no %s element", code, commentTag)
			continue
		}
		text := strings.Trim(comment.Text, "\n")
		if text == "" {
			log.W(ctx, "Stage %v has no disassembly text", code)
			continue
		}
		out = append(out, shader{stage: stage, text: text})
	}
	return out, nil
}

// ParseGraphics decodes a graphics pipeline container. The returned result
// only carries disassembly. Compute and unknown stages are logged and
// skipped. It fails with ErrNoDisassembly if no stage was populated.
func ParseGraphics(ctx context.Context, data []byte) (telemetry.GraphicsPipelineResult, error) {
	ctx = log.Enter(ctx, "ParseGraphics")
	res := telemetry.GraphicsPipelineResult{}
	shaders, err := decode(ctx, data)
	if err != nil {
		return res, err
	}
	for _, s := range shaders {
		slot := res.Stage(s.stage)
		if slot == nil {
			log.E(ctx, "%v: %v in a graphics pipeline skipped", ErrUnknownStage, s.stage.Code())
			continue
		}
		slot.Disassembly = s.text
	}
	if len(res.Populated()) == 0 {
		return res, ErrNoDisassembly
	}
	log.D(ctx, "Parsed stages %v", res.Populated())
	return res, nil
}

// ParseCompute decodes a compute pipeline container, which must hold exactly
// one CS shader with disassembly.
func ParseCompute(ctx context.Context, data []byte) (telemetry.ShaderStageResult, error) {
	ctx = log.Enter(ctx, "ParseCompute")
	res := telemetry.ShaderStageResult{}
	shaders, err := decode(ctx, data)
	if err != nil {
		return res, err
	}
	switch {
	case len(shaders) == 0:
		return res, ErrNoDisassembly
	case len(shaders) > 1 || shaders[0].stage != telemetry.Compute:
		return res, log.Errf(ctx, ErrNotCompute, "Got %d shaders, first is %v", len(shaders), shaders[0].stage.Code())
	}
	res.Disassembly = shaders[0].text
	return res, nil
}

type xmlComment struct {
	Text string `xml:",cdata"`
}

type xmlShader struct {
	Stage   string     `xml:"stage,attr"`
	Comment xmlComment `xml:"comment"`
}

type xmlComments struct {
	XMLName xml.Name    `xml:"comments"`
	Shaders []xmlShader `xml:"shader"`
}

// Marshal encodes per stage text as a container. Stages are written in
// stage order.
func Marshal(stages map[telemetry.Stage]string) ([]byte, error) {
	doc := xmlComments{}
	for s := telemetry.Compute; s <= telemetry.Pixel; s++ {
		text, ok := stages[s]
		if !ok {
			continue
		}
		doc.Shaders = append(doc.Shaders, xmlShader{Stage: s.Code(), Comment: xmlComment{"\n" + text + "\n"}})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "Encoding disassembly container")
	}
	return append([]byte(xml.Header), out...), nil
}
