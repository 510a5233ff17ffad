// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package rst

import (
	"fmt"
	"sort"

	"github.com/npillmayer/schuko/tracing"
)

// transformTracer traces with key 'rst.transform'.
func transformTracer() tracing.Trace {
	return tracing.Select("rst.transform")
}

// A Transform is one step of post-parse resolution.
// Transforms with lower priorities run first.
type Transform struct {
	// Name identifies the transform.
	// A document records the names of the transforms applied to it,
	// and a transform is never applied to the same document twice.
	Name     string
	Priority int
	Apply    func(doc *Document) error
}

// A Pipeline is an ordered set of transforms.
type Pipeline struct {
	transforms []*Transform
}

// NewPipeline returns a pipeline of the given transforms
// sorted by priority.
// Transforms of equal priority keep their relative order.
func NewPipeline(transforms ...*Transform) *Pipeline {
	p := new(Pipeline)
	p.Add(transforms...)
	return p
}

// DefaultPipeline returns the transforms that resolve
// every pending element and reference created by the parser.
func DefaultPipeline() *Pipeline {
	return NewPipeline(
		ClassAttributeTransform,
		SubstitutionsTransform,
		PropagateTargetsTransform,
		DocTitleTransform,
		SectionSubTitleTransform,
		StripClassesTransform,
		AnonymousHyperlinksTransform,
		IndirectHyperlinksTransform,
		FootnotesTransform,
		ExternalTargetsTransform,
		InternalTargetsTransform,
		SectNumTransform,
		ContentsTransform,
		StripCommentsTransform,
		TransitionsTransform,
		DanglingReferencesTransform,
		MessagesTransform,
		FilterMessagesTransform,
		FinalChecksTransform,
	)
}

// Add inserts transforms into the pipeline according to their priorities.
func (p *Pipeline) Add(transforms ...*Transform) {
	p.transforms = append(p.transforms, transforms...)
	sort.SliceStable(p.transforms, func(i, j int) bool {
		return p.transforms[i].Priority < p.transforms[j].Priority
	})
}

// Transforms returns the pipeline's transforms in application order.
func (p *Pipeline) Transforms() []*Transform {
	return append([]*Transform(nil), p.transforms...)
}

// Apply runs the pipeline's transforms on doc in order,
// skipping any that have already been applied to it.
// Messages reported by the transforms at or above the halt level
// stop the pipeline and are returned as a [*SystemMessageError].
func (p *Pipeline) Apply(doc *Document) (err error) {
	doc.inTransform = true
	defer func() { doc.inTransform = false }()
	defer recoverHalt(&err)
	for _, t := range p.transforms {
		if doc.applied[t.Name] {
			transformTracer().Debugf("%s: already applied", t.Name)
			continue
		}
		transformTracer().Debugf("applying %s (priority %d)", t.Name, t.Priority)
		if err := t.Apply(doc); err != nil {
			return fmt.Errorf("transform %s: %w", t.Name, err)
		}
		doc.applied[t.Name] = true
	}
	return nil
}

// Applied reports whether the named transform has been applied to d.
func (d *Document) Applied(name string) bool {
	return d.applied[name]
}

// report creates a system message at the line of node (if any)
// in the transform category.
func (d *Document) report(level Level, text string, node *Element, children ...Node) *Element {
	m := Message{
		Level:    level,
		Text:     text,
		Category: "rst.transform",
		Children: children,
	}
	for e := node; e != nil; e = e.Parent() {
		if e.Line > 0 {
			m.Source, m.Line = e.Source, e.Line
			break
		}
	}
	return d.Reporter.mustReport(m)
}

// resolvePending replaces every unresolved pending element of the named kind
// with the nodes returned by fn.
func resolvePending(doc *Document, transform string, fn func(p *Pending) []Node) {
	for _, p := range doc.Unresolved(transform) {
		doc.Resolve(p, fn(p)...)
	}
}

// replaceWithProblematic replaces node with a problematic element
// showing raw and linked to msg.
func (d *Document) replaceWithProblematic(node *Element, raw string, msg *Element) *Element {
	msgID := d.setID(msg, nil)
	prb := NewTextElement(ProblematicTag, raw)
	prb.Source, prb.Line = node.Source, node.Line
	prb.SetAttr("refid", msgID)
	for _, id := range node.IDs {
		prb.IDs = append(prb.IDs, id)
		d.ids[id] = prb
	}
	msg.Backrefs = appendUnique(msg.Backrefs, d.setID(prb, nil))
	node.ReplaceSelf(prb)
	return prb
}
