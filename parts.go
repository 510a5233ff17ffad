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
	"math"
	"strconv"
	"strings"
)

// ClassAttributeTransform applies the classes of a content-less
// class directive to the next visible element.
var ClassAttributeTransform = &Transform{
	Name:     "class-attribute",
	Priority: 210,
	Apply: func(doc *Document) error {
		resolvePending(doc, classPending, func(p *Pending) []Node {
			return applyClassPending(doc, p)
		})
		return nil
	},
}

func applyClassPending(doc *Document, p *Pending) []Node {
	classes, _ := p.Details["class"].([]string)
	child := p.Node()
	for parent := child.Parent(); parent != nil; child, parent = parent, parent.Parent() {
		siblings := parent.Children()
		for i := parent.Index(child) + 1; i < len(siblings); i++ {
			e, ok := siblings[i].(*Element)
			if !ok || isInvisible(e.Tag) || e.Tag == SystemMessageTag {
				continue
			}
			e.Classes = append(e.Classes, classes...)
			return nil
		}
	}
	directive, _ := p.Details["directive"].(string)
	msg := doc.report(ErrorLevel, fmt.Sprintf("No suitable element following %q directive", directive), p.Node())
	return []Node{msg}
}

// SectNumTransform numbers the document's sections
// as requested by a sectnum directive.
var SectNumTransform = &Transform{
	Name:     "sectnum",
	Priority: 710,
	Apply: func(doc *Document) error {
		resolvePending(doc, sectnumPending, func(p *Pending) []Node {
			if !doc.Settings.SectNumTransform {
				return nil
			}
			n := &sectionNumberer{
				maxDepth: detailInt(p.Details, "depth", math.MaxInt),
				start:    detailInt(p.Details, "start", 1),
				prefix:   detailString(p.Details, "prefix"),
				suffix:   detailString(p.Details, "suffix"),
			}
			n.number(doc.Element, nil, 0)
			return nil
		})
		return nil
	},
}

type sectionNumberer struct {
	maxDepth, start int
	prefix, suffix  string
}

func (n *sectionNumberer) number(node *Element, numbers []string, depth int) {
	depth++
	num := n.start
	if len(numbers) > 0 {
		num = 1
	}
	for _, c := range node.Children() {
		sec, ok := c.(*Element)
		if !ok || sec.Tag != SectionTag {
			continue
		}
		nums := append(append([]string(nil), numbers...), strconv.Itoa(num))
		title := sec.FirstChildElement(TitleTag)
		if title != nil {
			gen := NewTextElement(GeneratedTag, n.prefix+strings.Join(nums, ".")+n.suffix+"\u00a0\u00a0\u00a0")
			gen.Classes = append(gen.Classes, "sectnum")
			title.Insert(0, gen)
			title.SetAttr("auto", "1")
		}
		if depth < n.maxDepth {
			n.number(sec, nums, depth)
		}
		num++
	}
}

func detailInt(details map[string]any, key string, def int) int {
	s, ok := details[key].(string)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func detailString(details map[string]any, key string) string {
	s, _ := details[key].(string)
	return s
}

// ContentsTransform builds the table of contents
// requested by a contents directive.
// A local table of contents covers the enclosing section only.
var ContentsTransform = &Transform{
	Name:     "contents",
	Priority: 720,
	Apply: func(doc *Document) error {
		for _, p := range doc.Unresolved(contentsPending) {
			buildContents(doc, p)
		}
		return nil
	},
}

type contentsBuilder struct {
	doc       *Document
	tocID     string
	backlinks string
	maxDepth  int
}

func buildContents(doc *Document, p *Pending) {
	topic := p.Node().Parent()
	root := doc.Element
	if _, local := p.Details["local"]; local {
		for root = topic.Parent(); root.Tag != SectionTag && root.Tag != DocumentTag; root = root.Parent() {
		}
	}
	b := &contentsBuilder{
		doc:       doc,
		backlinks: doc.Settings.TOCBacklinks,
		maxDepth:  detailInt(p.Details, "depth", math.MaxInt),
	}
	if len(topic.IDs) > 0 {
		b.tocID = topic.IDs[0]
	}
	if v := detailString(p.Details, "backlinks"); v != "" {
		b.backlinks = v
	}
	if list := b.build(root, 0); list != nil {
		doc.Resolve(p, list)
		return
	}
	doc.Resolve(p)
	topic.ReplaceSelf()
}

func (b *contentsBuilder) build(node *Element, level int) *Element {
	level++
	var items []Node
	auto := false
	for _, c := range node.Children() {
		sec, ok := c.(*Element)
		if !ok || sec.Tag != SectionTag || len(sec.IDs) == 0 {
			continue
		}
		title := sec.FirstChildElement(TitleTag)
		if title == nil {
			continue
		}
		auto = title.HasAttr("auto")
		ref := NewElement(ReferenceTag, entryText(title)...)
		ref.SetAttr("refid", sec.IDs[0])
		refID := b.doc.setID(ref, nil)
		item := NewElement(ListItemTag, NewElement(ParagraphTag, ref))
		if len(title.FindAll(func(e *Element) bool { return e.Tag == ReferenceTag })) == 0 {
			switch b.backlinks {
			case "entry":
				title.SetAttr("refid", refID)
			case "top":
				if b.tocID != "" {
					title.SetAttr("refid", b.tocID)
				}
			}
		}
		if level < b.maxDepth {
			if sub := b.build(sec, level); sub != nil {
				item.Append(sub)
			}
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	list := NewElement(BulletListTag, items...)
	if auto {
		list.Classes = append(list.Classes, "auto-toc")
	}
	return list
}

// entryText copies the contents of a section title for a contents entry,
// dropping footnote and citation references
// and unwrapping references, targets and problematic elements.
// Images are replaced by their alternate text.
func entryText(title *Element) []Node {
	var copyNodes func(nodes []Node) []Node
	copyNodes = func(nodes []Node) []Node {
		var out []Node
		for _, n := range nodes {
			e, ok := n.(*Element)
			if !ok {
				out = append(out, n.Clone())
				continue
			}
			switch e.Tag {
			case FootnoteReferenceTag, CitationReferenceTag:
			case ImageTag:
				if e.HasAttr("alt") {
					out = append(out, NewText(e.Attr("alt")))
				}
			case ReferenceTag, TargetTag, ProblematicTag:
				out = append(out, copyNodes(e.Children())...)
			default:
				c := e.cloneShallow()
				c.IDs, c.Names = nil, nil
				c.Append(copyNodes(e.Children())...)
				out = append(out, c)
			}
		}
		return out
	}
	return copyNodes(title.Children())
}

// TransitionsTransform checks the placement of transitions
// and moves a transition that ends a section
// to follow the section instead.
var TransitionsTransform = &Transform{
	Name:     "transitions",
	Priority: 830,
	Apply: func(doc *Document) error {
		for _, t := range doc.findTag(TransitionTag) {
			checkTransition(doc, t)
		}
		return nil
	},
}

func checkTransition(doc *Document, node *Element) {
	parent := node.Parent()
	index := parent.Index(node)
	isTag := func(i int, tag Tag) bool {
		e, ok := parent.Child(i).(*Element)
		return ok && e.Tag == tag
	}
	var msg *Element
	switch {
	case index == 0 || isTag(0, TitleTag) && (index == 1 || isTag(1, SubtitleTag) && index == 2):
		msg = doc.report(ErrorLevel, "Document or section may not begin with a transition.", node)
	case isTag(index-1, TransitionTag):
		msg = doc.report(ErrorLevel, "At least one body element must separate transitions; adjacent transitions are not allowed.", node)
	}
	if msg != nil {
		parent.Insert(index, msg)
		index++
	}
	if index != parent.ChildCount()-1 {
		return
	}
	sibling := node
	for index == sibling.Parent().ChildCount()-1 {
		sibling = sibling.Parent()
		if sibling.Parent() == nil {
			msg := doc.report(ErrorLevel, "Document may not end with a transition.", node)
			parent.Insert(parent.Index(node)+1, msg)
			return
		}
		index = sibling.Parent().Index(sibling)
	}
	outer := sibling.Parent()
	parent.Remove(parent.Index(node))
	outer.Insert(index+1, node)
}
