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

// DocTitleTransform promotes the title of a lone top-level section
// to the document title,
// and then the title of a lone second-level section to the document subtitle.
// Only comments, targets, substitution definitions, system messages
// and pending elements may precede the section.
// The document's "title" attribute is set from the title
// unless the title directive already set it.
var DocTitleTransform = &Transform{
	Name:     "doctitle",
	Priority: 320,
	Apply: func(doc *Document) error {
		if doc.Settings.DocTitleTransform && promoteTitle(doc) {
			promoteSubtitle(doc.ids, doc.Element)
		}
		if !doc.HasAttr("title") {
			if title := doc.FirstChildElement(TitleTag); title != nil && doc.Index(title) == 0 {
				doc.SetAttr("title", title.AsText())
			}
		}
		return nil
	},
}

// SectionSubTitleTransform promotes the title of a lone subsection
// to the subtitle of its section.
var SectionSubTitleTransform = &Transform{
	Name:     "section-subtitle",
	Priority: 350,
	Apply: func(doc *Document) error {
		if !doc.Settings.SectSubtitleTransform {
			return nil
		}
		for _, sec := range doc.findTag(SectionTag) {
			promoteSubtitle(doc.ids, sec)
		}
		return nil
	},
}

// isPreBibliographic reports whether elements with the tag
// may precede a promoted title.
func isPreBibliographic(tag Tag) bool {
	switch tag {
	case CommentTag, SubstitutionDefTag, TargetTag, PendingTag,
		SystemMessageTag, TitleTag, SubtitleTag, DecorationTag:
		return true
	}
	return false
}

// candidateSection returns the index of the only section of node
// that is preceded solely by pre-bibliographic elements, or -1.
func candidateSection(node *Element) int {
	children := node.Children()
	for i, c := range children {
		e, ok := c.(*Element)
		if ok && isPreBibliographic(e.Tag) {
			continue
		}
		if !ok || e.Tag != SectionTag || i != len(children)-1 {
			return -1
		}
		return i
	}
	return -1
}

// moveAttributes appends the identifying attributes of from to to.
func moveAttributes(ids map[string]*Element, to, from *Element) {
	to.IDs = append(to.IDs, from.IDs...)
	to.Names = append(to.Names, from.Names...)
	to.DupNames = append(to.DupNames, from.DupNames...)
	to.Classes = append(to.Classes, from.Classes...)
	to.expectReferencedBy = append(to.expectReferencedBy, from.expectReferencedBy...)
	for _, id := range from.IDs {
		ids[id] = to
	}
	if to.Line == 0 {
		to.Source, to.Line = from.Source, from.Line
	}
}

// promoteTitle replaces the document's lone section
// by the section's contents, moving its title first.
func promoteTitle(doc *Document) bool {
	i := candidateSection(doc.Element)
	if i < 0 {
		return false
	}
	sec := doc.Child(i).(*Element)
	moveAttributes(doc.ids, doc.Element, sec)
	before := doc.RemoveChildren()[:i]
	contents := sec.RemoveChildren()
	doc.Append(contents[0])
	doc.Append(before...)
	doc.Append(contents[1:]...)
	return true
}

// promoteSubtitle replaces the lone subsection of a titled node
// by a subtitle and the subsection's contents.
func promoteSubtitle(ids map[string]*Element, node *Element) bool {
	i := candidateSection(node)
	if i < 0 {
		return false
	}
	sub := node.Child(i).(*Element)
	subtitle := NewElement(SubtitleTag)
	moveAttributes(ids, subtitle, sub)
	contents := sub.RemoveChildren()
	title := contents[0].(*Element)
	subtitle.Append(title.RemoveChildren()...)
	children := node.RemoveChildren()
	node.Append(children[0], subtitle)
	node.Append(children[1:i]...)
	node.Append(contents[1:]...)
	return true
}
