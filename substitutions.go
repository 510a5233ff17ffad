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
	"strings"
)

// SubstitutionsTransform replaces substitution references
// with the contents of their definitions.
// Names are matched exactly first and then case-insensitively.
// References nested inside definitions are expanded too;
// a definition that refers back to itself is replaced by an error.
var SubstitutionsTransform = &Transform{
	Name:     "substitutions",
	Priority: 220,
	Apply:    applySubstitutions,
}

type substitutionRef struct {
	ref *Element
	// chain is the list of definition names being expanded.
	chain []string
	// origin is the reference in the document body that led here.
	origin *Element
}

func applySubstitutions(doc *Document) error {
	var queue []substitutionRef
	for _, ref := range doc.findTag(SubstitutionRefTag) {
		sr := substitutionRef{ref: ref, origin: ref}
		if def := ref.Parent(); def != nil && def.Tag == SubstitutionDefTag && len(def.Names) > 0 {
			sr.chain = []string{def.Names[0]}
		}
		queue = append(queue, sr)
	}
	for len(queue) > 0 {
		sr := queue[0]
		queue = queue[1:]
		ref := sr.ref
		if !doc.contains(ref) {
			// Dropped along with a circular definition.
			continue
		}
		refname := ref.Attr("refname")
		raw := "|" + ref.AsText() + "|"
		key, ok := doc.substitutionKey(refname)
		if !ok {
			msg := doc.report(ErrorLevel, fmt.Sprintf("Undefined substitution referenced: %q.", refname), ref)
			doc.replaceWithProblematic(ref, raw, msg)
			continue
		}
		if contains(sr.chain, key) {
			circularSubstitution(doc, sr, raw)
			continue
		}
		def := doc.substitutionDefs[key]
		parent := ref.Parent()
		i := parent.Index(ref)
		if def.HasAttr("ltrim") && i > 0 {
			if t, ok := parent.Child(i - 1).(*Text); ok {
				t.ReplaceSelf(NewText(strings.TrimRight(t.Value, " \t\n")))
			}
		}
		if def.HasAttr("rtrim") && i+1 < parent.ChildCount() {
			if t, ok := parent.Child(i + 1).(*Text); ok {
				t.ReplaceSelf(NewText(strings.TrimLeft(t.Value, " \t\n")))
			}
		}
		contents := def.Clone().(*Element)
		chain := append(append([]string(nil), sr.chain...), key)
		for _, nested := range contents.findTag(SubstitutionRefTag) {
			queue = append(queue, substitutionRef{ref: nested, chain: chain, origin: sr.origin})
		}
		children := contents.RemoveChildren()
		ref.ReplaceSelf(children...)
		for _, c := range children {
			if e, ok := c.(*Element); ok && e.HasAttr("refname") && isReferential(e.Tag) {
				doc.noteRefName(e)
			}
		}
	}
	return nil
}

// substitutionKey finds the definition name a reference refers to.
func (d *Document) substitutionKey(refname string) (string, bool) {
	if _, ok := d.substitutionDefs[refname]; ok {
		return refname, true
	}
	key, ok := d.substitutionNames[NormalizeName(refname)]
	return key, ok
}

func circularSubstitution(doc *Document, sr substitutionRef, raw string) {
	ref := sr.ref
	if parent := ref.Parent(); parent.Tag == SubstitutionDefTag {
		msg := doc.report(ErrorLevel, "Circular substitution definition detected:", parent,
			literalBlockNode(substitutionSource(parent)))
		parent.ReplaceSelf(msg)
		return
	}
	msg := doc.report(ErrorLevel, fmt.Sprintf("Circular substitution definition referenced: %q.", ref.Attr("refname")), sr.origin)
	doc.replaceWithProblematic(ref, raw, msg)
}

// substitutionSource returns the markup of a substitution definition
// for error messages.
func substitutionSource(def *Element) string {
	if def.rawSource != "" {
		return def.rawSource
	}
	name := ""
	if len(def.Names) > 0 {
		name = def.Names[0]
	}
	return fmt.Sprintf(".. |%s| %s", name, def.AsText())
}

// isReferential reports whether elements with the tag refer to targets by name.
func isReferential(tag Tag) bool {
	switch tag {
	case ReferenceTag, FootnoteReferenceTag, CitationReferenceTag:
		return true
	}
	return false
}

// contains reports whether e is part of d's tree.
func (d *Document) contains(e *Element) bool {
	for ; e != nil; e = e.Parent() {
		if e == d.Element {
			return true
		}
	}
	return false
}
