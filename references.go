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

// PropagateTargetsTransform moves the names and IDs of empty block-level
// targets (".. _name:") onto the element that follows them.
// The target keeps a refid pointing at its former ID.
var PropagateTargetsTransform = &Transform{
	Name:     "propagate-targets",
	Priority: 260,
	Apply:    propagateTargets,
}

// AnonymousHyperlinksTransform pairs anonymous references with
// anonymous targets in document order.
var AnonymousHyperlinksTransform = &Transform{
	Name:     "anonymous-hyperlinks",
	Priority: 440,
	Apply:    anonymousHyperlinks,
}

// IndirectHyperlinksTransform resolves chains of indirect targets
// (".. _a: b_") and the references to them.
var IndirectHyperlinksTransform = &Transform{
	Name:     "indirect-hyperlinks",
	Priority: 460,
	Apply:    indirectHyperlinks,
}

// ExternalTargetsTransform points references at the URIs of external targets.
var ExternalTargetsTransform = &Transform{
	Name:     "external-targets",
	Priority: 640,
	Apply:    externalTargets,
}

// InternalTargetsTransform points references at the IDs of internal targets.
var InternalTargetsTransform = &Transform{
	Name:     "internal-targets",
	Priority: 660,
	Apply:    internalTargets,
}

// DanglingReferencesTransform resolves the remaining named references
// against the document's names, replacing unknown or ambiguous ones
// with problematic elements.
// It then reports targets that were never referenced.
var DanglingReferencesTransform = &Transform{
	Name:     "dangling-references",
	Priority: 850,
	Apply:    danglingReferences,
}

func propagateTargets(doc *Document) error {
	for _, target := range doc.findTag(TargetTag) {
		if target.Parent() == nil || target.Parent().Tag.IsTextElement() ||
			target.HasAttr("refid") || target.HasAttr("refuri") || target.HasAttr("refname") ||
			len(target.IDs) == 0 {
			continue
		}
		next := nextElement(target)
		if next == nil || (isInvisible(next.Tag) || next.Tag == FootnoteTag || next.Tag == CitationTag) && next.Tag != TargetTag {
			continue
		}
		next.IDs = append(next.IDs, target.IDs...)
		next.Names = append(next.Names, target.Names...)
		for _, id := range target.IDs {
			doc.ids[id] = next
		}
		next.expectReferencedBy = append(next.expectReferencedBy, target)
		next.expectReferencedBy = append(next.expectReferencedBy, target.expectReferencedBy...)
		target.SetAttr("refid", target.IDs[0])
		target.IDs = nil
		target.Names = nil
		doc.noteRefID(target)
	}
	return nil
}

// nextElement returns the element following e in document order,
// skipping e's own descendants.
func nextElement(e *Element) *Element {
	for n := e; n.Parent() != nil; n = n.Parent() {
		parent := n.Parent()
		siblings := parent.Children()
		for i := parent.Index(n) + 1; i < len(siblings); i++ {
			if next, ok := siblings[i].(*Element); ok {
				return next
			}
		}
	}
	return nil
}

// isInvisible reports whether elements with the tag produce no output.
func isInvisible(tag Tag) bool {
	switch tag {
	case CommentTag, SubstitutionDefTag, TargetTag, PendingTag:
		return true
	}
	return false
}

func anonymousHyperlinks(doc *Document) error {
	isAnonymous := func(tag Tag) func(*Element) bool {
		return func(e *Element) bool { return e.Tag == tag && e.HasAttr("anonymous") }
	}
	refs := doc.FindAll(isAnonymous(ReferenceTag))
	targets := doc.FindAll(isAnonymous(TargetTag))
	n := min(len(refs), len(targets))
	for i := 0; i < n; i++ {
		bindAnonymous(doc, refs[i], targets[i])
	}
	mismatch := fmt.Sprintf("Anonymous hyperlink mismatch: %d references but %d targets.", len(refs), len(targets))
	for _, ref := range refs[n:] {
		source := referenceSource(ref)
		msg := doc.report(ErrorLevel, fmt.Sprintf("%s\nNo anonymous target for reference %q.", mismatch, source), ref)
		doc.replaceWithProblematic(ref, source, msg)
	}
	for _, target := range targets[n:] {
		doc.report(ErrorLevel, mismatch+"\nNo anonymous reference for target.", target)
	}
	return nil
}

// bindAnonymous points ref at the destination of an anonymous target,
// following targets propagated onto the next element.
func bindAnonymous(doc *Document, ref, target *Element) {
	target.referenced = true
	for {
		if target.HasAttr("refuri") {
			ref.SetAttr("refuri", target.Attr("refuri"))
			ref.resolved = true
			return
		}
		if len(target.IDs) == 0 {
			// Propagated target.
			if next := doc.ids[target.Attr("refid")]; next != nil && next != target {
				target = next
				continue
			}
			return
		}
		ref.SetAttr("refid", target.IDs[0])
		doc.noteRefID(ref)
		return
	}
}

func indirectHyperlinks(doc *Document) error {
	r := &indirectResolver{doc: doc, visiting: make(map[*Element]bool)}
	for _, target := range doc.indirectTargets {
		if !target.resolved {
			r.resolveTarget(target)
		}
		r.resolveReferences(target)
	}
	return nil
}

type indirectResolver struct {
	doc      *Document
	visiting map[*Element]bool
}

// resolveTarget replaces the refname of an indirect target
// with the refuri or refid of the target it names,
// following chains of indirect targets.
func (r *indirectResolver) resolveTarget(target *Element) {
	doc := r.doc
	refname, hasName := target.attrs["refname"]
	var id string
	if hasName {
		var ok bool
		id, ok = doc.nameIDs[refname]
		if !ok || id == "" {
			r.nonexistent(target)
			return
		}
	} else {
		id = target.Attr("refid")
	}
	reftarget := doc.ids[id]
	if reftarget == nil {
		r.nonexistent(target)
		return
	}
	reftarget.noteReferenced()
	if reftarget.Tag == TargetTag && !reftarget.resolved && reftarget.HasAttr("refname") {
		if r.visiting[target] {
			r.targetError(target, "forming a circular reference")
			return
		}
		r.visiting[target] = true
		r.resolveTarget(reftarget)
		delete(r.visiting, target)
	}
	switch {
	case reftarget.HasAttr("refuri"):
		target.SetAttr("refuri", reftarget.Attr("refuri"))
		target.DelAttr("refid")
	case reftarget.HasAttr("refid"):
		target.SetAttr("refid", reftarget.Attr("refid"))
		doc.noteRefID(target)
	case len(reftarget.IDs) > 0:
		target.SetAttr("refid", id)
		doc.noteRefID(target)
	default:
		r.nonexistent(target)
		return
	}
	if hasName {
		target.DelAttr("refname")
	}
	target.resolved = true
}

func (r *indirectResolver) nonexistent(target *Element) {
	if _, ok := r.doc.nameIDs[target.Attr("refname")]; ok {
		r.targetError(target, "which is a duplicate, and cannot be used as a unique reference")
	} else {
		r.targetError(target, "which does not exist")
	}
}

func (r *indirectResolver) targetError(target *Element, explanation string) {
	doc := r.doc
	naming := ""
	var refs []*Element
	if len(target.Names) > 0 {
		naming = fmt.Sprintf("%q ", target.Names[0])
	}
	for _, name := range target.Names {
		refs = append(refs, doc.refNames[name]...)
	}
	for _, id := range target.IDs {
		refs = append(refs, doc.refIDs[id]...)
	}
	if len(target.IDs) > 0 {
		naming += fmt.Sprintf("(id=%q)", target.IDs[0])
	}
	msg := doc.report(ErrorLevel, fmt.Sprintf("Indirect hyperlink target %s refers to target %q, %s.",
		naming, target.Attr("refname"), explanation), target)
	seen := make(map[*Element]bool)
	for _, ref := range refs {
		if seen[ref] || ref.Tag == TargetTag || !doc.contains(ref) {
			continue
		}
		seen[ref] = true
		doc.replaceWithProblematic(ref, referenceSource(ref), msg)
	}
	target.resolved = true
}

// resolveReferences points the references to an indirect target
// at the target's final destination.
func (r *indirectResolver) resolveReferences(target *Element) {
	doc := r.doc
	attr := ""
	switch {
	case target.HasAttr("refid"):
		attr = "refid"
	case target.HasAttr("refuri"):
		attr = "refuri"
	default:
		return
	}
	value := target.Attr(attr)
	update := func(refs []*Element, from string) {
		for _, ref := range refs {
			if ref.resolved {
				continue
			}
			ref.DelAttr(from)
			ref.SetAttr(attr, value)
			if attr == "refid" {
				doc.noteRefID(ref)
			}
			ref.resolved = true
			if ref.Tag == TargetTag {
				r.resolveReferences(ref)
			}
		}
	}
	for _, name := range target.Names {
		refs := doc.refNames[name]
		if len(refs) > 0 {
			target.noteReferenced()
		}
		update(refs, "refname")
	}
	for _, id := range target.IDs {
		refs := doc.refIDs[id]
		if len(refs) > 0 {
			target.noteReferenced()
		}
		update(refs, "refid")
	}
}

func externalTargets(doc *Document) error {
	for _, target := range doc.findTag(TargetTag) {
		if !target.HasAttr("refuri") {
			continue
		}
		refuri := target.Attr("refuri")
		for _, name := range target.Names {
			refs := doc.refNames[name]
			if len(refs) > 0 {
				target.noteReferenced()
			}
			for _, ref := range refs {
				if ref.resolved {
					continue
				}
				ref.DelAttr("refname")
				ref.SetAttr("refuri", refuri)
				ref.resolved = true
			}
		}
	}
	return nil
}

func internalTargets(doc *Document) error {
	for _, target := range doc.findTag(TargetTag) {
		if target.HasAttr("refuri") || target.HasAttr("refid") {
			continue
		}
		for _, name := range target.Names {
			refid := doc.nameIDs[name]
			refs := doc.refNames[name]
			if len(refs) > 0 {
				target.noteReferenced()
			}
			for _, ref := range refs {
				if ref.resolved {
					continue
				}
				if refid != "" {
					ref.DelAttr("refname")
					ref.SetAttr("refid", refid)
				}
				ref.resolved = true
			}
		}
	}
	return nil
}

func danglingReferences(doc *Document) error {
	refs := doc.FindAll(func(e *Element) bool {
		return isReferential(e.Tag) && !e.resolved && e.HasAttr("refname")
	})
	for _, ref := range refs {
		refname := ref.Attr("refname")
		id, ok := doc.nameIDs[refname]
		if id == "" {
			text := fmt.Sprintf("Unknown target name: %q.", refname)
			if ok {
				text = fmt.Sprintf("Duplicate target name, cannot be used as a unique reference: %q.", refname)
			}
			msg := doc.report(ErrorLevel, text, ref)
			doc.replaceWithProblematic(ref, referenceSource(ref), msg)
			continue
		}
		ref.DelAttr("refname")
		ref.SetAttr("refid", id)
		if target := doc.ids[id]; target != nil {
			target.noteReferenced()
		}
		ref.resolved = true
	}

	for _, target := range doc.findTag(TargetTag) {
		if target.referenced || target.HasAttr("anonymous") {
			continue
		}
		var naming string
		switch {
		case len(target.Names) > 0:
			naming = target.Names[0]
		case len(target.IDs) > 0:
			naming = target.IDs[0]
		default:
			naming = target.Attr("refid")
		}
		doc.report(InfoLevel, fmt.Sprintf("Hyperlink target %q is not referenced.", naming), target)
	}
	return nil
}

// referenceSource approximates the markup that produced a reference.
func referenceSource(ref *Element) string {
	text := ref.AsText()
	switch ref.Tag {
	case FootnoteReferenceTag, CitationReferenceTag:
		label := text
		switch ref.Attr("auto") {
		case "1":
			label = "#" + ref.Attr("refname")
		case "*":
			label = "*"
		}
		return "[" + label + "]_"
	}
	suffix := "_"
	if ref.HasAttr("anonymous") {
		suffix = "__"
	}
	if isSimpleName(text) && !strings.ContainsAny(text, " \n") {
		return text + suffix
	}
	return "`" + text + "`" + suffix
}
