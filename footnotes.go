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
	"strconv"
	"strings"
)

// FootnotesTransform numbers auto-numbered footnotes,
// labels auto-symbol footnotes,
// and links footnote and citation references to their notes.
//
// Auto-numbered footnotes receive the lowest numbers not already used
// as a name in the document.
// Anonymous auto-numbered references ("[#]_") match the unlabeled
// auto-numbered footnotes in order,
// and symbol references ("[*]_") match symbol footnotes in order.
var FootnotesTransform = &Transform{
	Name:     "footnotes",
	Priority: 620,
	Apply:    applyFootnotes,
}

// footnoteSymbols are the labels of auto-symbol footnotes.
// After the last symbol, labels repeat with doubled symbols, and so on.
var footnoteSymbols = []string{
	"*",
	"†", // dagger
	"‡", // double dagger
	"§", // section mark
	"¶", // pilcrow
	"#",
	"♠", // spade
	"♥", // heart
	"♦", // diamond
	"♣", // club
}

func applyFootnotes(doc *Document) error {
	start := doc.autofootnoteStart
	var labels []string
	doc.autofootnoteStart, labels = numberFootnotes(doc, start)
	numberFootnoteReferences(doc, labels)
	symbolizeFootnotes(doc)
	for _, fn := range doc.footnotes {
		for _, name := range fn.Names {
			resolveNoteReferences(doc, fn, doc.footnoteRefs[name])
		}
	}
	for _, c := range doc.citations {
		for _, name := range c.Names {
			resolveNoteReferences(doc, c, doc.citationRefs[name])
		}
	}
	return nil
}

// numberFootnotes labels the auto-numbered footnotes.
// It returns the next free number
// and the labels given to footnotes without names.
func numberFootnotes(doc *Document, n int) (next int, labels []string) {
	for _, fn := range doc.autofootnotes {
		var label string
		for {
			label = strconv.Itoa(n)
			n++
			if _, taken := doc.nameIDs[label]; !taken {
				break
			}
		}
		fn.Insert(0, NewTextElement(LabelTag, label))
		for _, name := range fn.Names {
			for _, ref := range doc.footnoteRefs[name] {
				ref.Append(NewText(label))
				ref.DelAttr("refname")
				linkNoteReference(doc, fn, ref)
			}
		}
		if len(fn.Names) == 0 && len(fn.DupNames) == 0 {
			fn.Names = append(fn.Names, label)
			doc.noteExplicitTarget(fn, fn)
			labels = append(labels, label)
		}
	}
	return n, labels
}

// numberFootnoteReferences pairs the anonymous auto-numbered references
// with the unlabeled auto-numbered footnotes in order.
func numberFootnoteReferences(doc *Document, labels []string) {
	i := 0
	refs := doc.autofootnoteRefs
	for j, ref := range refs {
		if ref.resolved || ref.HasAttr("refid") || ref.HasAttr("refname") {
			continue
		}
		if i >= len(labels) {
			msg := doc.report(ErrorLevel, fmt.Sprintf(
				"Too many autonumbered footnote references: only %d corresponding footnotes available.", len(labels)), ref)
			for _, extra := range refs[j:] {
				if extra.resolved || extra.HasAttr("refname") || extra.HasAttr("refid") {
					continue
				}
				doc.replaceWithProblematic(extra, "[#]_", msg)
			}
			return
		}
		label := labels[i]
		i++
		ref.Append(NewText(label))
		fn := doc.ids[doc.nameIDs[label]]
		linkNoteReference(doc, fn, ref)
	}
}

// symbolizeFootnotes labels the auto-symbol footnotes
// and pairs them with the symbol references in order.
func symbolizeFootnotes(doc *Document) {
	var labels []string
	for _, fn := range doc.symbolFootnotes {
		reps, index := doc.symbolFootnoteStart/len(footnoteSymbols), doc.symbolFootnoteStart%len(footnoteSymbols)
		label := strings.Repeat(footnoteSymbols[index], reps+1)
		labels = append(labels, label)
		fn.Insert(0, NewTextElement(LabelTag, label))
		doc.symbolFootnoteStart++
		doc.setID(fn, nil)
	}
	for i, ref := range doc.symbolFootnoteRefs {
		if i >= len(labels) {
			msg := doc.report(ErrorLevel, fmt.Sprintf(
				"Too many symbol footnote references: only %d corresponding footnotes available.", len(labels)), ref)
			for _, extra := range doc.symbolFootnoteRefs[i:] {
				if extra.resolved || extra.HasAttr("refid") {
					continue
				}
				doc.replaceWithProblematic(extra, "[*]_", msg)
			}
			return
		}
		ref.Append(NewText(labels[i]))
		linkNoteReference(doc, doc.symbolFootnotes[i], ref)
	}
}

// resolveNoteReferences links references by label to a footnote or citation.
func resolveNoteReferences(doc *Document, note *Element, refs []*Element) {
	for _, ref := range refs {
		if ref.resolved {
			continue
		}
		ref.DelAttr("refname")
		linkNoteReference(doc, note, ref)
	}
	note.resolved = true
}

// linkNoteReference points ref at note and adds a back-reference.
func linkNoteReference(doc *Document, note, ref *Element) {
	ref.SetAttr("refid", note.IDs[0])
	doc.noteRefID(ref)
	if len(ref.IDs) > 0 {
		note.Backrefs = appendUnique(note.Backrefs, ref.IDs[0])
	}
	note.noteReferenced()
	ref.resolved = true
}
