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
)

// Document is the root of a parsed document tree.
// It owns the reporter, the registries of names, IDs and references
// collected during parsing, and the table of pending elements.
// A Document must not be used from multiple goroutines.
type Document struct {
	*Element

	Settings *Settings
	Reporter *Reporter

	ids       map[string]*Element
	nameIDs   map[string]string // normalized name -> id, "" if ambiguous
	nameTypes map[string]bool   // normalized name -> explicit
	refNames  map[string][]*Element
	refIDs    map[string][]*Element
	idCounter int

	indirectTargets    []*Element
	autofootnotes      []*Element
	autofootnoteRefs   []*Element
	symbolFootnotes    []*Element
	symbolFootnoteRefs []*Element
	footnotes          []*Element
	citations          []*Element
	footnoteRefs       map[string][]*Element
	citationRefs       map[string][]*Element

	autofootnoteStart      int
	symbolFootnoteStart    int
	symbolFootnoteRefStart int

	substitutionDefs  map[string]*Element
	substitutionNames map[string]string

	pending []*Pending
	applied map[string]bool

	// transformMessages collects the messages reported while transforms run.
	transformMessages []*Element
	inTransform       bool
}

// NewDocument returns an empty document.
// A nil settings uses [DefaultSettings].
func NewDocument(source string, settings *Settings) *Document {
	if settings == nil {
		settings = DefaultSettings()
	}
	root := NewElement(DocumentTag)
	root.Source = source
	if source != "" {
		root.SetAttr("source", source)
	}
	d := &Document{
		Element:           root,
		Settings:          settings,
		Reporter:          newReporterFromSettings(source, settings),
		ids:               make(map[string]*Element),
		nameIDs:           make(map[string]string),
		nameTypes:         make(map[string]bool),
		refNames:          make(map[string][]*Element),
		refIDs:            make(map[string][]*Element),
		footnoteRefs:      make(map[string][]*Element),
		citationRefs:      make(map[string][]*Element),
		substitutionDefs:  make(map[string]*Element),
		substitutionNames: make(map[string]string),
		applied:           make(map[string]bool),
		idCounter:         1,
		autofootnoteStart: 1,
	}
	d.Reporter.Attach(func(msg *Element) {
		if d.inTransform {
			d.transformMessages = append(d.transformMessages, msg)
		}
	})
	return d
}

// ElementByID returns the element registered under the given ID or nil.
func (d *Document) ElementByID(id string) *Element {
	return d.ids[id]
}

// NameID returns the ID of the target registered for the normalized name.
// ok is false if the name is unknown.
// The ID is empty if the name is ambiguous.
func (d *Document) NameID(name string) (id string, ok bool) {
	id, ok = d.nameIDs[name]
	return
}

// setID assigns a unique ID to e (unless it has one) and registers it.
// IDs are derived from e's names when possible.
func (d *Document) setID(e *Element, msgnode *Element) string {
	if len(e.IDs) > 0 {
		for _, id := range e.IDs {
			if old, ok := d.ids[id]; ok && old != e {
				msg := d.Reporter.mustReport(Message{
					Level: SevereLevel,
					Text:  fmt.Sprintf("Duplicate ID: %q.", id),
					Line:  e.Line,
				})
				if msgnode != nil {
					msgnode.Append(msg)
				}
			}
			d.ids[id] = e
		}
		return e.IDs[0]
	}
	prefix := d.Settings.IDPrefix
	id := ""
	for _, name := range e.Names {
		id = MakeID(name)
		if id != "" {
			id = prefix + id
		}
		if _, taken := d.ids[id]; id != "" && !taken {
			break
		}
		id = ""
	}
	for id == "" {
		candidate := prefix + d.Settings.AutoIDPrefix + strconv.Itoa(d.idCounter)
		d.idCounter++
		if _, taken := d.ids[candidate]; !taken {
			id = candidate
		}
	}
	e.IDs = append(e.IDs, id)
	d.ids[id] = e
	return id
}

// noteImplicitTarget registers a target created by a section title
// or other construct not written as an explicit target.
func (d *Document) noteImplicitTarget(target, msgnode *Element) {
	id := d.setID(target, msgnode)
	d.setNameIDMap(target, id, msgnode, false)
}

// noteExplicitTarget registers a target written by the author.
func (d *Document) noteExplicitTarget(target, msgnode *Element) {
	id := d.setID(target, msgnode)
	d.setNameIDMap(target, id, msgnode, true)
}

func (d *Document) setNameIDMap(e *Element, id string, msgnode *Element, explicit bool) {
	for _, name := range append([]string(nil), e.Names...) {
		if _, exists := d.nameIDs[name]; exists {
			d.setDuplicateNameID(e, id, name, msgnode, explicit)
		} else {
			d.nameIDs[name] = id
			d.nameTypes[name] = explicit
		}
	}
}

func (d *Document) setDuplicateNameID(e *Element, id, name string, msgnode *Element, explicit bool) {
	oldID := d.nameIDs[name]
	oldExplicit := d.nameTypes[name]
	d.nameTypes[name] = oldExplicit || explicit
	if explicit {
		if oldExplicit {
			level := WarningLevel
			if oldID != "" {
				old := d.ids[oldID]
				if e.HasAttr("refuri") && len(old.Names) > 0 && old.HasAttr("refuri") && old.Attr("refuri") == e.Attr("refuri") {
					level = InfoLevel
				}
				if level > InfoLevel {
					dupname(old, name)
					d.nameIDs[name] = ""
				}
			}
			msg := d.Reporter.mustReport(Message{
				Level:    level,
				Text:     fmt.Sprintf("Duplicate explicit target name: %q.", name),
				Line:     e.Line,
				Backrefs: []string{id},
			})
			if msgnode != nil {
				msgnode.Append(msg)
			}
			dupname(e, name)
		} else {
			d.nameIDs[name] = id
			if oldID != "" {
				dupname(d.ids[oldID], name)
			}
		}
	} else {
		if oldID != "" && !oldExplicit {
			d.nameIDs[name] = ""
			dupname(d.ids[oldID], name)
		}
		dupname(e, name)
	}
	if !explicit || (!oldExplicit && oldID != "") {
		// Two implicit names leave neither resolvable.
		level := InfoLevel
		if !explicit && !oldExplicit {
			level = WarningLevel
		}
		msg := d.Reporter.mustReport(Message{
			Level:    level,
			Text:     fmt.Sprintf("Duplicate implicit target name: %q.", name),
			Line:     e.Line,
			Backrefs: []string{id},
		})
		if msgnode != nil {
			msgnode.Append(msg)
		}
	}
}

// dupname moves name from e.Names to e.DupNames.
func dupname(e *Element, name string) {
	e.DupNames = appendUnique(e.DupNames, name)
	for i, n := range e.Names {
		if n == name {
			e.Names = append(e.Names[:i:i], e.Names[i+1:]...)
			break
		}
	}
}

func (d *Document) noteRefName(e *Element) {
	name := e.Attr("refname")
	d.refNames[name] = append(d.refNames[name], e)
}

func (d *Document) noteRefID(e *Element) {
	id := e.Attr("refid")
	d.refIDs[id] = append(d.refIDs[id], e)
}

func (d *Document) noteIndirectTarget(target *Element) {
	d.indirectTargets = append(d.indirectTargets, target)
	if len(target.Names) > 0 {
		d.noteRefName(target)
	}
}

func (d *Document) noteAnonymousTarget(target *Element) {
	d.setID(target, nil)
}

func (d *Document) noteAutofootnote(footnote *Element) {
	d.setID(footnote, nil)
	d.autofootnotes = append(d.autofootnotes, footnote)
}

func (d *Document) noteAutofootnoteRef(ref *Element) {
	d.setID(ref, nil)
	d.autofootnoteRefs = append(d.autofootnoteRefs, ref)
}

func (d *Document) noteSymbolFootnote(footnote *Element) {
	d.setID(footnote, nil)
	d.symbolFootnotes = append(d.symbolFootnotes, footnote)
}

func (d *Document) noteSymbolFootnoteRef(ref *Element) {
	d.setID(ref, nil)
	d.symbolFootnoteRefs = append(d.symbolFootnoteRefs, ref)
}

func (d *Document) noteFootnote(footnote *Element) {
	d.setID(footnote, nil)
	d.footnotes = append(d.footnotes, footnote)
}

func (d *Document) noteFootnoteRef(ref *Element) {
	d.setID(ref, nil)
	name := ref.Attr("refname")
	d.footnoteRefs[name] = append(d.footnoteRefs[name], ref)
	d.noteRefName(ref)
}

func (d *Document) noteCitation(citation *Element) {
	d.citations = append(d.citations, citation)
}

func (d *Document) noteCitationRef(ref *Element) {
	d.setID(ref, nil)
	name := ref.Attr("refname")
	d.citationRefs[name] = append(d.citationRefs[name], ref)
	d.noteRefName(ref)
}

// noteSubstitutionDef registers a substitution definition.
// A later definition with the same name replaces an earlier one
// and produces an error.
func (d *Document) noteSubstitutionDef(def *Element, defName string, msgnode *Element) {
	name := whitespaceNormalizeName(defName)
	if old, ok := d.substitutionDefs[name]; ok {
		msg := d.Reporter.mustReport(Message{
			Level: ErrorLevel,
			Text:  fmt.Sprintf("Duplicate substitution definition name: %q.", name),
			Line:  def.Line,
		})
		if msgnode != nil {
			msgnode.Append(msg)
		}
		dupname(old, name)
	}
	d.substitutionDefs[name] = def
	d.substitutionNames[NormalizeName(name)] = name
}

// Pending is an entry in a document's table of placeholders.
// The placeholder element refers to its entry by index,
// so resolving the entry never leaves a dangling pointer in the tree.
type Pending struct {
	// Transform names the transform responsible for resolving the placeholder.
	Transform string
	// Details carries transform-specific data.
	Details map[string]any

	node     *Element
	resolved bool
}

// Node returns the placeholder element.
func (p *Pending) Node() *Element {
	return p.node
}

// Resolved reports whether the placeholder has been replaced.
func (p *Pending) Resolved() bool {
	return p.resolved
}

// NewPending creates a placeholder element and registers it with the document.
func (d *Document) NewPending(transform string, details map[string]any) *Element {
	e := NewElement(PendingTag)
	p := &Pending{
		Transform: transform,
		Details:   details,
		node:      e,
	}
	d.pending = append(d.pending, p)
	e.pending = len(d.pending)
	return e
}

// PendingFor returns the table entry of a placeholder element or nil.
func (d *Document) PendingFor(e *Element) *Pending {
	if !e.IsPending() || e.pending > len(d.pending) {
		return nil
	}
	return d.pending[e.pending-1]
}

// Unresolved returns the unresolved pending entries for the named transform
// in the order they were created.
// An empty name matches every transform.
func (d *Document) Unresolved(transform string) []*Pending {
	var list []*Pending
	for _, p := range d.pending {
		if !p.resolved && (transform == "" || p.Transform == transform) {
			list = append(list, p)
		}
	}
	return list
}

// Resolve replaces a placeholder with the given nodes and marks it resolved.
func (d *Document) Resolve(p *Pending, replacement ...Node) {
	p.resolved = true
	p.node.pending = 0
	if p.node.Parent() != nil {
		p.node.ReplaceSelf(replacement...)
	}
}
