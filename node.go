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
	"sort"
	"strings"
)

// Node is an [*Element] or a [*Text].
// A node is owned by at most one parent element.
type Node interface {
	// Parent returns the element that contains the node
	// or nil if the node is detached.
	Parent() *Element
	// Clone returns a detached deep copy of the node.
	Clone() Node
	// AsText returns the node's text content with markup removed.
	AsText() string

	setParent(parent *Element)
}

// Text is a leaf node holding an immutable run of characters.
type Text struct {
	Value  string
	parent *Element
}

// NewText returns a new detached text node.
func NewText(s string) *Text {
	return &Text{Value: s}
}

// Parent returns the element containing t.
func (t *Text) Parent() *Element {
	if t == nil {
		return nil
	}
	return t.parent
}

// Clone returns a detached copy of t.
func (t *Text) Clone() Node {
	return &Text{Value: t.Value}
}

// AsText returns t.Value.
func (t *Text) AsText() string {
	return t.Value
}

func (t *Text) setParent(parent *Element) {
	t.parent = parent
}

// Element is an interior node of a document tree.
type Element struct {
	Tag Tag

	// IDs are the unique identifiers of the element.
	IDs []string
	// Names are the normalized reference names of the element.
	Names []string
	// DupNames are the names that collided with another element's.
	DupNames []string
	// Classes are the class values of the element.
	Classes []string
	// Backrefs are the IDs of elements that refer to this one.
	Backrefs []string

	// Source is the name of the source file the element was parsed from.
	Source string
	// Line is the 1-based line number in Source, or 0 if unknown.
	Line int

	attrs    map[string]string
	children []Node
	parent   *Element

	// pending is 1 + the index of the element's entry
	// in the owning document's pending table, or 0.
	pending int

	// Resolution state used by the reference transforms.
	resolved   bool
	referenced bool
	// expectReferencedBy are the targets whose names moved to this element.
	expectReferencedBy []*Element

	// rawSource is the markup the element was parsed from, if recorded.
	rawSource string
}

// noteReferenced marks e and the targets that propagated to it as referenced.
func (e *Element) noteReferenced() {
	e.referenced = true
	for _, t := range e.expectReferencedBy {
		t.referenced = true
	}
}

// NewElement returns a new detached element with the given children.
func NewElement(tag Tag, children ...Node) *Element {
	e := &Element{Tag: tag}
	e.Append(children...)
	return e
}

// NewTextElement returns a new element that contains a single text node.
// An empty string results in an element with no children.
func NewTextElement(tag Tag, text string) *Element {
	e := &Element{Tag: tag}
	if text != "" {
		e.Append(NewText(text))
	}
	return e
}

// Parent returns the element containing e.
func (e *Element) Parent() *Element {
	if e == nil {
		return nil
	}
	return e.parent
}

func (e *Element) setParent(parent *Element) {
	e.parent = parent
}

// Children returns the element's children.
// The returned slice must not be modified.
func (e *Element) Children() []Node {
	if e == nil {
		return nil
	}
	return e.children
}

// ChildCount returns the number of children of e.
func (e *Element) ChildCount() int {
	return len(e.Children())
}

// Child returns the i'th child of e.
func (e *Element) Child(i int) Node {
	return e.children[i]
}

// FirstChild returns the first child of e or nil.
func (e *Element) FirstChild() Node {
	if e.ChildCount() == 0 {
		return nil
	}
	return e.children[0]
}

// LastChild returns the last child of e or nil.
func (e *Element) LastChild() Node {
	if e.ChildCount() == 0 {
		return nil
	}
	return e.children[len(e.children)-1]
}

// Append adds nodes to the end of e's children,
// detaching them from any previous parent.
func (e *Element) Append(nodes ...Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		detach(n)
		n.setParent(e)
		e.children = append(e.children, n)
	}
}

// Insert inserts nodes before the i'th child of e.
func (e *Element) Insert(i int, nodes ...Node) {
	var list []Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		detach(n)
		n.setParent(e)
		list = append(list, n)
	}
	if len(list) == 0 {
		return
	}
	newChildren := make([]Node, 0, len(e.children)+len(list))
	newChildren = append(newChildren, e.children[:i]...)
	newChildren = append(newChildren, list...)
	newChildren = append(newChildren, e.children[i:]...)
	e.children = newChildren
}

// Index returns the position of child in e's children or -1.
func (e *Element) Index(child Node) int {
	for i, c := range e.Children() {
		if c == child {
			return i
		}
	}
	return -1
}

// Remove detaches the i'th child of e.
func (e *Element) Remove(i int) {
	e.children[i].setParent(nil)
	e.children = append(e.children[:i:i], e.children[i+1:]...)
}

// RemoveChildren detaches all children of e and returns them.
func (e *Element) RemoveChildren() []Node {
	old := e.children
	e.children = nil
	for _, c := range old {
		c.setParent(nil)
	}
	return old
}

// ReplaceSelf replaces e in its parent with the given nodes.
// It is a no-op if e has no parent.
func (e *Element) ReplaceSelf(nodes ...Node) {
	replaceNode(e, nodes...)
}

// ReplaceSelf replaces t in its parent with the given nodes.
func (t *Text) ReplaceSelf(nodes ...Node) {
	replaceNode(t, nodes...)
}

func replaceNode(n Node, nodes ...Node) {
	parent := n.Parent()
	if parent == nil {
		return
	}
	i := parent.Index(n)
	parent.Remove(i)
	parent.Insert(i, nodes...)
}

func detach(n Node) {
	if parent := n.Parent(); parent != nil {
		if i := parent.Index(n); i >= 0 {
			parent.Remove(i)
		}
	}
}

// Attr returns the value of the named attribute or the empty string.
func (e *Element) Attr(key string) string {
	return e.attrs[key]
}

// HasAttr reports whether the named attribute is set.
func (e *Element) HasAttr(key string) bool {
	_, ok := e.attrs[key]
	return ok
}

// SetAttr sets the named attribute.
func (e *Element) SetAttr(key, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[key] = value
}

// DelAttr removes the named attribute.
func (e *Element) DelAttr(key string) {
	delete(e.attrs, key)
}

// AttrKeys returns the names of the element's scalar attributes in sorted order.
func (e *Element) AttrKeys() []string {
	keys := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasClass reports whether class is in e.Classes.
func (e *Element) HasClass(class string) bool {
	return contains(e.Classes, class)
}

// IsPending reports whether e is a placeholder awaiting a transform.
func (e *Element) IsPending() bool {
	return e != nil && e.pending > 0
}

// AsText returns the concatenated text of e's descendants.
func (e *Element) AsText() string {
	if e == nil {
		return ""
	}
	sb := new(strings.Builder)
	for _, c := range e.children {
		sb.WriteString(c.AsText())
	}
	return sb.String()
}

// Clone returns a detached deep copy of e.
// The copy is not registered as pending.
func (e *Element) Clone() Node {
	c := e.cloneShallow()
	for _, child := range e.children {
		c.Append(child.Clone())
	}
	return c
}

func (e *Element) cloneShallow() *Element {
	c := &Element{
		Tag:      e.Tag,
		IDs:      append([]string(nil), e.IDs...),
		Names:    append([]string(nil), e.Names...),
		DupNames: append([]string(nil), e.DupNames...),
		Classes:  append([]string(nil), e.Classes...),
		Backrefs: append([]string(nil), e.Backrefs...),
		Source:   e.Source,
		Line:     e.Line,

		rawSource: e.rawSource,
	}
	for k, v := range e.attrs {
		c.SetAttr(k, v)
	}
	return c
}

// FirstChildElement returns the first child element of e with the given tag or nil.
func (e *Element) FirstChildElement(tag Tag) *Element {
	for _, c := range e.Children() {
		if ce, ok := c.(*Element); ok && ce.Tag == tag {
			return ce
		}
	}
	return nil
}

// elementChildren returns the children of e that are elements,
// ignoring text nodes.
func (e *Element) elementChildren() []*Element {
	var list []*Element
	for _, c := range e.Children() {
		if ce, ok := c.(*Element); ok {
			list = append(list, ce)
		}
	}
	return list
}

// FindAll returns the descendants of e (including e)
// for which match returns true, in document order.
func (e *Element) FindAll(match func(*Element) bool) []*Element {
	var found []*Element
	Walk(e, &WalkOptions{
		Pre: func(c *Cursor) bool {
			if el, ok := c.Node().(*Element); ok && match(el) {
				found = append(found, el)
			}
			return true
		},
	})
	return found
}

// findTag returns all descendant elements of e with the given tag in document order.
func (e *Element) findTag(tag Tag) []*Element {
	return e.FindAll(func(el *Element) bool { return el.Tag == tag })
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	if contains(list, s) {
		return list
	}
	return append(list, s)
}
