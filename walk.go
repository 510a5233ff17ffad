// Copyright 2024 Ross Light
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

// A Cursor describes a [Node] encountered during [Walk].
type Cursor struct {
	node   Node
	parent *Element
	index  int
}

// Node returns the current [Node].
func (c *Cursor) Node() Node {
	return c.node
}

// Parent returns the parent of the current [Node]
// (as returned by [*Cursor.Node]).
func (c *Cursor) Parent() *Element {
	return c.parent
}

// Index returns the position of the current node in its parent's children
// or -1 for the root.
func (c *Cursor) Index() int {
	return c.index
}

// WalkOptions is the set of parameters to [Walk].
type WalkOptions struct {
	// If Pre is not nil, it is called for each node before the node's children are traversed (pre-order).
	// If Pre returns false, no children are traversed, and Post is not called for that node.
	Pre func(c *Cursor) bool
	// If Post is not nil, it is called for each node after the node's children are traversed (post-order).
	// If Post returns false, traversal is terminated and Walk returns immediately.
	Post func(c *Cursor) bool
}

// Walk traverses a [Node] recursively, starting with root,
// and calling [WalkOptions.Pre] and [WalkOptions.Post].
// The set of children of each element is captured
// when the element is entered,
// so callbacks may replace the current node without disturbing the traversal.
func Walk(root Node, opts *WalkOptions) {
	type walkFrame struct {
		node   Node
		parent *Element
		index  int
		post   bool
	}

	stack := []walkFrame{{node: root, parent: root.Parent(), index: -1}}
	cursor := new(Cursor)
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cursor.node = curr.node
		cursor.parent = curr.parent
		cursor.index = curr.index
		if curr.post {
			if opts.Post != nil && !opts.Post(cursor) {
				break
			}
			continue
		}

		if opts.Pre != nil && !opts.Pre(cursor) {
			continue
		}
		curr.post = true
		stack = append(stack, curr)
		el, ok := curr.node.(*Element)
		if !ok {
			continue
		}
		children := el.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, walkFrame{
				parent: el,
				node:   children[i],
				index:  i,
			})
		}
	}
}

// VisitAction tells [Accept] how to continue after visiting a node.
type VisitAction int

const (
	// Continue visits the node's children and then leaves the node.
	Continue VisitAction = iota
	// SkipChildren does not visit the node's children
	// but still calls Leave for the node.
	SkipChildren
	// SkipNode does not visit the node's children
	// and does not call Leave for the node.
	SkipNode
	// Stop ends the traversal.
	Stop
)

// Visitor is implemented by document writers.
// Accept calls the handler registered for a node's tag,
// falling back to the Default methods for tags without a handler.
type Visitor interface {
	Enter(n Node) VisitAction
	Leave(n Node)
}

// TagVisitor dispatches [Visitor] calls by element tag.
// Tags without entries in EnterFuncs or LeaveFuncs
// are handled by DefaultEnter and DefaultLeave.
type TagVisitor struct {
	EnterFuncs   map[Tag]func(e *Element) VisitAction
	LeaveFuncs   map[Tag]func(e *Element)
	DefaultEnter func(e *Element) VisitAction
	DefaultLeave func(e *Element)
	// TextFunc is called for text nodes.
	TextFunc func(t *Text)
}

// Enter implements [Visitor].
func (v *TagVisitor) Enter(n Node) VisitAction {
	switch n := n.(type) {
	case *Text:
		if v.TextFunc != nil {
			v.TextFunc(n)
		}
		return Continue
	case *Element:
		if f := v.EnterFuncs[n.Tag]; f != nil {
			return f(n)
		}
		if v.DefaultEnter != nil {
			return v.DefaultEnter(n)
		}
	}
	return Continue
}

// Leave implements [Visitor].
func (v *TagVisitor) Leave(n Node) {
	e, ok := n.(*Element)
	if !ok {
		return
	}
	if f := v.LeaveFuncs[e.Tag]; f != nil {
		f(e)
		return
	}
	if v.DefaultLeave != nil {
		v.DefaultLeave(e)
	}
}

// Accept traverses the tree rooted at root in document order,
// calling v's Enter and Leave methods.
func Accept(root Node, v Visitor) {
	stopped := false
	Walk(root, &WalkOptions{
		Pre: func(c *Cursor) bool {
			if stopped {
				return false
			}
			switch v.Enter(c.Node()) {
			case SkipChildren:
				v.Leave(c.Node())
				return false
			case SkipNode:
				return false
			case Stop:
				stopped = true
				return false
			}
			return true
		},
		Post: func(c *Cursor) bool {
			if stopped {
				return false
			}
			v.Leave(c.Node())
			return true
		},
	})
}
