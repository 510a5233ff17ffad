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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testTree() *Element {
	return NewElement(DocumentTag,
		NewElement(ParagraphTag, NewText("a"), NewTextElement(EmphasisTag, "b")),
		NewElement(BlockQuoteTag, NewTextElement(ParagraphTag, "c")),
	)
}

func TestWalk(t *testing.T) {
	var events []string
	Walk(testTree(), &WalkOptions{
		Pre: func(c *Cursor) bool {
			switch n := c.Node().(type) {
			case *Element:
				events = append(events, "<"+string(n.Tag)+">")
				return n.Tag != BlockQuoteTag
			case *Text:
				events = append(events, n.Value)
			}
			return true
		},
		Post: func(c *Cursor) bool {
			if e, ok := c.Node().(*Element); ok {
				events = append(events, "</"+string(e.Tag)+">")
			}
			return true
		},
	})
	want := []string{
		"<document>",
		"<paragraph>", "a", "<emphasis>", "b", "</emphasis>", "</paragraph>",
		"<block_quote>",
		"</document>",
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestWalkReplace(t *testing.T) {
	root := testTree()
	Walk(root, &WalkOptions{
		Pre: func(c *Cursor) bool {
			if e, ok := c.Node().(*Element); ok && e.Tag == EmphasisTag {
				e.ReplaceSelf(NewText("B"))
				return false
			}
			return true
		},
	})
	if got, want := root.AsText(), "aBc"; got != want {
		t.Errorf("root.AsText() = %q; want %q", got, want)
	}
}

func TestAccept(t *testing.T) {
	sb := new(strings.Builder)
	v := &TagVisitor{
		EnterFuncs: map[Tag]func(*Element) VisitAction{
			EmphasisTag: func(e *Element) VisitAction {
				sb.WriteString("*" + e.AsText() + "*")
				return SkipNode
			},
			BlockQuoteTag: func(e *Element) VisitAction {
				sb.WriteString("> ")
				return Continue
			},
		},
		LeaveFuncs: map[Tag]func(*Element){
			ParagraphTag: func(e *Element) { sb.WriteString("\n") },
		},
		TextFunc: func(t *Text) { sb.WriteString(t.Value) },
	}
	Accept(testTree(), v)
	if got, want := sb.String(), "a*b*\n> c\n"; got != want {
		t.Errorf("output = %q; want %q", got, want)
	}
}

func TestAcceptStop(t *testing.T) {
	var entered []Tag
	v := &TagVisitor{
		DefaultEnter: func(e *Element) VisitAction {
			entered = append(entered, e.Tag)
			if e.Tag == EmphasisTag {
				return Stop
			}
			return Continue
		},
		DefaultLeave: func(e *Element) {
			t.Errorf("Leave(%s) called after Stop", e.Tag)
		},
	}
	Accept(testTree(), v)
	want := []Tag{DocumentTag, ParagraphTag, EmphasisTag}
	if diff := cmp.Diff(want, entered); diff != "" {
		t.Errorf("entered (-want +got):\n%s", diff)
	}
}
