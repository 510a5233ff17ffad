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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// tags returns the tags of the element children of e,
// using "#text" for text nodes.
func tags(e *Element) []string {
	var list []string
	for _, c := range e.Children() {
		switch c := c.(type) {
		case *Element:
			list = append(list, string(c.Tag))
		case *Text:
			list = append(list, "#text")
		}
	}
	return list
}

func TestElementTreeOperations(t *testing.T) {
	para := NewElement(ParagraphTag, NewText("Hello, "), NewTextElement(EmphasisTag, "World"))
	sec := NewElement(SectionTag, NewTextElement(TitleTag, "Title"), para)

	if got := para.Parent(); got != sec {
		t.Errorf("para.Parent() = %p; want %p", got, sec)
	}
	if got, want := sec.AsText(), "TitleHello, World"; got != want {
		t.Errorf("sec.AsText() = %q; want %q", got, want)
	}

	quote := NewElement(BlockQuoteTag)
	quote.Append(para)
	if diff := cmp.Diff([]string{"title"}, tags(sec)); diff != "" {
		t.Errorf("sec children after moving para (-want +got):\n%s", diff)
	}
	if got := para.Parent(); got != quote {
		t.Errorf("para.Parent() = %p; want %p", got, quote)
	}

	sec.Insert(1, quote, NewElement(TransitionTag))
	if diff := cmp.Diff([]string{"title", "block_quote", "transition"}, tags(sec)); diff != "" {
		t.Errorf("sec children after Insert (-want +got):\n%s", diff)
	}
	if got := sec.Index(quote); got != 1 {
		t.Errorf("sec.Index(quote) = %d; want 1", got)
	}

	quote.ReplaceSelf(para)
	if diff := cmp.Diff([]string{"title", "paragraph", "transition"}, tags(sec)); diff != "" {
		t.Errorf("sec children after ReplaceSelf (-want +got):\n%s", diff)
	}
	if quote.Parent() != nil {
		t.Error("quote still has a parent after ReplaceSelf")
	}

	sec.Remove(2)
	removed := sec.RemoveChildren()
	if len(removed) != 2 || sec.ChildCount() != 0 {
		t.Errorf("RemoveChildren() returned %d nodes, left %d; want 2, 0", len(removed), sec.ChildCount())
	}
	for _, n := range removed {
		if n.Parent() != nil {
			t.Errorf("%v still has a parent after RemoveChildren", n)
		}
	}
}

func TestElementClone(t *testing.T) {
	orig := NewElement(ReferenceTag, NewText("link"))
	orig.IDs = []string{"id1"}
	orig.SetAttr("refuri", "https://example.com/")
	parent := NewElement(ParagraphTag, orig)

	c := orig.Clone().(*Element)
	if c.Parent() != nil {
		t.Error("clone has a parent")
	}
	if parent.ChildCount() != 1 {
		t.Errorf("parent.ChildCount() = %d after Clone; want 1", parent.ChildCount())
	}
	c.IDs[0] = "changed"
	c.SetAttr("refuri", "changed")
	if orig.IDs[0] != "id1" || orig.Attr("refuri") != "https://example.com/" {
		t.Error("modifying clone changed the original")
	}
	if got := c.AsText(); got != "link" {
		t.Errorf("c.AsText() = %q; want %q", got, "link")
	}
}

func TestElementAttrs(t *testing.T) {
	e := NewElement(ImageTag)
	if e.HasAttr("uri") {
		t.Error("new element has uri attribute")
	}
	e.SetAttr("uri", "a.png")
	e.SetAttr("alt", "")
	if diff := cmp.Diff([]string{"alt", "uri"}, e.AttrKeys()); diff != "" {
		t.Errorf("AttrKeys() (-want +got):\n%s", diff)
	}
	if !e.HasAttr("alt") {
		t.Error("empty attribute not reported by HasAttr")
	}
	e.DelAttr("uri")
	if got := e.Attr("uri"); got != "" {
		t.Errorf(`Attr("uri") = %q after DelAttr`, got)
	}
}

func TestFindAll(t *testing.T) {
	inner := NewTextElement(EmphasisTag, "b")
	root := NewElement(SectionTag,
		NewElement(ParagraphTag, NewTextElement(EmphasisTag, "a")),
		NewElement(BlockQuoteTag, NewElement(ParagraphTag, inner)),
	)
	got := root.findTag(EmphasisTag)
	if len(got) != 2 || got[1] != inner {
		t.Errorf("findTag(EmphasisTag) = %v; want 2 elements ending with inner", got)
	}
	if all := root.FindAll(func(*Element) bool { return true }); len(all) != 6 || all[0] != root {
		t.Errorf("FindAll(true) returned %d elements; want 6 starting with root", len(all))
	}
}
