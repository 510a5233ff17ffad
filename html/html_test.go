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

package html

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/rst"
	"zombiezen.com/go/rst/internal/normhtml"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "Paragraph",
			source: "Hello *world*.\n",
			want:   "<p>Hello <em>world</em>.</p>",
		},
		{
			name:   "DocumentTitle",
			source: "Title\n=====\n\nHello ``code``.\n",
			want:   `<h1 class="title">Title</h1><p>Hello <code>code</code>.</p>`,
		},
		{
			name:   "BulletList",
			source: "- one\n- two\n",
			want:   "<ul><li><p>one</p></li><li><p>two</p></li></ul>",
		},
		{
			name:   "LiteralBlock",
			source: "Code::\n\n    a  <b>\n",
			want:   `<p>Code:</p><pre class="literal-block">a  &lt;b&gt;</pre>`,
		},
		{
			name:   "Transition",
			source: "one\n\n----------\n\ntwo\n",
			want:   `<p>one</p><hr class="docutils"><p>two</p>`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc, err := rst.Parse([]byte(test.source), nil)
			if err != nil {
				t.Fatal(err)
			}
			got := new(strings.Builder)
			if err := Render(got, doc); err != nil {
				t.Fatal(err)
			}
			normGot, err := normhtml.Normalize([]byte(got.String()))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, normGot); diff != "" {
				t.Errorf("Input:\n%s\nOutput:\n%s\nDiff (-want +got):\n%s", test.source, got, diff)
			}
		})
	}
}

func TestAppendNode(t *testing.T) {
	ref := rst.NewTextElement(rst.ReferenceTag, "site")
	ref.SetAttr("refuri", "https://example.com/?a=1&b=2")
	fnref := rst.NewTextElement(rst.FootnoteReferenceTag, "1")
	fnref.IDs = []string{"footnote-reference-1"}
	fnref.SetAttr("refid", "footnote-1")

	head := rst.NewTextElement(rst.EntryTag, "A")
	head.SetAttr("morecols", "1")
	table := rst.NewElement(rst.TableTag,
		rst.NewElement(rst.TGroupTag,
			rst.NewElement(rst.ColSpecTag),
			rst.NewElement(rst.ColSpecTag),
			rst.NewElement(rst.THeadTag, rst.NewElement(rst.RowTag, head)),
			rst.NewElement(rst.TBodyTag, rst.NewElement(rst.RowTag,
				rst.NewTextElement(rst.EntryTag, "x"),
				rst.NewTextElement(rst.EntryTag, "y"),
			)),
		),
	)

	sec := rst.NewElement(rst.SectionTag,
		rst.NewTextElement(rst.TitleTag, "Intro"),
		rst.NewElement(rst.ParagraphTag, rst.NewText("See "), ref, rst.NewText(" "), fnref),
		table,
		rst.NewElement(rst.CommentTag, rst.NewText("hidden")),
	)
	sec.IDs = []string{"intro"}

	got, err := normhtml.Normalize(new(Renderer).AppendNode(nil, sec))
	if err != nil {
		t.Fatal(err)
	}
	want := `<section id="intro"><h1>Intro</h1>` +
		`<p>See <a class="reference" href="https://example.com/?a=1&amp;b=2">site</a> ` +
		`<a class="footnote-reference" href="#footnote-1" id="footnote-reference-1">[1]</a></p>` +
		`<table><thead><tr><th colspan="2">A</th></tr></thead>` +
		`<tbody><tr><td>x</td><td>y</td></tr></tbody></table></section>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AppendNode(...) (-want +got):\n%s", diff)
	}
}
