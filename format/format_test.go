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

package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/rst"
)

func TestFormatNode(t *testing.T) {
	target := rst.NewElement(rst.TargetTag)
	target.IDs = []string{"my-name"}
	target.Names = []string{"my name"}
	target.SetAttr("refuri", "https://example.com/")

	lit := rst.NewTextElement(rst.LiteralBlockTag, "line one\n  line two")
	lit.Classes = []string{"code", `back\slash`}

	sec := rst.NewElement(rst.SectionTag,
		rst.NewTextElement(rst.TitleTag, "Title"),
		rst.NewElement(rst.ParagraphTag,
			rst.NewText("See "),
			rst.NewTextElement(rst.StrongTag, "this"),
			rst.NewText("."),
		),
		target,
		lit,
	)
	sec.IDs = []string{"title"}

	got := new(strings.Builder)
	if err := FormatNode(got, sec); err != nil {
		t.Fatal(err)
	}
	want := `<section ids="title">
    <title>
        Title
    <paragraph>
        See 
        <strong>
            this
        .
    <target ids="my-name" names="my\\ name" refuri="https://example.com/">
    <literal_block classes="code back\\\\slash">
        line one
          line two
`
	if diff := cmp.Diff(want, got.String()); diff != "" {
		t.Errorf("FormatNode(...) (-want +got):\n%s", diff)
	}
}

func TestFormatPending(t *testing.T) {
	doc := rst.NewDocument("test.rst", nil)
	p := doc.NewPending("sectnum", map[string]any{
		"depth":  "2",
		"prefix": "A.",
	})
	doc.Append(p)

	got := new(strings.Builder)
	if err := Format(got, doc); err != nil {
		t.Fatal(err)
	}
	want := `<document source="test.rst">
    <pending>
        .. internal attributes:
             .transform: sectnum
             .details:
                 depth: 2
                 prefix: A.
`
	if diff := cmp.Diff(want, got.String()); diff != "" {
		t.Errorf("Format(...) (-want +got):\n%s", diff)
	}
}

type failWriter struct{}

var errFail = errors.New("bork")

func (failWriter) Write(p []byte) (int, error) {
	return 0, errFail
}

func TestFormatWriteError(t *testing.T) {
	doc := rst.NewDocument("", nil)
	doc.Append(rst.NewTextElement(rst.ParagraphTag, "Hello"))
	if err := Format(failWriter{}, doc); !errors.Is(err, errFail) {
		t.Errorf("Format(failWriter{}, doc) = %v; want %v", err, errFail)
	}
}

func TestSerial(t *testing.T) {
	tests := []struct {
		values []string
		want   string
	}{
		{[]string{}, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a b"},
		{[]string{"a b"}, `a\ b`},
		{[]string{`a\b`, "c"}, `a\\b c`},
	}
	for _, test := range tests {
		if got := serial(test.values); got != test.want {
			t.Errorf("serial(%q) = %q; want %q", test.values, got, test.want)
		}
	}
}
