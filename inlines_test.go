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

package rst_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/rst"
	"zombiezen.com/go/rst/format"
)

func TestInlineMarkup(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		charLevel bool
		want      string
	}{
		{
			name:   "Emphasis",
			source: "*a* b",
			want:   "<paragraph>\n    <emphasis>\n        a\n     b\n",
		},
		{
			name:   "Strong",
			source: "**a**",
			want:   "<paragraph>\n    <strong>\n        a\n",
		},
		{
			name:   "Literal",
			source: "``*lit*``",
			want:   "<paragraph>\n    <literal>\n        *lit*\n",
		},
		{
			name:   "IntrawordStar",
			source: "2*x*3",
			want:   "<paragraph>\n    2*x*3\n",
		},
		{
			name:      "CharacterLevel",
			source:    "2*x*3",
			charLevel: true,
			want:      "<paragraph>\n    2\n    <emphasis>\n        x\n    3\n",
		},
		{
			name:   "QuotedStart",
			source: "'*' is a star",
			want:   "<paragraph>\n    '*' is a star\n",
		},
		{
			name:   "Escaped",
			source: `\*x*`,
			want:   "<paragraph>\n    *x*\n",
		},
		{
			name:   "StandaloneURI",
			source: "go to https://go.dev",
			want:   "<paragraph>\n    go to \n    <reference refuri=\"https://go.dev\">\n        https://go.dev\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			settings := quietSettings()
			settings.CharacterLevelInlineMarkup = test.charLevel
			doc, err := (&rst.Parser{Settings: settings}).Parse("test.rst", test.source)
			if err != nil {
				t.Fatal(err)
			}
			para := doc.FirstChildElement(rst.ParagraphTag)
			if para == nil {
				t.Fatal("no paragraph")
			}
			got := new(strings.Builder)
			if err := format.FormatNode(got, para); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, got.String()); diff != "" {
				t.Errorf("Input: %q\nDiff (-want +got):\n%s", test.source, diff)
			}
		})
	}
}

func TestInlineWarnings(t *testing.T) {
	doc, err := (&rst.Parser{Settings: quietSettings()}).Parse("test.rst", "an *unclosed start\n")
	if err != nil {
		t.Fatal(err)
	}
	prbs := findTag(doc.Element, rst.ProblematicTag)
	if len(prbs) != 1 || prbs[0].AsText() != "*" {
		t.Errorf("problematic elements = %v; want one for %q", prbs, "*")
	}
	warnings := messages(doc, "WARNING")
	if len(warnings) != 1 || warnings[0] != "Inline emphasis start-string without end-string." {
		t.Errorf("WARNING messages = %q", warnings)
	}
}
