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

func TestNewLines(t *testing.T) {
	tests := []struct {
		text     string
		tabWidth int
		want     []string
	}{
		{"", 8, nil},
		{"\n", 8, nil},
		{"a", 8, []string{"a"}},
		{"a\nb\n", 8, []string{"a", "b"}},
		{"a\r\nb\rc", 8, []string{"a", "b", "c"}},
		{"a  \n\n", 8, []string{"a", ""}},
		{"\tx", 8, []string{"        x"}},
		{"a\tb", 4, []string{"a   b"}},
		{"ab\tc", 0, []string{"ab      c"}},
		{"a\fb\vc", 8, []string{"a b c"}},
		{"\x80a\n=====", 8, []string{"\ufffda", "====="}},
	}
	for _, test := range tests {
		got := NewLines(test.text, "<test>", test.tabWidth).Strings()
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("NewLines(%q, %d) (-want +got):\n%s", test.text, test.tabWidth, diff)
		}
	}
}

func TestColumnWidth(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Title", 5},
		{"A (世). 😀", 10},
		{"世界", 4},
		{"\ufffd", 1},
		{"\x80", 1},
		{"\x80\x00", 2},
		{"a\xffb", 3},
		{"\ufffd世", 3},
	}
	for _, test := range tests {
		if got := columnWidth(test.text); got != test.want {
			t.Errorf("columnWidth(%q) = %d; want %d", test.text, got, test.want)
		}
	}
}

func TestLinesInfo(t *testing.T) {
	lines := NewLines("one\ntwo\nthree\n", "doc.rst", 8)
	if src, lineno := lines.Info(1); src != "doc.rst" || lineno != 2 {
		t.Errorf("lines.Info(1) = %q, %d; want %q, 2", src, lineno, "doc.rst")
	}
	if src, lineno := lines.Info(10); src != "doc.rst" || lineno != 4 {
		t.Errorf("lines.Info(10) = %q, %d; want %q, 4", src, lineno, "doc.rst")
	}
	sub := lines.Slice(1, 3)
	if got := sub.Len(); got != 2 {
		t.Errorf("sub.Len() = %d; want 2", got)
	}
	if src, lineno := sub.Info(0); src != "doc.rst" || lineno != 2 {
		t.Errorf("sub.Info(0) = %q, %d; want %q, 2", src, lineno, "doc.rst")
	}
	if got, want := sub.Join(), "two\nthree"; got != want {
		t.Errorf("sub.Join() = %q; want %q", got, want)
	}
}

func TestIndentedBlock(t *testing.T) {
	lines := NewLines("  a\n    b\n\nc\n", "<test>", 8)
	block, indent, blankFinish := lines.indentedBlock(0, false, true, -1, -1)
	if diff := cmp.Diff([]string{"a", "  b", ""}, block.Strings()); diff != "" {
		t.Errorf("block (-want +got):\n%s", diff)
	}
	if indent != 2 {
		t.Errorf("indent = %d; want 2", indent)
	}
	if !blankFinish {
		t.Error("blankFinish = false; want true")
	}

	block, _, blankFinish = lines.indentedBlock(0, true, true, -1, -1)
	if diff := cmp.Diff([]string{"a", "  b"}, block.Strings()); diff != "" {
		t.Errorf("untilBlank block (-want +got):\n%s", diff)
	}
	if !blankFinish {
		t.Error("untilBlank blankFinish = false; want true")
	}
}
