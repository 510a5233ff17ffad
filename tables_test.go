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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseGridTable(t *testing.T) {
	got, err := ParseGridTable([]string{
		"+-----+-----+",
		"| a   | b   |",
		"+=====+=====+",
		"| c         |",
		"+-----+-----+",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := &TableData{
		ColumnWidths: []int{5, 5},
		HeadRows: [][]*TableCell{
			{
				{Offset: 1, Lines: []string{"a"}},
				{Offset: 1, Lines: []string{"b"}},
			},
		},
		BodyRows: [][]*TableCell{
			{
				{MoreCols: 1, Offset: 3, Lines: []string{"c"}},
				nil,
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseGridTable(...) (-want +got):\n%s", diff)
	}
}

func TestParseGridTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "TooFewLines",
			lines: []string{"+--+", "+--+"},
			want:  "Malformed table; too few lines.",
		},
		{
			name:  "UnequalWidths",
			lines: []string{"+--+", "| a |", "+--+"},
			want:  "Malformed table; lines have unequal widths.",
		},
		{
			name: "MultipleSeparators",
			lines: []string{
				"+---+",
				"| a |",
				"+===+",
				"| b |",
				"+===+",
				"| c |",
				"+---+",
			},
			want: "Multiple head/body row separators (table lines 3 and 5); only one allowed.",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseGridTable(test.lines)
			var tableErr *TableError
			if !errors.As(err, &tableErr) {
				t.Fatalf("ParseGridTable(...) error = %v; want *TableError", err)
			}
			if tableErr.Msg != test.want {
				t.Errorf("error message = %q; want %q", tableErr.Msg, test.want)
			}
		})
	}
}

func TestParseSimpleTable(t *testing.T) {
	got, err := ParseSimpleTable([]string{
		"=====  =====",
		"A      B",
		"=====  =====",
		"1      2",
		"3      4",
		"=====  =====",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := &TableData{
		ColumnWidths: []int{5, 5},
		HeadRows: [][]*TableCell{
			{
				{Offset: 1, Lines: []string{"A"}},
				{Offset: 1, Lines: []string{"B"}},
			},
		},
		BodyRows: [][]*TableCell{
			{
				{Offset: 3, Lines: []string{"1"}},
				{Offset: 3, Lines: []string{"2"}},
			},
			{
				{Offset: 4, Lines: []string{"3"}},
				{Offset: 4, Lines: []string{"4"}},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSimpleTable(...) (-want +got):\n%s", diff)
	}
}

func TestParseSimpleTableDashSeparator(t *testing.T) {
	got, err := ParseSimpleTable([]string{
		"=====  =====",
		"A      B",
		"-----  -----",
		"1      2",
		"=====  =====",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := &TableData{
		ColumnWidths: []int{5, 5},
		HeadRows: [][]*TableCell{
			{
				{Offset: 1, Lines: []string{"A"}},
				{Offset: 1, Lines: []string{"B"}},
			},
		},
		BodyRows: [][]*TableCell{
			{
				{Offset: 3, Lines: []string{"1"}},
				{Offset: 3, Lines: []string{"2"}},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSimpleTable(...) (-want +got):\n%s", diff)
	}
}

func TestParseSimpleTableRowRules(t *testing.T) {
	// Several full-width rules divide rows without marking a header.
	got, err := ParseSimpleTable([]string{
		"=====  =====",
		"A      B",
		"-----  -----",
		"1      2",
		"-----  -----",
		"3      4",
		"=====  =====",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.HeadRows) != 0 || len(got.BodyRows) != 3 {
		t.Errorf("got %d head rows and %d body rows; want 0 and 3", len(got.HeadRows), len(got.BodyRows))
	}
}

func TestParseSimpleTableErrors(t *testing.T) {
	_, err := ParseSimpleTable([]string{"=====  ====="})
	var tableErr *TableError
	if !errors.As(err, &tableErr) {
		t.Fatalf("ParseSimpleTable(...) error = %v; want *TableError", err)
	}
	if want := "Malformed table; too few lines."; tableErr.Msg != want {
		t.Errorf("error message = %q; want %q", tableErr.Msg, want)
	}
}
