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
	"sync"
	"unicode/utf8"

	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/uax11"
)

// Lines is an indexed sequence of source lines.
// Each line remembers the source file and line offset it came from,
// so slices of Lines passed to nested parses keep their provenance.
type Lines struct {
	data  []string
	items []lineItem
}

type lineItem struct {
	source string
	offset int // 0-based line number in source
}

// NewLines splits text into lines, expanding tabs to tabWidth columns
// and removing trailing whitespace.
// Carriage returns and CRLF pairs are treated as line endings,
// and form feeds and vertical tabs become spaces.
func NewLines(text, source string, tabWidth int) *Lines {
	data := splitLines(text, tabWidth)
	l := &Lines{
		data:  data,
		items: make([]lineItem, len(data)),
	}
	for i := range l.items {
		l.items[i] = lineItem{source: source, offset: i}
	}
	return l
}

func splitLines(text string, tabWidth int) []string {
	if tabWidth <= 0 {
		tabWidth = 8
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	data := make([]string, len(raw))
	for i, line := range raw {
		data[i] = strings.TrimRight(expandTabs(line, tabWidth), " ")
	}
	return data
}

// expandTabs replaces tabs with spaces up to the next multiple of tabWidth columns.
func expandTabs(line string, tabWidth int) string {
	if !strings.ContainsAny(line, "\t\v\f") {
		return line
	}
	sb := new(strings.Builder)
	col := 0
	for _, c := range line {
		switch c {
		case '\t':
			n := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\v', '\f':
			sb.WriteByte(' ')
			col++
		default:
			sb.WriteRune(c)
			col++
		}
	}
	return sb.String()
}

// Len returns the number of lines.
func (l *Lines) Len() int {
	if l == nil {
		return 0
	}
	return len(l.data)
}

// Line returns the i'th line.
func (l *Lines) Line(i int) string {
	return l.data[i]
}

// Info returns the source name and 1-based line number of the i'th line.
func (l *Lines) Info(i int) (source string, lineno int) {
	if i < 0 || i >= len(l.items) {
		if len(l.items) > 0 {
			last := l.items[len(l.items)-1]
			return last.source, last.offset + 2
		}
		return "", 0
	}
	return l.items[i].source, l.items[i].offset + 1
}

// Slice returns lines [start, end) sharing provenance with l.
func (l *Lines) Slice(start, end int) *Lines {
	return &Lines{
		data:  append([]string(nil), l.data[start:end]...),
		items: append([]lineItem(nil), l.items[start:end]...),
	}
}

// Strings returns a copy of the line text.
func (l *Lines) Strings() []string {
	return append([]string(nil), l.data...)
}

// Join returns the lines joined with newlines.
func (l *Lines) Join() string {
	return strings.Join(l.data, "\n")
}

// trimLeft removes n columns from the beginning of each line from start on.
func (l *Lines) trimLeft(n, start int) {
	for i := start; i < len(l.data); i++ {
		if len(l.data[i]) >= n {
			l.data[i] = l.data[i][n:]
		} else {
			l.data[i] = strings.TrimLeft(l.data[i], " ")
		}
	}
}

// trimStart removes the first n lines.
func (l *Lines) trimStart(n int) {
	l.data = l.data[n:]
	l.items = l.items[n:]
}

// trimEnd removes the last n lines.
func (l *Lines) trimEnd(n int) {
	l.data = l.data[:len(l.data)-n]
	l.items = l.items[:len(l.items)-n]
}

// stripBlankEdges removes leading and trailing blank lines.
// It returns the number of leading lines removed.
func (l *Lines) stripBlankEdges() int {
	n := 0
	for l.Len() > 0 && l.data[0] == "" {
		l.trimStart(1)
		n++
	}
	for l.Len() > 0 && l.data[l.Len()-1] == "" {
		l.trimEnd(1)
	}
	return n
}

// indentedBlock extracts the block of indented (or blank) lines beginning at start.
// If firstIndent >= 0, the first line is taken regardless of its indentation
// and firstIndent columns are removed from it.
// If blockIndent >= 0, lines must be indented at least that much
// and exactly that much is removed from each line;
// otherwise the minimum indentation of the block's non-blank lines is removed.
// If untilBlank is true, the block ends at the first blank line.
// If stripIndent is false, only the first line is trimmed.
// blankFinish reports whether the block ended with a blank line or at the end of input.
func (l *Lines) indentedBlock(start int, untilBlank, stripIndent bool, firstIndent, blockIndent int) (block *Lines, indent int, blankFinish bool) {
	indent = blockIndent
	if blockIndent >= 0 && firstIndent < 0 {
		firstIndent = blockIndent
	}
	end := start
	if firstIndent >= 0 {
		end++
	}
	blankFinish = true
	for ; end < len(l.data); end++ {
		line := l.data[end]
		if line != "" && (line[0] != ' ' || (blockIndent >= 0 && strings.TrimSpace(line[:min(blockIndent, len(line))]) != "")) {
			blankFinish = end > start && l.data[end-1] == ""
			break
		}
		stripped := strings.TrimLeft(line, " ")
		if stripped == "" {
			if untilBlank {
				break
			}
			continue
		}
		if blockIndent < 0 {
			lineIndent := len(line) - len(stripped)
			if indent < 0 || lineIndent < indent {
				indent = lineIndent
			}
		}
	}
	block = l.Slice(start, end)
	if firstIndent >= 0 && block.Len() > 0 {
		if len(block.data[0]) >= firstIndent {
			block.data[0] = block.data[0][firstIndent:]
		} else {
			block.data[0] = strings.TrimLeft(block.data[0], " ")
		}
	}
	if indent > 0 && stripIndent {
		from := 0
		if firstIndent >= 0 {
			from = 1
		}
		block.trimLeft(indent, from)
	}
	if indent < 0 {
		indent = 0
	}
	return block, indent, blankFinish
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var graphemeSetup sync.Once

// columnWidth returns the number of terminal columns the text occupies,
// counting East Asian wide and fullwidth characters as two columns
// and combining sequences as one grapheme.
// Invalid bytes and replacement characters count as one column each.
func columnWidth(text string) int {
	if isASCII(text) {
		return len(text)
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	// The grapheme splitter stops at the first utf8.RuneError,
	// so measure the runs between replacement characters separately.
	runs := strings.Split(text, string(utf8.RuneError))
	w := len(runs) - 1
	for _, run := range runs {
		w += graphemeWidth(run)
	}
	return w
}

func graphemeWidth(text string) int {
	if isASCII(text) {
		return len(text)
	}
	graphemeSetup.Do(grapheme.SetupGraphemeClasses)
	gstr := grapheme.StringFromString(text)
	w := 0
	for i, n := 0, gstr.Len(); i < n; i++ {
		w += uax11.Width([]byte(gstr.Nth(i)), uax11.LatinContext)
	}
	return w
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// leadingSpaces returns the number of leading space characters in s.
func leadingSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// concatLines returns a new line list holding a's lines followed by b's.
func concatLines(a, b *Lines) *Lines {
	out := &Lines{
		data:  make([]string, 0, a.Len()+b.Len()),
		items: make([]lineItem, 0, a.Len()+b.Len()),
	}
	out.data = append(append(out.data, a.data...), b.data...)
	out.items = append(append(out.items, a.items...), b.items...)
	return out
}

// newLinesAt returns lines taken from source,
// the first of which is at the 0-based line offset.
func newLinesAt(data []string, source string, offset int) *Lines {
	l := &Lines{
		data:  append([]string(nil), data...),
		items: make([]lineItem, len(data)),
	}
	for i := range l.items {
		l.items[i] = lineItem{source: source, offset: offset + i}
	}
	return l
}
