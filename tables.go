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
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
)

// TableData is the uniform result of parsing a grid or simple table.
type TableData struct {
	// ColumnWidths holds the width of each column in characters.
	ColumnWidths []int
	HeadRows     [][]*TableCell
	BodyRows     [][]*TableCell
}

// TableCell is one cell of a [TableData] row.
// Rows contain nil in positions covered by a spanning cell.
type TableCell struct {
	// MoreRows is the number of additional rows the cell spans.
	MoreRows int
	// MoreCols is the number of additional columns the cell spans.
	MoreCols int
	// Offset is the index of the cell's first content line within the table block.
	Offset int
	// Lines is the cell content with indentation and trailing spaces removed.
	Lines []string
}

// TableError describes malformed table markup.
type TableError struct {
	Msg string
	// Offset is the index of the offending line within the table block.
	Offset int
	// Column is the 0-based column of the offending character, or -1.
	Column int
}

func (e *TableError) Error() string {
	return e.Msg
}

// doubleWidthPad follows each wide character in a table block
// so that character positions match display columns.
const doubleWidthPad = '\x00'

// padDoubleWidth converts lines to runes, inserting a pad after each wide character.
func padDoubleWidth(lines []string) [][]rune {
	out := make([][]rune, len(lines))
	for i, line := range lines {
		if isASCII(line) {
			out[i] = []rune(line)
			continue
		}
		var r []rune
		for _, c := range line {
			r = append(r, c)
			if c >= 0x1100 && columnWidth(string(c)) == 2 {
				r = append(r, doubleWidthPad)
			}
		}
		out[i] = r
	}
	return out
}

// block2D extracts the rectangle [top, bottom) x [left, right) of block,
// removing trailing whitespace, common indentation and padding.
func block2D(block [][]rune, top, left, bottom, right int) []string {
	lines := make([]string, 0, bottom-top)
	indent := right
	for _, line := range block[top:bottom] {
		l, r := min(left, len(line)), min(right, len(line))
		s := strings.TrimRight(string(line[l:r]), " ")
		if t := strings.TrimLeft(s, " "); t != "" {
			indent = min(indent, len(s)-len(t))
		}
		lines = append(lines, s)
	}
	for i, s := range lines {
		if indent > 0 && indent < right {
			if len(s) >= indent {
				s = s[indent:]
			}
		}
		lines[i] = strings.ReplaceAll(s, string(doubleWidthPad), "")
	}
	return lines
}

func isGridHeadBodySeparator(line string) bool {
	line = strings.TrimRight(line, " ")
	if len(line) < 4 || !strings.HasPrefix(line, "+=") || !strings.HasSuffix(line, "=+") {
		return false
	}
	return strings.Trim(line, "=+") == ""
}

func isGridTableTop(line string) bool {
	line = strings.TrimRight(line, " ")
	if len(line) < 4 || !strings.HasPrefix(line, "+-") || !strings.HasSuffix(line, "-+") {
		return false
	}
	return strings.Trim(line, "-+") == ""
}

// gridParser parses grid tables by following the corners
// of each cell clockwise from its top-left corner.
type gridParser struct {
	block       [][]rune
	bottom      int
	right       int
	headBodySep int
	done        []int
	cells       []gridCell
	rowseps     map[int]bool
	colseps     map[int]bool

	badRow, badCol int
}

type gridCell struct {
	top, left, bottom, right int
	lines                    []string
}

// ParseGridTable parses the lines of a grid table.
// All lines must have the same width.
func ParseGridTable(lines []string) (*TableData, error) {
	if len(lines) < 3 {
		return nil, &TableError{Msg: "Malformed table; too few lines.", Column: -1}
	}
	p := &gridParser{
		block:       padDoubleWidth(lines),
		headBodySep: -1,
		rowseps:     map[int]bool{0: true},
		colseps:     map[int]bool{0: true},
		badRow:      -1,
		badCol:      -1,
	}
	p.bottom = len(p.block) - 1
	p.right = len(p.block[0]) - 1
	for _, line := range p.block {
		if len(line) != p.right+1 {
			return nil, &TableError{Msg: "Malformed table; lines have unequal widths.", Column: -1}
		}
	}
	p.done = make([]int, p.right+1)
	for i := range p.done {
		p.done[i] = -1
	}
	if err := p.findHeadBodySep(); err != nil {
		return nil, err
	}
	if err := p.parseTable(); err != nil {
		return nil, err
	}
	return p.structure()
}

func (p *gridParser) findHeadBodySep() error {
	for i, line := range p.block {
		if !isGridHeadBodySeparator(string(line)) {
			continue
		}
		if p.headBodySep >= 0 {
			return &TableError{
				Msg:    fmt.Sprintf("Multiple head/body row separators (table lines %d and %d); only one allowed.", p.headBodySep+1, i+1),
				Offset: i,
				Column: -1,
			}
		}
		p.headBodySep = i
		p.block[i] = []rune(strings.ReplaceAll(string(line), "=", "-"))
	}
	if p.headBodySep == 0 || p.headBodySep == len(p.block)-1 {
		return &TableError{
			Msg:    "The head/body row separator may not be the first or last line of the table.",
			Offset: p.headBodySep,
			Column: -1,
		}
	}
	return nil
}

func (p *gridParser) parseTable() error {
	type corner struct{ top, left int }
	corners := []corner{{0, 0}}
	for len(corners) > 0 {
		c := corners[0]
		corners = corners[1:]
		if c.top == p.bottom || c.left == p.right || c.top <= p.done[c.left] {
			continue
		}
		bottom, right, ok := p.scanCell(c.top, c.left)
		if !ok {
			continue
		}
		p.markDone(c.top, c.left, bottom, right)
		p.cells = append(p.cells, gridCell{
			top:    c.top,
			left:   c.left,
			bottom: bottom,
			right:  right,
			lines:  block2D(p.block, c.top+1, c.left+1, bottom, right),
		})
		corners = append(corners, corner{c.top, right}, corner{bottom, c.left})
		sort.Slice(corners, func(i, j int) bool {
			if corners[i].top != corners[j].top {
				return corners[i].top < corners[j].top
			}
			return corners[i].left < corners[j].left
		})
	}
	for col := 0; col < p.right; col++ {
		if p.done[col] != p.bottom-1 {
			msg := "Malformed table; parse incomplete."
			if p.badRow >= 0 {
				msg = fmt.Sprintf("Malformed table; parse incomplete (unexpected %q at table line %d, column %d).",
					p.block[p.badRow][p.badCol], p.badRow+1, p.badCol+1)
				return &TableError{Msg: msg, Offset: p.badRow, Column: p.badCol}
			}
			return &TableError{Msg: msg, Offset: p.done[col] + 1, Column: col}
		}
	}
	return nil
}

func (p *gridParser) bad(row, col int) {
	if p.badRow < 0 {
		p.badRow, p.badCol = row, col
	}
}

func (p *gridParser) markDone(top, left, bottom, right int) {
	for col := left; col < right; col++ {
		p.done[col] = bottom - 1
	}
}

// scanCell follows the cell whose top-left corner is at (top, left).
func (p *gridParser) scanCell(top, left int) (bottom, right int, ok bool) {
	line := p.block[top]
	colseps := map[int]bool{}
	for i := left + 1; i <= p.right; i++ {
		switch line[i] {
		case '+':
			colseps[i] = true
			if b, rowseps, cs, ok := p.scanDown(top, left, i); ok {
				p.note(rowseps, cs, colseps)
				return b, i, true
			}
		case '-':
		default:
			p.bad(top, i)
			return 0, 0, false
		}
	}
	return 0, 0, false
}

func (p *gridParser) note(rowseps, colseps1, colseps2 map[int]bool) {
	for k := range rowseps {
		p.rowseps[k] = true
	}
	for k := range colseps1 {
		p.colseps[k] = true
	}
	for k := range colseps2 {
		p.colseps[k] = true
	}
}

func (p *gridParser) scanDown(top, left, right int) (bottom int, rowseps, colseps map[int]bool, ok bool) {
	rowseps = map[int]bool{}
	for i := top + 1; i <= p.bottom; i++ {
		switch p.block[i][right] {
		case '+':
			rowseps[i] = true
			if rs, cs, ok := p.scanLeft(top, left, i, right); ok {
				for k := range rs {
					rowseps[k] = true
				}
				return i, rowseps, cs, true
			}
		case '|':
		default:
			return 0, nil, nil, false
		}
	}
	return 0, nil, nil, false
}

func (p *gridParser) scanLeft(top, left, bottom, right int) (rowseps, colseps map[int]bool, ok bool) {
	colseps = map[int]bool{}
	line := p.block[bottom]
	for i := right - 1; i > left; i-- {
		switch line[i] {
		case '+':
			colseps[i] = true
		case '-':
		default:
			return nil, nil, false
		}
	}
	if line[left] != '+' {
		return nil, nil, false
	}
	rowseps, ok = p.scanUp(top, left, bottom)
	return rowseps, colseps, ok
}

func (p *gridParser) scanUp(top, left, bottom int) (map[int]bool, bool) {
	rowseps := map[int]bool{}
	for i := bottom - 1; i > top; i-- {
		switch p.block[i][left] {
		case '+':
			rowseps[i] = true
		case '|':
		default:
			return nil, false
		}
	}
	return rowseps, true
}

func (p *gridParser) structure() (*TableData, error) {
	rowseps := sortedKeys(p.rowseps)
	colseps := sortedKeys(p.colseps)
	rowIndex := make(map[int]int, len(rowseps))
	for i, r := range rowseps {
		rowIndex[r] = i
	}
	colIndex := make(map[int]int, len(colseps))
	for i, c := range colseps {
		colIndex[c] = i
	}
	td := new(TableData)
	for i := 1; i < len(colseps); i++ {
		td.ColumnWidths = append(td.ColumnWidths, colseps[i]-colseps[i-1]-1)
	}
	rows := make([][]*TableCell, len(rowseps)-1)
	for i := range rows {
		rows[i] = make([]*TableCell, len(colseps)-1)
	}
	remaining := (len(rowseps) - 1) * (len(colseps) - 1)
	for _, c := range p.cells {
		rownum, colnum := rowIndex[c.top], colIndex[c.left]
		if rows[rownum][colnum] != nil {
			return nil, &TableError{
				Msg:    fmt.Sprintf("Malformed table; cell (row %d, column %d) already used.", rownum+1, colnum+1),
				Offset: c.top,
				Column: c.left,
			}
		}
		cell := &TableCell{
			MoreRows: rowIndex[c.bottom] - rownum - 1,
			MoreCols: colIndex[c.right] - colnum - 1,
			Offset:   c.top + 1,
			Lines:    c.lines,
		}
		remaining -= (cell.MoreRows + 1) * (cell.MoreCols + 1)
		rows[rownum][colnum] = cell
	}
	if remaining != 0 {
		return nil, &TableError{Msg: "Malformed table; unused cells remaining.", Column: -1}
	}
	if p.headBodySep >= 0 {
		n := rowIndex[p.headBodySep]
		td.HeadRows, td.BodyRows = rows[:n], rows[n:]
	} else {
		td.BodyRows = rows
	}
	return td, nil
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func isSimpleTableBorder(line string) bool {
	line = strings.TrimRight(line, " ")
	return strings.HasPrefix(line, "=") && strings.Trim(line, "= ") == ""
}

// isSimpleTableTop reports whether line is a border with at least two columns.
func isSimpleTableTop(line string) bool {
	return isSimpleTableBorder(line) && strings.Contains(strings.TrimRight(line, " "), " ")
}

func isSpanLine(line string) bool {
	line = strings.TrimRight(line, " ")
	return strings.HasPrefix(line, "-") && strings.Trim(line, "- ") == ""
}

type columnSpan struct{ start, end int }

// simpleParser parses simple tables,
// whose columns are given by the runs of "=" in the top border.
type simpleParser struct {
	block       [][]rune
	headBodySep int
	columns     []columnSpan
	borderEnd   int
	table       [][]*TableCell
}

// ParseSimpleTable parses the lines of a simple table,
// from the top border through the bottom border.
func ParseSimpleTable(lines []string) (*TableData, error) {
	if len(lines) < 2 {
		return nil, &TableError{Msg: "Malformed table; too few lines.", Column: -1}
	}
	p := &simpleParser{
		block:       padDoubleWidth(lines),
		headBodySep: -1,
	}
	last := len(p.block) - 1
	p.block[0] = []rune(strings.ReplaceAll(string(p.block[0]), "=", "-"))
	p.block[last] = []rune(strings.ReplaceAll(string(p.block[last]), "=", "-"))
	for i, line := range p.block {
		if !isSimpleTableBorder(string(line)) {
			continue
		}
		if p.headBodySep >= 0 {
			return nil, &TableError{
				Msg:    fmt.Sprintf("Multiple head/body row separators (table lines %d and %d); only one allowed.", p.headBodySep+1, i+1),
				Offset: i,
				Column: -1,
			}
		}
		p.headBodySep = i
		p.block[i] = []rune(strings.ReplaceAll(string(line), "=", "-"))
	}
	if p.headBodySep < 0 {
		p.headBodySep = dashHeadBodySep(p.block)
	}
	if p.headBodySep == 0 || p.headBodySep == last {
		return nil, &TableError{
			Msg:    "The head/body row separator may not be the first or last line of the table.",
			Offset: p.headBodySep,
			Column: -1,
		}
	}
	if err := p.parseTable(); err != nil {
		return nil, err
	}
	return p.structure(), nil
}

// dashHeadBodySep returns the offset of the only interior "-" rule
// with the same column extents as the top border, or -1.
// Such a rule separates the header rows from the body rows
// of a table without an "=" separator.
// It must have text rows on both sides.
func dashHeadBodySep(block [][]rune) int {
	top := strings.TrimRight(string(block[0]), " ")
	sep := -1
	for i := 1; i < len(block)-1; i++ {
		line := strings.TrimRight(string(block[i]), " ")
		if !isSpanLine(line) || line != top {
			continue
		}
		if sep >= 0 {
			return -1
		}
		sep = i
	}
	if sep < 2 || sep > len(block)-3 {
		return -1
	}
	return sep
}

func (p *simpleParser) parseTable() error {
	var err error
	p.columns, err = p.parseColumns(p.block[0], 0)
	if err != nil {
		return err
	}
	p.borderEnd = p.columns[len(p.columns)-1].end
	first := p.columns[0]
	start := 1
	textFound := false
	for offset := 1; offset < len(p.block); offset++ {
		line := p.block[offset]
		switch {
		case isSpanLine(string(line)):
			if err := p.parseRow(p.block[start:offset], start, line, offset); err != nil {
				return err
			}
			start = offset + 1
			textFound = false
		case strings.TrimSpace(string(runeSlice(line, first.start, first.end))) != "":
			if textFound && offset != start {
				if err := p.parseRow(p.block[start:offset], start, nil, 0); err != nil {
					return err
				}
			}
			start = offset
			textFound = true
		case !textFound:
			start = offset + 1
		}
	}
	return nil
}

func (p *simpleParser) parseColumns(line []rune, offset int) ([]columnSpan, error) {
	var cols []columnSpan
	end := 0
	for {
		begin := indexRune(line, '-', end)
		if begin < 0 {
			break
		}
		end = indexRune(line, ' ', begin)
		if end < 0 {
			end = len(line)
		}
		cols = append(cols, columnSpan{begin, end})
	}
	if p.columns != nil {
		if len(cols) == 0 || cols[len(cols)-1].end != p.borderEnd {
			return nil, &TableError{
				Msg:    fmt.Sprintf("Column span incomplete in table line %d.", offset+1),
				Offset: offset,
				Column: -1,
			}
		}
		cols[len(cols)-1].end = p.columns[len(p.columns)-1].end
	}
	return cols, nil
}

func (p *simpleParser) initRow(colspec []columnSpan, offset int) ([]*TableCell, error) {
	var cells []*TableCell
	i := 0
	for _, c := range colspec {
		moreCols := 0
		if i >= len(p.columns) || c.start != p.columns[i].start {
			return nil, p.alignmentError(offset)
		}
		for c.end != p.columns[i].end {
			i++
			moreCols++
			if i >= len(p.columns) {
				return nil, p.alignmentError(offset)
			}
		}
		cells = append(cells, &TableCell{MoreCols: moreCols, Offset: offset})
		i++
	}
	return cells, nil
}

func (p *simpleParser) alignmentError(offset int) error {
	return &TableError{
		Msg:    fmt.Sprintf("Column span alignment problem in table line %d.", offset+2),
		Offset: offset + 1,
		Column: -1,
	}
}

func (p *simpleParser) parseRow(lines [][]rune, start int, spanLine []rune, spanOffset int) error {
	if len(lines) == 0 && spanLine == nil {
		return nil
	}
	columns := append([]columnSpan(nil), p.columns...)
	if spanLine != nil {
		var err error
		columns, err = p.parseColumns([]rune(strings.TrimRight(string(spanLine), " ")), spanOffset)
		if err != nil {
			return err
		}
	}
	columns, err := p.checkColumns(lines, start, columns)
	if err != nil {
		return err
	}
	row, err := p.initRow(columns, start)
	if err != nil {
		return err
	}
	for i, c := range columns {
		row[i].Lines = block2D(lines, 0, c.start, len(lines), c.end)
	}
	p.table = append(p.table, row)
	return nil
}

// checkColumns verifies that no text appears in the margins between columns.
// Text past the end of the last column widens it.
func (p *simpleParser) checkColumns(lines [][]rune, firstLine int, columns []columnSpan) ([]columnSpan, error) {
	columns = append(columns, columnSpan{math.MaxInt32, 0})
	last := len(columns) - 2
	for i := 0; i <= last; i++ {
		c := columns[i]
		nextStart := columns[i+1].start
		for offset, line := range lines {
			line = []rune(stripCombining(string(line)))
			if i == last && strings.TrimSpace(string(runeSlice(line, c.end, len(line)))) != "" {
				text := strings.TrimRight(string(runeSlice(line, c.start, len(line))), " ")
				newEnd := c.start + len([]rune(text))
				mainCol := &p.columns[len(p.columns)-1]
				if newEnd > columns[i].end {
					columns[i].end = newEnd
				}
				if mainCol.end > columns[i].end {
					columns[i].end = mainCol.end
				}
				if newEnd > mainCol.end {
					mainCol.end = newEnd
				}
			} else if strings.TrimSpace(string(runeSlice(line, c.end, nextStart))) != "" {
				return nil, &TableError{
					Msg:    fmt.Sprintf("Text in column margin in table line %d.", firstLine+offset+1),
					Offset: firstLine + offset,
					Column: c.end,
				}
			}
		}
	}
	return columns[:len(columns)-1], nil
}

func (p *simpleParser) structure() *TableData {
	td := new(TableData)
	for _, c := range p.columns {
		td.ColumnWidths = append(td.ColumnWidths, c.end-c.start)
	}
	firstBody := 0
	if p.headBodySep >= 0 {
		for i, row := range p.table {
			if row[0].Offset > p.headBodySep {
				firstBody = i
				break
			}
		}
	}
	td.HeadRows = p.table[:firstBody]
	td.BodyRows = p.table[firstBody:]
	return td
}

// runeSlice returns line[start:end] clamped to the line's bounds.
func runeSlice(line []rune, start, end int) []rune {
	if start > len(line) {
		start = len(line)
	}
	if end > len(line) {
		end = len(line)
	}
	if end < start {
		return nil
	}
	return line[start:end]
}

func indexRune(line []rune, r rune, from int) int {
	for i := from; i < len(line); i++ {
		if line[i] == r {
			return i
		}
	}
	return -1
}

// stripCombining removes combining characters, which occupy no column.
func stripCombining(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)
}
