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
	"regexp"
	"strconv"
	"strings"
)

// stateMachine parses a block of lines into body elements.
// Nested constructs run their own stateMachine over their indented block.
type stateMachine struct {
	p     *parser
	lines *Lines
	pos   int      // index of the next unconsumed line
	node  *Element // element receiving parsed nodes

	matchTitles bool
	// stop is set when a section title belongs to an enclosing section.
	stop bool
}

type parseResult int8

const (
	noMatch parseResult = iota
	matched
	// asText means the line looked like a construct
	// but must be parsed as paragraph text.
	asText
)

// blockStarts are tried in order on each unindented, non-blank line.
// A line that no rule matches starts a paragraph.
var blockStarts []func(sm *stateMachine, line string) parseResult

func init() {
	blockStarts = []func(sm *stateMachine, line string) parseResult{
		(*stateMachine).bulletList,
		(*stateMachine).enumeratedList,
		(*stateMachine).fieldList,
		(*stateMachine).optionList,
		(*stateMachine).doctestBlock,
		(*stateMachine).lineBlock,
		(*stateMachine).gridTable,
		(*stateMachine).simpleTable,
		(*stateMachine).explicitMarkup,
		(*stateMachine).anonymousTarget,
		(*stateMachine).punctuationLine,
	}
}

// runBody parses body elements until the input is exhausted
// or a section title for an enclosing section is found.
// It returns the index of the first unconsumed line.
func (sm *stateMachine) runBody() int {
	for sm.pos < sm.lines.Len() && !sm.stop {
		line := sm.lines.Line(sm.pos)
		if line == "" {
			sm.pos++
			continue
		}
		if line[0] == ' ' {
			sm.indentedBlockQuote()
			continue
		}
		result := noMatch
		for _, start := range blockStarts {
			if result = start(sm, line); result != noMatch {
				break
			}
		}
		if result != matched {
			sm.text()
		}
	}
	return sm.pos
}

// lineno returns the 1-based source line number of the current line.
func (sm *stateMachine) lineno() int {
	return sm.lineAt(sm.pos)
}

func (sm *stateMachine) lineAt(i int) int {
	_, n := sm.lines.Info(i)
	return n
}

// locate records the source position of line i on e.
func (sm *stateMachine) locate(e *Element, i int) {
	e.Source, e.Line = sm.lines.Info(i)
}

func (sm *stateMachine) report(level Level, text string, line int, children ...Node) *Element {
	return sm.p.doc.Reporter.mustReport(Message{
		Level:    level,
		Text:     text,
		Category: "rst.parse",
		Line:     line,
		Children: children,
	})
}

func (sm *stateMachine) unindentWarning(what string) *Element {
	return sm.report(WarningLevel, what+" ends without a blank line; unexpected unindent.", sm.lineno())
}

// nextLineBlank reports whether the current line exists and is blank.
func (sm *stateMachine) nextLineBlank() bool {
	return sm.pos < sm.lines.Len() && sm.lines.Line(sm.pos) == ""
}

// literalBlockNode returns a literal block element holding text.
func literalBlockNode(text string) *Element {
	return NewTextElement(LiteralBlockTag, text)
}

// isPunctuation7 reports whether c is printable 7-bit ASCII punctuation.
func isPunctuation7(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}

// isPunctuationLine reports whether line is a run of one repeated
// punctuation character: a section adornment or transition marker.
func isPunctuationLine(line string) bool {
	line = strings.TrimRight(line, " ")
	if line == "" || !isPunctuation7(line[0]) {
		return false
	}
	return strings.Trim(line, line[:1]) == ""
}

// text handles a line that starts no other construct.
// Depending on the following line it becomes a paragraph,
// a definition list, or a section title.
func (sm *stateMachine) text() {
	start := sm.pos
	n := sm.lines.Len()
	if start+1 < n {
		next := sm.lines.Line(start + 1)
		switch {
		case next == "":
		case next[0] == ' ':
			sm.definitionList()
			return
		case isPunctuationLine(next):
			if sm.underlineTitle() {
				return
			}
		}
	}

	end := start + 1
	indentLine := -1
	for end < n {
		line := sm.lines.Line(end)
		if line == "" {
			break
		}
		if line[0] == ' ' {
			indentLine = end
			break
		}
		end++
	}
	nodes, literalNext := sm.paragraph(sm.lines.Slice(start, end).Strings(), sm.lineAt(start))
	sm.node.Append(nodes...)
	sm.pos = end
	if indentLine >= 0 {
		sm.node.Append(sm.report(ErrorLevel, "Unexpected indentation.", sm.lineAt(indentLine)))
	}
	if literalNext {
		sm.node.Append(sm.literalBlock()...)
	}
}

// paragraph builds a paragraph from lines.
// literalNext reports whether the text ends with "::",
// introducing a literal block.
func (sm *stateMachine) paragraph(lines []string, lineno int) (nodes []Node, literalNext bool) {
	data := strings.TrimRight(strings.Join(lines, "\n"), " \n")
	text := data
	if endsWithLiteralMarker(data) {
		literalNext = true
		switch {
		case len(data) == 2:
			return nil, true
		case data[len(data)-3] == ' ' || data[len(data)-3] == '\n':
			text = strings.TrimRight(data[:len(data)-3], " \n")
		default:
			text = data[:len(data)-1]
		}
	}
	inlines, msgs := sm.p.inlineText(text, lineno, sm.node)
	para := NewElement(ParagraphTag, inlines...)
	para.Source, para.Line = sm.p.doc.Source, lineno
	nodes = append(nodes, para)
	for _, msg := range msgs {
		nodes = append(nodes, msg)
	}
	return nodes, literalNext
}

// endsWithLiteralMarker reports whether s ends with an unescaped "::".
func endsWithLiteralMarker(s string) bool {
	if !strings.HasSuffix(s, "::") {
		return false
	}
	return !isEndEscaped(s[:len(s)-2])
}

// isEndEscaped reports whether s ends with an odd number of backslashes.
func isEndEscaped(s string) bool {
	n := 0
	for ; n < len(s); n++ {
		if s[len(s)-n-1] != '\\' {
			break
		}
	}
	return n%2 == 1
}

// literalBlock parses the literal block starting at the current line.
func (sm *stateMachine) literalBlock() []Node {
	block, _, blankFinish := sm.lines.indentedBlock(sm.pos, false, true, -1, -1)
	sm.pos += block.Len()
	block.stripBlankEdges()
	if block.Len() == 0 {
		return sm.quotedLiteralBlock()
	}
	lit := literalBlockNode(block.Join())
	lit.Source, lit.Line = block.Info(0)
	nodes := []Node{lit}
	if !blankFinish {
		nodes = append(nodes, sm.unindentWarning("Literal block"))
	}
	return nodes
}

// quotedLiteralBlock parses an unindented literal block
// whose lines all begin with the same punctuation character.
func (sm *stateMachine) quotedLiteralBlock() []Node {
	for sm.pos < sm.lines.Len() && sm.lines.Line(sm.pos) == "" {
		sm.pos++
	}
	if sm.pos >= sm.lines.Len() || !isPunctuation7(sm.lines.Line(sm.pos)[0]) {
		return []Node{sm.report(WarningLevel, "Literal block expected; none found.", sm.lineno())}
	}
	start := sm.pos
	quote := sm.lines.Line(start)[0]
	for sm.pos < sm.lines.Len() {
		line := sm.lines.Line(sm.pos)
		if line == "" || line[0] != quote {
			break
		}
		sm.pos++
	}
	lit := literalBlockNode(sm.lines.Slice(start, sm.pos).Join())
	sm.locate(lit, start)
	nodes := []Node{lit}
	if sm.pos < sm.lines.Len() {
		switch line := sm.lines.Line(sm.pos); {
		case line == "":
		case line[0] == ' ':
			nodes = append(nodes, sm.report(ErrorLevel, "Unexpected indentation.", sm.lineno()))
		default:
			nodes = append(nodes, sm.report(ErrorLevel, "Inconsistent literal block quoting.", sm.lineno()))
		}
	}
	return nodes
}

// underlineTitle handles a text line followed by an adornment line.
// It reports false if the lines must be treated as paragraph text.
func (sm *stateMachine) underlineTitle() bool {
	title := sm.lines.Line(sm.pos)
	underline := sm.lines.Line(sm.pos + 1)
	lineno := sm.lineAt(sm.pos + 1)
	source := title + "\n" + underline
	var messages []Node
	if columnWidth(title) > len(underline) {
		if len(underline) < 4 {
			if sm.matchTitles {
				sm.node.Append(sm.report(InfoLevel,
					"Possible title underline, too short for the title.\nTreating it as ordinary text because it's so short.",
					lineno))
			}
			return false
		}
		messages = append(messages, sm.report(WarningLevel, "Title underline too short.", lineno, literalBlockNode(source)))
	}
	sm.pos += 2
	if !sm.matchTitles {
		sm.node.Append(messages...)
		sm.node.Append(sm.report(SevereLevel, "Unexpected section title.", lineno, literalBlockNode(source)))
		return true
	}
	sm.section(title, source, titleStyle{under: underline[0]}, lineno-1, messages)
	return true
}

// punctuationLine handles an adornment line at the start of a construct:
// a section title overline or a transition.
func (sm *stateMachine) punctuationLine(line string) parseResult {
	if !isPunctuationLine(line) {
		return noMatch
	}
	marker := strings.TrimSpace(line)
	lineno := sm.lineno()
	switch {
	case sm.matchTitles:
		return sm.overline()
	case marker == "::":
		return asText
	case len(marker) < 4:
		sm.node.Append(sm.report(InfoLevel,
			"Unexpected possible title overline or transition.\nTreating it as ordinary text because it's so short.",
			lineno))
		return asText
	default:
		sm.node.Append(sm.report(SevereLevel, "Unexpected section title or transition.", lineno, literalBlockNode(line)))
		sm.pos++
		return matched
	}
}

// overline examines the lines after an adornment line
// when section titles are allowed.
func (sm *stateMachine) overline() parseResult {
	start := sm.pos
	overline := sm.lines.Line(start)
	lineno := sm.lineAt(start)
	short := len(strings.TrimSpace(overline)) < 4
	shortOverline := func() parseResult {
		sm.node.Append(sm.report(InfoLevel,
			"Possible incomplete section title.\nTreating the overline as ordinary text because it's so short.",
			lineno))
		return asText
	}

	if start+1 >= sm.lines.Len() || sm.lines.Line(start+1) == "" {
		if short {
			return asText
		}
		sm.node.Append(sm.transition(start))
		sm.pos++
		return matched
	}
	title := sm.lines.Line(start + 1)
	if isPunctuationLine(title) {
		if short {
			return shortOverline()
		}
		blockText := overline + "\n" + title
		sm.node.Append(sm.report(ErrorLevel, "Invalid section title or transition marker.", lineno, literalBlockNode(blockText)))
		sm.pos += 2
		return matched
	}
	if start+2 >= sm.lines.Len() {
		if short {
			return shortOverline()
		}
		blockText := overline + "\n" + title
		sm.node.Append(sm.report(SevereLevel, "Incomplete section title.", lineno, literalBlockNode(blockText)))
		sm.pos += 2
		return matched
	}
	underline := sm.lines.Line(start + 2)
	source := overline + "\n" + title + "\n" + underline
	switch {
	case !isPunctuationLine(underline):
		if short {
			return shortOverline()
		}
		sm.node.Append(sm.report(SevereLevel, "Missing matching underline for section title overline.", lineno, literalBlockNode(source)))
		sm.pos += 3
		return matched
	case overline != underline:
		if short {
			return shortOverline()
		}
		sm.node.Append(sm.report(SevereLevel, "Title overline & underline mismatch.", lineno, literalBlockNode(source)))
		sm.pos += 3
		return matched
	}
	var messages []Node
	if columnWidth(strings.TrimRight(title, " ")) > len(overline) {
		if short {
			return shortOverline()
		}
		messages = append(messages, sm.report(WarningLevel, "Title overline too short.", lineno, literalBlockNode(source)))
	}
	sm.pos += 3
	style := titleStyle{over: overline[0], under: underline[0]}
	sm.section(strings.TrimSpace(title), source, style, lineno+1, messages)
	return matched
}

func (sm *stateMachine) transition(i int) *Element {
	t := NewElement(TransitionTag)
	sm.locate(t, i)
	return t
}

// section starts a new section if the title style fits the current nesting.
// The title's lines have already been consumed.
func (sm *stateMachine) section(title, source string, style titleStyle, lineno int, messages []Node) {
	if sm.checkSubsection(source, style, lineno) {
		sm.newSubsection(title, lineno, messages)
	}
}

// checkSubsection reports whether a title with the given style
// starts a subsection of the current section.
// A title belonging to an enclosing section stops this state machine
// and rewinds to the title so the enclosing machine can handle it.
func (sm *stateMachine) checkSubsection(source string, style titleStyle, lineno int) bool {
	p := sm.p
	myLevel := p.sectionLevel
	level := 0
	for i, s := range p.titleStyles {
		if s == style {
			level = i + 1
			break
		}
	}
	switch {
	case level == 0 && len(p.titleStyles) == p.sectionLevel:
		p.titleStyles = append(p.titleStyles, style)
		tracer().Debugf("new title style %q at level %d", style.String(), len(p.titleStyles))
		return true
	case level == 0:
		sm.node.Append(sm.titleInconsistent(source, lineno))
		return false
	case level <= myLevel:
		p.sectionLevel = level
		if style.over != 0 {
			sm.pos -= 3
		} else {
			sm.pos -= 2
		}
		sm.stop = true
		return false
	case level == myLevel+1:
		return true
	default:
		sm.node.Append(sm.titleInconsistent(source, lineno))
		return false
	}
}

func (sm *stateMachine) titleInconsistent(source string, lineno int) *Element {
	return sm.report(ErrorLevel, "Title level inconsistent:", lineno, literalBlockNode(source))
}

func (s titleStyle) String() string {
	if s.over == 0 {
		return string(s.under)
	}
	return string(s.over) + string(s.under)
}

// newSubsection appends a section for title
// and parses the rest of the input into it.
func (sm *stateMachine) newSubsection(title string, lineno int, messages []Node) {
	p := sm.p
	myLevel := p.sectionLevel
	p.sectionLevel++
	sec := NewElement(SectionTag)
	sec.Source, sec.Line = p.doc.Source, lineno
	sm.node.Append(sec)
	inlines, msgs := p.inlineText(title, lineno, sec)
	titleNode := NewElement(TitleTag, inlines...)
	titleNode.Source, titleNode.Line = sec.Source, lineno
	sec.Names = append(sec.Names, NormalizeName(titleNode.AsText()))
	sec.Append(titleNode)
	sec.Append(messages...)
	for _, msg := range msgs {
		sec.Append(msg)
	}
	p.doc.noteImplicitTarget(sec, sec)

	rest := sm.lines.Slice(sm.pos, sm.lines.Len())
	sm.pos += p.nestedParse(rest, sec, true)
	if p.sectionLevel <= myLevel {
		sm.stop = true
		return
	}
	p.sectionLevel = myLevel
}

// indentedBlockQuote parses an indented block as block quotes.
func (sm *stateMachine) indentedBlockQuote() {
	block, _, blankFinish := sm.lines.indentedBlock(sm.pos, false, true, -1, -1)
	sm.pos += block.Len()
	for _, n := range sm.blockQuotes(block) {
		sm.node.Append(n)
	}
	if !blankFinish {
		sm.node.Append(sm.unindentWarning("Block quote"))
	}
}

// blockQuotes splits an indented block into block quotes
// separated by attributions.
func (sm *stateMachine) blockQuotes(indented *Lines) []Node {
	var elements []Node
	for indented.Len() > 0 && indented.Line(0) == "" {
		indented.trimStart(1)
	}
	for indented.Len() > 0 {
		bq := NewElement(BlockQuoteTag)
		bq.Source, bq.Line = indented.Info(0)
		quote, attr, rest := splitAttribution(indented)
		sm.p.nestedParse(quote, bq, false)
		elements = append(elements, bq)
		if attr == nil {
			break
		}
		text := strings.TrimRight(attr.Join(), " \n")
		_, lineno := attr.Info(0)
		inlines, msgs := sm.p.inlineText(text, lineno, bq)
		a := NewElement(AttributionTag, inlines...)
		a.Source, a.Line = attr.Info(0)
		bq.Append(a)
		for _, msg := range msgs {
			elements = append(elements, msg)
		}
		indented = rest
		for indented.Len() > 0 && indented.Line(0) == "" {
			indented.trimStart(1)
		}
	}
	return elements
}

// attributionPrefix returns the end of an attribution marker
// ("--", "---", or an em dash followed by optional spaces) at the start of line.
func attributionPrefix(line string) (end int, ok bool) {
	switch {
	case strings.HasPrefix(line, "—"):
		end = len("—")
	case strings.HasPrefix(line, "---") && !strings.HasPrefix(line, "----"):
		end = 3
	case strings.HasPrefix(line, "--") && !strings.HasPrefix(line, "---"):
		end = 2
	default:
		return 0, false
	}
	for end < len(line) && line[end] == ' ' {
		end++
	}
	return end, end < len(line)
}

// splitAttribution finds an attribution in an indented block:
// a line starting with an attribution marker after a blank line,
// whose continuation lines share one indentation.
// attr is nil if there is none.
func splitAttribution(indented *Lines) (quote, attr, rest *Lines) {
	blank := -1
	nonblankSeen := false
	n := indented.Len()
	for i := 0; i < n; i++ {
		line := indented.Line(i)
		if line == "" {
			blank = i
			continue
		}
		if nonblankSeen && blank == i-1 {
			if markerEnd, ok := attributionPrefix(line); ok {
				if end, indent, ok := checkAttribution(indented, i); ok {
					attr = indented.Slice(i, end)
					attr.data[0] = attr.data[0][markerEnd:]
					attr.trimLeft(indent, 1)
					return indented.Slice(0, i), attr, indented.Slice(end, n)
				}
			}
		}
		nonblankSeen = true
	}
	return indented, nil, nil
}

func checkAttribution(indented *Lines, start int) (end, indent int, ok bool) {
	indent = -1
	i := start + 1
	for ; i < indented.Len(); i++ {
		line := indented.Line(i)
		if line == "" {
			break
		}
		if indent < 0 {
			indent = leadingSpaces(line)
		} else if leadingSpaces(line) != indent {
			return 0, 0, false
		}
	}
	if indent < 0 {
		indent = 0
	}
	return i, indent, true
}

var doctestPattern = regexp.MustCompile(`^>>>(?: +|$)`)

// doctestBlock handles an interactive Python session,
// which extends to the next blank line.
func (sm *stateMachine) doctestBlock(line string) parseResult {
	if !doctestPattern.MatchString(line) {
		return noMatch
	}
	start := sm.pos
	for sm.pos < sm.lines.Len() && sm.lines.Line(sm.pos) != "" {
		sm.pos++
	}
	e := NewTextElement(DoctestBlockTag, sm.lines.Slice(start, sm.pos).Join())
	sm.locate(e, start)
	sm.node.Append(e)
	return matched
}

// gridTable isolates and parses a grid table.
func (sm *stateMachine) gridTable(line string) parseResult {
	if !isGridTableTop(line) {
		return noMatch
	}
	start := sm.pos
	blankFinish := true
	var messages []Node
	end := start
	for end < sm.lines.Len() && sm.lines.Line(end) != "" {
		if sm.lines.Line(end)[0] == ' ' {
			messages = append(messages, sm.report(ErrorLevel, "Unexpected indentation.", sm.lineAt(end)))
			blankFinish = false
			break
		}
		end++
	}
	block := sm.lines.Slice(start, end).Strings()
	for i, l := range block {
		if l[0] != '+' && l[0] != '|' {
			blankFinish = false
			block = block[:i]
			break
		}
	}
	sm.pos = start + len(block)
	if !isGridTableTop(block[len(block)-1]) {
		blankFinish = false
		found := false
		for i := len(block) - 2; i > 1; i-- {
			if isGridTableTop(block[i]) {
				block = block[:i+1]
				sm.pos = start + len(block)
				found = true
				break
			}
		}
		if !found {
			sm.node.Append(sm.malformedTable(block, start, "", 0))
			sm.node.Append(messages...)
			sm.tableFinish(blankFinish)
			return matched
		}
	}
	padded := padDoubleWidth(block)
	width := len(padded[0])
	for _, l := range padded {
		if len(l) != width || (l[len(l)-1] != '+' && l[len(l)-1] != '|') {
			sm.node.Append(sm.malformedTable(block, start, "", 0))
			sm.node.Append(messages...)
			sm.tableFinish(blankFinish)
			return matched
		}
	}
	sm.buildTable(block, start, ParseGridTable)
	sm.node.Append(messages...)
	sm.tableFinish(blankFinish)
	return matched
}

// simpleTable isolates and parses a simple table.
func (sm *stateMachine) simpleTable(line string) parseResult {
	if !isSimpleTableTop(line) {
		return noMatch
	}
	start := sm.pos
	limit := sm.lines.Len() - 1
	topLen := len(strings.TrimSpace(line))
	blankAfter := func(i int) bool {
		return i == limit || sm.lines.Line(i+1) == ""
	}
	found, foundAt := 0, -1
	for i := start + 1; i <= limit; i++ {
		l := sm.lines.Line(i)
		if !isSimpleTableBorder(l) {
			continue
		}
		if len(strings.TrimSpace(l)) != topLen {
			sm.pos = i + 1
			sm.node.Append(sm.malformedTable(sm.lines.Slice(start, i+1).Strings(), start,
				"Bottom/header table border does not match top border.", 0))
			sm.tableFinish(blankAfter(i))
			return matched
		}
		found++
		foundAt = i
		if found == 2 || blankAfter(i) {
			sm.pos = i + 1
			sm.buildTable(sm.lines.Slice(start, i+1).Strings(), start, ParseSimpleTable)
			sm.tableFinish(blankAfter(i))
			return matched
		}
	}
	var block []string
	extra := ""
	if found > 0 {
		extra = " or no blank line after table bottom"
		block = sm.lines.Slice(start, foundAt+1).Strings()
	} else {
		block = sm.lines.Slice(start, sm.lines.Len()).Strings()
	}
	sm.pos = start + len(block)
	sm.node.Append(sm.malformedTable(block, start, "No bottom table border found"+extra+".", 0))
	sm.tableFinish(extra == "")
	return matched
}

func (sm *stateMachine) tableFinish(blankFinish bool) {
	if !blankFinish {
		sm.node.Append(sm.report(WarningLevel, "Blank line required after table.", sm.lineno()))
	}
}

// malformedTable reports a table markup error, echoing the table source.
func (sm *stateMachine) malformedTable(block []string, start int, detail string, offset int) *Element {
	msg := "Malformed table."
	if detail != "" {
		msg += "\n" + detail
	}
	data := strings.ReplaceAll(strings.Join(block, "\n"), string(doubleWidthPad), "")
	return sm.report(ErrorLevel, msg, sm.lineAt(start)+offset, literalBlockNode(data))
}

// buildTable parses an isolated table block and appends the table element.
func (sm *stateMachine) buildTable(block []string, start int, parse func([]string) (*TableData, error)) {
	data, err := parse(block)
	if err != nil {
		detail, offset := err.Error(), 0
		if terr, ok := err.(*TableError); ok {
			offset = terr.Offset
		}
		sm.node.Append(sm.malformedTable(block, start, detail, offset))
		return
	}
	source, tableLine := sm.lines.Info(start)
	table := NewElement(TableTag)
	table.Source, table.Line = source, tableLine
	tgroup := NewElement(TGroupTag)
	tgroup.SetAttr("cols", strconv.Itoa(len(data.ColumnWidths)))
	table.Append(tgroup)
	for _, w := range data.ColumnWidths {
		colspec := NewElement(ColSpecTag)
		colspec.SetAttr("colwidth", strconv.Itoa(w))
		tgroup.Append(colspec)
	}
	if len(data.HeadRows) > 0 {
		thead := NewElement(THeadTag)
		tgroup.Append(thead)
		for _, row := range data.HeadRows {
			thead.Append(sm.tableRow(row, source, tableLine))
		}
	}
	tbody := NewElement(TBodyTag)
	tgroup.Append(tbody)
	for _, row := range data.BodyRows {
		tbody.Append(sm.tableRow(row, source, tableLine))
	}
	sm.node.Append(table)
}

func (sm *stateMachine) tableRow(cells []*TableCell, source string, tableLine int) *Element {
	row := NewElement(RowTag)
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		entry := NewElement(EntryTag)
		if cell.MoreRows > 0 {
			entry.SetAttr("morerows", strconv.Itoa(cell.MoreRows))
		}
		if cell.MoreCols > 0 {
			entry.SetAttr("morecols", strconv.Itoa(cell.MoreCols))
		}
		row.Append(entry)
		if strings.Join(cell.Lines, "") != "" {
			lines := newLinesAt(cell.Lines, source, tableLine-1+cell.Offset)
			sm.p.nestedParse(lines, entry, false)
		}
	}
	return row
}

// parseErrorf formats a message for a construct that could not be parsed.
func parseErrorf(format string, args ...any) error {
	return markupError(fmt.Sprintf(format, args...))
}
