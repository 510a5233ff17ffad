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
	"unicode/utf8"
)

const enumPattern = `(?:[0-9]+|[a-z]|[A-Z]|[ivxlcdm]+|[IVXLCDM]+|#)`

var (
	bulletPattern     = regexp.MustCompile(`^[-+*\x{2022}\x{2023}\x{2043}](?: +|$)`)
	enumeratorPattern = regexp.MustCompile(`^(?:\((` + enumPattern + `)\)|(` + enumPattern + `)\)|(` + enumPattern + `)\.)(?: +|$)`)
	lineBlockPattern  = regexp.MustCompile(`^\|(?: +|$)`)

	optionArgPattern    = `(?:[a-zA-Z][a-zA-Z0-9_-]*|<[^<>]+>)`
	optionPattern       = `(?:(?:-|\+)[a-zA-Z0-9](?: ?` + optionArgPattern + `)?|(?:--|/)[a-zA-Z0-9][a-zA-Z0-9_-]*(?:[ =]` + optionArgPattern + `)?)`
	optionMarkerPattern = regexp.MustCompile(`^` + optionPattern + `(?:, ` + optionPattern + `)*(?:  +| ?$)`)

	classifierDelimiter = regexp.MustCompile(` +: +`)
)

// startsConstruct reports whether line begins a body construct
// other than a paragraph.
func startsConstruct(line string) bool {
	if _, _, ok := parseFieldMarker(line); ok {
		return true
	}
	return bulletPattern.MatchString(line) ||
		enumeratorPattern.MatchString(line) ||
		optionMarkerPattern.MatchString(line) ||
		doctestPattern.MatchString(line) ||
		lineBlockPattern.MatchString(line) ||
		isGridTableTop(line) ||
		isSimpleTableTop(line) ||
		explicitPattern.MatchString(line) ||
		anonymousPattern.MatchString(line) ||
		isPunctuationLine(line)
}

// skipBlank advances past blank lines and reports whether a line remains.
func (sm *stateMachine) skipBlank() bool {
	for sm.pos < sm.lines.Len() && sm.lines.Line(sm.pos) == "" {
		sm.pos++
	}
	return sm.pos < sm.lines.Len()
}

// listItem parses the list item whose marker ends at markerEnd on the current line.
func (sm *stateMachine) listItem(markerEnd int) (*Element, bool) {
	start := sm.pos
	var block *Lines
	var blankFinish bool
	if len(sm.lines.Line(start)) > markerEnd {
		block, _, blankFinish = sm.lines.indentedBlock(start, false, true, markerEnd, markerEnd)
	} else {
		block, _, blankFinish = sm.lines.indentedBlock(start, false, true, markerEnd, -1)
	}
	sm.pos = start + block.Len()
	for block.Len() > 0 && block.Line(0) == "" {
		block.trimStart(1)
	}
	item := NewElement(ListItemTag)
	sm.locate(item, start)
	if block.Len() > 0 {
		sm.p.nestedParse(block, item, false)
	}
	return item, blankFinish
}

func (sm *stateMachine) bulletList(line string) parseResult {
	m := bulletPattern.FindStringIndex(line)
	if m == nil {
		return noMatch
	}
	_, size := utf8.DecodeRuneInString(line)
	bullet := line[:size]
	list := NewElement(BulletListTag)
	sm.locate(list, sm.pos)
	list.SetAttr("bullet", bullet)
	sm.node.Append(list)
	item, blankFinish := sm.listItem(m[1])
	list.Append(item)
	for sm.skipBlank() {
		l := sm.lines.Line(sm.pos)
		m = bulletPattern.FindStringIndex(l)
		if m == nil || !strings.HasPrefix(l, bullet) {
			break
		}
		item, blankFinish = sm.listItem(m[1])
		list.Append(item)
	}
	if !blankFinish {
		sm.node.Append(sm.unindentWarning("Bullet list"))
	}
	return matched
}

// enumFormat is the punctuation around an enumerator.
type enumFormat int

const (
	parensFormat enumFormat = 1 + iota // (1)
	rparenFormat                       // 1)
	periodFormat                       // 1.
)

func (f enumFormat) affixes() (prefix, suffix string) {
	switch f {
	case parensFormat:
		return "(", ")"
	case rparenFormat:
		return "", ")"
	default:
		return "", "."
	}
}

var enumSequences = []string{"arabic", "loweralpha", "upperalpha", "lowerroman", "upperroman"}

var enumSequencePatterns = map[string]*regexp.Regexp{
	"arabic":     regexp.MustCompile(`^[0-9]+$`),
	"loweralpha": regexp.MustCompile(`^[a-z]$`),
	"upperalpha": regexp.MustCompile(`^[A-Z]$`),
	"lowerroman": regexp.MustCompile(`^[ivxlcdm]+$`),
	"upperroman": regexp.MustCompile(`^[IVXLCDM]+$`),
}

// enumerator is a parsed list enumerator.
type enumerator struct {
	format   enumFormat
	sequence string // one of enumSequences or "#"
	text     string
	ordinal  int // 0 if the text is not a valid numeral
}

// parseEnumerator interprets an enumerator match.
// expected is the sequence of the enclosing list, if any.
func parseEnumerator(line string, m []int, expected string) enumerator {
	var e enumerator
	for i := 1; i <= 3; i++ {
		if m[2*i] >= 0 {
			e.format = enumFormat(i)
			e.text = line[m[2*i]:m[2*i+1]]
			break
		}
	}
	switch {
	case e.text == "#":
		e.sequence = "#"
	case expected != "" && enumSequencePatterns[expected] != nil && enumSequencePatterns[expected].MatchString(e.text):
		e.sequence = expected
	case e.text == "i":
		e.sequence = "lowerroman"
	case e.text == "I":
		e.sequence = "upperroman"
	}
	if e.sequence == "" {
		for _, seq := range enumSequences {
			if enumSequencePatterns[seq].MatchString(e.text) {
				e.sequence = seq
				break
			}
		}
	}
	switch {
	case e.sequence == "#":
		e.ordinal = 1
	case e.sequence == "arabic":
		e.ordinal, _ = strconv.Atoi(e.text)
	case strings.HasSuffix(e.sequence, "alpha"):
		e.ordinal = int(strings.ToLower(e.text)[0]-'a') + 1
	case strings.HasSuffix(e.sequence, "roman"):
		e.ordinal = fromRoman(strings.ToUpper(e.text))
	}
	return e
}

// makeEnumerator returns the enumerator text for ordinal
// and the corresponding auto-enumerator, both followed by a space.
func makeEnumerator(ordinal int, sequence string, format enumFormat) (next, auto string, ok bool) {
	var text string
	switch {
	case sequence == "#":
		text = "#"
	case sequence == "arabic":
		text = strconv.Itoa(ordinal)
	case strings.HasSuffix(sequence, "alpha"):
		if ordinal > 26 {
			return "", "", false
		}
		text = string(rune('a' + ordinal - 1))
	case strings.HasSuffix(sequence, "roman"):
		text = toRoman(ordinal)
		if text == "" {
			return "", "", false
		}
	}
	if strings.HasPrefix(sequence, "lower") {
		text = strings.ToLower(text)
	} else if strings.HasPrefix(sequence, "upper") {
		text = strings.ToUpper(text)
	}
	prefix, suffix := format.affixes()
	return prefix + text + suffix + " ", prefix + "#" + suffix + " ", true
}

// isEnumeratedListItem reports whether the current line,
// holding enumerator e, starts a list item:
// the next line must be blank, indented, or start with the next enumerator.
func (sm *stateMachine) isEnumeratedListItem(e enumerator) bool {
	if e.ordinal == 0 {
		return false
	}
	if sm.pos+1 >= sm.lines.Len() {
		return true
	}
	next := sm.lines.Line(sm.pos + 1)
	if next == "" || next[0] == ' ' {
		return true
	}
	nextEnum, autoEnum, ok := makeEnumerator(e.ordinal+1, e.sequence, e.format)
	return ok && (strings.HasPrefix(next, nextEnum) || strings.HasPrefix(next, autoEnum))
}

func (sm *stateMachine) enumeratedList(line string) parseResult {
	m := enumeratorPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return noMatch
	}
	e := parseEnumerator(line, m, "")
	if !sm.isEnumeratedListItem(e) {
		return asText
	}
	list := NewElement(EnumeratedListTag)
	sm.locate(list, sm.pos)
	sm.node.Append(list)
	enumType := e.sequence
	if enumType == "#" {
		enumType = "arabic"
	}
	prefix, suffix := e.format.affixes()
	list.SetAttr("enumtype", enumType)
	list.SetAttr("prefix", prefix)
	list.SetAttr("suffix", suffix)
	if e.ordinal != 1 {
		list.SetAttr("start", strconv.Itoa(e.ordinal))
		sm.node.Append(sm.report(InfoLevel,
			fmt.Sprintf(`Enumerated list start value not ordinal-1: "%s" (ordinal %d)`, e.text, e.ordinal),
			sm.lineno()))
	}
	item, blankFinish := sm.listItem(m[1])
	list.Append(item)
	lastOrdinal := e.ordinal
	auto := e.sequence == "#"
	for sm.skipBlank() {
		l := sm.lines.Line(sm.pos)
		m = enumeratorPattern.FindStringSubmatchIndex(l)
		if m == nil {
			break
		}
		next := parseEnumerator(l, m, enumType)
		if next.format != e.format ||
			(next.sequence != "#" && (next.sequence != enumType || auto || next.ordinal != lastOrdinal+1)) ||
			!sm.isEnumeratedListItem(next) {
			break
		}
		if next.sequence == "#" {
			auto = true
		}
		item, blankFinish = sm.listItem(m[1])
		list.Append(item)
		lastOrdinal = next.ordinal
	}
	if !blankFinish {
		sm.node.Append(sm.unindentWarning("Enumerated list"))
	}
	return matched
}

var romanNumerals = []struct {
	value int
	text  string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// toRoman returns the uppercase Roman numeral for n,
// or the empty string if n is outside 1-4999.
func toRoman(n int) string {
	if n < 1 || n > 4999 {
		return ""
	}
	sb := new(strings.Builder)
	for _, r := range romanNumerals {
		for n >= r.value {
			sb.WriteString(r.text)
			n -= r.value
		}
	}
	return sb.String()
}

// fromRoman parses a well-formed uppercase Roman numeral.
// It returns 0 if s is not one.
func fromRoman(s string) int {
	n, rest := 0, s
	for _, r := range romanNumerals {
		for strings.HasPrefix(rest, r.text) {
			n += r.value
			rest = rest[len(r.text):]
		}
	}
	if rest != "" || toRoman(n) != s {
		return 0
	}
	return n
}

// parseFieldMarker parses a field marker like ":name: " at the start of line.
// end is the index of the text following the marker.
func parseFieldMarker(line string) (name string, end int, ok bool) {
	if len(line) < 3 || line[0] != ':' || line[1] == ':' || line[1] == ' ' {
		return "", 0, false
	}
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case ':':
			if i+1 < len(line) && line[i+1] != ' ' {
				if line[i+1] == '`' {
					return "", 0, false
				}
				continue
			}
			if line[i-1] == ' ' {
				return "", 0, false
			}
			end = i + 1
			for end < len(line) && line[end] == ' ' {
				end++
			}
			return line[1:i], end, true
		}
	}
	return "", 0, false
}

func (sm *stateMachine) fieldList(line string) parseResult {
	name, end, ok := parseFieldMarker(line)
	if !ok {
		return noMatch
	}
	list := NewElement(FieldListTag)
	sm.locate(list, sm.pos)
	sm.node.Append(list)
	field, blankFinish := sm.field(name, end)
	list.Append(field)
	for sm.skipBlank() {
		name, end, ok = parseFieldMarker(sm.lines.Line(sm.pos))
		if !ok {
			break
		}
		field, blankFinish = sm.field(name, end)
		list.Append(field)
	}
	if !blankFinish {
		sm.node.Append(sm.unindentWarning("Field list"))
	}
	return matched
}

func (sm *stateMachine) field(name string, markerEnd int) (*Element, bool) {
	start := sm.pos
	lineno := sm.lineno()
	block, _, blankFinish := sm.lines.indentedBlock(start, false, true, markerEnd, -1)
	sm.pos = start + block.Len()
	for block.Len() > 0 && block.Line(0) == "" {
		block.trimStart(1)
	}
	f := NewElement(FieldTag)
	sm.locate(f, start)
	nameNodes, nameMsgs := sm.p.inlineText(name, lineno, f)
	f.Append(NewElement(FieldNameTag, nameNodes...))
	body := NewElement(FieldBodyTag)
	for _, msg := range nameMsgs {
		body.Append(msg)
	}
	f.Append(body)
	if block.Len() > 0 {
		sm.p.nestedParse(block, body, false)
	}
	return f, blankFinish
}

func (sm *stateMachine) optionList(line string) parseResult {
	marker := optionMarkerPattern.FindString(line)
	if marker == "" {
		return noMatch
	}
	item, blankFinish, err := sm.optionListItem(marker)
	if err != nil {
		sm.node.Append(sm.report(ErrorLevel, fmt.Sprintf("Invalid option list marker: %v", err), sm.lineno()))
		start := sm.pos
		block, _, blankFinish := sm.lines.indentedBlock(start, false, true, len(marker), -1)
		sm.pos = start + block.Len()
		sm.node.Append(sm.blockQuotes(block)...)
		if !blankFinish {
			sm.node.Append(sm.unindentWarning("Option list"))
		}
		return matched
	}
	if item == nil {
		return asText
	}
	list := NewElement(OptionListTag)
	sm.locate(list, sm.pos)
	sm.node.Append(list)
	list.Append(item)
	for sm.skipBlank() {
		marker = optionMarkerPattern.FindString(sm.lines.Line(sm.pos))
		if marker == "" {
			break
		}
		item, blankFinish, err = sm.optionListItem(marker)
		if err != nil || item == nil {
			break
		}
		list.Append(item)
	}
	if !blankFinish {
		sm.node.Append(sm.unindentWarning("Option list"))
	}
	return matched
}

// optionListItem parses the option list item on the current line.
// item is nil if the marker has no description.
func (sm *stateMachine) optionListItem(marker string) (item *Element, blankFinish bool, err error) {
	options, err := parseOptionMarker(marker)
	if err != nil {
		return nil, false, err
	}
	start := sm.pos
	block, _, blankFinish := sm.lines.indentedBlock(start, false, true, len(marker), -1)
	consumed := block.Len()
	for block.Len() > 0 && block.Line(0) == "" {
		block.trimStart(1)
	}
	if block.Len() == 0 {
		return nil, false, nil
	}
	sm.pos = start + consumed
	group := NewElement(OptionGroupTag, options...)
	desc := NewElement(DescriptionTag)
	item = NewElement(OptionListItemTag, group, desc)
	sm.locate(item, start)
	sm.p.nestedParse(block, desc, false)
	return item, blankFinish, nil
}

// parseOptionMarker splits an option marker into option elements.
func parseOptionMarker(marker string) ([]Node, error) {
	var opts []Node
	for _, optionString := range strings.Split(strings.TrimRight(marker, " "), ", ") {
		tokens := strings.Fields(optionString)
		delimiter := " "
		if first := strings.SplitN(tokens[0], "=", 2); len(first) > 1 {
			tokens = append(first, tokens[1:]...)
			delimiter = "="
		} else if len(tokens[0]) > 2 &&
			((strings.HasPrefix(tokens[0], "-") && !strings.HasPrefix(tokens[0], "--")) || strings.HasPrefix(tokens[0], "+")) {
			tokens = append([]string{tokens[0][:2], tokens[0][2:]}, tokens[1:]...)
			delimiter = ""
		}
		if len(tokens) > 1 && strings.HasPrefix(tokens[1], "<") && strings.HasSuffix(tokens[len(tokens)-1], ">") {
			tokens = []string{tokens[0], strings.Join(tokens[1:], " ")}
		}
		if len(tokens) > 2 {
			return nil, parseErrorf(`wrong number of option tokens (=%d), should be 1 or 2: "%s"`, len(tokens), optionString)
		}
		opt := NewElement(OptionTag, NewTextElement(OptionStringTag, tokens[0]))
		if len(tokens) == 2 {
			arg := NewTextElement(OptionArgumentTag, tokens[1])
			arg.SetAttr("delimiter", delimiter)
			opt.Append(arg)
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// definitionList parses a definition list starting at the current line,
// which is known to be followed by an indented line.
func (sm *stateMachine) definitionList() {
	list := NewElement(DefinitionListTag)
	sm.locate(list, sm.pos)
	sm.node.Append(list)
	item, blankFinish := sm.definitionListItem()
	list.Append(item)
	for sm.skipBlank() {
		l := sm.lines.Line(sm.pos)
		if l[0] == ' ' || startsConstruct(l) || sm.pos+1 >= sm.lines.Len() {
			break
		}
		if next := sm.lines.Line(sm.pos + 1); next == "" || next[0] != ' ' {
			break
		}
		item, blankFinish = sm.definitionListItem()
		list.Append(item)
	}
	if !blankFinish {
		sm.node.Append(sm.unindentWarning("Definition list"))
	}
}

func (sm *stateMachine) definitionListItem() (*Element, bool) {
	start := sm.pos
	termLine := sm.lines.Line(start)
	lineno := sm.lineAt(start)
	block, _, blankFinish := sm.lines.indentedBlock(start+1, false, true, -1, -1)
	sm.pos = start + 1 + block.Len()
	item := NewElement(DefinitionListItemTag)
	sm.locate(item, start)
	terms, msgs := sm.term(termLine, lineno)
	item.Append(terms...)
	def := NewElement(DefinitionTag)
	for _, msg := range msgs {
		def.Append(msg)
	}
	item.Append(def)
	if strings.HasSuffix(termLine, "::") {
		def.Append(sm.report(InfoLevel,
			`Blank line missing before literal block (after the "::")? Interpreted as a definition list item.`,
			lineno+1))
	}
	sm.p.nestedParse(block, def, false)
	return item, blankFinish
}

// term parses a definition list term line into a term
// followed by any classifiers.
func (sm *stateMachine) term(line string, lineno int) ([]Node, []*Element) {
	inlines, msgs := sm.p.inlineText(line, lineno, sm.node)
	term := NewElement(TermTag)
	term.Source, term.Line = sm.p.doc.Source, lineno
	nodes := []Node{term}
	cur := term
	for _, n := range inlines {
		t, ok := n.(*Text)
		if !ok {
			cur.Append(n)
			continue
		}
		parts := classifierDelimiter.Split(t.Value, -1)
		if len(parts) == 1 {
			cur.Append(n)
			continue
		}
		if s := strings.TrimRight(parts[0], " "); s != "" {
			cur.Append(NewText(s))
		}
		for _, part := range parts[1:] {
			cur = NewTextElement(ClassifierTag, part)
			nodes = append(nodes, cur)
		}
	}
	return nodes, msgs
}

// lineBlock parses a line block: lines starting with "|"
// whose relative indentation determines nesting.
func (sm *stateMachine) lineBlock(line string) parseResult {
	m := lineBlockPattern.FindStringIndex(line)
	if m == nil {
		return noMatch
	}
	lineno := sm.lineno()
	block := NewElement(LineBlockTag)
	sm.locate(block, sm.pos)
	sm.node.Append(block)
	var items []indentedLine
	item, msgs, blankFinish := sm.lineBlockLine(m[1])
	items = append(items, item)
	sm.node.Append(msgs...)
	for !blankFinish && sm.pos < sm.lines.Len() {
		m = lineBlockPattern.FindStringIndex(sm.lines.Line(sm.pos))
		if m == nil {
			break
		}
		item, msgs, blankFinish = sm.lineBlockLine(m[1])
		items = append(items, item)
		sm.node.Append(msgs...)
	}
	if !blankFinish {
		sm.node.Append(sm.report(WarningLevel, "Line block ends without a blank line.", lineno+1))
	}
	if items[0].indent < 0 {
		items[0].indent = 0
	}
	for i := 1; i < len(items); i++ {
		if items[i].indent < 0 {
			items[i].indent = items[i-1].indent
		}
	}
	block.Append(nestLineBlockSegment(items)...)
	return matched
}

type indentedLine struct {
	node   *Element
	indent int // -1 for an empty line
}

func (sm *stateMachine) lineBlockLine(markerEnd int) (indentedLine, []Node, bool) {
	start := sm.pos
	lineno := sm.lineno()
	raw := sm.lines.Line(start)
	block, _, blankFinish := sm.lines.indentedBlock(start, true, true, markerEnd, -1)
	sm.pos = start + block.Len()
	inlines, msgs := sm.p.inlineText(block.Join(), lineno, sm.node)
	l := NewElement(LineTag, inlines...)
	sm.locate(l, start)
	indent := -1
	if strings.TrimRight(raw, " ") != "|" {
		indent = markerEnd - 2
	}
	nodes := make([]Node, len(msgs))
	for i, msg := range msgs {
		nodes[i] = msg
	}
	return indentedLine{node: l, indent: indent}, nodes, blankFinish
}

// nestLineBlockSegment groups lines indented beyond the least indentation
// into nested line blocks.
func nestLineBlockSegment(items []indentedLine) []Node {
	least := items[0].indent
	for _, it := range items[1:] {
		least = min(least, it.indent)
	}
	var out []Node
	var sub []indentedLine
	flush := func() {
		if len(sub) > 0 {
			out = append(out, NewElement(LineBlockTag, nestLineBlockSegment(sub)...))
			sub = nil
		}
	}
	for _, it := range items {
		if it.indent > least {
			sub = append(sub, it)
			continue
		}
		flush()
		out = append(out, it.node)
	}
	flush()
	return out
}
