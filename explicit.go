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
	"strings"
	"unicode"
)

const simpleNamePattern = `[\p{L}\p{N}\p{M}]+(?:[-._+:][\p{L}\p{N}\p{M}]+)*`

var (
	explicitPattern  = regexp.MustCompile(`^\.\.(?: +|$)`)
	anonymousPattern = regexp.MustCompile(`^__(?: +|$)`)

	footnotePattern     = regexp.MustCompile(`^\.\. +\[([0-9]+|#|#` + simpleNamePattern + `|\*)\](?: +|$)`)
	citationPattern     = regexp.MustCompile(`^\.\. +\[(` + simpleNamePattern + `)\](?: +|$)`)
	targetStartPattern  = regexp.MustCompile(`^\.\. +_[^ ]`)
	substStartPattern   = regexp.MustCompile(`^\.\. +\|[^ ]`)
	directivePattern    = regexp.MustCompile(`^\.\. +(` + simpleNamePattern + `) ?::(?: +|$)`)
	embeddedDirective   = regexp.MustCompile(`^(` + simpleNamePattern + `)::(?: +|$)`)
	referenceOnlyTarget = regexp.MustCompile("^(?:(" + simpleNamePattern + ")_|`([^ ].*?[^ ]|[^ ])`_)$")
)

// explicitConstruct is one kind of explicit markup block.
// It returns nil nodes if the line does not match.
type explicitConstruct func(sm *stateMachine, line string) ([]Node, bool, error)

var explicitConstructs []explicitConstruct

func init() {
	explicitConstructs = []explicitConstruct{
		(*stateMachine).footnote,
		(*stateMachine).citation,
		(*stateMachine).hyperlinkTarget,
		(*stateMachine).substitutionDef,
		(*stateMachine).directiveBlock,
	}
}

// explicitMarkup handles a block starting with "..",
// followed by any further explicit markup blocks.
func (sm *stateMachine) explicitMarkup(line string) parseResult {
	if !explicitPattern.MatchString(line) {
		return noMatch
	}
	nodes, blankFinish := sm.explicitBlock(line)
	sm.node.Append(nodes...)
	sm.explicitList(blankFinish)
	return matched
}

// anonymousTarget handles a "__ uri" block.
func (sm *stateMachine) anonymousTarget(line string) parseResult {
	m := anonymousPattern.FindStringIndex(line)
	if m == nil {
		return noMatch
	}
	nodes, blankFinish := sm.anonymousTargetBlock(m[1])
	sm.node.Append(nodes...)
	sm.explicitList(blankFinish)
	return matched
}

// explicitList parses the explicit markup blocks following the first one.
func (sm *stateMachine) explicitList(blankFinish bool) {
	for sm.skipBlank() {
		line := sm.lines.Line(sm.pos)
		switch {
		case explicitPattern.MatchString(line):
			var nodes []Node
			nodes, blankFinish = sm.explicitBlock(line)
			sm.node.Append(nodes...)
		case anonymousPattern.MatchString(line):
			var nodes []Node
			nodes, blankFinish = sm.anonymousTargetBlock(anonymousPattern.FindStringIndex(line)[1])
			sm.node.Append(nodes...)
		default:
			if !blankFinish {
				sm.node.Append(sm.unindentWarning("Explicit markup"))
			}
			return
		}
	}
}

// explicitBlock tries each explicit construct in order.
// Blocks matching no construct are comments.
func (sm *stateMachine) explicitBlock(line string) ([]Node, bool) {
	start := sm.pos
	var errs []Node
	for _, construct := range explicitConstructs {
		nodes, blankFinish, err := construct(sm, line)
		if err != nil {
			errs = append(errs, sm.report(WarningLevel, err.Error(), sm.lineAt(start)))
			sm.pos = start
			break
		}
		if nodes != nil {
			return nodes, blankFinish
		}
	}
	nodes, blankFinish := sm.comment(line)
	return append(nodes, errs...), blankFinish
}

// comment consumes a comment block.
func (sm *stateMachine) comment(line string) ([]Node, bool) {
	start := sm.pos
	markerEnd := explicitPattern.FindStringIndex(line)[1]
	if strings.TrimSpace(line[markerEnd:]) == "" && start+1 < sm.lines.Len() && sm.lines.Line(start+1) == "" {
		sm.pos++
		c := NewElement(CommentTag)
		sm.locate(c, start)
		return []Node{c}, true
	}
	block, _, blankFinish := sm.lines.indentedBlock(start, false, true, markerEnd, -1)
	sm.pos = start + block.Len()
	block.stripBlankEdges()
	c := NewTextElement(CommentTag, block.Join())
	sm.locate(c, start)
	return []Node{c}, blankFinish
}

// firstKnownIndented consumes the block following a marker ending at markerEnd,
// removing leading blank lines.
func (sm *stateMachine) firstKnownIndented(markerEnd int, untilBlank, stripIndent bool) (*Lines, bool) {
	start := sm.pos
	block, _, blankFinish := sm.lines.indentedBlock(start, untilBlank, stripIndent, markerEnd, -1)
	sm.pos = start + block.Len()
	for block.Len() > 0 && block.Line(0) == "" {
		block.trimStart(1)
	}
	return block, blankFinish
}

func (sm *stateMachine) footnote(line string) ([]Node, bool, error) {
	m := footnotePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, false, nil
	}
	start := sm.pos
	block, blankFinish := sm.firstKnownIndented(m[1], false, true)
	label := line[m[2]:m[3]]
	name := NormalizeName(label)
	fn := NewElement(FootnoteTag)
	sm.locate(fn, start)
	doc := sm.p.doc
	switch {
	case name[0] == '#':
		name = name[1:]
		fn.SetAttr("auto", "1")
		if name != "" {
			fn.Names = append(fn.Names, name)
		}
		doc.noteAutofootnote(fn)
	case name == "*":
		name = ""
		fn.SetAttr("auto", "*")
		doc.noteSymbolFootnote(fn)
	default:
		fn.Append(NewTextElement(LabelTag, label))
		fn.Names = append(fn.Names, name)
		doc.noteFootnote(fn)
	}
	if name != "" {
		doc.noteExplicitTarget(fn, fn)
	} else {
		doc.setID(fn, fn)
	}
	if block.Len() > 0 {
		sm.p.nestedParse(block, fn, false)
	}
	return []Node{fn}, blankFinish, nil
}

func (sm *stateMachine) citation(line string) ([]Node, bool, error) {
	m := citationPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, false, nil
	}
	start := sm.pos
	block, blankFinish := sm.firstKnownIndented(m[1], false, true)
	label := line[m[2]:m[3]]
	c := NewElement(CitationTag, NewTextElement(LabelTag, label))
	sm.locate(c, start)
	c.Names = append(c.Names, NormalizeName(label))
	sm.p.doc.noteCitation(c)
	sm.p.doc.noteExplicitTarget(c, c)
	if block.Len() > 0 {
		sm.p.nestedParse(block, c, false)
	}
	return []Node{c}, blankFinish, nil
}

// hyperlinkTarget handles ".. _name: uri", ".. _name: ref_",
// ".. _name:" and ".. __: uri" blocks.
func (sm *stateMachine) hyperlinkTarget(line string) ([]Node, bool, error) {
	m := targetStartPattern.FindStringIndex(line)
	if m == nil {
		return nil, false, nil
	}
	markerEnd := m[1] - 1
	lineno := sm.lineno()
	block, blankFinish := sm.firstKnownIndented(markerEnd, true, true)
	lines := block.Strings()
	for i := range lines {
		lines[i] = escapeToNull(lines[i])
	}
	escaped := lines[0]
	idx := 0
	var tm targetMatch
	for {
		var ok bool
		if tm, ok = matchTargetName(escaped); ok {
			break
		}
		idx++
		if idx >= len(lines) {
			return nil, blankFinish, markupError("malformed hyperlink target.")
		}
		escaped += lines[idx]
	}
	lines = lines[idx:]
	rest := escaped[tm.end:]
	if len(rest) > len(lines[0]) {
		rest = rest[len(rest)-len(lines[0]):]
	}
	lines[0] = strings.TrimSpace(rest)
	target := sm.makeTarget(lines, lineno, tm.name, tm.anonymous)
	return []Node{target}, blankFinish, nil
}

func (sm *stateMachine) anonymousTargetBlock(markerEnd int) ([]Node, bool) {
	lineno := sm.lineno()
	block, blankFinish := sm.firstKnownIndented(markerEnd, true, true)
	lines := block.Strings()
	for i := range lines {
		lines[i] = escapeToNull(lines[i])
	}
	return []Node{sm.makeTarget(lines, lineno, "", true)}, blankFinish
}

type targetMatch struct {
	name      string // escaped
	anonymous bool
	end       int
}

// matchTargetName matches the name part of a hyperlink target
// (the text after ".. _") up to its colon and following spaces.
func matchTargetName(s string) (targetMatch, bool) {
	r := []rune(s)
	// colonAfter matches an optional space, a colon, and trailing spaces at i.
	colonAfter := func(i int) (int, bool) {
		if i < len(r) && r[i] == ' ' {
			i++
		}
		if i >= len(r) || r[i] != ':' {
			return 0, false
		}
		i++
		if i < len(r) && r[i] != ' ' {
			return 0, false
		}
		for i < len(r) && r[i] == ' ' {
			i++
		}
		return i, true
	}
	runeEnd := func(i int) int {
		return len(string(r[:i]))
	}
	if len(r) > 0 && r[0] == '_' {
		if end, ok := colonAfter(1); ok {
			return targetMatch{anonymous: true, end: runeEnd(end)}, true
		}
		return targetMatch{}, false
	}
	if len(r) == 0 || r[0] == ' ' {
		return targetMatch{}, false
	}
	quoted := r[0] == '`'
	nameStart := 0
	if quoted {
		nameStart = 1
		if len(r) < 2 || r[1] == ' ' || r[1] == '`' {
			return targetMatch{}, false
		}
	}
	for e := nameStart + 1; e <= len(r); e++ {
		last := r[e-1]
		if unicode.IsSpace(last) || last == 0 {
			continue
		}
		after := e
		if quoted {
			if e >= len(r) || r[e] != '`' {
				continue
			}
			after = e + 1
		} else if last == ':' && !(e >= 2 && r[e-2] == 0) {
			continue
		}
		if end, ok := colonAfter(after); ok {
			return targetMatch{name: string(r[nameStart:e]), end: runeEnd(end)}, true
		}
	}
	return targetMatch{}, false
}

// makeTarget builds a target element from the lines following its name.
// The lines are escaped with [escapeToNull].
func (sm *stateMachine) makeTarget(lines []string, lineno int, name string, anonymous bool) *Element {
	doc := sm.p.doc
	target := NewElement(TargetTag)
	target.Source, target.Line = doc.Source, lineno
	refname, refuri := targetValue(lines)
	if refname != "" {
		target.SetAttr("refname", NormalizeName(refname))
		sm.addTarget(name, anonymous, "", target)
		doc.noteIndirectTarget(target)
		return target
	}
	sm.addTarget(name, anonymous, refuri, target)
	return target
}

// targetValue interprets the escaped lines of a target
// as either the name of another reference or a URI.
func targetValue(lines []string) (refname, refuri string) {
	if name, ok := parseTargetReference(lines); ok {
		return name, ""
	}
	var parts []string
	for _, part := range splitEscapedWhitespace(strings.Join(lines, " ")) {
		parts = append(parts, strings.Join(strings.Fields(unescape([]rune(part), false)), ""))
	}
	return "", strings.Join(parts, " ")
}

// parseTargetReference reports whether the target lines
// name another reference ("name_" or "`phrase`_").
func parseTargetReference(lines []string) (string, bool) {
	if len(lines) == 0 {
		return "", false
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.HasSuffix(last, "_") {
		return "", false
	}
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSpace(l)
	}
	ref := whitespaceNormalizeName(strings.Join(trimmed, " "))
	m := referenceOnlyTarget.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	return unescape([]rune(name), false), true
}

// splitEscapedWhitespace splits text at escaped spaces and newlines.
func splitEscapedWhitespace(text string) []string {
	var out []string
	for _, s := range strings.Split(text, "\x00 ") {
		out = append(out, strings.Split(s, "\x00\n")...)
	}
	return out
}

func (sm *stateMachine) addTarget(name string, anonymous bool, refuri string, target *Element) {
	doc := sm.p.doc
	if anonymous {
		if refuri != "" {
			target.SetAttr("refuri", refuri)
		}
		target.SetAttr("anonymous", "1")
		doc.noteAnonymousTarget(target)
		return
	}
	target.Names = append(target.Names, NormalizeName(unescape([]rune(name), false)))
	if refuri != "" {
		target.SetAttr("refuri", adjustURI(refuri))
	}
	doc.noteExplicitTarget(target, sm.node)
}

// substitutionDef handles ".. |name| directive:: ..." blocks.
func (sm *stateMachine) substitutionDef(line string) ([]Node, bool, error) {
	m := substStartPattern.FindStringIndex(line)
	if m == nil {
		return nil, false, nil
	}
	markerEnd := m[1] - 1
	start := sm.pos
	lineno := sm.lineno()
	block, blankFinish := sm.firstKnownIndented(markerEnd, false, false)
	blockText := line[:markerEnd] + block.Join()

	escaped := escapeToNull(strings.TrimRight(block.Line(0), " "))
	idx := 0
	var name string
	var end int
	for {
		var ok bool
		if name, end, ok = matchSubstitutionName(escaped); ok {
			break
		}
		idx++
		if idx >= block.Len() {
			return nil, blankFinish, markupError("malformed substitution definition.")
		}
		escaped += " " + escapeToNull(strings.TrimSpace(block.Line(idx)))
	}
	block.trimStart(idx)
	first := strings.TrimSpace(block.Line(0))
	if rem := len(escaped) - end; rem <= len(first) {
		first = first[len(first)-rem:]
	}
	block.data[0] = first
	if first == "" {
		block.trimStart(1)
	}
	for block.Len() > 0 && strings.TrimSpace(block.Line(block.Len()-1)) == "" {
		block.trimEnd(1)
	}
	subName := unescape([]rune(name), false)
	if block.Len() == 0 {
		msg := sm.report(WarningLevel, fmt.Sprintf(`Substitution definition "%s" missing contents.`, subName), lineno,
			literalBlockNode(blockText))
		return []Node{msg}, blankFinish, nil
	}
	block.data[0] = strings.TrimSpace(block.data[0])

	def := NewElement(SubstitutionDefTag)
	def.rawSource = strings.TrimRight(blockText, "\n")
	sm.locate(def, start)
	def.Names = append(def.Names, whitespaceNormalizeName(subName))
	if dm := embeddedDirective.FindStringSubmatchIndex(block.Line(0)); dm != nil {
		inner := &stateMachine{p: sm.p, lines: block, node: def}
		nodes, _ := inner.directive(block.Line(0)[dm[2]:dm[3]], dm[1], map[string]string{"alt": subName})
		def.Append(nodes...)
	}
	for _, c := range append([]Node(nil), def.Children()...) {
		if e, ok := c.(*Element); ok && !e.Tag.IsInline() {
			sm.node.Append(e)
		}
	}
	for _, e := range def.FindAll(disallowedInSubstitution) {
		msg := sm.report(ErrorLevel, fmt.Sprintf("Substitution definition contains illegal element <%s>:", e.Tag), lineno,
			literalBlockNode(fmt.Sprintf("<%s>\n    %s", e.Tag, e.AsText())),
			literalBlockNode(blockText))
		return []Node{msg}, blankFinish, nil
	}
	if def.ChildCount() == 0 {
		msg := sm.report(WarningLevel, fmt.Sprintf(`Substitution definition "%s" empty or invalid.`, subName), lineno,
			literalBlockNode(blockText))
		return []Node{msg}, blankFinish, nil
	}
	sm.p.doc.noteSubstitutionDef(def, subName, sm.node)
	return []Node{def}, blankFinish, nil
}

// matchSubstitutionName matches "name| " at the start of s.
func matchSubstitutionName(s string) (name string, end int, ok bool) {
	if s == "" || s[0] == ' ' {
		return "", 0, false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != '|' {
			continue
		}
		prev := s[i-1]
		if prev == ' ' || prev == '\n' || prev == 0 {
			continue
		}
		j := i + 1
		if j < len(s) && s[j] != ' ' {
			continue
		}
		for j < len(s) && s[j] == ' ' {
			j++
		}
		return s[:i], j, true
	}
	return "", 0, false
}

func (sm *stateMachine) directiveBlock(line string) ([]Node, bool, error) {
	m := directivePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, false, nil
	}
	nodes, blankFinish := sm.directive(line[m[2]:m[3]], m[1], nil)
	if nodes == nil {
		nodes = []Node{}
	}
	return nodes, blankFinish, nil
}

// disallowedInSubstitution reports whether e may not appear
// inside a substitution definition.
func disallowedInSubstitution(e *Element) bool {
	switch {
	case e.Tag == SubstitutionDefTag:
		return false
	case len(e.IDs) > 0:
		return true
	case e.Tag == ReferenceTag && e.HasAttr("anonymous"):
		return true
	case e.Tag == FootnoteReferenceTag && e.HasAttr("auto"):
		return true
	}
	return false
}
