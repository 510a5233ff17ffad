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
	"unicode"
	"unicode/utf8"
)

// markupKind identifies a start-string construct for exclusion
// when parsing the interior of nested markup.
type markupKind uint8

const (
	strongMarkup markupKind = 1 << iota
	emphasisMarkup
)

// inliner recognizes inline markup in one block of text.
type inliner struct {
	doc      *Document
	registry *Registry
	lang     *languageTable
	parent   *Element
	line     int
	// defaultRole overrides the role used for interpreted text without one.
	defaultRole string
}

// parseInline parses text and returns the resulting inline nodes
// and the system messages that belong after the containing element.
func (in *inliner) parseInline(text string) ([]Node, []*Element) {
	s := &inlineScanner{
		in:        in,
		text:      []rune(escapeToNull(text)),
		charLevel: in.doc.Settings.CharacterLevelInlineMarkup,
	}
	return s.run()
}

type inlineScanner struct {
	in        *inliner
	text      []rune
	exclude   markupKind
	charLevel bool
}

// inlineMatch is the outcome of dispatching a recognized start-string.
type inlineMatch struct {
	start, end int // span of text consumed
	nodes      []Node
	msgs       []*Element
	trimBefore bool

	// skip is set if the start-string turned out not to be markup.
	// Scanning resumes at end without consuming anything.
	skip bool
}

func (s *inlineScanner) run() ([]Node, []*Element) {
	var out []Node
	var msgs []*Element
	textStart, pos := 0, 0
	for pos < len(s.text) {
		m, ok := s.next(pos)
		if !ok {
			break
		}
		if m.skip {
			pos = m.end
			continue
		}
		before := s.text[textStart:m.start]
		if m.trimBefore {
			before = []rune(strings.TrimRight(string(before), " \n"))
		}
		out = append(out, s.implicit(before)...)
		out = append(out, m.nodes...)
		msgs = append(msgs, m.msgs...)
		textStart, pos = m.end, m.end
	}
	out = append(out, s.implicit(s.text[textStart:])...)
	return out, msgs
}

// next finds the leftmost inline construct starting at or after pos
// and dispatches it.
func (s *inlineScanner) next(pos int) (inlineMatch, bool) {
	for i := pos; i < len(s.text); i++ {
		c := s.text[i]
		if c != '*' && c != '`' && c != '_' && c != '|' && c != '[' && c != ':' && !isNameChar(c) {
			continue
		}
		if !s.startPrefixOK(i) {
			continue
		}
		switch {
		case s.hasPrefix(i, "**"):
			if s.exclude&strongMarkup == 0 && s.nonSpaceAt(i+2) {
				return s.inlineObject(i, 2, StrongTag, "strong"), true
			}
			continue
		case c == '*':
			if s.exclude&emphasisMarkup == 0 && s.nonSpaceAt(i+1) {
				return s.inlineObject(i, 1, EmphasisTag, "emphasis"), true
			}
			continue
		case s.hasPrefix(i, "``"):
			if s.nonSpaceAt(i + 2) {
				return s.literal(i), true
			}
			continue
		case s.hasPrefix(i, "_`"):
			if s.nonSpaceAt(i + 2) {
				return s.inlineTarget(i), true
			}
			continue
		case c == '|' && !s.hasPrefix(i, "||"):
			if s.nonSpaceAt(i + 1) {
				return s.substitutionReference(i), true
			}
			continue
		}
		if m, ok := s.wholeReference(i); ok {
			return m, true
		}
		if m, ok := s.footnoteReference(i); ok {
			return m, true
		}
		if m, ok := s.interpreted(i); ok {
			return m, true
		}
	}
	return inlineMatch{}, false
}

func (s *inlineScanner) hasPrefix(i int, prefix string) bool {
	for _, c := range prefix {
		if i >= len(s.text) || s.text[i] != c {
			return false
		}
		i++
	}
	return true
}

func (s *inlineScanner) nonSpaceAt(i int) bool {
	return i < len(s.text) && !unicode.IsSpace(s.text[i])
}

// startPrefixOK reports whether a start-string may begin at i.
func (s *inlineScanner) startPrefixOK(i int) bool {
	if i == 0 {
		return true
	}
	prev := s.text[i-1]
	if s.charLevel {
		return prev != 0
	}
	return unicode.IsSpace(prev) || isOpener(prev) || isDelimiter(prev)
}

// endOK reports whether an end-string may occupy [i, j).
func (s *inlineScanner) endOK(i, j int) bool {
	if i == 0 {
		return false
	}
	prev := s.text[i-1]
	if unicode.IsSpace(prev) || prev == 0 {
		return false
	}
	return s.endSuffixOK(j)
}

func (s *inlineScanner) endSuffixOK(j int) bool {
	if j >= len(s.text) || s.charLevel {
		return true
	}
	next := s.text[j]
	return unicode.IsSpace(next) || next == 0 || isClosingDelimiter(next) || isDelimiter(next) || isCloser(next)
}

// quotedStart reports whether the start-string at [i, j)
// is enclosed in matching quotes or brackets, like '*' or (*).
func (s *inlineScanner) quotedStart(i, j int) bool {
	if i == 0 || j >= len(s.text) {
		return false
	}
	closer, ok := matchingCloser[s.text[i-1]]
	return ok && s.text[j] == closer
}

// findEnd returns the position of the first valid occurrence of end at or after from.
func (s *inlineScanner) findEnd(from int, end string, notAfter rune) int {
	n := len([]rune(end))
	for k := from; k+n <= len(s.text); k++ {
		if !s.hasPrefix(k, end) || !s.endOK(k, k+n) {
			continue
		}
		if notAfter != 0 && k > 0 && s.text[k-1] == notAfter {
			continue
		}
		return k
	}
	return -1
}

// inlineObject handles emphasis and strong emphasis.
// The interior is parsed again with the construct itself excluded,
// so strong text may contain emphasis and vice versa.
func (s *inlineScanner) inlineObject(i, n int, tag Tag, what string) inlineMatch {
	if s.quotedStart(i, i+n) {
		return inlineMatch{skip: true, end: i + n}
	}
	marker := string(s.text[i : i+n])
	var notAfter rune
	if tag == EmphasisTag {
		notAfter = '*'
	}
	k := s.findEnd(i+n+1, marker, notAfter)
	if k < 0 {
		return s.unterminated(i, i+n, what)
	}
	e := NewElement(tag)
	kind := emphasisMarkup
	if tag == StrongTag {
		kind = strongMarkup
	}
	inner := &inlineScanner{
		in:        s.in,
		text:      s.text[i+n : k],
		exclude:   s.exclude | kind,
		charLevel: s.charLevel,
	}
	children, msgs := inner.run()
	e.Append(children...)
	return inlineMatch{start: i, end: k + n, nodes: []Node{e}, msgs: msgs}
}

func (s *inlineScanner) literal(i int) inlineMatch {
	if s.quotedStart(i, i+2) {
		return inlineMatch{skip: true, end: i + 2}
	}
	k := -1
	for j := i + 3; j+2 <= len(s.text); j++ {
		if s.hasPrefix(j, "``") && !unicode.IsSpace(s.text[j-1]) && s.endSuffixOK(j+2) {
			k = j
			break
		}
	}
	if k < 0 {
		return s.unterminated(i, i+2, "literal")
	}
	e := NewTextElement(LiteralTag, unescape(s.text[i+2:k], true))
	return inlineMatch{start: i, end: k + 2, nodes: []Node{e}}
}

func (s *inlineScanner) inlineTarget(i int) inlineMatch {
	if s.quotedStart(i, i+2) {
		return inlineMatch{skip: true, end: i + 2}
	}
	k := s.findEnd(i+3, "`", 0)
	if k < 0 {
		return s.unterminated(i, i+2, "target")
	}
	text := unescape(s.text[i+2:k], false)
	target := NewTextElement(TargetTag, text)
	target.Line = s.in.line
	if name := NormalizeName(text); name != "" {
		target.Names = append(target.Names, name)
		s.in.doc.noteExplicitTarget(target, s.in.parent)
	}
	return inlineMatch{start: i, end: k + 1, nodes: []Node{target}}
}

func (s *inlineScanner) substitutionReference(i int) inlineMatch {
	if s.quotedStart(i, i+1) {
		return inlineMatch{skip: true, end: i + 1}
	}
	k := -1
	endLen := 0
	for j := i + 2; j < len(s.text); j++ {
		if s.text[j] != '|' {
			continue
		}
		switch {
		case s.hasPrefix(j, "|__") && s.endOK(j, j+3):
			endLen = 3
		case s.hasPrefix(j, "|_") && s.endOK(j, j+2):
			endLen = 2
		case s.endOK(j, j+1):
			endLen = 1
		default:
			continue
		}
		k = j
		break
	}
	if k < 0 {
		return s.unterminated(i, i+1, "substitution_reference")
	}
	text := unescape(s.text[i+1:k], false)
	subref := NewTextElement(SubstitutionRefTag, text)
	subref.SetAttr("refname", whitespaceNormalizeName(text))
	node := Node(subref)
	if endLen > 1 {
		ref := NewElement(ReferenceTag)
		if endLen == 3 {
			ref.SetAttr("anonymous", "1")
		} else {
			ref.SetAttr("refname", NormalizeName(text))
			s.in.doc.noteRefName(ref)
		}
		ref.Append(subref)
		node = ref
	}
	return inlineMatch{start: i, end: k + endLen, nodes: []Node{node}}
}

// wholeReference handles "name_" and "name__".
func (s *inlineScanner) wholeReference(i int) (inlineMatch, bool) {
	for _, end := range simpleNameEnds(s.text, i) {
		for _, refend := range []string{"__", "_"} {
			j := end + len(refend)
			if !s.hasPrefix(end, refend) || !s.endSuffixOK(j) {
				continue
			}
			name := string(s.text[i:end])
			ref := NewTextElement(ReferenceTag, unescape([]rune(name), false))
			ref.SetAttr("name", whitespaceNormalizeName(name))
			if refend == "__" {
				ref.SetAttr("anonymous", "1")
			} else {
				ref.SetAttr("refname", NormalizeName(name))
				s.in.doc.noteRefName(ref)
			}
			return inlineMatch{start: i, end: j, nodes: []Node{ref}}, true
		}
	}
	return inlineMatch{}, false
}

// footnoteReference handles "[1]_", "[#]_", "[#label]_", "[*]_" and "[label]_".
func (s *inlineScanner) footnoteReference(i int) (inlineMatch, bool) {
	if s.text[i] != '[' {
		return inlineMatch{}, false
	}
	closeIdx := -1
	for j := i + 1; j < len(s.text); j++ {
		if s.text[j] == ']' {
			closeIdx = j
			break
		}
	}
	if closeIdx < 0 || !s.hasPrefix(closeIdx, "]_") || !s.endSuffixOK(closeIdx+2) {
		return inlineMatch{}, false
	}
	label := string(s.text[i+1 : closeIdx])
	citation := false
	switch {
	case isDigits(label):
	case label == "#" || label == "*":
	case strings.HasPrefix(label, "#") && isSimpleName(label[1:]):
	case isSimpleName(label):
		citation = true
	default:
		return inlineMatch{}, false
	}
	doc := s.in.doc
	refname := NormalizeName(label)
	var ref *Element
	if citation {
		ref = NewTextElement(CitationReferenceTag, label)
		ref.SetAttr("refname", refname)
		doc.noteCitationRef(ref)
	} else {
		ref = NewElement(FootnoteReferenceTag)
		switch {
		case strings.HasPrefix(refname, "#"):
			refname = refname[1:]
			ref.SetAttr("auto", "1")
			doc.noteAutofootnoteRef(ref)
		case refname == "*":
			refname = ""
			ref.SetAttr("auto", "*")
			doc.noteSymbolFootnoteRef(ref)
		default:
			ref.Append(NewText(label))
		}
		if refname != "" {
			ref.SetAttr("refname", refname)
			doc.noteFootnoteRef(ref)
		}
	}
	return inlineMatch{
		start:      i,
		end:        closeIdx + 2,
		nodes:      []Node{ref},
		trimBefore: doc.Settings.TrimFootnoteReferenceSpace,
	}, true
}

// interpreted handles interpreted text with an optional role
// and phrase references.
func (s *inlineScanner) interpreted(i int) (inlineMatch, bool) {
	roleStart := i
	role := ""
	bq := i
	if s.text[i] == ':' {
		found := false
		for _, end := range simpleNameEnds(s.text, i+1) {
			if s.hasPrefix(end, ":`") {
				role = string(s.text[i+1 : end])
				bq = end + 1
				found = true
				break
			}
		}
		if !found {
			return inlineMatch{}, false
		}
	}
	if s.text[bq] != '`' || s.hasPrefix(bq, "``") || !s.nonSpaceAt(bq+1) {
		return inlineMatch{}, false
	}
	position := ""
	if role != "" {
		position = "prefix"
	} else if s.quotedStart(bq, bq+1) {
		return inlineMatch{skip: true, end: bq + 1}, true
	}

	// Find the closing backquote with its optional suffix role and reference end.
	for k := bq + 2; k < len(s.text); k++ {
		if s.text[k] != '`' || unicode.IsSpace(s.text[k-1]) || s.text[k-1] == 0 {
			continue
		}
		suffixRole, end, refend, ok := s.interpretedEnd(k + 1)
		if !ok {
			continue
		}
		escaped := s.text[bq+1 : k]
		if suffixRole != "" {
			if role != "" {
				return s.problematicSpan(roleStart, end, "Multiple roles in interpreted text (both prefix and suffix present; only one allowed)."), true
			}
			role = suffixRole
			position = "suffix"
		}
		if refend != "" {
			if role != "" {
				return s.problematicSpan(roleStart, end, fmt.Sprintf("Mismatch: both interpreted text role %s and reference suffix.", position)), true
			}
			return s.phraseReference(bq, end, escaped, refend == "__"), true
		}
		return s.interpretedText(roleStart, end, role, escaped), true
	}
	return s.unterminated(bq, bq+1, "interpreted text or phrase reference"), true
}

// interpretedEnd matches the optional ":role:" and "_" or "__"
// following a closing backquote whose next position is j.
// Longer suffixes are preferred.
func (s *inlineScanner) interpretedEnd(j int) (role string, end int, refend string, ok bool) {
	type candidate struct {
		role   string
		after  int
		refend string
	}
	var candidates []candidate
	if j < len(s.text) && s.text[j] == ':' {
		for _, e := range simpleNameEnds(s.text, j+1) {
			if e < len(s.text) && s.text[e] == ':' {
				r := string(s.text[j+1 : e])
				candidates = append(candidates,
					candidate{r, e + 1, "__"},
					candidate{r, e + 1, "_"},
					candidate{r, e + 1, ""})
				break
			}
		}
	}
	candidates = append(candidates,
		candidate{"", j, "__"},
		candidate{"", j, "_"},
		candidate{"", j, ""})
	for _, c := range candidates {
		if c.refend != "" && !s.hasPrefix(c.after, c.refend) {
			continue
		}
		e := c.after + len(c.refend)
		if s.endSuffixOK(e) {
			return c.role, e, c.refend, true
		}
	}
	return "", 0, "", false
}

var embeddedLink = regexp.MustCompile(`(?:[ \n]+|^)<([^ \n<>](?:[^<>]|\x00[<>])*)>$`)

func (s *inlineScanner) phraseReference(start, end int, escaped []rune, anonymous bool) inlineMatch {
	doc := s.in.doc
	esc := string(escaped)
	var target *Element
	aliasIsName := false
	alias := ""
	text := unescape(escaped, false)
	if loc := embeddedLink.FindStringSubmatchIndex(esc); loc != nil && !strings.HasSuffix(esc[loc[2]:loc[3]], " ") && !strings.HasSuffix(esc[loc[2]:loc[3]], "\x00") {
		aliasRaw := []rune(esc[loc[2]:loc[3]])
		aliasText := unescape(aliasRaw, false)
		underscoreEscaped := strings.HasSuffix(unescape(aliasRaw, true), `\_`)
		text = unescape([]rune(esc[:loc[0]]), false)
		if strings.HasSuffix(aliasText, "_") && !underscoreEscaped && !isURI(aliasText) {
			aliasIsName = true
			alias = NormalizeName(aliasText[:len(aliasText)-1])
			target = NewElement(TargetTag)
			target.SetAttr("refname", alias)
		} else {
			alias = adjustURI(strings.Join(strings.Fields(aliasText), ""))
			target = NewElement(TargetTag)
			target.SetAttr("refuri", alias)
		}
		target.Line = s.in.line
		if text == "" {
			text = alias
		}
	}
	ref := NewTextElement(ReferenceTag, text)
	ref.SetAttr("name", whitespaceNormalizeName(text))
	nodes := []Node{ref}
	refname := NormalizeName(text)
	switch {
	case anonymous && target != nil && aliasIsName:
		ref.SetAttr("refname", alias)
		doc.noteRefName(ref)
	case anonymous && target != nil:
		ref.SetAttr("refuri", alias)
	case anonymous:
		ref.SetAttr("anonymous", "1")
	case target != nil:
		target.Names = append(target.Names, refname)
		if aliasIsName {
			ref.SetAttr("refname", alias)
			doc.noteIndirectTarget(target)
			doc.noteRefName(ref)
		} else {
			ref.SetAttr("refuri", alias)
			doc.noteExplicitTarget(target, s.in.parent)
		}
		nodes = append(nodes, target)
	default:
		ref.SetAttr("refname", refname)
		doc.noteRefName(ref)
	}
	return inlineMatch{start: start, end: end, nodes: nodes}
}

func (s *inlineScanner) interpretedText(start, end int, role string, escaped []rune) inlineMatch {
	raw := unescape(s.text[start:end], true)
	fn, msgs := s.in.lookupRole(role)
	if fn == nil {
		msg := s.in.report(ErrorLevel, fmt.Sprintf("Unknown interpreted text role %q.", role))
		prb := s.in.problematic(raw, msg)
		return inlineMatch{start: start, end: end, nodes: []Node{prb}, msgs: append(msgs, msg)}
	}
	ctx := &RoleContext{
		Name:     role,
		RawText:  raw,
		Text:     unescape(escaped, false),
		Escaped:  unescape(escaped, true),
		Line:     s.in.line,
		Document: s.in.doc,
		inliner:  s.in,
	}
	nodes, msgs2 := fn(ctx)
	return inlineMatch{start: start, end: end, nodes: nodes, msgs: append(msgs, msgs2...)}
}

func (s *inlineScanner) unterminated(i, j int, what string) inlineMatch {
	msg := s.in.report(WarningLevel, fmt.Sprintf("Inline %s start-string without end-string.", what))
	prb := s.in.problematic(unescape(s.text[i:j], true), msg)
	return inlineMatch{start: i, end: j, nodes: []Node{prb}, msgs: []*Element{msg}}
}

func (s *inlineScanner) problematicSpan(i, j int, text string) inlineMatch {
	msg := s.in.report(WarningLevel, text)
	prb := s.in.problematic(unescape(s.text[i:j], true), msg)
	return inlineMatch{start: i, end: j, nodes: []Node{prb}, msgs: []*Element{msg}}
}

func (in *inliner) report(level Level, text string) *Element {
	return in.doc.Reporter.mustReport(Message{
		Level:    level,
		Text:     text,
		Category: "rst.parse.inline",
		Line:     in.line,
	})
}

// problematic creates a problematic element for text
// linked to and from msg.
func (in *inliner) problematic(text string, msg *Element) *Element {
	msgID := in.doc.setID(msg, in.parent)
	prb := NewTextElement(ProblematicTag, text)
	prb.SetAttr("refid", msgID)
	prbID := in.doc.setID(prb, nil)
	msg.Backrefs = appendUnique(msg.Backrefs, prbID)
	return prb
}

var (
	uriPattern   = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9.+-]*):(?://?)?[-_.!~*'()\[\];/:@&=+$,%a-zA-Z0-9\x00]*[_~*/=+a-zA-Z0-9](?:\?[-_.!~*'()\[\];/:@&=+$,%a-zA-Z0-9\x00]*[_~*/=+a-zA-Z0-9])?(?:#[-_.!~*'()\[\];/:@&=+$,%a-zA-Z0-9\x00]*[_~*/=+a-zA-Z0-9])?`)
	emailPattern = regexp.MustCompile("^[-_!~*'{|}/#?^`&=+$%a-zA-Z0-9]+(?:\\.[-_!~*'{|}/#?^`&=+$%a-zA-Z0-9]+)*@[-_!~*'{|}/#?^`&=+$%a-zA-Z0-9]+(?:\\.[-_!~*'{|}/#?^`&=+$%a-zA-Z0-9]+)*[_~*/=+a-zA-Z0-9]")
	pepPattern   = regexp.MustCompile(`^(?:PEP\s+([0-9]+)|pep-([0-9]+)\.txt)`)
	rfcPattern   = regexp.MustCompile(`^RFC(?:-|\s+)?([0-9]+)`)
)

// knownSchemes are the URI schemes recognized in standalone URIs.
var knownSchemes = map[string]bool{
	"data": true, "file": true, "ftp": true, "git": true, "gopher": true,
	"http": true, "https": true, "irc": true, "ldap": true, "mailto": true,
	"news": true, "nntp": true, "sftp": true, "sip": true, "ssh": true,
	"svn": true, "tel": true, "telnet": true, "urn": true, "xmpp": true,
}

func isURI(s string) bool {
	m := uriPattern.FindStringSubmatch(s)
	return m != nil && len(m[0]) == len(s) && knownSchemes[strings.ToLower(m[1])]
}

// adjustURI prefixes bare email addresses with "mailto:".
func adjustURI(uri string) string {
	if m := emailPattern.FindString(uri); m != "" && len(m) == len(uri) {
		return "mailto:" + uri
	}
	return uri
}

// implicit recognizes standalone URIs, email addresses,
// and (when enabled) PEP and RFC references in plain text.
func (s *inlineScanner) implicit(text []rune) []Node {
	if len(text) == 0 {
		return nil
	}
	var out []Node
	start := 0
	for i := 0; i < len(text); i++ {
		if i > 0 && !(unicode.IsSpace(text[i-1]) || isOpener(text[i-1]) || isDelimiter(text[i-1])) {
			continue
		}
		if !s.mayStartImplicit(text, i) {
			continue
		}
		n, node := s.implicitAt(string(text[i:]))
		if node == nil {
			continue
		}
		end := i + n
		if end < len(text) {
			next := text[end]
			if !(unicode.IsSpace(next) || next == 0 || isClosingDelimiter(next) || isDelimiter(next) || isCloser(next)) {
				continue
			}
		}
		if start < i {
			out = append(out, NewText(unescape(text[start:i], false)))
		}
		out = append(out, node)
		start = end
		i = end - 1
	}
	if start < len(text) {
		if t := unescape(text[start:], false); t != "" {
			out = append(out, NewText(t))
		}
	}
	return out
}

// mayStartImplicit reports whether the word at i could hold an implicit construct.
func (s *inlineScanner) mayStartImplicit(text []rune, i int) bool {
	c := text[i]
	if c >= 0x80 || unicode.IsSpace(c) {
		return false
	}
	settings := s.in.doc.Settings
	if settings.PEPReferences && (c == 'P' || c == 'p') || settings.RFCReferences && c == 'R' {
		return true
	}
	for j := i; j < len(text) && !unicode.IsSpace(text[j]); j++ {
		if text[j] == ':' || text[j] == '@' {
			return true
		}
	}
	return false
}

// implicitAt returns the length in runes of the construct at the start of rest
// and its node, or nil.
func (s *inlineScanner) implicitAt(rest string) (int, Node) {
	settings := s.in.doc.Settings
	if m := uriPattern.FindStringSubmatch(rest); m != nil && knownSchemes[strings.ToLower(m[1])] {
		text := unescape([]rune(m[0]), false)
		ref := NewTextElement(ReferenceTag, text)
		ref.SetAttr("refuri", text)
		return len([]rune(m[0])), ref
	}
	if m := emailPattern.FindString(rest); m != "" {
		text := unescape([]rune(m), false)
		ref := NewTextElement(ReferenceTag, text)
		ref.SetAttr("refuri", "mailto:"+text)
		return len([]rune(m)), ref
	}
	if settings.PEPReferences {
		if m := pepPattern.FindStringSubmatch(rest); m != nil {
			num := m[1]
			if num == "" {
				num = m[2]
			}
			n, _ := strconv.Atoi(num)
			ref := NewTextElement(ReferenceTag, m[0])
			ref.SetAttr("refuri", pepURL(settings, n))
			return len([]rune(m[0])), ref
		}
	}
	if settings.RFCReferences {
		if m := rfcPattern.FindStringSubmatch(rest); m != nil {
			n, _ := strconv.Atoi(m[1])
			ref := NewTextElement(ReferenceTag, m[0])
			ref.SetAttr("refuri", rfcURL(settings, n))
			return len([]rune(m[0])), ref
		}
	}
	return 0, nil
}

func pepURL(s *Settings, n int) string {
	return fmt.Sprintf("%spep-%04d", s.PEPBaseURL, n)
}

func rfcURL(s *Settings, n int) string {
	return fmt.Sprintf("%src%d.html", s.RFCBaseURL, n)
}

// escapeToNull replaces each backslash escape with a NUL character
// followed by the escaped character,
// so escaped characters cannot start or end markup.
func escapeToNull(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}
	sb := new(strings.Builder)
	for {
		i := strings.IndexByte(text, '\\')
		if i < 0 {
			sb.WriteString(text)
			return sb.String()
		}
		sb.WriteString(text[:i])
		sb.WriteByte(0)
		text = text[i+1:]
		if text != "" {
			_, n := utf8.DecodeRuneInString(text)
			sb.WriteString(text[:n])
			text = text[n:]
		}
	}
}

// unescape removes the NUL markers inserted by [escapeToNull].
// Escaped whitespace is removed entirely.
// If restoreBackslashes is true, the markers become backslashes again.
func unescape(text []rune, restoreBackslashes bool) string {
	sb := new(strings.Builder)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != 0 {
			sb.WriteRune(c)
			continue
		}
		if restoreBackslashes {
			sb.WriteByte('\\')
			continue
		}
		if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n') {
			i++
		}
	}
	return sb.String()
}

// simpleNameEnds returns the positions where a simple reference name
// starting at i may end, longest first.
// Simple names are alphanumeric words joined by single "-._+:" characters.
func simpleNameEnds(text []rune, i int) []int {
	var ends []int
	j := i
	for {
		k := j
		for k < len(text) && isNameChar(text[k]) {
			k++
		}
		if k == j {
			break
		}
		ends = append(ends, k)
		if k+1 < len(text) && strings.ContainsRune("-._+:", text[k]) && isNameChar(text[k+1]) {
			j = k + 1
			continue
		}
		break
	}
	for l, r := 0, len(ends)-1; l < r; l, r = l+1, r-1 {
		ends[l], ends[r] = ends[r], ends[l]
	}
	return ends
}

func isSimpleName(s string) bool {
	r := []rune(s)
	ends := simpleNameEnds(r, 0)
	return len(ends) > 0 && ends[0] == len(r)
}

func isNameChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsMark(c) || unicode.IsNumber(c)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isOpener(c rune) bool {
	if c < 0x80 {
		return strings.ContainsRune(`"'(<[{`, c)
	}
	return unicode.In(c, unicode.Ps, unicode.Pi, unicode.Pf)
}

func isCloser(c rune) bool {
	if c < 0x80 {
		return strings.ContainsRune(`"')>]}`, c)
	}
	return unicode.In(c, unicode.Pe, unicode.Pf, unicode.Pi)
}

func isDelimiter(c rune) bool {
	if c < 0x80 {
		return c == '-' || c == '/' || c == ':'
	}
	return unicode.In(c, unicode.Pd, unicode.Po)
}

func isClosingDelimiter(c rune) bool {
	return strings.ContainsRune(`\.,;!?`, c)
}

var matchingCloser = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'(':  ')',
	'<':  '>',
	'[':  ']',
	'{':  '}',
	'“':  '”',
	'‘':  '’',
	'«':  '»',
	'‹':  '›',
	'「':  '」',
}
