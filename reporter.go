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
	"io"
	"os"
	"strconv"
	"strings"
)

// Level is the severity of a system message.
type Level int

// Message levels.
const (
	DebugLevel Level = iota
	InfoLevel
	WarningLevel
	ErrorLevel
	SevereLevel
	// NoneLevel is above every message level.
	// Using it as a report or halt level suppresses reporting or halting.
	NoneLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARNING", "ERROR", "SEVERE", "NONE"}

// String returns the level's name, like "WARNING".
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// ParseLevel converts a level name or number into a [Level].
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	switch strings.ToLower(s) {
	case "info":
		return InfoLevel, nil
	case "warn":
		return WarningLevel, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > int(NoneLevel) {
		return 0, fmt.Errorf("parse level %q: unknown level", s)
	}
	return Level(n), nil
}

// Conditions is the set of reporting thresholds for a message category.
type Conditions struct {
	Debug       bool
	ReportLevel Level
	HaltLevel   Level
	Stream      io.Writer
}

// A Reporter creates system messages,
// writes them to a stream when they are at or above the report level,
// and signals a halt when they are at or above the halt level.
//
// Categories are dotted names like "rst.parse.tables".
// A category without its own conditions uses its nearest ancestor's,
// ending at the reporter's default conditions.
type Reporter struct {
	source     string
	conditions map[string]Conditions
	observers  []func(msg *Element)
	maxLevel   Level
}

// NewReporter returns a new reporter whose default conditions are given.
// A nil stream discards messages.
func NewReporter(source string, defaults Conditions) *Reporter {
	return &Reporter{
		source:     source,
		conditions: map[string]Conditions{"": defaults},
		maxLevel:   -1,
	}
}

// newReporterFromSettings builds the reporter a parse uses.
func newReporterFromSettings(source string, s *Settings) *Reporter {
	stream := s.WarningStream
	if stream == nil {
		stream = os.Stderr
	}
	return NewReporter(source, Conditions{
		Debug:       s.Debug,
		ReportLevel: s.ReportLevel,
		HaltLevel:   s.HaltLevel,
		Stream:      stream,
	})
}

// SetConditions overrides the conditions for a category and its descendants.
func (r *Reporter) SetConditions(category string, c Conditions) {
	r.conditions[category] = c
}

// Conditions returns the conditions in effect for the category.
func (r *Reporter) Conditions(category string) Conditions {
	for {
		if c, ok := r.conditions[category]; ok {
			return c
		}
		if category == "" {
			return Conditions{ReportLevel: NoneLevel, HaltLevel: NoneLevel}
		}
		i := strings.LastIndexByte(category, '.')
		if i < 0 {
			category = ""
		} else {
			category = category[:i]
		}
	}
}

// Attach registers a function that is called with every message
// of level [InfoLevel] or above.
func (r *Reporter) Attach(observer func(msg *Element)) {
	r.observers = append(r.observers, observer)
}

// MaxLevel returns the highest level of any message created so far
// or -1 if no messages have been created.
func (r *Reporter) MaxLevel() Level {
	return r.maxLevel
}

// Message is the description of a system message.
type Message struct {
	Level Level
	Text  string
	// Category selects the reporting conditions.
	Category string
	// Source and Line locate the message.
	// If Source is empty, the reporter's source is used.
	Source string
	Line   int
	// Backrefs are the IDs of problematic elements pointing to the message.
	Backrefs []string
	// Children are appended after the message paragraph,
	// typically a literal block echoing the offending source.
	Children []Node
}

// Report creates a system message element.
// If the message's level is at or above the halt level of its category,
// Report returns the message along with a [*SystemMessageError].
func (r *Reporter) Report(m Message) (*Element, error) {
	cond := r.Conditions(m.Category)
	if m.Source == "" {
		m.Source = r.source
	}
	msg := NewElement(SystemMessageTag, NewTextElement(ParagraphTag, m.Text))
	msg.Append(m.Children...)
	msg.SetAttr("level", strconv.Itoa(int(m.Level)))
	msg.SetAttr("type", m.Level.String())
	if m.Source != "" {
		msg.SetAttr("source", m.Source)
		msg.Source = m.Source
	}
	if m.Line > 0 {
		msg.SetAttr("line", strconv.Itoa(m.Line))
		msg.Line = m.Line
	}
	msg.Backrefs = append(msg.Backrefs, m.Backrefs...)
	if m.Level > r.maxLevel {
		r.maxLevel = m.Level
	}

	if cond.Stream != nil && (m.Level >= cond.ReportLevel || (m.Level == DebugLevel && cond.Debug)) {
		fmt.Fprintln(cond.Stream, formatMessage(msg))
	}
	if m.Level > DebugLevel {
		for _, f := range r.observers {
			f(msg)
		}
	}
	if m.Level >= cond.HaltLevel {
		return msg, &SystemMessageError{
			Level:  m.Level,
			Text:   m.Text,
			Source: m.Source,
			Line:   m.Line,
			Node:   msg,
		}
	}
	return msg, nil
}

// formatMessage returns the one-line stream form of a system message.
func formatMessage(msg *Element) string {
	sb := new(strings.Builder)
	if src := msg.Attr("source"); src != "" {
		sb.WriteString(src)
		sb.WriteString(":")
	}
	if line := msg.Attr("line"); line != "" {
		sb.WriteString(line)
		sb.WriteString(":")
	}
	if sb.Len() > 0 {
		sb.WriteString(" ")
	}
	fmt.Fprintf(sb, "(%s/%s) ", msg.Attr("type"), msg.Attr("level"))
	var parts []string
	for _, c := range msg.Children() {
		parts = append(parts, c.AsText())
	}
	sb.WriteString(strings.Join(parts, "\n\n"))
	return sb.String()
}

// SystemMessageError is returned when a message reaches the halt level.
type SystemMessageError struct {
	Level  Level
	Text   string
	Source string
	Line   int
	// Node is the system message element.
	Node *Element
}

// Error returns the message in the same form it is written to a stream.
func (e *SystemMessageError) Error() string {
	return formatMessage(e.Node)
}

// haltSignal unwinds the parser or a transform to the top-level driver.
type haltSignal struct {
	err *SystemMessageError
}

// recoverHalt converts a halt signal into an error stored in *errp.
// Other panics are re-raised.
func recoverHalt(errp *error) {
	v := recover()
	if v == nil {
		return
	}
	h, ok := v.(haltSignal)
	if !ok {
		panic(v)
	}
	*errp = h.err
}

// mustReport reports m and panics with a halt signal if it reaches the halt level.
func (r *Reporter) mustReport(m Message) *Element {
	msg, err := r.Report(m)
	if err != nil {
		panic(haltSignal{err.(*SystemMessageError)})
	}
	return msg
}
