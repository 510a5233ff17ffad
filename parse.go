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

// Package rst provides a [reStructuredText] parser
// that produces a document tree with resolved references.
//
// Parsing happens in two phases.
// [Parser.Parse] converts source text into a [Document]
// whose deferred work is held in pending elements.
// A [Pipeline] of transforms then resolves
// substitutions, footnotes, hyperlinks, and generated parts.
// [Parse] runs both phases.
//
// [reStructuredText]: https://docutils.sourceforge.io/rst.html
package rst

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rst.parse'.
func tracer() tracing.Trace {
	return tracing.Select("rst.parse")
}

// Parser converts reStructuredText into document trees.
// A Parser may be reused, but not concurrently.
type Parser struct {
	// Settings control parsing. If nil, [DefaultSettings] is used.
	Settings *Settings
	// Registry holds the available directives and roles.
	// If nil, [NewRegistry] is used.
	Registry *Registry
}

// Parse decodes source using the settings' input encoding,
// parses it, and applies [DefaultPipeline].
// The source name in the document's messages is "<string>".
func Parse(source []byte, settings *Settings) (*Document, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	text, err := DecodeInput(source, settings.InputEncoding)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	p := &Parser{Settings: settings}
	doc, err := p.Parse("<string>", text)
	if err != nil {
		return doc, err
	}
	if err := DefaultPipeline().Apply(doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// Parse parses text into a new document.
// Transforms are not applied:
// the returned document may hold unresolved pending elements.
// Parse returns an error only if a system message
// reaches the settings' halt level;
// the partially built document is returned along with the error.
func (p *Parser) Parse(sourceName, text string) (doc *Document, err error) {
	settings := p.Settings
	if settings == nil {
		settings = DefaultSettings()
	}
	registry := p.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	doc = NewDocument(sourceName, settings)
	lang, ok := lookupLanguage(settings.LanguageCode)
	ps := &parser{
		doc:      doc,
		registry: registry,
		lang:     lang,
	}
	defer recoverHalt(&err)
	if !ok {
		ps.doc.Append(doc.Reporter.mustReport(Message{
			Level:    InfoLevel,
			Text:     fmt.Sprintf("No language module for %q (using %q instead).", settings.LanguageCode, lang.code),
			Category: "rst.parse",
		}))
	}
	lines := NewLines(text, sourceName, settings.TabWidth)
	tracer().Debugf("parsing %s: %d lines", sourceName, lines.Len())
	ps.nestedParse(lines, doc.Element, true)
	return doc, nil
}

// parser holds the state shared by all state machines parsing one document.
type parser struct {
	doc      *Document
	registry *Registry
	lang     *languageTable

	// titleStyles lists the section title styles in order of first use.
	titleStyles  []titleStyle
	sectionLevel int

	defaultRole string
}

// titleStyle is the adornment of a section title.
// over is zero for underline-only titles.
type titleStyle struct {
	over, under byte
}

// nestedParse parses lines as body elements appended to node.
// It returns the number of lines consumed.
func (p *parser) nestedParse(lines *Lines, node *Element, matchTitles bool) int {
	sm := &stateMachine{
		p:           p,
		lines:       lines,
		node:        node,
		matchTitles: matchTitles,
	}
	return sm.runBody()
}

// inlineText parses a text block as inline markup.
func (p *parser) inlineText(text string, line int, parent *Element) ([]Node, []*Element) {
	in := &inliner{
		doc:         p.doc,
		registry:    p.registry,
		lang:        p.lang,
		parent:      parent,
		line:        line,
		defaultRole: p.defaultRole,
	}
	return in.parseInline(text)
}
