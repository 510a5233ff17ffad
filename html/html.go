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

// Package html renders resolved reStructuredText document trees as HTML.
package html

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/atom"
	"zombiezen.com/go/rst"
)

// A Renderer converts fully transformed documents into HTML fragments.
// The zero value renders with default options.
type Renderer struct {
	// InitialHeaderLevel is the heading level of top-level section titles.
	// Zero means 1 if the document has no title and 2 otherwise.
	InitialHeaderLevel int
}

// Render writes the body of the document to the given writer as HTML
// using the default options for [Renderer].
func Render(w io.Writer, doc *rst.Document) error {
	return new(Renderer).Render(w, doc)
}

// Render writes the body of the document to the given writer as HTML.
// Pending elements, comments and substitution definitions are omitted.
func (r *Renderer) Render(w io.Writer, doc *rst.Document) error {
	buf := r.AppendNode(nil, doc.Element)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("render rst to html: %w", err)
	}
	return nil
}

// AppendNode appends the rendered HTML of a node to dst
// and returns the resulting byte slice.
func (r *Renderer) AppendNode(dst []byte, n rst.Node) []byte {
	state := &renderState{
		Renderer: r,
		dst:      dst,
		level:    r.InitialHeaderLevel - 1,
	}
	if state.level < 0 {
		state.level = 0
		if root, ok := n.(*rst.Element); ok && root.Tag == rst.DocumentTag && root.FirstChildElement(rst.TitleTag) != nil {
			state.level = 1
		}
	}
	state.node(n)
	return state.dst
}

type renderState struct {
	*Renderer
	dst   []byte
	level int
}

func (r *renderState) openTagAttr(name atom.Atom, e *rst.Element, classes ...string) {
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, name.String()...)
	if e != nil && len(e.IDs) > 0 {
		r.attr("id", e.IDs[0])
	}
	if e != nil {
		classes = append(classes, e.Classes...)
	}
	if len(classes) > 0 {
		r.attr("class", strings.Join(classes, " "))
	}
}

func (r *renderState) attr(key, value string) {
	r.dst = append(r.dst, ' ')
	r.dst = append(r.dst, key...)
	r.dst = append(r.dst, `="`...)
	r.dst = append(r.dst, html.EscapeString(value)...)
	r.dst = append(r.dst, '"')
}

func (r *renderState) openTag(name atom.Atom, e *rst.Element, classes ...string) {
	r.openTagAttr(name, e, classes...)
	r.dst = append(r.dst, '>')
}

func (r *renderState) closeTag(name atom.Atom) {
	r.dst = append(r.dst, "</"...)
	r.dst = append(r.dst, name.String()...)
	r.dst = append(r.dst, '>')
}

// wrap renders the element's children inside a single HTML element.
func (r *renderState) wrap(name atom.Atom, e *rst.Element, classes ...string) {
	r.openTag(name, e, classes...)
	r.children(e)
	r.closeTag(name)
}

func (r *renderState) children(e *rst.Element) {
	for _, c := range e.Children() {
		r.node(c)
	}
}

func (r *renderState) node(n rst.Node) {
	switch n := n.(type) {
	case *rst.Text:
		r.dst = append(r.dst, html.EscapeString(n.Value)...)
	case *rst.Element:
		r.element(n)
	}
}

func (r *renderState) element(e *rst.Element) {
	if blockTag(e.Tag) {
		defer func() { r.dst = append(r.dst, '\n') }()
	}
	switch e.Tag {
	case rst.DocumentTag:
		r.children(e)
	case rst.CommentTag, rst.SubstitutionDefTag, rst.PendingTag:
	case rst.SectionTag:
		r.level++
		r.wrap(atom.Section, e)
		r.level--
	case rst.TitleTag:
		r.title(e)
	case rst.SubtitleTag:
		r.wrap(atom.P, e, "subtitle")
	case rst.RubricTag:
		r.wrap(atom.P, e, "rubric")
	case rst.TopicTag:
		r.wrap(atom.Div, e, "topic")
	case rst.SidebarTag:
		r.wrap(atom.Aside, e, "sidebar")
	case rst.TransitionTag:
		r.openTag(atom.Hr, e, "docutils")
	case rst.ParagraphTag:
		r.wrap(atom.P, e)
	case rst.CompoundTag:
		r.wrap(atom.Div, e, "compound")
	case rst.ContainerTag:
		r.wrap(atom.Div, e, "docutils", "container")
	case rst.BulletListTag:
		r.wrap(atom.Ul, e)
	case rst.EnumeratedListTag:
		r.openTagAttr(atom.Ol, e, e.Attr("enumtype"))
		if start := e.Attr("start"); start != "" && start != "1" {
			r.attr("start", start)
		}
		r.dst = append(r.dst, '>')
		r.children(e)
		r.closeTag(atom.Ol)
	case rst.ListItemTag:
		r.wrap(atom.Li, e)
	case rst.DefinitionListTag:
		r.wrap(atom.Dl, e)
	case rst.DefinitionListItemTag:
		r.children(e)
	case rst.TermTag:
		r.wrap(atom.Dt, e)
	case rst.ClassifierTag:
		r.wrap(atom.Span, e, "classifier")
	case rst.DefinitionTag, rst.FieldBodyTag, rst.DescriptionTag:
		r.wrap(atom.Dd, e)
	case rst.FieldListTag:
		r.wrap(atom.Dl, e, "field-list")
	case rst.OptionListTag:
		r.wrap(atom.Dl, e, "option-list")
	case rst.FieldTag, rst.OptionListItemTag:
		r.children(e)
	case rst.FieldNameTag, rst.OptionGroupTag:
		r.wrap(atom.Dt, e)
	case rst.OptionTag:
		r.wrap(atom.Kbd, e)
	case rst.OptionStringTag:
		r.children(e)
	case rst.OptionArgumentTag:
		r.dst = append(r.dst, html.EscapeString(e.Attr("delimiter"))...)
		r.wrap(atom.Var, e)
	case rst.LiteralBlockTag, rst.DoctestBlockTag:
		r.wrap(atom.Pre, e, "literal-block")
	case rst.LineBlockTag:
		r.wrap(atom.Div, e, "line-block")
	case rst.LineTag:
		r.openTag(atom.Div, e, "line")
		if e.ChildCount() == 0 {
			r.dst = append(r.dst, "<br>"...)
		}
		r.children(e)
		r.closeTag(atom.Div)
	case rst.BlockQuoteTag:
		r.wrap(atom.Blockquote, e)
	case rst.AttributionTag:
		r.openTag(atom.P, e, "attribution")
		r.dst = append(r.dst, "&mdash;"...)
		r.children(e)
		r.closeTag(atom.P)
	case rst.AdmonitionTag:
		r.wrap(atom.Aside, e, "admonition")
	case rst.FootnoteTag:
		r.wrap(atom.Aside, e, "footnote")
	case rst.CitationTag:
		r.wrap(atom.Div, e, "citation")
	case rst.LabelTag:
		r.openTag(atom.Span, e, "label")
		r.dst = append(r.dst, '[')
		r.children(e)
		r.dst = append(r.dst, ']')
		r.closeTag(atom.Span)
	case rst.TableTag:
		r.wrap(atom.Table, e)
	case rst.TGroupTag, rst.ColSpecTag:
		if e.Tag == rst.TGroupTag {
			r.children(e)
		}
	case rst.THeadTag:
		r.wrap(atom.Thead, e)
	case rst.TBodyTag:
		r.wrap(atom.Tbody, e)
	case rst.RowTag:
		r.wrap(atom.Tr, e)
	case rst.EntryTag:
		r.entry(e)
	case rst.SystemMessageTag:
		r.openTag(atom.Div, e, "system-message")
		r.openTag(atom.P, nil, "system-message-title")
		r.dst = append(r.dst, "System Message: "...)
		r.dst = append(r.dst, html.EscapeString(e.Attr("type"))...)
		if line := e.Attr("line"); line != "" {
			r.dst = append(r.dst, " (line "...)
			r.dst = append(r.dst, html.EscapeString(line)...)
			r.dst = append(r.dst, ')')
		}
		r.closeTag(atom.P)
		r.children(e)
		r.closeTag(atom.Div)
	case rst.EmphasisTag:
		r.wrap(atom.Em, e)
	case rst.StrongTag:
		r.wrap(atom.Strong, e)
	case rst.LiteralTag:
		r.wrap(atom.Code, e)
	case rst.TitleReferenceTag:
		r.wrap(atom.Cite, e)
	case rst.AbbreviationTag:
		r.wrap(atom.Abbr, e)
	case rst.AcronymTag:
		r.wrap(atom.Abbr, e, "acronym")
	case rst.SuperscriptTag:
		r.wrap(atom.Sup, e)
	case rst.SubscriptTag:
		r.wrap(atom.Sub, e)
	case rst.ReferenceTag:
		r.link(e)
	case rst.FootnoteReferenceTag, rst.CitationReferenceTag:
		r.openTagAttr(atom.A, e, strings.ReplaceAll(string(e.Tag), "_", "-"))
		r.attr("href", "#"+e.Attr("refid"))
		r.dst = append(r.dst, ">["...)
		r.children(e)
		r.dst = append(r.dst, ']')
		r.closeTag(atom.A)
	case rst.ProblematicTag:
		r.openTagAttr(atom.A, e, "problematic")
		r.attr("href", "#"+e.Attr("refid"))
		r.dst = append(r.dst, '>')
		r.children(e)
		r.closeTag(atom.A)
	case rst.TargetTag:
		if len(e.IDs) > 0 && !e.HasAttr("refuri") && !e.HasAttr("refid") && !e.HasAttr("refname") {
			r.wrap(atom.Span, e)
		} else {
			r.children(e)
		}
	case rst.ImageTag:
		r.image(e)
	default:
		if e.Tag.IsInline() {
			r.wrap(atom.Span, e)
		} else {
			r.wrap(atom.Div, e)
		}
	}
}

// blockTag reports whether a newline follows elements with the tag.
func blockTag(tag rst.Tag) bool {
	switch tag {
	case rst.DocumentTag, rst.CommentTag, rst.SubstitutionDefTag, rst.PendingTag,
		rst.DefinitionListItemTag, rst.FieldTag, rst.OptionListItemTag,
		rst.TGroupTag, rst.ColSpecTag, rst.LabelTag, rst.TargetTag, rst.OptionStringTag:
		return false
	}
	return !tag.IsInline() && !tag.IsTextElement() ||
		tag == rst.ParagraphTag || tag == rst.TitleTag || tag == rst.SubtitleTag ||
		tag == rst.LiteralBlockTag || tag == rst.DoctestBlockTag || tag == rst.LineTag ||
		tag == rst.AttributionTag || tag == rst.RubricTag
}

func (r *renderState) title(e *rst.Element) {
	var name atom.Atom
	switch p := e.Parent(); {
	case p != nil && p.Tag == rst.DocumentTag:
		name = atom.H1
		r.openTag(name, e, "title")
		r.children(e)
		r.closeTag(name)
		return
	case p != nil && p.Tag != rst.SectionTag:
		r.wrap(atom.P, e, string(p.Tag)+"-title")
		return
	}
	switch r.level {
	case 1:
		name = atom.H1
	case 2:
		name = atom.H2
	case 3:
		name = atom.H3
	case 4:
		name = atom.H4
	case 5:
		name = atom.H5
	default:
		name = atom.H6
	}
	r.openTag(name, e)
	if refid := e.Attr("refid"); refid != "" {
		r.openTagAttr(atom.A, nil, "toc-backref")
		r.attr("href", "#"+refid)
		r.dst = append(r.dst, '>')
		r.children(e)
		r.closeTag(atom.A)
	} else {
		r.children(e)
	}
	r.closeTag(name)
}

func (r *renderState) link(e *rst.Element) {
	r.openTagAttr(atom.A, e, "reference")
	switch {
	case e.HasAttr("refuri"):
		r.attr("href", e.Attr("refuri"))
	case e.HasAttr("refid"):
		r.attr("href", "#"+e.Attr("refid"))
	}
	r.dst = append(r.dst, '>')
	r.children(e)
	r.closeTag(atom.A)
}

func (r *renderState) entry(e *rst.Element) {
	name := atom.Td
	if row := e.Parent(); row != nil && row.Parent() != nil && row.Parent().Tag == rst.THeadTag {
		name = atom.Th
	}
	r.openTagAttr(name, e)
	if n, err := strconv.Atoi(e.Attr("morecols")); err == nil && n > 0 {
		r.attr("colspan", strconv.Itoa(n+1))
	}
	if n, err := strconv.Atoi(e.Attr("morerows")); err == nil && n > 0 {
		r.attr("rowspan", strconv.Itoa(n+1))
	}
	r.dst = append(r.dst, '>')
	r.children(e)
	r.closeTag(name)
}

func (r *renderState) image(e *rst.Element) {
	r.openTagAttr(atom.Img, e)
	r.attr("src", e.Attr("uri"))
	alt := e.Attr("alt")
	if !e.HasAttr("alt") {
		alt = e.Attr("uri")
	}
	r.attr("alt", alt)
	for _, k := range []string{"height", "width"} {
		if v := e.Attr(k); v != "" {
			r.attr(k, v)
		}
	}
	r.dst = append(r.dst, '>')
}
