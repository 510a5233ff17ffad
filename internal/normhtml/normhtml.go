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

// Package normhtml canonicalizes HTML fragments
// so that rendered output can be compared
// without regard to attribute order, class order,
// or whitespace around block elements.
package normhtml

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go4.org/bytereplacer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

var htmlEscaper = bytereplacer.New(
	"&", "&amp;",
	`'`, "&apos;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// Normalize parses b as the contents of a <div>
// and writes it back out in canonical form.
func Normalize(b []byte) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(bytes.NewReader(b), context)
	if err != nil {
		return "", fmt.Errorf("normalize html: %w", err)
	}
	n := new(normalizer)
	for _, node := range nodes {
		n.node(node, false)
	}
	return n.sb.String(), nil
}

type normalizer struct {
	sb strings.Builder
}

func (n *normalizer) node(node *html.Node, inPre bool) {
	switch node.Type {
	case html.TextNode:
		n.text(node, inPre)
	case html.CommentNode:
		n.sb.WriteString("<!--")
		n.sb.WriteString(node.Data)
		n.sb.WriteString("-->")
	case html.ElementNode:
		n.sb.WriteString("<")
		n.sb.WriteString(node.Data)
		n.attrs(node.Attr)
		n.sb.WriteString(">")
		if isVoid(node.DataAtom) {
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			n.node(c, inPre || node.DataAtom == atom.Pre)
		}
		n.sb.WriteString("</")
		n.sb.WriteString(node.Data)
		n.sb.WriteString(">")
	}
}

// text collapses runs of whitespace outside of <pre>
// and drops whitespace next to block boundaries.
func (n *normalizer) text(node *html.Node, inPre bool) {
	data := []byte(node.Data)
	if !inPre {
		data = whitespaceRE.ReplaceAll(data, []byte(" "))
		if atBlockBoundary(node.PrevSibling, node.Parent) {
			data = bytes.TrimLeft(data, " ")
		}
		if atBlockBoundary(node.NextSibling, node.Parent) {
			data = bytes.TrimRight(data, " ")
		}
	}
	n.sb.Write(htmlEscaper.Replace(data))
}

// atBlockBoundary reports whether a text node whose neighbor is sibling
// touches the edge of a block.
func atBlockBoundary(sibling, parent *html.Node) bool {
	if sibling != nil {
		return sibling.Type == html.ElementNode && isBlock(sibling.DataAtom)
	}
	return parent == nil || isBlock(parent.DataAtom)
}

func (n *normalizer) attrs(attrs []html.Attribute) {
	sorted := make([]html.Attribute, len(attrs))
	copy(sorted, attrs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	for _, attr := range sorted {
		value := attr.Val
		if attr.Key == "class" {
			classes := strings.Fields(value)
			sort.Strings(classes)
			value = strings.Join(classes, " ")
		}
		n.sb.WriteString(" ")
		n.sb.WriteString(attr.Key)
		if value != "" {
			n.sb.WriteString(`="`)
			n.sb.WriteString(html.EscapeString(value))
			n.sb.WriteString(`"`)
		}
	}
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr,
		atom.Img, atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Article, atom.Aside, atom.Blockquote, atom.Body, atom.Caption,
		atom.Dd, atom.Div, atom.Dl, atom.Dt, atom.Figcaption, atom.Figure,
		atom.Footer, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Hr, atom.Li, atom.Ol, atom.P, atom.Pre, atom.Section,
		atom.Table, atom.Tbody, atom.Td, atom.Tfoot, atom.Th, atom.Thead,
		atom.Tr, atom.Ul:
		return true
	}
	return false
}
