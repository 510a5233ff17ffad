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

// Package format writes document trees as pseudo-XML:
// an indented listing of elements and text
// that shows the complete structure of a tree.
package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go4.org/bytereplacer"
	"zombiezen.com/go/rst"
)

// Indent is the indentation added for each level of nesting.
const Indent = "    "

// Format writes the document as pseudo-XML to the given writer.
// Pending elements are written along with their transform details.
func Format(w io.Writer, doc *rst.Document) error {
	return format(w, doc.Element, doc)
}

// FormatNode writes the subtree rooted at n as pseudo-XML.
func FormatNode(w io.Writer, n rst.Node) error {
	return format(w, n, nil)
}

func format(w io.Writer, root rst.Node, doc *rst.Document) error {
	ww := &errWriter{w: w}
	depth := 0
	rst.Walk(root, &rst.WalkOptions{
		Pre: func(c *rst.Cursor) bool {
			indent := strings.Repeat(Indent, depth)
			switch n := c.Node().(type) {
			case *rst.Text:
				writeText(ww, indent, n.Value)
			case *rst.Element:
				ww.WriteString(indent)
				ww.WriteString(startTag(n))
				ww.WriteString("\n")
				if doc != nil && n.IsPending() {
					if p := doc.PendingFor(n); p != nil {
						writePending(ww, indent+Indent, p)
					}
				}
			}
			depth++
			return ww.err == nil
		},
		Post: func(c *rst.Cursor) bool {
			depth--
			return ww.err == nil
		},
	})
	if ww.err != nil {
		return fmt.Errorf("format pseudo-xml: %w", ww.err)
	}
	return nil
}

func writeText(w *errWriter, indent, s string) {
	for _, line := range strings.Split(strings.TrimSuffix(s, "\n"), "\n") {
		w.WriteString(indent)
		w.WriteString(line)
		w.WriteString("\n")
	}
}

// nameEscaper escapes values in whitespace-separated attribute lists.
var nameEscaper = bytereplacer.New(`\`, `\\`, " ", `\ `)

func serial(values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = string(nameEscaper.Replace([]byte(v)))
	}
	return strings.Join(escaped, " ")
}

// startTag returns the element's tag with its attributes sorted by name.
// Empty list attributes are omitted.
func startTag(e *rst.Element) string {
	attrs := make(map[string]string)
	lists := map[string][]string{
		"ids":      e.IDs,
		"names":    e.Names,
		"dupnames": e.DupNames,
		"classes":  e.Classes,
		"backrefs": e.Backrefs,
	}
	for k, v := range lists {
		if len(v) > 0 {
			attrs[k] = serial(v)
		}
	}
	for _, k := range e.AttrKeys() {
		attrs[k] = e.Attr(k)
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb := new(strings.Builder)
	sb.WriteString("<")
	sb.WriteString(string(e.Tag))
	for _, k := range keys {
		fmt.Fprintf(sb, " %s=%q", k, attrs[k])
	}
	sb.WriteString(">")
	return sb.String()
}

func writePending(w *errWriter, indent string, p *rst.Pending) {
	w.WriteString(indent + ".. internal attributes:\n")
	w.WriteString(indent + "     .transform: " + p.Transform + "\n")
	w.WriteString(indent + "     .details:\n")
	keys := make([]string, 0, len(p.Details))
	for k := range p.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var value string
		switch v := p.Details[k].(type) {
		case []string:
			value = strings.Join(v, " ")
		default:
			value = fmt.Sprint(v)
		}
		w.WriteString(indent + "         " + k + ": " + value + "\n")
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) WriteString(s string) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = io.WriteString(w.w, s)
	return n, w.err
}
