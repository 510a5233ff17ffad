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
	"strconv"
	"strings"
)

// RoleContext is the input to a [RoleFunc].
type RoleContext struct {
	// Name is the role name as written in the source.
	Name string
	// RawText is the entire interpreted text construct,
	// including the role and backquotes.
	RawText string
	// Text is the interpreted text with escapes removed.
	Text string
	// Escaped is the interpreted text with backslashes kept.
	Escaped string
	// Line is the line number of the text block.
	Line int
	// Document is the document being parsed.
	Document *Document

	inliner *inliner
}

// Error creates an error message and a problematic element covering the raw text.
func (ctx *RoleContext) Error(text string) ([]Node, []*Element) {
	msg := ctx.inliner.report(ErrorLevel, text)
	return []Node{ctx.inliner.problematic(ctx.RawText, msg)}, []*Element{msg}
}

// ParseInline parses text as inline markup in the role's context.
func (ctx *RoleContext) ParseInline(text string) ([]Node, []*Element) {
	return ctx.inliner.parseInline(text)
}

// RoleFunc converts interpreted text into inline nodes and system messages.
type RoleFunc func(ctx *RoleContext) ([]Node, []*Element)

// defaultRole is used for interpreted text without an explicit role.
const defaultRole = "title-reference"

// Registry holds the directives and roles available to a [Parser].
// Each parser owns its registry,
// so registering an extension never affects other parsers.
type Registry struct {
	directives map[string]*Directive
	roles      map[string]RoleFunc
}

// NewRegistry returns a registry holding the built-in directives and roles.
func NewRegistry() *Registry {
	r := &Registry{
		directives: make(map[string]*Directive),
		roles:      make(map[string]RoleFunc),
	}
	for _, name := range []string{"emphasis", "strong", "subscript", "superscript", "abbreviation", "acronym", "title-reference"} {
		r.roles[name] = genericRole(roleTags[name])
	}
	r.roles["literal"] = literalRole
	r.roles["code"] = codeRole
	r.roles["pep-reference"] = pepRole
	r.roles["rfc-reference"] = rfcRole
	registerBuiltinDirectives(r)
	return r
}

// RegisterRole adds or replaces a role under its canonical name.
func (r *Registry) RegisterRole(name string, fn RoleFunc) {
	r.roles[strings.ToLower(name)] = fn
}

var roleTags = map[string]Tag{
	"emphasis":        EmphasisTag,
	"strong":          StrongTag,
	"subscript":       SubscriptTag,
	"superscript":     SuperscriptTag,
	"abbreviation":    AbbreviationTag,
	"acronym":         AcronymTag,
	"title-reference": TitleReferenceTag,
}

func genericRole(tag Tag) RoleFunc {
	return func(ctx *RoleContext) ([]Node, []*Element) {
		return []Node{NewTextElement(tag, ctx.Text)}, nil
	}
}

func literalRole(ctx *RoleContext) ([]Node, []*Element) {
	return []Node{NewTextElement(LiteralTag, ctx.Escaped)}, nil
}

func codeRole(ctx *RoleContext) ([]Node, []*Element) {
	e := NewTextElement(LiteralTag, ctx.Text)
	e.Classes = append(e.Classes, "code")
	return []Node{e}, nil
}

func pepRole(ctx *RoleContext) ([]Node, []*Element) {
	n, err := strconv.Atoi(ctx.Text)
	if err != nil || n < 0 || n > 9999 {
		return ctx.Error(fmt.Sprintf("PEP number must be a number from 0 to 9999; %q is invalid.", ctx.Text))
	}
	ref := NewTextElement(ReferenceTag, "PEP "+ctx.Text)
	ref.SetAttr("refuri", pepURL(ctx.Document.Settings, n))
	return []Node{ref}, nil
}

func rfcRole(ctx *RoleContext) ([]Node, []*Element) {
	num, anchor, _ := strings.Cut(ctx.Text, "#")
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return ctx.Error(fmt.Sprintf("RFC number must be a number greater than or equal to 1; %q is invalid.", ctx.Text))
	}
	ref := NewTextElement(ReferenceTag, "RFC "+num)
	uri := rfcURL(ctx.Document.Settings, n)
	if anchor != "" {
		uri += "#" + anchor
	}
	ref.SetAttr("refuri", uri)
	return []Node{ref}, nil
}

// lookupRole finds the role for a name written in the source,
// trying the document language first and falling back to English.
// An empty name selects the default role.
func (in *inliner) lookupRole(name string) (RoleFunc, []*Element) {
	if name == "" {
		name = in.defaultRole
		if name == "" {
			name = defaultRole
		}
	}
	canonical, msgs := in.lang.resolve(name, roleKind, in.doc.Reporter, in.line)
	if fn := in.registry.roles[canonical]; fn != nil {
		return fn, msgs
	}
	return nil, msgs
}
