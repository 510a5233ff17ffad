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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Directive describes the syntax accepted by a directive
// and the function that produces its nodes.
type Directive struct {
	// RequiredArgs is the number of arguments that must be given.
	RequiredArgs int
	// OptionalArgs is the number of arguments that may follow the required ones.
	OptionalArgs int
	// FinalArgWhitespace allows the last argument to contain whitespace.
	FinalArgWhitespace bool
	// Options maps option names to their value converters.
	Options map[string]OptionConverter
	// HasContent reports whether the directive accepts a content block.
	HasContent bool
	// Run produces the directive's nodes.
	// Returning a [*DirectiveError] replaces the nodes with a system message
	// echoing the directive's source.
	Run func(ctx *DirectiveContext) ([]Node, error)
}

func (d *Directive) takesArgs() bool {
	return d.RequiredArgs+d.OptionalArgs > 0
}

// RegisterDirective adds or replaces the directive with the given canonical name.
func (r *Registry) RegisterDirective(name string, d *Directive) {
	r.directives[strings.ToLower(name)] = d
}

// DirectiveError is an error returned by a directive's Run function.
type DirectiveError struct {
	Level Level
	Msg   string
}

func (e *DirectiveError) Error() string {
	return e.Msg
}

// DirectiveContext is the input to a directive's Run function.
type DirectiveContext struct {
	// Name is the directive name as written in the source.
	Name string
	// Arguments are the whitespace-separated arguments.
	Arguments []string
	// Options holds converted option values.
	// Flag options are present with an empty value.
	Options map[string]string
	// Content is the directive's content block.
	Content *Lines
	// BlockText is the directive's entire source text.
	BlockText string
	// Line is the line number of the directive marker.
	Line int
	// Document is the document being parsed.
	Document *Document

	sm *stateMachine
}

// Parent returns the element the directive's nodes will be appended to.
func (ctx *DirectiveContext) Parent() *Element {
	return ctx.sm.node
}

// Errorf returns a [*DirectiveError] at the given level.
func (ctx *DirectiveContext) Errorf(level Level, format string, args ...any) error {
	return &DirectiveError{Level: level, Msg: fmt.Sprintf(format, args...)}
}

// Report creates a system message at the directive's line.
func (ctx *DirectiveContext) Report(level Level, text string, children ...Node) *Element {
	return ctx.sm.report(level, text, ctx.Line, children...)
}

// NestedParse parses content as body elements appended to node.
func (ctx *DirectiveContext) NestedParse(content *Lines, node *Element) {
	ctx.sm.p.nestedParse(content, node, false)
}

// ParseInline parses text as inline markup.
func (ctx *DirectiveContext) ParseInline(text string) ([]Node, []*Element) {
	return ctx.sm.p.inlineText(text, ctx.Line, ctx.sm.node)
}

// HasContent reports whether the directive was given a non-empty content block.
func (ctx *DirectiveContext) HasContent() bool {
	return ctx.Content.Len() > 0
}

// requireContent returns an error if the content block is empty.
func (ctx *DirectiveContext) requireContent() error {
	if !ctx.HasContent() {
		return ctx.Errorf(ErrorLevel, "Content block expected for the %q directive; none found.", ctx.Name)
	}
	return nil
}

// addName registers the "name" option of the directive as a target for node.
func (ctx *DirectiveContext) addName(node *Element) {
	name, ok := ctx.Options["name"]
	if !ok || name == "" {
		return
	}
	node.Names = append(node.Names, NormalizeName(name))
	ctx.Document.noteExplicitTarget(node, node)
}

// applyClasses appends the "class" option of the directive to node's classes.
func (ctx *DirectiveContext) applyClasses(node *Element) {
	if v, ok := ctx.Options["class"]; ok && v != "" {
		node.Classes = append(node.Classes, strings.Fields(v)...)
	}
}

// OptionConverter validates and normalizes a directive option value.
// Options given without a value receive the empty string.
type OptionConverter func(value string) (string, error)

// FlagOption accepts only an empty value.
func FlagOption(value string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return "", fmt.Errorf("no argument is allowed; %q supplied", value)
	}
	return "", nil
}

// UnchangedOption accepts any value as-is.
func UnchangedOption(value string) (string, error) {
	return value, nil
}

// UnchangedRequiredOption accepts any non-empty value as-is.
func UnchangedRequiredOption(value string) (string, error) {
	if value == "" {
		return "", errors.New("argument required but none supplied")
	}
	return value, nil
}

// URIOption joins the lines of a URI, removing whitespace.
func URIOption(value string) (string, error) {
	if value == "" {
		return "", errors.New("argument required but none supplied")
	}
	return strings.Join(strings.Fields(value), ""), nil
}

// ClassOption converts a space-separated list of names into class identifiers.
// The result is space-separated.
func ClassOption(value string) (string, error) {
	if value == "" {
		return "", errors.New("argument required but none supplied")
	}
	var classes []string
	for _, name := range strings.Fields(value) {
		id := MakeID(name)
		if id == "" {
			return "", fmt.Errorf("cannot make %q into a class name", name)
		}
		classes = append(classes, id)
	}
	return strings.Join(classes, " "), nil
}

// NonNegativeIntOption accepts an integer >= 0.
func NonNegativeIntOption(value string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid literal for int(): %q", value)
	}
	if n < 0 {
		return "", errors.New("negative value; must be positive or zero")
	}
	return strconv.Itoa(n), nil
}

// PositiveIntOption accepts an integer >= 1.
func PositiveIntOption(value string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid literal for int(): %q", value)
	}
	if n < 1 {
		return "", errors.New("negative or zero value; must be positive")
	}
	return strconv.Itoa(n), nil
}

// ChoiceOption returns a converter accepting one of the given values,
// compared case-insensitively.
func ChoiceOption(values ...string) OptionConverter {
	return func(value string) (string, error) {
		v := strings.ToLower(strings.TrimSpace(value))
		for _, choice := range values {
			if v == choice {
				return v, nil
			}
		}
		quoted := make([]string, len(values))
		for i, choice := range values {
			quoted[i] = strconv.Quote(choice)
		}
		return "", fmt.Errorf("%q unknown; choose from %s", value, strings.Join(quoted, " or "))
	}
}

// markupError is a syntax problem in a directive block.
type markupError string

func (e markupError) Error() string {
	return string(e)
}

// parsedDirective is a directive block split into its parts.
type parsedDirective struct {
	args    []string
	options map[string]string
	content *Lines
}

// parseDirectiveBlock splits the indented block following a directive marker
// into arguments, options and content.
func parseDirectiveBlock(d *Directive, block *Lines, presets map[string]string) (*parsedDirective, error) {
	if block.Len() > 0 && strings.TrimSpace(block.Line(0)) == "" {
		block.trimStart(1)
	}
	for block.Len() > 0 && strings.TrimSpace(block.Line(block.Len()-1)) == "" {
		block.trimEnd(1)
	}

	var argBlock, content *Lines
	i := 0
	if block.Len() > 0 && (d.takesArgs() || len(d.Options) > 0) {
		for i < block.Len() && strings.TrimSpace(block.Line(i)) != "" {
			i++
		}
		argBlock = block.Slice(0, i)
		content = block.Slice(min(i+1, block.Len()), block.Len())
	} else {
		argBlock = block.Slice(0, 0)
		content = block
	}

	options := make(map[string]string)
	if len(d.Options) > 0 {
		for k, v := range presets {
			if _, ok := d.Options[k]; ok {
				options[k] = v
			}
		}
		for j := 0; j < argBlock.Len(); j++ {
			if _, _, ok := parseFieldMarker(argBlock.Line(j)); ok {
				parsed, err := parseDirectiveOptions(d.Options, argBlock.Slice(j, argBlock.Len()))
				if err != nil {
					return nil, err
				}
				for k, v := range parsed {
					options[k] = v
				}
				argBlock = argBlock.Slice(0, j)
				break
			}
		}
	}
	if argBlock.Len() > 0 && !d.takesArgs() {
		content = concatLines(argBlock, block.Slice(i, block.Len()))
		argBlock = argBlock.Slice(0, 0)
	}
	for content.Len() > 0 && strings.TrimSpace(content.Line(0)) == "" {
		content.trimStart(1)
	}

	var args []string
	if d.takesArgs() {
		var err error
		args, err = parseDirectiveArgs(d, argBlock.Join())
		if err != nil {
			return nil, err
		}
	}
	if content.Len() > 0 && !d.HasContent {
		return nil, markupError("no content permitted")
	}
	return &parsedDirective{args: args, options: options, content: content}, nil
}

func parseDirectiveArgs(d *Directive, text string) ([]string, error) {
	args := strings.Fields(text)
	max := d.RequiredArgs + d.OptionalArgs
	switch {
	case len(args) < d.RequiredArgs:
		return nil, markupError(fmt.Sprintf("%d argument(s) required, %d supplied", d.RequiredArgs, len(args)))
	case len(args) > max:
		if !d.FinalArgWhitespace {
			return nil, markupError(fmt.Sprintf("maximum %d argument(s) allowed, %d supplied", max, len(args)))
		}
		args = splitFieldsN(text, max)
	}
	return args, nil
}

// splitFieldsN splits s around runs of whitespace into at most n fields.
// The last field holds the remainder of s with its interior whitespace intact.
func splitFieldsN(s string, n int) []string {
	var fields []string
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	for len(fields) < n-1 && s != "" {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		fields = append(fields, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	if s != "" {
		fields = append(fields, strings.TrimRightFunc(s, unicode.IsSpace))
	}
	return fields
}

// parseDirectiveOptions parses an option block written as a field list.
// The block ends at the first blank line.
func parseDirectiveOptions(spec map[string]OptionConverter, block *Lines) (map[string]string, error) {
	type field struct {
		name  string
		lines []string
	}
	var fields []*field
	for i := 0; i < block.Len(); i++ {
		line := block.Line(i)
		if name, end, ok := parseFieldMarker(line); ok {
			fields = append(fields, &field{name: name, lines: []string{strings.TrimSpace(line[end:])}})
			continue
		}
		if len(fields) == 0 || line == "" || line[0] != ' ' {
			return nil, markupError("invalid option block")
		}
		f := fields[len(fields)-1]
		f.lines = append(f.lines, strings.TrimSpace(line))
	}

	options := make(map[string]string, len(fields))
	for _, f := range fields {
		name := strings.ToLower(f.name)
		conv, ok := spec[name]
		if !ok {
			return nil, markupError(fmt.Sprintf("unknown option: %q", name))
		}
		if _, dup := options[name]; dup {
			return nil, markupError(fmt.Sprintf("invalid option data: duplicate option %q", name))
		}
		for len(f.lines) > 0 && f.lines[0] == "" {
			f.lines = f.lines[1:]
		}
		raw := strings.Join(f.lines, "\n")
		v, err := conv(raw)
		if err != nil {
			return nil, markupError(fmt.Sprintf("invalid option value: (option: %q; value: %q)\n%v", name, raw, err))
		}
		options[name] = v
	}
	return options, nil
}

// lookupDirective resolves a directive name through the document language.
func (sm *stateMachine) lookupDirective(name string) (*Directive, []*Element) {
	canonical, msgs := sm.p.lang.resolve(name, directiveKind, sm.p.doc.Reporter, sm.lineno())
	return sm.p.registry.directives[canonical], msgs
}

// directive handles a directive block whose marker ends at markerEnd
// on the current line.
// presets supply default option values.
func (sm *stateMachine) directive(name string, markerEnd int, presets map[string]string) (nodes []Node, blankFinish bool) {
	lineno := sm.lineno()
	start := sm.pos
	d, msgs := sm.lookupDirective(name)
	for _, msg := range msgs {
		sm.node.Append(msg)
	}
	block, _, blankFinish := sm.lines.indentedBlock(start, false, true, markerEnd, -1)
	sm.pos = start + block.Len()
	blockText := sm.blockText(start, sm.pos)

	if d == nil {
		msg := sm.report(ErrorLevel, fmt.Sprintf("Unknown directive type %q.", name), lineno,
			NewTextElement(LiteralBlockTag, blockText))
		return []Node{msg}, blankFinish
	}
	parsed, err := parseDirectiveBlock(d, block, presets)
	if err != nil {
		msg := sm.report(ErrorLevel, fmt.Sprintf("Error in %q directive:\n%v.", name, err), lineno,
			NewTextElement(LiteralBlockTag, blockText))
		return []Node{msg}, blankFinish
	}
	ctx := &DirectiveContext{
		Name:      name,
		Arguments: parsed.args,
		Options:   parsed.options,
		Content:   parsed.content,
		BlockText: blockText,
		Line:      lineno,
		Document:  sm.p.doc,
		sm:        sm,
	}
	tracer().Debugf("directive %q at line %d", name, lineno)
	result, err := d.Run(ctx)
	if err != nil {
		level := ErrorLevel
		var derr *DirectiveError
		if errors.As(err, &derr) {
			level = derr.Level
		}
		msg := sm.report(level, err.Error(), lineno, NewTextElement(LiteralBlockTag, blockText))
		result = []Node{msg}
	}
	return result, blankFinish || sm.nextLineBlank()
}

// blockText returns the source lines [start, end) with trailing blank lines removed.
func (sm *stateMachine) blockText(start, end int) string {
	for end > start && sm.lines.Line(end-1) == "" {
		end--
	}
	return sm.lines.Slice(start, end).Join()
}
