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
	"regexp"
	"strconv"
	"strings"
)

// Pending transform names used by the built-in directives.
const (
	classPending    = "class"
	contentsPending = "contents"
	sectnumPending  = "sectnum"
)

func registerBuiltinDirectives(r *Registry) {
	for _, name := range admonitionTags {
		r.RegisterDirective(name, &Directive{
			Options:    map[string]OptionConverter{"class": ClassOption, "name": UnchangedOption},
			HasContent: true,
			Run:        admonitionDirective(name),
		})
	}
	r.RegisterDirective("admonition", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Options:            map[string]OptionConverter{"class": ClassOption, "name": UnchangedOption},
		HasContent:         true,
		Run:                admonitionDirective(""),
	})
	r.RegisterDirective("topic", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Options:            map[string]OptionConverter{"class": ClassOption, "name": UnchangedOption},
		HasContent:         true,
		Run:                topicDirective(TopicTag),
	})
	r.RegisterDirective("sidebar", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Options: map[string]OptionConverter{
			"subtitle": UnchangedRequiredOption,
			"class":    ClassOption,
			"name":     UnchangedOption,
		},
		HasContent: true,
		Run:        topicDirective(SidebarTag),
	})
	r.RegisterDirective("rubric", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Options:            map[string]OptionConverter{"class": ClassOption, "name": UnchangedOption},
		Run:                rubricDirective,
	})
	for _, name := range []string{"epigraph", "highlights", "pull-quote"} {
		r.RegisterDirective(name, &Directive{
			HasContent: true,
			Run:        blockQuoteDirective(name),
		})
	}
	r.RegisterDirective("compound", &Directive{
		Options:    map[string]OptionConverter{"class": ClassOption, "name": UnchangedOption},
		HasContent: true,
		Run:        compoundDirective,
	})
	r.RegisterDirective("container", &Directive{
		OptionalArgs:       1,
		FinalArgWhitespace: true,
		Options:            map[string]OptionConverter{"name": UnchangedOption},
		HasContent:         true,
		Run:                containerDirective,
	})
	r.RegisterDirective("class", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		HasContent:         true,
		Run:                classDirective,
	})
	r.RegisterDirective("contents", &Directive{
		OptionalArgs:       1,
		FinalArgWhitespace: true,
		Options: map[string]OptionConverter{
			"depth":     NonNegativeIntOption,
			"local":     FlagOption,
			"backlinks": ChoiceOption("top", "entry", "none"),
			"class":     ClassOption,
		},
		Run: contentsDirective,
	})
	r.RegisterDirective("sectnum", &Directive{
		Options: map[string]OptionConverter{
			"depth":  intOption,
			"start":  intOption,
			"prefix": UnchangedRequiredOption,
			"suffix": UnchangedRequiredOption,
		},
		Run: sectnumDirective,
	})
	r.RegisterDirective("replace", &Directive{
		HasContent: true,
		Run:        replaceDirective,
	})
	r.RegisterDirective("unicode", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Options: map[string]OptionConverter{
			"trim":  FlagOption,
			"ltrim": FlagOption,
			"rtrim": FlagOption,
		},
		Run: unicodeDirective,
	})
	r.RegisterDirective("default-role", &Directive{
		OptionalArgs: 1,
		Run:          defaultRoleDirective,
	})
	r.RegisterDirective("title", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Run:                titleDirective,
	})
	r.RegisterDirective("image", &Directive{
		RequiredArgs:       1,
		FinalArgWhitespace: true,
		Options: map[string]OptionConverter{
			"alt":    UnchangedOption,
			"height": lengthOption(false),
			"width":  lengthOption(true),
			"scale":  percentageOption,
			"align":  ChoiceOption(append(verticalAlignValues, horizontalAlignValues...)...),
			"target": UnchangedRequiredOption,
			"class":  ClassOption,
			"name":   UnchangedOption,
		},
		Run: imageDirective,
	})
}

// admonitionDirective returns the Run function for a specific admonition
// or, if kind is empty, for the generic admonition with a title argument.
func admonitionDirective(kind string) func(*DirectiveContext) ([]Node, error) {
	return func(ctx *DirectiveContext) ([]Node, error) {
		if err := ctx.requireContent(); err != nil {
			return nil, err
		}
		node := NewElement(AdmonitionTag)
		node.Source, node.Line = ctx.Document.Source, ctx.Line
		if kind != "" {
			node.Classes = append(node.Classes, kind)
		}
		ctx.applyClasses(node)
		ctx.addName(node)
		if kind == "" {
			titleText := ctx.Arguments[0]
			inlines, msgs := ctx.ParseInline(titleText)
			node.Append(NewElement(TitleTag, inlines...))
			for _, msg := range msgs {
				node.Append(msg)
			}
			if _, ok := ctx.Options["class"]; !ok {
				node.Classes = append(node.Classes, "admonition-"+MakeID(titleText))
			}
		}
		ctx.NestedParse(ctx.Content, node)
		return []Node{node}, nil
	}
}

// checkSectionContext returns an error unless the directive
// appears at the document or section level (or in a sidebar, if allowed).
func checkSectionContext(ctx *DirectiveContext, allowSidebar bool) error {
	if ctx.sm.matchTitles {
		return nil
	}
	if allowSidebar && ctx.Parent().Tag == SidebarTag {
		return nil
	}
	return ctx.Errorf(ErrorLevel, "The %q directive may not be used within topics or body elements.", ctx.Name)
}

func topicDirective(tag Tag) func(*DirectiveContext) ([]Node, error) {
	return func(ctx *DirectiveContext) ([]Node, error) {
		if tag == SidebarTag && ctx.Parent().Tag == SidebarTag {
			return nil, ctx.Errorf(ErrorLevel, "The %q directive may not be used within a sidebar element.", ctx.Name)
		}
		if err := checkSectionContext(ctx, tag == TopicTag); err != nil {
			return nil, err
		}
		if err := ctx.requireContent(); err != nil {
			return nil, err
		}
		node := NewElement(tag)
		node.Source, node.Line = ctx.Document.Source, ctx.Line
		inlines, msgs := ctx.ParseInline(ctx.Arguments[0])
		node.Append(NewElement(TitleTag, inlines...))
		if subtitle, ok := ctx.Options["subtitle"]; ok {
			subInlines, subMsgs := ctx.ParseInline(subtitle)
			node.Append(NewElement(SubtitleTag, subInlines...))
			msgs = append(msgs, subMsgs...)
		}
		for _, msg := range msgs {
			node.Append(msg)
		}
		ctx.applyClasses(node)
		ctx.addName(node)
		ctx.NestedParse(ctx.Content, node)
		return []Node{node}, nil
	}
}

func rubricDirective(ctx *DirectiveContext) ([]Node, error) {
	inlines, msgs := ctx.ParseInline(ctx.Arguments[0])
	rubric := NewElement(RubricTag, inlines...)
	rubric.Source, rubric.Line = ctx.Document.Source, ctx.Line
	ctx.applyClasses(rubric)
	ctx.addName(rubric)
	nodes := []Node{rubric}
	for _, msg := range msgs {
		nodes = append(nodes, msg)
	}
	return nodes, nil
}

// blockQuoteDirective returns the Run function of a block quote
// tagged with the directive's name as a class.
func blockQuoteDirective(class string) func(*DirectiveContext) ([]Node, error) {
	return func(ctx *DirectiveContext) ([]Node, error) {
		if err := ctx.requireContent(); err != nil {
			return nil, err
		}
		nodes := ctx.sm.blockQuotes(ctx.Content)
		for _, n := range nodes {
			if e, ok := n.(*Element); ok && e.Tag == BlockQuoteTag {
				e.Classes = append(e.Classes, class)
			}
		}
		return nodes, nil
	}
}

func compoundDirective(ctx *DirectiveContext) ([]Node, error) {
	if err := ctx.requireContent(); err != nil {
		return nil, err
	}
	node := NewElement(CompoundTag)
	node.Source, node.Line = ctx.Document.Source, ctx.Line
	ctx.applyClasses(node)
	ctx.addName(node)
	ctx.NestedParse(ctx.Content, node)
	return []Node{node}, nil
}

func containerDirective(ctx *DirectiveContext) ([]Node, error) {
	if err := ctx.requireContent(); err != nil {
		return nil, err
	}
	node := NewElement(ContainerTag)
	node.Source, node.Line = ctx.Document.Source, ctx.Line
	if len(ctx.Arguments) > 0 {
		classes, err := ClassOption(ctx.Arguments[0])
		if err != nil {
			return nil, ctx.Errorf(ErrorLevel, "Invalid class attribute value for %q directive: %q.", ctx.Name, ctx.Arguments[0])
		}
		node.Classes = append(node.Classes, strings.Fields(classes)...)
	}
	ctx.addName(node)
	ctx.NestedParse(ctx.Content, node)
	return []Node{node}, nil
}

// classDirective applies classes to the elements of its content
// or, without content, to the next element via a pending "class" element.
func classDirective(ctx *DirectiveContext) ([]Node, error) {
	value, err := ClassOption(ctx.Arguments[0])
	if err != nil {
		return nil, ctx.Errorf(ErrorLevel, "Invalid class attribute value for %q directive: %q.", ctx.Name, ctx.Arguments[0])
	}
	classes := strings.Fields(value)
	if !ctx.HasContent() {
		pending := ctx.Document.NewPending(classPending, map[string]any{
			"class":     classes,
			"directive": ctx.Name,
		})
		pending.Source, pending.Line = ctx.Document.Source, ctx.Line
		return []Node{pending}, nil
	}
	holder := NewElement(ContainerTag)
	ctx.NestedParse(ctx.Content, holder)
	for _, c := range holder.Children() {
		if e, ok := c.(*Element); ok {
			e.Classes = append(e.Classes, classes...)
		}
	}
	return holder.RemoveChildren(), nil
}

// contentsDirective creates a table of contents topic
// whose entries are generated later by the contents transform.
func contentsDirective(ctx *DirectiveContext) ([]Node, error) {
	if err := checkSectionContext(ctx, true); err != nil {
		return nil, err
	}
	doc := ctx.Document
	_, local := ctx.Options["local"]
	var title *Element
	var msgs []*Element
	if len(ctx.Arguments) > 0 {
		var inlines []Node
		inlines, msgs = ctx.ParseInline(ctx.Arguments[0])
		title = NewElement(TitleTag, inlines...)
	} else if !local {
		title = NewTextElement(TitleTag, ctx.sm.p.lang.label("contents"))
	}
	topic := NewElement(TopicTag)
	topic.Source, topic.Line = doc.Source, ctx.Line
	topic.Classes = append(topic.Classes, "contents")
	ctx.applyClasses(topic)
	if local {
		topic.Classes = append(topic.Classes, "local")
	}
	name := ctx.sm.p.lang.label("contents")
	if title != nil {
		name = title.AsText()
		topic.Append(title)
	}
	name = NormalizeName(name)
	if _, taken := doc.NameID(name); !taken {
		topic.Names = append(topic.Names, name)
	}
	doc.noteImplicitTarget(topic, topic)

	details := make(map[string]any)
	for k, v := range ctx.Options {
		details[k] = v
	}
	pending := doc.NewPending(contentsPending, details)
	pending.Source, pending.Line = doc.Source, ctx.Line
	topic.Append(pending)
	nodes := []Node{topic}
	for _, msg := range msgs {
		nodes = append(nodes, msg)
	}
	return nodes, nil
}

func sectnumDirective(ctx *DirectiveContext) ([]Node, error) {
	details := make(map[string]any)
	for k, v := range ctx.Options {
		details[k] = v
	}
	pending := ctx.Document.NewPending(sectnumPending, details)
	pending.Source, pending.Line = ctx.Document.Source, ctx.Line
	return []Node{pending}, nil
}

// inSubstitution returns an error unless the directive
// is the body of a substitution definition.
func inSubstitution(ctx *DirectiveContext) error {
	if ctx.Parent().Tag != SubstitutionDefTag {
		return ctx.Errorf(ErrorLevel, "Invalid context: the %q directive can only be used within a substitution definition.", ctx.Name)
	}
	return nil
}

// replaceDirective substitutes the inline content of a single paragraph.
func replaceDirective(ctx *DirectiveContext) ([]Node, error) {
	if err := inSubstitution(ctx); err != nil {
		return nil, err
	}
	if err := ctx.requireContent(); err != nil {
		return nil, err
	}
	holder := NewElement(ContainerTag)
	ctx.NestedParse(ctx.Content, holder)
	var para *Element
	var nodes []Node
	for _, c := range holder.Children() {
		e, ok := c.(*Element)
		switch {
		case ok && para == nil && e.Tag == ParagraphTag:
			para = e
		case ok && e.Tag == SystemMessageTag:
			e.Backrefs = nil
			nodes = append(nodes, e)
		default:
			return nil, ctx.Errorf(ErrorLevel, "Error in %q directive: may contain a single paragraph only.", ctx.Name)
		}
	}
	holder.RemoveChildren()
	if para != nil {
		nodes = append(nodes, para.RemoveChildren()...)
	}
	return nodes, nil
}

var (
	unicodeCommentPattern = regexp.MustCompile(`( |\n|^)\.\. `)
	unicodeCodePattern    = regexp.MustCompile(`(?i)^(?:0x|x|\\x|U\+?|\\u)([0-9a-f]+)$|^&#x([0-9a-f]+);$`)
)

// unicodeDirective converts character codes into text.
func unicodeDirective(ctx *DirectiveContext) ([]Node, error) {
	if err := inSubstitution(ctx); err != nil {
		return nil, err
	}
	def := ctx.Parent()
	if _, ok := ctx.Options["trim"]; ok {
		def.SetAttr("ltrim", "1")
		def.SetAttr("rtrim", "1")
	}
	if _, ok := ctx.Options["ltrim"]; ok {
		def.SetAttr("ltrim", "1")
	}
	if _, ok := ctx.Options["rtrim"]; ok {
		def.SetAttr("rtrim", "1")
	}
	arg := unicodeCommentPattern.Split(ctx.Arguments[0], 2)[0]
	var nodes []Node
	for _, code := range strings.Fields(arg) {
		decoded, err := unicodeCode(code)
		if err != nil {
			return nil, ctx.Errorf(ErrorLevel, "Invalid character code: %s\n%v", code, err)
		}
		nodes = append(nodes, NewText(decoded))
	}
	return nodes, nil
}

// unicodeCode converts a decimal or hexadecimal character code.
// Text that is not a code is returned unchanged.
func unicodeCode(code string) (string, error) {
	value, base := code, 10
	if m := unicodeCodePattern.FindStringSubmatch(code); m != nil {
		value, base = m[1]+m[2], 16
	} else if strings.Trim(code, "0123456789") != "" {
		return code, nil
	}
	n, err := strconv.ParseInt(value, base, 64)
	if err != nil || n > 0x10FFFF {
		return "", fmt.Errorf("code too large (%s)", code)
	}
	return string(rune(n)), nil
}

func defaultRoleDirective(ctx *DirectiveContext) ([]Node, error) {
	p := ctx.sm.p
	if len(ctx.Arguments) == 0 {
		p.defaultRole = ""
		return nil, nil
	}
	name := ctx.Arguments[0]
	canonical, msgs := p.lang.resolve(name, roleKind, p.doc.Reporter, ctx.Line)
	var nodes []Node
	for _, msg := range msgs {
		nodes = append(nodes, msg)
	}
	if _, ok := p.registry.roles[canonical]; !ok {
		msg := ctx.Report(ErrorLevel, fmt.Sprintf("Unknown interpreted text role %q.", name),
			literalBlockNode(ctx.BlockText))
		return append(nodes, msg), nil
	}
	p.defaultRole = canonical
	return nodes, nil
}

func titleDirective(ctx *DirectiveContext) ([]Node, error) {
	ctx.Document.SetAttr("title", ctx.Arguments[0])
	return nil, nil
}

var (
	verticalAlignValues   = []string{"top", "middle", "bottom"}
	horizontalAlignValues = []string{"left", "center", "right"}
)

// imageDirective creates an image element,
// wrapped in a reference if a target is given.
func imageDirective(ctx *DirectiveContext) ([]Node, error) {
	inSubst := ctx.Parent().Tag == SubstitutionDefTag
	if align, ok := ctx.Options["align"]; ok {
		valid := horizontalAlignValues
		where := ""
		if inSubst {
			valid = verticalAlignValues
			where = " within a substitution definition"
		}
		if !contains(valid, align) {
			return nil, ctx.Errorf(ErrorLevel,
				"Error in %q directive: %q is not a valid value for the \"align\" option%s.  Valid values for \"align\" are: \"%s\".",
				ctx.Name, align, where, strings.Join(valid, `", "`))
		}
	}
	image := NewElement(ImageTag)
	image.Source, image.Line = ctx.Document.Source, ctx.Line
	image.SetAttr("uri", strings.Join(strings.Fields(ctx.Arguments[0]), ""))
	for _, key := range []string{"alt", "height", "width", "scale", "align"} {
		if v, ok := ctx.Options[key]; ok {
			image.SetAttr(key, v)
		}
	}
	ctx.applyClasses(image)
	ctx.addName(image)

	target, ok := ctx.Options["target"]
	if !ok {
		return []Node{image}, nil
	}
	lines := strings.Split(escapeToNull(target), "\n")
	refname, refuri := targetValue(lines)
	ref := NewElement(ReferenceTag, image)
	if refname != "" {
		ref.SetAttr("refname", NormalizeName(refname))
		ref.SetAttr("name", whitespaceNormalizeName(refname))
		ctx.Document.noteRefName(ref)
	} else {
		ref.SetAttr("refuri", refuri)
	}
	return []Node{ref}, nil
}

// intOption accepts any integer.
func intOption(value string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid literal for int(): %q", value)
	}
	return strconv.Itoa(n), nil
}

var lengthPattern = regexp.MustCompile(`^([0-9.]+) *(em|ex|px|in|cm|mm|pt|pc|%)?$`)

// lengthOption accepts a length with an optional unit.
// Percentages are accepted only if allowPercent is true.
func lengthOption(allowPercent bool) OptionConverter {
	return func(value string) (string, error) {
		m := lengthPattern.FindStringSubmatch(strings.TrimSpace(value))
		if m == nil || (m[2] == "%" && !allowPercent) {
			return "", fmt.Errorf("invalid length: %q", value)
		}
		if _, err := strconv.ParseFloat(m[1], 64); err != nil {
			return "", fmt.Errorf("invalid length: %q", value)
		}
		return m[1] + m[2], nil
	}
}

// percentageOption accepts a non-negative integer with an optional "%".
func percentageOption(value string) (string, error) {
	v := strings.TrimSuffix(strings.TrimSpace(value), "%")
	if v == "" {
		return "", errors.New("argument required but none supplied")
	}
	return NonNegativeIntOption(v)
}
