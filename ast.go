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

// Tag is the name of an [Element]'s node class.
type Tag string

// Structural elements.
const (
	DocumentTag   Tag = "document"
	SectionTag    Tag = "section"
	TopicTag      Tag = "topic"
	SidebarTag    Tag = "sidebar"
	TransitionTag Tag = "transition"
)

// Title and decoration elements.
const (
	TitleTag      Tag = "title"
	SubtitleTag   Tag = "subtitle"
	RubricTag     Tag = "rubric"
	DecorationTag Tag = "decoration"
	HeaderTag     Tag = "header"
	FooterTag     Tag = "footer"
	DocinfoTag    Tag = "docinfo"
)

// Body elements.
const (
	ParagraphTag          Tag = "paragraph"
	CompoundTag           Tag = "compound"
	ContainerTag          Tag = "container"
	BulletListTag         Tag = "bullet_list"
	EnumeratedListTag     Tag = "enumerated_list"
	ListItemTag           Tag = "list_item"
	DefinitionListTag     Tag = "definition_list"
	DefinitionListItemTag Tag = "definition_list_item"
	TermTag               Tag = "term"
	ClassifierTag         Tag = "classifier"
	DefinitionTag         Tag = "definition"
	FieldListTag          Tag = "field_list"
	FieldTag              Tag = "field"
	FieldNameTag          Tag = "field_name"
	FieldBodyTag          Tag = "field_body"
	OptionListTag         Tag = "option_list"
	OptionListItemTag     Tag = "option_list_item"
	OptionGroupTag        Tag = "option_group"
	OptionTag             Tag = "option"
	OptionStringTag       Tag = "option_string"
	OptionArgumentTag     Tag = "option_argument"
	DescriptionTag        Tag = "description"
	LiteralBlockTag       Tag = "literal_block"
	DoctestBlockTag       Tag = "doctest_block"
	LineBlockTag          Tag = "line_block"
	LineTag               Tag = "line"
	BlockQuoteTag         Tag = "block_quote"
	AttributionTag        Tag = "attribution"
	AdmonitionTag         Tag = "admonition"
	CommentTag            Tag = "comment"
	SubstitutionDefTag    Tag = "substitution_definition"
	TargetTag             Tag = "target"
	FootnoteTag           Tag = "footnote"
	CitationTag           Tag = "citation"
	LabelTag              Tag = "label"
	ImageTag              Tag = "image"
	TableTag              Tag = "table"
	TGroupTag             Tag = "tgroup"
	ColSpecTag            Tag = "colspec"
	THeadTag              Tag = "thead"
	TBodyTag              Tag = "tbody"
	RowTag                Tag = "row"
	EntryTag              Tag = "entry"
	SystemMessageTag      Tag = "system_message"
	PendingTag            Tag = "pending"
)

// Inline elements.
const (
	EmphasisTag          Tag = "emphasis"
	StrongTag            Tag = "strong"
	LiteralTag           Tag = "literal"
	ReferenceTag         Tag = "reference"
	FootnoteReferenceTag Tag = "footnote_reference"
	CitationReferenceTag Tag = "citation_reference"
	SubstitutionRefTag   Tag = "substitution_reference"
	TitleReferenceTag    Tag = "title_reference"
	AbbreviationTag      Tag = "abbreviation"
	AcronymTag           Tag = "acronym"
	SuperscriptTag       Tag = "superscript"
	SubscriptTag         Tag = "subscript"
	InlineTag            Tag = "inline"
	ProblematicTag       Tag = "problematic"
	GeneratedTag         Tag = "generated"
)

// admonitionTags are the specific admonitions.
// Each is represented as an [AdmonitionTag] element
// whose classes hold the admonition's name.
var admonitionTags = []string{
	"attention",
	"caution",
	"danger",
	"error",
	"hint",
	"important",
	"note",
	"tip",
	"warning",
}

// IsInline reports whether elements with the tag
// appear inside paragraphs and other text elements.
func (t Tag) IsInline() bool {
	switch t {
	case EmphasisTag, StrongTag, LiteralTag, ReferenceTag,
		FootnoteReferenceTag, CitationReferenceTag, SubstitutionRefTag,
		TitleReferenceTag, AbbreviationTag, AcronymTag,
		SuperscriptTag, SubscriptTag, InlineTag, ProblematicTag,
		GeneratedTag, TargetTag, ImageTag:
		return true
	default:
		return false
	}
}

// IsTextElement reports whether elements with the tag
// contain inline content rather than body elements.
func (t Tag) IsTextElement() bool {
	switch t {
	case ParagraphTag, TitleTag, SubtitleTag, RubricTag, TermTag,
		ClassifierTag, FieldNameTag, LiteralBlockTag, DoctestBlockTag,
		LineTag, AttributionTag, LabelTag, OptionStringTag,
		OptionArgumentTag, SubstitutionDefTag:
		return true
	default:
		return t.IsInline()
	}
}

// preservesSpace reports whether whitespace in the element's text is significant.
func (t Tag) preservesSpace() bool {
	switch t {
	case LiteralBlockTag, DoctestBlockTag, CommentTag, LineBlockTag:
		return true
	default:
		return false
	}
}
