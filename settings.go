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
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Settings is the set of options that control parsing and transforming.
// The zero value is not useful; start from [DefaultSettings].
type Settings struct {
	// ReportLevel is the minimum level of messages written to WarningStream.
	ReportLevel Level
	// HaltLevel is the minimum level of messages that stop processing.
	HaltLevel Level
	// WarningStream receives reported messages.
	// If nil, os.Stderr is used.
	WarningStream io.Writer
	// Debug enables DEBUG-level messages.
	Debug bool

	// TabWidth is the number of columns between tab stops.
	TabWidth int
	// LanguageCode is the BCP 47 tag of the document language,
	// used for localized directive and role names.
	LanguageCode string
	// InputEncoding is the name of the source's character encoding.
	InputEncoding string
	// OutputEncoding is the name of the encoding writers should produce.
	OutputEncoding string

	// DocTitleTransform enables promoting a lone top-level section title
	// to the document title.
	DocTitleTransform bool
	// SectSubtitleTransform enables promoting a lone subsection title
	// to a section subtitle.
	SectSubtitleTransform bool
	// SectNumTransform enables the sectnum directive.
	SectNumTransform bool

	// FootnoteReferences is "brackets" or "superscript".
	FootnoteReferences string
	// TrimFootnoteReferenceSpace removes whitespace before footnote references.
	TrimFootnoteReferenceSpace bool
	// TOCBacklinks is "entry", "top" or "none".
	TOCBacklinks string

	// IDPrefix is prepended to every generated identifier.
	IDPrefix string
	// AutoIDPrefix is used for identifiers not derived from a name.
	AutoIDPrefix string

	// PEPReferences recognizes standalone "PEP nnn" references.
	PEPReferences bool
	// PEPBaseURL is the prefix of pep-reference URLs.
	PEPBaseURL string
	// RFCReferences recognizes standalone "RFC nnn" references.
	RFCReferences bool
	// RFCBaseURL is the prefix of rfc-reference URLs.
	RFCBaseURL string

	// CharacterLevelInlineMarkup allows inline markup
	// to start and end in the middle of words.
	CharacterLevelInlineMarkup bool

	// StripComments removes comment elements from the document.
	StripComments bool
	// StripClasses removes the named class values from all elements.
	StripClasses []string
	// StripElementsWithClasses removes elements carrying any of these classes.
	StripElementsWithClasses []string
}

// DefaultSettings returns the default settings.
func DefaultSettings() *Settings {
	return &Settings{
		ReportLevel:        WarningLevel,
		HaltLevel:          SevereLevel,
		TabWidth:           8,
		LanguageCode:       "en",
		InputEncoding:      "utf-8",
		OutputEncoding:     "utf-8",
		DocTitleTransform:  true,
		SectNumTransform:   true,
		FootnoteReferences: "brackets",
		TOCBacklinks:       "entry",
		AutoIDPrefix:       "id",
		PEPBaseURL:         "https://peps.python.org/",
		RFCBaseURL:         "https://tools.ietf.org/html/",
	}
}

func (s *Settings) clone() *Settings {
	s2 := new(Settings)
	*s2 = *s
	s2.StripClasses = append([]string(nil), s.StripClasses...)
	s2.StripElementsWithClasses = append([]string(nil), s.StripElementsWithClasses...)
	return s2
}

var utf8BOM = []byte("\ufeff")

// DecodeInput converts source bytes in the named encoding to a string.
// An empty encoding name means UTF-8.
// A leading byte order mark is removed.
// Invalid UTF-8 sequences become U+FFFD.
func DecodeInput(source []byte, encoding string) (string, error) {
	encoding = strings.TrimSpace(encoding)
	if encoding == "" || strings.EqualFold(encoding, "utf-8") || strings.EqualFold(encoding, "utf8") {
		decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(source)
		if err != nil {
			return "", fmt.Errorf("decode input: %w", err)
		}
		return string(decoded), nil
	}
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return "", fmt.Errorf("decode input: %w", err)
	}
	decoded, err := enc.NewDecoder().Bytes(source)
	if err != nil {
		return "", fmt.Errorf("decode input as %s: %w", encoding, err)
	}
	return string(bytes.TrimPrefix(decoded, utf8BOM)), nil
}
