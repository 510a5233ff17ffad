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
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var nameFolder = cases.Fold()

// NormalizeName returns the canonical form of a reference name:
// whitespace runs collapse to a single space and letters are case-folded.
// Two reference names refer to the same target
// if and only if their normalized forms are equal.
func NormalizeName(name string) string {
	return nameFolder.String(whitespaceNormalizeName(name))
}

// whitespaceNormalizeName collapses whitespace runs without changing case.
func whitespaceNormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

var idDigraphs = map[rune]string{
	'ß': "sz",
	'æ': "ae",
	'œ': "oe",
	'ȸ': "db",
	'ȹ': "qp",
}

var idTranslations = map[rune]rune{
	'ø': 'o',
	'đ': 'd',
	'ħ': 'h',
	'ı': 'i',
	'ł': 'l',
	'ŧ': 't',
	'ƀ': 'b',
	'ƈ': 'c',
	'ƌ': 'd',
	'ƒ': 'f',
	'ƙ': 'k',
	'ƚ': 'l',
	'ƞ': 'n',
	'ƥ': 'p',
	'ƫ': 't',
	'ƭ': 't',
	'ƴ': 'y',
	'ƶ': 'z',
	'ǥ': 'g',
}

// MakeID converts s into a string usable as an element identifier:
// lowercase ASCII letters, digits and single hyphens,
// beginning with a letter.
// The result may be empty.
func MakeID(s string) string {
	s = strings.ToLower(s)
	sb := new(strings.Builder)
	for _, c := range s {
		if d, ok := idDigraphs[c]; ok {
			sb.WriteString(d)
		} else if t, ok := idTranslations[c]; ok {
			sb.WriteRune(t)
		} else {
			sb.WriteRune(c)
		}
	}
	decomposed := norm.NFKD.String(sb.String())

	sb.Reset()
	pendingHyphen := false
	for _, c := range decomposed {
		switch {
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(c)
		case c > unicode.MaxASCII:
			// Dropped, like combining marks left over from decomposition.
		default:
			pendingHyphen = true
		}
	}
	return strings.TrimLeft(sb.String(), "-0123456789")
}
