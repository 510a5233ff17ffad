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
	"strings"

	"golang.org/x/text/language"
)

type nameKind int

const (
	directiveKind nameKind = iota
	roleKind
)

func (k nameKind) String() string {
	if k == roleKind {
		return "role"
	}
	return "directive"
}

// languageTable maps localized names to canonical ones.
type languageTable struct {
	code       string
	directives map[string]string
	roles      map[string]string
	labels     map[string]string
}

var englishTable = &languageTable{
	code: "en",
	directives: map[string]string{
		"attention":         "attention",
		"caution":           "caution",
		"danger":            "danger",
		"error":             "error",
		"hint":              "hint",
		"important":         "important",
		"note":              "note",
		"tip":               "tip",
		"warning":           "warning",
		"admonition":        "admonition",
		"topic":             "topic",
		"sidebar":           "sidebar",
		"rubric":            "rubric",
		"epigraph":          "epigraph",
		"highlights":        "highlights",
		"pull-quote":        "pull-quote",
		"compound":          "compound",
		"container":         "container",
		"contents":          "contents",
		"sectnum":           "sectnum",
		"section-numbering": "sectnum",
		"replace":           "replace",
		"unicode":           "unicode",
		"class":             "class",
		"default-role":      "default-role",
		"title":             "title",
		"image":             "image",
	},
	roles: map[string]string{
		"abbreviation":    "abbreviation",
		"ab":              "abbreviation",
		"acronym":         "acronym",
		"ac":              "acronym",
		"code":            "code",
		"emphasis":        "emphasis",
		"literal":         "literal",
		"pep-reference":   "pep-reference",
		"pep":             "pep-reference",
		"rfc-reference":   "rfc-reference",
		"rfc":             "rfc-reference",
		"strong":          "strong",
		"subscript":       "subscript",
		"sub":             "subscript",
		"superscript":     "superscript",
		"sup":             "superscript",
		"title-reference": "title-reference",
		"title":           "title-reference",
		"t":               "title-reference",
	},
	labels: map[string]string{
		"contents":  "Contents",
		"attention": "Attention!",
		"caution":   "Caution!",
		"danger":    "!DANGER!",
		"error":     "Error",
		"hint":      "Hint",
		"important": "Important",
		"note":      "Note",
		"tip":       "Tip",
		"warning":   "Warning",
	},
}

var germanTable = &languageTable{
	code: "de",
	directives: map[string]string{
		"achtung":              "attention",
		"vorsicht":             "caution",
		"gefahr":               "danger",
		"fehler":               "error",
		"hinweis":              "hint",
		"wichtig":              "important",
		"notiz":                "note",
		"tipp":                 "tip",
		"warnung":              "warning",
		"ermahnung":            "admonition",
		"thema":                "topic",
		"seitenkasten":         "sidebar",
		"rubrik":               "rubric",
		"epigraph":             "epigraph",
		"highlights":           "highlights",
		"pull-quote":           "pull-quote",
		"verbund":              "compound",
		"container":            "container",
		"inhalt":               "contents",
		"kapitel-nummerierung": "sectnum",
		"ersetzung":            "replace",
		"unicode":              "unicode",
		"klasse":               "class",
		"titel":                "title",
		"bild":                 "image",
	},
	roles: map[string]string{
		"abkürzung":      "abbreviation",
		"akronym":        "acronym",
		"code":           "code",
		"betonung":       "emphasis",
		"wörtlich":       "literal",
		"pep-referenz":   "pep-reference",
		"rfc-referenz":   "rfc-reference",
		"fett":           "strong",
		"tiefgestellt":   "subscript",
		"hochgestellt":   "superscript",
		"titel-referenz": "title-reference",
	},
	labels: map[string]string{
		"contents":  "Inhalt",
		"attention": "Achtung!",
		"caution":   "Vorsicht!",
		"danger":    "!GEFAHR!",
		"error":     "Fehler",
		"hint":      "Hinweis",
		"important": "Wichtig",
		"note":      "Bemerkung",
		"tip":       "Tipp",
		"warning":   "Warnung",
	},
}

var frenchTable = &languageTable{
	code: "fr",
	directives: map[string]string{
		"attention":          "attention",
		"précaution":         "caution",
		"danger":             "danger",
		"erreur":             "error",
		"conseil":            "hint",
		"important":          "important",
		"note":               "note",
		"astuce":             "tip",
		"avertissement":      "warning",
		"admonition":         "admonition",
		"sujet":              "topic",
		"encadré":            "sidebar",
		"rubrique":           "rubric",
		"épigraphe":          "epigraph",
		"chapeau":            "highlights",
		"accroche":           "pull-quote",
		"composite":          "compound",
		"conteneur":          "container",
		"sommaire":           "contents",
		"table-des-matières": "contents",
		"numéro-de-section":  "sectnum",
		"remplace":           "replace",
		"unicode":            "unicode",
		"classe":             "class",
		"titre":              "title",
		"image":              "image",
	},
	roles: map[string]string{
		"abréviation":     "abbreviation",
		"acronyme":        "acronym",
		"code":            "code",
		"emphase":         "emphasis",
		"littéral":        "literal",
		"nommée-tapée":    "title-reference",
		"référence-pep":   "pep-reference",
		"référence-rfc":   "rfc-reference",
		"fort":            "strong",
		"indice":          "subscript",
		"exposant":        "superscript",
		"titre-référence": "title-reference",
	},
	labels: map[string]string{
		"contents":  "Sommaire",
		"attention": "Attention!",
		"caution":   "Avertissement!",
		"danger":    "!DANGER!",
		"error":     "Erreur",
		"hint":      "Indication",
		"important": "Important",
		"note":      "Note",
		"tip":       "Astuce",
		"warning":   "Avis",
	},
}

var (
	languageTables  = []*languageTable{englishTable, germanTable, frenchTable}
	languageMatcher = language.NewMatcher([]language.Tag{
		language.English,
		language.German,
		language.French,
	})
)

// lookupLanguage returns the table for a BCP 47 language code.
// ok is false if the language is not supported,
// in which case the English table is returned.
func lookupLanguage(code string) (table *languageTable, ok bool) {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return englishTable, false
	}
	_, i, confidence := languageMatcher.Match(tag)
	if confidence < language.High {
		return englishTable, code == "" || strings.HasPrefix(strings.ToLower(code), "en")
	}
	return languageTables[i], true
}

// label returns the localized text for a generated label like "contents".
func (t *languageTable) label(key string) string {
	if s, ok := t.labels[key]; ok {
		return s
	}
	return englishTable.labels[key]
}

// resolve maps a directive or role name written in the source
// to its canonical name.
// Names missing from the document language are tried in English
// and then as canonical names,
// with an INFO message describing the fallback.
func (t *languageTable) resolve(name string, kind nameKind, r *Reporter, line int) (string, []*Element) {
	norm := strings.ToLower(name)
	names := t.directives
	fallback := englishTable.directives
	if kind == roleKind {
		names = t.roles
		fallback = englishTable.roles
	}
	if canonical, ok := names[norm]; ok {
		return canonical, nil
	}
	text := fmt.Sprintf("No %v entry for %q in language %q.", kind, name, t.code)
	canonical, ok := fallback[norm]
	if ok {
		text += fmt.Sprintf("\nUsing English fallback for %v %q.", kind, name)
	} else {
		text += fmt.Sprintf("\nTrying %q as canonical %v name.", name, kind)
		canonical = norm
	}
	msg := r.mustReport(Message{
		Level:    InfoLevel,
		Text:     text,
		Category: "rst.parse",
		Line:     line,
	})
	return canonical, []*Element{msg}
}
