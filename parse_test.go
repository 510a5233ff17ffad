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

package rst_test

import (
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"zombiezen.com/go/rst"
	"zombiezen.com/go/rst/format"
	"zombiezen.com/go/rst/internal/samples"
)

func quietSettings() *rst.Settings {
	settings := rst.DefaultSettings()
	settings.WarningStream = io.Discard
	return settings
}

func parse(tb testing.TB, source string) *rst.Document {
	tb.Helper()
	doc, err := rst.Parse([]byte(source), quietSettings())
	if err != nil {
		tb.Fatalf("Parse(%q): %v", source, err)
	}
	return doc
}

func pseudoXML(tb testing.TB, doc *rst.Document) string {
	tb.Helper()
	sb := new(strings.Builder)
	if err := format.Format(sb, doc); err != nil {
		tb.Fatal(err)
	}
	return sb.String()
}

func findTag(root *rst.Element, tag rst.Tag) []*rst.Element {
	return root.FindAll(func(e *rst.Element) bool { return e.Tag == tag })
}

// messages returns the text of the system messages in doc of the given type.
func messages(doc *rst.Document, typ string) []string {
	var list []string
	for _, msg := range findTag(doc.Element, rst.SystemMessageTag) {
		if typ == "" || msg.Attr("type") == typ {
			list = append(list, msg.FirstChildElement(rst.ParagraphTag).AsText())
		}
	}
	return list
}

func TestSamples(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rst.parse")
	defer teardown()

	corpus, err := samples.Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, sample := range corpus {
		t.Run(sample.Name, func(t *testing.T) {
			doc := parse(t, sample.Source)
			got := pseudoXML(t, doc)
			for _, want := range sample.Contains {
				if !strings.Contains(got, want) {
					t.Errorf("Input:\n%s\nOutput:\n%s\nmissing %q", sample.Source, got, want)
				}
			}
			if pending := doc.Unresolved(""); len(pending) > 0 {
				t.Errorf("%d pending elements left after transforms", len(pending))
			}
		})
	}
}

func TestDocTitle(t *testing.T) {
	doc := parse(t, "Title\n=====\n\nSubtitle\n--------\n\nText.\n")
	title := doc.FirstChildElement(rst.TitleTag)
	if title == nil || title.AsText() != "Title" {
		t.Fatalf("document title = %v; want %q", title, "Title")
	}
	subtitle := doc.FirstChildElement(rst.SubtitleTag)
	if subtitle == nil || subtitle.AsText() != "Subtitle" {
		t.Fatalf("document subtitle = %v; want %q", subtitle, "Subtitle")
	}
	if got := doc.Attr("title"); got != "Title" {
		t.Errorf(`doc.Attr("title") = %q; want "Title"`, got)
	}
	if diff := cmp.Diff([]string{"title"}, doc.IDs); diff != "" {
		t.Errorf("doc.IDs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"subtitle"}, subtitle.IDs); diff != "" {
		t.Errorf("subtitle.IDs (-want +got):\n%s", diff)
	}
	if secs := findTag(doc.Element, rst.SectionTag); len(secs) != 0 {
		t.Errorf("%d sections left after title promotion", len(secs))
	}
}

func TestDocTitleDisabled(t *testing.T) {
	settings := quietSettings()
	settings.DocTitleTransform = false
	doc, err := rst.Parse([]byte("Title\n=====\n\nText.\n"), settings)
	if err != nil {
		t.Fatal(err)
	}
	if doc.FirstChildElement(rst.SectionTag) == nil {
		t.Error("section was promoted with DocTitleTransform = false")
	}
}

func TestInvalidUTF8Title(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"\x80\n=====\n", "\ufffd"},
		{"\xffTitle\n======\n\nText.\n", "\ufffdTitle"},
		{"=====\n\xe4\xb8\n=====\n", "\ufffd"},
	}
	for _, test := range tests {
		doc := parse(t, test.source)
		title := doc.FirstChildElement(rst.TitleTag)
		if title == nil {
			t.Errorf("Parse(%q) has no title:\n%s", test.source, pseudoXML(t, doc))
			continue
		}
		if got := title.AsText(); got != test.want {
			t.Errorf("Parse(%q) title = %q; want %q", test.source, got, test.want)
		}
	}
}

func TestEnumeratedListStart(t *testing.T) {
	const source = "3. three\n4. four\n"
	doc, err := (&rst.Parser{Settings: quietSettings()}).Parse("test.rst", source)
	if err != nil {
		t.Fatal(err)
	}
	lists := findTag(doc.Element, rst.EnumeratedListTag)
	if len(lists) != 1 {
		t.Fatalf("found %d enumerated lists; want 1", len(lists))
	}
	if got := lists[0].Attr("start"); got != "3" {
		t.Errorf(`list.Attr("start") = %q; want "3"`, got)
	}
	infos := messages(doc, "INFO")
	if len(infos) != 1 || !strings.Contains(infos[0], "not ordinal-1") {
		t.Errorf("INFO messages = %q; want one about the start value", infos)
	}

	// The default report level filters INFO messages out of the final tree.
	if err := rst.DefaultPipeline().Apply(doc); err != nil {
		t.Fatal(err)
	}
	if infos := messages(doc, "INFO"); len(infos) != 0 {
		t.Errorf("INFO messages after transforms = %q; want none", infos)
	}
}

func TestTitleLevelInconsistent(t *testing.T) {
	doc := parse(t, "A\n=\n\nB\n-\n\nC\n~\n\nD\n=\n\nE\n~\n\ntext\n")
	errs := messages(doc, "ERROR")
	if len(errs) != 1 || errs[0] != "Title level inconsistent:" {
		t.Errorf("ERROR messages = %q; want [\"Title level inconsistent:\"]", errs)
	}
}

func TestHaltLevel(t *testing.T) {
	settings := quietSettings()
	settings.HaltLevel = rst.WarningLevel
	doc, err := rst.Parse([]byte("Title\n====\n\nText.\n"), settings)
	var smErr *rst.SystemMessageError
	if !errors.As(err, &smErr) {
		t.Fatalf("Parse(...) error = %v; want *SystemMessageError", err)
	}
	if smErr.Level != rst.WarningLevel || smErr.Text != "Title underline too short." {
		t.Errorf("error = %v/%q; want WARNING/%q", smErr.Level, smErr.Text, "Title underline too short.")
	}
	if doc == nil {
		t.Error("partial document is nil")
	}
}

func TestDanglingReference(t *testing.T) {
	doc := parse(t, "See foo_.\n")
	prbs := findTag(doc.Element, rst.ProblematicTag)
	if len(prbs) != 1 {
		t.Fatalf("found %d problematic elements; want 1", len(prbs))
	}
	if got := prbs[0].AsText(); got != "foo_" {
		t.Errorf("problematic text = %q; want %q", got, "foo_")
	}
	msg := doc.ElementByID(prbs[0].Attr("refid"))
	if msg == nil || msg.Tag != rst.SystemMessageTag {
		t.Fatalf("problematic refid %q does not name a system message", prbs[0].Attr("refid"))
	}
	if got, want := msg.FirstChildElement(rst.ParagraphTag).AsText(), `Unknown target name: "foo".`; got != want {
		t.Errorf("message = %q; want %q", got, want)
	}
}

func TestHyperlinks(t *testing.T) {
	tests := []struct {
		name   string
		source string
		attr   string
		want   []string
	}{
		{
			name:   "External",
			source: "Go_\n\n.. _Go: https://go.dev/\n",
			attr:   "refuri",
			want:   []string{"https://go.dev/"},
		},
		{
			name:   "Indirect",
			source: "a_\n\n.. _a: b_\n.. _b: https://example.com/\n",
			attr:   "refuri",
			want:   []string{"https://example.com/"},
		},
		{
			name:   "Anonymous",
			source: "a__ b__\n\n__ https://a.example/\n__ https://b.example/\n",
			attr:   "refuri",
			want:   []string{"https://a.example/", "https://b.example/"},
		},
		{
			name:   "AnonymousOrder",
			source: "c__ a__ b__\n\n__ https://1.example/\n\n__ https://2.example/\n\nText.\n\n__ https://3.example/\n",
			attr:   "refuri",
			want:   []string{"https://1.example/", "https://2.example/", "https://3.example/"},
		},
		{
			name:   "Internal",
			source: "See `sec`_.\n\nSec\n===\n\nText.\n",
			attr:   "refid",
			want:   []string{"sec"},
		},
		{
			name:   "InternalTarget",
			source: "See x_.\n\n.. _x:\n\nText.\n",
			attr:   "refid",
			want:   []string{"x"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := parse(t, test.source)
			var got []string
			for _, ref := range findTag(doc.Element, rst.ReferenceTag) {
				got = append(got, ref.Attr(test.attr))
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("reference %s (-want +got):\n%s", test.attr, diff)
			}
			if msgs := messages(doc, ""); len(msgs) > 0 {
				t.Errorf("unexpected messages: %q", msgs)
			}
		})
	}
}

func TestAnonymousMismatch(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		refuris     []string
		problematic []string
		errors      int
	}{
		{
			name:        "NoTargets",
			source:      "a__\n",
			problematic: []string{"a__"},
			errors:      1,
		},
		{
			name:        "ExtraReference",
			source:      "a__ b__\n\n__ http://one\n",
			refuris:     []string{"http://one"},
			problematic: []string{"b__"},
			errors:      1,
		},
		{
			name:    "ExtraTarget",
			source:  "a__\n\n__ http://one\n__ http://two\n",
			refuris: []string{"http://one"},
			errors:  1,
		},
		{
			name:        "TwoExtraReferences",
			source:      "a__ b__ c__\n\n__ http://one\n",
			refuris:     []string{"http://one"},
			problematic: []string{"b__", "c__"},
			errors:      2,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := parse(t, test.source)
			var refuris []string
			for _, ref := range findTag(doc.Element, rst.ReferenceTag) {
				refuris = append(refuris, ref.Attr("refuri"))
			}
			if diff := cmp.Diff(test.refuris, refuris); diff != "" {
				t.Errorf("reference refuri (-want +got):\n%s", diff)
			}
			var problematic []string
			for _, prb := range findTag(doc.Element, rst.ProblematicTag) {
				problematic = append(problematic, prb.AsText())
			}
			if diff := cmp.Diff(test.problematic, problematic); diff != "" {
				t.Errorf("problematic text (-want +got):\n%s", diff)
			}
			errs := messages(doc, "ERROR")
			if len(errs) != test.errors {
				t.Errorf("ERROR messages = %q; want %d", errs, test.errors)
			}
			for _, msg := range errs {
				if !strings.HasPrefix(msg, "Anonymous hyperlink mismatch:") {
					t.Errorf("unexpected ERROR message %q", msg)
				}
			}
		})
	}
}

func TestFootnotes(t *testing.T) {
	doc := parse(t, "One [#]_ two [#]_ star [*]_\n\n.. [#] First.\n.. [#] Second.\n.. [*] Symbol.\n")
	refs := findTag(doc.Element, rst.FootnoteReferenceTag)
	notes := findTag(doc.Element, rst.FootnoteTag)
	if len(refs) != 3 || len(notes) != 3 {
		t.Fatalf("found %d references and %d footnotes; want 3 and 3", len(refs), len(notes))
	}
	wantLabels := []string{"1", "2", "*"}
	for i := range refs {
		if got := refs[i].AsText(); got != wantLabels[i] {
			t.Errorf("reference %d text = %q; want %q", i, got, wantLabels[i])
		}
		if got := notes[i].FirstChildElement(rst.LabelTag).AsText(); got != wantLabels[i] {
			t.Errorf("footnote %d label = %q; want %q", i, got, wantLabels[i])
		}
		if got, want := refs[i].Attr("refid"), notes[i].IDs[0]; got != want {
			t.Errorf("reference %d refid = %q; want %q", i, got, want)
		}
		if diff := cmp.Diff(refs[i].IDs, notes[i].Backrefs); diff != "" {
			t.Errorf("footnote %d backrefs (-ref IDs +backrefs):\n%s", i, diff)
		}
	}
}

func TestSubstitutions(t *testing.T) {
	doc := parse(t, "|x| and |x|\n\n.. |x| replace:: *y*\n")
	para := doc.FirstChildElement(rst.ParagraphTag)
	if got, want := para.AsText(), "y and y"; got != want {
		t.Errorf("paragraph text = %q; want %q", got, want)
	}
	if got := len(findTag(para, rst.EmphasisTag)); got != 2 {
		t.Errorf("found %d emphasis elements; want 2", got)
	}
	if got := len(findTag(doc.Element, rst.SubstitutionRefTag)); got != 0 {
		t.Errorf("%d substitution references left", got)
	}
}

func TestSubstitutionErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "Undefined",
			source: "|nope|\n",
			want:   `Undefined substitution referenced: "nope".`,
		},
		{
			name:   "Circular",
			source: ".. |a| replace:: |b|\n.. |b| replace:: |a|\n\n|a|\n",
			want:   "Circular substitution definition",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := parse(t, test.source)
			for _, msg := range messages(doc, "ERROR") {
				if strings.HasPrefix(msg, test.want) {
					return
				}
			}
			t.Errorf("ERROR messages = %q; want one starting with %q", messages(doc, "ERROR"), test.want)
		})
	}
}

func TestSymbolFootnoteWraparound(t *testing.T) {
	const n = 12
	source := strings.Repeat("[*]_ ", n) + "\n\n"
	for i := 0; i < n; i++ {
		source += ".. [*] Note.\n"
	}
	doc := parse(t, source)
	want := []string{"*", "†", "‡", "§", "¶", "#", "♠", "♥", "♦", "♣", "**", "††"}
	var refLabels, noteLabels []string
	for _, ref := range findTag(doc.Element, rst.FootnoteReferenceTag) {
		refLabels = append(refLabels, ref.AsText())
	}
	for _, note := range findTag(doc.Element, rst.FootnoteTag) {
		noteLabels = append(noteLabels, note.FirstChildElement(rst.LabelTag).AsText())
	}
	if diff := cmp.Diff(want, refLabels); diff != "" {
		t.Errorf("reference labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, noteLabels); diff != "" {
		t.Errorf("footnote labels (-want +got):\n%s", diff)
	}
	if msgs := messages(doc, ""); len(msgs) > 0 {
		t.Errorf("unexpected messages: %q", msgs)
	}
}

func TestDuplicateTargetNames(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		tag     rst.Tag
		level   string
		message string
	}{
		{
			name:    "Explicit",
			source:  ".. _x: https://one.example/\n.. _x: https://two.example/\n",
			tag:     rst.TargetTag,
			level:   "WARNING",
			message: `Duplicate explicit target name: "x".`,
		},
		{
			name:    "Implicit",
			source:  "Sec\n===\n\nText.\n\nSec\n===\n\nMore.\n",
			tag:     rst.SectionTag,
			level:   "WARNING",
			message: `Duplicate implicit target name: "sec".`,
		},
		{
			name:    "ExplicitOverridesImplicit",
			source:  ".. _sec:\n\nSec\n===\n\nText.\n\nOther\n=====\n\nMore.\n",
			tag:     rst.SectionTag,
			level:   "INFO",
			message: `Duplicate implicit target name: "sec".`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			settings := quietSettings()
			settings.ReportLevel = rst.InfoLevel
			doc, err := rst.Parse([]byte(test.source), settings)
			if err != nil {
				t.Fatal(err)
			}
			found := false
			for _, msg := range messages(doc, test.level) {
				if msg == test.message {
					found = true
				}
			}
			if !found {
				t.Errorf("%s messages = %q; want %q", test.level, messages(doc, test.level), test.message)
			}
			if test.level == "INFO" {
				return
			}
			elems := findTag(doc.Element, test.tag)
			if len(elems) != 2 {
				t.Fatalf("found %d <%s> elements; want 2", len(elems), test.tag)
			}
			for i, e := range elems {
				if len(e.Names) != 0 || len(e.DupNames) != 1 {
					t.Errorf("element %d names = %q, dupnames = %q; want the name moved to dupnames", i, e.Names, e.DupNames)
				}
				if len(e.IDs) != 1 {
					t.Errorf("element %d ids = %q; want one id", i, e.IDs)
				}
			}
			if len(elems[0].IDs) == 1 && len(elems[1].IDs) == 1 && elems[0].IDs[0] == elems[1].IDs[0] {
				t.Errorf("both elements have id %q", elems[0].IDs[0])
			}
		})
	}
}

func TestCircularIndirectTargets(t *testing.T) {
	doc := parse(t, ".. _a: b_\n.. _b: a_\n\nSee a_.\n")
	found := false
	for _, msg := range messages(doc, "ERROR") {
		if strings.Contains(msg, "forming a circular reference") {
			found = true
		}
	}
	if !found {
		t.Errorf("ERROR messages = %q; want a circular reference error", messages(doc, "ERROR"))
	}
	prbs := findTag(doc.Element, rst.ProblematicTag)
	if len(prbs) != 1 || prbs[0].AsText() != "a_" {
		t.Errorf("problematic elements = %v; want one for a_", prbs)
	}
}

func TestDirectiveOptionErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "Unknown",
			source: ".. contents::\n   :bogus: 1\n",
			want:   `unknown option: "bogus"`,
		},
		{
			name:   "Duplicate",
			source: ".. contents::\n   :depth: 1\n   :depth: 2\n",
			want:   `duplicate option "depth"`,
		},
		{
			name:   "Conversion",
			source: ".. contents::\n   :depth: x\n",
			want:   `invalid option value: (option: "depth"; value: "x")`,
		},
		{
			name:   "Choice",
			source: ".. contents::\n   :backlinks: sideways\n",
			want:   `invalid option value: (option: "backlinks"; value: "sideways")`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := parse(t, test.source)
			errs := messages(doc, "ERROR")
			if len(errs) != 1 {
				t.Fatalf("ERROR messages = %q; want 1", errs)
			}
			if !strings.HasPrefix(errs[0], `Error in "contents" directive:`) || !strings.Contains(errs[0], test.want) {
				t.Errorf("message = %q; want directive error containing %q", errs[0], test.want)
			}
			if topics := findTag(doc.Element, rst.TopicTag); len(topics) != 0 {
				t.Errorf("found %d topics after a directive error", len(topics))
			}
		})
	}
}

func TestCircularSubstitutionSource(t *testing.T) {
	doc := parse(t, ".. |a| replace:: |b|\n.. |b| replace:: |a|\n\n|a|\n")
	var got []string
	for _, msg := range findTag(doc.Element, rst.SystemMessageTag) {
		if msg.FirstChildElement(rst.ParagraphTag).AsText() != "Circular substitution definition detected:" {
			continue
		}
		if block := msg.FirstChildElement(rst.LiteralBlockTag); block != nil {
			got = append(got, block.AsText())
		}
	}
	sort.Strings(got)
	want := []string{".. |a| replace:: |b|", ".. |b| replace:: |a|"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("circular definition sources (-want +got):\n%s", diff)
	}
}

func TestClassDirective(t *testing.T) {
	doc := parse(t, ".. class:: special\n\nText.\n")
	para := doc.FirstChildElement(rst.ParagraphTag)
	if para == nil {
		t.Fatal("no paragraph")
	}
	if diff := cmp.Diff([]string{"special"}, para.Classes); diff != "" {
		t.Errorf("paragraph classes (-want +got):\n%s", diff)
	}
}

func TestPipelineIdempotent(t *testing.T) {
	const source = ".. contents::\n\nA\n=\n\nSee B_ and [#]_.\n\nB\n=\n\n.. [#] Note.\n"
	doc, err := (&rst.Parser{Settings: quietSettings()}).Parse("test.rst", source)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Unresolved("contents")) != 1 {
		t.Fatalf("Unresolved(%q) = %d entries; want 1", "contents", len(doc.Unresolved("contents")))
	}
	pipeline := rst.DefaultPipeline()
	if err := pipeline.Apply(doc); err != nil {
		t.Fatal(err)
	}
	first := pseudoXML(t, doc)
	if err := pipeline.Apply(doc); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, pseudoXML(t, doc)); diff != "" {
		t.Errorf("second Apply changed document (-first +second):\n%s", diff)
	}
	if pending := doc.Unresolved(""); len(pending) > 0 {
		t.Errorf("%d pending elements left after transforms", len(pending))
	}
	for _, tr := range pipeline.Transforms() {
		if !doc.Applied(tr.Name) {
			t.Errorf("doc.Applied(%q) = false", tr.Name)
		}
	}
}

func FuzzParse(f *testing.F) {
	corpus, err := samples.Load()
	if err != nil {
		f.Fatal(err)
	}
	for _, sample := range corpus {
		f.Add(sample.Source)
	}
	f.Add("\x80\n=====\n")
	f.Add("\x80\x00\n=====\n\nText.x")
	f.Fuzz(func(t *testing.T, source string) {
		settings := quietSettings()
		settings.HaltLevel = rst.NoneLevel
		doc, err := rst.Parse([]byte(source), settings)
		if err != nil {
			t.Fatal(err)
		}
		if pending := doc.Unresolved(""); len(pending) > 0 {
			t.Errorf("%d pending elements left after transforms", len(pending))
		}
	})
}
