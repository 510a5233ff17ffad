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
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		s       string
		want    Level
		wantErr bool
	}{
		{"info", InfoLevel, false},
		{"WARNING", WarningLevel, false},
		{"warn", WarningLevel, false},
		{" error ", ErrorLevel, false},
		{"4", SevereLevel, false},
		{"none", NoneLevel, false},
		{"6", 0, true},
		{"loud", 0, true},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.s)
		if got != test.want || (err != nil) != test.wantErr {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, error=%t", test.s, got, err, test.want, test.wantErr)
		}
	}
}

func TestReporter(t *testing.T) {
	stream := new(strings.Builder)
	r := NewReporter("doc.rst", Conditions{
		ReportLevel: WarningLevel,
		HaltLevel:   SevereLevel,
		Stream:      stream,
	})
	var observed []string
	r.Attach(func(msg *Element) {
		observed = append(observed, msg.Attr("type"))
	})

	info, err := r.Report(Message{Level: InfoLevel, Text: "Just so you know.", Line: 3})
	if err != nil {
		t.Fatal("Report(INFO):", err)
	}
	if got, want := info.Attr("level"), "1"; got != want {
		t.Errorf(`info.Attr("level") = %q; want %q`, got, want)
	}
	if got, want := info.AsText(), "Just so you know."; got != want {
		t.Errorf("info.AsText() = %q; want %q", got, want)
	}
	if _, err := r.Report(Message{Level: ErrorLevel, Text: "Bad thing.", Line: 7}); err != nil {
		t.Fatal("Report(ERROR):", err)
	}
	if _, err := r.Report(Message{Level: DebugLevel, Text: "hidden"}); err != nil {
		t.Fatal("Report(DEBUG):", err)
	}

	if got, want := stream.String(), "doc.rst:7: (ERROR/3) Bad thing.\n"; got != want {
		t.Errorf("stream = %q; want %q", got, want)
	}
	if got, want := strings.Join(observed, ","), "INFO,ERROR"; got != want {
		t.Errorf("observed = %q; want %q", got, want)
	}
	if got := r.MaxLevel(); got != ErrorLevel {
		t.Errorf("r.MaxLevel() = %v; want %v", got, ErrorLevel)
	}

	msg, err := r.Report(Message{Level: SevereLevel, Text: "Fatal."})
	var smErr *SystemMessageError
	if !errors.As(err, &smErr) {
		t.Fatalf("Report(SEVERE) error = %v; want *SystemMessageError", err)
	}
	if smErr.Node != msg {
		t.Error("SystemMessageError.Node is not the returned message")
	}
	if got, want := err.Error(), "doc.rst: (SEVERE/4) Fatal."; got != want {
		t.Errorf("err.Error() = %q; want %q", got, want)
	}
}

func TestReporterCategories(t *testing.T) {
	r := NewReporter("", Conditions{ReportLevel: WarningLevel, HaltLevel: SevereLevel})
	r.SetConditions("rst.parse", Conditions{ReportLevel: InfoLevel, HaltLevel: ErrorLevel})
	if got := r.Conditions("rst.parse.tables").HaltLevel; got != ErrorLevel {
		t.Errorf(`Conditions("rst.parse.tables").HaltLevel = %v; want %v`, got, ErrorLevel)
	}
	if got := r.Conditions("rst.transform").HaltLevel; got != SevereLevel {
		t.Errorf(`Conditions("rst.transform").HaltLevel = %v; want %v`, got, SevereLevel)
	}
	if _, err := r.Report(Message{Level: ErrorLevel, Text: "x", Category: "rst.parse.tables"}); err == nil {
		t.Error("ERROR in rst.parse.tables did not halt")
	}
}
