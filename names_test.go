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

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", ""},
		{"Foo", "foo"},
		{"  Foo \n\t Bar ", "foo bar"},
		{"Straße", "strasse"},
	}
	for _, test := range tests {
		if got := NormalizeName(test.name); got != test.want {
			t.Errorf("NormalizeName(%q) = %q; want %q", test.name, got, test.want)
		}
	}
}

func TestMakeID(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"", ""},
		{"Hello World", "hello-world"},
		{"a--b", "a-b"},
		{"  padded  ", "padded"},
		{"2nd Item", "nd-item"},
		{"123", ""},
		{"Ærøskøbing", "aeroskobing"},
		{"Ünicode", "unicode"},
		{"Straße", "strasze"},
		{"C++ & Go!", "c-go"},
	}
	for _, test := range tests {
		if got := MakeID(test.s); got != test.want {
			t.Errorf("MakeID(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}
