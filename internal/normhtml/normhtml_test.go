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

package normhtml

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		b    string
		want string
	}{
		{"<p>a  \t b</p>", "<p>a b</p>"},
		{"<p>a  \t\nb</p>", "<p>a b</p>"},
		{" <p>a  b</p>", "<p>a b</p>"},
		{"<p>a  b</p> ", "<p>a b</p>"},
		{"\n\t<p>\n\t\ta  b\t\t</p>\n\t", "<p>a b</p>"},
		{"<p><em>a</em> <strong>b</strong></p>", "<p><em>a</em> <strong>b</strong></p>"},
		{"<p>a<br />b</p>", "<p>a<br>b</p>"},
		{`<a title="bar" HREF="foo">x</a>`, `<a href="foo" title="bar">x</a>`},
		{`<p class="z  a">x</p>`, `<p class="a z">x</p>`},
		{"<pre>a  b\n c</pre>", "<pre>a  b\n c</pre>"},
		{"<p>&forall;&amp;&gt;&lt;&quot;</p>", "<p>∀&amp;&gt;&lt;&quot;</p>"},
	}
	for _, test := range tests {
		got, err := Normalize([]byte(test.b))
		if err != nil {
			t.Errorf("Normalize(%q): %v", test.b, err)
			continue
		}
		if got != test.want {
			t.Errorf("Normalize(%q) = %q; want %q", test.b, got, test.want)
		}
	}
}
