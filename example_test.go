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
	"fmt"
	"strings"

	"zombiezen.com/go/rst"
)

func Example() {
	doc, err := rst.Parse([]byte("Hello\n=====\n\nWelcome to *reStructuredText*.\n"), nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(doc.Attr("title"))
	for _, e := range doc.FindAll(func(e *rst.Element) bool { return e.Tag == rst.EmphasisTag }) {
		fmt.Println(e.AsText())
	}
	// Output:
	// Hello
	// reStructuredText
}

func ExampleParser() {
	const source = ".. contents::\n\nA\n=\n\nText.\n\nB\n=\n\nMore text.\n"
	doc, err := new(rst.Parser).Parse("example.rst", source)
	if err != nil {
		panic(err)
	}
	fmt.Println("before:", len(doc.Unresolved("contents")))
	if err := rst.DefaultPipeline().Apply(doc); err != nil {
		panic(err)
	}
	fmt.Println("after:", len(doc.Unresolved("contents")))
	// Output:
	// before: 1
	// after: 0
}

func ExamplePipeline() {
	shout := &rst.Transform{
		Name:     "shout",
		Priority: 900,
		Apply: func(doc *rst.Document) error {
			rst.Walk(doc.Element, &rst.WalkOptions{
				Pre: func(c *rst.Cursor) bool {
					if t, ok := c.Node().(*rst.Text); ok {
						t.ReplaceSelf(rst.NewText(strings.ToUpper(t.Value)))
					}
					return true
				},
			})
			return nil
		},
	}
	doc, err := new(rst.Parser).Parse("example.rst", "Quiet *please*.\n")
	if err != nil {
		panic(err)
	}
	if err := rst.NewPipeline(shout).Apply(doc); err != nil {
		panic(err)
	}
	fmt.Println(doc.AsText())
	// Output:
	// QUIET PLEASE.
}
