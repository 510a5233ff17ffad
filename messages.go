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
	"strconv"
)

// StripClassesTransform removes the elements and class values
// named by the StripElementsWithClasses and StripClasses settings.
var StripClassesTransform = &Transform{
	Name:     "strip-classes",
	Priority: 420,
	Apply: func(doc *Document) error {
		if strip := doc.Settings.StripElementsWithClasses; len(strip) > 0 {
			for _, e := range doc.FindAll(func(e *Element) bool { return hasAnyClass(e, strip) }) {
				e.ReplaceSelf()
			}
		}
		if strip := doc.Settings.StripClasses; len(strip) > 0 {
			for _, e := range doc.FindAll(func(e *Element) bool { return hasAnyClass(e, strip) }) {
				kept := e.Classes[:0]
				for _, c := range e.Classes {
					if !contains(strip, c) {
						kept = append(kept, c)
					}
				}
				e.Classes = kept
			}
		}
		return nil
	},
}

func hasAnyClass(e *Element, classes []string) bool {
	for _, c := range classes {
		if e.HasClass(c) {
			return true
		}
	}
	return false
}

// StripCommentsTransform removes comments if the StripComments setting is on.
var StripCommentsTransform = &Transform{
	Name:     "strip-comments",
	Priority: 740,
	Apply: func(doc *Document) error {
		if !doc.Settings.StripComments {
			return nil
		}
		for _, c := range doc.findTag(CommentTag) {
			c.ReplaceSelf()
		}
		return nil
	},
}

// MessagesTransform appends a section holding the system messages
// reported by transforms that were not placed in the tree,
// for those at or above the report level.
var MessagesTransform = &Transform{
	Name:     "messages",
	Priority: 860,
	Apply: func(doc *Document) error {
		threshold := doc.Reporter.Conditions("rst.transform").ReportLevel
		var msgs []Node
		for _, msg := range doc.transformMessages {
			if messageLevel(msg) >= threshold && msg.Parent() == nil {
				msgs = append(msgs, msg)
			}
		}
		doc.transformMessages = nil
		if len(msgs) == 0 {
			return nil
		}
		sec := NewElement(SectionTag, NewTextElement(TitleTag, "System Messages"))
		sec.Classes = append(sec.Classes, "system-messages")
		sec.Append(msgs...)
		doc.Append(sec)
		return nil
	},
}

// FilterMessagesTransform removes system messages below the report level
// and turns problematic elements whose message was removed into plain text.
var FilterMessagesTransform = &Transform{
	Name:     "filter-messages",
	Priority: 870,
	Apply: func(doc *Document) error {
		threshold := doc.Reporter.Conditions("").ReportLevel
		for _, msg := range doc.findTag(SystemMessageTag) {
			if messageLevel(msg) >= threshold {
				continue
			}
			msg.ReplaceSelf()
			for _, id := range msg.IDs {
				delete(doc.ids, id)
			}
		}
		for _, prb := range doc.findTag(ProblematicTag) {
			if _, ok := doc.ids[prb.Attr("refid")]; !ok {
				prb.ReplaceSelf(NewText(prb.AsText()))
			}
		}
		return nil
	},
}

func messageLevel(msg *Element) Level {
	n, err := strconv.Atoi(msg.Attr("level"))
	if err != nil {
		return NoneLevel
	}
	return Level(n)
}

// FinalChecksTransform replaces pending elements that no transform resolved
// with error messages, so no pending element survives the pipeline.
var FinalChecksTransform = &Transform{
	Name:     "final-checks",
	Priority: 880,
	Apply: func(doc *Document) error {
		for _, p := range doc.Unresolved("") {
			msg := doc.report(ErrorLevel, fmt.Sprintf("No transform resolved the %q pending element.", p.Transform), p.Node())
			doc.Resolve(p, msg)
		}
		return nil
	},
}
