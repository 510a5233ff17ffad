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

// Package samples provides a small corpus of reStructuredText documents
// along with fragments of their expected pseudo-XML rendering.
package samples

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Sample is a single document in the corpus.
type Sample struct {
	Name    string
	Section string
	Source  string
	// Contains lists substrings of the document's pseudo-XML
	// after all transforms have been applied.
	Contains []string
}

//go:embed samples.json
var samplesData []byte

// Load returns the samples in the corpus.
func Load() ([]Sample, error) {
	var corpus []Sample
	if err := json.Unmarshal(samplesData, &corpus); err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	return corpus, nil
}
