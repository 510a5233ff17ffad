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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/rst"
)

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand()
	outBuf, errBuf := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestPseudoXMLFromStdin(t *testing.T) {
	stdout, _, err := execute(t, "Title\n=====\n\n*Hello*\n")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, `<document ids="title" names="title" source="<stdin>" title="Title">`), "stdout = %q", stdout)
	assert.Contains(t, stdout, "<emphasis>")
}

func TestHTMLOutput(t *testing.T) {
	stdout, _, err := execute(t, "Some ``code``.\n", "--html")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<p>Some <code>code</code>.</p>")
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.rst")
	dst := filepath.Join(dir, "out.xml")
	require.NoError(t, os.WriteFile(src, []byte("Text.\n"), 0o666))

	_, _, err := execute(t, "", src, dst)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(got), `source="`+src+`"`)
	assert.Contains(t, string(got), "<paragraph>")
}

func TestReportLevel(t *testing.T) {
	const source = "Title\n====\n\nText.\n"

	_, stderr, err := execute(t, source)
	require.NoError(t, err)
	assert.Contains(t, stderr, "(WARNING/2) Title underline too short.")

	_, stderr, err = execute(t, source, "--quiet")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	_, _, err = execute(t, source, "--halt", "warning")
	var smErr *rst.SystemMessageError
	assert.ErrorAs(t, err, &smErr)
}

func TestSettingsFlags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"--report", "info",
		"--tab-width", "4",
		"--no-doc-title",
		"--strip-class", "a,b",
		"--toc-backlinks", "top",
	}))
	settings, err := getSettings(cmd)
	require.NoError(t, err)
	assert.Equal(t, rst.InfoLevel, settings.ReportLevel)
	assert.Equal(t, 4, settings.TabWidth)
	assert.False(t, settings.DocTitleTransform)
	assert.Equal(t, []string{"a", "b"}, settings.StripClasses)
	assert.Equal(t, "top", settings.TOCBacklinks)
}

func TestBadFlags(t *testing.T) {
	tests := [][]string{
		{"--report", "loud"},
		{"--halt", "7"},
		{"--tab-width", "0"},
		{"--toc-backlinks", "sideways"},
		{"--footnote-references", "inline"},
	}
	for _, args := range tests {
		_, _, err := execute(t, "Text.\n", args...)
		assert.Error(t, err, "args = %q", args)
	}
}
