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

// rst2pseudoxml parses a reStructuredText document
// and writes its resolved document tree as pseudo-XML or HTML.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"zombiezen.com/go/rst"
	"zombiezen.com/go/rst/format"
	"zombiezen.com/go/rst/html"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rst2pseudoxml [flags] [SOURCE [DESTINATION]]",
		Short: "Convert reStructuredText to pseudo-XML",
		Long: `Convert reStructuredText to pseudo-XML

Reads from SOURCE (or standard input if it is omitted or "-")
and writes to DESTINATION (or standard output).
System messages at or above the report level are written to standard error.`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := getSettings(cmd)
			if err != nil {
				return err
			}
			asHTML, _ := cmd.Flags().GetBool("html")
			return run(cmd, args, settings, asHTML)
		},
	}

	flags := cmd.Flags()
	flags.StringP("report", "r", "warning", "minimum `level` of system messages to report (info, warning, error, severe, none)")
	flags.BoolP("quiet", "q", false, "report no system messages")
	flags.String("halt", "severe", "minimum `level` of system messages that stop processing")
	flags.Bool("debug", false, "report debug-level messages")
	flags.Int("tab-width", 8, "number of columns between tab stops")
	flags.StringP("language", "l", "en", "document language `code`")
	flags.String("input-encoding", "utf-8", "character encoding of the input")
	flags.Bool("no-doc-title", false, "do not promote a lone top-level section title to the document title")
	flags.Bool("section-subtitles", false, "promote lone subsection titles to section subtitles")
	flags.Bool("no-section-numbering", false, "disable the sectnum directive")
	flags.String("footnote-references", "brackets", "format of footnote references (brackets or superscript)")
	flags.String("toc-backlinks", "entry", "target of section title links in a table of contents (entry, top or none)")
	flags.String("id-prefix", "", "prefix for all generated IDs")
	flags.String("auto-id-prefix", "id", "prefix for IDs not derived from reference names")
	flags.Bool("pep-references", false, "recognize standalone PEP references")
	flags.Bool("rfc-references", false, "recognize standalone RFC references")
	flags.Bool("character-level-inline-markup", false, "allow inline markup within words")
	flags.Bool("strip-comments", false, "remove comment elements from the document tree")
	flags.StringSlice("strip-class", nil, "remove the `class` value from all elements")
	flags.StringSlice("strip-elements-with-class", nil, "remove all elements with the `class` value")
	flags.Bool("html", false, "write an HTML fragment instead of pseudo-XML")
	return cmd
}

func getSettings(cmd *cobra.Command) (*rst.Settings, error) {
	flags := cmd.Flags()
	settings := rst.DefaultSettings()
	settings.WarningStream = cmd.ErrOrStderr()

	reportName, _ := flags.GetString("report")
	var err error
	settings.ReportLevel, err = rst.ParseLevel(reportName)
	if err != nil {
		return nil, fmt.Errorf("--report: %w", err)
	}
	if quiet, _ := flags.GetBool("quiet"); quiet {
		settings.ReportLevel = rst.NoneLevel
	}
	haltName, _ := flags.GetString("halt")
	settings.HaltLevel, err = rst.ParseLevel(haltName)
	if err != nil {
		return nil, fmt.Errorf("--halt: %w", err)
	}

	settings.Debug, _ = flags.GetBool("debug")
	settings.TabWidth, _ = flags.GetInt("tab-width")
	if settings.TabWidth < 1 {
		return nil, fmt.Errorf("--tab-width must be positive")
	}
	settings.LanguageCode, _ = flags.GetString("language")
	settings.InputEncoding, _ = flags.GetString("input-encoding")
	noDocTitle, _ := flags.GetBool("no-doc-title")
	settings.DocTitleTransform = !noDocTitle
	settings.SectSubtitleTransform, _ = flags.GetBool("section-subtitles")
	noSectNum, _ := flags.GetBool("no-section-numbering")
	settings.SectNumTransform = !noSectNum

	settings.FootnoteReferences, _ = flags.GetString("footnote-references")
	switch settings.FootnoteReferences {
	case "brackets", "superscript":
	default:
		return nil, fmt.Errorf("--footnote-references: unknown format %q", settings.FootnoteReferences)
	}
	settings.TOCBacklinks, _ = flags.GetString("toc-backlinks")
	switch settings.TOCBacklinks {
	case "entry", "top", "none":
	default:
		return nil, fmt.Errorf("--toc-backlinks: unknown target %q", settings.TOCBacklinks)
	}
	settings.IDPrefix, _ = flags.GetString("id-prefix")
	settings.AutoIDPrefix, _ = flags.GetString("auto-id-prefix")
	settings.PEPReferences, _ = flags.GetBool("pep-references")
	settings.RFCReferences, _ = flags.GetBool("rfc-references")
	settings.CharacterLevelInlineMarkup, _ = flags.GetBool("character-level-inline-markup")
	settings.StripComments, _ = flags.GetBool("strip-comments")
	settings.StripClasses, _ = flags.GetStringSlice("strip-class")
	settings.StripElementsWithClasses, _ = flags.GetStringSlice("strip-elements-with-class")
	return settings, nil
}

func run(cmd *cobra.Command, args []string, settings *rst.Settings, asHTML bool) error {
	sourceName := "<stdin>"
	var in io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in, sourceName = f, args[0]
	}
	source, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", sourceName, err)
	}
	text, err := rst.DecodeInput(source, settings.InputEncoding)
	if err != nil {
		return err
	}

	doc, err := (&rst.Parser{Settings: settings}).Parse(sourceName, text)
	if err != nil {
		return err
	}
	if err := rst.DefaultPipeline().Apply(doc); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) > 1 && args[1] != "-" {
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if asHTML {
		err = html.Render(out, doc)
	} else {
		err = format.Format(out, doc)
	}
	if err != nil {
		return err
	}
	if f, ok := out.(*os.File); ok && len(args) > 1 && args[1] != "-" {
		return f.Close()
	}
	return nil
}
