// Copyright (c) 2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

//go:embed README.md
var cliHelpFile string

var (
	topicHeading = regexp.MustCompile(`^###\s+(\S+)`)
	mdAnchorLink = regexp.MustCompile(`\(#[a-z_]+\)`)
)

const (
	defaultTermWidth = 80
	helpIndent       = "  "
)

// helpTopic is the help text of one console command, taken from its README.md section.
type helpTopic struct {
	summary string
	lines   []string
}

// Help renders console help from the embedded README.md: one "###" section per command.
type Help struct {
	termWidth uint
	topics    map[string]*helpTopic
}

func newHelp() Help {
	h := Help{
		termWidth: defaultTermWidth,
		topics:    parseHelpTopics(cliHelpFile),
	}
	h.update()
	return h
}

// update follows the width of the terminal on stdout, if there is one.
func (help *Help) update() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	if width, _, err := term.GetSize(fd); err == nil && width > 20 {
		help.termWidth = uint(width)
	}
}

func (help *Help) commandNames() []string {
	names := make([]string, 0, len(help.topics))
	for name := range help.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// outputGeneralHelp lists every command with the first sentence of its help.
func (help *Help) outputGeneralHelp() string {
	var sb strings.Builder
	for _, name := range help.commandNames() {
		sb.WriteString(fmt.Sprintf("%-15s %s\n", name, help.topics[name].summary))
	}
	sb.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n", help.termWidth))
	return sb.String()
}

// outputCommandHelp returns the full help of one command.
func (help *Help) outputCommandHelp(command string) string {
	help.update()
	topic, ok := help.topics[command]
	if !ok {
		return fmt.Sprintf("%s\n%s(Non-existent command.)\n", command, helpIndent)
	}

	var sb strings.Builder
	sb.WriteString(command + "\n")
	width := help.termWidth - uint(len(helpIndent))
	for _, line := range topic.lines {
		for _, wrapped := range strings.Split(wordwrap.WrapString(line, width), "\n") {
			sb.WriteString(helpIndent + wrapped + "\n")
		}
	}
	return sb.String()
}

// parseHelpTopics splits the markdown into command sections. Fenced "shell" blocks become the
// definition, "bash" blocks the example.
func parseHelpTopics(md string) map[string]*helpTopic {
	topics := make(map[string]*helpTopic)
	var cur *helpTopic
	inBlock := false
	var para []string

	flush := func() {
		if cur == nil || len(para) == 0 {
			para = nil
			return
		}
		text := markdownUnquote(strings.Join(para, " "))
		if cur.summary == "" {
			cur.summary = firstSentence(text)
		}
		cur.lines = append(cur.lines, text)
		para = nil
	}

	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(line)

		if m := topicHeading.FindStringSubmatch(trimmed); m != nil && !inBlock {
			flush()
			cur = &helpTopic{}
			topics[m[1]] = cur
			continue
		}
		if strings.HasPrefix(trimmed, "#") && !inBlock {
			flush()
			cur = nil
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case trimmed == "```shell" || trimmed == "```bash":
			flush()
			inBlock = true
			if trimmed == "```shell" {
				cur.lines = append(cur.lines, "Definition:")
			} else {
				cur.lines = append(cur.lines, "Example:")
			}
		case trimmed == "```":
			inBlock = false
		case inBlock:
			cur.lines = append(cur.lines, helpIndent+line)
		case trimmed == "":
			flush()
		default:
			para = append(para, trimmed)
		}
	}
	flush()
	return topics
}

func firstSentence(text string) string {
	if idx := strings.Index(text, ". "); idx > 0 {
		return text[:idx+1]
	}
	return text
}

func markdownUnquote(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	md = strings.ReplaceAll(md, "`", "")
	return mdAnchorLink.ReplaceAllString(md, "")
}
