package parser

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

var (
	fenceOpenRe  = regexp.MustCompile("^\\s*(```|~~~)[\\w-]*\\s*$")
	fenceCloseRe = regexp.MustCompile("^\\s*(```|~~~)\\s*$")
	breakTagRe   = regexp.MustCompile(`(?i)<br\s*/?>`)
	headerRe     = regexp.MustCompile(`(?i)^\s*(?:flowchart|graph)(?:[ \t]+(TB|TD|BT|LR|RL))?(?:[ \t]*;|[ \t]+|$)`)
)

// Source is preprocessed diagram text plus the facts taken from its header.
type Source struct {
	// Text is the statement body: no fence, no comments or directives, LF line
	// endings, and no diagram-kind declaration.
	Text string

	// Direction is the flow direction named in the header, or "" when the
	// header did not name one.
	Direction diagram.Direction

	// Header reports whether a flowchart/graph declaration was found.
	Header bool
}

// Preprocess normalizes diagram source before any parser sees it.
//
// It strips a surrounding code fence, drops %% comment and %%{...}%% directive
// lines, normalizes line endings, turns <br> markup into spaces and removes a
// leading "flowchart"/"graph" declaration, capturing its direction. Blank lines
// are dropped and remaining lines are trimmed.
func Preprocess(src string) Source {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	src = breakTagRe.ReplaceAllString(src, " ")

	lines := stripFence(strings.Split(src, "\n"))

	var out Source
	body := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		if !out.Header && len(body) == 0 {
			if m := headerRe.FindStringSubmatchIndex(line); m != nil {
				out.Header = true
				if m[2] >= 0 {
					out.Direction, _ = diagram.ParseDirection(line[m[2]:m[3]])
				}
				line = strings.TrimSpace(line[m[1]:])
				if line == "" {
					continue
				}
			}
		}
		body = append(body, line)
	}
	out.Text = strings.Join(body, "\n")
	return out
}

// stripFence keeps only the contents of the first fenced block, if there is
// one. Prose around the fence is discarded.
func stripFence(lines []string) []string {
	start := slices.IndexFunc(lines, fenceOpenRe.MatchString)
	if start < 0 {
		return lines
	}
	for j := start + 1; j < len(lines); j++ {
		if fenceCloseRe.MatchString(lines[j]) {
			return lines[start+1 : j]
		}
	}
	return lines[start+1:]
}
