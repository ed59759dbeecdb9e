package chunking

import (
	"regexp"
	"strings"
)

var sentenceRe = regexp.MustCompile(`(?s)([^.!?]+[.!?]+|[^.!?]+$)`)

func sentencesOf(text string) []string {
	matches := sentenceRe.FindAllString(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}
