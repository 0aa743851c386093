package mentions

import (
	"regexp"
	"slices"
)

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_.-]+)`)

// Segment is a run of text, flagged when it is an @name mention
type Segment struct {
	Text    string
	Mention bool
}

// Segments splits text into plain and @name runs for highlighting
func Segments(text string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range mentionPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: text[last:loc[0]]})
		}
		out = append(out, Segment{Text: text[loc[0]:loc[1]], Mention: true})
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// Names returns the distinct usernames mentioned in text, in order
func Names(text string) []string {
	var out []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(out, m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}
