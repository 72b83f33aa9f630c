// Package captions builds SRT subtitle content from narration text and a
// known audio duration, using naive duration-weighted sentence timing
// (spec.md §4.9). It uses only the standard library: SRT is a trivial
// fixed text format and pulling
// in a subtitle library for string formatting would be the odd choice,
// not the idiomatic one, among the examples.
package captions

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	minCueDuration = 1200 * time.Millisecond
	maxLineChars   = 42
)

var sentenceSplit = regexp.MustCompile(`([.!?])\s*`)

// Cue is one subtitle cue.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Build splits narration into sentences, distributes total across them
// weighted by character count (clamped to a 1.2s minimum), wraps each
// cue's text with wrap, and renders SRT.
func Build(narration string, total time.Duration) string {
	sentences := splitSentences(narration)
	if len(sentences) == 0 {
		return ""
	}

	totalChars := 0
	for _, s := range sentences {
		totalChars += len(s)
	}
	if totalChars == 0 {
		totalChars = 1
	}

	cues := make([]Cue, 0, len(sentences))
	var cursor time.Duration
	for i, s := range sentences {
		share := time.Duration(float64(total) * float64(len(s)) / float64(totalChars))
		if share < minCueDuration {
			share = minCueDuration
		}
		start := cursor
		end := cursor + share
		if i == len(sentences)-1 {
			end = total
			if end < start {
				end = start
			}
		}
		cues = append(cues, Cue{Index: i + 1, Start: start, End: end, Text: wrap(s)})
		cursor = end
	}

	var sb strings.Builder
	for _, c := range cues {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", c.Index, formatTimestamp(c.Start), formatTimestamp(c.End), c.Text)
	}
	return sb.String()
}

func splitSentences(narration string) []string {
	narration = strings.TrimSpace(narration)
	if narration == "" {
		return nil
	}
	raw := sentenceSplit.Split(narration, -1)
	var sentences []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// wrap fills a first line greedily with whole words up to 42 characters
// and puts the rest on a second line. If that remainder is longer than 42
// characters, it is split again at its middle word, giving three lines
// whose lengths are not bounded.
func wrap(s string) string {
	if len(s) <= maxLineChars {
		return s
	}

	words := strings.Fields(s)
	var line1, line2 []string
	length := 0
	splitAt := len(words)
	for i, w := range words {
		if length+len(w)+1 > maxLineChars && length > 0 {
			splitAt = i
			break
		}
		length += len(w) + 1
	}
	line1 = words[:splitAt]
	line2 = words[splitAt:]

	l1 := strings.Join(line1, " ")
	l2 := strings.Join(line2, " ")
	if len(l2) > maxLineChars {
		l2 = midpointSplit(l2)
	}
	if l2 == "" {
		return l1
	}
	return l1 + "\n" + l2
}

func midpointSplit(s string) string {
	words := strings.Fields(s)
	mid := len(words) / 2
	if mid == 0 {
		mid = 1
	}
	return strings.Join(words[:mid], " ") + "\n" + strings.Join(words[mid:], " ")
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}
