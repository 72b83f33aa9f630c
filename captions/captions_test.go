package captions

import (
	"strings"
	"testing"
	"time"
)

func TestBuildProducesSequentialCues(t *testing.T) {
	narration := "A cat learns to surf. It falls a lot. But it keeps trying."
	srt := Build(narration, 9*time.Second)

	if !strings.HasPrefix(srt, "1\n") {
		t.Fatalf("expected first cue indexed 1, got %q", srt[:20])
	}
	if strings.Count(srt, "-->") != 3 {
		t.Fatalf("expected 3 cues, got srt=%q", srt)
	}
}

func TestBuildLastCueEndsAtTotal(t *testing.T) {
	narration := "One. Two."
	total := 5 * time.Second
	srt := Build(narration, total)
	lines := strings.Split(strings.TrimSpace(srt), "\n\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, formatTimestamp(total)) {
		t.Fatalf("expected last cue to end at total duration, got %q", last)
	}
}

func TestBuildEmptyNarration(t *testing.T) {
	if got := Build("", time.Second); got != "" {
		t.Fatalf("expected empty SRT for empty narration, got %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	got := formatTimestamp(1*time.Hour + 2*time.Minute + 3*time.Second + 456*time.Millisecond)
	if got != "01:02:03,456" {
		t.Fatalf("unexpected timestamp format: %q", got)
	}
}

func TestWrapRespectsLineBudget(t *testing.T) {
	long := strings.Repeat("word ", 20)
	wrapped := wrap(strings.TrimSpace(long))
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > maxLineChars {
			t.Errorf("line exceeds %d chars: %q", maxLineChars, line)
		}
	}
}
