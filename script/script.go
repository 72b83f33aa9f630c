// Package script implements the script engine: prompted generation,
// meta-text stripping, HOOK/BODY/CTA section parsing, and the
// plain-narration projection used by TTS and captions.
package script

import (
	"context"
	"fmt"
	"strings"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/safety"
)

const maxSectionChars = 200

// Sections is the parsed three-part script.
type Sections struct {
	Hook string
	Body string
	CTA  string
}

var labelNames = []string{"HOOK", "BODY", "CTA"}

// Parse accepts HOOK:/BODY:/CTA: labels (case-insensitive, arbitrary
// whitespace); if no labels are found it falls back to splitting the text
// into up to three blank-line-separated blocks, assigning them
// positionally (first→hook, last→cta, middle→body).
func Parse(text string) Sections {
	if s, ok := parseLabeled(text); ok {
		return s
	}
	return parsePositional(text)
}

func parseLabeled(text string) (Sections, bool) {
	lines := strings.Split(text, "\n")
	var sections Sections
	found := false
	var current *string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "HOOK:"):
			found = true
			sections.Hook = strings.TrimSpace(trimmed[len("HOOK:"):])
			current = &sections.Hook
		case strings.HasPrefix(upper, "BODY:"):
			found = true
			sections.Body = strings.TrimSpace(trimmed[len("BODY:"):])
			current = &sections.Body
		case strings.HasPrefix(upper, "CTA:"):
			found = true
			sections.CTA = strings.TrimSpace(trimmed[len("CTA:"):])
			current = &sections.CTA
		case current != nil && trimmed != "":
			*current = strings.TrimSpace(*current + " " + trimmed)
		}
	}
	return sections, found
}

func parsePositional(text string) Sections {
	blocks := splitBlankLines(text)
	switch len(blocks) {
	case 0:
		return Sections{}
	case 1:
		return Sections{Hook: blocks[0]}
	case 2:
		return Sections{Hook: blocks[0], CTA: blocks[1]}
	default:
		middle := strings.Join(blocks[1:len(blocks)-1], " ")
		return Sections{Hook: blocks[0], Body: middle, CTA: blocks[len(blocks)-1]}
	}
}

func splitBlankLines(text string) []string {
	raw := strings.Split(strings.TrimSpace(text), "\n\n")
	var blocks []string
	for _, b := range raw {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// Serialize renders Sections back into the canonical labeled form.
func (s Sections) Serialize() string {
	var parts []string
	if s.Hook != "" {
		parts = append(parts, "HOOK: "+s.Hook)
	}
	if s.Body != "" {
		parts = append(parts, "BODY: "+s.Body)
	}
	if s.CTA != "" {
		parts = append(parts, "CTA: "+s.CTA)
	}
	return strings.Join(parts, "\n")
}

// PlainNarration concatenates hook, body, cta with blank-line separators,
// omitting empty sections and omitting all labels — the text form fed to
// TTS and the caption builder.
func (s Sections) PlainNarration() string {
	var parts []string
	for _, p := range []string{s.Hook, s.Body, s.CTA} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Clamp truncates a section to maxSectionChars, breaking on the last word
// boundary and appending an ellipsis; the ellipsis counts toward the limit.
func Clamp(section string) string {
	if len(section) <= maxSectionChars {
		return section
	}
	cut := section[:maxSectionChars-len("...")]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + "..."
}

// Validate enforces the three-label format with each section non-empty
// and ≤200 characters, total ≤600.
func (s Sections) Validate() error {
	if s.Hook == "" || s.Body == "" || s.CTA == "" {
		return xerrors.New(xerrors.KindBadOutput, fmt.Errorf("script missing one or more of HOOK/BODY/CTA sections"))
	}
	if len(s.Hook) > maxSectionChars || len(s.Body) > maxSectionChars || len(s.CTA) > maxSectionChars {
		return xerrors.New(xerrors.KindBadOutput, fmt.Errorf("script section exceeds %d characters", maxSectionChars))
	}
	total := len(s.Hook) + len(s.Body) + len(s.CTA)
	if total > 3*maxSectionChars {
		return xerrors.New(xerrors.KindBadOutput, fmt.Errorf("script total length %d exceeds budget", total))
	}
	return nil
}

// LLM is the capability this engine depends on (spec.md §4.1). Script
// takes ctx so the caller can enforce a timeout/retry policy around the
// call (spec.md §4.6, §5).
type LLM interface {
	Script(ctx context.Context, premise string) (string, error)
}

// Generate runs the full script-generation pipeline over a raw premise:
// invoke the LLM, strip meta-text, parse sections, clamp each to the
// character budget, and return the canonical serialized script text. The
// caller (the api package's HTTP handlers) owns persisting the result and
// the record's status transitions.
func Generate(ctx context.Context, llm LLM, premise string) (string, error) {
	if strings.TrimSpace(premise) == "" {
		return "", xerrors.ErrEmptyInput
	}

	raw, err := llm.Script(ctx, premise)
	if err != nil {
		return "", err
	}

	stripped := safety.StripMeta(raw)
	sections := Parse(stripped)
	sections.Hook = Clamp(sections.Hook)
	sections.Body = Clamp(sections.Body)
	sections.CTA = Clamp(sections.CTA)

	if err := sections.Validate(); err != nil {
		return "", err
	}
	return sections.Serialize(), nil
}
