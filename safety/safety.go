// Package safety implements the prompt sanitization and content-policy
// classification used ahead of every image-generation call. None of it
// calls out to a provider; it is pure text transformation.
package safety

import (
	"regexp"
	"strings"
)

// metaPatterns matches model-self-reference and apologetic meta-text that
// occasionally leaks into LLM script output despite prompting against it.
var metaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as an ai( language model)?,?\s*`),
	regexp.MustCompile(`(?i)i('m| am) (sorry|unable to|not able to)[^.!?]*[.!?]\s*`),
	regexp.MustCompile(`(?i)i cannot (generate|create|assist with)[^.!?]*[.!?]\s*`),
	regexp.MustCompile(`(?i)here('s| is) (the|your) script:?\s*`),
	regexp.MustCompile(`(?i)note:[^\n]*\n?`),
	regexp.MustCompile(`(?i)\[?as a language model\]?,?\s*`),
}

// StripMeta removes model-self-reference phrases and apologetic meta-text.
// Idempotent: StripMeta(StripMeta(s)) == StripMeta(s).
func StripMeta(text string) string {
	out := text
	for _, p := range metaPatterns {
		out = p.ReplaceAllString(out, "")
	}
	return strings.TrimSpace(out)
}

const sanitizeHeader = "wholesome, family-friendly, safe-for-work, suitable for all ages: "

// SanitizePrompt prepends a fixed wholesome-content header to an
// image-generation prompt.
func SanitizePrompt(prompt string) string {
	return sanitizeHeader + prompt
}

// bannedTokens lists prompt fragments softening strips outright: sexual,
// violent, and unsafe child-related content. Matching is case-insensitive
// and word-boundary aware.
var bannedTokens = []string{
	"nude", "naked", "sex", "sexual", "erotic", "nsfw",
	"gore", "gory", "blood", "bloody", "murder", "kill", "killing", "corpse", "torture", "mutilat",
	"weapon", "gun", "knife", "stab", "shoot", "shooting",
	"child nud", "minor nud",
	"drug", "suicide", "self-harm", "self harm",
}

// edgyAdjectives are tone words stripped on softening even when not
// outright banned; they skew prompts away from "wholesome."
var edgyAdjectives = []string{
	"disturbing", "graphic", "grim", "gritty", "dark", "macabre", "sinister", "menacing", "terrifying", "horrifying",
}

const softenSuffix = ", wholesome, daylight, cinematic"

var wordBoundary = regexp.MustCompile(`\s+`)

// SoftenPrompt removes banned and edgy tokens from prompt, then appends a
// wholesome/daylight/cinematic suffix exactly once. The result differs
// from the input iff softening actually removed or added something;
// otherwise the input is returned unchanged (SoftenPrompt is idempotent).
func SoftenPrompt(prompt string) string {
	if strings.HasSuffix(prompt, softenSuffix) {
		return prompt
	}

	stripped := removeTokens(prompt, bannedTokens)
	stripped = removeTokens(stripped, edgyAdjectives)
	stripped = collapseWhitespace(stripped)

	if stripped == strings.TrimSpace(prompt) {
		// Nothing removed; still need to append the suffix so policy-
		// blocked prompts make forward progress, but an unmodified
		// wholesome prompt should round-trip to itself on a second pass.
		return prompt + softenSuffix
	}
	return stripped + softenSuffix
}

func removeTokens(s string, tokens []string) string {
	lower := strings.ToLower(s)
	for _, tok := range tokens {
		for {
			idx := strings.Index(lower, tok)
			if idx < 0 {
				break
			}
			start, end := expandToWord(s, idx, idx+len(tok))
			s = s[:start] + s[end:]
			lower = strings.ToLower(s)
		}
	}
	return s
}

// expandToWord grows [start,end) over the full surrounding word so that a
// substring match like "kill" inside "killing" removes the whole token.
func expandToWord(s string, start, end int) (int, int) {
	isWordChar := func(b byte) bool {
		return b == '-' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
	}
	for start > 0 && isWordChar(s[start-1]) {
		start--
	}
	for end < len(s) && isWordChar(s[end]) {
		end++
	}
	return start, end
}

func collapseWhitespace(s string) string {
	s = wordBoundary.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = regexp.MustCompile(`\s+,`).ReplaceAllString(s, ",")
	s = regexp.MustCompile(`,\s*,`).ReplaceAllString(s, ",")
	return strings.Trim(s, " ,")
}

// policyPhrases matches provider error text recognized as a content-policy
// rejection, independent of provider.
var policyPhrases = []string{
	"content policy",
	"safety system",
	"violates", // "...violates our usage policies"
	"flagged as potentially sensitive",
	"rejected by safety",
	"blocked by policy",
	"policy violation",
	"inappropriate content",
}

// IsContentPolicyViolation classifies a raw provider error message as a
// content-policy rejection.
func IsContentPolicyViolation(errMsg string) bool {
	lower := strings.ToLower(errMsg)
	for _, phrase := range policyPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
