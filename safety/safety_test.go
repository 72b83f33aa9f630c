package safety

import (
	"strings"
	"testing"
)

func TestStripMetaRemovesSelfReference(t *testing.T) {
	in := "As an AI language model, I cannot generate that. Here's the script: HOOK: A cat learns to surf."
	out := StripMeta(in)
	if strings.Contains(strings.ToLower(out), "as an ai") {
		t.Fatalf("expected self-reference stripped, got %q", out)
	}
	if !strings.Contains(out, "HOOK: A cat learns to surf.") {
		t.Fatalf("expected real content preserved, got %q", out)
	}
}

func TestStripMetaIdempotent(t *testing.T) {
	in := "As an AI language model, HOOK: test"
	once := StripMeta(in)
	twice := StripMeta(once)
	if once != twice {
		t.Fatalf("expected idempotence, got %q then %q", once, twice)
	}
}

func TestSanitizePromptPrependsHeader(t *testing.T) {
	got := SanitizePrompt("a cat on a surfboard")
	if !strings.HasPrefix(got, "wholesome, family-friendly, safe-for-work, suitable for all ages: ") {
		t.Fatalf("expected wholesome header prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "a cat on a surfboard") {
		t.Fatalf("expected original prompt preserved, got %q", got)
	}
}

func TestSoftenPromptRemovesBannedTokens(t *testing.T) {
	got := SoftenPrompt("a bloody knife fight in an alley")
	lower := strings.ToLower(got)
	for _, tok := range []string{"bloody", "knife"} {
		if strings.Contains(lower, tok) {
			t.Errorf("expected %q removed from %q", tok, got)
		}
	}
	if !strings.HasSuffix(got, softenSuffix) {
		t.Fatalf("expected wholesome suffix, got %q", got)
	}
}

func TestSoftenPromptIdempotent(t *testing.T) {
	in := "a dark and gritty alley with a gun"
	once := SoftenPrompt(in)
	twice := SoftenPrompt(once)
	if once != twice {
		t.Fatalf("expected soften(soften(p)) == soften(p), got %q then %q", once, twice)
	}
}

func TestSoftenPromptDiffersWhenTokensRemoved(t *testing.T) {
	in := "a cat with a gun on a surfboard"
	out := SoftenPrompt(in)
	if out == in {
		t.Fatal("expected softened prompt to differ from input when a banned token was removed")
	}
}

func TestIsContentPolicyViolation(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"Your request was rejected by our safety system.", true},
		{"This content violates our content policy.", true},
		{"rate limit exceeded", false},
		{"internal server error", false},
	}
	for _, c := range cases {
		if got := IsContentPolicyViolation(c.msg); got != c.want {
			t.Errorf("IsContentPolicyViolation(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}
