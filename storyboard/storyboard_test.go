package storyboard

import (
	"context"
	"fmt"
	"testing"

	xerrors "github.com/livepeer/catalyst-api/errors"
)

type stubLLM struct {
	text string
	err  error
}

func (s stubLLM) Storyboard(ctx context.Context, script string) (string, error) {
	return s.text, s.err
}

func validSceneJSON(n int) string {
	out := `{"scenes":[`
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"description":"scene %d","image_prompt":"prompt %d","duration_seconds":5}`, i, i)
	}
	return out + `]}`
}

func TestGenerateHappyPath(t *testing.T) {
	sb, err := Generate(context.Background(), stubLLM{text: validSceneJSON(6)}, "script")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sb.Scenes) != 6 {
		t.Fatalf("expected 6 scenes, got %d", len(sb.Scenes))
	}
	for i, s := range sb.Scenes {
		if s.Index != i {
			t.Errorf("expected scene %d to have Index %d, got %d", i, i, s.Index)
		}
	}
}

func TestGenerateZeroScenesIsBadOutput(t *testing.T) {
	_, err := Generate(context.Background(), stubLLM{text: `{"scenes":[]}`}, "script")
	if err == nil || !xerrors.IsBadOutput(err) {
		t.Fatalf("expected bad_output for zero scenes, got %v", err)
	}
}

func TestGenerateInvalidJSONIsBadOutput(t *testing.T) {
	_, err := Generate(context.Background(), stubLLM{text: `not json`}, "script")
	if err == nil || !xerrors.IsBadOutput(err) {
		t.Fatalf("expected bad_output for invalid JSON, got %v", err)
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	wantErr := xerrors.New(xerrors.KindProviderTransient, fmt.Errorf("boom"))
	_, err := Generate(context.Background(), stubLLM{err: wantErr}, "script")
	if err != wantErr {
		t.Fatalf("expected provider error propagated, got %v", err)
	}
}

func TestNextVersion(t *testing.T) {
	if NextVersion(0) != 1 {
		t.Errorf("expected first version 1")
	}
	if NextVersion(1) != 2 {
		t.Errorf("expected increment to 2")
	}
}

func TestMarkSceneDirtyDedupes(t *testing.T) {
	dirty := MarkSceneDirty(nil, 2)
	dirty = MarkSceneDirty(dirty, 2)
	dirty = MarkSceneDirty(dirty, 3)
	if len(dirty) != 2 {
		t.Fatalf("expected deduped dirty scenes, got %v", dirty)
	}
}
