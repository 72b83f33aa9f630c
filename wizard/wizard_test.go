package wizard

import (
	"testing"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/video"
)

func TestAuthorizeAllowsValidTransition(t *testing.T) {
	c := New()
	if err := c.Authorize(video.StatusCreated, video.StatusScriptGenerating); err != nil {
		t.Fatalf("expected allowed transition, got %v", err)
	}
}

func TestAuthorizeRejectsInvalidTransition(t *testing.T) {
	c := New()
	err := c.Authorize(video.StatusCreated, video.StatusCompleted)
	if !xerrors.IsInvalidStatus(err) {
		t.Fatalf("expected invalid_status, got %v", err)
	}
}

func TestAuthorizeCompletedIsIdempotent(t *testing.T) {
	c := New()
	if err := c.Authorize(video.StatusCompleted, video.StatusCompleted); err != nil {
		t.Fatalf("expected completed->completed to be allowed, got %v", err)
	}
}

func TestAuthorizeRenderReadyAliasResolves(t *testing.T) {
	c := New()
	if err := c.Authorize(video.StatusRenderReady, video.StatusRendering); err != nil {
		t.Fatalf("expected render_ready alias to authorize like assets_generated, got %v", err)
	}
}

func TestProjectRenderingUsesRenderProgress(t *testing.T) {
	c := New()
	rec := &video.Record{Status: video.StatusRendering, RenderProgress: 42}
	p := c.Project(rec)
	if p.Stage != StageRender || p.Percent != 42 {
		t.Fatalf("got %+v", p)
	}
}

func TestProjectCompleted(t *testing.T) {
	c := New()
	p := c.Project(&video.Record{Status: video.StatusCompleted})
	if p.Stage != StageDone || p.Percent != 100 {
		t.Fatalf("got %+v", p)
	}
}

func TestEditScriptFlagsRegenerationWhenStoryboardExists(t *testing.T) {
	rec := &video.Record{StoryboardJSON: video.Storyboard{Scenes: []video.Scene{{}}}}
	patch := EditScript(rec, "new script")
	if patch.RequiresRegeneration == nil || !*patch.RequiresRegeneration {
		t.Fatal("expected requires_regeneration to be set")
	}
}

func TestEditScriptNoStoryboardYet(t *testing.T) {
	rec := &video.Record{}
	patch := EditScript(rec, "new script")
	if patch.RequiresRegeneration != nil {
		t.Fatal("expected requires_regeneration to stay unset with no storyboard")
	}
}

func TestEditScenePromptMarksDirtyAndEmptiesSlot(t *testing.T) {
	rec := &video.Record{
		StoryboardJSON: video.Storyboard{Scenes: []video.Scene{{ImagePrompt: "old"}, {ImagePrompt: "other"}}},
		ImageURLs:      []string{"url-0", "url-1"},
	}
	sb, dirty, urls, err := EditScenePrompt(rec, 0, "new prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.Scenes[0].ImagePrompt != "new prompt" {
		t.Fatalf("prompt not updated: %+v", sb.Scenes[0])
	}
	if len(dirty) != 1 || dirty[0] != 0 {
		t.Fatalf("expected dirty=[0], got %v", dirty)
	}
	if urls[0] != "" || urls[1] != "url-1" {
		t.Fatalf("expected only slot 0 emptied, got %v", urls)
	}
}

func TestEditScenePromptOutOfRange(t *testing.T) {
	rec := &video.Record{StoryboardJSON: video.Storyboard{Scenes: []video.Scene{{}}}}
	_, _, _, err := EditScenePrompt(rec, 5, "x")
	if !xerrors.IsBadOutput(err) {
		t.Fatalf("expected bad_output, got %v", err)
	}
}
