package assets

import (
	"testing"

	"github.com/livepeer/catalyst-api/video"
)

func TestPlaceholderNotice(t *testing.T) {
	got := placeholderNotice([]int{2, 4})
	want := "scene(s) 3, 5 used a placeholder image; edit the prompt and retry to regenerate."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClampProgress(t *testing.T) {
	if got := clampProgress(0, 0); got != 0 {
		t.Errorf("expected 0 for zero total, got %d", got)
	}
	if got := clampProgress(2, 4); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
	if got := clampProgress(1, 3); got != 33 {
		t.Errorf("expected floor(33.33)=33, got %d", got)
	}
}

func TestPendingScenes(t *testing.T) {
	rec := &video.Record{
		StoryboardJSON: video.Storyboard{Scenes: make([]video.Scene, 3)},
		ImageURLs:      []string{"a", "", "c"},
		DirtyScenes:    []int{2},
	}
	got := pendingScenes(rec)
	want := []int{1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNextStatusAllComplete(t *testing.T) {
	o := &Orchestrator{}
	rec := &video.Record{
		StoryboardJSON: video.Storyboard{Scenes: make([]video.Scene, 2)},
		ImageURLs:      []string{"a", "b"},
		AudioURL:       "audio",
		CaptionsURL:    "captions",
	}
	if got := o.nextStatus(rec, nil, nil, nil); got != video.StatusAssetsGenerated {
		t.Fatalf("expected assets_generated, got %q", got)
	}
}

func TestNextStatusImagesCompleteAudioMissing(t *testing.T) {
	o := &Orchestrator{}
	rec := &video.Record{
		StoryboardJSON: video.Storyboard{Scenes: make([]video.Scene, 2)},
		ImageURLs:      []string{"a", "b"},
	}
	if got := o.nextStatus(rec, nil, nil, nil); got != video.StatusAssetsPartial {
		t.Fatalf("expected assets_partial, got %q", got)
	}
}

func TestNextStatusNoRealImages(t *testing.T) {
	o := &Orchestrator{}
	rec := &video.Record{
		StoryboardJSON: video.Storyboard{Scenes: make([]video.Scene, 2)},
		ImageURLs:      []string{"", ""},
	}
	if got := o.nextStatus(rec, nil, nil, nil); got != video.StatusAssetsFailed {
		t.Fatalf("expected assets_failed, got %q", got)
	}
}
