package video

import "testing"

func TestRecordIsDirty(t *testing.T) {
	r := &Record{
		ImageURLs:   []string{"https://x/1.png", "", "https://x/3.png"},
		DirtyScenes: []int{2},
	}
	if r.IsDirty(0) {
		t.Error("scene 0 has a URL and isn't marked dirty")
	}
	if !r.IsDirty(1) {
		t.Error("scene 1 is empty, should be dirty")
	}
	if !r.IsDirty(2) {
		t.Error("scene 2 is explicitly marked dirty")
	}
	if r.IsDirty(99) {
		t.Error("out-of-range index should not be dirty")
	}
}

func TestRecordAllImagesReady(t *testing.T) {
	r := &Record{
		StoryboardJSON: Storyboard{Scenes: validScenes(2)},
		ImageURLs:      []string{"a", "b"},
	}
	if !r.AllImagesReady() {
		t.Fatal("expected all images ready")
	}

	r.ImageURLs = []string{"a", ""}
	if r.AllImagesReady() {
		t.Fatal("expected not ready with an empty slot")
	}

	r.ImageURLs = []string{"a"}
	if r.AllImagesReady() {
		t.Fatal("expected not ready with mismatched length")
	}
}

func TestRecordCanonicalStatus(t *testing.T) {
	r := &Record{Status: StatusRenderReady}
	if r.CanonicalStatus() != StatusAssetsGenerated {
		t.Fatalf("expected canonical status to normalize alias, got %q", r.CanonicalStatus())
	}
}

func TestStatusPatch(t *testing.T) {
	p := StatusPatch(StatusCompleted)
	if p.Status == nil || *p.Status != StatusCompleted {
		t.Fatalf("expected status patch to set Completed, got %+v", p)
	}
	if p.ScriptText != nil {
		t.Fatal("expected only Status to be set")
	}
}
