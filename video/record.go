package video

import "time"

// Record is the video job row. Mutation is owned exclusively by the engine
// currently identified by Status; no other component writes to it. Reads
// never cache (see package statestore).
type Record struct {
	ID      string `json:"id"`
	InputText string `json:"input_text"`
	Status  Status `json:"status"`

	ScriptText        string `json:"script_text,omitempty"`
	StoryboardJSON     Storyboard `json:"storyboard_json"`
	StoryboardVersion int    `json:"storyboard_version"`
	DirtyScenes       []int  `json:"dirty_scenes"`

	ImageURLs           []string `json:"image_urls"`
	ImageUploadProgress int      `json:"image_upload_progress"`

	AudioURL      string `json:"audio_url,omitempty"`
	CaptionsURL   string `json:"captions_url,omitempty"`
	FinalVideoURL string `json:"final_video_url,omitempty"`

	ErrorMessage   string `json:"error_message,omitempty"`
	RenderProgress int    `json:"render_progress"`

	RequiresRegeneration bool `json:"requires_regeneration,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ScriptStartedAt     *time.Time `json:"script_started_at,omitempty"`
	ScriptDoneAt        *time.Time `json:"script_done_at,omitempty"`
	StoryboardStartedAt *time.Time `json:"storyboard_started_at,omitempty"`
	StoryboardDoneAt    *time.Time `json:"storyboard_done_at,omitempty"`
	AssetsStartedAt     *time.Time `json:"assets_started_at,omitempty"`
	AssetsDoneAt        *time.Time `json:"assets_done_at,omitempty"`
	RenderStartedAt     *time.Time `json:"render_started_at,omitempty"`
	RenderDoneAt        *time.Time `json:"render_done_at,omitempty"`
}

// CanonicalStatus returns Status with the render_ready alias normalized.
func (r *Record) CanonicalStatus() Status {
	return r.Status.Canonical()
}

// IsDirty reports whether scene index i needs image regeneration: either
// its URL slot is empty, or it has been explicitly marked dirty.
func (r *Record) IsDirty(i int) bool {
	if i < 0 || i >= len(r.ImageURLs) {
		return false
	}
	if r.ImageURLs[i] == "" {
		return true
	}
	for _, d := range r.DirtyScenes {
		if d == i {
			return true
		}
	}
	return false
}

// NonEmptyImageCount counts populated slots in ImageURLs.
func (r *Record) NonEmptyImageCount() int {
	n := 0
	for _, u := range r.ImageURLs {
		if u != "" {
			n++
		}
	}
	return n
}

// AllImagesReady reports whether every scene slot in ImageURLs is populated
// and its length matches the storyboard.
func (r *Record) AllImagesReady() bool {
	if len(r.ImageURLs) != len(r.StoryboardJSON.Scenes) {
		return false
	}
	return r.NonEmptyImageCount() == len(r.ImageURLs)
}

// Patch is a partial update to a Record. Only non-nil fields are written;
// callers never read-modify-write (see statestore.Gateway.Update).
type Patch struct {
	Status               *Status
	ScriptText           *string
	StoryboardJSON       *Storyboard
	StoryboardVersion    *int
	DirtyScenes          *[]int
	ImageURLs            *[]string
	ImageUploadProgress  *int
	AudioURL             *string
	CaptionsURL          *string
	FinalVideoURL        *string
	ErrorMessage         *string
	RenderProgress       *int
	RequiresRegeneration *bool

	ScriptStartedAt     *time.Time
	ScriptDoneAt        *time.Time
	StoryboardStartedAt *time.Time
	StoryboardDoneAt    *time.Time
	AssetsStartedAt     *time.Time
	AssetsDoneAt        *time.Time
	RenderStartedAt     *time.Time
	RenderDoneAt        *time.Time
}

func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

func StringPtr(s string) *string { return &s }
func IntPtr(i int) *int          { return &i }
func BoolPtr(b bool) *bool       { return &b }
func TimePtr(t time.Time) *time.Time { return &t }
