// Package wizard implements the status/wizard controller (spec.md §4.11):
// the enumerated transition table, the (status, counters) → (stage,
// percent, details) progress projection consumed by polling clients, and
// the edit-on-later-stage gating rules. It owns no storage; callers pass
// in a video.Record and act on the returned decision.
package wizard

import (
	"fmt"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/video"
)

// Stage is the user-facing grouping of statuses shown by a progress UI.
type Stage string

const (
	StageScript     Stage = "script"
	StageStoryboard Stage = "storyboard"
	StageAssets     Stage = "assets"
	StageRender     Stage = "render"
	StageDone       Stage = "done"
)

// Progress is the projection a polling client consumes.
type Progress struct {
	Stage   Stage
	Percent int
	Details string
}

// transitions lists, per status, the statuses a job may move to next. It
// governs Controller.Authorize and includes the engine-internal edges
// (e.g. *_generating → *_generated) that each engine takes itself.
var transitions = map[video.Status][]video.Status{
	video.StatusCreated:              {video.StatusScriptGenerating},
	video.StatusScriptGenerating:     {video.StatusScriptGenerated, video.StatusScriptFailed},
	video.StatusScriptGenerated:      {video.StatusScriptApproved, video.StatusStoryboardGenerating},
	video.StatusScriptFailed:         {video.StatusScriptGenerating},
	video.StatusScriptApproved:       {video.StatusStoryboardGenerating, video.StatusAssetsGenerating},
	video.StatusStoryboardGenerating: {video.StatusStoryboardGenerated, video.StatusStoryboardFailed},
	video.StatusStoryboardGenerated:  {video.StatusAssetsGenerating, video.StatusScriptGenerated},
	video.StatusStoryboardFailed:     {video.StatusStoryboardGenerating},
	video.StatusAssetsGenerating:     {video.StatusAssetsGenerated, video.StatusAssetsPartial, video.StatusAssetsFailed},
	video.StatusAssetsPartial:        {video.StatusAssetsGenerating},
	video.StatusAssetsFailed:         {video.StatusAssetsGenerating},
	video.StatusAssetsGenerated:      {video.StatusRendering, video.StatusAssetsGenerating},
	video.StatusRendering:            {video.StatusCompleted, video.StatusRenderFailed},
	video.StatusRenderFailed:         {video.StatusRendering},
	video.StatusCompleted:            {video.StatusCompleted},
}

// Controller authorizes status transitions and projects progress.
type Controller struct{}

func New() *Controller { return &Controller{} }

// Authorize reports whether moving from to is a permitted edge. Invariant
// 1 (spec.md §3): once completed, only completed→completed is legal.
func (c *Controller) Authorize(from, to video.Status) error {
	from = from.Canonical()
	to = to.Canonical()
	if from == to {
		return nil
	}
	for _, allowed := range transitions[from] {
		if allowed.Canonical() == to {
			return nil
		}
	}
	return xerrors.Newf(xerrors.KindInvalidStatus, "transition %s -> %s is not permitted", from, to)
}

// Project maps a record's current status and counters to the triple a
// progress UI polls. Percent is monotonic non-decreasing within a stage
// and resets only across a backward transition into an earlier stage.
func (c *Controller) Project(rec *video.Record) Progress {
	switch rec.CanonicalStatus() {
	case video.StatusCreated:
		return Progress{Stage: StageScript, Percent: 0, Details: "waiting to generate script"}
	case video.StatusScriptGenerating:
		return Progress{Stage: StageScript, Percent: 30, Details: "generating script"}
	case video.StatusScriptGenerated:
		return Progress{Stage: StageScript, Percent: 100, Details: "script ready for review"}
	case video.StatusScriptFailed:
		return Progress{Stage: StageScript, Percent: 0, Details: rec.ErrorMessage}
	case video.StatusScriptApproved:
		return Progress{Stage: StageScript, Percent: 100, Details: "script approved"}
	case video.StatusStoryboardGenerating:
		return Progress{Stage: StageStoryboard, Percent: 30, Details: "generating storyboard"}
	case video.StatusStoryboardGenerated:
		return Progress{Stage: StageStoryboard, Percent: 100, Details: "storyboard ready for review"}
	case video.StatusStoryboardFailed:
		return Progress{Stage: StageStoryboard, Percent: 0, Details: rec.ErrorMessage}
	case video.StatusAssetsGenerating:
		return Progress{Stage: StageAssets, Percent: assetsPercent(rec), Details: "generating images, audio and captions"}
	case video.StatusAssetsPartial:
		return Progress{Stage: StageAssets, Percent: assetsPercent(rec), Details: "some assets incomplete; rerun to finish"}
	case video.StatusAssetsFailed:
		return Progress{Stage: StageAssets, Percent: assetsPercent(rec), Details: rec.ErrorMessage}
	case video.StatusAssetsGenerated:
		return Progress{Stage: StageAssets, Percent: 100, Details: "assets ready to render"}
	case video.StatusRendering:
		return Progress{Stage: StageRender, Percent: rec.RenderProgress, Details: "rendering final video"}
	case video.StatusRenderFailed:
		return Progress{Stage: StageRender, Percent: rec.RenderProgress, Details: rec.ErrorMessage}
	case video.StatusCompleted:
		return Progress{Stage: StageDone, Percent: 100, Details: "video ready"}
	default:
		return Progress{Stage: StageScript, Percent: 0, Details: fmt.Sprintf("unknown status %q", rec.Status)}
	}
}

func assetsPercent(rec *video.Record) int {
	total := len(rec.StoryboardJSON.Scenes)
	if total == 0 {
		return 0
	}
	imagesDone := rec.NonEmptyImageCount() == total
	audioDone := rec.AudioURL != ""
	captionsDone := rec.CaptionsURL != ""

	// weight images at 70%, audio at 15%, captions at 15%, reflecting the
	// heavier per-scene fan-out image generation does over the other two
	// single-shot assets.
	percent := rec.ImageUploadProgress * 70 / 100
	if imagesDone {
		percent = 70
	}
	if audioDone {
		percent += 15
	}
	if captionsDone {
		percent += 15
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}

// EditScript applies the edit-on-later-stage rule (spec.md §4.11): editing
// the script after a storyboard exists does not discard the storyboard; it
// flags requires_regeneration so the next storyboard/assets run knows to
// recompute from the new text.
func EditScript(rec *video.Record, newText string) video.Patch {
	patch := video.Patch{ScriptText: video.StringPtr(newText)}
	if len(rec.StoryboardJSON.Scenes) > 0 {
		patch.RequiresRegeneration = video.BoolPtr(true)
	}
	return patch
}

// EditScenePrompt applies a single scene's image_prompt edit: it marks the
// scene dirty and empties its image_urls slot so the next asset run
// regenerates only that scene, per spec.md §4.11.
func EditScenePrompt(rec *video.Record, index int, prompt string) (video.Storyboard, []int, []string, error) {
	if index < 0 || index >= len(rec.StoryboardJSON.Scenes) {
		return video.Storyboard{}, nil, nil, xerrors.Newf(xerrors.KindBadOutput, "scene index %d out of range", index)
	}

	scenes := make([]video.Scene, len(rec.StoryboardJSON.Scenes))
	copy(scenes, rec.StoryboardJSON.Scenes)
	scenes[index].ImagePrompt = prompt
	scenes[index].PlaceholderUsed = false
	scenes[index].PlaceholderCause = ""

	dirty := make([]int, 0, len(rec.DirtyScenes)+1)
	dirty = append(dirty, rec.DirtyScenes...)
	found := false
	for _, d := range dirty {
		if d == index {
			found = true
			break
		}
	}
	if !found {
		dirty = append(dirty, index)
	}

	urls := make([]string, len(rec.ImageURLs))
	copy(urls, rec.ImageURLs)
	if index < len(urls) {
		urls[index] = ""
	}

	return video.Storyboard{Scenes: scenes}, dirty, urls, nil
}
