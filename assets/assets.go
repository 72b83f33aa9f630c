// Package assets implements the asset orchestrator: the ~20% of this
// system that brings image_urls, audio_url and captions_url to a complete
// state for rendering, per spec.md §4.8. It is the primary consumer of
// the retry/concurrency kernel, the safety layer, the object store
// gateway and the state store gateway.
package assets

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/metrics"
	"github.com/livepeer/catalyst-api/objectstore"
	"github.com/livepeer/catalyst-api/script"
	"github.com/livepeer/catalyst-api/statestore"
	"github.com/livepeer/catalyst-api/video"
)

// ImageProvider is the capability set the orchestrator drives per scene.
type ImageProvider interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
	Fallback(ctx context.Context, prompt string) ([]byte, error)
	Placeholder(ctx context.Context) ([]byte, error)
}

// TTSProvider synthesizes narration audio.
type TTSProvider interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// DurationProber reports the duration of an already-uploaded audio file,
// used to time captions.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Config carries the tunables spec.md §6 exposes for this stage.
type Config struct {
	ImageConcurrency int
	ImageTimeout     time.Duration
	TTSTimeout       time.Duration
	RetryAttempts    uint
	RetryBaseDelay   time.Duration
}

// Orchestrator runs the asset pipeline for one job at a time; it holds no
// per-job state between calls (all state is the video.Record read from
// and written to the state store).
type Orchestrator struct {
	store   *statestore.Gateway
	objects *objectstore.Gateway
	image   ImageProvider
	tts     TTSProvider
	prober  DurationProber
	cfg     Config
}

func New(store *statestore.Gateway, objects *objectstore.Gateway, image ImageProvider, tts TTSProvider, prober DurationProber, cfg Config) *Orchestrator {
	return &Orchestrator{store: store, objects: objects, image: image, tts: tts, prober: prober, cfg: cfg}
}

// Run brings a job's assets to completion. It is idempotent: invoking it
// on a job whose status is already assets_generated/render_ready is a
// no-op that returns success without new writes beyond a timestamp touch.
func (o *Orchestrator) Run(ctx context.Context, id string) error {
	metrics.Metrics.JobsInFlight.Add(1)
	defer metrics.Metrics.JobsInFlight.Add(-1)
	stageStart := time.Now()
	failed := true
	defer func() { metrics.ObserveStage("assets", time.Since(stageStart).Seconds(), failed) }()

	rec, err := o.store.SelectByID(ctx, id)
	if err != nil {
		return err
	}

	switch rec.CanonicalStatus() {
	case video.StatusAssetsGenerated:
		failed = false
		return nil
	case video.StatusScriptApproved, video.StatusStoryboardGenerated, video.StatusAssetsFailed, video.StatusAssetsPartial, video.StatusAssetsGenerating:
		// proceeds below
	default:
		return xerrors.Newf(xerrors.KindInvalidStatus, "asset orchestrator invoked on job %s in status %q", id, rec.Status)
	}

	now := time.Now()
	if rec.Status.Canonical() != video.StatusAssetsGenerating {
		if err := o.store.Update(ctx, id, video.Patch{
			Status:           statusPtr(video.StatusAssetsGenerating),
			ErrorMessage:     video.StringPtr(""),
			AssetsStartedAt:  video.TimePtr(now),
		}); err != nil {
			return err
		}
		rec.Status = video.StatusAssetsGenerating
	}

	if len(rec.ImageURLs) != len(rec.StoryboardJSON.Scenes) {
		grown := make([]string, len(rec.StoryboardJSON.Scenes))
		copy(grown, rec.ImageURLs)
		rec.ImageURLs = grown
	}

	var eg errgroup.Group
	var placeholderScenes []int
	var imageErr, audioErr, captionsErr error

	eg.Go(func() error {
		placeholderScenes, imageErr = o.runImages(ctx, rec)
		return nil // image failures degrade to placeholder, never abort the job
	})

	narration := script.Parse(rec.ScriptText).PlainNarration()

	if rec.AudioURL == "" {
		eg.Go(func() error {
			audioErr = o.runAudio(ctx, rec, narration)
			return nil
		})
	}

	_ = eg.Wait()

	if rec.CaptionsURL == "" && rec.AudioURL != "" {
		captionsErr = o.runCaptions(ctx, rec, narration)
	}

	rec.DirtyScenes = nil
	patch := video.Patch{DirtyScenes: &rec.DirtyScenes, StoryboardJSON: &rec.StoryboardJSON}

	if len(placeholderScenes) > 0 {
		patch.ErrorMessage = video.StringPtr(placeholderNotice(placeholderScenes))
	}

	nextStatus := o.nextStatus(rec, imageErr, audioErr, captionsErr)
	patch.Status = statusPtr(nextStatus)
	if nextStatus.Canonical() == video.StatusAssetsGenerated {
		patch.AssetsDoneAt = video.TimePtr(time.Now())
	}
	failed = nextStatus == video.StatusAssetsFailed

	return o.store.Update(ctx, id, patch)
}

func (o *Orchestrator) nextStatus(rec *video.Record, imageErr, audioErr, captionsErr error) video.Status {
	if xerrors.IsInvalidStatus(imageErr) {
		return video.StatusAssetsFailed
	}
	if rec.AllImagesReady() && rec.AudioURL != "" && rec.CaptionsURL != "" {
		return video.StatusAssetsGenerated
	}
	if rec.AllImagesReady() {
		return video.StatusAssetsPartial
	}
	if rec.NonEmptyImageCount() == 0 {
		return video.StatusAssetsFailed
	}
	return video.StatusAssetsPartial
}

func placeholderNotice(scenes []int) string {
	msg := "scene(s) "
	for i, s := range scenes {
		if i > 0 {
			msg += ", "
		}
		msg += fmt.Sprintf("%d", s+1)
	}
	return msg + " used a placeholder image; edit the prompt and retry to regenerate."
}

func statusPtr(s video.Status) *video.Status { return &s }

func clampProgress(nonEmpty, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(nonEmpty) / float64(total) * 100))
}
