package assets

import (
	"context"
	"sync"
	"time"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/metrics"
	"github.com/livepeer/catalyst-api/objectstore"
	"github.com/livepeer/catalyst-api/retrykernel"
	"github.com/livepeer/catalyst-api/safety"
	"github.com/livepeer/catalyst-api/video"
)

// runImages brings every dirty or empty image slot to a populated state,
// per spec.md §4.8 step 3, with concurrency capped at cfg.ImageConcurrency
// (default 3). It returns the indices that ultimately fell back to a
// placeholder. Image-level failures never abort the job.
func (o *Orchestrator) runImages(ctx context.Context, rec *video.Record) ([]int, error) {
	pending := pendingScenes(rec)
	if len(pending) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	var placeholders []int

	tasks := make([]func(ctx context.Context) (struct{}, error), len(pending))
	for t, idx := range pending {
		idx := idx
		scene := rec.StoryboardJSON.Scenes[idx]
		tasks[t] = func(ctx context.Context) (struct{}, error) {
			metrics.Metrics.ImageConcurrencyInUse.Add(1)
			defer metrics.Metrics.ImageConcurrencyInUse.Add(-1)

			imgBytes, reason := o.generateSceneImage(ctx, scene.ImagePrompt)

			n := idx + 1
			path := objectstore.ImagePath(rec.ID, n)
			if err := o.objects.Upload(ctx, bucketImages, path, imgBytes, "image/jpeg"); err != nil {
				return struct{}{}, err
			}
			if err := o.objects.WaitForAvailability(ctx, bucketImages, path, defaultAvailabilityAttempts); err != nil {
				return struct{}{}, err
			}
			url := o.objects.PublicURL(bucketImages, path)

			mu.Lock()
			rec.ImageURLs[idx] = url
			if reason != "" {
				placeholders = append(placeholders, idx)
				rec.StoryboardJSON.Scenes[idx].PlaceholderUsed = true
				rec.StoryboardJSON.Scenes[idx].PlaceholderCause = reason
			}
			progress := clampProgress(rec.NonEmptyImageCount(), len(rec.ImageURLs))
			imageURLsCopy := append([]string(nil), rec.ImageURLs...)
			storyboardCopy := video.Storyboard{Scenes: append([]video.Scene(nil), rec.StoryboardJSON.Scenes...)}
			mu.Unlock()

			return struct{}{}, o.store.Update(ctx, rec.ID, video.Patch{
				ImageURLs:           &imageURLsCopy,
				ImageUploadProgress: video.IntPtr(progress),
				StoryboardJSON:      &storyboardCopy,
			})
		}
	}

	retrykernel.BoundedParallel(ctx, concurrency(o.cfg.ImageConcurrency), tasks)

	mu.Lock()
	defer mu.Unlock()
	return placeholders, nil
}

const bucketImages = "renders-images"
const defaultAvailabilityAttempts = 8

func concurrency(n int) int {
	if n <= 0 {
		return 3
	}
	return n
}

// pendingScenes returns every scene index needing image generation: empty
// slot or explicitly dirty.
func pendingScenes(rec *video.Record) []int {
	var out []int
	for i := range rec.StoryboardJSON.Scenes {
		if rec.IsDirty(i) {
			out = append(out, i)
		}
	}
	return out
}

// generateSceneImage runs the content-policy softening/fallback/
// placeholder chain from spec.md §4.8 step 3. It always returns usable
// image bytes; reason is non-empty when a placeholder was used, naming
// the failure kind that forced it.
func (o *Orchestrator) generateSceneImage(ctx context.Context, prompt string) ([]byte, string) {
	sanitized := safety.SanitizePrompt(prompt)

	policy := retrykernel.RetryPolicy{MaxAttempts: o.retryAttempts(), BaseDelay: o.retryBaseDelay()}

	imgBytes, err := retrykernel.WithRetry(ctx, policy, func() ([]byte, error) {
		return retrykernel.WithTimeout(ctx, o.imageTimeout(), func(ctx context.Context) ([]byte, error) {
			return o.image.Generate(ctx, sanitized)
		})
	})
	if err == nil {
		return imgBytes, ""
	}

	if xerrors.IsContentPolicy(err) {
		softened := safety.SoftenPrompt(sanitized)
		if softened != sanitized {
			imgBytes, err2 := retrykernel.WithTimeout(ctx, o.imageTimeout(), func(ctx context.Context) ([]byte, error) {
				return o.image.Generate(ctx, softened)
			})
			if err2 == nil {
				return imgBytes, ""
			}
			err = err2
		}
	}

	if imgBytes, fbErr := retrykernel.WithTimeout(ctx, o.imageTimeout(), func(ctx context.Context) ([]byte, error) {
		return o.image.Fallback(ctx, sanitized)
	}); fbErr == nil {
		return imgBytes, ""
	}

	metrics.Metrics.ImagePlaceholderFallbackCount.Inc()
	placeholder, _ := o.image.Placeholder(ctx)
	return placeholder, string(xerrors.KindOf(err))
}

func (o *Orchestrator) retryAttempts() uint {
	if o.cfg.RetryAttempts == 0 {
		return 3
	}
	return o.cfg.RetryAttempts
}

func (o *Orchestrator) retryBaseDelay() time.Duration {
	if o.cfg.RetryBaseDelay == 0 {
		return 500 * time.Millisecond
	}
	return o.cfg.RetryBaseDelay
}

func (o *Orchestrator) imageTimeout() time.Duration {
	if o.cfg.ImageTimeout == 0 {
		return 60 * time.Second
	}
	return o.cfg.ImageTimeout
}
