package assets

import (
	"context"
	"time"

	"github.com/livepeer/catalyst-api/captions"
	"github.com/livepeer/catalyst-api/objectstore"
	"github.com/livepeer/catalyst-api/retrykernel"
	"github.com/livepeer/catalyst-api/video"
)

const (
	bucketAudio    = "renders-audio"
	bucketCaptions = "renders-captions"
)

// runAudio synthesizes narration via TTS, uploads it, and writes
// audio_url. It is a no-op if the job already has an audio_url.
func (o *Orchestrator) runAudio(ctx context.Context, rec *video.Record, narration string) error {
	if rec.AudioURL != "" {
		return nil
	}

	policy := retrykernel.RetryPolicy{MaxAttempts: o.retryAttempts(), BaseDelay: o.retryBaseDelay()}
	audioBytes, err := retrykernel.WithRetry(ctx, policy, func() ([]byte, error) {
		return retrykernel.WithTimeout(ctx, o.ttsTimeout(), func(ctx context.Context) ([]byte, error) {
			return o.tts.Synthesize(ctx, narration)
		})
	})
	if err != nil {
		return err
	}

	path := objectstore.JobAudioPath(rec.ID)
	if err := o.objects.Upload(ctx, bucketAudio, path, audioBytes, "audio/mpeg"); err != nil {
		return err
	}
	if err := o.objects.WaitForAvailability(ctx, bucketAudio, path, defaultAvailabilityAttempts); err != nil {
		return err
	}
	url := o.objects.PublicURL(bucketAudio, path)
	rec.AudioURL = url
	return o.store.Update(ctx, rec.ID, video.Patch{AudioURL: video.StringPtr(url)})
}

// runCaptions probes the uploaded audio's duration, builds an SRT from
// narration with duration-weighted timing, uploads it, and writes
// captions_url. It is a no-op if the job already has a captions_url.
func (o *Orchestrator) runCaptions(ctx context.Context, rec *video.Record, narration string) error {
	if rec.CaptionsURL != "" || rec.AudioURL == "" {
		return nil
	}

	seconds, err := o.prober.ProbeDuration(ctx, rec.AudioURL)
	if err != nil {
		return err
	}

	srt := captions.Build(narration, durationFromSeconds(seconds))

	path := objectstore.JobCaptionsPath(rec.ID)
	if err := o.objects.Upload(ctx, bucketCaptions, path, []byte(srt), "application/x-subrip"); err != nil {
		return err
	}
	if err := o.objects.WaitForAvailability(ctx, bucketCaptions, path, defaultAvailabilityAttempts); err != nil {
		return err
	}
	url := o.objects.PublicURL(bucketCaptions, path)
	rec.CaptionsURL = url
	return o.store.Update(ctx, rec.ID, video.Patch{CaptionsURL: video.StringPtr(url)})
}

func (o *Orchestrator) ttsTimeout() time.Duration {
	if o.cfg.TTSTimeout == 0 {
		return 120 * time.Second
	}
	return o.cfg.TTSTimeout
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
