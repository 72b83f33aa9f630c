// Package render implements the render engine: temp workspace, asset
// download, transcoder invocation with subtitle burn-in and a
// no-subtitles fallback, availability-checked upload, and status
// finalization (spec.md §4.10).
package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/log"
	"github.com/livepeer/catalyst-api/metrics"
	"github.com/livepeer/catalyst-api/objectstore"
	"github.com/livepeer/catalyst-api/providers"
	"github.com/livepeer/catalyst-api/statestore"
	"github.com/livepeer/catalyst-api/video"
)

const (
	bucketVideos = "renders-videos"

	progressDownloading  = 20
	progressManifest     = 30
	progressEncoding     = 50
	progressEncodingDone = 80
	progressUploading    = 90
	progressDone         = 100
)

// Transcoder is the capability set the render engine drives.
type Transcoder interface {
	Render(ctx context.Context, args providers.RenderArgs) error
}

// Config carries the tunables spec.md §6 exposes for this stage.
type Config struct {
	RenderTimeout time.Duration
	FPS           int
}

// Engine runs one render invocation at a time per job, guarded by an
// in-process advisory lock.
type Engine struct {
	store      *statestore.Gateway
	objects    *objectstore.Gateway
	transcoder Transcoder
	httpClient *http.Client
	locks      *locks
	cfg        Config
}

func New(store *statestore.Gateway, objects *objectstore.Gateway, transcoder Transcoder, cfg Config) *Engine {
	return &Engine{
		store:      store,
		objects:    objects,
		transcoder: transcoder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		locks:      newLocks(),
		cfg:        cfg,
	}
}

// RenderResult is returned to the caller (the thin HTTP handler) so it can
// report a rendering-in-progress signal without error.
type RenderResult struct {
	FinalVideoURL string
	InProgress    bool
}

// Run renders job id to a final MP4. If force is false and the job is
// already completed, the existing final_video_url is returned without
// work. If another Run for the same job holds this process's render lock,
// a RenderResult with InProgress set is returned instead of an error; a
// stored rendering status alone does not block a new run.
func (e *Engine) Run(ctx context.Context, id string, force bool) (RenderResult, error) {
	rec, err := e.store.SelectByID(ctx, id)
	if err != nil {
		return RenderResult{}, err
	}

	if rec.Status == video.StatusCompleted && !force {
		return RenderResult{FinalVideoURL: rec.FinalVideoURL}, nil
	}

	if !e.locks.TryAcquire(id) {
		return RenderResult{InProgress: true}, nil
	}
	defer e.locks.Release(id)

	metrics.Metrics.JobsInFlight.Add(1)
	defer metrics.Metrics.JobsInFlight.Add(-1)
	stageStart := time.Now()
	failed := true
	defer func() { metrics.ObserveStage("render", time.Since(stageStart).Seconds(), failed) }()

	if len(rec.ImageURLs) == 0 || !rec.AllImagesReady() || rec.AudioURL == "" {
		return RenderResult{}, xerrors.Newf(xerrors.KindInvalidStatus, "render invoked on job %s without complete assets", id)
	}

	if err := e.store.Update(ctx, id, video.Patch{
		Status:          statusPtr(video.StatusRendering),
		RenderProgress:  video.IntPtr(0),
		ErrorMessage:    video.StringPtr(""),
		RenderStartedAt: video.TimePtr(time.Now()),
	}); err != nil {
		return RenderResult{}, err
	}

	renderCtx, cancel := context.WithTimeout(ctx, e.renderTimeout())
	defer cancel()
	finalURL, degradedMsg, err := e.renderInWorkspace(renderCtx, rec)
	if err != nil {
		_ = e.store.Update(ctx, id, video.Patch{
			Status:         statusPtr(video.StatusRenderFailed),
			ErrorMessage:   video.StringPtr(err.Error()),
			RenderProgress: video.IntPtr(0),
		})
		return RenderResult{}, err
	}

	patch := video.Patch{
		Status:         statusPtr(video.StatusCompleted),
		FinalVideoURL:  video.StringPtr(finalURL),
		RenderProgress: video.IntPtr(progressDone),
		RenderDoneAt:   video.TimePtr(time.Now()),
	}
	if degradedMsg != "" {
		patch.ErrorMessage = video.StringPtr(degradedMsg)
	}
	if err := e.store.Update(ctx, id, patch); err != nil {
		return RenderResult{}, err
	}
	failed = false
	return RenderResult{FinalVideoURL: finalURL}, nil
}

// Cancel transitions a rendering job to render_failed with the
// cancelled_by_user banner; only permitted while rendering (spec.md §5).
func (e *Engine) Cancel(ctx context.Context, id string) error {
	rec, err := e.store.SelectByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != video.StatusRendering {
		return xerrors.Newf(xerrors.KindInvalidStatus, "cannot cancel job %s in status %q", id, rec.Status)
	}
	return e.store.Update(ctx, id, video.Patch{
		Status:         statusPtr(video.StatusRenderFailed),
		ErrorMessage:   video.StringPtr("cancelled_by_user"),
		RenderProgress: video.IntPtr(0),
	})
}

func (e *Engine) renderInWorkspace(ctx context.Context, rec *video.Record) (finalURL string, degradedMsg string, err error) {
	workspace, err := os.MkdirTemp("", "render-"+rec.ID+"-")
	if err != nil {
		return "", "", xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workspace); rmErr != nil {
			log.LogNoRequestID("failed to remove render workspace", "workspace", workspace, "err", rmErr.Error())
		}
	}()

	e.reportProgress(ctx, rec.ID, progressDownloading)
	audioPath := filepath.Join(workspace, "audio.mp3")
	if err := e.download(ctx, rec.AudioURL, audioPath); err != nil {
		return "", "", err
	}

	imagePaths := make([]string, len(rec.ImageURLs))
	for i, url := range rec.ImageURLs {
		p := filepath.Join(workspace, fmt.Sprintf("scene_%d.png", i+1))
		if err := e.download(ctx, url, p); err != nil {
			return "", "", err
		}
		imagePaths[i] = p
	}

	subtitlesPath := ""
	if rec.CaptionsURL != "" {
		srtPath := filepath.Join(workspace, "captions.srt")
		if err := e.downloadCaptions(ctx, rec.CaptionsURL, srtPath); err != nil {
			return "", "", err
		}
		subtitlesPath = srtPath
	}

	e.reportProgress(ctx, rec.ID, progressManifest)
	manifestPath := filepath.Join(workspace, "concat.txt")
	if err := writeConcatManifest(manifestPath, imagePaths, rec.StoryboardJSON.Scenes); err != nil {
		return "", "", xerrors.New(xerrors.KindTranscoderFailed, err)
	}

	outputPath := filepath.Join(workspace, "final_video.mp4")
	fps := e.cfg.FPS
	if fps == 0 {
		fps = 30
	}

	e.reportProgress(ctx, rec.ID, progressEncoding)
	renderErr := e.transcoder.Render(ctx, providers.RenderArgs{
		ConcatManifestPath: manifestPath,
		AudioPath:          audioPath,
		SubtitlesPath:      subtitlesPath,
		OutputPath:         outputPath,
		Width:              1080,
		Height:             1920,
		FPS:                fps,
	})

	if renderErr != nil && subtitlesPath != "" {
		degradedMsg = "subtitle burn-in failed; final video was rendered without burned-in captions"
		renderErr = e.transcoder.Render(ctx, providers.RenderArgs{
			ConcatManifestPath: manifestPath,
			AudioPath:          audioPath,
			SubtitlesPath:      "",
			OutputPath:         outputPath,
			Width:              1080,
			Height:             1920,
			FPS:                fps,
		})
	}
	if renderErr != nil {
		return "", "", renderErr
	}
	e.reportProgress(ctx, rec.ID, progressEncodingDone)

	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		return "", "", xerrors.New(xerrors.KindTranscoderFailed, fmt.Errorf("rendered output missing or empty"))
	}

	e.reportProgress(ctx, rec.ID, progressUploading)
	body, err := os.ReadFile(outputPath)
	if err != nil {
		return "", "", xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	path := objectstore.JobFinalVideoPath(rec.ID)
	if err := e.objects.Upload(ctx, bucketVideos, path, body, "video/mp4"); err != nil {
		return "", "", err
	}
	if err := e.objects.WaitForAvailability(ctx, bucketVideos, path, 8); err != nil {
		return "", "", err
	}
	return e.objects.PublicURL(bucketVideos, path), degradedMsg, nil
}

func (e *Engine) renderTimeout() time.Duration {
	if e.cfg.RenderTimeout == 0 {
		return 600 * time.Second
	}
	return e.cfg.RenderTimeout
}

func (e *Engine) reportProgress(ctx context.Context, id string, percent int) {
	if err := e.store.Update(ctx, id, video.Patch{RenderProgress: video.IntPtr(percent)}); err != nil {
		log.LogNoRequestID("failed to report render progress", "video_id", id, "err", err.Error())
	}
}

func (e *Engine) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	if n == 0 {
		return xerrors.New(xerrors.KindTranscoderFailed, fmt.Errorf("downloaded empty file from %s", url))
	}
	return nil
}

// downloadCaptions downloads the captions file and, if it is WebVTT,
// converts it to SRT (strip header, convert timestamps, renumber cues).
func (e *Engine) downloadCaptions(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}

	content := string(body)
	if strings.HasPrefix(strings.TrimSpace(content), "WEBVTT") {
		content = vttToSRT(content)
	}
	return os.WriteFile(dest, []byte(content), 0o644)
}

// vttToSRT strips the WebVTT header, converts `HH:MM:SS.mmm` timestamps to
// `HH:MM:SS,mmm`, and renumbers cues sequentially.
func vttToSRT(vtt string) string {
	lines := strings.Split(vtt, "\n")
	var out []string
	cueIndex := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "WEBVTT") || strings.HasPrefix(trimmed, "NOTE") {
			continue
		}
		if strings.Contains(trimmed, "-->") {
			cueIndex++
			out = append(out, strconv.Itoa(cueIndex))
			out = append(out, vttTimestampToSRT(trimmed))
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n") + "\n"
}

func vttTimestampToSRT(line string) string {
	return strings.ReplaceAll(line, ".", ",")
}

func writeConcatManifest(path string, imagePaths []string, scenes []video.Scene) error {
	var sb strings.Builder
	for i, p := range imagePaths {
		duration := 3.0
		if i < len(scenes) {
			duration = scenes[i].DurationSeconds
		}
		fmt.Fprintf(&sb, "file '%s'\nduration %g\n", filepath.ToSlash(p), duration)
	}
	if len(imagePaths) > 0 {
		fmt.Fprintf(&sb, "file '%s'\n", filepath.ToSlash(imagePaths[len(imagePaths)-1]))
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func statusPtr(s video.Status) *video.Status { return &s }
