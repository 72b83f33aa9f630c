// Package api is the thin HTTP transport over the job orchestrator: decode
// request, call the owning engine, encode response. No business logic
// lives here — each handler is a direct adapter over script, storyboard,
// assets, render and wizard, following the teacher's httprouter-based
// router layout and its ListenAndServe graceful-shutdown shape.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/livepeer/catalyst-api/assets"
	"github.com/livepeer/catalyst-api/config"
	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/log"
	"github.com/livepeer/catalyst-api/metrics"
	"github.com/livepeer/catalyst-api/middleware"
	"github.com/livepeer/catalyst-api/render"
	"github.com/livepeer/catalyst-api/retrykernel"
	"github.com/livepeer/catalyst-api/script"
	"github.com/livepeer/catalyst-api/statestore"
	"github.com/livepeer/catalyst-api/storyboard"
	"github.com/livepeer/catalyst-api/video"
	"github.com/livepeer/catalyst-api/wizard"
)

// Deps bundles the engines and gateways every handler is a thin adapter
// over.
type Deps struct {
	Store     *statestore.Gateway
	ScriptLLM script.LLM
	BoardLLM  storyboard.LLM
	Assets    *assets.Orchestrator
	Render    *render.Engine
	Wizard    *wizard.Controller

	// APIToken, if set, gates every route behind bearer auth.
	APIToken string

	// LLMTimeout/RetryAttempts/RetryBaseDelay govern the retry/timeout
	// kernel wrapping the two LLM calls made directly by this package
	// (script and storyboard generation), mirroring assets.Config.
	LLMTimeout     time.Duration
	RetryAttempts  uint
	RetryBaseDelay time.Duration
}

// ListenAndServe starts the HTTP surface and blocks until ctx is cancelled,
// then shuts the server down gracefully.
func ListenAndServe(ctx context.Context, addr string, d Deps) error {
	router := NewRouter(d)
	server := http.Server{Addr: addr, Handler: router}
	ctx, cancel := context.WithCancel(ctx)

	log.LogNoRequestID("starting video job orchestrator API", "version", config.Version, "host", addr)

	var err error
	go func() {
		err = server.ListenAndServe()
		cancel()
	}()

	<-ctx.Done()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// NewRouter builds the full HTTP surface for cmd/server.
func NewRouter(d Deps) *httprouter.Router {
	router := httprouter.New()
	cors := middleware.AllowCORS()
	withLogging := func(next httprouter.Handle) httprouter.Handle {
		handle := middleware.LogRequest()(next)
		if d.APIToken != "" {
			handle = middleware.IsAuthorized(d.APIToken, handle)
		}
		return cors(handle)
	}
	h := &handlers{d}

	router.POST("/videos", withLogging(h.createVideo))
	router.POST("/videos/:id/script", withLogging(h.updateScript))
	router.POST("/videos/:id/storyboard", withLogging(h.generateStoryboard))
	router.POST("/videos/:id/scenes/:index/dirty", withLogging(h.markSceneDirty))
	router.POST("/videos/:id/assets", withLogging(h.runAssets))
	router.POST("/videos/:id/render", withLogging(h.runRender))
	router.GET("/videos/:id", withLogging(h.getVideo))
	router.GET("/sysinfo", withLogging(h.sysinfo))
	router.GET("/ok", withLogging(h.ok))

	return router
}

type handlers struct {
	Deps
}

func (h *handlers) llmTimeout() time.Duration {
	if h.Deps.LLMTimeout == 0 {
		return 90 * time.Second
	}
	return h.Deps.LLMTimeout
}

func (h *handlers) retryAttempts() uint {
	if h.Deps.RetryAttempts == 0 {
		return 3
	}
	return h.Deps.RetryAttempts
}

func (h *handlers) retryBaseDelay() time.Duration {
	if h.Deps.RetryBaseDelay == 0 {
		return 500 * time.Millisecond
	}
	return h.Deps.RetryBaseDelay
}

func (h *handlers) ok(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

// sysinfo reports the host's CPU/memory/disk/load, used by operators to
// judge whether a worker has headroom for another render job.
func (h *handlers) sysinfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	info, err := middleware.GetSystemInfo()
	if err != nil {
		xerrors.WriteHTTPInternalServerError(w, "failed to gather system info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type createVideoRequest struct {
	InputText string `json:"input_text"`
}

// createVideo is script engine generate(): creates the record and
// synchronously runs script generation.
func (h *handlers) createVideo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		xerrors.WriteHTTPBadRequest(w, "invalid request body", err)
		return
	}
	if req.InputText == "" {
		xerrors.WriteHTTPBadRequest(w, "input_text is required", nil)
		return
	}

	ctx := r.Context()
	rec := &video.Record{
		ID:        uuid.NewString(),
		InputText: req.InputText,
		Status:    video.StatusCreated,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := h.Store.Insert(ctx, rec); err != nil {
		xerrors.WriteHTTPForKind(w, "failed to create video", err)
		return
	}

	h.runScriptGeneration(ctx, rec)
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handlers) runScriptGeneration(ctx context.Context, rec *video.Record) {
	stageStart := time.Now()
	now := stageStart
	_ = h.Store.Update(ctx, rec.ID, video.Patch{
		Status:          statusPtr(video.StatusScriptGenerating),
		ErrorMessage:    video.StringPtr(""),
		ScriptStartedAt: video.TimePtr(now),
	})

	policy := retrykernel.RetryPolicy{MaxAttempts: h.retryAttempts(), BaseDelay: h.retryBaseDelay()}
	text, err := retrykernel.WithRetry(ctx, policy, func() (string, error) {
		return retrykernel.WithTimeout(ctx, h.llmTimeout(), func(ctx context.Context) (string, error) {
			return script.Generate(ctx, h.ScriptLLM, rec.InputText)
		})
	})
	if err != nil {
		metrics.ObserveStage("script", time.Since(stageStart).Seconds(), true)
		errMsg := err.Error()
		if err == xerrors.ErrEmptyInput {
			errMsg = "empty_input"
		}
		_ = h.Store.Update(ctx, rec.ID, video.Patch{
			Status:       statusPtr(video.StatusScriptFailed),
			ErrorMessage: video.StringPtr(errMsg),
		})
		rec.Status = video.StatusScriptFailed
		rec.ErrorMessage = errMsg
		return
	}

	metrics.ObserveStage("script", time.Since(stageStart).Seconds(), false)
	_ = h.Store.Update(ctx, rec.ID, video.Patch{
		Status:       statusPtr(video.StatusScriptGenerated),
		ScriptText:   video.StringPtr(text),
		ScriptDoneAt: video.TimePtr(time.Now()),
	})
	rec.Status = video.StatusScriptGenerated
	rec.ScriptText = text
}

type updateScriptRequest struct {
	ScriptText string `json:"script_text"`
}

// updateScript is script engine update(): edits script_text, applying the
// edit-on-later-stage rule when a storyboard already exists.
func (h *handlers) updateScript(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	var req updateScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		xerrors.WriteHTTPBadRequest(w, "invalid request body", err)
		return
	}
	if req.ScriptText == "" {
		xerrors.WriteHTTPBadRequest(w, "script_text is required", nil)
		return
	}

	ctx := r.Context()
	rec, err := h.Store.SelectByID(ctx, id)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "video not found", err)
		return
	}

	patch := wizard.EditScript(rec, req.ScriptText)
	if err := h.Store.Update(ctx, id, patch); err != nil {
		xerrors.WriteHTTPForKind(w, "failed to update script", err)
		return
	}

	rec, err = h.Store.SelectByID(ctx, id)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "video not found", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// generateStoryboard is storyboard engine generate().
func (h *handlers) generateStoryboard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	ctx := r.Context()

	rec, err := h.Store.SelectByID(ctx, id)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "video not found", err)
		return
	}
	switch rec.CanonicalStatus() {
	case video.StatusScriptGenerated, video.StatusScriptApproved:
	default:
		xerrors.WriteHTTPForKind(w, "storyboard generation not permitted in this status", xerrors.Newf(xerrors.KindInvalidStatus, "status %q", rec.Status))
		return
	}

	stageStart := time.Now()
	_ = h.Store.Update(ctx, id, video.Patch{
		Status:              statusPtr(video.StatusStoryboardGenerating),
		ErrorMessage:        video.StringPtr(""),
		StoryboardStartedAt: video.TimePtr(stageStart),
	})

	policy := retrykernel.RetryPolicy{MaxAttempts: h.retryAttempts(), BaseDelay: h.retryBaseDelay()}
	sb, err := retrykernel.WithRetry(ctx, policy, func() (video.Storyboard, error) {
		return retrykernel.WithTimeout(ctx, h.llmTimeout(), func(ctx context.Context) (video.Storyboard, error) {
			return storyboard.Generate(ctx, h.BoardLLM, rec.ScriptText)
		})
	})
	if err != nil {
		metrics.ObserveStage("storyboard", time.Since(stageStart).Seconds(), true)
		_ = h.Store.Update(ctx, id, video.Patch{
			Status:       statusPtr(video.StatusStoryboardFailed),
			ErrorMessage: video.StringPtr(err.Error()),
		})
		xerrors.WriteHTTPForKind(w, "storyboard generation failed", err)
		return
	}
	metrics.ObserveStage("storyboard", time.Since(stageStart).Seconds(), false)

	version := storyboard.NextVersion(rec.StoryboardVersion)
	emptyDirty := []int{}
	if err := h.Store.Update(ctx, id, video.Patch{
		Status:            statusPtr(video.StatusStoryboardGenerated),
		StoryboardJSON:    &sb,
		StoryboardVersion: video.IntPtr(version),
		DirtyScenes:       &emptyDirty,
		StoryboardDoneAt:  video.TimePtr(time.Now()),
	}); err != nil {
		xerrors.WriteHTTPForKind(w, "failed to persist storyboard", err)
		return
	}

	rec, err = h.Store.SelectByID(ctx, id)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "video not found", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// markSceneDirty applies an image_prompt edit to one scene: marks it
// dirty and empties its image_urls slot.
func (h *handlers) markSceneDirty(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	index, err := strconv.Atoi(ps.ByName("index"))
	if err != nil {
		xerrors.WriteHTTPBadRequest(w, "scene index must be an integer", err)
		return
	}

	var req struct {
		ImagePrompt string `json:"image_prompt"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx := r.Context()
	rec, err := h.Store.SelectByID(ctx, id)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "video not found", err)
		return
	}

	sb, dirty, urls, err := wizard.EditScenePrompt(rec, index, req.ImagePrompt)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "invalid scene edit", err)
		return
	}

	if err := h.Store.Update(ctx, id, video.Patch{
		StoryboardJSON: &sb,
		DirtyScenes:    &dirty,
		ImageURLs:      &urls,
	}); err != nil {
		xerrors.WriteHTTPForKind(w, "failed to mark scene dirty", err)
		return
	}

	rec, err = h.Store.SelectByID(ctx, id)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "video not found", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// runAssets is the asset orchestrator entry point.
func (h *handlers) runAssets(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := h.Assets.Run(r.Context(), id); err != nil {
		xerrors.WriteHTTPForKind(w, "asset generation failed", err)
		return
	}
	h.getVideo(w, r, ps)
}

// runRender is the render engine entry point.
func (h *handlers) runRender(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	force := r.URL.Query().Get("force") == "true"

	result, err := h.Render.Run(r.Context(), id, force)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "render failed", err)
		return
	}
	if result.InProgress {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "rendering"})
		return
	}
	h.getVideo(w, r, ps)
}

type videoView struct {
	*video.Record
	Progress wizard.Progress `json:"progress"`
}

// getVideo is the status/wizard projection.
func (h *handlers) getVideo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	rec, err := h.Store.SelectByID(r.Context(), id)
	if err != nil {
		xerrors.WriteHTTPForKind(w, "video not found", err)
		return
	}
	writeJSON(w, http.StatusOK, videoView{Record: rec, Progress: h.Wizard.Project(rec)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusPtr(s video.Status) *video.Status { return &s }
