// Package statestore is the CRUD gateway over the single videos table. It
// is the sole owner of record identity and status (spec.md §3 Ownership);
// every write is a whole-record patch, never a read-modify-write. Grounded
// on the teacher's direct database/sql usage pattern with lib/pq as the
// driver import.
package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	_ "github.com/lib/pq"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/log"
	"github.com/livepeer/catalyst-api/video"
)

// Gateway is the videos table's exclusive writer/reader.
type Gateway struct {
	db *sql.DB
}

func New(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

func Open(connStr string) (*Gateway, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id                     TEXT PRIMARY KEY,
	input_text             TEXT NOT NULL,
	status                 TEXT NOT NULL,
	script_text            TEXT NOT NULL DEFAULT '',
	storyboard_json        JSONB NOT NULL DEFAULT '{"scenes":[]}',
	storyboard_version     INTEGER NOT NULL DEFAULT 0,
	dirty_scenes           JSONB NOT NULL DEFAULT '[]',
	image_urls             JSONB NOT NULL DEFAULT '[]',
	image_upload_progress  INTEGER NOT NULL DEFAULT 0,
	audio_url              TEXT NOT NULL DEFAULT '',
	captions_url           TEXT NOT NULL DEFAULT '',
	final_video_url        TEXT NOT NULL DEFAULT '',
	error_message          TEXT NOT NULL DEFAULT '',
	render_progress        INTEGER NOT NULL DEFAULT 0,
	requires_regeneration  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	script_started_at      TIMESTAMPTZ,
	script_done_at         TIMESTAMPTZ,
	storyboard_started_at  TIMESTAMPTZ,
	storyboard_done_at     TIMESTAMPTZ,
	assets_started_at      TIMESTAMPTZ,
	assets_done_at         TIMESTAMPTZ,
	render_started_at      TIMESTAMPTZ,
	render_done_at         TIMESTAMPTZ
)`

func (g *Gateway) Migrate(ctx context.Context) error {
	_, err := g.db.ExecContext(ctx, schema)
	return err
}

// Insert creates a record in status=created. id and CreatedAt/UpdatedAt are
// assigned by the caller (script engine) before Insert is called.
func (g *Gateway) Insert(ctx context.Context, r *video.Record) error {
	storyboardJSON, err := json.Marshal(r.StoryboardJSON)
	if err != nil {
		return xerrors.Validation(err)
	}
	dirty, err := json.Marshal(r.DirtyScenes)
	if err != nil {
		return xerrors.Validation(err)
	}
	imageURLs, err := json.Marshal(r.ImageURLs)
	if err != nil {
		return xerrors.Validation(err)
	}

	_, err = g.db.ExecContext(ctx, `
		INSERT INTO videos (id, input_text, status, script_text, storyboard_json, storyboard_version,
			dirty_scenes, image_urls, image_upload_progress, audio_url, captions_url, final_video_url,
			error_message, render_progress, requires_regeneration, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		r.ID, r.InputText, string(r.Status), r.ScriptText, storyboardJSON, r.StoryboardVersion,
		dirty, imageURLs, r.ImageUploadProgress, r.AudioURL, r.CaptionsURL, r.FinalVideoURL,
		r.ErrorMessage, r.RenderProgress, r.RequiresRegeneration, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		g.bestEffortErrorWrite(ctx, r.ID, err)
		return xerrors.New(xerrors.KindUploadFailed, err)
	}
	return nil
}

// SelectByID reads the current record for id, or a not_found error.
func (g *Gateway) SelectByID(ctx context.Context, id string) (*video.Record, error) {
	row := g.db.QueryRowContext(ctx, `
		SELECT id, input_text, status, script_text, storyboard_json, storyboard_version,
			dirty_scenes, image_urls, image_upload_progress, audio_url, captions_url, final_video_url,
			error_message, render_progress, requires_regeneration, created_at, updated_at,
			script_started_at, script_done_at, storyboard_started_at, storyboard_done_at,
			assets_started_at, assets_done_at, render_started_at, render_done_at
		FROM videos WHERE id = $1`, id)

	var r video.Record
	var status string
	var storyboardJSON, dirty, imageURLs []byte

	err := row.Scan(&r.ID, &r.InputText, &status, &r.ScriptText, &storyboardJSON, &r.StoryboardVersion,
		&dirty, &imageURLs, &r.ImageUploadProgress, &r.AudioURL, &r.CaptionsURL, &r.FinalVideoURL,
		&r.ErrorMessage, &r.RenderProgress, &r.RequiresRegeneration, &r.CreatedAt, &r.UpdatedAt,
		&r.ScriptStartedAt, &r.ScriptDoneAt, &r.StoryboardStartedAt, &r.StoryboardDoneAt,
		&r.AssetsStartedAt, &r.AssetsDoneAt, &r.RenderStartedAt, &r.RenderDoneAt)
	if err == sql.ErrNoRows {
		return nil, xerrors.Newf(xerrors.KindNotFound, "video %s not found", id)
	}
	if err != nil {
		return nil, xerrors.New(xerrors.KindUploadFailed, err)
	}

	r.Status = video.Status(status)
	if err := json.Unmarshal(storyboardJSON, &r.StoryboardJSON); err != nil {
		return nil, xerrors.Validation(err)
	}
	if err := json.Unmarshal(dirty, &r.DirtyScenes); err != nil {
		return nil, xerrors.Validation(err)
	}
	if err := json.Unmarshal(imageURLs, &r.ImageURLs); err != nil {
		return nil, xerrors.Validation(err)
	}
	return &r, nil
}

// Update applies patch to id as a single atomic statement. Only non-nil
// fields in patch are written.
func (g *Gateway) Update(ctx context.Context, id string, patch video.Patch) error {
	sets := []string{"updated_at = now()"}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, col+" = $"+itoa(len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.ScriptText != nil {
		add("script_text", *patch.ScriptText)
	}
	if patch.StoryboardJSON != nil {
		b, err := json.Marshal(*patch.StoryboardJSON)
		if err != nil {
			return xerrors.Validation(err)
		}
		add("storyboard_json", b)
	}
	if patch.StoryboardVersion != nil {
		add("storyboard_version", *patch.StoryboardVersion)
	}
	if patch.DirtyScenes != nil {
		b, err := json.Marshal(*patch.DirtyScenes)
		if err != nil {
			return xerrors.Validation(err)
		}
		add("dirty_scenes", b)
	}
	if patch.ImageURLs != nil {
		b, err := json.Marshal(*patch.ImageURLs)
		if err != nil {
			return xerrors.Validation(err)
		}
		add("image_urls", b)
	}
	if patch.ImageUploadProgress != nil {
		add("image_upload_progress", *patch.ImageUploadProgress)
	}
	if patch.AudioURL != nil {
		add("audio_url", *patch.AudioURL)
	}
	if patch.CaptionsURL != nil {
		add("captions_url", *patch.CaptionsURL)
	}
	if patch.FinalVideoURL != nil {
		add("final_video_url", *patch.FinalVideoURL)
	}
	if patch.ErrorMessage != nil {
		add("error_message", *patch.ErrorMessage)
	}
	if patch.RenderProgress != nil {
		add("render_progress", *patch.RenderProgress)
	}
	if patch.RequiresRegeneration != nil {
		add("requires_regeneration", *patch.RequiresRegeneration)
	}
	if patch.ScriptStartedAt != nil {
		add("script_started_at", *patch.ScriptStartedAt)
	}
	if patch.ScriptDoneAt != nil {
		add("script_done_at", *patch.ScriptDoneAt)
	}
	if patch.StoryboardStartedAt != nil {
		add("storyboard_started_at", *patch.StoryboardStartedAt)
	}
	if patch.StoryboardDoneAt != nil {
		add("storyboard_done_at", *patch.StoryboardDoneAt)
	}
	if patch.AssetsStartedAt != nil {
		add("assets_started_at", *patch.AssetsStartedAt)
	}
	if patch.AssetsDoneAt != nil {
		add("assets_done_at", *patch.AssetsDoneAt)
	}
	if patch.RenderStartedAt != nil {
		add("render_started_at", *patch.RenderStartedAt)
	}
	if patch.RenderDoneAt != nil {
		add("render_done_at", *patch.RenderDoneAt)
	}

	args = append(args, id)
	query := "UPDATE videos SET " + join(sets, ", ") + " WHERE id = $" + itoa(len(args))

	res, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		g.bestEffortErrorWrite(ctx, id, err)
		return xerrors.New(xerrors.KindUploadFailed, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return xerrors.Newf(xerrors.KindNotFound, "video %s not found", id)
	}
	return nil
}

// bestEffortErrorWrite records a write failure's cause into error_message
// via a second, independent statement; its own failure is only logged, per
// spec.md §4.3.
func (g *Gateway) bestEffortErrorWrite(ctx context.Context, id string, cause error) {
	_, err := g.db.ExecContext(ctx, `UPDATE videos SET error_message = $1, updated_at = now() WHERE id = $2`,
		cause.Error(), id)
	if err != nil {
		log.LogNoRequestID("best-effort error_message write failed", "video_id", id, "err", err.Error())
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func join(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
