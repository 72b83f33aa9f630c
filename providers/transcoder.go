package providers

import (
	"context"
	"fmt"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"

	xerrors "github.com/livepeer/catalyst-api/errors"
)

// Transcoder wraps the external media toolchain: duration probing (via
// go-ffprobe.v2, grounded on video/probe.go in the teacher repo) and
// render invocation (via u2takey/ffmpeg-go, which builds argument vectors
// rather than shell strings).
type Transcoder struct{}

func NewTranscoder() *Transcoder { return &Transcoder{} }

// ProbeDuration returns the duration, in seconds, of the media file at
// path.
func (t *Transcoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	data, err := ffprobe.ProbeURL(ctx, path)
	if err != nil {
		return 0, xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	if data.Format == nil {
		return 0, xerrors.New(xerrors.KindTranscoderFailed, fmt.Errorf("ffprobe returned no format block for %s", path))
	}
	seconds := data.Format.DurationSeconds
	if seconds <= 0 {
		return 0, xerrors.New(xerrors.KindTranscoderFailed, fmt.Errorf("non-positive duration probed for %s", path))
	}
	return seconds, nil
}

// RenderArgs describes one render invocation; see render.Engine for how
// these are assembled from a job's assets.
type RenderArgs struct {
	ConcatManifestPath string
	AudioPath          string
	SubtitlesPath      string // empty when captions are unavailable/skipped
	OutputPath          string
	Width, Height       int
	FPS                 int
}

// Render invokes ffmpeg with a concat-demuxer image input, the narration
// audio track, a scale/pad/zoompan ("Ken Burns") filter, an optional
// subtitles burn-in filter, H.264/AAC encode and a faststart MP4 output.
// Constructs argument vectors only; never a shell string.
func (t *Transcoder) Render(ctx context.Context, args RenderArgs) error {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,zoompan=z='min(zoom+0.0015,1.3)':d=%d:s=%dx%d",
		args.Width, args.Height, args.Width, args.Height, args.FPS*2, args.Width, args.Height,
	)
	if args.SubtitlesPath != "" {
		filter += fmt.Sprintf(",subtitles='%s'", normalizeSubtitlePath(args.SubtitlesPath))
	}

	video := ffmpeg.Input(args.ConcatManifestPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"})
	audio := ffmpeg.Input(args.AudioPath)

	cmd := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, args.OutputPath, ffmpeg.KwArgs{
		"vf":       filter,
		"c:v":      "libx264",
		"c:a":      "aac",
		"movflags": "+faststart",
		"shortest": "",
		"pix_fmt":  "yuv420p",
		"r":        args.FPS,
	}).
		OverWriteOutput().
		ErrorToStdOut()

	if err := cmd.Run(); err != nil {
		return xerrors.New(xerrors.KindTranscoderFailed, err)
	}
	return nil
}

func normalizeSubtitlePath(path string) string {
	// Forward slashes and an escaped drive-letter colon are the sole
	// cross-platform concern the subtitles filter has (spec.md §4.10).
	out := make([]rune, 0, len(path)+2)
	for i, r := range path {
		if r == '\\' {
			out = append(out, '/')
			continue
		}
		if r == ':' && i == 1 {
			out = append(out, '\\', ':')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
