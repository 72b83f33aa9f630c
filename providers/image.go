package providers

import (
	"context"
	"encoding/base64"
	"net/http"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/metrics"
)

// ImageAdapter implements Image.generate/fallback/placeholder (spec.md
// §4.1). generate and fallback hit distinct model endpoints on the same
// provider; placeholder always succeeds and needs no network call.
type ImageAdapter struct {
	client         *http.Client
	baseURL        string
	credential     string
	placeholderPNG []byte
}

func NewImageAdapter(baseURL, credential string, placeholderPNG []byte) *ImageAdapter {
	return &ImageAdapter{
		client:         newHTTPClient(),
		baseURL:        baseURL,
		credential:     credential,
		placeholderPNG: placeholderPNG,
	}
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type imageResponse struct {
	ImageBase64 string `json:"image_base64"`
}

// Generate returns a vertical 1080×1920 still for prompt via the primary
// model.
func (a *ImageAdapter) Generate(ctx context.Context, prompt string) ([]byte, error) {
	return a.call(ctx, "/v1/images/generate", prompt)
}

// Fallback accepts looser prompts on a lower-tier model, used after
// softening/content-policy exhaustion on the primary model.
func (a *ImageAdapter) Fallback(ctx context.Context, prompt string) ([]byte, error) {
	return a.call(ctx, "/v1/images/fallback", prompt)
}

func (a *ImageAdapter) call(ctx context.Context, path, prompt string) ([]byte, error) {
	var resp imageResponse
	err := doJSON(ctx, a.client, a.baseURL+path, a.credential,
		imageRequest{Prompt: prompt, Width: 1080, Height: 1920}, &resp, metrics.Metrics.ImageProviderClient)
	if err != nil {
		return nil, err
	}
	bytes, err := base64.StdEncoding.DecodeString(resp.ImageBase64)
	if err != nil {
		return nil, xerrors.New(xerrors.KindBadOutput, err)
	}
	return bytes, nil
}

// Placeholder always succeeds; it never calls out to a provider.
func (a *ImageAdapter) Placeholder(ctx context.Context) ([]byte, error) {
	return a.placeholderPNG, nil
}
