package providers

import (
	"context"
	"encoding/base64"
	"net/http"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/metrics"
)

// TTSAdapter implements TTS.synthesize (spec.md §4.1): narration text in,
// MP3 bytes out, using a fixed voice.
type TTSAdapter struct {
	client     *http.Client
	baseURL    string
	credential string
	voiceID    string
}

func NewTTSAdapter(baseURL, credential, voiceID string) *TTSAdapter {
	return &TTSAdapter{client: newHTTPClient(), baseURL: baseURL, credential: credential, voiceID: voiceID}
}

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

type ttsResponse struct {
	AudioBase64 string `json:"audio_base64"`
}

func (a *TTSAdapter) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var resp ttsResponse
	err := doJSON(ctx, a.client, a.baseURL+"/v1/tts", a.credential, ttsRequest{Text: text, VoiceID: a.voiceID}, &resp, metrics.Metrics.TTSClient)
	if err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return nil, xerrors.New(xerrors.KindBadOutput, err)
	}
	return audio, nil
}
