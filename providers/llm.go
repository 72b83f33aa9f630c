package providers

import (
	"context"
	"net/http"

	"github.com/livepeer/catalyst-api/metrics"
)

// LLMAdapter implements script.LLM and storyboard.LLM over a generic
// text-completion HTTP endpoint. The wire schema is a spec non-goal; only
// the capability contract (premise in, text out, classified errors) is
// specified.
type LLMAdapter struct {
	client     *http.Client
	baseURL    string
	credential string
}

func NewLLMAdapter(baseURL, credential string) *LLMAdapter {
	return &LLMAdapter{client: newHTTPClient(), baseURL: baseURL, credential: credential}
}

type scriptRequest struct {
	Premise string `json:"premise"`
}

type scriptResponse struct {
	Text string `json:"text"`
}

// Script returns exactly three labeled lines per spec.md §4.1; section
// format enforcement happens in package script, not here.
func (a *LLMAdapter) Script(ctx context.Context, premise string) (string, error) {
	var resp scriptResponse
	err := doJSON(ctx, a.client, a.baseURL+"/v1/script", a.credential, scriptRequest{Premise: premise}, &resp, metrics.Metrics.ScriptLLMClient)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

type storyboardRequest struct {
	Script string `json:"script"`
}

type storyboardResponse struct {
	ScenesJSON string `json:"scenes_json"`
}

// Storyboard returns the raw JSON scene list text; package storyboard
// parses and validates it.
func (a *LLMAdapter) Storyboard(ctx context.Context, script string) (string, error) {
	var resp storyboardResponse
	err := doJSON(ctx, a.client, a.baseURL+"/v1/storyboard", a.credential, storyboardRequest{Script: script}, &resp, metrics.Metrics.ScriptLLMClient)
	if err != nil {
		return "", err
	}
	return resp.ScenesJSON, nil
}
