// Package providers wraps the external LLM, image, TTS and transcoder
// capabilities behind the uniform contract spec.md §4.1 demands: one
// capability per call, a per-call timeout applied by the caller via
// retrykernel.WithTimeout, and a classified error kind. No adapter retries
// internally — retry policy lives exclusively in retrykernel.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/metrics"
	"github.com/livepeer/catalyst-api/safety"
)

// newHTTPClient builds the shared HTTP client every adapter below is built
// on, grounded on clients/callback_client.go's use of
// hashicorp/go-retryablehttp in the teacher repo. RetryMax is pinned to 0:
// the kernel owns retry policy, not the transport.
func newHTTPClient() *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	return rc.StandardClient()
}

// doJSON POSTs body as JSON to rawurl with bearer credential and decodes
// the JSON response into out. Non-2xx responses are classified into a Kind
// via classifyStatus. m is the calling adapter's client metrics bucket.
func doJSON(ctx context.Context, client *http.Client, rawurl, credential string, body, out interface{}, m metrics.ClientMetrics) error {
	host := hostOf(rawurl)
	start := time.Now()
	err := doJSONUnmeasured(ctx, client, rawurl, credential, body, out)
	m.RequestDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	if err != nil {
		m.FailureCount.WithLabelValues(host, string(xerrors.KindOf(err))).Inc()
	}
	return err
}

func doJSONUnmeasured(ctx context.Context, client *http.Client, rawurl, credential string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return xerrors.New(xerrors.KindBadOutput, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawurl, bytes.NewReader(payload))
	if err != nil {
		return xerrors.New(xerrors.KindProviderTransient, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := client.Do(req)
	if err != nil {
		return xerrors.New(xerrors.KindProviderTransient, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return xerrors.New(xerrors.KindBadOutput, err)
	}
	return nil
}

func hostOf(rawurl string) string {
	if u, err := url.Parse(rawurl); err == nil {
		return u.Host
	}
	return "unknown"
}

func classifyStatus(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return xerrors.New(xerrors.KindProviderAuth, fmt.Errorf("provider rejected credentials: %s", body))
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return xerrors.New(xerrors.KindProviderQuota, fmt.Errorf("provider quota exceeded: %s", body))
	case safety.IsContentPolicyViolation(body):
		return xerrors.New(xerrors.KindContentPolicy, fmt.Errorf("provider rejected content: %s", body))
	case status >= 500:
		return xerrors.New(xerrors.KindProviderTransient, fmt.Errorf("provider error %d: %s", status, body))
	default:
		return xerrors.New(xerrors.KindBadOutput, fmt.Errorf("provider returned %d: %s", status, body))
	}
}
