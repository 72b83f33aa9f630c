// Package objectstore is the gateway over the four public-readable buckets
// this system writes media artifacts to: renders-images, renders-audio,
// renders-captions, renders-videos. Grounded on clients/s3.go's direct use
// of aws-sdk-go's service/s3 in the teacher repo.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/metrics"
)

// Gateway is the object store boundary the asset orchestrator and render
// engine write through. publicBaseURL is the externally reachable host the
// public_url path convention is rooted at (e.g. a CDN or bucket website
// endpoint).
type Gateway struct {
	s3            *s3.S3
	httpClient    *http.Client
	publicBaseURL string
}

func New(sess *session.Session, publicBaseURL string) *Gateway {
	return &Gateway{
		s3:            s3.New(sess),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		publicBaseURL: publicBaseURL,
	}
}

// EnsureBucket creates bucket if absent. Idempotent: BucketAlreadyOwnedByYou
// and BucketAlreadyExists are treated as success.
func (g *Gateway) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := g.s3.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeBucketAlreadyOwnedByYou, s3.ErrCodeBucketAlreadyExists:
			return nil
		}
	}
	return xerrors.New(xerrors.KindUploadFailed, err)
}

// Upload writes bytes to bucket/path with overwrite semantics, making up
// to three attempts on any PutObject error and sleeping 500ms, then 1s,
// between them.
func (g *Gateway) Upload(ctx context.Context, bucket, path string, body []byte, contentType string) error {
	const maxAttempts = 3
	client := metrics.Metrics.ObjectStoreClient
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		_, err := g.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(path),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
			ACL:         aws.String("public-read"),
		})
		client.RequestDuration.WithLabelValues(g.publicBaseURL, "upload", bucket).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		client.RetryCount.WithLabelValues(g.publicBaseURL, "upload", bucket).Set(float64(attempt))
		select {
		case <-ctx.Done():
			return xerrors.New(xerrors.KindCancelled, ctx.Err())
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	client.FailureCount.WithLabelValues(g.publicBaseURL, "upload", bucket).Inc()
	return xerrors.New(xerrors.KindUploadFailed, lastErr)
}

// PublicURL returns the deterministic URL an uploaded object is served at.
func (g *Gateway) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", g.publicBaseURL, bucket, path)
}

// WaitForAvailability probes the public URL with exponential backoff (200ms
// base, doubling, capped at 2s) until a HEAD request succeeds or
// maxAttempts is exceeded.
func (g *Gateway) WaitForAvailability(ctx context.Context, bucket, path string, maxAttempts int) error {
	url := g.PublicURL(bucket, path)
	delay := 200 * time.Millisecond
	const maxDelay = 2 * time.Second

	host := hostOf(url)
	client := metrics.Metrics.ObjectStoreClient

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		ok, err := g.probe(ctx, url)
		client.RequestDuration.WithLabelValues(host, "wait_for_availability", bucket).Observe(time.Since(start).Seconds())
		if ok {
			return nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		client.RetryCount.WithLabelValues(host, "wait_for_availability", bucket).Set(float64(attempt))
		select {
		case <-ctx.Done():
			return xerrors.New(xerrors.KindCancelled, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	client.FailureCount.WithLabelValues(host, "wait_for_availability", bucket).Inc()
	return xerrors.Newf(xerrors.KindObjectNotVisible, "object not visible after %d attempts: %v", maxAttempts, lastErr)
}

func hostOf(rawurl string) string {
	if u, err := url.Parse(rawurl); err == nil {
		return u.Host
	}
	return "unknown"
}

func (g *Gateway) probe(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, fmt.Errorf("status %d", resp.StatusCode)
}

// Path conventions from spec.md §4.2 — stable, bit-exact.

// ImagePath returns the scene-indexed image object path for job id,
// n being the 1-based scene index.
func ImagePath(id string, n int) string {
	return fmt.Sprintf("videos/%s/images/scene-%d.jpg", id, n)
}

func JobAudioPath(id string) string {
	return fmt.Sprintf("videos/%s/audio.mp3", id)
}

func JobCaptionsPath(id string) string {
	return fmt.Sprintf("videos/%s/captions.srt", id)
}

func JobFinalVideoPath(id string) string {
	return fmt.Sprintf("videos/%s/final.mp4", id)
}
