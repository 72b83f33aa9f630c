package config

import "time"

var Version string

// Used so that tests can generate fixed timestamps.
var Clock TimestampGenerator = RealTimestampGenerator{}

// Frame geometry is fixed per spec.md §6; it is not configurable.
const (
	FrameWidth  = 1080
	FrameHeight = 1920
	FrameSize   = "1080x1920"
)

const (
	DefaultImageConcurrency  = 3
	DefaultImageTimeoutMs    = 60_000
	DefaultLLMTimeoutMs      = 90_000
	DefaultTTSTimeoutMs      = 120_000
	DefaultRenderTimeoutMs   = 600_000
	DefaultRetryAttempts     = 3
	DefaultRetryBaseDelayMs  = 500
	DefaultFPS               = 30
	DefaultUploadRetries     = 3
	DefaultUploadBaseDelayMs = 500
	DefaultAvailabilityBaseDelayMs = 200
	DefaultAvailabilityMaxDelayMs  = 2000
	DefaultAvailabilityMaxAttempts = 8
	DefaultMetricsPort             = 9090
	DefaultPprofPort               = 6061
)

// Buckets are the four logical object-store buckets this system writes to.
var Buckets = struct {
	Images   string
	Audio    string
	Captions string
	Videos   string
}{
	Images:   "renders-images",
	Audio:    "renders-audio",
	Captions: "renders-captions",
	Videos:   "renders-videos",
}

func (c *Cli) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutMs) * time.Millisecond
}

func (c *Cli) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMs) * time.Millisecond
}

func (c *Cli) TTSTimeout() time.Duration {
	return time.Duration(c.TTSTimeoutMs) * time.Millisecond
}

func (c *Cli) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutMs) * time.Millisecond
}

func (c *Cli) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}
