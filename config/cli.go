package config

// Cli holds every configuration value recognized by cmd/server, bound by
// peterbourgon/ff/v3 from flags and/or environment variables. Field names
// mirror the flag names in snake/camel form; see cmd/server/main.go for the
// binding and spec.md §6 for the recognized option list.
type Cli struct {
	HTTPAddr string

	StateStoreURL       string
	ServiceRoleCred     string
	LLMCredential       string
	ImageProviderCred   string
	TTSCredential       string
	PublicBaseURL       string

	LLMBaseURL   string
	ImageBaseURL string
	TTSBaseURL   string

	// APIToken, if set, requires every request to the HTTP API to carry
	// a matching "Authorization: Bearer <token>" header. Left empty, the
	// API is unauthenticated (suitable for deployments gated upstream by
	// a network boundary or reverse proxy).
	APIToken string

	MetricsPort int
	PprofPort   int

	ImageConcurrency int
	ImageTimeoutMs   int
	LLMTimeoutMs     int
	TTSTimeoutMs     int
	RenderTimeoutMs  int
	RetryAttempts    int
	RetryBaseDelayMs int
	VoiceID          string
	FPS              int
}

// RequiredEnvMissing returns the names of every required configuration
// value that is unset, in the order the spec's startup check should report
// them.
func (c *Cli) RequiredEnvMissing() []string {
	var missing []string
	if c.StateStoreURL == "" {
		missing = append(missing, "STATE_STORE_URL")
	}
	if c.ServiceRoleCred == "" {
		missing = append(missing, "SERVICE_ROLE_CREDENTIAL")
	}
	if c.LLMCredential == "" {
		missing = append(missing, "LLM_CREDENTIAL")
	}
	if c.ImageProviderCred == "" {
		missing = append(missing, "IMAGE_PROVIDER_CREDENTIAL")
	}
	if c.TTSCredential == "" {
		missing = append(missing, "TTS_CREDENTIAL")
	}
	return missing
}

// Defaults populates every zero-valued numeric option with its
// spec-mandated default (spec.md §6 Configuration).
func (c *Cli) Defaults() {
	if c.ImageConcurrency == 0 {
		c.ImageConcurrency = DefaultImageConcurrency
	}
	if c.ImageTimeoutMs == 0 {
		c.ImageTimeoutMs = DefaultImageTimeoutMs
	}
	if c.LLMTimeoutMs == 0 {
		c.LLMTimeoutMs = DefaultLLMTimeoutMs
	}
	if c.TTSTimeoutMs == 0 {
		c.TTSTimeoutMs = DefaultTTSTimeoutMs
	}
	if c.RenderTimeoutMs == 0 {
		c.RenderTimeoutMs = DefaultRenderTimeoutMs
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryBaseDelayMs == 0 {
		c.RetryBaseDelayMs = DefaultRetryBaseDelayMs
	}
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = DefaultMetricsPort
	}
	if c.PprofPort == 0 {
		c.PprofPort = DefaultPprofPort
	}
}
