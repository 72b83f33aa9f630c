package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := &Cli{}
	c.Defaults()
	require.Equal(t, DefaultImageConcurrency, c.ImageConcurrency)
	require.Equal(t, DefaultImageTimeoutMs, c.ImageTimeoutMs)
	require.Equal(t, DefaultRenderTimeoutMs, c.RenderTimeoutMs)
	require.Equal(t, DefaultRetryAttempts, c.RetryAttempts)
	require.Equal(t, DefaultFPS, c.FPS)
}

func TestDefaultsDoesNotOverrideSetValues(t *testing.T) {
	c := &Cli{ImageConcurrency: 7}
	c.Defaults()
	require.Equal(t, 7, c.ImageConcurrency)
}

func TestRequiredEnvMissing(t *testing.T) {
	c := &Cli{}
	missing := c.RequiredEnvMissing()
	require.Equal(t, []string{
		"STATE_STORE_URL",
		"SERVICE_ROLE_CREDENTIAL",
		"LLM_CREDENTIAL",
		"IMAGE_PROVIDER_CREDENTIAL",
		"TTS_CREDENTIAL",
	}, missing)
}

func TestRequiredEnvMissingNoneWhenSet(t *testing.T) {
	c := &Cli{
		StateStoreURL:     "postgres://x",
		ServiceRoleCred:   "role",
		LLMCredential:     "llm",
		ImageProviderCred: "img",
		TTSCredential:     "tts",
	}
	require.Empty(t, c.RequiredEnvMissing())
}
