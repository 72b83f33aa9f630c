package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(KindContentPolicy, fmt.Errorf("blocked"))
	require.Equal(t, KindContentPolicy, KindOf(err))
	require.True(t, IsContentPolicy(err))
	require.False(t, Retriable(err))
}

func TestKindOfUnclassified(t *testing.T) {
	require.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
	require.True(t, Retriable(fmt.Errorf("plain")))
}

func TestRetriablePolicy(t *testing.T) {
	require.False(t, Retriable(New(KindBadOutput, nil)))
	require.False(t, Retriable(New(KindInvalidStatus, nil)))
	require.False(t, Retriable(New(KindProviderAuth, nil)))
	require.True(t, Retriable(New(KindProviderQuota, nil)))
	require.True(t, Retriable(New(KindProviderTransient, nil)))
}

func TestUnretriable(t *testing.T) {
	err := Unretriable(fmt.Errorf("bar"))
	require.True(t, IsUnretriable(err))
	require.EqualError(t, err, "bar")
}

func TestWrappedKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("context: %w", New(KindTimeout, fmt.Errorf("deadline")))
	require.Equal(t, KindTimeout, KindOf(err))
}
