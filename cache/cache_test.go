package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testEntry struct {
	Value string
}

func TestStoreAndGet(t *testing.T) {
	c := New[testEntry]()
	c.Store("job-1", testEntry{Value: "a"})
	require.Equal(t, "a", c.Get("job-1").Value)
}

func TestGetMissingReturnsZeroValue(t *testing.T) {
	c := New[testEntry]()
	require.Equal(t, testEntry{}, c.Get("missing"))
}

func TestRemove(t *testing.T) {
	c := New[testEntry]()
	c.Store("job-1", testEntry{Value: "a"})
	c.Remove("", "job-1")
	require.Equal(t, testEntry{}, c.Get("job-1"))
}
