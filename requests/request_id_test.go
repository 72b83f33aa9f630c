package requests

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetRequestIdGeneratesWhenAbsent(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	id := GetRequestId(req)
	require.NotEmpty(t, id)
	require.Equal(t, id, req.Header.Get(requestIDParam))
}

func TestGetRequestIdReusesExisting(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDParam, "existing-id")
	require.Equal(t, "existing-id", GetRequestId(req))
}
