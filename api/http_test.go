package api

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/livepeer/catalyst-api/statestore"
	"github.com/livepeer/catalyst-api/wizard"
)

func newStoreMock(t *testing.T) (*statestore.Gateway, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return statestore.New(db), mock
}

func TestNewRouterRegistersRoutes(t *testing.T) {
	store, _ := newStoreMock(t)
	router := NewRouter(Deps{Store: store, Wizard: wizard.New()})

	cases := []struct{ method, path string }{
		{"POST", "/videos"},
		{"POST", "/videos/:id/script"},
		{"POST", "/videos/:id/storyboard"},
		{"POST", "/videos/:id/scenes/:index/dirty"},
		{"POST", "/videos/:id/assets"},
		{"POST", "/videos/:id/render"},
		{"GET", "/videos/:id"},
		{"GET", "/ok"},
		{"GET", "/sysinfo"},
	}
	for _, c := range cases {
		handle, _, _ := router.Lookup(c.method, c.path)
		require.NotNilf(t, handle, "expected a registered handler for %s %s", c.method, c.path)
	}
}

func TestCreateVideoRejectsEmptyInput(t *testing.T) {
	store, _ := newStoreMock(t)
	router := NewRouter(Deps{Store: store, Wizard: wizard.New()})

	req := httptest.NewRequest(http.MethodPost, "/videos", strings.NewReader(`{"input_text":""}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVideoNotFound(t *testing.T) {
	store, mock := newStoreMock(t)
	mock.ExpectQuery("(?s)SELECT.*FROM videos WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	router := NewRouter(Deps{Store: store, Wizard: wizard.New()})
	req := httptest.NewRequest(http.MethodGet, "/videos/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
