package statestore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/livepeer/catalyst-api/video"
)

func newMock(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestInsert(t *testing.T) {
	gw, mock := newMock(t)
	mock.ExpectExec("INSERT INTO videos").WillReturnResult(sqlmock.NewResult(1, 1))

	r := &video.Record{
		ID:        "job-1",
		InputText: "a cat learns to surf",
		Status:    video.StatusCreated,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err := gw.Insert(context.Background(), r)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectByIDNotFound(t *testing.T) {
	gw, mock := newMock(t)
	mock.ExpectQuery("(?s)SELECT.*FROM videos WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := gw.SelectByID(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, xerrors.IsNotFound(err))
}

func TestUpdateNotFound(t *testing.T) {
	gw, mock := newMock(t)
	mock.ExpectExec("UPDATE videos SET").WillReturnResult(sqlmock.NewResult(0, 0))

	status := video.StatusScriptGenerated
	err := gw.Update(context.Background(), "missing", video.Patch{Status: &status})
	require.Error(t, err)
	require.True(t, xerrors.IsNotFound(err))
}

func TestUpdateBestEffortErrorWriteOnFailure(t *testing.T) {
	gw, mock := newMock(t)
	mock.ExpectExec("UPDATE videos SET").WillReturnError(assertErr)
	mock.ExpectExec("UPDATE videos SET error_message").WillReturnResult(sqlmock.NewResult(0, 1))

	status := video.StatusScriptGenerated
	err := gw.Update(context.Background(), "job-1", video.Patch{Status: &status})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var assertErr = xerrors.New(xerrors.KindUploadFailed, nil)
