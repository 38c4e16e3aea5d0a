package web_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/AnshulAlgoS/StudyChamp-sub000/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func archivedResult(roomId string) domain.Result {
	return domain.Result{
		RoomId:     roomId,
		JoinCode:   "AB12CD",
		Challenge:  domain.Challenge{Subject: "algebra", TotalTasks: 5, TimeLimitMinutes: 30},
		WinnerId:   "host",
		WinnerName: "Host",
		WinnerXP:   1400,
		Rows: []domain.ResultRow{
			{ParticipantId: "host", DisplayName: "Host", Position: 1, TasksCompleted: 5, TotalTasks: 5, XP: 1400},
		},
		CompletedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecentResultsHandler(t *testing.T) {
	f := newFixture(t)
	f.history.On("RecentResults", mock.Anything, 20).
		Return([]domain.Result{archivedResult("room-1"), archivedResult("room-2")}, nil)

	rec := f.request(t, hostIdentity, http.MethodGet, "/arena/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "room-1", results[0].RoomId)

	t.Run("explicit limit", func(t *testing.T) {
		f := newFixture(t)
		f.history.On("RecentResults", mock.Anything, 5).Return([]domain.Result{}, nil)
		rec := f.request(t, hostIdentity, http.MethodGet, "/arena/history?limit=5", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.history.AssertExpectations(t)
	})

	t.Run("limit is capped", func(t *testing.T) {
		f := newFixture(t)
		f.history.On("RecentResults", mock.Anything, 100).Return([]domain.Result{}, nil)
		rec := f.request(t, hostIdentity, http.MethodGet, "/arena/history?limit=5000", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.history.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		f := newFixture(t)
		rec := f.request(t, hostIdentity, http.MethodGet, "/arena/history?limit=-3", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.history.AssertNotCalled(t, "RecentResults", mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := f.request(t, domain.Identity{}, http.MethodGet, "/arena/history", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("archive failure", func(t *testing.T) {
		f := newFixture(t)
		f.history.On("RecentResults", mock.Anything, 20).
			Return(nil, fmt.Errorf("%w: connection refused", storage.UnexpectedDatabaseError))
		rec := f.request(t, hostIdentity, http.MethodGet, "/arena/history", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestArchivedResultHandler(t *testing.T) {
	f := newFixture(t)
	f.history.On("GetResult", mock.Anything, "room-1").Return(archivedResult("room-1"), nil)

	rec := f.request(t, hostIdentity, http.MethodGet, "/arena/history/room-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "host", result.WinnerId)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 1, result.Rows[0].Position)

	t.Run("not archived", func(t *testing.T) {
		f := newFixture(t)
		f.history.On("GetResult", mock.Anything, "ghost").Return(domain.Result{}, storage.ErrResultNotFound)
		rec := f.request(t, hostIdentity, http.MethodGet, "/arena/history/ghost", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := f.request(t, domain.Identity{}, http.MethodGet, "/arena/history/room-1", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
