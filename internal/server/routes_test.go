package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/app"
	"github.com/Savio629/nregascan/internal/common"
	"github.com/Savio629/nregascan/internal/models"
)

type stubSummaryStore struct {
	count    int
	countErr error
}

func (s *stubSummaryStore) InsertBatch(entries []models.AggregatedEntry) error { return nil }

func (s *stubSummaryStore) ListByDate(date string) ([]models.AggregatedEntry, error) {
	return nil, nil
}

func (s *stubSummaryStore) Count() (int, error) { return s.count, s.countErr }

func testServer(store *stubSummaryStore) *Server {
	return New(&app.App{
		Config:       common.NewDefaultConfig(),
		Logger:       arbor.NewLogger(),
		SummaryStore: store,
	})
}

func statusPayload(t *testing.T, srv *Server) map[string]interface{} {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.statusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestStatusHandler_ReportsCount(t *testing.T) {
	payload := statusPayload(t, testServer(&stubSummaryStore{count: 42}))

	assert.Equal(t, float64(42), payload["summaries"])
	assert.NotContains(t, payload, "summaries_error")
	assert.Equal(t, "BASTI", payload["district"])
}

func TestStatusHandler_CountFailureNotReportedAsZero(t *testing.T) {
	payload := statusPayload(t, testServer(&stubSummaryStore{countErr: errors.New("store offline")}))

	assert.NotContains(t, payload, "summaries")
	assert.Equal(t, "store offline", payload["summaries_error"])
}
