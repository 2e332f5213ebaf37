package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/daybook/internal/database"
	"github.com/aristath/daybook/pkg/logger"
)

type stubCounter struct {
	count int
}

func (s *stubCounter) Count() (int, error) { return s.count, nil }

func testDB(t *testing.T, profile database.DatabaseProfile, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	return db
}

func TestHandleStatus(t *testing.T) {
	journal := testDB(t, database.ProfileJournal, "journal")
	cache := testDB(t, database.ProfileCache, "cache")
	hub := NewLiveHub(logger.Discard())

	h := NewSystemHandlers(journal, cache, &stubCounter{count: 7}, hub, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Status      string                     `json:"status"`
		TradeCount  int                        `json:"trade_count"`
		LiveClients int                        `json:"live_clients"`
		Databases   map[string]json.RawMessage `json:"databases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 7, status.TradeCount)
	assert.Zero(t, status.LiveClients)
	assert.Contains(t, status.Databases, "journal")
	assert.Contains(t, status.Databases, "cache")
}

func TestHandleHealth(t *testing.T) {
	journal := testDB(t, database.ProfileJournal, "journal")
	cache := testDB(t, database.ProfileCache, "cache")
	hub := NewLiveHub(logger.Discard())

	h := NewSystemHandlers(journal, cache, &stubCounter{}, hub, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
