package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adgalaxy/orbital/internal/config"
	"github.com/adgalaxy/orbital/internal/modules/classification"
	"github.com/adgalaxy/orbital/internal/modules/layout"
	"github.com/adgalaxy/orbital/internal/modules/similarity"
	"github.com/adgalaxy/orbital/internal/modules/snapshots"
	"github.com/adgalaxy/orbital/internal/modules/suggestions"
	"github.com/adgalaxy/orbital/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := snapshots.NewStore(db, log)
	require.NoError(t, err)

	classifier := classification.NewClassifier(rand.New(rand.NewSource(1)), log)
	sceneService := services.NewSceneService(
		layout.NewEngine(classifier, log),
		suggestions.NewGenerator(rand.New(rand.NewSource(1)), log),
		similarity.NewBuilder(log),
		log,
	)

	return New(Deps{
		Config:        &config.Config{Port: 0, StreamInterval: 0.1, StreamSpeed: 1, SnapshotRetention: 10},
		SceneService:  sceneService,
		SnapshotStore: store,
		Log:           log,
	})
}

const sampleTreeJSON = `{
	"id": "acct", "name": "Demo", "type": "account",
	"children": [
		{
			"id": "c1", "name": "Summer Sale", "type": "campaign",
			"metrics": {"roas": 5},
			"children": [
				{
					"id": "a1", "name": "Broad", "type": "adset",
					"children": [
						{"id": "cr1", "name": "video hook", "type": "creative", "metrics": {"roas": 5}},
						{"id": "cr2", "name": "video remix", "type": "creative", "metrics": {"roas": 4.8}}
					]
				}
			]
		}
	]
}`

func ingest(t *testing.T, srv *Server) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/scene", bytes.NewBufferString(sampleTreeJSON))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHandleIngest(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scene", bytes.NewBufferString(sampleTreeJSON))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["hash"])
	assert.NotEmpty(t, body["snapshotId"])
}

func TestHandleIngest_InvalidShape(t *testing.T) {
	srv := setupTestServer(t)

	payload := `{"id": "x", "name": "bad", "type": "creative"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scene", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOrbs_BeforeIngest(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scene/orbs", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleOrbs_FilterAndSearch(t *testing.T) {
	srv := setupTestServer(t)
	ingest(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/scene/orbs?filter=winners&q=summer", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Filter string `json:"filter"`
		Orbs   []struct {
			ID          string `json:"id"`
			IsWinner    bool   `json:"isWinner"`
			Highlighted bool   `json:"highlighted"`
		} `json:"orbs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "winners", body.Filter)

	var sawAccount, sawHighlight bool
	for _, o := range body.Orbs {
		if o.ID == "acct" {
			sawAccount = true
		}
		if o.Highlighted {
			sawHighlight = true
		}
	}
	assert.True(t, sawAccount, "account always included")
	assert.True(t, sawHighlight, "search annotates matches")
}

func TestHandlePositions(t *testing.T) {
	srv := setupTestServer(t)
	ingest(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/scene/positions?t=2.5", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		T         float64                       `json:"t"`
		Positions map[string]map[string]float64 `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2.5, body.T)
	assert.Contains(t, body.Positions, "acct")
	assert.Contains(t, body.Positions, "cr1")

	// Account pinned to origin.
	assert.Equal(t, 0.0, body.Positions["acct"]["x"])
	assert.Equal(t, 0.0, body.Positions["acct"]["z"])
}

func TestHandlePositions_BadTime(t *testing.T) {
	srv := setupTestServer(t)
	ingest(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/scene/positions?t=soon", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConnections(t *testing.T) {
	srv := setupTestServer(t)
	ingest(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/scene/connections", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Connections []struct {
			SourceID   string  `json:"sourceId"`
			TargetID   string  `json:"targetId"`
			Similarity float64 `json:"similarity"`
		} `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Connections, "cr1/cr2 pair qualifies on both rules")
	assert.Less(t, body.Connections[0].SourceID, body.Connections[0].TargetID)
}

func TestHandleSuggestions(t *testing.T) {
	srv := setupTestServer(t)
	ingest(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/scene/suggestions", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Orbs []struct {
			ID           string `json:"id"`
			IsSuggestion bool   `json:"isSuggestion"`
		} `json:"orbs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// Account plus the triple for the one qualifying campaign.
	assert.Len(t, body.Orbs, 4)
}

func TestHandleCounts(t *testing.T) {
	srv := setupTestServer(t)
	ingest(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/scene/counts", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var counts services.SceneCounts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 1, counts.Campaigns)
	assert.Equal(t, 2, counts.Creatives)
	assert.Equal(t, 3, counts.Suggestions)
}

func TestHandleSnapshotList(t *testing.T) {
	srv := setupTestServer(t)
	ingest(t, srv)
	ingest(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/snapshots?limit=1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Snapshots []snapshots.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Snapshots, 1)
}

func TestHandleHealth(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSystemStatus(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "uptimeSeconds")
	assert.Nil(t, body["scene"], "no scene before the first snapshot")
}
