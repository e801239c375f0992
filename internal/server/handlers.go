package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/adgalaxy/orbital/internal/modules/query"
	"github.com/adgalaxy/orbital/internal/modules/snapshots"
	"github.com/adgalaxy/orbital/internal/services"
	"github.com/rs/zerolog"
)

// SceneHandlers serves scene ingestion and the query surface.
type SceneHandlers struct {
	scenes *services.SceneService
	store  *snapshots.Store
	log    zerolog.Logger
}

// NewSceneHandlers creates the scene handler set.
func NewSceneHandlers(scenes *services.SceneService, store *snapshots.Store, log zerolog.Logger) *SceneHandlers {
	return &SceneHandlers{
		scenes: scenes,
		store:  store,
		log:    log.With().Str("handler", "scene").Logger(),
	}
}

// HandleIngest handles POST /api/scene: a new hierarchy snapshot from
// the ads-data collaborator. The tree is persisted and the scene rebuilt
// wholesale.
func (h *SceneHandlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var root domain.HierarchyNode
	if err := json.NewDecoder(r.Body).Decode(&root); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	scene, err := h.scenes.BuildScene(&root)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTreeShape) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Scene build failed: "+err.Error())
		return
	}

	snap, err := h.store.Save(&root)
	if err != nil {
		// The scene is already live; losing history is worth a warning,
		// not a failed ingest.
		h.log.Warn().Err(err).Msg("Failed to persist snapshot")
	}

	response := map[string]interface{}{
		"hash":        scene.Hash,
		"counts":      scene.Counts,
		"connections": len(scene.Connections),
	}
	if snap != nil {
		response["snapshotId"] = snap.ID
	}
	writeJSON(w, http.StatusCreated, response)
}

// HandleOrbs handles GET /api/scene/orbs with filter, suggestion and
// search parameters.
func (h *SceneHandlers) HandleOrbs(w http.ResponseWriter, r *http.Request) {
	view := query.ParseViewFilter(r.URL.Query().Get("filter"))
	includeSuggestions := parseBool(r.URL.Query().Get("include_suggestions"), true)
	search := r.URL.Query().Get("q")

	orbs, err := h.scenes.Orbs(view, includeSuggestions, search)
	if err != nil {
		writeSceneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filter": view,
		"orbs":   orbs,
	})
}

// HandlePositions handles GET /api/scene/positions?t=<seconds>.
func (h *SceneHandlers) HandlePositions(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter t must be a number")
		return
	}

	positions, err := h.scenes.PositionsAt(t)
	if err != nil {
		writeSceneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"t":         t,
		"positions": positions,
	})
}

// HandleConnections handles GET /api/scene/connections.
func (h *SceneHandlers) HandleConnections(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scenes.Current()
	if err != nil {
		writeSceneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connections": scene.Connections,
	})
}

// HandleSuggestions handles GET /api/scene/suggestions.
func (h *SceneHandlers) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	orbs, err := h.scenes.Orbs(query.ViewSuggestionsOnly, true, "")
	if err != nil {
		writeSceneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orbs": orbs,
	})
}

// HandleCounts handles GET /api/scene/counts.
func (h *SceneHandlers) HandleCounts(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scenes.Current()
	if err != nil {
		writeSceneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scene.Counts)
}

// HandleConfig handles GET /api/scene/config: the active layout
// configuration, for debugging density issues.
func (h *SceneHandlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	scene, err := h.scenes.Current()
	if err != nil {
		writeSceneError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scene.Config)
}

// HandleSnapshotList handles GET /api/snapshots.
func (h *SceneHandlers) HandleSnapshotList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	list, err := h.store.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": list,
	})
}

func writeSceneError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNoScene) {
		writeError(w, http.StatusNotFound, "No scene built yet - ingest a hierarchy snapshot first")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
