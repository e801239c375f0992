package server

import (
	"context"
	"net/http"
	"time"

	"github.com/adgalaxy/orbital/internal/config"
	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/adgalaxy/orbital/internal/services"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const streamWriteTimeout = 10 * time.Second

// StreamHandler pushes resolved positions to the rendering collaborator
// over a websocket. The stream is the renderer's frame clock: one frame
// per interval, each frame a full position set at the stream's animation
// time.
type StreamHandler struct {
	scenes *services.SceneService
	cfg    *config.Config
	log    zerolog.Logger
}

// NewStreamHandler creates the position stream handler.
func NewStreamHandler(scenes *services.SceneService, cfg *config.Config, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		scenes: scenes,
		cfg:    cfg,
		log:    log.With().Str("handler", "stream").Logger(),
	}
}

// positionFrame is one websocket message.
type positionFrame struct {
	T         float64                `json:"t"`
	SceneHash string                 `json:"sceneHash"`
	Positions map[string]domain.Vec3 `json:"positions"`
}

// HandleStream handles GET /api/scene/stream. Frames continue across
// scene rebuilds: a new snapshot simply swaps the descriptor set under
// the same animation clock.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Debug().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	h.log.Info().Str("remote", r.RemoteAddr).Msg("Position stream opened")

	interval := time.Duration(h.cfg.StreamInterval * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-r.Context().Done():
			conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		case <-ticker.C:
		}

		t := time.Since(start).Seconds() * h.cfg.StreamSpeed

		scene, err := h.scenes.Current()
		if err != nil {
			// No scene yet: keep the connection open and wait for the
			// first snapshot.
			continue
		}

		positions, err := h.scenes.PositionsAt(t)
		if err != nil {
			h.log.Error().Err(err).Msg("Position resolution failed, closing stream")
			conn.Close(websocket.StatusInternalError, "position resolution failed")
			return
		}

		writeCtx, cancel := context.WithTimeout(r.Context(), streamWriteTimeout)
		err = wsjson.Write(writeCtx, conn, positionFrame{
			T:         t,
			SceneHash: scene.Hash,
			Positions: positions,
		})
		cancel()
		if err != nil {
			h.log.Debug().Err(err).Msg("Stream write failed, closing")
			return
		}
	}
}
