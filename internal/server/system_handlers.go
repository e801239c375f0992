package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/adgalaxy/orbital/internal/modules/snapshots"
	"github.com/adgalaxy/orbital/internal/services"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves operational status for monitoring.
type SystemHandlers struct {
	scenes      *services.SceneService
	store       *snapshots.Store
	log         zerolog.Logger
	startupTime time.Time
}

// NewSystemHandlers creates the system handler set.
func NewSystemHandlers(scenes *services.SceneService, store *snapshots.Store, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		scenes:      scenes,
		store:       store,
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
	}
}

// HandleSystemStatus handles GET /api/system/status.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptimeSeconds": int(time.Since(h.startupTime).Seconds()),
		"goroutines":    runtime.NumGoroutine(),
	}

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		status["cpuPercent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Debug().Err(err).Msg("CPU stats unavailable")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status["memoryPercent"] = vm.UsedPercent
		status["memoryUsedMB"] = vm.Used / 1024 / 1024
	}

	if n, err := h.store.Count(); err == nil {
		status["snapshots"] = n
	}

	if scene, err := h.scenes.Current(); err == nil {
		status["scene"] = map[string]interface{}{
			"hash":    scene.Hash,
			"builtAt": scene.BuiltAt,
			"orbs":    len(scene.Orbs),
		}
	} else {
		status["scene"] = nil
	}

	writeJSON(w, http.StatusOK, status)
}
