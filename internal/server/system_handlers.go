package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/daybook/internal/database"
)

// TradeCounter reports the size of the journal
type TradeCounter interface {
	Count() (int, error)
}

// SystemHandlers provides system monitoring endpoints
type SystemHandlers struct {
	startTime time.Time
	journalDB *database.DB
	cacheDB   *database.DB
	trades    TradeCounter
	hub       *LiveHub
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(journalDB, cacheDB *database.DB, trades TradeCounter, hub *LiveHub, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		startTime: time.Now(),
		journalDB: journalDB,
		cacheDB:   cacheDB,
		trades:    trades,
		hub:       hub,
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// systemStatus is the payload of GET /api/system/status
type systemStatus struct {
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	TradeCount    int                        `json:"trade_count"`
	LiveClients   int                        `json:"live_clients"`
	CPUPercent    float64                    `json:"cpu_percent"`
	MemoryPercent float64                    `json:"memory_percent"`
	Databases     map[string]*database.Stats `json:"databases"`
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := systemStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		LiveClients:   h.hub.ClientCount(),
		Databases:     make(map[string]*database.Stats),
	}

	count, err := h.trades.Count()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count trades")
		status.Status = "degraded"
	}
	status.TradeCount = count

	// Non-blocking sample: percpu=false, no interval wait
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		status.CPUPercent = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryPercent = vm.UsedPercent
	}

	for _, db := range []*database.DB{h.journalDB, h.cacheDB} {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			status.Status = "degraded"
			continue
		}
		status.Databases[db.Name()] = stats
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode status response")
	}
}

// HandleHealth handles GET /health: liveness plus a database ping
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.journalDB.Conn().PingContext(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
