package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/basket/internal/database"
	"github.com/aristath/basket/internal/events"
	"github.com/aristath/basket/internal/modules/analysis"
	"github.com/aristath/basket/internal/reliability"
	"github.com/aristath/basket/internal/scheduler"
)

// SystemHandlers handles monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	historyDB   *database.DB
	cacheDB     *database.DB
	reports     *analysis.ReportRepository
	archiver    *reliability.ReportArchiver
	events      *events.Manager
	jobs        map[string]scheduler.Job
	jobOrder    []string
	scheduler   *scheduler.Scheduler
	systemStats func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance. Any dependency
// may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	historyDB *database.DB,
	cacheDB *database.DB,
	reports *analysis.ReportRepository,
	archiver *reliability.ReportArchiver,
	eventManager *events.Manager,
	jobs []scheduler.Job,
	sched *scheduler.Scheduler,
) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		historyDB:   historyDB,
		cacheDB:     cacheDB,
		reports:     reports,
		archiver:    archiver,
		events:      eventManager,
		jobs:        make(map[string]scheduler.Job, len(jobs)),
		scheduler:   sched,
	}
	for _, job := range jobs {
		h.jobs[job.Name()] = job
		h.jobOrder = append(h.jobOrder, job.Name())
	}
	h.systemStats = h.getSystemStats
	return h
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/database", h.HandleDatabaseStats)
		r.Get("/archive", h.HandleArchiveList)
		r.Get("/jobs", h.HandleJobsList)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
	})
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status           string  `json:"status"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
	GoVersion        string  `json:"go_version"`
	Goroutines       int     `json:"goroutines"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	CachedReports    int     `json:"cached_reports"`
	ReportCache      bool    `json:"report_cache_enabled"`
	ArchiveEnabled   bool    `json:"archive_enabled"`
	EventSubscribers int     `json:"event_subscribers"`
	LastCheck        string  `json:"last_check"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	resp := SystemStatusResponse{
		Status:         "healthy",
		UptimeSeconds:  int64(time.Since(h.startupTime).Seconds()),
		GoVersion:      runtime.Version(),
		Goroutines:     runtime.NumGoroutine(),
		CPUPercent:     cpuPercent,
		MemoryPercent:  memPercent,
		ReportCache:    h.reports != nil,
		ArchiveEnabled: h.archiver != nil,
		LastCheck:      time.Now().Format(time.RFC3339),
	}

	if h.reports != nil {
		count, err := h.reports.Count(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count cached reports")
			resp.Status = "degraded"
		}
		resp.CachedReports = count
	}

	if h.events != nil {
		for _, et := range events.AllEventTypes {
			resp.EventSubscribers += h.events.Bus().SubscriberCount(et)
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleDatabaseStats handles GET /api/system/database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	for _, db := range []*database.DB{h.historyDB, h.cacheDB} {
		if db == nil {
			continue
		}
		s, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			stats[db.Name()] = map[string]string{"error": err.Error()}
			continue
		}
		stats[db.Name()] = s
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": stats,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleArchiveList handles GET /api/system/archive
func (h *SystemHandlers) HandleArchiveList(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "report archive is not configured"})
		return
	}

	reports, err := h.archiver.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list archive")
		h.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": reports,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(reports),
		},
	})
}

// HandleJobsList handles GET /api/system/jobs. With a scheduler attached
// each entry carries its run history, otherwise only names are listed.
func (h *SystemHandlers) HandleJobsList(w http.ResponseWriter, r *http.Request) {
	var data interface{} = h.jobOrder
	if h.scheduler != nil {
		known := make(map[string]bool)
		statuses := h.scheduler.Status()
		for _, st := range statuses {
			known[st.Name] = true
		}
		for _, name := range h.jobOrder {
			if !known[name] {
				statuses = append(statuses, scheduler.JobStatus{Name: name})
			}
		}
		data = statuses
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job " + name})
		return
	}

	h.log.Info().Str("job", name).Msg("Manually triggering job")
	started := time.Now()

	run := job.Run
	if h.scheduler != nil {
		run = func() error { return h.scheduler.RunNow(job) }
	}

	if err := run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Job failed")
		if h.events != nil {
			h.events.EmitError("system", err, map[string]interface{}{"job": name})
		}
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "error",
			"job":    name,
			"error":  err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"job":         name,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

// getSystemStats samples CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cpuPercent, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
