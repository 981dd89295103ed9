package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/eventpulse/internal/config"
	"github.com/gyaneshwarpardhi/eventpulse/internal/engine"
	"github.com/gyaneshwarpardhi/eventpulse/internal/export"
	"github.com/gyaneshwarpardhi/eventpulse/internal/metrics"
	"github.com/gyaneshwarpardhi/eventpulse/internal/store"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	store  *store.Store
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, st *store.Store, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, store: st, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/events", h.listEvents)
	h.mux.HandleFunc("GET /v1/events/{id}", h.eventDetails)
	h.mux.HandleFunc("GET /v1/events/{id}/export.xlsx", h.exportXLSX)
	h.mux.HandleFunc("GET /v1/events/{id}/export.pdf", h.exportPDF)
	h.mux.HandleFunc("POST /v1/events/bulk", h.bulkDetails)
	h.mux.HandleFunc("POST /v1/snapshot/reload", h.reloadSnapshot)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// GET /v1/events — events of the organization, ordered by name.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, engine.ErrNoSnapshot.Error())
		return
	}
	events := snap.Events()
	out := make([]eventSummary, 0, len(events))
	for _, ev := range events {
		out = append(out, newEventSummary(ev))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events":             out,
		"count":              len(out),
		"snapshot_loaded_at": snap.LoadedAt,
	})
}

// GET /v1/events/{id} — indicators of one event.
func (h *Handler) eventDetails(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newEventDetails(res))
}

// GET /v1/events/{id}/export.xlsx — indicators as a workbook.
func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r)
	if !ok {
		return
	}
	data, err := export.BuildReportXLSX(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeFile(w, xlsxContentType, fmt.Sprintf("event-%d.xlsx", res.Event.ID), data)
}

// GET /v1/events/{id}/export.pdf — one-page summary.
func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r)
	if !ok {
		return
	}
	data, err := export.BuildReportPDF(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeFile(w, pdfContentType, fmt.Sprintf("event-%d.pdf", res.Event.ID), data)
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request) (*engine.Result, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid event id %q", r.PathValue("id")))
		return nil, false
	}
	res, err := h.eng.ComputeSync(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	metrics.QueueUtilization.Set(h.eng.QueueUtilization())
	return res, true
}

type bulkRequest struct {
	EventIDs []int64 `json:"event_ids"`
}

type bulkFailure struct {
	EventID int64  `json:"event_id"`
	Error   string `json:"error"`
}

// POST /v1/events/bulk — indicators of several events. Unknown ids are skipped.
func (h *Handler) bulkDetails(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(req.EventIDs) == 0 {
		writeError(w, http.StatusBadRequest, "event_ids must contain at least one id")
		return
	}
	if limit := h.eng.Conf().BulkLimit; len(req.EventIDs) > limit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bulk size %d exceeds max %d", len(req.EventIDs), limit))
		return
	}

	results := make([]eventDetails, 0, len(req.EventIDs))
	skipped := []int64{}
	failed := []bulkFailure{}
	for _, item := range h.eng.ComputeBatch(r.Context(), req.EventIDs) {
		switch {
		case item.Err == nil:
			results = append(results, newEventDetails(item.Result))
		case errors.Is(item.Err, engine.ErrEventNotFound):
			skipped = append(skipped, item.EventID)
		case errors.Is(item.Err, engine.ErrNoSnapshot):
			writeError(w, http.StatusServiceUnavailable, item.Error)
			return
		default:
			failed = append(failed, bulkFailure{EventID: item.EventID, Error: item.Error})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":  uuid.New().String(),
		"results": results,
		"skipped": skipped,
		"failed":  failed,
	})
}

// POST /v1/snapshot/reload — reload records from the source now.
func (h *Handler) reloadSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":  true,
		"source":    snap.Source,
		"loaded_at": snap.LoadedAt,
		"counts":    snap.Counts(),
	})
}

// POST /v1/config/reload — re-read the config file from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"version":  cfg.Version,
		"engine":   h.eng.Conf(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 before the first snapshot or if the queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if h.store.Snapshot() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "no_data",
			"queue_utilization": util,
		})
		return
	}
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
