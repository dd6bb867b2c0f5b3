package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/snapshot"
	"github.com/wonny/fundscope/pkg/logger"
)

// SnapshotService is the orchestrator surface used by the API
type SnapshotService interface {
	CreateSnapshot(ctx context.Context, req snapshot.Request) snapshot.Result
	Status() snapshot.Status
	Running() bool
}

// SnapshotHandler handles snapshot build and query endpoints
// ⭐ SSOT: 스냅샷 API 핸들러는 이 구조체에서만
type SnapshotHandler struct {
	service SnapshotService
	store   contracts.SnapshotStore
	logs    contracts.BuildLogStore // optional
	logger  *logger.Logger

	// builds outlive the request that started them
	buildCtx context.Context
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(
	buildCtx context.Context,
	service SnapshotService,
	store contracts.SnapshotStore,
	logs contracts.BuildLogStore,
	log *logger.Logger,
) *SnapshotHandler {
	return &SnapshotHandler{
		service:  service,
		store:    store,
		logs:     logs,
		logger:   log,
		buildCtx: buildCtx,
	}
}

// CreateSnapshot starts a build in the background
// POST /api/snapshots  {"max_qualified": 230, "skip_filter": false}
func (h *SnapshotHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshot.Request
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.MaxQualified < 0 {
		respondError(w, http.StatusBadRequest, "max_qualified must not be negative")
		return
	}

	if h.service.Running() {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  contracts.ErrBusy.Error(),
			"status": h.service.Status(),
		})
		return
	}

	go func() {
		res := h.service.CreateSnapshot(h.buildCtx, req)
		if res.Kind == snapshot.ResultBusy {
			h.logger.Warn("Background snapshot build rejected: already running")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "snapshot build started",
		"request": req,
	})
}

// GetStatus returns the build progress record
// GET /api/snapshots/status
func (h *SnapshotHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Status())
}

// GetLatest returns the latest successful snapshot
// GET /api/snapshots/latest
func (h *SnapshotHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// ListSnapshots returns recent snapshots of any status
// GET /api/snapshots?limit=20
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	snaps, err := h.store.ListSnapshots(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list snapshots")
		respondError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}
	if snaps == nil {
		snaps = []*contracts.Snapshot{}
	}
	respondJSON(w, http.StatusOK, snaps)
}

// GetLatestFunds returns records of the latest successful snapshot
// GET /api/snapshots/latest/funds?theme=&label=&min_score=&limit=
func (h *SnapshotHandler) GetLatestFunds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &contracts.RecordFilter{
		Theme: q.Get("theme"),
		Label: contracts.Label(q.Get("label")),
		Limit: queryInt(r, "limit", 0),
	}
	if v := q.Get("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid min_score")
			return
		}
		filter.MinScore = minScore
	}

	snap, ok := h.latest(w, r)
	if !ok {
		return
	}

	recs, err := h.store.GetMetricsRecords(r.Context(), snap.ID, filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get metrics records")
		respondError(w, http.StatusInternalServerError, "Failed to get funds")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": snap,
		"count":    len(recs),
		"funds":    newFundViews(recs),
	})
}

// GetBuildLogs returns recent build log entries
// GET /api/build-logs?limit=20
func (h *SnapshotHandler) GetBuildLogs(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		respondJSON(w, http.StatusOK, []*contracts.BuildLog{})
		return
	}

	logs, err := h.logs.RecentBuildLogs(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get build logs")
		respondError(w, http.StatusInternalServerError, "Failed to get build logs")
		return
	}
	if logs == nil {
		logs = []*contracts.BuildLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

// latest writes 404 "no snapshot yet" when nothing succeeded so far
func (h *SnapshotHandler) latest(w http.ResponseWriter, r *http.Request) (*contracts.Snapshot, bool) {
	snap, err := h.store.GetLatestSuccessfulSnapshot(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to get latest snapshot")
		return nil, false
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "no snapshot yet")
		return nil, false
	}
	return snap, true
}
