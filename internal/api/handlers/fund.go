package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/scoring"
	"github.com/wonny/fundscope/pkg/logger"
)

const chartPoints = 120

// NavSource fetches NAV history for the detail charts
type NavSource interface {
	GetNavSeries(ctx context.Context, code string) ([]contracts.NavPoint, error)
}

// FundHandler serves the fund detail view
type FundHandler struct {
	store  contracts.SnapshotStore
	navs   NavSource // optional; charts omitted when nil
	engine *metrics.Engine
	logger *logger.Logger
}

// NewFundHandler creates a new fund handler
func NewFundHandler(store contracts.SnapshotStore, navs NavSource, engine *metrics.Engine, log *logger.Logger) *FundHandler {
	return &FundHandler{
		store:  store,
		navs:   navs,
		engine: engine,
		logger: log,
	}
}

// FundDetail record in the latest snapshot plus derived views
type FundDetail struct {
	SnapshotID    int64                    `json:"snapshot_id"`
	Fund          *contracts.Fund          `json:"fund,omitempty"`
	Record        FundView                 `json:"record"`
	PrimaryReason string                   `json:"primary_reason"`
	Advice        scoring.Advice           `json:"advice"`
	Drawdown      []metrics.DrawdownPoint  `json:"drawdown,omitempty"`
	Chart         []metrics.ChartPoint     `json:"chart,omitempty"`
}

// GetFund returns one fund from the latest successful snapshot
// GET /api/funds/{code}
func (h *FundHandler) GetFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := mux.Vars(r)["code"]

	snap, err := h.store.GetLatestSuccessfulSnapshot(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to get latest snapshot")
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "no snapshot yet")
		return
	}

	recs, err := h.store.GetMetricsRecords(ctx, snap.ID, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get metrics records")
		respondError(w, http.StatusInternalServerError, "Failed to get fund")
		return
	}

	var rec *contracts.MetricsRecord
	for _, candidate := range recs {
		if candidate.Code == code {
			rec = candidate
			break
		}
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "fund not in latest snapshot")
		return
	}

	detail := FundDetail{
		SnapshotID:    snap.ID,
		Record:        newFundView(rec),
		PrimaryReason: rec.PrimaryReason(),
		Advice:        scoring.AdviceFor(rec),
	}

	fund, err := h.store.GetFund(ctx, code)
	if err == nil {
		detail.Fund = fund
	} else if !errors.Is(err, contracts.ErrNotFound) {
		h.logger.WithError(err).WithField("fund_code", code).Warn("Failed to get fund master data")
	}

	if h.navs != nil {
		nav, err := h.navs.GetNavSeries(ctx, code)
		if err != nil {
			h.logger.WithError(err).WithField("fund_code", code).Warn("NAV unavailable for charts")
		} else {
			detail.Drawdown = h.engine.RollingDrawdown(nav, metrics.RollingDrawdownWindow)
			detail.Chart = h.engine.ChartSeries(nav, chartPoints)
		}
	}

	respondJSON(w, http.StatusOK, detail)
}
