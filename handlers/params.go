package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/httpx"
	"github.com/jordannanyan/plagiarism-backend/store"
)

// ActivateParamsRequest rotates the algorithm parameter tuple.
type ActivateParamsRequest struct {
	K         int     `json:"k"`
	W         int     `json:"w"`
	Base      int     `json:"base"`
	Threshold float64 `json:"threshold"`
}

type ParamsHandler struct {
	logger *zap.Logger
	params *store.ParamsStore
}

func NewParamsHandler(logger *zap.Logger, params *store.ParamsStore) *ParamsHandler {
	return &ParamsHandler{logger: logger, params: params}
}

func (h *ParamsHandler) List(w http.ResponseWriter, r *http.Request) {
	history, err := h.params.List(r.Context())
	if err != nil {
		h.logger.Error("Params list failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to list parameters")
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}

// Activate closes the open parameter row and makes the submitted tuple
// active. Running checks keep the snapshot they started with.
func (h *ParamsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req ActivateParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.K < 1 || req.W < 1 {
		httpx.Error(w, http.StatusBadRequest, "k and w must be at least 1")
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		httpx.Error(w, http.StatusBadRequest, "threshold must be within [0, 1]")
		return
	}
	if req.Base == 0 {
		req.Base = 257
	}

	id, err := h.params.Activate(r.Context(), req.K, req.W, req.Base, req.Threshold)
	if err != nil {
		h.logger.Error("Params activation failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to activate parameters")
		return
	}

	h.logger.Info("Parameters activated",
		zap.Int("params_id", id), zap.Int("k", req.K), zap.Int("w", req.W),
		zap.Float64("threshold", req.Threshold))
	httpx.JSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}
