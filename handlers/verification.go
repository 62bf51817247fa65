package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/auth"
	"github.com/jordannanyan/plagiarism-backend/httpx"
	"github.com/jordannanyan/plagiarism-backend/store"
)

// VerificationRequest records a dosen's judgement on a check result.
type VerificationRequest struct {
	Status   string `json:"status"`
	NoteText string `json:"note_text"`
}

type VerificationHandler struct {
	logger       *zap.Logger
	checks       *store.CheckStore
	results      *store.ResultStore
	verification *store.VerificationStore
	audit        *store.AuditStore
}

func NewVerificationHandler(logger *zap.Logger, checks *store.CheckStore,
	results *store.ResultStore, verification *store.VerificationStore,
	audit *store.AuditStore) *VerificationHandler {
	return &VerificationHandler{
		logger:       logger,
		checks:       checks,
		results:      results,
		verification: verification,
		audit:        audit,
	}
}

// Put upserts the verification note of a check's result. Each result carries
// at most one note; a second submission replaces the first.
func (h *VerificationHandler) Put(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	checkID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || checkID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Invalid check id")
		return
	}

	var req VerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !store.ValidVerificationStatus(req.Status) {
		httpx.Error(w, http.StatusBadRequest, "status must be wajar, perlu_revisi, or plagiarisme")
		return
	}

	result, _, err := h.results.FetchForCheck(r.Context(), checkID)
	if err != nil {
		h.logger.Error("Result fetch failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to load result")
		return
	}
	if result == nil {
		httpx.Error(w, http.StatusNotFound, "Check has no result to verify")
		return
	}

	note, err := h.verification.Upsert(r.Context(), result.ID, userCtx.UserID, req.Status, req.NoteText)
	if err != nil {
		h.logger.Error("Verification upsert failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to save verification")
		return
	}
	h.audit.Record(r.Context(), userCtx.UserID, "VERIFY_RESULT", "check_result", result.ID)

	httpx.JSON(w, http.StatusOK, note)
}
