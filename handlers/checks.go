package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/auth"
	"github.com/jordannanyan/plagiarism-backend/checker"
	"github.com/jordannanyan/plagiarism-backend/httpx"
	"github.com/jordannanyan/plagiarism-backend/store"
)

const previewRunes = 500

// CreateCheckRequest starts a plagiarism check for one of the caller's
// documents.
type CreateCheckRequest struct {
	DocID         int `json:"doc_id"`
	MaxCandidates int `json:"max_candidates,omitempty"`
}

// CheckDetailResponse is the GET payload: request row, result row, match
// rows ordered by descending score, the verification note when present, and
// an optional normalized-text preview.
type CheckDetailResponse struct {
	Check        *store.CheckRow        `json:"check"`
	Result       *store.ResultRow       `json:"result,omitempty"`
	Matches      []store.MatchRow       `json:"matches"`
	Verification *store.VerificationRow `json:"verification,omitempty"`
	Preview      string                 `json:"preview,omitempty"`
}

type ChecksHandler struct {
	logger       *zap.Logger
	checker      *checker.Checker
	checks       *store.CheckStore
	results      *store.ResultStore
	documents    *store.DocumentStore
	verification *store.VerificationStore
	texts        *store.TextFiles
}

func NewChecksHandler(logger *zap.Logger, chk *checker.Checker, checks *store.CheckStore,
	results *store.ResultStore, documents *store.DocumentStore,
	verification *store.VerificationStore, texts *store.TextFiles) *ChecksHandler {
	return &ChecksHandler{
		logger:       logger,
		checker:      chk,
		checks:       checks,
		results:      results,
		documents:    documents,
		verification: verification,
		texts:        texts,
	}
}

// Create runs a check synchronously and returns the outcome summary.
func (h *ChecksHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	requestedBy := userCtx.UserID
	if userCtx.Role == auth.RoleAdmin {
		// Admins may check any document.
		requestedBy = 0
	}

	outcome, err := h.checker.Run(r.Context(), requestedBy, req.DocID, req.MaxCandidates)
	if err != nil {
		kind := checker.KindOf(err)
		h.logger.Error("Check failed",
			zap.Int("doc_id", req.DocID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		httpx.ErrorWithCode(w, checker.HTTPStatus(err), string(kind), "Check failed")
		return
	}

	httpx.JSON(w, http.StatusCreated, outcome)
}

// Get returns a finished or in-flight check with its result and matches.
func (h *ChecksHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Invalid check id")
		return
	}

	check, err := h.checks.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Check lookup failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to load check")
		return
	}
	if check == nil {
		httpx.Error(w, http.StatusNotFound, "Check not found")
		return
	}
	if check.RequestedBy != userCtx.UserID &&
		userCtx.Role != auth.RoleAdmin && userCtx.Role != auth.RoleDosen {
		httpx.Error(w, http.StatusNotFound, "Check not found")
		return
	}

	resp := CheckDetailResponse{Check: check, Matches: []store.MatchRow{}}

	result, matches, err := h.results.FetchForCheck(r.Context(), id)
	if err != nil {
		h.logger.Error("Result fetch failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to load result")
		return
	}
	if result != nil {
		resp.Result = result
		if matches != nil {
			resp.Matches = matches
		}
		note, err := h.verification.ByResultID(r.Context(), result.ID)
		if err != nil {
			h.logger.Warn("Verification note fetch failed", zap.Error(err))
		} else if note != nil {
			resp.Verification = note
		}
	}

	if r.URL.Query().Get("preview") == "1" {
		if doc, docErr := h.documents.Get(r.Context(), check.DocID); docErr == nil && doc != nil {
			if text, readErr := h.texts.ReadText(r.Context(), doc.PathText); readErr == nil {
				runes := []rune(text)
				if len(runes) > previewRunes {
					runes = runes[:previewRunes]
				}
				resp.Preview = string(runes)
			}
		}
	}

	httpx.JSON(w, http.StatusOK, resp)
}
