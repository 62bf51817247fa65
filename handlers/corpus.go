package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/checker"
	"github.com/jordannanyan/plagiarism-backend/detect"
	"github.com/jordannanyan/plagiarism-backend/httpx"
	"github.com/jordannanyan/plagiarism-backend/store"
)

// CreateCorpusRequest registers a reference document. Text arrives inline;
// source_ref records where it came from (filename or URL).
type CreateCorpusRequest struct {
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	SourceRef  string `json:"source_ref"`
	Text       string `json:"text"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type CorpusHandler struct {
	logger   *zap.Logger
	corpus   *store.CorpusStore
	texts    *store.TextFiles
	sigCache *checker.RedisSignatureCache
}

func NewCorpusHandler(logger *zap.Logger, corpus *store.CorpusStore, texts *store.TextFiles, sigCache *checker.RedisSignatureCache) *CorpusHandler {
	return &CorpusHandler{logger: logger, corpus: corpus, texts: texts, sigCache: sigCache}
}

func (h *CorpusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCorpusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Text) == "" {
		httpx.Error(w, http.StatusBadRequest, "Title and text are required")
		return
	}
	if req.SourceType == "" {
		req.SourceType = "upload"
	}
	if req.SourceType != "upload" && req.SourceType != "url" {
		httpx.Error(w, http.StatusBadRequest, "source_type must be upload or url")
		return
	}

	normalized := detect.Normalize(req.Text)
	pathText, _, err := h.texts.WriteText("corpus", 0, normalized)
	if err != nil {
		h.logger.Error("Corpus text write failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to store corpus text")
		return
	}

	id, err := h.corpus.Create(r.Context(), req.Title, req.SourceType, req.SourceRef, pathText)
	if err != nil {
		h.logger.Error("Corpus insert failed", zap.Error(err))
		if removeErr := h.texts.Remove(pathText); removeErr != nil {
			h.logger.Warn("Orphaned corpus text file", zap.String("path", pathText), zap.Error(removeErr))
		}
		httpx.Error(w, http.StatusInternalServerError, "Failed to register corpus document")
		return
	}

	h.logger.Info("Corpus document registered",
		zap.Int("corpus_id", id), zap.String("source_type", req.SourceType))
	httpx.JSON(w, http.StatusCreated, map[string]interface{}{"id": id, "title": req.Title})
}

func (h *CorpusHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.corpus.List(r.Context())
	if err != nil {
		h.logger.Error("Corpus list failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to list corpus")
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

// SetActive toggles a corpus entry in or out of the active set and drops its
// cached signatures so the next check recomputes them.
func (h *CorpusHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Invalid corpus id")
		return
	}
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.corpus.SetActive(r.Context(), id, req.Active); err != nil {
		httpx.Error(w, http.StatusNotFound, "Corpus document not found")
		return
	}
	if h.sigCache != nil {
		h.sigCache.Invalidate(r.Context(), id)
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"id": id, "active": req.Active})
}
