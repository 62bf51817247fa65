package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/auth"
	"github.com/jordannanyan/plagiarism-backend/dbutil"
	"github.com/jordannanyan/plagiarism-backend/detect"
	"github.com/jordannanyan/plagiarism-backend/httpx"
	"github.com/jordannanyan/plagiarism-backend/store"
)

// CreateDocumentRequest registers a plain-text document. Binary container
// extraction (PDF/DOCX) happens upstream; this service accepts text only.
type CreateDocumentRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type DocumentsHandler struct {
	logger    *zap.Logger
	documents *store.DocumentStore
	texts     *store.TextFiles
}

func NewDocumentsHandler(logger *zap.Logger, documents *store.DocumentStore, texts *store.TextFiles) *DocumentsHandler {
	return &DocumentsHandler{logger: logger, documents: documents, texts: texts}
}

// Create registers a document: the database row and its normalized-text file
// are coordinated through a compensated transaction: the file is written
// first, and a failed row insert removes the file again.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Text) == "" {
		httpx.Error(w, http.StatusBadRequest, "Title and text are required")
		return
	}

	normalized := detect.Normalize(req.Text)

	var docID int
	var pathText string
	var size int64

	ct := dbutil.NewCompensatedTransaction(
		fmt.Sprintf("doc_%d_%d", userCtx.UserID, time.Now().UnixNano()), h.logger)

	ct.AddStep(dbutil.CompensatedStep{
		Name: "write_text_file",
		Execute: func(ctx context.Context) error {
			var err error
			pathText, size, err = h.texts.WriteText("doc", userCtx.UserID, normalized)
			return err
		},
		Compensate: func(ctx context.Context) error {
			return h.texts.Remove(pathText)
		},
	})
	ct.AddStep(dbutil.CompensatedStep{
		Name: "database_insert",
		Execute: func(ctx context.Context) error {
			var err error
			docID, err = h.documents.Create(ctx, userCtx.UserID, req.Title, "text/plain", size, pathText)
			return err
		},
		Compensate: func(ctx context.Context) error {
			return h.documents.Delete(ctx, docID)
		},
	})

	if err := ct.Execute(r.Context()); err != nil {
		h.logger.Error("Document registration failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to register document")
		return
	}

	h.logger.Info("Document registered",
		zap.Int("doc_id", docID), zap.Int("owner", userCtx.UserID))
	httpx.JSON(w, http.StatusCreated, map[string]interface{}{
		"id":         docID,
		"title":      req.Title,
		"size_bytes": size,
	})
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	docs, err := h.documents.ListByOwner(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Error("Document list failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "Invalid document id")
		return
	}

	doc, err := h.documents.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Document lookup failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to load document")
		return
	}
	if doc == nil || (doc.Owner != userCtx.UserID && userCtx.Role != auth.RoleAdmin) {
		httpx.Error(w, http.StatusNotFound, "Document not found")
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}
