package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/checker"
	"github.com/jordannanyan/plagiarism-backend/dbutil"
)

// DocumentRow mirrors one user_document row.
type DocumentRow struct {
	ID        int       `json:"id"`
	Owner     int       `json:"owner"`
	Title     string    `json:"title"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Status    string    `json:"status"`
	PathRaw   *string   `json:"path_raw,omitempty"`
	PathText  string    `json:"path_text"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentStore persists user documents. The raw upload path is optional;
// the normalized-text path is what every check reads.
type DocumentStore struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
}

func NewDocumentStore(logger *zap.Logger, dbManager *dbutil.ConnectionManager) *DocumentStore {
	return &DocumentStore{logger: logger, dbManager: dbManager}
}

func (s *DocumentStore) CreateTables() {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS user_document (
        id SERIAL PRIMARY KEY,
        owner INTEGER NOT NULL,
        title VARCHAR(255) NOT NULL,
        mime_type VARCHAR(100) NOT NULL DEFAULT 'text/plain',
        size_bytes BIGINT NOT NULL DEFAULT 0,
        status VARCHAR(20) NOT NULL DEFAULT 'ready',
        path_raw TEXT,
        path_text TEXT NOT NULL,
        created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_user_document_owner ON user_document(owner);`
	if _, err := s.dbManager.GetDB().Exec(createTableSQL); err != nil {
		s.logger.Fatal("Failed to create 'user_document' table", zap.Error(err))
	}
	s.logger.Info("'user_document' table is ready")
}

// Create inserts a document row and returns its id.
func (s *DocumentStore) Create(ctx context.Context, owner int, title, mimeType string, sizeBytes int64, pathText string) (int, error) {
	var id int
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        INSERT INTO user_document (owner, title, mime_type, size_bytes, path_text)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		owner, title, mimeType, sizeBytes, pathText).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user document: %w", err)
	}
	return id, nil
}

// Delete removes a document row. Registered as the compensation hook of the
// row-insert step of document registration.
func (s *DocumentStore) Delete(ctx context.Context, id int) error {
	_, err := s.dbManager.GetDB().ExecContext(ctx, `DELETE FROM user_document WHERE id = $1`, id)
	return err
}

// ByID resolves the checker's view of a document; nil when absent.
func (s *DocumentStore) ByID(ctx context.Context, id int) (*checker.Document, error) {
	var d checker.Document
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        SELECT id, owner, title, path_text FROM user_document WHERE id = $1`, id).
		Scan(&d.ID, &d.OwnerID, &d.Title, &d.PathText)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user document: %w", err)
	}
	return &d, nil
}

// Get returns the full row; nil when absent.
func (s *DocumentStore) Get(ctx context.Context, id int) (*DocumentRow, error) {
	var d DocumentRow
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        SELECT id, owner, title, mime_type, size_bytes, status, path_raw, path_text, created_at
        FROM user_document WHERE id = $1`, id).
		Scan(&d.ID, &d.Owner, &d.Title, &d.MimeType, &d.SizeBytes, &d.Status, &d.PathRaw, &d.PathText, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user document: %w", err)
	}
	return &d, nil
}

// ListByOwner returns the owner's documents, newest first.
func (s *DocumentStore) ListByOwner(ctx context.Context, owner int) ([]DocumentRow, error) {
	rows, err := s.dbManager.GetDB().QueryContext(ctx, `
        SELECT id, owner, title, mime_type, size_bytes, status, path_raw, path_text, created_at
        FROM user_document WHERE owner = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list user documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentRow{}
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(&d.ID, &d.Owner, &d.Title, &d.MimeType, &d.SizeBytes, &d.Status, &d.PathRaw, &d.PathText, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
