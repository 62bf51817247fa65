package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/checker"
	"github.com/jordannanyan/plagiarism-backend/dbutil"
)

// CorpusRow mirrors one corpus_document row.
type CorpusRow struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	SourceType string    `json:"source_type"`
	SourceRef  string    `json:"source_ref"`
	PathText   string    `json:"path_text"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// CorpusStore persists the reference corpus. Checks snapshot the active
// membership once at their start; mutations here only affect later checks.
type CorpusStore struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
}

func NewCorpusStore(logger *zap.Logger, dbManager *dbutil.ConnectionManager) *CorpusStore {
	return &CorpusStore{logger: logger, dbManager: dbManager}
}

func (s *CorpusStore) CreateTables() {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS corpus_document (
        id SERIAL PRIMARY KEY,
        title VARCHAR(255) NOT NULL,
        source_type VARCHAR(10) NOT NULL CHECK (source_type IN ('upload', 'url')),
        source_ref TEXT NOT NULL DEFAULT '',
        path_text TEXT NOT NULL,
        is_active SMALLINT NOT NULL DEFAULT 1,
        created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_corpus_document_active ON corpus_document(is_active);`
	if _, err := s.dbManager.GetDB().Exec(createTableSQL); err != nil {
		s.logger.Fatal("Failed to create 'corpus_document' table", zap.Error(err))
	}
	s.logger.Info("'corpus_document' table is ready")
}

// Create inserts a corpus entry and returns its id.
func (s *CorpusStore) Create(ctx context.Context, title, sourceType, sourceRef, pathText string) (int, error) {
	var id int
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        INSERT INTO corpus_document (title, source_type, source_ref, path_text)
        VALUES ($1, $2, $3, $4) RETURNING id`,
		title, sourceType, sourceRef, pathText).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert corpus document: %w", err)
	}
	return id, nil
}

// SetActive toggles membership of an entry in the active corpus.
func (s *CorpusStore) SetActive(ctx context.Context, id int, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	res, err := s.dbManager.GetDB().ExecContext(ctx,
		`UPDATE corpus_document SET is_active = $1 WHERE id = $2`, flag, id)
	if err != nil {
		return fmt.Errorf("update corpus document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("corpus document %d not found", id)
	}
	return nil
}

// ActiveEntries returns the active corpus snapshot in id order.
func (s *CorpusStore) ActiveEntries(ctx context.Context) ([]checker.CorpusEntry, error) {
	rows, err := s.dbManager.GetDB().QueryContext(ctx, `
        SELECT id, title, source_type, path_text
        FROM corpus_document WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active corpus: %w", err)
	}
	defer rows.Close()

	entries := []checker.CorpusEntry{}
	for rows.Next() {
		var e checker.CorpusEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.SourceType, &e.PathText); err != nil {
			return nil, fmt.Errorf("scan corpus entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List returns every corpus entry, newest first.
func (s *CorpusStore) List(ctx context.Context) ([]CorpusRow, error) {
	rows, err := s.dbManager.GetDB().QueryContext(ctx, `
        SELECT id, title, source_type, source_ref, path_text, is_active, created_at
        FROM corpus_document ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list corpus documents: %w", err)
	}
	defer rows.Close()

	entries := []CorpusRow{}
	for rows.Next() {
		var e CorpusRow
		var activeFlag int
		if err := rows.Scan(&e.ID, &e.Title, &e.SourceType, &e.SourceRef, &e.PathText, &activeFlag, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan corpus document: %w", err)
		}
		e.IsActive = activeFlag == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
