package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/dbutil"
)

// CheckRow mirrors one check_request row.
type CheckRow struct {
	ID          int        `json:"id"`
	RequestedBy int        `json:"requested_by"`
	DocID       int        `json:"doc_id"`
	ParamsID    int        `json:"params_id"`
	Status      string     `json:"status"`
	QueuedAt    time.Time  `json:"queued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// CheckStore drives the check_request state machine:
// queued -> processing -> (done | failed). Terminal transitions set
// finished_at.
type CheckStore struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
}

func NewCheckStore(logger *zap.Logger, dbManager *dbutil.ConnectionManager) *CheckStore {
	return &CheckStore{logger: logger, dbManager: dbManager}
}

func (s *CheckStore) CreateTables() {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS check_request (
        id SERIAL PRIMARY KEY,
        requested_by INTEGER NOT NULL,
        doc_id INTEGER NOT NULL,
        params_id INTEGER NOT NULL,
        status VARCHAR(12) NOT NULL DEFAULT 'queued'
            CHECK (status IN ('queued', 'processing', 'done', 'failed')),
        queued_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
        started_at TIMESTAMP WITH TIME ZONE,
        finished_at TIMESTAMP WITH TIME ZONE
    );
    CREATE INDEX IF NOT EXISTS idx_check_request_doc ON check_request(doc_id);`
	if _, err := s.dbManager.GetDB().Exec(createTableSQL); err != nil {
		s.logger.Fatal("Failed to create 'check_request' table", zap.Error(err))
	}
	s.logger.Info("'check_request' table is ready")
}

// Create inserts a queued request and returns its id.
func (s *CheckStore) Create(ctx context.Context, requestedBy, docID, paramsID int) (int, error) {
	var id int
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        INSERT INTO check_request (requested_by, doc_id, params_id)
        VALUES ($1, $2, $3) RETURNING id`,
		requestedBy, docID, paramsID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert check request: %w", err)
	}
	return id, nil
}

func (s *CheckStore) MarkProcessing(ctx context.Context, id int) error {
	return s.setStatus(ctx, id,
		`UPDATE check_request SET status = 'processing', started_at = NOW() WHERE id = $1`)
}

func (s *CheckStore) MarkDone(ctx context.Context, id int) error {
	return s.setStatus(ctx, id,
		`UPDATE check_request SET status = 'done', finished_at = NOW() WHERE id = $1`)
}

func (s *CheckStore) MarkFailed(ctx context.Context, id int) error {
	return s.setStatus(ctx, id,
		`UPDATE check_request SET status = 'failed', finished_at = NOW() WHERE id = $1`)
}

func (s *CheckStore) setStatus(ctx context.Context, id int, query string) error {
	if _, err := s.dbManager.GetDB().ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("update check request %d: %w", id, err)
	}
	return nil
}

// Get returns the request row; nil when absent.
func (s *CheckStore) Get(ctx context.Context, id int) (*CheckRow, error) {
	var c CheckRow
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        SELECT id, requested_by, doc_id, params_id, status, queued_at, started_at, finished_at
        FROM check_request WHERE id = $1`, id).
		Scan(&c.ID, &c.RequestedBy, &c.DocID, &c.ParamsID, &c.Status, &c.QueuedAt, &c.StartedAt, &c.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query check request: %w", err)
	}
	return &c, nil
}
