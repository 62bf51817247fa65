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

// ParamsRow mirrors one algoritma_params history row.
type ParamsRow struct {
	ID         int        `json:"id"`
	K          int        `json:"k"`
	W          int        `json:"w"`
	Base       int        `json:"base"`
	Threshold  float64    `json:"threshold"`
	ActiveFrom time.Time  `json:"active_from"`
	ActiveTo   *time.Time `json:"active_to,omitempty"`
}

const activeParamsQuery = `
    SELECT id, k, w, base, threshold
    FROM algoritma_params
    WHERE active_from <= NOW() AND (active_to IS NULL OR active_to > NOW())
    ORDER BY active_from DESC
    LIMIT 1`

// ParamsStore reads and rotates the algoritma_params history table. The row
// active at the start of a check is the most recently activated one whose
// window covers now.
type ParamsStore struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
	txManager *dbutil.TransactionManager
}

func NewParamsStore(logger *zap.Logger, dbManager *dbutil.ConnectionManager) *ParamsStore {
	return &ParamsStore{
		logger:    logger,
		dbManager: dbManager,
		txManager: dbutil.NewTransactionManager(dbManager, logger),
	}
}

func (s *ParamsStore) CreateTables() {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS algoritma_params (
        id SERIAL PRIMARY KEY,
        k INTEGER NOT NULL CHECK (k >= 1),
        w INTEGER NOT NULL CHECK (w >= 1),
        base INTEGER NOT NULL DEFAULT 257,
        threshold DOUBLE PRECISION NOT NULL CHECK (threshold >= 0 AND threshold <= 1),
        active_from TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
        active_to TIMESTAMP WITH TIME ZONE
    );
    CREATE INDEX IF NOT EXISTS idx_algoritma_params_active ON algoritma_params(active_from, active_to);`
	if _, err := s.dbManager.GetDB().Exec(createTableSQL); err != nil {
		s.logger.Fatal("Failed to create 'algoritma_params' table", zap.Error(err))
	}
	s.logger.Info("'algoritma_params' table is ready")
}

// PrepareStatements caches the hot-path query run at the start of every
// check.
func (s *ParamsStore) PrepareStatements() {
	if err := s.dbManager.PrepareStatement("active_params", activeParamsQuery); err != nil {
		s.logger.Fatal("Failed to prepare params statements", zap.Error(err))
	}
}

// Active returns the currently active parameter row, or nil when none is.
func (s *ParamsStore) Active(ctx context.Context) (*checker.Params, error) {
	var p checker.Params
	err := s.dbManager.QueryRowPrepared(ctx, "active_params").
		Scan(&p.ID, &p.K, &p.W, &p.Base, &p.Threshold)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active params: %w", err)
	}
	return &p, nil
}

// Activate closes the currently open parameter row and inserts a new one
// that becomes active immediately. Both writes share one transaction so
// there is never more than one open row.
func (s *ParamsStore) Activate(ctx context.Context, k, w, base int, threshold float64) (int, error) {
	var id int
	err := s.txManager.ExecuteTransaction(ctx, dbutil.DefaultTransactionOptions(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE algoritma_params SET active_to = NOW() WHERE active_to IS NULL`); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO algoritma_params (k, w, base, threshold) VALUES ($1, $2, $3, $4) RETURNING id`,
			k, w, base, threshold).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("activate params: %w", err)
	}
	return id, nil
}

// List returns the full parameter history, newest first.
func (s *ParamsStore) List(ctx context.Context) ([]ParamsRow, error) {
	rows, err := s.dbManager.GetDB().QueryContext(ctx, `
        SELECT id, k, w, base, threshold, active_from, active_to
        FROM algoritma_params
        ORDER BY active_from DESC`)
	if err != nil {
		return nil, fmt.Errorf("list params: %w", err)
	}
	defer rows.Close()

	history := []ParamsRow{}
	for rows.Next() {
		var p ParamsRow
		if err := rows.Scan(&p.ID, &p.K, &p.W, &p.Base, &p.Threshold, &p.ActiveFrom, &p.ActiveTo); err != nil {
			return nil, fmt.Errorf("scan params row: %w", err)
		}
		history = append(history, p)
	}
	return history, rows.Err()
}
