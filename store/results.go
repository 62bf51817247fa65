package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/checker"
	"github.com/jordannanyan/plagiarism-backend/dbutil"
)

// ResultRow mirrors one check_result row.
type ResultRow struct {
	ID         int             `json:"id"`
	CheckID    int             `json:"check_id"`
	Similarity float64         `json:"similarity"`
	ReportPath *string         `json:"report_path,omitempty"`
	Summary    json.RawMessage `json:"summary"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MatchRow mirrors one check_match row.
type MatchRow struct {
	ID           int     `json:"id"`
	ResultID     int     `json:"result_id"`
	SourceType   string  `json:"source_type"`
	SourceID     int     `json:"source_id"`
	DocSpanStart int     `json:"doc_span_start"`
	DocSpanEnd   int     `json:"doc_span_end"`
	SrcSpanStart int     `json:"src_span_start"`
	SrcSpanEnd   int     `json:"src_span_end"`
	MatchScore   float64 `json:"match_score"`
	SnippetHash  string  `json:"snippet_hash"`
}

// ResultStore persists check results. A result and its match rows are
// written in a single transaction: after Save either everything is visible
// or nothing is.
type ResultStore struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
	txManager *dbutil.TransactionManager
}

func NewResultStore(logger *zap.Logger, dbManager *dbutil.ConnectionManager) *ResultStore {
	return &ResultStore{
		logger:    logger,
		dbManager: dbManager,
		txManager: dbutil.NewTransactionManager(dbManager, logger),
	}
}

func (s *ResultStore) CreateTables() {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS check_result (
        id SERIAL PRIMARY KEY,
        check_id INTEGER NOT NULL REFERENCES check_request(id),
        similarity NUMERIC(5,2) NOT NULL,
        report_path TEXT,
        summary_json TEXT NOT NULL,
        created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_check_result_check ON check_result(check_id);

    CREATE TABLE IF NOT EXISTS check_match (
        id SERIAL PRIMARY KEY,
        result_id INTEGER NOT NULL REFERENCES check_result(id) ON DELETE CASCADE,
        source_type VARCHAR(10) NOT NULL,
        source_id INTEGER NOT NULL,
        doc_span_start INTEGER NOT NULL,
        doc_span_end INTEGER NOT NULL,
        src_span_start INTEGER NOT NULL,
        src_span_end INTEGER NOT NULL,
        match_score DOUBLE PRECISION NOT NULL CHECK (match_score >= 0 AND match_score <= 1),
        snippet_hash VARCHAR(32) NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_check_match_result ON check_match(result_id);`
	if _, err := s.dbManager.GetDB().Exec(createTableSQL); err != nil {
		s.logger.Fatal("Failed to create result tables", zap.Error(err))
	}
	s.logger.Info("'check_result' and 'check_match' tables are ready")
}

// Save persists the result and its matches atomically and returns the new
// result id.
func (s *ResultStore) Save(ctx context.Context, res *checker.Result) (int, error) {
	summaryJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return 0, fmt.Errorf("marshal summary: %w", err)
	}

	var resultID int
	err = s.txManager.ExecuteTransaction(ctx, dbutil.DefaultTransactionOptions(), func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
            INSERT INTO check_result (check_id, similarity, summary_json)
            VALUES ($1, $2, $3) RETURNING id`,
			res.CheckID, res.Similarity, string(summaryJSON)).Scan(&resultID); err != nil {
			return err
		}
		for _, m := range res.Matches {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO check_match
                    (result_id, source_type, source_id, doc_span_start, doc_span_end,
                     src_span_start, src_span_end, match_score, snippet_hash)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				resultID, m.SourceType, m.SourceID, m.DocStart, m.DocEnd,
				m.SrcStart, m.SrcEnd, m.Score, m.SnippetHash); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("persist check result: %w", err)
	}
	return resultID, nil
}

// FetchForCheck loads the result row of a check and its matches ordered by
// descending match score. Both reads share a repeatable-read transaction so
// the pair is consistent. Returns (nil, nil, nil) when the check has no
// result yet.
func (s *ResultStore) FetchForCheck(ctx context.Context, checkID int) (*ResultRow, []MatchRow, error) {
	var result *ResultRow
	var matches []MatchRow

	err := s.txManager.ExecuteReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
		var r ResultRow
		var summary string
		err := tx.QueryRowContext(ctx, `
            SELECT id, check_id, similarity, report_path, summary_json, created_at
            FROM check_result WHERE check_id = $1
            ORDER BY created_at DESC LIMIT 1`, checkID).
			Scan(&r.ID, &r.CheckID, &r.Similarity, &r.ReportPath, &summary, &r.CreatedAt)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		r.Summary = json.RawMessage(summary)
		result = &r

		rows, err := tx.QueryContext(ctx, `
            SELECT id, result_id, source_type, source_id, doc_span_start, doc_span_end,
                   src_span_start, src_span_end, match_score, snippet_hash
            FROM check_match WHERE result_id = $1
            ORDER BY match_score DESC, id`, r.ID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m MatchRow
			if err := rows.Scan(&m.ID, &m.ResultID, &m.SourceType, &m.SourceID,
				&m.DocSpanStart, &m.DocSpanEnd, &m.SrcSpanStart, &m.SrcSpanEnd,
				&m.MatchScore, &m.SnippetHash); err != nil {
				return err
			}
			matches = append(matches, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch result for check %d: %w", checkID, err)
	}
	return result, matches, nil
}
