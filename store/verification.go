package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/dbutil"
)

// Verification statuses a dosen can assign to a result.
const (
	VerificationWajar       = "wajar"
	VerificationPerluRevisi = "perlu_revisi"
	VerificationPlagiarisme = "plagiarisme"
)

// VerificationRow mirrors one verification_note row.
type VerificationRow struct {
	ID         int       `json:"id"`
	ResultID   int       `json:"result_id"`
	VerifierID int       `json:"verifier_id"`
	Status     string    `json:"status"`
	NoteText   string    `json:"note_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidVerificationStatus reports whether status is one of the allowed
// values.
func ValidVerificationStatus(status string) bool {
	switch status {
	case VerificationWajar, VerificationPerluRevisi, VerificationPlagiarisme:
		return true
	}
	return false
}

// VerificationStore persists the single verifier note a result can carry.
type VerificationStore struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
}

func NewVerificationStore(logger *zap.Logger, dbManager *dbutil.ConnectionManager) *VerificationStore {
	return &VerificationStore{logger: logger, dbManager: dbManager}
}

func (s *VerificationStore) CreateTables() {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS verification_note (
        id SERIAL PRIMARY KEY,
        result_id INTEGER NOT NULL UNIQUE REFERENCES check_result(id),
        verifier_id INTEGER NOT NULL,
        status VARCHAR(15) NOT NULL
            CHECK (status IN ('wajar', 'perlu_revisi', 'plagiarisme')),
        note_text TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
    );`
	if _, err := s.dbManager.GetDB().Exec(createTableSQL); err != nil {
		s.logger.Fatal("Failed to create 'verification_note' table", zap.Error(err))
	}
	s.logger.Info("'verification_note' table is ready")
}

// Upsert writes or replaces the note of a result.
func (s *VerificationStore) Upsert(ctx context.Context, resultID, verifierID int, status, noteText string) (*VerificationRow, error) {
	var v VerificationRow
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        INSERT INTO verification_note (result_id, verifier_id, status, note_text)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (result_id) DO UPDATE
            SET verifier_id = EXCLUDED.verifier_id,
                status = EXCLUDED.status,
                note_text = EXCLUDED.note_text,
                created_at = CURRENT_TIMESTAMP
        RETURNING id, result_id, verifier_id, status, note_text, created_at`,
		resultID, verifierID, status, noteText).
		Scan(&v.ID, &v.ResultID, &v.VerifierID, &v.Status, &v.NoteText, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert verification note: %w", err)
	}
	return &v, nil
}

// ByResultID returns the note of a result; nil when absent.
func (s *VerificationStore) ByResultID(ctx context.Context, resultID int) (*VerificationRow, error) {
	var v VerificationRow
	err := s.dbManager.GetDB().QueryRowContext(ctx, `
        SELECT id, result_id, verifier_id, status, note_text, created_at
        FROM verification_note WHERE result_id = $1`, resultID).
		Scan(&v.ID, &v.ResultID, &v.VerifierID, &v.Status, &v.NoteText, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query verification note: %w", err)
	}
	return &v, nil
}
