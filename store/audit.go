package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/dbutil"
)

// AuditStore appends audit_log rows. Auditing is best-effort: a failed write
// is logged and never fails the operation being audited. Entries of a single
// check arrive in order because the checker records them sequentially.
type AuditStore struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
}

func NewAuditStore(logger *zap.Logger, dbManager *dbutil.ConnectionManager) *AuditStore {
	return &AuditStore{logger: logger, dbManager: dbManager}
}

func (s *AuditStore) CreateTables() {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS audit_log (
        id SERIAL PRIMARY KEY,
        actor_id INTEGER NOT NULL,
        action VARCHAR(40) NOT NULL,
        entity VARCHAR(40) NOT NULL,
        entity_id INTEGER NOT NULL,
        created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity, entity_id);`
	if _, err := s.dbManager.GetDB().Exec(createTableSQL); err != nil {
		s.logger.Fatal("Failed to create 'audit_log' table", zap.Error(err))
	}
	s.logger.Info("'audit_log' table is ready")
}

// Record appends one audit entry.
func (s *AuditStore) Record(ctx context.Context, actorID int, action, entity string, entityID int) {
	_, err := s.dbManager.GetDB().ExecContext(ctx, `
        INSERT INTO audit_log (actor_id, action, entity, entity_id)
        VALUES ($1, $2, $3, $4)`,
		actorID, action, entity, entityID)
	if err != nil {
		s.logger.Warn("audit write failed",
			zap.String("action", action),
			zap.Int("entity_id", entityID),
			zap.Error(err))
	}
}
