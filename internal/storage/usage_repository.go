package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one completed orchestration run, written asynchronously by
// the usage worker. It powers per-tenant AI usage reporting.
type UsageRecord struct {
	ID           uuid.UUID `db:"id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	TaskType     string    `db:"task_type"`
	ProviderType string    `db:"provider_type"` // provider that served, empty on failure
	Success      bool      `db:"success"`
	ErrorCode    string    `db:"error_code"` // terminal code on failure, empty on success
	Attempts     int       `db:"attempts"`
	DurationMS   int64     `db:"duration_ms"`
	CreatedAt    time.Time `db:"created_at"`
}

// UsageRepository handles usage record database operations
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// InsertBatch writes a batch of usage records in one transaction.
func (r *UsageRepository) InsertBatch(ctx context.Context, records []*UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ai_usage_records (id, tenant_id, task_type, provider_type,
		                              success, error_code, attempts, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, record := range records {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		_, err := tx.ExecContext(ctx, query,
			record.ID, record.TenantID, record.TaskType, record.ProviderType,
			record.Success, record.ErrorCode, record.Attempts, record.DurationMS,
		)
		if err != nil {
			return fmt.Errorf("failed to insert usage record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage batch: %w", err)
	}

	return nil
}

// CountByTenant returns the number of runs for a tenant since a cutoff.
func (r *UsageRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.conn.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM ai_usage_records
		WHERE tenant_id = $1 AND created_at >= $2
	`, tenantID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}
