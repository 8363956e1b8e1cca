package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"ai_orchestrator/internal/models"
)

// ProviderRepository handles provider database operations
type ProviderRepository struct {
	db *DB
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db *DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// providerRow is the raw scan target. Older deployments carry the active
// flag in an is_enabled column, newer ones in active; either may be absent.
type providerRow struct {
	ID              uuid.UUID      `db:"id"`
	TenantID        uuid.UUID      `db:"tenant_id"`
	ProviderType    string         `db:"provider_type"`
	Model           sql.NullString `db:"model"`
	DisplayName     sql.NullString `db:"display_name"`
	EncryptedKey    sql.NullString `db:"encrypted_key"`
	Active          sql.NullBool   `db:"active"`
	IsEnabled       sql.NullBool   `db:"is_enabled"`
	ConnectionOrder int            `db:"connection_order"`
	CreatedAt       sql.NullTime   `db:"created_at"`
}

const providerColumns = `id, tenant_id, provider_type, model, display_name,
	       encrypted_key, active, connection_order, created_at`

const providerColumnsWithLegacy = `id, tenant_id, provider_type, model, display_name,
	       encrypted_key, active, is_enabled, connection_order, created_at`

// GetByTenant retrieves all providers configured for a tenant, normalized
// and filtered to the supported family allowlist with non-empty
// credentials. Inactive providers are included; orchestration-eligibility
// filtering happens in the registry layer.
//
// The query first selects the superset column set including the legacy
// is_enabled flag; if the column does not exist on this schema it retries
// with the reduced set. A failure of the store call itself returns an error
// wrapping ErrProviderFetch, never an empty list.
func (r *ProviderRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Provider, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ai_providers
		WHERE tenant_id = $1
		ORDER BY connection_order ASC
	`, providerColumnsWithLegacy)

	var rows []providerRow
	err := r.db.conn.SelectContext(ctx, &rows, query, tenantID)
	if isUndefinedColumn(err) {
		query = fmt.Sprintf(`
			SELECT %s
			FROM ai_providers
			WHERE tenant_id = $1
			ORDER BY connection_order ASC
		`, providerColumns)
		rows = rows[:0]
		err = r.db.conn.SelectContext(ctx, &rows, query, tenantID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFetch, err)
	}

	providers := make([]models.Provider, 0, len(rows))
	for _, row := range rows {
		p := row.normalize()
		if !models.ProviderType(row.ProviderType).IsSupported() {
			continue
		}
		if p.EncryptedKey == "" {
			continue
		}
		providers = append(providers, p)
	}

	return providers, nil
}

// GetByID retrieves a single provider by ID within a tenant.
func (r *ProviderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Provider, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ai_providers
		WHERE tenant_id = $1 AND id = $2
	`, providerColumnsWithLegacy)

	var row providerRow
	err := r.db.conn.GetContext(ctx, &row, query, tenantID, id)
	if isUndefinedColumn(err) {
		query = fmt.Sprintf(`
			SELECT %s
			FROM ai_providers
			WHERE tenant_id = $1 AND id = $2
		`, providerColumns)
		err = r.db.conn.GetContext(ctx, &row, query, tenantID, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFetch, err)
	}

	p := row.normalize()
	return &p, nil
}

// Create inserts a new provider. The connection order is assigned
// monotonically per tenant: the first successfully connected provider keeps
// the lowest order.
func (r *ProviderRepository) Create(ctx context.Context, provider *models.Provider) error {
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}

	query := `
		INSERT INTO ai_providers (id, tenant_id, provider_type, model, display_name,
		                          encrypted_key, active, connection_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
		        (SELECT COALESCE(MAX(connection_order), 0) + 1
		         FROM ai_providers WHERE tenant_id = $2))
		RETURNING connection_order, created_at
	`

	err := r.db.conn.QueryRowxContext(
		ctx, query,
		provider.ID, provider.TenantID, provider.ProviderType, provider.Model,
		provider.DisplayName, provider.EncryptedKey, provider.Active,
	).Scan(&provider.ConnectionOrder, &provider.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	return nil
}

// Update updates a provider's mutable fields (model, display name,
// credential, active flag). Connection order is never rewritten.
func (r *ProviderRepository) Update(ctx context.Context, provider *models.Provider) error {
	query := `
		UPDATE ai_providers
		SET model = $3, display_name = $4, encrypted_key = $5, active = $6
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.db.conn.ExecContext(
		ctx, query,
		provider.TenantID, provider.ID, provider.Model, provider.DisplayName,
		provider.EncryptedKey, provider.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProviderNotFound
	}

	return nil
}

// Delete removes a provider.
func (r *ProviderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.conn.ExecContext(ctx,
		"DELETE FROM ai_providers WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProviderNotFound
	}

	return nil
}

// normalize collapses the two possible active-flag columns into one
// boolean. The new column wins when both are present.
func (row providerRow) normalize() models.Provider {
	active := false
	switch {
	case row.Active.Valid:
		active = row.Active.Bool
	case row.IsEnabled.Valid:
		active = row.IsEnabled.Bool
	}

	p := models.Provider{
		ID:              row.ID,
		TenantID:        row.TenantID,
		ProviderType:    models.ProviderType(row.ProviderType),
		Model:           row.Model.String,
		DisplayName:     row.DisplayName.String,
		EncryptedKey:    row.EncryptedKey.String,
		Active:          active,
		ConnectionOrder: row.ConnectionOrder,
	}
	if row.CreatedAt.Valid {
		p.CreatedAt = row.CreatedAt.Time
	}
	return p
}

// isUndefinedColumn reports whether err is Postgres undefined_column
// (42703), the specific schema-mismatch the legacy-column retry handles.
func isUndefinedColumn(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42703"
}
