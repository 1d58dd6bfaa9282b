package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// migrations run in order; every statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS earmarks (
		id                UUID PRIMARY KEY,
		invoice_id        TEXT NOT NULL,
		designated_domain TEXT NOT NULL,
		ticker_hash       TEXT NOT NULL,
		min_amount        NUMERIC(78, 0) NOT NULL,
		status            TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS earmarks_active_invoice_uniq
		ON earmarks (invoice_id)
		WHERE status NOT IN ('COMPLETED', 'CANCELLED', 'EXPIRED')`,
	`CREATE INDEX IF NOT EXISTS earmarks_status_idx ON earmarks (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS rebalance_operations (
		id                  UUID PRIMARY KEY,
		earmark_id          UUID REFERENCES earmarks (id),
		origin_domain       TEXT NOT NULL,
		destination_domain  TEXT NOT NULL,
		ticker_hash         TEXT NOT NULL,
		amount              NUMERIC(78, 0) NOT NULL,
		bridge              TEXT NOT NULL,
		status              TEXT NOT NULL,
		recipient           TEXT NOT NULL,
		tx_receipts         JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_orphaned         BOOLEAN NOT NULL DEFAULT FALSE,
		next_leg_started_at TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS rebalance_operations_status_idx ON rebalance_operations (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS rebalance_operations_earmark_idx ON rebalance_operations (earmark_id)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool Pool, log zerolog.Logger) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("Schema migrated")
	return nil
}

const schemaReadyQuery = `SELECT to_regclass('earmarks') IS NOT NULL
	AND to_regclass('rebalance_operations') IS NOT NULL`

// HealthCheck implements ports.HealthChecker. It fails until the schema has
// been migrated, so /health stays red on a fresh database.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	var ready bool
	if err := h.pool.QueryRow(ctx, schemaReadyQuery).Scan(&ready); err != nil {
		return err
	}
	if !ready {
		return errors.New("schema not migrated, run `solver migrate`")
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
