package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const paymentLogTablePostgres = `CREATE TABLE IF NOT EXISTS payment_logs (
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL,
	twitter_id TEXT NOT NULL,
	recipient_address TEXT NULL,
	tx_hash TEXT NULL,
	amount TEXT NOT NULL,
	network TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	error TEXT NULL,
	timestamp TIMESTAMPTZ NOT NULL
)`

// EnsurePaymentLogSchema creates the audit table and its lookup index.
// Safe to call at startup.
func EnsurePaymentLogSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stmts := []string{
		paymentLogTablePostgres,
		`CREATE INDEX IF NOT EXISTS idx_payment_logs_twitter_id ON payment_logs (twitter_id, timestamp DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure payment_logs schema: %w", err)
		}
	}
	return nil
}
