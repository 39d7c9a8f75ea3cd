package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsurePaymentLogSchemaMSSQL creates dbo.payment_logs when missing.
func EnsurePaymentLogSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stmts := []string{
		`IF OBJECT_ID('dbo.payment_logs', 'U') IS NULL BEGIN
CREATE TABLE dbo.[payment_logs] (
	id BIGINT IDENTITY(1,1) PRIMARY KEY,
	type NVARCHAR(32) NOT NULL,
	twitter_id NVARCHAR(64) NOT NULL,
	recipient_address NVARCHAR(128) NULL,
	tx_hash NVARCHAR(128) NULL,
	amount NVARCHAR(78) NOT NULL,
	network NVARCHAR(32) NOT NULL,
	success BIT NOT NULL,
	error NVARCHAR(MAX) NULL,
	[timestamp] DATETIMEOFFSET NOT NULL
) END`,
		`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'idx_payment_logs_twitter_id') BEGIN
CREATE INDEX idx_payment_logs_twitter_id ON dbo.[payment_logs] (twitter_id, [timestamp] DESC)
END`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure dbo.payment_logs schema: %w", err)
		}
	}
	return nil
}
