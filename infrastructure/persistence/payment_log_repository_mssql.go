package persistence

import (
	"context"
	"database/sql"

	"social-reward-engine/domain/model"
)

// PaymentLogRepositoryMSSQL stores settlement audit entries in SQL Server/Azure SQL.
type PaymentLogRepositoryMSSQL struct{ db *sql.DB }

func NewPaymentLogRepositoryMSSQL(db *sql.DB) *PaymentLogRepositoryMSSQL {
	return &PaymentLogRepositoryMSSQL{db: db}
}

func (r *PaymentLogRepositoryMSSQL) Create(ctx context.Context, log *model.PaymentLog) error {
	q := `INSERT INTO dbo.[payment_logs] (type, twitter_id, recipient_address, tx_hash, amount, network, success, error, [timestamp])
OUTPUT INSERTED.id
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9)`
	return r.db.QueryRowContext(ctx, q, log.Type, log.TwitterID, nullString(log.RecipientAddress), nullString(log.TxHash),
		log.Amount, log.Network, log.Success, nullString(log.Error), log.Timestamp).Scan(&log.ID)
}

func (r *PaymentLogRepositoryMSSQL) ListByTwitterID(ctx context.Context, twitterID string, limit int) ([]model.PaymentLog, error) {
	q := `SELECT TOP (@p2) id, type, twitter_id, recipient_address, tx_hash, amount, network, success, error, [timestamp]
FROM dbo.[payment_logs]
WHERE twitter_id = @p1
ORDER BY [timestamp] DESC`
	rows, err := r.db.QueryContext(ctx, q, twitterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPaymentLogs(rows)
}
