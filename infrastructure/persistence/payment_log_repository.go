package persistence

import (
	"context"
	"database/sql"

	"social-reward-engine/domain/model"
)

// PaymentLogRepository stores settlement audit entries in PostgreSQL.
type PaymentLogRepository struct {
	db *sql.DB
}

func NewPaymentLogRepository(db *sql.DB) *PaymentLogRepository {
	return &PaymentLogRepository{db: db}
}

func (r *PaymentLogRepository) Create(ctx context.Context, log *model.PaymentLog) error {
	stmt, err := r.db.PrepareContext(ctx, `INSERT INTO payment_logs (type, twitter_id, recipient_address, tx_hash, amount, network, success, error, timestamp)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.QueryRowContext(ctx, log.Type, log.TwitterID, nullString(log.RecipientAddress), nullString(log.TxHash),
		log.Amount, log.Network, log.Success, nullString(log.Error), log.Timestamp).Scan(&log.ID)
}

func (r *PaymentLogRepository) ListByTwitterID(ctx context.Context, twitterID string, limit int) ([]model.PaymentLog, error) {
	stmt, err := r.db.PrepareContext(ctx, `SELECT id, type, twitter_id, recipient_address, tx_hash, amount, network, success, error, timestamp
	FROM payment_logs
	WHERE twitter_id = $1
	ORDER BY timestamp DESC
	LIMIT $2`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	rows, err := stmt.QueryContext(ctx, twitterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPaymentLogs(rows)
}

func scanPaymentLogs(rows *sql.Rows) ([]model.PaymentLog, error) {
	logs := []model.PaymentLog{}
	for rows.Next() {
		var (
			log                        model.PaymentLog
			recipient, txHash, errText sql.NullString
		)
		if err := rows.Scan(&log.ID, &log.Type, &log.TwitterID, &recipient, &txHash, &log.Amount,
			&log.Network, &log.Success, &errText, &log.Timestamp); err != nil {
			return nil, err
		}
		log.RecipientAddress = stringPtr(recipient)
		log.TxHash = stringPtr(txHash)
		log.Error = stringPtr(errText)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
