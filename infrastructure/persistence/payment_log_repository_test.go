package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"social-reward-engine/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var logColumns = []string{"id", "type", "twitter_id", "recipient_address", "tx_hash", "amount", "network", "success", "error", "timestamp"}

func TestPaymentLogRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewPaymentLogRepository(db)

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	recipient := "0x1111111111111111111111111111111111111111"
	txHash := "0xabc"
	entry := &model.PaymentLog{
		Type:             "reward",
		TwitterID:        "42",
		RecipientAddress: &recipient,
		TxHash:           &txHash,
		Amount:           "960000",
		Network:          "base",
		Success:          true,
		Timestamp:        ts,
	}

	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO payment_logs`)).
		ExpectQuery().
		WithArgs("reward", "42", recipient, txHash, "960000", "base", true, nil, ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	require.NoError(t, repository.Create(context.Background(), entry))
	require.Equal(t, int64(7), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentLogRepository_ListByTwitterID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewPaymentLogRepository(db)

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectPrepare(regexp.QuoteMeta(`FROM payment_logs`)).
		ExpectQuery().
		WithArgs("42", 5).
		WillReturnRows(sqlmock.NewRows(logColumns).
			AddRow(2, "reward", "42", nil, nil, "500000", "base", false, "wallet not found", ts).
			AddRow(1, "reward", "42", "0x11", "0xabc", "960000", "base", true, nil, ts.Add(-time.Hour)))

	logs, err := repository.ListByTwitterID(context.Background(), "42", 5)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	require.False(t, logs[0].Success)
	require.Nil(t, logs[0].TxHash)
	require.NotNil(t, logs[0].Error)
	require.Equal(t, "wallet not found", *logs[0].Error)

	require.True(t, logs[1].Success)
	require.Equal(t, "0xabc", *logs[1].TxHash)
	require.Nil(t, logs[1].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentLogRepositoryMSSQL_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewPaymentLogRepositoryMSSQL(db)

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := "facilitator rejected"
	entry := &model.PaymentLog{Type: "reward", TwitterID: "42", Amount: "1", Network: "base", Error: &msg, Timestamp: ts}

	mock.ExpectQuery(regexp.QuoteMeta(`OUTPUT INSERTED.id`)).
		WithArgs("reward", "42", nil, nil, "1", "base", false, msg, ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	require.NoError(t, repository.Create(context.Background(), entry))
	require.Equal(t, int64(11), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentLogRepositoryMSSQL_ListByTwitterID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewPaymentLogRepositoryMSSQL(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TOP (@p2)`)).
		WithArgs("42", 20).
		WillReturnRows(sqlmock.NewRows(logColumns))

	logs, err := repository.ListByTwitterID(context.Background(), "42", 20)
	require.NoError(t, err)
	require.Empty(t, logs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsurePaymentLogSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS payment_logs`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE INDEX IF NOT EXISTS idx_payment_logs_twitter_id`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsurePaymentLogSchema(db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsurePaymentLogSchemaMSSQL_PropagatesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`IF OBJECT_ID('dbo.payment_logs', 'U') IS NULL`)).WillReturnError(context.DeadlineExceeded)

	err = EnsurePaymentLogSchemaMSSQL(db)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}
