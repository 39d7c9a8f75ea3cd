package filecsv

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"social-reward-engine/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePayouts(t *testing.T) {
	tx := "0xabc"
	reason := "bad, \"quoted\" reason"
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.PayoutRecord{
		{ID: "p-1", TweetID: "t-1", AuthorID: "a-1", Amount: 0.96, Token: "USDC", Network: "base", Status: model.PayoutCompleted, TxHash: &tx, CreatedAt: ts, UpdatedAt: ts},
		{ID: "p-2", TweetID: "t-2", AuthorID: "a-2", Amount: 0.5, Token: "USDC", Network: "base", Status: model.PayoutFailed, Error: &reason, CreatedAt: ts, UpdatedAt: ts},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePayouts(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, payoutHeader, rows[0])
	assert.Equal(t, "0.96", rows[1][4])
	assert.Equal(t, "0xabc", rows[1][8])
	assert.Equal(t, reason, rows[2][9])
	assert.Equal(t, "2025-03-01T10:00:00Z", rows[2][10])
}
