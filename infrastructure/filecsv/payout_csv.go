package filecsv

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"
)

var payoutHeader = []string{"id", "tweet_id", "author_id", "recipient_address", "amount", "token", "network", "status", "tx_hash", "error", "created_at", "updated_at"}

// WritePayouts writes records as CSV with a header row.
func WritePayouts(w io.Writer, records []model.PayoutRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(payoutHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.TweetID,
			r.AuthorID,
			str(r.RecipientAddress),
			strconv.FormatFloat(r.Amount, 'f', -1, 64),
			r.Token,
			r.Network,
			r.Status,
			str(r.TxHash),
			str(r.Error),
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while writing csv row")
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
