package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"social-reward-engine/domain/model"

	"github.com/gin-gonic/gin"
)

// PayoutStatusEvent is the SSE payload for payout status changes.
type PayoutStatusEvent struct {
	Type     string  `json:"type"`
	PayoutID string  `json:"payoutId"`
	TweetID  string  `json:"tweetId"`
	AuthorID string  `json:"authorId"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	TxHash   *string `json:"txHash,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// Hub fans payout events out to dashboard subscribers. A subscriber may
// narrow the stream to one author with ?authorId=.
type Hub struct {
	mu        sync.RWMutex
	subs      map[chan PayoutStatusEvent]string
	keepAlive time.Duration
}

func NewPayoutHub() *Hub {
	return &Hub{subs: make(map[chan PayoutStatusEvent]string), keepAlive: 15 * time.Second}
}

func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Status(http.StatusOK)

	ch := make(chan PayoutStatusEvent, 16)
	h.addSubscriber(ch, c.Query("authorId"))
	defer h.removeSubscriber(ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			_, _ = c.Writer.Write([]byte(":ping\n\n"))
			c.Writer.Flush()
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: payout_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) addSubscriber(ch chan PayoutStatusEvent, authorID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = authorID
}

func (h *Hub) removeSubscriber(ch chan PayoutStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Subscribers reports the number of open streams.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// BroadcastPayoutStatus never blocks; slow subscribers miss events.
func (h *Hub) BroadcastPayoutStatus(rec *model.PayoutRecord) {
	if rec == nil {
		return
	}
	evt := PayoutStatusEvent{
		Type:     "payout_status",
		PayoutID: rec.ID,
		TweetID:  rec.TweetID,
		AuthorID: rec.AuthorID,
		Status:   rec.Status,
		Amount:   rec.Amount,
		TxHash:   rec.TxHash,
		Error:    rec.Error,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, authorID := range h.subs {
		if authorID != "" && authorID != rec.AuthorID {
			continue
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
