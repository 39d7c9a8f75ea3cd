package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"
)

// Client hands signed authorizations to the settlement worker.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool { return c.baseURL != "" }

func (c *Client) Settle(ctx context.Context, twitterID, encodedPayment string) (*dto.RewardResponse, error) {
	if !c.Configured() {
		return nil, model.ErrNotConfigured
	}
	endpoint := fmt.Sprintf("%s/reward/%s", c.baseURL, url.PathEscape(twitterID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-PAYMENT", encodedPayment)
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settlement worker: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	var out dto.RewardResponse
	if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decode settlement response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", model.ErrWalletNotFound, out.Error)
	case resp.StatusCode != http.StatusOK:
		body := out.Error
		if body == "" {
			body = string(raw)
		}
		logger.GetLogger().WithField("twitter_id", twitterID).WithField("status", resp.StatusCode).Warn("settlement worker rejected payment")
		return nil, &model.APIError{Service: "settlement worker", StatusCode: resp.StatusCode, Body: body}
	case !out.Success:
		return nil, fmt.Errorf("settlement failed: %s", out.Error)
	}
	return &out, nil
}
