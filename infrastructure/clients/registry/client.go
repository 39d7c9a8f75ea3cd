package registry

import (
	"bytes"
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
)

// Client is the worker's view of the backend: wallet lookups and the
// payment audit log.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type walletEnvelope struct {
	Success bool               `json:"success"`
	Data    dto.WalletResponse `json:"data"`
}

func (c *Client) GetWallet(ctx context.Context, twitterID, network string) (string, error) {
	endpoint := fmt.Sprintf("%s/x402/user/%s/wallet?%s", c.baseURL, url.PathEscape(twitterID), url.Values{"network": {network}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("wallet lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", model.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &model.APIError{Service: "backend", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	var env walletEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decode wallet: %w", err)
	}
	if env.Data.WalletAddress == "" {
		return "", model.ErrNotFound
	}
	return env.Data.WalletAddress, nil
}

func (c *Client) LogPayment(ctx context.Context, entry dto.PaymentLogRequest) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/x402/payment-log", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment log: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &model.APIError{Service: "backend", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
