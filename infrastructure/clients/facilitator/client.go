package facilitator

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/infrastructure/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultSettleURL = "https://api.cdp.coinbase.com/platform/v2/x402/settle"

type Config struct {
	SettleURL string
	KeyID     string
	// KeySecret is a PEM encoded P-256 private key (SEC1 or PKCS#8).
	KeySecret string
	Timeout   time.Duration
}

// Client settles payment authorizations through the hosted facilitator.
type Client struct {
	settleURL string
	keyID     string
	key       *ecdsa.PrivateKey
	http      *http.Client
	now       func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.SettleURL == "" {
		cfg.SettleURL = DefaultSettleURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(strings.ReplaceAll(cfg.KeySecret, `\n`, "\n")))
	if err != nil {
		return nil, fmt.Errorf("parse facilitator key: %w", err)
	}
	return &Client{
		settleURL: cfg.SettleURL,
		keyID:     cfg.KeyID,
		key:       key,
		http:      &http.Client{Timeout: cfg.Timeout},
		now:       time.Now,
	}, nil
}

type credentialClaims struct {
	jwt.RegisteredClaims
	URI string `json:"uri"`
}

// credential builds the short-lived bearer token bound to one request URI.
func (c *Client) credential(method, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	now := c.now()
	claims := credentialClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cdp",
			Subject:   c.keyID,
			Audience:  jwt.ClaimStrings{"cdp_service"},
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(120 * time.Second)),
		},
		URI: fmt.Sprintf("%s %s%s", method, u.Host, u.Path),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.keyID
	token.Header["nonce"] = strings.ReplaceAll(uuid.NewString(), "-", "")
	return token.SignedString(c.key)
}

type settleReply struct {
	dto.SettleResponse
	Error string `json:"error"`
}

func (c *Client) Settle(ctx context.Context, settle dto.SettleRequest) (*dto.SettleResponse, error) {
	bearer, err := c.credential(http.MethodPost, c.settleURL)
	if err != nil {
		return nil, fmt.Errorf("sign facilitator credential: %w", err)
	}
	body, err := json.Marshal(settle)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settleURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Correlation-Context", "sdk_language=go,source=social-reward-worker")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facilitator settle: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	var reply settleReply
	decodeErr := json.Unmarshal(raw, &reply)

	if resp.StatusCode != http.StatusOK {
		reason := reply.ErrorReason
		if reason == "" {
			reason = reply.Error
		}
		if reason == "" {
			reason = fmt.Sprintf("facilitator returned status %d", resp.StatusCode)
		}
		logger.GetLogger().WithField("status", resp.StatusCode).WithField("reason", reason).Warn("facilitator rejected settlement")
		return &dto.SettleResponse{Success: false, ErrorReason: reason, Network: settle.PaymentRequirements.Network}, nil
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode facilitator response: %w", decodeErr)
	}
	out := reply.SettleResponse
	if out.Network == "" {
		out.Network = settle.PaymentRequirements.Network
	}
	return &out, nil
}
