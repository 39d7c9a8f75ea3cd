package dto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Authorization is the signed transfer permission carried in an X-PAYMENT
// header. Integer fields are decimal strings.
type Authorization struct {
	Token       string `json:"token"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
	NeedApprove bool   `json:"needApprove"`
}

type ExactPayload struct {
	Signature     string        `json:"signature"`
	Authorization Authorization `json:"authorization"`
}

// PaymentPayload is the decoded X-PAYMENT header.
type PaymentPayload struct {
	X402Version int          `json:"x402Version"`
	Scheme      string       `json:"scheme"`
	Network     string       `json:"network"`
	Payload     ExactPayload `json:"payload"`
}

// PaymentRequirements describes what the facilitator must verify before
// executing the authorization.
type PaymentRequirements struct {
	Scheme            string      `json:"scheme"`
	Network           string      `json:"network"`
	MaxAmountRequired string      `json:"maxAmountRequired"`
	Resource          string      `json:"resource"`
	Description       string      `json:"description"`
	MimeType          string      `json:"mimeType"`
	PayTo             string      `json:"payTo"`
	MaxTimeoutSeconds int         `json:"maxTimeoutSeconds"`
	Asset             string      `json:"asset"`
	OutputSchema      interface{} `json:"outputSchema"`
	Extra             interface{} `json:"extra"`
}

type SettleRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer,omitempty"`
}

// RewardResponse is the worker's reply to POST /reward/:twitterId.
type RewardResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	Network string `json:"network,omitempty"`
	Error   string `json:"error,omitempty"`
}

type WalletResponse struct {
	TwitterID     string `json:"twitterId"`
	WalletAddress string `json:"walletAddress"`
	Network       string `json:"network"`
}

type PaymentLogRequest struct {
	Type             string  `json:"type"`
	TwitterID        string  `json:"twitterId"`
	RecipientAddress *string `json:"recipientAddress,omitempty"`
	TxHash           *string `json:"txHash,omitempty"`
	Amount           string  `json:"amount"`
	Network          string  `json:"network"`
	Success          bool    `json:"success"`
	Error            *string `json:"error,omitempty"`
	Timestamp        string  `json:"timestamp"`
}

// Encode renders the payload as the base64 JSON carried in X-PAYMENT.
func (p *PaymentPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePaymentPayload parses an X-PAYMENT header value.
func DecodePaymentPayload(header string) (*PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return nil, fmt.Errorf("payment header is not base64: %w", err)
	}
	var p PaymentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("payment header is not a payment payload: %w", err)
	}
	return &p, nil
}
