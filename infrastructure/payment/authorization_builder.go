package payment

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"social-reward-engine/domain/dto"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
)

const (
	PrimaryType = "PaymentAuthorization"

	validAfterSkew = 60 * time.Second
	validity       = time.Hour
)

type Config struct {
	Network            string
	ChainID            int64
	TokenAddress       string
	TokenDecimals      int32
	PayerPrivateKey    string
	FacilitatorAddress string
	DomainName         string
	DomainVersion      string
}

// AuthorizationBuilder signs payment authorizations with a fixed payer key.
type AuthorizationBuilder struct {
	cfg         Config
	key         *ecdsa.PrivateKey
	payer       common.Address
	token       common.Address
	facilitator common.Address
}

func NewAuthorizationBuilder(cfg Config) (*AuthorizationBuilder, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PayerPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("payer key: %w", err)
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, fmt.Errorf("token address %q is not a hex address", cfg.TokenAddress)
	}
	if !common.IsHexAddress(cfg.FacilitatorAddress) {
		return nil, fmt.Errorf("facilitator address %q is not a hex address", cfg.FacilitatorAddress)
	}
	if cfg.ChainID <= 0 {
		return nil, errors.New("chain id must be positive")
	}
	return &AuthorizationBuilder{
		cfg:         cfg,
		key:         key,
		payer:       crypto.PubkeyToAddress(key.PublicKey),
		token:       common.HexToAddress(cfg.TokenAddress),
		facilitator: common.HexToAddress(cfg.FacilitatorAddress),
	}, nil
}

func (b *AuthorizationBuilder) PayerAddress() string { return b.payer.Hex() }

// Build returns the base64 X-PAYMENT value and the payload it encodes.
func (b *AuthorizationBuilder) Build(_ context.Context, amount float64, now time.Time) (string, *dto.PaymentPayload, error) {
	value, err := SmallestUnits(amount, b.cfg.TokenDecimals)
	if err != nil {
		return "", nil, err
	}
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", nil, fmt.Errorf("nonce: %w", err)
	}

	auth := dto.Authorization{
		Token:       b.token.Hex(),
		From:        b.payer.Hex(),
		To:          b.facilitator.Hex(),
		Value:       value.String(),
		ValidAfter:  fmt.Sprint(now.Add(-validAfterSkew).Unix()),
		ValidBefore: fmt.Sprint(now.Add(validity).Unix()),
		Nonce:       hexutil.Encode(nonce[:]),
		NeedApprove: true,
	}

	hash, err := b.hash(auth)
	if err != nil {
		return "", nil, err
	}
	sig, err := crypto.Sign(hash, b.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign authorization: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	payload := &dto.PaymentPayload{
		X402Version: 1,
		Scheme:      "exact",
		Network:     b.cfg.Network,
		Payload:     dto.ExactPayload{Signature: hexutil.Encode(sig), Authorization: auth},
	}
	encoded, err := payload.Encode()
	if err != nil {
		return "", nil, err
	}
	return encoded, payload, nil
}

func (b *AuthorizationBuilder) hash(auth dto.Authorization) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(TypedData(b.domain(), auth))
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	return hash, nil
}

func (b *AuthorizationBuilder) domain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              b.cfg.DomainName,
		Version:           b.cfg.DomainVersion,
		ChainId:           math.NewHexOrDecimal256(b.cfg.ChainID),
		VerifyingContract: b.facilitator.Hex(),
	}
}

// TypedData is the EIP-712 document a PaymentAuthorization signature covers.
func TypedData(domain apitypes.TypedDataDomain, auth dto.Authorization) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			PrimaryType: {
				{Name: "token", Type: "address"},
				{Name: "from", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "validAfter", Type: "uint256"},
				{Name: "validBefore", Type: "uint256"},
				{Name: "nonce", Type: "bytes32"},
				{Name: "needApprove", Type: "bool"},
			},
		},
		PrimaryType: PrimaryType,
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"token":       auth.Token,
			"from":        auth.From,
			"to":          auth.To,
			"value":       auth.Value,
			"validAfter":  auth.ValidAfter,
			"validBefore": auth.ValidBefore,
			"nonce":       auth.Nonce,
			"needApprove": auth.NeedApprove,
		},
	}
}

// SmallestUnits converts a token amount to its integer base-unit value.
// Fractions below one base unit are truncated.
func SmallestUnits(amount float64, decimals int32) (*big.Int, error) {
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() || d.IsZero() {
		return nil, fmt.Errorf("amount must be positive, got %s", d.String())
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}
