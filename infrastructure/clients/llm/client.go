package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"

	"github.com/google/uuid"
)

var validProviders = map[string]bool{"anthropic": true, "openai": true, "deepseek": true, "gemini": true}

type Config struct {
	BaseURL      string
	APIKey       string
	Provider     string
	TemplateName string
	Timeout      time.Duration
}

// Client calls the template-driven LLM gateway that scores posts.
type Client struct {
	baseURL  string
	apiKey   string
	provider string
	template string
	http     *http.Client
}

func NewClient(cfg Config) *Client {
	if !validProviders[cfg.Provider] {
		if cfg.Provider != "" {
			logger.GetLogger().WithField("provider", cfg.Provider).Warn("invalid LLM provider, using anthropic")
		}
		cfg.Provider = "anthropic"
	}
	if cfg.TemplateName == "" {
		cfg.TemplateName = "scoring/quality-score"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		provider: cfg.Provider,
		template: cfg.TemplateName,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Configured() bool { return c.baseURL != "" && c.apiKey != "" }

type processRequest struct {
	Content      string            `json:"content"`
	TemplateName string            `json:"templateName"`
	Variables    map[string]string `json:"variables,omitempty"`
	Provider     string            `json:"provider"`
	ParserName   string            `json:"parserName"`
	Source       string            `json:"source"`
}

type processResponse struct {
	Success    bool `json:"success"`
	StatusCode int  `json:"statusCode"`
	Data       struct {
		RawText    string          `json:"rawText"`
		RequestID  string          `json:"requestId"`
		Parsed     json.RawMessage `json:"parsed"`
		ParseError string          `json:"parseError"`
	} `json:"data"`
}

// rawScores accepts both camelCase and snake_case keys.
type rawScores struct {
	QualityScore      *float64 `json:"qualityScore"`
	QualityScoreSnake *float64 `json:"quality_score"`
	AILikelihood      *float64 `json:"aiLikelihood"`
	AILikelihoodSnake *float64 `json:"ai_likelihood"`
	SpamScore         *float64 `json:"spamScore"`
	SpamScoreSnake    *float64 `json:"spam_score"`
}

func (c *Client) Score(ctx context.Context, req dto.ScoreRequest) (*model.Scores, error) {
	if !c.Configured() {
		return nil, model.ErrNotConfigured
	}
	body, err := json.Marshal(processRequest{
		Content:      req.Text,
		TemplateName: c.template,
		Variables:    map[string]string{"AUTHOR_USERNAME": req.AuthorUsername},
		Provider:     c.provider,
		ParserName:   "json",
		Source:       "social-reward-engine",
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/llm/process", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("x-correlation-id", correlationID())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &model.APIError{Service: "LLM service", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if !out.Success || out.Data.ParseError != "" {
		reason := out.Data.ParseError
		if reason == "" {
			reason = "scoring failed"
		}
		return nil, errors.New(reason)
	}
	return parseScores(out.Data.Parsed)
}

func parseScores(raw json.RawMessage) (*model.Scores, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("llm response has no parsed result")
	}
	var r rawScores
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}
	quality := firstOf(r.QualityScore, r.QualityScoreSnake)
	ai := firstOf(r.AILikelihood, r.AILikelihoodSnake)
	spam := firstOf(r.SpamScore, r.SpamScoreSnake)
	if quality == nil || ai == nil || spam == nil {
		return nil, errors.New("llm response is missing a score")
	}
	return &model.Scores{Quality: *quality, AILikelihood: *ai, Spam: *spam}, nil
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	if !c.Configured() {
		return model.ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/llm/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &model.APIError{Service: "LLM service", StatusCode: resp.StatusCode}
	}
	return nil
}

// correlationID has the form sre-<unix ms>-<8 hex chars>.
func correlationID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("sre-%d-%s", time.Now().UnixMilli(), hex[:8])
}
