package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const maxPageSize = 100

type Config struct {
	BaseURL           string
	BearerToken       string
	UserID            string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client reads the mentions timeline of one account.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		userID:  cfg.UserID,
	}
	if cfg.BearerToken == "" {
		return c
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"})
	c.http = oauth2.NewClient(context.Background(), src)
	c.http.Timeout = cfg.Timeout

	c.limiter = rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

func (c *Client) Configured() bool { return c.http != nil && c.userID != "" }

type mentionsQuery struct {
	MaxResults      int    `url:"max_results"`
	TweetFields     string `url:"tweet.fields"`
	Expansions      string `url:"expansions"`
	UserFields      string `url:"user.fields"`
	SinceID         string `url:"since_id,omitempty"`
	PaginationToken string `url:"pagination_token,omitempty"`
}

type mentionsResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Name     string `json:"name"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		NewestID    string `json:"newest_id"`
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

func (c *Client) FetchMentions(ctx context.Context, sinceID, paginationToken string, maxResults int) (*dto.MentionsPage, error) {
	if !c.Configured() {
		return nil, model.ErrNotConfigured
	}
	if maxResults <= 0 || maxResults > maxPageSize {
		maxResults = maxPageSize
	}
	// The endpoint rejects max_results below 5.
	if maxResults < 5 {
		maxResults = 5
	}
	params, err := query.Values(mentionsQuery{
		MaxResults:      maxResults,
		TweetFields:     "created_at,in_reply_to_user_id",
		Expansions:      "author_id",
		UserFields:      "verified_type",
		SinceID:         sinceID,
		PaginationToken: paginationToken,
	})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/users/%s/mentions?%s", c.baseURL, url.PathEscape(c.userID), params.Encode())

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("since_id", sinceID).WithField("pagination_token", paginationToken).Debug("fetching mentions")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch mentions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &model.RateLimitError{ResetAt: resetAt(resp.Header.Get("x-rate-limit-reset"))}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &model.APIError{Service: "X API", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload mentionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode mentions: %w", err)
	}
	return toPage(payload), nil
}

func toPage(payload mentionsResponse) *dto.MentionsPage {
	type author struct{ username, name string }
	authors := make(map[string]author, len(payload.Includes.Users))
	for _, u := range payload.Includes.Users {
		authors[u.ID] = author{u.Username, u.Name}
	}

	page := &dto.MentionsPage{
		NewestID:  payload.Meta.NewestID,
		NextToken: payload.Meta.NextToken,
		Mentions:  make([]dto.Mention, 0, len(payload.Data)),
	}
	for _, t := range payload.Data {
		createdAt, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			createdAt = time.Now().UTC()
		}
		a := authors[t.AuthorID]
		page.Mentions = append(page.Mentions, dto.Mention{
			ID:             t.ID,
			Text:           t.Text,
			AuthorID:       t.AuthorID,
			AuthorUsername: a.username,
			AuthorName:     a.name,
			CreatedAt:      createdAt,
		})
	}
	return page
}

func resetAt(header string) *time.Time {
	secs, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
