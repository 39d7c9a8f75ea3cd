package dto

import "social-reward-engine/domain/model"

// PostListRequest is bound from the /fetcher/posts query string.
type PostListRequest struct {
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
	SortBy  string `form:"sortBy"`
	SortDir string `form:"sortDir"`
}

const (
	SortByTime    = "time"
	SortByQuality = "quality"
	SortByAI      = "ai"
)

// Normalize clamps paging and falls back to newest-first by ingest time.
func (r *PostListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	switch r.SortBy {
	case SortByTime, SortByQuality, SortByAI:
	default:
		r.SortBy = SortByTime
	}
	if r.SortDir != "asc" {
		r.SortDir = "desc"
	}
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

type PostListResponse struct {
	Posts      []model.Post `json:"posts"`
	Pagination Pagination   `json:"pagination"`
}

type FetcherStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Scored  int64 `json:"scored"`
}

type ScorerStats struct {
	Total               int64   `json:"total"`
	Scored              int64   `json:"scored"`
	Pending             int64   `json:"pending"`
	WithErrors          int64   `json:"withErrors"`
	AverageQuality      float64 `json:"averageQuality"`
	AverageAILikelihood float64 `json:"averageAiLikelihood"`
	AverageSpam         float64 `json:"averageSpam"`
}

// TriggerResponse is returned by every manual job trigger.
type TriggerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}
