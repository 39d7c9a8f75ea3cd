package dto

import "time"

// Mention is one post from the upstream feed joined with its author.
type Mention struct {
	ID             string
	Text           string
	AuthorID       string
	AuthorUsername string
	AuthorName     string
	CreatedAt      time.Time
}

// MentionsPage is one page of the upstream feed.
type MentionsPage struct {
	Mentions  []Mention
	NewestID  string
	NextToken string
}

type ScoreRequest struct {
	Text           string
	AuthorUsername string
}
