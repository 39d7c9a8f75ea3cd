package model

import "time"

// Payout status values carried on a Post. An absent status means the post
// has not been considered for payout yet.
const (
	PostPayoutQueued     = "queued"
	PostPayoutPaid       = "paid"
	PostPayoutFailed     = "failed"
	PostPayoutIneligible = "ineligible"
)

// Post is one externally sourced mention. Optional fields are pointers so
// that "not set" is distinguishable from a zero value in storage.
type Post struct {
	TweetID        string     `json:"tweetId" bson:"tweetId"`
	Text           string     `json:"text" bson:"text"`
	AuthorID       string     `json:"authorId" bson:"authorId"`
	AuthorUsername string     `json:"authorUsername" bson:"authorUsername"`
	AuthorName     string     `json:"authorName" bson:"authorName"`
	AuthorWallet   *string    `json:"authorWallet,omitempty" bson:"authorWallet,omitempty"`
	PublishedAt    time.Time  `json:"publishedAt" bson:"publishedAt"`
	CrawledAt      time.Time  `json:"crawledAt" bson:"crawledAt"`
	QualityScore   *float64   `json:"qualityScore,omitempty" bson:"qualityScore,omitempty"`
	AILikelihood   *float64   `json:"aiLikelihood,omitempty" bson:"aiLikelihood,omitempty"`
	SpamScore      *float64   `json:"spamScore,omitempty" bson:"spamScore,omitempty"`
	ScoredAt       *time.Time `json:"scoredAt,omitempty" bson:"scoredAt,omitempty"`
	ScoringError   *string    `json:"scoringError,omitempty" bson:"scoringError,omitempty"`
	PayoutStatus   *string    `json:"payoutStatus,omitempty" bson:"payoutStatus,omitempty"`
	PayoutAmount   *float64   `json:"payoutAmount,omitempty" bson:"payoutAmount,omitempty"`
	PayoutTxHash   *string    `json:"payoutTxHash,omitempty" bson:"payoutTxHash,omitempty"`
	PayoutReason   *string    `json:"payoutReason,omitempty" bson:"payoutReason,omitempty"`
	PaidAt         *time.Time `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// IsScored reports whether the scoring job has written its terminal result.
func (p *Post) IsScored() bool {
	return p.ScoredAt != nil && p.QualityScore != nil && p.AILikelihood != nil && p.SpamScore != nil
}

// Scores is the result of one scoring call.
type Scores struct {
	Quality      float64 `json:"qualityScore"`
	AILikelihood float64 `json:"aiLikelihood"`
	Spam         float64 `json:"spamScore"`
}

// FailedScores is written when scoring a post fails so the post is never
// retried indefinitely.
var FailedScores = Scores{Quality: 0, AILikelihood: 100, Spam: 100}
