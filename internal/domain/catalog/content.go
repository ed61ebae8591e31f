package catalog

import "time"

type KlaapeningType string

const (
	KlaapeningQuickTip  KlaapeningType = "quick_tip"
	KlaapeningQuestion  KlaapeningType = "question"
	KlaapeningShowcase  KlaapeningType = "showcase"
	KlaapeningChallenge KlaapeningType = "challenge"
	KlaapeningPoll      KlaapeningType = "poll"
)

func (t KlaapeningType) Valid() bool {
	switch t {
	case KlaapeningQuickTip, KlaapeningQuestion, KlaapeningShowcase, KlaapeningChallenge, KlaapeningPoll:
		return true
	}
	return false
}

type Video struct {
	ID          int64     `json:"id"`
	CreatorID   int64     `json:"creator"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  *int64    `json:"category"`
	VideoFile   string    `json:"video_file"`
	Thumbnail   string    `json:"thumbnail"`
	CreatedAt   time.Time `json:"created_at"`
	IsPremium   bool      `json:"is_premium"`
	Price       *float64  `json:"price"`
	ViewCount   int       `json:"view_count"`
}

// Klaapening is a short-form post.
type Klaapening struct {
	ID           int64          `json:"id"`
	CreatorID    int64          `json:"creator"`
	ContentType  KlaapeningType `json:"content_type"`
	Text         string         `json:"text"`
	Media        *string        `json:"media"`
	CreatedAt    time.Time      `json:"created_at"`
	LikeCount    int            `json:"like_count"`
	CommentCount int            `json:"comment_count"`
}

type LiveSession struct {
	ID             int64      `json:"id"`
	ExpertID       int64      `json:"expert"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CategoryID     *int64     `json:"category"`
	PricePerMinute float64    `json:"price_per_minute"`
	IsActive       bool       `json:"is_active"`
	ScheduledFor   *time.Time `json:"scheduled_for"`
	StartedAt      *time.Time `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
}

type VideoFilter struct {
	CategoryID *int64
	CreatorID  *int64
	Limit      int
}

type KlaapeningFilter struct {
	ContentType *KlaapeningType
	CreatorID   *int64
	Limit       int
}
