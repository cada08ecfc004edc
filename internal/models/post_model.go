package models

import "time"

type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusSent      PostStatus = "sent"
)

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Media is a previously uploaded Telegram file, addressed by its file_id.
type Media struct {
	Kind      MediaKind `json:"kind"`
	Reference string    `json:"reference"`
}

type Post struct {
	ID          int64      `db:"id" json:"id"`
	Text        string     `db:"text" json:"text"`
	Media       *Media     `json:"media,omitempty"`
	ArchiveURL  string     `db:"archive_url" json:"archive_url,omitempty"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Status      PostStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

