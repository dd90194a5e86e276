package models

import "time"

// PublishTarget is one configured destination id for a platform, e.g. a
// Facebook page id, a group id or a Telegram channel.
type PublishTarget struct {
	Platform  string    `db:"platform"`
	TargetID  string    `db:"target_id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}
