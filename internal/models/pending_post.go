package models

import "time"

// PendingPost is a published post awaiting moderation approval. An entry
// lives in the ledger from the moment a moderation-gated publish succeeds
// until a deadline check resolves it as approved or retracted.
type PendingPost struct {
	PostID    string    `db:"post_id"`
	Platform  string    `db:"platform"`
	TargetID  string    `db:"target_id"`
	CreatedAt time.Time `db:"created_at"`
	Deadline  time.Time `db:"deadline"`
}
