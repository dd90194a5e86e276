package db

import (
	"time"

	"clip-publisher/internal/models"
)

func CreatePendingPost(postID, platform, targetID string, createdAt, deadline time.Time) (models.PendingPost, error) {
	post := models.PendingPost{}
	err := DB.Get(&post, `
		INSERT INTO pending_posts (post_id, platform, target_id, created_at, deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
		postID, platform, targetID, createdAt, deadline)
	return post, err
}

func GetPendingPostByID(postID string) (models.PendingPost, error) {
	post := models.PendingPost{}
	err := DB.Get(&post, "SELECT * FROM pending_posts WHERE post_id = $1", postID)
	return post, err
}

func DeletePendingPost(postID string) error {
	_, err := DB.Exec("DELETE FROM pending_posts WHERE post_id = $1", postID)
	return err
}

func GetAllPendingPosts() ([]models.PendingPost, error) {
	var posts []models.PendingPost
	err := DB.Select(&posts, "SELECT * FROM pending_posts ORDER BY deadline")
	return posts, err
}

// GetPendingPostsDueBefore returns ledger entries whose deadline has passed.
// The hourly sweep uses this to re-enqueue checks that were lost.
func GetPendingPostsDueBefore(t time.Time) ([]models.PendingPost, error) {
	var posts []models.PendingPost
	err := DB.Select(&posts, "SELECT * FROM pending_posts WHERE deadline <= $1 ORDER BY deadline", t)
	return posts, err
}
