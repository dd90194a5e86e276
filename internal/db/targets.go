package db

import (
	"log"

	"clip-publisher/internal/models"
)

func GetTargetsByPlatform(platform string) ([]models.PublishTarget, error) {
	query := `
		SELECT platform, target_id, title, created_at
		FROM publish_targets
		WHERE platform = $1
		ORDER BY created_at
	`
	var targets []models.PublishTarget
	err := DB.Select(&targets, query, platform)
	if err != nil {
		log.Printf("Error getting targets for platform %s: %v", platform, err)
		return nil, err
	}
	return targets, nil
}

func GetAllTargets() ([]models.PublishTarget, error) {
	query := `
		SELECT platform, target_id, title, created_at
		FROM publish_targets
		ORDER BY platform, created_at
	`
	var targets []models.PublishTarget
	err := DB.Select(&targets, query)
	if err != nil {
		log.Printf("Error getting targets: %v", err)
		return nil, err
	}
	return targets, nil
}

func AddTarget(platform, targetID, title string) (*models.PublishTarget, error) {
	query := `
		INSERT INTO publish_targets (platform, target_id, title)
		VALUES ($1, $2, $3)
		RETURNING platform, target_id, title, created_at
	`
	target := &models.PublishTarget{}
	err := DB.Get(target, query, platform, targetID, title)
	if err != nil {
		log.Printf("Error adding target %s/%s: %v", platform, targetID, err)
		return nil, err
	}
	return target, nil
}

// DeleteTarget removes a target id from a platform's configured list.
// Deleting an id that is not present is a no-op, not an error.
func DeleteTarget(platform, targetID string) error {
	query := `
		DELETE FROM publish_targets
		WHERE platform = $1 AND target_id = $2
	`
	_, err := DB.Exec(query, platform, targetID)
	if err != nil {
		log.Printf("Error deleting target %s/%s: %v", platform, targetID, err)
		return err
	}
	return nil
}
