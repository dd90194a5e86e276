package db_test

import (
	"testing"
	"time"

	"clip-publisher/internal/db"
	"clip-publisher/internal/test"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCreateAndDeletePendingPost(t *testing.T) {
	_, mock := test.NewMockDB(t)

	now := time.Now().UTC()
	deadline := now.Add(72 * time.Hour)

	rows := sqlmock.NewRows([]string{"post_id", "platform", "target_id", "created_at", "deadline"}).
		AddRow("P1", "facebook_group", "T1", now, deadline)
	mock.ExpectQuery(`INSERT INTO pending_posts`).
		WithArgs("P1", "facebook_group", "T1", now, deadline).
		WillReturnRows(rows)
	mock.ExpectExec(`DELETE FROM pending_posts WHERE post_id = \$1`).
		WithArgs("P1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	post, err := db.CreatePendingPost("P1", "facebook_group", "T1", now, deadline)
	assert.NoError(t, err)
	assert.Equal(t, "P1", post.PostID)
	assert.Equal(t, deadline, post.Deadline)

	assert.NoError(t, db.DeletePendingPost("P1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPendingPostsDueBefore(t *testing.T) {
	_, mock := test.NewMockDB(t)

	cutoff := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"post_id", "platform", "target_id", "created_at", "deadline"}).
		AddRow("P1", "facebook_group", "T1", cutoff.Add(-80*time.Hour), cutoff.Add(-8*time.Hour))
	mock.ExpectQuery(`SELECT \* FROM pending_posts WHERE deadline <= \$1`).
		WithArgs(cutoff).
		WillReturnRows(rows)

	posts, err := db.GetPendingPostsDueBefore(cutoff)
	assert.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, "P1", posts[0].PostID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
