package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypePublishClip   = "clip:publish"
	TypeApprovalCheck = "post:approval_check"
	TypeLedgerSweep   = "ledger:sweep"
)

// Grace period a moderation-gated post gets before an unapproved post is
// retracted.
const ApprovalGraceHours = 72

// PublishClipTaskPayload carries everything a publish pipeline run needs.
type PublishClipTaskPayload struct {
	JobID       string
	VideoURL    string
	LogoKey     string
	OverlayText string
	Caption     string
	Platforms   []string
}

func NewPublishClipTask(p PublishClipTaskPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePublishClip, payload), nil
}

type ApprovalCheckTaskPayload struct {
	PostID string
}

func NewApprovalCheckTask(postID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ApprovalCheckTaskPayload{PostID: postID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeApprovalCheck, payload), nil
}

func NewLedgerSweepTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeLedgerSweep, nil), nil
}

// PublishTaskID returns the scheduler id for a publish job. Job ids are
// caller-generated UUIDs, so ids never collide across unrelated jobs.
func PublishTaskID(jobID string) string {
	return "publish:" + jobID
}

// ApprovalCheckTaskID derives the deadline-check id from the post id, so at
// most one check can ever be queued per pending post.
func ApprovalCheckTaskID(postID string) string {
	return "approval-check:" + postID
}
