package publish

import "context"

// Artifact locates the processed clip for an adapter. PublicURL points at
// the publicly-readable staged object; LocalPath is a scratch copy for
// adapters that must stream a file. Which one an adapter uses is its own
// business.
type Artifact struct {
	PublicURL string
	LocalPath string
}

// Result reports one publish call. PostID is the platform-assigned id and
// may be empty for platforms that do not return one.
type Result struct {
	PostID string
}

// Publisher posts a clip to a single target on one platform.
type Publisher interface {
	// Publish posts the artifact with the given caption to targetID.
	Publish(ctx context.Context, targetID string, artifact Artifact, caption string) (*Result, error)

	// Moderated reports whether posts to this platform can be rejected
	// after submission and therefore need the approval workflow.
	Moderated() bool
}

// ApprovalChecker resolves the fate of a moderation-gated post.
type ApprovalChecker interface {
	// IsPostPublished reports whether the post is live. ErrPostNotFound
	// means the platform no longer knows the post.
	IsPostPublished(ctx context.Context, postID string) (bool, error)

	// DeletePost removes the post from the platform.
	DeletePost(ctx context.Context, postID string) error
}
