package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"clip-publisher/internal/db"
	"clip-publisher/internal/publish"
	"clip-publisher/internal/store"
	"clip-publisher/pkg/tasks"

	"github.com/hibiken/asynq"
)

// Retry budget for approval checks whose status query fails transiently.
// The check stays scheduled and asynq backs off between attempts; after the
// budget is spent the hourly ledger sweep picks the entry up again.
const approvalCheckMaxRetry = 5

// VideoDownloader fetches a remote video into a local .mp4 file.
type VideoDownloader interface {
	Download(ctx context.Context, srcURL, destPrefix string) (string, error)
}

// VideoComposer renders the branded clip from a video and a logo.
type VideoComposer interface {
	Compose(ctx context.Context, videoPath, logoPath, overlayText string) (string, error)
}

type TaskHandler struct {
	asynqClient tasks.TaskEnqueuer
	store       store.Client
	downloader  VideoDownloader
	composer    VideoComposer
	publishers  map[string]publish.Publisher
	checker     publish.ApprovalChecker
	scratchDir  string
}

func NewTaskHandler(
	client tasks.TaskEnqueuer,
	blobStore store.Client,
	downloader VideoDownloader,
	composer VideoComposer,
	publishers map[string]publish.Publisher,
	checker publish.ApprovalChecker,
) *TaskHandler {
	return &TaskHandler{
		asynqClient: client,
		store:       blobStore,
		downloader:  downloader,
		composer:    composer,
		publishers:  publishers,
		checker:     checker,
		scratchDir:  os.TempDir(),
	}
}

// jobScope registers every artifact a single pipeline run creates, durable
// or local. Release runs exactly once per job, on every exit path; a failed
// delete is logged and skipped so cleanup never blocks job completion.
type jobScope struct {
	keys  []string
	files []string
}

func (s *jobScope) stageKey(key string) {
	s.keys = append(s.keys, key)
}

func (s *jobScope) trackFile(path string) {
	s.files = append(s.files, path)
}

func (s *jobScope) release(ctx context.Context, blobStore store.Client) {
	for _, path := range s.files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove temp file %s: %v", path, err)
		}
	}
	for _, key := range s.keys {
		if err := blobStore.Delete(ctx, key); err != nil {
			log.Printf("Failed to delete staged artifact %s: %v", key, err)
		}
	}
}

// HandlePublishClipTask runs one publish pipeline: download, stage raw,
// compose, stage processed, fan out to the requested platforms, clean up.
// A fatal stage error fails the task, but release still covers everything
// staged up to that point, including the logo uploaded at request time.
func (h *TaskHandler) HandlePublishClipTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.PublishClipTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Publish job %s: starting for %s", p.JobID, p.VideoURL)

	scope := &jobScope{}
	if p.LogoKey != "" {
		scope.stageKey(p.LogoKey)
	}
	// Cleanup must run even when the task context is already cancelled.
	defer scope.release(context.Background(), h.store)

	if err := h.runPipeline(ctx, &p, scope); err != nil {
		log.Printf("Publish job %s failed: %v", p.JobID, err)
		return err
	}

	log.Printf("Publish job %s: done", p.JobID)
	return nil
}

func (h *TaskHandler) runPipeline(ctx context.Context, p *tasks.PublishClipTaskPayload, scope *jobScope) error {
	// Download. The job id is a fresh UUID, so every local path below is
	// unique to this run.
	rawPrefix := filepath.Join(h.scratchDir, "raw_"+p.JobID)
	localRaw, err := h.downloader.Download(ctx, p.VideoURL, rawPrefix)
	if localRaw != "" {
		scope.trackFile(localRaw)
	}
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	// Stage the raw download and drop the local copy right away.
	rawKey := "raw/" + filepath.Base(localRaw)
	if err := h.store.Put(ctx, localRaw, rawKey); err != nil {
		return fmt.Errorf("failed to stage raw video: %w", err)
	}
	scope.stageKey(rawKey)
	if err := os.Remove(localRaw); err != nil {
		log.Printf("Publish job %s: failed to remove local raw copy: %v", p.JobID, err)
	}

	// Compose. Scratch inputs are discarded after the stage whether or not
	// ffmpeg succeeded.
	scratchVideo := filepath.Join(h.scratchDir, "compose_video_"+p.JobID+".mp4")
	scratchLogo := filepath.Join(h.scratchDir, "compose_logo_"+p.JobID+filepath.Ext(p.LogoKey))
	scope.trackFile(scratchVideo)
	scope.trackFile(scratchLogo)
	if err := h.store.Get(ctx, rawKey, scratchVideo); err != nil {
		return fmt.Errorf("failed to fetch raw video: %w", err)
	}
	if err := h.store.Get(ctx, p.LogoKey, scratchLogo); err != nil {
		return fmt.Errorf("failed to fetch logo: %w", err)
	}
	outputPath, composeErr := h.composer.Compose(ctx, scratchVideo, scratchLogo, p.OverlayText)
	os.Remove(scratchVideo)
	os.Remove(scratchLogo)
	if composeErr != nil {
		return fmt.Errorf("compose failed: %w", composeErr)
	}
	scope.trackFile(outputPath)

	// Stage the processed clip.
	processedKey := "processed/" + filepath.Base(outputPath)
	if err := h.store.Put(ctx, outputPath, processedKey); err != nil {
		return fmt.Errorf("failed to stage processed video: %w", err)
	}
	scope.stageKey(processedKey)
	if err := os.Remove(outputPath); err != nil {
		log.Printf("Publish job %s: failed to remove local processed copy: %v", p.JobID, err)
	}

	// Resolve both locator forms once; each adapter uses the one it needs.
	publicURL, err := h.store.MakePublic(ctx, processedKey)
	if err != nil {
		return fmt.Errorf("failed to make processed video public: %w", err)
	}
	localCopy := filepath.Join(h.scratchDir, "post_"+p.JobID+".mp4")
	scope.trackFile(localCopy)
	if err := h.store.Get(ctx, processedKey, localCopy); err != nil {
		return fmt.Errorf("failed to fetch processed video: %w", err)
	}

	h.publishAll(ctx, p, publish.Artifact{PublicURL: publicURL, LocalPath: localCopy})
	return nil
}

// publishAll fans the clip out to every configured target of every requested
// platform. Failures are counted and logged but never abort the siblings.
func (h *TaskHandler) publishAll(ctx context.Context, p *tasks.PublishClipTaskPayload, artifact publish.Artifact) {
	var succeeded, failed int
	for _, platform := range p.Platforms {
		pub, ok := h.publishers[platform]
		if !ok {
			log.Printf("Publish job %s: no adapter for platform %s", p.JobID, platform)
			continue
		}

		targets, err := db.GetTargetsByPlatform(platform)
		if err != nil {
			log.Printf("Publish job %s: failed to resolve targets for %s: %v", p.JobID, platform, err)
			failed++
			continue
		}
		if len(targets) == 0 {
			log.Printf("Publish job %s: no targets configured for %s", p.JobID, platform)
			continue
		}

		for _, target := range targets {
			result, err := pub.Publish(ctx, target.TargetID, artifact, p.Caption)
			if err != nil {
				log.Printf("Publish job %s: publish to %s/%s failed: %v", p.JobID, platform, target.TargetID, err)
				failed++
				continue
			}
			succeeded++
			log.Printf("Publish job %s: published to %s/%s (post %s)", p.JobID, platform, target.TargetID, result.PostID)

			if pub.Moderated() && result.PostID != "" {
				h.trackPendingPost(platform, target.TargetID, result.PostID)
			}
		}
	}
	log.Printf("Publish job %s: fan-out complete, %d succeeded, %d failed", p.JobID, succeeded, failed)
}

// trackPendingPost inserts a ledger entry and schedules its deadline check.
// The entry only survives if the check was actually scheduled; otherwise it
// is rolled back so the ledger and the scheduler stay 1:1.
func (h *TaskHandler) trackPendingPost(platform, targetID, postID string) {
	now := time.Now().UTC()
	deadline := now.Add(tasks.ApprovalGraceHours * time.Hour)

	if _, err := db.CreatePendingPost(postID, platform, targetID, now, deadline); err != nil {
		log.Printf("Failed to record pending post %s: %v", postID, err)
		return
	}

	task, err := tasks.NewApprovalCheckTask(postID)
	if err != nil {
		log.Printf("Failed to create approval check task for %s: %v", postID, err)
		return
	}

	_, err = h.asynqClient.Enqueue(task,
		asynq.ProcessAt(deadline),
		asynq.TaskID(tasks.ApprovalCheckTaskID(postID)),
		asynq.MaxRetry(approvalCheckMaxRetry),
	)
	if err != nil {
		log.Printf("Failed to schedule approval check for %s: %v", postID, err)
		if derr := db.DeletePendingPost(postID); derr != nil {
			log.Printf("Failed to roll back pending post %s: %v", postID, derr)
		}
		return
	}

	log.Printf("Pending post %s in %s/%s, approval deadline %s", postID, platform, targetID, deadline.Format(time.RFC3339))
}

// HandleApprovalCheckTask resolves a pending post at its deadline. Approved
// posts just leave the ledger; unapproved or vanished posts are retracted
// and their target is dropped from the configuration.
func (h *TaskHandler) HandleApprovalCheckTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.ApprovalCheckTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	post, err := db.GetPendingPostByID(p.PostID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("Approval check for %s: already resolved", p.PostID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up pending post %s: %w", p.PostID, err)
	}

	published, err := h.checker.IsPostPublished(ctx, post.PostID)
	if err != nil && !errors.Is(err, publish.ErrPostNotFound) {
		// Transient failure: keep the ledger entry and let asynq retry.
		return fmt.Errorf("approval status check for %s failed: %w", post.PostID, err)
	}

	if err == nil && published {
		log.Printf("Post %s approved before deadline", post.PostID)
		return db.DeletePendingPost(post.PostID)
	}

	log.Printf("Post %s not approved by deadline, retracting target %s/%s", post.PostID, post.Platform, post.TargetID)
	if err == nil {
		// Still on the platform but unapproved; remove it, best effort.
		if derr := h.checker.DeletePost(ctx, post.PostID); derr != nil {
			log.Printf("Failed to delete post %s: %v", post.PostID, derr)
		}
	}
	if post.TargetID != "" {
		if derr := db.DeleteTarget(post.Platform, post.TargetID); derr != nil {
			log.Printf("Failed to remove target %s/%s: %v", post.Platform, post.TargetID, derr)
		}
	}
	return db.DeletePendingPost(post.PostID)
}

// HandleLedgerSweepTask re-enqueues checks for overdue ledger entries whose
// scheduled check was lost or exhausted its retries. The deterministic task
// id makes this a no-op while a check is still queued.
func (h *TaskHandler) HandleLedgerSweepTask(ctx context.Context, t *asynq.Task) error {
	overdue, err := db.GetPendingPostsDueBefore(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to scan ledger: %w", err)
	}

	for _, post := range overdue {
		task, err := tasks.NewApprovalCheckTask(post.PostID)
		if err != nil {
			log.Printf("Failed to create approval check task for %s: %v", post.PostID, err)
			continue
		}
		_, err = h.asynqClient.Enqueue(task,
			asynq.TaskID(tasks.ApprovalCheckTaskID(post.PostID)),
			asynq.MaxRetry(approvalCheckMaxRetry),
		)
		if err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			log.Printf("Failed to re-enqueue approval check for %s: %v", post.PostID, err)
		}
	}

	if len(overdue) > 0 {
		log.Printf("Ledger sweep: %d overdue pending posts examined", len(overdue))
	}
	return nil
}
