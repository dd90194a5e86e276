package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"clip-publisher/internal/models"
	"clip-publisher/pkg/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const maxUploadBytes = 32 << 20

// SchedulePost accepts a multipart form describing a clip to produce and
// publish, stages the logo, and schedules the publish pipeline. The caller
// gets a 202 immediately; pipeline failures never surface here.
func (h *Handlers) SchedulePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	videoURL := r.FormValue("videoUrl")
	if videoURL == "" {
		writeError(w, http.StatusBadRequest, "missing videoUrl")
		return
	}

	platformsRaw := r.FormValue("platforms")
	if platformsRaw == "" {
		writeError(w, http.StatusBadRequest, "missing platforms")
		return
	}
	platforms, err := models.ParsePlatforms(platformsRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	caption := r.FormValue("caption")
	if caption == "" {
		caption = "Check out this video!"
	}
	overlayText := r.FormValue("overlayText")

	runAt := time.Now()
	if s := r.FormValue("scheduleDateTime"); s != "" {
		runAt, err = time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "scheduleDateTime must be RFC 3339")
			return
		}
	}

	logoFile, logoHeader, err := r.FormFile("logo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "logo file is required")
		return
	}
	defer logoFile.Close()

	jobID := uuid.New().String()
	logoKey, err := h.stageLogo(r, logoFile, logoHeader.Filename, jobID)
	if err != nil {
		log.Printf("Error staging logo: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store logo")
		return
	}

	platformNames := make([]string, len(platforms))
	for i, p := range platforms {
		platformNames[i] = string(p)
	}

	task, err := tasks.NewPublishClipTask(tasks.PublishClipTaskPayload{
		JobID:       jobID,
		VideoURL:    videoURL,
		LogoKey:     logoKey,
		OverlayText: overlayText,
		Caption:     caption,
		Platforms:   platformNames,
	})
	if err != nil {
		log.Printf("Error creating publish task: %v", err)
		h.discardLogo(r, logoKey)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	_, err = h.asynqClient.Enqueue(task,
		asynq.ProcessAt(runAt),
		asynq.TaskID(tasks.PublishTaskID(jobID)),
		asynq.MaxRetry(0), // fire-and-forget, at most once
	)
	if err != nil {
		log.Printf("Error scheduling publish task: %v", err)
		h.discardLogo(r, logoKey)
		writeError(w, http.StatusInternalServerError, "failed to schedule post")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":        "Video post scheduled successfully",
		"job_id":         jobID,
		"scheduled_time": runAt.Format(time.RFC3339),
		"platforms":      platformNames,
	})
}

// stageLogo copies the upload to a scratch file, uploads it to the blob
// store and removes the scratch copy.
func (h *Handlers) stageLogo(r *http.Request, logo io.Reader, filename, jobID string) (string, error) {
	ext := filepath.Ext(filename)
	localPath := filepath.Join(h.scratchDir, "logo_"+jobID+ext)

	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	if _, err := io.Copy(out, logo); err != nil {
		out.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("failed to write logo: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to close logo file: %w", err)
	}
	defer os.Remove(localPath)

	logoKey := "logos/logo_" + jobID + ext
	if err := h.store.Put(r.Context(), localPath, logoKey); err != nil {
		return "", fmt.Errorf("failed to upload logo: %w", err)
	}
	return logoKey, nil
}

// discardLogo removes a staged logo after a scheduling failure. The pipeline
// will never run, so nobody else is going to clean it up.
func (h *Handlers) discardLogo(r *http.Request, logoKey string) {
	if err := h.store.Delete(r.Context(), logoKey); err != nil {
		log.Printf("Error deleting staged logo %s: %v", logoKey, err)
	}
}
