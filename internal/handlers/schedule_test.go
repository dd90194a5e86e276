package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clip-publisher/internal/test"
	"clip-publisher/pkg/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

type fakeBlobStore struct {
	objects map[string][]byte
	failPut bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(ctx context.Context, localPath, key string) error {
	if s.failPut {
		return fmt.Errorf("simulated put failure")
	}
	s.objects[key] = []byte("stored")
	return nil
}

func (s *fakeBlobStore) Get(ctx context.Context, key, localPath string) error {
	return fmt.Errorf("not implemented")
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeBlobStore) MakePublic(ctx context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func scheduleRequest(t *testing.T, fields map[string]string, withLogo bool) *http.Request {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		assert.NoError(t, w.WriteField(k, v))
	}
	if withLogo {
		fw, err := w.CreateFormFile("logo", "logo.png")
		assert.NoError(t, err)
		_, err = fw.Write([]byte("png bytes"))
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schedule-post", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeBlobStore, *test.MockTaskEnqueuer) {
	store := newFakeBlobStore()
	enqueuer := &test.MockTaskEnqueuer{}
	canceler := &test.MockTaskCanceler{Tasks: map[string]*asynq.TaskInfo{}}
	h := New(enqueuer, canceler, store, &fakePageLister{})
	h.scratchDir = t.TempDir()
	return h, store, enqueuer
}

func TestSchedulePost_MissingFields(t *testing.T) {
	cases := []struct {
		name     string
		fields   map[string]string
		withLogo bool
	}{
		{
			name:     "missing videoUrl",
			fields:   map[string]string{"platforms": "facebook_page"},
			withLogo: true,
		},
		{
			name:     "missing platforms",
			fields:   map[string]string{"videoUrl": "https://example.com/v.mp4"},
			withLogo: true,
		},
		{
			name: "unknown platform",
			fields: map[string]string{
				"videoUrl":  "https://example.com/v.mp4",
				"platforms": "myspace",
			},
			withLogo: true,
		},
		{
			name: "bad schedule time",
			fields: map[string]string{
				"videoUrl":         "https://example.com/v.mp4",
				"platforms":        "facebook_page",
				"scheduleDateTime": "tomorrow at noon",
			},
			withLogo: true,
		},
		{
			name: "missing logo",
			fields: map[string]string{
				"videoUrl":  "https://example.com/v.mp4",
				"platforms": "facebook_page",
			},
			withLogo: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, store, enqueuer := newTestHandlers(t)

			rr := httptest.NewRecorder()
			h.SchedulePost(rr, scheduleRequest(t, tc.fields, tc.withLogo))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, store.objects, "nothing may be staged on a rejected request")
			assert.Empty(t, enqueuer.EnqueuedTasks)
		})
	}
}

func TestSchedulePost_Success(t *testing.T) {
	h, store, enqueuer := newTestHandlers(t)

	runAt := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	rr := httptest.NewRecorder()
	h.SchedulePost(rr, scheduleRequest(t, map[string]string{
		"videoUrl":         "https://example.com/v.mp4",
		"platforms":        "facebook_page,telegram,facebook_page",
		"caption":          "Hello",
		"overlayText":      "Big Sale",
		"scheduleDateTime": runAt.Format(time.RFC3339),
	}, true))

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp struct {
		JobID         string   `json:"job_id"`
		ScheduledTime string   `json:"scheduled_time"`
		Platforms     []string `json:"platforms"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, runAt.Format(time.RFC3339), resp.ScheduledTime)
	assert.Equal(t, []string{"facebook_page", "telegram"}, resp.Platforms, "platform list is de-duplicated")

	assert.Len(t, store.objects, 1)
	var logoKey string
	for k := range store.objects {
		logoKey = k
	}
	assert.True(t, strings.HasPrefix(logoKey, "logos/logo_"))
	assert.True(t, strings.HasSuffix(logoKey, ".png"))

	assert.Len(t, enqueuer.EnqueuedTasks, 1)
	assert.Equal(t, tasks.TypePublishClip, enqueuer.EnqueuedTasks[0].Type())

	var payload tasks.PublishClipTaskPayload
	assert.NoError(t, json.Unmarshal(enqueuer.EnqueuedTasks[0].Payload(), &payload))
	assert.Equal(t, resp.JobID, payload.JobID)
	assert.Equal(t, "https://example.com/v.mp4", payload.VideoURL)
	assert.Equal(t, logoKey, payload.LogoKey)
	assert.Equal(t, "Big Sale", payload.OverlayText)
	assert.Equal(t, "Hello", payload.Caption)

	id, ok := test.OptValue(enqueuer.EnqueuedOpts[0], asynq.TaskIDOpt)
	assert.True(t, ok)
	assert.Equal(t, tasks.PublishTaskID(resp.JobID), id)

	processAt, ok := test.OptValue(enqueuer.EnqueuedOpts[0], asynq.ProcessAtOpt)
	assert.True(t, ok)
	assert.WithinDuration(t, runAt, processAt.(time.Time), time.Second)

	retry, ok := test.OptValue(enqueuer.EnqueuedOpts[0], asynq.MaxRetryOpt)
	assert.True(t, ok)
	assert.Equal(t, 0, retry, "publish jobs run at most once")

	_, ok = test.OptValue(enqueuer.EnqueuedOpts[0], asynq.TimeoutOpt)
	assert.False(t, ok, "pipelines run without a mid-flight deadline")
}

func TestSchedulePost_DefaultsToImmediate(t *testing.T) {
	h, _, enqueuer := newTestHandlers(t)

	rr := httptest.NewRecorder()
	h.SchedulePost(rr, scheduleRequest(t, map[string]string{
		"videoUrl":  "https://example.com/v.mp4",
		"platforms": "youtube",
	}, true))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	processAt, ok := test.OptValue(enqueuer.EnqueuedOpts[0], asynq.ProcessAtOpt)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), processAt.(time.Time), time.Minute)
}

func TestSchedulePost_EnqueueFailureDiscardsLogo(t *testing.T) {
	h, store, enqueuer := newTestHandlers(t)
	enqueuer.Err = errors.New("redis down")

	rr := httptest.NewRecorder()
	h.SchedulePost(rr, scheduleRequest(t, map[string]string{
		"videoUrl":  "https://example.com/v.mp4",
		"platforms": "facebook_page",
	}, true))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, store.objects, "staged logo must be deleted when scheduling fails")
}

func TestSchedulePost_StoreFailure(t *testing.T) {
	h, store, enqueuer := newTestHandlers(t)
	store.failPut = true

	rr := httptest.NewRecorder()
	h.SchedulePost(rr, scheduleRequest(t, map[string]string{
		"videoUrl":  "https://example.com/v.mp4",
		"platforms": "facebook_page",
	}, true))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, enqueuer.EnqueuedTasks)
}
