package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clip-publisher/internal/test"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func targetsRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/targets", h.GetTargets).Methods(http.MethodGet)
	r.HandleFunc("/api/targets/{platform}/{id}", h.DeleteTarget).Methods(http.MethodDelete)
	return r
}

func TestGetTargetsGroupsByPlatform(t *testing.T) {
	_, mock := test.NewMockDB(t)
	h, _, _ := newTestHandlers(t)

	rows := sqlmock.NewRows([]string{"platform", "target_id", "title", "created_at"}).
		AddRow("facebook_page", "P1", "Page", time.Now()).
		AddRow("facebook_group", "G1", "Group", time.Now())
	mock.ExpectQuery(`SELECT platform, target_id, title, created_at`).WillReturnRows(rows)

	rr := httptest.NewRecorder()
	targetsRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/targets", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"facebook_page"`)
	assert.Contains(t, rr.Body.String(), `"G1"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTargetEndpoint(t *testing.T) {
	_, mock := test.NewMockDB(t)
	h, _, _ := newTestHandlers(t)

	mock.ExpectExec(`DELETE FROM publish_targets`).
		WithArgs("facebook_group", "G1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rr := httptest.NewRecorder()
	targetsRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/targets/facebook_group/G1", nil))

	assert.Equal(t, http.StatusOK, rr.Code, "removal of an absent target still succeeds")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTargetRejectsUnknownPlatform(t *testing.T) {
	test.NewMockDB(t)
	h, _, _ := newTestHandlers(t)

	rr := httptest.NewRecorder()
	targetsRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/targets/myspace/G1", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
