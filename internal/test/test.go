package test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"clip-publisher/internal/db"
)

// MockTaskEnqueuer is a mock implementation of tasks.TaskEnqueuer for testing.
type MockTaskEnqueuer struct {
	EnqueuedTasks []*asynq.Task
	EnqueuedOpts  [][]asynq.Option
	Err           error
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	m.EnqueuedOpts = append(m.EnqueuedOpts, opts)
	return &asynq.TaskInfo{ID: "test-task-id", Queue: "default"}, nil
}

// MockTaskCanceler is a mock implementation of tasks.TaskCanceler. Tasks
// maps task id to the info GetTaskInfo hands back; DeleteTask removes the
// entry and records the id.
type MockTaskCanceler struct {
	Tasks      map[string]*asynq.TaskInfo
	DeletedIDs []string
	Err        error
}

func (m *MockTaskCanceler) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	info, ok := m.Tasks[id]
	if !ok {
		return nil, asynq.ErrTaskNotFound
	}
	return info, nil
}

func (m *MockTaskCanceler) DeleteTask(queue, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Tasks[id]; !ok {
		return asynq.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	m.DeletedIDs = append(m.DeletedIDs, id)
	return nil
}

// OptValue digs an option of the given type out of a captured option list.
func OptValue(opts []asynq.Option, optType asynq.OptionType) (interface{}, bool) {
	for _, opt := range opts {
		if opt.Type() == optType {
			return opt.Value(), true
		}
	}
	return nil, false
}

func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	sqlxDB := sqlx.NewDb(mockDb, "sqlmock")

	originalDB := db.DB
	db.DB = sqlxDB
	t.Cleanup(func() {
		db.DB = originalDB
		mockDb.Close()
	})

	return sqlxDB, mock
}
