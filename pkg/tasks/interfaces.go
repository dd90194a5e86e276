package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer defines the interface for enqueuing tasks.
// It's implemented by asynq.Client, and can be mocked for testing.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskCanceler looks up and removes a scheduled task by queue and id
// before it fires. It's implemented by asynq.Inspector.
type TaskCanceler interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}
