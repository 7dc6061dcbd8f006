package schedule

import "context"

type Task interface {
	Run(ctx context.Context) error
	Name() string
}

// Exclusive 同一 LockKey 的任务不会同时运行
type Exclusive interface {
	LockKey() string
}
