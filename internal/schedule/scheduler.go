package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrSkipped = errors.New("schedule: task skipped")

const (
	DefaultLockWait = 10 * time.Minute
	DefaultLockTTL  = 15 * time.Minute
)

// Scheduler 同一个任务既可立即执行也可按 cron 注册, 执行前先取锁
type Scheduler struct {
	cron     *cron.Cron
	locker   Locker
	lockWait time.Duration
	lockTTL  time.Duration
	onSkip   func(task string)

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

type Option func(s *Scheduler)

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.cron = cron.New(cron.WithLocation(loc))
	}
}

// WithLockTiming wait 为等待锁的上限, ttl 为分布式锁过期时间
func WithLockTiming(wait, ttl time.Duration) Option {
	return func(s *Scheduler) {
		if wait > 0 {
			s.lockWait = wait
		}
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithOnSkip(fn func(task string)) Option {
	return func(s *Scheduler) {
		s.onSkip = fn
	}
}

func NewScheduler(locker Locker, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(),
		locker:   locker,
		lockWait: DefaultLockWait,
		lockTTL:  DefaultLockTTL,
		onSkip:   func(string) {},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunNow 同步执行一次
func (s *Scheduler) RunNow(ctx context.Context, task Task) error {
	return s.run(ctx, task)
}

// Register 按 cron 表达式注册, 需 Start 后生效
func (s *Scheduler) Register(spec string, task Task) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.run(s.ctx, task); err != nil && !errors.Is(err, ErrSkipped) {
			slog.Error("scheduled task failed", "task", task.Name(), "error", err)
		}
	})
	return err
}

// Trigger 异步执行一次, 生命周期随 Scheduler
func (s *Scheduler) Trigger(task Task) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		if err := s.run(s.ctx, task); err != nil && !errors.Is(err, ErrSkipped) {
			slog.Error("triggered task failed", "task", task.Name(), "error", err)
		}
	}()
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 取消正在运行的任务并等待其退出
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("scheduler stop timeout, tasks still running")
	}
}

func (s *Scheduler) run(ctx context.Context, task Task) error {
	key := task.Name()
	if e, ok := task.(Exclusive); ok {
		key = e.LockKey()
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, key, s.lockTTL)
	cancel()
	if err != nil {
		slog.Warn("task skipped, lock busy", "task", task.Name(), "key", key, "error", err)
		s.onSkip(task.Name())
		return errors.Join(ErrSkipped, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			slog.Error("failed to release lock", "task", task.Name(), "key", key, "error", err)
		}
	}()

	start := time.Now()
	slog.Info("task started", "task", task.Name())
	err = task.Run(ctx)
	slog.Info("task finished", "task", task.Name(), "duration", time.Since(start), "error", err)
	return err
}
