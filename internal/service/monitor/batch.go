package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchPause = 500 * time.Millisecond
)

// BatchScheduler 分批并发执行, 批内并发度即批大小, 批间暂停
type BatchScheduler struct {
	size  int
	pause time.Duration
	sleep func(ctx context.Context, d time.Duration)
}

func NewBatchScheduler(size int, pause time.Duration) *BatchScheduler {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchScheduler{
		size:  size,
		pause: pause,
		sleep: sleepCtx,
	}
}

// Run 对下标 [0, n) 逐批调用 unit, 返回每个下标的错误.
// 单元之间互不影响: 错误与 panic 只记录在各自的槽位.
// ctx 结束后不再启动新批次, 返回 ctx 的错误.
func (s *BatchScheduler) Run(ctx context.Context, n int, unit func(ctx context.Context, i int) error) ([]error, error) {
	errs := make([]error, n)
	batches := lo.Chunk(lo.Range(n), s.size)
	for bi, batch := range batches {
		if err := ctx.Err(); err != nil {
			return errs, err
		}

		p := pool.New().WithMaxGoroutines(s.size)
		for _, i := range batch {
			i := i
			p.Go(func() {
				errs[i] = runUnit(ctx, i, unit)
			})
		}
		p.Wait()

		if bi < len(batches)-1 {
			s.sleep(ctx, s.pause)
		}
	}
	return errs, nil
}

func runUnit(ctx context.Context, i int, unit func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("batch unit panic", "index", i, "panic", r)
			err = fmt.Errorf("unit %d panic: %v", i, r)
		}
	}()
	return unit(ctx, i)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
