package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/schedule"
	"github.com/KNICEX/perp-sentinel/internal/service/notification"
)

const DefaultCycleTimeout = 10 * time.Minute

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultCanceled = "canceled" // 进程退出打断的周期, 不算故障
)

// CycleRecorder 周期耗时与结果
type CycleRecorder interface {
	CycleFinished(report string, result string, d time.Duration)
}

type Status struct {
	Report      string    `json:"report"`
	Exchange    string    `json:"exchange"`
	LastStart   time.Time `json:"last_start"`
	LastEnd     time.Time `json:"last_end"`
	LastResult  string    `json:"last_result,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Instruments int       `json:"instruments"`
	Alerts      int       `json:"alerts"`
	Messages    int       `json:"messages"`
}

var (
	_ schedule.Task      = (*MonitorTask)(nil)
	_ schedule.Exclusive = (*MonitorTask)(nil)
)

type MonitorTask struct {
	monitor      *Monitor
	exchange     string
	cycleTimeout time.Duration
	recorder     CycleRecorder

	mu     sync.RWMutex
	status Status
}

type TaskOption func(t *MonitorTask)

func WithCycleRecorder(r CycleRecorder) TaskOption {
	return func(t *MonitorTask) {
		t.recorder = r
	}
}

func NewMonitorTask(m *Monitor, exchangeName string, cycleTimeout time.Duration, opts ...TaskOption) *MonitorTask {
	if cycleTimeout <= 0 {
		cycleTimeout = DefaultCycleTimeout
	}
	t := &MonitorTask{
		monitor:      m,
		exchange:     exchangeName,
		cycleTimeout: cycleTimeout,
		status:       Status{Report: m.Name(), Exchange: exchangeName},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *MonitorTask) Name() string {
	return t.monitor.Name()
}

// LockKey 同一交易所的周期互斥
func (t *MonitorTask) LockKey() string {
	return "cycle:" + t.exchange
}

// Run 周期本身失败(超时/panic)时通过同一渠道发送执行错误消息; 外层 ctx 取消时只记录
func (t *MonitorTask) Run(ctx context.Context) error {
	start := time.Now()
	t.mu.Lock()
	t.status.LastStart = start
	t.mu.Unlock()

	cycleCtx, cancel := context.WithTimeout(ctx, t.cycleTimeout)
	res, err := t.safeRun(cycleCtx)
	cancel()

	result := ResultOK
	switch {
	case err != nil && ctx.Err() != nil:
		result = ResultCanceled
		slog.Warn("monitor cycle canceled", "report", t.Name(), "error", err)
	case err != nil:
		result = ResultError
		slog.Error("monitor cycle failed", "report", t.Name(), "error", err)
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		t.monitor.Dispatcher().Dispatch(notifyCtx, notification.ExecutionError(t.monitor.Label(), err))
		cancel()
	default:
		slog.Info("monitor cycle done", "report", t.Name(),
			"instruments", res.Instruments, "processed", res.Processed,
			"fetch_failures", res.FetchFailures, "alerts", res.Alerts, "messages", res.Messages)
	}

	end := time.Now()
	if t.recorder != nil {
		t.recorder.CycleFinished(t.Name(), result, end.Sub(start))
	}

	t.mu.Lock()
	t.status.LastEnd = end
	t.status.LastResult = result
	t.status.LastError = ""
	if err != nil {
		t.status.LastError = err.Error()
	}
	t.status.Instruments = res.Instruments
	t.status.Alerts = res.Alerts
	t.status.Messages = res.Messages
	t.mu.Unlock()
	return err
}

func (t *MonitorTask) safeRun(ctx context.Context) (res CycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("monitor cycle panic", "report", t.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.monitor.RunCycle(ctx)
}

func (t *MonitorTask) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}
