package notification

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"
)

const (
	DefaultMaxLength  = 4000
	DefaultChunkSize  = 3000
	DefaultChunkDelay = 100 * time.Millisecond
)

// Dispatcher 超长消息分块发送, 块间留间隔避免触发限流; 失败只记录日志
type Dispatcher struct {
	sender     Sender
	maxLength  int
	chunkSize  int
	chunkDelay time.Duration

	sleep     func(ctx context.Context, d time.Duration)
	onFailure func(err error)
}

type DispatcherOption func(d *Dispatcher)

func WithLimits(maxLength, chunkSize int) DispatcherOption {
	return func(d *Dispatcher) {
		if maxLength > 0 {
			d.maxLength = maxLength
		}
		if chunkSize > 0 {
			d.chunkSize = chunkSize
		}
	}
}

func WithChunkDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.chunkDelay = delay
	}
}

func WithOnFailure(fn func(err error)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onFailure = fn
	}
}

func NewDispatcher(sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:     sender,
		maxLength:  DefaultMaxLength,
		chunkSize:  DefaultChunkSize,
		chunkDelay: DefaultChunkDelay,
		sleep:      sleepCtx,
		onFailure:  func(err error) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch 不返回错误, 投递是尽力而为的
func (d *Dispatcher) Dispatch(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if utf8.RuneCountInString(text) <= d.maxLength {
		d.send(ctx, text)
		return
	}

	chunks := SplitChunks(text, d.chunkSize)
	for i, chunk := range chunks {
		if i > 0 {
			d.sleep(ctx, d.chunkDelay)
		}
		if !d.send(ctx, chunk) {
			// 渠道已不可用, 后续分块同样会失败
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, text string) bool {
	if err := d.sender.Send(ctx, text); err != nil {
		slog.Error("failed to send notification", "length", utf8.RuneCountInString(text), "error", err)
		d.onFailure(err)
		return false
	}
	return true
}

// SplitChunks 每块至多 size 个字符, 拼接后与原文逐字节一致
func SplitChunks(text string, size int) []string {
	if size <= 0 || text == "" {
		return []string{text}
	}
	chunks := make([]string, 0, (utf8.RuneCountInString(text)+size-1)/size)
	start, n := 0, 0
	for i := range text {
		if n == size {
			chunks = append(chunks, text[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(chunks, text[start:])
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
