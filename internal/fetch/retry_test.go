package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// 退避序列必须是 base * 2^(k-1)，且总尝试次数不超过上限
func TestBackoffMonotonicity(t *testing.T) {
	p := NewRetryPolicy(4, 100*time.Millisecond, testLogger())
	p.Jitter = false

	var waits []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	if calls != 4 {
		t.Errorf("attempts: got %d, want 4", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("waits: got %v", waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d: got %v, want %v", i+1, waits[i], want[i])
		}
	}

	var exhausted *RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetriesExhaustedError, got %T", err)
	}
	if exhausted.Attempts != 4 {
		t.Errorf("exhausted attempts: got %d", exhausted.Attempts)
	}
}

// 首次成功不应产生任何等待
func TestRetrySucceedsFirstTry(t *testing.T) {
	p := NewRetryPolicy(3, time.Second, testLogger())
	slept := false
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = true
		return nil
	}

	err := p.Do(context.Background(), "test", func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept {
		t.Error("no backoff expected on first-try success")
	}
}

// 中途成功即止
func TestRetryStopsOnSuccess(t *testing.T) {
	p := NewRetryPolicy(5, time.Millisecond, testLogger())
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

// 用尽后的错误必须携带最后一次底层原因
func TestRetriesExhaustedWrapsLastError(t *testing.T) {
	p := NewRetryPolicy(2, time.Millisecond, testLogger())
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	timeout := &TimeoutError{Op: "x", Err: errors.New("deadline")}
	err := p.Do(context.Background(), "test", func(ctx context.Context) error { return timeout })

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected wrapped TimeoutError, got %v", err)
	}
}

// ctx取消后不再继续尝试
func TestRetryHonorsContextCancel(t *testing.T) {
	p := NewRetryPolicy(5, time.Millisecond, testLogger())
	p.sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	calls := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	if calls != 1 {
		t.Errorf("calls after cancel: got %d, want 1", calls)
	}
	var exhausted *RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetriesExhaustedError, got %T", err)
	}
}
