package fetch

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy 单适配器调用的有界指数退避重试
// 不区分错误种类：超时/上游错误/解析错误一律在次数上限内重试（仅日志区分）
type RetryPolicy struct {
	MaxAttempts int           // 最大尝试次数（含首次）
	BaseDelay   time.Duration // 退避基础间隔
	Jitter      bool          // 是否在退避上叠加随机抖动
	logger      *logrus.Logger

	// sleep 可注入，测试时替换以免真实等待
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy 创建重试策略，maxAttempts<1时按1处理
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration, logger *logrus.Logger) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Jitter:      true,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Backoff 第attempt次失败后的等待时长：base * 2^(attempt-1)
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay * time.Duration(1<<uint(attempt-1))
	if p.Jitter {
		d += time.Duration(rand.Int63n(int64(p.BaseDelay)))
	}
	return d
}

// Do 执行fn直到成功或次数用尽，用尽后返回RetriesExhaustedError
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		last = fn(ctx)
		if last == nil {
			return nil
		}
		p.logger.WithError(last).WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"max":     p.MaxAttempts,
		}).Warn("调用失败")
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.Backoff(attempt)); err != nil {
			// ctx取消时提前收口，不再继续尝试
			return &RetriesExhaustedError{Op: op, Attempts: attempt, Last: last}
		}
	}
	return &RetriesExhaustedError{Op: op, Attempts: p.MaxAttempts, Last: last}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
