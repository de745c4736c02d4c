package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TimeoutError 单次请求超出适配器截止时间
type TimeoutError struct {
	Op  string // 超时的操作（平台+接口）
	Err error  // 底层错误
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("%s请求超时: %v", e.Op, e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// UpstreamError 上游返回非2xx状态或API级错误
type UpstreamError struct {
	Op         string // 出错的操作
	StatusCode int    // HTTP状态码（API级错误时可为200）
	Msg        string // 上游错误描述
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s上游错误(状态码%d): %s", e.Op, e.StatusCode, e.Msg)
}

// MalformedResponseError 响应体不符合约定schema
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string { return fmt.Sprintf("%s响应解析失败: %v", e.Op, e.Err) }
func (e *MalformedResponseError) Unwrap() error { return e.Err }

// RetriesExhaustedError 重试次数用尽，携带最后一次底层错误
type RetriesExhaustedError struct {
	Op       string
	Attempts int   // 实际尝试次数
	Last     error // 最后一次失败原因
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s重试%d次后仍失败: %v", e.Op, e.Attempts, e.Last)
}
func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// WrapTransportError 将http客户端错误归类为Timeout/Upstream
func WrapTransportError(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	return &UpstreamError{Op: op, Msg: err.Error()}
}
