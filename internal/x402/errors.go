package x402

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnexpectedSuccess 未付费请求没有被拒绝，说明端点不是按 x402 计费的
	ErrUnexpectedSuccess = errors.New("x402: endpoint did not require payment")
	// ErrMalformedPriceResponse 402 响应体为空或不是 JSON 对象
	ErrMalformedPriceResponse = errors.New("x402: malformed 402 response body")
	// ErrMissingPriceField 402 响应体缺少 maxAmountRequired
	ErrMissingPriceField = errors.New("x402: 402 response missing maxAmountRequired")
	// ErrMissingCredential 付费请求没有提供 X-Payment 凭证
	ErrMissingCredential = errors.New("x402: payment credential is empty")
)

// TransportError 网络错误 (StatusCode 为 0) 或非 2xx 响应
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("x402 transport: %v", e.Err)
	}
	return fmt.Sprintf("x402 api error (status %d): %s", e.StatusCode, truncate(e.Body, 200))
}

func (e *TransportError) Unwrap() error { return e.Err }

// PaymentRequired 是否为 402 拒绝
func (e *TransportError) PaymentRequired() bool {
	return e.StatusCode == http.StatusPaymentRequired
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
