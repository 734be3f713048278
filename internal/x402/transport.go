package x402

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport 发送 JSON POST 请求
//
// 非 2xx 响应返回 *TransportError，其中带有状态码和原始响应体。
type Transport interface {
	Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) ([]byte, error)
}

// HTTPTransport 基于 net/http 的 Transport
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport 创建 HTTPTransport，client 为 nil 时使用 http.DefaultClient
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

var _ Transport = (*HTTPTransport)(nil)

// Post implements Transport
func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	res, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body failed: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &TransportError{StatusCode: res.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
