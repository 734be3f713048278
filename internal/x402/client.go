package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/reddit_radar/internal/logger"
	"github.com/iWorld-y/reddit_radar/internal/metrics"
	"github.com/iWorld-y/reddit_radar/internal/model"
)

const (
	// HeaderPayment 钱包签发的支付凭证放在这个请求头里
	HeaderPayment = "X-Payment"

	priceField          = "maxAmountRequired"
	defaultProbeTimeout = 30 * time.Second
)

// Options Client 的可选配置
type Options struct {
	Timeouts     model.DepthTimeouts
	ProbeTimeout time.Duration
	// Limiter 为 nil 时不限流
	Limiter *rate.Limiter
	Metrics *metrics.Metrics
}

// Client x402 计费端点客户端
//
// Client 只持有只读配置和并发安全的依赖，可以在多个 goroutine 间共享。
type Client struct {
	transport    Transport
	timeouts     model.DepthTimeouts
	probeTimeout time.Duration
	limiter      *rate.Limiter
	metrics      *metrics.Metrics
}

// NewClient 创建 x402 客户端
func NewClient(transport Transport, opts Options) *Client {
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}
	timeouts := opts.Timeouts
	if timeouts == nil {
		timeouts = model.DefaultDepthTimeouts()
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Client{
		transport:    transport,
		timeouts:     timeouts,
		probeTimeout: probeTimeout,
		limiter:      opts.Limiter,
		metrics:      opts.Metrics,
	}
}

// NewLimiter 按 RPM/QPS 创建限流器，都为 0 时返回 nil
func NewLimiter(qps, rpm int) *rate.Limiter {
	if qps <= 0 && rpm <= 0 {
		return nil
	}
	limit := rate.Limit(qps)
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
	}
	burst := qps
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}

// Probe 不带支付凭证请求一次，从 402 响应中读取报价
//
// 计费端点对未付费请求一定返回 402，收到 2xx 视为协议错误。
func (c *Client) Probe(ctx context.Context, endpoint string, body []byte) (*model.PriceQuote, error) {
	quote, err := c.probe(ctx, endpoint, body)
	c.metrics.ObserveProbe(err)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveQuote(endpoint, quote.AmountAtomic)
	logger.Log.Infof("x402 报价: %d atomic (%s)", quote.AmountAtomic, quote.FormatUSD())
	return quote, nil
}

func (c *Client) probe(ctx context.Context, endpoint string, body []byte) (*model.PriceQuote, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	_, err := c.transport.Post(ctx, endpoint, body, headers, c.probeTimeout)
	if err == nil {
		return nil, ErrUnexpectedSuccess
	}

	var terr *TransportError
	if !errors.As(err, &terr) || !terr.PaymentRequired() {
		return nil, fmt.Errorf("price probe failed: %w", err)
	}
	return ParsePriceResponse([]byte(terr.Body))
}

// ParsePriceResponse 解析 402 响应体
//
// maxAmountRequired 可以是整数或十进制整数字符串，其余字段不做解释，
// 整个响应体原样放进 RawNegotiation。
func ParsePriceResponse(body []byte) (*model.PriceQuote, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPriceResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPriceResponse, truncate(string(trimmed), 200))
	}

	raw, ok := fields[priceField]
	if !ok || string(raw) == "null" {
		return nil, ErrMissingPriceField
	}

	amount, err := parseAtomic(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPriceResponse, priceField, err)
	}

	return &model.PriceQuote{
		AmountAtomic:   amount,
		RawNegotiation: json.RawMessage(append([]byte(nil), body...)),
	}, nil
}

func parseAtomic(raw json.RawMessage) (uint64, error) {
	text := string(raw)
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(s)
	}

	if v, err := strconv.ParseUint(text, 10, 64); err == nil {
		return v, nil
	}

	// 20000.0 这种写法也接受，但必须是非负整数
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", text)
	}
	if f < 0 || f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxUint64 {
		return 0, fmt.Errorf("not a non-negative integer: %q", text)
	}
	return uint64(f), nil
}

// Execute 带支付凭证重放请求
//
// body 必须与 Probe 时发送的字节完全一致，否则结算时价格可能对不上。
// 不做任何重试：付费请求失败时钱可能已经扣了，是否重试由调用方决定。
func (c *Client) Execute(ctx context.Context, endpoint, credential string, body []byte, depth model.Depth) ([]byte, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}
	resp, err := c.execute(ctx, endpoint, credential, body, depth)
	c.metrics.ObservePaidRequest(err)
	return resp, err
}

func (c *Client) execute(ctx context.Context, endpoint, credential string, body []byte, depth model.Depth) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	timeout := c.timeouts.Lookup(depth)
	logger.Log.Infof("发送付费请求 (depth=%s, timeout=%s)", depth, timeout)

	headers := map[string]string{
		"Content-Type": "application/json",
		HeaderPayment:  credential,
	}
	resp, err := c.transport.Post(ctx, endpoint, body, headers, timeout)
	if err != nil {
		return nil, fmt.Errorf("paid request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}
