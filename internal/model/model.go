package model

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Depth 搜索深度档位，决定请求的帖子数量和超时
type Depth string

const (
	DepthQuick   Depth = "quick"
	DepthDefault Depth = "default"
	DepthDeep    Depth = "deep"
)

// ParseDepth 未知档位一律按 default 处理
func ParseDepth(s string) Depth {
	switch d := Depth(s); d {
	case DepthQuick, DepthDefault, DepthDeep:
		return d
	default:
		return DepthDefault
	}
}

// SearchRequest 一次发现请求的参数，构造后不再修改
type SearchRequest struct {
	Topic    string
	FromDate time.Time
	ToDate   time.Time
	Depth    Depth
	Model    string
}

// DepthProfile 某个档位请求的帖子数量区间
type DepthProfile struct {
	MinItems int `yaml:"min_items"`
	MaxItems int `yaml:"max_items"`
}

// DepthProfiles 档位 -> 数量区间
type DepthProfiles map[Depth]DepthProfile

// DefaultDepthProfiles 默认数量区间，多要一些，日期过滤会筛掉不少
func DefaultDepthProfiles() DepthProfiles {
	return DepthProfiles{
		DepthQuick:   {MinItems: 15, MaxItems: 25},
		DepthDefault: {MinItems: 30, MaxItems: 50},
		DepthDeep:    {MinItems: 70, MaxItems: 100},
	}
}

// Lookup 查不到时回退到 default 档位
func (p DepthProfiles) Lookup(d Depth) DepthProfile {
	if v, ok := p[d]; ok {
		return v
	}
	if v, ok := p[DepthDefault]; ok {
		return v
	}
	return DefaultDepthProfiles()[DepthDefault]
}

// DepthTimeouts 档位 -> 付费请求超时
type DepthTimeouts map[Depth]time.Duration

// DefaultDepthTimeouts web_search 越深越慢
func DefaultDepthTimeouts() DepthTimeouts {
	return DepthTimeouts{
		DepthQuick:   90 * time.Second,
		DepthDefault: 120 * time.Second,
		DepthDeep:    180 * time.Second,
	}
}

// Lookup 查不到时回退到 default 档位
func (t DepthTimeouts) Lookup(d Depth) time.Duration {
	if v, ok := t[d]; ok && v > 0 {
		return v
	}
	if v, ok := t[DepthDefault]; ok && v > 0 {
		return v
	}
	return DefaultDepthTimeouts()[DepthDefault]
}

// PriceQuote 402 响应中的报价，金额单位为 USDC 最小单位 (1 USDC = 1,000,000)
type PriceQuote struct {
	AmountAtomic uint64
	// RawNegotiation 完整的 402 响应体，原样交给钱包生成支付凭证
	RawNegotiation json.RawMessage
}

// USD 报价的美元金额
func (q PriceQuote) USD() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(q.AmountAtomic), -6)
}

// FormatUSD 格式化为 "$0.02"
func (q PriceQuote) FormatUSD() string {
	return "$" + q.USD().StringFixed(2)
}

// DiscoveryItem 经过校验的帖子
type DiscoveryItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Subreddit   string  `json:"subreddit"`
	Date        *string `json:"date"`
	WhyRelevant string  `json:"why_relevant"`
	Relevance   float64 `json:"relevance"`
}

// DiscoveryRun 一次付费发现的记录，只用于审计
type DiscoveryRun struct {
	ID        uuid.UUID
	Provider  string
	Request   SearchRequest
	Quote     PriceQuote
	Items     []DiscoveryItem
	CreatedAt time.Time
}
