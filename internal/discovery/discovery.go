package discovery

import (
	"context"
	"errors"

	"github.com/iWorld-y/reddit_radar/internal/model"
)

// ErrPriceAboveLimit 报价超过配置的上限
var ErrPriceAboveLimit = errors.New("discovery: quoted price above configured limit")

// Discoverer 付费帖子发现的通用接口
//
// 一次发现分两步：Quote 拿到报价，调用方在外部用钱包换到支付凭证后再调用 Search。
type Discoverer interface {
	Provider() string
	// Prepare 只构建请求体，不发请求。同样的参数总是得到同样的字节。
	Prepare(req model.SearchRequest) (*Quote, error)
	Quote(ctx context.Context, req model.SearchRequest) (*Quote, error)
	Search(ctx context.Context, q *Quote, credential string) ([]model.DiscoveryItem, error)
	// Parse 解析一份已拿到的原始响应
	Parse(raw []byte) []model.DiscoveryItem
}

// Quote 报价阶段的结果，付费阶段原样重放 Body
type Quote struct {
	Request model.SearchRequest
	Body    []byte
	// Price Prepare 阶段为 nil
	Price *model.PriceQuote
}
