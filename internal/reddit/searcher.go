package reddit

import (
	"context"
	"errors"
	"fmt"

	"github.com/iWorld-y/reddit_radar/internal/discovery"
	"github.com/iWorld-y/reddit_radar/internal/logger"
	"github.com/iWorld-y/reddit_radar/internal/metrics"
	"github.com/iWorld-y/reddit_radar/internal/model"
	"github.com/iWorld-y/reddit_radar/internal/x402"
)

// Options Searcher 配置
type Options struct {
	Endpoint string
	Domain   string
	Profiles model.DepthProfiles
	// MaxPriceAtomic 报价上限，0 表示不限制
	MaxPriceAtomic uint64
	Metrics        *metrics.Metrics
}

// Searcher 通过 x402 代理的 OpenAI web_search 发现 Reddit 帖子
type Searcher struct {
	client         *x402.Client
	builder        *PayloadBuilder
	endpoint       string
	domain         string
	maxPriceAtomic uint64
	metrics        *metrics.Metrics
}

// Ensure Searcher implements discovery.Discoverer
var _ discovery.Discoverer = (*Searcher)(nil)

// NewSearcher 创建 Searcher
func NewSearcher(client *x402.Client, opts Options) *Searcher {
	return &Searcher{
		client:         client,
		builder:        NewPayloadBuilder(opts.Profiles, opts.Domain),
		endpoint:       opts.Endpoint,
		domain:         opts.Domain,
		maxPriceAtomic: opts.MaxPriceAtomic,
		metrics:        opts.Metrics,
	}
}

// Provider implements discovery.Discoverer
func (s *Searcher) Provider() string { return "openai" }

// Prepare implements discovery.Discoverer
func (s *Searcher) Prepare(req model.SearchRequest) (*discovery.Quote, error) {
	body, err := s.builder.Build(req).Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}
	return &discovery.Quote{Request: req, Body: body}, nil
}

// Quote implements discovery.Discoverer
func (s *Searcher) Quote(ctx context.Context, req model.SearchRequest) (*discovery.Quote, error) {
	q, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}

	price, err := s.client.Probe(ctx, s.endpoint, q.Body)
	if err != nil {
		return nil, err
	}
	q.Price = price

	if s.maxPriceAtomic > 0 && price.AmountAtomic > s.maxPriceAtomic {
		return q, fmt.Errorf("%w: %d > %d", discovery.ErrPriceAboveLimit, price.AmountAtomic, s.maxPriceAtomic)
	}
	return q, nil
}

// Search implements discovery.Discoverer
func (s *Searcher) Search(ctx context.Context, q *discovery.Quote, credential string) ([]model.DiscoveryItem, error) {
	if q == nil || len(q.Body) == 0 {
		return nil, errors.New("search requires a prepared quote")
	}

	raw, err := s.client.Execute(ctx, s.endpoint, credential, q.Body, q.Request.Depth)
	if err != nil {
		return nil, err
	}

	items := s.Parse(raw)
	logger.Log.Infof("话题 [%s] 发现 %d 个帖子", q.Request.Topic, len(items))
	return items, nil
}

// Parse implements discovery.Discoverer
func (s *Searcher) Parse(raw []byte) []model.DiscoveryItem {
	items, dropped := parseResponse(raw, s.domain)
	s.metrics.ObserveItems(len(items), dropped)
	return items
}
