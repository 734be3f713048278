package factory

import (
	"fmt"

	"github.com/iWorld-y/reddit_radar/internal/config"
	"github.com/iWorld-y/reddit_radar/internal/discovery"
	"github.com/iWorld-y/reddit_radar/internal/metrics"
	"github.com/iWorld-y/reddit_radar/internal/reddit"
	"github.com/iWorld-y/reddit_radar/internal/x402"
)

// NewDiscoverer 根据配置创建发现实例
func NewDiscoverer(cfg *config.Config, transport x402.Transport, m *metrics.Metrics) (discovery.Discoverer, error) {
	provider := cfg.Discovery.Provider
	if provider == "" {
		provider = config.ProviderOpenAI
	}

	endpoint := cfg.X402.Endpoints[provider]
	if endpoint == "" {
		return nil, fmt.Errorf("x402 endpoint for %s is missing", provider)
	}

	client := x402.NewClient(transport, x402.Options{
		Timeouts: cfg.DepthTimeouts(),
		Limiter:  x402.NewLimiter(cfg.Concurrency.QPS, cfg.Concurrency.RPM),
		Metrics:  m,
	})

	switch provider {
	case config.ProviderOpenAI:
		return reddit.NewSearcher(client, reddit.Options{
			Endpoint:       endpoint,
			Domain:         cfg.Discovery.Domain,
			Profiles:       cfg.DepthProfiles(),
			MaxPriceAtomic: cfg.X402.MaxPriceAtomic,
			Metrics:        m,
		}), nil

	default:
		return nil, fmt.Errorf("unknown discovery provider: %s", provider)
	}
}
