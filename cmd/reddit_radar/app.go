package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/reddit_radar/internal/config"
	"github.com/iWorld-y/reddit_radar/internal/discovery"
	"github.com/iWorld-y/reddit_radar/internal/discovery/factory"
	"github.com/iWorld-y/reddit_radar/internal/logger"
	"github.com/iWorld-y/reddit_radar/internal/metrics"
	"github.com/iWorld-y/reddit_radar/internal/model"
	"github.com/iWorld-y/reddit_radar/internal/reddit"
	"github.com/iWorld-y/reddit_radar/internal/x402"
)

const (
	dateLayout    = "2006-01-02"
	defaultWindow = 30 * 24 * time.Hour
)

// requestFlags price 和 search 共用的参数
type requestFlags struct {
	topic  string
	from   string
	to     string
	depth  string
	narrow bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.topic, "topic", "t", "", "topic to search for (required)")
	cmd.Flags().StringVar(&f.from, "from", "", "window start YYYY-MM-DD (default: 30 days ago)")
	cmd.Flags().StringVar(&f.to, "to", "", "window end YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&f.depth, "depth", "d", string(model.DepthDefault), "quick, default or deep")
	cmd.Flags().BoolVar(&f.narrow, "narrow", false, "strip filler words from the topic before searching")
	_ = cmd.MarkFlagRequired("topic")
}

// request 把命令行参数转换为 SearchRequest
func (f *requestFlags) request(cfg *config.Config, now time.Time) (model.SearchRequest, error) {
	to := now
	if f.to != "" {
		t, err := time.Parse(dateLayout, f.to)
		if err != nil {
			return model.SearchRequest{}, fmt.Errorf("invalid --to: %w", err)
		}
		to = t
	}
	from := to.Add(-defaultWindow)
	if f.from != "" {
		t, err := time.Parse(dateLayout, f.from)
		if err != nil {
			return model.SearchRequest{}, fmt.Errorf("invalid --from: %w", err)
		}
		from = t
	}
	if from.After(to) {
		return model.SearchRequest{}, fmt.Errorf("--from %s is after --to %s", from.Format(dateLayout), to.Format(dateLayout))
	}

	topic := f.topic
	if f.narrow {
		topic = reddit.CoreSubject(topic)
		logger.Log.Infof("话题收窄: %q -> %q", f.topic, topic)
	}

	return model.SearchRequest{
		Topic:    topic,
		FromDate: from,
		ToDate:   to,
		Depth:    model.ParseDepth(f.depth),
		Model:    cfg.ModelFor(cfg.Discovery.Provider),
	}, nil
}

// app 一次命令执行所需的组件
type app struct {
	cfg        *config.Config
	registry   *prometheus.Registry
	discoverer discovery.Discoverer
}

func setup(cfgPath string) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("无法加载配置文件: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}

	reg := prometheus.NewRegistry()
	d, err := factory.NewDiscoverer(cfg, x402.NewHTTPTransport(nil), metrics.New(reg))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, registry: reg, discoverer: d}, nil
}

// flushMetrics 配置了 textfile 时写出指标，失败只记日志
func (r *app) flushMetrics() {
	path := r.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		logger.Log.Warnf("写入指标文件失败: %v", err)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
