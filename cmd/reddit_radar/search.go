package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/reddit_radar/internal/discovery"
	"github.com/iWorld-y/reddit_radar/internal/logger"
	"github.com/iWorld-y/reddit_radar/internal/model"
	"github.com/iWorld-y/reddit_radar/internal/storage"
)

// searchOutput search 命令的输出
type searchOutput struct {
	Items []model.DiscoveryItem `json:"items"`
}

func searchCMD(cfgPath *string) *cobra.Command {
	var flags requestFlags
	var payment string
	var mockResponse string

	var search = &cobra.Command{
		Use:   "search",
		Short: "Run a paid search and print the validated threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if payment == "" && mockResponse == "" {
				return errors.New("either --payment or --mock-response is required")
			}

			rt, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer rt.flushMetrics()

			req, err := flags.request(rt.cfg, time.Now())
			if err != nil {
				return err
			}

			// 离线解析，不发请求
			if mockResponse != "" {
				raw, err := os.ReadFile(mockResponse)
				if err != nil {
					return fmt.Errorf("read mock response: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), searchOutput{Items: rt.discoverer.Parse(raw)})
			}

			ctx := cmd.Context()
			q, err := rt.discoverer.Quote(ctx, req)
			if err != nil {
				return err
			}
			logger.Log.Infof("报价 %s (%d atomic)", q.Price.FormatUSD(), q.Price.AmountAtomic)

			items, err := rt.discoverer.Search(ctx, q, payment)
			if err != nil {
				return err
			}

			if rt.cfg.DB.Host != "" {
				recordRun(ctx, rt, q, items)
			}

			return writeJSON(cmd.OutOrStdout(), searchOutput{Items: items})
		},
	}
	flags.register(search)
	search.Flags().StringVar(&payment, "payment", "", "signed X-Payment header value")
	search.Flags().StringVar(&mockResponse, "mock-response", "", "parse a saved provider response instead of paying")

	return search
}

// recordRun 写入运行记录，失败只记日志
func recordRun(ctx context.Context, rt *app, q *discovery.Quote, items []model.DiscoveryItem) {
	st, err := storage.NewStorage(rt.cfg.DB)
	if err != nil {
		logger.Log.Errorf("连接数据库失败: %v", err)
		return
	}
	defer st.Close()

	run := &model.DiscoveryRun{
		Provider: rt.discoverer.Provider(),
		Request:  q.Request,
		Quote:    *q.Price,
		Items:    items,
	}
	if err := st.SaveRun(ctx, run); err != nil {
		logger.Log.Errorf("保存运行记录失败: %v", err)
		return
	}
	logger.Log.Infof("运行记录已保存: %s", run.ID)
}
