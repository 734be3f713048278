package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/reddit_radar/internal/discovery"
	"github.com/iWorld-y/reddit_radar/internal/logger"
)

// priceOutput price 命令的输出
type priceOutput struct {
	PriceAtomic         uint64          `json:"price_atomic"`
	PriceUSD            string          `json:"price_usd"`
	PaymentRequirements json.RawMessage `json:"payment_requirements"`
}

func priceCMD(cfgPath *string) *cobra.Command {
	var flags requestFlags

	var price = &cobra.Command{
		Use:   "price",
		Short: "Probe the proxy for the price of a search without paying",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer rt.flushMetrics()

			req, err := flags.request(rt.cfg, time.Now())
			if err != nil {
				return err
			}

			q, err := rt.discoverer.Quote(cmd.Context(), req)
			if err != nil && !errors.Is(err, discovery.ErrPriceAboveLimit) {
				return err
			}
			if err != nil {
				logger.Log.Warnf("%v", err)
			}

			return writeJSON(cmd.OutOrStdout(), priceOutput{
				PriceAtomic:         q.Price.AmountAtomic,
				PriceUSD:            q.Price.FormatUSD(),
				PaymentRequirements: q.Price.RawNegotiation,
			})
		},
	}
	flags.register(price)

	return price
}
