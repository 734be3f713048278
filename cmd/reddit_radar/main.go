package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{
		Use:          "reddit_radar",
		Short:        "Discover Reddit threads through an x402 paid web search proxy",
		SilenceUsage: true,
	}

	var cfgPath string
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default: built-in defaults + env)")

	root.AddCommand(priceCMD(&cfgPath), searchCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
