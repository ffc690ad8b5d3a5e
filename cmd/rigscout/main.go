// Command rigscout recommends computers from Ecuadorian online stores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "rigscout",
		Short:         "Recommend laptops and desktops from online store listings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default: rigscout.yaml in ., $HOME/.config/rigscout, /etc/rigscout)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override log.format (text, json)")

	cmd.AddCommand(
		newServeCmd(flags),
		newRecommendCmd(flags),
		newHistoryCmd(flags),
		newStoresCmd(flags),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rigscout:", err)
		stop()
		os.Exit(1)
	}
}
