package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/rigscout/internal/config"
	"github.com/FranksOps/rigscout/internal/report"
	"github.com/FranksOps/rigscout/internal/server"
	"github.com/FranksOps/rigscout/internal/storage"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recommendation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, l, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			a, err := newApp(cmd.Context(), cfg, l, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			srvCfg := server.Config{
				Addr:            cfg.HTTP.Addr,
				RequestTimeout:  cfg.HTTP.RequestTimeout,
				ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
			}
			router := server.SetupRouter(srvCfg, server.NewHandler(a.service, a.translator, l))
			l.Info("starting rigscout", "stores", len(a.adapters), "storage", cfg.Storage.Backend)
			return server.Run(cmd.Context(), srvCfg, router, l)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override http.addr")
	return cmd
}

func newRecommendCmd(flags *rootFlags) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "recommend <request...>",
		Short: "Answer one request and print the entries as JSON",
		Example: `  rigscout recommend "Necesito una laptop para juegos con 16GB de RAM"
  rigscout recommend --store computron laptop para programar`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, l, only)
			if err != nil {
				return err
			}
			defer a.Close()

			q := strings.TrimSpace(strings.Join(args, " "))
			tr := a.translator.Translate(cmd.Context(), q)
			entries := a.service.GetRecommendations(cmd.Context(), q, tr)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(entries)
		},
	}
	cmd.Flags().StringSliceVar(&only, "store", nil, "query only these stores (repeatable)")
	return cmd
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var (
		format  string
		outcome string
		since   time.Duration
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Summarize recorded recommendation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Storage.Backend == config.BackendNone {
				return errNoRunLog
			}
			runs, err := openBackend(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer runs.Close()

			filter := storage.Filter{Outcome: storage.Outcome(outcome), Limit: limit}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}
			found, err := runs.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}

			summary := report.GenerateSummary(found)
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				return report.WriteText(out, summary)
			case "json":
				return report.WriteJSON(out, summary)
			case "html":
				return report.WriteHTML(out, summary)
			default:
				return fmt.Errorf("unknown format %q: want text, json or html", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or html")
	cmd.Flags().StringVar(&outcome, "outcome", "", "only runs with this outcome (ok, no_matches, unsupported_intent, translation_failed, canceled, failed)")
	cmd.Flags().DurationVar(&since, "since", 0, "only runs newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 0, "at most this many runs, newest first (0 = all)")
	return cmd
}

func newStoresCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List the configured stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tRENDER\tBASE URL\tROBOTS")
			for _, s := range cfg.Stores {
				s = s.WithDefaults()
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", s.Name, s.Render, s.BaseURL, s.RespectRobots)
			}
			return w.Flush()
		},
	}
}
