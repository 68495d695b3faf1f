package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"finsight/pkg/core/benchmark"
	"finsight/pkg/core/engine"
	"finsight/pkg/core/ingest"
	"finsight/pkg/core/period"
	"finsight/pkg/core/store"
	"finsight/pkg/models"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		industry string
		fye      string
		asJSON   bool
		ack      bool
		demo     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [FILE|URL]",
		Short: "Analyze a statement export (csv, xlsx, html, txt or json)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !demo && len(args) == 0 {
				return errors.New("a statement file or URL is required unless --demo is set")
			}

			var (
				in  models.Input
				err error
			)
			switch {
			case demo:
				in, err = ingest.DemoInput()
			case strings.HasPrefix(args[0], "http://"), strings.HasPrefix(args[0], "https://"):
				in, err = ingest.NewFetcher(a.cfg.CacheDir).Fetch(ctx, args[0])
			default:
				in, err = ingest.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			opts := a.cfg.EngineOptions()
			if industry != "" {
				opts.Industry = industry
			}
			if fye != "" {
				if opts.Calendar, err = period.ParseYearEnd(fye); err != nil {
					return err
				}
			}

			ds, err := benchmark.Load(a.cfg.Benchmarks)
			if err != nil {
				return err
			}
			res, err := engine.New(ds).Analyze(ctx, in, opts)
			if err != nil {
				return err
			}
			if ack && !res.Gate.Visible() {
				res.Gate = res.Gate.Acknowledge(currentUser())
			}

			repo, err := a.openStore(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("run not saved")
			} else {
				defer store.Close()
				if err := repo.Save(ctx, res); err != nil {
					log.Warn().Err(err).Msg("run not saved")
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Redacted())
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&industry, "industry", "", "industry for benchmark comparison")
	cmd.Flags().StringVar(&fye, "fye", "", "fiscal year end as MM-DD (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&ack, "ack", false, "acknowledge failing integrity checks and show all results")
	cmd.Flags().BoolVar(&demo, "demo", false, "analyze the bundled demo statements")
	return cmd
}

func currentUser() string {
	for _, k := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(k); u != "" {
			return u
		}
	}
	return "cli"
}
