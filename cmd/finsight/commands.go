package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"finsight/pkg/api/analysis"
	"finsight/pkg/core/benchmark"
	"finsight/pkg/core/store"
)

func newAckCmd(a *app) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "ack ID",
		Short: "Acknowledge the failing integrity checks of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if by == "" {
				by = currentUser()
			}
			res, err := repo.Acknowledge(cmd.Context(), args[0], by)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s acknowledged by %s (gate %s)\n", res.ID, by, res.Gate.State)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "name recorded with the acknowledgement (default $USER)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := repo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Created", "Source", "Industry", "Gate", "Acknowledged"})
			for _, s := range runs {
				t.AppendRow(table.Row{s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Source, s.Industry, s.Gate, s.Acknowledged})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	return cmd
}

func newIndustriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "industries",
		Short: "List the industries with benchmark bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := benchmark.Load(a.cfg.Benchmarks)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Industry"})
			for _, ind := range ds.Industries() {
				t.AppendRow(table.Row{ind})
			}
			t.SetCaption("%s (%s)", ds.Metadata.Source, ds.Metadata.Year)
			t.Render()
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return analysis.Serve(ctx, a.cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
