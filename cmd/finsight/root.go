package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"finsight/pkg/core/config"
	"finsight/pkg/core/store"
)

// Version is set at build time.
var Version = "0.1.0"

type app struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "finsight",
		Short:         "Normalize SME financial statements and compute health metrics",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			cfg.ConfigureLogger()
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file")

	root.AddCommand(
		newAnalyzeCmd(a),
		newAckCmd(a),
		newListCmd(a),
		newIndustriesCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) openStore(ctx context.Context) (store.Repository, error) {
	return store.Open(ctx, a.cfg.DatabaseURL, filepath.Join(a.cfg.CacheDir, "analyses"))
}
