// cmd/candymint/root.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcfg "candymint/internal/infra/config"
	"candymint/internal/platform/di"
	"candymint/internal/platform/logging"
)

// app は 1 コマンド実行分の依存です（PersistentPreRunE で組み立てる）。
type app struct {
	configPath string

	cfg       *appcfg.Config
	logger    *zap.Logger
	container *di.Container
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "candymint",
		Short:        "Read candy machine sale state and mint from it",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (overrides CANDYMINT_CONFIG_PATH)")

	root.AddCommand(
		newStateCmd(a),
		newMintCmd(a),
		newWatchCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) init(ctx context.Context) error {
	if a.configPath != "" {
		if err := os.Setenv("CANDYMINT_CONFIG_PATH", a.configPath); err != nil {
			return err
		}
	}

	cfg, err := appcfg.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return fmt.Errorf("failed to init container: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.container = container
	return nil
}

func (a *app) close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	_ = a.logger.Sync()
	a.container = nil
	return err
}
