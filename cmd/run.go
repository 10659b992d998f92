// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keytrace-cli/internal/browser"
	"github.com/xkilldash9x/keytrace-cli/internal/config"
	"github.com/xkilldash9x/keytrace-cli/internal/harness"
	"github.com/xkilldash9x/keytrace-cli/internal/observability"
	"github.com/xkilldash9x/keytrace-cli/internal/runlog"
	"github.com/xkilldash9x/keytrace-cli/internal/typist"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Executes typing runs against the target page and records keystroke traces",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line flags override
			// the config file and environment with the right precedence.
			if err := viper.BindPFlag("typing.profile", cmd.Flags().Lookup("profile")); err != nil {
				return err
			}
			if err := viper.BindPFlag("run.iterations", cmd.Flags().Lookup("iterations")); err != nil {
				return err
			}
			if err := viper.BindPFlag("target.url", cmd.Flags().Lookup("url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("target.site_mode", cmd.Flags().Lookup("site-mode")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return viper.BindPFlag("run.out_dir", cmd.Flags().Lookup("out-dir"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// The context from Execute is signal-aware.
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			logger.Info("Starting typing run",
				zap.String("url", cfg.Target.URL),
				zap.String("profile", cfg.Typing.Profile),
				zap.String("site_mode", cfg.Target.SiteMode),
				zap.Int("iterations", cfg.Run.Iterations),
			)

			session, err := browser.NewSession(ctx, cfg.Browser, cfg.Selectors, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			defer session.Close()

			store, err := runlog.NewStore(cfg.Run.OutDir, cfg.Run.OutPrefix, logger)
			if err != nil {
				return fmt.Errorf("failed to open run store: %w", err)
			}

			typ := typist.New(session, logger)
			h := harness.New(cfg, session, typ, store, logger)

			if err := h.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Run aborted by signal.")
					return fmt.Errorf("run aborted by user signal")
				}
				return err
			}

			fmt.Printf("\nRun complete. Records written to %s\n", cfg.Run.OutDir)
			fmt.Printf("To build the feature dataset, run: keytrace extract --raw-dir %s\n", cfg.Run.OutDir)
			return nil
		},
	}

	runCmd.Flags().StringP("profile", "p", "", "Typing profile: superhuman, bot_obvious, or human_like. (Overrides config/env)")
	runCmd.Flags().IntP("iterations", "n", 0, "Number of sequential typing runs. (Overrides config/env)")
	runCmd.Flags().String("url", "", "Target page URL. (Overrides config/env)")
	runCmd.Flags().String("site-mode", "", "Site test mode: standard, clean, or programmer. (Overrides config/env)")
	runCmd.Flags().Bool("headless", true, "Run the browser headless. (Overrides config/env)")
	runCmd.Flags().StringP("out-dir", "o", "", "Directory for run records and the summary CSV. (Overrides config/env)")

	return runCmd
}
