// File: cmd/extract.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keytrace-cli/internal/features"
	"github.com/xkilldash9x/keytrace-cli/internal/observability"
)

// newExtractCmd creates and configures the `extract` command.
func newExtractCmd() *cobra.Command {
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Builds the feature dataset CSV from stored run records",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("analysis.raw_dir", cmd.Flags().Lookup("raw-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("analysis.out_csv", cmd.Flags().Lookup("out")); err != nil {
				return err
			}
			return viper.BindPFlag("analysis.parallelism", cmd.Flags().Lookup("parallelism"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			rawDir := viper.GetString("analysis.raw_dir")
			outCSV := viper.GetString("analysis.out_csv")

			builder := features.NewBuilder(logger)
			builder.Parallelism = viper.GetInt("analysis.parallelism")

			logger.Info("Building feature dataset",
				zap.String("raw_dir", rawDir),
				zap.String("out_csv", outCSV),
			)

			count, err := builder.Build(ctx, rawDir, outCSV)
			if err != nil {
				return fmt.Errorf("feature extraction failed: %w", err)
			}

			fmt.Printf("Extracted features from %d run(s) into %s\n", count, outCSV)
			return nil
		},
	}

	extractCmd.Flags().String("raw-dir", "", "Directory holding per-run JSON records. (Overrides config/env)")
	extractCmd.Flags().StringP("out", "o", "", "Output path for the feature CSV. (Overrides config/env)")
	extractCmd.Flags().Int("parallelism", 0, "Concurrent record decoders; 0 uses all CPUs. (Overrides config/env)")

	return extractCmd
}
