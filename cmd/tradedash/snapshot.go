package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tradedash/internal/config"
	"tradedash/internal/models"
	"tradedash/internal/observability"
)

type snapshotOptions struct {
	direction string
	topN      int
	variable  string
	format    string
}

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	def := models.DefaultSelections()
	opts := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute one dashboard and print it",
		Example: `  tradedash snapshot --direction Import --top-n 5
  tradedash snapshot --variable Weight --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "yaml" {
				return fmt.Errorf("--format must be json or yaml, got %q", opts.format)
			}

			cfg, err := config.Load(root.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := observability.NewLogger(cfg.Logger, cmd.ErrOrStderr())

			dashboard, err := loadDashboard(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			result, err := dashboard.Compute(cmd.Context(), models.Selections{
				Direction: models.Direction(opts.direction),
				TopN:      opts.topN,
				Variable:  opts.variable,
			})
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.OutOrStdout(), opts.format, result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.direction, "direction", string(def.Direction), "Export or Import")
	f.IntVar(&opts.topN, "top-n", def.TopN, fmt.Sprintf("number of countries (%d-%d)", models.MinTopN, models.MaxTopN))
	f.StringVar(&opts.variable, "variable", def.Variable, "distribution variable: Value, Quantity or Weight")
	f.StringVar(&opts.format, "format", "json", "output format: json or yaml")
	return cmd
}

func writeSnapshot(w io.Writer, format string, result *models.DashboardResult) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
