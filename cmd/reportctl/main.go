package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"dwhreports/config"
	"dwhreports/internal/bootstrap"
	"dwhreports/internal/reports"
	"dwhreports/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Run e-commerce warehouse reports",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newListCmd(), newRunCmd(), newVerifyCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List report names",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range reports.NewCatalogue(nil).Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newRunCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "run <report>|all",
		Short: "Run one report, or every report with \"all\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("unknown format %q (want json or table)", format)
			}
			return withCatalogue(cmd.Context(), func(c *reports.Catalogue) error {
				names := []string{args[0]}
				if args[0] == "all" {
					names = c.Names()
				}
				for _, name := range names {
					rows, err := c.Run(cmd.Context(), name)
					if err != nil {
						return err
					}
					if err := render(cmd, format, name, rows); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: json or table")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the warehouse against the schema contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// OpenWarehouse already verifies the schema
			return withCatalogue(cmd.Context(), func(*reports.Catalogue) error {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ warehouse schema matches")
				return nil
			})
		},
	}
}

func withCatalogue(ctx context.Context, fn func(*reports.Catalogue) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	w, err := bootstrap.OpenWarehouse(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer w.Close()

	return fn(bootstrap.NewCatalogue(cfg, w))
}

func render(cmd *cobra.Command, format, name string, rows any) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"report": name, "rows": rows})
	}
	fmt.Fprintf(out, "== %s\n", name)
	if err := writeTable(out, rows); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}
