package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shubham-Nemade-24/certagent/internal/common"
	"github.com/Shubham-Nemade-24/certagent/internal/export"
	"github.com/Shubham-Nemade-24/certagent/internal/history"
	"github.com/Shubham-Nemade-24/certagent/internal/index"
)

func newExportCmd(log *slog.Logger) *cobra.Command {
	var (
		out   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the run history to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg := common.LoadConfig()
			runs, err := history.Open(cfg.Storage.HistoryPath, log)
			if err != nil {
				return err
			}
			defer runs.Close()

			data, err := export.NewService(runs, log).ExportRunsXLSX(ctx, limit)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			log.Info("export written", "path", out, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "runs.xlsx", "output XLSX path")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows to export (0 = all)")
	return cmd
}

func newHistoryCmd(log *slog.Logger) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg := common.LoadConfig()
			runs, err := history.Open(cfg.Storage.HistoryPath, log)
			if err != nil {
				return err
			}
			defer runs.Close()

			list, err := runs.List(ctx, limit)
			if err != nil {
				return err
			}
			for _, r := range list {
				line := fmt.Sprintf("%s  %-26s %-26s", r.CreatedAt.Format("2006-01-02 15:04:05"), r.Status, r.Source)
				if r.ErrorMsg != "" {
					line += "  " + r.ErrorMsg
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show (0 = all)")
	return cmd
}

func newResetCmd(log *slog.Logger) *cobra.Command {
	var (
		resetRegistry bool
		resetHistory  bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the vector index (and optionally registry and history) for full reprocessing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()

			if err := index.Reset(cfg.Storage.IndexDir); err != nil {
				return fmt.Errorf("reset index: %w", err)
			}
			log.Info("index removed", "dir", cfg.Storage.IndexDir)

			if resetRegistry {
				if err := os.Remove(cfg.Storage.RegistryPath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("reset registry: %w", err)
				}
				log.Info("registry removed", "path", cfg.Storage.RegistryPath)
			}
			if resetHistory {
				if err := os.Remove(cfg.Storage.HistoryPath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("reset history: %w", err)
				}
				log.Info("history removed", "path", cfg.Storage.HistoryPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&resetRegistry, "registry", false, "also delete the processed-hash registry")
	cmd.Flags().BoolVar(&resetHistory, "history", false, "also delete the run history database")
	return cmd
}
