package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shubham-Nemade-24/certagent/internal/ingest"
	"github.com/Shubham-Nemade-24/certagent/internal/pipeline"
)

func newRootCmd(log *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "certagent",
		Short:         "Certificate document extraction pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newIngestCmd(log),
		newWatchCmd(log),
		newAskCmd(log),
		newExportCmd(log),
		newHistoryCmd(log),
		newResetCmd(log),
	)
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newIngestCmd(log *slog.Logger) *cobra.Command {
	var (
		exts       []string
		skipHidden bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <file-or-dir> [more...]",
		Short: "Process certificate documents and append extracted records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.Close()

			var results []pipeline.Result
			for _, arg := range args {
				info, err := os.Stat(arg)
				if err != nil {
					return err
				}
				if info.IsDir() {
					dirResults, stats, err := a.intaker.IngestDirectory(ctx, arg, exts, skipHidden)
					results = append(results, dirResults...)
					if err != nil {
						return err
					}
					log.Info("directory processed", "root", arg,
						"matched", stats.Matched, "done", stats.Done,
						"skipped", stats.Skipped, "failed", stats.Failed)
					continue
				}
				res, err := a.intaker.IngestPath(ctx, arg)
				results = append(results, res)
				if err != nil {
					log.Error("document failed", "path", arg, "error", err)
				}
			}
			fmt.Print(pipeline.Summarize(results))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "extensions to include when walking directories (default: pdf,jpg,jpeg,png)")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip hidden files and directories")
	return cmd
}

func newWatchCmd(log *slog.Logger) *cobra.Command {
	var (
		debounce    time.Duration
		initialScan bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir> [more...]",
		Short: "Watch drop folders and process new documents as they appear",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.Close()

			events, errs, err := a.intaker.Watch(ctx, ingest.WatchConfig{
				Roots:       args,
				InitialScan: initialScan,
				Debounce:    debounce,
			})
			if err != nil {
				return err
			}
			log.Info("watching", "roots", args)

			for {
				select {
				case <-ctx.Done():
					return nil
				case err, ok := <-errs:
					if ok {
						log.Error("watch error", "error", err)
					}
				case path, ok := <-events:
					if !ok {
						return nil
					}
					res, err := a.intaker.IngestPath(ctx, path)
					if err != nil {
						log.Error("document failed", "path", path, "error", err)
						continue
					}
					log.Info("document processed", "path", path, "status", string(res.Status))
				}
			}
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "coalesce rapid file events")
	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "also process files already present")
	return cmd
}

func newAskCmd(log *slog.Logger) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed certificate text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ans, err := a.ask.Ask(ctx, args[0], topK)
			if err != nil {
				return err
			}
			fmt.Println(ans.Text)
			fmt.Println()
			for _, src := range ans.Sources {
				fmt.Printf("  source: %s\n", src)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default 4)")
	return cmd
}
