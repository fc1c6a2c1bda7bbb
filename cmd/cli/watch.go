package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/reduce-go/internal/app"
	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/internal/infrastructure"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Forget downloads whose files are deleted",
	Long: `Watch a directory tree for deleted files. When a file carrying a
fingerprint is removed, its record is deleted from the server so the file
can be downloaded again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		root := cfg.Watcher.Root
		if len(args) == 1 {
			root = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := infrastructure.NewFSWatcher(root, cfg.Watcher.ExcludedDirs, log)
		if err != nil {
			return err
		}

		tracker := app.NewFileTracker(
			infrastructure.NewMetadataTagger(),
			newClient(),
			infrastructure.CollectDeviceInfo(),
			log,
		)

		g, gctx := errgroup.WithContext(ctx)
		events := make(chan domain.FileEvent, 256)

		g.Go(func() error {
			defer close(events)
			return watcher.Run(gctx, func(event domain.FileEvent) {
				select {
				case events <- event:
				case <-gctx.Done():
				}
			})
		})

		g.Go(func() error {
			n, err := tracker.Seed(watcher.Root(), cfg.Watcher.ExcludedDirs)
			if err != nil {
				log.Warn("Initial scan incomplete", zap.Error(err))
			}
			fmt.Printf("Watching %s (%d tagged files)\n", watcher.Root(), n)

			for event := range events {
				tracker.Handle(gctx, event)
			}
			return nil
		})

		return g.Wait()
	},
}
