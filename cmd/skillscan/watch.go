package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillscan/skillscan/pkg/discovery"
	"github.com/skillscan/skillscan/pkg/presenter"
	"github.com/skillscan/skillscan/pkg/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch skill sources and keep the catalog cache warm",
	Long: `Watch all registered skill source trees and re-run discovery whenever
one changes, so the next session start is a guaranteed cache hit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyLogConfig()

		registry, err := newRegistry()
		if err != nil {
			return err
		}

		// The watcher always rebuilds; the fast path would just re-confirm
		// what fsnotify already told us.
		engine, err := newEngine(true)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Prime the cache before settling in to watch.
		res := engine.Run(ctx)
		presenter.Info(fmt.Sprintf("Catalog primed: %d records. Watching for changes (Ctrl-C to stop)...", res.RecordCount))

		w := watcher.New(registry, engine,
			watcher.WithDebounce(viper.GetDuration("watch.debounce")),
			watcher.WithRefreshCallback(func(res *discovery.Result) {
				presenter.Info(fmt.Sprintf("Catalog refreshed: %d records", res.RecordCount))
			}),
		)

		if err := w.Watch(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	viper.SetDefault("watch.debounce", watcher.DefaultDebounce)
}
