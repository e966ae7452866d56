package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/assetdb"
	"github.com/roach88/assetvariant/internal/events"
	"github.com/roach88/assetvariant/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debounce time.Duration // overrides watch.debounce from the configuration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-import variants as files change",
		Long: `Import every variant, then watch the asset directory. When an asset or
variant file changes, the variants that depend on it are imported again so
that stale overrides are pruned right away. Runs until interrupted.

Examples:
  assetvariant watch
  assetvariant watch --debounce 500ms -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 0, "delay before reacting to a burst of writes (default from configuration)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := newFormatter(cmd, opts.RootOptions)
	ws, err := openWorkspace(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer ws.Close()

	imports, err := ws.project.ImportAll(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "initial import failed", err)
	}
	f.VerboseLog("imported %d variant(s)", len(imports))

	debounce := opts.Debounce
	if debounce == 0 {
		debounce = time.Duration(ws.cfg.Watch.Debounce)
	}

	bus := events.NewBus()
	reimporter := &watch.Reimporter{
		Project: ws.project,
		Logger:  ws.log,
		OnImport: func(res *assetdb.ImportResult) {
			fmt.Fprintf(f.Writer, "%s: %s\n", res.Path, res.State)
			if res.StaleCount() > 0 {
				f.Warn("%s: %d stale override(s) pruned", res.Path, res.StaleCount())
			}
			if res.Malformed {
				f.Warn("%s: patch is malformed and was ignored", res.Path)
			}
		},
	}
	detach := reimporter.Attach(bus)
	defer detach()

	w, err := watch.New(watch.Config{
		Project:  ws.project,
		Bus:      bus,
		Debounce: debounce,
		Logger:   ws.log,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer w.Close()

	ws.log.Info("watching", "root", ws.project.Root(), "debounce", debounce)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "watcher stopped", err)
	}
	return nil
}
