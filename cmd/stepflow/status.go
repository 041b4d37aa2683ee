package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/stepflow-io/stepflow/pkg/engine"
)

// newStatusCmd creates the `status` subcommand. It reports the per-step
// state of a persisted execution record, including a still-running one
// thanks to the engine's incremental flushing. The exit code is always 0:
// status reports state, it does not judge it.
func newStatusCmd() *cobra.Command {
	var (
		logPath string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the per-step status of a pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := printRecord(cmd, logPath); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
				return nil
			}
			if !watch {
				return nil
			}
			return watchRecord(cmd, logPath)
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "Path to the execution record")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep following the record as the run progresses")
	_ = cmd.MarkFlagRequired("log")

	return cmd
}

func printRecord(cmd *cobra.Command, logPath string) error {
	rec, err := engine.LoadRecord(logPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatRecord(rec))
	return nil
}

// watchRecord follows the record file until interrupted. The watcher is on
// the directory rather than the file itself because the engine replaces the
// record atomically via rename on every flush.
func watchRecord(cmd *cobra.Command, logPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(logPath)); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	target, _ := filepath.Abs(logPath)
	var debounce *time.Timer
	refresh := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			changed, _ := filepath.Abs(event.Name)
			if changed != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce rapid successive flushes.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				select {
				case refresh <- struct{}{}:
				default:
				}
			})
		case <-refresh:
			fmt.Fprintln(cmd.OutOrStdout())
			if err := printRecord(cmd, logPath); err != nil {
				slog.Warn("Failed to re-read execution record", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		case <-sigCh:
			return nil
		case <-cmd.Context().Done():
			return nil
		}
	}
}
