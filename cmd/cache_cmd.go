package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/hookgate/internal/config"
)

// cacheKinds names every file a session's cache family can produce, in
// the fixed order internal/cache.FileStore writes them under.
var cacheKinds = []string{"ack", "denial", "rewind", "pending", "strictmode", "statusline"}

// gcMaxAge prunes a cache file untouched for this long, well past
// internal/cache.StatuslineMaxAge, so `cache gc` only ever removes files
// a running session has already abandoned.
const gcMaxAge = 2 * time.Hour

func cacheCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or maintain the on-disk hook decision cache",
	}
	root.AddCommand(cacheInspectCmd())
	root.AddCommand(cacheClearCmd())
	root.AddCommand(cacheGCCmd())
	root.AddCommand(cacheServeCmd())
	return root
}

func cacheInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the raw contents of one cache kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}

			var kind string
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewSelect[string]().
						Title("Which cache?").
						Options(huh.NewOptions(cacheKinds...)...).
						Value(&kind),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			path := filepath.Join(dir, kind+".json")
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("(empty — no file written yet)")
					return nil
				}
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, data, "", "  "); err != nil {
				fmt.Println(string(data))
				return nil
			}
			fmt.Println(pretty.String())
			return nil
		},
	}
}

func cacheClearCmd() *cobra.Command {
	var all bool
	c := &cobra.Command{
		Use:   "clear",
		Short: "Remove cache files",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}

			var confirmed bool
			prompt := "Clear every cache file?"
			if !all {
				prompt = "Clear the cache files?"
			}
			if err := huh.NewConfirm().Title(prompt).Value(&confirmed).Run(); err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("aborted")
				return nil
			}

			for _, kind := range cacheKinds {
				if err := os.Remove(filepath.Join(dir, kind+".json")); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
			fmt.Println("cleared")
			return nil
		},
	}
	c.Flags().BoolVar(&all, "all", false, "word the confirmation as clearing every cache file; every cache kind's file is removed with or without this flag")
	return c
}

func cacheGCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Prune cache files untouched past the staleness window",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}
			n, err := gcSweep(dir, gcMaxAge)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d stale cache file(s)\n", n)
			return nil
		},
	}
}

func gcSweep(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// cacheServeCmd runs a long-lived daemon that periodically garbage-
// collects stale cache files and hot-reloads the config file on change.
// Every other subcommand in this binary is a short-lived, one-shot hook
// invocation; this is the one exception, meant to run under the host's
// own supervisor rather than be re-spawned per tool call.
func cacheServeCmd() *cobra.Command {
	var gcInterval string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run a background daemon that periodically GCs the cache and hot-reloads config",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}

			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher := config.NewWatcher(resolveConfigPath(), cfg)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					fmt.Fprintf(os.Stderr, "hookgate: config watcher stopped: %v\n", err)
				}
			}()

			sched := cron.New()
			if _, err := sched.AddFunc(gcInterval, func() {
				if n, err := gcSweep(dir, gcMaxAge); err == nil && n > 0 {
					fmt.Printf("cache gc: removed %d stale file(s)\n", n)
				}
			}); err != nil {
				return fmt.Errorf("invalid --interval cron expression: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			<-ctx.Done()
			return nil
		},
	}
	c.Flags().StringVar(&gcInterval, "interval", "@every 15m", "cron expression for the periodic cache GC sweep")
	return c
}

func resolveCacheDir() (string, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return "", err
	}
	return cacheDir(cfg.Snapshot()), nil
}
