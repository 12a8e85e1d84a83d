// Command folder-syncer mirrors a source directory tree into a replica
// directory tree, one way, for a fixed number of passes at a fixed interval.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Martian-0007/folder-syncer/pkg/buildinfo"
	"github.com/Martian-0007/folder-syncer/pkg/config"
	"github.com/Martian-0007/folder-syncer/pkg/flog"
	"github.com/Martian-0007/folder-syncer/pkg/preflight"
	"github.com/Martian-0007/folder-syncer/pkg/schedule"
	"github.com/Martian-0007/folder-syncer/pkg/treesync"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder-syncer SOURCE REPLICA INTERVAL_SECONDS COUNT [LOGFILE]",
		Short: "One-way folder synchronizer",
		Long: `folder-syncer makes REPLICA an exact mirror of SOURCE, running COUNT
synchronization passes with INTERVAL_SECONDS of sleep between them.

Each pass removes replica entries that no longer exist in the source, then
copies everything new or changed. Symbolic links are replicated as links
with translated targets, directory junctions are followed (with protection
against junctions that point back into the tree), and entries of unknown
kind follow the --unknown-entries policy.`,
		Args:         cobra.RangeArgs(4, 5),
		Version:      buildinfo.Version,
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Flags().Bool("dangle-symlinks", false, "replicate dangling symlinks instead of dropping them")
	cmd.Flags().String("unknown-entries", config.AttemptCopy.String(), "policy for unclassifiable entries: attempt-copy or skip")
	cmd.Flags().String("log-level", "info", "console log level: debug, info, notice, warn, error")
	cmd.Flags().BoolP("verbose", "v", false, "shorthand for --log-level debug")
	cmd.Flags().Bool("no-color", false, "disable colored console output")
	cmd.Flags().Bool("metrics", false, "print a counter summary after the final pass")

	_ = viper.BindPFlags(cmd.Flags())
	viper.SetEnvPrefix("FOLDER_SYNCER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args)
	if err != nil {
		return err
	}

	level := flog.LevelFromString(cfg.LogLevel)
	if viper.GetBool("verbose") {
		level = flog.LevelFromString("debug")
	}
	flog.Init(flog.Options{
		Level:   level,
		LogFile: cfg.LogFile,
		NoColor: viper.GetBool("no-color"),
	})

	flog.Info("starting "+buildinfo.Name,
		"version", buildinfo.Version,
		"source", cfg.SourceAbs,
		"replica", cfg.ReplicaAbs,
		"interval", cfg.Interval,
		"count", cfg.Count,
		"dangling_symlinks", cfg.Dangling.String(),
		"unknown_entries", cfg.Unknown.String(),
	)

	if times, perms := treesync.SymlinkMetadataSupport(); !times || !perms {
		if !times {
			flog.Warn("symlink timestamps cannot be replicated on this platform")
		}
		if !perms {
			flog.Debug("symlink permission bits cannot be replicated on this platform")
		}
	}

	// Checked once: the canonical roots cannot start nesting later without
	// the source check of a pass failing first.
	if err := preflight.CheckNotNested(cfg.SourceAbs, cfg.ReplicaAbs); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics treesync.Metrics = &treesync.NoopMetrics{}
	if viper.GetBool("metrics") {
		metrics = treesync.NewSyncMetrics()
	}

	syncer := treesync.New(cfg, treesync.NewSlogSink(flog.Logger()), metrics)
	err = schedule.New(syncer, cfg.Interval, cfg.Count).Run(ctx)

	metrics.LogSummary("run summary")

	if errors.Is(err, context.Canceled) {
		flog.Notice("interrupted, stopping")
		return nil
	}
	if err != nil {
		flog.Error("synchronization aborted", "error", err)
		return err
	}
	flog.Info("all synchronization passes complete", "count", cfg.Count)
	return nil
}

// buildConfig turns the positional arguments and flags into a validated
// run configuration.
func buildConfig(args []string) (*config.SyncConfig, error) {
	seconds, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid interval %q: %w", args[2], err)
	}
	count, err := strconv.Atoi(args[3])
	if err != nil {
		return nil, fmt.Errorf("invalid pass count %q: %w", args[3], err)
	}

	cfg, err := config.New(args[0], args[1], time.Duration(seconds*float64(time.Second)), count)
	if err != nil {
		return nil, err
	}

	if viper.GetBool("dangle-symlinks") {
		cfg.Dangling = config.KeepDangling
	}
	cfg.Unknown, err = config.UnknownPolicyFromString(viper.GetString("unknown-entries"))
	if err != nil {
		return nil, err
	}

	if len(args) == 5 {
		cfg.LogFile = args[4]
	}
	cfg.LogLevel = viper.GetString("log-level")
	return cfg, nil
}
