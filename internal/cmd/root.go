package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"dirdupe/internal/config"
	"dirdupe/internal/detect"
	"dirdupe/internal/dupes"
	"dirdupe/internal/errs"
	"dirdupe/internal/hash"
	"dirdupe/internal/progress"
	"dirdupe/internal/report"
)

// options holds the flags shared by all commands.
type options struct {
	configPath string
	logLevel   string
	jobs       int
	algorithm  string
	exclude    []string
	noProgress bool
}

func (o *options) register(cmd *cobra.Command) {
	defaults := config.DefaultConfig()

	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", config.DefaultPath, "Config file path")
	flags.StringVar(&o.logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	flags.IntVarP(&o.jobs, "jobs", "j", defaults.Workers, "Number of files hashed concurrently")
	flags.StringVarP(&o.algorithm, "algorithm", "a", defaults.Algorithm, "Hash algorithm ("+strings.Join(hash.Names(), ", ")+")")
	flags.StringArrayVarP(&o.exclude, "exclude", "e", nil, "Glob pattern of entries to skip (repeatable)")
	flags.BoolVar(&o.noProgress, "no-progress", false, "Do not draw the progress bar")
}

// load reads the config file and applies the flags the user set on top.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("jobs") {
		cfg.Workers = o.jobs
	}
	if flags.Changed("algorithm") {
		cfg.Algorithm = o.algorithm
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, o.exclude...)
	}
	return cfg, nil
}

func (o *options) scanOptions(cmd *cobra.Command, logger *slog.Logger) []detect.Option {
	opts := []detect.Option{detect.WithLogger(logger)}
	if !o.noProgress {
		w := cmd.ErrOrStderr()
		if w == io.Writer(os.Stderr) {
			// let the bar check for a terminal
			w = nil
		}
		opts = append(opts, detect.WithProgress(progress.New(w)))
	}
	return opts
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errs.Config("invalid log level %q", level)
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "dirdupe",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(handler), nil
}

// NewRootCmd creates the dirdupe command. Run without a subcommand it scans
// the given paths and reports duplicate directories and files.
func NewRootCmd() *cobra.Command {
	var (
		opts     options
		paths    []string
		minSize  string
		jsonFile string
	)

	rootCmd := &cobra.Command{
		Use:   "dirdupe [flags] PATH...",
		Short: "Find duplicate directories and files",
		Long: `dirdupe finds duplicate directory trees and files under one or more paths.

Every file is hashed and every directory gets a digest over the names, kinds
and digests of its entries, so two directories match only when their whole
trees are identical. Only topmost duplicates are reported: the contents of a
duplicate directory are not listed again.

Settings are read from dirdupe.yaml when present; flags override them.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("minimum-size") {
				cfg.MinSize = minSize
			}
			if cmd.Flags().Changed("json-file") {
				cfg.JSONFile = jsonFile
			}

			roots := append(append([]string{}, paths...), args...)

			size, err := config.ParseSize(cfg.MinSize)
			if err != nil {
				return errs.Config("bad minimum size: %v (use e.g. 1k)", err)
			}

			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			scanCfg := detect.ScanConfig{
				Roots:     roots,
				MinSize:   size,
				Workers:   cfg.Workers,
				Algorithm: cfg.Algorithm,
				Exclude:   cfg.Exclude,
			}
			res, err := detect.Run(cmd.Context(), scanCfg, opts.scanOptions(cmd, logger)...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			fmt.Fprint(out, report.FormatStatistics(res.Groups, res.Stats))
			fmt.Fprintln(out)
			fmt.Fprint(out, report.FormatReport(res.Groups))

			if cfg.JSONFile != "" {
				if err := dupes.SaveJSON(cfg.JSONFile, res.Groups); err != nil {
					return fmt.Errorf("failed to export groups: %w", err)
				}
				logger.Info("groups exported", "file", cfg.JSONFile, "groups", len(res.Groups))
			}
			return nil
		},
	}

	opts.register(rootCmd)
	rootCmd.Flags().StringArrayVarP(&paths, "path", "p", nil, "Path to scan (repeatable, in addition to arguments)")
	rootCmd.Flags().StringVarP(&minSize, "minimum-size", "m", config.DefaultConfig().MinSize,
		"Minimum size of reported duplicates, metric suffixes allowed (e.g. 1k)")
	rootCmd.Flags().StringVar(&jsonFile, "json-file", "", "Write the duplicate groups to this JSON file")

	rootCmd.AddCommand(NewDigestCmd(&opts))

	return rootCmd
}
