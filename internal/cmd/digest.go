package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dirdupe/internal/detect"
	"dirdupe/internal/tree"
)

// NewDigestCmd creates the digest subcommand, which prints the tree digest
// of each path. Two paths with the same digest hold identical trees.
func NewDigestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "digest PATH...",
		Short: "Print the tree digest of each path",
		Long: `Print the digest and size of each path without looking for duplicates.

A path whose tree contains unreadable entries has no digest and is
reported as indeterminate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			scanCfg := detect.ScanConfig{
				Roots:     args,
				Workers:   cfg.Workers,
				Algorithm: cfg.Algorithm,
				Exclude:   cfg.Exclude,
			}
			scan, err := detect.Scan(cmd.Context(), scanCfg, opts.scanOptions(cmd, logger)...)
			if err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, root := range scan.Roots {
				if root.State != tree.Complete {
					failed++
					fmt.Fprintf(out, "%-*s  %12d  %s\n", digestWidth(scan), root.State, root.Size, root.Path)
					continue
				}
				fmt.Fprintf(out, "%s  %12d  %s\n", root.Digest, root.Size, root.Path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d paths could not be digested", failed, len(scan.Roots))
			}
			return nil
		},
	}
}

func digestWidth(scan *detect.ScanResult) int {
	for _, root := range scan.Roots {
		if root.Digest != "" {
			return len(root.Digest)
		}
	}
	return 0
}
