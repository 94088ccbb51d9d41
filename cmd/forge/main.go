package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
	"github.com/CoreumFoundation/coreum-tools/pkg/run"
	"github.com/treescope/forge/build"
	"github.com/treescope/forge/build/cargo"
	"github.com/treescope/forge/build/types"
	"github.com/treescope/forge/pkg/watch"
)

func main() {
	run.Tool("forge", func(ctx context.Context) error {
		var watchMode bool

		exe := build.NewExecutor(build.Commands)
		rootCmd := &cobra.Command{
			Use:           "forge [task...]",
			Short:         "Forwards named tasks of the treescope workspace to the toolchain",
			SilenceUsage:  true,
			SilenceErrors: true,
			Args:          cobra.ArbitraryArgs,
			ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
				return exe.Paths(), cobra.ShellCompDirectiveNoFileComp
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					listTasks(cmd.OutOrStdout(), exe)
					return nil
				}
				if !watchMode {
					return build.Execute(ctx, exe, args)
				}

				// Unknown names must fail before anything runs, the watch loop included.
				if err := exe.Validate(args); err != nil {
					return err
				}
				md, err := cargo.ReadMetadata(ctx, ".")
				if err != nil {
					return err
				}
				return watch.Run(ctx, watch.Config{Dirs: cargo.SourceDirs(md)}, func(ctx context.Context) error {
					// Fresh executor per iteration, so the run-once guarantee holds per iteration.
					return build.Execute(ctx, build.NewExecutor(build.Commands), args)
				})
			},
		}
		logger.AddFlags(logger.ToolDefaultConfig, rootCmd.PersistentFlags())
		rootCmd.PersistentFlags().BoolVarP(&watchMode, "watch", "w", toBool("FORGE_WATCH", false),
			"Re-run tasks whenever workspace sources change")

		err := rootCmd.Execute()

		var exitErr types.ExitCodeError
		if errors.As(err, &exitErr) {
			// The delegated command failed, its exit code goes to the shell unmodified.
			os.Exit(exitErr.Code)
		}
		return err
	})
}

func listTasks(w io.Writer, exe build.Executor) {
	fmt.Fprintln(w, "Available tasks:")
	for _, path := range exe.Paths() {
		fmt.Fprintf(w, "  %-15s %s\n", path, build.Commands[path].Description)
	}
}

func toBool(env string, def bool) bool {
	switch strings.ToLower(os.Getenv(env)) {
	case "1", "y", "yes", "true":
		return true
	case "":
		return def
	default:
		return false
	}
}
