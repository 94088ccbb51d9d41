package lint

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/treescope/forge/build/cargo"
	"github.com/treescope/forge/build/git"
	"github.com/treescope/forge/build/types"
)

const repoPath = "."

// Lint runs linters and checks that git status is clean.
func Lint(ctx context.Context, deps types.DepsFunc) error {
	deps(git.EnsureGit)

	if err := cargo.Clippy(ctx, deps); err != nil {
		return err
	}

	if err := cargo.FmtCheck(ctx, deps); err != nil {
		return err
	}

	isClean, dirtyContent, err := git.StatusClean(ctx, repoPath)
	if err != nil {
		return err
	}
	if !isClean {
		// fmt.Println is used intentionally here, because logger escapes special characters producing unreadable output
		fmt.Println("git status:")
		fmt.Println(dirtyContent)
		return errors.New("git status is not empty")
	}
	return nil
}
