package git

import (
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/CoreumFoundation/coreum-tools/pkg/libexec"
	"github.com/treescope/forge/build/tools"
	"github.com/treescope/forge/build/types"
	"github.com/treescope/forge/exec"
)

// EnsureGit ensures that git is available.
func EnsureGit(ctx context.Context, _ types.DepsFunc) error {
	return tools.Ensure(ctx, tools.Git)
}

// StatusClean checks that there are no uncommitted files in the repo.
func StatusClean(ctx context.Context, repoPath string) (bool, string, error) {
	buf := &bytes.Buffer{}
	cmd := exec.Git("status", "-s")
	cmd.Dir = repoPath
	cmd.Stdout = buf
	if err := libexec.Exec(ctx, cmd); err != nil {
		return false, "", errors.Wrap(err, "git command failed")
	}
	return buf.Len() == 0, buf.String(), nil
}

// HeadHash returns hash of the repo HEAD.
func HeadHash(ctx context.Context, repoPath string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := exec.Git("rev-parse", "HEAD")
	cmd.Dir = repoPath
	cmd.Stdout = buf
	if err := libexec.Exec(ctx, cmd); err != nil {
		return "", errors.Wrap(err, "git command failed")
	}
	return strings.TrimSpace(buf.String()), nil
}
