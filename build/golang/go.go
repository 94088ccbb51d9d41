package golang

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CoreumFoundation/coreum-tools/pkg/libexec"
	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
	"github.com/CoreumFoundation/coreum-tools/pkg/must"
	"github.com/treescope/forge/build/tools"
	"github.com/treescope/forge/build/types"
	"github.com/treescope/forge/exec"
)

// BinaryBuildConfig is the configuration for `go build`.
type BinaryBuildConfig struct {
	// PackagePath is the path to package to build
	PackagePath string

	// BinOutputPath is the path for compiled binary file
	BinOutputPath string

	// Tags is the list of additional tags to pass inside --tags into `go build`.
	Tags []string
}

// EnsureGo ensures that go is available.
func EnsureGo(ctx context.Context, _ types.DepsFunc) error {
	return tools.Ensure(ctx, tools.Go)
}

// Build builds go binary on the host.
func Build(ctx context.Context, deps types.DepsFunc, config BinaryBuildConfig) error {
	deps(EnsureGo)

	logger.Get(ctx).Info("Building go package", zap.String("package", config.PackagePath),
		zap.String("binary", config.BinOutputPath))

	args := []string{
		"build",
		"-trimpath",
		"-ldflags=-w -s",
	}
	if len(config.Tags) > 0 {
		args = append(args, "-tags="+strings.Join(config.Tags, ","))
	}
	args = append(args, "-o", must.String(filepath.Abs(config.BinOutputPath)), ".")

	cmd := exec.Go(args...)
	cmd.Dir = config.PackagePath
	cmd.Env = os.Environ()

	if err := libexec.Exec(ctx, cmd); err != nil {
		return errors.Wrapf(err, "building go package '%s' failed", config.PackagePath)
	}
	return nil
}
