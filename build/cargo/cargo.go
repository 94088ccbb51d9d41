package cargo

import (
	"context"
	osexec "os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CoreumFoundation/coreum-tools/pkg/libexec"
	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
	"github.com/treescope/forge/build/tools"
	"github.com/treescope/forge/build/types"
	"github.com/treescope/forge/exec"
)

// Build builds the workspace in the debug profile.
func Build(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureCargo, EnsureRustc)

	logger.Get(ctx).Info("Building workspace", zap.String("profile", "debug"))
	return run(ctx, exec.Cargo(buildArgs(false)...))
}

// BuildRelease builds the workspace in the release profile.
func BuildRelease(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureCargo, EnsureRustc)

	logger.Get(ctx).Info("Building workspace", zap.String("profile", "release"))
	return run(ctx, exec.Cargo(buildArgs(true)...))
}

// Test runs the workspace test suite.
func Test(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureCargo, EnsureRustc)

	logger.Get(ctx).Info("Running workspace tests")
	return run(ctx, exec.Cargo(testArgs()...))
}

// Check type-checks the workspace without producing artifacts.
func Check(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureCargo, EnsureRustc)

	logger.Get(ctx).Info("Checking workspace")
	return run(ctx, exec.Cargo(checkArgs()...))
}

// Clean removes build artifacts of the workspace.
func Clean(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureCargo)

	logger.Get(ctx).Info("Cleaning workspace")
	return run(ctx, exec.Cargo(cleanArgs()...))
}

// Fmt formats sources of the workspace.
func Fmt(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureRustfmt)

	logger.Get(ctx).Info("Formatting sources")
	return run(ctx, exec.Cargo(fmtArgs()...))
}

// Clippy runs the clippy linter on the workspace, warnings are promoted to errors.
func Clippy(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureClippy)

	logger.Get(ctx).Info("Running clippy")
	return run(ctx, exec.Cargo(clippyArgs()...))
}

// FmtCheck verifies that sources are formatted without modifying them.
func FmtCheck(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureRustfmt)

	logger.Get(ctx).Info("Verifying formatting")
	return run(ctx, exec.Cargo(fmtCheckArgs()...))
}

// EnsureCargo ensures that cargo is available.
func EnsureCargo(ctx context.Context, _ types.DepsFunc) error {
	return tools.Ensure(ctx, tools.Cargo)
}

// EnsureRustc ensures that rustc is available.
func EnsureRustc(ctx context.Context, _ types.DepsFunc) error {
	return tools.Ensure(ctx, tools.Rustc)
}

// EnsureRustfmt ensures that the rustfmt component is installed.
func EnsureRustfmt(ctx context.Context, _ types.DepsFunc) error {
	return tools.Ensure(ctx, tools.Rustfmt)
}

// EnsureClippy ensures that the clippy component is installed.
func EnsureClippy(ctx context.Context, _ types.DepsFunc) error {
	return tools.Ensure(ctx, tools.Clippy)
}

func buildArgs(release bool) []string {
	args := []string{"build"}
	if release {
		args = append(args, "--release")
	}
	return args
}

func testArgs() []string {
	return []string{"test", "--workspace"}
}

func checkArgs() []string {
	return []string{"check", "--workspace", "--all-targets"}
}

func cleanArgs() []string {
	return []string{"clean"}
}

func fmtArgs() []string {
	return []string{"fmt", "--all"}
}

func clippyArgs() []string {
	return []string{"clippy", "--workspace", "--all-targets", "--", "-D", "warnings"}
}

func fmtCheckArgs() []string {
	return []string{"fmt", "--all", "--check"}
}

// run executes the delegated command preserving its exit code. No retries, no timeout.
func run(ctx context.Context, cmd *osexec.Cmd) error {
	if err := libexec.Exec(ctx, cmd); err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return types.ExitCodeError{Tool: filepath.Base(cmd.Path), Code: exitErr.ExitCode()}
		}
		return err
	}
	return nil
}
