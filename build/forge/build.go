package forge

import (
	"context"
	"os"
	"path/filepath"

	"github.com/CoreumFoundation/coreum-tools/pkg/must"
	"github.com/treescope/forge/build/golang"
	"github.com/treescope/forge/build/types"
)

// BuildBuilder rebuilds the forge binary in place.
func BuildBuilder(ctx context.Context, deps types.DepsFunc) error {
	return golang.Build(ctx, deps, golang.BinaryBuildConfig{
		PackagePath:   "cmd/forge",
		BinOutputPath: must.String(filepath.EvalSymlinks(must.String(os.Executable()))),
	})
}
