package forge

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/treescope/forge/build/docker"
	"github.com/treescope/forge/build/tools"
	"github.com/treescope/forge/build/types"
)

// Purge removes all the docker resources and caches created by forge.
func Purge(ctx context.Context, _ types.DepsFunc) error {
	if err := docker.Remove(ctx); err != nil {
		return err
	}

	return errors.WithStack(os.RemoveAll(tools.CacheDir()))
}
