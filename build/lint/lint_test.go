package lint

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treescope/forge/build/git"
	"github.com/treescope/forge/build/types"
)

func TestLintEnsuresGit(t *testing.T) {
	var ptrs []uintptr
	func() {
		defer func() {
			_ = recover()
		}()
		// The recorder panics after the first deps call, so no linter runs.
		_ = Lint(context.Background(), func(deps ...types.CommandFunc) {
			for _, dep := range deps {
				ptrs = append(ptrs, reflect.ValueOf(dep).Pointer())
			}
			panic("stop")
		})
	}()

	require.Len(t, ptrs, 1)
	assert.Equal(t, reflect.ValueOf(git.EnsureGit).Pointer(), ptrs[0])
}
