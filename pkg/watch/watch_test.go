package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
)

func testCtx(t *testing.T) (context.Context, context.CancelFunc) {
	ctx := logger.WithLogger(context.Background(), logger.New(logger.Config{
		Format:  logger.FormatJSON,
		Verbose: true,
	}))
	return context.WithCancel(ctx)
}

func TestSourceWriteTriggersRerun(t *testing.T) {
	watchedDir := t.TempDir()
	unrelatedDir := t.TempDir()

	ctx, cancel := testCtx(t)
	defer cancel()

	var runs int64
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Dirs: []string{watchedDir}, Debounce: 20 * time.Millisecond},
			func(ctx context.Context) error {
				atomic.AddInt64(&runs, 1)
				return nil
			})
	}()

	// first run happens without any event
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(watchedDir, "node.rs"), []byte("fn main() {}"), 0o600))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	// writes outside the watched dirs must not trigger anything
	before := atomic.LoadInt64(&runs)
	require.NoError(t, os.WriteFile(filepath.Join(unrelatedDir, "other.rs"), []byte("fn main() {}"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, before, atomic.LoadInt64(&runs))

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFailingTaskKeepsWatching(t *testing.T) {
	watchedDir := t.TempDir()

	ctx, cancel := testCtx(t)
	defer cancel()

	var runs int64
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Dirs: []string{watchedDir}, Debounce: 20 * time.Millisecond},
			func(ctx context.Context) error {
				atomic.AddInt64(&runs, 1)
				return errors.New("task failed")
			})
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(watchedDir, "lib.rs"), []byte("pub fn f() {}"), 0o600))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNoDirsToWatch(t *testing.T) {
	ctx, cancel := testCtx(t)
	defer cancel()

	err := Run(ctx, Config{Dirs: []string{"/does/not/exist"}}, func(ctx context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	require.Error(t, err)
}
