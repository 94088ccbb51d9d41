package build

import (
	"context"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/treescope/forge/build/types"
)

// ErrUnknownTask is returned when a requested task name is not present in the command table.
// It is reported before any command function runs.
var ErrUnknownTask = errors.New("unknown task")

// NewExecutor returns new executor running commands from the provided table.
func NewExecutor(commands map[string]types.Command) Executor {
	return Executor{
		commands: commands,
	}
}

// Executor executes commands by their names.
type Executor struct {
	commands map[string]types.Command
}

// Paths returns sorted task names accepted by the executor.
func (e Executor) Paths() []string {
	paths := lo.Keys(e.commands)
	sort.Strings(paths)
	return paths
}

// Validate resolves the task names without executing anything.
func (e Executor) Validate(paths []string) error {
	for _, p := range paths {
		p = strings.TrimSuffix(p, "/")
		if _, exists := e.commands[p]; !exists {
			return errors.Wrapf(ErrUnknownTask, "%q", p)
		}
	}
	return nil
}

// Execute runs the tasks given by their names.
func Execute(ctx context.Context, exe Executor, paths []string) error {
	return execute(ctx, paths, exe)
}

func execute(ctx context.Context, paths []string, exe Executor) error {
	// Names are resolved before anything runs so an unknown task never triggers process execution.
	if err := exe.Validate(paths); err != nil {
		return err
	}
	fns := make([]types.CommandFunc, 0, len(paths))
	for _, p := range paths {
		fns = append(fns, exe.commands[strings.TrimSuffix(p, "/")].Fn)
	}

	r := &runner{
		executed: map[uintptr]struct{}{},
		stack:    map[uintptr]struct{}{},
	}
	for _, fn := range fns {
		if err := r.run(ctx, fn); err != nil {
			return err
		}
	}
	return nil
}

type depsError struct {
	err error
}

type runner struct {
	executed map[uintptr]struct{}
	stack    map[uintptr]struct{}
}

// run executes the command function once per process. Prerequisites requested through
// the deps function run before the requester. Cycles are reported as errors.
func (r *runner) run(ctx context.Context, fn types.CommandFunc) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ptr := reflect.ValueOf(fn).Pointer()
	if _, done := r.executed[ptr]; done {
		return nil
	}
	if _, inProgress := r.stack[ptr]; inProgress {
		return errors.New("cyclic dependency between commands detected")
	}
	r.stack[ptr] = struct{}{}
	defer delete(r.stack, ptr)

	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				if de, ok := p.(depsError); ok {
					err = de.err
					return
				}
				err = errors.Errorf("command panicked: %v", p)
			}
		}()
		err = fn(ctx, func(deps ...types.CommandFunc) {
			for _, dep := range deps {
				if depErr := r.run(ctx, dep); depErr != nil {
					panic(depsError{err: depErr})
				}
			}
		})
	}()
	if err != nil {
		return err
	}

	r.executed[ptr] = struct{}{}
	return nil
}
