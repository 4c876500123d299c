// Package progress runs a blocking operation on a worker goroutine while
// the caller shows a busy indicator.
package progress

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/huh/spinner"
	"github.com/mattn/go-isatty"
)

// Indicator shows that work is in progress until wait returns.
type Indicator interface {
	Show(ctx context.Context, title string, wait func()) error
}

// Run executes op on a worker goroutine and blocks until it finishes,
// showing ind meanwhile. The operation is not cancellable once started;
// a cancelled ctx only stops the indicator. A panic in op is returned as
// an error.
func Run[T any](ctx context.Context, ind Indicator, title string, op func() (T, error)) (T, error) {
	if ind == nil {
		ind = Silent{}
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("%s: worker panicked: %v", title, p)
			}
			done <- r
		}()
		r.val, r.err = op()
	}()

	var (
		res  result
		once sync.Once
	)
	wait := func() {
		once.Do(func() { res = <-done })
	}
	// Indicator errors are cosmetic; the worker result is what matters.
	_ = ind.Show(ctx, title, wait)
	// The indicator may return early (cancelled, no terminal) without
	// having waited; Do blocks until any in-flight wait completes.
	wait()
	return res.val, res.err
}

// Silent shows nothing.
type Silent struct{}

func (Silent) Show(_ context.Context, _ string, wait func()) error {
	wait()
	return nil
}

// Spinner renders a huh spinner on the terminal.
type Spinner struct{}

func (Spinner) Show(ctx context.Context, title string, wait func()) error {
	return spinner.New().
		Title(title).
		Context(ctx).
		Action(wait).
		Run()
}

// Default returns a Spinner when stderr is a terminal and Silent otherwise.
func Default() Indicator {
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return Spinner{}
	}
	return Silent{}
}
