// Package installer defines the contract between the scheduler and the
// component that performs the actual download and file placement for one
// queue item. The scheduler never interprets item metadata; it hands the
// item over and waits for a single success or failure outcome.
package installer

import (
	"context"
	"errors"

	"lodestone/internal/events"
	"lodestone/internal/queue"
)

// ProgressFunc receives transfer progress while an install runs. Reports are
// advisory; implementations may call it from any goroutine.
type ProgressFunc func(events.Progress)

// Installer performs the download and placement work for a single queue item.
//
// Install blocks until the item is fully placed or fails. Cancellation is
// cooperative through ctx; an implementation observing cancellation must
// clean up partial artifacts on a best-effort basis and return the context
// error. Internal concurrency (parallel file fetches) is the implementation's
// business and invisible to the caller.
type Installer interface {
	Install(ctx context.Context, item *queue.Item, progress ProgressFunc) error
}

// Func adapts a plain function to the Installer interface.
type Func func(ctx context.Context, item *queue.Item, progress ProgressFunc) error

func (f Func) Install(ctx context.Context, item *queue.Item, progress ProgressFunc) error {
	return f(ctx, item, progress)
}

// ErrCancelRequested is the cancellation cause recorded when a user cancels
// the in-flight install, distinguishing it from daemon shutdown.
var ErrCancelRequested = errors.New("install cancel requested")

// IsUserCancel reports whether an installer outcome stems from an explicit
// user cancel rather than process shutdown.
func IsUserCancel(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, ErrCancelRequested) {
		return false
	}
	return errors.Is(context.Cause(ctx), ErrCancelRequested)
}
