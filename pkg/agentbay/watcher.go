package agentbay

import (
	"context"
	"log/slog"
	"time"
)

// MinWatchInterval is the floor for directory watch polling. Smaller
// requested intervals are clamped, not rejected.
const MinWatchInterval = 100 * time.Millisecond

// effectiveWatchInterval clamps a requested poll interval to the floor.
func effectiveWatchInterval(interval time.Duration) time.Duration {
	if interval < MinWatchInterval {
		return MinWatchInterval
	}

	return interval
}

// FileChangeCallback receives each non-empty batch of change events. A
// panic inside the callback is recovered and logged; the watch loop keeps
// running.
type FileChangeCallback func(events []FileChangeEvent)

// WatchDirectory polls path for changes every interval, invoking callback
// for each non-empty batch. It blocks until ctx is canceled and then
// returns nil; cancellation is the normal way to stop a watch, honored at
// the loop boundary, never mid-callback. Poll errors are logged and the
// loop continues.
func (f *FileSystem) WatchDirectory(ctx context.Context, path string, interval time.Duration, callback FileChangeCallback) error {
	if effective := effectiveWatchInterval(interval); effective != interval {
		f.session.logger.Debug("watch interval clamped",
			f.session.logAttr(),
			slog.Duration("requested", interval),
			slog.Duration("effective", effective),
		)

		interval = effective
	}

	f.session.logger.Info("watching directory",
		f.session.logAttr(),
		slog.String("path", path),
		slog.Duration("interval", interval),
	)

	for {
		if ctx.Err() != nil {
			return nil
		}

		events, err := f.GetFileChange(ctx, path)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}

			f.session.logger.Warn("file change poll failed",
				f.session.logAttr(),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		case len(events) > 0:
			invokeWatchCallback(f.session.logger, callback, events)
		}

		if sleepContext(ctx, interval) != nil {
			return nil
		}
	}
}

// invokeWatchCallback isolates callback panics from the watch loop.
func invokeWatchCallback(logger *slog.Logger, callback FileChangeCallback, events []FileChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("file change callback panicked", slog.Any("panic", r))
		}
	}()

	callback(events)
}
