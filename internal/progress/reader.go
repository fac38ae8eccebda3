package progress

import (
	"context"
	"time"

	"github.com/jonathan/course-compass/internal/types"
)

const (
	// DefaultPollInterval is how often a reader checks for new events.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultMaxEmptyPolls bounds how many consecutive empty polls a
	// reader tolerates before giving up on a stalled run. The run itself
	// is not terminated; the reader just stops listening.
	DefaultMaxEmptyPolls = 240
)

// Reader is a polling cursor over one session's event log. Each reader
// tracks its own index, so multiple readers drain the same session
// independently.
type Reader struct {
	registry      *Registry
	session       string
	index         int
	pollInterval  time.Duration
	maxEmptyPolls int
}

// NewReader creates a reader positioned at the start of the session's log.
func NewReader(registry *Registry, session string) *Reader {
	return &Reader{
		registry:      registry,
		session:       session,
		pollInterval:  DefaultPollInterval,
		maxEmptyPolls: DefaultMaxEmptyPolls,
	}
}

// WithPolling overrides the poll interval and empty-poll ceiling. Zero
// values keep the defaults.
func (r *Reader) WithPolling(interval time.Duration, maxEmptyPolls int) *Reader {
	if interval > 0 {
		r.pollInterval = interval
	}
	if maxEmptyPolls > 0 {
		r.maxEmptyPolls = maxEmptyPolls
	}
	return r
}

// Stream returns a channel of events that closes when the session is
// cleaned up, the empty-poll ceiling is reached, or ctx is canceled.
// Events already in the log are delivered immediately.
func (r *Reader) Stream(ctx context.Context) <-chan types.ProgressEvent {
	out := make(chan types.ProgressEvent)

	go func() {
		defer close(out)
		emptyPolls := 0
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		for {
			events, alive := r.registry.Events(r.session, r.index)
			if !alive {
				// Session cleaned up: end of stream.
				return
			}
			if len(events) == 0 {
				emptyPolls++
				if emptyPolls >= r.maxEmptyPolls {
					return
				}
			} else {
				emptyPolls = 0
				for _, ev := range events {
					select {
					case out <- ev:
						r.index++
					case <-ctx.Done():
						return
					}
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
