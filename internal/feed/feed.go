package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/core"
)

// DefaultDrainInterval is the cadence at which one pending message is shown.
const DefaultDrainInterval = 3 * time.Second

// Fetcher loads the initial batch of recent messages.
type Fetcher interface {
	LastMessages(ctx context.Context) ([]core.Message, error)
}

// Options configures a Feed.
type Options struct {
	WindowSize    int
	DrainInterval time.Duration
}

// Feed merges an initial fetch and a pending queue into a bounded window.
type Feed struct {
	fetcher  Fetcher
	queue    *Queue
	interval time.Duration
	log      *zerolog.Logger

	mu      sync.RWMutex
	window  core.Window
	updates chan core.Window
}

// New creates a feed draining queue into a window of opts.WindowSize.
func New(fetcher Fetcher, queue *Queue, opts Options, logger *zerolog.Logger) *Feed {
	interval := opts.DrainInterval
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	return &Feed{
		fetcher:  fetcher,
		queue:    queue,
		interval: interval,
		log:      logger,
		window:   core.NewWindow(opts.WindowSize),
		updates:  make(chan core.Window, 1),
	}
}

// Window returns the current display window.
func (f *Feed) Window() core.Window {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.window
}

// Updates delivers the latest window after every change. Only the most
// recent snapshot is kept for a slow reader.
func (f *Feed) Updates() <-chan core.Window {
	return f.updates
}

// Load fetches the recent messages and replaces the window with them.
func (f *Feed) Load(ctx context.Context) error {
	msgs, err := f.fetcher.LastMessages(ctx)
	if err != nil {
		f.log.Error().Err(err).Msg("failed to fetch recent messages")
		return fmt.Errorf("load recent messages: %w", err)
	}

	f.mu.Lock()
	f.window = f.window.Replace(msgs)
	w := f.window
	f.mu.Unlock()

	f.log.Debug().Int("count", w.Len()).Msg("feed loaded")
	f.publish(w)
	return nil
}

// Tick performs one drain step: at most one pending message moves into
// the window. It reports whether the window changed.
func (f *Feed) Tick() bool {
	msg, ok := f.queue.Pop()
	if !ok {
		return false
	}

	f.mu.Lock()
	f.window = f.window.Push(msg)
	w := f.window
	f.mu.Unlock()

	f.publish(w)
	return true
}

// Run loads the feed once, then drains on a fixed cadence until ctx ends.
// The ticker is stopped when Run returns.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.Load(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if f.Tick() {
				f.log.Debug().Int("pending", f.queue.Len()).Msg("message drained")
			}
		}
	}
}

func (f *Feed) publish(w core.Window) {
	for {
		select {
		case f.updates <- w:
			return
		default:
		}
		// Replace a stale snapshot nobody read yet.
		select {
		case <-f.updates:
		default:
		}
	}
}
