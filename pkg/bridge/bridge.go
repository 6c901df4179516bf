package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tripcanvas/tripcanvas/pkg/host"
	"github.com/tripcanvas/tripcanvas/pkg/logger"
	"github.com/tripcanvas/tripcanvas/pkg/trip"
)

// Bridge reconciles trip data arriving from racing host sources (start-up
// snapshot, URL fallback, push events, poll fallback) and re-renders exactly
// when a candidate differs from what was last shown.
type Bridge struct {
	opts Options

	mu           sync.Mutex
	lastRendered *trip.TripData

	pollAttempts  int
	pollExhausted bool
	pollStop      chan struct{}
	pollStopOnce  sync.Once

	done        chan struct{}
	disposeOnce sync.Once
	wg          sync.WaitGroup
	started     bool
}

// State is a read-only view of the bridge for logging and tests.
type State struct {
	Rendered      bool
	PollAttempts  int
	PollExhausted bool
}

func New(opts Options) (*Bridge, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("bridge requires a renderer")
	}
	return &Bridge{
		opts:     opts.withDefaults(),
		pollStop: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start runs the bootstrap sequence and launches the live adapter. The
// snapshot is considered first; the URL fallback only if nothing rendered
// from it. If neither produced data, the empty state is painted exactly once.
// Push consumption and polling then run until Dispose.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return fmt.Errorf("bridge already started")
	}
	b.started = true
	b.mu.Unlock()

	if b.opts.Snapshot != nil {
		b.Consider(b.opts.Snapshot.Get())
	}
	if !b.rendered() && b.opts.PageQuery != "" {
		if data := trip.DecodeURLPayload(b.opts.PageQuery); data != nil {
			b.Consider(data)
		}
	}
	if !b.rendered() {
		// Explicit empty state, painted at most once. lastRendered stays nil
		// so the first real candidate still renders.
		if err := b.opts.Renderer.Render(nil); err != nil {
			logger.WarnCF("bridge", "Empty state render failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if b.opts.Events != nil {
		b.wg.Add(1)
		go b.consumePush(ctx)
	}
	if b.opts.Snapshot != nil {
		// Runs even when bootstrap already rendered: a host may fill the
		// slot later without pushing, and the first non-nil read cancels
		// the timer anyway.
		b.wg.Add(1)
		go b.poll(ctx)
	} else {
		b.stopPoll()
	}
	return nil
}

// Consider normalizes a raw candidate and re-renders when it differs from
// the last-rendered value. Nil or unusable candidates are dropped; identical
// content is suppressed. Candidates are processed strictly one at a time.
func (b *Bridge) Consider(raw interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	candidate := trip.Normalize(raw)
	if candidate == nil {
		return
	}
	if candidate.Equal(b.lastRendered) {
		logger.DebugC("bridge", "Candidate identical to last render, suppressing")
		return
	}

	if err := b.opts.Renderer.Render(candidate); err != nil {
		// Do not commit: a later identical candidate should retry once the
		// mount point exists.
		logger.ErrorCF("bridge", "Render failed", map[string]interface{}{
			"destination": candidate.Destination,
			"error":       err.Error(),
		})
		return
	}
	b.lastRendered = candidate
	logger.InfoCF("bridge", "Rendered trip data", map[string]interface{}{
		"destination": candidate.Destination,
		"flights":     len(candidate.Flights),
		"hotels":      len(candidate.Hotels),
	})
}

func (b *Bridge) consumePush(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case ev, ok := <-b.opts.Events:
			if !ok {
				return
			}
			b.Consider(ev.Globals.ToolOutput)
		}
	}
}

func (b *Bridge) poll(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-b.pollStop:
			return
		case <-ticker.C:
			if raw := b.opts.Snapshot.Get(); raw != nil {
				b.Consider(raw)
				b.stopPoll()
				return
			}
			b.mu.Lock()
			b.pollAttempts++
			attempts := b.pollAttempts
			exhausted := attempts >= b.opts.PollMaxAttempts
			b.pollExhausted = exhausted
			b.mu.Unlock()

			if exhausted {
				// Not an error: push and late snapshots remain live.
				logger.InfoCF("bridge", "Poll budget exhausted", map[string]interface{}{
					"attempts": attempts,
				})
				b.stopPoll()
				return
			}
		}
	}
}

// stopPoll cancels the poll timer. Safe to call more than once.
func (b *Bridge) stopPoll() {
	b.pollStopOnce.Do(func() {
		close(b.pollStop)
	})
}

// BookTrip asks the host to continue the conversation with a booking prompt
// built from the last-rendered destination. User initiated, best effort.
func (b *Bridge) BookTrip(ctx context.Context) error {
	if b.opts.FollowUp == nil {
		return fmt.Errorf("no follow-up channel to the host")
	}

	b.mu.Lock()
	destination := trip.DefaultDestination
	if b.lastRendered != nil && b.lastRendered.Destination != "" {
		destination = b.lastRendered.Destination
	}
	b.mu.Unlock()

	msg := host.FollowUpMessage{
		Prompt: fmt.Sprintf("Start booking the selected options for my trip to %s.", destination),
	}
	if err := b.opts.FollowUp.SendFollowUpMessage(ctx, msg); err != nil {
		logger.WarnCF("bridge", "Follow-up send failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// Dispose stops polling and push consumption and waits for them to exit.
// Safe to call more than once.
func (b *Bridge) Dispose() {
	b.disposeOnce.Do(func() {
		close(b.done)
		b.stopPoll()
	})
	b.wg.Wait()
}

// State reports what has rendered and where the poll fallback stands.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		Rendered:      b.lastRendered != nil,
		PollAttempts:  b.pollAttempts,
		PollExhausted: b.pollExhausted,
	}
}

// LastRendered returns a copy of the most recent committed trip data, nil if
// nothing rendered yet.
func (b *Bridge) LastRendered() *trip.TripData {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastRendered == nil {
		return nil
	}
	out := *b.lastRendered
	return &out
}

func (b *Bridge) rendered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRendered != nil
}
