package bridge

import (
	"time"

	"github.com/tripcanvas/tripcanvas/pkg/host"
	"github.com/tripcanvas/tripcanvas/pkg/trip"
)

const (
	DefaultPollInterval    = 250 * time.Millisecond
	DefaultPollMaxAttempts = 40
)

// SnapshotProvider is the mutable slot a host exposes for tool output. Read
// once at start by the snapshot adapter and periodically by the poll
// fallback. *host.Slot satisfies it.
type SnapshotProvider interface {
	Get() interface{}
}

// Renderer paints canonical trip data. Render(nil) asks for the explicit
// empty state.
type Renderer interface {
	Render(data *trip.TripData) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(data *trip.TripData) error

func (f RenderFunc) Render(data *trip.TripData) error {
	return f(data)
}

// Options wires a bridge to its host surfaces. Renderer is required; every
// source is optional since hosts differ in which delivery channel they use.
type Options struct {
	// Snapshot is the host slot read once at start and polled afterwards.
	Snapshot SnapshotProvider

	// PageQuery is the page's raw URL query string, holding the ?data=
	// development fallback.
	PageQuery string

	// Events carries set_globals pushes from the host for the widget's
	// lifetime.
	Events <-chan host.SetGlobalsEvent

	Renderer Renderer

	// FollowUp, when present, lets BookTrip hand a prompt back to the host.
	FollowUp host.FollowUpSender

	PollInterval    time.Duration
	PollMaxAttempts int
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.PollMaxAttempts <= 0 {
		out.PollMaxAttempts = DefaultPollMaxAttempts
	}
	return out
}
