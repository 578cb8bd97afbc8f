// Package location abstracts acquisition of a trusted position fix. The
// gateway walks permission prompting and fix acquisition as an explicit state
// machine and hands the resulting fix to the caller; it never talks to the
// platform itself.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"guardshift-agent/internal/model"
)

// State of the gateway. Failed and denied are both recoverable: the caller
// may simply call Acquire again.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateChecking   State = "checking"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
	StateDenied     State = "denied"
)

var (
	// ErrPermissionDenied means the user refused the location permission
	// prompt. Recoverable by re-prompting.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrAcquisitionFailed covers timeouts and provider errors while
	// obtaining a fix. Recoverable by retrying.
	ErrAcquisitionFailed = errors.New("could not acquire a location fix")
	// ErrAbandoned means the consumer gave up before the acquisition
	// resolved; the late result was discarded.
	ErrAbandoned = errors.New("location flow abandoned")
	// ErrAcquireInFlight rejects a second concurrent acquisition.
	ErrAcquireInFlight = errors.New("a location acquisition is already in flight")
)

// PermissionProvider prompts for, or checks, the location permission.
type PermissionProvider interface {
	Request(ctx context.Context) (granted bool, err error)
}

// PositionProvider produces a high-accuracy position fix.
type PositionProvider interface {
	Position(ctx context.Context) (lat, lng float64, err error)
}

// Gateway owns one permission/fix flow at a time. It is reusable: a denied or
// failed outcome does not require recreating it.
type Gateway struct {
	perm    PermissionProvider
	pos     PositionProvider
	timeout time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
}

const defaultTimeout = 15 * time.Second

// NewGateway creates a gateway. A non-positive timeout falls back to 15s so a
// stalled acquisition always surfaces as failed instead of hanging.
func NewGateway(perm PermissionProvider, pos PositionProvider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{perm: perm, pos: pos, timeout: timeout, state: StateIdle}
}

// State returns the gateway's current state.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Abandon resets the gateway to idle. An in-flight acquisition keeps running
// until it resolves, but its result is discarded and never reaches the
// abandoning consumer.
func (g *Gateway) Abandon() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.state = StateIdle
}

// Acquire runs the full permission/fix sequence and returns the fix.
func (g *Gateway) Acquire(ctx context.Context) (*model.LocationFix, error) {
	g.mu.Lock()
	if g.state == StateRequesting || g.state == StateChecking {
		g.mu.Unlock()
		return nil, ErrAcquireInFlight
	}
	g.gen++
	gen := g.gen
	g.state = StateRequesting
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	granted, err := g.perm.Request(ctx)
	if err != nil {
		g.settle(gen, StateDenied)
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !granted {
		g.settle(gen, StateDenied)
		return nil, ErrPermissionDenied
	}
	if !g.settle(gen, StateChecking) {
		return nil, ErrAbandoned
	}

	lat, lng, err := g.pos.Position(ctx)
	if err != nil {
		g.settle(gen, StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}

	fix := &model.LocationFix{Latitude: lat, Longitude: lng, CapturedAt: time.Now().UTC()}
	if !g.settle(gen, StateSuccess) {
		return nil, ErrAbandoned
	}
	return fix, nil
}

// settle moves the state machine forward, unless the consumer abandoned the
// flow in the meantime (generation mismatch).
func (g *Gateway) settle(gen uint64, st State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return false
	}
	g.state = st
	return true
}
