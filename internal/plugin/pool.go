package plugin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sidosera/lolabunny.app/internal/scripthost"
)

// ErrCheckoutTimeout is returned when no pooled execution context becomes
// free within the configured checkout timeout.
var ErrCheckoutTimeout = errors.New("plugin: context checkout timed out")

// pool owns a bounded set of execution contexts for a single plugin. A
// context is checked out for the duration of one process() call and
// returned immediately after — nothing here holds a context across a
// suspension point other than the lease itself.
type pool struct {
	sourcePath string
	stateOpts  []scripthost.StateOption

	checkoutTimeout time.Duration
	cap             int

	mu      sync.Mutex
	created int
	free    chan *scripthost.State
	closed  bool
}

func newPool(sourcePath string, capSize int, checkoutTimeout time.Duration, stateOpts ...scripthost.StateOption) *pool {
	if capSize <= 0 {
		capSize = 1
	}
	return &pool{
		sourcePath:      sourcePath,
		stateOpts:       stateOpts,
		checkoutTimeout: checkoutTimeout,
		cap:             capSize,
		free:            make(chan *scripthost.State, capSize),
	}
}

// seed installs an already-loaded state as the first pooled context,
// letting the registry build reuse the state it loaded to read info()
// instead of throwing it away.
func (p *pool) seed(st *scripthost.State) {
	p.mu.Lock()
	p.created++
	p.mu.Unlock()
	p.free <- st
}

// checkout leases a context, constructing one (up to cap) if none is free,
// or waiting up to the checkout timeout. The returned release func MUST be
// called exactly once.
func (p *pool) checkout(ctx context.Context) (*scripthost.State, func(), error) {
	select {
	case st := <-p.free:
		return st, func() { p.release(st) }, nil
	default:
	}

	p.mu.Lock()
	if !p.closed && p.created < p.cap {
		p.created++
		p.mu.Unlock()

		st, err := scripthost.Load(ctx, p.sourcePath, p.stateOpts...)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, nil, err
		}
		return st, func() { p.release(st) }, nil
	}
	p.mu.Unlock()

	timer := time.NewTimer(p.checkoutTimeout)
	defer timer.Stop()

	select {
	case st := <-p.free:
		return st, func() { p.release(st) }, nil
	case <-timer.C:
		return nil, nil, ErrCheckoutTimeout
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (p *pool) release(st *scripthost.State) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		st.Close()
		return
	}
	p.mu.Unlock()

	select {
	case p.free <- st:
	default:
		// Pool shrank or is oversubscribed; drop rather than block the
		// releasing request.
		st.Close()
		p.mu.Lock()
		p.created--
		p.mu.Unlock()
	}
}

// close releases every pooled context. Safe to call once a snapshot has
// been fully superseded and no reader can observe it anymore.
func (p *pool) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case st := <-p.free:
			st.Close()
		default:
			return
		}
	}
}
