package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/ui-acceptor/page"
	"github.com/ethereum-optimism/infra/ui-acceptor/settle"
)

// session is one browser page plus the engine driving it. A session serves
// one case at a time: it is checked out of the pool for the whole case,
// cooldown included, so interleaved operations on one page cannot happen.
type session struct {
	id     int
	page   page.Page
	engine *settle.Engine
}

// sessionPool hands out sessions with capacity-one semantics per session.
type sessionPool struct {
	sessions []*session
	free     chan *session
}

func newSessionPool(sessions []*session) *sessionPool {
	p := &sessionPool{
		sessions: sessions,
		free:     make(chan *session, len(sessions)),
	}
	for _, s := range sessions {
		p.free <- s
	}
	return p
}

// acquire blocks until a session is free or ctx is done.
func (p *sessionPool) acquire(ctx context.Context) (*session, error) {
	select {
	case s := <-p.free:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *sessionPool) release(s *session) {
	p.free <- s
}

func (p *sessionPool) size() int {
	return len(p.sessions)
}

// Close releases every page of the pool.
func (p *sessionPool) Close() error {
	var errs []error
	for _, s := range p.sessions {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing session %d: %w", s.id, err))
		}
	}
	return errors.Join(errs...)
}
