package board

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookie carries the id of the board a browser works against.
const SessionCookie = "order_board_session"

type session struct {
	board    *Board
	lastSeen time.Time
}

// Registry hands each browser session its own Board. All boards share the
// same OrderAPI; only the page state (form, modal, banner) is per session.
type Registry struct {
	api OrderAPI
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	boards map[string]*session
}

// NewRegistry drops boards that have not been touched for ttl. A zero ttl
// keeps them forever.
func NewRegistry(api OrderAPI, ttl time.Duration) *Registry {
	return &Registry{
		api:    api,
		ttl:    ttl,
		now:    time.Now,
		boards: map[string]*session{},
	}
}

// NewSessionID returns a fresh id for SessionCookie.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the board for id, creating it on first use.
func (r *Registry) Get(id string) *Board {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evict(now)

	s, ok := r.boards[id]
	if !ok {
		s = &session{board: New(r.api)}
		r.boards[id] = s
	}
	s.lastSeen = now
	return s.board
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

func (r *Registry) evict(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, s := range r.boards {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.boards, id)
		}
	}
}
