// Package game keeps track of the live puzzle sessions.
package game

import (
	"errors"
	"sync"
	"time"

	"better-wordle-bot/internal/game/wordle"
)

// Registry errors.
var (
	ErrSessionExists = errors.New("player already has an active game")
	ErrNilSession    = errors.New("cannot register nil session")
)

// Registry maps each player to their single live session.
// It is safe for concurrent use; the sessions it returns are not.
type Registry struct {
	sessions map[int64]*wordle.Session
	mu       sync.RWMutex
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]*wordle.Session),
	}
}

// Start registers s as the player's live session.
// A player may only have one live session at a time.
func (r *Registry) Start(s *wordle.Session) error {
	if s == nil {
		return ErrNilSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.Player]; ok {
		return ErrSessionExists
	}
	r.sessions[s.Player] = s
	return nil
}

// Get returns the player's live session.
func (r *Registry) Get(player int64) (*wordle.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[player]
	return s, ok
}

// Remove drops the player's session, reporting whether one existed.
func (r *Registry) Remove(player int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[player]; ok {
		delete(r.sessions, player)
		return true
	}
	return false
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ExpireIdle removes and returns sessions with no activity for longer than timeout.
func (r *Registry) ExpireIdle(now time.Time, timeout time.Duration) []*wordle.Session {
	if timeout <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*wordle.Session
	for player, s := range r.sessions {
		if now.Sub(s.LastActivity) > timeout {
			expired = append(expired, s)
			delete(r.sessions, player)
		}
	}
	return expired
}
