// Package session keeps per-visitor chat state: the conversation log and the
// admin login flag. Sessions live in memory and expire after a period of inactivity.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"examenbot/internal/domain"
)

// WelcomeText is the first assistant turn of every new session.
const WelcomeText = "Welkom! Hoe kan ik je helpen met het examenreglement?"

// AdminSession is the admin part of a session.
type AdminSession struct {
	Authenticated bool
	// CorpusID is the corpus the administrator last built in this session.
	CorpusID string
}

// Session is one visitor's state. All methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	turnMu sync.Mutex // held for the duration of one chat turn

	mu    sync.Mutex
	turns []domain.ConversationTurn
	admin AdminSession
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		turns: []domain.ConversationTurn{
			{Role: domain.RoleAssistant, Content: WelcomeText},
		},
	}
}

// BeginTurn serializes chat turns within the session. Call the returned
// function when the turn is complete.
func (s *Session) BeginTurn() (end func()) {
	s.turnMu.Lock()
	return s.turnMu.Unlock
}

// Append adds turns to the conversation log.
func (s *Session) Append(turns ...domain.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

// Turns returns a copy of the conversation log.
func (s *Session) Turns() []domain.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.turns)
}

// Admin returns the admin state.
func (s *Session) Admin() AdminSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin
}

// SetAdmin replaces the admin state.
func (s *Session) SetAdmin(a AdminSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = a
}

// Store holds sessions with sliding expiry.
type Store struct {
	cache *cache.Cache
}

// NewStore creates a Store whose sessions expire after ttl without use.
func NewStore(ttl time.Duration) *Store {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{cache: cache.New(ttl, cleanup)}
}

// Get returns the session and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	s.cache.SetDefault(id, sess)
	return sess, true
}

// GetOrCreate returns the session for id, or a new session with a fresh id
// when id is empty or unknown. created reports which happened.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	for {
		sess = newSession(uuid.NewString())
		if err := s.cache.Add(sess.ID, sess, cache.DefaultExpiration); err == nil {
			return sess, true
		}
	}
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}

type contextKey string

const sessionKey contextKey = "session"

// WithSession attaches the session to the context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the session attached to the context.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok && sess != nil
}
