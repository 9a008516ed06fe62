package web

import (
	"sync"
	"time"

	"github.com/example/field-scheduler/internal/booking"
	"github.com/example/field-scheduler/internal/metrics"
	"github.com/google/uuid"
)

// flowSession is one in-progress booking flow bound to the user that
// opened it. Flows are in-memory only; restarting the server abandons
// them, which is acceptable for an interactive wizard.
type flowSession struct {
	id        string
	userID    int64
	flow      *booking.Flow
	createdAt time.Time

	// mu serializes transitions; the flow itself models one interactive
	// session and is not safe for concurrent mutation.
	mu sync.Mutex
}

const flowTTL = 2 * time.Hour

type flowStore struct {
	mu    sync.Mutex
	flows map[string]*flowSession
}

func newFlowStore() *flowStore {
	return &flowStore{flows: map[string]*flowSession{}}
}

func (s *flowStore) create(userID int64, flow *booking.Flow) *flowSession {
	sess := &flowSession{
		id:        uuid.NewString(),
		userID:    userID,
		flow:      flow,
		createdAt: time.Now(),
	}
	s.mu.Lock()
	s.purgeLocked()
	s.flows[sess.id] = sess
	s.mu.Unlock()
	metrics.FlowOpened()
	return sess
}

// get returns the session only when it belongs to userID; a flow id is
// not a capability on its own.
func (s *flowStore) get(id string, userID int64) (*flowSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.flows[id]
	if !ok || sess.userID != userID {
		return nil, false
	}
	return sess, true
}

func (s *flowStore) remove(id string) {
	s.mu.Lock()
	if _, ok := s.flows[id]; ok {
		delete(s.flows, id)
		metrics.FlowClosed()
	}
	s.mu.Unlock()
}

func (s *flowStore) purgeLocked() {
	cutoff := time.Now().Add(-flowTTL)
	for id, sess := range s.flows {
		if sess.createdAt.Before(cutoff) {
			delete(s.flows, id)
			metrics.FlowClosed()
		}
	}
}

// upstreamState is the per-user upstream client and the directory
// components built on it, pinned to the credential revision it was built
// from. When the stored credential changes the whole state is rebuilt, so
// memoized directory data never leaks across credentials.
type upstreamState struct {
	credStamp time.Time
	upstream  Upstream
	resolver  *booking.Resolver
	composer  *booking.Composer
}

type upstreamCache struct {
	mu sync.Mutex
	m  map[int64]*upstreamState
}

func newUpstreamCache() *upstreamCache {
	return &upstreamCache{m: map[int64]*upstreamState{}}
}

func (c *upstreamCache) get(userID int64, credStamp time.Time) (*upstreamState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.m[userID]
	if !ok || !st.credStamp.Equal(credStamp) {
		return nil, false
	}
	return st, true
}

func (c *upstreamCache) put(userID int64, st *upstreamState) {
	c.mu.Lock()
	c.m[userID] = st
	c.mu.Unlock()
}

func (c *upstreamCache) drop(userID int64) {
	c.mu.Lock()
	if st, ok := c.m[userID]; ok {
		st.resolver.Invalidate()
		delete(c.m, userID)
	}
	c.mu.Unlock()
}
