// Package session holds a client's authoritative view of its own role and
// topic subscriptions. A Session outlives any single connection.
package session

import (
	"sort"
	"sync"

	"github.com/DeBrosOfficial/overlay/pkg/protocol"
)

// State is the serialisable form of a Session.
type State struct {
	IsRouter bool     `yaml:"router" json:"router"`
	Topics   []string `yaml:"topics" json:"topics"`
}

// Session is the local role and subscription set. Mutators report whether a
// change actually happened so callers can skip redundant wire traffic.
type Session struct {
	mu            sync.RWMutex
	isRouter      bool
	subscriptions map[string]protocol.RouteKey
}

// New creates an empty session: not a router, no subscriptions.
func New() *Session {
	return &Session{subscriptions: make(map[string]protocol.RouteKey)}
}

// FromState creates a session pre-populated with a role and topic set, e.g.
// one restored from a Store. Duplicate topics collapse. Topics no frame can
// carry (invalid UTF-8 or containing NUL) are dropped, otherwise every resync
// would fail on them.
func FromState(st State) *Session {
	s := New()
	s.isRouter = st.IsRouter
	for _, topic := range st.Topics {
		if protocol.ValidateTopic(topic) != nil {
			continue
		}
		s.subscriptions[topic] = protocol.Hash(topic)
	}
	return s
}

// Subscribe adds topic. It returns false if the topic was already present.
func (s *Session) Subscribe(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[topic]; ok {
		return false
	}
	s.subscriptions[topic] = protocol.Hash(topic)
	return true
}

// Unsubscribe removes topic. It returns false if the topic was absent.
func (s *Session) Unsubscribe(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[topic]; !ok {
		return false
	}
	delete(s.subscriptions, topic)
	return true
}

// SetRouter sets the role. It returns false if the role was unchanged.
func (s *Session) SetRouter(isRouter bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRouter == isRouter {
		return false
	}
	s.isRouter = isRouter
	return true
}

// IsSubscribed returns the stored route key for topic.
func (s *Session) IsSubscribed(topic string) (protocol.RouteKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.subscriptions[topic]
	return key, ok
}

// IsRouter reports the current role.
func (s *Session) IsRouter() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRouter
}

// Topics returns the subscribed topics in sorted order.
func (s *Session) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedTopics()
}

// Len returns the number of subscriptions.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscriptions)
}

// Clear drops every subscription. The role is kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = make(map[string]protocol.RouteKey)
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{IsRouter: s.isRouter, Topics: s.sortedTopics()}
}

func (s *Session) sortedTopics() []string {
	topics := make([]string, 0, len(s.subscriptions))
	for topic := range s.subscriptions {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}
