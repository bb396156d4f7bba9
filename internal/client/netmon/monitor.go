// Package netmon reports whether the remote is reachable.
package netmon

import (
	"context"
	"sync"
)

// Monitor is the connectivity source consulted by sync and scheduling.
type Monitor interface {
	Online() bool
	// Subscribe returns a channel that receives connectivity transitions and
	// a cancel func that releases it. Each channel holds only the latest state.
	Subscribe() (<-chan bool, func())
}

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

func ModeOf(online bool) Mode {
	if online {
		return ModeOnline
	}
	return ModeOffline
}

// State is a Monitor driven by Set. The zero value is not usable; use NewState.
type State struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]chan bool
}

func NewState(online bool) *State {
	return &State{online: online, subs: make(map[int]chan bool)}
}

func (s *State) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Set records the connectivity state and reports whether it changed.
// Subscribers are told about changes only.
func (s *State) Set(online bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.online == online {
		return false
	}
	s.online = online

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
	return true
}

func (s *State) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	ch := make(chan bool, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// WaitOnline blocks until m reports online or ctx is done.
func WaitOnline(ctx context.Context, m Monitor) error {
	if m.Online() {
		return nil
	}
	ch, cancel := m.Subscribe()
	defer cancel()

	// The state may have flipped between the check and the subscription.
	if m.Online() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case online, ok := <-ch:
			if !ok {
				return ctx.Err()
			}
			if online {
				return nil
			}
		}
	}
}
