// Package resilience guards outbound webhook calls with circuit breakers so a
// dead endpoint stops consuming delivery slots.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker opens after maxFailures consecutive failures. Once cooldown has
// elapsed it admits one trial call at a time until a result is recorded.
type Breaker struct {
	mu          sync.Mutex
	state       State
	trial       bool
	failures    int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	now         func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{maxFailures: maxFailures, cooldown: cooldown, now: time.Now}
}

// Execute runs fn unless the circuit is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()
	b.record(err)
	return err
}

// State reports the current position, promoting open to half-open when the
// cooldown has passed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.trial {
			return false
		}
		b.trial = true
		return true
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	b.state = StateHalfOpen
	b.trial = true
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trial = false
	if err == nil {
		b.failures = 0
		b.state = StateClosed
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// BreakerSet lazily creates one Breaker per key (a webhook URL).
type BreakerSet struct {
	mu          sync.Mutex
	breakers    map[string]*Breaker
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// NewBreakerSet creates an empty set whose breakers share the given settings.
func NewBreakerSet(maxFailures int, cooldown time.Duration) *BreakerSet {
	return &BreakerSet{
		breakers:    make(map[string]*Breaker),
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Get returns the breaker for key, creating it on first use.
func (s *BreakerSet) Get(key string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[key]
	if !ok {
		b = NewBreaker(s.maxFailures, s.cooldown)
		b.now = s.now
		s.breakers[key] = b
	}
	return b
}

// Execute runs fn through the breaker for key.
func (s *BreakerSet) Execute(key string, fn func() error) error {
	return s.Get(key).Execute(fn)
}

// Open lists the keys whose breaker currently rejects calls.
func (s *BreakerSet) Open() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for k, b := range s.breakers {
		if b.State() == StateOpen {
			keys = append(keys, k)
		}
	}
	return keys
}
