package bus

import (
	"sync"
)

// Serializer guarantees in-order, non-overlapping execution of tasks
// that share a key, while tasks for different keys run concurrently.
//
// Each key owns a lane: a chain of goroutines where every task waits
// for its predecessor to finish before running. The lane map entry is
// removed once no further task is chained, so memory stays bounded by
// the number of keys with work in flight, not by total device count.
//
// A panic inside one task is recovered and logged; it never breaks the
// chain for subsequent tasks of the same key.
type Serializer struct {
	mu     sync.Mutex
	lanes  map[string]*lane
	logger Logger
}

// lane tracks the tail of the task chain for one key.
type lane struct {
	// tail is closed when the most recently submitted task finishes.
	tail chan struct{}
	// pending counts chained tasks that have not completed yet.
	pending int
}

// NewSerializer creates a per-key task serializer.
func NewSerializer() *Serializer {
	return &Serializer{
		lanes:  make(map[string]*lane),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used for recovered panics.
func (s *Serializer) SetLogger(logger Logger) {
	s.logger = logger
}

// Submit schedules task to run after all previously submitted tasks for
// the same key have finished. It returns a channel that is closed when
// the task completes, so callers can wait if they need to (handlers
// normally do not).
func (s *Serializer) Submit(key string, task func()) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	var prev chan struct{}
	l, ok := s.lanes[key]
	if ok {
		prev = l.tail
	} else {
		l = &lane{}
		s.lanes[key] = l
	}
	l.tail = done
	l.pending++
	s.mu.Unlock()

	go func() {
		defer close(done)

		if prev != nil {
			<-prev
		}

		s.run(key, task)

		s.mu.Lock()
		l.pending--
		if l.pending == 0 {
			delete(s.lanes, key)
		}
		s.mu.Unlock()
	}()

	return done
}

// run executes a task with panic recovery.
func (s *Serializer) run(key string, task func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("serialized task panic recovered",
				"key", key,
				"panic", r,
			)
		}
	}()

	task()
}

// LaneCount returns the number of keys with work in flight.
// Used for monitoring and leak checks in tests.
func (s *Serializer) LaneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}
