package events

import (
	"sync"
	"time"

	"lodestone/internal/queue"
)

// Type identifies the kind of event carried on the bus.
type Type string

const (
	TypeItemStarted   Type = "item_started"
	TypeItemProgress  Type = "item_progress"
	TypeItemCompleted Type = "item_completed"
	TypeItemFailed    Type = "item_failed"
	TypeInstallReady  Type = "install_ready"
)

// ItemRef is the queue item snapshot events carry so subscribers avoid a
// store round trip for routine handling.
type ItemRef struct {
	ID          int64
	ContentType queue.ContentType
	ProfileID   string
	DisplayName string
}

// Progress reports transfer counters for the in-flight install.
type Progress struct {
	BytesCurrent int64
	BytesTotal   int64
	FilesCurrent int
	FilesTotal   int
	Message      string
}

// Event is a single bus message. Fields beyond Type/Sequence/Timestamp are
// populated per type: Item for item events, Progress for item_progress,
// Error for item_failed, ProfileID/Valid for install_ready.
type Event struct {
	Type      Type
	Sequence  uint64
	Timestamp time.Time
	Item      ItemRef
	Progress  Progress
	Error     string
	ProfileID string
	Valid     bool
}

const defaultPendingLimit = 256

// Bus fans events out to subscribers, each drained by its own pump goroutine.
type Bus struct {
	mu      sync.Mutex
	nextSeq uint64
	nextID  int
	subs    map[int]*Subscription
	closed  bool
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// Subscription receives bus events until Close is called.
type Subscription struct {
	bus *Bus
	id  int

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Event
	closed  bool

	out  chan Event
	done chan struct{}
}

// Subscribe registers a new subscriber and starts its delivery pump.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{out: make(chan Event), done: make(chan struct{})}
	sub.cond = sync.NewCond(&sub.mu)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.closed = true
		close(sub.done)
		close(sub.out)
		return sub
	}
	b.nextID++
	sub.bus = b
	sub.id = b.nextID
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.pump()
	return sub
}

// Publish delivers the event to every live subscriber.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.nextSeq++
	evt.Sequence = b.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.enqueue(evt)
	}
}

// Close shuts down the bus and every open subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = map[int]*Subscription{}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

// Events returns the subscriber's delivery channel. The channel closes when
// either side closes the subscription.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Close detaches the subscription from the bus.
func (s *Subscription) Close() {
	if s.bus != nil {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
	}
	s.shutdown()
}

func (s *Subscription) enqueue(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if len(s.pending) >= defaultPendingLimit {
		// Shed load by discarding the oldest progress event. Terminal events
		// stay queued no matter the backlog.
		dropped := false
		for i, queued := range s.pending {
			if queued.Type == TypeItemProgress {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped && evt.Type == TypeItemProgress {
			return
		}
	}
	s.pending = append(s.pending, evt)
	s.cond.Signal()
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Subscription) pump() {
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		evt := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- evt:
		case <-s.done:
			close(s.out)
			return
		}
	}
}
