// Package events carries updates from background workers to the single
// goroutine that renders them.
package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultInterval is how often the consumer drains the queue.
const DefaultInterval = 100 * time.Millisecond

type Kind int

const (
	KindLog Kind = iota
	KindProgress
	KindStatus
	KindState
)

// Event is one update. Which fields are set depends on Kind.
type Event struct {
	Kind    Kind
	Time    time.Time
	Level   hclog.Level
	Message string

	// KindProgress
	Filename string
	Done     int64
	Total    int64

	// KindStatus and KindState
	Value string
}

// Queue is an unbounded FIFO. Post never blocks so workers are never held up
// by a slow consumer.
type Queue struct {
	mu      sync.Mutex
	pending []Event
	closed  bool
}

func NewQueue() *Queue {
	return &Queue{}
}

// Post appends ev. Events posted after Close are dropped.
func (q *Queue) Post(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, ev)
}

func (q *Queue) Progress(filename string, done, total int64) {
	q.Post(Event{Kind: KindProgress, Filename: filename, Done: done, Total: total})
}

func (q *Queue) Status(filename, status string) {
	q.Post(Event{Kind: KindStatus, Filename: filename, Value: status})
}

func (q *Queue) State(state string) {
	q.Post(Event{Kind: KindState, Value: state})
}

// Take removes and returns everything pending.
func (q *Queue) Take() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Drain calls fn for every event, in order, on each tick of interval until
// ctx is done, then drains once more. fn always runs on the calling
// goroutine.
func (q *Queue) Drain(ctx context.Context, interval time.Duration, fn func(Event)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()

	flush := func() {
		for _, ev := range q.Take() {
			fn(ev)
		}
	}

	for {
		select {
		case <-tk.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}

// Sink mirrors log lines at or above Level into a Queue. Register it on an
// InterceptLogger.
type Sink struct {
	Queue *Queue
	Level hclog.Level
}

var _ hclog.SinkAdapter = (*Sink)(nil)

func (s *Sink) Accept(name string, level hclog.Level, msg string, args ...interface{}) {
	if level < s.Level {
		return
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}
	s.Queue.Post(Event{Kind: KindLog, Level: level, Message: sb.String()})
}
