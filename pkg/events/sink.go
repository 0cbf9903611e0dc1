package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// LogSink writes every event to the structured log. Useful as a default
// sink and in development.
type LogSink struct{}

// Emit implements Sink.
func (LogSink) Emit(ev Event) {
	logrus.WithFields(logrus.Fields{
		"kind":     ev.Kind,
		"userId":   ev.UserID,
		"seasonId": ev.SeasonID,
	}).Debug("game event")
}

// ChannelSink forwards events into a buffered channel, dropping on
// overflow rather than blocking the tap path.
type ChannelSink struct {
	ch      chan Event
	dropped int
	mu      sync.Mutex
}

// NewChannelSink builds a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Events exposes the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Dropped reports how many events were discarded on overflow.
func (s *ChannelSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Emit implements Sink.
func (s *ChannelSink) Emit(ev Event) {
	select {
	case s.ch <- ev:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		logrus.Warnf("event buffer full, dropping %s event for user %s", ev.Kind, ev.UserID)
	}
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// CollectSink records events in memory. Test helper.
type CollectSink struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (s *CollectSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of everything recorded so far.
func (s *CollectSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// ByKind filters recorded events by kind.
func (s *CollectSink) ByKind(kind Kind) []Event {
	var out []Event
	for _, ev := range s.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
