// Package changefeed fans out "something changed" signals per topic and turns
// them into streams of freshly loaded snapshots.
//
// Signals carry no payload and are coalesced: a subscriber that has not yet
// consumed a pending signal does not queue another one. Consumers therefore
// always re-read current state instead of applying deltas.
package changefeed

import "sync"

// Source delivers change signals for a topic.
type Source interface {
	Subscribe(topic string) (<-chan struct{}, func())
}

// Feed is an in-process Source. The zero value is not usable; call New.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

var _ Source = (*Feed)(nil)

// New creates an empty Feed.
func New() *Feed {
	return &Feed{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers for signals on topic. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (f *Feed) Subscribe(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	set, ok := f.subs[topic]
	if !ok {
		set = make(map[chan struct{}]struct{})
		f.subs[topic] = set
	}
	set[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[topic], ch)
			if len(f.subs[topic]) == 0 {
				delete(f.subs, topic)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Publish signals every subscriber of topic without blocking.
func (f *Feed) Publish(topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending.
		}
	}
}

// PublishAll signals every topic that currently has subscribers. Used after
// the upstream notification source reconnects and may have missed events.
func (f *Feed) PublishAll() {
	f.mu.Lock()
	topics := make([]string, 0, len(f.subs))
	for t := range f.subs {
		topics = append(topics, t)
	}
	f.mu.Unlock()

	for _, t := range topics {
		f.Publish(t)
	}
}

// Subscribers returns the number of subscribers of topic.
func (f *Feed) Subscribers(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[topic])
}
