package store

import "sync"

// Change identifies which table group changed. Subscribers are expected to
// reload in full; the signal carries no row-level detail.
type Change string

const (
	ChangeTweets   Change = "tweets"
	ChangeAccounts Change = "accounts"
)

// changeHub fans write signals out to subscribers. Sends never block: a
// subscriber that is behind misses intermediate signals, which is fine for
// a reload-on-signal consumer.
type changeHub struct {
	mu     sync.Mutex
	subs   []chan Change
	closed bool
}

func newChangeHub() *changeHub {
	return &changeHub{}
}

func (h *changeHub) subscribe() <-chan Change {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Change, 8)
	if h.closed {
		close(ch)
		return ch
	}
	h.subs = append(h.subs, ch)
	return ch
}

func (h *changeHub) unsubscribe(ch <-chan Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub == ch {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			if !h.closed {
				close(sub)
			}
			return
		}
	}
}

func (h *changeHub) notify(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (h *changeHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
