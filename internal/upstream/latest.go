package upstream

import (
	"context"
	"sync"
)

// Latest implements latest-request-wins supersession for catalog searches:
// starting a request for a key cancels the one in flight, and a response is
// only applied if its token is still the newest for that key. Superseded
// responses are discarded, never surfaced.
type Latest struct {
	mu      sync.Mutex
	seq     map[string]uint64
	cancels map[string]context.CancelFunc
}

func NewLatest() *Latest {
	return &Latest{
		seq:     make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Begin registers a new request for key, cancelling any predecessor, and
// returns the context to issue it with plus its supersession token.
func (l *Latest) Begin(ctx context.Context, key string) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cancel, ok := l.cancels[key]; ok {
		cancel()
	}
	l.seq[key]++
	reqCtx, cancel := context.WithCancel(ctx)
	l.cancels[key] = cancel
	return reqCtx, l.seq[key]
}

// Current reports whether token still identifies the newest request for key.
func (l *Latest) Current(key string, token uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq[key] == token
}

// End retires the key once the request owning token finished: the cancel
// slot is freed and the sequence entry dropped, so settled keys do not
// accumulate. Only the newest request may retire its key; older ones were
// superseded and their End is a no-op.
func (l *Latest) End(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq[key] != token {
		return
	}
	if cancel, ok := l.cancels[key]; ok {
		cancel()
		delete(l.cancels, key)
	}
	delete(l.seq, key)
}
