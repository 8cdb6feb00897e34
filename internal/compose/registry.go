package compose

import (
	"sync"
	"time"

	"mostrador/internal/catalog"
	"mostrador/internal/media"
)

// RegistryConfig bounds the staged media of every session the registry
// creates.
type RegistryConfig struct {
	TTL          time.Duration
	MaxPerColor  int
	MaxFileBytes int64
}

// Registry owns all live composition sessions. Sessions idle past the TTL
// are expired and their staged handles released.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	codes    *CodeGenerator
	cache    *catalog.Cache
	handles  media.HandleStore
	cfg      RegistryConfig
}

func NewRegistry(codes *CodeGenerator, cache *catalog.Cache, handles media.HandleStore, cfg RegistryConfig) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		codes:    codes,
		cache:    cache,
		handles:  handles,
		cfg:      cfg,
	}
	if cfg.TTL > 0 {
		go r.janitor()
	}
	return r
}

func (r *Registry) Create() (*Session, error) {
	code, err := r.codes.Next()
	if err != nil {
		return nil, err
	}
	mgr := media.NewManager(r.handles, r.cfg.MaxPerColor, r.cfg.MaxFileBytes)
	s := newSession(code, r.cache, mgr)

	r.mu.Lock()
	r.sessions[code] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns a live session and refreshes its idle clock.
func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[code]
	r.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Remove closes a session, releasing its staged media.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	s, ok := r.sessions[code]
	delete(r.sessions, code)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(r.cfg.TTL / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-r.cfg.TTL)
		var expired []*Session

		r.mu.Lock()
		for code, s := range r.sessions {
			if s.lastUsed().Before(cutoff) {
				delete(r.sessions, code)
				expired = append(expired, s)
			}
		}
		r.mu.Unlock()

		for _, s := range expired {
			s.Close()
		}
	}
}
