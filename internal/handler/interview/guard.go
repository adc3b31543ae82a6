package interview

import "sync"

// TurnGuard admits one in-flight turn per session id. HTTP and WebSocket share one
// guard so a session cannot be advanced from both at once.
type TurnGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewTurnGuard creates an empty guard.
func NewTurnGuard() *TurnGuard {
	return &TurnGuard{active: make(map[string]struct{})}
}

// TryAcquire marks id busy. It returns false if a turn for id is already running.
// The returned release func must be called exactly once when ok is true.
func (g *TurnGuard) TryAcquire(id string) (release func(), ok bool) {
	if id == "" {
		// nothing to serialize on; the engine rejects the turn
		return func() {}, true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[id]; busy {
		return nil, false
	}
	g.active[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, id)
			g.mu.Unlock()
		})
	}, true
}

// Busy reports whether id currently has a turn in flight.
func (g *TurnGuard) Busy(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[id]
	return busy
}
