package menu

import "github.com/puzpuzpuz/xsync/v3"

// Registry holds at most one active session per conversation key.
type Registry struct {
	m *xsync.MapOf[string, *Session]
}

func NewRegistry() *Registry {
	return &Registry{m: xsync.NewMapOf[string, *Session]()}
}

// Put makes s the session for key. A previous occupant is terminated,
// cleanup included, before Put returns.
func (r *Registry) Put(key string, s *Session) (prev *Session) {
	prev, loaded := r.m.LoadAndStore(key, s)
	if !loaded || prev == s {
		return nil
	}
	prev.terminate(ReasonPreempted)
	return prev
}

func (r *Registry) Get(key string) (*Session, bool) {
	return r.m.Load(key)
}

// Remove deletes key only while it still maps to s, so a late cleanup of
// a preempted session never evicts its successor.
func (r *Registry) Remove(key string, s *Session) bool {
	removed := false
	r.m.Compute(key, func(old *Session, loaded bool) (*Session, bool) {
		if !loaded {
			return old, true
		}
		if old != s {
			return old, false
		}
		removed = true
		return nil, true
	})
	return removed
}

func (r *Registry) Len() int { return r.m.Size() }

// Range calls fn for every active session until fn returns false.
func (r *Registry) Range(fn func(key string, s *Session) bool) {
	r.m.Range(fn)
}
