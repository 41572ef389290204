package menu

import "github.com/puzpuzpuz/xsync/v3"

// Vars is the variable store shared by every action of one session.
type Vars struct {
	m *xsync.MapOf[string, any]
}

func newVars(seed map[string]any) *Vars {
	v := &Vars{m: xsync.NewMapOf[string, any]()}
	for k, val := range seed {
		v.m.Store(k, val)
	}
	return v
}

func (v *Vars) Get(key string) (any, bool) { return v.m.Load(key) }
func (v *Vars) Set(key string, value any)  { v.m.Store(key, value) }
func (v *Vars) Delete(key string)          { v.m.Delete(key) }
func (v *Vars) Len() int                   { return v.m.Size() }

// Compute atomically replaces the value under key with fn's result and
// returns the new value.
func (v *Vars) Compute(key string, fn func(old any, ok bool) any) any {
	out, _ := v.m.Compute(key, func(old any, loaded bool) (any, bool) {
		return fn(old, loaded), false
	})
	return out
}

// Load returns the value under key as a T.
func Load[T any](v *Vars, key string) (T, bool) {
	raw, ok := v.m.Load(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := raw.(T)
	return t, ok
}

// Update atomically applies fn to the T under key and returns the previous
// and the new value. A missing or mistyped value reads as the zero T.
func Update[T any](v *Vars, key string, fn func(old T) T) (prev, next T) {
	v.m.Compute(key, func(old any, loaded bool) (any, bool) {
		if loaded {
			prev, _ = old.(T)
		}
		next = fn(prev)
		return next, false
	})
	return prev, next
}

// LoadOrStore returns the existing T under key or stores value.
func LoadOrStore[T any](v *Vars, key string, value T) T {
	raw, _ := v.m.LoadOrStore(key, value)
	t, ok := raw.(T)
	if !ok {
		return value
	}
	return t
}
