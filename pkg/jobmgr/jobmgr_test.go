package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type results struct {
	mu  sync.Mutex
	got map[string]error
}

func (r *results) record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got[name] = err
}

func (r *results) get(name string) (error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err, ok := r.got[name]
	return err, ok
}

func newManager(t *testing.T) (*Manager, *results) {
	t.Helper()
	m := NewManager(context.Background(), nil)
	res := &results{got: make(map[string]error)}
	m.OnResult(res.record)
	t.Cleanup(func() {
		m.StopAll()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, m.Wait(ctx))
	})
	return m, res
}

func TestStartAndFinish(t *testing.T) {
	m, res := newManager(t)
	boom := errors.New("boom")

	require.NoError(t, m.Start("ok", func(context.Context) error { return nil }))
	require.NoError(t, m.Start("bad", func(context.Context) error { return boom }))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))

	err, ok := res.get("ok")
	require.True(t, ok)
	assert.NoError(t, err)
	err, _ = res.get("bad")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, m.Len())
}

func TestDuplicateName(t *testing.T) {
	m, _ := newManager(t)
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, m.Start("x", func(ctx context.Context) error {
		<-release
		return nil
	}))
	err := m.Start("x", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrRunning)
	assert.Equal(t, []string{"x"}, m.List())
	assert.Equal(t, "Running jobs: x", m.Status())
}

func TestStopCancels(t *testing.T) {
	m, res := newManager(t)

	started := make(chan struct{})
	require.NoError(t, m.Start("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started
	require.NoError(t, m.Stop("long"))

	require.Eventually(t, func() bool {
		_, ok := res.get("long")
		return ok
	}, time.Second, 5*time.Millisecond)
	err, _ := res.get("long")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Stop("long"), ErrUnknown)
}

func TestPanicIsRecovered(t *testing.T) {
	m, res := newManager(t)

	require.NoError(t, m.Start("p", func(context.Context) error { panic("oops") }))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))

	err, _ := res.get("p")
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "oops", perr.Value)
	assert.Equal(t, "p", perr.Job)
}

func TestStopAllRefusesNewJobs(t *testing.T) {
	m, _ := newManager(t)

	require.NoError(t, m.Start("a", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))
	m.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	assert.ErrorIs(t, m.Start("b", func(context.Context) error { return nil }), ErrClosed)
	assert.Equal(t, "No jobs are running.", m.Status())
}

func TestParentCancellation(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	m := NewManager(parent, nil)

	done := make(chan error, 1)
	require.NoError(t, m.Start("child", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return nil
	}))
	cancelParent()
	assert.ErrorIs(t, <-done, context.Canceled)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
}
