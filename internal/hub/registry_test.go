package hub

import (
	"sync"
	"testing"
)

type testWriter struct {
	mu     sync.Mutex
	writes [][]byte
	closed bool
	fail   bool
}

func (w *testWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errTest
	}
	w.writes = append(w.writes, message)
	return nil
}

func (w *testWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *testWriter) writeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

func (w *testWriter) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

var errTest = &testErr{}

type testErr struct{}

func (*testErr) Error() string { return "test" }

func TestRegistry_LookupAbsent(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("nobody"); ok {
		t.Fatalf("expected absent")
	}
}

func TestRegistry_RegisterLookupUnregister(t *testing.T) {
	r := NewRegistry()
	c := &Connection{UserID: "u", Writer: &testWriter{}}

	r.Register(c)
	got, ok := r.Lookup("u")
	if !ok || got != c {
		t.Fatalf("expected registered connection")
	}

	if !r.Unregister(c) {
		t.Fatalf("expected unregister to remove entry")
	}
	if _, ok := r.Lookup("u"); ok {
		t.Fatalf("expected absent after unregister")
	}
	if r.Unregister(c) {
		t.Fatalf("expected second unregister to be a no-op")
	}
}

func TestRegistry_RegisterSupersedesAndCloses(t *testing.T) {
	r := NewRegistry()
	w1 := &testWriter{}
	c1 := &Connection{UserID: "u", Writer: w1}
	c2 := &Connection{UserID: "u", Writer: &testWriter{}}

	r.Register(c1)
	r.Register(c2)

	got, ok := r.Lookup("u")
	if !ok || got != c2 {
		t.Fatalf("expected newest connection to win")
	}
	if !w1.isClosed() {
		t.Fatalf("expected superseded connection to be closed")
	}

	// The superseded connection's teardown must not evict its replacement.
	if r.Unregister(c1) {
		t.Fatalf("expected stale unregister to lose the guard")
	}
	if got, ok := r.Lookup("u"); !ok || got != c2 {
		t.Fatalf("expected replacement to survive stale unregister")
	}
}

func TestRegistry_ConcurrentRegisterLeavesOneEntry(t *testing.T) {
	r := NewRegistry()
	c1 := &Connection{UserID: "u", Writer: &testWriter{}}
	c2 := &Connection{UserID: "u", Writer: &testWriter{}}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Register(c1)
	}()
	go func() {
		defer wg.Done()
		r.Register(c2)
	}()
	wg.Wait()

	got, ok := r.Lookup("u")
	if !ok {
		t.Fatalf("expected an entry to survive")
	}
	if got != c1 && got != c2 {
		t.Fatalf("expected one of the racing connections")
	}
	if len(r.OnlineUserIDs()) != 1 {
		t.Fatalf("expected exactly one online user")
	}
}

func TestRegistry_PushEvictsOnWriteFailure(t *testing.T) {
	r := NewRegistry()
	w := &testWriter{fail: true}
	c := &Connection{UserID: "u", Writer: w}
	r.Register(c)

	if r.Push("u", []byte("x")) {
		t.Fatalf("expected push to report not-delivered")
	}
	if !w.isClosed() {
		t.Fatalf("expected failed connection to be closed")
	}
	if _, ok := r.Lookup("u"); ok {
		t.Fatalf("expected failed connection to be evicted")
	}
}

func TestRegistry_BroadcastReachesAll(t *testing.T) {
	r := NewRegistry()
	w1 := &testWriter{}
	w2 := &testWriter{}
	r.Register(&Connection{UserID: "a", Writer: w1})
	r.Register(&Connection{UserID: "b", Writer: w2})

	r.Broadcast([]byte("x"))
	if w1.writeCount() != 1 || w2.writeCount() != 1 {
		t.Fatalf("expected one write per connection, got %d and %d", w1.writeCount(), w2.writeCount())
	}
}
