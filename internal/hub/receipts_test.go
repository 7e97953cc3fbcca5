package hub

import "testing"

func TestPropagator_SenderOnline(t *testing.T) {
	r := NewRegistry()
	p := NewPropagator(r)
	w := &testWriter{}
	r.Register(&Connection{UserID: "bob", Writer: w})

	p.MarkRead("alice", "bob", []string{"m1"}, 1234)

	events := decodeEvents(t, w)
	if len(events) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(events))
	}
	ev := events[0]
	if ev["type"] != EventMessagesRead || ev["senderId"] != "bob" || ev["readBy"] != "alice" {
		t.Fatalf("unexpected receipt payload: %v", ev)
	}
	ids, _ := ev["messageIds"].([]any)
	if len(ids) != 1 || ids[0] != "m1" {
		t.Fatalf("unexpected message ids: %v", ids)
	}
}

func TestPropagator_SenderOffline(t *testing.T) {
	r := NewRegistry()
	p := NewPropagator(r)

	p.MarkRead("alice", "bob", []string{"m1"}, 1234)
}

func TestPropagator_EmptyBatchIsNoop(t *testing.T) {
	r := NewRegistry()
	p := NewPropagator(r)
	w := &testWriter{}
	r.Register(&Connection{UserID: "bob", Writer: w})

	p.MarkRead("alice", "bob", nil, 1234)
	if w.writeCount() != 0 {
		t.Fatalf("expected no push for empty batch")
	}
}

func TestPresence_AnnouncesOnlineSet(t *testing.T) {
	r := NewRegistry()
	p := NewPresence(r)
	w1 := &testWriter{}
	w2 := &testWriter{}
	r.Register(&Connection{UserID: "b", Writer: w1})
	r.Register(&Connection{UserID: "a", Writer: w2})

	p.Announce()

	events := decodeEvents(t, w1)
	if len(events) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(events))
	}
	if events[0]["type"] != EventOnlineUsers {
		t.Fatalf("expected onlineUsers, got %v", events[0]["type"])
	}
	ids, _ := events[0]["userIds"].([]any)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("expected sorted ids [a b], got %v", ids)
	}
}

func TestPresence_AnnouncesAfterPushEviction(t *testing.T) {
	r := NewRegistry()
	NewPresence(r)
	good := &testWriter{}
	bad := &testWriter{fail: true}
	r.Register(&Connection{UserID: "a", Writer: good})
	r.Register(&Connection{UserID: "b", Writer: bad})

	if r.Push("b", []byte(`{"type":"x"}`)) {
		t.Fatalf("expected push to a dead connection to fail")
	}
	if !bad.isClosed() {
		t.Fatalf("expected dead connection to be closed")
	}

	// The survivor learns that b went offline without b's serve goroutine
	// having torn anything down.
	events := decodeEvents(t, good)
	if len(events) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(events))
	}
	if events[0]["type"] != EventOnlineUsers {
		t.Fatalf("expected onlineUsers, got %v", events[0]["type"])
	}
	ids, _ := events[0]["userIds"].([]any)
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("expected [a], got %v", ids)
	}
}

func TestPresence_AnnouncesAfterBroadcastEviction(t *testing.T) {
	r := NewRegistry()
	p := NewPresence(r)
	good := &testWriter{}
	bad := &testWriter{fail: true}
	r.Register(&Connection{UserID: "a", Writer: good})
	r.Register(&Connection{UserID: "b", Writer: bad})

	p.Announce()

	events := decodeEvents(t, good)
	if len(events) != 2 {
		t.Fatalf("expected announcement plus re-announcement, got %d", len(events))
	}
	ids, _ := events[1]["userIds"].([]any)
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("expected [a] after eviction, got %v", ids)
	}
}
