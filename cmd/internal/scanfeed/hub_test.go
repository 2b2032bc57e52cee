package scanfeed

import "testing"

func TestHub_BroadcastFanOut(t *testing.T) {
	h := NewHub(nil)

	a := NewClient("a", 4)
	b := NewClient("b", 4)
	h.Subscribe(a)
	h.Subscribe(b)
	if h.Subscribers() != 2 {
		t.Fatalf("subscribers = %d, want 2", h.Subscribers())
	}

	h.Broadcast("event-1")
	for _, c := range []*Client{a, b} {
		select {
		case v := <-c.Send:
			if v != "event-1" {
				t.Fatalf("client %s got %v", c.Name, v)
			}
		default:
			t.Fatalf("client %s missed broadcast", c.Name)
		}
	}

	h.Unsubscribe(a)
	if h.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", h.Subscribers())
	}
	select {
	case <-a.Done():
	default:
		t.Fatalf("unsubscribed client not signalled")
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	h := NewHub(nil)
	c := NewClient("slow", 1)
	h.Subscribe(c)

	// Queue of 1: the second broadcast must drop, not block.
	h.Broadcast("one")
	h.Broadcast("two")

	select {
	case v := <-c.Send:
		if v != "one" {
			t.Fatalf("got %v, want one", v)
		}
	default:
		t.Fatalf("missing first event")
	}
	select {
	case v := <-c.Send:
		t.Fatalf("unexpected second event %v", v)
	default:
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	c := NewClient("x", 0)
	c.Close()
	c.Close()
	select {
	case <-c.Done():
	default:
		t.Fatalf("done not closed")
	}
}
