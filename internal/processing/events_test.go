package processing

import "testing"

func TestEventBusSince(t *testing.T) {
	b := NewEventBus(10)
	b.Publish(Event{Type: EventTypeStatus, Status: StatusUploading})
	second := b.Publish(Event{Type: EventTypeStatus, Status: StatusExtracting})

	if second.Seq != 2 {
		t.Fatalf("seq = %d, want 2", second.Seq)
	}
	if second.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	got := b.Since(1)
	if len(got) != 1 || got[0].Status != StatusExtracting {
		t.Fatalf("Since(1) = %+v", got)
	}
	if len(b.Since(2)) != 0 {
		t.Fatal("Since(last) should be empty")
	}
}

func TestEventBusBounded(t *testing.T) {
	b := NewEventBus(3)
	for i := 0; i < 5; i++ {
		b.Publish(Event{Type: EventTypeStatus})
	}

	got := b.Since(0)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Seq != 3 || got[2].Seq != 5 {
		t.Fatalf("kept seqs %d..%d, want 3..5", got[0].Seq, got[2].Seq)
	}
	if b.LastSeq() != 5 {
		t.Fatalf("LastSeq = %d", b.LastSeq())
	}
}

func TestEventBusChangedFiresOnPublish(t *testing.T) {
	b := NewEventBus(10)
	changed := b.Changed()

	select {
	case <-changed:
		t.Fatal("Changed fired before any Publish")
	default:
	}

	b.Publish(Event{Type: EventTypeStatus, Status: StatusUploading})

	select {
	case <-changed:
	default:
		t.Fatal("Changed did not fire after Publish")
	}

	select {
	case <-b.Changed():
		t.Fatal("fresh Changed channel is already closed")
	default:
	}
}
