package bus

import (
	"testing"

	"github.com/priorityhub/inbox-platform/internal/model"
)

func event(id string) model.Event {
	return model.Event{Type: model.EventMessageNew, ConversationID: "c1", UserID: "u1", MessageID: id}
}

func TestDeliversToAllSubscribers(t *testing.T) {
	b := New()
	first := b.Subscribe(4)
	second := b.Subscribe(4)

	b.Publish(event("m1"))
	b.Publish(event("m2"))

	for name, sub := range map[string]*Subscription{"first": first, "second": second} {
		for _, want := range []string{"m1", "m2"} {
			got := <-sub.Events()
			if got.MessageID != want {
				t.Fatalf("%s subscriber: got %q, want %q", name, got.MessageID, want)
			}
		}
	}
}

func TestNoReplayForLateSubscriber(t *testing.T) {
	b := New()
	b.Publish(event("before"))

	sub := b.Subscribe(4)
	b.Publish(event("after"))
	sub.Close()

	var seen []string
	for evt := range sub.Events() {
		seen = append(seen, evt.MessageID)
	}
	if len(seen) != 1 || seen[0] != "after" {
		t.Fatalf("expected only the post-subscribe event, got %v", seen)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe(4)
	sub.Close()
	sub.Close() // idempotent

	b.Publish(event("m1"))

	if _, open := <-sub.Events(); open {
		t.Fatal("expected closed channel after unsubscribe")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
}

func TestSlowSubscriberIsDroppedWithoutBlockingOthers(t *testing.T) {
	b := New()
	slow := b.Subscribe(1)
	healthy := b.Subscribe(8)

	// Second publish overflows the slow queue; the publisher must not
	// block and the healthy subscriber must see everything.
	b.Publish(event("m1"))
	b.Publish(event("m2"))

	if n := b.SubscriberCount(); n != 1 {
		t.Fatalf("expected slow subscriber to be dropped, have %d subscribers", n)
	}

	var healthySeen []string
	healthy.Close()
	for evt := range healthy.Events() {
		healthySeen = append(healthySeen, evt.MessageID)
	}
	if len(healthySeen) != 2 {
		t.Fatalf("healthy subscriber saw %v", healthySeen)
	}

	// The slow subscriber keeps its queued event, then sees the close.
	var slowSeen []string
	for evt := range slow.Events() {
		slowSeen = append(slowSeen, evt.MessageID)
	}
	if len(slowSeen) != 1 || slowSeen[0] != "m1" {
		t.Fatalf("slow subscriber saw %v", slowSeen)
	}
}

func TestCloseRejectsFurtherPublishes(t *testing.T) {
	b := New()
	sub := b.Subscribe(4)
	b.Close()

	b.Publish(event("m1")) // must not panic

	if _, open := <-sub.Events(); open {
		t.Fatal("expected subscription closed on bus shutdown")
	}

	late := b.Subscribe(4)
	if _, open := <-late.Events(); open {
		t.Fatal("expected closed subscription from a closed bus")
	}
}
