package store

import (
	"errors"
	"testing"
	"time"

	"github.com/priorityhub/inbox-platform/internal/bus"
	"github.com/priorityhub/inbox-platform/internal/model"
)

// fakeClock hands out strictly increasing timestamps so creation order is
// observable in sort assertions.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := New(nil, nil)
	s.now = clock.Now
	return s, clock
}

func mustUser(t *testing.T, s *Store) *model.User {
	t.Helper()
	user, err := s.CreateUser("Ana@Example.com", "Ana", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestCreateUserPreservesEmailCasing(t *testing.T) {
	s, _ := newTestStore()
	user := mustUser(t, s)

	if user.Email != "Ana@Example.com" {
		t.Fatalf("email rewritten to %q", user.Email)
	}

	got, err := s.GetUser(user.ID)
	if err != nil || got.ID != user.ID {
		t.Fatalf("get user: %v", err)
	}

	if _, err := s.GetUser("missing"); model.CodeOf(err) != model.CodeUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}
}

func TestContactDedupSpansChannels(t *testing.T) {
	s, _ := newTestStore()
	user := mustUser(t, s)

	first, err := s.FindOrCreateContact(user.ID, "Bob@Corp.com", "Bob", model.ChannelEmail)
	if err != nil {
		t.Fatalf("first contact: %v", err)
	}
	if first.Priority != model.DefaultContactPriority {
		t.Fatalf("expected default priority 50, got %d", first.Priority)
	}

	// Same email, different casing, different channel: same contact, and
	// the original name/channel are untouched.
	second, err := s.FindOrCreateContact(user.ID, "bob@corp.com", "Robert", model.ChannelChat)
	if err != nil {
		t.Fatalf("second contact: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the same contact across channels")
	}
	if second.Name != "Bob" || second.Channel != model.ChannelEmail {
		t.Fatalf("existing contact mutated: %+v", second)
	}

	// Same email under another user is a distinct contact.
	other, err := s.CreateUser("carol@example.com", "Carol", "")
	if err != nil {
		t.Fatalf("create other user: %v", err)
	}
	third, err := s.FindOrCreateContact(other.ID, "bob@corp.com", "Bob", model.ChannelEmail)
	if err != nil {
		t.Fatalf("third contact: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("contact leaked across users")
	}
}

func TestConversationIdentityFirstWriteWins(t *testing.T) {
	s, _ := newTestStore()
	user := mustUser(t, s)
	contact, _ := s.FindOrCreateContact(user.ID, "bob@corp.com", "Bob", model.ChannelEmail)

	conv, isNew, err := s.FindOrCreateConversation(user.ID, contact.ID, "thr-1", model.ChannelEmail, "Quarterly numbers")
	if err != nil || !isNew {
		t.Fatalf("expected new conversation, err=%v", err)
	}

	otherContact, _ := s.FindOrCreateContact(user.ID, "eve@corp.com", "Eve", model.ChannelEmail)
	again, isNew, err := s.FindOrCreateConversation(user.ID, otherContact.ID, "thr-1", model.ChannelEmail, "Renamed")
	if err != nil || isNew {
		t.Fatalf("expected existing conversation, err=%v", err)
	}
	if again.ID != conv.ID || again.Title != "Quarterly numbers" || again.ContactID != contact.ID {
		t.Fatalf("conversation identity mutated: %+v", again)
	}

	// Same external id on another channel is a different conversation.
	chatConv, isNew, _ := s.FindOrCreateConversation(user.ID, contact.ID, "thr-1", model.ChannelChat, "DM with Bob")
	if !isNew || chatConv.ID == conv.ID {
		t.Fatal("expected channel to be part of the conversation key")
	}
}

func TestCreateMessageRefusesDuplicateExternalID(t *testing.T) {
	s, clock := newTestStore()
	user := mustUser(t, s)
	contact, _ := s.FindOrCreateContact(user.ID, "bob@corp.com", "Bob", model.ChannelEmail)
	conv, _, _ := s.FindOrCreateConversation(user.ID, contact.ID, "thr-1", model.ChannelEmail, "T")

	msg, err := s.CreateMessage(conv.ID, "msg-1", model.ChannelEmail, "hello", nil, clock.Now())
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	if _, err := s.CreateMessage(conv.ID, "msg-1", model.ChannelEmail, "hello again", nil, clock.Now()); model.CodeOf(err) != model.CodeDuplicateMessage {
		t.Fatalf("expected DUPLICATE_MESSAGE, got %v", err)
	}

	found, ok := s.FindMessageByExternalID("msg-1")
	if !ok || found.ID != msg.ID {
		t.Fatal("dedup lookup failed")
	}
	if _, ok := s.FindMessageByExternalID("msg-2"); ok {
		t.Fatal("unexpected dedup hit")
	}
}

func TestConversationListSortAndTieBreak(t *testing.T) {
	s, _ := newTestStore()
	user := mustUser(t, s)
	contact, _ := s.FindOrCreateContact(user.ID, "bob@corp.com", "Bob", model.ChannelEmail)

	mk := func(ext string, prio int) *model.Conversation {
		conv, _, err := s.FindOrCreateConversation(user.ID, contact.ID, ext, model.ChannelEmail, ext)
		if err != nil {
			t.Fatalf("conversation %s: %v", ext, err)
		}
		if _, err := s.UpdateConversationPriority(conv.ID, prio, s.now()); err != nil {
			t.Fatalf("priority %s: %v", ext, err)
		}
		return conv
	}

	mk("low", 10)
	older := mk("tie-older", 70)
	newer := mk("tie-newer", 70)
	mk("high", 95)

	items, total := s.GetConversationsForUser(user.ID, 1, 20, "")
	if total != 4 || len(items) != 4 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}

	order := []string{"high", "tie-newer", "tie-older", "low"}
	for i, want := range order {
		if items[i].ExternalID != want {
			t.Fatalf("position %d: got %s, want %s", i, items[i].ExternalID, want)
		}
	}
	// Equal priority resolves to the later-created conversation first.
	if !newer.CreatedAt.After(older.CreatedAt) {
		t.Fatal("fixture ordering broken")
	}
}

func TestConversationListFilterClampAndInactivity(t *testing.T) {
	s, clock := newTestStore()
	user := mustUser(t, s)
	contact, _ := s.FindOrCreateContact(user.ID, "bob@corp.com", "Bob", model.ChannelEmail)

	emailConv, _, _ := s.FindOrCreateConversation(user.ID, contact.ID, "e1", model.ChannelEmail, "e1")
	s.FindOrCreateConversation(user.ID, contact.ID, "c1", model.ChannelChat, "c1")

	// Stale conversation: high stored priority, last message 8 days back.
	s.UpdateConversationPriority(emailConv.ID, 90, clock.t.Add(-8*24*time.Hour))

	items, total := s.GetConversationsForUser(user.ID, 1, 20, model.ChannelEmail)
	if total != 1 || len(items) != 1 {
		t.Fatalf("channel filter: total=%d len=%d", total, len(items))
	}
	if items[0].Priority != 0 {
		t.Fatalf("expected inactivity-checked priority 0, got %d", items[0].Priority)
	}

	// page/limit clamping: page 0 becomes 1, limit 1000 becomes 100.
	if items, _ := s.GetConversationsForUser(user.ID, 0, 1000, ""); len(items) != 2 {
		t.Fatalf("clamped query returned %d items", len(items))
	}
	if items, _ := s.GetConversationsForUser(user.ID, 5, 20, ""); len(items) != 0 {
		t.Fatalf("out-of-range page returned %d items", len(items))
	}
}

func TestMessagesChronologicalWithCountAndLatest(t *testing.T) {
	s, clock := newTestStore()
	user := mustUser(t, s)
	contact, _ := s.FindOrCreateContact(user.ID, "bob@corp.com", "Bob", model.ChannelEmail)
	conv, _, _ := s.FindOrCreateConversation(user.ID, contact.ID, "thr-1", model.ChannelEmail, "T")

	base := clock.Now()
	// Insert out of order; reads must come back oldest first.
	s.CreateMessage(conv.ID, "m2", model.ChannelEmail, "second", nil, base.Add(2*time.Minute))
	s.CreateMessage(conv.ID, "m1", model.ChannelEmail, "first", nil, base.Add(1*time.Minute))
	s.CreateMessage(conv.ID, "m3", model.ChannelEmail, "third", nil, base.Add(3*time.Minute))

	items, total := s.GetMessagesForConversation(conv.ID, 1, 50)
	if total != 3 {
		t.Fatalf("total=%d", total)
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if items[i].ExternalID != want {
			t.Fatalf("position %d: got %s", i, items[i].ExternalID)
		}
	}

	if n := s.GetMessageCountForConversation(conv.ID); n != 3 {
		t.Fatalf("count=%d", n)
	}
	latest, ok := s.GetLatestMessageForConversation(conv.ID)
	if !ok || latest.ExternalID != "m3" {
		t.Fatalf("latest=%+v ok=%v", latest, ok)
	}

	// Pagination across the chronological order.
	pageTwo, _ := s.GetMessagesForConversation(conv.ID, 2, 2)
	if len(pageTwo) != 1 || pageTwo[0].ExternalID != "m3" {
		t.Fatalf("page 2 = %+v", pageTwo)
	}
}

func TestStoreEmitsChangeEvents(t *testing.T) {
	notifier := bus.New()
	sub := notifier.Subscribe(8)

	s := New(notifier, nil)
	user, _ := s.CreateUser("ana@example.com", "Ana", "")
	contact, _ := s.FindOrCreateContact(user.ID, "bob@corp.com", "Bob", model.ChannelEmail)
	conv, _, _ := s.FindOrCreateConversation(user.ID, contact.ID, "thr-1", model.ChannelEmail, "T")
	msg, _ := s.CreateMessage(conv.ID, "m1", model.ChannelEmail, "hi", nil, time.Now())
	s.UpdateConversationPriority(conv.ID, 77, time.Now())

	want := []model.EventType{model.EventConversationNew, model.EventMessageNew, model.EventConversationUpdated}
	for _, wantType := range want {
		evt := <-sub.Events()
		if evt.Type != wantType {
			t.Fatalf("got event %s, want %s", evt.Type, wantType)
		}
		if evt.ConversationID != conv.ID || evt.UserID != user.ID {
			t.Fatalf("event routing fields wrong: %+v", evt)
		}
		switch wantType {
		case model.EventMessageNew:
			if evt.MessageID != msg.ID {
				t.Fatalf("message event missing id: %+v", evt)
			}
		case model.EventConversationUpdated:
			if evt.Priority == nil || *evt.Priority != 77 {
				t.Fatalf("updated event missing priority: %+v", evt)
			}
		}
	}

	// A repeat find-or-create emits nothing new.
	s.FindOrCreateConversation(user.ID, contact.ID, "thr-1", model.ChannelEmail, "T")
	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestErrorCodesRoundTrip(t *testing.T) {
	s, clock := newTestStore()

	if _, err := s.UpdateConversationPriority("missing", 10, clock.Now()); model.CodeOf(err) != model.CodeConversationNotFound {
		t.Fatalf("expected CONVERSATION_NOT_FOUND, got %v", err)
	}
	if _, err := s.CreateMessage("missing", "mx", model.ChannelEmail, "x", nil, clock.Now()); model.CodeOf(err) != model.CodeConversationNotFound {
		t.Fatalf("expected CONVERSATION_NOT_FOUND, got %v", err)
	}

	user := mustUser(t, s)
	if _, err := s.CreateUser("x@example.com", "X", user.ID); !errors.Is(err, model.ValidationError("")) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
