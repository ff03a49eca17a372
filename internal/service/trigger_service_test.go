package service

import (
	"context"
	"testing"
	"time"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/pubsub"
)

func newTriggerServiceForTest(sessions *fakeSessionRepo, ledger *fakeLedgerRepo, chat *fakeChatRepo, bus *fakePublisher) *triggerServiceImpl {
	svc := NewTriggerService(sessions, ledger, chat, bus).(*triggerServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC) }
	return svc
}

func seedLedger(t *testing.T, ledger *fakeLedgerRepo, sessionID string, offsets ...int) {
	t.Helper()
	var messages []*domain.ScheduledMessage
	for _, off := range offsets {
		messages = append(messages, &domain.ScheduledMessage{
			OffsetSeconds: off,
			Text:          "scheduled",
			SenderName:    "Kay",
		})
	}
	if err := ledger.ReplaceAll(context.Background(), sessionID, messages); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
}

func TestTriggerFiresDueEntriesExactlyOnce(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.add(&domain.Session{ID: "s1", Slug: "abc123"})
	ledger := newFakeLedgerRepo()
	seedLedger(t, ledger, "s1", 2, 5, 30)

	chat := &fakeChatRepo{}
	bus := &fakePublisher{}
	svc := newTriggerServiceForTest(sessions, ledger, chat, bus)

	// At offset 3 only the entry at 2 is due.
	if err := svc.Trigger(context.Background(), "abc123", 3); err != nil {
		t.Fatalf("Trigger(3): %v", err)
	}
	if n := bus.count(pubsub.EventChatMessage); n != 1 {
		t.Fatalf("broadcasts after offset 3 = %d, want 1", n)
	}

	// Re-reporting the same offset fires nothing new.
	for i := 0; i < 5; i++ {
		if err := svc.Trigger(context.Background(), "abc123", 3); err != nil {
			t.Fatalf("repeat Trigger(3): %v", err)
		}
	}
	if n := bus.count(pubsub.EventChatMessage); n != 1 {
		t.Fatalf("broadcasts after repeats = %d, want still 1", n)
	}

	// A jump past several entries catches up on all of them at once.
	if err := svc.Trigger(context.Background(), "abc123", 60); err != nil {
		t.Fatalf("Trigger(60): %v", err)
	}
	if n := bus.count(pubsub.EventChatMessage); n != 3 {
		t.Fatalf("broadcasts after offset 60 = %d, want 3", n)
	}
	if len(chat.messages) != 3 {
		t.Fatalf("persisted chat rows = %d, want 3", len(chat.messages))
	}
	for id, calls := range ledger.markCalls {
		if calls != 1 {
			t.Fatalf("MarkSent(%s) called %d times, want 1", id, calls)
		}
	}
}

func TestTriggerWithNothingDueIsSuccess(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.add(&domain.Session{ID: "s1", Slug: "abc123"})
	ledger := newFakeLedgerRepo()
	seedLedger(t, ledger, "s1", 100)

	bus := &fakePublisher{}
	svc := newTriggerServiceForTest(sessions, ledger, &fakeChatRepo{}, bus)

	if err := svc.Trigger(context.Background(), "abc123", 10); err != nil {
		t.Fatalf("Trigger with nothing due: %v", err)
	}
	if len(bus.events) != 0 {
		t.Fatalf("broadcasts = %d, want 0", len(bus.events))
	}
}

func TestTriggerUnknownSession(t *testing.T) {
	svc := newTriggerServiceForTest(newFakeSessionRepo(), newFakeLedgerRepo(), &fakeChatRepo{}, &fakePublisher{})

	if err := svc.Trigger(context.Background(), "missing", 10); err != ErrSessionNotFound {
		t.Fatalf("Trigger err = %v, want ErrSessionNotFound", err)
	}
}

func TestTriggerMarksSentEvenWhenChatPersistFails(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.add(&domain.Session{ID: "s1", Slug: "abc123"})
	ledger := newFakeLedgerRepo()
	seedLedger(t, ledger, "s1", 1)

	chat := &fakeChatRepo{failCreate: true}
	bus := &fakePublisher{}
	svc := newTriggerServiceForTest(sessions, ledger, chat, bus)

	if err := svc.Trigger(context.Background(), "abc123", 5); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	// Live viewers got the broadcast; the flag still flips so the entry
	// can never fire twice.
	if n := bus.count(pubsub.EventChatMessage); n != 1 {
		t.Fatalf("broadcasts = %d, want 1", n)
	}
	due, err := ledger.FindDue(context.Background(), "s1", 100)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due after fire = %d entries, want 0", len(due))
	}
}

func TestTriggerBroadcastAndHistoryShareMessageID(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.add(&domain.Session{ID: "s1", Slug: "abc123"})
	ledger := newFakeLedgerRepo()
	seedLedger(t, ledger, "s1", 0)

	chat := &fakeChatRepo{}
	bus := &fakePublisher{}
	svc := newTriggerServiceForTest(sessions, ledger, chat, bus)

	if err := svc.Trigger(context.Background(), "s1", 0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	// A viewer that reconnects refetches history and dedupes on message
	// id, so the live broadcast must carry the id the chat row was
	// persisted under.
	var payload pubsub.ChatMessagePayload
	if err := bus.events[0].event.UnmarshalPayload(&payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.MessageID == "" {
		t.Fatal("broadcast carries empty message id")
	}
	if payload.MessageID != chat.messages[0].ID {
		t.Fatalf("broadcast id %q != persisted id %q", payload.MessageID, chat.messages[0].ID)
	}
}

func TestTriggerBroadcastsAdminTypedMessages(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.add(&domain.Session{ID: "s1", Slug: "abc123"})
	ledger := newFakeLedgerRepo()
	seedLedger(t, ledger, "s1", 0)

	chat := &fakeChatRepo{}
	bus := &fakePublisher{}
	svc := newTriggerServiceForTest(sessions, ledger, chat, bus)

	if err := svc.Trigger(context.Background(), "s1", 0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	var payload pubsub.ChatMessagePayload
	if err := bus.events[0].event.UnmarshalPayload(&payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.MessageType != string(domain.ChatTypeAdmin) {
		t.Fatalf("message type = %q, want %q", payload.MessageType, domain.ChatTypeAdmin)
	}
	if chat.messages[0].Type != domain.ChatTypeAdmin {
		t.Fatalf("persisted type = %q, want %q", chat.messages[0].Type, domain.ChatTypeAdmin)
	}
}
