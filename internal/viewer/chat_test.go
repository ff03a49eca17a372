package viewer

import (
	"testing"
	"time"

	"github.com/classcast/classcast/internal/domain"
)

func TestChatLogDeduplicatesByID(t *testing.T) {
	l := NewChatLog(nil)
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	msg := domain.ChatMessage{ID: "m1", SenderID: "u1", Body: "hello", CreatedAt: base}
	if !l.Append(msg) {
		t.Fatalf("first append rejected")
	}
	// Same message arrives again via history refetch.
	if l.Append(msg) {
		t.Fatalf("duplicate id accepted")
	}
	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}
}

func TestChatLogFallbackDedupeWindow(t *testing.T) {
	l := NewChatLog(nil)
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	// Local echo without an id, then the broadcast copy 1s later.
	l.Append(domain.ChatMessage{SenderID: "u1", Body: "hello", CreatedAt: base})
	if l.Append(domain.ChatMessage{SenderID: "u1", Body: "hello", CreatedAt: base.Add(time.Second)}) {
		t.Fatalf("near-duplicate within window accepted")
	}

	// Same words far apart are a genuinely new message.
	if !l.Append(domain.ChatMessage{SenderID: "u1", Body: "hello", CreatedAt: base.Add(10 * time.Second)}) {
		t.Fatalf("repeat outside window rejected")
	}
	// Same words from someone else are not a duplicate.
	if !l.Append(domain.ChatMessage{SenderID: "u2", Body: "hello", CreatedAt: base.Add(11 * time.Second)}) {
		t.Fatalf("same body from different sender rejected")
	}
	if l.Len() != 3 {
		t.Fatalf("len = %d, want 3", l.Len())
	}
}

func TestChatLogCallbackFiresOncePerKeptMessage(t *testing.T) {
	var delivered []string
	l := NewChatLog(func(msg domain.ChatMessage) {
		delivered = append(delivered, msg.ID)
	})
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	l.LoadHistory([]domain.ChatMessage{
		{ID: "m1", SenderID: "u1", Body: "one", CreatedAt: base},
		{ID: "m2", SenderID: "u1", Body: "two", CreatedAt: base.Add(time.Second)},
	})
	l.Append(domain.ChatMessage{ID: "m2", SenderID: "u1", Body: "two", CreatedAt: base.Add(time.Second)})
	l.Append(domain.ChatMessage{ID: "m3", SenderID: "u1", Body: "three", CreatedAt: base.Add(2 * time.Second)})

	want := []string{"m1", "m2", "m3"}
	if len(delivered) != len(want) {
		t.Fatalf("delivered = %v, want %v", delivered, want)
	}
	for i := range want {
		if delivered[i] != want[i] {
			t.Fatalf("delivered[%d] = %q, want %q", i, delivered[i], want[i])
		}
	}
}
