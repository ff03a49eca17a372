package viewer

import (
	"sync"
	"time"

	"github.com/classcast/classcast/internal/domain"
)

// duplicateWindow is how far apart two otherwise identical messages can
// be and still count as the same message.
const duplicateWindow = 2 * time.Second

// ChatLog merges persisted history with the live stream. The same
// message can arrive on both paths, so appends are deduplicated by
// message id, with a content-and-time fallback for messages that lost
// their id in transit.
type ChatLog struct {
	mu       sync.RWMutex
	messages []domain.ChatMessage
	seen     map[string]struct{}
	onAppend func(domain.ChatMessage)
}

// NewChatLog creates an empty log. onAppend, if non-nil, is called for
// every message that survives deduplication.
func NewChatLog(onAppend func(domain.ChatMessage)) *ChatLog {
	return &ChatLog{
		seen:     make(map[string]struct{}),
		onAppend: onAppend,
	}
}

// LoadHistory seeds the log with persisted messages, oldest first.
func (l *ChatLog) LoadHistory(history []domain.ChatMessage) {
	for _, msg := range history {
		l.Append(msg)
	}
}

// Append adds one message unless it is a duplicate. Returns whether the
// message was kept.
func (l *ChatLog) Append(msg domain.ChatMessage) bool {
	l.mu.Lock()
	if l.isDuplicate(msg) {
		l.mu.Unlock()
		return false
	}

	if msg.ID != "" {
		l.seen[msg.ID] = struct{}{}
	}
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	if l.onAppend != nil {
		l.onAppend(msg)
	}
	return true
}

// Messages returns a copy of the log in arrival order.
func (l *ChatLog) Messages() []domain.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of kept messages.
func (l *ChatLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

func (l *ChatLog) isDuplicate(msg domain.ChatMessage) bool {
	if msg.ID != "" {
		_, ok := l.seen[msg.ID]
		return ok
	}

	// No id: fall back to sender, body and a small time window, scanning
	// from the tail since duplicates arrive close together.
	for i := len(l.messages) - 1; i >= 0; i-- {
		prev := l.messages[i]
		if msg.CreatedAt.Sub(prev.CreatedAt) > duplicateWindow {
			break
		}
		if prev.SenderID == msg.SenderID && prev.Body == msg.Body {
			return true
		}
	}
	return false
}
