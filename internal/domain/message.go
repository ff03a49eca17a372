package domain

import "time"

// ChatMessageType distinguishes viewer messages from session-authored ones.
type ChatMessageType string

const (
	ChatTypeUser  ChatMessageType = "user"
	ChatTypeAdmin ChatMessageType = "admin"
)

// MaxChatMessageLength is the upper bound on a chat message body.
const MaxChatMessageLength = 500

// ScheduledMessage is one ledger entry: a message authored ahead of time
// that fires when playback reaches its offset. The sent flag flips false→true
// exactly once and is never reset.
type ScheduledMessage struct {
	ID            string `json:"id"`
	SessionID     string `json:"session_id"`
	OffsetSeconds int    `json:"offset_seconds"`
	Text          string `json:"text"`
	SenderName    string `json:"sender_name"`
	SenderAvatar  string `json:"sender_avatar,omitempty"`
	Sent          bool   `json:"sent"`
}

// ChatMessage is the durable record of one chat line. Delivery to live
// viewers is fire-and-forget over the broadcast channel; this row is what
// history replay reads.
type ChatMessage struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	SenderID   string          `json:"sender_id"`
	SenderName string          `json:"sender_name"`
	Body       string          `json:"body"`
	Type       ChatMessageType `json:"type"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ScheduledMessageInput is one entry of a ledger replacement batch.
type ScheduledMessageInput struct {
	OffsetSeconds int    `json:"offset_seconds"`
	Text          string `json:"text" binding:"required"`
	SenderName    string `json:"sender_name"`
	SenderAvatar  string `json:"sender_avatar"`
}

// ReplaceMessagesRequest replaces a session's whole scheduled message list.
type ReplaceMessagesRequest struct {
	Messages []ScheduledMessageInput `json:"messages"`
}

// TriggerRequest is a viewer's periodic report of its playback position.
type TriggerRequest struct {
	SessionID     string `json:"session_id" binding:"required"`
	OffsetSeconds int    `json:"offset_seconds" binding:"min=0"`
}

// SendChatRequest represents a chat send request.
type SendChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required,max=500"`
	Type      string `json:"type"`
}

// HandRaiseRequest toggles the caller's hand-raise state.
type HandRaiseRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	IsRaised  bool   `json:"is_raised"`
}
