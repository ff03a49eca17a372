package pubsub

import "fmt"

// Channel naming conventions. Each session owns two streams: a general
// event stream and a presence stream.
const (
	ChannelSessionEvents   = "class:session:%s:events"
	ChannelSessionPresence = "class:session:%s:presence"
)

// Event types on the session event stream.
const (
	EventChatMessage   = "chat_message"
	EventSessionUpdate = "session_update"
	EventSessionEnded  = "session_ended"
	EventHandRaise     = "hand_raise"
)

// Event types on the session presence stream.
const (
	EventPresenceSnapshot = "presence_snapshot"
	EventMemberJoined     = "member_joined"
	EventMemberLeft       = "member_left"
)

// SessionEventsChannel returns the general event channel for a session.
func SessionEventsChannel(sessionID string) string {
	return fmt.Sprintf(ChannelSessionEvents, sessionID)
}

// SessionPresenceChannel returns the presence channel for a session.
func SessionPresenceChannel(sessionID string) string {
	return fmt.Sprintf(ChannelSessionPresence, sessionID)
}

// ChatMessagePayload is sent for every chat message, user or admin authored.
type ChatMessagePayload struct {
	MessageID    string `json:"message_id"`
	SessionID    string `json:"session_id"`
	SenderID     string `json:"sender_id"`
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
	Body         string `json:"body"`
	MessageType  string `json:"message_type"` // "user" or "admin"
	SentAt       int64  `json:"sent_at"`
}

// SessionUpdatePayload is sent when session metadata or status changes.
type SessionUpdatePayload struct {
	SessionID      string `json:"session_id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	ScheduledStart int64  `json:"scheduled_start"`
}

// HandRaisePayload is sent when a viewer toggles their hand.
type HandRaisePayload struct {
	SessionID string `json:"session_id"`
	MemberID  string `json:"member_id"`
	IsRaised  bool   `json:"is_raised"`
}

// Member describes one presence-channel member.
type Member struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	HandRaised bool   `json:"hand_raised"`
}

// PresenceSnapshotPayload is sent to a member right after it subscribes.
type PresenceSnapshotPayload struct {
	SessionID string   `json:"session_id"`
	Members   []Member `json:"members"`
	CountBase int      `json:"count_base"`
}

// MemberEventPayload is sent on join and leave.
type MemberEventPayload struct {
	SessionID string `json:"session_id"`
	Member    Member `json:"member"`
}
