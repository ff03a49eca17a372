package domain

// Websocket message types, client to server.
const (
	WSTypeAuth     = "auth"
	WSTypeJoin     = "join"
	WSTypeLeave    = "leave"
	WSTypeChat     = "chat"
	WSTypeRaise    = "hand_raise"
	WSTypePing     = "ping"
	WSTypePong     = "pong"
	WSTypeError    = "error"
	WSTypeAuthOK   = "auth_ok"
	WSTypeJoined   = "joined"
	WSTypeSnapshot = "presence_snapshot"
)

// Websocket error codes.
const (
	WSErrBadRequest   = "BAD_REQUEST"
	WSErrUnauthorized = "UNAUTHORIZED"
	WSErrForbidden    = "FORBIDDEN"
	WSErrNotFound     = "NOT_FOUND"
	WSErrInternal     = "INTERNAL_ERROR"
)

// WSBaseMessage is the envelope every inbound frame starts with.
type WSBaseMessage struct {
	Type string `json:"type"`
}

// WSAuthMessage authenticates the connection with a join token.
type WSAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// WSJoinMessage subscribes the connection to one session's frames.
type WSJoinMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// WSChatMessage sends a chat message over the socket.
type WSChatMessage struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	ChatType string `json:"chat_type"`
}

// WSRaiseMessage toggles the caller's hand.
type WSRaiseMessage struct {
	Type     string `json:"type"`
	IsRaised bool   `json:"is_raised"`
}

// WSErrorMessage is sent back on any rejected frame.
type WSErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewWSError builds an error frame.
func NewWSError(code, message string) WSErrorMessage {
	return WSErrorMessage{Type: WSTypeError, Code: code, Message: message}
}
