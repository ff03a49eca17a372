package domain

import "time"

// Role is the viewer role sum type. Guests are a first-class role scoped to
// the session they were minted for, not a marker squeezed into a profile
// field.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleGuest   Role = "guest"
)

// Identity is the resolved caller of a request.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	// SessionID is set only for guests: the session the identity was
	// minted for and dies with.
	SessionID string `json:"session_id,omitempty"`
}

// IsOperator reports whether the identity may perform admin actions,
// including authoring admin-typed chat.
func (i Identity) IsOperator() bool {
	return i.Role == RoleAdmin
}

// Guest is an ephemeral viewer identity created at join time. Its lifetime
// is tied to its session: deleting the session deletes its guests.
type Guest struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// JoinSessionRequest mints a guest identity for a session.
type JoinSessionRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=50"`
}

// JoinSessionResponse carries the minted guest identity and its token.
type JoinSessionResponse struct {
	GuestID     string `json:"guest_id"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}
