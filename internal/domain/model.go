package domain

import (
	"time"

	"gorm.io/gorm"
)

// SessionModel is the GORM model for the sessions table.
type SessionModel struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	Slug           string    `gorm:"type:varchar(16);uniqueIndex;not null"`
	Title          string    `gorm:"type:varchar(200);not null"`
	ScheduledStart time.Time `gorm:"index;not null"`
	VideoID        string    `gorm:"type:varchar(36);index;not null"`
	Status         string    `gorm:"type:varchar(20);index;not null;default:'scheduled'"`
	EndedAt        *time.Time
	CreatorID      string         `gorm:"type:varchar(36);index;not null"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`

	Video *VideoModel `gorm:"foreignKey:VideoID"`
}

// TableName specifies the table name for SessionModel.
func (SessionModel) TableName() string {
	return "sessions"
}

// VideoModel is the GORM model for the videos table.
type VideoModel struct {
	ID              string    `gorm:"type:varchar(36);primaryKey"`
	Title           string    `gorm:"type:varchar(200);not null"`
	DurationSeconds int       `gorm:"not null;default:0"`
	URL             string    `gorm:"type:varchar(500);not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for VideoModel.
func (VideoModel) TableName() string {
	return "videos"
}

// ScheduledMessageModel is the GORM model for the scheduled_messages table.
type ScheduledMessageModel struct {
	ID            string `gorm:"type:varchar(36);primaryKey"`
	SessionID     string `gorm:"type:varchar(36);index;not null"`
	OffsetSeconds int    `gorm:"not null"`
	Text          string `gorm:"type:varchar(500);not null"`
	SenderName    string `gorm:"type:varchar(50);not null"`
	SenderAvatar  string `gorm:"type:varchar(500)"`
	Sent          bool   `gorm:"not null;default:false"`
}

// TableName specifies the table name for ScheduledMessageModel.
func (ScheduledMessageModel) TableName() string {
	return "scheduled_messages"
}

// ChatMessageModel is the GORM model for the chat_messages table.
type ChatMessageModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	SessionID  string    `gorm:"type:varchar(36);index;not null"`
	SenderID   string    `gorm:"type:varchar(36);not null"`
	SenderName string    `gorm:"type:varchar(50);not null"`
	Body       string    `gorm:"type:varchar(500);not null"`
	Type       string    `gorm:"type:varchar(10);not null;default:'user'"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for ChatMessageModel.
func (ChatMessageModel) TableName() string {
	return "chat_messages"
}

// GuestModel is the GORM model for the guests table.
type GuestModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	SessionID   string    `gorm:"type:varchar(36);index;not null"`
	DisplayName string    `gorm:"type:varchar(50);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GuestModel.
func (GuestModel) TableName() string {
	return "guests"
}

// ToDomain converts SessionModel to domain Session.
func (m *SessionModel) ToDomain() *Session {
	s := &Session{
		ID:             m.ID,
		Slug:           m.Slug,
		Title:          m.Title,
		ScheduledStart: m.ScheduledStart,
		VideoID:        m.VideoID,
		Status:         Status(m.Status),
		EndedAt:        m.EndedAt,
		CreatorID:      m.CreatorID,
		CreatedAt:      m.CreatedAt,
	}
	if m.Video != nil {
		s.Video = m.Video.ToDomain()
	}
	return s
}

// SessionToModel converts domain Session to SessionModel.
func SessionToModel(s *Session) *SessionModel {
	return &SessionModel{
		ID:             s.ID,
		Slug:           s.Slug,
		Title:          s.Title,
		ScheduledStart: s.ScheduledStart,
		VideoID:        s.VideoID,
		Status:         string(s.Status),
		EndedAt:        s.EndedAt,
		CreatorID:      s.CreatorID,
		CreatedAt:      s.CreatedAt,
	}
}

// ToDomain converts VideoModel to domain Video.
func (m *VideoModel) ToDomain() *Video {
	return &Video{
		ID:              m.ID,
		Title:           m.Title,
		DurationSeconds: m.DurationSeconds,
		URL:             m.URL,
		CreatedAt:       m.CreatedAt,
	}
}

// VideoToModel converts domain Video to VideoModel.
func VideoToModel(v *Video) *VideoModel {
	return &VideoModel{
		ID:              v.ID,
		Title:           v.Title,
		DurationSeconds: v.DurationSeconds,
		URL:             v.URL,
	}
}

// ToDomain converts ScheduledMessageModel to domain ScheduledMessage.
func (m *ScheduledMessageModel) ToDomain() *ScheduledMessage {
	return &ScheduledMessage{
		ID:            m.ID,
		SessionID:     m.SessionID,
		OffsetSeconds: m.OffsetSeconds,
		Text:          m.Text,
		SenderName:    m.SenderName,
		SenderAvatar:  m.SenderAvatar,
		Sent:          m.Sent,
	}
}

// ScheduledMessageToModel converts domain ScheduledMessage to its model.
func ScheduledMessageToModel(s *ScheduledMessage) *ScheduledMessageModel {
	return &ScheduledMessageModel{
		ID:            s.ID,
		SessionID:     s.SessionID,
		OffsetSeconds: s.OffsetSeconds,
		Text:          s.Text,
		SenderName:    s.SenderName,
		SenderAvatar:  s.SenderAvatar,
		Sent:          s.Sent,
	}
}

// ToDomain converts ChatMessageModel to domain ChatMessage.
func (m *ChatMessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:         m.ID,
		SessionID:  m.SessionID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Body,
		Type:       ChatMessageType(m.Type),
		CreatedAt:  m.CreatedAt,
	}
}

// ChatMessageToModel converts domain ChatMessage to its model.
func ChatMessageToModel(c *ChatMessage) *ChatMessageModel {
	return &ChatMessageModel{
		ID:         c.ID,
		SessionID:  c.SessionID,
		SenderID:   c.SenderID,
		SenderName: c.SenderName,
		Body:       c.Body,
		Type:       string(c.Type),
		CreatedAt:  c.CreatedAt,
	}
}

// ToDomain converts GuestModel to domain Guest.
func (m *GuestModel) ToDomain() *Guest {
	return &Guest{
		ID:          m.ID,
		SessionID:   m.SessionID,
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt,
	}
}
