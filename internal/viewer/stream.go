package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/pubsub"
)

// Stream is the viewer's live connection: it authenticates, joins one
// session and folds the event stream into the chat log and presence
// aggregator.
type Stream struct {
	wsURL     string
	token     string
	sessionID string
	chat      *ChatLog
	presence  *PresenceAggregator
	conn      *websocket.Conn
}

// NewStream creates a stream for one session. token is the join token
// minted by APIClient.Join.
func NewStream(wsURL, token, sessionID string, chat *ChatLog, presence *PresenceAggregator) *Stream {
	return &Stream{
		wsURL:     wsURL,
		token:     token,
		sessionID: sessionID,
		chat:      chat,
		presence:  presence,
	}
}

// Connect dials, authenticates and joins. Call Run afterwards.
func (s *Stream) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial websocket: %w", err)
	}
	s.conn = conn

	auth := domain.WSAuthMessage{Type: domain.WSTypeAuth, Token: s.token}
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send auth: %w", err)
	}

	join := domain.WSJoinMessage{Type: domain.WSTypeJoin, SessionID: s.sessionID}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send join: %w", err)
	}

	return nil
}

// Close shuts the connection down.
func (s *Stream) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Run reads frames until the connection drops or the context is
// cancelled.
func (s *Stream) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read failed: %w", err)
		}
		s.handleFrame(data)
	}
}

// handleFrame folds one raw frame into the chat log and presence
// aggregator.
func (s *Stream) handleFrame(data []byte) {
	var base domain.WSBaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		log.L().Warn().Err(err).Msg("unparseable frame")
		return
	}

	switch base.Type {
	case pubsub.EventChatMessage:
		var event pubsub.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		var payload pubsub.ChatMessagePayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return
		}
		s.chat.Append(domain.ChatMessage{
			ID:         payload.MessageID,
			SessionID:  event.SessionID,
			SenderID:   payload.SenderID,
			SenderName: payload.SenderName,
			Body:       payload.Body,
			Type:       domain.ChatMessageType(payload.MessageType),
			CreatedAt:  event.Timestamp,
		})

	case pubsub.EventMemberJoined:
		var event pubsub.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		var payload pubsub.MemberEventPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return
		}
		s.presence.ApplyJoin(payload.Member)

	case pubsub.EventMemberLeft:
		var event pubsub.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		var payload pubsub.MemberEventPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return
		}
		s.presence.ApplyLeave(payload.Member.ID)

	case pubsub.EventHandRaise:
		var event pubsub.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		var payload pubsub.HandRaisePayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return
		}
		s.presence.ApplyHandRaise(payload.MemberID, payload.IsRaised)

	case domain.WSTypeSnapshot:
		// The gateway's join response and the relayed bus event share
		// this discriminator, and both carry the snapshot object under
		// "payload", so one decode covers both shapes.
		var frame struct {
			Payload pubsub.PresenceSnapshotPayload `json:"payload"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return
		}
		s.presence.ApplySnapshot(&frame.Payload)

	case pubsub.EventSessionEnded:
		log.L().Info().Str(log.FieldSessionID, s.sessionID).Msg("session ended")

	case domain.WSTypeError:
		var errMsg domain.WSErrorMessage
		if err := json.Unmarshal(data, &errMsg); err == nil {
			log.L().Warn().Str("code", errMsg.Code).Str("reason", errMsg.Message).Msg("server rejected frame")
		}
	}
}
