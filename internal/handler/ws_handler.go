package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/hub"
	"github.com/classcast/classcast/internal/service"
	"github.com/classcast/classcast/pkg/id"
	"github.com/classcast/classcast/pkg/jwt"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/pubsub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler is the websocket gateway. Clients authenticate with a join
// token, then subscribe to one session's event stream.
type WSHandler struct {
	hub             *hub.Hub
	sessionService  service.SessionService
	chatService     service.ChatService
	presenceService service.PresenceService
	tokens          *jwt.Manager
	wsCfg           hub.Config
}

// NewWSHandler creates a websocket gateway.
func NewWSHandler(
	h *hub.Hub,
	sessionService service.SessionService,
	chatService service.ChatService,
	presenceService service.PresenceService,
	tokens *jwt.Manager,
	wsCfg hub.Config,
) *WSHandler {
	return &WSHandler{
		hub:             h,
		sessionService:  sessionService,
		chatService:     chatService,
		presenceService: presenceService,
		tokens:          tokens,
		wsCfg:           wsCfg,
	}
}

// RegisterRoutes registers the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and runs its pumps.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(id.New(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleMessage)
		h.cleanup(client)
	}()
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.WSBaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewWSError(domain.WSErrBadRequest, "invalid message format"))
		return
	}

	switch base.Type {
	case domain.WSTypeAuth:
		h.handleAuth(client, message)
	case domain.WSTypeJoin:
		h.handleJoin(client, message)
	case domain.WSTypeLeave:
		h.handleLeave(client)
	case domain.WSTypeChat:
		h.handleChat(client, message)
	case domain.WSTypeRaise:
		h.handleRaise(client, message)
	case domain.WSTypePing:
		client.SendMessage(map[string]string{"type": domain.WSTypePong})
	default:
		client.SendMessage(domain.NewWSError(domain.WSErrBadRequest, "unknown message type"))
	}
}

func (h *WSHandler) handleAuth(client *hub.Client, message []byte) {
	var msg domain.WSAuthMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		client.SendMessage(domain.NewWSError(domain.WSErrBadRequest, "invalid auth message"))
		return
	}

	claims, err := h.tokens.Validate(msg.Token)
	if err != nil {
		client.SendMessage(domain.NewWSError(domain.WSErrUnauthorized, "invalid or expired token"))
		return
	}

	client.MemberID = claims.UserID
	client.DisplayName = claims.DisplayName
	client.Role = claims.Role
	client.GuestScope = claims.SessionID

	client.SendMessage(map[string]string{
		"type":      domain.WSTypeAuthOK,
		"member_id": client.MemberID,
		"role":      client.Role,
	})
}

func (h *WSHandler) handleJoin(client *hub.Client, message []byte) {
	if client.MemberID == "" {
		client.SendMessage(domain.NewWSError(domain.WSErrUnauthorized, "authenticate first"))
		return
	}

	var msg domain.WSJoinMessage
	if err := json.Unmarshal(message, &msg); err != nil || msg.SessionID == "" {
		client.SendMessage(domain.NewWSError(domain.WSErrBadRequest, "invalid join message"))
		return
	}

	ctx := context.Background()
	session, err := h.sessionService.GetSession(ctx, msg.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			client.SendMessage(domain.NewWSError(domain.WSErrNotFound, "session not found"))
		} else {
			log.L().Error().Err(err).Str("client_id", client.ID).Msg("failed to resolve session on join")
			client.SendMessage(domain.NewWSError(domain.WSErrInternal, "failed to join session"))
		}
		return
	}

	// Guest tokens are only good for the session they were minted for.
	if client.GuestScope != "" && client.GuestScope != session.ID {
		client.SendMessage(domain.NewWSError(domain.WSErrForbidden, "token not valid for this session"))
		return
	}

	if client.SessionID != "" && client.SessionID != session.ID {
		h.leaveSession(client)
	}

	client.SessionID = session.ID
	h.hub.JoinSession(client, session.ID)

	member := pubsub.Member{
		ID:   client.MemberID,
		Name: client.DisplayName,
		Role: client.Role,
	}
	if err := h.presenceService.Join(ctx, session.ID, member); err != nil {
		log.L().Warn().Err(err).Str(log.FieldSessionID, session.ID).Msg("presence join failed")
	}

	client.SendMessage(map[string]interface{}{
		"type":    domain.WSTypeJoined,
		"session": session,
	})

	snapshot, err := h.presenceService.Snapshot(ctx, session.ID)
	if err != nil {
		log.L().Warn().Err(err).Str(log.FieldSessionID, session.ID).Msg("presence snapshot failed")
		return
	}
	client.SendMessage(map[string]interface{}{
		"type":    domain.WSTypeSnapshot,
		"payload": snapshot,
	})
}

func (h *WSHandler) handleLeave(client *hub.Client) {
	if client.SessionID == "" {
		return
	}
	h.leaveSession(client)
}

func (h *WSHandler) handleChat(client *hub.Client, message []byte) {
	if client.SessionID == "" {
		client.SendMessage(domain.NewWSError(domain.WSErrForbidden, "join a session first"))
		return
	}

	var msg domain.WSChatMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		client.SendMessage(domain.NewWSError(domain.WSErrBadRequest, "invalid chat message"))
		return
	}

	sender := domain.Identity{
		ID:          client.MemberID,
		DisplayName: client.DisplayName,
		Role:        domain.Role(client.Role),
		SessionID:   client.GuestScope,
	}
	req := &domain.SendChatRequest{
		SessionID: client.SessionID,
		Message:   msg.Message,
		Type:      msg.ChatType,
	}
	if _, err := h.chatService.Send(context.Background(), sender, req); err != nil {
		client.SendMessage(domain.NewWSError(wsErrorCode(err), err.Error()))
	}
}

func (h *WSHandler) handleRaise(client *hub.Client, message []byte) {
	if client.SessionID == "" {
		client.SendMessage(domain.NewWSError(domain.WSErrForbidden, "join a session first"))
		return
	}

	var msg domain.WSRaiseMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		client.SendMessage(domain.NewWSError(domain.WSErrBadRequest, "invalid hand_raise message"))
		return
	}

	if err := h.presenceService.HandRaise(context.Background(), client.SessionID, client.MemberID, msg.IsRaised); err != nil {
		log.L().Warn().Err(err).Str(log.FieldSessionID, client.SessionID).Msg("hand raise failed")
	}
}

// cleanup runs when the read pump exits.
func (h *WSHandler) cleanup(client *hub.Client) {
	if client.SessionID != "" {
		h.leaveSession(client)
	}
}

func (h *WSHandler) leaveSession(client *hub.Client) {
	sessionID := client.SessionID
	client.SessionID = ""
	h.hub.LeaveSession(client, sessionID)
	if err := h.presenceService.Leave(context.Background(), sessionID, client.MemberID); err != nil {
		log.L().Warn().Err(err).Str(log.FieldSessionID, sessionID).Msg("presence leave failed")
	}
}

func wsErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, service.ErrNotOperator), errors.Is(err, service.ErrGuestWrongScope):
		return domain.WSErrForbidden
	case errors.Is(err, service.ErrSessionNotFound):
		return domain.WSErrNotFound
	default:
		if _, ok := service.AsValidation(err); ok {
			return domain.WSErrBadRequest
		}
		if errors.Is(err, service.ErrMessageTooLong) {
			return domain.WSErrBadRequest
		}
		return domain.WSErrInternal
	}
}
