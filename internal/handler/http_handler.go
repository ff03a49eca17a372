package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/classcast/classcast/internal/audit"
	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/service"
	"github.com/classcast/classcast/pkg/log"
	"github.com/classcast/classcast/pkg/middleware"
	"github.com/classcast/classcast/pkg/response"
)

// Handler handles HTTP requests.
type Handler struct {
	sessionService  service.SessionService
	triggerService  service.TriggerService
	chatService     service.ChatService
	presenceService service.PresenceService
	authMiddleware  *middleware.AuthMiddleware
	historyLimit    int
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	sessionService service.SessionService,
	triggerService service.TriggerService,
	chatService service.ChatService,
	presenceService service.PresenceService,
	authMiddleware *middleware.AuthMiddleware,
	historyLimit int,
) *Handler {
	return &Handler{
		sessionService:  sessionService,
		triggerService:  triggerService,
		chatService:     chatService,
		presenceService: presenceService,
		authMiddleware:  authMiddleware,
		historyLimit:    historyLimit,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		{
			// Public routes
			sessions.GET("", h.ListSessions)
			sessions.GET("/:id", h.GetSession)
			sessions.GET("/:id/chat", h.ChatHistory)
			sessions.POST("/:id/join", h.JoinSession)

			// Operator routes
			admin := sessions.Group("", h.authMiddleware.RequireAuth(), h.authMiddleware.RequireRole(string(domain.RoleAdmin)))
			{
				admin.POST("", h.CreateSession)
				admin.PUT("/:id", h.UpdateSession)
				admin.PUT("/:id/messages", h.ReplaceMessages)
				admin.GET("/:id/messages", h.ListMessages)
				admin.POST("/:id/end", h.EndSession)
				admin.DELETE("/:id", h.DeleteSession)
			}
		}

		videos := api.Group("/videos", h.authMiddleware.RequireAuth(), h.authMiddleware.RequireRole(string(domain.RoleAdmin)))
		{
			videos.POST("", h.RegisterVideo)
			videos.GET("", h.ListVideos)
		}

		// Viewer routes (any authenticated identity, guests included)
		viewer := api.Group("", h.authMiddleware.RequireAuth())
		{
			viewer.POST("/trigger", h.Trigger)
			viewer.POST("/chat/send", h.SendChat)
			viewer.POST("/hand-raise", h.HandRaise)
		}
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	return domain.Identity{
		ID:          middleware.GetUserID(c),
		DisplayName: middleware.GetDisplayName(c),
		Role:        domain.Role(middleware.GetRole(c)),
		SessionID:   middleware.GetGuestSessionID(c),
	}
}

// CreateSession creates a new session.
func (h *Handler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create session request")
		response.BadRequest(c, err.Error())
		return
	}

	creator := identityFrom(c)
	session, err := h.sessionService.CreateSession(ctx, creator.ID, &req)
	if err != nil {
		h.writeError(c, err, "failed to create session")
		return
	}

	audit.Log(ctx, audit.ActionCreateSession, creator.ID, session.ID, "session created")
	response.Created(c, session)
}

// GetSession retrieves a session by slug or id, reconciled.
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessionService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to get session")
		return
	}
	response.Success(c, session)
}

// ListSessions lists sessions with pagination, reconciled.
func (h *Handler) ListSessions(c *gin.Context) {
	var req domain.ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.sessionService.ListSessions(c.Request.Context(), req.Page, req.PageSize, req.Status)
	if err != nil {
		h.writeError(c, err, "failed to list sessions")
		return
	}
	response.Success(c, result)
}

// UpdateSession edits a session's title or scheduled start.
func (h *Handler) UpdateSession(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.sessionService.UpdateSession(ctx, c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err, "failed to update session")
		return
	}

	audit.Log(ctx, audit.ActionUpdateSession, middleware.GetUserID(c), session.ID, "session updated")
	response.Success(c, session)
}

// ReplaceMessages swaps the session's scheduled message list.
func (h *Handler) ReplaceMessages(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.ReplaceMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	messages, err := h.sessionService.ReplaceMessages(ctx, c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err, "failed to replace scheduled messages")
		return
	}

	audit.Log(ctx, audit.ActionReplaceMessages, middleware.GetUserID(c), c.Param("id"), "scheduled messages replaced")
	response.Success(c, messages)
}

// ListMessages returns the session's scheduled message ledger.
func (h *Handler) ListMessages(c *gin.Context) {
	messages, err := h.sessionService.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to list scheduled messages")
		return
	}
	response.Success(c, messages)
}

// EndSession closes a session explicitly.
func (h *Handler) EndSession(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := h.sessionService.EndSession(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to end session")
		return
	}

	audit.Log(ctx, audit.ActionEndSession, middleware.GetUserID(c), session.ID, "session ended manually")
	response.Success(c, session)
}

// DeleteSession removes a session and everything minted for it.
func (h *Handler) DeleteSession(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.sessionService.DeleteSession(ctx, c.Param("id")); err != nil {
		h.writeError(c, err, "failed to delete session")
		return
	}

	audit.Log(ctx, audit.ActionDeleteSession, middleware.GetUserID(c), c.Param("id"), "session deleted")
	response.Success(c, gin.H{"deleted": true})
}

// JoinSession mints a guest identity for a session.
func (h *Handler) JoinSession(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	join, err := h.sessionService.JoinSession(ctx, c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err, "failed to join session")
		return
	}

	audit.Log(ctx, audit.ActionGuestJoin, join.GuestID, c.Param("id"), "guest joined session")
	response.Created(c, join)
}

// RegisterVideo adds a video to the catalog.
func (h *Handler) RegisterVideo(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	video, err := h.sessionService.RegisterVideo(ctx, &req)
	if err != nil {
		h.writeError(c, err, "failed to register video")
		return
	}

	audit.Log(ctx, audit.ActionRegisterVideo, middleware.GetUserID(c), "", "video registered")
	response.Created(c, video)
}

// ListVideos returns the video catalog.
func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.sessionService.ListVideos(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "failed to list videos")
		return
	}
	response.Success(c, videos)
}

// Trigger reports a viewer's playback position and fires due scheduled
// messages. A no-op is success, not a failure.
func (h *Handler) Trigger(c *gin.Context) {
	var req domain.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.triggerService.Trigger(c.Request.Context(), req.SessionID, req.OffsetSeconds); err != nil {
		h.writeError(c, err, "failed to trigger scheduled messages")
		return
	}

	response.Success(c, gin.H{"ok": true})
}

// SendChat persists and broadcasts one chat message.
func (h *Handler) SendChat(c *gin.Context) {
	var req domain.SendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.writeError(c, err, "failed to send chat message")
		return
	}

	response.Created(c, msg)
}

// HandRaise toggles the caller's hand. Fire-and-forget.
func (h *Handler) HandRaise(c *gin.Context) {
	var req domain.HandRaiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	caller := identityFrom(c)
	if err := h.presenceService.HandRaise(c.Request.Context(), req.SessionID, caller.ID, req.IsRaised); err != nil {
		h.writeError(c, err, "failed to broadcast hand raise")
		return
	}

	response.Success(c, gin.H{"ok": true})
}

// ChatHistory returns persisted chat for replay.
func (h *Handler) ChatHistory(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context(), c.Param("id"), h.historyLimit)
	if err != nil {
		h.writeError(c, err, "failed to load chat history")
		return
	}
	response.Success(c, messages)
}

// writeError maps service errors onto the response envelope.
func (h *Handler) writeError(c *gin.Context, err error, internalMsg string) {
	if ve, ok := service.AsValidation(err); ok {
		response.ValidationFailed(c, ve.Kind, ve.Message)
		return
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, "session not found")
	case errors.Is(err, service.ErrVideoNotFound):
		response.NotFound(c, "video not found")
	case errors.Is(err, service.ErrStartNotFuture):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrMessageTooLong):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotOperator), errors.Is(err, service.ErrGuestWrongScope):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		response.RateLimited(c, err.Error())
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Msg(internalMsg)
		response.InternalError(c, internalMsg)
	}
}
