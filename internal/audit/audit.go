package audit

import (
	"context"

	"github.com/classcast/classcast/pkg/log"
)

// Audit actions.
const (
	ActionCreateSession   = "session.create"
	ActionUpdateSession   = "session.update"
	ActionEndSession      = "session.end"
	ActionDeleteSession   = "session.delete"
	ActionReplaceMessages = "session.messages.replace"
	ActionGuestJoin       = "session.guest_join"
	ActionRegisterVideo   = "video.create"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, sessionID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldSessionID, sessionID).
		Msg(msg)
}
