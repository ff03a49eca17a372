package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/database"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db,
		&domain.SessionModel{},
		&domain.VideoModel{},
		&domain.ScheduledMessageModel{},
		&domain.ChatMessageModel{},
		&domain.GuestModel{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB) *domain.Session {
	t.Helper()

	sessions := NewGormSessionRepository(db)
	video := &domain.Video{Title: "lecture", DurationSeconds: 600, URL: "http://example.com/v.mp4"}
	if err := sessions.CreateVideo(context.Background(), video); err != nil {
		t.Fatalf("create video: %v", err)
	}

	session := &domain.Session{
		Title:          "algebra",
		ScheduledStart: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		VideoID:        video.ID,
		Status:         domain.StatusScheduled,
		CreatorID:      "admin-1",
	}
	if err := sessions.Create(context.Background(), session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestResolveBySlugAndID(t *testing.T) {
	db := testDB(t)
	session := seedSession(t, db)
	sessions := NewGormSessionRepository(db)
	ctx := context.Background()

	bySlug, err := sessions.Resolve(ctx, session.Slug)
	if err != nil {
		t.Fatalf("Resolve(slug): %v", err)
	}
	if bySlug.ID != session.ID {
		t.Fatalf("Resolve(slug) = %s, want %s", bySlug.ID, session.ID)
	}
	if bySlug.Video == nil || bySlug.Video.DurationSeconds != 600 {
		t.Fatalf("video not preloaded: %+v", bySlug.Video)
	}

	byID, err := sessions.Resolve(ctx, session.ID)
	if err != nil {
		t.Fatalf("Resolve(id): %v", err)
	}
	if byID.Slug != session.Slug {
		t.Fatalf("Resolve(id) slug = %s, want %s", byID.Slug, session.Slug)
	}

	if _, err := sessions.Resolve(ctx, "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Resolve(unknown) err = %v, want ErrSessionNotFound", err)
	}
}

func TestLedgerReplaceFindMark(t *testing.T) {
	db := testDB(t)
	session := seedSession(t, db)
	ledger := NewGormLedgerRepository(db)
	ctx := context.Background()

	first := []*domain.ScheduledMessage{
		{OffsetSeconds: 10, Text: "welcome", SenderName: "Kay"},
		{OffsetSeconds: 120, Text: "quiz time", SenderName: "Kay"},
	}
	if err := ledger.ReplaceAll(ctx, session.ID, first); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	due, err := ledger.FindDue(ctx, session.ID, 60)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(due) != 1 || due[0].OffsetSeconds != 10 {
		t.Fatalf("due at 60 = %+v, want the offset-10 entry", due)
	}

	// MarkSent is one-way and idempotent.
	for i := 0; i < 3; i++ {
		if err := ledger.MarkSent(ctx, due[0].ID); err != nil {
			t.Fatalf("MarkSent: %v", err)
		}
	}
	due, err = ledger.FindDue(ctx, session.ID, 60)
	if err != nil {
		t.Fatalf("FindDue after mark: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due after mark = %+v, want none", due)
	}

	// Replacement wipes sent state along with the entries.
	second := []*domain.ScheduledMessage{{OffsetSeconds: 10, Text: "welcome v2", SenderName: "Kay"}}
	if err := ledger.ReplaceAll(ctx, session.ID, second); err != nil {
		t.Fatalf("second ReplaceAll: %v", err)
	}
	all, err := ledger.ListBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(all) != 1 || all[0].Text != "welcome v2" || all[0].Sent {
		t.Fatalf("ledger after replace = %+v", all)
	}
}

func TestDeleteCascades(t *testing.T) {
	db := testDB(t)
	session := seedSession(t, db)
	ctx := context.Background()

	sessions := NewGormSessionRepository(db)
	ledger := NewGormLedgerRepository(db)
	chat := NewGormChatRepository(db)
	guests := NewGormGuestRepository(db)

	if err := ledger.ReplaceAll(ctx, session.ID, []*domain.ScheduledMessage{{OffsetSeconds: 5, Text: "hi", SenderName: "Kay"}}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	if err := chat.Create(ctx, &domain.ChatMessage{SessionID: session.ID, SenderID: "u1", SenderName: "sam", Body: "hello", Type: domain.ChatTypeUser}); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	if err := guests.Create(ctx, &domain.Guest{SessionID: session.ID, DisplayName: "pat"}); err != nil {
		t.Fatalf("seed guest: %v", err)
	}

	if err := sessions.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := sessions.Resolve(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("session survived delete: %v", err)
	}
	entries, err := ledger.ListBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("ledger survived delete: %+v", entries)
	}
	history, err := chat.ListBySession(ctx, session.ID, 10)
	if err != nil {
		t.Fatalf("chat ListBySession: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("chat survived delete: %+v", history)
	}
}

func TestChatHistoryComesBackAscending(t *testing.T) {
	db := testDB(t)
	session := seedSession(t, db)
	chat := NewGormChatRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	for i, body := range []string{"one", "two", "three"} {
		if err := chat.Create(ctx, &domain.ChatMessage{
			SessionID:  session.ID,
			SenderID:   "u1",
			SenderName: "sam",
			Body:       body,
			Type:       domain.ChatTypeUser,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("Create(%s): %v", body, err)
		}
	}

	history, err := chat.ListBySession(ctx, session.ID, 2)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want limit 2", len(history))
	}
	if history[0].Body != "two" || history[1].Body != "three" {
		t.Fatalf("history = [%s %s], want the two most recent ascending", history[0].Body, history[1].Body)
	}
}
