package service

import (
	"context"
	"errors"
	"sync"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/internal/repository"
	"github.com/classcast/classcast/pkg/pubsub"
)

// fakeSessionRepo is an in-memory SessionRepository.
type fakeSessionRepo struct {
	mu          sync.Mutex
	sessions    map[string]*domain.Session
	videos      map[string]*domain.Video
	updateCalls []map[string]interface{}
	failUpdate  bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]*domain.Session),
		videos:   make(map[string]*domain.Video),
	}
}

func (r *fakeSessionRepo) add(s *domain.Session) {
	r.sessions[s.ID] = s
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = "session-" + s.Title
	}
	if s.Slug == "" {
		s.Slug = "slug-" + s.ID
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (r *fakeSessionRepo) GetBySlug(ctx context.Context, slug string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Slug == slug {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r *fakeSessionRepo) Resolve(ctx context.Context, idOrSlug string) (*domain.Session, error) {
	if s, err := r.GetBySlug(ctx, idOrSlug); err == nil {
		return s, nil
	}
	return r.GetByID(ctx, idOrSlug)
}

func (r *fakeSessionRepo) List(ctx context.Context, page, pageSize int, status string) ([]domain.Session, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if status != "" && string(s.Status) != status {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *fakeSessionRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls = append(r.updateCalls, fields)
	if r.failUpdate {
		return errors.New("update failed")
	}
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if v, ok := fields["status"]; ok {
		s.Status = domain.Status(v.(string))
	}
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) GetVideo(ctx context.Context, id string) (*domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.videos[id]; ok {
		return v, nil
	}
	return nil, repository.ErrVideoNotFound
}

func (r *fakeSessionRepo) CreateVideo(ctx context.Context, v *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == "" {
		v.ID = "video-" + v.Title
	}
	r.videos[v.ID] = v
	return nil
}

func (r *fakeSessionRepo) ListVideos(ctx context.Context) ([]domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Video
	for _, v := range r.videos {
		out = append(out, *v)
	}
	return out, nil
}

// fakeLedgerRepo is an in-memory LedgerRepository that counts MarkSent
// calls per entry.
type fakeLedgerRepo struct {
	mu        sync.Mutex
	entries   map[string][]domain.ScheduledMessage // sessionID -> entries
	markCalls map[string]int                       // messageID -> MarkSent count
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		entries:   make(map[string][]domain.ScheduledMessage),
		markCalls: make(map[string]int),
	}
}

func (r *fakeLedgerRepo) ReplaceAll(ctx context.Context, sessionID string, messages []*domain.ScheduledMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]domain.ScheduledMessage, 0, len(messages))
	for i, m := range messages {
		entry := *m
		if entry.ID == "" {
			entry.ID = sessionID + "-msg-" + string(rune('a'+i))
		}
		entry.SessionID = sessionID
		entry.Sent = false
		entries = append(entries, entry)
	}
	r.entries[sessionID] = entries
	return nil
}

func (r *fakeLedgerRepo) FindDue(ctx context.Context, sessionID string, currentOffset int) ([]domain.ScheduledMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []domain.ScheduledMessage
	for _, e := range r.entries[sessionID] {
		if e.OffsetSeconds <= currentOffset && !e.Sent {
			due = append(due, e)
		}
	}
	return due, nil
}

func (r *fakeLedgerRepo) MarkSent(ctx context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCalls[messageID]++
	for sessionID, entries := range r.entries {
		for i := range entries {
			if entries[i].ID == messageID {
				entries[i].Sent = true
				r.entries[sessionID] = entries
				return nil
			}
		}
	}
	return nil
}

func (r *fakeLedgerRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.ScheduledMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ScheduledMessage, len(r.entries[sessionID]))
	copy(out, r.entries[sessionID])
	return out, nil
}

// fakeChatRepo is an in-memory ChatRepository.
type fakeChatRepo struct {
	mu         sync.Mutex
	messages   []domain.ChatMessage
	failCreate bool
}

func (r *fakeChatRepo) Create(ctx context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("create failed")
	}
	if msg.ID == "" {
		msg.ID = "chat-" + msg.Body
	}
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeChatRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// fakeGuestRepo is an in-memory GuestRepository.
type fakeGuestRepo struct {
	mu     sync.Mutex
	guests map[string]*domain.Guest
}

func newFakeGuestRepo() *fakeGuestRepo {
	return &fakeGuestRepo{guests: make(map[string]*domain.Guest)}
}

func (r *fakeGuestRepo) Create(ctx context.Context, g *domain.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = "guest-" + g.DisplayName
	}
	r.guests[g.ID] = g
	return nil
}

func (r *fakeGuestRepo) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guests[id]; ok {
		return g, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (r *fakeGuestRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, g := range r.guests {
		if g.SessionID == sessionID {
			delete(r.guests, id)
		}
	}
	return nil
}

// published records one Publish call.
type published struct {
	channel string
	event   *pubsub.Event
}

// fakePublisher records every published event.
type fakePublisher struct {
	mu     sync.Mutex
	events []published
	fail   bool
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("publish failed")
	}
	p.events = append(p.events, published{channel: channel, event: event})
	return nil
}

func (p *fakePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.event.Type == eventType {
			n++
		}
	}
	return n
}

// allowAll is a Limiter that never rejects.
type allowAll struct{}

func (allowAll) Allow(string) bool { return true }
