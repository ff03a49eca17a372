package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/pubsub"
)

// fakePresenceStore is an in-memory PresenceStore.
type fakePresenceStore struct {
	mu      sync.Mutex
	members map[string]map[string]pubsub.Member // sessionID -> memberID -> member
	lastTTL time.Duration
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{members: make(map[string]map[string]pubsub.Member)}
}

func (s *fakePresenceStore) AddMember(ctx context.Context, sessionID string, member pubsub.Member, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[sessionID] == nil {
		s.members[sessionID] = make(map[string]pubsub.Member)
	}
	s.members[sessionID][member.ID] = member
	s.lastTTL = ttl
	return nil
}

func (s *fakePresenceStore) RemoveMember(ctx context.Context, sessionID, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[sessionID], memberID)
	return nil
}

func (s *fakePresenceStore) SetHandRaised(ctx context.Context, sessionID, memberID string, raised bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[sessionID][memberID]; ok {
		m.HandRaised = raised
		s.members[sessionID][memberID] = m
	}
	return nil
}

func (s *fakePresenceStore) ListMembers(ctx context.Context, sessionID string) ([]pubsub.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pubsub.Member
	for _, m := range s.members[sessionID] {
		out = append(out, m)
	}
	return out, nil
}

func (s *fakePresenceStore) Count(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members[sessionID]), nil
}

func (s *fakePresenceStore) Close() error { return nil }

func newPresenceServiceForTest(store *fakePresenceStore, bus *fakePublisher, countBase int) PresenceService {
	sessions := newFakeSessionRepo()
	sessions.add(&domain.Session{ID: "s1", Slug: "abc123"})
	return NewPresenceService(sessions, store, bus, time.Minute, countBase)
}

func TestJoinAndLeaveAnnounceOnPresenceChannel(t *testing.T) {
	store := newFakePresenceStore()
	bus := &fakePublisher{}
	svc := newPresenceServiceForTest(store, bus, 0)
	ctx := context.Background()

	member := pubsub.Member{ID: "u1", Name: "sam", Role: "student"}
	if err := svc.Join(ctx, "s1", member); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if store.lastTTL != time.Minute {
		t.Fatalf("member ttl = %v, want 1m", store.lastTTL)
	}
	if err := svc.Leave(ctx, "s1", "u1"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	if bus.count(pubsub.EventMemberJoined) != 1 || bus.count(pubsub.EventMemberLeft) != 1 {
		t.Fatalf("presence events = %+v", bus.events)
	}
	wantChannel := pubsub.SessionPresenceChannel("s1")
	for _, e := range bus.events {
		if e.channel != wantChannel {
			t.Fatalf("event on channel %q, want %q", e.channel, wantChannel)
		}
	}
}

func TestHandRaiseBroadcastsOnEventChannel(t *testing.T) {
	store := newFakePresenceStore()
	bus := &fakePublisher{}
	svc := newPresenceServiceForTest(store, bus, 0)
	ctx := context.Background()

	if err := svc.Join(ctx, "s1", pubsub.Member{ID: "u1", Name: "sam"}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := svc.HandRaise(ctx, "s1", "u1", true); err != nil {
		t.Fatalf("HandRaise: %v", err)
	}

	members, err := store.ListMembers(ctx, "s1")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || !members[0].HandRaised {
		t.Fatalf("members = %+v, want hand raised", members)
	}

	var found bool
	for _, e := range bus.events {
		if e.event.Type == pubsub.EventHandRaise {
			if e.channel != pubsub.SessionEventsChannel("s1") {
				t.Fatalf("hand raise on channel %q", e.channel)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("no hand raise event broadcast")
	}
}

func TestHandRaiseResolvesSlugToPrimaryID(t *testing.T) {
	store := newFakePresenceStore()
	bus := &fakePublisher{}
	svc := newPresenceServiceForTest(store, bus, 0)
	ctx := context.Background()

	if err := svc.Join(ctx, "s1", pubsub.Member{ID: "u1", Name: "sam"}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Clients address sessions by public slug everywhere else; a
	// slug-addressed hand raise must land on the same member key and
	// event channel as the id-addressed one.
	if err := svc.HandRaise(ctx, "abc123", "u1", true); err != nil {
		t.Fatalf("HandRaise by slug: %v", err)
	}

	members, err := store.ListMembers(ctx, "s1")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || !members[0].HandRaised {
		t.Fatalf("members = %+v, want hand raised under primary id", members)
	}
	if bus.events[0].channel != pubsub.SessionEventsChannel("s1") {
		t.Fatalf("hand raise on channel %q, want %q", bus.events[0].channel, pubsub.SessionEventsChannel("s1"))
	}

	if err := svc.HandRaise(ctx, "missing", "u1", true); err != ErrSessionNotFound {
		t.Fatalf("HandRaise unknown session err = %v, want ErrSessionNotFound", err)
	}
}

func TestSnapshotFiltersOperatorsAndCarriesCountBase(t *testing.T) {
	store := newFakePresenceStore()
	svc := newPresenceServiceForTest(store, &fakePublisher{}, 40)
	ctx := context.Background()

	svc.Join(ctx, "s1", pubsub.Member{ID: "a1", Name: "Kay", Role: "admin"})
	svc.Join(ctx, "s1", pubsub.Member{ID: "u1", Name: "sam", Role: "student"})
	svc.Join(ctx, "s1", pubsub.Member{ID: "g1", Name: "pat", Role: "guest"})

	snapshot, err := svc.Snapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snapshot.Members) != 2 {
		t.Fatalf("roster = %+v, want operators filtered out", snapshot.Members)
	}
	for _, m := range snapshot.Members {
		if m.Role == "admin" {
			t.Fatalf("operator %q leaked into roster", m.ID)
		}
	}
	if snapshot.CountBase != 40 {
		t.Fatalf("count base = %d, want 40", snapshot.CountBase)
	}
}
