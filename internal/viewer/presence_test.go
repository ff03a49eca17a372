package viewer

import (
	"testing"

	"github.com/classcast/classcast/pkg/pubsub"
)

func TestAggregatorFoldsEventStream(t *testing.T) {
	a := NewPresenceAggregator()

	a.ApplySnapshot(&pubsub.PresenceSnapshotPayload{
		SessionID: "s1",
		Members: []pubsub.Member{
			{ID: "u1", Name: "sam", Role: "student"},
			{ID: "u2", Name: "lee", Role: "guest"},
		},
		CountBase: 40,
	})

	if got := a.Count(); got != 42 {
		t.Fatalf("count after snapshot = %d, want 42", got)
	}

	a.ApplyJoin(pubsub.Member{ID: "u3", Name: "pat", Role: "guest"})
	a.ApplyLeave("u1")
	a.ApplyLeave("unknown") // no-op
	a.ApplyHandRaise("u2", true)
	a.ApplyHandRaise("unknown", true) // no-op

	members := a.Members()
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	// Sorted by display name: lee, pat.
	if members[0].ID != "u2" || !members[0].HandRaised {
		t.Fatalf("members[0] = %+v, want lee with hand raised", members[0])
	}
	if members[1].ID != "u3" {
		t.Fatalf("members[1] = %+v, want pat", members[1])
	}
	if got := a.Count(); got != 42 {
		t.Fatalf("count after join+leave = %d, want 42", got)
	}
}

func TestAggregatorSnapshotReplacesState(t *testing.T) {
	a := NewPresenceAggregator()
	a.ApplyJoin(pubsub.Member{ID: "stale", Name: "ghost"})

	a.ApplySnapshot(&pubsub.PresenceSnapshotPayload{
		SessionID: "s1",
		Members:   []pubsub.Member{{ID: "u1", Name: "sam"}},
	})

	members := a.Members()
	if len(members) != 1 || members[0].ID != "u1" {
		t.Fatalf("members after snapshot = %+v, want just u1", members)
	}
}

func TestAggregatorJoinIsIdempotent(t *testing.T) {
	a := NewPresenceAggregator()
	m := pubsub.Member{ID: "u1", Name: "sam"}
	a.ApplyJoin(m)
	a.ApplyJoin(m) // duplicate delivery from the bus

	if got := a.Count(); got != 1 {
		t.Fatalf("count after duplicate join = %d, want 1", got)
	}
}
