package viewer

import (
	"sort"
	"sync"

	"github.com/classcast/classcast/pkg/pubsub"
)

// PresenceAggregator folds the presence event stream into the current
// member list. A snapshot replaces the whole state; join/leave and
// hand-raise events patch it incrementally.
type PresenceAggregator struct {
	mu        sync.RWMutex
	members   map[string]pubsub.Member
	countBase int
}

// NewPresenceAggregator creates an empty aggregator.
func NewPresenceAggregator() *PresenceAggregator {
	return &PresenceAggregator{members: make(map[string]pubsub.Member)}
}

// ApplySnapshot replaces local state with the authoritative snapshot.
func (a *PresenceAggregator) ApplySnapshot(snapshot *pubsub.PresenceSnapshotPayload) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.members = make(map[string]pubsub.Member, len(snapshot.Members))
	for _, m := range snapshot.Members {
		a.members[m.ID] = m
	}
	a.countBase = snapshot.CountBase
}

// ApplyJoin records a member joining.
func (a *PresenceAggregator) ApplyJoin(member pubsub.Member) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.members[member.ID] = member
}

// ApplyLeave records a member leaving. Unknown members are ignored.
func (a *PresenceAggregator) ApplyLeave(memberID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.members, memberID)
}

// ApplyHandRaise patches a member's hand state. Unknown members are
// ignored; the next snapshot will reconcile.
func (a *PresenceAggregator) ApplyHandRaise(memberID string, isRaised bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if m, ok := a.members[memberID]; ok {
		m.HandRaised = isRaised
		a.members[memberID] = m
	}
}

// Members returns the current member list sorted by display name.
func (a *PresenceAggregator) Members() []pubsub.Member {
	a.mu.RLock()
	defer a.mu.RUnlock()

	members := make([]pubsub.Member, 0, len(a.members))
	for _, m := range a.members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name == members[j].Name {
			return members[i].ID < members[j].ID
		}
		return members[i].Name < members[j].Name
	})
	return members
}

// Count returns the display count: real members plus the configured
// base. Display only, never used for any decision.
func (a *PresenceAggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.members) + a.countBase
}
