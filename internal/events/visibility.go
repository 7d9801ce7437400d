package events

import (
	"github.com/google/uuid"

	"github.com/hockey-club/backend/internal/models"
)

// Viewer holds the access claims a feed request is evaluated against.
// Group and team memberships come from the portal's group assignments and
// the player roster respectively.
type Viewer struct {
	UserID    uuid.UUID
	Superuser bool
	GroupIDs  []uuid.UUID
	TeamIDs   []uuid.UUID
}

// CanSee reports whether the viewer may see the event at all:
//   - superusers see everything;
//   - an event with no group and no team restriction is public;
//   - otherwise membership in ANY restricted group or ANY restricted team
//     suffices. The two dimensions combine with OR, not AND: an event
//     restricted to a group and a team is visible to members of either.
func (v Viewer) CanSee(ev models.Event) bool {
	if v.Superuser {
		return true
	}
	if len(ev.VisibleToGroups) == 0 && len(ev.VisibleToTeams) == 0 {
		return true
	}
	return intersects(v.GroupIDs, ev.VisibleToGroups) || intersects(v.TeamIDs, ev.VisibleToTeams)
}

// Visible filters the event collection down to what the viewer may see.
// Lack of visibility is a filter, not an authorization failure: hidden
// events are simply absent from the result.
func Visible(events []models.Event, v Viewer) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if v.CanSee(ev) {
			out = append(out, ev)
		}
	}
	return out
}

func intersects(a, b []uuid.UUID) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
