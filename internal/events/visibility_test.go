package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hockey-club/backend/internal/models"
)

func TestCanSee(t *testing.T) {
	groupA := uuid.New()
	groupB := uuid.New()
	teamX := uuid.New()
	teamY := uuid.New()

	public := models.Event{ID: uuid.New()}
	groupOnly := models.Event{ID: uuid.New(), VisibleToGroups: []uuid.UUID{groupA}}
	teamOnly := models.Event{ID: uuid.New(), VisibleToTeams: []uuid.UUID{teamX}}
	both := models.Event{
		ID:              uuid.New(),
		VisibleToGroups: []uuid.UUID{groupA},
		VisibleToTeams:  []uuid.UUID{teamX},
	}

	t.Run("superuser sees everything", func(t *testing.T) {
		v := Viewer{UserID: uuid.New(), Superuser: true}
		for _, ev := range []models.Event{public, groupOnly, teamOnly, both} {
			assert.True(t, v.CanSee(ev))
		}
	})

	t.Run("unrestricted event is public", func(t *testing.T) {
		v := Viewer{UserID: uuid.New()}
		assert.True(t, v.CanSee(public))
	})

	t.Run("group member sees group-restricted event", func(t *testing.T) {
		v := Viewer{UserID: uuid.New(), GroupIDs: []uuid.UUID{groupA}}
		assert.True(t, v.CanSee(groupOnly))
	})

	t.Run("non-member does not", func(t *testing.T) {
		v := Viewer{UserID: uuid.New(), GroupIDs: []uuid.UUID{groupB}, TeamIDs: []uuid.UUID{teamY}}
		assert.False(t, v.CanSee(groupOnly))
		assert.False(t, v.CanSee(teamOnly))
		assert.False(t, v.CanSee(both))
	})

	t.Run("dimensions combine with OR", func(t *testing.T) {
		// Restricted to groupA AND teamX: membership in either side grants
		// access.
		groupSide := Viewer{UserID: uuid.New(), GroupIDs: []uuid.UUID{groupA}}
		teamSide := Viewer{UserID: uuid.New(), TeamIDs: []uuid.UUID{teamX}}
		assert.True(t, groupSide.CanSee(both))
		assert.True(t, teamSide.CanSee(both))
	})

	t.Run("group membership does not unlock team-restricted events", func(t *testing.T) {
		v := Viewer{UserID: uuid.New(), GroupIDs: []uuid.UUID{groupA}}
		assert.False(t, v.CanSee(teamOnly))
	})
}

func TestVisible(t *testing.T) {
	groupA := uuid.New()
	public := models.Event{ID: uuid.New()}
	restricted := models.Event{ID: uuid.New(), VisibleToGroups: []uuid.UUID{groupA}}

	v := Viewer{UserID: uuid.New()}
	got := Visible([]models.Event{public, restricted}, v)
	assert.Len(t, got, 1)
	assert.Equal(t, public.ID, got[0].ID)

	member := Viewer{UserID: uuid.New(), GroupIDs: []uuid.UUID{groupA}}
	assert.Len(t, Visible([]models.Event{public, restricted}, member), 2)
}
