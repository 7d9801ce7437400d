package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hockey-club/backend/internal/models"
)

// Repository handles event, cancellation and override persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `e.id, e.title, e.description, e.location, e.start_at, e.end_at, e.all_day,
	e.topic_id, e.is_recurring, e.rrule, e.recurrence_end, e.created_by, e.created_at, e.updated_at,
	t.id, t.name, t.color, t.description, t.active`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var ev models.Event
	var topicID, tID *uuid.UUID
	var tName, tColor, tDescription *string
	var tActive *bool
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Location, &ev.Start, &ev.End, &ev.AllDay,
		&topicID, &ev.IsRecurring, &ev.RRule, &ev.RecurrenceEnd, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
		&tID, &tName, &tColor, &tDescription, &tActive)
	if err != nil {
		return nil, err
	}
	ev.TopicID = topicID
	if tID != nil {
		ev.Topic = &models.Topic{ID: *tID, Name: *tName, Color: *tColor, Description: *tDescription, Active: *tActive}
	}
	return &ev, nil
}

// List returns all events with their topics and visibility sets.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events e
		LEFT JOIN topics t ON t.id = e.topic_id
		ORDER BY e.start_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachVisibility(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetByID returns one event with its topic and visibility sets.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events e
		LEFT JOIN topics t ON t.id = e.topic_id
		WHERE e.id = $1`
	ev, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	one := []models.Event{*ev}
	if err := r.attachVisibility(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachVisibility loads the group/team restriction sets for the given
// events in two queries.
func (r *Repository) attachVisibility(ctx context.Context, list []models.Event) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]*models.Event, len(list))
	ids := make([]uuid.UUID, 0, len(list))
	for i := range list {
		index[list[i].ID] = &list[i]
		ids = append(ids, list[i].ID)
	}

	rows, err := r.pool.Query(ctx, `SELECT event_id, group_id FROM event_visible_groups WHERE event_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, groupID uuid.UUID
		if err := rows.Scan(&eventID, &groupID); err != nil {
			return err
		}
		if ev := index[eventID]; ev != nil {
			ev.VisibleToGroups = append(ev.VisibleToGroups, groupID)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT event_id, team_id FROM event_visible_teams WHERE event_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, teamID uuid.UUID
		if err := rows.Scan(&eventID, &teamID); err != nil {
			return err
		}
		if ev := index[eventID]; ev != nil {
			ev.VisibleToTeams = append(ev.VisibleToTeams, teamID)
		}
	}
	return rows.Err()
}

// Create inserts a new event and its visibility sets in one transaction.
func (r *Repository) Create(ctx context.Context, ev *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO events (id, title, description, location, start_at, end_at, all_day, topic_id, is_recurring, rrule, recurrence_end, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q, ev.Title, ev.Description, ev.Location, ev.Start, ev.End, ev.AllDay,
		ev.TopicID, ev.IsRecurring, ev.RRule, ev.RecurrenceEnd, ev.CreatedBy).
		Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return err
	}
	if err := insertVisibility(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update rewrites an event's fields and visibility sets.
func (r *Repository) Update(ctx context.Context, ev *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE events SET title = $1, description = $2, location = $3, start_at = $4, end_at = $5,
		all_day = $6, topic_id = $7, is_recurring = $8, rrule = $9, recurrence_end = $10, updated_at = NOW()
		WHERE id = $11`
	if _, err := tx.Exec(ctx, q, ev.Title, ev.Description, ev.Location, ev.Start, ev.End,
		ev.AllDay, ev.TopicID, ev.IsRecurring, ev.RRule, ev.RecurrenceEnd, ev.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM event_visible_groups WHERE event_id = $1`, ev.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM event_visible_teams WHERE event_id = $1`, ev.ID); err != nil {
		return err
	}
	if err := insertVisibility(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertVisibility(ctx context.Context, tx pgx.Tx, ev *models.Event) error {
	for _, groupID := range ev.VisibleToGroups {
		if _, err := tx.Exec(ctx,
			`INSERT INTO event_visible_groups (event_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			ev.ID, groupID); err != nil {
			return err
		}
	}
	for _, teamID := range ev.VisibleToTeams {
		if _, err := tx.Exec(ctx,
			`INSERT INTO event_visible_teams (event_id, team_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			ev.ID, teamID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an event; cancellations, overrides and visibility rows
// cascade in the schema.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}

// AddCancellation records a cancelled occurrence. Duplicate cancels of the
// same (event, occurrence_start) are a no-op, which is what makes the
// cancel endpoint idempotent under concurrent requests.
func (r *Repository) AddCancellation(ctx context.Context, eventID uuid.UUID, occurrenceStart time.Time) error {
	const q = `INSERT INTO event_cancellations (id, event_id, occurrence_start)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (event_id, occurrence_start) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, eventID, occurrenceStart)
	return err
}

// ListCancellations returns the cancelled occurrence starts for the given
// events, grouped by event id.
func (r *Repository) ListCancellations(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]time.Time, error) {
	out := make(map[uuid.UUID][]time.Time)
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT event_id, occurrence_start FROM event_cancellations WHERE event_id = ANY($1)`, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID uuid.UUID
		var start time.Time
		if err := rows.Scan(&eventID, &start); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], start)
	}
	return out, rows.Err()
}

// UpsertOverride creates or replaces the override for one occurrence,
// keyed by (event_id, occurrence_start).
func (r *Repository) UpsertOverride(ctx context.Context, o *models.EventOverride) error {
	const q = `INSERT INTO event_overrides
		(id, event_id, occurrence_start, new_title, new_start, new_end, new_location, new_description, new_topic_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, occurrence_start) DO UPDATE SET
			new_title = EXCLUDED.new_title,
			new_start = EXCLUDED.new_start,
			new_end = EXCLUDED.new_end,
			new_location = EXCLUDED.new_location,
			new_description = EXCLUDED.new_description,
			new_topic_id = EXCLUDED.new_topic_id,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, o.EventID, o.OccurrenceStart, o.NewTitle, o.NewStart, o.NewEnd,
		o.NewLocation, o.NewDescription, o.NewTopicID).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// ListOverrides returns the per-occurrence overrides for the given events,
// grouped by event id, with replacement topics joined in.
func (r *Repository) ListOverrides(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]models.EventOverride, error) {
	out := make(map[uuid.UUID][]models.EventOverride)
	if len(eventIDs) == 0 {
		return out, nil
	}
	const q = `SELECT o.id, o.event_id, o.occurrence_start, o.new_title, o.new_start, o.new_end,
			o.new_location, o.new_description, o.new_topic_id, o.created_at, o.updated_at,
			t.id, t.name, t.color, t.description, t.active
		FROM event_overrides o
		LEFT JOIN topics t ON t.id = o.new_topic_id
		WHERE o.event_id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o models.EventOverride
		var tID *uuid.UUID
		var tName, tColor, tDescription *string
		var tActive *bool
		if err := rows.Scan(&o.ID, &o.EventID, &o.OccurrenceStart, &o.NewTitle, &o.NewStart, &o.NewEnd,
			&o.NewLocation, &o.NewDescription, &o.NewTopicID, &o.CreatedAt, &o.UpdatedAt,
			&tID, &tName, &tColor, &tDescription, &tActive); err != nil {
			return nil, err
		}
		if tID != nil {
			o.NewTopic = &models.Topic{ID: *tID, Name: *tName, Color: *tColor, Description: *tDescription, Active: *tActive}
		}
		out[o.EventID] = append(out[o.EventID], o)
	}
	return out, rows.Err()
}

// PurgeOccurrenceRowsBefore deletes cancellation and override rows whose
// occurrence lies before the cutoff. Used by the retention job; the series
// definitions themselves are never touched.
func (r *Repository) PurgeOccurrenceRowsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tagC, err := r.pool.Exec(ctx, `DELETE FROM event_cancellations WHERE occurrence_start < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	tagO, err := r.pool.Exec(ctx, `DELETE FROM event_overrides WHERE occurrence_start < $1`, cutoff)
	if err != nil {
		return tagC.RowsAffected(), err
	}
	return tagC.RowsAffected() + tagO.RowsAffected(), nil
}
