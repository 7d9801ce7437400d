package events

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hockey-club/backend/internal/auth"
	"github.com/hockey-club/backend/internal/middleware"
	"github.com/hockey-club/backend/internal/models"
	"github.com/hockey-club/backend/internal/recurrence"
	"github.com/hockey-club/backend/pkg/redis"
	"github.com/hockey-club/backend/pkg/response"
)

// Handler handles calendar HTTP endpoints.
type Handler struct {
	repo      *Repository
	members   *auth.Repository
	cache     *redis.Client // optional; nil disables feed caching
	assembler *Assembler
	logger    *zap.Logger
	loc       *time.Location
	cacheTTL  time.Duration
}

// NewHandler creates a calendar handler. loc is the club timezone used to
// interpret zone-less datetimes; cache may be nil.
func NewHandler(repo *Repository, members *auth.Repository, cache *redis.Client, logger *zap.Logger, loc *time.Location, cacheTTL time.Duration) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		repo:      repo,
		members:   members,
		cache:     cache,
		assembler: NewAssembler(logger),
		logger:    logger,
		loc:       loc,
		cacheTTL:  cacheTTL,
	}
}

// viewer builds the access claims for the authenticated user.
func (h *Handler) viewer(c *gin.Context) (Viewer, error) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.Get(middleware.ContextUserRole)
	v := Viewer{
		UserID:    userID,
		Superuser: role == string(models.RoleAdmin),
	}
	var err error
	if v.GroupIDs, err = h.members.GroupIDs(c.Request.Context(), userID); err != nil {
		return v, err
	}
	if v.TeamIDs, err = h.members.TeamIDs(c.Request.Context(), userID); err != nil {
		return v, err
	}
	return v, nil
}

// feedItems runs the full pipeline for a window: load, filter, expand,
// resolve. ok is false when the window is absent or unparseable, in which
// case the caller serves an empty feed — a malformed window is a client
// issue, never a server fault.
func (h *Handler) feedItems(c *gin.Context, rawStart, rawEnd string) (items []FeedItem, ok bool, err error) {
	windowStart, okStart := recurrence.ParseWindowBound(rawStart, h.loc)
	windowEnd, okEnd := recurrence.ParseWindowBound(rawEnd, h.loc)
	if !okStart || !okEnd {
		return nil, false, nil
	}

	viewer, err := h.viewer(c)
	if err != nil {
		return nil, false, err
	}

	all, err := h.repo.List(c.Request.Context())
	if err != nil {
		return nil, false, err
	}
	visible := Visible(all, viewer)

	var recurringIDs []uuid.UUID
	for _, ev := range visible {
		if ev.IsRecurring {
			recurringIDs = append(recurringIDs, ev.ID)
		}
	}
	cancellations, err := h.repo.ListCancellations(c.Request.Context(), recurringIDs)
	if err != nil {
		return nil, false, err
	}
	overrides, err := h.repo.ListOverrides(c.Request.Context(), recurringIDs)
	if err != nil {
		return nil, false, err
	}

	return h.assembler.Feed(visible, cancellations, overrides, viewer, windowStart, windowEnd), true, nil
}

// Feed handles GET /api/events. The response is a bare JSON array per the
// FullCalendar event source contract; missing or bad window bounds yield an
// empty array.
func (h *Handler) Feed(c *gin.Context) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	cacheKey := "calendar:feed:" + userID.String() + ":" + rawStart + ":" + rawEnd
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey).Result(); err == nil && cached != "" {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		}
	}

	items, ok, err := h.feedItems(c, rawStart, rawEnd)
	if err != nil {
		response.Internal(c, "failed to compute feed")
		return
	}
	if !ok {
		c.JSON(http.StatusOK, []FeedItem{})
		return
	}

	if h.cache != nil && h.cacheTTL > 0 {
		if raw, err := json.Marshal(items); err == nil {
			h.cache.Set(c.Request.Context(), cacheKey, string(raw), h.cacheTTL)
		}
	}
	c.JSON(http.StatusOK, items)
}

// ExportICS handles GET /api/events/export.ics: the same feed serialized as
// an iCalendar document for external calendar subscriptions.
func (h *Handler) ExportICS(c *gin.Context) {
	items, ok, err := h.feedItems(c, c.Query("start"), c.Query("end"))
	if err != nil {
		response.Internal(c, "failed to compute feed")
		return
	}
	if !ok {
		items = []FeedItem{}
	}
	body := ExportICS(items, "Club Calendar")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// EventRequest is the body for POST /api/events and, with pointer
// semantics, PATCH /api/events/:id. Recurrence arrives as the form-level
// pattern/days/end triple and is encoded into the canonical rule here.
type EventRequest struct {
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description"`
	Location          string   `json:"location"`
	Start             string   `json:"start" binding:"required"`
	End               *string  `json:"end"`
	AllDay            bool     `json:"all_day"`
	TopicID           *string  `json:"topic_id"`
	RecurrencePattern string   `json:"recurrence_pattern"`
	RecurrenceDays    []string `json:"recurrence_days"`
	RecurrenceEnd     *string  `json:"recurrence_end"`
	VisibleToGroups   []string `json:"visible_to_groups"`
	VisibleToTeams    []string `json:"visible_to_teams"`
}

// EventDetail is an event plus its decoded recurrence components, so an
// edit form can re-populate pattern, days and end date from whatever rule
// string was persisted.
type EventDetail struct {
	models.Event
	Recurrence recurrence.Rule `json:"recurrence"`
}

func (h *Handler) detail(ev models.Event) EventDetail {
	return EventDetail{Event: ev, Recurrence: recurrence.DecodeRule(ev.RRule, h.loc)}
}

func (h *Handler) parseEventRequest(req *EventRequest, ev *models.Event) (errMsg string) {
	start, ok := recurrence.ParseWindowBound(req.Start, h.loc)
	if !ok {
		return "invalid start"
	}
	ev.Start = start
	ev.End = nil
	if req.End != nil && *req.End != "" {
		end, ok := recurrence.ParseWindowBound(*req.End, h.loc)
		if !ok {
			return "invalid end"
		}
		ev.End = &end
	}

	ev.Title = req.Title
	ev.Description = req.Description
	ev.Location = req.Location
	ev.AllDay = req.AllDay

	ev.TopicID = nil
	if req.TopicID != nil && *req.TopicID != "" {
		topicID, err := uuid.Parse(*req.TopicID)
		if err != nil {
			return "invalid topic_id"
		}
		ev.TopicID = &topicID
	}

	ev.RecurrenceEnd = nil
	if req.RecurrenceEnd != nil && *req.RecurrenceEnd != "" {
		recEnd, ok := recurrence.ParseWindowBound(*req.RecurrenceEnd, h.loc)
		if !ok {
			return "invalid recurrence_end"
		}
		ev.RecurrenceEnd = &recEnd
	}

	pattern := recurrence.Pattern(req.RecurrencePattern)
	switch pattern {
	case recurrence.PatternNone, recurrence.PatternDaily, recurrence.PatternWeekly,
		recurrence.PatternBiweekly, recurrence.PatternMonthly:
	default:
		return "invalid recurrence_pattern"
	}
	ev.RRule = recurrence.EncodeRule(pattern, req.RecurrenceDays, ev.Start, ev.RecurrenceEnd)
	ev.IsRecurring = ev.RRule != ""

	ev.VisibleToGroups = ev.VisibleToGroups[:0]
	for _, s := range req.VisibleToGroups {
		id, err := uuid.Parse(s)
		if err != nil {
			return "invalid group id"
		}
		ev.VisibleToGroups = append(ev.VisibleToGroups, id)
	}
	ev.VisibleToTeams = ev.VisibleToTeams[:0]
	for _, s := range req.VisibleToTeams {
		id, err := uuid.Parse(s)
		if err != nil {
			return "invalid team id"
		}
		ev.VisibleToTeams = append(ev.VisibleToTeams, id)
	}
	return ""
}

// Create handles POST /api/events (staff).
func (h *Handler) Create(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var ev models.Event
	if msg := h.parseEventRequest(&req, &ev); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	ev.CreatedBy = c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.Create(c.Request.Context(), &ev); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, h.detail(ev))
}

// GetByID handles GET /api/events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	ev, ok := h.accessibleEvent(c)
	if !ok {
		return
	}
	response.OK(c, h.detail(*ev))
}

// Update handles PATCH /api/events/:id (staff with access).
func (h *Handler) Update(c *gin.Context) {
	ev, ok := h.accessibleEvent(c)
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if msg := h.parseEventRequest(&req, ev); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.repo.Update(c.Request.Context(), ev); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), ev.ID)
	if err != nil {
		response.Internal(c, "failed to reload event")
		return
	}
	response.OK(c, h.detail(*updated))
}

// Delete handles DELETE /api/events/:id (staff with access).
func (h *Handler) Delete(c *gin.Context) {
	ev, ok := h.accessibleEvent(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), ev.ID); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// CancelOccurrenceRequest is the body for POST /api/events/:id/cancel-occurrence.
type CancelOccurrenceRequest struct {
	OccurrenceStart string `json:"occurrence_start" binding:"required"`
}

// CancelOccurrence handles POST /api/events/:id/cancel-occurrence (staff
// with access): idempotently suppresses a single occurrence of a recurring
// series.
func (h *Handler) CancelOccurrence(c *gin.Context) {
	ev, ok := h.accessibleEvent(c)
	if !ok {
		return
	}
	if !ev.IsRecurring {
		response.BadRequest(c, "event is not recurring")
		return
	}
	var req CancelOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "occurrence_start required")
		return
	}
	occStart, ok := recurrence.ParseWindowBound(req.OccurrenceStart, h.loc)
	if !ok {
		response.BadRequest(c, "invalid occurrence_start")
		return
	}
	occStart = recurrence.AlignTo(ev.Start, occStart)
	if err := h.repo.AddCancellation(c.Request.Context(), ev.ID, occStart); err != nil {
		response.Internal(c, "failed to cancel occurrence")
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// OverrideRequest is the body for PUT /api/events/:id/occurrence. Absent
// fields keep the base event's values.
type OverrideRequest struct {
	OccurrenceStart string  `json:"occurrence_start" binding:"required"`
	NewTitle        *string `json:"new_title"`
	NewStart        *string `json:"new_start"`
	NewEnd          *string `json:"new_end"`
	NewLocation     *string `json:"new_location"`
	NewDescription  *string `json:"new_description"`
	NewTopicID      *string `json:"new_topic_id"`
}

// EditOccurrence handles PUT /api/events/:id/occurrence (staff with
// access): creates or updates the override for a single occurrence.
func (h *Handler) EditOccurrence(c *gin.Context) {
	ev, ok := h.accessibleEvent(c)
	if !ok {
		return
	}
	if !ev.IsRecurring {
		response.BadRequest(c, "event is not recurring")
		return
	}
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	occStart, ok := recurrence.ParseWindowBound(req.OccurrenceStart, h.loc)
	if !ok {
		response.BadRequest(c, "invalid occurrence_start")
		return
	}

	o := models.EventOverride{
		EventID:         ev.ID,
		OccurrenceStart: recurrence.AlignTo(ev.Start, occStart),
		NewTitle:        req.NewTitle,
		NewLocation:     req.NewLocation,
		NewDescription:  req.NewDescription,
	}
	if req.NewStart != nil && *req.NewStart != "" {
		t, ok := recurrence.ParseWindowBound(*req.NewStart, h.loc)
		if !ok {
			response.BadRequest(c, "invalid new_start")
			return
		}
		o.NewStart = &t
	}
	if req.NewEnd != nil && *req.NewEnd != "" {
		t, ok := recurrence.ParseWindowBound(*req.NewEnd, h.loc)
		if !ok {
			response.BadRequest(c, "invalid new_end")
			return
		}
		o.NewEnd = &t
	}
	if req.NewTopicID != nil && *req.NewTopicID != "" {
		topicID, err := uuid.Parse(*req.NewTopicID)
		if err != nil {
			response.BadRequest(c, "invalid new_topic_id")
			return
		}
		o.NewTopicID = &topicID
	}

	if err := h.repo.UpsertOverride(c.Request.Context(), &o); err != nil {
		response.Internal(c, "failed to save occurrence override")
		return
	}
	response.OK(c, o)
}

// accessibleEvent loads the :id event and enforces that the caller can see
// it. Writes a response and returns ok=false on any failure.
func (h *Handler) accessibleEvent(c *gin.Context) (*models.Event, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return nil, false
	}
	ev, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	viewer, err := h.viewer(c)
	if err != nil {
		response.Internal(c, "failed to load memberships")
		return nil, false
	}
	if !viewer.CanSee(*ev) {
		response.Forbidden(c, "no access to this event")
		return nil, false
	}
	return ev, true
}
