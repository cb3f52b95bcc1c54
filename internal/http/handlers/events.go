package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joakimtj/eventdesk/internal/cache"
	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/event"
	"github.com/joakimtj/eventdesk/internal/http/middlewares"
)

type EventsStore interface {
	Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	GetBySlug(ctx context.Context, slug string) (event.Event, error)
	List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, error)
	FilterOptions(ctx context.Context, publicOnly bool) (event.FilterOptions, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
}

// EventDeleter removes an event together with its registrations and attendees.
type EventDeleter interface {
	DeleteEvent(ctx context.Context, id string) (bool, error)
}

type CapacityReader interface {
	ForEvent(ctx context.Context, e event.Event) (event.Capacity, error)
}

type EventsHandler struct {
	repo     EventsStore
	deleter  EventDeleter
	capacity CapacityReader
	cache    cache.Cache
	log      *slog.Logger
}

func NewEventsHandler(repo EventsStore, deleter EventDeleter, capacity CapacityReader, log *slog.Logger) *EventsHandler {
	return NewEventsHandlerWithCache(repo, deleter, capacity, cache.Nop{}, log)
}

func NewEventsHandlerWithCache(repo EventsStore, deleter EventDeleter, capacity CapacityReader, c cache.Cache, log *slog.Logger) *EventsHandler {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &EventsHandler{repo: repo, deleter: deleter, capacity: capacity, cache: c, log: log}
}

type eventsListResponse struct {
	Items []event.Event `json:"items"`
	Count int           `json:"count"`
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	e, err := h.repo.Create(cctx, req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not create event")
		return
	}

	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusCreated, e)
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	filter, ok := parseListEventsFilter(ctx)
	if !ok {
		return
	}

	// private events are only listed for admins
	if !middlewares.IsAdmin(ctx) {
		public := true
		filter.IsPublic = &public
	}

	key := cache.EventsListKey(filter)

	var cached eventsListResponse
	if hit, err := h.cache.Get(cctx, key, &cached); err != nil {
		h.log.WarnContext(cctx, "events cache read failed", "key", key, "err", err)
	} else if hit {
		RespondDataWithETag(ctx, http.StatusOK, cached)
		return
	}

	items, err := h.repo.List(cctx, filter)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not list events")
		return
	}

	resp := eventsListResponse{Items: items, Count: len(items)}
	if err := h.cache.Set(cctx, key, resp); err != nil {
		h.log.WarnContext(cctx, "events cache write failed", "key", key, "err", err)
	}

	RespondDataWithETag(ctx, http.StatusOK, resp)
}

func (h *EventsHandler) FilterOptions(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	// same visibility as ListEvents
	publicOnly := !middlewares.IsAdmin(ctx)
	key := cache.EventFilterOptionsKey(publicOnly)

	var cached event.FilterOptions
	if hit, err := h.cache.Get(cctx, key, &cached); err != nil {
		h.log.WarnContext(cctx, "events cache read failed", "key", key, "err", err)
	} else if hit {
		RespondDataWithETag(ctx, http.StatusOK, cached)
		return
	}

	opts, err := h.repo.FilterOptions(cctx, publicOnly)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not load filter options")
		return
	}

	if err := h.cache.Set(cctx, key, opts); err != nil {
		h.log.WarnContext(cctx, "events cache write failed", "key", key, "err", err)
	}

	RespondDataWithETag(ctx, http.StatusOK, opts)
}

func (h *EventsHandler) GetEventById(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	e, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not fetch event")
		return
	}

	RespondDataWithETag(ctx, http.StatusOK, e)
}

func (h *EventsHandler) GetEventBySlug(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	e, err := h.repo.GetBySlug(cctx, ctx.Param("slug"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not fetch event")
		return
	}

	RespondDataWithETag(ctx, http.StatusOK, e)
}

// GetEventCapacity is computed on every call and never cached.
func (h *EventsHandler) GetEventCapacity(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	e, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not fetch event")
		return
	}

	c, err := h.capacity.ForEvent(cctx, e)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not compute capacity")
		return
	}

	RespondData(ctx, http.StatusOK, c)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	var req event.UpdateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	e, err := h.repo.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not update event")
		return
	}

	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusOK, e)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	found, err := h.deleter.DeleteEvent(cctx, id)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not delete event")
		return
	}
	if !found {
		RespondNotFound(ctx, "Event not found")
		return
	}

	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusOK, gin.H{"id": id, "deleted": true})
}

func parseListEventsFilter(ctx *gin.Context) (event.ListEventsFilter, bool) {
	var f event.ListEventsFilter

	var err error
	if f.Month, err = queryInt(ctx, "month"); err != nil {
		RespondErr(ctx, nil, err, "")
		return f, false
	}
	if f.Year, err = queryInt(ctx, "year"); err != nil {
		RespondErr(ctx, nil, err, "")
		return f, false
	}

	f.EventType = queryString(ctx, "event_type")
	f.TemplateID = queryString(ctx, "template_id")

	if s := queryString(ctx, "status"); s != nil {
		a, err := event.ParseAvailability(strings.ToLower(*s))
		if err != nil {
			RespondErr(ctx, nil, err, "")
			return f, false
		}
		f.Status = &a
	}

	if s := queryString(ctx, "is_public"); s != nil {
		b, err := strconv.ParseBool(*s)
		if err != nil {
			RespondErr(ctx, nil, errs.Invalid("is_public", "must be true or false"), "")
			return f, false
		}
		f.IsPublic = &b
	}

	return f, true
}

func queryString(ctx *gin.Context, name string) *string {
	v := strings.TrimSpace(ctx.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(ctx *gin.Context, name string) (*int, error) {
	s := queryString(ctx, name)
	if s == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil, errs.Invalid(name, "must be an integer")
	}
	return &n, nil
}

// invalidateEvents drops every cached events read model. Registrations and
// attendees change availability, so their writes call it too.
func invalidateEvents(ctx context.Context, c cache.Cache, log *slog.Logger) {
	if err := c.DeletePrefix(ctx, cache.EventsPrefix); err != nil {
		log.WarnContext(ctx, "events cache invalidation failed", "err", err)
	}
}
