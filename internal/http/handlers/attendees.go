package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joakimtj/eventdesk/internal/cache"
	"github.com/joakimtj/eventdesk/internal/domain/attendee"
)

type AttendeesStore interface {
	Create(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error)
	GetByID(ctx context.Context, id string) (attendee.Attendee, error)
	List(ctx context.Context) ([]attendee.Attendee, error)
	ListByRegistration(ctx context.Context, registrationID string) ([]attendee.Attendee, error)
	Update(ctx context.Context, id string, req attendee.UpdateAttendeeRequest) (attendee.Attendee, error)
	Delete(ctx context.Context, id string) error
}

type AttendeesHandler struct {
	repo  AttendeesStore
	cache cache.Cache
	log   *slog.Logger
}

func NewAttendeesHandler(repo AttendeesStore, c cache.Cache, log *slog.Logger) *AttendeesHandler {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &AttendeesHandler{repo: repo, cache: c, log: log}
}

func (h *AttendeesHandler) CreateAttendee(ctx *gin.Context) {
	var req attendee.CreateAttendeeRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	a, err := h.repo.Create(cctx, req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not create attendee")
		return
	}

	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusCreated, a)
}

func (h *AttendeesHandler) ListAttendees(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	items, err := h.repo.List(cctx)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not list attendees")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *AttendeesHandler) ListByRegistration(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	items, err := h.repo.ListByRegistration(cctx, ctx.Param("registrationId"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not list attendees")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *AttendeesHandler) GetAttendee(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	a, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not fetch attendee")
		return
	}

	RespondData(ctx, http.StatusOK, a)
}

func (h *AttendeesHandler) UpdateAttendee(ctx *gin.Context) {
	var req attendee.UpdateAttendeeRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	a, err := h.repo.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not update attendee")
		return
	}

	RespondData(ctx, http.StatusOK, a)
}

func (h *AttendeesHandler) DeleteAttendee(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		RespondErr(ctx, h.log, err, "Could not delete attendee")
		return
	}

	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusOK, gin.H{"id": id, "deleted": true})
}
