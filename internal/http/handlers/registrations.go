package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joakimtj/eventdesk/internal/cache"
	"github.com/joakimtj/eventdesk/internal/domain/registration"
)

type RegistrationsStore interface {
	Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error)
	GetByID(ctx context.Context, id string) (registration.Registration, error)
	List(ctx context.Context, filter registration.ListRegistrationsFilter) ([]registration.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error)
	Update(ctx context.Context, id string, req registration.UpdateRegistrationRequest) (registration.Registration, error)
}

// RegistrationDeleter removes a registration and its attendees in one transaction.
type RegistrationDeleter interface {
	DeleteRegistration(ctx context.Context, id string) (bool, error)
}

type RegistrationHandler struct {
	repo    RegistrationsStore
	deleter RegistrationDeleter
	cache   cache.Cache
	log     *slog.Logger
}

func NewRegistrationHandler(repo RegistrationsStore, deleter RegistrationDeleter, c cache.Cache, log *slog.Logger) *RegistrationHandler {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &RegistrationHandler{repo: repo, deleter: deleter, cache: c, log: log}
}

func (h *RegistrationHandler) Register(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	reg, err := h.repo.Create(cctx, req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not create registration")
		return
	}

	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusCreated, reg)
}

func (h *RegistrationHandler) ListRegistrations(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	var filter registration.ListRegistrationsFilter
	filter.EventID = queryString(ctx, "event_id")

	if s := queryString(ctx, "status"); s != nil {
		st, err := registration.ParseStatus(*s)
		if err != nil {
			RespondErr(ctx, h.log, err, "")
			return
		}
		filter.Status = &st
	}

	items, err := h.repo.List(cctx, filter)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not list registrations")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *RegistrationHandler) ListByEvent(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	items, err := h.repo.ListByEvent(cctx, ctx.Param("eventId"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not list registrations")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *RegistrationHandler) GetRegistration(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	reg, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not fetch registration")
		return
	}

	RespondData(ctx, http.StatusOK, reg)
}

func (h *RegistrationHandler) UpdateRegistration(ctx *gin.Context) {
	var req registration.UpdateRegistrationRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	reg, err := h.repo.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not update registration")
		return
	}

	// a status change moves spots between events' availability
	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusOK, reg)
}

func (h *RegistrationHandler) DeleteRegistration(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	found, err := h.deleter.DeleteRegistration(cctx, id)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not delete registration")
		return
	}
	if !found {
		RespondNotFound(ctx, "Registration not found")
		return
	}

	invalidateEvents(cctx, h.cache, h.log)
	RespondData(ctx, http.StatusOK, gin.H{"id": id, "deleted": true})
}
