package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joakimtj/eventdesk/internal/domain/template"
)

type TemplatesStore interface {
	Create(ctx context.Context, req template.CreateTemplateRequest) (template.Template, error)
	GetByID(ctx context.Context, id string) (template.Template, error)
	List(ctx context.Context) ([]template.Template, error)
	Update(ctx context.Context, id string, req template.UpdateTemplateRequest) (template.Template, error)
	Delete(ctx context.Context, id string) error
}

type TemplatesHandler struct {
	repo TemplatesStore
	log  *slog.Logger
}

func NewTemplatesHandler(repo TemplatesStore, log *slog.Logger) *TemplatesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TemplatesHandler{repo: repo, log: log}
}

func (h *TemplatesHandler) CreateTemplate(ctx *gin.Context) {
	var req template.CreateTemplateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	t, err := h.repo.Create(cctx, req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not create template")
		return
	}

	RespondData(ctx, http.StatusCreated, t)
}

func (h *TemplatesHandler) ListTemplates(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	items, err := h.repo.List(cctx)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not list templates")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *TemplatesHandler) GetTemplate(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	t, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not fetch template")
		return
	}

	RespondData(ctx, http.StatusOK, t)
}

func (h *TemplatesHandler) UpdateTemplate(ctx *gin.Context) {
	var req template.UpdateTemplateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	t, err := h.repo.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not update template")
		return
	}

	RespondData(ctx, http.StatusOK, t)
}

// DeleteTemplate is refused while any event still references the template.
func (h *TemplatesHandler) DeleteTemplate(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		RespondErr(ctx, h.log, err, "Could not delete template")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{"id": id, "deleted": true})
}
