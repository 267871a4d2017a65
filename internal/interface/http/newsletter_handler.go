package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pdgmail/pdgmail/internal/application"
	"github.com/pdgmail/pdgmail/internal/domain/entity"
	"github.com/pdgmail/pdgmail/internal/interface/middleware"
	"github.com/pdgmail/pdgmail/pkg/response"
	"github.com/pdgmail/pdgmail/pkg/validation"
)

type NewsletterHandler struct {
	Svc    *application.NewsletterService
	Logger *logrus.Logger
}

func NewNewsletterHandler(svc *application.NewsletterService, logger *logrus.Logger) *NewsletterHandler {
	return &NewsletterHandler{Svc: svc, Logger: logger}
}

type createNewsletterRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func newsletterView(n *entity.Newsletter) gin.H {
	return gin.H{
		"id":          n.ID,
		"title":       n.Title,
		"content":     n.Content,
		"owner_id":    n.OwnerID,
		"campaign_id": n.CampaignID,
		"created_at":  n.CreatedAt,
	}
}

// Create POST /api/newsletters
func (h *NewsletterHandler) Create(c *gin.Context) {
	var req createNewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)

	n, err := h.Svc.Create(c.Request.Context(), uid, req.Title, req.Content)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("create newsletter failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "create failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, newsletterView(n), "newsletter created", nil)
}

// Send POST /api/newsletters/:id/send. Idempotent per newsletter id.
func (h *NewsletterHandler) Send(c *gin.Context) {
	n, err := h.Svc.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, application.ErrNotFound):
			response.Error[any](c, http.StatusNotFound, "not found", nil)
		case errors.Is(err, application.ErrSendInProgress):
			response.Error[any](c, http.StatusConflict, "send already in progress", nil)
		case errors.Is(err, application.ErrSendFailed):
			response.Error[any](c, http.StatusBadGateway, "campaign dispatch failed", nil)
		default:
			if h.Logger != nil {
				h.Logger.WithError(err).Error("newsletter send failed")
			}
			response.Error[any](c, http.StatusInternalServerError, "send failed", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, newsletterView(n), "newsletter sent", nil)
}
