package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pdgmail/pdgmail/internal/application"
	"github.com/pdgmail/pdgmail/internal/domain/entity"
	"github.com/pdgmail/pdgmail/internal/interface/middleware"
	"github.com/pdgmail/pdgmail/pkg/response"
	"github.com/pdgmail/pdgmail/pkg/validation"
)

type EmailHandler struct {
	Svc    *application.EmailService
	Logger *logrus.Logger
}

func NewEmailHandler(svc *application.EmailService, logger *logrus.Logger) *EmailHandler {
	return &EmailHandler{Svc: svc, Logger: logger}
}

type composeEmailRequest struct {
	Recipient string `json:"recipient" binding:"required,email"`
	Subject   string `json:"subject" binding:"required"`
	Body      string `json:"body" binding:"required"`
}

// updateEmailRequest carries partial updates; absent fields stay untouched
// and unknown fields are ignored by the JSON decoder.
type updateEmailRequest struct {
	Subject    *string `json:"subject"`
	Body       *string `json:"body"`
	IsSent     *bool   `json:"is_sent"`
	IsDraft    *bool   `json:"is_draft"`
	IsArchived *bool   `json:"is_archived"`
	IsDeleted  *bool   `json:"is_deleted"`
}

type emailView struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	SenderID   string `json:"sender_id"`
	Recipient  string `json:"recipient"`
	IsSent     bool   `json:"is_sent"`
	IsDraft    bool   `json:"is_draft"`
	IsArchived bool   `json:"is_archived"`
	IsDeleted  bool   `json:"is_deleted"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toEmailView(e *entity.Email) emailView {
	return emailView{
		ID:         e.ID,
		Subject:    e.Subject,
		Body:       e.Body,
		SenderID:   e.SenderID,
		Recipient:  e.Recipient,
		IsSent:     e.IsSent,
		IsDraft:    e.IsDraft,
		IsArchived: e.IsArchived,
		IsDeleted:  e.IsDeleted,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toEmailViews(es []*entity.Email) []emailView {
	out := make([]emailView, 0, len(es))
	for _, e := range es {
		out = append(out, toEmailView(e))
	}
	return out
}

func pageFromQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Send POST /api/emails. Synchronous dispatch, persisted only on success.
func (h *EmailHandler) Send(c *gin.Context) {
	var req composeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)

	e, err := h.Svc.Send(c.Request.Context(), uid, req.Recipient, req.Subject, req.Body)
	if err != nil {
		if errors.Is(err, application.ErrSendFailed) {
			response.Error[any](c, http.StatusBadGateway, "email dispatch failed", nil)
			return
		}
		if errors.Is(err, application.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "not found", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("send email failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "send failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, toEmailView(e), "email sent", nil)
}

// SaveDraft POST /api/emails/drafts
func (h *EmailHandler) SaveDraft(c *gin.Context) {
	var req composeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)

	e, err := h.Svc.SaveDraft(c.Request.Context(), uid, req.Recipient, req.Subject, req.Body)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("save draft failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "save draft failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, toEmailView(e), "draft saved", nil)
}

func (h *EmailHandler) listFolder(c *gin.Context, folder string) {
	uid := c.GetString(middleware.CtxUserIDKey)
	email := c.GetString(middleware.CtxUserEmailKey)
	page := pageFromQuery(c)
	ctx := c.Request.Context()

	var (
		items []*entity.Email
		err   error
	)
	switch folder {
	case "inbox":
		items, err = h.Svc.ListInbox(ctx, email, page)
	case "sent":
		items, err = h.Svc.ListSent(ctx, uid, page)
	case "drafts":
		items, err = h.Svc.ListDrafts(ctx, uid, page)
	case "archived":
		items, err = h.Svc.ListArchived(ctx, uid, page)
	case "trash":
		items, err = h.Svc.ListTrash(ctx, uid, page)
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("folder", folder).Error("folder listing failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "listing failed", nil)
		return
	}
	response.Success(c, http.StatusOK, toEmailViews(items), folder, gin.H{"page": page})
}

func (h *EmailHandler) ListInbox(c *gin.Context)    { h.listFolder(c, "inbox") }
func (h *EmailHandler) ListSent(c *gin.Context)     { h.listFolder(c, "sent") }
func (h *EmailHandler) ListDrafts(c *gin.Context)   { h.listFolder(c, "drafts") }
func (h *EmailHandler) ListArchived(c *gin.Context) { h.listFolder(c, "archived") }
func (h *EmailHandler) ListTrash(c *gin.Context)    { h.listFolder(c, "trash") }

// Get GET /api/emails/:id
func (h *EmailHandler) Get(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	email := c.GetString(middleware.CtxUserEmailKey)

	e, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"), uid, email)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "not found", nil)
		return
	}
	response.Success(c, http.StatusOK, toEmailView(e), "email", nil)
}

// Update PATCH /api/emails/:id
func (h *EmailHandler) Update(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	e, err := h.Svc.Update(c.Request.Context(), c.Param("id"), uid, application.UpdateEmailInput{
		Subject:    req.Subject,
		Body:       req.Body,
		IsSent:     req.IsSent,
		IsDraft:    req.IsDraft,
		IsArchived: req.IsArchived,
		IsDeleted:  req.IsDeleted,
	})
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "not found", nil)
		return
	}
	response.Success(c, http.StatusOK, toEmailView(e), "email updated", nil)
}

func (h *EmailHandler) transition(c *gin.Context, fn func(uid string) (*entity.Email, error), msg string) {
	e, err := fn(c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "not found", nil)
		return
	}
	response.Success(c, http.StatusOK, toEmailView(e), msg, nil)
}

// Archive POST /api/emails/:id/archive
func (h *EmailHandler) Archive(c *gin.Context) {
	h.transition(c, func(uid string) (*entity.Email, error) {
		return h.Svc.Archive(c.Request.Context(), c.Param("id"), uid)
	}, "email archived")
}

// Trash POST /api/emails/:id/trash
func (h *EmailHandler) Trash(c *gin.Context) {
	h.transition(c, func(uid string) (*entity.Email, error) {
		return h.Svc.MoveToTrash(c.Request.Context(), c.Param("id"), uid)
	}, "email moved to trash")
}

// Restore POST /api/emails/:id/restore
func (h *EmailHandler) Restore(c *gin.Context) {
	h.transition(c, func(uid string) (*entity.Email, error) {
		return h.Svc.Restore(c.Request.Context(), c.Param("id"), uid)
	}, "email restored")
}

// Delete DELETE /api/emails/:id. Permanent, sender only.
func (h *EmailHandler) Delete(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.DeletePermanently(c.Request.Context(), c.Param("id"), uid); err != nil {
		response.Error[any](c, http.StatusNotFound, "not found", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "email deleted", nil)
}

// Search GET /api/emails/search?q=...&size=...
func (h *EmailHandler) Search(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.Search(c.Request.Context(), uid, q, size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("email search failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// Activity GET /api/analytics/email-activity
func (h *EmailHandler) Activity(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	email := c.GetString(middleware.CtxUserEmailKey)

	counts, err := h.Svc.ActivitySummary(c.Request.Context(), uid, email)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("activity summary failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "summary failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"inbox":    counts.Inbox,
		"sent":     counts.Sent,
		"drafts":   counts.Drafts,
		"archived": counts.Archived,
		"trash":    counts.Trash,
	}, "email activity", nil)
}
