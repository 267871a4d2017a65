package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdgmail/pdgmail/internal/container"
	handlers "github.com/pdgmail/pdgmail/internal/interface/http"
	"github.com/pdgmail/pdgmail/internal/interface/middleware"
	"github.com/pdgmail/pdgmail/pkg/helpers"
)

// EmailModule wires the mailbox endpoints, all behind JWT auth.
// Dispatch endpoints carry a tighter per-user limit than reads.

type EmailModule struct {
	Handler *handlers.EmailHandler
	JWT     *helpers.JWTManager
}

func NewEmailModule(h *handlers.EmailHandler, jwt *helpers.JWTManager) *EmailModule {
	return &EmailModule{Handler: h, JWT: jwt}
}

func (m *EmailModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 240, time.Minute, middleware.KeyByUserID(), nil),
	)

	sendLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil)
	{
		auth.POST("/emails", sendLimiter, m.Handler.Send)
		auth.POST("/emails/drafts", m.Handler.SaveDraft)

		auth.GET("/emails/inbox", m.Handler.ListInbox)
		auth.GET("/emails/sent", m.Handler.ListSent)
		auth.GET("/emails/drafts", m.Handler.ListDrafts)
		auth.GET("/emails/archived", m.Handler.ListArchived)
		auth.GET("/emails/trash", m.Handler.ListTrash)
		auth.GET("/emails/search", m.Handler.Search)

		auth.GET("/emails/:id", m.Handler.Get)
		auth.PATCH("/emails/:id", m.Handler.Update)
		auth.DELETE("/emails/:id", m.Handler.Delete)
		auth.POST("/emails/:id/archive", m.Handler.Archive)
		auth.POST("/emails/:id/trash", m.Handler.Trash)
		auth.POST("/emails/:id/restore", m.Handler.Restore)

		auth.GET("/analytics/email-activity", m.Handler.Activity)
	}
}
