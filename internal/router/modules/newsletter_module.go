package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdgmail/pdgmail/internal/container"
	handlers "github.com/pdgmail/pdgmail/internal/interface/http"
	"github.com/pdgmail/pdgmail/internal/interface/middleware"
	"github.com/pdgmail/pdgmail/pkg/helpers"
)

// NewsletterModule wires campaign endpoints, all behind JWT auth.

type NewsletterModule struct {
	Handler *handlers.NewsletterHandler
	JWT     *helpers.JWTManager
}

func NewNewsletterModule(h *handlers.NewsletterHandler, jwt *helpers.JWTManager) *NewsletterModule {
	return &NewsletterModule{Handler: h, JWT: jwt}
}

func (m *NewsletterModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))

	// Campaign sends hit the marketing provider, keep the limit low.
	sendLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByUserID(), nil)
	{
		auth.POST("/newsletters", m.Handler.Create)
		auth.POST("/newsletters/:id/send", sendLimiter, m.Handler.Send)
	}
}
