package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdgmail/pdgmail/internal/container"
	handlers "github.com/pdgmail/pdgmail/internal/interface/http"
	"github.com/pdgmail/pdgmail/internal/interface/middleware"
	"github.com/pdgmail/pdgmail/pkg/helpers"
)

// AuthModule wires the account endpoints.
// Public: POST /api/register, /api/login, /api/login/external, /api/refresh
// Protected: POST /api/logout

type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public with per-IP rate limits
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/login/external", loginLimiter, m.Handler.LoginExternal)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	{
		auth.POST("/logout", m.Handler.Logout)
	}
}
