package router

import (
	"github.com/pdgmail/pdgmail/internal/application"
	"github.com/pdgmail/pdgmail/internal/container"
	pginfra "github.com/pdgmail/pdgmail/internal/infrastructure/postgres"
	handlers "github.com/pdgmail/pdgmail/internal/interface/http"
	"github.com/pdgmail/pdgmail/internal/router/modules"
)

// InitModules builds repositories, services and handlers from the container
// singletons and registers every feature module on the registry.
// Call once during startup, after the container has been populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	jwt := container.GetJWT()

	userRepo := pginfra.NewUserRepository(pool)
	emailRepo := pginfra.NewEmailRepository(pool)
	newsRepo := pginfra.NewNewsletterRepository(pool)

	authSvc := &application.AuthService{
		Repo:      userRepo,
		JWT:       jwt,
		GCS:       container.GetGCS(),
		GCSBucket: cfg.GCSBucket,
		Logger:    logger,
	}
	if pub := container.GetRabbitPub(); pub != nil {
		authSvc.Pub = pub
	}

	emailSvc := &application.EmailService{
		Emails:  emailRepo,
		Users:   userRepo,
		Logger:  logger,
		ES:      container.GetES(),
		ESIndex: cfg.ESEmailsIndex,
	}
	if mg := container.GetMailgun(); mg != nil {
		emailSvc.Mail = mg
	}

	newsSvc := &application.NewsletterService{
		Repo:   newsRepo,
		Redis:  container.GetRedis(),
		Logger: logger,
	}
	if mc := container.GetMailchimp(); mc != nil {
		newsSvc.Campaigns = mc
	}

	authHandler := handlers.NewAuthHandler(authSvc, logger, cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(authSvc, logger)
	emailHandler := handlers.NewEmailHandler(emailSvc, logger)
	newsHandler := handlers.NewNewsletterHandler(newsSvc, logger)

	r.Add(modules.NewAuthModule(authHandler, jwt))
	r.Add(modules.NewUserModule(userHandler, jwt))
	r.Add(modules.NewEmailModule(emailHandler, jwt))
	r.Add(modules.NewNewsletterModule(newsHandler, jwt))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
