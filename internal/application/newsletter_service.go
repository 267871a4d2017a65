package application

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
	repo "github.com/pdgmail/pdgmail/internal/domain/repository"
)

func sendLockKey(newsletterID string) string {
	return "newsletter:send:" + newsletterID
}

// NewsletterService creates newsletter records and dispatches them through
// the external campaign provider. Send is idempotent per newsletter id: the
// stored campaign id short-circuits repeat calls, and a Redis lock guards
// the first send against concurrent duplicates. Redis is optional; without
// it the campaign-id check is the only guard.
type NewsletterService struct {
	Repo      repo.NewsletterRepository
	Campaigns CampaignSender
	Redis     *redis.Client
	Logger    *logrus.Logger
}

func NewNewsletterService(repo repo.NewsletterRepository, campaigns CampaignSender, rdb *redis.Client, logger *logrus.Logger) *NewsletterService {
	return &NewsletterService{Repo: repo, Campaigns: campaigns, Redis: rdb, Logger: logger}
}

func (s *NewsletterService) Create(ctx context.Context, ownerID, title, content string) (*entity.Newsletter, error) {
	n := &entity.Newsletter{Title: title, Content: content, OwnerID: ownerID}
	if err := s.Repo.Create(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Send dispatches the newsletter as an external campaign, at most once per
// newsletter id. A newsletter that was already sent is returned unchanged.
func (s *NewsletterService) Send(ctx context.Context, newsletterID string) (*entity.Newsletter, error) {
	n, err := s.Repo.GetByID(newsletterID)
	if err != nil || n == nil {
		return nil, ErrNotFound
	}
	if n.CampaignID != "" {
		return n, nil
	}

	if s.Redis != nil {
		ok, lerr := s.Redis.SetNX(ctx, sendLockKey(n.ID), "1", 2*time.Minute).Result()
		if lerr == nil && !ok {
			return nil, ErrSendInProgress
		}
		defer func() { _ = s.Redis.Del(context.Background(), sendLockKey(n.ID)).Err() }()
	}

	if s.Campaigns == nil {
		return nil, fmt.Errorf("%w: campaign provider not configured", ErrSendFailed)
	}
	campaignID, err := s.Campaigns.CreateCampaign(ctx, n.Title, n.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if err := s.Campaigns.SendCampaign(ctx, campaignID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if err := s.Repo.SetCampaignID(n.ID, campaignID); err != nil {
		// Campaign is out the door; losing the id would allow a duplicate
		// send on retry, so surface the persistence failure loudly.
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("newsletter_id", n.ID).Error("campaign sent but id not persisted")
		}
		return nil, err
	}
	n.CampaignID = campaignID
	return n, nil
}
