package repository

import "github.com/pdgmail/pdgmail/internal/domain/entity"

// NewsletterRepository defines the interface for newsletter persistence.
type NewsletterRepository interface {
	Create(n *entity.Newsletter) error
	GetByID(id string) (*entity.Newsletter, error)
	SetCampaignID(id, campaignID string) error
}
