package entity

import "time"

// Newsletter is a campaign record. CampaignID is the external marketing
// provider's id, set once the campaign has been dispatched; a non-empty
// value marks the newsletter as sent.
type Newsletter struct {
	ID         string
	Title      string
	Content    string
	OwnerID    string
	CampaignID string
	CreatedAt  time.Time
}
