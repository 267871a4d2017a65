package repository

import "github.com/pdgmail/pdgmail/internal/domain/entity"

// EmailCounts aggregates per-folder totals for one user.
type EmailCounts struct {
	Inbox    int64
	Sent     int64
	Drafts   int64
	Archived int64
	Trash    int64
}

// EmailRepository defines the interface for email record persistence.
// List methods return newest-first pages.
type EmailRepository interface {
	Create(e *entity.Email) error
	GetByID(id string) (*entity.Email, error)
	Update(e *entity.Email) error
	// Delete removes the record permanently and reports whether a row
	// matching both id and senderID existed.
	Delete(id, senderID string) (bool, error)

	ListInbox(recipient string, limit, offset int) ([]*entity.Email, error)
	ListSent(senderID string, limit, offset int) ([]*entity.Email, error)
	ListDrafts(senderID string, limit, offset int) ([]*entity.Email, error)
	ListArchived(senderID string, limit, offset int) ([]*entity.Email, error)
	ListTrash(senderID string, limit, offset int) ([]*entity.Email, error)

	Counts(senderID, recipient string) (EmailCounts, error)
}
