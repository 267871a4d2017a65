package entity

import "time"

// Email is a message record. Recipient is a free-text address rather than a
// user reference: mail can be sent to addresses that are not registered.
//
// The four lifecycle flags are independent columns. Combinations outside the
// named transitions (send, draft, archive, trash, restore) are representable
// in storage but never produced by the application services.
type Email struct {
	ID         string
	Subject    string
	Body       string
	SenderID   string
	Recipient  string
	IsSent     bool
	IsDraft    bool
	IsArchived bool
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
