package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
	repo "github.com/pdgmail/pdgmail/internal/domain/repository"
)

// DefaultPageSize is the number of records per folder listing page.
const DefaultPageSize = 20

// EmailService enforces the email lifecycle: dispatch, drafts, folder
// queries, flag transitions and permanent deletion. Access control is
// by sender id, except the inbox which matches the recipient address.
//
// Dispatch policy is send-before-persist and synchronous: a failed provider
// call aborts the operation with no record written, and a crash after the
// provider accepted but before the insert loses the record (at-most-once).
type EmailService struct {
	Emails   repo.EmailRepository
	Users    repo.UserRepository
	Mail     MailSender
	Logger   *logrus.Logger
	ES       *elasticsearch.Client
	ESIndex  string
	PageSize int
}

func NewEmailService(emails repo.EmailRepository, users repo.UserRepository, mail MailSender, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *EmailService {
	return &EmailService{
		Emails:   emails,
		Users:    users,
		Mail:     mail,
		Logger:   logger,
		ES:       es,
		ESIndex:  esIndex,
		PageSize: DefaultPageSize,
	}
}

// Send dispatches via the provider first and persists only on success.
func (s *EmailService) Send(ctx context.Context, senderID, recipient, subject, body string) (*entity.Email, error) {
	if _, err := s.Users.GetByID(senderID); err != nil {
		return nil, ErrNotFound
	}

	if s.Mail == nil {
		return nil, fmt.Errorf("%w: mail provider not configured", ErrSendFailed)
	}
	if _, err := s.Mail.Send(ctx, recipient, subject, body, ""); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("recipient", recipient).Warn("outbound dispatch failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	e := &entity.Email{
		Subject:   subject,
		Body:      body,
		SenderID:  senderID,
		Recipient: recipient,
		IsSent:    true,
	}
	if err := s.Emails.Create(e); err != nil {
		return nil, err
	}
	s.indexEmail(ctx, e)
	return e, nil
}

// SaveDraft persists without dispatching.
func (s *EmailService) SaveDraft(ctx context.Context, senderID, recipient, subject, body string) (*entity.Email, error) {
	if _, err := s.Users.GetByID(senderID); err != nil {
		return nil, ErrNotFound
	}

	e := &entity.Email{
		Subject:   subject,
		Body:      body,
		SenderID:  senderID,
		Recipient: recipient,
		IsDraft:   true,
	}
	if err := s.Emails.Create(e); err != nil {
		return nil, err
	}
	s.indexEmail(ctx, e)
	return e, nil
}

func (s *EmailService) pageArgs(page int) (limit, offset int) {
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}

func (s *EmailService) ListInbox(ctx context.Context, userEmail string, page int) ([]*entity.Email, error) {
	limit, offset := s.pageArgs(page)
	return s.Emails.ListInbox(userEmail, limit, offset)
}

func (s *EmailService) ListSent(ctx context.Context, userID string, page int) ([]*entity.Email, error) {
	limit, offset := s.pageArgs(page)
	return s.Emails.ListSent(userID, limit, offset)
}

func (s *EmailService) ListDrafts(ctx context.Context, userID string, page int) ([]*entity.Email, error) {
	limit, offset := s.pageArgs(page)
	return s.Emails.ListDrafts(userID, limit, offset)
}

func (s *EmailService) ListArchived(ctx context.Context, userID string, page int) ([]*entity.Email, error) {
	limit, offset := s.pageArgs(page)
	return s.Emails.ListArchived(userID, limit, offset)
}

func (s *EmailService) ListTrash(ctx context.Context, userID string, page int) ([]*entity.Email, error) {
	limit, offset := s.pageArgs(page)
	return s.Emails.ListTrash(userID, limit, offset)
}

// GetByID grants access to the sender and to a requester whose email matches
// the recipient address. Anyone else receives ErrNotFound, indistinguishable
// from a missing record.
func (s *EmailService) GetByID(ctx context.Context, id, requesterID, requesterEmail string) (*entity.Email, error) {
	e, err := s.Emails.GetByID(id)
	if err != nil || e == nil {
		return nil, ErrNotFound
	}
	if e.SenderID != requesterID && e.Recipient != requesterEmail {
		return nil, ErrNotFound
	}
	return e, nil
}

// UpdateEmailInput carries the mutable fields; nil pointers are untouched.
// Fields outside this set are ignored by the binding layer, not rejected.
type UpdateEmailInput struct {
	Subject    *string
	Body       *string
	IsSent     *bool
	IsDraft    *bool
	IsArchived *bool
	IsDeleted  *bool
}

// Update mutates a record; only the sender may do so. A foreign requester
// gets the same ErrNotFound as a missing record.
func (s *EmailService) Update(ctx context.Context, id, requesterID string, in UpdateEmailInput) (*entity.Email, error) {
	e, err := s.Emails.GetByID(id)
	if err != nil || e == nil {
		return nil, ErrNotFound
	}
	if e.SenderID != requesterID {
		return nil, ErrNotFound
	}

	if in.Subject != nil {
		e.Subject = *in.Subject
	}
	if in.Body != nil {
		e.Body = *in.Body
	}
	if in.IsSent != nil {
		e.IsSent = *in.IsSent
	}
	if in.IsDraft != nil {
		e.IsDraft = *in.IsDraft
	}
	if in.IsArchived != nil {
		e.IsArchived = *in.IsArchived
	}
	if in.IsDeleted != nil {
		e.IsDeleted = *in.IsDeleted
	}

	if err := s.Emails.Update(e); err != nil {
		return nil, err
	}
	s.indexEmail(ctx, e)
	return e, nil
}

func boolPtr(b bool) *bool { return &b }

// Archive marks the record archived.
func (s *EmailService) Archive(ctx context.Context, id, requesterID string) (*entity.Email, error) {
	return s.Update(ctx, id, requesterID, UpdateEmailInput{IsArchived: boolPtr(true)})
}

// MoveToTrash marks the record deleted; a prior archived flag is kept so the
// record keeps appearing in trash regardless.
func (s *EmailService) MoveToTrash(ctx context.Context, id, requesterID string) (*entity.Email, error) {
	return s.Update(ctx, id, requesterID, UpdateEmailInput{IsDeleted: boolPtr(true)})
}

// Restore clears deleted and archived together.
func (s *EmailService) Restore(ctx context.Context, id, requesterID string) (*entity.Email, error) {
	return s.Update(ctx, id, requesterID, UpdateEmailInput{
		IsDeleted:  boolPtr(false),
		IsArchived: boolPtr(false),
	})
}

// DeletePermanently hard-deletes a record. Only the sender may invoke it;
// an absent record and a foreign requester both report ErrNotFound.
func (s *EmailService) DeletePermanently(ctx context.Context, id, requesterID string) error {
	ok, err := s.Emails.Delete(id, requesterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.removeFromIndex(ctx, id)
	return nil
}

// ActivitySummary reports per-folder totals for one user.
func (s *EmailService) ActivitySummary(ctx context.Context, userID, userEmail string) (repo.EmailCounts, error) {
	return s.Emails.Counts(userID, userEmail)
}

// Search performs a full-text query over the requester's own mail.
// Returns an empty result when Elasticsearch is not configured.
func (s *EmailService) Search(ctx context.Context, userID, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"subject^2", "body"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"sender_id": userID},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *EmailService) indexEmail(ctx context.Context, e *entity.Email) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          e.ID,
		"subject":     e.Subject,
		"body":        e.Body,
		"sender_id":   e.SenderID,
		"recipient":   e.Recipient,
		"is_sent":     e.IsSent,
		"is_draft":    e.IsDraft,
		"is_archived": e.IsArchived,
		"is_deleted":  e.IsDeleted,
		"created_at":  e.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: e.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email_id", e.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("email_id", e.ID).Warn("es index response error")
	}
}

func (s *EmailService) removeFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}
