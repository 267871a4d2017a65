package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
	repo "github.com/pdgmail/pdgmail/internal/domain/repository"
)

var errMockNotFound = errors.New("not found")

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*entity.User)}
}

func (r *memUserRepo) Create(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errMockNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errMockNotFound
}

func (r *memUserRepo) Update(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return errMockNotFound
	}
	cp := *u
	cp.UpdatedAt = time.Now()
	r.users[u.ID] = &cp
	return nil
}

type memEmailRepo struct {
	mu     sync.Mutex
	seq    int
	emails map[string]*entity.Email
}

func newMemEmailRepo() *memEmailRepo {
	return &memEmailRepo{emails: make(map[string]*entity.Email)}
}

func (r *memEmailRepo) Create(e *entity.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.ID = fmt.Sprintf("email-%d", r.seq)
	e.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	e.UpdatedAt = e.CreatedAt
	cp := *e
	r.emails[e.ID] = &cp
	return nil
}

func (r *memEmailRepo) GetByID(id string) (*entity.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return nil, errMockNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memEmailRepo) Update(e *entity.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.emails[e.ID]; !ok {
		return errMockNotFound
	}
	cp := *e
	cp.UpdatedAt = time.Now()
	r.emails[e.ID] = &cp
	return nil
}

func (r *memEmailRepo) Delete(id, senderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok || e.SenderID != senderID {
		return false, nil
	}
	delete(r.emails, id)
	return true, nil
}

func (r *memEmailRepo) list(filter func(*entity.Email) bool, limit, offset int) ([]*entity.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Email
	for _, e := range r.emails {
		if filter(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*entity.Email{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEmailRepo) ListInbox(recipient string, limit, offset int) ([]*entity.Email, error) {
	return r.list(func(e *entity.Email) bool {
		return e.Recipient == recipient && !e.IsDeleted
	}, limit, offset)
}

func (r *memEmailRepo) ListSent(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(func(e *entity.Email) bool {
		return e.SenderID == senderID && e.IsSent && !e.IsDeleted
	}, limit, offset)
}

func (r *memEmailRepo) ListDrafts(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(func(e *entity.Email) bool {
		return e.SenderID == senderID && e.IsDraft && !e.IsDeleted
	}, limit, offset)
}

func (r *memEmailRepo) ListArchived(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(func(e *entity.Email) bool {
		return e.SenderID == senderID && e.IsArchived && !e.IsDeleted
	}, limit, offset)
}

func (r *memEmailRepo) ListTrash(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(func(e *entity.Email) bool {
		return e.SenderID == senderID && e.IsDeleted
	}, limit, offset)
}

func (r *memEmailRepo) Counts(senderID, recipient string) (repo.EmailCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c repo.EmailCounts
	for _, e := range r.emails {
		if e.Recipient == recipient && !e.IsDeleted {
			c.Inbox++
		}
		if e.SenderID != senderID {
			continue
		}
		if e.IsDeleted {
			c.Trash++
			continue
		}
		if e.IsSent {
			c.Sent++
		}
		if e.IsDraft {
			c.Drafts++
		}
		if e.IsArchived {
			c.Archived++
		}
	}
	return c, nil
}

type memNewsletterRepo struct {
	mu          sync.Mutex
	seq         int
	newsletters map[string]*entity.Newsletter
}

func newMemNewsletterRepo() *memNewsletterRepo {
	return &memNewsletterRepo{newsletters: make(map[string]*entity.Newsletter)}
}

func (r *memNewsletterRepo) Create(n *entity.Newsletter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = fmt.Sprintf("news-%d", r.seq)
	n.CreatedAt = time.Now()
	cp := *n
	r.newsletters[n.ID] = &cp
	return nil
}

func (r *memNewsletterRepo) GetByID(id string) (*entity.Newsletter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.newsletters[id]
	if !ok {
		return nil, errMockNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *memNewsletterRepo) SetCampaignID(id, campaignID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.newsletters[id]
	if !ok {
		return errMockNotFound
	}
	n.CampaignID = campaignID
	return nil
}

// fakeMailSender records sent mail and can be told to fail.
type fakeMailSender struct {
	mu   sync.Mutex
	sent []fakeMail
	fail error
}

type fakeMail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

func (f *fakeMailSender) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	f.sent = append(f.sent, fakeMail{To: to, Subject: subject, Text: text, HTML: html})
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeMailSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeCampaignSender counts provider calls and can fail either step.
type fakeCampaignSender struct {
	mu         sync.Mutex
	created    int
	sent       []string
	createFail error
	sendFail   error
}

func (f *fakeCampaignSender) CreateCampaign(ctx context.Context, subject, htmlContent string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFail != nil {
		return "", f.createFail
	}
	f.created++
	return fmt.Sprintf("campaign-%d", f.created), nil
}

func (f *fakeCampaignSender) SendCampaign(ctx context.Context, campaignID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendFail != nil {
		return f.sendFail
	}
	f.sent = append(f.sent, campaignID)
	return nil
}

// fakePublisher collects published jobs.
type fakePublisher struct {
	mu   sync.Mutex
	jobs []any
}

func (f *fakePublisher) PublishJSON(ctx context.Context, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, body)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}
