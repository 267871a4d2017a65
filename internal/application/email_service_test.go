package application

import (
	"context"
	"errors"
	"testing"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
)

func newTestEmailService() (*EmailService, *memEmailRepo, *memUserRepo, *fakeMailSender) {
	emails := newMemEmailRepo()
	users := newMemUserRepo()
	mail := &fakeMailSender{}
	svc := &EmailService{Emails: emails, Users: users, Mail: mail, PageSize: DefaultPageSize}
	return svc, emails, users, mail
}

func seedUser(t *testing.T, users *memUserRepo, email string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Name: email, PasswordHash: "x"}
	if err := users.Create(u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestSendPersistsOnlyOnProviderSuccess(t *testing.T) {
	svc, _, users, mail := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")

	e, err := svc.Send(ctx, alice.ID, "bob@example.com", "Hello", "First message")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !e.IsSent || e.IsDraft {
		t.Errorf("sent email flags wrong: sent=%v draft=%v", e.IsSent, e.IsDraft)
	}
	if mail.count() != 1 {
		t.Errorf("provider called %d times, want 1", mail.count())
	}

	sent, err := svc.ListSent(ctx, alice.ID, 1)
	if err != nil {
		t.Fatalf("list sent: %v", err)
	}
	if len(sent) != 1 || sent[0].ID != e.ID {
		t.Fatalf("sent folder should hold the dispatched email, got %d items", len(sent))
	}
}

func TestSendFailureLeavesNoRecord(t *testing.T) {
	svc, emails, users, mail := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")
	mail.fail = errors.New("provider down")

	_, err := svc.Send(ctx, alice.ID, "bob@example.com", "Hello", "Will not arrive")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
	if len(emails.emails) != 0 {
		t.Fatalf("failed dispatch must not persist, found %d records", len(emails.emails))
	}
}

func TestSendUnknownSender(t *testing.T) {
	svc, _, _, mail := newTestEmailService()
	_, err := svc.Send(context.Background(), "ghost", "bob@example.com", "Hi", "Body")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mail.count() != 0 {
		t.Errorf("provider must not be called for unknown sender")
	}
}

func TestDraftsStayOutOfSentAndInbox(t *testing.T) {
	svc, _, users, mail := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")

	d, err := svc.SaveDraft(ctx, alice.ID, "bob@example.com", "Draft", "Not yet")
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if !d.IsDraft || d.IsSent {
		t.Errorf("draft flags wrong: draft=%v sent=%v", d.IsDraft, d.IsSent)
	}
	if mail.count() != 0 {
		t.Errorf("draft must not hit the provider")
	}

	drafts, _ := svc.ListDrafts(ctx, alice.ID, 1)
	if len(drafts) != 1 {
		t.Fatalf("drafts folder: got %d, want 1", len(drafts))
	}
	sent, _ := svc.ListSent(ctx, alice.ID, 1)
	if len(sent) != 0 {
		t.Errorf("sent folder must be empty, got %d", len(sent))
	}
}

func TestArchiveTrashRestoreFlow(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")

	e, err := svc.Send(ctx, alice.ID, "bob@example.com", "Lifecycle", "Body")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.Archive(ctx, e.ID, alice.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	archived, _ := svc.ListArchived(ctx, alice.ID, 1)
	if len(archived) != 1 {
		t.Fatalf("archived folder: got %d, want 1", len(archived))
	}

	if _, err := svc.MoveToTrash(ctx, e.ID, alice.ID); err != nil {
		t.Fatalf("trash: %v", err)
	}
	trash, _ := svc.ListTrash(ctx, alice.ID, 1)
	if len(trash) != 1 {
		t.Fatalf("trash folder: got %d, want 1", len(trash))
	}
	archived, _ = svc.ListArchived(ctx, alice.ID, 1)
	if len(archived) != 0 {
		t.Errorf("trashed email must leave the archived listing")
	}
	sent, _ := svc.ListSent(ctx, alice.ID, 1)
	if len(sent) != 0 {
		t.Errorf("trashed email must leave the sent listing")
	}

	restored, err := svc.Restore(ctx, e.ID, alice.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.IsDeleted || restored.IsArchived {
		t.Errorf("restore must clear deleted and archived, got deleted=%v archived=%v",
			restored.IsDeleted, restored.IsArchived)
	}
	sent, _ = svc.ListSent(ctx, alice.ID, 1)
	if len(sent) != 1 {
		t.Fatalf("restored email must return to sent, got %d", len(sent))
	}
}

func TestRestoredDraftReturnsToDrafts(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")

	d, err := svc.SaveDraft(ctx, alice.ID, "bob@example.com", "Keep me", "wip")
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if _, err := svc.MoveToTrash(ctx, d.ID, alice.ID); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if _, err := svc.Restore(ctx, d.ID, alice.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	drafts, _ := svc.ListDrafts(ctx, alice.ID, 1)
	if len(drafts) != 1 {
		t.Fatalf("restored draft must reappear in drafts, got %d", len(drafts))
	}
}

func TestGetByIDAccessControl(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")
	carol := seedUser(t, users, "carol@example.com")

	e, err := svc.Send(ctx, alice.ID, bob.Email, "Private", "Body")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.GetByID(ctx, e.ID, alice.ID, alice.Email); err != nil {
		t.Errorf("sender must read own email: %v", err)
	}
	if _, err := svc.GetByID(ctx, e.ID, bob.ID, bob.Email); err != nil {
		t.Errorf("recipient must read addressed email: %v", err)
	}
	if _, err := svc.GetByID(ctx, e.ID, carol.ID, carol.Email); !errors.Is(err, ErrNotFound) {
		t.Errorf("third party must get ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByID(ctx, "missing", alice.ID, alice.Email); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing record must get ErrNotFound, got %v", err)
	}
}

func TestUpdateSenderOnly(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")

	e, err := svc.Send(ctx, alice.ID, bob.Email, "Original", "Body")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	newSubject := "Edited"
	got, err := svc.Update(ctx, e.ID, alice.ID, UpdateEmailInput{Subject: &newSubject})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Subject != "Edited" {
		t.Errorf("subject = %q, want Edited", got.Subject)
	}
	if got.Body != "Body" {
		t.Errorf("nil fields must stay untouched, body = %q", got.Body)
	}

	if _, err := svc.Update(ctx, e.ID, bob.ID, UpdateEmailInput{Subject: &newSubject}); !errors.Is(err, ErrNotFound) {
		t.Errorf("recipient update must get ErrNotFound, got %v", err)
	}
}

func TestDeletePermanently(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")

	e, err := svc.Send(ctx, alice.ID, bob.Email, "Gone soon", "Body")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.DeletePermanently(ctx, e.ID, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-sender delete must get ErrNotFound, got %v", err)
	}
	if err := svc.DeletePermanently(ctx, e.ID, alice.ID); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if err := svc.DeletePermanently(ctx, e.ID, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete must get ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByID(ctx, e.ID, alice.ID, alice.Email); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted record must be unreadable, got %v", err)
	}
}

func TestActivitySummary(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")

	if _, err := svc.Send(ctx, alice.ID, bob.Email, "One", "b"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(ctx, bob.ID, alice.Email, "Two", "b"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SaveDraft(ctx, alice.ID, bob.Email, "Three", "b"); err != nil {
		t.Fatalf("draft: %v", err)
	}

	counts, err := svc.ActivitySummary(ctx, alice.ID, alice.Email)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if counts.Sent != 1 {
		t.Errorf("sent = %d, want 1", counts.Sent)
	}
	if counts.Drafts != 1 {
		t.Errorf("drafts = %d, want 1", counts.Drafts)
	}
	if counts.Inbox != 1 {
		t.Errorf("inbox = %d, want 1", counts.Inbox)
	}
	if counts.Trash != 0 || counts.Archived != 0 {
		t.Errorf("trash=%d archived=%d, want 0/0", counts.Trash, counts.Archived)
	}
}

func TestSearchWithoutESReturnsEmpty(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	alice := seedUser(t, users, "alice@example.com")

	hits, err := svc.Search(context.Background(), alice.ID, "anything", 10)
	if err != nil {
		t.Fatalf("search without ES must not error, got %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected empty result, got %d hits", len(hits))
	}
}

func TestPagination(t *testing.T) {
	svc, _, users, _ := newTestEmailService()
	ctx := context.Background()
	alice := seedUser(t, users, "alice@example.com")
	svc.PageSize = 2

	for i := 0; i < 5; i++ {
		if _, err := svc.SaveDraft(ctx, alice.ID, "bob@example.com", "D", "b"); err != nil {
			t.Fatalf("draft %d: %v", i, err)
		}
	}

	p1, _ := svc.ListDrafts(ctx, alice.ID, 1)
	p2, _ := svc.ListDrafts(ctx, alice.ID, 2)
	p3, _ := svc.ListDrafts(ctx, alice.ID, 3)
	p4, _ := svc.ListDrafts(ctx, alice.ID, 4)
	if len(p1) != 2 || len(p2) != 2 || len(p3) != 1 || len(p4) != 0 {
		t.Fatalf("page sizes = %d/%d/%d/%d, want 2/2/1/0", len(p1), len(p2), len(p3), len(p4))
	}
	if p1[0].CreatedAt.Before(p1[1].CreatedAt) {
		t.Errorf("pages must be newest first")
	}

	// Page 0 and negatives clamp to the first page.
	p0, _ := svc.ListDrafts(ctx, alice.ID, 0)
	if len(p0) != 2 || p0[0].ID != p1[0].ID {
		t.Errorf("page 0 must behave as page 1")
	}
}
