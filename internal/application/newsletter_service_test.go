package application

import (
	"context"
	"errors"
	"testing"
)

func newTestNewsletterService() (*NewsletterService, *memNewsletterRepo, *fakeCampaignSender) {
	repo := newMemNewsletterRepo()
	campaigns := &fakeCampaignSender{}
	svc := &NewsletterService{Repo: repo, Campaigns: campaigns}
	return svc, repo, campaigns
}

func TestNewsletterCreate(t *testing.T) {
	svc, _, _ := newTestNewsletterService()

	n, err := svc.Create(context.Background(), "owner-1", "Weekly", "<p>News</p>")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if n.CampaignID != "" {
		t.Errorf("fresh newsletter must have no campaign id, got %q", n.CampaignID)
	}
}

func TestNewsletterSendOnce(t *testing.T) {
	svc, _, campaigns := newTestNewsletterService()
	ctx := context.Background()

	n, err := svc.Create(ctx, "owner-1", "Weekly", "<p>News</p>")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sent, err := svc.Send(ctx, n.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.CampaignID == "" {
		t.Fatal("expected campaign id after send")
	}
	if campaigns.created != 1 || len(campaigns.sent) != 1 {
		t.Fatalf("provider calls: created=%d sent=%d, want 1/1", campaigns.created, len(campaigns.sent))
	}

	// Second send short-circuits on the stored campaign id.
	again, err := svc.Send(ctx, n.ID)
	if err != nil {
		t.Fatalf("repeat send: %v", err)
	}
	if again.CampaignID != sent.CampaignID {
		t.Errorf("campaign id changed on repeat send: %q != %q", again.CampaignID, sent.CampaignID)
	}
	if campaigns.created != 1 || len(campaigns.sent) != 1 {
		t.Fatalf("repeat send must not call the provider again: created=%d sent=%d",
			campaigns.created, len(campaigns.sent))
	}
}

func TestNewsletterSendUnknownID(t *testing.T) {
	svc, _, _ := newTestNewsletterService()
	if _, err := svc.Send(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewsletterSendProviderFailure(t *testing.T) {
	svc, repo, campaigns := newTestNewsletterService()
	ctx := context.Background()

	n, err := svc.Create(ctx, "owner-1", "Weekly", "<p>News</p>")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	campaigns.createFail = errors.New("mailchimp 500")
	if _, err := svc.Send(ctx, n.ID); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed on create failure, got %v", err)
	}
	stored, _ := repo.GetByID(n.ID)
	if stored.CampaignID != "" {
		t.Errorf("failed send must not store a campaign id")
	}

	// Failure leaves the newsletter retryable.
	campaigns.createFail = nil
	if _, err := svc.Send(ctx, n.ID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestNewsletterSendCampaignStepFailure(t *testing.T) {
	svc, repo, campaigns := newTestNewsletterService()
	ctx := context.Background()

	n, err := svc.Create(ctx, "owner-1", "Weekly", "<p>News</p>")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	campaigns.sendFail = errors.New("send rejected")
	if _, err := svc.Send(ctx, n.ID); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed on send failure, got %v", err)
	}
	stored, _ := repo.GetByID(n.ID)
	if stored.CampaignID != "" {
		t.Errorf("campaign id must not be stored when the send step fails")
	}
}
