package application

import "context"

// MailSender dispatches a single outbound message through the transactional
// email provider and returns the provider's message id.
type MailSender interface {
	Send(ctx context.Context, to, subject, text, html string) (string, error)
}

// CampaignSender drives the external marketing campaign API.
type CampaignSender interface {
	CreateCampaign(ctx context.Context, subject, htmlContent string) (string, error)
	SendCampaign(ctx context.Context, campaignID string) error
}

// JobPublisher enqueues fire-and-forget notification email jobs.
// The caller never observes delivery outcome.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
