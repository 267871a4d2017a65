package campaign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailchimp wraps the Mailchimp marketing REST API for campaign dispatch.
// ServerPrefix is the datacenter part of the API key (e.g. "us21").
type Mailchimp struct {
	APIKey       string
	ServerPrefix string
	ListID       string
	FromName     string
	ReplyTo      string

	// BaseURL overrides the datacenter URL when set. Tests point it at a
	// local server.
	BaseURL string

	HTTPClient *http.Client
}

func NewMailchimp(apiKey, serverPrefix, listID, fromName, replyTo string) *Mailchimp {
	return &Mailchimp{
		APIKey:       apiKey,
		ServerPrefix: serverPrefix,
		ListID:       listID,
		FromName:     fromName,
		ReplyTo:      replyTo,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *Mailchimp) baseURL() string {
	if m.BaseURL != "" {
		return m.BaseURL
	}
	return fmt.Sprintf("https://%s.api.mailchimp.com/3.0", m.ServerPrefix)
}

func (m *Mailchimp) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.baseURL()+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth("anystring", m.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := m.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var apiErr struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		return fmt.Errorf("mailchimp %s %s: status %d: %s %s", method, path, res.StatusCode, apiErr.Title, apiErr.Detail)
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

// CreateCampaign creates a regular campaign against the configured list,
// sets its HTML content, and returns the campaign id.
func (m *Mailchimp) CreateCampaign(ctx context.Context, subject, htmlContent string) (string, error) {
	create := map[string]any{
		"type":       "regular",
		"recipients": map[string]any{"list_id": m.ListID},
		"settings": map[string]any{
			"subject_line": subject,
			"from_name":    m.FromName,
			"reply_to":     m.ReplyTo,
		},
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := m.do(ctx, http.MethodPost, "/campaigns", create, &created); err != nil {
		return "", err
	}

	content := map[string]any{"html": htmlContent}
	if err := m.do(ctx, http.MethodPut, "/campaigns/"+created.ID+"/content", content, nil); err != nil {
		return "", err
	}
	return created.ID, nil
}

// SendCampaign triggers delivery of a previously created campaign.
func (m *Mailchimp) SendCampaign(ctx context.Context, campaignID string) error {
	return m.do(ctx, http.MethodPost, "/campaigns/"+campaignID+"/actions/send", nil, nil)
}
