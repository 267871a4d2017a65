package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for notification
// email sending. Either Template+Data or a raw Subject with Text/HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "welcome", "login_notification"
	Data     map[string]any `json:"data,omitempty"`
}
