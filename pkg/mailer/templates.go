package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Notification template names carried in EmailJob.Template.
const (
	TemplateWelcome           = "welcome"
	TemplateLoginNotification = "login_notification"
)

var templates = map[string]*template.Template{
	TemplateWelcome: template.Must(template.New(TemplateWelcome).Parse(`
<html><body>
<h2>Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Your PDGmail account is ready. You can now send mail and manage your inbox.</p>
</body></html>`)),
	TemplateLoginNotification: template.Must(template.New(TemplateLoginNotification).Parse(`
<html><body>
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>A new login to your account was detected{{if .Time}} at {{.Time}}{{end}}.
If this was not you, please reset your password.</p>
</body></html>`)),
}

var subjects = map[string]string{
	TemplateWelcome:           "Welcome to PDGmail",
	TemplateLoginNotification: "New login to your account",
}

// Render produces the subject and HTML body for a named template.
func Render(name string, data map[string]any) (subject, html string, err error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subjects[name], buf.String(), nil
}
