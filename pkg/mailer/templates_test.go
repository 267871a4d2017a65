package mailer

import (
	"strings"
	"testing"
)

func TestRenderWelcome(t *testing.T) {
	subject, html, err := Render(TemplateWelcome, map[string]any{"Name": "Alice"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject == "" {
		t.Error("expected a subject")
	}
	if !strings.Contains(html, "Alice") {
		t.Errorf("rendered html should mention the name: %s", html)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	_, html, err := Render(TemplateLoginNotification, map[string]any{"Name": "<script>x</script>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("user data must be escaped")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, err := Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
