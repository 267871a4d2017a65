package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
	"github.com/pdgmail/pdgmail/pkg/helpers"
	"github.com/pdgmail/pdgmail/pkg/mailer"
)

func testJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("test-access-secret", "test-refresh-secret", 30*time.Minute, 168*time.Hour)
}

func newTestAuthService() (*AuthService, *memUserRepo, *fakePublisher) {
	users := newMemUserRepo()
	pub := &fakePublisher{}
	svc := &AuthService{Repo: users, JWT: testJWT(), Pub: pub}
	return svc, users, pub
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, pub := newTestAuthService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice@example.com", "Alice", "secret-pass-1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected user id to be assigned")
	}
	if u.PasswordHash == "" || u.PasswordHash == "secret-pass-1" {
		t.Fatal("password must be stored as a hash")
	}
	if pub.count() != 1 {
		t.Errorf("expected 1 welcome job, got %d", pub.count())
	}

	got, pair, err := svc.Login(ctx, "alice@example.com", "secret-pass-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("login returned wrong user: %s != %s", got.ID, u.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty token pair")
	}
	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("subject claim = %q, want user email", claims.Subject)
	}
	if claims.UserID != u.ID {
		t.Errorf("uid claim = %q, want %q", claims.UserID, u.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "First", "password-one"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "dup@example.com", "Second", "password-two")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthenticateMergesFailureModes(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol@example.com", "Carol", "correct-horse"); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Account without a local credential, as created by an upstream import.
	_ = users.Create(&entity.User{Email: "ext@example.com", Name: "Ext"})

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown user", "nobody@example.com", "whatever"},
		{"wrong password", "carol@example.com", "battery-staple"},
		{"no stored hash", "ext@example.com", "anything"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginOrRegisterExternal(t *testing.T) {
	svc, _, pub := newTestAuthService()
	ctx := context.Background()

	u1, pair, err := svc.LoginOrRegisterExternal(ctx, "ext@example.com", "Ext User", "provider-uid-1")
	if err != nil {
		t.Fatalf("first external login: %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected tokens on first external login")
	}
	if pub.count() != 1 {
		t.Errorf("expected welcome job on account creation, got %d jobs", pub.count())
	}

	u2, _, err := svc.LoginOrRegisterExternal(ctx, "ext@example.com", "Ext User", "provider-uid-1")
	if err != nil {
		t.Fatalf("second external login: %v", err)
	}
	if u2.ID != u1.ID {
		t.Errorf("second login created a new account: %s != %s", u2.ID, u1.ID)
	}
	if pub.count() != 1 {
		t.Errorf("no extra welcome job expected, got %d jobs", pub.count())
	}

	// External accounts carry no password hash and stay closed to
	// first-party login, even with the external id as the password.
	if u1.PasswordHash != "" {
		t.Errorf("external account must have an empty password hash")
	}
	if _, err := svc.Authenticate(ctx, "ext@example.com", "provider-uid-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("first-party login on external account must fail, got %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave@example.com", "Dave", "refresh-me-1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, pair, err := svc.Login(ctx, "dave@example.com", "refresh-me-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.AccessToken == "" || next.RefreshToken == "" {
		t.Fatal("expected a full new pair from refresh")
	}

	if _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("access token must not work as refresh token, got %v", err)
	}
	if _, err := svc.Refresh(ctx, "not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("garbage refresh token: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "eve@example.com", "Eve", "profile-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{Name: "Eve Updated"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if got.Name != "Eve Updated" {
		t.Errorf("name = %q, want %q", got.Name, "Eve Updated")
	}
	if got.Email != "eve@example.com" {
		t.Errorf("email changed unexpectedly: %q", got.Email)
	}

	if _, err := svc.UpdateProfile(ctx, "missing-id", UpdateProfileInput{Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestLoginPublishesNotification(t *testing.T) {
	svc, _, pub := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "frank@example.com", "Frank", "notify-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Login(ctx, "frank@example.com", "notify-pass"); err != nil {
		t.Fatalf("login: %v", err)
	}
	// One welcome job plus one login notification.
	if pub.count() != 2 {
		t.Fatalf("expected 2 published jobs, got %d", pub.count())
	}
	job, ok := pub.jobs[1].(mailer.EmailJob)
	if !ok {
		t.Fatalf("unexpected job type %T", pub.jobs[1])
	}
	if job.Template != mailer.TemplateLoginNotification {
		t.Errorf("template = %q, want %q", job.Template, mailer.TemplateLoginNotification)
	}
}
