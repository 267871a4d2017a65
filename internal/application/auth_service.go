package application

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
	repo "github.com/pdgmail/pdgmail/internal/domain/repository"
	"github.com/pdgmail/pdgmail/pkg/helpers"
	"github.com/pdgmail/pdgmail/pkg/mailer"
)

// AuthService orchestrates registration, credential checks and token
// issuance. GCS and the job publisher are optional collaborators; a nil
// value disables avatar uploads and notification emails respectively.
type AuthService struct {
	Repo      repo.UserRepository
	JWT       *helpers.JWTManager
	Pub       JobPublisher
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
}

func NewAuthService(repo repo.UserRepository, jwt *helpers.JWTManager, pub JobPublisher, gcs *storage.Client, gcsBucket string, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Repo:      repo,
		JWT:       jwt,
		Pub:       pub,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		Logger:    logger,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// Register creates a new account with a bcrypt password hash.
// The returned user carries the hash internally; handlers expose only the
// public view.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*entity.User, error) {
	if existing, err := s.Repo.GetByEmail(email); err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.Repo.Create(u); err != nil {
		return nil, err
	}

	s.notify(ctx, u.Email, mailer.TemplateWelcome, map[string]any{"Name": u.Name})
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing
// tokens. Unknown user, missing stored hash and wrong password are all
// reported as the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates the access/refresh token pair for a user. The access
// token's subject claim is the user's email.
func (s *AuthService) IssueTokens(u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.notify(ctx, u.Email, mailer.TemplateLoginNotification, map[string]any{
		"Name": u.Name,
		"Time": time.Now().UTC().Format(time.RFC1123),
	})
	return u, pair, nil
}

// LoginOrRegisterExternal signs in a user whose identity was verified by an
// external provider out-of-band. On first sight the account is created with
// an empty password hash, which keeps first-party password login closed for
// it. Tokens are always issued.
func (s *AuthService) LoginOrRegisterExternal(ctx context.Context, email, name, externalID string) (*entity.User, TokenPair, error) {
	if externalID == "" {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByEmail(email)
	if err != nil || u == nil {
		u = &entity.User{Email: email, Name: name}
		if cerr := s.Repo.Create(u); cerr != nil {
			return nil, TokenPair{}, cerr
		}
		s.notify(ctx, u.Email, mailer.TemplateWelcome, map[string]any{"Name": u.Name})
	}
	pair, err := s.IssueTokens(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the token pair from a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.IssueTokens(u)
}

func (s *AuthService) GetProfile(userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name      string
	AvatarURL string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.AvatarURL != "" {
		u.AvatarURL = in.AvatarURL
	}
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

// UploadAvatar stores an avatar image in GCS and updates the profile.
func (s *AuthService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil || u == nil {
		return "", ErrNotFound
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", ErrNotFound
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Repo.Update(u); err != nil {
		return "", err
	}
	return url, nil
}

// notify publishes a notification email job. Best effort: failures are
// logged and never surfaced to the caller.
func (s *AuthService) notify(ctx context.Context, to, template string, data map[string]any) {
	if s.Pub == nil {
		return
	}
	job := mailer.EmailJob{To: to, Template: template, Data: data}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", template).Warn("failed to publish email job")
	}
}
