// Package users implements the account workflows: local signup and login,
// Google sign-in, and the password-reset loop.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"musica/internal/mailer"
	"musica/internal/store"
)

// ErrInvalidResetToken rejects an expired or tampered password-reset token.
var ErrInvalidResetToken = errors.New("invalid reset token")

// resetTokenTTL bounds how long a reset link stays usable.
const resetTokenTTL = time.Hour

// Accounts is the persistence surface the account workflows need.
type Accounts interface {
	CreateUser(ctx context.Context, email, password, displayName string) error
	Authenticate(ctx context.Context, email, password string) (string, error)
	CreateSession(ctx context.Context, userID int64) (string, error)
	DeleteSession(ctx context.Context, token string) error
	UserByToken(ctx context.Context, token string) (store.User, error)
	FindOrCreateGoogleUser(ctx context.Context, googleID, email, displayName string) (int64, error)
	MarkAwaitingReset(ctx context.Context, email string) (store.User, error)
	CompleteReset(ctx context.Context, userID int64, newPassword string) error
}

// Config carries the workflow settings built in the entry point.
type Config struct {
	// Google is the OAuth code-flow configuration. A zero ClientID disables
	// Google sign-in.
	Google oauth2.Config
	// GoogleUserInfoURL is the endpoint queried for the signed-in profile.
	GoogleUserInfoURL string
	// ResetSecret signs password-reset tokens.
	ResetSecret []byte
	// ResetURL is the base link mailed out; the token is appended as a query
	// parameter.
	ResetURL string
}

// Service runs the account workflows.
type Service struct {
	accounts Accounts
	mailer   mailer.Mailer
	cfg      Config
}

// New wires the user service.
func New(accounts Accounts, m mailer.Mailer, cfg Config) *Service {
	if cfg.GoogleUserInfoURL == "" {
		cfg.GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}
	return &Service{accounts: accounts, mailer: m, cfg: cfg}
}

// Signup registers a local account.
func (s *Service) Signup(ctx context.Context, email, password, displayName string) error {
	return s.accounts.CreateUser(ctx, email, password, displayName)
}

// Login validates credentials and returns a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	return s.accounts.Authenticate(ctx, email, password)
}

// Logout revokes the session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.accounts.DeleteSession(ctx, token)
}

// Me resolves the session token to its account.
func (s *Service) Me(ctx context.Context, token string) (store.User, error) {
	return s.accounts.UserByToken(ctx, token)
}

// GoogleAuthURL returns the consent-screen redirect target for the given
// anti-forgery state.
func (s *Service) GoogleAuthURL(state string) string {
	return s.cfg.Google.AuthCodeURL(state)
}

type googleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleCallback exchanges the authorization code, resolves the Google
// profile to a local account, and returns a session token.
func (s *Service) GoogleCallback(ctx context.Context, code string) (string, error) {
	oauthToken, err := s.cfg.Google.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}

	profile, err := s.fetchGoogleProfile(ctx, oauthToken)
	if err != nil {
		return "", err
	}

	userID, err := s.accounts.FindOrCreateGoogleUser(ctx, profile.ID, profile.Email, profile.Name)
	if err != nil {
		return "", err
	}

	return s.accounts.CreateSession(ctx, userID)
}

func (s *Service) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.GoogleUserInfoURL, nil)
	if err != nil {
		return googleProfile{}, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := s.cfg.Google.Client(ctx, token).Do(req)
	if err != nil {
		return googleProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return googleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.ID == "" || profile.Email == "" {
		return googleProfile{}, fmt.Errorf("userinfo response missing id or email")
	}
	return profile, nil
}

// RequestReset flags the account and mails a signed reset link. Unknown
// addresses are reported as success so the endpoint does not leak which
// emails have accounts.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	user, err := s.accounts.MarkAwaitingReset(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := s.newResetToken(user.ID)
	if err != nil {
		return fmt.Errorf("sign reset token: %w", err)
	}

	link := s.cfg.ResetURL + "?token=" + token
	body := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account. Follow the link below within one hour to choose a new password:\n\n%s\n\nIf you did not request this, you can ignore this message.\n",
		user.DisplayName, link,
	)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// ConfirmReset verifies the reset token and sets the new password.
func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string) error {
	userID, err := s.parseResetToken(token)
	if err != nil {
		return err
	}
	return s.accounts.CompleteReset(ctx, userID, newPassword)
}

func (s *Service) newResetToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.ResetSecret)
}

func (s *Service) parseResetToken(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.ResetSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidResetToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidResetToken
	}
	return userID, nil
}
