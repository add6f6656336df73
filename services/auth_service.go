package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"proteinid/models"
	"proteinid/utils"

	"github.com/hashicorp/go-hclog"
)

const (
	minPasswordLength = 6
	resetCodeLength   = 6
	resetCodeTTL      = 15 * time.Minute
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
)

type Mailer interface {
	SendResetEmail(ctx context.Context, to, code string) error
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	accounts AccountStore
	profiles ProfileStore
	mailer   Mailer
	secret   []byte
	tokenTTL time.Duration
	log      hclog.Logger

	Now func() time.Time
}

// NewAuthService wires the identity provider. mailer may be nil, in which
// case reset codes are only logged at debug level.
func NewAuthService(accounts AccountStore, profiles ProfileStore, mailer Mailer, secret []byte, tokenTTL time.Duration, log hclog.Logger) *AuthService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &AuthService{
		accounts: accounts,
		profiles: profiles,
		mailer:   mailer,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log.Named("auth"),
		Now:      time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return email, nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return nil
}

// Register creates the account and its profile and signs the user in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Email: email, Password: hash, DisplayName: name}
	if err := s.accounts.CreateAccount(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.profiles.SaveProfile(ctx, &models.UserProfile{UserID: user.ID, Name: name, Email: email}); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.log.Info("account registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.accounts.AccountByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	tok, err := utils.GenerateJWT(s.secret, user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{Token: tok, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.accounts.AccountByID(ctx, userID)
}

// ForgotPassword mails a short-lived reset code. Unknown addresses are
// not reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.accounts.AccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	code, err := utils.GenerateRandomToken(resetCodeLength)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	user.ResetToken = code
	user.ResetTokenExp = s.Now().Add(resetCodeTTL)
	if err := s.accounts.SaveAccount(ctx, user); err != nil {
		return fmt.Errorf("save reset code: %w", err)
	}

	if s.mailer == nil {
		s.log.Debug("mailer not configured, reset code not sent", "user_id", user.ID)
		return nil
	}
	if err := s.mailer.SendResetEmail(ctx, user.Email, code); err != nil {
		return err
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	user, err := s.accounts.AccountByResetToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if s.Now().After(user.ResetTokenExp) {
		return ErrInvalidResetToken
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash
	user.ResetToken = ""
	user.ResetTokenExp = time.Time{}
	if err := s.accounts.SaveAccount(ctx, user); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	s.log.Info("password reset", "user_id", user.ID)
	return nil
}
