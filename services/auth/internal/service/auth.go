package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/worknomads/pkg/events"
	pkg_hash "github.com/Skotchmaster/worknomads/pkg/hash"
	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
	"github.com/Skotchmaster/worknomads/pkg/tokens"
	"github.com/Skotchmaster/worknomads/services/auth/internal/models"
	"github.com/Skotchmaster/worknomads/services/auth/internal/repo"
	"github.com/Skotchmaster/worknomads/services/auth/internal/transport"
)

const defaultMinPasswordLength = 8

// dummyHash keeps login timing similar for unknown accounts.
var dummyHash, _ = pkg_hash.HashPassword("unknown-account-placeholder")

type AuthService struct {
	Repo              *repo.GormRepo
	Tokens            *tokens.Signer
	Events            events.Publisher
	MinPasswordLength int
}

func (s *AuthService) minPasswordLength() int {
	if s.MinPasswordLength > 0 {
		return s.MinPasswordLength
	}
	return defaultMinPasswordLength
}

func (s *AuthService) Register(ctx context.Context, in transport.RegisterRequest) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	verr := &ValidationError{}
	if in.Username == "" {
		verr.add("username", "This field is required.")
	}
	if in.Password == "" {
		verr.add("password", "This field is required.")
	}
	if err := verr.orNil(); err != nil {
		metrics.RecordAuth("register", "invalid")
		return nil, err
	}

	taken, err := s.Repo.UsernameTaken(ctx, in.Username)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot check username", "error", err)
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		verr.add("username", "A user with that username already exists.")
	}
	for _, p := range checkPassword(in.Password, s.minPasswordLength(), passwordContext{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}) {
		verr.add("password", p)
	}
	if err := verr.orNil(); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		metrics.RecordAuth("register", "invalid")
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.Repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 400, "reason", "user already exist")
			metrics.RecordAuth("register", "invalid")
			return nil, &ValidationError{Fields: map[string][]string{
				"username": {"A user with that username already exists."},
			}}
		}
		l.Error("register_error", "status", 500, "reason", "cannot create account", "error", err)
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.publish(ctx, events.TopicUserEvents, strconv.FormatUint(uint64(account.ID), 10),
		events.NewUserRegistered(account.ID, account.Username, account.Email))

	metrics.RecordAuth("register", "success")
	l.Info("register_success", "status", 201, "user_id", account.ID)
	return account, nil
}

// Login accepts a username or an email as identifier. Emails are resolved
// to a username first; an unmatched email is then tried as a username.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	identifier = strings.TrimSpace(identifier)
	verr := &ValidationError{}
	if identifier == "" {
		verr.add("username", "This field is required.")
	}
	if password == "" {
		verr.add("password", "This field is required.")
	}
	if err := verr.orNil(); err != nil {
		metrics.RecordAuth("login", "invalid")
		return nil, err
	}

	username := identifier
	if strings.Contains(identifier, "@") {
		resolved, err := s.Repo.UsernameByEmail(ctx, identifier)
		switch {
		case err == nil:
			username = resolved
		case errors.Is(err, repo.ErrUserNotFound):
		default:
			l.Error("login_failed", "status", 500, "reason", "email lookup", "error", err)
			return nil, fmt.Errorf("resolve email: %w", err)
		}
	}

	account, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			pkg_hash.CheckPassword(dummyHash, password)
			l.Warn("login_failed", "status", 401, "reason", "unknown account")
			metrics.RecordAuth("login", "denied")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !pkg_hash.CheckPassword(account.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "bad password", "user_id", account.ID)
		metrics.RecordAuth("login", "denied")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.IssuePair(identityOf(account))
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	metrics.RecordAuth("login", "success")
	l.Info("login_successful", "user_id", account.ID)
	return pair, nil
}

// Refresh issues a new access token from a valid refresh token. The refresh
// token itself is neither rotated nor revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if strings.TrimSpace(refreshToken) == "" {
		metrics.RecordAuth("refresh", "invalid")
		return "", time.Time{}, &ValidationError{Fields: map[string][]string{"refresh": {"This field is required."}}}
	}

	claims, err := s.Tokens.Verifier().Refresh(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		metrics.RecordAuth("refresh", "denied")
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	access, exp, err := s.Tokens.IssueAccess(claims.Identity())
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return "", time.Time{}, fmt.Errorf("issue access: %w", err)
	}

	metrics.RecordAuth("refresh", "success")
	return access, exp, nil
}

func (s *AuthService) publish(ctx context.Context, topic, key string, event any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "error", err)
	}
}

func identityOf(a *models.Account) tokens.Identity {
	return tokens.Identity{
		UserID:    strconv.FormatUint(uint64(a.ID), 10),
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
}
