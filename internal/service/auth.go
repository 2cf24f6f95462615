package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/hr_portal/internal/hash"
	"github.com/Skotchmaster/hr_portal/internal/mailer"
	"github.com/Skotchmaster/hr_portal/internal/metrics"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
	"github.com/Skotchmaster/hr_portal/pkg/tokens"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	resetTokenTTL     = 24 * time.Hour
	emailTokenBytes   = 40
	minPasswordLength = 6
)

type AuthService struct {
	Repo       *repo.GormRepo
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Mailer     mailer.Sender
	MailFrom   string
	Events     mykafka.Publisher
}

type AuthResult struct {
	Account        *models.Account
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

type RegisterParams struct {
	Title       string
	FirstName   string
	LastName    string
	Email       string
	Password    string
	AcceptTerms bool
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return DefaultAccessTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

// Authenticate always runs a bcrypt comparison, also for unknown emails, so
// response timing does not reveal which addresses are registered.
func (s *AuthService) Authenticate(ctx context.Context, email, password, ip string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate")
	email = normalizeEmail(email)

	acc, err := s.Repo.GetAccountByEmail(ctx, email)
	if err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load account: %w", err)
	}

	var pwHash *string
	if acc != nil {
		pwHash = &acc.PasswordHash
	}
	ok := hash.CheckPasswordOrDummy(pwHash, password)

	switch {
	case acc == nil:
		metrics.ObserveLogin("unknown_account")
		l.Warn("login_failed", "status", 401, "reason", "unknown account")
		return nil, errUnknownAccount
	case !ok:
		metrics.ObserveLogin("bad_password")
		l.Warn("login_failed", "status", 401, "reason", "password mismatch", "account_id", acc.ID)
		return nil, ErrInvalidCredentials
	case !acc.IsVerified():
		metrics.ObserveLogin("not_verified")
		l.Warn("login_failed", "status", 403, "reason", "not verified", "account_id", acc.ID)
		return nil, ErrNotVerified
	case acc.Status == models.StatusInactive:
		metrics.ObserveLogin("inactive")
		l.Warn("login_failed", "status", 403, "reason", "inactive", "account_id", acc.ID)
		return nil, fmt.Errorf("%w: account is inactive", ErrForbidden)
	}

	res, err := s.issue(ctx, s.Repo, acc, ip, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	metrics.ObserveLogin("success")
	l.Info("login_successful", "account_id", acc.ID)
	publish(ctx, s.Events, mykafka.TopicAccountEvents, acc.ID, "account.logged_in", map[string]any{
		"account_id": acc.ID,
		"ip":         ip,
	})
	return res, nil
}

// issue signs an access token and persists a fresh refresh token through r,
// which may be bound to a transaction.
func (s *AuthService) issue(ctx context.Context, r *repo.GormRepo, acc *models.Account, ip string, now time.Time) (*AuthResult, error) {
	access, accessExp, err := tokens.SignAccessToken(acc.ID, acc.Email, acc.Role, s.accessTTL(), s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	raw, err := tokens.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	row := &models.RefreshToken{
		Token:       tokens.Sha256Hex(raw),
		Expires:     now.Add(s.refreshTTL()),
		CreatedByIP: ip,
		AccountID:   acc.ID,
	}
	if err := r.CreateRefreshToken(ctx, row); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResult{
		Account:        acc,
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   raw,
		RefreshExpires: row.Expires,
	}, nil
}

func (s *AuthService) activeRefreshToken(ctx context.Context, raw string, now time.Time) (*models.RefreshToken, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrInvalidToken)
	}
	stored, err := s.Repo.GetRefreshToken(ctx, tokens.Sha256Hex(raw))
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if !stored.IsActive(now) {
		return nil, ErrInvalidToken
	}
	return stored, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and
// replaced in one transaction, so presenting it again fails.
func (s *AuthService) RefreshToken(ctx context.Context, raw, ip string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")
	now := time.Now().UTC()

	stored, err := s.activeRefreshToken(ctx, raw, now)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		return nil, err
	}

	acc, err := s.Repo.GetAccountByID(ctx, stored.AccountID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acc.Status == models.StatusInactive {
		return nil, fmt.Errorf("%w: account is inactive", ErrForbidden)
	}

	var res *AuthResult
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		issued, err := s.issue(ctx, tx, acc, ip, now)
		if err != nil {
			return err
		}
		if err := tx.RevokeRefreshToken(ctx, stored.Token, ip, tokens.Sha256Hex(issued.RefreshToken), now); err != nil {
			if repo.IsNotFound(err) {
				return ErrInvalidToken
			}
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		res = issued
		return nil
	})
	if err != nil {
		l.Warn("refresh_failed", "account_id", acc.ID, "error", err)
		return nil, err
	}

	l.Info("refresh_successful", "account_id", acc.ID)
	return res, nil
}

func (s *AuthService) RevokeToken(ctx context.Context, raw, ip string) error {
	now := time.Now().UTC()
	stored, err := s.activeRefreshToken(ctx, raw, now)
	if err != nil {
		return err
	}
	if err := s.Repo.RevokeRefreshToken(ctx, stored.Token, ip, "", now); err != nil {
		if repo.IsNotFound(err) {
			return ErrInvalidToken
		}
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	logging.FromContext(ctx).Info("token_revoked", "account_id", stored.AccountID)
	return nil
}

// TokenOwner resolves the account a refresh token was issued to.
func (s *AuthService) TokenOwner(ctx context.Context, raw string) (uint, error) {
	stored, err := s.activeRefreshToken(ctx, raw, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return stored.AccountID, nil
}

// Register makes the very first account an already verified Admin. Later
// accounts are Users that must confirm their email.
func (s *AuthService) Register(ctx context.Context, p RegisterParams, origin string) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := normalizeEmail(p.Email)
	switch {
	case email == "":
		return nil, validationf("email is required")
	case len(p.Password) < minPasswordLength:
		return nil, validationf("password must be at least %d characters", minPasswordLength)
	case strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "":
		return nil, validationf("first and last name are required")
	case !p.AcceptTerms:
		return nil, validationf("terms must be accepted")
	}

	pwHash, err := hash.HashPassword(p.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var (
		acc      *models.Account
		rawToken string
	)
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.EmailTaken(ctx, email, 0)
		if err != nil {
			return err
		}
		if taken {
			return conflictf("email %q is already registered", email)
		}

		total, err := tx.CountAccounts(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		acc = &models.Account{
			Title:        strings.TrimSpace(p.Title),
			FirstName:    strings.TrimSpace(p.FirstName),
			LastName:     strings.TrimSpace(p.LastName),
			Email:        email,
			PasswordHash: pwHash,
			AcceptTerms:  p.AcceptTerms,
			Role:         models.RoleUser,
			Status:       models.StatusActive,
		}
		if total == 0 {
			acc.Role = models.RoleAdmin
			acc.Verified = &now
		} else {
			rawToken, err = tokens.NewOpaqueToken(emailTokenBytes)
			if err != nil {
				return err
			}
			h := tokens.Sha256Hex(rawToken)
			acc.VerificationToken = &h
		}

		if err := tx.CreateAccount(ctx, acc); err != nil {
			if repo.IsDuplicate(err) {
				return conflictf("email %q is already registered", email)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			l.Warn("register_error", "status", 409, "reason", "email already registered")
			return nil, err
		}
		return nil, fmt.Errorf("register account: %w", err)
	}

	if rawToken != "" {
		s.sendMail(ctx, mailer.VerificationEmail(s.MailFrom, acc.Email, origin, rawToken))
	}

	l.Info("register_successful", "account_id", acc.ID, "role", acc.Role)
	publish(ctx, s.Events, mykafka.TopicAccountEvents, acc.ID, "account.registered", map[string]any{
		"account_id": acc.ID,
		"role":       acc.Role,
	})
	return acc, nil
}

// sendMail is best effort. Failures are logged and never retried.
func (s *AuthService) sendMail(ctx context.Context, msg mailer.Message) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		logging.FromContext(ctx).Error("mail_failed", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	acc, err := s.Repo.GetAccountByVerificationToken(ctx, tokens.Sha256Hex(token))
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrInvalidToken
		}
		return fmt.Errorf("load account: %w", err)
	}

	now := time.Now().UTC()
	acc.Verified = &now
	acc.VerificationToken = nil
	if err := s.Repo.UpdateAccount(ctx, acc); err != nil {
		return fmt.Errorf("verify account: %w", err)
	}
	logging.FromContext(ctx).Info("email_verified", "account_id", acc.ID)
	return nil
}

// ForgotPassword never reports whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email, origin string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	acc, err := s.Repo.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repo.IsNotFound(err) {
			l.Info("reset_skipped", "reason", "unknown email")
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}

	raw, err := tokens.NewOpaqueToken(emailTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	h := tokens.Sha256Hex(raw)
	exp := time.Now().UTC().Add(resetTokenTTL)
	acc.ResetToken = &h
	acc.ResetTokenExpires = &exp
	if err := s.Repo.UpdateAccount(ctx, acc); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.sendMail(ctx, mailer.ResetPasswordEmail(s.MailFrom, acc.Email, origin, raw))
	l.Info("reset_requested", "account_id", acc.ID)
	return nil
}

func (s *AuthService) accountByResetToken(ctx context.Context, r *repo.GormRepo, token string) (*models.Account, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	acc, err := r.GetAccountByResetToken(ctx, tokens.Sha256Hex(token), time.Now().UTC())
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acc, nil
}

func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.accountByResetToken(ctx, s.Repo, token)
	return err
}

// ResetPassword also revokes every refresh token of the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, ip string) error {
	if len(password) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var accountID uint
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		acc, err := s.accountByResetToken(ctx, tx, token)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		acc.PasswordHash = pwHash
		acc.PasswordReset = &now
		acc.ResetToken = nil
		acc.ResetTokenExpires = nil
		if err := tx.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		if _, err := tx.RevokeAccountRefreshTokens(ctx, acc.ID, ip, now); err != nil {
			return err
		}
		accountID = acc.ID
		return nil
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("password_reset", "account_id", accountID)
	return nil
}
