package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/hr_portal/internal/hash"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

type AccountService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
}

type AccountInput struct {
	Title     string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
	Status    string
}

type AccountPatch struct {
	Title     *string
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *string
	Status    *string
}

func validRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleUser
}

func validAccountStatus(status string) bool {
	return status == models.StatusActive || status == models.StatusInactive
}

func (s *AccountService) GetAll(ctx context.Context) ([]models.Account, error) {
	out, err := s.Repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	acc, err := s.Repo.GetAccountByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundf("account %d", id)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acc, nil
}

// Create is the admin path: accounts made here are verified immediately.
func (s *AccountService) Create(ctx context.Context, in AccountInput) (*models.Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, validationf("email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationf("password must be at least %d characters", minPasswordLength)
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !validRole(in.Role) {
		return nil, validationf("role must be %s or %s", models.RoleAdmin, models.RoleUser)
	}
	if in.Status == "" {
		in.Status = models.StatusActive
	}
	if !validAccountStatus(in.Status) {
		return nil, validationf("status must be %s or %s", models.StatusActive, models.StatusInactive)
	}

	taken, err := s.Repo.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, conflictf("email %q is already registered", email)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	acc := &models.Account{
		Title:        strings.TrimSpace(in.Title),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: pwHash,
		AcceptTerms:  true,
		Role:         in.Role,
		Status:       in.Status,
		Verified:     &now,
	}
	if err := s.Repo.CreateAccount(ctx, acc); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflictf("email %q is already registered", email)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	logging.FromContext(ctx).Info("account_created", "account_id", acc.ID, "role", acc.Role)
	publish(ctx, s.Events, mykafka.TopicAccountEvents, acc.ID, "account.created", map[string]any{"account_id": acc.ID})
	return acc, nil
}

func (s *AccountService) Update(ctx context.Context, id uint, p AccountPatch) (*models.Account, error) {
	acc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Email != nil {
		email := normalizeEmail(*p.Email)
		if email == "" {
			return nil, validationf("email must not be empty")
		}
		if email != acc.Email {
			taken, err := s.Repo.EmailTaken(ctx, email, acc.ID)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if taken {
				return nil, conflictf("email %q is already registered", email)
			}
			acc.Email = email
		}
	}
	if p.Password != nil && *p.Password != "" {
		if len(*p.Password) < minPasswordLength {
			return nil, validationf("password must be at least %d characters", minPasswordLength)
		}
		pwHash, err := hash.HashPassword(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		acc.PasswordHash = pwHash
	}
	if p.Role != nil {
		if !validRole(*p.Role) {
			return nil, validationf("role must be %s or %s", models.RoleAdmin, models.RoleUser)
		}
		acc.Role = *p.Role
	}
	if p.Status != nil {
		if !validAccountStatus(*p.Status) {
			return nil, validationf("status must be %s or %s", models.StatusActive, models.StatusInactive)
		}
		acc.Status = *p.Status
	}
	if p.Title != nil {
		acc.Title = strings.TrimSpace(*p.Title)
	}
	if p.FirstName != nil {
		acc.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		acc.LastName = strings.TrimSpace(*p.LastName)
	}

	if err := s.Repo.UpdateAccount(ctx, acc); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflictf("email %q is already registered", acc.Email)
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return acc, nil
}

// Delete removes the account. The linked employee and its requests follow
// through ON DELETE CASCADE.
func (s *AccountService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteAccount(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return notFoundf("account %d", id)
		}
		return fmt.Errorf("delete account: %w", err)
	}
	logging.FromContext(ctx).Info("account_deleted", "account_id", id)
	publish(ctx, s.Events, mykafka.TopicAccountEvents, id, "account.deleted", map[string]any{"account_id": id})
	return nil
}
