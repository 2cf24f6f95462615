package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/hr_portal/internal/dedupe"
	"github.com/Skotchmaster/hr_portal/internal/metrics"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

type RequestService struct {
	Repo   *repo.GormRepo
	Guard  dedupe.Guard
	Events mykafka.Publisher
}

type RequestInput struct {
	Type       string
	Status     string
	EmployeeID uint
	Items      []ItemInput
}

// RequestPatch leaves a field untouched when it is nil. A non-nil Items
// replaces the whole item list through DiffItems.
type RequestPatch struct {
	Type       *string
	Status     *string
	EmployeeID *uint
	Items      *[]ItemInput
}

func requestStatus(s string) (string, error) {
	s = models.NormalizeRequestStatus(strings.TrimSpace(s))
	switch s {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		return s, nil
	default:
		return "", validationf("status must be one of Pending, Approved, Rejected")
	}
}

func (s *RequestService) guard() dedupe.Guard {
	if s.Guard == nil {
		return dedupe.Nop{}
	}
	return s.Guard
}

func (s *RequestService) Create(ctx context.Context, in RequestInput) (*models.Request, error) {
	l := logging.FromContext(ctx).With("svc", "request.create")

	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return nil, validationf("type is required")
	}
	if in.EmployeeID == 0 {
		return nil, validationf("employeeId is required")
	}
	status := models.StatusPending
	if in.Status != "" {
		var err error
		if status, err = requestStatus(in.Status); err != nil {
			return nil, err
		}
	}
	diff, err := DiffItems(nil, in.Items)
	if err != nil {
		return nil, err
	}

	exists, err := s.Repo.EmployeeExists(ctx, in.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("check employee: %w", err)
	}
	if !exists {
		return nil, notFoundf("employee %d", in.EmployeeID)
	}

	key := dedupe.Key(typ, in.EmployeeID)
	ok, err := s.guard().Acquire(ctx, key)
	if err != nil {
		l.Warn("dedupe_unavailable", "error", err)
		ok = true
	}
	if !ok {
		metrics.IncDuplicateSubmissions()
		l.Warn("duplicate_submission", "status", 409, "type", typ, "employee_id", in.EmployeeID)
		return nil, conflictf("an identical %s request was submitted moments ago", typ)
	}

	req := &models.Request{
		Type:       typ,
		Status:     status,
		EmployeeID: in.EmployeeID,
		Items:      diff.Insert,
	}
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.CreateRequest(ctx, req)
	})
	if err != nil {
		if rerr := s.guard().Release(ctx, key); rerr != nil {
			l.Warn("dedupe_release_failed", "error", rerr)
		}
		return nil, fmt.Errorf("create request: %w", err)
	}

	metrics.IncRequestsCreated()
	l.Info("request_created", "request_id", req.ID, "items", len(req.Items))
	publish(ctx, s.Events, mykafka.TopicRequestEvents, req.ID, "request.created", map[string]any{
		"request_id":  req.ID,
		"employee_id": req.EmployeeID,
		"type":        req.Type,
	})
	return s.GetByID(ctx, req.ID)
}

func (s *RequestService) GetAll(ctx context.Context, f repo.RequestFilter) ([]models.Request, error) {
	if f.Status != "" {
		st, err := requestStatus(f.Status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	out, err := s.Repo.ListRequests(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

func (s *RequestService) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	req, err := s.Repo.GetRequest(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundf("request %d", id)
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	return req, nil
}

// Update applies the patch and reconciles items in one transaction: inserts,
// then updates, then deletes.
func (s *RequestService) Update(ctx context.Context, id uint, p RequestPatch) (*models.Request, error) {
	var diff ItemDiff
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		req, err := tx.GetRequest(ctx, id)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFoundf("request %d", id)
			}
			return err
		}

		if p.Type != nil {
			typ := strings.TrimSpace(*p.Type)
			if typ == "" {
				return validationf("type must not be empty")
			}
			req.Type = typ
		}
		if p.Status != nil {
			st, err := requestStatus(*p.Status)
			if err != nil {
				return err
			}
			req.Status = st
		}
		if p.EmployeeID != nil && *p.EmployeeID != req.EmployeeID {
			ok, err := tx.EmployeeExists(ctx, *p.EmployeeID)
			if err != nil {
				return err
			}
			if !ok {
				return notFoundf("employee %d", *p.EmployeeID)
			}
			req.EmployeeID = *p.EmployeeID
		}

		req.Employee = nil
		if err := tx.UpdateRequestRow(ctx, req); err != nil {
			return err
		}

		if p.Items == nil {
			return nil
		}
		existing, err := tx.GetRequestItems(ctx, req.ID)
		if err != nil {
			return err
		}
		diff, err = DiffItems(existing, *p.Items)
		if err != nil {
			return err
		}
		for i := range diff.Insert {
			diff.Insert[i].RequestID = req.ID
		}
		if err := tx.CreateRequestItems(ctx, diff.Insert); err != nil {
			return err
		}
		for _, it := range diff.Update {
			if err := tx.UpdateRequestItem(ctx, it); err != nil {
				return err
			}
		}
		return tx.DeleteRequestItems(ctx, req.ID, diff.Delete)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("update request: %w", err)
	}

	logging.FromContext(ctx).Info("request_updated", "request_id", id,
		"items_inserted", len(diff.Insert), "items_updated", len(diff.Update), "items_deleted", len(diff.Delete))
	publish(ctx, s.Events, mykafka.TopicRequestEvents, id, "request.updated", map[string]any{"request_id": id})
	return s.GetByID(ctx, id)
}

func (s *RequestService) Delete(ctx context.Context, id uint) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteRequest(ctx, id)
	})
	if err != nil {
		if repo.IsNotFound(err) {
			return notFoundf("request %d", id)
		}
		return fmt.Errorf("delete request: %w", err)
	}
	logging.FromContext(ctx).Info("request_deleted", "request_id", id)
	publish(ctx, s.Events, mykafka.TopicRequestEvents, id, "request.deleted", map[string]any{"request_id": id})
	return nil
}
