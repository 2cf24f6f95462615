package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

// DefaultDedupeWindow is the gap under which two pending requests of the same
// type for the same employee count as one submission.
const DefaultDedupeWindow = time.Minute

// MaintenanceService holds idempotent reconciliation jobs. Each returns a
// report of what it changed, so running it twice reports nothing the second
// time.
type MaintenanceService struct {
	Repo *repo.GormRepo
}

type DedupeReport struct {
	Scanned int    `json:"scanned"`
	Groups  int    `json:"groups"`
	Removed []uint `json:"removed"`
}

type RepairReport struct {
	RequestID       uint  `json:"requestId"`
	Reassigned      bool  `json:"reassigned"`
	FromEmployeeID  uint  `json:"fromEmployeeId"`
	ToEmployeeID    uint  `json:"toEmployeeId"`
	ItemsNormalized int64 `json:"itemsNormalized"`
}

type OrphanReport struct {
	Requests  []uint `json:"requests"`
	Workflows []uint `json:"workflows"`
}

type TokenPurgeReport struct {
	Removed int64 `json:"removed"`
}

// Deduplicate keeps the earliest pending request of each (employee, type)
// burst and removes the later ones created within window of it.
func (s *MaintenanceService) Deduplicate(ctx context.Context, window time.Duration) (*DedupeReport, error) {
	if window <= 0 {
		window = DefaultDedupeWindow
	}

	pending, err := s.Repo.ListPendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	report := &DedupeReport{Scanned: len(pending), Removed: []uint{}}
	groups := map[string]bool{}
	var anchor *models.Request
	for i := range pending {
		req := &pending[i]
		if anchor == nil || anchor.EmployeeID != req.EmployeeID || anchor.Type != req.Type {
			anchor = req
			continue
		}
		if req.CreatedAt.Sub(anchor.CreatedAt) <= window {
			report.Removed = append(report.Removed, req.ID)
			groups[fmt.Sprintf("%d/%s", req.EmployeeID, req.Type)] = true
			continue
		}
		anchor = req
	}
	report.Groups = len(groups)

	if len(report.Removed) > 0 {
		err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			_, err := tx.DeleteRequestsByIDs(ctx, report.Removed)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("delete duplicates: %w", err)
		}
	}

	logging.FromContext(ctx).Info("dedupe_completed", "scanned", report.Scanned, "groups", report.Groups, "removed", len(report.Removed))
	return report, nil
}

func (s *MaintenanceService) DeleteAllRequests(ctx context.Context) (int64, error) {
	var n int64
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		n, err = tx.DeleteAllRequests(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete all requests: %w", err)
	}
	logging.FromContext(ctx).Warn("requests_purged", "count", n)
	return n, nil
}

// RepairRequest points a request at employeeID when given, and lifts item
// quantities below 1 to 1. A request whose employee is gone needs employeeID.
func (s *MaintenanceService) RepairRequest(ctx context.Context, id uint, employeeID *uint) (*RepairReport, error) {
	report := &RepairReport{RequestID: id}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		req, err := tx.GetRequest(ctx, id)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFoundf("request %d", id)
			}
			return err
		}
		report.FromEmployeeID = req.EmployeeID
		report.ToEmployeeID = req.EmployeeID

		if employeeID != nil && *employeeID != req.EmployeeID {
			ok, err := tx.EmployeeExists(ctx, *employeeID)
			if err != nil {
				return err
			}
			if !ok {
				return validationf("employee %d does not exist", *employeeID)
			}
			if err := tx.ReassignRequest(ctx, id, *employeeID); err != nil {
				return err
			}
			report.Reassigned = true
			report.ToEmployeeID = *employeeID
		} else {
			ok, err := tx.EmployeeExists(ctx, req.EmployeeID)
			if err != nil {
				return err
			}
			if !ok {
				return validationf("request %d references missing employee %d, supply employeeId", id, req.EmployeeID)
			}
		}

		n, err := tx.NormalizeItemQuantities(ctx, id)
		if err != nil {
			return err
		}
		report.ItemsNormalized = n
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("repair request: %w", err)
	}

	logging.FromContext(ctx).Info("request_repaired", "request_id", id, "reassigned", report.Reassigned, "items_normalized", report.ItemsNormalized)
	return report, nil
}

func (s *MaintenanceService) ScanOrphans(ctx context.Context) (*OrphanReport, error) {
	reqs, err := s.Repo.OrphanedRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan requests: %w", err)
	}
	wfs, err := s.Repo.OrphanedWorkflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan workflows: %w", err)
	}

	report := &OrphanReport{Requests: make([]uint, 0, len(reqs)), Workflows: make([]uint, 0, len(wfs))}
	for _, r := range reqs {
		report.Requests = append(report.Requests, r.ID)
	}
	for _, w := range wfs {
		report.Workflows = append(report.Workflows, w.ID)
	}
	return report, nil
}

// PurgeRefreshTokens drops refresh tokens that expired or were revoked before
// now minus retention.
func (s *MaintenanceService) PurgeRefreshTokens(ctx context.Context, retention time.Duration) (*TokenPurgeReport, error) {
	n, err := s.Repo.DeleteStaleRefreshTokens(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return nil, fmt.Errorf("purge refresh tokens: %w", err)
	}
	logging.FromContext(ctx).Info("refresh_tokens_purged", "count", n)
	return &TokenPurgeReport{Removed: n}, nil
}
