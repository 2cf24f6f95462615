// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/hash"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	pkgdb "github.com/Skotchmaster/hr_portal/pkg/db"
)

const Password = "Secret123"

var seq atomic.Int64

// NewRepo opens a private in-memory SQLite database with foreign keys on and
// the schema migrated.
func NewRepo(t testing.TB) *repo.GormRepo {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := repo.New(db)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func next() int64 { return seq.Add(1) }

var passwordHash = func() string {
	h, err := hash.HashPassword(Password)
	if err != nil {
		panic(err)
	}
	return h
}()

// Account inserts a verified, active account with Password.
func Account(t testing.TB, r *repo.GormRepo, role string) *models.Account {
	t.Helper()

	n := next()
	now := time.Now().UTC()
	acc := &models.Account{
		FirstName:    "First",
		LastName:     fmt.Sprintf("Last%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: passwordHash,
		AcceptTerms:  true,
		Role:         role,
		Status:       models.StatusActive,
		Verified:     &now,
	}
	require.NoError(t, r.CreateAccount(context.Background(), acc))
	return acc
}

func Department(t testing.TB, r *repo.GormRepo, name string) *models.Department {
	t.Helper()

	d := &models.Department{Name: name}
	require.NoError(t, r.CreateDepartment(context.Background(), d))
	return d
}

// Employee inserts an employee linked to a fresh User account.
func Employee(t testing.TB, r *repo.GormRepo, dept *models.Department) *models.Employee {
	t.Helper()

	acc := Account(t, r, models.RoleUser)
	return EmployeeFor(t, r, acc, dept)
}

func EmployeeFor(t testing.TB, r *repo.GormRepo, acc *models.Account, dept *models.Department) *models.Employee {
	t.Helper()

	e := &models.Employee{
		EmployeeID: fmt.Sprintf("E-%04d", next()),
		Position:   "Engineer",
		HireDate:   time.Now().UTC(),
		Status:     models.StatusActive,
		UserID:     acc.ID,
	}
	if dept != nil {
		e.DepartmentID = &dept.ID
	}
	require.NoError(t, r.CreateEmployee(context.Background(), e))
	return e
}
