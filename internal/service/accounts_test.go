package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/hash"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	"github.com/Skotchmaster/hr_portal/internal/testutil"
)

func TestAccountService_Create(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	ev := &mykafka.Recorder{}
	svc := &AccountService{Repo: r, Events: ev}
	ctx := context.Background()

	acc, err := svc.Create(ctx, AccountInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "Grace@Example.com",
		Password:  testutil.Password,
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", acc.Email)
	assert.Equal(t, models.RoleUser, acc.Role)
	assert.Equal(t, models.StatusActive, acc.Status)
	assert.True(t, acc.IsVerified())
	assert.True(t, hash.CheckPassword(acc.PasswordHash, testutil.Password))
	assert.Equal(t, []string{"account.created"}, ev.Types())

	_, err = svc.Create(ctx, AccountInput{Email: "grace@example.com", Password: testutil.Password})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, AccountInput{Email: "x@example.com", Password: testutil.Password, Role: "Root"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, AccountInput{Email: "y@example.com", Password: "1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAccountService_Update(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	svc := &AccountService{Repo: r}
	ctx := context.Background()
	acc := testutil.Account(t, r, models.RoleUser)
	other := testutil.Account(t, r, models.RoleUser)

	role := models.RoleAdmin
	first := "Renamed"
	pw := "AnotherSecret1"
	updated, err := svc.Update(ctx, acc.ID, AccountPatch{Role: &role, FirstName: &first, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, "Renamed", updated.FirstName)
	assert.True(t, hash.CheckPassword(updated.PasswordHash, pw))

	stored, err := svc.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)

	taken := other.Email
	_, err = svc.Update(ctx, acc.ID, AccountPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	bad := "Suspended"
	_, err = svc.Update(ctx, acc.ID, AccountPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, 9999, AccountPatch{FirstName: &first})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountService_DeleteCascadesToEmployee(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	svc := &AccountService{Repo: r}
	emps := &EmployeeService{Repo: r}
	reqs := &RequestService{Repo: r}
	ctx := context.Background()

	acc := testutil.Account(t, r, models.RoleUser)
	emp := testutil.EmployeeFor(t, r, acc, nil)
	req, err := reqs.Create(ctx, RequestInput{Type: "Leave", EmployeeID: emp.ID, Items: []ItemInput{{Name: "Day"}}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, acc.ID))
	assert.ErrorIs(t, svc.Delete(ctx, acc.ID), ErrNotFound)

	_, err = emps.GetByID(ctx, emp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = reqs.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
