package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/testutil"
)

func TestDepartmentService_CRUD(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	svc := &DepartmentService{Repo: r}
	ctx := context.Background()

	d, err := svc.Create(ctx, DepartmentInput{Name: " Engineering ", Description: "Builds things"})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", d.Name)

	_, err = svc.Create(ctx, DepartmentInput{Name: "engineering"})
	assert.ErrorIs(t, err, ErrConflict, "names are unique regardless of case")

	_, err = svc.Create(ctx, DepartmentInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	testutil.Employee(t, r, d)
	testutil.Employee(t, r, d)

	got, err := svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.EmployeeCount)

	ops, err := svc.Create(ctx, DepartmentInput{Name: "Operations"})
	require.NoError(t, err)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	counts := map[uint]int64{}
	for _, dep := range all {
		counts[dep.ID] = dep.EmployeeCount
	}
	assert.Equal(t, int64(2), counts[d.ID])
	assert.Equal(t, int64(0), counts[ops.ID])

	name := "Engineering"
	_, err = svc.Update(ctx, ops.ID, DepartmentPatch{Name: &name})
	assert.ErrorIs(t, err, ErrConflict)

	desc := "Keeps the lights on"
	updated, err := svc.Update(ctx, ops.ID, DepartmentPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	_, err = svc.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDepartmentService_DeleteDetachesEmployees(t *testing.T) {
	t.Parallel()

	r := testutil.NewRepo(t)
	svc := &DepartmentService{Repo: r}
	emps := &EmployeeService{Repo: r}
	ctx := context.Background()

	d := testutil.Department(t, r, "Legal")
	e := testutil.Employee(t, r, d)

	require.NoError(t, svc.Delete(ctx, d.ID))
	assert.ErrorIs(t, svc.Delete(ctx, d.ID), ErrNotFound)

	after, err := emps.GetByID(ctx, e.ID)
	require.NoError(t, err, "employees survive their department")
	assert.Nil(t, after.DepartmentID)
	assert.Nil(t, after.Department)
}
