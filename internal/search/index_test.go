package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

func TestDocumentFromEmployee(t *testing.T) {
	t.Parallel()

	dept := uint(4)
	e := &models.Employee{
		ID:           9,
		EmployeeID:   "E-009",
		Position:     "Engineer",
		Status:       models.StatusActive,
		DepartmentID: &dept,
		Department:   &models.Department{ID: 4, Name: "R&D"},
		User:         &models.Account{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
	}

	doc := DocumentFromEmployee(e)
	assert.Equal(t, uint(9), doc.ID)
	assert.Equal(t, "R&D", doc.Department)
	assert.Equal(t, "Ada", doc.FirstName)
	assert.Equal(t, "ada@example.com", doc.Email)

	bare := DocumentFromEmployee(&models.Employee{ID: 1})
	assert.Empty(t, bare.Department)
	assert.Empty(t, bare.Email)
}

func TestElasticIndex_RoundTrip(t *testing.T) {
	url := os.Getenv("ES_TEST_URL")
	if url == "" {
		t.Skip("ES_TEST_URL is required for tests")
	}

	es, err := NewElasticClient(url, os.Getenv("ES_TEST_USER"), os.Getenv("ES_TEST_PASSWORD"))
	require.NoError(t, err)

	idx := NewElasticIndex(es, "employees_test")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	doc := EmployeeDocument{ID: 424242, EmployeeID: "E-424242", Position: "Quartermaster", FirstName: "Zebulon"}
	require.NoError(t, idx.IndexEmployee(ctx, doc))
	t.Cleanup(func() { _ = idx.DeleteEmployee(context.Background(), doc.ID) })

	total, ids, err := idx.SearchEmployees(ctx, "Zebulon", 0, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	assert.Contains(t, ids, doc.ID)
}
