package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

func TestDiffItems_RoundTrip(t *testing.T) {
	t.Parallel()

	existing := []models.RequestItem{
		{ID: 1, Name: "A", Quantity: 1, RequestID: 5},
		{ID: 2, Name: "C", Quantity: 1, RequestID: 5},
	}
	submitted := []ItemInput{
		{ID: "1", Name: "A", Quantity: 2},
		{Name: "B"},
	}

	diff, err := DiffItems(existing, submitted)
	require.NoError(t, err)

	require.Len(t, diff.Update, 1)
	assert.Equal(t, uint(1), diff.Update[0].ID)
	assert.Equal(t, 2, diff.Update[0].Quantity)
	assert.Equal(t, uint(5), diff.Update[0].RequestID)

	require.Len(t, diff.Insert, 1)
	assert.Equal(t, "B", diff.Insert[0].Name)
	assert.Equal(t, 1, diff.Insert[0].Quantity)
	assert.Zero(t, diff.Insert[0].ID)

	assert.Equal(t, []uint{2}, diff.Delete)
}

func TestDiffItems_Partitioning(t *testing.T) {
	t.Parallel()

	existing := []models.RequestItem{
		{ID: 10, Name: "Laptop", Quantity: 1},
		{ID: 11, Name: "Mouse", Quantity: 1},
		{ID: 12, Name: "Desk", Quantity: 1},
	}

	tests := []struct {
		name       string
		submitted  []ItemInput
		wantInsert int
		wantUpdate []uint
		wantDelete []uint
	}{
		{
			name:       "temporary id is an insert",
			submitted:  []ItemInput{{ID: "tmp-3", Name: "Chair"}},
			wantInsert: 1,
			wantDelete: []uint{10, 11, 12},
		},
		{
			name:       "unknown numeric id is an insert",
			submitted:  []ItemInput{{ID: "99", Name: "Monitor"}, {ID: "10", Name: "Laptop"}},
			wantInsert: 1,
			wantUpdate: []uint{10},
			wantDelete: []uint{11, 12},
		},
		{
			name:       "empty submission deletes everything",
			submitted:  nil,
			wantDelete: []uint{10, 11, 12},
		},
		{
			name:       "unchanged list keeps every row",
			submitted:  []ItemInput{{ID: "12", Name: "Desk", Quantity: 1}, {ID: "11", Name: "Mouse", Quantity: 1}, {ID: "10", Name: "Laptop", Quantity: 1}},
			wantUpdate: []uint{12, 11, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			diff, err := DiffItems(existing, tt.submitted)
			require.NoError(t, err)

			assert.Len(t, diff.Insert, tt.wantInsert)
			var updated []uint
			for _, it := range diff.Update {
				updated = append(updated, it.ID)
			}
			assert.Equal(t, tt.wantUpdate, updated)
			assert.Equal(t, tt.wantDelete, diff.Delete)
		})
	}
}

func TestDiffItems_Validation(t *testing.T) {
	t.Parallel()

	existing := []models.RequestItem{{ID: 1, Name: "A", Quantity: 1}}

	tests := []struct {
		name      string
		submitted []ItemInput
	}{
		{name: "negative quantity", submitted: []ItemInput{{Name: "A", Quantity: -1}}},
		{name: "blank name", submitted: []ItemInput{{Name: "  "}}},
		{name: "same id twice", submitted: []ItemInput{{ID: "1", Name: "A"}, {ID: "1", Name: "A2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DiffItems(existing, tt.submitted)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestItemDiff_Empty(t *testing.T) {
	t.Parallel()

	assert.True(t, ItemDiff{}.Empty())
	assert.False(t, ItemDiff{Delete: []uint{1}}.Empty())
}
