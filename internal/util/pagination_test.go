package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		page      int
		size      int
		wantFrom  int
		wantLimit int
	}{
		{name: "first page", page: 1, size: 20, wantFrom: 0, wantLimit: 20},
		{name: "third page", page: 3, size: 10, wantFrom: 20, wantLimit: 10},
		{name: "zero page", page: 0, size: 5, wantFrom: 0, wantLimit: 5},
		{name: "default size", page: 2, size: 0, wantFrom: 10, wantLimit: DefaultPageSize},
		{name: "oversized", page: 1, size: 1000, wantFrom: 0, wantLimit: DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			from, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}
