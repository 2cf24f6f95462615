package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

// ItemInput is a submitted request line. ID holds the numeric id of a stored
// item, a client side temporary id such as "tmp-3", or nothing.
type ItemInput struct {
	ID       string
	Name     string
	Quantity int
}

type ItemDiff struct {
	Insert []models.RequestItem
	Update []models.RequestItem
	Delete []uint
}

func (d ItemDiff) Empty() bool {
	return len(d.Insert) == 0 && len(d.Update) == 0 && len(d.Delete) == 0
}

// DiffItems compares the submitted lines against the stored ones. A line whose
// numeric id matches a stored item updates it, any other line is inserted, and
// stored items missing from the submission are deleted. Quantity 0 means 1.
func DiffItems(existing []models.RequestItem, submitted []ItemInput) (ItemDiff, error) {
	stored := make(map[uint]models.RequestItem, len(existing))
	for _, it := range existing {
		stored[it.ID] = it
	}

	var diff ItemDiff
	seen := make(map[uint]bool, len(submitted))

	for i, in := range submitted {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return ItemDiff{}, validationf("item %d: name is required", i+1)
		}
		qty := in.Quantity
		switch {
		case qty < 0:
			return ItemDiff{}, validationf("item %d: quantity must not be negative", i+1)
		case qty == 0:
			qty = 1
		}

		if id, ok := storedID(in.ID); ok {
			if cur, found := stored[id]; found {
				if seen[id] {
					return ItemDiff{}, validationf("item %d submitted more than once", id)
				}
				seen[id] = true
				cur.Name = name
				cur.Quantity = qty
				diff.Update = append(diff.Update, cur)
				continue
			}
		}
		diff.Insert = append(diff.Insert, models.RequestItem{Name: name, Quantity: qty})
	}

	for id := range stored {
		if !seen[id] {
			diff.Delete = append(diff.Delete, id)
		}
	}
	sort.Slice(diff.Delete, func(i, j int) bool { return diff.Delete[i] < diff.Delete[j] })
	return diff, nil
}

func storedID(raw string) (uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
