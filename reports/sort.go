package reports

import (
	"sort"

	"civicsync-web/models"
)

type SortKey string

const (
	SortByCreatedAt SortKey = "createdAt"
	SortByStatus    SortKey = "status"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// SortState is the list ordering chosen by the user.
type SortState struct {
	Key   SortKey   `json:"key"`
	Order SortOrder `json:"order"`
}

// DefaultSort is newest first.
func DefaultSort() SortState {
	return SortState{Key: SortByCreatedAt, Order: Descending}
}

func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "createdAt", "timestamp":
		return SortByCreatedAt, nil
	case "status":
		return SortByStatus, nil
	}
	return "", ErrInvalidSortKey
}

// Toggle flips the order when key is already active. A new key starts
// descending for time and ascending for status.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		if s.Order == Ascending {
			return SortState{Key: key, Order: Descending}
		}
		return SortState{Key: key, Order: Ascending}
	}
	if key == SortByStatus {
		return SortState{Key: key, Order: Ascending}
	}
	return SortState{Key: key, Order: Descending}
}

// Sorted returns a sorted copy; the input is not modified.
func Sorted(list []models.SubmittedReport, s SortState) []models.SubmittedReport {
	out := make([]models.SubmittedReport, len(list))
	copy(out, list)

	compare := func(a, b models.SubmittedReport) int {
		if s.Key == SortByStatus {
			return a.Status.Rank() - b.Status.Rank()
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if s.Order == Ascending {
			return c < 0
		}
		return c > 0
	})
	return out
}
