package reports

import (
	"testing"
	"time"

	"civicsync-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle(t *testing.T) {
	s := DefaultSort()
	assert.Equal(t, SortState{SortByCreatedAt, Descending}, s)

	s = s.Toggle(SortByCreatedAt)
	assert.Equal(t, Ascending, s.Order)

	s = s.Toggle(SortByStatus)
	assert.Equal(t, SortState{SortByStatus, Ascending}, s)

	s = s.Toggle(SortByStatus)
	assert.Equal(t, Descending, s.Order)

	s = s.Toggle(SortByCreatedAt)
	assert.Equal(t, SortState{SortByCreatedAt, Descending}, s)
}

func TestSorted(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []models.SubmittedReport{
		{ID: 1, CreatedAt: base, Status: models.Actioned},
		{ID: 2, CreatedAt: base.Add(time.Minute), Status: models.Received},
		{ID: 3, CreatedAt: base.Add(2 * time.Minute), Status: models.UnderReview},
	}

	ids := func(rs []models.SubmittedReport) []int64 {
		out := make([]int64, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []int64{3, 2, 1}, ids(Sorted(list, DefaultSort())))
	assert.Equal(t, []int64{1, 2, 3}, ids(Sorted(list, SortState{SortByCreatedAt, Ascending})))
	assert.Equal(t, []int64{2, 3, 1}, ids(Sorted(list, SortState{SortByStatus, Ascending})))
	assert.Equal(t, []int64{1, 3, 2}, ids(Sorted(list, SortState{SortByStatus, Descending})))
	assert.Equal(t, []int64{1, 2, 3}, ids(list), "input is untouched")
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("timestamp")
	require.NoError(t, err)
	assert.Equal(t, SortByCreatedAt, k)

	_, err = ParseSortKey("votes")
	assert.ErrorIs(t, err, ErrInvalidSortKey)
}
