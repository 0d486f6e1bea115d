package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erario/internal/models"
	"erario/internal/testutil"
)

func TestPageRequestDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"empty", PageRequest{}, PageRequest{Page: 1, PageSize: 20}},
		{"kept", PageRequest{Page: 3, PageSize: 50}, PageRequest{Page: 3, PageSize: 50}},
		{"clamped", PageRequest{Page: -1, PageSize: 500}, PageRequest{Page: 1, PageSize: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Defaults()
			assert.Equal(t, tt.want, got)
		})
	}

	p := PageRequest{Page: 3, PageSize: 25}
	assert.Equal(t, 50, p.Offset())
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 2, 10, 21)
	assert.Equal(t, []int{}, resp.Data)
	assert.Equal(t, 3, resp.TotalPages)

	assert.Equal(t, 0, NewPageResponse([]int{}, 1, 0, 5).TotalPages)
}

func TestFind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	budget := testutil.CreateTestBudget(t, db)
	for i := 0; i < 5; i++ {
		item := models.NewBudgetLineItem(budget.ID, fmt.Sprintf("6.1.%02d", i), "Item", "works", testutil.Amount(t, "10"))
		if i%2 == 1 {
			item.Category = "supplies"
		}
		require.NoError(t, db.Create(item).Error)
	}

	q := db.Model(&models.BudgetLineItem{}).Where("budget_id = ?", budget.ID)

	page, err := Find[models.BudgetLineItem](q, PageRequest{Page: 2, PageSize: 2}, "code DESC")
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "6.1.02", page.Data[0].Code)
	assert.Equal(t, "6.1.01", page.Data[1].Code)

	// The base query is reusable after Find.
	works, err := Find[models.BudgetLineItem](q.Where("category = ?", "works"), PageRequest{}, "code ASC")
	require.NoError(t, err)
	assert.Equal(t, int64(3), works.TotalItems)
	assert.Equal(t, 20, works.PageSize)
	assert.Equal(t, "6.1.00", works.Data[0].Code)
}
