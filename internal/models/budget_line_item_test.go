package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBudgetLineItem_Apply(t *testing.T) {
	base := BudgetLineItem{
		Allocated: d("1000"),
		Committed: d("400"),
		Accrued:   d("100"),
		Paid:      d("50"),
		Available: d("600"),
		Version:   3,
	}

	tests := []struct {
		name      string
		op        LineItemOperation
		amount    string
		committed string
		accrued   string
		paid      string
		available string
	}{
		{"commit reserves against available", OperationCommit, "250", "650", "100", "50", "350"},
		{"accrue only moves accrued", OperationAccrue, "250", "400", "350", "50", "600"},
		{"pay only moves paid", OperationPay, "250", "400", "100", "300", "600"},
		{"cancel releases the commitment", OperationCancel, "250", "150", "100", "50", "850"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Apply(tt.op, d(tt.amount))
			require.NoError(t, err)

			assert.True(t, got.Committed.Equal(d(tt.committed)), "committed: want=%s got=%s", tt.committed, got.Committed)
			assert.True(t, got.Accrued.Equal(d(tt.accrued)), "accrued: want=%s got=%s", tt.accrued, got.Accrued)
			assert.True(t, got.Paid.Equal(d(tt.paid)), "paid: want=%s got=%s", tt.paid, got.Paid)
			assert.True(t, got.Available.Equal(d(tt.available)), "available: want=%s got=%s", tt.available, got.Available)
			assert.True(t, got.Allocated.Equal(base.Allocated))
			assert.Equal(t, int64(4), got.Version)
			assert.True(t, got.Balanced())
		})
	}

	t.Run("receiver is not mutated", func(t *testing.T) {
		_, err := base.Apply(OperationCommit, d("10"))
		require.NoError(t, err)
		assert.True(t, base.Committed.Equal(d("400")))
		assert.Equal(t, int64(3), base.Version)
	})

	t.Run("unknown operation", func(t *testing.T) {
		got, err := base.Apply(LineItemOperation("refund"), d("10"))
		require.ErrorIs(t, err, ErrUnknownOperation)
		assert.Equal(t, base.Version, got.Version)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := base.Apply(OperationCommit, d("-1"))
		require.ErrorIs(t, err, ErrNegativeAmount)
	})
}

func TestBudgetLineItem_Reallocate(t *testing.T) {
	li := *NewBudgetLineItem("b", "01", "Personal", "payroll", d("1000"))
	li, err := li.Apply(OperationCommit, d("300"))
	require.NoError(t, err)

	t.Run("raise", func(t *testing.T) {
		got, ok := li.Reallocate(d("1500"))
		require.True(t, ok)
		assert.True(t, got.Available.Equal(d("1200")))
		assert.True(t, got.Balanced())
	})

	t.Run("down to committed", func(t *testing.T) {
		got, ok := li.Reallocate(d("300"))
		require.True(t, ok)
		assert.True(t, got.Available.IsZero())
	})

	t.Run("below committed", func(t *testing.T) {
		got, ok := li.Reallocate(d("299.99"))
		assert.False(t, ok)
		assert.True(t, got.Allocated.Equal(d("1000")))
	})
}

func TestNewBudgetLineItem(t *testing.T) {
	li := NewBudgetLineItem("budget-1", "4.01", "Obras", "infrastructure", d("5000"))

	assert.True(t, li.Available.Equal(d("5000")))
	assert.True(t, li.Committed.IsZero())
	assert.True(t, li.Accrued.IsZero())
	assert.True(t, li.Paid.IsZero())
	assert.True(t, li.Balanced())
}

func TestHasAmountScale(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"1000", true},
		{"999.99", true},
		{"0.10", true},
		{"999.995", false},
		{"0.001", false},
		{"-12.345", false},
	}
	for _, tt := range tests {
		if got := HasAmountScale(d(tt.amount)); got != tt.want {
			t.Errorf("HasAmountScale(%s) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}
