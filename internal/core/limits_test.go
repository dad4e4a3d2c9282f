package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestResolveLimit(t *testing.T) {
	categories := []Category{
		{ID: "1", Name: "Alimentação", DefaultLimit: decimal.NewFromInt(800)},
		{ID: "2", Name: "Transporte", DefaultLimit: decimal.NewFromInt(400)},
	}
	overrides := []CategoryMonthlyLimit{
		{CategoryID: "1", Month: YearMonth{2025, time.March}, Limit: decimal.NewFromInt(500)},
	}

	tests := []struct {
		name       string
		categoryID string
		month      YearMonth
		want       int64
	}{
		{
			name:       "override wins in its month",
			categoryID: "1",
			month:      YearMonth{2025, time.March},
			want:       500,
		},
		{
			name:       "default limit in other months",
			categoryID: "1",
			month:      YearMonth{2025, time.April},
			want:       800,
		},
		{
			name:       "category without override",
			categoryID: "2",
			month:      YearMonth{2025, time.March},
			want:       400,
		},
		{
			name:       "unknown category resolves to zero",
			categoryID: "missing",
			month:      YearMonth{2025, time.March},
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLimit(categories, overrides, tt.categoryID, tt.month)
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("ResolveLimit = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestOverLimit(t *testing.T) {
	limit := decimal.NewFromInt(100)

	if OverLimit(decimal.NewFromInt(100), limit) {
		t.Error("spending exactly the limit is not over it")
	}
	if !OverLimit(decimal.RequireFromString("100.01"), limit) {
		t.Error("spending a cent past the limit is over it")
	}
	if OverLimit(decimal.NewFromInt(99), limit) {
		t.Error("spending below the limit is not over it")
	}
}
