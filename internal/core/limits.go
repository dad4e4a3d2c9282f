package core

import "github.com/shopspring/decimal"

// ResolveLimit returns the spending cap for a category in a month. A
// month-specific override wins over the category's default limit. Unknown
// or deleted categories resolve to zero rather than erroring, so dangling
// references behave as "no limit set".
func ResolveLimit(categories []Category, overrides []CategoryMonthlyLimit, categoryID string, month YearMonth) decimal.Decimal {
	for _, o := range overrides {
		if o.CategoryID == categoryID && o.Month == month {
			return o.Limit
		}
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return c.DefaultLimit
		}
	}
	return decimal.Zero
}

// OverLimit reports whether spending exceeds the cap.
func OverLimit(spent, limit decimal.Decimal) bool {
	return spent.GreaterThan(limit)
}
