package core

// Uncategorized is the fixed bucket label for expenses without a category.
const Uncategorized = "Uncategorized"

// BudgetLevel classifies how much of a monthly limit has been consumed.
type BudgetLevel string

const (
	BudgetOK   BudgetLevel = "ok"   // below 80%
	BudgetNear BudgetLevel = "near" // 80% to 99%
	BudgetOver BudgetLevel = "over" // 100% and above
)

// SumExpenses totals the expense prices. Empty input yields zero.
func SumExpenses(expenses []Expense) Money {
	var total int64
	for _, e := range expenses {
		total += e.TotalPrice.Cents
	}
	return Money{Cents: total}
}

// SumFunds totals the fund amounts. Empty input yields zero.
func SumFunds(funds []Fund) Money {
	var total int64
	for _, f := range funds {
		total += f.Amount.Cents
	}
	return Money{Cents: total}
}

// GroupByCategory partitions expenses into per-category totals keyed by
// display name. Expenses with no category land in the Uncategorized bucket.
// Every expense contributes to exactly one bucket, so the bucket totals sum
// to SumExpenses.
func GroupByCategory(expenses []Expense) map[string]Money {
	breakdown := make(map[string]Money, len(expenses))
	for _, e := range expenses {
		name := e.CategoryName
		if name == "" {
			name = Uncategorized
		}
		breakdown[name] = Money{Cents: breakdown[name].Cents + e.TotalPrice.Cents}
	}
	return breakdown
}

// Balance is total funds minus total expenses. A negative balance is valid
// and is returned as-is, never clamped to zero.
func Balance(funds []Fund, expenses []Expense) Money {
	return Money{Cents: SumFunds(funds).Cents - SumExpenses(expenses).Cents}
}

// BudgetUtilization returns spent as a percentage of the monthly limit and
// its classification. A zero or negative limit cannot be divided by and is
// reported as fully consumed.
func BudgetUtilization(limit, spent Money) (float64, BudgetLevel) {
	if limit.Cents <= 0 {
		return 100, BudgetOver
	}
	percent := float64(spent.Cents) * 100 / float64(limit.Cents)
	switch {
	case percent >= 100:
		return percent, BudgetOver
	case percent >= 80:
		return percent, BudgetNear
	default:
		return percent, BudgetOK
	}
}
