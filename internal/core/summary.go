package core

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// MonthsShown is how many month buckets the trend keeps.
const MonthsShown = 6

// BudgetAlertPercent is the share of the budget at which the alert fires.
const BudgetAlertPercent = 90

const BudgetAlertMessage = "Heads up! You have used most of your monthly limit. Try to spend less!"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Totals holds income and expense sums over a transaction list.
type Totals struct {
	Income   Money
	Expenses Money
}

// Balance is income minus expenses and may be negative.
func (t Totals) Balance() Money {
	return Money{Cents: t.Income.Cents - t.Expenses.Cents}
}

// MonthTotals is one bar of the monthly trend.
type MonthTotals struct {
	Year     int
	Month    int // 1-12
	Income   Money
	Expenses Money
}

// Label renders the bucket as "M/YYYY".
func (m MonthTotals) Label() string {
	return strconv.Itoa(m.Month) + "/" + strconv.Itoa(m.Year)
}

// Progress is the savings progress towards a goal.
type Progress struct {
	Goal    Money
	Percent decimal.Decimal // unclamped, may be negative or above 100
}

// BarWidth clamps Percent into [0, 100] for drawing.
func (p Progress) BarWidth() float64 {
	w := p.Percent.InexactFloat64()
	return min(max(w, 0), 100)
}

// Status renders the textual progress, e.g. "42.5% of $1,000.00 goal reached".
func (p Progress) Status() string {
	return fmt.Sprintf("%s%% of %s goal reached", p.Percent.StringFixed(1), FormatUSD(p.Goal.Cents))
}

// ComputeTotals sums amounts by type in a single pass. Anything that is not
// income counts as an expense.
func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.Type == Income {
			t.Income.Cents += tx.Amount.Cents
		} else {
			t.Expenses.Cents += tx.Amount.Cents
		}
	}
	return t
}

// ByCategory sums expense amounts per category, ordered by first appearance.
func ByCategory(txs []Transaction) []CategoryAmount {
	index := map[string]int{}
	var out []CategoryAmount
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryAmount{Name: tx.Category})
		}
		out[i].Amount.Cents += tx.Amount.Cents
	}
	return out
}

// ByMonth buckets transactions by (year, month) and returns the most recent
// MonthsShown buckets in ascending chronological order. Transactions without
// a date are skipped.
func ByMonth(txs []Transaction) []MonthTotals {
	type key struct{ year, month int }
	buckets := map[key]*MonthTotals{}
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		k := key{tx.Date.Year(), int(tx.Date.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &MonthTotals{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		if tx.Type == Income {
			b.Income.Cents += tx.Amount.Cents
		} else {
			b.Expenses.Cents += tx.Amount.Cents
		}
	}

	out := make([]MonthTotals, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b MonthTotals) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(b.Month, a.Month)
	})
	if len(out) > MonthsShown {
		out = out[:MonthsShown]
	}
	slices.Reverse(out)
	return out
}

// SavingsProgress computes (income - expenses) / goal * 100, or zero when
// the goal is not positive.
func SavingsProgress(t Totals, goal Money) Progress {
	p := Progress{Goal: goal, Percent: decimal.Zero}
	if goal.Cents > 0 {
		p.Percent = t.Balance().Decimal().Div(goal.Decimal()).Mul(decimal.NewFromInt(100))
	}
	return p
}

// BudgetExceeded reports whether expenses reached BudgetAlertPercent of the
// budget. An absent, zero or negative budget never alerts.
func BudgetExceeded(expenses Money, budget Money, set bool) bool {
	if !set || budget.Cents <= 0 {
		return false
	}
	return expenses.Cents*100 >= budget.Cents*BudgetAlertPercent
}

// SortForDisplay returns a copy sorted by date, newest first. Equal dates
// keep their input order.
func SortForDisplay(txs []Transaction) []Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}
