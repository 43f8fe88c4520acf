// Package dashboard derives everything the tracker page shows from the four
// stored records. Render is pure: the same State always yields the same View.
package dashboard

import (
	"fmt"

	"fintrack/internal/core"
)

const noDescription = "No description"

// State is the input of a render.
type State struct {
	Transactions   []core.Transaction
	Budget         core.Money
	HasBudget      bool
	SavingsGoal    core.SavingsGoal
	HasSavingsGoal bool
	Theme          core.Theme
}

// Item is one row of the transaction list.
type Item struct {
	ID          int64
	Type        core.TxType
	Category    string
	Description string
	Date        string // M/D/YYYY
	Amount      string // signed, e.g. "+$12.50"
	Recurring   bool
}

// Savings is the savings goal panel.
type Savings struct {
	HasGoal     bool
	Description string
	Goal        string
	Width       float64 // percent of the bar, 0-100
	Status      string
}

type View struct {
	Theme   core.Theme
	Palette Palette

	TotalIncome   string
	TotalExpenses string
	Balance       string
	Negative      bool

	Budget      string // empty when unset
	BudgetAlert string // empty when not triggered

	Items   []Item
	Savings Savings

	CategoryChart ChartSpec
	TrendChart    ChartSpec
}

// Render computes the full view for s.
func Render(s State) View {
	totals := core.ComputeTotals(s.Transactions)
	palette := PaletteFor(s.Theme)

	v := View{
		Theme:         palette.Theme,
		Palette:       palette,
		TotalIncome:   core.FormatUSD(totals.Income.Cents),
		TotalExpenses: core.FormatUSD(totals.Expenses.Cents),
		Balance:       core.FormatUSD(totals.Balance().Cents),
		Negative:      totals.Balance().Cents < 0,
		CategoryChart: CategoryChart(core.ByCategory(s.Transactions), palette),
		TrendChart:    TrendChart(core.ByMonth(s.Transactions), palette),
	}

	if s.HasBudget {
		v.Budget = core.FormatUSD(s.Budget.Cents)
	}
	v.BudgetAlert = BudgetAlert(totals, s.Budget, s.HasBudget)

	for _, tx := range core.SortForDisplay(s.Transactions) {
		v.Items = append(v.Items, itemFor(tx))
	}

	var goal core.Money
	if s.HasSavingsGoal {
		goal = s.SavingsGoal.Amount
		v.Savings.HasGoal = true
		v.Savings.Description = s.SavingsGoal.Description
	}
	progress := core.SavingsProgress(totals, goal)
	v.Savings.Goal = core.FormatUSD(goal.Cents)
	v.Savings.Width = progress.BarWidth()
	v.Savings.Status = progress.Status()

	return v
}

// BudgetAlert returns the warning text when expenses reached the alert
// threshold of the budget, or "".
func BudgetAlert(totals core.Totals, budget core.Money, set bool) string {
	if core.BudgetExceeded(totals.Expenses, budget, set) {
		return core.BudgetAlertMessage
	}
	return ""
}

func itemFor(tx core.Transaction) Item {
	desc := tx.Description
	if desc == "" {
		desc = noDescription
	}
	sign := "-"
	if tx.Type == core.Income {
		sign = "+"
	}
	return Item{
		ID:          tx.ID,
		Type:        tx.Type,
		Category:    tx.Category,
		Description: desc,
		Date:        shortDate(tx.Date),
		Amount:      sign + core.FormatUSD(tx.Amount.Cents),
		Recurring:   tx.Recurring,
	}
}

func shortDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", int(d.Month()), d.Day(), d.Year())
}
