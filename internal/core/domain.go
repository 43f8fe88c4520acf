package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"

	Light Theme = "light"
	Dark  Theme = "dark"
)

const dateLayout = "2006-01-02"

// MaxDescriptionLen is the description limit in characters.
const MaxDescriptionLen = 200

type (
	TxType string

	Theme string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64  `json:"id"`
		Type        TxType `json:"type"`
		Amount      Money  `json:"amount"`
		Category    string `json:"category"`
		Date        Date   `json:"date"`
		Description string `json:"description"`
		Recurring   bool   `json:"recurring"`
	}

	SavingsGoal struct {
		Amount      Money  `json:"amount"`
		Description string `json:"description"`
	}
)

// Categories is the fixed vocabulary offered for each transaction type.
var Categories = map[TxType][]string{
	Income:  {"Salary", "Side Job", "Gift", "Other Money In"},
	Expense: {"Food & Drinks", "Transport", "Fun", "Shopping", "House", "Health", "Other"},
}

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// CategoriesFor returns a copy of the vocabulary for t, nil for unknown types.
func CategoriesFor(t TxType) []string {
	return slices.Clone(Categories[t])
}

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.TrimSpace(s)) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// Toggled returns the other theme.
func (t Theme) Toggled() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Today returns the local calendar date of now.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	for _, target := range []error{ErrInvalidType, ErrInvalidAmount, ErrInvalidCategory, ErrInvalidDate, ErrInvalidTheme, ErrDescriptionLong} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Validate checks a transaction at creation time. Stored transactions are
// never re-validated.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !slices.Contains(Categories[t.Type], t.Category) {
		return fmt.Errorf("%w: %q is not a %s category", ErrInvalidCategory, t.Category, t.Type)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		return ErrDescriptionLong
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	return g.Amount.Validate()
}
