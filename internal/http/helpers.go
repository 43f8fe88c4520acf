package http

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"fintrack/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// validationMessage is the user-facing text for a validation error.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter a valid amount."
	case errors.Is(err, core.ErrInvalidType):
		return "Please choose Money In or Money Out."
	case errors.Is(err, core.ErrInvalidCategory):
		return "Please choose a category."
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date."
	case errors.Is(err, core.ErrInvalidTheme):
		return "Unknown theme."
	case errors.Is(err, core.ErrDescriptionLong):
		return "Description is too long (max 200 characters)."
	}
	return "Invalid data."
}

// featuredCurrencies are shown first in the rates panel, in this order.
var featuredCurrencies = []string{"EUR", "GBP", "JPY", "CAD", "AUD", "INR"}

type rateRow struct {
	Code string
	Rate float64
}

// rateRows picks the featured currencies present in rates. When none of them
// are present it falls back to the first few codes alphabetically.
func rateRows(rates map[string]float64) []rateRow {
	var rows []rateRow
	for _, code := range featuredCurrencies {
		if r, ok := rates[code]; ok {
			rows = append(rows, rateRow{Code: code, Rate: r})
		}
	}
	if len(rows) > 0 {
		return rows
	}
	for _, code := range slices.Sorted(maps.Keys(rates)) {
		if code == "USD" {
			continue
		}
		rows = append(rows, rateRow{Code: code, Rate: rates[code]})
		if len(rows) == len(featuredCurrencies) {
			break
		}
	}
	return rows
}
