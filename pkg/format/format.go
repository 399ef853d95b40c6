// Package format renders money amounts, renewal dates and subscription
// counts the way the subscription portal displays them. The output formats
// are load-bearing: tests and existing UI copy depend on them exactly.
package format

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// The portal renders all numbers with English grouping and decimal marks
// regardless of the visitor's locale, matching the backend invoices.
var printer = message.NewPrinter(language.English)

// Currency symbols used as amount prefixes. Currencies without a known
// symbol fall back to the ISO code, e.g. "AUD 2,100.00".
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Money renders an amount of minor currency units as a symbol-prefixed
// decimal with thousands separators and exactly two fraction digits.
// 210000 minor units of USD become "$2,100.00". The amount is formatted
// from the integer quotient and remainder so every int64 value renders
// exactly.
func Money(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
	}
	units, cents := minor/100, minor%100
	if units < 0 {
		units = -units
	}
	if cents < 0 {
		cents = -cents
	}

	amount := printer.Sprintf("%v.%02d", number.Decimal(units), cents)
	if symbol, ok := symbols[currency]; ok {
		return sign + symbol + amount
	}
	return fmt.Sprintf("%s%s %s", sign, currency, amount)
}

// RenewalDate renders the renewal day as it appears in the renewal settings
// panel, e.g. "9 July 2022".
func RenewalDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// CardDate renders a date as it appears on subscription cards,
// e.g. "09.07.2021".
func CardDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// Pluralize renders a count with its noun, adding an "s" for any count
// other than one: "1 yearly subscription", "2 yearly subscriptions".
func Pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
