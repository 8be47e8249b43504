package transform

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Months is the fixed month vocabulary of the headcount export, in calendar order.
var Months = []string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

var monthNumbers = func() map[string]int {
	m := make(map[string]int, len(Months))
	for i, name := range Months {
		m[name] = i + 1
	}
	return m
}()

// MonthNumber returns 1..12 for a vocabulary month, or false.
func MonthNumber(month string) (int, bool) {
	n, ok := monthNumbers[month]
	return n, ok
}

// NormalizeText trims and upper-cases a free-text value.
func NormalizeText(s string) string {
	return cases.Upper(language.Spanish).String(strings.TrimSpace(s))
}
