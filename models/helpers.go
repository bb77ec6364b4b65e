package models

import (
	"strconv"
)

// ─── shared formatting helpers (package-private) ────────────────────────

// ftoa renders v with a locale-independent '.' separator. prec < 0 selects
// the shortest representation that round-trips.
func ftoa(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// CSVRowWriter is the interface every exported model must satisfy.
type CSVRowWriter interface {
	CSVHeader() []string
	CSVRow() []string
}
