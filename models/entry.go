package models

import "math"

var _ CSVRowWriter = (*Entry)(nil)

// Entry is one geolocated, gravity-compensated vertical acceleration delta.
type Entry struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	DeltaZ    float64 `json:"delta_z"`
}

// HasPosition reports whether the entry carries an interpolated position.
// Entries from unpaired blocks emitted in NaN mode do not.
func (e Entry) HasPosition() bool {
	return !math.IsNaN(e.Latitude) && !math.IsNaN(e.Longitude)
}

// CSVHeader returns the ordered column names of the output file.
func (Entry) CSVHeader() []string {
	return []string{"LATITUDE", "LONGITUDE", "Z_DELTA"}
}

// CSVRow renders the entry with the shortest round-trip representation.
func (e *Entry) CSVRow() []string {
	return e.FormatRow(-1)
}

// FormatRow renders the entry using prec fractional digits (prec < 0 means
// shortest round-trip).
func (e *Entry) FormatRow(prec int) []string {
	return []string{
		ftoa(e.Latitude, prec),
		ftoa(e.Longitude, prec),
		ftoa(e.DeltaZ, prec),
	}
}
