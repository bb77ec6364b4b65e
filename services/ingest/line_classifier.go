package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"rq-formatter/models"
)

// LineClassifier turns raw log lines into typed LogLines for one protocol.
type LineClassifier struct {
	proto Protocol
}

// NewLineClassifier returns a classifier for the tags of protocol p.
func NewLineClassifier(p Protocol) *LineClassifier {
	return &LineClassifier{proto: p}
}

// Classify parses one line. number is the 1-based line number used in errors.
// Lines without a known tag come back as KindUnrecognized with a nil error.
func (c *LineClassifier) Classify(number int, raw string) (models.LogLine, error) {
	line := strings.TrimSpace(raw)
	out := models.LogLine{Number: number, Kind: models.KindUnrecognized}
	p := c.proto

	switch {
	case line == "":
		return out, nil

	case strings.HasPrefix(line, p.Coordinate):
		out.Kind = models.KindCoordinate
		v, err := parseFields(line[len(p.Coordinate):], 2, 2)
		if err != nil {
			return out, &ParseError{Line: number, Raw: raw, Kind: out.Kind, Err: err}
		}
		out.Fix = models.Fix{Latitude: v[0], Longitude: v[1]}

	case strings.HasPrefix(line, p.Acceleration):
		out.Kind = models.KindAcceleration
		v, err := parseFields(line[len(p.Acceleration):], 3, 3)
		if err != nil {
			return out, &ParseError{Line: number, Raw: raw, Kind: out.Kind, Err: err}
		}
		out.Accel = models.Vector3{v[0], v[1], v[2]}

	case p.Orientation != "" && strings.HasPrefix(line, p.Orientation):
		out.Kind = models.KindOrientation
		// x;y;z[;scalar[;heading accuracy]]
		v, err := parseFields(line[len(p.Orientation):], 3, 5)
		if err != nil {
			return out, &ParseError{Line: number, Raw: raw, Kind: out.Kind, Err: err}
		}
		out.Rotation = models.RotationSample{X: v[0], Y: v[1], Z: v[2]}
		if len(v) >= 4 {
			out.Rotation.Scalar = v[3]
			out.Rotation.HasScalar = true
		}

	default:
		if tag, ok := p.foreignTag(line); ok {
			return out, &ParseError{
				Line: number,
				Raw:  raw,
				Kind: models.KindUnrecognized,
				Err:  fmt.Errorf("%w: tag %q is not part of protocol %q", ErrForeignProtocol, tag, p.Name),
			}
		}
	}
	return out, nil
}

// parseFields splits a ';'-separated payload and parses between minFields and
// maxFields invariant-culture decimal values.
func parseFields(payload string, minFields, maxFields int) ([]float64, error) {
	fields := strings.Split(payload, ";")
	if len(fields) < minFields || len(fields) > maxFields {
		if minFields == maxFields {
			return nil, fmt.Errorf("%w: want %d, got %d", ErrFieldCount, minFields, len(fields))
		}
		return nil, fmt.Errorf("%w: want %d to %d, got %d", ErrFieldCount, minFields, maxFields, len(fields))
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if isHexLiteral(f) {
			return nil, fmt.Errorf("field %d: %w %q", i+1, ErrNotDecimal, f)
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+1, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("field %d: %w %q", i+1, ErrNonFinite, f)
		}
		out[i] = v
	}
	return out, nil
}

// isHexLiteral reports whether f uses the 0x prefix strconv accepts for
// hexadecimal floats.
func isHexLiteral(f string) bool {
	f = strings.TrimLeft(f, "+-")
	return len(f) > 1 && f[0] == '0' && (f[1] == 'x' || f[1] == 'X')
}
