package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"rq-formatter/models"
	"rq-formatter/utils"
)

// ParsePolicy decides what happens to a line that fails classification.
type ParsePolicy int

const (
	// AbortOnError stops at the first malformed line.
	AbortOnError ParsePolicy = iota
	// SkipMalformed logs the malformed line and continues with the next one.
	SkipMalformed
)

// ParsePolicyByName resolves a config value ("abort" / "skip").
func ParsePolicyByName(name string) (ParsePolicy, error) {
	switch name {
	case utils.OnParseErrorAbort:
		return AbortOnError, nil
	case utils.OnParseErrorSkip:
		return SkipMalformed, nil
	}
	return AbortOnError, fmt.Errorf("unknown parse error policy %q", name)
}

const maxLineBytes = 1 << 20

// ReaderStats counts what the reader has seen so far.
type ReaderStats struct {
	Lines         int // physical lines read
	Coordinates   int
	Accelerations int
	Orientations  int
	Unrecognized  int
	Skipped       int // malformed lines dropped under SkipMalformed
}

// LogReader streams classified lines from a capture log in file order.
// Unrecognised lines are consumed silently.
type LogReader struct {
	sc     *bufio.Scanner
	cls    *LineClassifier
	policy ParsePolicy
	stats  ReaderStats
}

// NewLogReader reads lines from r and classifies them with cls.
func NewLogReader(r io.Reader, cls *LineClassifier, policy ParsePolicy) *LogReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &LogReader{sc: sc, cls: cls, policy: policy}
}

// Next returns the next recognised line. It returns io.EOF once the input is
// exhausted, a *ParseError under AbortOnError, or a wrapped I/O error.
func (r *LogReader) Next() (models.LogLine, error) {
	for r.sc.Scan() {
		r.stats.Lines++
		ll, err := r.cls.Classify(r.stats.Lines, r.sc.Text())
		if err != nil {
			var pe *ParseError
			if r.policy == SkipMalformed && errors.As(err, &pe) {
				r.stats.Skipped++
				utils.L().Warn("skipping %v", pe)
				continue
			}
			return models.LogLine{}, err
		}

		switch ll.Kind {
		case models.KindCoordinate:
			r.stats.Coordinates++
		case models.KindAcceleration:
			r.stats.Accelerations++
		case models.KindOrientation:
			r.stats.Orientations++
		default:
			r.stats.Unrecognized++
			continue
		}
		return ll, nil
	}
	if err := r.sc.Err(); err != nil {
		return models.LogLine{}, fmt.Errorf("read log after line %d: %w", r.stats.Lines, err)
	}
	return models.LogLine{}, io.EOF
}

// Stats returns a snapshot of the counters.
func (r *LogReader) Stats() ReaderStats { return r.stats }
