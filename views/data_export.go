package views

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"rq-formatter/models"
)

// CSVWriter is a buffered, ';'-delimited CSV writer. Rows go to a temporary
// file next to the destination which is renamed into place by Close, so a
// failed conversion never leaves a truncated result behind.
type CSVWriter struct {
	path    string
	tmpPath string
	file    *os.File
	buf     *bufio.Writer
	csv     *csv.Writer
	rows    uint64
}

// NewCSVWriter creates the temporary output file and writes the header row.
func NewCSVWriter(path string, bufSizeBytes int, writeHeader bool, header []string) (*CSVWriter, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("csv create %s: %w", tmp, err)
	}

	if bufSizeBytes <= 0 {
		bufSizeBytes = 256 * 1024 // 256 KB default
	}

	bw := bufio.NewWriterSize(f, bufSizeBytes)
	cw := csv.NewWriter(bw)
	cw.Comma = Delimiter

	w := &CSVWriter{
		path:    path,
		tmpPath: tmp,
		file:    f,
		buf:     bw,
		csv:     cw,
	}

	if writeHeader && len(header) > 0 {
		if err := cw.Write(header); err != nil {
			w.Abort()
			return nil, fmt.Errorf("csv write header: %w", err)
		}
	}

	return w, nil
}

// WriteRow appends a single row.
func (w *CSVWriter) WriteRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("csv write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Flush pushes the buffered data to the OS.
func (w *CSVWriter) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return nil
}

// Close flushes remaining data and moves the file to its final path.
func (w *CSVWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.Abort()
		return err
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("csv close %s: %w", w.tmpPath, err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("csv publish %s: %w", w.path, err)
	}
	return nil
}

// Abort discards everything written so far.
func (w *CSVWriter) Abort() {
	_ = w.file.Close()
	_ = os.Remove(w.tmpPath)
}

// Rows returns the number of data rows written (excludes header).
func (w *CSVWriter) Rows() uint64 {
	return w.rows
}

// EntryCSV writes Entries through a CSVWriter with a fixed precision.
type EntryCSV struct {
	w    *CSVWriter
	prec int
}

// NewEntryCSV opens path for LATITUDE;LONGITUDE;Z_DELTA output. prec < 0
// selects the shortest round-trip representation.
func NewEntryCSV(path string, bufSizeBytes int, writeHeader bool, prec int) (*EntryCSV, error) {
	w, err := NewCSVWriter(path, bufSizeBytes, writeHeader, SchemaColumns[SinkCSV])
	if err != nil {
		return nil, err
	}
	return &EntryCSV{w: w, prec: prec}, nil
}

func (s *EntryCSV) WriteEntries(entries []models.Entry) error {
	for i := range entries {
		if err := s.w.WriteRow(entries[i].FormatRow(s.prec)); err != nil {
			return err
		}
	}
	return nil
}

func (s *EntryCSV) Close() error   { return s.w.Close() }
func (s *EntryCSV) Abort()         { s.w.Abort() }
func (s *EntryCSV) Rows() uint64   { return s.w.Rows() }
func (s *EntryCSV) String() string { return "csv:" + s.w.path }
