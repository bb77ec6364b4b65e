package controller

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"rq-formatter/models"
	"rq-formatter/services/ingest"
	"rq-formatter/utils"
)

func testConfig(t *testing.T, log string) *utils.ConverterConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := utils.DefaultConverterConfig()
	cfg.Converter.Input = filepath.Join(dir, "rq.log")
	cfg.Converter.Output = filepath.Join(dir, "goodres.log")
	require.NoError(t, os.WriteFile(cfg.Converter.Input, []byte(log), 0o644))
	return cfg
}

func runConversion(t *testing.T, cfg *utils.ConverterConfig) (Summary, error) {
	t.Helper()
	cc, err := NewConversionController(cfg)
	require.NoError(t, err)
	return cc.Run(context.Background())
}

func readRows(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRun_RoundTrip(t *testing.T) {
	cfg := testConfig(t, roundTripLog)

	sum, err := runConversion(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Entries)
	assert.Equal(t, 5, sum.Lines)

	rows := readRows(t, cfg.Converter.Output)
	require.Len(t, rows, 3)
	assert.Equal(t, "LATITUDE;LONGITUDE;Z_DELTA", rows[0])

	want := [][]float64{{10.05, 20.05, 0}, {10.1, 20.1, 0}}
	for i, row := range rows[1:] {
		fields := strings.Split(row, ";")
		require.Len(t, fields, 3, "row %q", row)
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			require.NoError(t, err)
			assert.InDelta(t, want[i][j], v, 1e-9, "row %d field %d", i, j)
		}
		assert.Equal(t, "0", fields[2])
	}

	_, err = os.Stat(cfg.Converter.Output + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be gone")
}

func TestRun_FixedPrecision(t *testing.T) {
	cfg := testConfig(t, "C:1;2\nA:0;0;10.81\nC:3;4\n")
	cfg.CSV.Precision = 3

	_, err := runConversion(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"LATITUDE;LONGITUDE;Z_DELTA", "3.000;4.000;1.000"}, readRows(t, cfg.Converter.Output))
}

func TestRun_StrictModeAbortsOnMalformedLine(t *testing.T) {
	cfg := testConfig(t, "C:1;2\nA:not_a_number;0;0\nA:0;0;9.81\nC:3;4\n")

	_, err := runConversion(t, cfg)
	require.Error(t, err)

	var pe *ingest.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "A:not_a_number;0;0", pe.Raw)

	_, statErr := os.Stat(cfg.Converter.Output)
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
	_, statErr = os.Stat(cfg.Converter.Output + ".tmp")
	assert.True(t, os.IsNotExist(statErr), "no temporary file on failure")
}

func TestRun_LenientModeOmitsMalformedSample(t *testing.T) {
	cfg := testConfig(t, "C:1;2\nA:not_a_number;0;0\nA:0;0;9.81\nC:3;4\n")
	cfg.Converter.OnParseError = utils.OnParseErrorSkip

	sum, err := runConversion(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Entries)
	assert.Equal(t, []string{"LATITUDE;LONGITUDE;Z_DELTA", "3;4;0"}, readRows(t, cfg.Converter.Output))
}

func TestRun_UnrecognizedLinesDoNotChangeOutput(t *testing.T) {
	clean := testConfig(t, roundTripLog)
	noisy := testConfig(t, "started\n"+strings.Replace(roundTripLog, "A:", "X:junk\nA:", 1)+"G:1;2;3\n")

	_, err := runConversion(t, clean)
	require.NoError(t, err)
	sum, err := runConversion(t, noisy)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Unrecognized)

	a, err := os.ReadFile(clean.Converter.Output)
	require.NoError(t, err)
	b, err := os.ReadFile(noisy.Converter.Output)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_LegacyProtocol(t *testing.T) {
	cfg := testConfig(t, "LATLON:1;2\nACCELE:0;0;9.81\nLATLON:3;4\n")

	_, err := runConversion(t, cfg)
	assert.ErrorIs(t, err, ingest.ErrForeignProtocol)

	cfg.Converter.Protocol = utils.ProtocolLegacy
	sum, err := runConversion(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Entries)
}

func TestRun_MissingInput(t *testing.T) {
	cfg := utils.DefaultConverterConfig()
	cfg.Converter.Input = filepath.Join(t.TempDir(), "nope.log")
	cfg.Converter.Output = filepath.Join(t.TempDir(), "out.csv")

	_, err := runConversion(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "open input")
}

func TestRun_UnwritableOutput(t *testing.T) {
	cfg := testConfig(t, roundTripLog)
	cfg.Converter.Output = filepath.Join(t.TempDir(), "missing-dir", "out.csv")

	_, err := runConversion(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open output")
}

func TestRun_SQLiteSink(t *testing.T) {
	cfg := testConfig(t, roundTripLog+"A:0;0;9.81\nC:10.2;20.2\n")
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "entries.db")

	sum, err := runConversion(t, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, sum.RunID)
	assert.Equal(t, 3, sum.Entries)

	db, err := sql.Open("sqlite", cfg.SQLite.Path)
	require.NoError(t, err)
	defer db.Close()

	var stored, count int
	require.NoError(t, db.QueryRow("SELECT entries FROM runs WHERE run_id = ?", sum.RunID).Scan(&stored))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM entries WHERE run_id = ?", sum.RunID).Scan(&count))
	assert.Equal(t, 3, stored)
	assert.Equal(t, 3, count)

	var lat float64
	require.NoError(t, db.QueryRow("SELECT latitude FROM entries WHERE run_id = ? AND seq = 2", sum.RunID).Scan(&lat))
	assert.InDelta(t, 10.2, lat, 1e-9)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := utils.DefaultConverterConfig()
	cfg.Converter.Pairing = "sideways"
	_, err := NewConversionController(cfg)
	assert.Error(t, err)
}

type recordingSink struct {
	entries  []models.Entry
	failWith error
	closeErr error
	closed   bool
	aborted  bool
}

func (s *recordingSink) WriteEntries(e []models.Entry) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.entries = append(s.entries, e...)
	return nil
}
func (s *recordingSink) Close() error {
	if s.closeErr != nil {
		return s.closeErr
	}
	s.closed = true
	return nil
}
func (s *recordingSink) Abort()       { s.aborted = true }
func (s *recordingSink) Rows() uint64 { return uint64(len(s.entries)) }

func TestConvert_FansOutToSinks(t *testing.T) {
	cc, err := NewConversionController(utils.DefaultConverterConfig())
	require.NoError(t, err)

	a, b := &recordingSink{}, &recordingSink{}
	sum, err := cc.Convert(context.Background(), strings.NewReader(roundTripLog), a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Entries)
	assert.Equal(t, a.entries, b.entries)
	assert.Len(t, a.entries, 2)
}

func TestConvert_SinkErrorStopsConversion(t *testing.T) {
	cc, err := NewConversionController(utils.DefaultConverterConfig())
	require.NoError(t, err)

	boom := errors.New("disk full")
	_, err = cc.Convert(context.Background(), strings.NewReader(roundTripLog), &recordingSink{failWith: boom})
	assert.ErrorIs(t, err, boom)
}

func TestConvert_CancelledContext(t *testing.T) {
	cc, err := NewConversionController(utils.DefaultConverterConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cc.Convert(ctx, strings.NewReader(roundTripLog), &recordingSink{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseSinks_LaterFailureAbortsEarlierSinks(t *testing.T) {
	commitErr := errors.New("database is locked")
	csvSink := &recordingSink{}
	dbSink := &recordingSink{closeErr: commitErr}

	err := closeSinks([]EntrySink{csvSink, dbSink})
	assert.ErrorIs(t, err, commitErr)
	assert.False(t, csvSink.closed, "csv must not be published")
	assert.True(t, csvSink.aborted)
}

func TestCloseSinks_ClosesAll(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	require.NoError(t, closeSinks([]EntrySink{a, b}))
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.False(t, a.aborted)
	assert.False(t, b.aborted)
}

func TestRun_SQLiteCommitFailureKeepsCSVUnpublished(t *testing.T) {
	cfg := testConfig(t, roundTripLog)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "entries.db")

	// First run creates the schema.
	_, err := runConversion(t, cfg)
	require.NoError(t, err)

	// A reader holding a shared lock makes the next commit fail.
	db, err := sql.Open("sqlite", cfg.SQLite.Path)
	require.NoError(t, err)
	defer db.Close()
	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	var runs int
	require.NoError(t, tx.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs))

	cfg.Converter.Output = filepath.Join(t.TempDir(), "second.csv")
	_, err = runConversion(t, cfg)
	require.Error(t, err)

	_, statErr := os.Stat(cfg.Converter.Output)
	assert.True(t, os.IsNotExist(statErr), "csv published despite failed sqlite commit")
	_, statErr = os.Stat(cfg.Converter.Output + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}
