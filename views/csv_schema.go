package views

import "rq-formatter/models"

// Delimiter separates CSV fields in the converter output.
const Delimiter = ';'

// SinkType identifies an output sink for schema lookups.
type SinkType int

const (
	SinkCSV SinkType = iota
	SinkSQLite
)

var sinkNames = map[SinkType]string{
	SinkCSV:    "csv",
	SinkSQLite: "sqlite",
}

func (s SinkType) String() string {
	if n, ok := sinkNames[s]; ok {
		return n
	}
	return "unknown"
}

// SchemaColumns is the single source of truth for column ordering per sink.
var SchemaColumns = map[SinkType][]string{
	SinkCSV:    models.Entry{}.CSVHeader(),
	SinkSQLite: {"run_id", "seq", "latitude", "longitude", "delta_z"},
}

// sqliteSchema creates the tables used by SQLiteSink.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	input_path  TEXT NOT NULL,
	output_path TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	entries     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS entries (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	seq       INTEGER NOT NULL,
	latitude  DOUBLE,
	longitude DOUBLE,
	delta_z   DOUBLE NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`
