package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ─── Recognised option values ───────────────────────────────────────────

const (
	ProtocolRQ     = "rq"     // C:/A:/R: tags with rotation-vector data
	ProtocolLegacy = "legacy" // LATLON:/ACCELE: tags, no rotation data

	OnParseErrorAbort = "abort"
	OnParseErrorSkip  = "skip"

	PairingForward  = "forward"
	PairingBackward = "backward"

	UnpairedOmit = "omit"
	UnpairedNaN  = "nan"
)

// ─── Section configs ────────────────────────────────────────────────────

type ConverterSection struct {
	Input        string  `yaml:"input"`
	Output       string  `yaml:"output"`
	Protocol     string  `yaml:"protocol"`
	OnParseError string  `yaml:"on_parse_error"`
	Pairing      string  `yaml:"pairing"`
	Unpaired     string  `yaml:"unpaired"`
	Gravity      float64 `yaml:"gravity"`
	MatrixLayout int     `yaml:"matrix_layout"` // 9 (3x3) or 16 (4x4 homogeneous)
}

type CSVSection struct {
	Precision    int  `yaml:"precision"` // -1 = shortest round-trip
	BufferSizeKB int  `yaml:"buffer_size_kb"`
	WriteHeader  bool `yaml:"write_header"`
}

type SQLiteSection struct {
	Path string `yaml:"path"` // empty disables the sink
}

// ConverterConfig is the top-level structure for converter.yaml.
type ConverterConfig struct {
	Converter ConverterSection `yaml:"converter"`
	CSV       CSVSection       `yaml:"csv"`
	SQLite    SQLiteSection    `yaml:"sqlite"`
	LogLevel  string           `yaml:"log_level"`
}

// DefaultConverterConfig reproduces the behaviour of the original formatter:
// rq.log in, goodres.log out, abort on the first malformed line.
func DefaultConverterConfig() *ConverterConfig {
	return &ConverterConfig{
		Converter: ConverterSection{
			Input:        "rq.log",
			Output:       "goodres.log",
			Protocol:     ProtocolRQ,
			OnParseError: OnParseErrorAbort,
			Pairing:      PairingForward,
			Unpaired:     UnpairedOmit,
			Gravity:      9.81,
			MatrixLayout: 9,
		},
		CSV: CSVSection{
			Precision:    -1,
			BufferSizeKB: 256,
			WriteHeader:  true,
		},
		LogLevel: "info",
	}
}

// ─── Loaders ────────────────────────────────────────────────────────────

// LoadConverterConfig reads converter.yaml on top of the defaults. Keys absent
// from the file keep their default value.
func LoadConverterConfig(path string) (*ConverterConfig, error) {
	cfg := DefaultConverterConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read converter config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse converter config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid converter config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enum-like fields and numeric ranges.
func (c *ConverterConfig) Validate() error {
	cv := c.Converter
	if cv.Input == "" {
		return fmt.Errorf("converter.input is empty")
	}
	if cv.Output == "" {
		return fmt.Errorf("converter.output is empty")
	}
	if err := oneOf("converter.protocol", cv.Protocol, ProtocolRQ, ProtocolLegacy); err != nil {
		return err
	}
	if err := oneOf("converter.on_parse_error", cv.OnParseError, OnParseErrorAbort, OnParseErrorSkip); err != nil {
		return err
	}
	if err := oneOf("converter.pairing", cv.Pairing, PairingForward, PairingBackward); err != nil {
		return err
	}
	if err := oneOf("converter.unpaired", cv.Unpaired, UnpairedOmit, UnpairedNaN); err != nil {
		return err
	}
	if !(cv.Gravity > 0) {
		return fmt.Errorf("converter.gravity must be positive, got %v", cv.Gravity)
	}
	if cv.MatrixLayout != 9 && cv.MatrixLayout != 16 {
		return fmt.Errorf("converter.matrix_layout must be 9 or 16, got %d", cv.MatrixLayout)
	}
	if c.CSV.Precision < -1 {
		return fmt.Errorf("csv.precision must be >= -1, got %d", c.CSV.Precision)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

func oneOf(key, got string, allowed ...string) error {
	for _, a := range allowed {
		if got == a {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of %v", key, got, allowed)
}
