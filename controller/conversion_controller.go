package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"rq-formatter/models"
	"rq-formatter/services/ingest"
	"rq-formatter/utils"
	"rq-formatter/views"
)

// EntrySink receives entries in production order.
type EntrySink interface {
	WriteEntries(entries []models.Entry) error
	// Close makes everything written durable.
	Close() error
	// Abort discards everything written.
	Abort()
	Rows() uint64
}

// Summary describes a finished conversion.
type Summary struct {
	ingest.ReaderStats
	AggregatorStats

	RunID string // set when the SQLite sink is enabled
}

// ConversionController runs the single-pass pipeline:
//
//	log file ──► LogReader ──► BlockAggregator ──► sinks (CSV, optional SQLite)
type ConversionController struct {
	cfg     *utils.ConverterConfig
	cls     *ingest.LineClassifier
	policy  ingest.ParsePolicy
	aggOpts AggregatorOptions
}

// NewConversionController resolves the configuration into pipeline stages.
func NewConversionController(cfg *utils.ConverterConfig) (*ConversionController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	proto, err := ingest.ProtocolByName(cfg.Converter.Protocol)
	if err != nil {
		return nil, err
	}
	policy, err := ingest.ParsePolicyByName(cfg.Converter.OnParseError)
	if err != nil {
		return nil, err
	}
	opts, err := AggregatorOptionsFromConfig(cfg.Converter)
	if err != nil {
		return nil, err
	}
	return &ConversionController{
		cfg:     cfg,
		cls:     ingest.NewLineClassifier(proto),
		policy:  policy,
		aggOpts: opts,
	}, nil
}

// Run converts the configured input file into the configured outputs. Outputs
// are only published when the whole input converted successfully.
func (cc *ConversionController) Run(ctx context.Context) (Summary, error) {
	in := cc.cfg.Converter.Input
	f, err := os.Open(in)
	if err != nil {
		return Summary{}, fmt.Errorf("open input %s: %w", in, err)
	}
	defer f.Close()

	sinks, err := cc.openSinks()
	if err != nil {
		return Summary{}, err
	}

	sum, err := cc.Convert(ctx, f, sinks...)
	if err != nil {
		for _, s := range sinks {
			s.Abort()
		}
		return sum, err
	}

	if err := closeSinks(sinks); err != nil {
		return sum, err
	}
	for _, s := range sinks {
		if sq, ok := s.(*views.SQLiteSink); ok {
			sum.RunID = sq.RunID()
		}
	}
	return sum, nil
}

// closeSinks closes sinks in reverse order and aborts the ones not yet
// closed on the first failure. The CSV sink comes first in the list, so the
// output file is only published once every other sink has committed.
func closeSinks(sinks []EntrySink) error {
	for i := len(sinks) - 1; i >= 0; i-- {
		if err := sinks[i].Close(); err != nil {
			for _, rest := range sinks[:i] {
				rest.Abort()
			}
			return err
		}
		utils.L().Debug("sink %v closed (rows=%d)", sinks[i], sinks[i].Rows())
	}
	return nil
}

func (cc *ConversionController) openSinks() ([]EntrySink, error) {
	cv, csvCfg := cc.cfg.Converter, cc.cfg.CSV

	csvSink, err := views.NewEntryCSV(cv.Output, csvCfg.BufferSizeKB*1024, csvCfg.WriteHeader, csvCfg.Precision)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	sinks := []EntrySink{csvSink}

	if p := cc.cfg.SQLite.Path; p != "" {
		sq, err := views.NewSQLiteSink(p, cv.Input, cv.Output)
		if err != nil {
			csvSink.Abort()
			return nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		sinks = append(sinks, sq)
	}
	return sinks, nil
}

// Convert streams r through the classifier and aggregator, handing entries
// to every sink as blocks close. Sinks are neither closed nor aborted here.
func (cc *ConversionController) Convert(ctx context.Context, r io.Reader, sinks ...EntrySink) (Summary, error) {
	reader := ingest.NewLogReader(r, cc.cls, cc.policy)
	agg := NewBlockAggregator(cc.aggOpts)

	summary := func() Summary {
		return Summary{ReaderStats: reader.Stats(), AggregatorStats: agg.Stats()}
	}
	emit := func(entries []models.Entry) error {
		if len(entries) == 0 {
			return nil
		}
		for _, s := range sinks {
			if err := s.WriteEntries(entries); err != nil {
				return err
			}
		}
		return nil
	}

	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return summary(), err
			}
		}
		ll, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary(), err
		}
		if err := emit(agg.Process(ll)); err != nil {
			return summary(), err
		}
	}
	if err := emit(agg.Finish()); err != nil {
		return summary(), err
	}

	sum := summary()
	utils.L().Info("converted %d lines: fixes=%d accel=%d rotation=%d unrecognized=%d skipped=%d",
		sum.Lines, sum.Coordinates, sum.Accelerations, sum.Orientations, sum.Unrecognized, sum.Skipped)
	utils.L().Info("blocks=%d empty=%d unpaired=%d omitted_samples=%d orphan_samples=%d entries=%d",
		sum.Blocks, sum.EmptyBlocks, sum.UnpairedBlocks, sum.OmittedSamples, sum.OrphanSamples, sum.Entries)
	return sum, nil
}
