package controller

import (
	"fmt"

	"rq-formatter/models"
	"rq-formatter/services/geo"
	"rq-formatter/services/orientation"
	"rq-formatter/utils"
)

// Pairing selects which two fixes bracket the samples of a block.
type Pairing int

const (
	// PairForward places the samples after fix k between fix k and fix k+1.
	PairForward Pairing = iota
	// PairBackward places the samples after fix k between fix k-1 and fix k.
	// This matches how the capture service flushes samples gathered since
	// the previous location together with the new one.
	PairBackward
)

// UnpairedPolicy decides what happens to samples of a block that lacks one of
// its two bracketing fixes.
type UnpairedPolicy int

const (
	// OmitUnpaired drops deltas that have no fix on one side.
	OmitUnpaired UnpairedPolicy = iota
	// NaNUnpaired emits such deltas with NaN coordinates.
	NaNUnpaired
)

// AggregatorOptions configures a BlockAggregator.
type AggregatorOptions struct {
	Pairing  Pairing
	Unpaired UnpairedPolicy
	Gravity  float64
	Layout   orientation.Layout
}

// DefaultAggregatorOptions mirrors utils.DefaultConverterConfig.
func DefaultAggregatorOptions() AggregatorOptions {
	return AggregatorOptions{
		Pairing:  PairForward,
		Unpaired: OmitUnpaired,
		Gravity:  9.81,
		Layout:   orientation.Layout3x3,
	}
}

// AggregatorOptionsFromConfig resolves the converter section of the config.
func AggregatorOptionsFromConfig(c utils.ConverterSection) (AggregatorOptions, error) {
	o := DefaultAggregatorOptions()
	switch c.Pairing {
	case utils.PairingForward:
		o.Pairing = PairForward
	case utils.PairingBackward:
		o.Pairing = PairBackward
	default:
		return o, fmt.Errorf("unknown pairing %q", c.Pairing)
	}
	switch c.Unpaired {
	case utils.UnpairedOmit:
		o.Unpaired = OmitUnpaired
	case utils.UnpairedNaN:
		o.Unpaired = NaNUnpaired
	default:
		return o, fmt.Errorf("unknown unpaired policy %q", c.Unpaired)
	}
	layout, err := orientation.LayoutFromLen(c.MatrixLayout)
	if err != nil {
		return o, err
	}
	o.Layout = layout
	o.Gravity = c.Gravity
	return o, nil
}

// AggregatorStats counts blocks and samples seen by the aggregator.
type AggregatorStats struct {
	Blocks         int // blocks closed
	EmptyBlocks    int // blocks without acceleration samples
	UnpairedBlocks int // blocks missing a bracketing fix
	OmittedSamples int // samples dropped with unpaired blocks
	OrphanSamples  int // samples before the first fix
	Entries        int
}

// BlockAggregator groups classified lines into fix-delimited blocks and
// turns each block's acceleration samples into Entries. The orientation
// tracker lives for the whole stream; everything else is per block.
type BlockAggregator struct {
	opts    AggregatorOptions
	tracker *orientation.Tracker

	previous *models.Fix
	current  *models.Fix
	open     bool
	openLine int
	deltas   []float64

	stats AggregatorStats
}

// NewBlockAggregator returns an aggregator with no open block.
func NewBlockAggregator(opts AggregatorOptions) *BlockAggregator {
	return &BlockAggregator{
		opts:    opts,
		tracker: orientation.NewTracker(opts.Layout),
	}
}

// Process consumes one line in file order and returns the entries of any
// block the line closed.
func (a *BlockAggregator) Process(ll models.LogLine) []models.Entry {
	switch ll.Kind {
	case models.KindCoordinate:
		fix := ll.Fix
		out := a.closeBlock(&fix)
		a.previous = a.current
		a.current = &fix
		a.open = true
		a.openLine = ll.Number
		a.deltas = a.deltas[:0]
		return out

	case models.KindAcceleration:
		if !a.open {
			a.stats.OrphanSamples++
			return nil
		}
		a.deltas = append(a.deltas,
			orientation.VerticalDelta(ll.Accel, a.tracker.Matrix(), a.opts.Gravity))

	case models.KindOrientation:
		a.tracker.Update(ll.Rotation)
	}
	return nil
}

// Finish closes the last open block.
func (a *BlockAggregator) Finish() []models.Entry {
	out := a.closeBlock(nil)
	a.open = false
	return out
}

// Stats returns a snapshot of the counters.
func (a *BlockAggregator) Stats() AggregatorStats { return a.stats }

// closeBlock emits the open block's entries. next is the fix that ends the
// block, nil at end of input.
func (a *BlockAggregator) closeBlock(next *models.Fix) []models.Entry {
	if !a.open {
		return nil
	}
	a.stats.Blocks++

	n := len(a.deltas)
	if n == 0 {
		a.stats.EmptyBlocks++
		return nil
	}

	from, to := a.current, next
	if a.opts.Pairing == PairBackward {
		from, to = a.previous, a.current
	}

	var out []models.Entry
	switch {
	case from != nil && to != nil:
		out = geo.Interpolate(*from, *to, a.deltas)
	case a.opts.Unpaired == NaNUnpaired:
		a.stats.UnpairedBlocks++
		out = geo.Unpositioned(a.deltas)
	default:
		a.stats.UnpairedBlocks++
		a.stats.OmittedSamples += n
		utils.L().Warn("block at line %d: %d samples have no %s fix to pair with, omitted",
			a.openLine, n, a.missingSide())
		return nil
	}
	a.stats.Entries += len(out)
	return out
}

func (a *BlockAggregator) missingSide() string {
	if a.opts.Pairing == PairBackward {
		return "previous"
	}
	return "next"
}
