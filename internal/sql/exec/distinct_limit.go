package exec

import (
	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/sql/types"
)

// DistinctLimitOperatorFactory builds one DistinctLimitOperator per pipeline
// instance. The factory has a two-state lifecycle: open, then closed. Close
// only marks the factory unusable for further creation; operators already
// created are unaffected.
type DistinctLimitOperatorFactory struct {
	operatorID   int
	channelTypes []types.DataType
	limit        int64
	closed       bool
}

// NewDistinctLimitOperatorFactory validates the configuration once, so
// construction faults are never observable after this returns.
func NewDistinctLimitOperatorFactory(operatorID int, channelTypes []types.DataType, limit int64) (*DistinctLimitOperatorFactory, error) {
	if err := validateDistinctLimitConfig(channelTypes, limit); err != nil {
		return nil, err
	}
	kept := make([]types.DataType, len(channelTypes))
	copy(kept, channelTypes)
	return &DistinctLimitOperatorFactory{
		operatorID:   operatorID,
		channelTypes: kept,
		limit:        limit,
	}, nil
}

// Types returns the ordered output channel types.
func (f *DistinctLimitOperatorFactory) Types() []types.DataType {
	return f.channelTypes
}

// CreateOperator registers a new stage with the execution context and
// returns a fresh operator. Fails once the factory is closed.
func (f *DistinctLimitOperatorFactory) CreateOperator(execCtx *ExecContext) (*DistinctLimitOperator, error) {
	if f.closed {
		return nil, errors.IllegalStateError("DistinctLimitOperatorFactory", "factory is already closed")
	}
	if execCtx == nil {
		return nil, errors.New(errors.NullValueNotAllowed, "execution context is nil").
			WithWhere("DistinctLimitOperatorFactory")
	}
	opCtx := execCtx.RegisterStage(f.operatorID, "DistinctLimitOperator")
	return NewDistinctLimitOperator(opCtx, f.channelTypes, f.limit)
}

// Close marks the factory unusable for further operator creation. Idempotent.
func (f *DistinctLimitOperatorFactory) Close() {
	f.closed = true
}

// DistinctLimitOperator implements SELECT DISTINCT <cols> LIMIT n over an
// unbounded stream of batches. Distinctness is computed on the full
// projected row, so every channel is a key channel.
//
// The algorithm leans on one invariant of the grouping engine: ids are
// assigned strictly in first-seen order, and nextDistinctID counts exactly
// how many distinct keys have been accepted. A row's id can therefore equal
// nextDistinctID at most once ever, the moment its key is first encountered;
// every later repetition carries a smaller id and is skipped without any
// separate "already emitted" set.
type DistinctLimitOperator struct {
	opCtx        *OperatorContext
	channelTypes []types.DataType

	groupByHash *GroupByHash
	builder     *BatchBuilder
	output      *Batch

	remainingLimit int64
	nextDistinctID int64
	finishing      bool
}

// NewDistinctLimitOperator creates the operator. Use the factory in pipeline
// build-out; this constructor is the factory's workhorse.
func NewDistinctLimitOperator(opCtx *OperatorContext, channelTypes []types.DataType, limit int64) (*DistinctLimitOperator, error) {
	if opCtx == nil {
		return nil, errors.New(errors.NullValueNotAllowed, "operator context is nil").
			WithWhere("DistinctLimitOperator")
	}
	if err := validateDistinctLimitConfig(channelTypes, limit); err != nil {
		return nil, err
	}

	keyChannels := make([]int, len(channelTypes))
	for i := range channelTypes {
		keyChannels[i] = i
	}

	// The hint is a tuning input only; the hash grows unbounded as needed.
	hint := limit
	if hint > maxExpectedGroups {
		hint = maxExpectedGroups
	}
	groupByHash, err := NewGroupByHash(keyChannels, int(hint))
	if err != nil {
		return nil, err
	}

	builder, err := NewBatchBuilder(channelTypes)
	if err != nil {
		return nil, err
	}

	kept := make([]types.DataType, len(channelTypes))
	copy(kept, channelTypes)
	return &DistinctLimitOperator{
		opCtx:          opCtx,
		channelTypes:   kept,
		groupByHash:    groupByHash,
		builder:        builder,
		remainingLimit: limit,
	}, nil
}

func validateDistinctLimitConfig(channelTypes []types.DataType, limit int64) error {
	if len(channelTypes) == 0 {
		return errors.ConstructionError("DistinctLimitOperator", "at least one output type is required")
	}
	for i, t := range channelTypes {
		if t == nil {
			return errors.ConstructionError("DistinctLimitOperator", "output type is nil").
				WithDetailf("channel %d", i)
		}
	}
	if limit < 0 {
		return errors.ConstructionError("DistinctLimitOperator", "limit must be at least zero").
			WithDetailf("got %d", limit)
	}
	return nil
}

// Context returns the operator's accounting context.
func (op *DistinctLimitOperator) Context() *OperatorContext {
	return op.opCtx
}

// Types returns the ordered output channel types.
func (op *DistinctLimitOperator) Types() []types.DataType {
	return op.channelTypes
}

// NeedsInput reports whether another batch can be pushed: the operator is
// not finishing, the limit is not yet satisfied, and no output is pending.
// The grouping engine's footprint is published on every poll since any
// earlier call may have changed it.
func (op *DistinctLimitOperator) NeedsInput() bool {
	op.opCtx.ReportMemoryReservation(op.groupByHash.EstimatedMemoryBytes())
	return !op.finishing && op.remainingLimit > 0 && op.output == nil
}

// AddInput runs one batch through the grouping engine and copies each row
// whose key is the next not-yet-accepted distinct key into the output
// builder, stopping early the instant the limit is satisfied.
func (op *DistinctLimitOperator) AddInput(b *Batch) error {
	if b == nil {
		return errors.ProtocolError("DistinctLimitOperator", "addInput called with nil batch")
	}
	if !op.NeedsInput() {
		return errors.ProtocolError("DistinctLimitOperator", "addInput called when needsInput is false")
	}
	if b.ChannelCount() != len(op.channelTypes) {
		return errors.ProtocolError("DistinctLimitOperator", "batch channel count does not match operator types").
			WithDetailf("%d channels, %d types", b.ChannelCount(), len(op.channelTypes))
	}

	// Cursors are call-scoped: created fresh per invocation, unreachable
	// after it, so no stale references survive between calls.
	cursors := make([]*Cursor, b.ChannelCount())
	for i := range cursors {
		cursors[i] = b.Cursor(i)
	}
	op.builder.Reset()

	// This inserts every new key in the batch, including keys on rows past
	// the limit. Memory can grow slightly beyond what the limit strictly
	// needs; the governor sees it either way.
	ids, err := op.groupByHash.GetGroupIDs(b)
	if err != nil {
		return err
	}
	op.opCtx.ReportMemoryReservation(op.groupByHash.EstimatedMemoryBytes())

	for i := 0; i < len(ids); i++ {
		advanced, err := advanceAll(cursors, "DistinctLimitOperator")
		if err != nil {
			return err
		}
		if !advanced {
			return errors.New(errors.DataCorrupted, "group ids outnumber batch rows").
				WithWhere("DistinctLimitOperator")
		}
		if ids[i] != op.nextDistinctID {
			// Duplicate of an already-accepted key.
			continue
		}
		for ch := range cursors {
			if err := op.builder.AppendFrom(cursors[ch], ch); err != nil {
				return err
			}
		}
		op.remainingLimit--
		op.nextDistinctID++
		if op.remainingLimit == 0 {
			break
		}
	}

	if !op.builder.IsEmpty() {
		out, err := op.builder.Build()
		if err != nil {
			return err
		}
		op.output = out
	}
	return nil
}

// GetOutput returns and clears the held output batch, if any.
func (op *DistinctLimitOperator) GetOutput() (*Batch, error) {
	out := op.output
	op.output = nil
	return out, nil
}

// IsBlocked always reports false: the operator has no I/O of its own and
// never suspends itself waiting on external events.
func (op *DistinctLimitOperator) IsBlocked() bool {
	return false
}

// Finish marks that no more input will arrive and releases working state
// promptly rather than waiting for pipeline teardown.
func (op *DistinctLimitOperator) Finish() {
	op.finishing = true
	op.builder.Reset()
}

// IsFinished reports true once the operator will produce no more output:
// finishing was requested or the limit is satisfied, and any pending output
// has been drained.
func (op *DistinctLimitOperator) IsFinished() bool {
	return (op.finishing || op.remainingLimit == 0) && op.output == nil
}
