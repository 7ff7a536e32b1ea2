package exec

import (
	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/sql/types"
)

// LimitOperator passes through the first n rows of the stream and drops the
// rest. Unlike DistinctLimitOperator it keeps no state per key, so a batch
// that fits entirely under the limit is forwarded as-is without copying.
type LimitOperator struct {
	opCtx        *OperatorContext
	channelTypes []types.DataType
	builder      *BatchBuilder
	output       *Batch

	remaining int64
	finishing bool
}

// NewLimitOperator creates a streaming LIMIT stage.
func NewLimitOperator(opCtx *OperatorContext, channelTypes []types.DataType, limit int64) (*LimitOperator, error) {
	if opCtx == nil {
		return nil, errors.New(errors.NullValueNotAllowed, "operator context is nil").
			WithWhere("LimitOperator")
	}
	if len(channelTypes) == 0 {
		return nil, errors.ConstructionError("LimitOperator", "at least one output type is required")
	}
	if limit < 0 {
		return nil, errors.ConstructionError("LimitOperator", "limit must be at least zero").
			WithDetailf("got %d", limit)
	}

	builder, err := NewBatchBuilder(channelTypes)
	if err != nil {
		return nil, err
	}
	kept := make([]types.DataType, len(channelTypes))
	copy(kept, channelTypes)
	return &LimitOperator{
		opCtx:        opCtx,
		channelTypes: kept,
		builder:      builder,
		remaining:    limit,
	}, nil
}

// Context returns the operator's accounting context.
func (op *LimitOperator) Context() *OperatorContext {
	return op.opCtx
}

// Types returns the ordered output channel types.
func (op *LimitOperator) Types() []types.DataType {
	return op.channelTypes
}

// NeedsInput reports whether another batch can be pushed.
func (op *LimitOperator) NeedsInput() bool {
	return !op.finishing && op.remaining > 0 && op.output == nil
}

// AddInput keeps the first min(remaining, rowCount) rows of the batch.
func (op *LimitOperator) AddInput(b *Batch) error {
	if b == nil {
		return errors.ProtocolError("LimitOperator", "addInput called with nil batch")
	}
	if !op.NeedsInput() {
		return errors.ProtocolError("LimitOperator", "addInput called when needsInput is false")
	}
	if b.ChannelCount() != len(op.channelTypes) {
		return errors.ProtocolError("LimitOperator", "batch channel count does not match operator types").
			WithDetailf("%d channels, %d types", b.ChannelCount(), len(op.channelTypes))
	}

	if int64(b.RowCount()) <= op.remaining {
		op.remaining -= int64(b.RowCount())
		op.output = b
		return nil
	}

	cursors := make([]*Cursor, b.ChannelCount())
	for i := range cursors {
		cursors[i] = b.Cursor(i)
	}
	op.builder.Reset()
	for op.remaining > 0 {
		advanced, err := advanceAll(cursors, "LimitOperator")
		if err != nil {
			return err
		}
		if !advanced {
			break
		}
		for ch := range cursors {
			if err := op.builder.AppendFrom(cursors[ch], ch); err != nil {
				return err
			}
		}
		op.remaining--
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
func (op *LimitOperator) GetOutput() (*Batch, error) {
	out := op.output
	op.output = nil
	return out, nil
}

// IsBlocked always reports false.
func (op *LimitOperator) IsBlocked() bool {
	return false
}

// Finish marks that no more input will arrive.
func (op *LimitOperator) Finish() {
	op.finishing = true
	op.builder.Reset()
}

// IsFinished reports whether the operator will produce no more output.
func (op *LimitOperator) IsFinished() bool {
	return (op.finishing || op.remaining == 0) && op.output == nil
}
