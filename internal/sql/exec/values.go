package exec

import (
	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/sql/types"
)

// ValuesOperator is a source stage producing batches from rows already in
// memory. Used for fixed inputs and throughout the tests.
type ValuesOperator struct {
	opCtx        *OperatorContext
	channelTypes []types.DataType
	rows         [][]types.Value
	vectorSize   int
	pos          int
	finishing    bool
}

// NewValuesOperator creates a source over the given rows. Batches carry at
// most vectorSize rows each.
func NewValuesOperator(opCtx *OperatorContext, channelTypes []types.DataType, rows [][]types.Value, vectorSize int) (*ValuesOperator, error) {
	if opCtx == nil {
		return nil, errors.New(errors.NullValueNotAllowed, "operator context is nil").
			WithWhere("ValuesOperator")
	}
	if len(channelTypes) == 0 {
		return nil, errors.ConstructionError("ValuesOperator", "at least one output type is required")
	}
	if vectorSize <= 0 {
		return nil, errors.ConstructionError("ValuesOperator", "vector size must be positive").
			WithDetailf("got %d", vectorSize)
	}
	for i, row := range rows {
		if len(row) != len(channelTypes) {
			return nil, errors.ConstructionError("ValuesOperator", "row width does not match type count").
				WithDetailf("row %d has %d values, want %d", i, len(row), len(channelTypes))
		}
	}

	kept := make([]types.DataType, len(channelTypes))
	copy(kept, channelTypes)
	return &ValuesOperator{
		opCtx:        opCtx,
		channelTypes: kept,
		rows:         rows,
		vectorSize:   vectorSize,
	}, nil
}

// Context returns the operator's accounting context.
func (op *ValuesOperator) Context() *OperatorContext {
	return op.opCtx
}

// Types returns the ordered output channel types.
func (op *ValuesOperator) Types() []types.DataType {
	return op.channelTypes
}

// NeedsInput always reports false: sources accept no input.
func (op *ValuesOperator) NeedsInput() bool {
	return false
}

// AddInput is a protocol fault on a source operator.
func (op *ValuesOperator) AddInput(*Batch) error {
	return errors.ProtocolError("ValuesOperator", "source operator accepts no input")
}

// GetOutput transposes the next chunk of rows into a columnar batch.
func (op *ValuesOperator) GetOutput() (*Batch, error) {
	if op.finishing || op.pos >= len(op.rows) {
		return nil, nil
	}

	end := op.pos + op.vectorSize
	if end > len(op.rows) {
		end = len(op.rows)
	}
	chunk := op.rows[op.pos:end]
	op.pos = end

	columns := make([][]types.Value, len(op.channelTypes))
	for ch := range columns {
		col := make([]types.Value, len(chunk))
		for i, row := range chunk {
			col[i] = row[ch]
		}
		columns[ch] = col
	}
	return NewBatch(op.channelTypes, columns)
}

// IsBlocked always reports false.
func (op *ValuesOperator) IsBlocked() bool {
	return false
}

// Finish stops the source; remaining rows are discarded.
func (op *ValuesOperator) Finish() {
	op.finishing = true
}

// IsFinished reports whether all rows were emitted or the source was finished.
func (op *ValuesOperator) IsFinished() bool {
	return op.finishing || op.pos >= len(op.rows)
}
