package exec

import (
	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/sql/types"
)

// BatchBuilder accumulates appended values into parallel column buffers and
// snapshots them into immutable batches. A builder is owned exclusively by
// one operator and is never shared across batches concurrently.
type BatchBuilder struct {
	channelTypes []types.DataType
	columns      [][]types.Value
}

// NewBatchBuilder creates a builder producing batches with the given channel types.
func NewBatchBuilder(channelTypes []types.DataType) (*BatchBuilder, error) {
	if len(channelTypes) == 0 {
		return nil, errors.ConstructionError("BatchBuilder", "builder requires at least one channel")
	}
	for i, t := range channelTypes {
		if t == nil {
			return nil, errors.ConstructionError("BatchBuilder", "channel type is nil").
				WithDetailf("channel %d", i)
		}
	}
	return &BatchBuilder{
		channelTypes: channelTypes,
		columns:      make([][]types.Value, len(channelTypes)),
	}, nil
}

// AppendFrom copies the cursor's current value into the given channel's
// output buffer. The cursor must be positioned on a valid row; appending
// from an exhausted cursor signals a control-flow bug upstream.
func (b *BatchBuilder) AppendFrom(cur *Cursor, channel int) error {
	if channel < 0 || channel >= len(b.columns) {
		return errors.ProtocolError("BatchBuilder", "append to unknown channel").
			WithDetailf("channel %d of %d", channel, len(b.columns))
	}
	if !cur.Valid() {
		return errors.ProtocolError("BatchBuilder", "append from cursor that is not positioned on a row")
	}
	b.columns[channel] = append(b.columns[channel], cur.Value())
	return nil
}

// IsEmpty reports whether nothing has been appended since the last reset.
func (b *BatchBuilder) IsEmpty() bool {
	for _, col := range b.columns {
		if len(col) > 0 {
			return false
		}
	}
	return true
}

// Build snapshots the current contents into an immutable batch and resets
// the builder for reuse.
func (b *BatchBuilder) Build() (*Batch, error) {
	batch, err := NewBatch(b.channelTypes, b.columns)
	if err != nil {
		return nil, err
	}
	b.columns = make([][]types.Value, len(b.channelTypes))
	return batch, nil
}

// Reset clears internal buffers without building.
func (b *BatchBuilder) Reset() {
	for i := range b.columns {
		b.columns[i] = nil
	}
}
