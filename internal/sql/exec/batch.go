package exec

import (
	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/sql/types"
)

// Batch is an immutable columnar chunk of rows flowing between pipeline
// stages. Every channel of a batch holds exactly one value per row, so all
// channels have equal length. A batch is a purely functional view over
// already-materialized data; the only way to read it is through forward-only
// cursors.
type Batch struct {
	channels []channelData
	rowCount int
}

type channelData struct {
	typ    types.DataType
	values []types.Value
}

// NewBatch builds a batch from per-channel value slices. The slices are
// retained, not copied; callers must not mutate them afterwards.
func NewBatch(channelTypes []types.DataType, channels [][]types.Value) (*Batch, error) {
	if len(channelTypes) == 0 {
		return nil, errors.ConstructionError("Batch", "batch requires at least one channel")
	}
	if len(channels) != len(channelTypes) {
		return nil, errors.ConstructionError("Batch", "channel count does not match type count").
			WithDetailf("%d types, %d channels", len(channelTypes), len(channels))
	}

	rowCount := len(channels[0])
	for i, ch := range channels {
		if len(ch) != rowCount {
			return nil, errors.New(errors.DataCorrupted, "channels have unequal lengths").
				WithWhere("Batch").
				WithDetailf("channel 0 has %d rows, channel %d has %d rows", rowCount, i, len(ch))
		}
	}

	b := &Batch{
		channels: make([]channelData, len(channels)),
		rowCount: rowCount,
	}
	for i, ch := range channels {
		b.channels[i] = channelData{typ: channelTypes[i], values: ch}
	}
	return b, nil
}

// ChannelCount returns the number of channels in the batch.
func (b *Batch) ChannelCount() int {
	return len(b.channels)
}

// RowCount returns the number of rows in the batch.
func (b *Batch) RowCount() int {
	return b.rowCount
}

// ChannelType returns the declared type of the given channel.
func (b *Batch) ChannelType(channel int) types.DataType {
	return b.channels[channel].typ
}

// Cursor creates a fresh forward-only cursor over one channel.
func (b *Batch) Cursor(channel int) *Cursor {
	ch := b.channels[channel]
	return &Cursor{typ: ch.typ, values: ch.values, pos: -1}
}

// Cursor is a forward-only position marker over one channel's values.
// Once exhausted it stays exhausted.
type Cursor struct {
	typ    types.DataType
	values []types.Value
	pos    int
}

// Advance moves the cursor to the next value and reports whether one exists.
func (c *Cursor) Advance() bool {
	if c.pos >= len(c.values) {
		return false
	}
	c.pos++
	return c.pos < len(c.values)
}

// Valid reports whether the cursor is positioned on a row.
func (c *Cursor) Valid() bool {
	return c.pos >= 0 && c.pos < len(c.values)
}

// Value returns the value at the current position. It must only be called
// after a successful Advance.
func (c *Cursor) Value() types.Value {
	return c.values[c.pos]
}

// Type returns the channel's declared type.
func (c *Cursor) Type() types.DataType {
	return c.typ
}

// advanceAll advances every cursor in lockstep. When reading N channels of
// one batch row-synchronously, all cursors must report exhaustion on the
// same call; divergence means an upstream producer broke the
// channel-alignment invariant and is surfaced as a data-corruption fault.
func advanceAll(cursors []*Cursor, where string) (bool, error) {
	advanced := cursors[0].Advance()
	for _, c := range cursors[1:] {
		if c.Advance() != advanced {
			return false, errors.CursorDivergenceError(where)
		}
	}
	return advanced, nil
}
