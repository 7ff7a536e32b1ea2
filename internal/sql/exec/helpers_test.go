package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/Vectra/internal/sql/types"
)

func newTestExecContext(ceiling int64) *ExecContext {
	return NewExecContext(NewMemoryGovernor(ceiling), nil)
}

func newTestOpCtx(t *testing.T) *OperatorContext {
	t.Helper()
	return newTestExecContext(0).RegisterStage(0, "test")
}

func mustBatch(t *testing.T, channelTypes []types.DataType, columns [][]types.Value) *Batch {
	t.Helper()
	b, err := NewBatch(channelTypes, columns)
	require.NoError(t, err)
	return b
}

// drainChannel reads one channel of a batch front to back through a cursor.
func drainChannel(t *testing.T, b *Batch, channel int) []types.Value {
	t.Helper()
	var out []types.Value
	cur := b.Cursor(channel)
	for cur.Advance() {
		out = append(out, cur.Value())
	}
	return out
}

// raggedBatch builds a batch whose channels disagree on length, bypassing
// construction validation, to exercise consistency-fault paths.
func raggedBatch(channelTypes []types.DataType, columns [][]types.Value, advertisedRows int) *Batch {
	b := &Batch{rowCount: advertisedRows}
	for i, col := range columns {
		b.channels = append(b.channels, channelData{typ: channelTypes[i], values: col})
	}
	return b
}
