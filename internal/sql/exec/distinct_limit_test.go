package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/sql/types"
	"github.com/dshills/Vectra/internal/testutil"
)

func newDistinctLimit(t *testing.T, channelTypes []types.DataType, limit int64) *DistinctLimitOperator {
	t.Helper()
	op, err := NewDistinctLimitOperator(newTestOpCtx(t), channelTypes, limit)
	require.NoError(t, err)
	return op
}

// pushAndPull feeds one batch and returns the produced output, if any.
func pushAndPull(t *testing.T, op *DistinctLimitOperator, b *Batch) *Batch {
	t.Helper()
	require.True(t, op.NeedsInput())
	require.NoError(t, op.AddInput(b))
	out, err := op.GetOutput()
	require.NoError(t, err)
	return out
}

func TestDistinctLimitSingleChannel(t *testing.T) {
	// rows [1,2,1,3,2,4] with limit 3 keep [1,2,3] in first-seen order.
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 3)

	b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1, 2, 1, 3, 2, 4),
	})
	out := pushAndPull(t, op, b)
	require.NotNil(t, out)
	testutil.AssertValuesEqual(t, testutil.Int64Values(1, 2, 3), drainChannel(t, out, 0))

	assert.True(t, op.IsFinished(), "limit satisfied and output drained")
	assert.False(t, op.NeedsInput())
}

func TestDistinctLimitTwoChannels(t *testing.T) {
	// rows (a,1),(a,1),(b,2),(a,1),(c,3) with limit 2 keep (a,1),(b,2).
	channelTypes := []types.DataType{types.Text, types.BigInt}
	op := newDistinctLimit(t, channelTypes, 2)

	b := mustBatch(t, channelTypes, [][]types.Value{
		testutil.TextValues("a", "a", "b", "a", "c"),
		testutil.Int64Values(1, 1, 2, 1, 3),
	})
	out := pushAndPull(t, op, b)
	require.NotNil(t, out)
	testutil.AssertValuesEqual(t, testutil.TextValues("a", "b"), drainChannel(t, out, 0))
	testutil.AssertValuesEqual(t, testutil.Int64Values(1, 2), drainChannel(t, out, 1))
	assert.True(t, op.IsFinished())
}

func TestDistinctLimitZero(t *testing.T) {
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 0)

	assert.True(t, op.IsFinished(), "limit 0 is finished before any input")
	assert.False(t, op.NeedsInput())

	out, err := op.GetOutput()
	require.NoError(t, err)
	assert.Nil(t, out)

	b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1),
	})
	err = op.AddInput(b)
	assert.True(t, errors.HasCode(err, errors.ProtocolViolation))
}

func TestDistinctLimitAcrossBatches(t *testing.T) {
	// Dedup spans batch boundaries: [1,2] then [1,3,4] with limit 4.
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 4)

	first := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1, 2),
	})
	out := pushAndPull(t, op, first)
	require.NotNil(t, out)
	testutil.AssertValuesEqual(t, testutil.Int64Values(1, 2), drainChannel(t, out, 0))
	assert.False(t, op.IsFinished())
	assert.True(t, op.NeedsInput())

	second := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1, 3, 4),
	})
	out = pushAndPull(t, op, second)
	require.NotNil(t, out)
	testutil.AssertValuesEqual(t, testutil.Int64Values(3, 4), drainChannel(t, out, 0))
	assert.True(t, op.IsFinished())
}

func TestDistinctLimitAllDuplicatesProduceNoOutput(t *testing.T) {
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 10)

	first := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1, 2),
	})
	out := pushAndPull(t, op, first)
	require.NotNil(t, out)

	dupes := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(2, 1, 2, 1),
	})
	out = pushAndPull(t, op, dupes)
	assert.Nil(t, out, "batch of known keys yields no output batch")
	assert.True(t, op.NeedsInput())
	assert.False(t, op.IsFinished())
}

func TestDistinctLimitStopsScanAtLimit(t *testing.T) {
	// The walk stops the instant the limit is hit, but the grouping engine
	// has already inserted every key of the batch, including later ones.
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 2)

	b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1, 2, 3, 4, 5),
	})
	out := pushAndPull(t, op, b)
	require.NotNil(t, out)
	testutil.AssertValuesEqual(t, testutil.Int64Values(1, 2), drainChannel(t, out, 0))
	assert.Equal(t, int64(5), op.groupByHash.GroupCount())
	assert.True(t, op.IsFinished())
}

func TestDistinctLimitFinish(t *testing.T) {
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 10)

	b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1, 2),
	})
	require.NoError(t, op.AddInput(b))
	op.Finish()

	assert.False(t, op.NeedsInput())
	assert.False(t, op.IsFinished(), "pending output must drain first")

	out, err := op.GetOutput()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, op.IsFinished())

	err = op.AddInput(b)
	assert.True(t, errors.HasCode(err, errors.ProtocolViolation))
}

func TestDistinctLimitGetOutputIsOneShot(t *testing.T) {
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 10)

	b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
		testutil.Int64Values(1),
	})
	out := pushAndPull(t, op, b)
	require.NotNil(t, out)

	out, err := op.GetOutput()
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDistinctLimitMonotonicState(t *testing.T) {
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 5)
	gov := op.opCtx.slot

	prevRemaining := op.remainingLimit
	prevNext := op.nextDistinctID
	prevMem := gov.get()

	batches := [][]int64{{1, 1, 2}, {2, 3}, {3, 1}, {4, 5, 6, 7}}
	for _, vals := range batches {
		if !op.NeedsInput() {
			break
		}
		b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
			testutil.Int64Values(vals...),
		})
		require.NoError(t, op.AddInput(b))

		assert.LessOrEqual(t, op.remainingLimit, prevRemaining)
		assert.GreaterOrEqual(t, op.remainingLimit, int64(0))
		assert.GreaterOrEqual(t, op.nextDistinctID, prevNext)
		assert.GreaterOrEqual(t, gov.get(), prevMem, "reported memory never decreases")
		prevRemaining = op.remainingLimit
		prevNext = op.nextDistinctID
		prevMem = gov.get()

		_, err := op.GetOutput()
		require.NoError(t, err)
	}
	assert.Equal(t, int64(0), op.remainingLimit)
	assert.Equal(t, int64(5), op.nextDistinctID)
}

func TestDistinctLimitRaggedBatchFault(t *testing.T) {
	channelTypes := []types.DataType{types.BigInt, types.Text}
	op := newDistinctLimit(t, channelTypes, 10)

	b := raggedBatch(channelTypes, [][]types.Value{
		testutil.Int64Values(1, 2),
		testutil.TextValues("a"),
	}, 2)

	err := op.AddInput(b)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.DataCorrupted))

	// No partial output is committed.
	out, gerr := op.GetOutput()
	require.NoError(t, gerr)
	assert.Nil(t, out)
}

func TestDistinctLimitProtocolFaults(t *testing.T) {
	t.Run("nil batch", func(t *testing.T) {
		op := newDistinctLimit(t, []types.DataType{types.BigInt}, 1)
		err := op.AddInput(nil)
		assert.True(t, errors.HasCode(err, errors.ProtocolViolation))
	})

	t.Run("addInput while output pending", func(t *testing.T) {
		op := newDistinctLimit(t, []types.DataType{types.BigInt}, 10)
		b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
			testutil.Int64Values(1),
		})
		require.NoError(t, op.AddInput(b))
		err := op.AddInput(b)
		assert.True(t, errors.HasCode(err, errors.ProtocolViolation))
	})

	t.Run("channel count mismatch", func(t *testing.T) {
		op := newDistinctLimit(t, []types.DataType{types.BigInt, types.Text}, 10)
		b := mustBatch(t, []types.DataType{types.BigInt}, [][]types.Value{
			testutil.Int64Values(1),
		})
		err := op.AddInput(b)
		assert.True(t, errors.HasCode(err, errors.ProtocolViolation))
	})
}

func TestDistinctLimitConstructionFaults(t *testing.T) {
	t.Run("negative limit", func(t *testing.T) {
		_, err := NewDistinctLimitOperator(newTestOpCtx(t), []types.DataType{types.BigInt}, -1)
		assert.True(t, errors.HasCode(err, errors.InvalidParameterValue))
	})

	t.Run("no types", func(t *testing.T) {
		_, err := NewDistinctLimitOperator(newTestOpCtx(t), nil, 1)
		assert.True(t, errors.HasCode(err, errors.InvalidParameterValue))
	})

	t.Run("nil type entry", func(t *testing.T) {
		_, err := NewDistinctLimitOperator(newTestOpCtx(t), []types.DataType{nil}, 1)
		assert.True(t, errors.HasCode(err, errors.InvalidParameterValue))
	})

	t.Run("nil operator context", func(t *testing.T) {
		_, err := NewDistinctLimitOperator(nil, []types.DataType{types.BigInt}, 1)
		assert.True(t, errors.HasCode(err, errors.NullValueNotAllowed))
	})
}

func TestDistinctLimitNeverBlocked(t *testing.T) {
	op := newDistinctLimit(t, []types.DataType{types.BigInt}, 1)
	assert.False(t, op.IsBlocked())
}

func TestDistinctLimitFactory(t *testing.T) {
	channelTypes := []types.DataType{types.BigInt, types.Text}
	factory, err := NewDistinctLimitOperatorFactory(7, channelTypes, 10)
	require.NoError(t, err)
	assert.Equal(t, channelTypes, factory.Types())

	execCtx := newTestExecContext(0)
	op, err := factory.CreateOperator(execCtx)
	require.NoError(t, err)
	assert.Equal(t, 7, op.Context().ID())
	assert.Equal(t, "DistinctLimitOperator", op.Context().Name())

	factory.Close()
	factory.Close() // idempotent

	_, err = factory.CreateOperator(execCtx)
	assert.True(t, errors.HasCode(err, errors.ObjectNotInPrerequisiteState))

	// Operators created before close keep working.
	b := mustBatch(t, channelTypes, [][]types.Value{
		testutil.Int64Values(1),
		testutil.TextValues("x"),
	})
	require.True(t, op.NeedsInput())
	require.NoError(t, op.AddInput(b))
}

func TestDistinctLimitFactoryValidation(t *testing.T) {
	_, err := NewDistinctLimitOperatorFactory(0, []types.DataType{types.BigInt}, -5)
	assert.True(t, errors.HasCode(err, errors.InvalidParameterValue))

	_, err = NewDistinctLimitOperatorFactory(0, nil, 5)
	assert.True(t, errors.HasCode(err, errors.InvalidParameterValue))

	factory, err := NewDistinctLimitOperatorFactory(0, []types.DataType{types.BigInt}, 5)
	require.NoError(t, err)
	_, err = factory.CreateOperator(nil)
	assert.True(t, errors.HasCode(err, errors.NullValueNotAllowed))
}
