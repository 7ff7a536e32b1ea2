package exec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/sql/types"
)

// Rough per-group bookkeeping cost beyond the encoded key itself: map
// bucket share, slice headers, and the id.
const groupEntryOverheadBytes = 64

// Cap on the capacity hint so a huge LIMIT does not preallocate a huge table.
const maxExpectedGroups = 10_000

// GroupByHash maps composite keys, drawn from a fixed set of channels, to
// stable integer ids assigned in order of first occurrence across the
// engine's entire lifetime. The k-th distinct key ever seen receives id k-1.
// Entries are never evicted, so the memory estimate only grows.
//
// Keys are hashed with xxhash; the full encoded key bytes are retained per
// entry, so colliding hashes still resolve to distinct ids.
type GroupByHash struct {
	keyChannels []int
	groups      map[uint64][]groupEntry
	nextGroupID int64
	memoryBytes int64
	keyBuf      []byte // scratch, reused across rows
}

type groupEntry struct {
	key []byte
	id  int64
}

// NewGroupByHash creates a grouping engine keyed on the given channels.
// expectedGroups is only a sizing hint, never a bound: the table grows
// without limit as new keys arrive.
func NewGroupByHash(keyChannels []int, expectedGroups int) (*GroupByHash, error) {
	if len(keyChannels) == 0 {
		return nil, errors.ConstructionError("GroupByHash", "at least one key channel is required")
	}
	for _, ch := range keyChannels {
		if ch < 0 {
			return nil, errors.ConstructionError("GroupByHash", "key channel index is negative").
				WithDetailf("channel %d", ch)
		}
	}
	if expectedGroups < 0 {
		expectedGroups = 0
	}
	if expectedGroups > maxExpectedGroups {
		expectedGroups = maxExpectedGroups
	}

	keys := make([]int, len(keyChannels))
	copy(keys, keyChannels)
	return &GroupByHash{
		keyChannels: keys,
		groups:      make(map[uint64][]groupEntry, expectedGroups),
	}, nil
}

// GetGroupIDs assigns one group id per row of the batch. Every key not seen
// before is inserted as a side effect, including keys on rows the caller
// later decides not to use; repeated calls over the same rows return the
// same ids because the keys are already resident. Duplicate keys within one
// batch tie-break by row order: the first occurrence is the new one.
func (h *GroupByHash) GetGroupIDs(b *Batch) ([]int64, error) {
	cursors := make([]*Cursor, len(h.keyChannels))
	for i, ch := range h.keyChannels {
		if ch >= b.ChannelCount() {
			return nil, errors.ProtocolError("GroupByHash", "key channel not present in batch").
				WithDetailf("channel %d, batch has %d channels", ch, b.ChannelCount())
		}
		cursors[i] = b.Cursor(ch)
	}

	ids := make([]int64, 0, b.RowCount())
	for {
		advanced, err := advanceAll(cursors, "GroupByHash")
		if err != nil {
			return nil, err
		}
		if !advanced {
			break
		}

		h.keyBuf = h.keyBuf[:0]
		for _, c := range cursors {
			h.keyBuf = appendKeyValue(h.keyBuf, c.Value())
		}
		ids = append(ids, h.putIfAbsent(h.keyBuf))
	}

	if len(ids) != b.RowCount() {
		return nil, errors.New(errors.DataCorrupted, "batch advertised row count does not match channel length").
			WithWhere("GroupByHash").
			WithDetailf("advertised %d rows, scanned %d", b.RowCount(), len(ids))
	}
	return ids, nil
}

// putIfAbsent returns the id of key, assigning the next free id when the key
// is new. key is a scratch buffer; new entries copy it.
func (h *GroupByHash) putIfAbsent(key []byte) int64 {
	sum := xxhash.Sum64(key)
	for _, e := range h.groups[sum] {
		if bytes.Equal(e.key, key) {
			return e.id
		}
	}

	owned := make([]byte, len(key))
	copy(owned, key)
	id := h.nextGroupID
	h.nextGroupID++
	h.groups[sum] = append(h.groups[sum], groupEntry{key: owned, id: id})
	h.memoryBytes += int64(len(owned)) + groupEntryOverheadBytes
	return id
}

// GroupCount returns the number of distinct keys seen so far.
func (h *GroupByHash) GroupCount() int64 {
	return h.nextGroupID
}

// EstimatedMemoryBytes reports the current footprint for external
// accounting. It is monotonic non-decreasing: entries are never evicted.
func (h *GroupByHash) EstimatedMemoryBytes() int64 {
	return h.memoryBytes
}

// Key-encoding tags. Each value is encoded as a tag byte plus a payload;
// variable-length payloads are length-prefixed so adjacent fields cannot
// run together.
const (
	keyTagNull byte = iota
	keyTagBool
	keyTagInt32
	keyTagInt64
	keyTagFloat64
	keyTagString
	keyTagBytes
	keyTagOther
)

func appendKeyValue(buf []byte, v types.Value) []byte {
	if v.IsNull() {
		return append(buf, keyTagNull)
	}
	switch val := v.Data.(type) {
	case bool:
		buf = append(buf, keyTagBool)
		if val {
			return append(buf, 1)
		}
		return append(buf, 0)
	case int32:
		buf = append(buf, keyTagInt32)
		return binary.LittleEndian.AppendUint32(buf, uint32(val))
	case int64:
		buf = append(buf, keyTagInt64)
		return binary.LittleEndian.AppendUint64(buf, uint64(val))
	case float64:
		buf = append(buf, keyTagFloat64)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(val))
	case string:
		buf = append(buf, keyTagString)
		buf = binary.AppendUvarint(buf, uint64(len(val)))
		return append(buf, val...)
	case []byte:
		buf = append(buf, keyTagBytes)
		buf = binary.AppendUvarint(buf, uint64(len(val)))
		return append(buf, val...)
	default:
		s := fmt.Sprintf("%v", val)
		buf = append(buf, keyTagOther)
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		return append(buf, s...)
	}
}
