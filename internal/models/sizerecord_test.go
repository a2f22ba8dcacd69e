package models

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxSizeRecordRoundTrip(t *testing.T) {
	records := []TxSizeRecord{
		{Block: 78980001, Best: 120, FastLZ: 150, Zeroes: 40, NonZeroes: 260},
		{Block: 78980002, Best: 0, FastLZ: 1, Zeroes: 0, NonZeroes: 0},
		{Block: 4294967295, Best: 4294967295, FastLZ: 4294967295, Zeroes: 4294967295, NonZeroes: 4294967295},
	}

	var buf bytes.Buffer
	w := NewTxSizeWriter(&buf)
	for _, rec := range records {
		require.NoError(t, w.Write(rec))
	}
	require.Equal(t, len(records)*TxSizeRecordLen, buf.Len())

	got, err := ReadTxSizeRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestTxSizeRecordLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTxSizeWriter(&buf).Write(TxSizeRecord{Block: 1, Best: 2, FastLZ: 3, Zeroes: 4, NonZeroes: 5}))

	// Little-endian uint32 fields in declaration order.
	assert.Equal(t, []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
		4, 0, 0, 0,
		5, 0, 0, 0,
	}, buf.Bytes())
}

func TestReadTxSizeRecordsTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTxSizeWriter(&buf).Write(TxSizeRecord{Block: 1}))
	buf.Write([]byte{0xde, 0xad})

	_, err := ReadTxSizeRecords(&buf)
	assert.Error(t, err)
}

func TestReadTxSizeRecordsEmpty(t *testing.T) {
	got, err := ReadTxSizeRecords(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
