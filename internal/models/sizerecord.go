package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// TxSizeRecord holds one transaction's compressed-size observations: the
// zlib batch-compression reference, the FastLZ estimate, and the zero /
// non-zero byte counts of the serialized transaction.
type TxSizeRecord struct {
	Block     uint32
	Best      uint32
	FastLZ    uint32
	Zeroes    uint32
	NonZeroes uint32
}

// TxSizeRecordLen is the on-disk size of one record: five little-endian
// uint32 fields, no padding.
const TxSizeRecordLen = 20

// TxSizeWriter streams TxSizeRecords to an underlying writer in the
// fixed-width binary layout.
type TxSizeWriter struct {
	w io.Writer
}

func NewTxSizeWriter(w io.Writer) *TxSizeWriter {
	return &TxSizeWriter{w: w}
}

func (w *TxSizeWriter) Write(rec TxSizeRecord) error {
	var buf [TxSizeRecordLen]byte
	binary.LittleEndian.PutUint32(buf[0:], rec.Block)
	binary.LittleEndian.PutUint32(buf[4:], rec.Best)
	binary.LittleEndian.PutUint32(buf[8:], rec.FastLZ)
	binary.LittleEndian.PutUint32(buf[12:], rec.Zeroes)
	binary.LittleEndian.PutUint32(buf[16:], rec.NonZeroes)
	if _, err := w.w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing size record: %w", err)
	}
	return nil
}

// ReadTxSizeRecords reads records until EOF. A trailing partial record is
// reported as an error rather than dropped.
func ReadTxSizeRecords(r io.Reader) ([]TxSizeRecord, error) {
	var records []TxSizeRecord
	var buf [TxSizeRecordLen]byte
	for {
		_, err := io.ReadFull(r, buf[:])
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated size record after %d records", len(records))
		}
		if err != nil {
			return nil, fmt.Errorf("reading size record: %w", err)
		}
		records = append(records, TxSizeRecord{
			Block:     binary.LittleEndian.Uint32(buf[0:]),
			Best:      binary.LittleEndian.Uint32(buf[4:]),
			FastLZ:    binary.LittleEndian.Uint32(buf[8:]),
			Zeroes:    binary.LittleEndian.Uint32(buf[12:]),
			NonZeroes: binary.LittleEndian.Uint32(buf[16:]),
		})
	}
}
