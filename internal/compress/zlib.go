package compress

import (
	"bytes"
	"compress/zlib"
	"fmt"
)

// ZlibBatchEstimator measures the marginal size each transaction adds to a
// zlib stream at max compression, approximating how an L2 batch compressor
// would see it. Two staggered streams are kept so measurements always happen
// against 64-128KiB of warm dictionary; callers should bootstrap with a few
// hundred representative transactions before trusting the numbers.
type ZlibBatchEstimator struct {
	b [2]bytes.Buffer
	w [2]*zlib.Writer
}

func NewZlibBatchEstimator() (*ZlibBatchEstimator, error) {
	e := &ZlibBatchEstimator{}
	for i := range e.w {
		w, err := zlib.NewWriterLevel(&e.b[i], zlib.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("creating zlib writer: %w", err)
		}
		e.w[i] = w
	}
	return e, nil
}

// Write feeds one serialized transaction into the batch and returns its
// marginal compressed size in bytes.
func (e *ZlibBatchEstimator) Write(p []byte) (uint32, error) {
	// b[0] tracks 0-64KiB of history, b[1] 64-128KiB.
	before := e.b[1].Len()
	if _, err := e.w[1].Write(p); err != nil {
		return 0, fmt.Errorf("compressing sample: %w", err)
	}
	if err := e.w[1].Flush(); err != nil {
		return 0, fmt.Errorf("flushing sample: %w", err)
	}
	after := e.b[1].Len()

	if e.b[1].Len() > 64*1024 {
		if _, err := e.w[0].Write(p); err != nil {
			return 0, fmt.Errorf("compressing into younger stream: %w", err)
		}
		if err := e.w[0].Flush(); err != nil {
			return 0, fmt.Errorf("flushing younger stream: %w", err)
		}
	}

	// Rotate once the old stream passes 128KiB so the dictionary window
	// stays bounded.
	if e.b[1].Len() > 128*1024 {
		e.b[1].Reset()
		e.w[1].Reset(&e.b[1])
		tb := e.b[1]
		tw := e.w[1]
		e.b[1] = e.b[0]
		e.w[1] = e.w[0]
		e.b[0] = tb
		e.w[0] = tw
	}

	// Flush appends two sync bytes that are not part of the payload cost.
	if after-before-2 < 0 {
		return 0, nil
	}
	return uint32(after - before - 2), nil
}
