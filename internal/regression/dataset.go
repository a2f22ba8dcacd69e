package regression

import (
	"fmt"

	"github.com/manifest-network/feescope/internal/models"
)

// Dataset is a column view over compressed-size records, ready for fitting.
type Dataset struct {
	Blocks    []uint64
	Best      []float64
	FastLZ    []float64
	Zeroes    []float64
	NonZeroes []float64
}

// NewDataset converts raw records into fitting columns.
func NewDataset(records []models.TxSizeRecord) Dataset {
	d := Dataset{
		Blocks:    make([]uint64, len(records)),
		Best:      make([]float64, len(records)),
		FastLZ:    make([]float64, len(records)),
		Zeroes:    make([]float64, len(records)),
		NonZeroes: make([]float64, len(records)),
	}
	for i, rec := range records {
		d.Blocks[i] = uint64(rec.Block)
		d.Best[i] = float64(rec.Best)
		d.FastLZ[i] = float64(rec.FastLZ)
		d.Zeroes[i] = float64(rec.Zeroes)
		d.NonZeroes[i] = float64(rec.NonZeroes)
	}
	return d
}

func (d Dataset) Len() int { return len(d.Best) }

// FastLZFeatures returns the single-feature rows for the fastlz-only model.
func (d Dataset) FastLZFeatures() [][]float64 {
	rows := make([][]float64, d.Len())
	for i := range rows {
		rows[i] = []float64{d.FastLZ[i]}
	}
	return rows
}

// FullFeatures returns fastlz, zeroes and non-zeroes per row.
func (d Dataset) FullFeatures() [][]float64 {
	rows := make([][]float64, d.Len())
	for i := range rows {
		rows[i] = []float64{d.FastLZ[i], d.Zeroes[i], d.NonZeroes[i]}
	}
	return rows
}

// CombinedFeatures returns fastlz plus the total serialized size
// (zeroes + non-zeroes collapsed into one column).
func (d Dataset) CombinedFeatures() [][]float64 {
	rows := make([][]float64, d.Len())
	for i := range rows {
		rows[i] = []float64{d.FastLZ[i], d.Zeroes[i] + d.NonZeroes[i]}
	}
	return rows
}

// NaiveFeatures returns the calldata-style zero/non-zero byte counts only.
func (d Dataset) NaiveFeatures() [][]float64 {
	rows := make([][]float64, d.Len())
	for i := range rows {
		rows[i] = []float64{d.Zeroes[i], d.NonZeroes[i]}
	}
	return rows
}

// FitFastLZ fits best ~ fastlz.
func (d Dataset) FitFastLZ() (Model, error) { return Fit(d.FastLZFeatures(), d.Best) }

// FitFull fits best ~ fastlz + zeroes + nonZeroes.
func (d Dataset) FitFull() (Model, error) { return Fit(d.FullFeatures(), d.Best) }

// FitCombined fits best ~ fastlz + txSize.
func (d Dataset) FitCombined() (Model, error) { return Fit(d.CombinedFeatures(), d.Best) }

// FitNaive fits best ~ zeroes + nonZeroes.
func (d Dataset) FitNaive() (Model, error) { return Fit(d.NaiveFeatures(), d.Best) }

// NaiveScalar is the no-intercept ratio between total compressed size and
// the 4/16-weighted calldata gas size used pre-FastLZ: zeroes count 4/16 of
// a byte, non-zeroes a full byte.
func (d Dataset) NaiveScalar() (float64, error) {
	var sumBest, sumWeighted float64
	for i := range d.Best {
		sumBest += d.Best[i]
		sumWeighted += (d.Zeroes[i]*4 + d.NonZeroes[i]*16) / 16
	}
	if sumWeighted == 0 {
		return 0, fmt.Errorf("zero weighted calldata size")
	}
	return sumBest / sumWeighted, nil
}

// FastLZScalar is the no-intercept ratio between total compressed size and
// total fastlz size.
func (d Dataset) FastLZScalar() (float64, error) {
	var sumBest, sumFastLZ float64
	for i := range d.Best {
		sumBest += d.Best[i]
		sumFastLZ += d.FastLZ[i]
	}
	if sumFastLZ == 0 {
		return 0, fmt.Errorf("zero fastlz size")
	}
	return sumBest / sumFastLZ, nil
}
