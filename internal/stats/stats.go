// Package stats computes the summary figures the reporting layer prints.
package stats

import (
	"math/big"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/manifest-network/feescope/internal/basefee"
	"github.com/manifest-network/feescope/internal/models"
)

// FeeSummary describes one trajectory in gwei.
type FeeSummary struct {
	Final float64
	Min   float64
	Max   float64
	Mean  float64
}

// SummarizeFees reduces a wei trajectory to display-unit summary figures.
// Returns the zero summary for an empty trajectory.
func SummarizeFees(fees []*big.Int) FeeSummary {
	if len(fees) == 0 {
		return FeeSummary{}
	}

	gwei := make([]float64, len(fees))
	for i, fee := range fees {
		gwei[i] = basefee.WeiToGwei(fee)
	}

	s := FeeSummary{
		Final: gwei[len(gwei)-1],
		Min:   gwei[0],
		Max:   gwei[0],
		Mean:  stat.Mean(gwei, nil),
	}
	for _, v := range gwei {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// UsageSummary describes gas utilization across a block range, in percent.
type UsageSummary struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Blocks int
	First  uint64
	Last   uint64
}

// SummarizeUsage computes gas-usage statistics over ordered block records.
func SummarizeUsage(records []models.BlockRecord) UsageSummary {
	if len(records) == 0 {
		return UsageSummary{}
	}

	ratios := make([]float64, len(records))
	for i, rec := range records {
		ratios[i] = rec.GasUtilization()
	}

	s := UsageSummary{
		Blocks: len(records),
		First:  records[0].Number,
		Last:   records[len(records)-1].Number,
		Mean:   stat.Mean(ratios, nil),
		Min:    ratios[0],
		Max:    ratios[0],
	}
	for _, v := range ratios {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}

	sorted := append([]float64(nil), ratios...)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}
