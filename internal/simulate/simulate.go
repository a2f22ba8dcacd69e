// Package simulate replays the base-fee recurrence over historical block
// data under several parameter combinations and writes the comparison
// dataset.
package simulate

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/manifest-network/feescope/internal/basefee"
	"github.com/manifest-network/feescope/internal/models"
)

// Sweep is one parameter combination and its computed trajectory.
type Sweep struct {
	// Label identifies the varied parameter, e.g. "E=75" or "D=250".
	Label string
	Fees  []*big.Int
}

// Request describes a comparison run. Exactly one of Elasticities or
// Denominators may hold more than one value; the original comparison plots
// vary one axis at a time.
type Request struct {
	InitialBaseFeeGwei float64
	Elasticities       []uint64
	Denominators       []uint64
}

func (r Request) validate() error {
	if len(r.Elasticities) == 0 || len(r.Denominators) == 0 {
		return fmt.Errorf("at least one elasticity and one denominator required")
	}
	if len(r.Elasticities) > 1 && len(r.Denominators) > 1 {
		return fmt.Errorf("cannot vary elasticity and denominator at once: got %d elasticities and %d denominators",
			len(r.Elasticities), len(r.Denominators))
	}
	return nil
}

// Observations converts loaded block records into recurrence input.
func Observations(records []models.BlockRecord) []basefee.Observation {
	obs := make([]basefee.Observation, len(records))
	for i, rec := range records {
		obs[i] = basefee.Observation{
			BlockNumber: rec.Number,
			GasUsed:     rec.GasUsed,
			GasLimit:    rec.GasLimit,
		}
	}
	return obs
}

// Run computes one independent trajectory per parameter combination. Each
// sweep reuses the same observations but shares no state with the others.
func Run(records []models.BlockRecord, req Request) ([]Sweep, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	obs := Observations(records)
	initial := basefee.GweiToWei(req.InitialBaseFeeGwei)

	var sweeps []Sweep
	if len(req.Elasticities) > 1 {
		denominator := req.Denominators[0]
		for _, elasticity := range req.Elasticities {
			fees, err := basefee.Trajectory(obs, basefee.Params{
				Elasticity:     elasticity,
				Denominator:    denominator,
				InitialBaseFee: initial,
			})
			if err != nil {
				return nil, fmt.Errorf("elasticity %d: %w", elasticity, err)
			}
			sweeps = append(sweeps, Sweep{Label: fmt.Sprintf("E=%d", elasticity), Fees: fees})
		}
		return sweeps, nil
	}

	elasticity := req.Elasticities[0]
	for _, denominator := range req.Denominators {
		fees, err := basefee.Trajectory(obs, basefee.Params{
			Elasticity:     elasticity,
			Denominator:    denominator,
			InitialBaseFee: initial,
		})
		if err != nil {
			return nil, fmt.Errorf("denominator %d: %w", denominator, err)
		}
		sweeps = append(sweeps, Sweep{Label: fmt.Sprintf("D=%d", denominator), Fees: fees})
	}
	return sweeps, nil
}

// ColumnName converts a sweep label into a CSV column name,
// e.g. "D=250" -> "base_fee_d250".
func ColumnName(label string) string {
	return "base_fee_" + strings.ReplaceAll(strings.ToLower(label), "=", "")
}
