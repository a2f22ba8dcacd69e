package regression

import (
	"fmt"
	"sort"
	"time"

	"github.com/manifest-network/feescope/internal/models"
)

// Chain anchors block numbers to wall-clock time for bucketing. Block
// timestamps are reconstructed as genesisTime + (block - genesisBlock) *
// blockTime, which holds for chains with a fixed block cadence.
type Chain struct {
	GenesisTime  time.Time
	GenesisBlock uint64
	BlockTime    time.Duration
}

// BlockTimestamp returns the reconstructed timestamp of the given block.
func (c Chain) BlockTimestamp(block uint64) time.Time {
	offset := time.Duration(int64(block)-int64(c.GenesisBlock)) * c.BlockTime
	return c.GenesisTime.Add(offset)
}

// Interval selects the bucketing granularity.
type Interval string

const (
	ByDay   Interval = "day"
	ByMonth Interval = "month"
)

// Group is one time bucket of records.
type Group struct {
	Label   string
	Records []models.TxSizeRecord
}

// GroupRecords buckets records by the chosen interval, ordered by time.
func GroupRecords(records []models.TxSizeRecord, chain Chain, interval Interval) ([]Group, error) {
	if chain.BlockTime <= 0 {
		return nil, fmt.Errorf("block time must be positive")
	}

	type bucket struct {
		key   int
		label string
	}
	keyOf := func(ts time.Time) (bucket, error) {
		switch interval {
		case ByDay:
			year, month, day := ts.Date()
			return bucket{
				key:   year*10000 + int(month)*100 + day,
				label: ts.Format("2006-01-02"),
			}, nil
		case ByMonth:
			year, month, _ := ts.Date()
			return bucket{
				key:   year*12 + int(month) - 1,
				label: ts.Format("2006-01"),
			}, nil
		default:
			return bucket{}, fmt.Errorf("unknown grouping interval %q", interval)
		}
	}

	labels := make(map[int]string)
	byKey := make(map[int][]models.TxSizeRecord)
	for _, rec := range records {
		b, err := keyOf(chain.BlockTimestamp(uint64(rec.Block)))
		if err != nil {
			return nil, err
		}
		labels[b.key] = b.label
		byKey[b.key] = append(byKey[b.key], rec)
	}

	keys := make([]int, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Label: labels[k], Records: byKey[k]})
	}
	return groups, nil
}
