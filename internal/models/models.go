package models

import "time"

// BlockRecord is one block's gas accounting as extracted from a node.
type BlockRecord struct {
	Number    uint64
	GasUsed   uint64
	GasLimit  uint64
	Timestamp uint64
	Hash      string
}

// GasUtilization returns the block's gas usage as a percentage of its limit.
func (b BlockRecord) GasUtilization() float64 {
	if b.GasLimit == 0 {
		return 0
	}
	return float64(b.GasUsed) / float64(b.GasLimit) * 100
}

// TipSample is one observation from the live priority-fee monitor.
type TipSample struct {
	Timestamp          time.Time
	BlockNumber        uint64
	MaxPriorityFeeGwei float64
	GasUsageRatio      float64
}
