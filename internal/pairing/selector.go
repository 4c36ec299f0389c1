// Package pairing chooses the existing employee and new hire who are
// introduced to each other by the pair-up job.
package pairing

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"

	"onboarding/internal/types"
)

// Pair is one tenured employee matched with one new hire.
type Pair struct {
	Tenured types.Recipient
	Fresh   types.Recipient
}

// Selector draws pairs from a candidate pool.
type Selector struct {
	rand   types.RandSource
	logger types.Logger
}

// NewSelector creates a Selector. A nil source uses NewRandSource.
func NewSelector(source types.RandSource, logger types.Logger) *Selector {
	if source == nil {
		source = NewRandSource()
	}
	return &Selector{rand: source, logger: logger}
}

// SelectPair partitions candidates by enrollment age in whole days:
// tenured when older than retentionThresholdDays, fresh otherwise. It draws
// one uniform index from each partition. ok is false when either partition
// is empty.
func (s *Selector) SelectPair(candidates []types.Recipient, retentionThresholdDays int, now time.Time) (pair Pair, ok bool) {
	tenured, fresh := Partition(candidates, retentionThresholdDays, now)
	if len(tenured) == 0 || len(fresh) == 0 {
		s.logger.Info("pair-up: no match",
			"candidates", len(candidates),
			"tenured", len(tenured),
			"fresh", len(fresh),
		)
		return Pair{}, false
	}

	return Pair{
		Tenured: tenured[s.rand.IntN(len(tenured))],
		Fresh:   fresh[s.rand.IntN(len(fresh))],
	}, true
}

// Partition splits candidates into tenured and fresh, preserving order.
func Partition(candidates []types.Recipient, retentionThresholdDays int, now time.Time) (tenured, fresh []types.Recipient) {
	for _, c := range candidates {
		if c.AgeInDays(now) > retentionThresholdDays {
			tenured = append(tenured, c)
		} else {
			fresh = append(fresh, c)
		}
	}
	return tenured, fresh
}

// NewRandSource returns a PCG generator seeded from crypto/rand.
// It is not safe for concurrent use.
func NewRandSource() *rand.Rand {
	var seed [16]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}

// FirstElement always selects index 0. Used to make pairing deterministic.
type FirstElement struct{}

func (FirstElement) IntN(int) int { return 0 }
