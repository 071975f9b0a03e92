// Package difficulty classifies an encounter's threat against a party.
//
// Classification is pure and allocation-light so the builder UI can call it
// on every roster edit.
package difficulty

import (
	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
)

// Tier is one of the four ordered difficulty labels
type Tier string

// Tiers, in ascending order of threat
const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
	TierDeadly Tier = "deadly"
)

// Thresholds are the four increasing party-wide threat cutoffs.
type Thresholds struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Deadly int `json:"deadly"`
}

// Classification is the full result of classifying a roster against a party.
type Classification struct {
	Tier           Tier       `json:"tier"`
	BaseThreat     int        `json:"baseThreat"`
	Multiplier     float64    `json:"multiplier"`
	AdjustedThreat int        `json:"adjustedThreat"`
	Thresholds     Thresholds `json:"thresholds"`
}

// ThreatForCR returns the per-creature threat value for a challenge rating.
func ThreatForCR(cr string) (int, error) {
	threat, ok := threatByCR[cr]
	if !ok {
		return 0, errors.InvalidArgumentf("unknown challenge rating %q", cr)
	}
	return threat, nil
}

// Classify scores a creature roster against a party of the given level and
// size. Entries with a zero ThreatValue fall back to the challenge rating
// table. Ties resolve toward the higher tier: deadly requires the adjusted
// threat to meet the deadly threshold, not exceed it.
func Classify(creatures []encounter.CreatureEntry, partyLevel, partySize int) (*Classification, error) {
	vb := errors.NewValidationBuilder()
	errors.ValidateRange("partyLevel", partyLevel, 1, 20, vb)
	errors.ValidateRange("partySize", partySize, 1, 10, vb)
	if len(creatures) == 0 {
		vb.RequiredField("creatures")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	baseThreat := 0
	count := 0
	for _, entry := range creatures {
		if entry.Quantity <= 0 {
			return nil, errors.InvalidArgumentf("creature %q has non-positive quantity %d",
				entry.DisplayName, entry.Quantity)
		}

		threat := entry.ThreatValue
		if threat == 0 {
			looked, err := ThreatForCR(entry.ChallengeRating)
			if err != nil {
				return nil, err
			}
			threat = looked
		}

		baseThreat += threat * entry.Quantity
		count += entry.Quantity
	}

	multiplier := multiplierFor(count)
	adjusted := int(float64(baseThreat) * multiplier)

	row := thresholdsByLevel[partyLevel]
	thresholds := Thresholds{
		Easy:   row.Easy * partySize,
		Medium: row.Medium * partySize,
		Hard:   row.Hard * partySize,
		Deadly: row.Deadly * partySize,
	}

	tier := TierEasy
	switch {
	case adjusted >= thresholds.Deadly:
		tier = TierDeadly
	case adjusted >= thresholds.Hard:
		tier = TierHard
	case adjusted >= thresholds.Medium:
		tier = TierMedium
	}

	return &Classification{
		Tier:           tier,
		BaseThreat:     baseThreat,
		Multiplier:     multiplier,
		AdjustedThreat: adjusted,
		Thresholds:     thresholds,
	}, nil
}
