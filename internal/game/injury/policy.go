package injury

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
)

// Single-hit damage thresholds.
const (
	// ThresholdMinor is reserved; no injury is created below ThresholdMajor.
	ThresholdMinor        = 60.0
	ThresholdMajor        = 80.0
	ThresholdCatastrophic = 95.0
	// ImmunityResistance is the chance that Will of the Struggler shrugs off
	// an injury.
	ImmunityResistance = 0.9
)

// Target is the view of a combatant the policy needs.
type Target interface {
	Name() string
	IsDead() bool
	HasVeteranImmunity() bool
}

// Policy decides whether a single hit leaves a permanent injury.
type Policy struct {
	src    dice.Source
	logger *zap.Logger
}

// NewPolicy creates a Policy drawing immunity rolls from src.
//
// Precondition: src must be non-nil. A nil logger is replaced by a no-op logger.
func NewPolicy(src dice.Source, logger *zap.Logger) *Policy {
	if src == nil {
		panic("injury.NewPolicy: precondition violated: src must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{src: src, logger: logger}
}

// Check evaluates one hit. It consumes one Float64 from the source only when
// the target holds veteran immunity.
//
// Postcondition: Returns (injury, true) when an injury is created; the policy
// never records it, the caller does.
func (p *Policy) Check(damage float64, element move.Element, location string, target Target) (Injury, bool) {
	if target.IsDead() {
		return Injury{}, false
	}

	if target.HasVeteranImmunity() {
		if p.src.Float64() < ImmunityResistance {
			p.logger.Info("veteran immunity resisted injury",
				zap.String("combatant", target.Name()),
				zap.Float64("damage", damage),
			)
			return Injury{}, false
		}
	}

	var in Injury
	switch {
	case damage >= ThresholdCatastrophic:
		in = New(LostLimb, Catastrophic, location)
		in.Description = fmt.Sprintf("Lost %s to catastrophic damage", location)
	case damage >= ThresholdMajor:
		t := DeepScar
		if element == move.Fire {
			t = BurnScar
		}
		in = New(t, Major, location)
	default:
		return Injury{}, false
	}

	p.logger.Warn("injury inflicted",
		zap.String("combatant", target.Name()),
		zap.Stringer("type", in.Type),
		zap.Stringer("severity", in.Severity),
		zap.String("location", in.Location),
	)
	return in, true
}
