// Package geometry evaluates shield/zone overlap and derives zone
// conflicts. Everything here is pure: same inputs, same outputs, no
// state and no I/O.
package geometry

import (
	"fmt"

	"github.com/scanline-ai/shieldrev/internal/model"
)

// Thresholds configures when an overlap becomes a conflict.
type Thresholds struct {
	// Warn is the overlap ratio at which a conflict is recorded.
	Warn float64
	// Critical is the ratio at which a shield over a critical zone is
	// forced to suggested-only.
	Critical float64
}

// DefaultThresholds are the stock 5%/10% policy.
func DefaultThresholds() Thresholds {
	return Thresholds{Warn: 0.05, Critical: 0.10}
}

// OverlapRatio returns how much of the shield rectangle sits inside the
// zone rectangle: intersection area divided by the shield's own area.
// The ratio is shield-centric on purpose; a tiny shield fully inside a
// large zone scores 1, not the sliver the zone would report.
func OverlapRatio(shield, zone model.BBox) float64 {
	sa := shield.Area()
	if sa == 0 {
		return 0
	}
	inter, ok := shield.Intersect(zone)
	if !ok {
		return 0
	}
	r := inter.Area() / sa
	if r > 1 {
		r = 1
	}
	return r
}

// EvaluateConflicts computes the conflict list for the given shield and
// zone sets. Disabled shields never conflict; a shield is only checked
// against zones its zone target covers. Callers re-run this whenever
// either set changes — the result is derived, never patched.
func EvaluateConflicts(shields []model.Shield, zones []model.Zone, t Thresholds) []model.ZoneConflict {
	var conflicts []model.ZoneConflict
	for _, s := range shields {
		if s.ApplyMode == model.ModeDisabled {
			continue
		}
		for _, z := range zones {
			if !s.ZoneTarget.Includes(z.ID) {
				continue
			}
			ratio := OverlapRatio(s.BBox, z.BBox)
			if ratio < t.Warn {
				continue
			}
			c := model.ZoneConflict{
				ShieldID:     s.ID,
				ZoneID:       z.ID,
				OverlapRatio: ratio,
			}
			if ratio >= t.Critical && z.Critical {
				c.Blocking = true
				c.ActionTaken = fmt.Sprintf("forced to suggested: %.0f%% of shield covers critical zone %s", ratio*100, z.ID)
			} else {
				c.ActionTaken = fmt.Sprintf("warning: %.0f%% of shield overlaps zone %s", ratio*100, z.ID)
			}
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// EffectiveApplyMode returns the mode the UI should display for the
// shield. An applied shield with a blocking conflict is shown as
// suggested regardless of its stored mode; a shield must never fully
// mask a critical zone without explicit suggestion-only status.
func EffectiveApplyMode(s model.Shield, conflicts []model.ZoneConflict) model.ApplyMode {
	if s.ApplyMode != model.ModeApplied {
		return s.ApplyMode
	}
	for _, c := range conflicts {
		if c.Blocking && c.ShieldID == s.ID {
			return model.ModeSuggested
		}
	}
	return model.ModeApplied
}

// MaxRisk derives the risk level implied by a shield's conflicts.
func MaxRisk(s model.Shield, conflicts []model.ZoneConflict) model.RiskLevel {
	risk := model.RiskLow
	for _, c := range conflicts {
		if c.ShieldID != s.ID {
			continue
		}
		if c.Blocking {
			return model.RiskHigh
		}
		risk = model.RiskMedium
	}
	return risk
}
