package review

import (
	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/model"
)

// reduce is the pure transition function: (state, action) -> state. It
// never performs I/O and never blocks; every network outcome arrives
// here as a plain action. Zone conflicts and derived risk are recomputed
// on the way out so they can never drift from the sets that produced
// them.
func reduce(s State, a action, th geometry.Thresholds) State {
	out := s.clone()

	switch a := a.(type) {
	case loadStarted:
		out.Type = StateLoadingCase

	case loadFinished:
		// Replaces the working set wholesale. Session overrides stay:
		// they were part of the resolve request and remain unsaved work
		// until a save confirms them.
		out.Shields = append([]model.Shield(nil), a.Shields...)
		out.Explanations = append([]model.PrecedenceExplanation(nil), a.Explanations...)
		out.Zones = append([]model.Zone(nil), a.Zones...)
		out.Type = StateReady
		out.Err = ""
		out.HasPrevious = false

	case loadFailed:
		out.Type = StateErrorNonblocking
		out.Err = a.Err
		out.Previous = StateLoadingCase
		out.HasPrevious = true

	case saveVendorStarted:
		out.Type = StateSavingRulesVendor
		out.syncStamp = out.nextVersion

	case saveVendorFinished:
		out = finishSync(out)

	case saveVendorFailed:
		out = failOperation(out, StateSavingRulesVendor, a.Err)

	case saveTemplateStarted:
		out.Type = StateSavingRulesTemplate
		out.syncStamp = out.nextVersion

	case saveTemplateFinished:
		out = finishSync(out)

	case saveTemplateFailed:
		out = failOperation(out, StateSavingRulesTemplate, a.Err)

	case rerunStarted:
		out.Type = StateRerunningExtraction
		out.syncStamp = out.nextVersion

	case rerunFinished:
		out = finishSync(out)

	case rerunFailed:
		out = failOperation(out, StateRerunningExtraction, a.Err)

	case validationFailed:
		out = failOperation(out, a.Op, a.Err)

	case addShield:
		out = recordEdit(out, a.Shield)

	case updateShield:
		out = recordEdit(out, a.Shield)

	case removeShieldAction:
		out.Shields = removeShield(out.Shields, a.ID)
		out.Overrides = removeOverride(out.Overrides, a.ID)

	case setApplyMode:
		if sh, ok := findShield(out.Shields, a.ID); ok {
			sh.ApplyMode = a.Mode
			out = recordEdit(out, sh)
		}

	case setPageTarget:
		if sh, ok := findShield(out.Shields, a.ID); ok {
			sh.PageTarget = a.Target
			out = recordEdit(out, sh)
		}

	case setZoneTarget:
		if sh, ok := findShield(out.Shields, a.ID); ok {
			sh.ZoneTarget = a.Target
			out = recordEdit(out, sh)
		}

	case retryAction:
		if out.HasPrevious && out.Previous.isOperation() {
			out.Type = out.Previous
		} else {
			out.Type = StateReady
		}
		out.Err = ""
		out.HasPrevious = false

	case dismissError:
		// An acknowledgment, not a fix: back to editing regardless of
		// whether the underlying condition changed.
		out.Type = StateReady
		out.Err = ""
		out.HasPrevious = false
	}

	return recompute(out, th)
}

// recordEdit applies a local edit: the shield is upserted into the
// working set and into the override set, insert-if-absent and
// replace-in-place otherwise, so no shield id ever has two entries.
func recordEdit(s State, sh model.Shield) State {
	s.Shields = upsertShield(s.Shields, sh)

	s.nextVersion++
	entry := Override{Shield: sh, Version: s.nextVersion}
	for i := range s.Overrides {
		if s.Overrides[i].Shield.ID == sh.ID {
			s.Overrides[i] = entry
			return s
		}
	}
	s.Overrides = append(s.Overrides, entry)
	return s
}

// finishSync completes a successful save or rerun: overrides stamped
// before the operation started are now durable upstream and drop out;
// anything written during the round trip stays pending.
func finishSync(s State) State {
	kept := s.Overrides[:0]
	for _, o := range s.Overrides {
		if o.Version > s.syncStamp {
			kept = append(kept, o)
		}
	}
	s.Overrides = kept
	s.Type = StateReady
	s.Err = ""
	s.HasPrevious = false
	return s
}

// failOperation surfaces a failure without touching shields or
// overrides: a failed sync is an annoyance, never a data-loss event.
func failOperation(s State, op StateType, msg string) State {
	s.Type = StateErrorNonblocking
	s.Err = msg
	s.Previous = op
	s.HasPrevious = true
	return s
}

func removeOverride(overrides []Override, id string) []Override {
	out := overrides[:0]
	for _, o := range overrides {
		if o.Shield.ID != id {
			out = append(out, o)
		}
	}
	return out
}

// recompute derives zone conflicts and per-shield risk from the current
// shield and zone sets.
func recompute(s State, th geometry.Thresholds) State {
	s.Conflicts = geometry.EvaluateConflicts(s.Shields, s.Zones, th)
	for i := range s.Shields {
		s.Shields[i].RiskLevel = geometry.MaxRisk(s.Shields[i], s.Conflicts)
	}
	return s
}
