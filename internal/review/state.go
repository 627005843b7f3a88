// Package review implements the deterministic state machine at the heart
// of shieldrev: a pure reducer over edit and network actions, plus a thin
// engine that issues resolver calls and feeds their outcomes back in.
package review

import "github.com/scanline-ai/shieldrev/internal/model"

// StateType is the machine state.
type StateType int

const (
	// StateLoadingCase: fetching resolved shields for a case. Initial state.
	StateLoadingCase StateType = iota
	// StateReady: stable and editable.
	StateReady
	// StateSavingRulesVendor: persisting shields as a vendor rule.
	StateSavingRulesVendor
	// StateSavingRulesTemplate: persisting shields as a template rule.
	StateSavingRulesTemplate
	// StateRerunningExtraction: snapshotting shields then re-extracting.
	StateRerunningExtraction
	// StateErrorNonblocking: last operation failed; UI stays interactive.
	StateErrorNonblocking
)

func (t StateType) String() string {
	switch t {
	case StateLoadingCase:
		return "loading_case"
	case StateReady:
		return "ready"
	case StateSavingRulesVendor:
		return "saving_rules_vendor"
	case StateSavingRulesTemplate:
		return "saving_rules_template"
	case StateRerunningExtraction:
		return "rerunning_extraction"
	case StateErrorNonblocking:
		return "error_nonblocking"
	default:
		return "unknown"
	}
}

// isOperation reports whether the state represents an in-flight or
// retryable network operation.
func (t StateType) isOperation() bool {
	switch t {
	case StateLoadingCase, StateSavingRulesVendor, StateSavingRulesTemplate, StateRerunningExtraction:
		return true
	}
	return false
}

// Override is one entry of the unsaved-work set. Version is a monotonic
// stamp assigned when the entry was last written; a save in flight only
// clears entries stamped before it started, so edits made during the
// round trip stay pending.
type Override struct {
	Shield  model.Shield
	Version uint64
}

// State is the machine's sole aggregate. It is owned exclusively by one
// Engine per case-review session; values handed out are copies.
type State struct {
	Type StateType

	CaseID     string
	VendorID   string
	TemplateID string

	// Shields is the effective working set shown in the UI.
	Shields []model.Shield
	// Overrides is the subset of shields edited locally since the last
	// confirmed sync — the unsaved work. Deduped by shield id.
	Overrides []Override

	Explanations []model.PrecedenceExplanation
	Zones        []model.Zone
	// Conflicts is derived from (Shields, Zones) after every action,
	// never patched incrementally.
	Conflicts []model.ZoneConflict

	Err string
	// Previous is the state to resume into on retry; only meaningful
	// when HasPrevious is set.
	Previous    StateType
	HasPrevious bool

	// nextVersion stamps override writes; syncStamp is captured when a
	// save or rerun starts.
	nextVersion uint64
	syncStamp   uint64
}

// OverrideShields flattens the override set to plain shields, in order.
func (s State) OverrideShields() []model.Shield {
	if len(s.Overrides) == 0 {
		return nil
	}
	out := make([]model.Shield, len(s.Overrides))
	for i, o := range s.Overrides {
		out[i] = o.Shield
	}
	return out
}

// Busy reports whether a network operation is in flight. Hosts must not
// start a second save or rerun while Busy.
func (s State) Busy() bool {
	return s.Type.isOperation()
}

// clone copies the state with fresh backing arrays so reducer mutations
// never leak into previously returned snapshots.
func (s State) clone() State {
	out := s
	out.Shields = append([]model.Shield(nil), s.Shields...)
	out.Overrides = append([]Override(nil), s.Overrides...)
	out.Explanations = append([]model.PrecedenceExplanation(nil), s.Explanations...)
	out.Zones = append([]model.Zone(nil), s.Zones...)
	out.Conflicts = append([]model.ZoneConflict(nil), s.Conflicts...)
	return out
}

// upsertShield replaces the shield with the same id in place, or appends.
func upsertShield(shields []model.Shield, sh model.Shield) []model.Shield {
	for i := range shields {
		if shields[i].ID == sh.ID {
			shields[i] = sh
			return shields
		}
	}
	return append(shields, sh)
}

// removeShield drops the shield with the given id, preserving order.
func removeShield(shields []model.Shield, id string) []model.Shield {
	out := shields[:0]
	for _, sh := range shields {
		if sh.ID != id {
			out = append(out, sh)
		}
	}
	return out
}

// findShield returns the shield with the given id from the working set.
func findShield(shields []model.Shield, id string) (model.Shield, bool) {
	for _, sh := range shields {
		if sh.ID == id {
			return sh, true
		}
	}
	return model.Shield{}, false
}
