package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/model"
)

func step(s State, a action) State {
	return reduce(s, a, geometry.DefaultThresholds())
}

func newTestState() State {
	return State{Type: StateLoadingCase, CaseID: "case-1", VendorID: "v1", TemplateID: "t1"}
}

func shield(id string) model.Shield {
	return model.Shield{
		ID:         id,
		Type:       model.ShieldUserDefined,
		BBox:       model.BBox{X: 0.6, Y: 0.6, Width: 0.2, Height: 0.2},
		PageTarget: model.AllPages(),
		ZoneTarget: model.EveryZone(),
		ApplyMode:  model.ModeApplied,
	}
}

func TestLoadSuccessReplacesShieldsKeepsOverrides(t *testing.T) {
	s := newTestState()
	s = step(s, addShield{Shield: shield("local-y")})

	s = step(s, loadStarted{})
	assert.Equal(t, StateLoadingCase, s.Type)

	s = step(s, loadFinished{Shields: []model.Shield{shield("x")}})
	assert.Equal(t, StateReady, s.Type)
	require.Len(t, s.Shields, 1)
	assert.Equal(t, "x", s.Shields[0].ID)
	require.Len(t, s.Overrides, 1)
	assert.Equal(t, "local-y", s.Overrides[0].Shield.ID)
}

func TestLoadFailureLeavesShieldsUntouched(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("x")}})

	s = step(s, loadStarted{})
	s = step(s, loadFailed{Err: "resolver unreachable"})

	assert.Equal(t, StateErrorNonblocking, s.Type)
	assert.Equal(t, "resolver unreachable", s.Err)
	assert.True(t, s.HasPrevious)
	assert.Equal(t, StateLoadingCase, s.Previous)
	require.Len(t, s.Shields, 1)
	assert.Equal(t, "x", s.Shields[0].ID)
}

func TestNoLossInvariantOnFailedSave(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{})
	s = step(s, addShield{Shield: shield("a")})
	s = step(s, addShield{Shield: shield("b")})

	before := s.clone()

	s = step(s, saveVendorStarted{})
	s = step(s, saveVendorFailed{Err: "500 from rules service"})

	assert.Equal(t, StateErrorNonblocking, s.Type)
	assert.Equal(t, before.Shields, s.Shields)
	assert.Equal(t, before.Overrides, s.Overrides)
}

func TestSyncClearsOverrides(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{})
	s = step(s, addShield{Shield: shield("a")})

	s = step(s, saveVendorStarted{})
	s = step(s, saveVendorFinished{})

	assert.Equal(t, StateReady, s.Type)
	assert.Empty(t, s.Overrides)
	assert.Empty(t, s.Err)
	// The working set itself is untouched by a save.
	require.Len(t, s.Shields, 1)
}

func TestEditDuringInFlightSaveStaysPending(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{})
	s = step(s, addShield{Shield: shield("before")})

	s = step(s, saveVendorStarted{})
	// The reducer is total: edits land even while a save is in flight.
	s = step(s, addShield{Shield: shield("during")})
	s = step(s, saveVendorFinished{})

	require.Len(t, s.Overrides, 1)
	assert.Equal(t, "during", s.Overrides[0].Shield.ID)
}

func TestReEditDuringInFlightSaveStaysPending(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("a")}})
	s = step(s, setApplyMode{ID: "a", Mode: model.ModeDisabled})

	s = step(s, rerunStarted{})
	// Touch the same shield again mid-flight: its new version must
	// survive the success.
	s = step(s, setApplyMode{ID: "a", Mode: model.ModeSuggested})
	s = step(s, rerunFinished{})

	require.Len(t, s.Overrides, 1)
	assert.Equal(t, model.ModeSuggested, s.Overrides[0].Shield.ApplyMode)
}

func TestEditDedup(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("a")}})

	s = step(s, setApplyMode{ID: "a", Mode: model.ModeDisabled})
	s = step(s, setApplyMode{ID: "a", Mode: model.ModeSuggested})
	s = step(s, setApplyMode{ID: "a", Mode: model.ModeApplied})

	require.Len(t, s.Overrides, 1)
	assert.Equal(t, model.ModeApplied, s.Overrides[0].Shield.ApplyMode)
}

func TestOverrideOrderAppendThenReplaceInPlace(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("a"), shield("b")}})

	s = step(s, setApplyMode{ID: "a", Mode: model.ModeDisabled})
	s = step(s, setApplyMode{ID: "b", Mode: model.ModeDisabled})
	s = step(s, setApplyMode{ID: "a", Mode: model.ModeSuggested})

	require.Len(t, s.Overrides, 2)
	assert.Equal(t, "a", s.Overrides[0].Shield.ID)
	assert.Equal(t, "b", s.Overrides[1].Shield.ID)
	assert.Equal(t, model.ModeSuggested, s.Overrides[0].Shield.ApplyMode)
}

func TestAddThenRemoveLeavesNothing(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{})

	sh := shield("a")
	s = step(s, addShield{Shield: sh})
	s = step(s, removeShieldAction{ID: sh.ID})

	assert.Empty(t, s.Shields)
	assert.Empty(t, s.Overrides)
}

func TestRemoveDropsFromBothLists(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("a"), shield("b")}})
	s = step(s, setApplyMode{ID: "a", Mode: model.ModeDisabled})

	s = step(s, removeShieldAction{ID: "a"})

	require.Len(t, s.Shields, 1)
	assert.Equal(t, "b", s.Shields[0].ID)
	assert.Empty(t, s.Overrides)
}

func TestSetTargetsRecordOverrides(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("a")}})

	s = step(s, setPageTarget{ID: "a", Target: model.SpecificPages(1, 2)})
	s = step(s, setZoneTarget{ID: "a", Target: model.ZoneTarget{IncludeZones: []string{"z9"}}})

	require.Len(t, s.Overrides, 1)
	assert.Equal(t, model.PagesSpecific, s.Overrides[0].Shield.PageTarget.Kind)
	assert.Equal(t, []string{"z9"}, s.Overrides[0].Shield.ZoneTarget.IncludeZones)
}

func TestEditUnknownShieldIsNoOp(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("a")}})

	s = step(s, setApplyMode{ID: "ghost", Mode: model.ModeDisabled})

	assert.Empty(t, s.Overrides)
	require.Len(t, s.Shields, 1)
}

func TestRetryReentersPreviousOperation(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{})
	s = step(s, saveVendorStarted{})
	s = step(s, saveVendorFailed{Err: "boom"})

	s = step(s, retryAction{})
	assert.Equal(t, StateSavingRulesVendor, s.Type)
	assert.Empty(t, s.Err)
	assert.False(t, s.HasPrevious)
}

func TestRetryWithoutPreviousReturnsToReady(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{})
	s = step(s, retryAction{})
	assert.Equal(t, StateReady, s.Type)
}

func TestDismissErrorReturnsToReady(t *testing.T) {
	s := newTestState()
	s = step(s, loadStarted{})
	s = step(s, loadFailed{Err: "nope"})

	s = step(s, dismissError{})
	assert.Equal(t, StateReady, s.Type)
	assert.Empty(t, s.Err)
	assert.False(t, s.HasPrevious)
}

func TestValidationFailureIsRetryable(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{})
	s = step(s, validationFailed{Op: StateSavingRulesTemplate, Err: ErrNoTemplateID.Error()})

	assert.Equal(t, StateErrorNonblocking, s.Type)
	assert.Equal(t, StateSavingRulesTemplate, s.Previous)
	assert.True(t, s.HasPrevious)
}

func TestConflictsDerivedOnEveryAction(t *testing.T) {
	critical := model.Zone{ID: "totals", Type: model.ZoneTotalsBox, BBox: model.BBox{X: 0, Y: 0, Width: 0.5, Height: 0.5}, Critical: true}

	s := newTestState()
	s = step(s, loadFinished{Zones: []model.Zone{critical}})
	assert.Empty(t, s.Conflicts)

	inZone := shield("a")
	inZone.BBox = model.BBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}
	s = step(s, addShield{Shield: inZone})

	require.Len(t, s.Conflicts, 1)
	assert.True(t, s.Conflicts[0].Blocking)
	assert.Equal(t, model.RiskHigh, s.Shields[0].RiskLevel)

	// Moving the shield out of the zone dissolves the conflict; nothing
	// is patched, the whole list is recomputed.
	moved := inZone
	moved.BBox = model.BBox{X: 0.7, Y: 0.7, Width: 0.2, Height: 0.2}
	s = step(s, updateShield{Shield: moved})
	assert.Empty(t, s.Conflicts)
	assert.Equal(t, model.RiskLow, s.Shields[0].RiskLevel)
}

func TestReducerDoesNotMutateInput(t *testing.T) {
	s := newTestState()
	s = step(s, loadFinished{Shields: []model.Shield{shield("a")}})

	before := s.clone()
	_ = step(s, setApplyMode{ID: "a", Mode: model.ModeDisabled})

	assert.Equal(t, before.Shields, s.Shields)
	assert.Equal(t, before.Overrides, s.Overrides)
}
