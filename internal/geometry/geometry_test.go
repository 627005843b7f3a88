package geometry

import (
	"math"
	"testing"

	"github.com/scanline-ai/shieldrev/internal/model"
)

func box(x, y, w, h float64) model.BBox {
	return model.BBox{X: x, Y: y, Width: w, Height: h}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name   string
		shield model.BBox
		zone   model.BBox
		want   float64
	}{
		{"disjoint", box(0, 0, 0.1, 0.1), box(0.5, 0.5, 0.2, 0.2), 0},
		{"contained", box(0.1, 0.1, 0.2, 0.2), box(0, 0, 0.5, 0.5), 1},
		{"half overlap", box(0, 0, 0.2, 0.2), box(0.1, 0, 0.2, 0.2), 0.5},
		{"quarter overlap", box(0, 0, 0.2, 0.2), box(0.1, 0.1, 0.5, 0.5), 0.25},
		{"degenerate shield", box(0.1, 0.1, 0, 0), box(0, 0, 1, 1), 0},
		{"edge touching", box(0, 0, 0.2, 0.2), box(0.2, 0, 0.2, 0.2), 0},
	}
	for _, tt := range tests {
		got := OverlapRatio(tt.shield, tt.zone)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: OverlapRatio = %g, want %g", tt.name, got, tt.want)
		}
	}
}

func TestOverlapRatioIsShieldCentric(t *testing.T) {
	small := box(0.1, 0.1, 0.05, 0.05)
	large := box(0, 0, 1, 1)
	if got := OverlapRatio(small, large); got != 1 {
		t.Errorf("small shield in large zone = %g, want 1", got)
	}
	if got := OverlapRatio(large, small); got >= 0.01 {
		t.Errorf("large shield over small zone = %g, want tiny", got)
	}
}

func testShield(id string, b model.BBox) model.Shield {
	return model.Shield{
		ID:         id,
		Type:       model.ShieldUserDefined,
		BBox:       b,
		PageTarget: model.AllPages(),
		ZoneTarget: model.EveryZone(),
		ApplyMode:  model.ModeApplied,
	}
}

func TestEvaluateConflictsCriticalForcing(t *testing.T) {
	// Example from the review playbook: shield fully inside a critical
	// totals zone gets ratio 1.0 and is forced to suggested.
	sh := testShield("s1", box(0.1, 0.1, 0.2, 0.2))
	zone := model.Zone{ID: "totals", Type: model.ZoneTotalsBox, BBox: box(0, 0, 0.5, 0.5), Critical: true}

	conflicts := EvaluateConflicts([]model.Shield{sh}, []model.Zone{zone}, DefaultThresholds())
	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(conflicts))
	}
	c := conflicts[0]
	if c.ShieldID != "s1" || c.ZoneID != "totals" {
		t.Errorf("conflict ids = %s/%s", c.ShieldID, c.ZoneID)
	}
	if c.OverlapRatio != 1 {
		t.Errorf("overlap ratio = %g, want 1", c.OverlapRatio)
	}
	if !c.Blocking {
		t.Error("critical overlap should be blocking")
	}
	if got := EffectiveApplyMode(sh, conflicts); got != model.ModeSuggested {
		t.Errorf("effective mode = %v, want suggested", got)
	}
}

func TestEvaluateConflictsWarnOnly(t *testing.T) {
	// 7% overlap with a non-critical zone: recorded, not blocking.
	sh := testShield("s1", box(0, 0, 0.2, 0.2))
	zone := model.Zone{ID: "addr", Type: model.ZoneAddressBlock, BBox: box(0.186, 0, 0.3, 0.3)}

	conflicts := EvaluateConflicts([]model.Shield{sh}, []model.Zone{zone}, DefaultThresholds())
	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(conflicts))
	}
	if conflicts[0].Blocking {
		t.Error("non-critical zone should not block")
	}
	if got := EffectiveApplyMode(sh, conflicts); got != model.ModeApplied {
		t.Errorf("effective mode = %v, want applied", got)
	}
}

func TestEvaluateConflictsBelowWarn(t *testing.T) {
	sh := testShield("s1", box(0, 0, 0.2, 0.2))
	zone := model.Zone{ID: "z", BBox: box(0.195, 0, 0.3, 0.3), Critical: true}
	if got := EvaluateConflicts([]model.Shield{sh}, []model.Zone{zone}, DefaultThresholds()); got != nil {
		t.Errorf("sub-warn overlap produced conflicts: %v", got)
	}
}

func TestEvaluateConflictsSkipsDisabledAndExcluded(t *testing.T) {
	zone := model.Zone{ID: "totals", BBox: box(0, 0, 0.5, 0.5), Critical: true}

	disabled := testShield("s1", box(0.1, 0.1, 0.2, 0.2))
	disabled.ApplyMode = model.ModeDisabled
	if got := EvaluateConflicts([]model.Shield{disabled}, []model.Zone{zone}, DefaultThresholds()); got != nil {
		t.Errorf("disabled shield produced conflicts: %v", got)
	}

	excluded := testShield("s2", box(0.1, 0.1, 0.2, 0.2))
	excluded.ZoneTarget = model.ZoneTarget{
		IncludeZones: []string{model.AllZones},
		ExcludeZones: []string{"totals"},
	}
	if got := EvaluateConflicts([]model.Shield{excluded}, []model.Zone{zone}, DefaultThresholds()); got != nil {
		t.Errorf("zone-excluded shield produced conflicts: %v", got)
	}
}

func TestEffectiveApplyModeLeavesNonApplied(t *testing.T) {
	sh := testShield("s1", box(0.1, 0.1, 0.2, 0.2))
	sh.ApplyMode = model.ModeDisabled
	conflicts := []model.ZoneConflict{{ShieldID: "s1", ZoneID: "z", OverlapRatio: 1, Blocking: true}}
	if got := EffectiveApplyMode(sh, conflicts); got != model.ModeDisabled {
		t.Errorf("disabled shield forced to %v", got)
	}
}

func TestMaxRisk(t *testing.T) {
	sh := testShield("s1", box(0, 0, 0.2, 0.2))
	if got := MaxRisk(sh, nil); got != model.RiskLow {
		t.Errorf("no conflicts risk = %v, want low", got)
	}
	warn := []model.ZoneConflict{{ShieldID: "s1", ZoneID: "z", OverlapRatio: 0.07}}
	if got := MaxRisk(sh, warn); got != model.RiskMedium {
		t.Errorf("warn risk = %v, want medium", got)
	}
	blocking := append(warn, model.ZoneConflict{ShieldID: "s1", ZoneID: "totals", OverlapRatio: 0.5, Blocking: true})
	if got := MaxRisk(sh, blocking); got != model.RiskHigh {
		t.Errorf("blocking risk = %v, want high", got)
	}
	other := []model.ZoneConflict{{ShieldID: "s2", ZoneID: "z", OverlapRatio: 1, Blocking: true}}
	if got := MaxRisk(sh, other); got != model.RiskLow {
		t.Errorf("other shield's conflicts raised risk to %v", got)
	}
}
