// Package model defines the core data types shared across shieldrev.
package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ShieldType categorizes what a shield is masking.
type ShieldType int

const (
	ShieldLogo ShieldType = iota
	ShieldWatermark
	ShieldRepetitiveHeader
	ShieldRepetitiveFooter
	ShieldStamp
	ShieldUserDefined
	ShieldVendorSpecific
	ShieldTemplateSpecific
)

func (s ShieldType) String() string {
	switch s {
	case ShieldLogo:
		return "logo"
	case ShieldWatermark:
		return "watermark"
	case ShieldRepetitiveHeader:
		return "repetitive_header"
	case ShieldRepetitiveFooter:
		return "repetitive_footer"
	case ShieldStamp:
		return "stamp"
	case ShieldUserDefined:
		return "user_defined"
	case ShieldVendorSpecific:
		return "vendor_specific"
	case ShieldTemplateSpecific:
		return "template_specific"
	default:
		return "unknown"
	}
}

// ApplyMode governs whether a shield actually masks, is merely advisory,
// or is inert.
type ApplyMode int

const (
	ModeApplied ApplyMode = iota
	ModeSuggested
	ModeDisabled
)

func (m ApplyMode) String() string {
	switch m {
	case ModeApplied:
		return "applied"
	case ModeSuggested:
		return "suggested"
	case ModeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// RiskLevel categorizes how dangerous a shield is to extraction quality.
// High implies the shield overlaps a critical zone beyond tolerance.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ApplySource identifies where a shield came from.
type ApplySource int

const (
	SourceAutoDetected ApplySource = iota
	SourceVendorRule
	SourceTemplateRule
	SourceSessionOverride
)

func (s ApplySource) String() string {
	switch s {
	case SourceAutoDetected:
		return "auto_detected"
	case SourceVendorRule:
		return "vendor_rule"
	case SourceTemplateRule:
		return "template_rule"
	case SourceSessionOverride:
		return "session_override"
	default:
		return "unknown"
	}
}

// PageKind discriminates the PageTarget variants.
type PageKind int

const (
	PagesAll PageKind = iota
	PagesFirst
	PagesLast
	PagesSpecific
)

func (k PageKind) String() string {
	switch k {
	case PagesAll:
		return "all"
	case PagesFirst:
		return "first"
	case PagesLast:
		return "last"
	case PagesSpecific:
		return "specific"
	default:
		return "unknown"
	}
}

// PageTarget selects which pages of a document a shield applies to.
// Pages is only meaningful for PagesSpecific and is kept sorted and
// deduplicated; page numbers are 1-based.
type PageTarget struct {
	Kind  PageKind
	Pages []int
}

// AllPages targets every page.
func AllPages() PageTarget { return PageTarget{Kind: PagesAll} }

// FirstPage targets only the first page.
func FirstPage() PageTarget { return PageTarget{Kind: PagesFirst} }

// LastPage targets only the last page.
func LastPage() PageTarget { return PageTarget{Kind: PagesLast} }

// SpecificPages targets an explicit set of pages. Non-positive pages are
// dropped, duplicates collapsed, order normalized.
func SpecificPages(pages ...int) PageTarget {
	seen := make(map[int]bool, len(pages))
	var out []int
	for _, p := range pages {
		if p > 0 && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return PageTarget{Kind: PagesSpecific, Pages: out}
}

func (p PageTarget) String() string {
	if p.Kind == PagesSpecific {
		return fmt.Sprintf("specific%v", p.Pages)
	}
	return p.Kind.String()
}

// AllZones is the sentinel meaning "every zone" in ZoneTarget.IncludeZones.
const AllZones = "all"

// ZoneTarget restricts a shield to particular document zones.
// IncludeZones may contain the AllZones sentinel; ExcludeZones always
// lists concrete zone ids.
type ZoneTarget struct {
	IncludeZones []string `json:"includeZones"`
	ExcludeZones []string `json:"excludeZones,omitempty"`
}

// EveryZone targets all zones with no exclusions.
func EveryZone() ZoneTarget {
	return ZoneTarget{IncludeZones: []string{AllZones}}
}

// Includes reports whether the target covers the given zone id.
// Exclusions win over inclusions.
func (z ZoneTarget) Includes(zoneID string) bool {
	for _, ex := range z.ExcludeZones {
		if ex == zoneID {
			return false
		}
	}
	for _, in := range z.IncludeZones {
		if in == AllZones || in == zoneID {
			return true
		}
	}
	return false
}

// Provenance records where a shield came from and when.
type Provenance struct {
	Source     ApplySource `json:"source"`
	UserID     string      `json:"userId,omitempty"`
	VendorID   string      `json:"vendorId,omitempty"`
	TemplateID string      `json:"templateId,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  *time.Time  `json:"updatedAt,omitempty"`
}

// Shield is the unit of cleanup intent: a rectangular region of the
// document excluded from text extraction.
type Shield struct {
	ID            string     `json:"id"`
	Type          ShieldType `json:"shieldType"`
	BBox          BBox       `json:"normalizedBBox"`
	PageTarget    PageTarget `json:"pageTarget"`
	ZoneTarget    ZoneTarget `json:"zoneTarget"`
	ApplyMode     ApplyMode  `json:"applyMode"`
	RiskLevel     RiskLevel  `json:"riskLevel"`
	Confidence    float64    `json:"confidence"`
	MinConfidence float64    `json:"minConfidence,omitempty"`
	WhyDetected   string     `json:"whyDetected,omitempty"`
	Provenance    Provenance `json:"provenance"`
}

// MinShieldArea is the smallest normalized area a committed shield may
// have; editors reject degenerate draws below this before committing.
const MinShieldArea = 1e-5

// NewUserShield creates a session-drawn shield with a fresh id. The bbox
// is clamped to the unit square.
func NewUserShield(bbox BBox, userID string) Shield {
	return Shield{
		ID:         uuid.NewString(),
		Type:       ShieldUserDefined,
		BBox:       bbox.Clamp(),
		PageTarget: AllPages(),
		ZoneTarget: EveryZone(),
		ApplyMode:  ModeApplied,
		RiskLevel:  RiskLow,
		Confidence: 1,
		Provenance: Provenance{
			Source:    SourceSessionOverride,
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		},
	}
}

// Validate rejects shields that would be degenerate once committed.
func (s Shield) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("shield missing id")
	}
	b := s.BBox.Clamp()
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("shield %s: zero-size bbox", s.ID)
	}
	if b.Area() < MinShieldArea {
		return fmt.Errorf("shield %s: bbox area %g below minimum %g", s.ID, b.Area(), MinShieldArea)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("shield %s: confidence %g outside [0,1]", s.ID, s.Confidence)
	}
	return nil
}

// ZoneType categorizes a document zone.
type ZoneType int

const (
	ZoneTotalsBox ZoneType = iota
	ZoneLineItems
	ZoneAddressBlock
	ZoneFreeText
	ZoneOther
)

func (z ZoneType) String() string {
	switch z {
	case ZoneTotalsBox:
		return "totals_box"
	case ZoneLineItems:
		return "line_items"
	case ZoneAddressBlock:
		return "address_block"
	case ZoneFreeText:
		return "free_text"
	default:
		return "other"
	}
}

// Zone is a document region delivered by the resolver. Critical zones
// (totals, line items) must never be fully masked by a shield.
type Zone struct {
	ID       string   `json:"id"`
	Type     ZoneType `json:"type"`
	BBox     BBox     `json:"normalizedBBox"`
	Critical bool     `json:"critical"`
	Page     int      `json:"page,omitempty"`
}

// PrecedenceExplanation describes why one provenance layer won for a
// shield during the last resolve. Informational only.
type PrecedenceExplanation struct {
	ShieldID          string        `json:"shieldId"`
	WinningSource     ApplySource   `json:"winningSource"`
	OverriddenSources []ApplySource `json:"overriddenSources,omitempty"`
	Reason            string        `json:"reason,omitempty"`
}

// ZoneConflict records a shield overlapping a zone beyond tolerance.
type ZoneConflict struct {
	ShieldID     string  `json:"shieldId"`
	ZoneID       string  `json:"zoneId"`
	OverlapRatio float64 `json:"overlapRatio"`
	ActionTaken  string  `json:"actionTaken"`
	Blocking     bool    `json:"blocking,omitempty"`
}
