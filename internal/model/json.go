package model

import (
	"encoding/json"
	"fmt"
)

// The enums cross the wire and the session store in their string form so
// stored snapshots stay readable and stable across reorderings of the
// Go constants.

func (s ShieldType) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *ShieldType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseShieldType(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseShieldType is the inverse of ShieldType.String.
func ParseShieldType(raw string) (ShieldType, error) {
	for t := ShieldLogo; t <= ShieldTemplateSpecific; t++ {
		if t.String() == raw {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown shield type %q", raw)
}

func (m ApplyMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *ApplyMode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseApplyMode(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseApplyMode is the inverse of ApplyMode.String.
func ParseApplyMode(raw string) (ApplyMode, error) {
	switch raw {
	case "applied":
		return ModeApplied, nil
	case "suggested":
		return ModeSuggested, nil
	case "disabled":
		return ModeDisabled, nil
	}
	return 0, fmt.Errorf("unknown apply mode %q", raw)
}

func (r RiskLevel) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "low":
		*r = RiskLow
	case "medium":
		*r = RiskMedium
	case "high":
		*r = RiskHigh
	default:
		return fmt.Errorf("unknown risk level %q", raw)
	}
	return nil
}

func (s ApplySource) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *ApplySource) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "auto_detected":
		*s = SourceAutoDetected
	case "vendor_rule":
		*s = SourceVendorRule
	case "template_rule":
		*s = SourceTemplateRule
	case "session_override":
		*s = SourceSessionOverride
	default:
		return fmt.Errorf("unknown apply source %q", raw)
	}
	return nil
}

func (z ZoneType) MarshalJSON() ([]byte, error) { return json.Marshal(z.String()) }

func (z *ZoneType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "totals_box":
		*z = ZoneTotalsBox
	case "line_items":
		*z = ZoneLineItems
	case "address_block":
		*z = ZoneAddressBlock
	case "free_text":
		*z = ZoneFreeText
	case "other":
		*z = ZoneOther
	default:
		return fmt.Errorf("unknown zone type %q", raw)
	}
	return nil
}

// pageTargetJSON is the explicit tagged wire form of PageTarget.
type pageTargetJSON struct {
	Kind  string `json:"kind"`
	Pages []int  `json:"pages,omitempty"`
}

func (p PageTarget) MarshalJSON() ([]byte, error) {
	out := pageTargetJSON{Kind: p.Kind.String()}
	if p.Kind == PagesSpecific {
		out.Pages = p.Pages
	}
	return json.Marshal(out)
}

func (p *PageTarget) UnmarshalJSON(data []byte) error {
	var raw pageTargetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "all":
		*p = AllPages()
	case "first":
		*p = FirstPage()
	case "last":
		*p = LastPage()
	case "specific":
		*p = SpecificPages(raw.Pages...)
	default:
		return fmt.Errorf("unknown page target kind %q", raw.Kind)
	}
	return nil
}
