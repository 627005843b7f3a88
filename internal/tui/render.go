package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/model"
	"github.com/scanline-ai/shieldrev/internal/review"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.state.Type == review.StateLoadingCase {
		return fmt.Sprintf("\n  Loading case %s...\n", m.state.CaseID)
	}

	// Layout: shield list on left, detail on right
	listWidth := m.listWidth()
	detailWidth := m.width - listWidth - 1 // -1 for gap

	list := m.renderList(listWidth, m.height-2)
	detail := m.renderDetail(detailWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)

	statusBar := m.renderStatusBar()

	if m.state.Type == review.StateErrorNonblocking {
		banner := errorBannerStyle.Width(m.width).Render(
			"save failed: " + m.state.Err + "  (r retry, esc dismiss — edits kept)")
		return lipgloss.JoinVertical(lipgloss.Left, banner, main, statusBar)
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, statusBar)
}

func (m Model) listWidth() int {
	w := 36
	if w > m.width/2 {
		w = m.width / 2
	}
	if w < 24 {
		w = 24
	}
	return w
}

func (m Model) renderList(width, height int) string {
	var b strings.Builder

	if len(m.state.Shields) == 0 {
		b.WriteString(listItemDisabledStyle.Render("no shields"))
	}

	for i, sh := range m.state.Shields {
		mode := geometry.EffectiveApplyMode(sh, m.state.Conflicts)

		marker := " "
		if m.overridden(sh.ID) {
			marker = "*"
		}
		line := fmt.Sprintf("%s%-10s %-9s p:%s", marker, sh.Type, mode, sh.PageTarget.Kind)

		var style lipgloss.Style
		switch {
		case i == m.cursor:
			style = listItemSelectedStyle
		case mode == model.ModeDisabled:
			style = listItemDisabledStyle
		case m.overridden(sh.ID):
			style = listItemOverrideStyle
		default:
			style = listItemStyle
		}

		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(m.state.Shields)-1 {
			b.WriteByte('\n')
		}
	}

	innerHeight := height - 2 // borders
	return listStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) renderDetail(width, height int) string {
	innerHeight := height - 2

	sh, ok := m.selected()
	if !ok {
		return detailStyle.Width(width).Height(innerHeight).Render("No shield selected")
	}

	var b strings.Builder
	b.WriteString(detailHeaderStyle.Render(fmt.Sprintf("%s  %s", sh.Type, sh.ID)))
	b.WriteByte('\n')

	mode := geometry.EffectiveApplyMode(sh, m.state.Conflicts)
	modeText := m.styleMode(mode)
	if mode != sh.ApplyMode {
		modeText += disabledStyle.Render(fmt.Sprintf("  (stored: %s)", sh.ApplyMode))
	}

	rows := []struct{ label, value string }{
		{"mode", modeText},
		{"bbox", fmt.Sprintf("x=%.3f y=%.3f w=%.3f h=%.3f", sh.BBox.X, sh.BBox.Y, sh.BBox.Width, sh.BBox.Height)},
		{"pages", sh.PageTarget.String()},
		{"zones", formatZoneTarget(sh.ZoneTarget)},
		{"risk", geometry.MaxRisk(sh, m.state.Conflicts).String()},
		{"source", sh.Provenance.Source.String()},
	}
	if sh.WhyDetected != "" {
		rows = append(rows, struct{ label, value string }{"why", sh.WhyDetected})
	}
	for _, row := range rows {
		b.WriteString(detailLabelStyle.Render(row.label))
		b.WriteString(row.value)
		b.WriteByte('\n')
	}

	conflicts := shieldConflicts(sh.ID, m.state.Conflicts)
	if len(conflicts) > 0 {
		b.WriteByte('\n')
		b.WriteString(detailHeaderStyle.Render("Zone conflicts"))
		b.WriteByte('\n')
		for _, c := range conflicts {
			style := conflictWarnStyle
			if c.Blocking {
				style = conflictBlockStyle
			}
			b.WriteString(style.Render(fmt.Sprintf("  %s %.0f%% — %s", c.ZoneID, c.OverlapRatio*100, c.ActionTaken)))
			b.WriteByte('\n')
		}
	}

	for _, ex := range m.state.Explanations {
		if ex.ShieldID != sh.ID {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(detailHeaderStyle.Render("Precedence"))
		b.WriteByte('\n')
		line := "  wins: " + ex.WinningSource.String()
		if ex.Reason != "" {
			line += " — " + ex.Reason
		}
		b.WriteString(helpBarStyle.Render(line))
		b.WriteByte('\n')
	}

	return detailStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) styleMode(mode model.ApplyMode) string {
	switch mode {
	case model.ModeApplied:
		return appliedStyle.Render(mode.String())
	case model.ModeSuggested:
		return suggestedStyle.Render(mode.String())
	default:
		return disabledStyle.Render(mode.String())
	}
}

func formatZoneTarget(zt model.ZoneTarget) string {
	s := strings.Join(zt.IncludeZones, ",")
	if len(zt.ExcludeZones) > 0 {
		s += " -" + strings.Join(zt.ExcludeZones, ",-")
	}
	return s
}

func shieldConflicts(id string, conflicts []model.ZoneConflict) []model.ZoneConflict {
	var out []model.ZoneConflict
	for _, c := range conflicts {
		if c.ShieldID == id {
			out = append(out, c)
		}
	}
	return out
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" %s  %d shields", m.state.CaseID, len(m.state.Shields))
	if n := len(m.state.Overrides); n > 0 {
		left += fmt.Sprintf("  %d unsynced", n)
	}

	var mid string
	switch {
	case m.state.Busy():
		mid = statusBusyStyle.Render(" " + m.state.Type.String() + "… ")
	case m.inflight:
		mid = statusBusyStyle.Render(" working… ")
	case m.notice != "":
		mid = statusBusyStyle.Render(" " + m.notice + " ")
	}

	right := "V vendor  T template  R rerun  ? help "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(m.width).Render(left + mid + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(detailHeaderStyle.Render("shieldrev — Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Previous shield"},
		{"↓/j", "Next shield"},
		{"a", "Set apply mode: applied"},
		{"s", "Set apply mode: suggested"},
		{"d", "Set apply mode: disabled"},
		{"x", "Remove shield"},
		{"p", "Cycle page target"},
		{"V", "Save as vendor rule"},
		{"T", "Save as template rule"},
		{"R", "Snapshot and rerun extraction"},
		{"r", "Retry failed operation"},
		{"esc", "Dismiss error (edits kept)"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}
