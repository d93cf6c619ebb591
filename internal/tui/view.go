package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trimlcov/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")). // Orange
			Bold(true)

	targetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Sky Blue/Cyan
			Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	helpStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63"))
)

func (m AppModel) Init() tea.Cmd {
	return runFilterCmd(m.run)
}

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Filtering tracefile... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press q to quit.\n", m.Err)
	}
	if m.ShowHelp {
		return m.renderHelpDialog()
	}

	width := m.WindowSize.Width
	height := m.WindowSize.Height

	netWidth := width - 6
	if netWidth < 20 {
		netWidth = 20
	}
	leftWidth := netWidth / 2
	rightWidth := netWidth - leftWidth

	interiorHeight := height - 8
	if interiorHeight < 4 {
		interiorHeight = 4
	}

	// LEFT PANEL: suppression list
	var left strings.Builder
	left.WriteString(titleStyle.Render(fmt.Sprintf("Suppressed (%d/%d)", len(m.FilteredIndices), len(m.Summary.Suppressions))))
	left.WriteString("\n\n")

	visibleItems := interiorHeight - 2
	if visibleItems < 1 {
		visibleItems = 1
	}
	startIdx := 0
	endIdx := len(m.FilteredIndices)
	if len(m.FilteredIndices) > visibleItems {
		if m.SelectedIdx >= visibleItems/2 {
			startIdx = m.SelectedIdx - visibleItems/2
		}
		if startIdx+visibleItems > len(m.FilteredIndices) {
			startIdx = len(m.FilteredIndices) - visibleItems
		}
		endIdx = startIdx + visibleItems
	}

	if len(m.FilteredIndices) == 0 {
		left.WriteString(dimStyle.Render("  nothing suppressed"))
	}
	for i := startIdx; i < endIdx; i++ {
		sup := m.Summary.Suppressions[m.FilteredIndices[i]]
		line := fmt.Sprintf("%s %s:%d", sup.Kind.Icon(), sup.Path, sup.Line)
		line = truncate(line, leftWidth-4)
		if i == m.SelectedIdx {
			left.WriteString(selectedStyle.Render(model.IconSelected + " " + line))
		} else {
			left.WriteString(normalStyle.Render("  " + line))
		}
		left.WriteString("\n")
	}

	leftPane := paneStyle.Width(leftWidth).Height(interiorHeight).Render(left.String())
	rightPane := paneStyle.Width(rightWidth).Height(interiorHeight).Render(m.DetailsViewport.View())

	var sb strings.Builder
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane))
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m AppModel) renderFooter() string {
	if m.InputMode {
		return " Search: " + m.InputBuffer.View()
	}
	s := m.Summary
	status := fmt.Sprintf(" DA %d/%d suppressed · BRDA %d/%d suppressed",
		s.LineDataDropped, s.LineDataSeen, s.BranchDataDropped, s.BranchDataSeen)
	if m.SearchActive {
		status += fmt.Sprintf(" · filter %q", m.InputBuffer.Value())
	}
	return dimStyle.Render(status + " · / search · ? help · q quit")
}

// refreshDetails renders the source context of the selected suppression
// into the details viewport.
func (m *AppModel) refreshDetails() {
	sup, ok := m.Selected()
	if !ok {
		m.DetailsViewport.SetContent(dimStyle.Render("No suppression selected."))
		return
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s:%d", sup.Path, sup.Line)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Record:  %s\n", sup.Record)
	fmt.Fprintf(&sb, "Kind:    %s\n", sup.Kind)
	fmt.Fprintf(&sb, "Keyword: %s\n\n", keywordStyle.Render(sup.Keyword))

	lines, err := m.source(sup.Path)
	if err != nil {
		fmt.Fprintf(&sb, "%s %v\n", model.IconMissing, err)
		m.DetailsViewport.SetContent(sb.String())
		return
	}

	ctx := model.GetLineContext(lines, sup.Line)
	if ctx.OutOfRange {
		fmt.Fprintf(&sb, "%s line %d no longer exists (file has %d lines)\n", model.IconMissing, sup.Line, len(lines))
		m.DetailsViewport.SetContent(sb.String())
		return
	}

	gutter := func(n int) string { return dimStyle.Render(fmt.Sprintf("%5d │ ", n)) }
	if ctx.HasBefore2 {
		sb.WriteString(gutter(sup.Line-2) + ctx.Before2 + "\n")
	}
	if ctx.HasBefore1 {
		sb.WriteString(gutter(sup.Line-1) + ctx.Before1 + "\n")
	}
	sb.WriteString(gutter(sup.Line) + targetStyle.Render(ctx.Target) + "\n")
	if ctx.HasAfter1 {
		sb.WriteString(gutter(sup.Line+1) + ctx.After1 + "\n")
	}
	if ctx.HasAfter2 {
		sb.WriteString(gutter(sup.Line+2) + ctx.After2 + "\n")
	}

	m.DetailsViewport.SetContent(sb.String())
	m.DetailsViewport.GotoTop()
}

func (m AppModel) renderHelpDialog() string {
	help := strings.Join([]string{
		titleStyle.Render("trimlcov browser"),
		"",
		"  up/k, down/j   move selection",
		"  pgup, pgdown   scroll source context",
		"  /              search path, keyword or record",
		"  esc            clear search / close help",
		"  ?              toggle this help",
		"  q, ctrl+c      quit",
		"",
		dimStyle.Render(model.IconLine + " line data (DA)   " + model.IconBranch + " branch data (BRDA)"),
	}, "\n")
	return helpStyle.Render(help)
}

func truncate(s string, width int) string {
	if width < 4 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
