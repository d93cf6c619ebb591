package tui

import (
	"strings"

	"trimlcov/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// MsgFilterReady carries the summary of a finished filtering pass.
type MsgFilterReady model.Summary

// MsgError indicates the filtering pass failed.
type MsgError struct{ Err error }

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.DetailsViewport.Width = msg.Width / 2
		m.DetailsViewport.Height = msg.Height - 6
		m.refreshDetails()
		return m, nil

	case MsgFilterReady:
		m.Loading = false
		m.Summary = model.Summary(msg)
		m.resetFilter()
		m.SelectedIdx = 0
		m.refreshDetails()
		return m, nil

	case MsgError:
		m.Err = msg.Err
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.performSearch()
				m.refreshDetails()
				return m, nil
			case tea.KeyEsc:
				m.clearSearch()
				m.refreshDetails()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.ShowHelp {
				m.ShowHelp = false
				return m, nil
			}
			if m.SearchActive {
				m.clearSearch()
				m.refreshDetails()
			}
		case "up", "k":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.refreshDetails()
			}
		case "down", "j":
			if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
				m.refreshDetails()
			}
		case "pgdown":
			m.DetailsViewport.HalfViewDown()
		case "pgup":
			m.DetailsViewport.HalfViewUp()
		case "?":
			m.ShowHelp = !m.ShowHelp
		case "/":
			m.InputMode = true
			m.InputBuffer.SetValue("")
			cmd = m.InputBuffer.Focus()
			return m, cmd
		}
	}

	return m, cmd
}

func (m *AppModel) resetFilter() {
	m.FilteredIndices = make([]int, len(m.Summary.Suppressions))
	for i := range m.Summary.Suppressions {
		m.FilteredIndices[i] = i
	}
}

func (m *AppModel) clearSearch() {
	m.InputMode = false
	m.InputBuffer.Blur()
	m.InputBuffer.SetValue("")
	m.SearchActive = false
	m.resetFilter()
	m.clampSelection()
}

// performSearch narrows the list to suppressions whose path, keyword or
// record contains the search term (case-insensitive).
func (m *AppModel) performSearch() {
	term := strings.ToLower(strings.TrimSpace(m.InputBuffer.Value()))
	if term == "" {
		m.SearchActive = false
		m.resetFilter()
		m.clampSelection()
		return
	}

	m.SearchActive = true
	var result []int
	for i, sup := range m.Summary.Suppressions {
		if strings.Contains(strings.ToLower(sup.Path), term) ||
			strings.Contains(strings.ToLower(sup.Keyword), term) ||
			strings.Contains(strings.ToLower(sup.Record), term) {
			result = append(result, i)
		}
	}
	m.FilteredIndices = result
	m.clampSelection()
}

func (m *AppModel) clampSelection() {
	if m.SelectedIdx >= len(m.FilteredIndices) {
		if len(m.FilteredIndices) > 0 {
			m.SelectedIdx = len(m.FilteredIndices) - 1
		} else {
			m.SelectedIdx = 0
		}
	}
}

// Selected returns the suppression under the cursor.
func (m AppModel) Selected() (model.Suppression, bool) {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return model.Suppression{}, false
	}
	return m.Summary.Suppressions[m.FilteredIndices[m.SelectedIdx]], true
}

// source returns the lines of path, reading each file at most once.
func (m *AppModel) source(path string) ([]string, error) {
	if lines, ok := m.sources[path]; ok {
		return lines, nil
	}
	if err, ok := m.sourceErrs[path]; ok {
		return nil, err
	}
	lines, err := m.loadSource(path)
	if err != nil {
		m.sourceErrs[path] = err
		return nil, err
	}
	m.sources[path] = lines
	return lines, nil
}

// runFilterCmd executes the filtering pass in the background.
func runFilterCmd(run RunFunc) tea.Cmd {
	return func() tea.Msg {
		summary, err := run()
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgFilterReady(summary)
	}
}
