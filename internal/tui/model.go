package tui

import (
	"trimlcov/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// RunFunc performs the filtering pass whose suppressions are browsed.
type RunFunc func() (model.Summary, error)

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Summary model.Summary
	Loading bool
	Err     error

	// UI State
	SelectedIdx int
	WindowSize  tea.WindowSizeMsg
	ShowHelp    bool

	// Search State
	InputMode       bool
	InputBuffer     textinput.Model
	FilteredIndices []int // Indices into Summary.Suppressions
	SearchActive    bool

	// Components
	DetailsViewport viewport.Model

	run        RunFunc
	loadSource func(path string) ([]string, error)
	sources    map[string][]string
	sourceErrs map[string]error
}

// InitialModel returns the initial state. run is executed once by Init.
func InitialModel(run RunFunc) AppModel {
	ti := textinput.New()
	ti.Placeholder = "path, keyword or record..."
	ti.CharLimit = 120
	ti.Width = 40

	return AppModel{
		Loading:         true,
		InputBuffer:     ti,
		DetailsViewport: viewport.New(40, 10),
		run:             run,
		loadSource:      model.ReadSourceLines,
		sources:         map[string][]string{},
		sourceErrs:      map[string]error{},
	}
}
