// Package tui is the terminal dashboard: the same board and list views as
// the web page, rendered with lipgloss and refreshed on a tea.Tick.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
)

// Loader is the refresh loop as seen by the TUI. The TUI drives reloads
// itself and never calls Run.
type Loader interface {
	Snapshot() refresh.Snapshot
	Reload(ctx context.Context) refresh.Snapshot
	Interval() time.Duration
}

type tickMsg time.Time
type snapshotMsg refresh.Snapshot
type prefSavedMsg struct{ err error }

// defaultWidth is used until the terminal reports its size.
const defaultWidth = 120

// Option configures a Model.
type Option func(*Model)

// WithAmbientTheme sets the theme used when none is stored.
func WithAmbientTheme(t prefs.Theme) Option {
	return func(m *Model) {
		m.ambient = t
	}
}

// WithLocation sets the document location shown when it is missing.
func WithLocation(location string) Option {
	return func(m *Model) {
		if location != "" {
			m.location = location
		}
	}
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx      context.Context
	loader   Loader
	store    prefs.Store
	ambient  prefs.Theme
	location string

	snap     refresh.Snapshot
	view     prefs.ViewMode
	theme    prefs.Theme
	viewport viewport.Model
	content  string
	status   string
	width    int
	height   int
	quitting bool
}

// New creates a model showing loader's current snapshot with the stored
// view and theme.
func New(ctx context.Context, loader Loader, store prefs.Store, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		loader:   loader,
		store:    store,
		ambient:  prefs.ThemeDark,
		location: "./prd.json",
		snap:     loader.Snapshot(),
		viewport: viewport.New(defaultWidth, 30),
		width:    defaultWidth,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.view = prefs.LoadView(ctx, store)
	m.theme = prefs.LoadTheme(ctx, store, m.ambient)
	m.rerender()
	return m
}

// AmbientTheme guesses the theme from the terminal background.
func AmbientTheme() prefs.Theme {
	if lipgloss.HasDarkBackground() {
		return prefs.ThemeDark
	}
	return prefs.ThemeLight
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.reloadCmd(), m.tickCmd())
}

func (m Model) reloadCmd() tea.Cmd {
	ctx, loader := m.ctx, m.loader
	return func() tea.Msg {
		return snapshotMsg(loader.Reload(ctx))
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.loader.Interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) saveViewCmd(v prefs.ViewMode) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		_, err := prefs.SaveView(ctx, store, string(v))
		return prefSavedMsg{err: err}
	}
}

func (m Model) saveThemeCmd(t prefs.Theme) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		_, err := prefs.SaveTheme(ctx, store, string(t))
		return prefSavedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.rerender()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "b":
			return m.setView(prefs.ViewBoard)
		case "l":
			return m.setView(prefs.ViewList)
		case "v":
			return m.setView(m.view.Toggle())
		case "t":
			m.theme = m.theme.Toggle()
			m.rerender()
			return m, m.saveThemeCmd(m.theme)
		case "r":
			m.status = "reloading…"
			return m, m.reloadCmd()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tea.Batch(m.reloadCmd(), m.tickCmd())

	case snapshotMsg:
		m.snap = refresh.Snapshot(msg)
		m.status = ""
		m.rerender()
		return m, nil

	case prefSavedMsg:
		if msg.err != nil {
			m.status = "could not save preference: " + msg.err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) setView(v prefs.ViewMode) (tea.Model, tea.Cmd) {
	if v == m.view {
		return m, nil
	}
	m.view = v
	m.rerender()
	m.viewport.GotoTop()
	return m, m.saveViewCmd(v)
}

func (m *Model) rerender() {
	m.content = render(m.snap, m.view, paletteFor(m.theme), m.width, m.location)
	m.viewport.SetContent(m.content)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	p := paletteFor(m.theme)
	help := "b board • l list • v toggle view • t theme • r reload • ↑/↓ scroll • q quit"
	if m.status != "" {
		help = m.status
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		p.help.Render(help),
	)
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
