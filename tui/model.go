// Package tui is a terminal scratchpad editor backed by an autosave.Synchronizer.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alimasry/go-scratchpad/autosave"
)

const refreshInterval = 100 * time.Millisecond

type tickMsg time.Time

type openedMsg struct{ err error }

// Model is the bubbletea model for the editor.
type Model struct {
	sync    *autosave.Synchronizer
	docs    []string
	current int

	editor textarea.Model
	snap   autosave.Snapshot
	err    error

	width  int
	height int
	styles styles
}

// New creates an editor over docs. The first document is opened by Init;
// tab cycles through the rest.
func New(s *autosave.Synchronizer, docs []string) Model {
	ta := textarea.New()
	ta.Placeholder = "Start typing…"
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.Focus()

	return Model{
		sync:   s,
		docs:   docs,
		editor: ta,
		styles: defaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.openCmd(), tick())
}

func (m Model) openCmd() tea.Cmd {
	if len(m.docs) == 0 {
		return nil
	}
	id := m.docs[m.current]
	return func() tea.Msg {
		return openedMsg{err: m.sync.Open(id)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// CurrentDoc returns the id of the document being edited.
func (m Model) CurrentDoc() string {
	if len(m.docs) == 0 {
		return ""
	}
	return m.docs[m.current]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(msg.Width)
		m.editor.SetHeight(max(msg.Height-2, 1))
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case openedMsg:
		m.err = msg.err
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		if len(m.docs) < 2 {
			return m, nil
		}
		m.current = (m.current + 1) % len(m.docs)
		m.editor.SetValue("")
		m.err = m.sync.Open(m.docs[m.current])
		m.refresh()
		return m, nil
	case "ctrl+s":
		m.err = m.sync.Flush()
		m.refresh()
		return m, nil
	case "ctrl+r":
		m.err = m.sync.Refresh()
		m.refresh()
		return m, nil
	}

	// Typing is only accepted once the buffer holds the loaded content.
	if m.snap.Phase != autosave.PhaseReady {
		return m, nil
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.err = m.sync.Edit(after)
	}
	m.refresh()
	return m, cmd
}

// refresh pulls the synchronizer state. The buffer only differs from the
// editor after a load or refresh, since every keystroke is pushed through
// Edit synchronously.
func (m *Model) refresh() {
	m.snap = m.sync.Snapshot()
	if m.snap.DocID != m.CurrentDoc() {
		return
	}
	if m.snap.Phase == autosave.PhaseReady && m.snap.Content != m.editor.Value() {
		m.editor.SetValue(m.snap.Content)
	}
}

func (m Model) View() string {
	var body string
	if m.snap.Phase == autosave.PhaseError {
		body = m.styles.Error.Render(fmt.Sprintf("could not load %q: %v\n\nctrl+r to retry · tab for next · esc to quit",
			m.snap.DocID, m.snap.LoadErr))
	} else {
		body = m.editor.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}

func (m Model) statusBar() string {
	name := m.styles.DocName.Render(m.CurrentDoc())

	var badge string
	switch {
	case m.snap.Phase == autosave.PhaseLoading:
		badge = m.styles.Saving.Render("loading")
	case m.snap.Phase == autosave.PhaseError:
		badge = m.styles.Unsaved.Render("error")
	default:
		badge = m.statusBadge(m.snap.Status)
	}

	parts := []string{name, badge}
	if m.err != nil {
		parts = append(parts, m.styles.Unsaved.Render(m.err.Error()))
	} else if m.snap.SaveErr != nil {
		parts = append(parts, m.styles.Unsaved.Render("last save failed: "+m.snap.SaveErr.Error()))
	}
	parts = append(parts, m.styles.Help.Render(helpText(len(m.docs) > 1)))

	return m.styles.Bar.Width(m.width).Render(strings.Join(parts, " "))
}

func (m Model) statusBadge(s autosave.Status) string {
	switch s {
	case autosave.StatusSaving:
		return m.styles.Saving.Render(s.String())
	case autosave.StatusUnsaved:
		return m.styles.Unsaved.Render(s.String())
	default:
		return m.styles.Saved.Render(s.String())
	}
}

func helpText(multi bool) string {
	if multi {
		return "tab next · ctrl+s save · esc quit"
	}
	return "ctrl+s save · esc quit"
}
