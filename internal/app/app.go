// Package app hosts the player's root Bubble Tea model.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizpool/internal/router"
	"github.com/abhisek/quizpool/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// NewAppModel creates an AppModel showing initial.
func NewAppModel(initial router.Screen) AppModel {
	return AppModel{
		router: router.New(initial),
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	var title, status string
	if active != nil {
		title = active.Title()
		if sp, ok := active.(router.StatusProvider); ok {
			status = sp.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	footerHints := []layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if kp, ok := active.(router.KeyHintProvider); ok {
		if hints := kp.KeyHints(); len(hints) > 0 {
			footerHints = hints
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program with initial as the first screen.
func Run(initial router.Screen) error {
	p := tea.NewProgram(NewAppModel(initial))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
