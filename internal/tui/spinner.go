package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// busyIndicator shows a spinner while an action runs
type busyIndicator struct {
	spinner spinner.Model
	message string
	active  bool
}

func newBusyIndicator() busyIndicator {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
		FPS:    spinner.Dot.FPS,
	}
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	return busyIndicator{spinner: s}
}

// Start marks the indicator active and returns the first tick
func (b *busyIndicator) Start(message string) tea.Cmd {
	b.message = message
	b.active = true
	return b.spinner.Tick
}

// Stop hides the indicator
func (b *busyIndicator) Stop() {
	b.active = false
	b.message = ""
}

// Update advances the animation while active
func (b *busyIndicator) Update(msg spinner.TickMsg) tea.Cmd {
	if !b.active {
		return nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return cmd
}

// View renders the spinner and message
func (b busyIndicator) View() string {
	if !b.active {
		return ""
	}
	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))
	return fmt.Sprintf("%s %s", b.spinner.View(), messageStyle.Render(b.message))
}
