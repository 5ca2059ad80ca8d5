// Package feedview renders the message window in a terminal.
package feedview

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/heatchat/internal/core"
)

const timeLayout = "15:04:05"

// WindowMsg carries a new window snapshot.
type WindowMsg struct {
	Window core.Window
}

// ClosedMsg reports that the update stream ended.
type ClosedMsg struct{}

// Model displays the latest window snapshot.
type Model struct {
	updates <-chan core.Window
	window  core.Window
	viewer  string
	width   int
	closed  bool
}

// New creates a model showing initial and following updates. viewer is
// shown in the header; empty means anonymous.
func New(initial core.Window, updates <-chan core.Window, viewer string) Model {
	return Model{
		updates: updates,
		window:  initial,
		viewer:  viewer,
		width:   60,
	}
}

// Init starts waiting for window updates.
func (m Model) Init() tea.Cmd {
	return waitForWindow(m.updates)
}

// Update handles window snapshots, resizes and quit keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case WindowMsg:
		m.window = msg.Window
		return m, waitForWindow(m.updates)

	case ClosedMsg:
		m.closed = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the header, one card per message and a help line.
func (m Model) View() string {
	title := "heatchat"
	if m.viewer != "" {
		title += " · " + m.viewer
	}

	parts := []string{headerStyle.Render(title)}

	msgs := m.window.Messages()
	if len(msgs) == 0 {
		parts = append(parts, metaStyle.Render("No messages yet."))
	}
	cardWidth := m.width - 4
	if cardWidth < 20 {
		cardWidth = 20
	}
	for _, msg := range msgs {
		parts = append(parts, cardStyle.Width(cardWidth).Render(renderMessage(msg)))
	}

	help := "q quit"
	if m.closed {
		help = "feed stopped · " + help
	}
	parts = append(parts, helpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Window returns the snapshot currently displayed.
func (m Model) Window() core.Window {
	return m.window
}

func renderMessage(msg core.Message) string {
	var b strings.Builder
	b.WriteString(authorStyle.Render(msg.User.DisplayName()))
	if !msg.CreatedAt.IsZero() {
		b.WriteString(" ")
		b.WriteString(metaStyle.Render(msg.CreatedAt.Local().Format(timeLayout)))
	}
	b.WriteString("\n")
	b.WriteString(msg.Text)
	return b.String()
}

// waitForWindow returns a command that waits for the next snapshot.
func waitForWindow(ch <-chan core.Window) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		w, ok := <-ch
		if !ok {
			return ClosedMsg{}
		}
		return WindowMsg{Window: w}
	}
}

// String renders the window as plain text, one message per line.
func String(w core.Window) string {
	var b strings.Builder
	for _, msg := range w.Messages() {
		fmt.Fprintf(&b, "%s: %s\n", msg.User.DisplayName(), msg.Text)
	}
	return b.String()
}

// Follow writes every snapshot from updates to w as plain text until ctx
// ends or updates is closed.
func Follow(ctx context.Context, w io.Writer, updates <-chan core.Window) {
	for {
		select {
		case win, ok := <-updates:
			if !ok {
				return
			}
			fmt.Fprint(w, String(win), "---\n")
		case <-ctx.Done():
			return
		}
	}
}
