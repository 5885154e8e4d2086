package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

type model struct {
	api            *client
	summary        summary        // Today's intake
	loading        bool           // Whether the request is loading
	loadingSpinner spinner.Model  // Loading spinner
	err            error          // Error message
	width          int            // Width of the terminal
	height         int            // Height of the terminal
	viewport       viewport.Model // Viewport for the summary
	keys           keyMap         // The key bindings shown in the viewport
	help           help.Model     // The help model in the viewport
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "scroll up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "scroll down")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
}

// ShortHelp returns keybindings to be shown in the mini help view. It's part
// of the key.Map interface.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit, k.Help}
}

// FullHelp returns keybindings for the expanded help view. It's part of the
// key.Map interface.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Refresh, k.Quit},
		{k.Help},
	}
}

func initialModel(api *client) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		api:            api,
		loading:        true,
		viewport:       viewport.New(0, 0),
		loadingSpinner: s,
		keys:           keys,
		help:           help.New(),
	}
}

type gotSummaryMsg summary
type errMsg error
type tickMsg struct{}

func (m model) Init() tea.Cmd {
	return m.requestSummary()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height
		m.help.Width = msg.Width
		if !m.loading && m.err == nil {
			m.render()
		}
		return m, nil

	case gotSummaryMsg:
		m.summary = summary(msg)
		m.loading = false
		m.err = nil
		m.render()
		return m, nil

	case tickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.loadingSpinner, cmd = m.loadingSpinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			m.err = nil
			return m, m.requestSummary()

		case key.Matches(msg, m.keys.Up):
			m.viewport.LineUp(1)

		case key.Matches(msg, m.keys.Down):
			m.viewport.LineDown(1)
		}
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)

	var cmd tea.Cmd
	if m.loading {
		m.loadingSpinner, cmd = m.loadingSpinner.Update(msg)
		return m, tea.Batch(cmd, vpCmd)
	}
	return m, vpCmd
}

func (m *model) render() {
	md := renderMarkdown(m.summary)
	if m.width > 4 {
		md = wordwrap.String(md, m.width-4)
	}

	out, err := glamour.Render(indent.String(md, 2), "dark")
	if err != nil {
		m.err = err
		return
	}
	m.viewport.SetContent(out)
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress r to retry or q to quit.\n", m.err)
	}

	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			AlignVertical(lipgloss.Center).
			Align(lipgloss.Center).
			Render(
				lipgloss.JoinHorizontal(lipgloss.Center,
					m.loadingSpinner.View(),
					"Loading today's meals",
				),
			)
	}

	helpView := lipgloss.NewStyle().PaddingLeft(2).MarginTop(1).Render(m.help.View(m.keys))
	contentHeight := m.height - lipgloss.Height(helpView)
	if contentHeight < 0 {
		contentHeight = 0
	}
	m.viewport.Height = contentHeight

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), helpView)
}

func (m model) requestSummary() tea.Cmd {
	return tea.Batch(
		m.loadingSpinner.Tick,
		getSummaryCmd(m.api),
		tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
			return tickMsg{}
		}),
	)
}

func getSummaryCmd(api *client) tea.Cmd {
	return func() tea.Msg {
		s, err := api.today(context.Background())
		if err != nil {
			return errMsg(err)
		}
		return gotSummaryMsg(s)
	}
}

func main() {
	api := newClient("")
	p := tea.NewProgram(initialModel(api), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
