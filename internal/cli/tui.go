package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spotlight/pkg/campaign"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/ring"
)

// Stage styles
var (
	stageStatusStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	stageWinnerStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	stageSpotlightStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	stageActiveStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	stageOutStyle       = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
	stageHelpStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// defaultStageRows bounds the table when the terminal size is unknown.
const defaultStageRows = 16

// =============================================================================
// DrawModel - Terminal rendering of a live draw
// =============================================================================

// stateMsg carries a sequencer event and the state right after it.
type stateMsg struct {
	Event draw.Event
	State draw.State
}

// campaignMsg carries simulated campaign progress before the draw starts.
type campaignMsg struct {
	Progress campaign.Progress
	Feed     []campaign.Entry
}

// errMsg reports a failed Start or Dismiss.
type errMsg struct{ err error }

// DrawModel is the bubbletea model showing a draw as a table of
// participants, with the spotlight, eliminations and the winner marked.
type DrawModel struct {
	Participants []draw.Participant
	Layout       ring.Layout
	State        draw.State

	// Progress is set while a campaign fills ahead of the draw.
	Progress *campaign.Progress
	Feed     []campaign.Entry

	// Start and Dismiss drive the underlying sequencer. They run as
	// commands, off the program's event loop.
	Start   func() error
	Dismiss func() error

	Err     error
	Aborted bool
	Height  int
}

// NewDrawModel creates a model for participants placed by layout.
func NewDrawModel(ps []draw.Participant, l ring.Layout) DrawModel {
	return DrawModel{
		Participants: ps,
		Layout:       l,
		State:        draw.State{Spotlight: -1},
		Height:       defaultStageRows,
	}
}

func (m DrawModel) Init() tea.Cmd {
	return run(m.Start)
}

// run wraps fn in a command reporting only failures.
func run(fn func() error) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m DrawModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.Err = msg.err
		return m, tea.Quit
	case campaignMsg:
		p := msg.Progress
		m.Progress = &p
		m.Feed = msg.Feed
	case stateMsg:
		m.State = msg.State
		if msg.Event.Kind == draw.EventClosed {
			return m, tea.Quit
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = !m.State.Closed
			return m, tea.Quit
		case "enter", " ":
			if m.State.Announced && !m.State.Closed {
				return m, run(m.Dismiss)
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m DrawModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Spotlight"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d participants · %d rings", len(m.Participants), len(m.Layout.RingSizes()))))
	b.WriteString("\n\n")

	if m.Progress != nil && m.State.Phase == draw.PhaseIdle {
		b.WriteString(m.campaignView())
		b.WriteString(stageHelpStyle.Render("q quit"))
		return b.String()
	}

	status := m.State.Status
	if status == "" {
		status = "Waiting to start..."
	}
	if m.State.WinnerID != "" {
		b.WriteString(stageWinnerStyle.Render(status))
	} else {
		b.WriteString(stageStatusStyle.Render(status))
	}
	b.WriteString("\n\n")

	if len(m.Participants) > 0 {
		b.WriteString(m.table())
		b.WriteString("\n")
	}

	remaining := len(m.Participants) - len(m.State.Eliminated)
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s · %d remaining", m.State.Phase, remaining)))
	b.WriteString("\n")
	if m.State.Announced && !m.State.Closed {
		b.WriteString(stageHelpStyle.Render("⏎ dismiss  q quit"))
	} else {
		b.WriteString(stageHelpStyle.Render("q quit"))
	}
	return b.String()
}

// campaignBarWidth is the width of the progress bar in cells.
const campaignBarWidth = 40

// campaignView renders the progress bar and the latest sign-ups.
func (m DrawModel) campaignView() string {
	var b strings.Builder
	filled := int(float64(*m.Progress) / 100 * campaignBarWidth)
	bar := stageWinnerStyle.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", campaignBarWidth-filled))
	b.WriteString(stageStatusStyle.Render("Campaign progress"))
	b.WriteString("\n\n")
	b.WriteString(bar + " " + StyleValue.Render(m.Progress.String()))
	b.WriteString("\n\n")
	for _, e := range m.Feed {
		b.WriteString(StyleDim.Render("  + ") + stageActiveStyle.Render(e.Participant.Name) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// table renders a window of participants that keeps the spotlight or the
// winner in view.
func (m DrawModel) table() string {
	focus := max(m.State.Spotlight, 0)
	offset := max(min(focus-m.Height/2, len(m.Participants)-m.Height), 0)
	end := min(offset+m.Height, len(m.Participants))

	rows := make([][]string, 0, end-offset)
	for i := offset; i < end; i++ {
		p := m.Participants[i]
		ringIdx := ""
		if i < len(m.Layout.Rings) {
			ringIdx = strconv.Itoa(m.Layout.Rings[i] + 1)
		}
		rows = append(rows, []string{m.marker(i), strconv.Itoa(i + 1), p.Name, ringIdx})
	}

	t := newTable("", "#", "Participant", "Ring").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			return m.rowStyle(offset + row).Padding(0, 1)
		})

	out := t.Render()
	if hidden := len(m.Participants) - (end - offset); hidden > 0 {
		out += "\n" + StyleDim.Render(fmt.Sprintf("  … %d more", hidden))
	}
	return out
}

func (m DrawModel) marker(i int) string {
	id := m.Participants[i].ID
	switch {
	case id == m.State.WinnerID:
		return "★"
	case i == m.State.Spotlight && !m.State.Closed:
		return "▸"
	case m.State.IsEliminated(id):
		return "✗"
	}
	return ""
}

func (m DrawModel) rowStyle(i int) lipgloss.Style {
	if i < 0 || i >= len(m.Participants) {
		return lipgloss.NewStyle()
	}
	id := m.Participants[i].ID
	switch {
	case id == m.State.WinnerID:
		return stageWinnerStyle
	case m.State.IsEliminated(id):
		return stageOutStyle
	case i == m.State.Spotlight:
		return stageSpotlightStyle
	}
	return stageActiveStyle
}

// Winner returns the winning participant, if revealed.
func (m DrawModel) Winner() (draw.Participant, bool) {
	for _, p := range m.Participants {
		if p.ID == m.State.WinnerID && p.ID != "" {
			return p, true
		}
	}
	return draw.Participant{}, false
}
