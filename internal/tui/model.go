package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"
)

// refreshInterval is how often the model re-reads the display. It is well
// below one animation frame (800ms / 20 steps).
const refreshInterval = 20 * time.Millisecond

const labelWidth = 16

// refreshMsg asks the model to re-read the display.
type refreshMsg time.Time

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Model is the bubbletea model of the terminal widget.
//
// Terminal focus stands in for page visibility: a blur reports hidden and a
// focus reports visible through the callback given to [NewModel].
type Model struct {
	display      *Display
	onVisibility func(visible bool)
	title        string
	spinner      spinner.Model
	styles       styles
	rows         []Row
	focused      bool
	quitting     bool
}

// NewModel creates a Model reading d. onVisibility may be nil.
func NewModel(d *Display, title string, onVisibility func(visible bool)) Model {
	st := defaultStyles()
	sp := spinner.New(
		spinner.WithSpinner(spinner.Points),
		spinner.WithStyle(st.Live),
	)
	if title == "" {
		title = "Course Statistics"
	}
	return Model{
		display:      d,
		onVisibility: onVisibility,
		title:        title,
		spinner:      sp,
		styles:       st,
		rows:         d.Rows(),
		focused:      true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refresh())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.FocusMsg:
		m.setFocus(true)
		return m, nil

	case tea.BlurMsg:
		m.setFocus(false)
		return m, nil

	case refreshMsg:
		if m.display.Removed() {
			m.quitting = true
			return m, tea.Quit
		}
		m.rows = m.display.Rows()
		return m, refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) setFocus(focused bool) {
	if m.focused == focused {
		return
	}
	m.focused = focused
	if m.onVisibility != nil {
		m.onVisibility(focused)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	live := m.styles.Live.Render("LIVE")
	if m.focused {
		live = m.spinner.View() + " " + live
	} else {
		live = m.styles.Label.Render("paused")
	}
	b.WriteString(live + "  " + m.styles.Title.Render(m.title) + "\n")

	dividerDone := false
	for _, r := range m.rows {
		if r.Field.IsSource() && !dividerDone {
			b.WriteString(m.styles.Divider.Render(strings.Repeat("┈", labelWidth+8)) + "\n")
			dividerDone = true
		}

		value := m.styles.Value.Render(r.Text)
		if r.Highlighted {
			value = m.styles.Highlighted.Render(r.Text)
		}
		label := m.styles.Label.Width(labelWidth).Render(r.Label)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, value) + "\n")
	}

	return m.styles.Box.Render(strings.TrimSuffix(b.String(), "\n")) + "\n" +
		m.styles.Help.Render("q: quit") + "\n"
}

// Run shows the widget until the user quits, the counter removes it, or ctx
// is cancelled. Terminal focus reporting is enabled so onVisibility sees
// focus changes.
func Run(ctx context.Context, d *Display, title string, onVisibility func(visible bool), opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithReportFocus(),
	}, opts...)

	p := tea.NewProgram(NewModel(d, title, onVisibility), opts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal widget: %w", err)
	}
	return nil
}
