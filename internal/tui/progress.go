package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// Step is one progress report: Current of Total units done, the last of
// which was Label.
type Step struct {
	Current int
	Total   int
	Label   string
	Failed  bool
}

// stepMsg carries a Step into the model; a closed channel becomes done.
type stepMsg struct {
	step Step
	done bool
}

// tickMsg is sent periodically to refresh the UI
type tickMsg time.Time

// progressModel is the Bubble Tea model for showing progress
type progressModel struct {
	progress  progress.Model
	title     string
	last      Step
	failed    int
	recent    []string
	done      bool
	cancelled bool
	steps     <-chan Step
}

const recentLines = 5

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForStep(m.steps))
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForStep(ch <-chan Step) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		return stepMsg{step: s, done: !ok}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, tea.Quit
		}
		return m, tickCmd()

	case stepMsg:
		if msg.done {
			m.done = true
			return m, tea.Quit
		}
		m.last = msg.step
		if msg.step.Label != "" {
			line := StyleOK.Render("✓ ") + msg.step.Label
			if msg.step.Failed {
				m.failed++
				line = StyleFail.Render("✗ ") + msg.step.Label
			}
			m.recent = append(m.recent, line)
			if len(m.recent) > recentLines {
				m.recent = m.recent[1:]
			}
		}
		return m, waitForStep(m.steps)

	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-20, 80)
		return m, nil
	}

	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	percent := 0.0
	if m.last.Total > 0 {
		percent = float64(m.last.Current) / float64(m.last.Total)
	}

	var b strings.Builder
	b.WriteString(StyleHeader.Render(m.title) + "\n")
	b.WriteString(m.progress.ViewAs(percent) + "\n")
	b.WriteString(StyleHelp.Render(fmt.Sprintf("%d / %d, %d failed", m.last.Current, m.last.Total, m.failed)) + "\n\n")
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}
	return b.String()
}

// ShowProgress displays a progress bar fed by steps until the channel is
// closed. Returns an error if cancelled by the user (Ctrl+C); the producer
// keeps running and should be stopped by the caller.
func ShowProgress(title string, steps <-chan Step) error {
	m := progressModel{
		progress: progress.New(progress.WithDefaultGradient()),
		title:    title,
		steps:    steps,
	}

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := finalModel.(progressModel); ok && fm.cancelled {
		return fmt.Errorf("cancelled by user")
	}
	return nil
}
