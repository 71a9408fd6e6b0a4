package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	struai "github.com/struai/struai-go"
)

const pollInterval = 2 * time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the job status
type tickMsg time.Time

// jobUpdateMsg carries the updated job status
type jobUpdateMsg struct {
	status *struai.JobStatus
	err    error
}

// progressModel is the bubbletea model for job progress.
type progressModel struct {
	job      *struai.Job
	status   *struai.JobStatus
	progress progress.Model
	theme    Theme
	started  time.Time
	deadline time.Time
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(job *struai.Job, opts struai.WaitOptions) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	now := time.Now()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return progressModel{
		job:      job,
		progress: prog,
		theme:    defaultTheme,
		started:  now,
		deadline: now.Add(timeout),
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		if time.Now().After(m.deadline) {
			m.err = &struai.JobTimeoutError{JobID: m.job.ID, Timeout: m.deadline.Sub(m.started)}
			m.done = true
			return m, tea.Quit
		}
		return m, m.fetchStatus()

	case jobUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("fetch job status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.status = msg.status

		if m.status.IsComplete() {
			m.done = true
			return m, tea.Quit
		}
		if m.status.IsFailed() {
			m.done = true
			reason := "Unknown error"
			if m.status.Error != nil && *m.status.Error != "" {
				reason = *m.status.Error
			}
			m.err = &struai.JobFailedError{JobID: m.job.ID, Reason: reason}
			return m, tea.Quit
		}

		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	state := "submitting"
	if m.status != nil {
		state = string(m.status.Status)
	}
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", state))
	elapsed := time.Since(m.started).Round(time.Second)

	// The bar tracks the wait budget, not job progress; the server does
	// not report per-job progress counts.
	pct := float64(time.Since(m.started)) / float64(m.deadline.Sub(m.started))
	bar := m.progress.ViewAs(min(pct, 1))

	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s job %s  %s\n%s\n", status, bar, m.job.ID, elapsed, hint)
}

func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nJob %s continues in background.\nUse 'struai jobs %s' to check status.\n",
			m.job.ID, m.job.ID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Job failed: %s\n", m.err))
	}

	return m.theme.completedStyle().Render("✓ Completed\n")
}

// fetchStatus fetches the current job status from the server.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m progressModel) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status, err := m.job.Status(ctx)
		return jobUpdateMsg{status: status, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runJobProgress runs the interactive progress UI for a job and returns
// the sheet result on completion. Ctrl+C leaves the job running in the
// background and returns a nil result without error.
func runJobProgress(job *struai.Job, opts struai.WaitOptions) (*struai.SheetResult, error) {
	model := newProgressModel(job, opts)
	prog := tea.NewProgram(model)

	finalModel, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(progressModel)
	if !ok {
		return nil, fmt.Errorf("unexpected progress model type")
	}
	if m.quitting {
		return nil, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.status != nil && m.status.Result != nil {
		return m.status.Result, nil
	}
	return &struai.SheetResult{}, nil
}
