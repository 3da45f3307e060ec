// ABOUTME: Live progress for a collection run
// ABOUTME: Spinner view on a terminal, plain "Processed i of N reports" lines otherwise
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/heyreport/collector"
)

// ErrInterrupted is returned when the user quits the progress view early.
var ErrInterrupted = errors.New("interrupted")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	countStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)

const recentActivity = 5

type discoveredMsg struct {
	lists      int
	broadcasts int
}

type progressMsg collector.Progress

type confirmRequest struct {
	prompt string
	reply  chan bool
}

type doneMsg struct{}

// ProgressModel renders the run as it happens.
type ProgressModel struct {
	spinner    spinner.Model
	lists      int
	total      int
	done       int
	rows       int
	skipped    int
	failed     int
	discovered bool
	messages   []string
	confirm    *confirmRequest
	finished   bool
	aborted    bool
	now        func() time.Time
}

// NewProgressModel creates an empty progress view.
func NewProgressModel() ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return ProgressModel{spinner: s, now: time.Now}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirm != nil {
			if answer, ok := confirmKey(msg); ok {
				m.confirm.reply <- answer
				m.confirm = nil
				if answer {
					m.addMessage("Exporting again")
				} else {
					m.addMessage("Export cancelled")
				}
			}
			return m, nil
		}
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.aborted = true
			return m, tea.Quit
		}

	case discoveredMsg:
		m.discovered = true
		m.lists = msg.lists
		m.total = msg.broadcasts
		m.addMessage(fmt.Sprintf("Found %d lists, %d broadcasts", msg.lists, msg.broadcasts))

	case progressMsg:
		m.applyProgress(collector.Progress(msg))

	case confirmRequest:
		m.confirm = &msg

	case doneMsg:
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) applyProgress(p collector.Progress) {
	switch {
	case p.Skipped:
		m.skipped++
		m.addMessage(fmt.Sprintf("Skipped broadcast %s, already processed", p.BroadcastID))
	case p.Err != nil:
		m.failed++
		m.addMessage(fmt.Sprintf("✗ Broadcast %s failed: %v", p.BroadcastID, p.Err))
	default:
		m.done = p.Done
		m.rows += p.Rows
		m.addMessage(fmt.Sprintf("✓ %s broadcast %s: %d contacts", p.Brand, p.BroadcastID, p.Rows))
	}
	if p.Total > 0 {
		m.total = p.Total
	}
}

func (m *ProgressModel) addMessage(msg string) {
	timestamp := m.now().Format("15:04:05")
	m.messages = append(m.messages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

func (m ProgressModel) View() string {
	if m.confirm != nil {
		return renderConfirmBox(m.confirm.prompt) + "\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Heymarket Broadcast Export"))
	s.WriteString("\n\n")

	switch {
	case m.finished:
		s.WriteString(okStyle.Render("✓ Collection finished"))
	case !m.discovered:
		s.WriteString(m.spinner.View() + " Fetching lists...")
	default:
		s.WriteString(m.spinner.View() + " " + countStyle.Render(fmt.Sprintf("Processed %d of %d reports", m.done, m.total)))
	}
	s.WriteString("\n")

	s.WriteString(messageStyle.Render(fmt.Sprintf("  %d rows • %d skipped • ", m.rows, m.skipped)))
	if m.failed > 0 {
		s.WriteString(errorStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	} else {
		s.WriteString(messageStyle.Render("0 failed"))
	}
	s.WriteString("\n\n")

	start := 0
	if len(m.messages) > recentActivity {
		start = len(m.messages) - recentActivity
	}
	for _, line := range m.messages[start:] {
		s.WriteString(messageStyle.Render("  " + line))
		s.WriteString("\n")
	}

	if !m.finished {
		s.WriteString(helpStyle.Render("q: Quit"))
		s.WriteString("\n")
	}
	return s.String()
}

// ProgressView feeds a running program. It is both the run's Observer and
// its Confirmer, so a same-day prompt appears inside the view.
type ProgressView struct {
	program *tea.Program
	done    chan struct{}
}

func (v *ProgressView) Discovered(lists, broadcasts int) {
	v.program.Send(discoveredMsg{lists: lists, broadcasts: broadcasts})
}

func (v *ProgressView) BroadcastFinished(p collector.Progress) {
	v.program.Send(progressMsg(p))
}

func (v *ProgressView) Confirm(prompt string) (bool, error) {
	req := confirmRequest{prompt: prompt, reply: make(chan bool, 1)}
	v.program.Send(req)
	select {
	case answer := <-req.reply:
		return answer, nil
	case <-v.done:
		return false, ErrInterrupted
	}
}

// RunProgress runs work while the spinner view owns the terminal. Quitting
// the view cancels work's context and waits for it to return.
func RunProgress(ctx context.Context, in io.Reader, out io.Writer, work func(ctx context.Context, view *ProgressView) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewProgressModel(), tea.WithInput(in), tea.WithOutput(out), tea.WithContext(ctx))
	view := &ProgressView{program: program, done: make(chan struct{})}

	errc := make(chan error, 1)
	go func() {
		err := work(ctx, view)
		errc <- err
		program.Send(doneMsg{})
	}()

	final, runErr := program.Run()
	close(view.done)

	if m, ok := final.(ProgressModel); ok && m.aborted {
		cancel()
		<-errc
		return ErrInterrupted
	}

	workErr := <-errc
	if workErr != nil {
		return workErr
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("progress view failed: %w", runErr)
	}
	return nil
}

// LineObserver prints one line per event, for pipes and --plain.
type LineObserver struct {
	mu  sync.Mutex
	Out io.Writer
}

func (o *LineObserver) Discovered(lists, broadcasts int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintf(o.Out, "  → Found %d lists, %d broadcasts\n", lists, broadcasts)
}

func (o *LineObserver) BroadcastFinished(p collector.Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case p.Skipped:
		_, _ = fmt.Fprintf(o.Out, "  → Skipping broadcast %s, already processed\n", p.BroadcastID)
	case p.Err != nil:
		_, _ = fmt.Fprintf(o.Out, "  ✗ Error fetching report for broadcast %s: %v\n", p.BroadcastID, p.Err)
	default:
		_, _ = fmt.Fprintf(o.Out, "  → Processed %d of %d reports\n", p.Done, p.Total)
	}
}
