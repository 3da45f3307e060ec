// ABOUTME: Yes/no confirmation for re-exporting data that already exists today
// ABOUTME: Bubbletea dialog on a terminal, a plain line prompt otherwise
package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/harperreed/heyreport/collector"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("11")).
			Padding(1, 2).
			Width(64).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("10")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func renderConfirmBox(prompt string) string {
	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Export again (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		warningStyle.Render("⚠  ALREADY EXPORTED TODAY  ⚠"),
		"",
		prompt,
		"",
		buttons,
	)
	return confirmBoxStyle.Render(content)
}

// confirmKey maps a key to an answer. ok is false for keys that do not answer.
func confirmKey(msg tea.KeyMsg) (answer, ok bool) {
	switch msg.String() {
	case "y", "Y":
		return true, true
	case "n", "N", "esc", "q", "ctrl+c":
		return false, true
	}
	return false, false
}

// ConfirmModel is a standalone yes/no dialog.
type ConfirmModel struct {
	prompt   string
	answer   bool
	answered bool
	width    int
	height   int
}

// NewConfirmModel creates a dialog asking prompt.
func NewConfirmModel(prompt string) ConfirmModel {
	return ConfirmModel{prompt: prompt}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if answer, ok := confirmKey(msg); ok {
			m.answer = answer
			m.answered = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.answered {
		return ""
	}
	box := renderConfirmBox(m.prompt)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Answer is true only if the user chose yes.
func (m ConfirmModel) Answer() bool {
	return m.answered && m.answer
}

// DialogConfirmer shows a ConfirmModel for every question.
type DialogConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c *DialogConfirmer) Confirm(prompt string) (bool, error) {
	final, err := tea.NewProgram(NewConfirmModel(prompt), tea.WithInput(c.In), tea.WithOutput(c.Out)).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation dialog failed: %w", err)
	}
	m, ok := final.(ConfirmModel)
	return ok && m.Answer(), nil
}

// LineConfirmer asks on one line and reads a y/N answer.
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c *LineConfirmer) Confirm(prompt string) (bool, error) {
	_, _ = fmt.Fprintf(c.Out, "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Auto answers every question the same way, for --yes and non-interactive callers.
type Auto bool

func (a Auto) Confirm(string) (bool, error) {
	return bool(a), nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// NewConfirmer picks the dialog on a terminal and the line prompt otherwise.
func NewConfirmer(in, out *os.File) collector.Confirmer {
	if IsTerminal(in) && IsTerminal(out) {
		return &DialogConfirmer{In: in, Out: out}
	}
	return &LineConfirmer{In: in, Out: out}
}
