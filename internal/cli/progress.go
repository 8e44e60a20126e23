package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgressSpinner shows transient activity while a command blocks on the
// Google APIs. When color is disabled or the process runs under CI it
// degrades to a single printed line, so log capture stays clean.
type ProgressSpinner struct {
	message string
	plain   bool
	done    chan struct{}
}

// NewProgressSpinner returns a spinner for message. plain forces the
// non-animated fallback; CI environments get it regardless.
func NewProgressSpinner(message string, plain bool) *ProgressSpinner {
	return &ProgressSpinner{
		message: message,
		plain:   plain || os.Getenv("CI") != "",
		done:    make(chan struct{}),
	}
}

// Start renders the spinner until Stop is called. In plain mode it prints
// the message once and returns immediately.
func (p *ProgressSpinner) Start() {
	if p.plain {
		fmt.Printf("%s...\n", p.message)
		return
	}

	model := activityModel{
		frames: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("12"))),
		),
		label:      p.message,
		labelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		done:       p.done,
	}

	go func() {
		_, _ = tea.NewProgram(model).Run()
	}()

	// Let the program take over the terminal before the caller proceeds.
	time.Sleep(50 * time.Millisecond)
}

// Stop ends the animation. Safe to call in plain mode, where Start never
// launched a program.
func (p *ProgressSpinner) Stop() {
	if p.plain {
		return
	}
	close(p.done)
	time.Sleep(50 * time.Millisecond)
}

// activityModel is the bubbletea model behind the animated spinner. It quits
// on the done signal or any keypress.
type activityModel struct {
	frames     spinner.Model
	label      string
	labelStyle lipgloss.Style
	done       chan struct{}
}

type stopMsg struct{}

func awaitStop(done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return stopMsg{}
	}
}

func (m activityModel) Init() tea.Cmd {
	return tea.Batch(m.frames.Tick, awaitStop(m.done))
}

func (m activityModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, tea.Quit
	case stopMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.frames, cmd = m.frames.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m activityModel) View() string {
	return m.frames.View() + " " + m.labelStyle.Render(m.label)
}
