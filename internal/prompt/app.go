package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/segment"
	"github.com/muurk/mfaentry/internal/ui"
	"github.com/muurk/mfaentry/internal/verify"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenEntry     Screen = "entry"
	ScreenVerifying Screen = "verifying"
	ScreenSuccess   Screen = "success"
	ScreenFailure   Screen = "failure"
)

const (
	// DefaultTimeout bounds a single verification, retries included
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the number of codes accepted before giving up
	DefaultMaxAttempts = 3
)

// errCanceled is reported when the user leaves the prompt
var errCanceled = errors.New("verification canceled")

// submitMsg asks the entry screen to verify the current code
type submitMsg struct{}

// verifyResultMsg reports the outcome of a verification started by startVerify
type verifyResultMsg struct {
	attempt int
	err     error
	elapsed time.Duration
}

// Options configures the prompt
type Options struct {
	Length      int           // Number of digit cells; 0 means segment.DefaultLength
	AutoSubmit  bool          // Verify as soon as every cell is filled
	AutoFocus   bool          // Focus the first cell on start
	MaxAttempts int           // Rejected codes before the failure screen; 0 means DefaultMaxAttempts
	Timeout     time.Duration // Per-verification timeout; 0 means DefaultTimeout
	Initial     string        // Code to prefill; non-digits are dropped

	// Header content
	Title   string
	Command string
	Params  []ui.Detail
}

// AppModel is the top-level model for the code prompt
type AppModel struct {
	// Current screen state
	CurrentScreen Screen

	// Code is the authoritative code string; Input only displays it
	Code  string
	Input ui.CodeInput

	Verifier    verify.Verifier
	AutoSubmit  bool
	Attempts    int
	MaxAttempts int
	Timeout     time.Duration

	// Outcome
	LastError error
	Elapsed   time.Duration
	Canceled  bool

	// UI state
	Width   int
	Height  int
	Header  *ui.Header
	Spinner spinner.Model

	// Help
	Help          help.Model
	EntryKeys     entryKeyMap
	VerifyingKeys verifyingKeyMap
	FailureKeys   failureKeyMap

	cancel context.CancelFunc
}

// NewAppModel creates the prompt for verifier
func NewAppModel(verifier verify.Verifier, opts Options) (AppModel, error) {
	if verifier == nil {
		return AppModel{}, errors.New("prompt: verifier is required")
	}

	length := opts.Length
	if length == 0 {
		length = segment.DefaultLength
	}
	if err := verify.ValidateCodeLength(length); err != nil {
		return AppModel{}, err
	}

	input, err := ui.NewCodeInput(length)
	if err != nil {
		return AppModel{}, fmt.Errorf("failed to create code input: %w", err)
	}
	input.SetAutoFocus(opts.AutoFocus)

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	title := opts.Title
	if title == "" {
		title = "MFA Verification"
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	m := AppModel{
		CurrentScreen: ScreenEntry,
		Input:         input,
		Verifier:      verifier,
		AutoSubmit:    opts.AutoSubmit,
		MaxAttempts:   maxAttempts,
		Timeout:       timeout,
		Width:         ui.GetTerminalWidth(),
		Header:        ui.NewHeader(title, opts.Command, opts.Params...),
		Spinner:       s,
		Help:          help.New(),
		EntryKeys:     newEntryKeyMap(),
		VerifyingKeys: newVerifyingKeyMap(),
		FailureKeys:   newFailureKeyMap(),
	}
	m.setCode(segment.Distribute(opts.Initial, length))
	m.layout()

	return m, nil
}

// Init focuses the first cell and, when a complete code was prefilled with
// auto-submit on, starts verifying it
func (m AppModel) Init() tea.Cmd {
	cmd := m.Input.Init()
	if m.AutoSubmit && len(m.Code) == m.Input.Length() {
		return tea.Batch(cmd, func() tea.Msg { return submitMsg{} })
	}
	return cmd
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m.quitCanceled()
		}

	case submitMsg:
		if m.CurrentScreen == ScreenEntry && len(m.Code) == m.Input.Length() {
			return m.startVerify()
		}
		return m, nil

	case verifyResultMsg:
		return m.handleVerifyResult(msg)

	case spinner.TickMsg:
		if m.CurrentScreen != ScreenVerifying {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenEntry:
		return m.updateEntry(msg)
	case ScreenVerifying:
		return m.updateVerifying(msg)
	case ScreenFailure:
		return m.updateFailure(msg)
	}
	return m, nil
}

// updateEntry handles the entry screen. Keys the prompt doesn't claim go to
// the code input.
func (m AppModel) updateEntry(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !keyMsg.Paste {
		switch {
		case key.Matches(keyMsg, m.EntryKeys.Quit):
			return m.quitCanceled()

		case key.Matches(keyMsg, m.EntryKeys.Submit):
			if len(m.Code) < m.Input.Length() {
				m.Input.SetError(fmt.Sprintf("Enter all %d digits", m.Input.Length()))
				return m, nil
			}
			return m.startVerify()

		case key.Matches(keyMsg, m.EntryKeys.Clear):
			m.setCode("")
			m.Input.SetError("")
			m.Input.Focus(0)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)

	code, changed := m.Input.Changed()
	if !changed {
		return m, cmd
	}

	m.setCode(code)
	m.Input.SetError("")

	if m.AutoSubmit && len(code) == m.Input.Length() {
		next, vcmd := m.startVerify()
		return next, tea.Batch(cmd, vcmd)
	}
	return m, cmd
}

// updateVerifying blocks input while the verifier runs
func (m AppModel) updateVerifying(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.VerifyingKeys.Cancel) {
		return m.quitCanceled()
	}
	return m, nil
}

// updateFailure handles user input on the failure screen
func (m AppModel) updateFailure(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.FailureKeys.Retry):
		m.Attempts = 0
		m.LastError = nil
		return m.backToEntry("")

	case key.Matches(keyMsg, m.FailureKeys.Quit):
		return m, tea.Quit
	}

	return m, nil
}

// startVerify disables input and runs the verifier in the background
func (m AppModel) startVerify() (tea.Model, tea.Cmd) {
	m.Attempts++
	m.CurrentScreen = ScreenVerifying
	m.Input.SetDisabled(true)

	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	m.cancel = cancel

	logging.Info("verification started",
		zap.Int("attempt", m.Attempts),
		zap.Int("max_attempts", m.MaxAttempts),
		zap.Int("length", len(m.Code)),
	)

	return m, tea.Batch(m.Spinner.Tick, verifyCmd(ctx, cancel, m.Verifier, m.Code, m.Attempts))
}

// verifyCmd runs verifier and reports back with a verifyResultMsg
func verifyCmd(ctx context.Context, cancel context.CancelFunc, verifier verify.Verifier, code string, attempt int) tea.Cmd {
	return func() tea.Msg {
		defer cancel()
		start := time.Now()
		err := verifier.Verify(ctx, code)
		return verifyResultMsg{attempt: attempt, err: err, elapsed: time.Since(start)}
	}
}

// handleVerifyResult moves to the next screen after a verification
func (m AppModel) handleVerifyResult(msg verifyResultMsg) (tea.Model, tea.Cmd) {
	if m.Canceled || m.CurrentScreen != ScreenVerifying || msg.attempt != m.Attempts {
		// Stale result from a canceled attempt
		return m, nil
	}
	m.cancel = nil
	m.Elapsed = msg.elapsed

	if msg.err == nil {
		logging.Info("verification succeeded",
			zap.Int("attempt", msg.attempt),
			zap.Duration("elapsed", msg.elapsed),
		)
		m.CurrentScreen = ScreenSuccess
		m.LastError = nil
		m.Input.Blur()
		return m, tea.Quit
	}

	m.LastError = msg.err
	logging.Warn("verification failed",
		zap.Int("attempt", msg.attempt),
		zap.Duration("elapsed", msg.elapsed),
		zap.Error(msg.err),
	)

	if !verify.IsRecoverable(msg.err) || m.Attempts >= m.MaxAttempts {
		m.CurrentScreen = ScreenFailure
		m.Input.Blur()
		m.FailureKeys.Retry.SetEnabled(verify.IsRecoverable(msg.err))
		return m, nil
	}

	return m.backToEntry(verify.UserMessage(msg.err))
}

// backToEntry clears the code, shows errMsg and refocuses the first cell
func (m AppModel) backToEntry(errMsg string) (tea.Model, tea.Cmd) {
	m.CurrentScreen = ScreenEntry
	m.Input.SetDisabled(false)
	m.setCode("")
	m.Input.SetError(errMsg)
	m.Input.Focus(0)
	return m, nil
}

// quitCanceled stops any running verification and exits
func (m AppModel) quitCanceled() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.Canceled = true
	m.LastError = errCanceled
	logging.Info("prompt canceled", zap.Int("attempts", m.Attempts))
	return m, tea.Quit
}

// setCode stores code and hands it back to the input
func (m *AppModel) setCode(code string) {
	m.Code = code
	m.Input.SetValue(code)
}

// layout updates widths and the input's screen origin for mouse hit-testing
func (m *AppModel) layout() {
	m.Header.SetWidth(m.Width)
	m.Help.Width = m.Width
	// Header, blank line, instruction line, blank line, then the cells
	m.Input.OriginY = lipgloss.Height(m.Header.Render()) + 3
	m.Input.OriginX = 0
}

// Succeeded reports whether the code was accepted
func (m AppModel) Succeeded() bool {
	return m.CurrentScreen == ScreenSuccess
}

// Err returns the last verification error, errCanceled if the user quit, or
// nil after success
func (m AppModel) Err() error {
	return m.LastError
}

// Result builds the result box printed after the program exits
func (m AppModel) Result() *ui.Result {
	switch {
	case m.Succeeded():
		return ui.NewSuccessResult("Code verified",
			ui.Detail{Key: "Attempts", Value: strconv.Itoa(m.Attempts)},
			ui.Detail{Key: "Elapsed", Value: m.Elapsed.Round(time.Millisecond).String()},
		).SetWidth(m.Width)
	case m.Canceled:
		return ui.NewWarningResult("Verification canceled",
			ui.Detail{Key: "Attempts", Value: strconv.Itoa(m.Attempts)},
		).SetWidth(m.Width)
	default:
		return ui.NewFailureResult("Verification failed", m.LastError, verify.Troubleshooting(m.LastError)).
			SetWidth(m.Width)
	}
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenEntry, ScreenVerifying:
		return m.renderEntryScreen()
	case ScreenSuccess:
		return ui.SuccessTitleStyle.Render(ui.SuccessMarker+" Code verified") + "\n"
	case ScreenFailure:
		return m.renderFailureScreen()
	default:
		return "Unknown screen"
	}
}

// renderEntryScreen renders the cells with a status line and help.
// The line layout must match layout().
func (m AppModel) renderEntryScreen() string {
	var b strings.Builder

	b.WriteString(m.Header.Render())
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Enter the %d-digit code from your authenticator app", m.Input.Length()))
	b.WriteString("\n\n")
	b.WriteString(m.Input.View())
	b.WriteString("\n\n")

	if m.CurrentScreen == ScreenVerifying {
		b.WriteString(m.Spinner.View() + " " + ui.HintStyle.Render("Verifying..."))
		b.WriteString("\n\n")
		b.WriteString(m.Help.View(m.VerifyingKeys))
	} else {
		if m.Attempts > 0 {
			left := m.MaxAttempts - m.Attempts
			b.WriteString(ui.HintStyle.Render(fmt.Sprintf("%d of %d attempts left", left, m.MaxAttempts)))
			b.WriteString("\n\n")
		}
		b.WriteString(m.Help.View(m.EntryKeys))
	}
	b.WriteString("\n")

	return b.String()
}

// renderFailureScreen renders the failure result with troubleshooting tips
func (m AppModel) renderFailureScreen() string {
	var b strings.Builder

	b.WriteString(m.Header.Render())
	b.WriteString("\n\n")
	b.WriteString(m.Result().Render())
	b.WriteString("\n\n")
	b.WriteString(m.Help.View(m.FailureKeys))
	b.WriteString("\n")

	return b.String()
}
