package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mfaentry/internal/ui"
	"github.com/muurk/mfaentry/internal/verify"
)

// recorder is a verifier that records codes and returns queued errors
type recorder struct {
	codes   []string
	results []error
}

func (r *recorder) Verify(ctx context.Context, code string) error {
	r.codes = append(r.codes, code)
	if len(r.results) == 0 {
		return nil
	}
	err := r.results[0]
	r.results = r.results[1:]
	return err
}

func newTestApp(t *testing.T, v verify.Verifier, opts Options) AppModel {
	t.Helper()
	if opts.Length == 0 {
		opts.Length = 6
	}
	opts.AutoFocus = true
	m, err := NewAppModel(v, opts)
	if err != nil {
		t.Fatalf("NewAppModel() error = %v", err)
	}
	m.Init()
	return m
}

func send(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func typeDigits(t *testing.T, m AppModel, digits string) (AppModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, r := range digits {
		m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m, cmd
}

// collect runs cmd and flattens batches into their messages
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func verifyResult(t *testing.T, cmd tea.Cmd) verifyResultMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if res, ok := msg.(verifyResultMsg); ok {
			return res
		}
	}
	t.Fatal("command did not produce a verification result")
	return verifyResultMsg{}
}

func isQuit(cmd tea.Cmd) bool {
	for _, msg := range collect(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}

func TestNewAppModel(t *testing.T) {
	m, err := NewAppModel(&recorder{}, Options{})
	if err != nil {
		t.Fatalf("NewAppModel() error = %v", err)
	}

	if m.CurrentScreen != ScreenEntry {
		t.Errorf("CurrentScreen = %v, want entry", m.CurrentScreen)
	}
	if m.Input.Length() != 6 {
		t.Errorf("Length = %d, want 6", m.Input.Length())
	}
	if m.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", m.MaxAttempts, DefaultMaxAttempts)
	}
	if m.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", m.Timeout, DefaultTimeout)
	}
}

func TestNewAppModel_Errors(t *testing.T) {
	if _, err := NewAppModel(nil, Options{}); err == nil {
		t.Error("NewAppModel(nil) should fail")
	}
	if _, err := NewAppModel(&recorder{}, Options{Length: 3}); !verify.IsValidationError(err) {
		t.Errorf("NewAppModel(Length: 3) error = %v, want validation error", err)
	}
}

func TestNewAppModel_Prefill(t *testing.T) {
	m, err := NewAppModel(&recorder{}, Options{Length: 6, Initial: "12-34"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Code != "1234" || m.Input.Value() != "1234" {
		t.Errorf("prefilled code = %q / %q, want 1234", m.Code, m.Input.Value())
	}
}

func TestAutoSubmitOnLastDigit(t *testing.T) {
	rec := &recorder{}
	m := newTestApp(t, rec, Options{AutoSubmit: true})

	m, _ = typeDigits(t, m, "12345")
	if m.CurrentScreen != ScreenEntry {
		t.Fatalf("screen after 5 digits = %v, want entry", m.CurrentScreen)
	}
	if m.Code != "12345" {
		t.Errorf("Code = %q, want 12345", m.Code)
	}

	m, cmd := typeDigits(t, m, "6")
	if m.CurrentScreen != ScreenVerifying {
		t.Fatalf("screen after 6 digits = %v, want verifying", m.CurrentScreen)
	}
	if !m.Input.Disabled() {
		t.Error("input should be disabled while verifying")
	}
	if m.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", m.Attempts)
	}

	m, cmd = send(t, m, verifyResult(t, cmd))

	if len(rec.codes) != 1 || rec.codes[0] != "123456" {
		t.Errorf("verifier received %v, want [123456]", rec.codes)
	}
	if !m.Succeeded() {
		t.Errorf("screen = %v, want success", m.CurrentScreen)
	}
	if !isQuit(cmd) {
		t.Error("success should quit the program")
	}
	if m.Err() != nil {
		t.Errorf("Err() = %v, want nil", m.Err())
	}
	if m.Result().Type != ui.ResultSuccess {
		t.Errorf("Result().Type = %v, want success", m.Result().Type)
	}
}

func TestManualSubmit(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{AutoSubmit: false})

	m, _ = typeDigits(t, m, "123456")
	if m.CurrentScreen != ScreenEntry {
		t.Fatalf("screen = %v, want entry without auto-submit", m.CurrentScreen)
	}

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.CurrentScreen != ScreenVerifying {
		t.Fatalf("screen after enter = %v, want verifying", m.CurrentScreen)
	}

	m, _ = send(t, m, verifyResult(t, cmd))
	if !m.Succeeded() {
		t.Errorf("screen = %v, want success", m.CurrentScreen)
	}
}

func TestSubmitIncompleteCode(t *testing.T) {
	rec := &recorder{}
	m := newTestApp(t, rec, Options{})

	m, _ = typeDigits(t, m, "12")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.CurrentScreen != ScreenEntry {
		t.Errorf("screen = %v, want entry", m.CurrentScreen)
	}
	if cmd != nil {
		t.Error("incomplete code should not start verification")
	}
	if m.Input.Err() != "Enter all 6 digits" {
		t.Errorf("Input.Err() = %q", m.Input.Err())
	}

	// The next edit clears the message
	m, _ = typeDigits(t, m, "3")
	if m.Input.Err() != "" {
		t.Errorf("error should clear on edit, got %q", m.Input.Err())
	}
}

func TestRejectedCodeClearsAndRefocuses(t *testing.T) {
	rec := &recorder{results: []error{verify.NewRejectedError("Invalid TOTP code")}}
	m := newTestApp(t, rec, Options{AutoSubmit: true})

	m, cmd := typeDigits(t, m, "000000")
	m, _ = send(t, m, verifyResult(t, cmd))

	if m.CurrentScreen != ScreenEntry {
		t.Fatalf("screen = %v, want entry", m.CurrentScreen)
	}
	if m.Code != "" || m.Input.Value() != "" {
		t.Errorf("code should be cleared, got %q / %q", m.Code, m.Input.Value())
	}
	if m.Input.Err() != "Invalid TOTP code" {
		t.Errorf("Input.Err() = %q, want Invalid TOTP code", m.Input.Err())
	}
	if m.Input.Focused() != 0 {
		t.Errorf("Focused() = %d, want 0", m.Input.Focused())
	}
	if m.Input.Disabled() {
		t.Error("input should be re-enabled")
	}
	for _, c := range m.Input.Cells() {
		if !c.HasError {
			t.Errorf("cell %d should show the error state", c.Index)
		}
	}
	if !strings.Contains(m.View(), "2 of 3 attempts left") {
		t.Error("entry view should show remaining attempts")
	}

	// Second code succeeds
	m, cmd = typeDigits(t, m, "123456")
	m, _ = send(t, m, verifyResult(t, cmd))
	if !m.Succeeded() {
		t.Errorf("screen = %v, want success", m.CurrentScreen)
	}
	if m.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", m.Attempts)
	}
}

func TestMaxAttemptsThenRetry(t *testing.T) {
	rejected := verify.NewRejectedError("Invalid TOTP code")
	rec := &recorder{results: []error{rejected, rejected}}
	m := newTestApp(t, rec, Options{AutoSubmit: true, MaxAttempts: 2})

	for i := 0; i < 2; i++ {
		var cmd tea.Cmd
		m, cmd = typeDigits(t, m, "111111")
		m, _ = send(t, m, verifyResult(t, cmd))
	}

	if m.CurrentScreen != ScreenFailure {
		t.Fatalf("screen = %v, want failure", m.CurrentScreen)
	}
	if !verify.IsRejected(m.Err()) {
		t.Errorf("Err() = %v, want rejected", m.Err())
	}
	if !strings.Contains(m.View(), "Troubleshooting") {
		t.Error("failure view should include troubleshooting tips")
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.CurrentScreen != ScreenEntry {
		t.Fatalf("screen after retry = %v, want entry", m.CurrentScreen)
	}
	if m.Attempts != 0 || m.Err() != nil {
		t.Errorf("retry should reset attempts and error, got %d / %v", m.Attempts, m.Err())
	}
	if m.Input.Focused() != 0 {
		t.Errorf("Focused() = %d, want 0", m.Input.Focused())
	}
}

func TestUnrecoverableErrorEndsPrompt(t *testing.T) {
	rec := &recorder{results: []error{verify.NewAuthError("Could not validate credentials")}}
	m := newTestApp(t, rec, Options{AutoSubmit: true, MaxAttempts: 5})

	m, cmd := typeDigits(t, m, "123456")
	m, _ = send(t, m, verifyResult(t, cmd))

	if m.CurrentScreen != ScreenFailure {
		t.Fatalf("screen = %v, want failure after one auth error", m.CurrentScreen)
	}
	if m.FailureKeys.Retry.Enabled() {
		t.Error("retry should be disabled for unrecoverable errors")
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.CurrentScreen != ScreenFailure {
		t.Error("disabled retry key should do nothing")
	}

	_, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !isQuit(cmd) {
		t.Error("q should quit from the failure screen")
	}
}

func TestForeignErrorEndsPrompt(t *testing.T) {
	rec := &recorder{results: []error{errors.New("boom")}}
	m := newTestApp(t, rec, Options{AutoSubmit: true})

	m, cmd := typeDigits(t, m, "123456")
	m, _ = send(t, m, verifyResult(t, cmd))

	if m.CurrentScreen != ScreenFailure {
		t.Errorf("screen = %v, want failure", m.CurrentScreen)
	}
	if m.Result().Type != ui.ResultFailure {
		t.Errorf("Result().Type = %v, want failure", m.Result().Type)
	}
}

func TestPasteFillsAllCells(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{AutoSubmit: false})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("12a3456789"), Paste: true})

	if m.Code != "123456" {
		t.Errorf("Code = %q, want 123456", m.Code)
	}
	if m.Input.Focused() != 5 {
		t.Errorf("Focused() = %d, want 5", m.Input.Focused())
	}
}

func TestPasteAutoSubmits(t *testing.T) {
	rec := &recorder{}
	m := newTestApp(t, rec, Options{AutoSubmit: true})

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("654 321"), Paste: true})
	if m.CurrentScreen != ScreenVerifying {
		t.Fatalf("screen = %v, want verifying", m.CurrentScreen)
	}

	send(t, m, verifyResult(t, cmd))
	if len(rec.codes) != 1 || rec.codes[0] != "654321" {
		t.Errorf("verifier received %v, want [654321]", rec.codes)
	}
}

func TestPrefilledCodeAutoSubmits(t *testing.T) {
	rec := &recorder{}
	m, err := NewAppModel(rec, Options{Length: 6, AutoSubmit: true, Initial: "987654"})
	if err != nil {
		t.Fatal(err)
	}

	var submitted bool
	for _, msg := range collect(m.Init()) {
		if _, ok := msg.(submitMsg); ok {
			submitted = true
			var cmd tea.Cmd
			m, cmd = send(t, m, msg)
			m, _ = send(t, m, verifyResult(t, cmd))
		}
	}

	if !submitted {
		t.Fatal("Init() should submit a complete prefilled code")
	}
	if !m.Succeeded() || len(rec.codes) != 1 || rec.codes[0] != "987654" {
		t.Errorf("screen = %v, codes = %v", m.CurrentScreen, rec.codes)
	}
}

func TestClearKey(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{})

	m, _ = typeDigits(t, m, "1234")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})

	if m.Code != "" {
		t.Errorf("Code = %q, want empty", m.Code)
	}
	if m.Input.Focused() != 0 {
		t.Errorf("Focused() = %d, want 0", m.Input.Focused())
	}
}

func TestBackspaceAcrossCells(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{})

	m, _ = typeDigits(t, m, "120")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})

	if m.Code != "12" {
		t.Errorf("Code = %q, want 12", m.Code)
	}
	if m.Input.Focused() != 2 {
		t.Errorf("Focused() = %d, want 2", m.Input.Focused())
	}
}

func TestEscCancels(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{})

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if !m.Canceled || !isQuit(cmd) {
		t.Error("esc should cancel and quit")
	}
	if m.Result().Type != ui.ResultWarning {
		t.Errorf("Result().Type = %v, want warning", m.Result().Type)
	}
}

func TestCancelDuringVerification(t *testing.T) {
	v := verify.VerifierFunc(func(ctx context.Context, code string) error {
		select {
		case <-ctx.Done():
			return verify.ClassifyNetworkError(ctx.Err(), "")
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	m := newTestApp(t, v, Options{AutoSubmit: true})

	m, pending := typeDigits(t, m, "123456")
	m, quit := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(quit) {
		t.Fatal("ctrl+c should quit")
	}

	res := verifyResult(t, pending)
	if !verify.IsCanceled(res.err) {
		t.Errorf("in-flight verification error = %v, want canceled", res.err)
	}

	m, _ = send(t, m, res)
	if m.CurrentScreen == ScreenFailure {
		t.Error("a canceled verification should not show the failure screen")
	}
}

func TestStaleResultIgnored(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{AutoSubmit: true})

	m, _ = typeDigits(t, m, "123456")
	m, _ = send(t, m, verifyResultMsg{attempt: 99})

	if m.CurrentScreen != ScreenVerifying {
		t.Errorf("screen = %v, stale result should be ignored", m.CurrentScreen)
	}
}

func TestInputBlockedWhileVerifying(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{AutoSubmit: true})

	m, _ = typeDigits(t, m, "123456")
	m, _ = typeDigits(t, m, "9")

	if m.Code != "123456" {
		t.Errorf("Code = %q, input should be ignored while verifying", m.Code)
	}
	if !strings.Contains(m.View(), "Verifying...") {
		t.Error("verifying view should show the spinner line")
	}
}

func TestWindowSizeAndMouse(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{})

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if m.Width != 80 || m.Height != 24 {
		t.Errorf("size = %dx%d, want 80x24", m.Width, m.Height)
	}

	wantY := lipgloss.Height(m.Header.Render()) + 3
	if m.Input.OriginY != wantY {
		t.Errorf("Input.OriginY = %d, want %d", m.Input.OriginY, wantY)
	}

	// The cells start on the line the layout says they do
	lines := strings.Split(m.View(), "\n")
	if !strings.Contains(lines[wantY+1], ui.CellPlaceholder) && !strings.Contains(lines[wantY+1], "_") {
		t.Errorf("line %d should hold the cells, got %q", wantY+1, lines[wantY+1])
	}

	m, _ = send(t, m, tea.MouseMsg{
		X:      2*ui.CellStride + 1,
		Y:      wantY + 1,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	if m.Input.Focused() != 2 {
		t.Errorf("Focused() after click = %d, want 2", m.Input.Focused())
	}
}

func TestViewShowsLabel(t *testing.T) {
	m := newTestApp(t, &recorder{}, Options{Command: "mfa-entry prompt"})

	view := m.View()
	for _, want := range []string{"Digit 1 of 6", "Enter the 6-digit code", "mfa-entry prompt"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
