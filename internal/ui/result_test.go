package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestResult_Render(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "Success",
			result: NewSuccessResult("Code verified", Detail{"Endpoint", "https://auth.example.com"}, Detail{"Attempts", "1"}),
			want:   []string{"SUCCESS", "Code verified", "Endpoint:", "https://auth.example.com", "Attempts:"},
		},
		{
			name:   "Failure",
			result: NewFailureResult("Verification failed", errors.New("invalid code"), []string{"Check the time on this machine"}),
			want:   []string{"FAILED", "Verification failed", "invalid code", "Troubleshooting:", "Check the time"},
		},
		{
			name:   "Warning",
			result: NewWarningResult("Cancelled", Detail{"Attempts", "2"}),
			want:   []string{"WARNING", "Cancelled", "Attempts:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Render() missing %q in:\n%s", w, out)
				}
			}
		})
	}
}

func TestResult_DetailOrder(t *testing.T) {
	out := NewSuccessResult("Done").AddDetail("First", "a").AddDetail("Second", "b").SetWidth(80).Render()

	if strings.Index(out, "First") > strings.Index(out, "Second") {
		t.Error("details should render in insertion order")
	}
}

func TestHeader_Render(t *testing.T) {
	out := NewHeader("mfa verification", "mfa-entry prompt", Detail{"Length", "6"}).SetWidth(70).Render()

	for _, w := range []string{"MFA VERIFICATION", "mfa-entry prompt", "Length:", "6"} {
		if !strings.Contains(out, w) {
			t.Errorf("Render() missing %q in:\n%s", w, out)
		}
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.SetWidth(80)

	p.PrintSuccess("Code verified")
	p.PrintError("Verification failed", errors.New("boom"), nil)

	out := buf.String()
	if !strings.Contains(out, "Code verified") || !strings.Contains(out, "boom") {
		t.Errorf("Printer output missing content:\n%s", out)
	}
	if p.Width() != 80 {
		t.Errorf("Width() = %d, want 80", p.Width())
	}
}
