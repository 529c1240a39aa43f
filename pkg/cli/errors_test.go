package cli

import (
	"errors"
	"fmt"
	"testing"

	"wardenhq/warden/pkg/audit"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: ExitPass},
		{name: "plain error", err: errors.New("boom"), want: ExitError},
		{
			name: "command error carries its code",
			err:  NewCommandError("audit", ExitFail, errors.New("verdict fail")),
			want: ExitFail,
		},
		{
			name: "wrapped command error",
			err:  fmt.Errorf("outer: %w", NewCommandError("audit", ExitFail, errors.New("verdict fail"))),
			want: ExitFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVerdictExitCode(t *testing.T) {
	tests := []struct {
		verdict audit.Verdict
		want    int
	}{
		{verdict: audit.VerdictPass, want: ExitPass},
		{verdict: audit.VerdictDegraded, want: ExitPass},
		{verdict: audit.VerdictFail, want: ExitFail},
	}

	for _, tt := range tests {
		if got := VerdictExitCode(tt.verdict); got != tt.want {
			t.Errorf("VerdictExitCode(%s) = %d, want %d", tt.verdict, got, tt.want)
		}
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	cause := errors.New("config missing")
	err := NewCommandError("watch", ExitError, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := err.Error(); got != "command watch failed: config missing" {
		t.Errorf("Error() = %q", got)
	}
}
