package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSimpleProgress(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf)

	progress.Start(4)
	progress.Update(2)
	progress.Finish()

	out := buf.String()
	if !strings.Contains(out, "(2/4)") {
		t.Errorf("output missing midpoint count:\n%q", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("output missing completion:\n%q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish() did not terminate the progress line")
	}
}

func TestSimpleProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf)

	progress.Start(0)
	progress.Update(0)

	if got := buf.String(); strings.Contains(got, "%") {
		t.Errorf("zero-total progress rendered a bar: %q", got)
	}
}

func TestSimpleProgress_Error(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf)

	progress.Start(10)
	progress.Error(errors.New("walk failed"))

	if !strings.Contains(buf.String(), "walk failed") {
		t.Errorf("output missing error text:\n%q", buf.String())
	}
}

func TestNopProgress(t *testing.T) {
	var progress ProgressReporter = NopProgress{}

	// Must not panic.
	progress.Start(5)
	progress.Update(3)
	progress.Error(errors.New("ignored"))
	progress.Finish()
}
