package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar_NonTTY(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(buf, 10, "Importing")

	for i := 0; i < 5; i++ {
		p.Increment()
	}
	if buf.Len() != 0 {
		t.Errorf("non-TTY progress should stay quiet until finished, got %q", buf.String())
	}

	p.Finish()
	out := buf.String()
	if !strings.Contains(out, "100%") || !strings.Contains(out, "Importing") {
		t.Errorf("Finish() output = %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("Finish() should print exactly one line, got %q", out)
	}
}

func TestProgressBar_Line(t *testing.T) {
	p := NewProgress(&bytes.Buffer{}, 4, "Work")
	p.width = 8

	tests := []struct {
		current int
		want    string
	}{
		{0, "[        ]   0% Work"},
		{1, "[=>      ]  25% Work"},
		{2, "[===>    ]  50% Work"},
		{4, "[========] 100% Work"},
	}
	for _, tt := range tests {
		p.current = tt.current
		if got := p.line(); got != tt.want {
			t.Errorf("line() at %d = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestProgressBar_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(buf, 0, "Nothing")
	p.Increment()
	p.Finish()
	if !strings.Contains(buf.String(), "100%") {
		t.Errorf("zero-total bar should finish at 100%%, got %q", buf.String())
	}
}

func TestSpinner_NonTTY(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner(buf, "Detecting drivers")

	s.Start()
	s.Start() // second start is a no-op
	s.StopWithMessage("done")
	s.Stop() // stopping twice is safe

	want := "Detecting drivers...\ndone\n"
	if buf.String() != want {
		t.Errorf("spinner output = %q, want %q", buf.String(), want)
	}
}
