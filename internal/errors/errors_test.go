package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew_RegisteredCode(t *testing.T) {
	err := New("E101")
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want config", err.Category)
	}
	if !strings.Contains(err.Error(), "E101") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
	if err.Suggestion == "" {
		t.Error("registered code lost its suggestion")
	}
}

func TestNew_UnknownCode(t *testing.T) {
	err := New("E999")
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := New("E102").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is does not find the wrapped cause")
	}
}

func TestFromError_PassesThrough(t *testing.T) {
	orig := New("E103")
	if got := FromError(orig, "E102"); got != orig {
		t.Error("FromError rewrapped an existing DeckError")
	}
	if got := FromError(nil, "E102"); got != nil {
		t.Error("FromError(nil) != nil")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()

	err := New("E104").WithDetail("got \"5 minutes\"").Wrap(stderrors.New("parse failed"))
	out := err.Format()

	for _, want := range []string{"E104", "Invalid duration", "5 minutes", "Hint:", "Cause: parse failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	if got := New("E101").FormatCompact(); got != "E101: Configuration file not found" {
		t.Errorf("FormatCompact = %q", got)
	}
}
