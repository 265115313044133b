package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "WithoutCause",
			err:  New(CodeMissingDocument, "no parsed document for %s", "lab.yml"),
			want: "missing-document: no parsed document for lab.yml",
		},
		{
			name: "WithCause",
			err:  Wrap(CodeInternal, stderrors.New("disk full"), "serialize document"),
			want: "internal-error: serialize document: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(CodeRevisionConflict, "base revision 3, current 5")

	if !Is(err, CodeRevisionConflict) {
		t.Error("Is() = false for matching code")
	}
	if Is(err, CodeProtocolMismatch) {
		t.Error("Is() = true for non-matching code")
	}
	if Is(stderrors.New("plain"), CodeRevisionConflict) {
		t.Error("Is() = true for plain error")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(CodeNodesNotAMap, "topology.nodes is a sequence")
	outer := fmt.Errorf("apply command: %w", inner)

	if !Is(outer, CodeNodesNotAMap) {
		t.Error("Is() did not unwrap fmt.Errorf chain")
	}
	if got := GetCode(outer); got != CodeNodesNotAMap {
		t.Errorf("GetCode() = %q, want %q", got, CodeNodesNotAMap)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("read failed")
	err := Wrap(CodeFileNotFound, cause, "load topology")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is could not reach the cause")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(CodeInvalidCommand, "unknown command kind")); got != "unknown command kind" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestGetCodeNonStructured(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}
