package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewCapturesStack(t *testing.T) {
	err := New(CodeInvalidScript, "script has no caption lines")

	if err.Code != CodeInvalidScript {
		t.Errorf("expected code=%s, got %s", CodeInvalidScript, err.Code)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeEncoderFailure, "sink closed"),
			contains: []string{"ENCODER_FAILURE", "sink closed"},
		},
		{
			name:     "error with op",
			err:      &Error{Code: CodeInternal, Message: "surface missing", Op: "engine.tick"},
			contains: []string{"engine.tick", "INTERNAL_ERROR", "surface missing"},
		},
		{
			name:     "error with underlying",
			err:      &Error{Code: CodeInternal, Message: "wrapper", Err: fmt.Errorf("broken pipe")},
			contains: []string{"wrapper", "broken pipe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := EncoderFailure("video.end", fmt.Errorf("exit status 1"))
	outer := Wrap(inner, "engine.finalize", "finalize failed")

	if outer.Code != CodeEncoderFailure {
		t.Errorf("expected wrapped code %s, got %s", CodeEncoderFailure, outer.Code)
	}
	if !errors.Is(outer, inner) {
		t.Error("expected errors.Is to match the inner error")
	}
	if Wrap(nil, "op", "msg") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", InvalidScript("empty"), CodeInvalidScript},
		{"foreign", fmt.Errorf("plain"), CodeInternal},
		{"wrapped by fmt", fmt.Errorf("ctx: %w", AssetLoadFailure("ocean", fmt.Errorf("404"))), CodeAssetLoadFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := InvalidScript("x").HTTPStatus(); got != 400 {
		t.Errorf("invalid script status = %d, want 400", got)
	}
	if got := EncoderFailure("op", fmt.Errorf("x")).HTTPStatus(); got != 502 {
		t.Errorf("encoder failure status = %d, want 502", got)
	}
	if got := GetHTTPStatus(fmt.Errorf("x")); got != 500 {
		t.Errorf("foreign error status = %d, want 500", got)
	}
}

func TestAssetLoadFailureFields(t *testing.T) {
	err := AssetLoadFailure("ocean", fmt.Errorf("timeout"))
	if err.Fields["query"] != "ocean" {
		t.Errorf("expected query field, got %v", err.Fields)
	}
}
