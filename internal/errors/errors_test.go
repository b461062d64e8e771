package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestZmdError_Error(t *testing.T) {
	err := &ZmdError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "cache entry not found",
	}

	expected := "NOT_FOUND: cache entry not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     *ZmdError
		wantKey string
	}{
		{"empty map", NewEmptyDirectiveMap(), ""},
		{"invalid name", NewInvalidDirectiveName("a b", "contains whitespace"), "name"},
		{"duplicate", NewDuplicateDirective("secret"), "name"},
		{"class token", NewInvalidClassToken("secret", ""), "token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != ErrConfiguration {
				t.Errorf("Code = %q, want %q", tt.err.Code, ErrConfiguration)
			}
			if tt.err.Status != 500 {
				t.Errorf("Status = %d, want 500", tt.err.Status)
			}
			if tt.wantKey != "" {
				if _, ok := tt.err.Details[tt.wantKey]; !ok {
					t.Errorf("Details missing %q: %v", tt.wantKey, tt.err.Details)
				}
			}
		})
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("markdown is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "markdown is required" {
		t.Errorf("Message = %q, want %q", err.Message, "markdown is required")
	}
}

func TestNewUnknownTarget(t *testing.T) {
	err := NewUnknownTarget("pdf", []string{"html", "epub", "latex"})

	if err.Code != ErrUnknownTarget {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnknownTarget)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Details["target"] != "pdf" {
		t.Errorf("Details[target] = %v, want %q", err.Details["target"], "pdf")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("directive", "warning")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Message != "directive not found: warning" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewDocumentTooLarge(t *testing.T) {
	err := NewDocumentTooLarge(100, 250)

	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
	if err.Details["max_chars"] != 100 {
		t.Errorf("Details[max_chars] = %v, want 100", err.Details["max_chars"])
	}
	if err.Details["actual_chars"] != 250 {
		t.Errorf("Details[actual_chars] = %v, want 250", err.Details["actual_chars"])
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk full"))
	if err.Message != "disk full" {
		t.Errorf("Message = %q, want %q", err.Message, "disk full")
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewUnknownTarget("pdf", nil)

	if !Is(err, ErrUnknownTarget) {
		t.Error("Is(err, ErrUnknownTarget) = false, want true")
	}
	if Is(err, ErrNotFound) {
		t.Error("Is(err, ErrNotFound) = true, want false")
	}

	wrapped := fmt.Errorf("render: %w", err)
	if !Is(wrapped, ErrUnknownTarget) {
		t.Error("Is(wrapped, ErrUnknownTarget) = false, want true")
	}

	if Is(fmt.Errorf("plain"), ErrInternal) {
		t.Error("Is(plain, ErrInternal) = true, want false")
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewInvalidRequest("bad"))

	zErr, ok := As(wrapped)
	if !ok {
		t.Fatal("As() ok = false, want true")
	}
	if zErr.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", zErr.Code, ErrInvalidRequest)
	}

	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("As(plain) ok = true, want false")
	}
}

func TestNewCanceled(t *testing.T) {
	err := NewCanceled(context.DeadlineExceeded)
	if err.Code != ErrCanceled || err.Status != 499 {
		t.Errorf("NewCanceled() = %s/%d, want CANCELED/499", err.Code, err.Status)
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Error("NewCanceled() does not unwrap to the context error")
	}
	if !Is(fmt.Errorf("wrapped: %w", err), ErrCanceled) {
		t.Error("Is() through wrapping = false, want true")
	}
}
