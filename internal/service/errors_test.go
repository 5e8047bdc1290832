package service

import (
	"errors"
	"testing"

	"examenbot/internal/domain"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		wantIs  bool
	}{
		{
			name:    "blank question",
			err:     &ValidationError{Field: "message", Message: "cannot be empty"},
			wantMsg: "validation error on field message: cannot be empty",
			wantIs:  true,
		},
		{
			name:    "wrapped unknown preset",
			err:     WrapError(&ValidationError{Field: "faq_id", Message: "unknown question"}, "failed to resolve chat request"),
			wantMsg: "failed to resolve chat request: validation error on field faq_id: unknown question",
			wantIs:  true,
		},
		{
			name:   "external failure is not a validation error",
			err:    &domain.EmbeddingServiceError{Err: errors.New("timeout")},
			wantIs: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantMsg != "" && tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
			if got := errors.Is(tt.err, ErrInvalidInput); got != tt.wantIs {
				t.Errorf("errors.Is(err, ErrInvalidInput) = %v, want %v", got, tt.wantIs)
			}
			var ve *ValidationError
			if got := errors.As(tt.err, &ve); got != tt.wantIs {
				t.Errorf("errors.As(err, *ValidationError) = %v, want %v", got, tt.wantIs)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "failed to build index") != nil {
		t.Error("WrapError(nil) should return nil")
	}

	cause := &domain.GenerationServiceError{Err: errors.New("502 bad gateway")}
	err := WrapError(cause, "failed to answer question")

	if !domain.IsServiceError(err) {
		t.Error("wrapped generation error should stay a service error")
	}
	if !errors.Is(err, cause) {
		t.Error("WrapError() should keep the cause in the chain")
	}
	if want := "failed to answer question: " + cause.Error(); err.Error() != want {
		t.Errorf("WrapError() = %q, want %q", err.Error(), want)
	}
}
