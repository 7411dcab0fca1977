package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDrawNotFound, "no live draw %s", "3f2a")

	if err.Code != ErrCodeDrawNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDrawNotFound)
	}
	if err.Message != "no live draw 3f2a" {
		t.Errorf("Message = %v, want %v", err.Message, "no live draw 3f2a")
	}
	if want := "DRAW_NOT_FOUND: no live draw 3f2a"; err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrapUpstream(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := Wrap(ErrCodeUpstream, cause, "decode listing %d", 42)

	if err.Code != ErrCodeUpstream {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUpstream)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if want := "UPSTREAM_DATA_ERROR: decode listing 42: unexpected end of JSON input"; err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	dismissEarly := New(ErrCodeInvalidState, "dismiss during spinning")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", dismissEarly, ErrCodeInvalidState, true},
		{"other code", dismissEarly, ErrCodeDrawNotFound, false},
		{"behind fmt wrap", fmt.Errorf("dismiss draw: %w", dismissEarly), ErrCodeInvalidState, true},
		{"outer code wins", Wrap(ErrCodeUpstream, New(ErrCodeListingNotFound, "listing 7"), "fetch"), ErrCodeUpstream, true},
		{"inner code hidden", Wrap(ErrCodeUpstream, New(ErrCodeListingNotFound, "listing 7"), "fetch"), ErrCodeListingNotFound, false},
		{"plain error", errors.New("boom"), ErrCodeInvalidState, false},
		{"nil", nil, ErrCodeInvalidState, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"insufficient", New(ErrCodeInsufficientParticipants, "need one participant"), ErrCodeInsufficientParticipants},
		{"draw not found", fmt.Errorf("render: %w", New(ErrCodeDrawNotFound, "draw x")), ErrCodeDrawNotFound},
		{"upstream", Wrap(ErrCodeUpstream, errors.New("502"), "listing 1"), ErrCodeUpstream},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid state", New(ErrCodeInvalidState, "the announcement is not showing"), "the announcement is not showing"},
		{"upstream drops cause", Wrap(ErrCodeUpstream, errors.New("EOF"), "listing 9 is unavailable"), "listing 9 is unavailable"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	tests := []struct {
		name string
		err  *RateLimitedError
		want string
	}{
		{"with retry after", &RateLimitedError{RetryAfter: 60}, "rate limited: retry after 60 seconds"},
		{"without retry after", &RateLimitedError{}, "rate limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
			if tt.err.Code() != ErrCodeRateLimited {
				t.Errorf("Code() = %v, want %v", tt.err.Code(), ErrCodeRateLimited)
			}
		})
	}
}
