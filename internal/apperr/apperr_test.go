package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestUserError(t *testing.T) {
	err := Userf("unknown mode %q", "nba")
	if err.Error() != `unknown mode "nba"` {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !IsUser(fmt.Errorf("score: %w", err)) {
		t.Fatal("wrapped user error not recognised")
	}
	if IsUser(errors.New("disk full")) {
		t.Fatal("plain error reported as user error")
	}
}

func TestInput(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := Input("batch.json", cause)
	if got, want := err.Error(), "batch.json: cannot use batch payload: unexpected end of JSON input"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Fatal("Input should wrap its cause")
	}
	if !IsUser(err) {
		t.Fatal("Input should be a user error")
	}
	if Input("x", nil) != nil {
		t.Fatal("Input(nil) should be nil")
	}
}
