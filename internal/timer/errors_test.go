package timer_test

import (
	"errors"
	"strconv"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/worktimer/internal/timer"
)

func TestParseMinutes(t *testing.T) {
	valid := map[string]int{"1": 1, "25": 25, "90": 90, "1440": 1440}
	for in, want := range valid {
		got, err := timer.ParseMinutes(in)
		if err != nil || got != want {
			t.Errorf("ParseMinutes(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"", "abc", "0", "-5", "+5", "05", " 5", "5 ", "1.5", "1e3", "99999999999999999999999"} {
		_, err := timer.ParseMinutes(in)
		var inputErr *timer.InputError
		if !errors.As(err, &inputErr) {
			t.Errorf("ParseMinutes(%q) error = %v, want *InputError", in, err)
			continue
		}
		if !errors.Is(err, timer.ErrInvalidInput) {
			t.Errorf("ParseMinutes(%q) error does not match ErrInvalidInput", in)
		}
		if inputErr.Message != "timer minutes must be a positive integer" {
			t.Errorf("message = %q", inputErr.Message)
		}
		if inputErr.ResetInput != timer.DefaultMinutesInput {
			t.Errorf("ResetInput = %q, want %q", inputErr.ResetInput, timer.DefaultMinutesInput)
		}
		if inputErr.Input != in {
			t.Errorf("Input = %q, want %q", inputErr.Input, in)
		}
	}
}

// Feature: worktimer, Property 3: every positive integer rendered in decimal is
// accepted unchanged
func TestParseMinutesAcceptsPositiveIntegers(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 1_000_000).Draw(rt, "minutes")
		got, err := timer.ParseMinutes(strconv.Itoa(n))
		if err != nil || got != n {
			rt.Fatalf("ParseMinutes(%d) = %d, %v", n, got, err)
		}
	})
}

// Feature: worktimer, Property 4: input containing a non-digit is rejected
func TestParseMinutesRejectsNonDigits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.StringMatching(`[0-9]{0,3}`).Draw(rt, "prefix")
		bad := rapid.StringMatching(`[^0-9]`).Draw(rt, "bad")
		suffix := rapid.StringMatching(`[0-9]{0,3}`).Draw(rt, "suffix")
		if _, err := timer.ParseMinutes(prefix + bad + suffix); !errors.Is(err, timer.ErrInvalidInput) {
			rt.Fatalf("ParseMinutes(%q) error = %v", prefix+bad+suffix, err)
		}
	})
}

func TestTransitionErrorMessage(t *testing.T) {
	err := &timer.TransitionError{From: timer.Running, Action: "change the target duration"}
	if got, want := err.Error(), "cannot change the target duration while running"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
