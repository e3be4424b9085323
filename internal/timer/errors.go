package timer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// DefaultMinutesInput is what the duration field is reset to after invalid
// input.
const DefaultMinutesInput = "1"

// MaxMinutes keeps minutes*60 inside an int.
const MaxMinutes = math.MaxInt / 60

var (
	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIllegalTransition is matched by every *TransitionError.
	ErrIllegalTransition = errors.New("illegal transition")
)

var minutesPattern = regexp.MustCompile(`^[1-9]\d*$`)

// InputError describes a rejected duration entry. Message is meant for the
// user; ResetInput is the value the field should show afterwards.
type InputError struct {
	Input      string
	Message    string
	ResetInput string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s (got %q)", e.Message, e.Input)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// TransitionError is returned when an action is not allowed in the current state.
type TransitionError struct {
	From   State
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrIllegalTransition }

func invalidMinutes(input string) *InputError {
	return &InputError{
		Input:      input,
		Message:    "timer minutes must be a positive integer",
		ResetInput: DefaultMinutesInput,
	}
}

// ParseMinutes validates the duration field: a positive integer without sign,
// leading zeros or surrounding space.
func ParseMinutes(input string) (int, error) {
	if !minutesPattern.MatchString(input) {
		return 0, invalidMinutes(input)
	}
	n, err := strconv.Atoi(input)
	if err != nil || n > MaxMinutes {
		return 0, invalidMinutes(input)
	}
	return n, nil
}
