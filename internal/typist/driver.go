package typist

import (
	"context"
	"errors"
	"fmt"
)

// Driver is the narrow page capability surface the typist drives. It is
// deliberately small so a run can be generated against a real browser, a
// terminal, or an in-memory fake interchangeably.
type Driver interface {
	// Focus acquires the input target identified by selector. An empty
	// selector asks the driver to focus its default target (typically the
	// document body). A failure here means typing cannot start at all.
	Focus(ctx context.Context, selector string) error

	// EmitChar delivers a single printable character to the focused target.
	// Delivery is best effort: implementations fall back to a synthetic
	// low-level event before giving up, and a returned error never aborts
	// the run.
	EmitChar(ctx context.Context, ch rune) error

	// EmitKey delivers a named control key such as "Backspace" or "Enter".
	// Best effort, same contract as EmitChar.
	EmitKey(ctx context.Context, name string) error

	// ReadText returns the visible text under selector, or "" when the
	// selector matches nothing.
	ReadText(ctx context.Context, selector string) (string, error)
}

// FocusError reports that no input target could be acquired. It aborts the
// run before any text is typed, unlike a per-character emission failure.
type FocusError struct {
	Selector string
	Err      error
}

func (e *FocusError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("typist: failed to focus default input target: %v", e.Err)
	}
	return fmt.Sprintf("typist: failed to focus input target %q: %v", e.Selector, e.Err)
}

func (e *FocusError) Unwrap() error { return e.Err }

// EmissionError reports that a single key could not be delivered through the
// driver's primary path. It is recorded and tolerated, never fatal.
type EmissionError struct {
	Key string
	Err error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("typist: failed to emit key %q: %v", e.Key, e.Err)
}

func (e *EmissionError) Unwrap() error { return e.Err }

// ErrTargetTextUnavailable signals that no target text could be read from the
// page. The run is abandoned before typing begins.
var ErrTargetTextUnavailable = errors.New("typist: no target text available on page")
