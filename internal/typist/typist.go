// Package typist generates synthetic keystroke traces. Given a target text
// and a behavior profile it drives a page Driver one key at a time, recording
// a timestamped event for every emission. The resulting log is the only
// artifact the rest of the system consumes.
package typist

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/keytrace-cli/api/schemas"
)

// SleepFunc blocks for the given duration. The run suspends only at these
// deliberate timing delays; no other work proceeds during a delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Typist converts a target string and a profile into a keystroke event
// sequence, emitting each key through the Driver as it goes.
type Typist struct {
	driver Driver
	logger *zap.Logger
	rng    *rand.Rand
	now    func() time.Time
	sleep  SleepFunc
}

// New creates a Typist with a wall clock and a time-seeded RNG.
func New(driver Driver, logger *zap.Logger) *Typist {
	return &Typist{
		driver: driver,
		logger: logger.Named("typist"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// NewTestTypist creates a Typist with a seeded RNG and injected clock and
// sleep hooks, for deterministic tests.
func NewTestTypist(driver Driver, seed int64, now func() time.Time, sleep SleepFunc) *Typist {
	return &Typist{
		driver: driver,
		logger: zap.NewNop(),
		rng:    rand.New(rand.NewSource(seed)),
		now:    now,
		sleep:  sleep,
	}
}

// Generate types targetText through the driver using the given profile and
// returns the keystroke log plus the count of target characters typed.
//
// The driver must be focusable up front; a focus failure aborts before any
// text is emitted. Individual emission failures mid-run are logged and
// tolerated. Generation stops silently once params.MaxChars target characters
// have been typed.
func (t *Typist) Generate(ctx context.Context, targetText string, profile Profile, params Params) ([]schemas.KeystrokeEvent, int, error) {
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}
	if _, err := ParseProfile(string(profile)); err != nil {
		return nil, 0, err
	}

	if err := t.driver.Focus(ctx, params.InputSelector); err != nil {
		return nil, 0, &FocusError{Selector: params.InputSelector, Err: err}
	}

	runes := []rune(targetText)
	log := make([]schemas.KeystrokeEvent, 0, len(runes))
	typed := 0

	for i := 0; i < len(runes) && typed < params.MaxChars; {
		switch profile {
		case ProfileSuperhuman:
			t.pressChar(ctx, &log, runes[i])
			typed++
			i++

		case ProfileBotObvious:
			t.pressChar(ctx, &log, runes[i])
			typed++
			i++
			if err := t.sleep(ctx, params.FixedDelay); err != nil {
				return log, typed, err
			}

		case ProfileHumanLike:
			// Occasionally substitute a wrong letter, pause as if noticing
			// it, backspace, then type the intended character. Only injected
			// when a following character exists.
			if t.rng.Float64() < mistakeProbability && i+1 < len(runes) {
				t.pressChar(ctx, &log, t.wrongLetter(runes[i]))
				if err := t.sleep(ctx, t.humanDelay(params)); err != nil {
					return log, typed, err
				}
				t.pressKey(ctx, &log, schemas.KeyBackspace)
				t.pressChar(ctx, &log, runes[i])
			} else {
				t.pressChar(ctx, &log, runes[i])
			}
			typed++
			i++
			if err := t.sleep(ctx, t.humanDelay(params)); err != nil {
				return log, typed, err
			}
		}
	}

	return log, typed, nil
}

// pressChar stamps, emits, and records a single printable character. The
// event is recorded even when delivery fails; the page may have missed the
// key, but the trace must still reflect the attempt.
func (t *Typist) pressChar(ctx context.Context, log *[]schemas.KeystrokeEvent, ch rune) {
	ts := t.stamp()
	if err := t.driver.EmitChar(ctx, ch); err != nil {
		t.logger.Warn("character emission failed, continuing",
			zap.String("key", string(ch)), zap.Error(err))
	}
	*log = append(*log, schemas.KeystrokeEvent{
		Key:       string(ch),
		Timestamp: ts,
		Action:    schemas.ActionKeypress,
	})
}

// pressKey stamps, emits, and records a named control key.
func (t *Typist) pressKey(ctx context.Context, log *[]schemas.KeystrokeEvent, name string) {
	ts := t.stamp()
	if err := t.driver.EmitKey(ctx, name); err != nil {
		t.logger.Warn("key emission failed, continuing",
			zap.String("key", name), zap.Error(err))
	}
	action := schemas.ActionKeypress
	if name == schemas.KeyBackspace {
		action = schemas.ActionBackspace
	}
	*log = append(*log, schemas.KeystrokeEvent{
		Key:       name,
		Timestamp: ts,
		Action:    action,
	})
}

// wrongLetter picks a uniformly random lowercase letter that is not the
// intended character.
func (t *Typist) wrongLetter(correct rune) rune {
	for {
		c := rune('a' + t.rng.Intn(26))
		if c != correct {
			return c
		}
	}
}

// humanDelay samples a uniform delay from [DelayMin, DelayMax].
func (t *Typist) humanDelay(params Params) time.Duration {
	span := params.DelayMax - params.DelayMin
	if span <= 0 {
		return params.DelayMin
	}
	return params.DelayMin + time.Duration(t.rng.Float64()*float64(span))
}

// stamp returns the current time as fractional seconds.
func (t *Typist) stamp() float64 {
	return float64(t.now().UnixNano()) / 1e9
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
