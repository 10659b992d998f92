package typist

import (
	"fmt"
	"time"
)

// Profile selects one of the fixed typing behavior variants. A profile is
// immutable configuration; all per-run tuning lives in Params.
type Profile string

const (
	// ProfileSuperhuman types with zero inter-key delay and perfect accuracy.
	ProfileSuperhuman Profile = "superhuman"
	// ProfileBotObvious types with an identical fixed delay after every
	// character. The near-zero variance in inter-key interval is the signal
	// that makes this profile statistically detectable.
	ProfileBotObvious Profile = "bot_obvious"
	// ProfileHumanLike draws inter-key delays uniformly from a configured
	// range and occasionally substitutes a wrong letter, then corrects it
	// with a backspace.
	ProfileHumanLike Profile = "human_like"
)

// ParseProfile validates a profile name from config or flags.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(s); p {
	case ProfileSuperhuman, ProfileBotObvious, ProfileHumanLike:
		return p, nil
	}
	return "", fmt.Errorf("typist: unknown profile %q (want superhuman, bot_obvious, or human_like)", s)
}

// mistakeProbability is the chance that human_like substitutes a wrong letter
// before a character. Fixed, matching observed human baseline behavior.
const mistakeProbability = 0.02

// Params carries the per-run tuning for a typing run.
type Params struct {
	// InputSelector designates the input surface to focus; empty means the
	// driver's default target.
	InputSelector string
	// DelayMin and DelayMax bound the uniform inter-key delay for human_like.
	DelayMin time.Duration
	DelayMax time.Duration
	// FixedDelay is the constant inter-key delay for bot_obvious.
	FixedDelay time.Duration
	// MaxChars is a safety cap on typed characters. Generation stops early,
	// silently, once the cap is reached.
	MaxChars int
}

// DefaultParams mirrors the tool's stock settings: 40-220ms human delays, a
// 5ms fixed bot delay, and a 5000 character cap.
func DefaultParams() Params {
	return Params{
		DelayMin:   40 * time.Millisecond,
		DelayMax:   220 * time.Millisecond,
		FixedDelay: 5 * time.Millisecond,
		MaxChars:   5000,
	}
}

// Validate checks the parameter set for internal consistency.
func (p Params) Validate() error {
	if p.DelayMin < 0 || p.DelayMax < 0 || p.FixedDelay < 0 {
		return fmt.Errorf("typist: delays must be non-negative")
	}
	if p.DelayMax < p.DelayMin {
		return fmt.Errorf("typist: delay_max (%v) must be >= delay_min (%v)", p.DelayMax, p.DelayMin)
	}
	if p.MaxChars <= 0 {
		return fmt.Errorf("typist: max_chars must be positive, got %d", p.MaxChars)
	}
	return nil
}
