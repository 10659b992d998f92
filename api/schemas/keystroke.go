package schemas

// -- Keystroke Schemas --

// Action categorizes a single keystroke event.
type Action string

const (
	ActionKeypress  Action = "keypress"
	ActionBackspace Action = "backspace"
)

// Named keys as they appear in the Key field of a KeystrokeEvent. Single
// printable characters are stored verbatim; control keys use these names.
const (
	KeyBackspace = "Backspace"
	KeyShift     = "Shift"
	KeyEnter     = "Enter"
)

// KeystrokeEvent records one emitted key. Timestamp is wall-clock seconds
// (fractional) at the moment of emission. Ordering within a run is
// significant; the log is append-only during generation and immutable once
// the run record is committed.
type KeystrokeEvent struct {
	Key       string  `json:"key"`
	Timestamp float64 `json:"timestamp"`
	Action    Action  `json:"action"`
}

// IsControlKey reports whether the event's key is one of the named control
// keys excluded from typed-character counts.
func (e KeystrokeEvent) IsControlKey() bool {
	switch e.Key {
	case KeyBackspace, KeyShift, KeyEnter:
		return true
	}
	return false
}

// RunMeta describes one typing run. It is created when the run starts,
// finalized when it ends, and never mutated afterward.
//
// ExtractedWPM and ExtractedAccuracy come from an external measurement (the
// page's own result readout) and may be absent. ComputedWPM is always derived
// locally from the keystroke log.
type RunMeta struct {
	RunID             string   `json:"run_id"`
	Iteration         int      `json:"iteration"`
	Profile           string   `json:"profile"`
	SiteMode          string   `json:"site_mode"`
	StartTime         string   `json:"start_time"`
	EndTime           string   `json:"end_time"`
	ExtractedWPM      *float64 `json:"extracted_wpm"`
	ExtractedAccuracy *float64 `json:"extracted_accuracy"`
	ComputedWPM       float64  `json:"computed_wpm"`
	KeystrokesCount   int      `json:"keystrokes_count"`
}

// RunRecord is the persisted per-run artifact: metadata, the full keystroke
// log, and a sample of the text that was actually typed.
//
// Invariant: len(KeystrokeLog) == Meta.KeystrokesCount.
type RunRecord struct {
	Meta             RunMeta          `json:"meta"`
	KeystrokeLog     []KeystrokeEvent `json:"keystroke_log"`
	TargetTextSample string           `json:"target_text_sample"`
}

// TargetTextSampleLimit caps the length of the text sample stored in a run
// record.
const TargetTextSampleLimit = 400

// FallbackWPM derives a words-per-minute figure directly from a keystroke
// log, for when the page offers no readable result. Duration is floored at
// 1ms so a burst of events in the same instant does not divide by zero.
func FallbackWPM(log []KeystrokeEvent, typedChars int) float64 {
	if len(log) < 2 {
		return 0
	}
	duration := log[len(log)-1].Timestamp - log[0].Timestamp
	if duration < 0.001 {
		duration = 0.001
	}
	minutes := duration / 60.0
	return (float64(typedChars) / 5.0) / minutes
}
