// Package features derives statistical fingerprints from recorded keystroke
// traces: speed, rhythm, burstiness, and error correction signals that
// separate human typing from scripted input.
package features

import (
	"github.com/xkilldash9x/keytrace-cli/api/schemas"
)

// burstThresholdMs is the inter-key interval below which timing is considered
// inhuman. Fixed, matching observed behavior.
const burstThresholdMs = 30.0

// wordLength is the standard typing-test convention: one word = 5 characters.
const wordLength = 5.0

// Record is one run's feature row. Derived purely from run metadata plus its
// keystroke log; recomputation from the same inputs is always identical.
type Record struct {
	JSONFile          string
	Profile           string
	SiteMode          string
	StartTime         string
	EndTime           string
	CharsTyped        int
	DurationS         float64
	ComputedWPM       float64
	MeanIKIMs         float64
	StdIKIMs          float64
	MedianIKIMs       float64
	MinIKIMs          float64
	MaxIKIMs          float64
	BackspaceCount    int
	BackspaceRate     float64
	BurstFraction     float64
	AutocorrLag1      float64
	ExtractedWPM      *float64
	ExtractedAccuracy *float64
}

// Extract computes the feature record for one run. It is pure and
// deterministic: no randomness, no I/O, no dependence on extraction order.
func Extract(meta schemas.RunMeta, events []schemas.KeystrokeEvent) Record {
	// Backspace timestamps are excluded from interval computation; the
	// cadence of interest is between intended key presses.
	timestamps := make([]float64, 0, len(events))
	charsTyped := 0
	backspaces := 0
	for _, ev := range events {
		if ev.Action == schemas.ActionBackspace {
			backspaces++
		} else {
			timestamps = append(timestamps, ev.Timestamp)
		}
		if !ev.IsControlKey() {
			charsTyped++
		}
	}

	ikis := interKeyIntervals(timestamps)

	var durationS float64
	if len(timestamps) >= 2 {
		durationS = timestamps[len(timestamps)-1] - timestamps[0]
	}

	var computedWPM float64
	if durationS > 0 {
		computedWPM = (float64(charsTyped) / wordLength) / (durationS / 60.0)
	}

	var backspaceRate float64
	if charsTyped > 0 {
		backspaceRate = float64(backspaces) / float64(charsTyped)
	}

	var burstFraction float64
	if len(ikis) > 0 {
		bursts := 0
		for _, iki := range ikis {
			if iki < burstThresholdMs {
				bursts++
			}
		}
		burstFraction = float64(bursts) / float64(len(ikis))
	}

	lo, hi := minMax(ikis)

	return Record{
		Profile:           meta.Profile,
		SiteMode:          meta.SiteMode,
		StartTime:         meta.StartTime,
		EndTime:           meta.EndTime,
		CharsTyped:        charsTyped,
		DurationS:         durationS,
		ComputedWPM:       computedWPM,
		MeanIKIMs:         mean(ikis),
		StdIKIMs:          populationStdDev(ikis),
		MedianIKIMs:       median(ikis),
		MinIKIMs:          lo,
		MaxIKIMs:          hi,
		BackspaceCount:    backspaces,
		BackspaceRate:     backspaceRate,
		BurstFraction:     burstFraction,
		AutocorrLag1:      autocorrLag1(ikis),
		ExtractedWPM:      meta.ExtractedWPM,
		ExtractedAccuracy: meta.ExtractedAccuracy,
	}
}
