// Package harness runs typing iterations end to end: acquire the target text,
// generate the keystroke trace, read the page's own results, and persist the
// run record. Iterations are strictly sequential and individually isolated; a
// failed iteration is logged and the next one proceeds.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keytrace-cli/api/schemas"
	"github.com/xkilldash9x/keytrace-cli/internal/browser"
	"github.com/xkilldash9x/keytrace-cli/internal/config"
	"github.com/xkilldash9x/keytrace-cli/internal/runlog"
	"github.com/xkilldash9x/keytrace-cli/internal/textprep"
	"github.com/xkilldash9x/keytrace-cli/internal/typist"
)

// Page is the surface the harness needs from a browser session. It extends
// the typist's Driver with navigation and result readback so the whole run
// can be exercised against an in-memory fake.
type Page interface {
	typist.Driver
	Navigate(ctx context.Context, url string) error
	SelectSiteMode(ctx context.Context, mode string) error
	ReadResults(ctx context.Context) browser.Results
}

// Harness owns one browser page and runs the configured number of iterations
// against it.
type Harness struct {
	cfg    *config.Config
	page   Page
	typ    *typist.Typist
	store  *runlog.Store
	logger *zap.Logger

	now      func() time.Time
	newRunID func() string
	sleep    typist.SleepFunc
}

// New wires a production harness around a page, a typist driving that same
// page, and a run store.
func New(cfg *config.Config, page Page, typ *typist.Typist, store *runlog.Store, logger *zap.Logger) *Harness {
	return &Harness{
		cfg:      cfg,
		page:     page,
		typ:      typ,
		store:    store,
		logger:   logger.Named("harness"),
		now:      time.Now,
		newRunID: uuid.NewString,
		sleep:    sleepContext,
	}
}

// NewTestHarness injects clock, run-id, and sleep hooks for deterministic
// tests.
func NewTestHarness(cfg *config.Config, page Page, typ *typist.Typist, store *runlog.Store, now func() time.Time, newRunID func() string, sleep typist.SleepFunc) *Harness {
	return &Harness{
		cfg:      cfg,
		page:     page,
		typ:      typ,
		store:    store,
		logger:   zap.NewNop(),
		now:      now,
		newRunID: newRunID,
		sleep:    sleep,
	}
}

// Run navigates to the target once, then executes the configured iterations
// sequentially. Context cancellation stops new iterations from starting; the
// iteration in flight is interrupted through the same context. Run fails only
// when setup fails or no iteration succeeds.
func (h *Harness) Run(ctx context.Context) error {
	profile, err := typist.ParseProfile(h.cfg.Typing.Profile)
	if err != nil {
		return err
	}

	if err := h.page.Navigate(ctx, h.cfg.Target.URL); err != nil {
		return fmt.Errorf("harness: %w", err)
	}
	if err := h.page.SelectSiteMode(ctx, h.cfg.Target.SiteMode); err != nil {
		h.logger.Warn("Site mode selection failed; continuing in page default.",
			zap.String("mode", h.cfg.Target.SiteMode), zap.Error(err))
	}

	succeeded := 0
	for iteration := 1; iteration <= h.cfg.Run.Iterations; iteration++ {
		if ctx.Err() != nil {
			h.logger.Info("Run interrupted; not starting further iterations.",
				zap.Int("completed", succeeded))
			break
		}

		log := h.logger.With(zap.Int("iteration", iteration))
		log.Info("Starting iteration.", zap.String("profile", string(profile)))

		if err := h.runOnce(ctx, iteration, profile); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Warn("Iteration interrupted.", zap.Error(err))
				break
			}
			log.Error("Iteration failed.", zap.Error(err))
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return fmt.Errorf("harness: all %d iteration(s) failed", h.cfg.Run.Iterations)
	}
	h.logger.Info("Run complete.",
		zap.Int("succeeded", succeeded), zap.Int("requested", h.cfg.Run.Iterations))
	return nil
}

// runOnce executes a single iteration: text acquisition, trace generation,
// settle wait, result readback, persistence.
func (h *Harness) runOnce(ctx context.Context, iteration int, profile typist.Profile) error {
	text, err := h.acquireText(ctx)
	if err != nil {
		return err
	}

	params := typist.Params{
		InputSelector: h.cfg.Selectors.HiddenInput,
		DelayMin:      h.cfg.Typing.DelayMin,
		DelayMax:      h.cfg.Typing.DelayMax,
		FixedDelay:    h.cfg.Typing.FixedDelay,
		MaxChars:      h.cfg.Typing.MaxChars,
	}

	startTime := h.now()
	events, typed, err := h.typ.Generate(ctx, text, profile, params)
	if err != nil {
		return err
	}

	// Give the page time to register the last keystroke before reading its
	// counters.
	if err := h.sleep(ctx, h.cfg.Target.SettleWait); err != nil {
		return err
	}
	results := h.page.ReadResults(ctx)
	endTime := h.now()

	computedWPM := schemas.FallbackWPM(events, typed)
	extractedWPM := results.WPM
	if extractedWPM == nil {
		// The page offered no readable result; fall back to our own figure so
		// the summary always carries a WPM.
		extractedWPM = &computedWPM
	}

	meta := schemas.RunMeta{
		RunID:             h.newRunID(),
		Iteration:         iteration,
		Profile:           string(profile),
		SiteMode:          h.cfg.Target.SiteMode,
		StartTime:         startTime.UTC().Format(time.RFC3339),
		EndTime:           endTime.UTC().Format(time.RFC3339),
		ExtractedWPM:      extractedWPM,
		ExtractedAccuracy: results.Accuracy,
		ComputedWPM:       computedWPM,
		KeystrokesCount:   len(events),
	}
	record := schemas.RunRecord{
		Meta:             meta,
		KeystrokeLog:     events,
		TargetTextSample: sampleText(text),
	}

	jsonFile, err := h.store.WriteRecord(record, startTime)
	if err != nil {
		return err
	}
	if err := h.store.AppendSummary(meta, jsonFile); err != nil {
		return err
	}

	h.logger.Info("Iteration persisted.",
		zap.Int("iteration", iteration),
		zap.String("run_id", meta.RunID),
		zap.String("json_file", jsonFile),
		zap.Int("keystrokes", len(events)),
		zap.Float64("computed_wpm", computedWPM))
	return nil
}

// acquireText reads the target text from the configured selector, falling
// back to the page's main content and then the whole body. Whitespace-only
// text counts as unavailable.
func (h *Harness) acquireText(ctx context.Context) (string, error) {
	selectors := []string{h.cfg.Selectors.TargetText, "main", "body"}
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		raw, err := h.page.ReadText(ctx, sel)
		if err != nil {
			h.logger.Debug("Target text read failed.",
				zap.String("selector", sel), zap.Error(err))
			continue
		}
		if text := textprep.Normalize(raw); text != "" {
			return text, nil
		}
	}
	return "", typist.ErrTargetTextUnavailable
}

// sampleText truncates the normalized target text to the stored sample limit.
func sampleText(text string) string {
	runes := []rune(text)
	if len(runes) > schemas.TargetTextSampleLimit {
		runes = runes[:schemas.TargetTextSampleLimit]
	}
	return string(runes)
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
