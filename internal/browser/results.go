// File: internal/browser/results.go
package browser

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// decimalPattern matches the first decimal number in a result widget's text,
// e.g. "87.5 WPM" or "Accuracy: 96%".
var decimalPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// Results holds the page's own view of the run. Either field may be nil when
// the corresponding widget was absent or unreadable.
type Results struct {
	WPM      *float64
	Accuracy *float64
}

// ReadResults scrapes the WPM and accuracy widgets. Missing or unparsable
// widgets are logged and left nil; scraping never fails the run.
func (s *Session) ReadResults(ctx context.Context) Results {
	return Results{
		WPM:      s.readMetric(ctx, "wpm", s.selectors.ResultWPM),
		Accuracy: s.readMetric(ctx, "accuracy", s.selectors.ResultAccuracy),
	}
}

func (s *Session) readMetric(ctx context.Context, name, selector string) *float64 {
	if selector == "" {
		return nil
	}
	text, err := s.ReadText(ctx, selector)
	if err != nil {
		s.logger.Warn("Failed to read result widget.",
			zap.String("metric", name), zap.Error(err))
		return nil
	}
	value, err := parseFirstDecimal(text)
	if err != nil {
		s.logger.Debug("Result widget held no number.",
			zap.String("metric", name), zap.String("text", text))
		return nil
	}
	return &value
}

// parseFirstDecimal extracts the first decimal number from s.
func parseFirstDecimal(s string) (float64, error) {
	match := decimalPattern.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("no decimal number in %q", s)
	}
	return strconv.ParseFloat(match, 64)
}

// SelectSiteMode clicks the mode tab whose label matches mode
// (case-insensitive). Best effort: an error is returned for logging but the
// run proceeds in whatever mode the page is in.
func (s *Session) SelectSiteMode(ctx context.Context, mode string) error {
	if mode == "" || strings.EqualFold(mode, "standard") {
		// Standard is the page default; nothing to click.
		return nil
	}

	actCtx, cancel := s.actionContext(ctx, s.cfg.ActionTimeout)
	defer cancel()

	script := fmt.Sprintf(`(() => {
		const want = %q.toLowerCase();
		const candidates = document.querySelectorAll('button, [role="tab"], a');
		for (const el of candidates) {
			if ((el.innerText || "").trim().toLowerCase() === want) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, mode)
	var clicked bool
	if err := chromedp.Run(actCtx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("select site mode %q: %w", mode, err)
	}
	if !clicked {
		return fmt.Errorf("select site mode %q: no matching control on page", mode)
	}
	s.logger.Info("Site mode selected.", zap.String("mode", mode))
	return nil
}
