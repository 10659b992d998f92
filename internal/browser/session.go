// File: internal/browser/session.go

// Package browser owns the chromedp session: browser process lifecycle,
// navigation, and the low-level keystroke/readback primitives the typist
// drives through its Driver interface.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keytrace-cli/internal/config"
)

// Session wraps a single Chrome tab. It implements typist.Driver.
type Session struct {
	cfg       config.BrowserConfig
	selectors config.SelectorsConfig
	logger    *zap.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewSession launches a browser instance and opens a fresh tab.
// Close must be called to release the browser process.
func NewSession(ctx context.Context, cfg config.BrowserConfig, selectors config.SelectorsConfig, logger *zap.Logger) (*Session, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	log := logger.Named("browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Warnf),
	)

	s := &Session{
		cfg:         cfg,
		selectors:   selectors,
		logger:      log,
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
	}

	// Start the browser process eagerly so launch failures surface here
	// rather than on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: failed to launch: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// Navigate loads url and waits for the document body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := s.actionContext(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("browser: failed to navigate to %s: %w", url, err)
	}
	s.logger.Info("Navigation complete.", zap.String("url", url))
	return nil
}

// Focus acquires the typing target. An empty selector focuses the document
// body. A click on the body is attempted once before retrying the selector,
// since some pages only attach their hidden input after a user gesture.
func (s *Session) Focus(ctx context.Context, selector string) error {
	actCtx, cancel := s.actionContext(ctx, s.cfg.ActionTimeout)
	defer cancel()

	if selector == "" {
		selector = "body"
	}
	err := chromedp.Run(actCtx, chromedp.Focus(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}

	s.logger.Debug("Direct focus failed; clicking body and retrying.",
		zap.String("selector", selector), zap.Error(err))
	retryCtx, retryCancel := s.actionContext(ctx, s.cfg.ActionTimeout)
	defer retryCancel()
	err = chromedp.Run(retryCtx,
		chromedp.Click("body", chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("focus %q: %w", selector, err)
	}
	return nil
}

// EmitChar delivers one printable character through the CDP input domain,
// falling back to a synthetic KeyboardEvent dispatched from script when the
// trusted path fails.
func (s *Session) EmitChar(ctx context.Context, ch rune) error {
	actCtx, cancel := s.actionContext(ctx, s.cfg.ActionTimeout)
	defer cancel()

	err := chromedp.Run(actCtx, chromedp.KeyEvent(string(ch)))
	if err == nil {
		return nil
	}

	s.logger.Debug("KeyEvent failed; dispatching synthetic event.",
		zap.String("char", string(ch)), zap.Error(err))
	fbCtx, fbCancel := s.actionContext(ctx, s.cfg.ActionTimeout)
	defer fbCancel()
	script := fmt.Sprintf(`(() => {
		const el = document.activeElement || document.body;
		const ev = new KeyboardEvent('keydown', {key: %q, bubbles: true});
		el.dispatchEvent(ev);
		el.dispatchEvent(new KeyboardEvent('keyup', {key: %q, bubbles: true}));
		return true;
	})()`, string(ch), string(ch))
	var ok bool
	if fbErr := chromedp.Run(fbCtx, chromedp.Evaluate(script, &ok)); fbErr != nil {
		return fmt.Errorf("emit char %q: %w", string(ch), err)
	}
	return nil
}

// EmitKey delivers a named control key such as "Backspace" or "Enter" as a
// raw down/up pair. Raw CDP events carry the virtual key codes some pages
// require to register a control key at all.
func (s *Session) EmitKey(ctx context.Context, name string) error {
	def, ok := controlKeys[name]
	if !ok {
		return fmt.Errorf("emit key: unknown control key %q", name)
	}

	actCtx, cancel := s.actionContext(ctx, s.cfg.ActionTimeout)
	defer cancel()

	err := chromedp.Run(actCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		down := input.DispatchKeyEvent(input.KeyRawDown).
			WithKey(def.key).
			WithCode(def.code).
			WithWindowsVirtualKeyCode(def.virtualKey).
			WithNativeVirtualKeyCode(def.virtualKey)
		if err := down.Do(ctx); err != nil {
			return err
		}
		up := input.DispatchKeyEvent(input.KeyUp).
			WithKey(def.key).
			WithCode(def.code).
			WithWindowsVirtualKeyCode(def.virtualKey).
			WithNativeVirtualKeyCode(def.virtualKey)
		return up.Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("emit key %q: %w", name, err)
	}
	return nil
}

// controlKeyDef carries the CDP identity of a named control key.
type controlKeyDef struct {
	key        string
	code       string
	virtualKey int64
}

// controlKeys maps the data model's key names onto CDP key events.
var controlKeys = map[string]controlKeyDef{
	"Backspace": {key: "Backspace", code: "Backspace", virtualKey: 8},
	"Tab":       {key: "Tab", code: "Tab", virtualKey: 9},
	"Enter":     {key: "Enter", code: "Enter", virtualKey: 13},
	"Shift":     {key: "Shift", code: "ShiftLeft", virtualKey: 16},
}

// ReadText returns the innerText under selector, or "" when nothing matches.
func (s *Session) ReadText(ctx context.Context, selector string) (string, error) {
	actCtx, cancel := s.actionContext(ctx, s.cfg.ActionTimeout)
	defer cancel()

	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.innerText : "";
	})()`, selector)
	var text string
	if err := chromedp.Run(actCtx, chromedp.Evaluate(script, &text)); err != nil {
		return "", fmt.Errorf("read text %q: %w", selector, err)
	}
	return text, nil
}

// Close tears down the tab and the browser process.
func (s *Session) Close() {
	// chromedp.Cancel waits for the browser to exit cleanly where possible.
	if err := chromedp.Cancel(s.ctx); err != nil {
		s.logger.Debug("Graceful browser cancel failed.", zap.Error(err))
	}
	s.cancel()
	s.allocCancel()
	s.logger.Info("Browser session closed.")
}

// actionContext derives a timeout-bounded context from the session's tab
// context while still honoring cancellation of the caller's context. chromedp
// actions must run against the tab context, not the caller's, so the caller's
// cancellation is bridged over.
func (s *Session) actionContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var derived context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		derived, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		derived, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return derived, func() {
		stop()
		cancel()
	}
}
