package typist

import (
	"context"
	"sync"
	"time"
)

// fakeDriver records everything emitted through it. Individual methods can be
// overridden per test via the Mock* function fields.
type fakeDriver struct {
	mu       sync.Mutex
	focused  []string
	chars    []string
	keys     []string
	pageText map[string]string

	MockFocus    func(ctx context.Context, selector string) error
	MockEmitChar func(ctx context.Context, ch rune) error
	MockEmitKey  func(ctx context.Context, name string) error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{pageText: map[string]string{}}
}

func (d *fakeDriver) Focus(ctx context.Context, selector string) error {
	d.mu.Lock()
	d.focused = append(d.focused, selector)
	d.mu.Unlock()
	if d.MockFocus != nil {
		return d.MockFocus(ctx, selector)
	}
	return nil
}

func (d *fakeDriver) EmitChar(ctx context.Context, ch rune) error {
	d.mu.Lock()
	d.chars = append(d.chars, string(ch))
	d.mu.Unlock()
	if d.MockEmitChar != nil {
		return d.MockEmitChar(ctx, ch)
	}
	return nil
}

func (d *fakeDriver) EmitKey(ctx context.Context, name string) error {
	d.mu.Lock()
	d.keys = append(d.keys, name)
	d.mu.Unlock()
	if d.MockEmitKey != nil {
		return d.MockEmitKey(ctx, name)
	}
	return nil
}

func (d *fakeDriver) ReadText(ctx context.Context, selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageText[selector], nil
}

func (d *fakeDriver) sentChars() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.chars))
	copy(out, d.chars)
	return out
}

// fakeClock hands out a synthetic monotonic time. Every Now call advances
// time by one millisecond to model emission latency; Sleep advances it by the
// full requested duration without blocking.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return nil
}
