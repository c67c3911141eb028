// Package browser drives a Chromium page through chromedp, implementing
// the engine's Perception and Actuator capabilities: screenshot capture,
// template search, and simulated mouse/keyboard input.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"ocular/internal/logging"
	"ocular/pkg/flow"
	"ocular/pkg/vision"
)

// Options configures the browser session.
type Options struct {
	Headless bool
	Width    int
	Height   int
}

// Browser is a live Chromium session. Template searches run through an
// embedded vision.Service, so Browser satisfies both flow.Perception and
// flow.Actuator.
type Browser struct {
	*vision.Service

	ctx     context.Context
	cancels []context.CancelFunc
	logger  *slog.Logger

	mu           sync.Mutex
	lastX, lastY float64
}

var _ flow.Perception = (*Browser)(nil)
var _ flow.Actuator = (*Browser)(nil)

// New launches a browser session. Close must be called to release it.
func New(ctx context.Context, opts Options) (*Browser, error) {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if opts.Width > 0 && opts.Height > 0 {
		flags = append(flags, chromedp.WindowSize(opts.Width, opts.Height))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, flags...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	b := &Browser{
		Service: vision.NewService(),
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		logger:  logging.New("browser"),
	}

	// Force the browser process up before the first capture.
	if err := chromedp.Run(browserCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	return b, nil
}

// Close tears the session down.
func (b *Browser) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

// Navigate loads a URL and waits for the document body.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(b.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// CaptureFrame grabs a screenshot. An empty target captures the viewport;
// otherwise target is a CSS selector and only that element is captured.
func (b *Browser) CaptureFrame(ctx context.Context, target string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf []byte
	var action chromedp.Action
	if target == "" {
		action = chromedp.CaptureScreenshot(&buf)
	} else {
		action = chromedp.Screenshot(target, &buf, chromedp.NodeVisible)
	}
	if err := chromedp.Run(b.ctx, action); err != nil {
		return nil, fmt.Errorf("browser: capture: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("browser: decode screenshot: %w", err)
	}
	return img, nil
}

// MoveCursor dispatches a mouse-move to the given viewport coordinates.
func (b *Browser) MoveCursor(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fx, fy := float64(x), float64(y)
	err := chromedp.Run(b.ctx, chromedp.ActionFunc(func(c context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, fx, fy).Do(c)
	}))
	if err != nil {
		return fmt.Errorf("browser: move cursor: %w", err)
	}
	b.mu.Lock()
	b.lastX, b.lastY = fx, fy
	b.mu.Unlock()
	return nil
}

// Click presses the given button at the current cursor position.
func (b *Browser) Click(ctx context.Context, button flow.MouseButton) error {
	return b.click(ctx, button, 1)
}

// DoubleClick performs a left double click at the current cursor position.
func (b *Browser) DoubleClick(ctx context.Context) error {
	return b.click(ctx, flow.LeftButton, 2)
}

func (b *Browser) click(ctx context.Context, button flow.MouseButton, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	x, y := b.lastX, b.lastY
	b.mu.Unlock()

	var btn input.MouseButton
	switch button {
	case flow.RightButton:
		btn = input.Right
	case flow.MiddleButton:
		btn = input.Middle
	default:
		btn = input.Left
	}

	err := chromedp.Run(b.ctx,
		chromedp.MouseClickXY(x, y, chromedp.ButtonType(btn), chromedp.ClickCount(count)),
	)
	if err != nil {
		return fmt.Errorf("browser: click %s: %w", button, err)
	}
	b.logger.Debug("click dispatched", "x", x, "y", y, "button", string(button), "count", count)
	return nil
}

// KeyPress sends a single named key (Enter, Tab, Escape, Delete,
// Backspace) or a literal character.
func (b *Browser) KeyPress(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(b.ctx, chromedp.KeyEvent(keyString(key))); err != nil {
		return fmt.Errorf("browser: key press %q: %w", key, err)
	}
	return nil
}

// TypeText types text one rune at a time, pausing perKeyDelay between
// keystrokes.
func (b *Browser) TypeText(ctx context.Context, text string, perKeyDelay time.Duration) error {
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := chromedp.Run(b.ctx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("browser: type text: %w", err)
		}
		if perKeyDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(perKeyDelay):
			}
		}
	}
	return nil
}

// KeyCombination presses a chord such as ["ctrl", "a"]: every element but
// the last must be a modifier.
func (b *Browser) KeyCombination(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	var mods []input.Modifier
	for _, k := range keys[:len(keys)-1] {
		m, ok := modifier(k)
		if !ok {
			return fmt.Errorf("browser: key combination: %q is not a modifier", k)
		}
		mods = append(mods, m)
	}
	key := keyString(keys[len(keys)-1])

	if err := chromedp.Run(b.ctx, chromedp.KeyEvent(key, chromedp.KeyModifiers(mods...))); err != nil {
		return fmt.Errorf("browser: key combination %v: %w", keys, err)
	}
	return nil
}

// keyString maps a friendly key name onto the kb package's key runes.
func keyString(key string) string {
	switch key {
	case "Enter", "enter":
		return kb.Enter
	case "Tab", "tab":
		return kb.Tab
	case "Escape", "escape", "esc":
		return kb.Escape
	case "Delete", "delete", "del":
		return kb.Delete
	case "Backspace", "backspace":
		return kb.Backspace
	default:
		return key
	}
}

func modifier(name string) (input.Modifier, bool) {
	switch name {
	case "ctrl", "control":
		return input.ModifierCtrl, true
	case "alt":
		return input.ModifierAlt, true
	case "shift":
		return input.ModifierShift, true
	case "meta", "cmd":
		return input.ModifierMeta, true
	default:
		return 0, false
	}
}
