// Package playwright provides the reference Executor implementation over a
// playwright-driven Chromium instance. It is what cmd/webpilot runs; any
// other automation backend can replace it by implementing the executor
// interface.
package playwright

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/executor"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

const (
	// DefaultViewportWidth is the browser viewport width in CSS pixels.
	DefaultViewportWidth = 1280
	// DefaultViewportHeight is the browser viewport height in CSS pixels.
	DefaultViewportHeight = 800

	// defaultTimeoutMS bounds individual playwright operations.
	defaultTimeoutMS = 15000
)

// Executor drives one Chromium page via playwright.
type Executor struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	browserCtx playwright.BrowserContext
	page       playwright.Page

	headless bool
	viewport types.Viewport
}

// Option configures the executor before launch.
type Option func(*Executor)

// WithHeadless controls whether the browser window is shown.
func WithHeadless(headless bool) Option {
	return func(e *Executor) {
		e.headless = headless
	}
}

// WithViewport overrides the default viewport size.
func WithViewport(width, height int) Option {
	return func(e *Executor) {
		if width > 0 && height > 0 {
			e.viewport = types.Viewport{Width: width, Height: height}
		}
	}
}

// New installs playwright if needed, launches Chromium, and opens one page.
func New(opts ...Option) (*Executor, error) {
	e := &Executor{
		headless: true,
		viewport: types.Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
	}
	for _, opt := range opts {
		opt(e)
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	e.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &e.headless,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	e.browser = browser

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  e.viewport.Width,
			Height: e.viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	e.browserCtx = browserCtx

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(defaultTimeoutMS)
	e.page = page

	return e, nil
}

// Open navigates the page to a starting URL before the session begins.
func (e *Executor) Open(url string) error {
	_, err := e.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Close tears down the page, context, browser, and playwright driver.
func (e *Executor) Close() error {
	_ = e.page.Close()
	_ = e.browserCtx.Close()
	_ = e.browser.Close()
	return e.pw.Stop()
}

// Ping verifies the page is still alive.
func (e *Executor) Ping(ctx context.Context) error {
	if e.page.IsClosed() {
		return fmt.Errorf("page is closed")
	}
	if _, err := e.page.Evaluate("1"); err != nil {
		return fmt.Errorf("page unresponsive: %w", err)
	}
	return nil
}

// pageStateScript harvests everything observable in one round trip:
// viewport, scroll bounds, interactive elements with generated selectors,
// a text excerpt, and a coarse structural signature.
const pageStateScript = `() => {
	const doc = document.documentElement;
	const maxX = Math.max(0, doc.scrollWidth - window.innerWidth);
	const maxY = Math.max(0, doc.scrollHeight - window.innerHeight);

	const selectorFor = (el, i) => {
		if (el.id) return '#' + CSS.escape(el.id);
		if (!el.hasAttribute('data-wp-id')) el.setAttribute('data-wp-id', String(i));
		return '[data-wp-id="' + el.getAttribute('data-wp-id') + '"]';
	};

	const visible = (el) => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		if (r.bottom < 0 || r.top > window.innerHeight) return false;
		return true;
	};

	const nodes = document.querySelectorAll(
		'a[href], button, input, select, textarea, [role="button"], [role="link"], [onclick]');
	const elements = [];
	let i = 0;
	for (const el of nodes) {
		if (!visible(el)) continue;
		elements.push({
			id: elements.length,
			tag: el.tagName.toLowerCase(),
			role: el.getAttribute('role') || '',
			label: (el.labels && el.labels[0] ? el.labels[0].innerText : '').trim().slice(0, 120),
			text: (el.innerText || el.value || '').trim().slice(0, 120),
			placeholder: el.getAttribute('placeholder') || '',
			ariaLabel: el.getAttribute('aria-label') || '',
			selector: selectorFor(el, i++),
		});
	}

	const tagCounts = {};
	for (const el of document.body.querySelectorAll('*')) {
		tagCounts[el.tagName] = (tagCounts[el.tagName] || 0) + 1;
	}

	return {
		viewportWidth: window.innerWidth,
		viewportHeight: window.innerHeight,
		scrollX: Math.round(window.scrollX),
		scrollY: Math.round(window.scrollY),
		maxX: maxX,
		maxY: maxY,
		elements: elements,
		text: (document.body.innerText || '').slice(0, 4000),
		signature: JSON.stringify(tagCounts),
	};
}`

// GetPageState captures the current observation, including a screenshot.
func (e *Executor) GetPageState(ctx context.Context) (*types.Observation, error) {
	raw, err := e.page.Evaluate(pageStateScript)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate page state: %w", err)
	}
	state, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected page state shape %T", raw)
	}

	title, err := e.page.Title()
	if err != nil {
		return nil, fmt.Errorf("failed to read title: %w", err)
	}

	obs := &types.Observation{
		URL:        e.page.URL(),
		Title:      title,
		CapturedAt: time.Now(),
		Viewport: types.Viewport{
			Width:  asInt(state["viewportWidth"]),
			Height: asInt(state["viewportHeight"]),
		},
		TextExcerpt:  asString(state["text"]),
		DOMSignature: asString(state["signature"]),
	}

	scrollY := asInt(state["scrollY"])
	maxY := asInt(state["maxY"])
	obs.Scroll = types.ScrollState{
		X:        asInt(state["scrollX"]),
		Y:        scrollY,
		MaxX:     asInt(state["maxX"]),
		MaxY:     maxY,
		AtTop:    scrollY <= 0,
		AtBottom: scrollY >= maxY,
	}

	if rawElements, ok := state["elements"].([]interface{}); ok {
		for _, re := range rawElements {
			em, ok := re.(map[string]interface{})
			if !ok {
				continue
			}
			obs.Elements = append(obs.Elements, types.Element{
				ID:          asInt(em["id"]),
				Tag:         asString(em["tag"]),
				Role:        asString(em["role"]),
				Label:       asString(em["label"]),
				Text:        asString(em["text"]),
				Placeholder: asString(em["placeholder"]),
				AriaLabel:   asString(em["ariaLabel"]),
				Selector:    asString(em["selector"]),
			})
		}
	}

	if shot, err := e.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	}); err == nil {
		sum := sha256.Sum256(shot)
		obs.Screenshot = &types.Screenshot{
			Data: shot,
			MIME: "image/png",
			Hash: hex.EncodeToString(sum[:]),
		}
	}

	return obs, nil
}

// PerformAction executes one normalized action. Element-level failures are
// returned as non-OK results, not errors; the session continues.
func (e *Executor) PerformAction(ctx context.Context, action *types.Action) (*executor.Result, error) {
	var err error
	switch action.Type {
	case types.ActionClick:
		err = e.page.Click(action.Selector, playwright.PageClickOptions{})

	case types.ActionClickAt:
		x, y := action.X, action.Y
		if action.Normalized {
			x *= float64(e.viewport.Width)
			y *= float64(e.viewport.Height)
		}
		steps := action.MoveSteps
		if moveErr := e.page.Mouse().Move(x, y, playwright.MouseMoveOptions{
			Steps: &steps,
		}); moveErr != nil {
			err = moveErr
			break
		}
		err = e.page.Mouse().Click(x, y)

	case types.ActionTypeText:
		if err = e.page.Fill(action.Selector, action.Text, playwright.PageFillOptions{}); err != nil {
			break
		}
		if action.PressEnter {
			err = e.page.Keyboard().Press("Enter")
		}

	case types.ActionScroll:
		_, err = e.page.Evaluate(
			"([dx, dy]) => window.scrollBy({left: dx, top: dy, behavior: 'instant'})",
			[]int{action.DeltaX, action.DeltaY},
		)

	case types.ActionKeypress:
		if action.Selector != "" {
			err = e.page.Press(action.Selector, action.Key)
		} else {
			err = e.page.Keyboard().Press(action.Key)
		}

	case types.ActionNavigate:
		_, err = e.page.Goto(action.URL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
		})

	case types.ActionNewTab:
		var page playwright.Page
		page, err = e.browserCtx.NewPage()
		if err != nil {
			break
		}
		page.SetDefaultTimeout(defaultTimeoutMS)
		if _, err = page.Goto(action.URL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
		}); err != nil {
			_ = page.Close()
			break
		}
		// The new tab becomes the active page for all further actions.
		e.page = page

	case types.ActionWait:
		e.page.WaitForTimeout(float64(action.DurationMS))

	case types.ActionFinish:
		// Nothing to do in the browser.

	default:
		return &executor.Result{OK: false, Message: fmt.Sprintf("unsupported action %s", action.Type)}, nil
	}

	if err != nil {
		return &executor.Result{OK: false, Message: err.Error()}, nil
	}
	return &executor.Result{OK: true}, nil
}

// SetRunningIndicator paints a small fixed badge on the page while the
// session runs. Best effort only.
func (e *Executor) SetRunningIndicator(ctx context.Context, active bool, step int) error {
	script := `([active, step]) => {
		let badge = document.getElementById('__webpilot_badge');
		if (!active) { if (badge) badge.remove(); return; }
		if (!badge) {
			badge = document.createElement('div');
			badge.id = '__webpilot_badge';
			badge.style.cssText = 'position:fixed;top:8px;right:8px;z-index:2147483647;' +
				'background:#1a73e8;color:#fff;padding:4px 10px;border-radius:12px;' +
				'font:12px sans-serif;pointer-events:none';
			document.body.appendChild(badge);
		}
		badge.textContent = 'webpilot step ' + step;
	}`
	_, err := e.page.Evaluate(script, []interface{}{active, step})
	return err
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
