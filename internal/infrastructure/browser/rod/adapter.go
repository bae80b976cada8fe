package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/domain/entity"
	"webtask-agent/internal/infrastructure/browser/snapshot"
)

var _ output.EnvironmentPort = (*EnvironmentAdapter)(nil)

const (
	maxElements  = 300
	maxTextLines = 120
)

// EnvironmentAdapter executes validated actions against a real
// browser and renders the resulting page as an accessibility-style
// observation. Element ids are assigned per snapshot; the model's
// next action refers to the ids of the observation it just saw.
type EnvironmentAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    []*rod.Page
	active   int
	timeout  time.Duration
	logger   output.LoggerPort

	handles map[int]*rod.Element

	screenshotDir string
	shotCounter   int
}

type Config struct {
	Headless      bool
	SlowMotion    time.Duration
	Timeout       time.Duration
	NoSandbox     bool
	ScreenshotDir string
	Logger        output.LoggerPort
}

func DefaultConfig() Config {
	return Config{
		Headless:   true,
		SlowMotion: 500 * time.Millisecond,
		Timeout:    10 * time.Second,
		NoSandbox:  true,
	}
}

func NewEnvironmentAdapter(ctx context.Context, cfg Config) (*EnvironmentAdapter, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-setuid-sandbox")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open initial page: %w", err)
	}

	return &EnvironmentAdapter{
		browser:       browser,
		launcher:      l,
		pages:         []*rod.Page{page},
		timeout:       cfg.Timeout,
		logger:        cfg.Logger,
		handles:       make(map[int]*rod.Element),
		screenshotDir: cfg.ScreenshotDir,
	}, nil
}

// Execute dispatches one action and returns the fresh observation.
// Recoverable failures (unknown element id, navigation timeouts) come
// back as plain errors; losing the last tab or the browser connection
// is wrapped as *entity.FatalEnvironmentError.
func (e *EnvironmentAdapter) Execute(ctx context.Context, action entity.Action) (string, error) {
	if err := e.dispatch(ctx, action); err != nil {
		return "", err
	}

	e.saveScreenshot()

	obs, err := e.Observe(ctx)
	if err != nil {
		return "", err
	}
	return obs, nil
}

func (e *EnvironmentAdapter) dispatch(ctx context.Context, action entity.Action) error {
	page := e.page()
	if page == nil {
		return &entity.FatalEnvironmentError{Err: fmt.Errorf("no open tab")}
	}

	switch action.Kind {
	case entity.ActionGoto:
		if err := page.Navigate(action.Target); err != nil {
			return fmt.Errorf("navigation failed: %w", err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("page did not load: %w", err)
		}
		page.WaitIdle(5 * time.Second)
		return nil

	case entity.ActionClick:
		el, err := e.resolve(action.Target)
		if err != nil {
			return err
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click failed: %w", err)
		}
		page.WaitIdle(2 * time.Second)
		return nil

	case entity.ActionHover:
		el, err := e.resolve(action.Target)
		if err != nil {
			return err
		}
		if err := el.Hover(); err != nil {
			return fmt.Errorf("hover failed: %w", err)
		}
		return nil

	case entity.ActionType:
		el, err := e.resolve(action.Target)
		if err != nil {
			return err
		}
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
		if err := el.Input(action.Text); err != nil {
			return fmt.Errorf("input failed: %w", err)
		}
		if action.PressEnter {
			return e.pressEnter(page)
		}
		return nil

	case entity.ActionPress:
		return e.press(page, action.Target)

	case entity.ActionScroll:
		if action.Target == "up" {
			page.Eval(`() => window.scrollBy(0, -window.innerHeight * 2)`)
		} else {
			page.Eval(`() => window.scrollBy(0, window.innerHeight * 2)`)
		}
		page.WaitIdle(800 * time.Millisecond)
		return nil

	case entity.ActionNewTab:
		tab, err := e.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return &entity.FatalEnvironmentError{Err: fmt.Errorf("failed to open tab: %w", err)}
		}
		e.pages = append(e.pages, tab)
		e.active = len(e.pages) - 1
		return nil

	case entity.ActionTabFocus:
		idx, err := strconv.Atoi(action.Target)
		if err != nil || idx < 0 || idx >= len(e.pages) {
			return fmt.Errorf("no tab with index %s", action.Target)
		}
		e.active = idx
		if _, err := e.pages[idx].Activate(); err != nil {
			return fmt.Errorf("failed to focus tab %d: %w", idx, err)
		}
		return nil

	case entity.ActionCloseTab:
		if len(e.pages) == 1 {
			return &entity.FatalEnvironmentError{Err: fmt.Errorf("closed the last tab")}
		}
		if err := e.pages[e.active].Close(); err != nil {
			return fmt.Errorf("failed to close tab: %w", err)
		}
		e.pages = append(e.pages[:e.active], e.pages[e.active+1:]...)
		if e.active >= len(e.pages) {
			e.active = len(e.pages) - 1
		}
		return nil

	case entity.ActionGoBack:
		if err := page.NavigateBack(); err != nil {
			return fmt.Errorf("go_back failed: %w", err)
		}
		page.WaitIdle(2 * time.Second)
		return nil

	case entity.ActionGoForward:
		if err := page.NavigateForward(); err != nil {
			return fmt.Errorf("go_forward failed: %w", err)
		}
		page.WaitIdle(2 * time.Second)
		return nil
	}

	return fmt.Errorf("action %s is not executable", action.Kind)
}

// Observe rebuilds the page snapshot and returns its rendering. The
// handle map is replaced wholesale: ids from an older observation are
// stale by design.
func (e *EnvironmentAdapter) Observe(ctx context.Context) (string, error) {
	page := e.page()
	if page == nil {
		return "", &entity.FatalEnvironmentError{Err: fmt.Errorf("no open tab")}
	}

	snap, handles, err := e.buildSnapshot(page)
	if err != nil {
		return "", fmt.Errorf("could not observe page: %w", err)
	}

	e.handles = handles
	return snap.Render(), nil
}

func (e *EnvironmentAdapter) buildSnapshot(page *rod.Page) (*snapshot.Snapshot, map[int]*rod.Element, error) {
	snap := &snapshot.Snapshot{}
	handles := make(map[int]*rod.Element)
	counter := 0

	add := func(el *rod.Element, role string) {
		if el == nil || counter >= maxElements {
			return
		}
		visible, err := el.Visible()
		if err != nil || !visible {
			return
		}

		name := elementName(el)
		snap.Elements = append(snap.Elements, snapshot.Element{
			ID:   counter,
			Role: role,
			Name: name,
		})
		handles[counter] = el
		counter++
	}

	collect := func(css, role string) {
		elements, err := page.Timeout(e.timeout).Elements(css)
		if err != nil {
			return
		}
		for _, el := range elements {
			add(el, role)
		}
	}

	collect("a[href]", "link")
	collect("button, [role='button']", "button")
	collect("input:not([type='hidden']), textarea", "textbox")
	collect("select", "combobox")

	body, err := page.Timeout(e.timeout).Element("body")
	if err != nil {
		return nil, nil, fmt.Errorf("body not found: %w", err)
	}
	rawHTML, err := body.HTML()
	if err == nil {
		snap.Text = snapshot.ExtractText(rawHTML, maxTextLines)
	}

	return snap, handles, nil
}

func (e *EnvironmentAdapter) resolve(id string) (*rod.Element, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("element id %q is not numeric", id)
	}
	el, ok := e.handles[n]
	if !ok {
		return nil, fmt.Errorf("element [%d] not found in the current observation", n)
	}
	return el, nil
}

func (e *EnvironmentAdapter) press(page *rod.Page, combo string) error {
	// Enter is the combination that actually matters for form
	// submission; everything else is reported back to the model.
	if strings.EqualFold(strings.TrimSpace(combo), "enter") {
		return e.pressEnter(page)
	}
	return fmt.Errorf("key combination %q is not supported", combo)
}

func (e *EnvironmentAdapter) pressEnter(page *rod.Page) error {
	body, err := page.Timeout(e.timeout).Element("body")
	if err != nil {
		return fmt.Errorf("body not found: %w", err)
	}
	if err := body.Input("\r"); err != nil {
		return fmt.Errorf("failed to press Enter: %w", err)
	}
	page.WaitIdle(1 * time.Second)
	return nil
}

// saveScreenshot dumps a downscaled screenshot of the page when an
// artifact directory is configured. Failures are logged, never
// propagated: the screenshot is a debugging aid, not an observation.
func (e *EnvironmentAdapter) saveScreenshot() {
	if e.screenshotDir == "" {
		return
	}
	page := e.page()
	if page == nil {
		return
	}

	imgBytes, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		e.logWarn("screenshot failed", "error", err)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		e.logWarn("screenshot decode failed", "error", err)
		return
	}
	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		e.logWarn("screenshot encode failed", "error", err)
		return
	}

	if err := os.MkdirAll(e.screenshotDir, 0755); err != nil {
		e.logWarn("screenshot dir failed", "error", err)
		return
	}
	e.shotCounter++
	name := filepath.Join(e.screenshotDir, fmt.Sprintf("turn_%04d.jpg", e.shotCounter))
	if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
		e.logWarn("screenshot write failed", "error", err)
	}
}

func (e *EnvironmentAdapter) CurrentURL() string {
	page := e.page()
	if page == nil {
		return ""
	}
	info, err := page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (e *EnvironmentAdapter) Close() {
	if e.browser != nil {
		_ = e.browser.Close()
	}
	if e.launcher != nil {
		e.launcher.Kill()
		e.launcher.Cleanup()
	}
}

func (e *EnvironmentAdapter) page() *rod.Page {
	if e.active < 0 || e.active >= len(e.pages) {
		return nil
	}
	return e.pages[e.active]
}

func (e *EnvironmentAdapter) logWarn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func elementName(el *rod.Element) string {
	if aria, _ := el.Attribute("aria-label"); aria != nil && *aria != "" {
		return *aria
	}
	if text, err := el.Text(); err == nil {
		text = strings.TrimSpace(text)
		if text != "" {
			return firstLine(text)
		}
	}
	if ph, _ := el.Attribute("placeholder"); ph != nil && *ph != "" {
		return *ph
	}
	if name, _ := el.Attribute("name"); name != nil {
		return *name
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return strings.TrimSpace(s)
}
