package zapcard

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// RodProvider drives a real Chrome/Chromium instance through go-rod with
// stealth patches applied to every page.
type RodProvider struct {
	log zerolog.Logger
}

func NewRodProvider(log zerolog.Logger) *RodProvider {
	return &RodProvider{log: log}
}

func (p *RodProvider) Launch(opts LaunchOptions) (Browser, error) {
	// Leakless deadlocks on Windows, see go-rod/rod#853.
	useLeakless := runtime.GOOS != "windows"

	l := launcher.New().
		Leakless(useLeakless).
		Headless(opts.Headless)

	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	// Prefer system Chrome over a fresh Chromium download.
	if chromePath, ok := launcher.LookPath(); ok {
		l = l.Bin(chromePath)
		p.log.Debug().Str("bin", chromePath).Msg("using system chrome")
	} else {
		p.log.Debug().Msg("system chrome not found, falling back to managed chromium")
	}

	url, err := l.Launch()
	if err != nil {
		l.Cleanup()
		switch {
		case isChromeAlreadyRunningError(err):
			return nil, &InitializationError{Stage: "launch", Err: fmt.Errorf("chrome is already running with this profile: %w", err)}
		case isBrowserDownloadError(err):
			return nil, &InitializationError{Stage: "launch", Err: fmt.Errorf("browser download blocked by permissions: %w", err)}
		default:
			return nil, &InitializationError{Stage: "launch", Err: err}
		}
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, &InitializationError{Stage: "connect", Err: err}
	}

	p.log.Debug().Msg("browser launched")
	return &rodBrowser{browser: browser, launcher: l, log: p.log}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	log      zerolog.Logger
}

func (b *rodBrowser) NewPage() (Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: defaultUserAgent,
	})
	if err != nil {
		b.log.Debug().Err(err).Msg("failed to override user agent")
	}

	return &rodPage{page: page}, nil
}

func (b *rodBrowser) Alive() bool {
	if b.browser == nil {
		return false
	}
	_, err := b.browser.Version()
	return err == nil
}

func (b *rodBrowser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
	return err
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(url string) error {
	return p.page.Navigate(url)
}

func (p *rodPage) WaitLoad() error {
	return p.page.WaitLoad()
}

func (p *rodPage) FrameByURL(urlSubstr string) (Page, error) {
	frames, err := p.page.Elements("iframe")
	if err != nil {
		return nil, err
	}
	for _, el := range frames {
		src, err := el.Attribute("src")
		if err != nil || src == nil {
			continue
		}
		if contains(*src, urlSubstr) {
			framePage, err := el.Frame()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve frame %q: %w", *src, err)
			}
			return &rodPage{page: framePage}, nil
		}
	}
	return nil, &ElementNotFoundError{Selector: "iframe[src*=" + urlSubstr + "]"}
}

func (p *rodPage) Element(sel string, timeout time.Duration) (Element, error) {
	el, err := p.page.Timeout(timeout).Element(sel)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (p *rodPage) ElementWithText(sel, pattern string, timeout time.Duration) (Element, error) {
	el, err := p.page.Timeout(timeout).ElementR(sel, pattern)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (p *rodPage) Elements(sel string) ([]Element, error) {
	els, err := p.page.Elements(sel)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (p *rodPage) Eval(js string) (string, error) {
	res, err := p.page.Eval(js)
	if err != nil {
		return "", err
	}
	return res.Value.JSON("", ""), nil
}

func (p *rodPage) MoveMouse(x, y float64) error {
	return p.page.Mouse.MoveTo(proto.Point{X: x, Y: y})
}

func (p *rodPage) Clipboard() (string, error) {
	res, err := p.page.Eval(`() => navigator.clipboard.readText()`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	val, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil
	}
	return *val, nil
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Clear() error {
	if err := e.el.SelectAllText(); err != nil {
		return err
	}
	return e.el.Input("")
}

func (e *rodElement) Hover() error {
	return e.el.Hover()
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Box() (Box, error) {
	shape, err := e.el.Shape()
	if err != nil {
		return Box{}, err
	}
	rect := shape.Box()
	return Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}
