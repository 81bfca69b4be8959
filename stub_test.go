package zapcard

import (
	"strings"
	"sync"
	"time"
)

// In-memory provider stack used by the session and facade tests. Selector
// lookups are exact-match against the test config's selectors.

type stubProvider struct {
	mu        sync.Mutex
	browser   *stubBrowser
	launchErr error
	launches  int
}

func (p *stubProvider) Launch(opts LaunchOptions) (Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.launches++
	if p.launchErr != nil {
		return nil, p.launchErr
	}
	return p.browser, nil
}

type stubBrowser struct {
	page    *stubPage
	pageErr error
	closes  int
}

func (b *stubBrowser) NewPage() (Page, error) {
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	return b.page, nil
}

func (b *stubBrowser) Alive() bool { return true }

func (b *stubBrowser) Close() error {
	b.closes++
	return nil
}

type stubPage struct {
	elements    map[string]*stubElement
	frame       *stubPage
	frameURL    string
	clipboard   string
	evalResult  string
	evals       []string
	navigations []string
	navErr      error
	loadErr     error
}

func newStubPage() *stubPage {
	return &stubPage{elements: map[string]*stubElement{}}
}

func (p *stubPage) Navigate(url string) error {
	p.navigations = append(p.navigations, url)
	return p.navErr
}

func (p *stubPage) WaitLoad() error { return p.loadErr }

func (p *stubPage) FrameByURL(urlSubstr string) (Page, error) {
	if p.frame != nil && strings.Contains(p.frameURL, urlSubstr) {
		return p.frame, nil
	}
	return nil, &ElementNotFoundError{Selector: "iframe[src*=" + urlSubstr + "]"}
}

func (p *stubPage) Element(sel string, _ time.Duration) (Element, error) {
	if el, ok := p.elements[sel]; ok {
		return el, nil
	}
	return nil, &ElementNotFoundError{Selector: sel}
}

func (p *stubPage) ElementWithText(sel, _ string, timeout time.Duration) (Element, error) {
	return p.Element(sel, timeout)
}

func (p *stubPage) Elements(sel string) ([]Element, error) {
	if el, ok := p.elements[sel]; ok {
		return []Element{el}, nil
	}
	return nil, nil
}

func (p *stubPage) Eval(js string) (string, error) {
	p.evals = append(p.evals, js)
	if p.evalResult != "" {
		return p.evalResult, nil
	}
	return "true", nil
}

func (p *stubPage) MoveMouse(x, y float64) error { return nil }

func (p *stubPage) Clipboard() (string, error) { return p.clipboard, nil }

func (p *stubPage) Close() error { return nil }

type stubElement struct {
	text     string
	attrs    map[string]string
	visible  bool
	clicks   int
	typed    strings.Builder
	clickErr error
	onClick  func()
}

func (e *stubElement) Text() (string, error) { return e.text, nil }

func (e *stubElement) Attribute(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *stubElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *stubElement) Input(text string) error {
	e.typed.WriteString(text)
	return nil
}

func (e *stubElement) Clear() error {
	e.typed.Reset()
	return nil
}

func (e *stubElement) Hover() error { return nil }

func (e *stubElement) Visible() (bool, error) { return e.visible, nil }

func (e *stubElement) Box() (Box, error) {
	return Box{X: 10, Y: 10, Width: 120, Height: 32}, nil
}

// testConfig returns a config with exact-match selectors and near-zero
// pacing so flows run fast under test.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.CheckoutURL = "https://host.example/buy"
	cfg.WidgetFrameURL = "checkout"
	cfg.BrowserProfilePath = ""
	cfg.ActionTimeoutMs = 200
	cfg.FramePollMinMs = 1
	cfg.FramePollMaxMs = 2
	cfg.Retry = RetryConfig{MaxRetries: 1, BaseDelayMs: 1, MaxDelayMs: 2, Factor: 2}
	cfg.Queue = QueueConfig{MaxConcurrency: 2, MaxQueueSize: 10, TaskTimeoutMs: 5000}
	cfg.Humanize = HumanizeConfig{
		TypingSpeed:          SpeedFast,
		ScrollSpeed:          SpeedFast,
		PreActionPauseMinMs:  0,
		PreActionPauseMaxMs:  1,
		PostClickPauseMinMs:  0,
		PostClickPauseMaxMs:  1,
		ElementWaitTimeoutMs: 50,
		ExploreProbability:   0,
	}
	cfg.Consent = ConsentConfig{
		DialogSelector: "#consent",
		Candidates:     []string{"#consent-accept"},
		StorageKey:     "consent",
	}
	cfg.Selectors = SelectorConfig{
		ProductCard:         "#product",
		DenominationInput:   "#denom",
		DenominationSubmit:  "#denom-submit",
		IdentityForm:        "#identity",
		FirstNameInput:      "#first",
		LastNameInput:       "#last",
		IdentityContinue:    "#identity-continue",
		PaymentMethodOption: "[data-method='%s']",
		PaymentContinue:     "#pay-continue",
		DepositAddress:      "#address",
		DepositAmount:       "#amount",
		DepositQR:           "#qr",
		CopyAddressButton:   "#copy",
	}
	return cfg
}

// newCheckoutFixture wires a stub widget that walks the happy path for a
// $50 card paid over usdc_base.
func newCheckoutFixture() (*stubProvider, *stubPage) {
	widget := newStubPage()
	widget.elements["#product"] = &stubElement{visible: true}
	widget.elements["#denom"] = &stubElement{visible: true}
	widget.elements["#denom-submit"] = &stubElement{visible: true}
	widget.elements["[data-method='usdc_base']"] = &stubElement{visible: true}
	widget.elements["#pay-continue"] = &stubElement{visible: true}
	widget.elements["#address"] = &stubElement{text: "t1abc...xyz", visible: true}
	widget.elements["#amount"] = &stubElement{text: "51.47", visible: true}
	widget.elements["#qr"] = &stubElement{attrs: map[string]string{"src": "data:image/png;base64,QR"}, visible: true}

	top := newStubPage()
	top.frame = widget
	top.frameURL = "https://widget.example/checkout?session=1"

	provider := &stubProvider{browser: &stubBrowser{page: top}}
	return provider, widget
}
