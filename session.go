package zapcard

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateActive
	stateClosed
)

// sessionHandles groups the browser resources of one active session. They
// are set together on a successful initialize and released together on
// close; outside the active state the pointer is nil.
type sessionHandles struct {
	browser Browser
	page    Page
	widget  Page
	human   *Humanizer
}

// Session drives one checkout flow through the embedded widget: initialize,
// select product, select payment method, read deposit info. Each step is
// wrapped by the backoff retrier and built from humanized primitives. A
// session owns its browser exclusively and must be closed by the caller.
type Session struct {
	ID uuid.UUID

	cfg      *Config
	opts     PurchaseOptions
	provider Provider
	log      zerolog.Logger
	retrier  *Retrier
	rand     *rand.Rand

	actionTimeout time.Duration

	state   sessionState
	handles *sessionHandles
}

func NewSession(cfg *Config, opts PurchaseOptions, provider Provider, log zerolog.Logger) *Session {
	id := uuid.New()

	retryCfg := cfg.Retry
	if opts.MaxRetries > 0 {
		retryCfg.MaxRetries = opts.MaxRetries
	}

	actionTimeout := time.Duration(cfg.ActionTimeoutMs) * time.Millisecond
	if opts.Timeout > 0 {
		actionTimeout = opts.Timeout
	}

	slog := log.With().Stringer("session", id).Logger()

	return &Session{
		ID:            id,
		cfg:           cfg,
		opts:          opts,
		provider:      provider,
		log:           slog,
		retrier:       NewRetrier(retryCfg, slog),
		rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
		actionTimeout: actionTimeout,
	}
}

// Initialize launches the browser, opens the checkout page, resolves the
// embedded widget frame and clears any consent interstitial. On failure the
// partially created resources are torn down before the error is returned.
func (s *Session) Initialize(ctx context.Context) error {
	if s.state != stateUninitialized {
		return fmt.Errorf("session already initialized or closed")
	}

	err := s.retrier.Do(ctx, "initialize", func() error {
		handles, err := s.establish()
		if err != nil {
			return err
		}
		s.handles = handles
		return nil
	})
	if err != nil {
		return err
	}

	s.state = stateActive
	s.log.Info().Msg("session initialized")
	return nil
}

// establish is one initialization attempt. Everything created before a
// failure is released before returning.
func (s *Session) establish() (*sessionHandles, error) {
	browser, err := s.provider.Launch(LaunchOptions{
		Headless:   s.cfg.Headless,
		ProfileDir: s.cfg.BrowserProfilePath,
	})
	if err != nil {
		return nil, err
	}

	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		return nil, &InitializationError{Stage: "page", Err: err}
	}

	if err := page.Navigate(s.cfg.CheckoutURL); err != nil {
		browser.Close()
		return nil, &InitializationError{Stage: "navigate", Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		browser.Close()
		return nil, &InitializationError{Stage: "load", Err: err}
	}

	widget, err := s.waitForWidget(page)
	if err != nil {
		browser.Close()
		return nil, &InitializationError{Stage: "widget_frame", Err: err}
	}

	human := NewHumanizer(widget, s.cfg.Humanize, s.log)
	resolveConsent(widget, human, s.cfg.Consent, s.log)

	return &sessionHandles{
		browser: browser,
		page:    page,
		widget:  widget,
		human:   human,
	}, nil
}

// waitForWidget polls for the checkout iframe with randomized pacing until
// it attaches or the action timeout runs out. Widgets routinely attach well
// after the host page reports loaded.
func (s *Session) waitForWidget(page Page) (Page, error) {
	deadline := time.Now().Add(s.actionTimeout)

	for {
		widget, err := page.FrameByURL(s.cfg.WidgetFrameURL)
		if err == nil {
			return widget, nil
		}

		if time.Now().After(deadline) {
			return nil, &StepTimeoutError{Step: "widget_frame", Timeout: s.actionTimeout}
		}

		minMs, maxMs := s.cfg.FramePollMinMs, s.cfg.FramePollMaxMs
		if maxMs <= minMs {
			maxMs = minMs + 1
		}
		delay := minMs + s.rand.Intn(maxMs-minMs)
		time.Sleep(time.Duration(delay) * time.Millisecond)
	}
}

// step guards a state transition: reject when no handles are live, fail fast
// when the user closed the browser underneath us, then run fn under the
// retrier.
func (s *Session) step(ctx context.Context, name string, fn func() error) error {
	if s.state != stateActive {
		return ErrSessionNotInitialized
	}
	if !s.handles.browser.Alive() {
		return fmt.Errorf("browser is no longer reachable")
	}
	return s.retrier.Do(ctx, name, fn)
}

// NavigateToProduct opens the card product inside the widget and submits the
// requested denomination, completing the identity sub-form if the widget
// presents one.
func (s *Session) NavigateToProduct(ctx context.Context, denomination Denomination) error {
	if !denomination.Valid() {
		return fmt.Errorf("invalid denomination: %d", denomination)
	}

	return s.step(ctx, "navigate_to_product", func() error {
		human := s.handles.human
		sel := s.cfg.Selectors

		human.Explore()

		if !human.Click(sel.ProductCard) {
			return &ElementNotFoundError{Selector: sel.ProductCard}
		}

		if !human.Type(sel.DenominationInput, strconv.Itoa(int(denomination)), true) {
			return &ElementNotFoundError{Selector: sel.DenominationInput}
		}

		if !human.Click(sel.DenominationSubmit) {
			return &ElementNotFoundError{Selector: sel.DenominationSubmit}
		}

		return s.fillIdentityForm()
	})
}

// fillIdentityForm completes the contact sub-form when the widget asks for
// one. Absence of the form is not an error.
func (s *Session) fillIdentityForm() error {
	sel := s.cfg.Selectors
	human := s.handles.human

	if _, err := s.handles.widget.Element(sel.IdentityForm, 2*time.Second); err != nil {
		return nil
	}

	s.log.Debug().Msg("identity form presented")

	if !human.Type(sel.FirstNameInput, s.opts.FirstName, true) {
		return &ElementNotFoundError{Selector: sel.FirstNameInput}
	}
	if !human.Type(sel.LastNameInput, s.opts.LastName, true) {
		return &ElementNotFoundError{Selector: sel.LastNameInput}
	}
	if !human.Click(sel.IdentityContinue) {
		return &ElementNotFoundError{Selector: sel.IdentityContinue}
	}
	return nil
}

// SelectPaymentMethod picks the crypto rail to pay with and continues to the
// deposit screen.
func (s *Session) SelectPaymentMethod(ctx context.Context, method PaymentMethod) error {
	if !method.Valid() {
		return fmt.Errorf("invalid payment method: %q", method)
	}

	return s.step(ctx, "select_payment_method", func() error {
		human := s.handles.human
		sel := s.cfg.Selectors

		optionSel := strings.ReplaceAll(sel.PaymentMethodOption, "%s", string(method))
		if !human.Click(optionSel) {
			return &ElementNotFoundError{Selector: optionSel}
		}

		if !human.Click(sel.PaymentContinue) {
			return &ElementNotFoundError{Selector: sel.PaymentContinue}
		}

		return nil
	})
}

// checkoutStateJS snapshots the state object some widget builds hang on
// window instead of rendering deposit details into the DOM.
const checkoutStateJS = `() => window.__CHECKOUT_STATE__ || {}`

// GetDepositInfo extracts the deposit address and amount from the widget.
// Newer widget builds render the address as text; older ones only expose a
// copy affordance, so a fallback clicks it and reads the clipboard back. The
// last resort is the widget's own state object.
func (s *Session) GetDepositInfo(ctx context.Context, method PaymentMethod) (*DepositInfo, error) {
	var info *DepositInfo

	err := s.step(ctx, "get_deposit_info", func() error {
		widget := s.handles.widget
		sel := s.cfg.Selectors

		address := s.readText(sel.DepositAddress)
		if address == "" && sel.CopyAddressButton != "" {
			if s.handles.human.Click(sel.CopyAddressButton) {
				if clip, err := widget.Clipboard(); err == nil {
					address = strings.TrimSpace(clip)
				}
			}
		}

		amount := s.readText(sel.DepositAmount)

		if address == "" || amount == "" {
			if raw, err := widget.Eval(checkoutStateJS); err == nil {
				if address == "" {
					address = strings.TrimSpace(gjson.Get(raw, "deposit.address").String())
				}
				if amount == "" {
					amount = strings.TrimSpace(gjson.Get(raw, "deposit.amount").String())
				}
			}
		}

		if address == "" {
			return &ElementNotFoundError{Selector: sel.DepositAddress}
		}
		if amount == "" {
			return &ElementNotFoundError{Selector: sel.DepositAmount}
		}

		// QR reference is a bonus; its absence never fails the step.
		var qr string
		if el, err := widget.Element(sel.DepositQR, time.Second); err == nil {
			qr, _ = el.Attribute("src")
		}

		info = &DepositInfo{
			Address:       address,
			Amount:        amount,
			PaymentMethod: method,
			QRCode:        qr,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("address", info.Address).Str("amount", info.Amount).
		Msg("deposit info extracted")
	return info, nil
}

func (s *Session) readText(sel string) string {
	el, err := s.handles.widget.Element(sel, s.actionTimeout)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// CompletePurchase would confirm the order after the deposit is paid. The
// payment-verification side doesn't exist yet, so this always fails and is
// never retried.
func (s *Session) CompletePurchase(ctx context.Context) error {
	if s.state != stateActive {
		return ErrSessionNotInitialized
	}
	return fmt.Errorf("purchase completion: %w", ErrNotImplemented)
}

// Close releases the browser and all page handles. Safe to call any number
// of times and on a session that never initialized.
func (s *Session) Close() {
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed

	if s.handles == nil {
		return
	}

	if s.handles.widget != nil {
		s.handles.widget.Close()
	}
	if s.handles.page != nil {
		s.handles.page.Close()
	}
	if err := s.handles.browser.Close(); err != nil {
		s.log.Debug().Err(err).Msg("browser close reported an error")
	}

	s.handles = nil
	s.log.Info().Msg("session closed")
}

func contains(s string, substrs ...string) bool {
	s = toLower(s)
	for _, substr := range substrs {
		if len(s) >= len(substr) {
			for i := 0; i <= len(s)-len(substr); i++ {
				if s[i:i+len(substr)] == toLower(substr) {
					return true
				}
			}
		}
	}
	return false
}

func toLower(s string) string {
	result := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		result[i] = c
	}
	return string(result)
}
