package zapcard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Denomination is a card face value in USD.
type Denomination int

const (
	Denom10  Denomination = 10
	Denom25  Denomination = 25
	Denom50  Denomination = 50
	Denom100 Denomination = 100
	Denom200 Denomination = 200
)

func (d Denomination) Valid() bool {
	switch d {
	case Denom10, Denom25, Denom50, Denom100, Denom200:
		return true
	}
	return false
}

// PaymentMethod is a crypto rail the widget accepts deposits on.
type PaymentMethod string

const (
	MethodBTC      PaymentMethod = "btc"
	MethodETH      PaymentMethod = "eth"
	MethodUSDCBase PaymentMethod = "usdc_base"
	MethodUSDCNear PaymentMethod = "usdc_near"
	MethodUSDTTron PaymentMethod = "usdt_tron"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBTC, MethodETH, MethodUSDCBase, MethodUSDCNear, MethodUSDTTron:
		return true
	}
	return false
}

// PurchaseOptions is the immutable input to one purchase flow. Name fields
// left empty are synthesized before the session is constructed.
type PurchaseOptions struct {
	Denomination  Denomination
	PaymentMethod PaymentMethod

	FirstName string
	LastName  string
	Country   string
	Gender    string

	// Timeout overrides the configured per-action timeout when positive.
	Timeout time.Duration
	// MaxRetries overrides the configured per-step retry budget when positive.
	MaxRetries int
}

// DepositInfo is what the flow exists to produce: where to send the crypto
// and how much. Amount stays exactly as the widget rendered it.
type DepositInfo struct {
	Address       string        `json:"address"`
	Amount        string        `json:"amount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	QRCode        string        `json:"qrCode,omitempty"`
}

// PurchaseStatus tags the facade's result.
type PurchaseStatus string

const (
	StatusAwaitingPayment PurchaseStatus = "awaiting-payment"
	StatusError           PurchaseStatus = "error"
)

// PurchaseResult is the only thing callers of the facade ever see; failures
// are folded into it rather than raised.
type PurchaseResult struct {
	Status      PurchaseStatus `json:"status"`
	DepositInfo *DepositInfo   `json:"depositInfo,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Orchestrator composes the whole flow: identity resolution, queue
// admission, session driving and guaranteed teardown.
type Orchestrator struct {
	cfg      *Config
	provider Provider
	queue    *TaskQueue
	names    *NameSynthesizer
	log      zerolog.Logger
}

func NewOrchestrator(cfg *Config, provider Provider, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		provider: provider,
		queue:    NewTaskQueue(cfg.Queue, log),
		names:    NewNameSynthesizer(),
		log:      log,
	}
}

// InitiatePurchase runs one purchase end to end and never returns an error:
// any failure at any stage comes back as a StatusError result. The session
// is closed on every exit path.
func (o *Orchestrator) InitiatePurchase(ctx context.Context, opts PurchaseOptions) *PurchaseResult {
	opts, err := o.resolveOptions(opts)
	if err != nil {
		return errorResult(err)
	}

	task, err := o.queue.Enqueue(func(taskCtx context.Context) (interface{}, error) {
		return o.runPurchase(taskCtx, opts)
	})
	if err != nil {
		return errorResult(err)
	}

	value, err := task.Wait(ctx)
	if err != nil {
		return errorResult(err)
	}

	return &PurchaseResult{
		Status:      StatusAwaitingPayment,
		DepositInfo: value.(*DepositInfo),
	}
}

// resolveOptions validates the enums and fills missing identity fields
// through the synthesizer.
func (o *Orchestrator) resolveOptions(opts PurchaseOptions) (PurchaseOptions, error) {
	if !opts.Denomination.Valid() {
		return opts, fmt.Errorf("invalid denomination: %d", opts.Denomination)
	}
	if !opts.PaymentMethod.Valid() {
		return opts, fmt.Errorf("invalid payment method: %q", opts.PaymentMethod)
	}

	if opts.Country == "" {
		opts.Country = o.cfg.Country
	}
	if opts.FirstName == "" {
		opts.FirstName = o.names.FirstName(opts.Country, opts.Gender)
	}
	if opts.LastName == "" {
		opts.LastName = o.names.LastName(opts.Country)
	}

	return opts, nil
}

func (o *Orchestrator) runPurchase(ctx context.Context, opts PurchaseOptions) (*DepositInfo, error) {
	session := NewSession(o.cfg, opts, o.provider, o.log)
	defer session.Close()

	if err := session.Initialize(ctx); err != nil {
		return nil, err
	}
	if err := session.NavigateToProduct(ctx, opts.Denomination); err != nil {
		return nil, err
	}
	if err := session.SelectPaymentMethod(ctx, opts.PaymentMethod); err != nil {
		return nil, err
	}
	return session.GetDepositInfo(ctx, opts.PaymentMethod)
}

// QueueStatus exposes limiter introspection to external callers.
func (o *Orchestrator) QueueStatus() QueueStats {
	return o.queue.Stats()
}

func errorResult(err error) *PurchaseResult {
	return &PurchaseResult{
		Status: StatusError,
		Error:  err.Error(),
	}
}
