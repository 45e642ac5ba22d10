// Package checkout drives the payment-then-order sequence for the current
// cart: create a payment intent, present the payment sheet, submit the order
// from the charged snapshot, assign a fulfillment agent, clear the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/squadbid/storefront/internal/app/domain/agent"
	cartdomain "github.com/squadbid/storefront/internal/app/domain/cart"
	domain "github.com/squadbid/storefront/internal/app/domain/checkout"
	"github.com/squadbid/storefront/internal/app/domain/order"
	"github.com/squadbid/storefront/internal/app/metrics"
	"github.com/squadbid/storefront/internal/app/storage"
	"github.com/squadbid/storefront/pkg/logger"
)

// PaymentIntents creates a payment intent for a minor-unit amount and
// returns the provider's client secret.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, amountMinor int64) (string, error)
}

// PaymentPresenter hands the client secret and display configuration to the
// platform payment sheet and blocks until the customer completes or
// dismisses it. Implementations report configuration failures as
// ErrPaymentInit and declines or cancellations as ErrPaymentDeclined.
type PaymentPresenter interface {
	Present(ctx context.Context, clientSecret string, cfg SheetConfig) error
}

// OrderSubmitter submits a paid order to the merchant order API.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, merchantID int, items []order.Item, notes, idempotencyKey string) (string, error)
}

// AgentAssigner requests fulfillment-agent assignment for a placed order.
type AgentAssigner interface {
	AssignAgent(ctx context.Context, orderID string, sel agent.Selection) error
}

// Cart is the slice of the cart service the orchestrator needs.
type Cart interface {
	Snapshot() cartdomain.Snapshot
	Items() []cartdomain.LineItem
	Clear()
}

// Failure sentinels. ErrPaymentInit and ErrPaymentDeclined are also what
// PaymentPresenter implementations wrap their failures in.
var (
	ErrCheckoutInFlight = errors.New("a checkout is already in progress")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCartChanged      = errors.New("cart changed while checkout was starting")
	ErrPaymentInit      = errors.New("payment sheet could not be initialised")
	ErrPaymentDeclined  = errors.New("payment declined or cancelled")
)

// ServiceUnavailableError marks a step that failed before producing a
// business result; nothing was charged and no order exists.
type ServiceUnavailableError struct {
	Step string
	Err  error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Step, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// PartialFailureError is the escalation case: the payment was confirmed but
// order creation failed. The cart is intentionally left intact and the
// journal record holds what was charged for manual reconciliation.
type PartialFailureError struct {
	RecordID    string
	AmountMinor int64
	Err         error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("payment captured but order creation failed (journal record %s): %v", e.RecordID, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Result describes the terminal state of one checkout attempt.
type Result struct {
	Outcome     domain.Outcome `json:"outcome"`
	Stage       domain.Stage   `json:"stage"`
	AmountMinor int64          `json:"amount_minor"`
	OrderID     string         `json:"order_id,omitempty"`
	RecordID    string         `json:"record_id,omitempty"`

	// AgentAssigned and AgentNote report the best-effort assignment step.
	// A failed assignment never changes the Outcome.
	AgentAssigned bool   `json:"agent_assigned"`
	AgentNote     string `json:"agent_note,omitempty"`
}

// Service orchestrates checkout attempts. At most one attempt runs at a
// time; StartCheckout returns ErrCheckoutInFlight otherwise.
type Service struct {
	cart       Cart
	intents    PaymentIntents
	presenter  PaymentPresenter
	orders     OrderSubmitter
	agents     AgentAssigner
	selections storage.SelectionStore
	journal    storage.CheckoutJournal
	merchantID int
	sheet      SheetConfig
	log        *logger.Logger

	mu       sync.Mutex
	inFlight bool
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Cart       Cart
	Intents    PaymentIntents
	Presenter  PaymentPresenter
	Orders     OrderSubmitter
	Agents     AgentAssigner
	Selections storage.SelectionStore
	Journal    storage.CheckoutJournal
	MerchantID int

	// Sheet is passed to the presenter with every attempt.
	Sheet SheetConfig
}

// New constructs a checkout service.
func New(cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("checkout")
	}
	return &Service{
		cart:       cfg.Cart,
		intents:    cfg.Intents,
		presenter:  cfg.Presenter,
		orders:     cfg.Orders,
		agents:     cfg.Agents,
		selections: cfg.Selections,
		journal:    cfg.Journal,
		merchantID: cfg.MerchantID,
		sheet:      cfg.Sheet,
		log:        log,
	}
}

func (s *Service) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrCheckoutInFlight
	}
	s.inFlight = true
	return nil
}

func (s *Service) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// InFlight reports whether a checkout attempt is currently running.
func (s *Service) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// StartCheckout runs the full sequence against the current cart. The
// returned Result is populated on failure as well as success so the caller
// knows which step to retry from; a confirmed payment is never replayed.
func (s *Service) StartCheckout(ctx context.Context) (Result, error) {
	if err := s.acquire(); err != nil {
		return Result{}, err
	}
	defer s.release()

	started := time.Now()
	res, err := s.run(ctx)
	metrics.ObserveCheckout(string(res.Outcome), time.Since(started))
	return res, err
}

func (s *Service) run(ctx context.Context) (Result, error) {
	res := Result{Stage: domain.StageIdle}

	// Step 1: snapshot the cart and compute the minor-unit amount. The same
	// snapshot is charged and submitted, so a cart mutated mid-checkout can
	// never change what the order contains.
	snap := s.cart.Snapshot()
	if len(snap.Items) == 0 {
		res.Outcome = domain.OutcomeFailedAtIntent
		return res, ErrEmptyCart
	}
	res.AmountMinor = snap.Total.MinorUnits()
	res.Stage = domain.StageAmountComputed
	if res.AmountMinor <= 0 {
		res.Outcome = domain.OutcomeFailedAtIntent
		return res, fmt.Errorf("invalid checkout amount %d", res.AmountMinor)
	}

	items := make([]order.Item, 0, len(snap.Items))
	for _, li := range snap.Items {
		items = append(items, order.Item{ProductID: li.ProductID, Quantity: li.Quantity})
	}

	rec, err := s.journal.CreateRecord(ctx, domain.Record{
		Stage:          res.Stage,
		AmountMinor:    res.AmountMinor,
		Items:          items,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		// The journal is the reconciliation safety net; refuse to take money
		// without it.
		res.Outcome = domain.OutcomeFailedAtIntent
		return res, &ServiceUnavailableError{Step: "checkout journal", Err: err}
	}
	res.RecordID = rec.ID

	// Step 2: create the payment intent.
	secret, err := s.intents.CreateIntent(ctx, res.AmountMinor)
	if err != nil {
		return s.fail(ctx, rec, res, domain.OutcomeFailedAtIntent,
			&ServiceUnavailableError{Step: "payment intent", Err: err})
	}
	res.Stage = domain.StageIntentCreated
	rec.Stage = res.Stage

	// Last cheap exit: if the cart was mutated while the intent was being
	// created, abort before any money moves.
	if !snap.Matches(s.cart.Items()) {
		return s.fail(ctx, rec, res, domain.OutcomeFailedAtIntent, ErrCartChanged)
	}

	// Step 3: present the payment sheet and wait for the customer.
	if err := s.presenter.Present(ctx, secret, s.sheet); err != nil {
		return s.fail(ctx, rec, res, domain.OutcomeFailedAtPayment, err)
	}
	res.Stage = domain.StagePaymentConfirmed
	rec.Stage = res.Stage

	// Step 4: submit the order from the charged snapshot.
	orderID, err := s.orders.CreateOrder(ctx, s.merchantID, items, "", rec.IdempotencyKey)
	if err != nil {
		res.Outcome = domain.OutcomePaymentCapturedOrderFailed
		rec.Outcome = res.Outcome
		rec.FailureMessage = err.Error()
		s.saveRecord(ctx, rec)
		s.log.WithError(err).
			WithField("record_id", rec.ID).
			WithField("amount_minor", res.AmountMinor).
			Error("payment captured but order creation failed")
		return res, &PartialFailureError{RecordID: rec.ID, AmountMinor: res.AmountMinor, Err: err}
	}
	res.OrderID = orderID
	res.Stage = domain.StageOrderSubmitted
	rec.OrderID = orderID
	rec.Stage = res.Stage

	// Step 5: best-effort agent assignment. Failure is reported on the
	// result but never fails the checkout.
	res.AgentAssigned, res.AgentNote = s.assignAgent(ctx, orderID)
	res.Stage = domain.StageAgentRequested
	rec.AgentAssigned = res.AgentAssigned

	// Step 6: the order exists, so the cart is done.
	s.cart.Clear()
	res.Stage = domain.StageCleared
	res.Outcome = domain.OutcomeSucceeded
	rec.Stage = res.Stage
	rec.Outcome = res.Outcome
	s.saveRecord(ctx, rec)

	s.log.WithField("order_id", orderID).
		WithField("amount_minor", res.AmountMinor).
		Info("checkout complete")
	return res, nil
}

func (s *Service) fail(ctx context.Context, rec domain.Record, res Result, outcome domain.Outcome, err error) (Result, error) {
	res.Outcome = outcome
	rec.Outcome = outcome
	rec.Stage = res.Stage
	rec.FailureMessage = err.Error()
	s.saveRecord(ctx, rec)
	return res, err
}

func (s *Service) saveRecord(ctx context.Context, rec domain.Record) {
	if _, err := s.journal.UpdateRecord(ctx, rec); err != nil {
		s.log.WithError(err).WithField("record_id", rec.ID).Warn("update checkout record")
	}
}

func (s *Service) assignAgent(ctx context.Context, orderID string) (bool, string) {
	sel, err := s.selections.GetSelection(ctx)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && sel.IsZero()) {
		s.log.WithField("order_id", orderID).Warn("no collection point selected; skipping agent assignment")
		return false, "no collection point selected"
	}
	if err != nil {
		metrics.AgentAssignFailed()
		s.log.WithError(err).WithField("order_id", orderID).Warn("read collection point selection")
		return false, "could not read collection point selection"
	}

	if err := s.agents.AssignAgent(ctx, orderID, sel); err != nil {
		metrics.AgentAssignFailed()
		s.log.WithError(err).WithField("order_id", orderID).Warn("agent assignment failed")
		return false, "agent assignment failed; the merchant will assign one manually"
	}
	return true, ""
}
