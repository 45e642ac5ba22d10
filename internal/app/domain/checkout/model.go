// Package checkout defines the states a checkout attempt moves through and
// the journal record kept for each attempt.
package checkout

import (
	"time"

	"github.com/squadbid/storefront/internal/app/domain/order"
)

// Stage identifies how far a checkout attempt progressed.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageAmountComputed   Stage = "amount_computed"
	StageIntentCreated    Stage = "intent_created"
	StagePaymentConfirmed Stage = "payment_confirmed"
	StageOrderSubmitted   Stage = "order_submitted"
	StageAgentRequested   Stage = "agent_requested"
	StageCleared          Stage = "cleared"
)

// Outcome is the terminal classification of a checkout attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailedAtIntent covers both amount validation and payment intent
	// creation failures; no money moved.
	OutcomeFailedAtIntent Outcome = "failed_at_intent"
	// OutcomeFailedAtPayment is a declined or user-cancelled payment; no
	// money moved.
	OutcomeFailedAtPayment Outcome = "failed_at_payment"
	// OutcomePaymentCapturedOrderFailed is the partial failure: the payment
	// was confirmed but no order exists. Needs manual reconciliation.
	OutcomePaymentCapturedOrderFailed Outcome = "payment_captured_order_failed"
)

// Record is the durable journal entry for one checkout attempt.
type Record struct {
	ID             string
	Outcome        Outcome
	Stage          Stage
	AmountMinor    int64
	Items          []order.Item
	OrderID        string
	IdempotencyKey string
	FailureMessage string
	AgentAssigned  bool
	Reconciled     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NeedsReconciliation reports whether the record represents a captured
// payment with no matching order that has not yet been manually resolved.
func (r Record) NeedsReconciliation() bool {
	return r.Outcome == OutcomePaymentCapturedOrderFailed && !r.Reconciled
}
