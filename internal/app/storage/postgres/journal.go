// Package postgres backs the checkout journal with PostgreSQL for hosted
// deployments where reconciliation happens off-device.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/squadbid/storefront/internal/app/domain/checkout"
	"github.com/squadbid/storefront/internal/app/domain/order"
	"github.com/squadbid/storefront/internal/app/storage"
)

// Journal implements storage.CheckoutJournal on top of PostgreSQL.
type Journal struct {
	db *sqlx.DB
}

var _ storage.CheckoutJournal = (*Journal)(nil)

// NewJournal creates a Journal using the provided database handle.
func NewJournal(db *sqlx.DB) *Journal {
	return &Journal{db: db}
}

type recordRow struct {
	ID             string    `db:"id"`
	Outcome        string    `db:"outcome"`
	Stage          string    `db:"stage"`
	AmountMinor    int64     `db:"amount_minor"`
	Items          []byte    `db:"items"`
	OrderID        string    `db:"order_id"`
	IdempotencyKey string    `db:"idempotency_key"`
	FailureMessage string    `db:"failure_message"`
	AgentAssigned  bool      `db:"agent_assigned"`
	Reconciled     bool      `db:"reconciled"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r recordRow) toDomain() (checkout.Record, error) {
	rec := checkout.Record{
		ID:             r.ID,
		Outcome:        checkout.Outcome(r.Outcome),
		Stage:          checkout.Stage(r.Stage),
		AmountMinor:    r.AmountMinor,
		OrderID:        r.OrderID,
		IdempotencyKey: r.IdempotencyKey,
		FailureMessage: r.FailureMessage,
		AgentAssigned:  r.AgentAssigned,
		Reconciled:     r.Reconciled,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &rec.Items); err != nil {
			return checkout.Record{}, err
		}
	}
	return rec, nil
}

func itemsJSON(items []order.Item) ([]byte, error) {
	if items == nil {
		items = []order.Item{}
	}
	return json.Marshal(items)
}

func (j *Journal) CreateRecord(ctx context.Context, rec checkout.Record) (checkout.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	items, err := itemsJSON(rec.Items)
	if err != nil {
		return checkout.Record{}, err
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO checkout_records
			(id, outcome, stage, amount_minor, items, order_id, idempotency_key,
			 failure_message, agent_assigned, reconciled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rec.ID, string(rec.Outcome), string(rec.Stage), rec.AmountMinor, items,
		rec.OrderID, rec.IdempotencyKey, rec.FailureMessage, rec.AgentAssigned,
		rec.Reconciled, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return checkout.Record{}, err
	}
	return rec, nil
}

func (j *Journal) UpdateRecord(ctx context.Context, rec checkout.Record) (checkout.Record, error) {
	rec.UpdatedAt = time.Now().UTC()

	items, err := itemsJSON(rec.Items)
	if err != nil {
		return checkout.Record{}, err
	}

	result, err := j.db.ExecContext(ctx, `
		UPDATE checkout_records
		SET outcome = $2, stage = $3, amount_minor = $4, items = $5,
			order_id = $6, idempotency_key = $7, failure_message = $8,
			agent_assigned = $9, reconciled = $10, updated_at = $11
		WHERE id = $1
	`, rec.ID, string(rec.Outcome), string(rec.Stage), rec.AmountMinor, items,
		rec.OrderID, rec.IdempotencyKey, rec.FailureMessage, rec.AgentAssigned,
		rec.Reconciled, rec.UpdatedAt)
	if err != nil {
		return checkout.Record{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return checkout.Record{}, sql.ErrNoRows
	}
	return rec, nil
}

const selectColumns = `
	SELECT id, outcome, stage, amount_minor, items, order_id, idempotency_key,
	       failure_message, agent_assigned, reconciled, created_at, updated_at
	FROM checkout_records
`

func (j *Journal) GetRecord(ctx context.Context, id string) (checkout.Record, error) {
	var row recordRow
	if err := j.db.GetContext(ctx, &row, selectColumns+` WHERE id = $1`, id); err != nil {
		return checkout.Record{}, err
	}
	return row.toDomain()
}

func (j *Journal) ListRecords(ctx context.Context) ([]checkout.Record, error) {
	var rows []recordRow
	if err := j.db.SelectContext(ctx, &rows, selectColumns+` ORDER BY created_at`); err != nil {
		return nil, err
	}
	return rowsToDomain(rows)
}

func (j *Journal) ListUnreconciled(ctx context.Context) ([]checkout.Record, error) {
	var rows []recordRow
	err := j.db.SelectContext(ctx, &rows, selectColumns+`
		WHERE outcome = $1 AND reconciled = FALSE
		ORDER BY created_at
	`, string(checkout.OutcomePaymentCapturedOrderFailed))
	if err != nil {
		return nil, err
	}
	return rowsToDomain(rows)
}

func rowsToDomain(rows []recordRow) ([]checkout.Record, error) {
	result := make([]checkout.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}
