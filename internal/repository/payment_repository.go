package repository

import (
    "context"
    "database/sql"
    "encoding/json"

    "github.com/iliyamo/room-reservation/internal/model"
)

// PaymentRepo reads and writes the 'payments' table.  One row per
// booking: a retried payment attempt replaces the previous row via
// upsert on the booking_id unique key.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// Upsert inserts the payment or, when the booking already has one,
// overwrites the intent, amount and status of the existing row.  Sets
// p.ID to the row's id either way.
func (r *PaymentRepo) Upsert(ctx context.Context, p *model.Payment) error {
    meta, err := encodeMetadata(p.Metadata)
    if err != nil {
        return err
    }
    _, err = r.DB.ExecContext(ctx, `
		INSERT INTO payments
		  (booking_id, payment_intent_id, amount, currency, status, payment_method, metadata)
		VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
		  payment_intent_id=VALUES(payment_intent_id),
		  amount=VALUES(amount),
		  currency=VALUES(currency),
		  status=VALUES(status),
		  payment_method=VALUES(payment_method),
		  metadata=VALUES(metadata)`,
        p.BookingID, p.PaymentIntentID, p.Amount, p.Currency, p.Status, p.PaymentMethod, meta)
    if err != nil {
        return err
    }
    // LastInsertId is unreliable on upsert; read the id back.
    return r.DB.QueryRowContext(ctx,
        "SELECT id FROM payments WHERE booking_id=? LIMIT 1", p.BookingID).Scan(&p.ID)
}

// GetByIntentID fetches the payment for an external intent id, or
// (nil, nil) when none matches.
func (r *PaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
    var (
        p      model.Payment
        method sql.NullString
        meta   sql.NullString
    )
    err := r.DB.QueryRowContext(ctx, `
		SELECT id, booking_id, payment_intent_id, amount, currency, status,
		       payment_method, metadata, created_at, updated_at
		FROM payments WHERE payment_intent_id=? LIMIT 1`,
        intentID).Scan(&p.ID, &p.BookingID, &p.PaymentIntentID, &p.Amount, &p.Currency,
        &p.Status, &method, &meta, &p.CreatedAt, &p.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    if method.Valid {
        p.PaymentMethod = &method.String
    }
    if meta.Valid && meta.String != "" {
        if err := json.Unmarshal([]byte(meta.String), &p.Metadata); err != nil {
            return nil, err
        }
    }
    return &p, nil
}

// SetStatusTx updates the row's gateway status and, when method is
// non-empty, records the payment method.  Runs inside tx so booking
// and payment rows move together.
func (r *PaymentRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status, method string) error {
    if method != "" {
        _, err := tx.ExecContext(ctx,
            "UPDATE payments SET status=?, payment_method=? WHERE id=?",
            status, method, id)
        return err
    }
    _, err := tx.ExecContext(ctx,
        "UPDATE payments SET status=? WHERE id=?", status, id)
    return err
}

func encodeMetadata(m map[string]any) (any, error) {
    if m == nil {
        return nil, nil
    }
    b, err := json.Marshal(m)
    if err != nil {
        return nil, err
    }
    return string(b), nil
}
