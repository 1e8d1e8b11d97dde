package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmpolyakov/storefront-payments/internal/storage"
	"github.com/dmpolyakov/storefront-payments/internal/types/admin"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"github.com/dmpolyakov/storefront-payments/internal/types/refund"
	"github.com/shopspring/decimal"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &PostgresStorage{db: db}

	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            number TEXT UNIQUE,
            customer_email TEXT NOT NULL,
            total NUMERIC(12,2) NOT NULL,
            currency TEXT NOT NULL,
            status TEXT NOT NULL,
            payment_intent_id TEXT,
            failure_reason TEXT,
            amount_refunded NUMERIC(12,2),
            created_at TIMESTAMPTZ NOT NULL,
            paid_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS refunds (
            id SERIAL PRIMARY KEY,
            order_id INT NOT NULL REFERENCES orders(id),
            payment_intent_id TEXT NOT NULL,
            amount NUMERIC(12,2) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS admins (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) CreateOrder(ctx context.Context, o *order.Order) error {
	q := `
        INSERT INTO orders (number, customer_email, total, currency, status, created_at)
        VALUES (NULLIF($1,''), $2, $3, $4, $5, $6) RETURNING id`
	return s.db.QueryRowContext(ctx, q,
		o.Number, o.CustomerEmail, o.Total, o.Currency, o.Status, o.CreatedAt,
	).Scan(&o.ID)
}

func (s *PostgresStorage) SetOrderNumber(ctx context.Context, orderID int64, number string) error {
	q := `UPDATE orders SET number=$1 WHERE id=$2`
	_, err := s.db.ExecContext(ctx, q, number, orderID)
	return err
}

const orderColumns = `id, number, customer_email, total, currency, status,
        payment_intent_id, failure_reason, amount_refunded, created_at, paid_at`

func (s *PostgresStorage) scanOrder(row *sql.Row) (*order.Order, error) {
	var o order.Order
	var number, intentID, reason sql.NullString
	var refunded decimal.NullDecimal
	var paidAt sql.NullTime
	err := row.Scan(
		&o.ID, &number, &o.CustomerEmail, &o.Total, &o.Currency, &o.Status,
		&intentID, &reason, &refunded, &o.CreatedAt, &paidAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Number = number.String
	if intentID.Valid {
		o.PaymentIntentID = &intentID.String
	}
	if reason.Valid {
		o.FailureReason = &reason.String
	}
	if refunded.Valid {
		o.AmountRefunded = &refunded.Decimal
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}

func (s *PostgresStorage) FindOrderByID(ctx context.Context, id int64) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return s.scanOrder(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStorage) FindOrderByNumber(ctx context.Context, number string) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`
	return s.scanOrder(s.db.QueryRowContext(ctx, q, number))
}

func (s *PostgresStorage) AttachPaymentIntent(ctx context.Context, orderID int64, intentID string) error {
	q := `UPDATE orders SET payment_intent_id=$1 WHERE id=$2`
	_, err := s.db.ExecContext(ctx, q, intentID, orderID)
	return err
}

func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, orderID int64, expected, next order.PaymentStatus, d order.StatusDetails) error {
	const q = `
        UPDATE orders
        SET status = $1,
            payment_intent_id = COALESCE($2, payment_intent_id),
            failure_reason = CASE WHEN $3::boolean THEN NULL ELSE COALESCE($4, failure_reason) END,
            amount_refunded = COALESCE($5, amount_refunded),
            paid_at = COALESCE($6, paid_at)
        WHERE id = $7 AND status = $8
    `
	var refunded interface{}
	if d.AmountRefunded != nil {
		refunded = *d.AmountRefunded
	}
	res, err := s.db.ExecContext(ctx, q,
		next, d.PaymentIntentID, d.ClearFailureReason, d.FailureReason, refunded, d.PaidAt, orderID, expected,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrStatusConflict
	}
	return nil
}

func (s *PostgresStorage) ListOrdersForReconciliation(ctx context.Context) ([]order.Order, error) {
	const q = `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE status = 'pending'
          AND payment_intent_id IS NOT NULL
          AND created_at < NOW() - INTERVAL '1 minute'
        ORDER BY created_at
    `
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		var o order.Order
		var number, intentID, reason sql.NullString
		var refunded decimal.NullDecimal
		var paidAt sql.NullTime
		if err := rows.Scan(
			&o.ID, &number, &o.CustomerEmail, &o.Total, &o.Currency, &o.Status,
			&intentID, &reason, &refunded, &o.CreatedAt, &paidAt,
		); err != nil {
			return nil, err
		}
		o.Number = number.String
		if intentID.Valid {
			o.PaymentIntentID = &intentID.String
		}
		if reason.Valid {
			o.FailureReason = &reason.String
		}
		if refunded.Valid {
			o.AmountRefunded = &refunded.Decimal
		}
		if paidAt.Valid {
			t := paidAt.Time
			o.PaidAt = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) CreateRefund(ctx context.Context, r *refund.Refund) error {
	q := `
        INSERT INTO refunds (order_id, payment_intent_id, amount, created_at)
        VALUES ($1,$2,$3,$4) RETURNING id`
	return s.db.QueryRowContext(ctx, q, r.OrderID, r.PaymentIntentID, r.Amount, r.CreatedAt).Scan(&r.ID)
}

func (s *PostgresStorage) ListRefundsByOrder(ctx context.Context, orderID int64) ([]refund.Refund, error) {
	q := `
        SELECT id, order_id, payment_intent_id, amount, created_at
        FROM refunds WHERE order_id=$1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []refund.Refund
	for rows.Next() {
		var r refund.Refund
		if err := rows.Scan(&r.ID, &r.OrderID, &r.PaymentIntentID, &r.Amount, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) CreateAdmin(ctx context.Context, a *admin.Admin) error {
	q := `INSERT INTO admins (login,password_hash,created_at) VALUES($1,$2,$3) RETURNING id`
	return s.db.QueryRowContext(ctx, q, a.Login, a.PasswordHash, a.CreatedAt).Scan(&a.ID)
}

func (s *PostgresStorage) FindAdminByLogin(ctx context.Context, login string) (*admin.Admin, error) {
	a := &admin.Admin{}
	q := `SELECT id,login,password_hash,created_at FROM admins WHERE login=$1`
	if err := s.db.QueryRowContext(ctx, q, login).
		Scan(&a.ID, &a.Login, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAdminNotFound
		}
		return nil, err
	}
	return a, nil
}
