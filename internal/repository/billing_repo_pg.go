package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minfaz98/cozy-stay/internal/domain"
)

type PGBillingRepository struct {
	db *pgxpool.Pool
}

func NewBillingRepository(db *pgxpool.Pool) BillingRepository {
	return &PGBillingRepository{db: db}
}

func (r *PGBillingRepository) Append(ctx context.Context, record *domain.BillingRecord) error {
	return r.db.QueryRow(ctx, `INSERT INTO billing_records (reservation_id, amount_cents, status, payment_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, record.ReservationID, record.AmountCents, record.Status, record.PaymentMethod).
		Scan(&record.ID, &record.CreatedAt)
}

func (r *PGBillingRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.BillingRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, reservation_id, amount_cents, status, payment_method, created_at
		FROM billing_records WHERE reservation_id=$1 ORDER BY id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.BillingRecord
	for rows.Next() {
		var b domain.BillingRecord
		if err := rows.Scan(&b.ID, &b.ReservationID, &b.AmountCents, &b.Status, &b.PaymentMethod, &b.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, b)
	}
	return records, rows.Err()
}

func insertBillingRecord(ctx context.Context, tx pgx.Tx, record *domain.BillingRecord) error {
	return tx.QueryRow(ctx, `INSERT INTO billing_records (reservation_id, amount_cents, status, payment_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, record.ReservationID, record.AmountCents, record.Status, record.PaymentMethod).
		Scan(&record.ID, &record.CreatedAt)
}

type PGChargeRepository struct {
	db *pgxpool.Pool
}

func NewChargeRepository(db *pgxpool.Pool) ChargeRepository {
	return &PGChargeRepository{db: db}
}

func (r *PGChargeRepository) Add(ctx context.Context, charge *domain.OptionalCharge) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// a checkout in flight holds the row FOR UPDATE; wait for it
	var status domain.ReservationStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM reservations WHERE id=$1 FOR SHARE`, charge.ReservationID).
		Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, charge.ReservationID)
		}
		return err
	}
	if status.IsTerminal() {
		return fmt.Errorf("%w: reservation %d is %s", domain.ErrInvalidStateTransition, charge.ReservationID, status)
	}

	if err := tx.QueryRow(ctx, `INSERT INTO optional_charges (reservation_id, description, amount_cents)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, charge.ReservationID, charge.Description, charge.AmountCents).
		Scan(&charge.ID, &charge.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGChargeRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.OptionalCharge, error) {
	rows, err := r.db.Query(ctx, `SELECT id, reservation_id, description, amount_cents, created_at
		FROM optional_charges WHERE reservation_id=$1 ORDER BY id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []domain.OptionalCharge
	for rows.Next() {
		var c domain.OptionalCharge
		if err := rows.Scan(&c.ID, &c.ReservationID, &c.Description, &c.AmountCents, &c.CreatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

var (
	_ BillingRepository = (*PGBillingRepository)(nil)
	_ ChargeRepository  = (*PGChargeRepository)(nil)
)
