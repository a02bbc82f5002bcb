package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minfaz98/cozy-stay/internal/domain"
)

const reservationColumns = `id, room_id, user_id, check_in, check_out, guests, status, total_amount_cents,
	discount_rate, group_id, has_credit_card, created_at, updated_at`

const blockingStatuses = `('CONFIRMED', 'CHECKED_IN')`

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) Create(ctx context.Context, reservation *domain.Reservation, card *domain.CreditCard) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertReservation(ctx, tx, reservation, card); err != nil {
		return err
	}
	return mapConflict(tx.Commit(ctx))
}

func (r *PGReservationRepository) CreateBatch(ctx context.Context, reservations []*domain.Reservation, card *domain.CreditCard) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, reservation := range reservations {
		if err := insertReservation(ctx, tx, reservation, card); err != nil {
			return err
		}
	}
	return mapConflict(tx.Commit(ctx))
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id)
	return scanReservationRow(row, id)
}

func (r *PGReservationRepository) ListBlockingByRoom(ctx context.Context, roomID int64, from, to time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE room_id=$1 AND status IN `+blockingStatuses+` AND check_in < $3 AND check_out > $2
		ORDER BY check_in`, roomID, from, to)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) Reschedule(ctx context.Context, reservation *domain.Reservation, change *StatusChange) error {
	if change != nil && change.From != reservation.Status {
		return fmt.Errorf("%w: reservation %d is %s, change expects %s", domain.ErrInvalidStateTransition,
			reservation.ID, reservation.Status, change.From)
	}
	next := reservation.Status
	if change != nil {
		next = change.To
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
		return err
	}
	if reservation.Status.BlocksInventory() || next.BlocksInventory() {
		if err := checkOverlap(ctx, tx, reservation.RoomID, reservation.CheckIn, reservation.CheckOut, reservation.ID); err != nil {
			return err
		}
	}

	row := tx.QueryRow(ctx, `UPDATE reservations
		SET room_id=$1, check_in=$2, check_out=$3, total_amount_cents=$4, status=$7, updated_at=now()
		WHERE id=$5 AND status=$6
		RETURNING `+reservationColumns,
		reservation.RoomID, reservation.CheckIn, reservation.CheckOut, reservation.TotalAmountCents,
		reservation.ID, reservation.Status, next)
	updated, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staleStatus(ctx, tx, reservation.ID, reservation.Status)
		}
		return mapConflict(err)
	}
	if change != nil && change.RoomStatus != nil {
		if _, err := tx.Exec(ctx, `UPDATE rooms SET status=$1, updated_at=now() WHERE id=$2`,
			*change.RoomStatus, updated.RoomID); err != nil {
			return err
		}
	}
	*reservation = *updated
	return mapConflict(tx.Commit(ctx))
}

func (r *PGReservationRepository) Confirm(ctx context.Context, id int64, card domain.CreditCard) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := scanReservationRow(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1 FOR UPDATE`, id), id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.ReservationStatusPending {
		return nil, fmt.Errorf("%w: cannot confirm %s reservation", domain.ErrInvalidStateTransition, current.Status)
	}
	if err := lockRoom(ctx, tx, current.RoomID); err != nil {
		return nil, err
	}
	if err := checkOverlap(ctx, tx, current.RoomID, current.CheckIn, current.CheckOut, current.ID); err != nil {
		return nil, err
	}

	updated, err := scanReservation(tx.QueryRow(ctx, `UPDATE reservations
		SET status=$1, has_credit_card=true, updated_at=now()
		WHERE id=$2
		RETURNING `+reservationColumns, domain.ReservationStatusConfirmed, id))
	if err != nil {
		return nil, mapConflict(err)
	}
	if err := insertCard(ctx, tx, id, card); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapConflict(err)
	}
	return updated, nil
}

func (r *PGReservationRepository) Transition(ctx context.Context, change StatusChange) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if change.ChargesCents != nil {
		if err := checkCharges(ctx, tx, change.ReservationID, *change.ChargesCents); err != nil {
			return nil, err
		}
	}

	updated, err := scanReservation(tx.QueryRow(ctx, `UPDATE reservations
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3
		RETURNING `+reservationColumns, change.To, change.ReservationID, change.From))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, staleStatus(ctx, tx, change.ReservationID, change.From)
		}
		return nil, mapConflict(err)
	}

	if change.RoomStatus != nil {
		if _, err := tx.Exec(ctx, `UPDATE rooms SET status=$1, updated_at=now() WHERE id=$2`, *change.RoomStatus, updated.RoomID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapConflict(err)
	}
	return updated, nil
}

func (r *PGReservationRepository) MarkNoShow(ctx context.Context, id int64, record *domain.BillingRecord) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	updated, err := scanReservation(tx.QueryRow(ctx, `UPDATE reservations
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3
		  AND NOT EXISTS (SELECT 1 FROM billing_records b WHERE b.reservation_id=reservations.id)
		RETURNING `+reservationColumns, domain.ReservationStatusNoShow, id, domain.ReservationStatusConfirmed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: reservation %d is no longer an unbilled confirmed stay", domain.ErrInvalidStateTransition, id)
		}
		return nil, err
	}

	record.ReservationID = id
	if err := insertBillingRecord(ctx, tx, record); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PGReservationRepository) ListPendingWithoutCard(ctx context.Context, createdBefore time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE status=$1 AND NOT has_credit_card AND created_at < $2
		ORDER BY id`, domain.ReservationStatusPending, createdBefore)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) ListOverdueConfirmed(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations r
		WHERE r.status=$1 AND r.check_in < $2 AND r.check_out >= $2
		  AND NOT EXISTS (SELECT 1 FROM billing_records b WHERE b.reservation_id=r.id)
		ORDER BY r.id`, domain.ReservationStatusConfirmed, day)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func insertReservation(ctx context.Context, tx pgx.Tx, reservation *domain.Reservation, card *domain.CreditCard) error {
	if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
		return err
	}
	if reservation.Status.BlocksInventory() {
		if err := checkOverlap(ctx, tx, reservation.RoomID, reservation.CheckIn, reservation.CheckOut, 0); err != nil {
			return err
		}
	}

	reservation.HasCreditCardOnFile = card != nil
	row := tx.QueryRow(ctx, `INSERT INTO reservations
		(room_id, user_id, check_in, check_out, guests, status, total_amount_cents, discount_rate, group_id, has_credit_card)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		reservation.RoomID, reservation.UserID, reservation.CheckIn, reservation.CheckOut, reservation.Guests,
		reservation.Status, reservation.TotalAmountCents, reservation.DiscountRate, reservation.GroupID,
		reservation.HasCreditCardOnFile)
	if err := row.Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt); err != nil {
		return mapConflict(err)
	}

	if card != nil {
		if err := insertCard(ctx, tx, reservation.ID, *card); err != nil {
			return err
		}
	}
	if reservation.Status == domain.ReservationStatusCheckedIn {
		if _, err := tx.Exec(ctx, `UPDATE rooms SET status=$1, updated_at=now() WHERE id=$2`, domain.RoomStatusOccupied, reservation.RoomID); err != nil {
			return err
		}
	}
	return nil
}

// lockRoom serializes writers on one room for the rest of the transaction.
func lockRoom(ctx context.Context, tx pgx.Tx, roomID int64) error {
	var id int64
	if err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", domain.ErrRoomNotFound, roomID)
		}
		return err
	}
	return nil
}

func checkOverlap(ctx context.Context, tx pgx.Tx, roomID int64, from, to time.Time, excludeID int64) error {
	var conflict bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE room_id=$1 AND id<>$4 AND status IN `+blockingStatuses+` AND check_in < $3 AND check_out > $2)`,
		roomID, from, to, excludeID).Scan(&conflict); err != nil {
		return err
	}
	if conflict {
		return fmt.Errorf("%w: room %d is booked between %s and %s", domain.ErrRoomUnavailable, roomID,
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return nil
}

func insertCard(ctx context.Context, tx pgx.Tx, reservationID int64, card domain.CreditCard) error {
	masked := card.Masked()
	_, err := tx.Exec(ctx, `INSERT INTO credit_cards (reservation_id, card_number, expiry_month, expiry_year, holder_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reservation_id) DO UPDATE
		SET card_number=EXCLUDED.card_number, expiry_month=EXCLUDED.expiry_month,
		    expiry_year=EXCLUDED.expiry_year, holder_name=EXCLUDED.holder_name`,
		reservationID, masked.Number, masked.ExpiryMonth, masked.ExpiryYear, masked.HolderName)
	return err
}

// checkCharges locks the reservation row, which charge inserts share-lock,
// and compares the current charge total with expected.
func checkCharges(ctx context.Context, tx pgx.Tx, id, expected int64) error {
	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM reservations WHERE id=$1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		return err
	}
	var total int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM optional_charges WHERE reservation_id=$1`, id).
		Scan(&total); err != nil {
		return err
	}
	if total != expected {
		return fmt.Errorf("%w: charges changed from %d to %d cents", domain.ErrPayment, expected, total)
	}
	return nil
}

// staleStatus explains why a conditional update matched no row.
func staleStatus(ctx context.Context, tx pgx.Tx, id int64, expected domain.ReservationStatus) error {
	var actual domain.ReservationStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM reservations WHERE id=$1`, id).Scan(&actual); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		return err
	}
	return fmt.Errorf("%w: reservation %d is %s, expected %s", domain.ErrInvalidStateTransition, id, actual, expected)
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

func scanReservationRow(row pgx.Row, id int64) (*domain.Reservation, error) {
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return res, nil
}

func scanReservation(s scanner) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := s.Scan(&res.ID, &res.RoomID, &res.UserID, &res.CheckIn, &res.CheckOut, &res.Guests, &res.Status,
		&res.TotalAmountCents, &res.DiscountRate, &res.GroupID, &res.HasCreditCardOnFile,
		&res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
