package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minfaz98/cozy-stay/internal/domain"
)

const roomColumns = `id, number, type, price_cents, weekly_rate_cents, monthly_rate_cents, capacity, status, created_at, updated_at`

type PGRoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) RoomRepository {
	return &PGRoomRepository{db: db}
}

func (r *PGRoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrRoomNotFound, id)
		}
		return nil, err
	}
	return room, nil
}

func (r *PGRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY number`)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

func (r *PGRoomRepository) ListByType(ctx context.Context, roomType domain.RoomType) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE type=$1 ORDER BY number`, roomType)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

func (r *PGRoomRepository) UpdateStatus(ctx context.Context, id int64, status domain.RoomStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE rooms SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrRoomNotFound, id)
	}
	return nil
}

func collectRooms(rows pgx.Rows) ([]domain.Room, error) {
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(s scanner) (*domain.Room, error) {
	var room domain.Room
	if err := s.Scan(&room.ID, &room.Number, &room.Type, &room.PriceCents, &room.WeeklyRateCents,
		&room.MonthlyRateCents, &room.Capacity, &room.Status, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	return &room, nil
}

var _ RoomRepository = (*PGRoomRepository)(nil)
