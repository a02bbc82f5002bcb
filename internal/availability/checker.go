// Package availability answers whether a room is free over a date range.
package availability

import (
	"context"
	"time"

	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/repository"
)

type Checker struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
}

func NewChecker(rooms repository.RoomRepository, reservations repository.ReservationRepository) *Checker {
	return &Checker{rooms: rooms, reservations: reservations}
}

// IsAvailable reports whether roomID has no CONFIRMED or CHECKED_IN
// reservation overlapping [checkIn, checkOut). excludeID skips one
// reservation so an update does not conflict with itself; pass 0 for none.
// It returns domain.ErrRoomNotFound when the room does not exist.
func (c *Checker) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) (bool, error) {
	if _, err := c.rooms.GetByID(ctx, roomID); err != nil {
		return false, err
	}

	existing, err := c.reservations.ListBlockingByRoom(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return Free(existing, checkIn, checkOut, excludeID), nil
}

// Free is the pure overlap test behind IsAvailable.
func Free(existing []domain.Reservation, checkIn, checkOut time.Time, excludeID int64) bool {
	for _, r := range existing {
		if r.ID == excludeID || !r.Status.BlocksInventory() {
			continue
		}
		if domain.Overlaps(checkIn, checkOut, r.CheckIn, r.CheckOut) {
			return false
		}
	}
	return true
}
