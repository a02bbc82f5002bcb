package domain

import "time"

type RoomType string

const (
	RoomTypeSingle RoomType = "SINGLE"
	RoomTypeDouble RoomType = "DOUBLE"
	RoomTypeFamily RoomType = "FAMILY"
	RoomTypeDeluxe RoomType = "DELUXE"
	RoomTypeSuite  RoomType = "SUITE"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeSingle, RoomTypeDouble, RoomTypeFamily, RoomTypeDeluxe, RoomTypeSuite:
		return true
	}
	return false
}

type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
	RoomStatusReserved    RoomStatus = "RESERVED"
)

// Room is owned by the admin catalog; the core only reads prices and
// flips the status on check-in and checkout.
type Room struct {
	ID               int64      `json:"id"`
	Number           string     `json:"number"`
	Type             RoomType   `json:"type"`
	PriceCents       int64      `json:"price_cents"`
	WeeklyRateCents  *int64     `json:"weekly_rate_cents,omitempty"`
	MonthlyRateCents *int64     `json:"monthly_rate_cents,omitempty"`
	Capacity         int        `json:"capacity"`
	Status           RoomStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
