// Package pricing computes stay prices from tiered room rates and bulk
// booking discounts. All amounts are integer cents.
package pricing

import (
	"math"
	"time"

	"github.com/minfaz98/cozy-stay/internal/domain"
)

const (
	nightsPerWeek  = 7
	nightsPerMonth = 30

	// MinBulkRooms is the smallest group accepted by a bulk booking.
	MinBulkRooms = 2
)

// Nights counts the nights in [checkIn, checkOut), rounding partial days up.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// StayPrice applies the monthly tier when the room has one and the stay is at
// least 30 nights, else the weekly tier for stays of 7+ nights, else the
// nightly price. The tiers never combine.
func StayPrice(room domain.Room, checkIn, checkOut time.Time) int64 {
	nights := int64(Nights(checkIn, checkOut))

	switch {
	case room.MonthlyRateCents != nil && nights >= nightsPerMonth:
		months, rest := nights/nightsPerMonth, nights%nightsPerMonth
		return *room.MonthlyRateCents*months + room.PriceCents*rest
	case room.WeeklyRateCents != nil && nights >= nightsPerWeek:
		weeks, rest := nights/nightsPerWeek, nights%nightsPerWeek
		return *room.WeeklyRateCents*weeks + room.PriceCents*rest
	default:
		return room.PriceCents * nights
	}
}

// BulkDiscountRate returns the discount for a group of roomCount rooms.
func BulkDiscountRate(roomCount int) float64 {
	switch {
	case roomCount >= 10:
		return 0.30
	case roomCount >= 5:
		return 0.20
	case roomCount >= 3:
		return 0.15
	default:
		return 0.10
	}
}

// DiscountedNightly is the per-night price of one room after rate is applied.
func DiscountedNightly(priceCents int64, rate float64) int64 {
	return int64(math.Round(float64(priceCents) * (1 - rate)))
}

// BulkStayPrice prices one room of a bulk group. Weekly and monthly tiers do
// not apply in the bulk flow.
func BulkStayPrice(room domain.Room, checkIn, checkOut time.Time, rate float64) int64 {
	return DiscountedNightly(room.PriceCents, rate) * int64(Nights(checkIn, checkOut))
}
