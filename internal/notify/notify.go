// Package notify turns reservation events into guest notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/minfaz98/cozy-stay/internal/kafka"
)

// Sender delivers notifications by writing them to the structured log. A
// mail or SMS gateway would slot in behind the same method.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	text, ok := Message(event)
	if !ok {
		s.logger.DebugContext(ctx, "no notification for event", "type", event.Type, "event_id", event.ID)
		return nil
	}
	s.logger.InfoContext(ctx, "guest notified",
		"user_id", event.UserID, "reservation_id", event.ReservationID, "type", event.Type, "message", text)
	return nil
}

// Message renders the guest-facing text for an event. ok is false for event
// types that do not notify the guest.
func Message(e kafka.ReservationEvent) (string, bool) {
	stay := fmt.Sprintf("room %d from %s to %s", e.RoomID, e.CheckIn, e.CheckOut)
	switch e.Type {
	case kafka.EventReservationCreated:
		if e.Status == "PENDING" {
			return fmt.Sprintf("Reservation #%d for %s is on hold. Add a credit card before the evening cutoff to keep it.", e.ReservationID, stay), true
		}
		return fmt.Sprintf("Reservation #%d for %s is confirmed.", e.ReservationID, stay), true
	case kafka.EventReservationConfirmed:
		return fmt.Sprintf("Reservation #%d for %s is confirmed.", e.ReservationID, stay), true
	case kafka.EventReservationUpdated:
		return fmt.Sprintf("Reservation #%d now covers %s. New total %s.", e.ReservationID, stay, cents(e.TotalCents)), true
	case kafka.EventReservationCancelled:
		return fmt.Sprintf("Reservation #%d for %s was cancelled.", e.ReservationID, stay), true
	case kafka.EventReservationExpired:
		return fmt.Sprintf("Reservation #%d for %s was released because no credit card was provided.", e.ReservationID, stay), true
	case kafka.EventReservationNoShow:
		return fmt.Sprintf("You missed check-in for reservation #%d. One night has been charged.", e.ReservationID), true
	case kafka.EventCheckoutCompleted:
		return fmt.Sprintf("Thanks for staying with us. Reservation #%d is checked out.", e.ReservationID), true
	default:
		return "", false
	}
}

// Handler adapts the sender to kafka.Consumer. Undecodable messages are
// logged and skipped so one bad payload cannot stall the partition.
func Handler(sender *Sender) func(context.Context, kafkago.Message) error {
	return func(ctx context.Context, msg kafkago.Message) error {
		var event kafka.ReservationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			sender.logger.WarnContext(ctx, "decode reservation event", "offset", msg.Offset, "error", err)
			return nil
		}
		return sender.Send(ctx, event)
	}
}

func cents(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
