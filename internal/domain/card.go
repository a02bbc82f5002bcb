package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var cardValidator = validator.New(validator.WithRequiredStructEnabled())

// CreditCard is attached 1:1 to a reservation when supplied at booking time.
// Number holds the raw digits only until Masked is called on persist.
type CreditCard struct {
	Number      string `json:"card_number" validate:"required,len=16,number"`
	ExpiryMonth int    `json:"expiry_month" validate:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" validate:"required"`
	CVV         string `json:"cvv" validate:"required,min=3,max=4,number"`
	HolderName  string `json:"holder_name" validate:"required"`
}

// Validate checks the field formats and that the card has not expired at now.
func (c CreditCard) Validate(now time.Time) error {
	if strings.TrimSpace(c.HolderName) == "" {
		return fmt.Errorf("%w: holder name is required", ErrValidation)
	}
	if err := cardValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: card field %s failed %q", ErrValidation, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	year, month := now.Year(), int(now.Month())
	if c.ExpiryYear < year || (c.ExpiryYear == year && c.ExpiryMonth < month) {
		return fmt.Errorf("%w: card expired", ErrValidation)
	}
	return nil
}

// Masked returns a copy safe to store: all but the last four digits are
// replaced and the CVV is dropped.
func (c CreditCard) Masked() CreditCard {
	masked := c
	if len(c.Number) > 4 {
		masked.Number = strings.Repeat("*", len(c.Number)-4) + c.Number[len(c.Number)-4:]
	}
	masked.CVV = ""
	return masked
}
