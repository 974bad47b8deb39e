package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidParameter marks input rejected before any simulation starts.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInsufficientPayment marks a loan whose payments never outgrow its interest.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrNonConvergence marks a simulation that hit its iteration cap.
	// Simulations report this through a Converged flag; the error exists for
	// callers that want to fail on a capped result.
	ErrNonConvergence = errors.New("simulation did not converge")
	// ErrNotFound is returned by stores for unknown identifiers.
	ErrNotFound = errors.New("not found")
)

// ParameterError describes a single rejected input field.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// InvalidParameter builds a ParameterError.
func InvalidParameter(field, format string, args ...any) error {
	return &ParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientPaymentError reports a payment that does not cover accruing interest.
type InsufficientPaymentError struct {
	LoanID   int64
	LoanName string
	Payment  decimal.Decimal
	Interest decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	who := "loan"
	if e.LoanName != "" {
		who = fmt.Sprintf("loan %q", e.LoanName)
	}
	return fmt.Sprintf("%s: payment %s does not exceed monthly interest %s",
		who, e.Payment.StringFixed(2), e.Interest.StringFixed(2))
}

func (e *InsufficientPaymentError) Unwrap() error { return ErrInsufficientPayment }
