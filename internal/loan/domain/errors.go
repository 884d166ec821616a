package domain

import (
	"errors"
	"fmt"
)

var (
	ErrLoanNotFound      = errors.New("loan not found")
	ErrGuarantorPending  = errors.New("loan has guarantors that have not accepted")
	ErrGuarantorNotFound = errors.New("guarantor not found")
	ErrReasonRequired    = errors.New("a reason is required to reject")
	ErrExcessRepayment   = errors.New("repayment exceeds outstanding balance")
)

// TransitionError reports an illegal loan state change.
type TransitionError struct {
	From LoanStatus
	To   LoanStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal loan transition %s -> %s", e.From, e.To)
}

// NewTransitionError wraps an attempted from -> to change.
func NewTransitionError(from, to LoanStatus) error {
	return &TransitionError{From: from, To: to}
}
