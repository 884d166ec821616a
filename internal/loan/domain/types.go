package domain

// LoanStatus is the loan lifecycle state. Transitions only move forward;
// CanTransition is the single authority on what is legal.
type LoanStatus string

const (
	StatusPending   LoanStatus = "pending"
	StatusApproved  LoanStatus = "approved"
	StatusDisbursed LoanStatus = "disbursed"
	StatusRepaying  LoanStatus = "repaying"
	StatusCompleted LoanStatus = "completed"
	StatusDefaulted LoanStatus = "defaulted"
	StatusRejected  LoanStatus = "rejected"
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDisbursed},
	StatusDisbursed: {StatusRepaying, StatusCompleted, StatusDefaulted},
	StatusRepaying:  {StatusRepaying, StatusCompleted, StatusDefaulted},
}

// CanTransition reports whether from -> to is a legal loan state change.
func CanTransition(from, to LoanStatus) bool {
	for _, next := range loanTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition exists from s.
func (s LoanStatus) IsTerminal() bool {
	return len(loanTransitions[s]) == 0
}

// RepaymentMode distinguishes member-initiated repayments from the
// scheduled auto-debit path.
type RepaymentMode string

const (
	RepaymentManual    RepaymentMode = "manual"
	RepaymentAutomated RepaymentMode = "automated"
)

// GuarantorStatus is a guarantor invitation outcome.
type GuarantorStatus string

const (
	GuarantorPending  GuarantorStatus = "pending"
	GuarantorAccepted GuarantorStatus = "accepted"
	GuarantorRejected GuarantorStatus = "rejected"
)
