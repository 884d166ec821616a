package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	loandomain "github.com/kwachasoft/coopfin/internal/loan/domain"
	memberdomain "github.com/kwachasoft/coopfin/internal/member/domain"
	savingsdomain "github.com/kwachasoft/coopfin/internal/savings/domain"
	withdrawaldomain "github.com/kwachasoft/coopfin/internal/withdrawal/domain"
)

// ActorKey is where the identification middleware stores the caller's id.
const ActorKey = "x-actor-id"

// Actor returns the authenticated caller id for audit fields.
func Actor(c *gin.Context) string {
	if v, ok := c.Get(ActorKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// RespondError maps domain errors onto HTTP statuses in one place so every
// handler reports business failures the same way.
func RespondError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ledgerdomain.ErrAccountNotFound),
		errors.Is(err, ledgerdomain.ErrTransactionNotFound),
		errors.Is(err, loandomain.ErrLoanNotFound),
		errors.Is(err, loandomain.ErrGuarantorNotFound),
		errors.Is(err, memberdomain.ErrMemberNotFound),
		errors.Is(err, savingsdomain.ErrProductNotFound),
		errors.Is(err, savingsdomain.ErrPlanNotFound),
		errors.Is(err, withdrawaldomain.ErrRequestNotFound):
		return http.StatusNotFound

	case errors.Is(err, ledgerdomain.ErrInsufficientFunds),
		errors.Is(err, ledgerdomain.ErrAccountNotActive),
		errors.Is(err, loandomain.ErrGuarantorPending),
		errors.Is(err, loandomain.ErrExcessRepayment),
		errors.Is(err, savingsdomain.ErrPlanNotActive):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ledgerdomain.ErrDuplicatePosting),
		errors.Is(err, ledgerdomain.ErrDuplicateReference),
		errors.Is(err, ledgerdomain.ErrAlreadyReversed),
		errors.Is(err, ledgerdomain.ErrVersionConflict),
		errors.Is(err, memberdomain.ErrEmailTaken):
		return http.StatusConflict

	case errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrSameAccountTransfer),
		errors.Is(err, loandomain.ErrReasonRequired),
		errors.Is(err, memberdomain.ErrReasonRequired),
		errors.Is(err, withdrawaldomain.ErrReasonRequired):
		return http.StatusBadRequest

	case errors.Is(err, withdrawaldomain.ErrNotRequester):
		return http.StatusForbidden
	}

	var loanTransition *loandomain.TransitionError
	var memberTransition *memberdomain.TransitionError
	var planTransition *savingsdomain.TransitionError
	var resolved *withdrawaldomain.ResolvedError
	if errors.As(err, &loanTransition) ||
		errors.As(err, &memberTransition) ||
		errors.As(err, &planTransition) ||
		errors.As(err, &resolved) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}
