package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReference builds a globally unique transaction reference, e.g.
// "DEP-20260829-9F1C2B7A4D03". Uniqueness is ultimately enforced by the
// database index; callers regenerate on collision.
func NewReference(txType TransactionType, at time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return fmt.Sprintf("%s-%s-%s", txType.ReferencePrefix(), at.Format("20060102"), token)
}

// NewTransferRef builds the shared reference that links the two legs of a
// transfer.
func NewTransferRef(at time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return fmt.Sprintf("TRF-%s-%s", at.Format("20060102"), token)
}

// NewAccountNumber builds a member account number, e.g. "CFN2609F1C2B7A".
func NewAccountNumber(at time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("CFN%s%s", at.Format("0601"), token)
}
