package api

// Amounts travel as strings end to end so no precision is lost in JSON.

type OpenAccountReq struct {
	UserID int64  `json:"user_id" binding:"required"`
	Type   string `json:"type" binding:"required,oneof=savings share_capital savings_plan"`
}

type AccountStatusReq struct {
	Status string `json:"status" binding:"required,oneof=active frozen closed"`
}

type DepositReq struct {
	AccountID   int64  `json:"account_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type WithdrawReq struct {
	AccountID   int64  `json:"account_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

type TransferReq struct {
	SourceAccountID      int64  `json:"source_account_id" binding:"required"`
	DestinationAccountID int64  `json:"destination_account_id" binding:"required"`
	Amount               string `json:"amount" binding:"required"`
	Description          string `json:"description"`
}

type ReverseReq struct {
	Reason string `json:"reason" binding:"required"`
}

type AccrualReq struct {
	Type        string `json:"type" binding:"required,oneof=interest dividend"`
	Period      string `json:"period" binding:"required"`
	Rate        string `json:"rate" binding:"required"`
	PeriodStart string `json:"period_start"` // RFC 3339; interest proration
	PeriodEnd   string `json:"period_end"`
	DryRun      bool   `json:"dry_run"`
}
