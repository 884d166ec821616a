package api

type ApplyReq struct {
	UserID         int64   `json:"user_id" binding:"required"`
	AccountID      int64   `json:"account_id" binding:"required"`
	Amount         string  `json:"amount" binding:"required"`
	InterestRate   string  `json:"interest_rate" binding:"required"`
	DurationMonths int     `json:"duration_months" binding:"required,min=1"`
	Purpose        string  `json:"purpose"`
	RepaymentMode  string  `json:"repayment_mode" binding:"omitempty,oneof=manual automated"`
	GuarantorIDs   []int64 `json:"guarantor_ids"`
}

type RejectReq struct {
	Reason string `json:"reason" binding:"required"`
}

type RepayReq struct {
	Amount string `json:"amount" binding:"required"`
}

type GuarantorRespondReq struct {
	Accept bool `json:"accept"`
}
