package payment

import "time"

// Decision reasons reported to the caller. These are part of the API
// contract; the frontend matches on them.
const (
	ReasonQualityBelowThreshold = "Content quality below threshold"
	ReasonAmountBelowThreshold  = "Payment amount below threshold"
	ReasonFavoriteCreator       = "Favorite creator with high-quality content"
	ReasonMeetsCriteria         = "Content meets quality and relevance criteria"
	ReasonDailyBudgetExceeded   = "Daily budget exceeded"
	ReasonWouldExceedBudget     = "Would exceed daily budget"
	ReasonManualTip             = "Manual tip"
	ReasonSubscription          = "Subscription payment"
)

// Decision is the pay/no-pay verdict for a single content item or charge.
type Decision struct {
	ShouldPay       bool    `json:"shouldPay"`
	Amount          float64 `json:"amount"`
	Reason          string  `json:"reason"`
	ConfidenceScore float64 `json:"confidenceScore"`
	ContentID       string  `json:"contentId"`
	CreatorAddress  string  `json:"creatorAddress"`
}

// Wallet is a custodial wallet provisioned for a user at the payment
// provider. Created lazily on first payment and cached in the store.
type Wallet struct {
	Address   string    `json:"address"`
	WalletID  string    `json:"walletId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction records an executed USDC transfer.
type Transaction struct {
	TxHash    string    `json:"txHash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	ContentID string    `json:"contentId"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
