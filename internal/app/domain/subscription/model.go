package subscription

import "time"

// Period is the fixed recurrence between charges.
const Period = 30 * 24 * time.Hour

// Subscription is a recurring charge from a user to a creator. Records are
// never deleted; cancellation flips Active and stamps CancelledAt.
type Subscription struct {
	ID              string     `json:"subscriptionId"`
	UserID          string     `json:"userId"`
	CreatorAddress  string     `json:"creatorAddress"`
	Amount          float64    `json:"amount"`
	Active          bool       `json:"active"`
	NextPaymentDate time.Time  `json:"nextPaymentDate"`
	LastPaymentDate time.Time  `json:"lastPaymentDate"`
	CreatedAt       time.Time  `json:"createdAt"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
}

// Due reports whether the subscription should be charged at the given time.
func (s Subscription) Due(now time.Time) bool {
	return s.Active && !s.NextPaymentDate.After(now)
}
