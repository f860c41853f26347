package preference

import "time"

// Preferences captures a user's payment policy: what they care about, how
// picky they are, and how much the agent may spend on their behalf.
type Preferences struct {
	UserID           string    `json:"userId"`
	Interests        []string  `json:"interests"`
	FavoriteCreators []string  `json:"favoriteCreators"`
	MinQualityScore  float64   `json:"minimumQualityScore"`
	PaymentThreshold float64   `json:"paymentThreshold"`
	MaxDailyBudget   float64   `json:"maxDailyBudget"`
	MonthlyLimit     float64   `json:"monthlyLimit"`
	AutoPay          bool      `json:"autoPay"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsFavorite reports whether the creator address is on the user's favorites
// list. Comparison is exact; addresses are stored as provided.
func (p Preferences) IsFavorite(creatorAddress string) bool {
	for _, addr := range p.FavoriteCreators {
		if addr == creatorAddress {
			return true
		}
	}
	return false
}
