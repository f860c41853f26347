// Package decision implements the payment decision engine: the rule
// evaluation that turns a scored content item and a user's preferences into
// a pay/no-pay verdict, plus the budget arithmetic callers use to gate it.
package decision

import (
	"github.com/arcpay/platform/internal/app/domain/content"
	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/internal/app/domain/preference"
)

// DefaultPaymentThreshold is the minimum payout in USD when the user has
// not configured one.
const DefaultPaymentThreshold = 0.10

// Engine evaluates payment decisions. Evaluation is pure: identical inputs
// always produce identical decisions.
type Engine struct {
	paymentThreshold float64
}

// NewEngine creates an engine with the given fallback payment threshold.
// Non-positive values fall back to DefaultPaymentThreshold.
func NewEngine(paymentThreshold float64) *Engine {
	if paymentThreshold <= 0 {
		paymentThreshold = DefaultPaymentThreshold
	}
	return &Engine{paymentThreshold: paymentThreshold}
}

// Evaluate maps (item, analysis, preferences) to a decision.
//
// The amount is the item price (or a quarter of the estimated value when
// unpriced) dampened by both scores, so lower confidence on either axis
// always reduces the payout.
func (e *Engine) Evaluate(item content.Item, analysis content.Analysis, prefs preference.Preferences) payment.Decision {
	verdict := payment.Decision{
		ContentID:      item.ContentID,
		CreatorAddress: item.CreatorAddress,
	}

	if analysis.QualityScore < prefs.MinQualityScore {
		verdict.Reason = payment.ReasonQualityBelowThreshold
		verdict.ConfidenceScore = 0.9
		return verdict
	}

	baseAmount := item.Price
	if baseAmount == 0 {
		baseAmount = analysis.EstimatedValue * 0.25
	}
	adjustedAmount := baseAmount * analysis.RelevanceScore * analysis.QualityScore

	if adjustedAmount < e.threshold(prefs) {
		verdict.Reason = payment.ReasonAmountBelowThreshold
		verdict.ConfidenceScore = 0.8
		return verdict
	}

	verdict.ShouldPay = true
	verdict.Amount = adjustedAmount
	verdict.ConfidenceScore = (analysis.QualityScore + analysis.RelevanceScore) / 2
	if prefs.IsFavorite(item.CreatorAddress) {
		verdict.Reason = payment.ReasonFavoriteCreator
	} else {
		verdict.Reason = payment.ReasonMeetsCriteria
	}
	return verdict
}

func (e *Engine) threshold(prefs preference.Preferences) float64 {
	if prefs.PaymentThreshold > 0 {
		return prefs.PaymentThreshold
	}
	return e.paymentThreshold
}

// BudgetExhausted is the cheap pre-check: once daily spend reaches the
// budget, the verdict is negative before the scorer is ever consulted.
func BudgetExhausted(item content.Item, dailySpend, maxDailyBudget float64) (payment.Decision, bool) {
	if dailySpend < maxDailyBudget {
		return payment.Decision{}, false
	}
	return payment.Decision{
		Reason:          payment.ReasonDailyBudgetExceeded,
		ConfidenceScore: 1.0,
		ContentID:       item.ContentID,
		CreatorAddress:  item.CreatorAddress,
	}, true
}

// ApplyBudget is the precise post-check: a positive verdict whose amount
// does not fit in the remaining budget is overridden to a negative one.
func ApplyBudget(verdict payment.Decision, dailySpend, maxDailyBudget float64) payment.Decision {
	if !verdict.ShouldPay {
		return verdict
	}
	if verdict.Amount > maxDailyBudget-dailySpend {
		// Amount is kept so the caller can report what the payout would
		// have been.
		verdict.ShouldPay = false
		verdict.Reason = payment.ReasonWouldExceedBudget
	}
	return verdict
}

// Override converts a positive verdict into a negative one with the given
// reason. Used when the transfer step fails after a positive decision.
func Override(verdict payment.Decision, reason string) payment.Decision {
	verdict.ShouldPay = false
	verdict.Reason = reason
	return verdict
}
