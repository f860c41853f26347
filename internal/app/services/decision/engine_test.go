package decision

import (
	"math"
	"testing"

	"github.com/arcpay/platform/internal/app/domain/content"
	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/internal/app/domain/preference"
)

func testPrefs() preference.Preferences {
	return preference.Preferences{
		UserID:           "user-1",
		Interests:        []string{"go", "distributed systems"},
		FavoriteCreators: []string{"0xfav"},
		MinQualityScore:  0.6,
		PaymentThreshold: 0.05,
		MaxDailyBudget:   10,
	}
}

func testItem() content.Item {
	return content.Item{
		ContentID:      "content-1",
		CreatorAddress: "0xabc",
		Title:          "Understanding Raft",
		Price:          1.0,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateQualityBelowThreshold(t *testing.T) {
	engine := NewEngine(0)
	analysis := content.Analysis{QualityScore: 0.5, RelevanceScore: 0.9}

	verdict := engine.Evaluate(testItem(), analysis, testPrefs())
	if verdict.ShouldPay {
		t.Fatalf("expected no payment for low quality")
	}
	if verdict.Reason != payment.ReasonQualityBelowThreshold {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
	if !approx(verdict.ConfidenceScore, 0.9) {
		t.Fatalf("unexpected confidence: %v", verdict.ConfidenceScore)
	}
	if verdict.Amount != 0 {
		t.Fatalf("rejected verdict should carry no amount, got %v", verdict.Amount)
	}
}

func TestEvaluateQualityGateWinsOverAmount(t *testing.T) {
	// Even an item that would clear the amount threshold is rejected on
	// quality first.
	engine := NewEngine(0)
	item := testItem()
	item.Price = 100
	analysis := content.Analysis{QualityScore: 0.1, RelevanceScore: 1.0}

	verdict := engine.Evaluate(item, analysis, testPrefs())
	if verdict.Reason != payment.ReasonQualityBelowThreshold {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
}

func TestEvaluateAmountBelowThreshold(t *testing.T) {
	engine := NewEngine(0)
	item := testItem()
	item.Price = 0.05
	analysis := content.Analysis{QualityScore: 0.7, RelevanceScore: 0.5}

	verdict := engine.Evaluate(item, analysis, testPrefs())
	if verdict.ShouldPay {
		t.Fatalf("expected no payment below threshold")
	}
	if verdict.Reason != payment.ReasonAmountBelowThreshold {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
	if !approx(verdict.ConfidenceScore, 0.8) {
		t.Fatalf("unexpected confidence: %v", verdict.ConfidenceScore)
	}
}

func TestEvaluatePays(t *testing.T) {
	engine := NewEngine(0)
	analysis := content.Analysis{QualityScore: 0.8, RelevanceScore: 0.9}

	verdict := engine.Evaluate(testItem(), analysis, testPrefs())
	if !verdict.ShouldPay {
		t.Fatalf("expected payment: %+v", verdict)
	}
	want := 1.0 * 0.9 * 0.8
	if !approx(verdict.Amount, want) {
		t.Fatalf("amount = %v, want %v", verdict.Amount, want)
	}
	if !approx(verdict.ConfidenceScore, (0.8+0.9)/2) {
		t.Fatalf("unexpected confidence: %v", verdict.ConfidenceScore)
	}
	if verdict.Reason != payment.ReasonMeetsCriteria {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
	if verdict.ContentID != "content-1" || verdict.CreatorAddress != "0xabc" {
		t.Fatalf("identity fields not carried: %+v", verdict)
	}
}

func TestEvaluateFavoriteCreatorReason(t *testing.T) {
	engine := NewEngine(0)
	item := testItem()
	item.CreatorAddress = "0xfav"
	analysis := content.Analysis{QualityScore: 0.8, RelevanceScore: 0.9}

	verdict := engine.Evaluate(item, analysis, testPrefs())
	if !verdict.ShouldPay {
		t.Fatalf("expected payment: %+v", verdict)
	}
	if verdict.Reason != payment.ReasonFavoriteCreator {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
}

func TestEvaluateUnpricedUsesEstimatedValue(t *testing.T) {
	engine := NewEngine(0)
	item := testItem()
	item.Price = 0
	analysis := content.Analysis{QualityScore: 1, RelevanceScore: 1, EstimatedValue: 2.0}

	verdict := engine.Evaluate(item, analysis, testPrefs())
	if !verdict.ShouldPay {
		t.Fatalf("expected payment: %+v", verdict)
	}
	if !approx(verdict.Amount, 0.5) {
		t.Fatalf("amount = %v, want 0.5", verdict.Amount)
	}
}

func TestEvaluateDefaultThresholdWhenUnset(t *testing.T) {
	engine := NewEngine(0)
	prefs := testPrefs()
	prefs.PaymentThreshold = 0
	item := testItem()
	item.Price = 0.12
	analysis := content.Analysis{QualityScore: 0.9, RelevanceScore: 0.9}

	// 0.12 * 0.9 * 0.9 = 0.0972, below the 0.10 default.
	verdict := engine.Evaluate(item, analysis, prefs)
	if verdict.ShouldPay {
		t.Fatalf("expected default threshold to reject: %+v", verdict)
	}
	if verdict.Reason != payment.ReasonAmountBelowThreshold {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	engine := NewEngine(0)
	analysis := content.Analysis{QualityScore: 0.8, RelevanceScore: 0.9}

	first := engine.Evaluate(testItem(), analysis, testPrefs())
	for i := 0; i < 5; i++ {
		if got := engine.Evaluate(testItem(), analysis, testPrefs()); got != first {
			t.Fatalf("evaluation not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestEvaluateScoreMonotonicity(t *testing.T) {
	engine := NewEngine(0)
	prefs := testPrefs()
	low := engine.Evaluate(testItem(), content.Analysis{QualityScore: 0.7, RelevanceScore: 0.7}, prefs)
	high := engine.Evaluate(testItem(), content.Analysis{QualityScore: 0.9, RelevanceScore: 0.9}, prefs)

	if !low.ShouldPay || !high.ShouldPay {
		t.Fatalf("expected both verdicts to pay")
	}
	if high.Amount <= low.Amount {
		t.Fatalf("higher scores should not lower the payout: %v <= %v", high.Amount, low.Amount)
	}
}

func TestBudgetExhausted(t *testing.T) {
	if _, exhausted := BudgetExhausted(testItem(), 5, 10); exhausted {
		t.Fatalf("budget with headroom reported exhausted")
	}

	verdict, exhausted := BudgetExhausted(testItem(), 10, 10)
	if !exhausted {
		t.Fatalf("spend at budget should be exhausted")
	}
	if verdict.Reason != payment.ReasonDailyBudgetExceeded {
		t.Fatalf("unexpected reason: %q", verdict.Reason)
	}
	if !approx(verdict.ConfidenceScore, 1.0) {
		t.Fatalf("unexpected confidence: %v", verdict.ConfidenceScore)
	}
	if verdict.ContentID != "content-1" {
		t.Fatalf("identity fields not carried: %+v", verdict)
	}
}

func TestApplyBudgetOverridesAndKeepsAmount(t *testing.T) {
	verdict := payment.Decision{ShouldPay: true, Amount: 3, Reason: payment.ReasonMeetsCriteria}

	unchanged := ApplyBudget(verdict, 5, 10)
	if !unchanged.ShouldPay || !approx(unchanged.Amount, 3) {
		t.Fatalf("verdict within budget was modified: %+v", unchanged)
	}

	overridden := ApplyBudget(verdict, 8, 10)
	if overridden.ShouldPay {
		t.Fatalf("expected budget override")
	}
	if overridden.Reason != payment.ReasonWouldExceedBudget {
		t.Fatalf("unexpected reason: %q", overridden.Reason)
	}
	if !approx(overridden.Amount, 3) {
		t.Fatalf("override should keep the would-be amount, got %v", overridden.Amount)
	}
}

func TestApplyBudgetIgnoresNegativeVerdicts(t *testing.T) {
	verdict := payment.Decision{ShouldPay: false, Reason: payment.ReasonQualityBelowThreshold}
	if got := ApplyBudget(verdict, 100, 1); got != verdict {
		t.Fatalf("negative verdict was modified: %+v", got)
	}
}

func TestOverride(t *testing.T) {
	verdict := payment.Decision{ShouldPay: true, Amount: 2, Reason: payment.ReasonMeetsCriteria}
	got := Override(verdict, "Payment failed: boom")
	if got.ShouldPay {
		t.Fatalf("override should clear ShouldPay")
	}
	if got.Reason != "Payment failed: boom" {
		t.Fatalf("unexpected reason: %q", got.Reason)
	}
	if !approx(got.Amount, 2) {
		t.Fatalf("override should keep the amount, got %v", got.Amount)
	}
}
