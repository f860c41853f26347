// Package payments orchestrates a payment end to end: budget pre-check,
// content scoring, decision evaluation, budget post-check, transfer, and
// ledger update. Budget violations are decision outcomes, not errors.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcpay/platform/internal/app/domain/content"
	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/internal/app/domain/preference"
	"github.com/arcpay/platform/internal/app/metrics"
	"github.com/arcpay/platform/internal/app/services/decision"
	"github.com/arcpay/platform/internal/app/services/ledger"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/internal/scorer"
	"github.com/arcpay/platform/pkg/logger"
)

// ErrBudgetExceeded rejects manual tips that do not fit the remaining
// daily budget.
var ErrBudgetExceeded = errors.New("exceeds remaining daily budget")

// Provider executes transfers against the payment custodian.
type Provider interface {
	CreateWallet(ctx context.Context, userID string) (payment.Wallet, error)
	GetBalance(ctx context.Context, walletID string) (float64, error)
	Transfer(ctx context.Context, walletID, toAddress string, amount float64, idempotencyKey string) (payment.Transaction, error)
}

// Result is the outcome of processing one content item.
type Result struct {
	Decision    payment.Decision     `json:"decision"`
	Analysis    *content.Analysis    `json:"analysis,omitempty"`
	Transaction *payment.Transaction `json:"transaction,omitempty"`
}

// Service coordinates decisions and transfers.
type Service struct {
	provider Provider
	scorer   scorer.Scorer
	engine   *decision.Engine
	prefs    storage.PreferenceStore
	wallets  storage.WalletStore
	txs      storage.TransactionStore
	ledger   *ledger.Service
	log      *logger.Logger
}

// New creates a payments service.
func New(provider Provider, sc scorer.Scorer, engine *decision.Engine, prefs storage.PreferenceStore, wallets storage.WalletStore, txs storage.TransactionStore, spend *ledger.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("payments")
	}
	if engine == nil {
		engine = decision.NewEngine(0)
	}
	return &Service{
		provider: provider,
		scorer:   sc,
		engine:   engine,
		prefs:    prefs,
		wallets:  wallets,
		txs:      txs,
		ledger:   spend,
		log:      log,
	}
}

// ProcessContent evaluates a content item for the user and pays the creator
// when the decision is positive. The scorer is not consulted once the daily
// budget is exhausted.
func (s *Service) ProcessContent(ctx context.Context, userID string, item content.Item) (Result, error) {
	if err := validateItem(item); err != nil {
		return Result{}, err
	}
	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	spent, err := s.ledger.Spent(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if verdict, exhausted := decision.BudgetExhausted(item, spent, prefs.MaxDailyBudget); exhausted {
		metrics.RecordDecision(verdict.Reason, false)
		return Result{Decision: verdict}, nil
	}

	analysis, err := s.analyze(ctx, item, prefs)
	if err != nil {
		return Result{}, fmt.Errorf("analyze content: %w", err)
	}

	verdict := s.engine.Evaluate(item, analysis, prefs)
	verdict = decision.ApplyBudget(verdict, spent, prefs.MaxDailyBudget)
	if !verdict.ShouldPay {
		metrics.RecordDecision(verdict.Reason, false)
		return Result{Decision: verdict, Analysis: &analysis}, nil
	}

	tx, err := s.pay(ctx, userID, verdict)
	if err != nil {
		s.log.WithError(err).
			WithField("user_id", userID).
			WithField("content_id", item.ContentID).
			Warn("payment failed")
		verdict = decision.Override(verdict, "Payment failed: "+err.Error())
		metrics.RecordDecision(verdict.Reason, false)
		return Result{Decision: verdict, Analysis: &analysis}, nil
	}

	if _, err := s.ledger.Record(ctx, userID, verdict.Amount); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("record spend failed")
	}
	metrics.RecordDecision(verdict.Reason, true)
	metrics.RecordPayment(verdict.Amount)
	return Result{Decision: verdict, Analysis: &analysis, Transaction: &tx}, nil
}

// Tip sends a manual payment to a creator. Tips are budget-checked up
// front and rejected, rather than converted to a negative decision, since
// the user asked for an exact amount.
func (s *Service) Tip(ctx context.Context, userID, creatorAddress string, amount float64) (payment.Transaction, error) {
	if strings.TrimSpace(creatorAddress) == "" {
		return payment.Transaction{}, fmt.Errorf("creator address is required")
	}
	if amount <= 0 {
		return payment.Transaction{}, fmt.Errorf("amount must be positive")
	}
	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return payment.Transaction{}, err
	}

	spent, err := s.ledger.Spent(ctx, userID)
	if err != nil {
		return payment.Transaction{}, err
	}
	remaining := prefs.MaxDailyBudget - spent
	if amount > remaining {
		return payment.Transaction{}, fmt.Errorf("tip of %g USD %w (%g USD)", amount, ErrBudgetExceeded, remaining)
	}

	verdict := payment.Decision{
		ShouldPay:       true,
		Amount:          amount,
		Reason:          payment.ReasonManualTip,
		ConfidenceScore: 1.0,
		ContentID:       fmt.Sprintf("tip-%d", time.Now().UnixMilli()),
		CreatorAddress:  creatorAddress,
	}
	tx, err := s.pay(ctx, userID, verdict)
	if err != nil {
		return payment.Transaction{}, err
	}
	if _, err := s.ledger.Record(ctx, userID, amount); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("record spend failed")
	}
	metrics.RecordDecision(verdict.Reason, true)
	metrics.RecordPayment(amount)
	return tx, nil
}

// Charge executes a transfer for an already-made positive decision. Used
// by the subscription sweeper, whose charges bypass the daily budget.
func (s *Service) Charge(ctx context.Context, userID string, verdict payment.Decision) (payment.Transaction, error) {
	if !verdict.ShouldPay {
		return payment.Transaction{}, fmt.Errorf("payment decision is negative")
	}
	return s.pay(ctx, userID, verdict)
}

// Transactions returns the user's transfer history, newest first.
func (s *Service) Transactions(ctx context.Context, userID string) ([]payment.Transaction, error) {
	return s.txs.ListTransactions(ctx, userID)
}

func (s *Service) pay(ctx context.Context, userID string, verdict payment.Decision) (payment.Transaction, error) {
	wallet, err := s.ensureWallet(ctx, userID)
	if err != nil {
		return payment.Transaction{}, err
	}

	idempotencyKey := fmt.Sprintf("payment-%s-%s", verdict.ContentID, uuid.New().String())
	tx, err := s.provider.Transfer(ctx, wallet.WalletID, verdict.CreatorAddress, verdict.Amount, idempotencyKey)
	if err != nil {
		return payment.Transaction{}, err
	}
	tx.UserID = userID
	tx.ContentID = verdict.ContentID

	if err := s.txs.CreateTransaction(ctx, tx); err != nil {
		s.log.WithError(err).
			WithField("tx_hash", tx.TxHash).
			Error("persist transaction failed")
	}
	s.log.WithField("user_id", userID).
		WithField("tx_hash", tx.TxHash).
		WithField("amount", verdict.Amount).
		WithField("creator", verdict.CreatorAddress).
		Info("payment sent")
	return tx, nil
}

func (s *Service) ensureWallet(ctx context.Context, userID string) (payment.Wallet, error) {
	wallet, err := s.wallets.GetWallet(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return payment.Wallet{}, err
	}

	wallet, err = s.provider.CreateWallet(ctx, userID)
	if err != nil {
		return payment.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	if err := s.wallets.PutWallet(ctx, wallet); err != nil {
		return payment.Wallet{}, fmt.Errorf("cache wallet: %w", err)
	}
	return wallet, nil
}

func (s *Service) analyze(ctx context.Context, item content.Item, prefs preference.Preferences) (content.Analysis, error) {
	if s.scorer == nil {
		return scorer.Keyword{}.Analyze(ctx, item, prefs)
	}
	return s.scorer.Analyze(ctx, item, prefs)
}

func validateItem(item content.Item) error {
	if strings.TrimSpace(item.ContentID) == "" {
		return fmt.Errorf("content id is required")
	}
	if strings.TrimSpace(item.CreatorAddress) == "" {
		return fmt.Errorf("creator address is required")
	}
	return nil
}
