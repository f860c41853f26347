package circle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/pkg/logger"
)

// Simulator is an in-process stand-in for the Circle API. It fabricates
// wallets and transaction hashes so the agent can run end to end without
// credentials. Balances start at a generous testnet allowance.
type Simulator struct {
	mu       sync.Mutex
	balances map[string]float64
	log      *logger.Logger
}

const simulatedBalance = 100.0

// NewSimulator creates a simulated payment provider.
func NewSimulator(log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.NewDefault("circle-sim")
	}
	return &Simulator{
		balances: make(map[string]float64),
		log:      log,
	}
}

// CreateWallet fabricates a wallet with a random address.
func (s *Simulator) CreateWallet(ctx context.Context, userID string) (payment.Wallet, error) {
	wallet := payment.Wallet{
		Address:   "0x" + randomHex(20),
		WalletID:  uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.balances[wallet.WalletID] = simulatedBalance
	s.mu.Unlock()

	s.log.WithField("user_id", userID).
		WithField("wallet_id", wallet.WalletID).
		Info("created simulated wallet")
	return wallet, nil
}

// GetBalance reports the simulated USDC balance.
func (s *Simulator) GetBalance(ctx context.Context, walletID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[walletID], nil
}

// Transfer debits the simulated balance and returns a fabricated receipt.
func (s *Simulator) Transfer(ctx context.Context, walletID, toAddress string, amount float64, idempotencyKey string) (payment.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balances[walletID]
	if balance < amount {
		return payment.Transaction{}, fmt.Errorf("insufficient balance: %g USDC available, %g USDC required", balance, amount)
	}
	s.balances[walletID] = balance - amount

	return payment.Transaction{
		TxHash:    "0x" + randomHex(32),
		From:      walletID,
		To:        toAddress,
		Amount:    amount,
		Status:    "COMPLETE",
		Timestamp: time.Now().UTC(),
	}, nil
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(uuid.NewString()))[:2*n]
	}
	return hex.EncodeToString(buf)
}
