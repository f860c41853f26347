// Package circle implements the payment provider contract against the
// Circle developer-controlled wallets API. Wallets hold USDC on the
// Arbitrum Sepolia testnet.
package circle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/pkg/logger"
)

const (
	defaultBaseURL     = "https://api.circle.com/v1"
	defaultUSDCAddress = "0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d"
	blockchain         = "ARB-SEPOLIA"
)

// Config holds provider credentials and endpoints.
type Config struct {
	BaseURL      string
	APIKey       string
	EntitySecret string
	USDCAddress  string
	Timeout      time.Duration
}

// Client calls the Circle REST API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	entitySecret string
	usdcAddress  string
	log          *logger.Logger
}

// New constructs a Circle client.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("circle api key is required")
	}
	if log == nil {
		log = logger.NewDefault("circle")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	usdc := cfg.USDCAddress
	if usdc == "" {
		usdc = defaultUSDCAddress
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		entitySecret: cfg.EntitySecret,
		usdcAddress:  usdc,
		log:          log,
	}, nil
}

// CreateWallet provisions a custodial wallet for the user.
func (c *Client) CreateWallet(ctx context.Context, userID string) (payment.Wallet, error) {
	body := map[string]interface{}{
		"idempotencyKey": fmt.Sprintf("wallet-%s-%d", userID, time.Now().UnixMilli()),
		"accountType":    "SCA",
		"blockchains":    []string{blockchain},
		"count":          1,
		"walletSetId":    userID,
	}

	var parsed struct {
		Data struct {
			Wallets []struct {
				ID      string `json:"id"`
				Address string `json:"address"`
			} `json:"wallets"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/wallets", body, false, &parsed); err != nil {
		return payment.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	if len(parsed.Data.Wallets) == 0 {
		return payment.Wallet{}, fmt.Errorf("create wallet: empty provider response")
	}

	w := payment.Wallet{
		Address:   parsed.Data.Wallets[0].Address,
		WalletID:  parsed.Data.Wallets[0].ID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	c.log.WithField("user_id", userID).
		WithField("wallet_id", w.WalletID).
		Info("wallet created")
	return w, nil
}

// GetBalance returns the wallet's USDC balance. Missing balances read as
// zero; a provider error also reads as zero so the transfer path surfaces
// the insufficient-balance message instead.
func (c *Client) GetBalance(ctx context.Context, walletID string) (float64, error) {
	var parsed struct {
		Data struct {
			Wallet struct {
				Balances []struct {
					Amount string `json:"amount"`
					Token  struct {
						Symbol string `json:"symbol"`
					} `json:"token"`
				} `json:"balances"`
			} `json:"wallet"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/wallets/"+walletID, nil, false, &parsed); err != nil {
		c.log.WithError(err).WithField("wallet_id", walletID).Warn("balance lookup failed")
		return 0, nil
	}
	for _, balance := range parsed.Data.Wallet.Balances {
		if balance.Token.Symbol == "USDC" {
			amount, err := strconv.ParseFloat(balance.Amount, 64)
			if err != nil {
				return 0, fmt.Errorf("parse balance %q: %w", balance.Amount, err)
			}
			return amount, nil
		}
	}
	return 0, nil
}

// Transfer sends USDC from the wallet to the destination address. The
// balance is checked first so an insufficient balance fails with a clear
// message before the provider is charged with the transfer.
func (c *Client) Transfer(ctx context.Context, walletID, toAddress string, amount float64, idempotencyKey string) (payment.Transaction, error) {
	balance, err := c.GetBalance(ctx, walletID)
	if err != nil {
		return payment.Transaction{}, err
	}
	if balance < amount {
		return payment.Transaction{}, fmt.Errorf("insufficient balance: %g USDC available, %g USDC required", balance, amount)
	}

	body := map[string]interface{}{
		"idempotencyKey":     idempotencyKey,
		"walletId":           walletID,
		"blockchain":         blockchain,
		"destinationAddress": toAddress,
		"tokenAddress":       c.usdcAddress,
		"amounts":            []string{strconv.FormatFloat(amount, 'f', -1, 64)},
		"fee": map[string]interface{}{
			"type": "level",
			"config": map[string]string{
				"feeLevel": "MEDIUM",
			},
		},
	}

	var parsed struct {
		Data struct {
			Transaction struct {
				ID     string `json:"id"`
				TxHash string `json:"txHash"`
				State  string `json:"state"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/w3s/developer/transactions/transfer", body, true, &parsed); err != nil {
		return payment.Transaction{}, fmt.Errorf("transfer: %w", err)
	}

	txHash := parsed.Data.Transaction.TxHash
	if txHash == "" {
		txHash = parsed.Data.Transaction.ID
	}
	status := parsed.Data.Transaction.State
	if status == "" {
		status = "PENDING"
	}

	return payment.Transaction{
		TxHash:    txHash,
		From:      walletID,
		To:        toAddress,
		Amount:    amount,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}, nil
}

// TransactionStatus reports the provider-side state of a transaction.
func (c *Client) TransactionStatus(ctx context.Context, txHash string) string {
	var parsed struct {
		Data struct {
			Transaction struct {
				State string `json:"state"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/w3s/transactions/"+txHash, nil, false, &parsed); err != nil {
		c.log.WithError(err).WithField("tx_hash", txHash).Warn("transaction status lookup failed")
		return "UNKNOWN"
	}
	return parsed.Data.Transaction.State
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, userToken bool, dst interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userToken && c.entitySecret != "" {
		req.Header.Set("X-User-Token", c.entitySecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
