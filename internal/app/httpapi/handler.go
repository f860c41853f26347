// Package httpapi exposes the agent's REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	app "github.com/arcpay/platform/internal/app"
	"github.com/arcpay/platform/internal/app/domain/content"
	"github.com/arcpay/platform/internal/app/domain/preference"
	"github.com/arcpay/platform/internal/app/services/payments"
	"github.com/arcpay/platform/internal/app/services/users"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/internal/scorer"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app    *app.Application
	scorer scorer.Scorer
}

// NewHandler returns a mux exposing the agent REST API. The scorer is used
// directly by the recommendations endpoint; decisions go through the
// payments service.
func NewHandler(application *app.Application, sc scorer.Scorer) http.Handler {
	if sc == nil {
		sc = scorer.Keyword{}
	}
	h := &handler{app: application, scorer: sc}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/auth/signup", h.signUp)
	mux.HandleFunc("/auth/signin", h.signIn)
	mux.HandleFunc("/api/auth/signup", h.signUp)
	mux.HandleFunc("/api/auth/signin", h.signIn)
	mux.HandleFunc("/api/statistics", h.statistics)
	mux.HandleFunc("/api/users/", h.userResources)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "arcpay-agent",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, token, err := h.app.Users.SignUp(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, users.ErrEmailTaken) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User created successfully",
		"user":    u,
		"token":   token,
	})
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, token, err := h.app.Users.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Sign-in successful",
		"user":    u,
		"token":   token,
	})
}

func (h *handler) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	subs, err := h.app.Subscriptions.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	active := 0
	for _, sub := range subs {
		if sub.Active {
			active++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"statistics": map[string]interface{}{
			"totalSubscriptions":  len(subs),
			"activeSubscriptions": active,
			"timestamp":           time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *handler) userResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID := parts[0]

	switch parts[1] {
	case "preferences":
		h.userPreferences(w, r, userID)
	case "content":
		if len(parts) == 3 && parts[2] == "process" {
			h.processContent(w, r, userID)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case "recommendations":
		h.recommendations(w, r, userID)
	case "tip":
		h.tip(w, r, userID)
	case "transactions":
		h.transactions(w, r, userID)
	case "spending":
		h.spending(w, r, userID)
	case "subscriptions":
		h.subscriptions(w, r, userID, parts[2:])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) userPreferences(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Interests        []string `json:"interests"`
			FavoriteCreators []string `json:"favoriteCreators"`
			MinQualityScore  float64  `json:"minimumQualityScore"`
			PaymentThreshold float64  `json:"paymentThreshold"`
			MaxDailyBudget   float64  `json:"maxDailyBudget"`
			MonthlyLimit     float64  `json:"monthlyLimit"`
			AutoPay          bool     `json:"autoPay"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		prefs, err := h.app.Preferences.Set(r.Context(), userID, preference.Preferences{
			Interests:        payload.Interests,
			FavoriteCreators: payload.FavoriteCreators,
			MinQualityScore:  payload.MinQualityScore,
			PaymentThreshold: payload.PaymentThreshold,
			MaxDailyBudget:   payload.MaxDailyBudget,
			MonthlyLimit:     payload.MonthlyLimit,
			AutoPay:          payload.AutoPay,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"message":     "Preferences saved",
			"preferences": prefs,
		})

	case http.MethodGet:
		prefs, err := h.app.Preferences.Get(r.Context(), userID)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"preferences": prefs,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) processContent(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var item content.Item
	if err := decodeJSON(r.Body, &item); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Payments.ProcessContent(r.Context(), userID, item)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	response := map[string]interface{}{
		"success":  true,
		"decision": result.Decision,
	}
	if result.Analysis != nil {
		response["analysis"] = result.Analysis
	}
	if result.Transaction != nil {
		response["transaction"] = result.Transaction
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *handler) recommendations(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Content []content.Item `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prefs, err := h.app.Preferences.Get(r.Context(), userID)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	ranked := scorer.Rank(r.Context(), h.scorer, prefs, payload.Content, 10)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"recommendations": ranked,
	})
}

func (h *handler) tip(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		CreatorAddress string  `json:"creatorAddress"`
		Amount         float64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := h.app.Payments.Tip(r.Context(), userID, payload.CreatorAddress, payload.Amount)
	if err != nil {
		if errors.Is(err, payments.ErrBudgetExceeded) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Tip sent successfully",
		"transaction": tx,
	})
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	txs, err := h.app.Payments.Transactions(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": txs,
	})
}

func (h *handler) spending(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	spent, err := h.app.Ledger.Spent(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"dailySpend": spent,
	})
}

func (h *handler) subscriptions(w http.ResponseWriter, r *http.Request, userID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodPost:
			var payload struct {
				CreatorAddress string  `json:"creatorAddress"`
				Amount         float64 `json:"amount"`
			}
			if err := decodeJSON(r.Body, &payload); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			sub, err := h.app.Subscriptions.Create(r.Context(), userID, payload.CreatorAddress, payload.Amount)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]interface{}{
				"success":      true,
				"message":      "Subscription created",
				"subscription": sub,
			})

		case http.MethodGet:
			subs, err := h.app.Subscriptions.List(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success":       true,
				"subscriptions": subs,
			})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(rest) != 2 || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	subID := rest[0]
	switch rest[1] {
	case "cancel":
		sub, err := h.app.Subscriptions.Cancel(r.Context(), userID, subID)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"subscription": sub,
		})
	case "reactivate":
		sub, err := h.app.Subscriptions.Reactivate(r.Context(), userID, subID)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"subscription": sub,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func statusForError(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
