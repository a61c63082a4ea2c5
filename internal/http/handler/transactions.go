package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finbot/internal/ledger"

	"github.com/go-chi/chi/v5"
)

type TransactionHandler struct {
	Svc *ledger.Service
}

func parseKind(raw string) (ledger.Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "EXPENSE", "EXPENSES":
		return ledger.KindExpense, true
	case "INCOME":
		return ledger.KindIncome, true
	}
	return "", false
}

type recordTransactionReq struct {
	OwnerKey string  `json:"owner_key"`
	Kind     string  `json:"kind"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note"`
}

func (h *TransactionHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.OwnerKey = strings.TrimSpace(req.OwnerKey)
	if req.OwnerKey == "" {
		http.Error(w, "owner_key required", http.StatusBadRequest)
		return
	}
	kind, ok := parseKind(req.Kind)
	if !ok {
		http.Error(w, "kind must be EXPENSE or INCOME", http.StatusBadRequest)
		return
	}

	id, err := h.Svc.Record(r.Context(), ledger.RecordInput{
		OwnerKey: req.OwnerKey,
		Kind:     kind,
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			http.Error(w, "amount must be positive", http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

type transactionDTO struct {
	ID        uint64      `json:"id"`
	Kind      ledger.Kind `json:"kind"`
	Amount    float64     `json:"amount"`
	Category  string      `json:"category"`
	Note      string      `json:"note"`
	Tags      []string    `json:"tags"`
	CreatedAt time.Time   `json:"created_at"`
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerKey := strings.TrimSpace(r.URL.Query().Get("owner_key"))
	if ownerKey == "" {
		http.Error(w, "owner_key required", http.StatusBadRequest)
		return
	}
	kind, ok := parseKind(r.URL.Query().Get("kind"))
	if !ok {
		http.Error(w, "kind must be EXPENSE or INCOME", http.StatusBadRequest)
		return
	}

	rows, err := h.Svc.ListByKind(r.Context(), ownerKey, kind)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]transactionDTO, 0, len(rows))
	for _, t := range rows {
		out = append(out, transactionDTO{
			ID:        t.ID,
			Kind:      t.Kind,
			Amount:    t.Amount,
			Category:  t.Category,
			Note:      t.Note,
			Tags:      []string(t.Tags),
			CreatedAt: t.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerKey := strings.TrimSpace(r.URL.Query().Get("owner_key"))
	if ownerKey == "" {
		http.Error(w, "owner_key required", http.StatusBadRequest)
		return
	}
	kind, ok := parseKind(r.URL.Query().Get("kind"))
	if !ok {
		http.Error(w, "kind must be EXPENSE or INCOME", http.StatusBadRequest)
		return
	}
	id64, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	deleted, err := h.Svc.DeleteByID(r.Context(), ownerKey, kind, id64)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type savingsGoalReq struct {
	OwnerKey    string   `json:"owner_key"`
	SavingsGoal *float64 `json:"savings_goal"`
}

// SetSavingsGoal upserts the owner's goal; a null value clears it.
func (h *TransactionHandler) SetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	var req savingsGoalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.OwnerKey = strings.TrimSpace(req.OwnerKey)
	if req.OwnerKey == "" {
		http.Error(w, "owner_key required", http.StatusBadRequest)
		return
	}

	if err := h.Svc.SetSavingsGoal(r.Context(), req.OwnerKey, req.SavingsGoal); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
