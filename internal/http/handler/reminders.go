package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"finbot/internal/reminder"
)

type ReminderHandler struct {
	Svc *reminder.Service
}

type configureReminderReq struct {
	OwnerKey string `json:"owner_key"`
	ChatID   int64  `json:"chat_id"`
	UserID   int64  `json:"user_id"`
	Schedule string `json:"schedule"`
}

func (h *ReminderHandler) Configure(w http.ResponseWriter, r *http.Request) {
	var req configureReminderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.OwnerKey = strings.TrimSpace(req.OwnerKey)
	if req.OwnerKey == "" || req.ChatID == 0 {
		http.Error(w, "owner_key and chat_id required", http.StatusBadRequest)
		return
	}

	kind, err := reminder.ParseScheduleKind(req.Schedule)
	if err != nil {
		http.Error(w, "unknown schedule (use minute, hour, day_end or month_end)", http.StatusBadRequest)
		return
	}

	target := reminder.DeliveryTarget{ChatID: req.ChatID, UserID: req.UserID}
	created, runAt, err := h.Svc.Configure(r.Context(), req.OwnerKey, target, kind)
	if err != nil {
		if errors.Is(err, reminder.ErrLeadTimeTooShort) {
			http.Error(w, "next run is too close", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"created":  created,
		"schedule": kind,
		"run_at":   runAt.UTC().Format(time.RFC3339),
	})
}

type reminderDTO struct {
	Schedule    reminder.ScheduleKind `json:"schedule"`
	Description string                `json:"description"`
	RunAt       time.Time             `json:"run_at"`
	Status      reminder.Status       `json:"status"`
	Attempts    int                   `json:"attempts"`
	LastError   *string               `json:"last_error,omitempty"`
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerKey := strings.TrimSpace(r.URL.Query().Get("owner_key"))
	if ownerKey == "" {
		http.Error(w, "owner_key required", http.StatusBadRequest)
		return
	}

	rows, err := h.Svc.ListActive(r.Context(), ownerKey)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]reminderDTO, 0, len(rows))
	for _, j := range rows {
		out = append(out, reminderDTO{
			Schedule:    j.ScheduleKind,
			Description: j.ScheduleKind.Description(),
			RunAt:       j.RunAt,
			Status:      j.Status,
			Attempts:    j.Attempts,
			LastError:   j.LastError,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// Disable removes one schedule when ?schedule= is present, otherwise all
// of the owner's reminders.
func (h *ReminderHandler) Disable(w http.ResponseWriter, r *http.Request) {
	ownerKey := strings.TrimSpace(r.URL.Query().Get("owner_key"))
	if ownerKey == "" {
		http.Error(w, "owner_key required", http.StatusBadRequest)
		return
	}

	var (
		disabled bool
		err      error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("schedule")); raw != "" {
		var kind reminder.ScheduleKind
		kind, err = reminder.ParseScheduleKind(raw)
		if err != nil {
			http.Error(w, "unknown schedule", http.StatusBadRequest)
			return
		}
		disabled, err = h.Svc.DisableOne(r.Context(), ownerKey, kind)
	} else {
		disabled, err = h.Svc.DisableAll(r.Context(), ownerKey)
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"disabled": disabled})
}
