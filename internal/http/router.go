package http

import (
	"net/http"

	"finbot/internal/config"
	"finbot/internal/http/handler"
	mw "finbot/internal/http/middleware"
	"finbot/internal/ledger"
	"finbot/internal/reminder"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, reminders *reminder.Service, ledgerSvc *ledger.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rh := &handler.ReminderHandler{Svc: reminders}
	r.Route("/reminders", func(r chi.Router) {
		r.Post("/", rh.Configure)
		r.Get("/", rh.List)
		r.Delete("/", rh.Disable)
	})

	th := &handler.TransactionHandler{Svc: ledgerSvc}
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", th.Record)
		r.Get("/", th.List)
		r.Delete("/{id}", th.Delete)
	})
	r.Post("/settings/savings-goal", th.SetSavingsGoal)

	return r
}
