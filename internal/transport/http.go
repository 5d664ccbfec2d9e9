package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/giftcard-service/internal/config"
	"github.com/vasiliy-maslov/giftcard-service/internal/giftcard"
	"github.com/vasiliy-maslov/giftcard-service/internal/handler"
	"github.com/vasiliy-maslov/giftcard-service/internal/notification"
	"github.com/vasiliy-maslov/giftcard-service/internal/supplier"
)

func NewRouter(dbPool *pgxpool.Pool, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	client := supplier.NewClient(cfg.Supplier)
	poller := supplier.NewPoller(client, supplier.BackoffForMode(cfg.Supplier.Mode), cfg.Supplier.PollDeadline)

	var dispatcher notification.Dispatcher = notification.LogDispatcher{}
	if cfg.Notification.RelayURL != "" {
		dispatcher = notification.NewHTTPDispatcher(cfg.Notification)
	}

	repo := giftcard.NewRepository(dbPool)
	recorder := giftcard.NewRecorder(repo, dispatcher)
	svc := giftcard.NewService(repo, client, poller, recorder)
	h := handler.NewGiftCardHandler(svc)

	r.Get("/orders/{id}", h.GetOrderDetails)
	r.Post("/orders/{id}/approve", h.ApproveOrder)
	r.Post("/orders/{id}/resend", h.ResendGiftCard)

	return r
}
