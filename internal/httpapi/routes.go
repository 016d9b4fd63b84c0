package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/map-draft-backend/internal/ws"
)

func SetupRoutes(a *API) http.Handler {
	r := chi.NewRouter()

	r.Post("/stages", a.CreateStage)
	r.Get("/stages/{stageID}", a.GetStage)
	r.Post("/matches", a.CreateMatch)
	r.Get("/matches/{matchID}", a.GetMatch)
	r.Post("/matches/{matchID}/actions", a.SubmitAction)
	r.Post("/matches/{matchID}/admin", a.Admin)
	r.Get("/ws", ws.Handler(a.Hub, a.Log))
	r.Get("/healthz", Healthz)
	return r
}
