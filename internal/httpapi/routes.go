// Package httpapi exposes the read-only HTTP surface next to the websocket:
// health, schedules, scoring rules, game logs, and room/pool visibility.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/draftnight/draftnight-server/internal/hub"
	"github.com/draftnight/draftnight-server/internal/pool"
	"github.com/draftnight/draftnight-server/internal/provider"
	"github.com/draftnight/draftnight-server/internal/scoring"
	"github.com/draftnight/draftnight-server/internal/ws"
)

func SetupRoutes(h *hub.Hub, prov provider.Provider, pools *pool.Builder, rules scoring.Rules, log *zap.Logger) http.Handler {
	a := &api{hub: h, prov: prov, pools: pools, rules: rules, log: log}

	r := chi.NewRouter()
	r.Get("/healthz", a.healthz)
	r.Get("/ws", ws.Handler(h, log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", a.games)
		r.Get("/scoring-rules", a.scoringRules)
		r.Get("/gamelog/{league}/{athleteID}", a.gameLog)
		r.Get("/rooms/public", a.publicRooms)
		r.Get("/pools", a.poolDiagnostics)
	})
	return r
}
