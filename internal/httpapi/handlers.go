package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/draftnight/draftnight-server/internal/hub"
	"github.com/draftnight/draftnight-server/internal/lobby"
	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/pool"
	"github.com/draftnight/draftnight-server/internal/provider"
	"github.com/draftnight/draftnight-server/internal/scoring"
)

type api struct {
	hub   *hub.Hub
	prov  provider.Provider
	pools *pool.Builder
	rules scoring.Rules
	log   *zap.Logger
}

func (a *api) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn("encode response", zap.Error(err))
	}
}

func (a *api) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, map[string]string{"error": msg})
}

func (a *api) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// games returns the day's schedule across both leagues, or one league when
// ?league= is set. Dates default to today.
func (a *api) games(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	leagues := models.Leagues()
	if raw := r.URL.Query().Get("league"); raw != "" {
		lg, ok := models.ParseLeague(raw)
		if !ok {
			a.writeError(w, http.StatusBadRequest, "unknown league")
			return
		}
		leagues = []models.League{lg}
	}

	var games []models.Game
	for _, lg := range leagues {
		gs, err := a.prov.Schedule(r.Context(), lg, date)
		if err != nil {
			a.log.Warn("schedule fetch failed",
				zap.String("league", string(lg)), zap.String("date", date), zap.Error(err))
			continue
		}
		games = append(games, gs...)
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"date": date, "games": games})
}

func (a *api) scoringRules(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.rules)
}

func (a *api) gameLog(w http.ResponseWriter, r *http.Request) {
	lg, ok := models.ParseLeague(chi.URLParam(r, "league"))
	if !ok {
		a.writeError(w, http.StatusBadRequest, "unknown league")
		return
	}
	athleteID := chi.URLParam(r, "athleteID")

	entries, err := a.prov.GameLog(r.Context(), lg, athleteID)
	if err != nil {
		a.writeError(w, http.StatusBadGateway, "game log unavailable")
		return
	}

	// Score each line so clients can chart fantasy output directly.
	type scoredEntry struct {
		provider.GameLogEntry
		Score float64 `json:"score"`
	}
	scored := make([]scoredEntry, 0, len(entries))
	for _, e := range entries {
		scored = append(scored, scoredEntry{GameLogEntry: e, Score: scoring.Score(a.rules, e.Line)})
	}
	a.writeJSON(w, http.StatusOK, scored)
}

func (a *api) publicRooms(w http.ResponseWriter, _ *http.Request) {
	reply := make(chan []lobby.Info, 1)
	a.hub.Inbox() <- hub.ListPublicRooms{Reply: reply}
	infos := <-reply
	if infos == nil {
		infos = []lobby.Info{}
	}
	a.writeJSON(w, http.StatusOK, infos)
}

func (a *api) poolDiagnostics(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.pools.Diagnostics())
}
