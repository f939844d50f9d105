package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/draftnight/draftnight-server/internal/models"
	"go.uber.org/zap"
)

// Client is the HTTP implementation of Provider against the upstream stats
// API. One base URL per league; the same host serves both in production.
type Client struct {
	baseURLs map[models.League]string
	apiKey   string
	http     *http.Client
	log      *zap.Logger
}

func NewClient(baseURLs map[models.League]string, apiKey string, log *zap.Logger) *Client {
	return &Client{
		baseURLs: baseURLs,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

func (c *Client) get(ctx context.Context, league models.League, endpoint string, query url.Values, out any) error {
	base, ok := c.baseURLs[league]
	if !ok {
		return fmt.Errorf("no base URL configured for league %q", league)
	}
	u := base + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// wire shapes for the upstream API

type wireTeam struct {
	Code string `json:"abbreviation"`
	Name string `json:"full_name"`
}

type wireGame struct {
	ID       string   `json:"id"`
	Home     wireTeam `json:"home_team"`
	Away     wireTeam `json:"visitor_team"`
	StartUTC string   `json:"start_time"`
	State    string   `json:"state"`  // "scheduled" | "live" | "final"
	Status   string   `json:"status"` // human string
}

type wireAthlete struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Team     string `json:"team"`
	Position string `json:"position"`
}

type wireStats struct {
	AthleteID string          `json:"athlete_id"`
	Position  string          `json:"position"`
	Stats     json.RawMessage `json:"stats"`
}

func (c *Client) Schedule(ctx context.Context, league models.League, date string) ([]models.Game, error) {
	var payload struct {
		Games []wireGame `json:"data"`
	}
	q := url.Values{"date": {date}}
	if err := c.get(ctx, league, "/v1/games", q, &payload); err != nil {
		return nil, err
	}

	games := make([]models.Game, 0, len(payload.Games))
	for _, g := range payload.Games {
		start, err := time.Parse(time.RFC3339, g.StartUTC)
		if err != nil {
			c.log.Warn("unparseable game start time",
				zap.String("league", string(league)),
				zap.String("game_id", g.ID),
				zap.String("start", g.StartUTC))
		}
		games = append(games, models.Game{
			ID:        g.ID,
			League:    league,
			HomeCode:  g.Home.Code,
			HomeName:  g.Home.Name,
			AwayCode:  g.Away.Code,
			AwayName:  g.Away.Name,
			StartTime: start,
			State:     parseGameState(g.State),
			Status:    g.Status,
		})
	}
	return games, nil
}

func (c *Client) Roster(ctx context.Context, game models.Game) ([]models.Athlete, error) {
	var payload struct {
		Athletes []wireAthlete `json:"data"`
	}
	endpoint := fmt.Sprintf("/v1/games/%s/roster", game.ID)
	if err := c.get(ctx, game.League, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	athletes := make([]models.Athlete, 0, len(payload.Athletes))
	for _, a := range payload.Athletes {
		role := models.RoleForPosition(game.League, a.Position)
		athletes = append(athletes, models.Athlete{
			ID:       a.ID,
			League:   game.League,
			Name:     a.Name,
			Team:     a.Team,
			Position: a.Position,
			GameID:   game.ID,
			Averages: models.ZeroStatLine(game.League, role),
		})
	}
	return athletes, nil
}

func (c *Client) SeasonAverages(ctx context.Context, league models.League, athleteID string) (models.StatLine, error) {
	var payload wireStats
	endpoint := fmt.Sprintf("/v1/athletes/%s/averages", athleteID)
	if err := c.get(ctx, league, endpoint, nil, &payload); err != nil {
		return models.StatLine{}, err
	}
	return decodeStatLine(league, payload.Position, payload.Stats)
}

func (c *Client) LiveBoxScore(ctx context.Context, game models.Game) (map[string]models.StatLine, error) {
	var payload struct {
		Lines []wireStats `json:"data"`
	}
	endpoint := fmt.Sprintf("/v1/games/%s/boxscore", game.ID)
	if err := c.get(ctx, game.League, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	out := make(map[string]models.StatLine, len(payload.Lines))
	for _, line := range payload.Lines {
		stat, err := decodeStatLine(game.League, line.Position, line.Stats)
		if err != nil {
			c.log.Warn("skipping undecodable box score line",
				zap.String("game_id", game.ID),
				zap.String("athlete_id", line.AthleteID),
				zap.Error(err))
			continue
		}
		out[line.AthleteID] = stat
	}
	return out, nil
}

func (c *Client) GameLog(ctx context.Context, league models.League, athleteID string) ([]GameLogEntry, error) {
	var payload struct {
		Entries []struct {
			GameID string `json:"game_id"`
			Date   string `json:"date"`
			wireStats
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("/v1/athletes/%s/gamelog", athleteID)
	if err := c.get(ctx, league, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	entries := make([]GameLogEntry, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		line, err := decodeStatLine(league, e.Position, e.Stats)
		if err != nil {
			continue
		}
		entries = append(entries, GameLogEntry{GameID: e.GameID, Date: e.Date, Line: line})
	}
	return entries, nil
}

func parseGameState(s string) models.GameState {
	switch s {
	case "live", "in_progress":
		return models.GameLive
	case "final", "closed":
		return models.GameFinal
	default:
		return models.GameScheduled
	}
}

func decodeStatLine(league models.League, position string, raw json.RawMessage) (models.StatLine, error) {
	role := models.RoleForPosition(league, position)
	line := models.ZeroStatLine(league, role)

	var target any
	switch role {
	case models.RoleSkater:
		target = line.Skater
	case models.RoleGoalie:
		target = line.Goalie
	default:
		target = line.NBA
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return models.StatLine{}, fmt.Errorf("decode %s stats: %w", role, err)
	}
	return line, nil
}
