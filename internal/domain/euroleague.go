package domain

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/models"
	"go.uber.org/zap"
)

const (
	euroleagueResultsEndpoint   = "https://api-live.euroleague.net/v1/results"
	euroleagueSchedulesEndpoint = "https://api-live.euroleague.net/v1/schedules"
)

// euroleagueTimeLayout matches the feed's "Oct 3, 2024" date plus "20:45" time.
const euroleagueTimeLayout = "Jan 2, 2006 15:04"

// EuroleagueClient implements ResultsProvider using the Euroleague live XML API.
type EuroleagueClient struct {
	resultsURL   string
	schedulesURL string
	httpClient   *http.Client
	now          func() time.Time
}

// NewEuroleagueClient creates a Euroleague client. The API is public.
func NewEuroleagueClient() *EuroleagueClient {
	return &EuroleagueClient{
		resultsURL:   euroleagueResultsEndpoint,
		schedulesURL: euroleagueSchedulesEndpoint,
		httpClient:   newHTTPClient(),
		now:          time.Now,
	}
}

type resultsFeed struct {
	Games []gameResult `xml:"game"`
}

type gameResult struct {
	Round     string `xml:"round"`
	GameDay   string `xml:"gameday"`
	Date      string `xml:"date"`
	Time      string `xml:"time"`
	HomeTeam  string `xml:"hometeam"`
	HomeScore string `xml:"homescore"`
	AwayTeam  string `xml:"awayteam"`
	AwayScore string `xml:"awayscore"`
	Played    string `xml:"played"`

	at time.Time
}

type scheduleFeed struct {
	Items []scheduleItem `xml:"item"`
}

type scheduleItem struct {
	Game      string `xml:"game"`
	GameCode  string `xml:"gamecode"`
	Date      string `xml:"date"`
	StartTime string `xml:"startime"`
	HomeTeam  string `xml:"hometeam"`
	AwayTeam  string `xml:"awayteam"`
	ArenaName string `xml:"arenaname"`

	at time.Time
}

// LookupResults answers a results query according to its scope.
func (c *EuroleagueClient) LookupResults(ctx context.Context, q models.ResultsQuery) (string, error) {
	switch q.Scope {
	case models.ScopeNext:
		return c.nextGame(ctx, q)
	case models.ScopeLast:
		return c.lastGame(ctx, q)
	default:
		return c.seasonResults(ctx, q)
	}
}

func (c *EuroleagueClient) lastGame(ctx context.Context, q models.ResultsQuery) (string, error) {
	games, err := c.fetchResults(ctx, q.Season)
	if err != nil {
		return "", err
	}

	now := c.now()
	var last *gameResult
	for i := range games {
		g := &games[i]
		if !involves(q.Team, g.HomeTeam, g.AwayTeam) || !strings.EqualFold(strings.TrimSpace(g.Played), "true") {
			continue
		}
		if g.at.IsZero() || g.at.After(now) {
			continue
		}
		if last == nil || g.at.After(last.at) {
			last = g
		}
	}
	if last == nil {
		return "", notFound("past games for %s in season %s", q.Team, q.Season)
	}

	return fmt.Sprintf("Last game for %s on %s:\n%s %s - %s %s",
		q.Team, last.Date, last.HomeTeam, last.HomeScore, last.AwayScore, last.AwayTeam), nil
}

func (c *EuroleagueClient) nextGame(ctx context.Context, q models.ResultsQuery) (string, error) {
	body, err := fetch(ctx, c.httpClient, "euroleague schedules", c.feedURL(c.schedulesURL, q.Season), "application/xml")
	if err != nil {
		return "", err
	}

	var feed scheduleFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", fmt.Errorf("failed to parse euroleague schedules: %w", err)
	}

	now := c.now()
	var next *scheduleItem
	for i := range feed.Items {
		item := &feed.Items[i]
		if !involves(q.Team, item.HomeTeam, item.AwayTeam) {
			continue
		}
		at, ok := parseGameTime(item.Date, item.StartTime)
		if !ok || at.Before(now) {
			continue
		}
		item.at = at
		if next == nil || at.Before(next.at) {
			next = item
		}
	}
	if next == nil {
		return "", notFound("upcoming games for %s in season %s", q.Team, q.Season)
	}

	arena := next.ArenaName
	if arena == "" {
		arena = "N/A"
	}
	return fmt.Sprintf("Next game for %s:\nArena: %s\nDate: %s at %s\n%s vs %s",
		q.Team, arena, next.Date, next.StartTime, next.HomeTeam, next.AwayTeam), nil
}

func (c *EuroleagueClient) seasonResults(ctx context.Context, q models.ResultsQuery) (string, error) {
	games, err := c.fetchResults(ctx, q.Season)
	if err != nil {
		return "", err
	}

	var teamGames []gameResult
	for _, g := range games {
		if involves(q.Team, g.HomeTeam, g.AwayTeam) {
			teamGames = append(teamGames, g)
		}
	}
	if len(teamGames) == 0 {
		return "", notFound("games for %s in season %s", q.Team, q.Season)
	}

	sort.SliceStable(teamGames, func(i, j int) bool {
		return teamGames[i].at.Before(teamGames[j].at)
	})

	lines := make([]string, 0, len(teamGames))
	for _, g := range teamGames {
		round := g.Round
		if round == "" {
			round = "N/A"
		}
		lines = append(lines, fmt.Sprintf("%s: %s %s - %s %s (Round: %s)",
			g.Date, g.HomeTeam, g.HomeScore, g.AwayScore, g.AwayTeam, round))
	}
	return strings.Join(lines, "\n"), nil
}

// fetchResults downloads a season's results. Games whose date cannot be
// parsed keep a zero time and sort first.
func (c *EuroleagueClient) fetchResults(ctx context.Context, season string) ([]gameResult, error) {
	body, err := fetch(ctx, c.httpClient, "euroleague results", c.feedURL(c.resultsURL, season), "application/xml")
	if err != nil {
		return nil, err
	}

	var feed resultsFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse euroleague results: %w", err)
	}

	for i := range feed.Games {
		g := &feed.Games[i]
		at, ok := parseGameTime(g.Date, g.Time)
		if !ok {
			logger.Get().Debug("skipping unparseable game date", zap.String("date", g.Date))
			continue
		}
		g.at = at
	}
	return feed.Games, nil
}

func (c *EuroleagueClient) feedURL(base, season string) string {
	params := url.Values{}
	params.Set("seasonCode", season)
	return base + "?" + params.Encode()
}

// involves reports whether team matches either side, case-insensitively and
// by substring so "Maccabi" matches "Maccabi Playtika Tel Aviv".
func involves(team, home, away string) bool {
	t := strings.ToLower(strings.TrimSpace(team))
	if t == "" {
		return false
	}
	return strings.Contains(strings.ToLower(home+" "+away), t)
}

func parseGameTime(date, clock string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = "00:00"
	}
	at, err := time.Parse(euroleagueTimeLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
