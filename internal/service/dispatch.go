package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/asaskevich/govalidator"
	"github.com/sony/gobreaker"
	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/domain"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/metrics"
	"github.com/windoze95/amitbot-api/internal/models"
	"go.uber.org/zap"
)

const (
	defaultPlacesCategory = "tourist attraction"
	maxForecastDays       = 7
	maxHourlyDays         = 2
)

var (
	seasonYearPattern = regexp.MustCompile(`20\d{2}`)
	dayCountPattern   = regexp.MustCompile(`(\d+)`)
	hourlyDayPattern  = regexp.MustCompile(`\b(\d+)\s*-?\s*day`)

	lastSynonyms = []string{"last", "latest", "previous", "most recent", "past"}
	nextSynonyms = []string{"next", "upcoming", "coming", "following", "future", "subsequent"}
)

// DomainRouter validates an intent's slots and dispatches the resulting
// query to its domain provider.
type DomainRouter struct {
	Results       domain.ResultsProvider
	Weather       domain.WeatherProvider
	Places        domain.PlacesProvider
	DefaultSeason string
	Retry         RetryPolicy

	breakers map[string]*gobreaker.CircuitBreaker
}

// NewDomainRouter creates a router with one circuit breaker per provider.
func NewDomainRouter(results domain.ResultsProvider, weather domain.WeatherProvider, places domain.PlacesProvider, defaultSeason string, retry RetryPolicy) *DomainRouter {
	r := &DomainRouter{
		Results:       results,
		Weather:       weather,
		Places:        places,
		DefaultSeason: defaultSeason,
		Retry:         retry,
		breakers:      make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, name := range []string{"euroleague", "openweathermap", "google_places"} {
		r.breakers[name] = newProviderBreaker(name)
	}
	return r
}

func newProviderBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Get().Warn("circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// Route normalizes the intent's slots into a DomainQuery. Unknown intents
// have no route and yield nil.
func (r *DomainRouter) Route(intent *models.Intent) *models.DomainQuery {
	q := &models.DomainQuery{Intent: intent, NormalizedSlots: map[string]string{}}

	switch intent.Name {
	case models.IntentResults:
		team, ok := entityName(intent.Slot(models.SlotTeam))
		if !ok {
			q.MissingRequiredSlots = []string{models.SlotTeam}
			return q
		}
		scope := normalizeScope(intent.Slot(models.SlotScope), intent.QueryText)
		season := normalizeSeason(intent.Slot(models.SlotSeason), r.DefaultSeason)
		q.NormalizedSlots[models.SlotTeam] = team
		q.NormalizedSlots[models.SlotScope] = string(scope)
		q.NormalizedSlots[models.SlotSeason] = season
		q.Target = models.ResultsQuery{Team: team, Scope: scope, Season: season}

	case models.IntentWeather:
		city, ok := entityName(intent.Slot(models.SlotCity))
		if !ok {
			q.MissingRequiredSlots = []string{models.SlotCity}
			return q
		}
		wq := normalizeTimeframe(intent.Slot(models.SlotTimeframe), intent.QueryText)
		wq.City = city
		q.NormalizedSlots[models.SlotCity] = city
		q.NormalizedSlots[models.SlotTimeframe] = wq.Timeframe
		q.Target = wq

	case models.IntentPlaces:
		city, ok := entityName(intent.Slot(models.SlotCity))
		if !ok {
			q.MissingRequiredSlots = []string{models.SlotCity}
			return q
		}
		category := normalizeCategory(intent.Slot(models.SlotCategory))
		q.NormalizedSlots[models.SlotCity] = city
		q.NormalizedSlots[models.SlotCategory] = category
		q.Target = models.PlacesQuery{City: city, Category: category}

	default:
		return nil
	}
	return q
}

// Clarification is the reply asking for q's first missing slot.
func (r *DomainRouter) Clarification(q *models.DomainQuery) string {
	if q == nil || q.Intent == nil {
		return UnknownIntentReply
	}
	switch q.Intent.Name {
	case models.IntentResults:
		return askTeamReply
	case models.IntentWeather:
		return askWeatherCityReply
	case models.IntentPlaces:
		return askPlacesCityReply
	default:
		return UnknownIntentReply
	}
}

// Dispatch looks up a complete query. NotFound becomes a "no data" reply;
// other provider failures are retried and then surface as ProviderError.
// An incomplete query is answered with its clarification and no provider
// is called.
func (r *DomainRouter) Dispatch(ctx context.Context, q *models.DomainQuery) (string, error) {
	if q == nil || !q.Complete() {
		return r.Clarification(q), nil
	}
	return q.Target.Accept(&dispatchVisitor{ctx: ctx, router: r})
}

// dispatchVisitor binds a dispatch context to the router.
type dispatchVisitor struct {
	ctx    context.Context
	router *DomainRouter
}

func (v *dispatchVisitor) VisitResults(q models.ResultsQuery) (string, error) {
	return v.router.lookup(v.ctx, "euroleague", q.Team, func(ctx context.Context) (string, error) {
		return v.router.Results.LookupResults(ctx, q)
	})
}

func (v *dispatchVisitor) VisitWeather(q models.WeatherQuery) (string, error) {
	return v.router.lookup(v.ctx, "openweathermap", q.City, func(ctx context.Context) (string, error) {
		return v.router.Weather.LookupWeather(ctx, q)
	})
}

func (v *dispatchVisitor) VisitPlaces(q models.PlacesQuery) (string, error) {
	subject := fmt.Sprintf("%s in %s", q.Category, q.City)
	return v.router.lookup(v.ctx, "google_places", subject, func(ctx context.Context) (string, error) {
		return v.router.Places.LookupPlaces(ctx, q)
	})
}

// lookupResult lets a NotFound answer pass through the breaker as a success.
type lookupResult struct {
	text     string
	notFound bool
}

func (r *DomainRouter) lookup(ctx context.Context, provider, subject string, fn func(context.Context) (string, error)) (string, error) {
	cb := r.breakers[provider]

	res, err := retryCall(ctx, r.Retry, provider+" lookup", func(ctx context.Context) (lookupResult, error) {
		out, err := cb.Execute(func() (interface{}, error) {
			text, err := fn(ctx)
			if errors.Is(err, domain.ErrNotFound) {
				return lookupResult{notFound: true}, nil
			}
			if err != nil {
				return nil, err
			}
			return lookupResult{text: text}, nil
		})
		if err != nil {
			return lookupResult{}, err
		}
		return out.(lookupResult), nil
	})
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(provider, "error").Inc()
		if ctx.Err() != nil {
			return "", err
		}
		return "", apperr.New(apperr.KindProvider, provider+" lookup", err)
	}

	if res.notFound {
		metrics.ProviderCalls.WithLabelValues(provider, "not_found").Inc()
		return noDataReply(subject), nil
	}
	metrics.ProviderCalls.WithLabelValues(provider, "ok").Inc()
	return res.text, nil
}

// entityName trims a team or city slot and rejects blank or numeric values.
func entityName(raw string) (string, bool) {
	v := strings.Join(strings.Fields(raw), " ")
	if v == "" || govalidator.IsNumeric(strings.ReplaceAll(v, " ", "")) {
		return "", false
	}
	return v, true
}

func normalizeScope(slot, queryText string) models.ResultsScope {
	switch strings.ToLower(strings.TrimSpace(slot)) {
	case "last", "latest", "previous", "recent":
		return models.ScopeLast
	case "next", "upcoming":
		return models.ScopeNext
	case "season", "all":
		return models.ScopeSeason
	}

	words := wordsOf(queryText)
	if containsAny(words, lastSynonyms) {
		return models.ScopeLast
	}
	if containsAny(words, nextSynonyms) {
		return models.ScopeNext
	}
	return models.ScopeSeason
}

func normalizeSeason(slot, fallback string) string {
	if year := seasonYearPattern.FindString(slot); year != "" {
		return "E" + year
	}
	return fallback
}

// normalizeTimeframe maps now/today/tomorrow/N-day onto a WeatherQuery.
// Anything unrecognized means the current weather.
func normalizeTimeframe(slot, queryText string) models.WeatherQuery {
	tf := strings.ToLower(strings.TrimSpace(slot))
	if containsAny(wordsOf(tf), []string{"hourly"}) || containsAny(wordsOf(queryText), []string{"hourly"}) {
		return hourlyTimeframe(tf + " " + strings.ToLower(queryText))
	}
	switch tf {
	case "", "now", "current", "currently", "right now":
		return models.WeatherQuery{Current: true, Timeframe: "now"}
	case "today", "tonight":
		return models.WeatherQuery{DaysAhead: 0, Timeframe: "today"}
	case "tomorrow":
		return models.WeatherQuery{DaysAhead: 1, Timeframe: "tomorrow"}
	case "day after tomorrow":
		return models.WeatherQuery{DaysAhead: 2, Timeframe: "2-day"}
	}

	if m := dayCountPattern.FindString(tf); m != "" && govalidator.IsInt(m) {
		n, err := strconv.Atoi(m)
		if err == nil && n > 0 {
			if n > maxForecastDays {
				n = maxForecastDays
			}
			return models.WeatherQuery{DaysAhead: n, Timeframe: fmt.Sprintf("%d-day", n)}
		}
	}
	return models.WeatherQuery{Current: true, Timeframe: "now"}
}

// normalizeCategory lowercases and singularizes a place category.
func normalizeCategory(slot string) string {
	c := strings.ToLower(strings.Join(strings.Fields(slot), " "))
	if c == "" {
		return defaultPlacesCategory
	}
	switch {
	case strings.HasSuffix(c, "ies") && len(c) > 4:
		c = strings.TrimSuffix(c, "ies") + "y"
	case strings.HasSuffix(c, "ss"), strings.HasSuffix(c, "us"):
	case strings.HasSuffix(c, "s") && len(c) > 3:
		c = strings.TrimSuffix(c, "s")
	}
	return c
}

// hourlyTimeframe picks the day for an hourly forecast: the next hour by
// default, or every hour of tomorrow or the day after.
func hourlyTimeframe(text string) models.WeatherQuery {
	q := models.WeatherQuery{Hourly: true, Timeframe: "hourly"}
	if containsAny(wordsOf(text), []string{"tomorrow"}) {
		q.DaysAhead = 1
	} else if m := hourlyDayPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= maxHourlyDays {
			q.DaysAhead = n
		}
	}
	if q.DaysAhead > 0 {
		q.Timeframe = fmt.Sprintf("hourly %d-day", q.DaysAhead)
	}
	return q
}

// wordsOf splits text into lowercase words, dropping punctuation.
func wordsOf(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsAny reports whether any phrase appears in words as a run of
// whole words.
func containsAny(words []string, phrases []string) bool {
	for _, p := range phrases {
		want := strings.Fields(p)
		for i := 0; i+len(want) <= len(words); i++ {
			match := true
			for j, w := range want {
				if words[i+j] != w {
					match = false
					break
				}
			}
			if match {
				return true
			}
		}
	}
	return false
}
