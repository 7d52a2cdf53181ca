package models

// ResultsScope selects which games a results lookup returns.
type ResultsScope string

const (
	ScopeLast   ResultsScope = "last"
	ScopeNext   ResultsScope = "next"
	ScopeSeason ResultsScope = "season"
)

// ResultsQuery asks for Euroleague results for a team.
type ResultsQuery struct {
	Team   string
	Scope  ResultsScope
	Season string // season code, e.g. "E2024"
}

// WeatherQuery asks for a forecast. DaysAhead is 0 for today's forecast and
// ignored when Current is set. With Hourly, DaysAhead 0 asks for the next
// hour and 1 or 2 for every hour of that day.
type WeatherQuery struct {
	City      string
	Current   bool
	Hourly    bool
	DaysAhead int
	Timeframe string
}

// PlacesQuery asks for place recommendations.
type PlacesQuery struct {
	City     string
	Category string
}

// QueryVisitor handles every domain query variant. Adding a domain means
// adding a method here, which breaks every visitor until it is handled.
type QueryVisitor interface {
	VisitResults(q ResultsQuery) (string, error)
	VisitWeather(q WeatherQuery) (string, error)
	VisitPlaces(q PlacesQuery) (string, error)
}

// DomainTarget is the closed set of dispatchable queries.
type DomainTarget interface {
	Accept(v QueryVisitor) (string, error)
	domainTarget()
}

func (q ResultsQuery) Accept(v QueryVisitor) (string, error) { return v.VisitResults(q) }
func (q WeatherQuery) Accept(v QueryVisitor) (string, error) { return v.VisitWeather(q) }
func (q PlacesQuery) Accept(v QueryVisitor) (string, error)  { return v.VisitPlaces(q) }

func (ResultsQuery) domainTarget() {}
func (WeatherQuery) domainTarget() {}
func (PlacesQuery) domainTarget()  {}

// DomainQuery is a routed intent. Target is nil whenever
// MissingRequiredSlots is non-empty.
type DomainQuery struct {
	Intent               *Intent
	NormalizedSlots      map[string]string
	MissingRequiredSlots []string
	Target               DomainTarget
}

// Complete reports whether every required slot was supplied.
func (q *DomainQuery) Complete() bool {
	return len(q.MissingRequiredSlots) == 0 && q.Target != nil
}
