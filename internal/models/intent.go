package models

// IntentName is the internal intent taxonomy.
type IntentName string

const (
	IntentResults IntentName = "results"
	IntentWeather IntentName = "weather"
	IntentPlaces  IntentName = "places"
	IntentUnknown IntentName = "unknown"
)

// Slot names extracted by the classifier.
const (
	SlotTeam      = "team"
	SlotScope     = "scope"
	SlotSeason    = "season"
	SlotCity      = "city"
	SlotTimeframe = "timeframe"
	SlotCategory  = "category"
)

// Intent is the classified purpose of a message with its extracted slots.
type Intent struct {
	Name       IntentName
	Slots      map[string]string
	Confidence float64
	QueryText  string
}

// Slot returns the value of a slot, or "" when absent.
func (i *Intent) Slot(name string) string {
	if i == nil || i.Slots == nil {
		return ""
	}
	return i.Slots[name]
}

// UnknownIntent returns an Unknown intent for text.
func UnknownIntent(text string, confidence float64) *Intent {
	return &Intent{Name: IntentUnknown, Slots: map[string]string{}, Confidence: confidence, QueryText: text}
}
