package service

import (
	"context"
	"strings"

	"github.com/windoze95/amitbot-api/internal/ai"
	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/models"
)

// intentAliases maps classifier intent names, including the older
// GetWeather-style names, onto the internal taxonomy.
var intentAliases = map[string]models.IntentName{
	"results":       models.IntentResults,
	"euroleague":    models.IntentResults,
	"geteuroleague": models.IntentResults,
	"sports":        models.IntentResults,
	"weather":       models.IntentWeather,
	"getweather":    models.IntentWeather,
	"forecast":      models.IntentWeather,
	"places":        models.IntentPlaces,
	"getplaces":     models.IntentPlaces,
	"recommend":     models.IntentPlaces,
}

// IntentResolver turns text into an Intent using the external classifier.
type IntentResolver struct {
	Classifier      ai.IntentClassifier
	ConfidenceFloor float64
	Retry           RetryPolicy
}

// NewIntentResolver creates a new IntentResolver.
func NewIntentResolver(classifier ai.IntentClassifier, confidenceFloor float64, retry RetryPolicy) *IntentResolver {
	return &IntentResolver{
		Classifier:      classifier,
		ConfidenceFloor: confidenceFloor,
		Retry:           retry,
	}
}

// Resolve classifies text. Unrecognized names and answers below the
// confidence floor resolve to Unknown; only provider failures are errors.
func (r *IntentResolver) Resolve(ctx context.Context, text, sessionID string) (*models.Intent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.UnknownIntent(text, 0), nil
	}

	c, err := retryCall(ctx, r.Retry, "classify intent", func(ctx context.Context) (*ai.Classification, error) {
		return r.Classifier.ClassifyIntent(ctx, text, sessionID)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.KindClassification, "classify intent", err)
	}

	name := mapIntentName(c.IntentName)
	if name == models.IntentUnknown || c.Confidence < r.ConfidenceFloor {
		return models.UnknownIntent(text, c.Confidence), nil
	}

	slots := make(map[string]string, len(c.Slots))
	for k, v := range c.Slots {
		if v = strings.TrimSpace(v); v != "" {
			slots[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}

	return &models.Intent{
		Name:       name,
		Slots:      slots,
		Confidence: c.Confidence,
		QueryText:  text,
	}, nil
}

func mapIntentName(raw string) models.IntentName {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	if name, ok := intentAliases[key]; ok {
		return name
	}
	return models.IntentUnknown
}
