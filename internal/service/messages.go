package service

import "fmt"

// Fixed user-facing replies.
const (
	UnknownIntentReply = "I'm sorry, I didn't understand that request."
	ApologyReply       = "Sorry, something went wrong while handling your request. Please try again in a moment."

	askTeamReply        = "Please tell me which team you want results for."
	askWeatherCityReply = "Please provide a city name for a weather forecast."
	askPlacesCityReply  = "Please provide a city and a place type, like 'restaurants in Rome' or 'parks in Tel Aviv'."
)

func noDataReply(subject string) string {
	return fmt.Sprintf("Sorry, no data found for %s.", subject)
}
