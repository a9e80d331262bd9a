package models

import "time"

// ContextDim is the width of the normalized game context feature vector.
const ContextDim = 10

// GameContext carries the situational features for one game. Vector()
// normalizes each component to [0,1]; out-of-range raw inputs (rest beyond a
// week, cross-country travel) may push a component above 1, which downstream
// consumers accept.
type GameContext struct {
	HomeGame         bool         `json:"home_game"`
	NeutralSite      bool         `json:"neutral_site"`
	Postseason       bool         `json:"postseason"`
	RestDays         int          `json:"rest_days"`
	TravelDistanceKm float64      `json:"travel_distance_km"`
	ConferenceGame   bool         `json:"conference_game"`
	Rivalry          bool         `json:"rivalry"`
	NationalTV       bool         `json:"national_tv"`
	TipoffHour       int          `json:"tipoff_hour"`
	DayOfWeek        time.Weekday `json:"day_of_week"`
	SeasonProgress   float64      `json:"season_progress"`
}

// Normalization scales. Rest saturates at a week; travel at a
// cross-conference road trip.
const (
	restDaysScale  = 7.0
	travelScaleKm  = 3000.0
	hoursPerDay    = 24.0
	weekdayDivisor = 6.0
)

// BackToBack reports whether the team played the previous day.
func (c GameContext) BackToBack() bool {
	return c.RestDays <= 1
}

// Vector returns the fixed-width normalized feature vector. Venue is a
// single component: 1 for home, 0.5 for neutral, 0 for away.
func (c GameContext) Vector() []float64 {
	venue := 0.0
	switch {
	case c.NeutralSite:
		venue = 0.5
	case c.HomeGame:
		venue = 1.0
	}
	return []float64{
		venue,
		boolFeature(c.Postseason),
		float64(c.RestDays) / restDaysScale,
		c.TravelDistanceKm / travelScaleKm,
		boolFeature(c.ConferenceGame),
		boolFeature(c.Rivalry),
		boolFeature(c.NationalTV),
		float64(c.TipoffHour) / hoursPerDay,
		float64(c.DayOfWeek) / weekdayDivisor,
		c.SeasonProgress,
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
