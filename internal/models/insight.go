package models

// ForecastInsight summarises how the engine forecast performed over a backtest.
type ForecastInsight struct {
	Draws           int         `json:"draws"`
	AvgMainHits     float64     `json:"avgMainHits"`
	AvgStarHits     float64     `json:"avgStarHits"`
	AvgBaselineHits float64     `json:"avgBaselineHits"`
	Lift            float64     `json:"lift"`
	AvgWinnerRank   float64     `json:"avgWinnerRank"`
	HitDistribution map[int]int `json:"hitDistribution"`
	Trend           string      `json:"trend"`
	BestFactor      string      `json:"bestFactor"`
	Summary         string      `json:"summary"`
}

// ContextDelta compares one calendar context against regular draws.
type ContextDelta struct {
	Context     CalendarContext `json:"context"`
	Draws       int             `json:"draws"`
	AvgMainHits float64         `json:"avgMainHits"`
	Delta       float64         `json:"delta"`
}

// ContextValidation checks whether holiday periods and human number bias
// show up in the realized results.
type ContextValidation struct {
	Contexts              []ContextDelta `json:"contexts"`
	BirthdayShare         float64        `json:"birthdayShare"`
	ExpectedBirthdayShare float64        `json:"expectedBirthdayShare"`
	BirthdayBias          float64        `json:"birthdayBias"`
}
