package models

// TimeSeriesPoint holds one month of a user's activity.
type TimeSeriesPoint struct {
	Month  string `json:"month"`
	Photos int    `json:"photos"`
	Litter int    `json:"litter"`
}

// CategoryTotal holds verified litter for one category.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
}
