package models

// Usage represents token usage reported by the completion provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UsageTotals aggregates provider usage across logged events.
type UsageTotals struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// CounterState is the persisted budget counter row: rolling daily and hourly
// token consumption plus the wall-clock bucket keys the counters belong to.
type CounterState struct {
	DailyTokens  int64  `json:"daily_tokens"`
	HourlyTokens int64  `json:"hourly_tokens"`
	Day          string `json:"day"`
	Hour         string `json:"hour"`
}
