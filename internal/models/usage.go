// Package models defines data structures and domain types.
package models

import (
	"strconv"
	"time"
)

// TokenUsage is the per-event token and cost breakdown reported by the
// events endpoint. Absent fields decode to zero.
type TokenUsage struct {
	InputTokens      int64   `json:"inputTokens"`
	OutputTokens     int64   `json:"outputTokens"`
	CacheWriteTokens int64   `json:"cacheWriteTokens"`
	CacheReadTokens  int64   `json:"cacheReadTokens"`
	TotalCents       float64 `json:"totalCents"`
}

// TotalTokens returns the sum of all four token counters.
func (t *TokenUsage) TotalTokens() int64 {
	return t.InputTokens + t.OutputTokens + t.CacheWriteTokens + t.CacheReadTokens
}

// UsageEvent is one billable model invocation. The timestamp arrives as a
// millisecond epoch encoded as a decimal string.
type UsageEvent struct {
	Timestamp  string      `json:"timestamp"`
	Model      string      `json:"model,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	TokenUsage *TokenUsage `json:"tokenUsage,omitempty"`
}

// CostCents returns the event cost in cents, zero when no token usage was
// reported.
func (e *UsageEvent) CostCents() float64 {
	if e.TokenUsage == nil {
		return 0
	}
	return e.TokenUsage.TotalCents
}

// TotalTokens returns the event token total, zero when no token usage was
// reported.
func (e *UsageEvent) TotalTokens() int64 {
	if e.TokenUsage == nil {
		return 0
	}
	return e.TokenUsage.TotalTokens()
}

// Time parses the millisecond-epoch timestamp. Unparsable timestamps map to
// the Unix epoch so they fall outside every aggregation window.
func (e *UsageEvent) Time() time.Time {
	ms, err := strconv.ParseFloat(e.Timestamp, 64)
	if err != nil {
		return time.UnixMilli(0)
	}
	return time.UnixMilli(int64(ms))
}

// ModelUsage holds the per-model counters of the legacy usage endpoint.
type ModelUsage struct {
	NumRequests     int64  `json:"numRequests"`
	MaxRequestUsage *int64 `json:"maxRequestUsage,omitempty"`
}

// PeriodSummary aggregates requests, spend, and tokens over one rolling
// window anchored to the aggregation's run time.
type PeriodSummary struct {
	Label        string  `json:"label"`
	Requests     int     `json:"requests"`
	SpendDollars float64 `json:"spendDollars"`
	Tokens       int64   `json:"tokens"`
}

// LineItem is a per-model aggregate within the current billing period.
type LineItem struct {
	ModelName    string  `json:"modelName"`
	RequestCount int     `json:"requestCount"`
	CostDollars  float64 `json:"costDollars"`
	TotalTokens  int64   `json:"totalTokens"`
}

// UsageDisplayData is the aggregation output consumed by the UI. It is
// replaced as a whole on every successful refresh.
type UsageDisplayData struct {
	BillingPeriodStart time.Time     `json:"billingPeriodStart"`
	TotalRequests      int           `json:"totalRequests"`
	TotalSpendDollars  float64       `json:"totalSpendDollars"`
	TotalTokens        int64         `json:"totalTokens"`
	LineItems          []LineItem    `json:"lineItems"`
	Today              PeriodSummary `json:"today"`
	Last7Days          PeriodSummary `json:"last7Days"`
	Last30Days         PeriodSummary `json:"last30Days"`
}
