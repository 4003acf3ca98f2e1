// Package aggregate folds raw usage events into the display aggregates.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hfrankel/cursor-usage-tui/internal/logger"
	"github.com/hfrankel/cursor-usage-tui/internal/models"
)

const (
	// pageSize is the number of events requested per page.
	pageSize = 1000
	// maxPages caps the pagination loop against runaway responses.
	maxPages = 10
)

// Client is the slice of the API client the engine depends on.
type Client interface {
	FetchBillingPeriodStart(ctx context.Context) (time.Time, error)
	FetchUsageEvents(ctx context.Context, start, end time.Time, page, pageSize int) ([]models.UsageEvent, error)
}

// Engine orchestrates the two API calls and the fold. The two calls are
// sequential by necessity: the fetch window depends on the billing start.
type Engine struct {
	client Client
	now    func() time.Time
}

// NewEngine creates an engine over the given client.
func NewEngine(client Client) *Engine {
	return &Engine{
		client: client,
		now:    time.Now,
	}
}

// BuildDisplayData fetches the billing period start and the event window,
// then reduces the events into a fresh UsageDisplayData. Any client failure
// aborts the whole aggregation; partial results are never returned.
func (e *Engine) BuildDisplayData(ctx context.Context) (*models.UsageDisplayData, error) {
	billingStart, err := e.client.FetchBillingPeriodStart(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch billing period start: %w", err)
	}

	now := e.now()
	thirtyDaysAgo := now.Add(-30 * 24 * time.Hour)

	// Fetch from the earlier of billing start and the 30-day floor, so the
	// rolling windows are complete even when the billing period is younger.
	fetchStart := billingStart
	if thirtyDaysAgo.Before(fetchStart) {
		fetchStart = thirtyDaysAgo
	}

	events, err := e.fetchAllEvents(ctx, fetchStart, now)
	if err != nil {
		return nil, fmt.Errorf("fetch usage events: %w", err)
	}

	return Reduce(events, billingStart, now), nil
}

// fetchAllEvents pages through the events endpoint until a short page or the
// safety cap.
func (e *Engine) fetchAllEvents(ctx context.Context, start, end time.Time) ([]models.UsageEvent, error) {
	var all []models.UsageEvent

	for page := 1; page <= maxPages; page++ {
		batch, err := e.client.FetchUsageEvents(ctx, start, end, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if len(batch) < pageSize {
			return all, nil
		}
	}

	logger.Warn("event pagination hit safety cap, totals may undercount",
		"pages", maxPages, "events", len(all))
	return all, nil
}

// bucket accumulates one rolling window.
type bucket struct {
	requests int
	cents    float64
	tokens   int64
}

func (b *bucket) add(cents float64, tokens int64) {
	b.requests++
	b.cents += cents
	b.tokens += tokens
}

func (b *bucket) summary(label string) models.PeriodSummary {
	return models.PeriodSummary{
		Label:        label,
		Requests:     b.requests,
		SpendDollars: b.cents / 100.0,
		Tokens:       b.tokens,
	}
}

// modelAcc accumulates one billing-period line item.
type modelAcc struct {
	count  int
	cents  float64
	tokens int64
}

// Reduce folds events into display data in a single pass. Billing-period
// membership and rolling-window membership are evaluated independently;
// money stays in cents until the output boundary.
func Reduce(events []models.UsageEvent, billingStart, now time.Time) *models.UsageDisplayData {
	startOfToday := startOfDay(now)
	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)
	thirtyDaysAgo := now.Add(-30 * 24 * time.Hour)

	byModel := make(map[string]*modelAcc)
	var billingCents float64
	var billingTokens int64

	var today, week, month bucket

	for i := range events {
		ev := &events[i]

		model := ev.Model
		if model == "" {
			model = "unknown"
		}
		cents := ev.CostCents()
		tokens := ev.TotalTokens()
		at := ev.Time()

		if !at.Before(billingStart) {
			billingCents += cents
			billingTokens += tokens

			acc := byModel[model]
			if acc == nil {
				acc = &modelAcc{}
				byModel[model] = acc
			}
			acc.count++
			acc.cents += cents
			acc.tokens += tokens
		}

		if !at.Before(startOfToday) {
			today.add(cents, tokens)
		}
		if !at.Before(sevenDaysAgo) {
			week.add(cents, tokens)
		}
		if !at.Before(thirtyDaysAgo) {
			month.add(cents, tokens)
		}
	}

	lineItems := make([]models.LineItem, 0, len(byModel))
	totalRequests := 0
	for model, acc := range byModel {
		lineItems = append(lineItems, models.LineItem{
			ModelName:    model,
			RequestCount: acc.count,
			CostDollars:  acc.cents / 100.0,
			TotalTokens:  acc.tokens,
		})
		totalRequests += acc.count
	}

	// Cost descending; model name ascending breaks ties deterministically.
	sort.Slice(lineItems, func(i, j int) bool {
		if lineItems[i].CostDollars != lineItems[j].CostDollars {
			return lineItems[i].CostDollars > lineItems[j].CostDollars
		}
		return lineItems[i].ModelName < lineItems[j].ModelName
	})

	return &models.UsageDisplayData{
		BillingPeriodStart: billingStart,
		TotalRequests:      totalRequests,
		TotalSpendDollars:  billingCents / 100.0,
		TotalTokens:        billingTokens,
		LineItems:          lineItems,
		Today:              today.summary("Today"),
		Last7Days:          week.summary("Last 7 Days"),
		Last30Days:         month.summary("Last 30 Days"),
	}
}

// startOfDay truncates to the local day start.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
