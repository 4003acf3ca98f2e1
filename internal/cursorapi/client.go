// Package cursorapi is an authenticated client for the Cursor usage API.
package cursorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hfrankel/cursor-usage-tui/internal/credstore"
	"github.com/hfrankel/cursor-usage-tui/internal/logger"
	"github.com/hfrankel/cursor-usage-tui/internal/models"
)

const (
	// DefaultBaseURL is the production Cursor API origin.
	DefaultBaseURL = "https://cursor.com"

	legacyUsagePath = "/api/usage"
	usageEventsPath = "/api/dashboard/get-filtered-usage-events"

	sessionCookieName = "WorkosCursorSessionToken"

	requestTimeout = 30 * time.Second
)

// browserHeaders is the fixed header set the API discriminates on.
var browserHeaders = map[string]string{
	"Origin":          "https://cursor.com",
	"Referer":         "https://cursor.com/dashboard?tab=usage",
	"Sec-Fetch-Site":  "same-origin",
	"Sec-Fetch-Mode":  "cors",
	"Sec-Fetch-Dest":  "empty",
	"Accept":          "*/*",
	"Accept-Language": "en",
	"Cache-Control":   "no-cache",
	"Pragma":          "no-cache",
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Client calls the Cursor usage API with a fixed credential. It is stateless
// apart from the credential and safe for sequential reuse.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cred       credstore.Credential
}

// New creates a client for the given credential. An empty baseURL selects
// the production API.
func New(cred credstore.Credential, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		cred:       cred,
	}
}

// UserID returns the user identifier this client authenticates as.
func (c *Client) UserID() string {
	return c.cred.UserID
}

// legacyUsageResponse is the legacy endpoint payload: one reserved
// startOfMonth key plus an open-ended model name to counters mapping.
type legacyUsageResponse struct {
	StartOfMonth string
	Models       map[string]models.ModelUsage
}

func (r *legacyUsageResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Models = make(map[string]models.ModelUsage, len(raw))
	for key, val := range raw {
		if key == "startOfMonth" {
			// Reserved key, not a model name.
			_ = json.Unmarshal(val, &r.StartOfMonth)
			continue
		}
		var mu models.ModelUsage
		if err := json.Unmarshal(val, &mu); err != nil {
			// Unknown sibling fields are tolerated, the key set is open.
			continue
		}
		r.Models[key] = mu
	}
	return nil
}

// FetchBillingPeriodStart retrieves the billing period start from the legacy
// usage endpoint. A missing or unparsable startOfMonth falls back to the
// first instant of the current local calendar month.
func (c *Client) FetchBillingPeriodStart(ctx context.Context) (time.Time, error) {
	url := c.baseURL + legacyUsagePath + "?user=" + c.cred.UserID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create usage request: %w", err)
	}
	c.setHeaders(req)

	body, err := c.do(req)
	if err != nil {
		return time.Time{}, err
	}

	var legacy legacyUsageResponse
	if err := json.Unmarshal(body, &legacy); err != nil {
		return time.Time{}, &DecodeError{Err: err}
	}

	if legacy.StartOfMonth != "" {
		if start, err := time.Parse(time.RFC3339Nano, legacy.StartOfMonth); err == nil {
			return start, nil
		}
		logger.Warn("unparsable startOfMonth, using calendar month", "value", legacy.StartOfMonth)
	}

	return startOfCurrentMonth(time.Now()), nil
}

// startOfCurrentMonth returns the first instant of now's local calendar month.
func startOfCurrentMonth(now time.Time) time.Time {
	year, month, _ := now.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
}

// usageEventsRequest is the events endpoint body. Dates are millisecond
// epochs encoded as decimal strings.
type usageEventsRequest struct {
	TeamID    int    `json:"teamId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

type usageEventsResponse struct {
	UsageEventsDisplay []models.UsageEvent `json:"usageEventsDisplay"`
}

// FetchUsageEvents retrieves one page of usage events for the date range.
// An absent event list decodes to an empty slice, never an error.
func (c *Client) FetchUsageEvents(ctx context.Context, start, end time.Time, page, pageSize int) ([]models.UsageEvent, error) {
	payload, err := json.Marshal(usageEventsRequest{
		TeamID:    0,
		StartDate: strconv.FormatInt(start.UnixMilli(), 10),
		EndDate:   strconv.FormatInt(end.UnixMilli(), 10),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal events request: %w", err)
	}

	url := c.baseURL + usageEventsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create events request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var events usageEventsResponse
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if events.UsageEventsDisplay == nil {
		return []models.UsageEvent{}, nil
	}
	return events.UsageEventsDisplay, nil
}

// setHeaders attaches the session cookie and the browser-like header set.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Cookie", sessionCookieName+"="+c.cred.SessionToken)
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
}

// do executes the request and returns the body, converting non-2xx statuses
// to StatusError.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
