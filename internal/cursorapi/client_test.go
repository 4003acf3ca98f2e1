package cursorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hfrankel/cursor-usage-tui/internal/credstore"
)

// MockRoundTripper implements http.RoundTripper for testing
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func testClient(rt http.RoundTripper) *Client {
	c := New(credstore.Credential{
		SessionToken: "user-1%3A%3Araw.jwt.token",
		UserID:       "user-1",
	}, "https://cursor.test")
	c.httpClient = &http.Client{Transport: rt}
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestFetchBillingPeriodStart(t *testing.T) {
	var gotReq *http.Request
	client := testClient(&MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			gotReq = req
			return jsonResponse(http.StatusOK,
				`{"gpt-4":{"numRequests":12,"maxRequestUsage":500},"startOfMonth":"2025-08-01T00:00:00.000Z"}`), nil
		},
	})

	start, err := client.FetchBillingPeriodStart(context.Background())
	if err != nil {
		t.Fatalf("FetchBillingPeriodStart: %v", err)
	}

	want := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}

	if gotReq.URL.Query().Get("user") != "user-1" {
		t.Errorf("user param = %q, want user-1", gotReq.URL.Query().Get("user"))
	}
	if cookie := gotReq.Header.Get("Cookie"); cookie != "WorkosCursorSessionToken=user-1%3A%3Araw.jwt.token" {
		t.Errorf("Cookie = %q", cookie)
	}
	if gotReq.Header.Get("User-Agent") == "" {
		t.Error("User-Agent header missing")
	}
}

func TestFetchBillingPeriodStartFallback(t *testing.T) {
	// No startOfMonth: fall back to the first instant of the current
	// local calendar month.
	client := testClient(&MockRoundTripper{
		RoundTripFunc: func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"gpt-4":{"numRequests":1}}`), nil
		},
	})

	start, err := client.FetchBillingPeriodStart(context.Background())
	if err != nil {
		t.Fatalf("FetchBillingPeriodStart: %v", err)
	}

	now := time.Now()
	if start.Year() != now.Year() || start.Month() != now.Month() || start.Day() != 1 {
		t.Errorf("fallback start = %v, want first of current month", start)
	}
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("fallback start = %v, want midnight", start)
	}
}

func TestFetchBillingPeriodStartUnparsableDate(t *testing.T) {
	client := testClient(&MockRoundTripper{
		RoundTripFunc: func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"startOfMonth":"yesterday"}`), nil
		},
	})

	start, err := client.FetchBillingPeriodStart(context.Background())
	if err != nil {
		t.Fatalf("FetchBillingPeriodStart: %v", err)
	}
	if start.Day() != 1 {
		t.Errorf("start = %v, want first of month fallback", start)
	}
}

func TestFetchBillingPeriodStartHTTPError(t *testing.T) {
	client := testClient(&MockRoundTripper{
		RoundTripFunc: func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, "session expired"), nil
		},
	})

	_, err := client.FetchBillingPeriodStart(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.Code != http.StatusUnauthorized {
		t.Errorf("Code = %d, want 401", statusErr.Code)
	}
	if statusErr.Body != "session expired" {
		t.Errorf("Body = %q", statusErr.Body)
	}
}

func TestFetchUsageEvents(t *testing.T) {
	var gotBody usageEventsRequest
	client := testClient(&MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(raw, &gotBody); err != nil {
				t.Fatalf("request body: %v", err)
			}
			return jsonResponse(http.StatusOK, `{
				"usageEventsDisplay": [
					{"timestamp":"1700000000000","model":"gpt-4","tokenUsage":{"inputTokens":10,"totalCents":2.5}},
					{"timestamp":"1700000001000"}
				]
			}`), nil
		},
	})

	start := time.UnixMilli(1699000000000)
	end := time.UnixMilli(1700000005000)
	events, err := client.FetchUsageEvents(context.Background(), start, end, 1, 1000)
	if err != nil {
		t.Fatalf("FetchUsageEvents: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Model != "gpt-4" || events[0].CostCents() != 2.5 {
		t.Errorf("events[0] = %+v", events[0])
	}

	if gotBody.TeamID != 0 || gotBody.Page != 1 || gotBody.PageSize != 1000 {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.StartDate != "1699000000000" || gotBody.EndDate != "1700000005000" {
		t.Errorf("dates = %q..%q, want ms-epoch strings", gotBody.StartDate, gotBody.EndDate)
	}
}

func TestFetchUsageEventsAbsentList(t *testing.T) {
	client := testClient(&MockRoundTripper{
		RoundTripFunc: func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{}`), nil
		},
	})

	events, err := client.FetchUsageEvents(context.Background(), time.Now().Add(-time.Hour), time.Now(), 1, 1000)
	if err != nil {
		t.Fatalf("FetchUsageEvents: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("events = %v, want empty non-nil slice", events)
	}
}

func TestFetchUsageEventsDecodeError(t *testing.T) {
	client := testClient(&MockRoundTripper{
		RoundTripFunc: func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `<html>maintenance</html>`), nil
		},
	})

	_, err := client.FetchUsageEvents(context.Background(), time.Now().Add(-time.Hour), time.Now(), 1, 1000)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestLegacyResponseFoldsUnknownModels(t *testing.T) {
	raw := `{
		"claude-4-sonnet":{"numRequests":3},
		"some-future-model":{"numRequests":9,"maxRequestUsage":100},
		"startOfMonth":"2025-08-01T00:00:00Z",
		"unexpectedScalar":42
	}`

	var legacy legacyUsageResponse
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if legacy.StartOfMonth != "2025-08-01T00:00:00Z" {
		t.Errorf("StartOfMonth = %q", legacy.StartOfMonth)
	}
	if len(legacy.Models) != 2 {
		t.Errorf("Models = %v, want 2 entries", legacy.Models)
	}
	if legacy.Models["some-future-model"].NumRequests != 9 {
		t.Errorf("NumRequests = %d", legacy.Models["some-future-model"].NumRequests)
	}
}
