package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchCurrent_Success(t *testing.T) {
	apiResp := map[string]interface{}{
		"name": "Berlin",
		"dt":   1700000000,
		"main": map[string]interface{}{
			"temp":     18.5,
			"humidity": 65,
		},
		"weather": []map[string]interface{}{
			{
				"main":        "Clear",
				"description": "clear sky",
				"icon":        "01d",
			},
		},
		"wind": map[string]interface{}{
			"speed": 3.2,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/weather") {
			t.Errorf("expected /weather path, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Berlin" {
			t.Errorf("q = %q, want %q", q.Get("q"), "Berlin")
		}
		if q.Get("appid") != "test-api-key" {
			t.Errorf("appid = %q, want %q", q.Get("appid"), "test-api-key")
		}
		if q.Get("units") != "metric" {
			t.Errorf("units = %q, want %q", q.Get("units"), "metric")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(apiResp)
	}))
	defer server.Close()

	c := NewOpenWeatherClient(server.URL, "", nil, nil)

	outcome := c.FetchCurrent(context.Background(), "Berlin", "test-api-key")
	if !outcome.OK() {
		t.Fatalf("FetchCurrent() failure = %v, want success", outcome.Failure())
	}

	got := outcome.Value()
	if got.City != "Berlin" {
		t.Errorf("City = %q, want %q", got.City, "Berlin")
	}
	if got.Temperature != 18.5 {
		t.Errorf("Temperature = %f, want %f", got.Temperature, 18.5)
	}
	if got.Humidity != 65 {
		t.Errorf("Humidity = %d, want %d", got.Humidity, 65)
	}
	if got.WindSpeed != 3.2 {
		t.Errorf("WindSpeed = %f, want %f", got.WindSpeed, 3.2)
	}
	if len(got.Conditions) != 1 {
		t.Fatalf("len(Conditions) = %d, want 1", len(got.Conditions))
	}
	if got.Conditions[0].Icon != "01d" {
		t.Errorf("Conditions[0].Icon = %q, want %q", got.Conditions[0].Icon, "01d")
	}
	if got.Conditions[0].Description != "clear sky" {
		t.Errorf("Conditions[0].Description = %q, want %q", got.Conditions[0].Description, "clear sky")
	}
	wantTS := time.Unix(1700000000, 0).UTC()
	if !got.Timestamp.Equal(wantTS) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, wantTS)
	}
}

func TestFetchCurrent_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"401 unauthorized", http.StatusUnauthorized},
		{"404 not found", http.StatusNotFound},
		{"429 rate limited", http.StatusTooManyRequests},
		{"500 server error", http.StatusInternalServerError},
		{"503 unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			c := NewOpenWeatherClient(server.URL, "metric", nil, nil)
			outcome := c.FetchCurrent(context.Background(), "Nowhere123", "test-api-key")

			if outcome.OK() {
				t.Fatal("FetchCurrent() = success, want failure")
			}
			f := outcome.Failure()
			if f.Kind != FailureStatus {
				t.Errorf("Kind = %q, want %q", f.Kind, FailureStatus)
			}
			if f.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", f.StatusCode, tt.statusCode)
			}
		})
	}
}

func TestFetchCurrent_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"main": {"temp": not-a-number`))
	}))
	defer server.Close()

	c := NewOpenWeatherClient(server.URL, "metric", nil, nil)
	outcome := c.FetchCurrent(context.Background(), "berlin", "test-api-key")

	if outcome.OK() {
		t.Fatal("FetchCurrent() = success, want failure")
	}
	if kind := outcome.Failure().Kind; kind != FailureDecode {
		t.Errorf("Kind = %q, want %q", kind, FailureDecode)
	}
}

func TestFetchCurrent_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	c := NewOpenWeatherClient(server.URL, "metric", nil, nil)
	outcome := c.FetchCurrent(context.Background(), "berlin", "test-api-key")

	if outcome.OK() {
		t.Fatal("FetchCurrent() = success, want failure")
	}
	if kind := outcome.Failure().Kind; kind != FailureTransport {
		t.Errorf("Kind = %q, want %q", kind, FailureTransport)
	}
}

func TestFetchCurrent_EmptyCityPassedThrough(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewOpenWeatherClient(server.URL, "metric", nil, nil)
	outcome := c.FetchCurrent(context.Background(), "", "test-api-key")

	if gotQuery != "" {
		t.Errorf("q = %q, want empty string forwarded unvalidated", gotQuery)
	}
	if outcome.OK() {
		t.Fatal("FetchCurrent() = success, want failure from remote 404")
	}
}

func TestFetchForecast_Success(t *testing.T) {
	apiResp := map[string]interface{}{
		"city": map[string]interface{}{"name": "Berlin"},
		"list": []map[string]interface{}{
			{
				"dt":   1700010800,
				"main": map[string]interface{}{"temp": 17.0},
				"weather": []map[string]interface{}{
					{"main": "Clouds", "description": "few clouds", "icon": "02d"},
				},
			},
			{
				"dt":   1700000000,
				"main": map[string]interface{}{"temp": 19.5},
				"weather": []map[string]interface{}{
					{"main": "Clear", "description": "clear sky", "icon": "01d"},
				},
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/forecast") {
			t.Errorf("expected /forecast path, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(apiResp)
	}))
	defer server.Close()

	c := NewOpenWeatherClient(server.URL, "metric", nil, nil)
	outcome := c.FetchForecast(context.Background(), "Berlin", "test-api-key")
	if !outcome.OK() {
		t.Fatalf("FetchForecast() failure = %v, want success", outcome.Failure())
	}

	got := outcome.Value()
	if got.City != "Berlin" {
		t.Errorf("City = %q, want %q", got.City, "Berlin")
	}
	if len(got.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(got.Entries))
	}
	// Entries come back ascending by time regardless of payload order.
	if !got.Entries[0].Timestamp.Before(got.Entries[1].Timestamp) {
		t.Errorf("entries not ascending: %v then %v", got.Entries[0].Timestamp, got.Entries[1].Timestamp)
	}
	if got.Entries[0].Temperature != 19.5 {
		t.Errorf("Entries[0].Temperature = %f, want %f", got.Entries[0].Temperature, 19.5)
	}
	if got.Entries[0].Conditions[0].Icon != "01d" {
		t.Errorf("Entries[0].Conditions[0].Icon = %q, want %q", got.Entries[0].Conditions[0].Icon, "01d")
	}
}

func TestFetchForecast_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewOpenWeatherClient(server.URL, "metric", nil, nil)
	outcome := c.FetchForecast(context.Background(), "Nowhere123", "test-api-key")

	if outcome.OK() {
		t.Fatal("FetchForecast() = success, want failure")
	}
	f := outcome.Failure()
	if f.Kind != FailureStatus || f.StatusCode != http.StatusNotFound {
		t.Errorf("failure = %v, want status failure with 404", f)
	}
}

func TestNewOpenWeatherClient_Defaults(t *testing.T) {
	c := NewOpenWeatherClient("https://api.test.com", "", nil, nil)
	if c.units != DefaultUnits {
		t.Errorf("units = %q, want %q", c.units, DefaultUnits)
	}
	if c.httpClient == nil {
		t.Error("httpClient not defaulted")
	}

	c = NewOpenWeatherClient("https://api.test.com", "imperial", nil, nil)
	if c.units != "imperial" {
		t.Errorf("units = %q, want %q", c.units, "imperial")
	}
}

func TestFetchCurrent_CorrelationIDForwarded(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Correlation-ID")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"berlin"}`))
	}))
	defer server.Close()

	c := NewOpenWeatherClient(server.URL, "metric", nil, nil)
	ctx := context.WithValue(context.Background(), "correlation_id", "corr-123")
	outcome := c.FetchCurrent(ctx, "berlin", "test-api-key")

	if !outcome.OK() {
		t.Fatalf("FetchCurrent() failure = %v, want success", outcome.Failure())
	}
	if gotHeader != "corr-123" {
		t.Errorf("X-Correlation-ID = %q, want %q", gotHeader, "corr-123")
	}
}
