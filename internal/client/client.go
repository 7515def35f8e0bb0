package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/hometown-weather/internal/models"
	"github.com/kjstillabower/hometown-weather/internal/observability"
)

// WeatherClient issues the two OpenWeatherMap lookups the app needs.
// Every call is a fresh network round trip: no retry, no caching, no
// coalescing. Implementations never return an error; failures travel
// inside the Outcome.
type WeatherClient interface {
	FetchCurrent(ctx context.Context, city, apiKey string) Outcome[models.CurrentWeather]
	FetchForecast(ctx context.Context, city, apiKey string) Outcome[models.Forecast]
}

const (
	// DefaultUnits is the measurement system requested when none is configured.
	DefaultUnits = "metric"

	currentPath  = "/weather"
	forecastPath = "/forecast"
)

// OpenWeatherClient talks to the OpenWeatherMap data API. Construct one
// per process and inject it; the transport is injectable for tests.
type OpenWeatherClient struct {
	baseURL    string
	units      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenWeatherClient returns a client for the given API base URL
// (e.g. https://api.openweathermap.org/data/2.5). units falls back to
// DefaultUnits when empty; httpClient falls back to http.DefaultClient.
func NewOpenWeatherClient(baseURL, units string, httpClient *http.Client, logger *zap.Logger) *OpenWeatherClient {
	if units == "" {
		units = DefaultUnits
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenWeatherClient{
		baseURL:    baseURL,
		units:      units,
		httpClient: httpClient,
		logger:     logger,
	}
}

type currentResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

type forecastResponse struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

// FetchCurrent retrieves current conditions for city. The city string is
// passed through unvalidated; the remote service decides what it means.
func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, city, apiKey string) Outcome[models.CurrentWeather] {
	body, failure := c.call(ctx, currentPath, city, apiKey)
	if failure != nil {
		return Failed[models.CurrentWeather](failure)
	}

	var resp currentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		f := decodeFailure(err)
		c.logFailure(currentPath, city, f)
		return Failed[models.CurrentWeather](f)
	}

	return Success(c.mapCurrent(resp, city))
}

// FetchForecast retrieves the multi-entry forecast for city.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, city, apiKey string) Outcome[models.Forecast] {
	body, failure := c.call(ctx, forecastPath, city, apiKey)
	if failure != nil {
		return Failed[models.Forecast](failure)
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		f := decodeFailure(err)
		c.logFailure(forecastPath, city, f)
		return Failed[models.Forecast](f)
	}

	return Success(c.mapForecast(resp, city))
}

// call performs one GET round trip and returns the raw body, or the
// failure that ended it. All transport and status errors stop here.
func (c *OpenWeatherClient) call(ctx context.Context, path, city, apiKey string) ([]byte, *FetchFailure) {
	start := time.Now()

	req, err := c.buildRequest(ctx, path, city, apiKey)
	if err != nil {
		f := transportFailure(err)
		observability.FetchesTotal.WithLabelValues(path, "error").Inc()
		c.logFailure(path, city, f)
		return nil, f
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		f := transportFailure(err)
		c.observe(path, "error", start)
		c.logFailure(path, city, f)
		return nil, f
	}
	defer resp.Body.Close()

	c.observe(path, statusLabel(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f := statusFailure(resp.StatusCode)
		c.logFailure(path, city, f)
		return nil, f
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f := transportFailure(err)
		c.logFailure(path, city, f)
		return nil, f
	}
	return body, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, path, city, apiKey string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", apiKey)
	params.Set("units", c.units)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *OpenWeatherClient) mapCurrent(resp currentResponse, city string) models.CurrentWeather {
	name := resp.Name
	if name == "" {
		name = city
	}

	ts := time.Now().UTC()
	if resp.Dt > 0 {
		ts = time.Unix(resp.Dt, 0).UTC()
	}

	conditions := make([]models.Condition, 0, len(resp.Weather))
	for _, w := range resp.Weather {
		conditions = append(conditions, models.Condition{
			Main:        w.Main,
			Description: w.Description,
			Icon:        w.Icon,
		})
	}

	return models.CurrentWeather{
		City:        name,
		Temperature: resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Conditions:  conditions,
		Timestamp:   ts,
	}
}

func (c *OpenWeatherClient) mapForecast(resp forecastResponse, city string) models.Forecast {
	name := resp.City.Name
	if name == "" {
		name = city
	}

	entries := make([]models.ForecastEntry, 0, len(resp.List))
	for _, item := range resp.List {
		conditions := make([]models.Condition, 0, len(item.Weather))
		for _, w := range item.Weather {
			conditions = append(conditions, models.Condition{
				Main:        w.Main,
				Description: w.Description,
				Icon:        w.Icon,
			})
		}
		entries = append(entries, models.ForecastEntry{
			Timestamp:   time.Unix(item.Dt, 0).UTC(),
			Temperature: item.Main.Temp,
			Conditions:  conditions,
		})
	}

	// The API returns entries in order, but the contract is ascending time.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return models.Forecast{City: name, Entries: entries}
}

func (c *OpenWeatherClient) observe(path, status string, start time.Time) {
	duration := time.Since(start).Seconds()
	observability.FetchesTotal.WithLabelValues(path, status).Inc()
	observability.FetchDuration.WithLabelValues(path, status).Observe(duration)
}

func (c *OpenWeatherClient) logFailure(path, city string, f *FetchFailure) {
	c.logger.Warn("fetch failed",
		zap.String("endpoint", path),
		zap.String("city", city),
		zap.String("kind", string(f.Kind)),
		zap.String("reason", f.Reason))
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
