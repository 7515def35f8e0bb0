// Package presenter holds the presentation state for the hometown
// weather view: the latest current conditions, forecast entries, derived
// icon URL and error message, each exposed as an observable field.
package presenter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kjstillabower/hometown-weather/internal/client"
	"github.com/kjstillabower/hometown-weather/internal/models"
	"github.com/kjstillabower/hometown-weather/internal/observability"
	"github.com/kjstillabower/hometown-weather/internal/observable"
)

// Fixed user-facing strings. The view shows exactly these; the presenter
// never surfaces the underlying failure kind.
const (
	WeatherErrorMessage  = "Failed to fetch weather. Please check your API key or city name."
	ForecastErrorMessage = "Failed to fetch forecast. Please check your API key or city name."
)

// iconURLTemplate derives an icon image URL from an icon code.
const iconURLTemplate = "%s/img/wn/%s@2x.png"

// Snapshot is a point-in-time copy of the presentation state.
type Snapshot struct {
	Current      *models.CurrentWeather `json:"current,omitempty"`
	Forecast     []models.ForecastEntry `json:"forecast"`
	IconURL      string                 `json:"iconUrl,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
}

// Presenter owns the four observable fields and the two load commands.
// Commands dispatch their fetch on a separate goroutine and apply the
// outcome only if no newer invocation of the same command has been
// issued in the meantime, so the most recent user intent always wins.
type Presenter struct {
	client   client.WeatherClient
	iconHost string
	logger   *zap.Logger

	current  *observable.Field[*models.CurrentWeather]
	forecast *observable.Field[[]models.ForecastEntry]
	iconURL  *observable.Field[string]
	errMsg   *observable.Field[string]

	// applyMu serializes outcome application so the sequence check and
	// the field writes are one atomic step.
	applyMu     sync.Mutex
	weatherSeq  atomic.Uint64
	forecastSeq atomic.Uint64
}

// New returns a Presenter backed by c. iconHost is the image host the
// icon URL template is anchored to (e.g. https://openweathermap.org).
func New(c client.WeatherClient, iconHost string, logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{
		client:   c,
		iconHost: iconHost,
		logger:   logger,
		current:  observable.NewField[*models.CurrentWeather](nil),
		forecast: observable.NewField[[]models.ForecastEntry](nil),
		iconURL:  observable.NewField(""),
		errMsg:   observable.NewField(""),
	}
}

// Current exposes the current-weather field for watchers.
func (p *Presenter) Current() *observable.Field[*models.CurrentWeather] { return p.current }

// Forecast exposes the forecast-entries field for watchers.
func (p *Presenter) Forecast() *observable.Field[[]models.ForecastEntry] { return p.forecast }

// IconURL exposes the derived icon URL field for watchers.
func (p *Presenter) IconURL() *observable.Field[string] { return p.iconURL }

// ErrorMessage exposes the error field for watchers. Empty means the
// most recent applied fetch succeeded.
func (p *Presenter) ErrorMessage() *observable.Field[string] { return p.errMsg }

// Snapshot returns a consistent copy of all four fields.
func (p *Presenter) Snapshot() Snapshot {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()
	return Snapshot{
		Current:      p.current.Get(),
		Forecast:     p.forecast.Get(),
		IconURL:      p.iconURL.Get(),
		ErrorMessage: p.errMsg.Get(),
	}
}

// LoadWeather fetches current conditions for city and applies the
// outcome to the state. The returned channel closes once the outcome has
// been applied or discarded; the view is free to ignore it.
func (p *Presenter) LoadWeather(ctx context.Context, city, apiKey string) <-chan struct{} {
	seq := p.weatherSeq.Add(1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		outcome := p.client.FetchCurrent(ctx, city, apiKey)
		p.applyWeather(seq, city, outcome)
	}()
	return done
}

// LoadForecast fetches the forecast for city and applies the outcome to
// the state. Same completion semantics as LoadWeather.
func (p *Presenter) LoadForecast(ctx context.Context, city, apiKey string) <-chan struct{} {
	seq := p.forecastSeq.Add(1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		outcome := p.client.FetchForecast(ctx, city, apiKey)
		p.applyForecast(seq, city, outcome)
	}()
	return done
}

func (p *Presenter) applyWeather(seq uint64, city string, outcome client.Outcome[models.CurrentWeather]) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if seq != p.weatherSeq.Load() {
		observability.PresenterStaleDroppedTotal.WithLabelValues("weather").Inc()
		p.logger.Debug("discarding stale weather result", zap.String("city", city))
		return
	}

	if !outcome.OK() {
		observability.PresenterAppliedTotal.WithLabelValues("weather", "failure").Inc()
		p.errMsg.Set(WeatherErrorMessage)
		return
	}

	record := outcome.Value()
	p.current.Set(&record)
	p.errMsg.Set("")
	// Icon URL follows the first condition descriptor; with none present
	// the prior URL stays in place.
	if len(record.Conditions) > 0 {
		p.iconURL.Set(fmt.Sprintf(iconURLTemplate, p.iconHost, record.Conditions[0].Icon))
	}
	observability.PresenterAppliedTotal.WithLabelValues("weather", "success").Inc()
	p.logger.Debug("weather applied",
		zap.String("city", record.City),
		zap.Float64("temperature", record.Temperature))
}

func (p *Presenter) applyForecast(seq uint64, city string, outcome client.Outcome[models.Forecast]) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if seq != p.forecastSeq.Load() {
		observability.PresenterStaleDroppedTotal.WithLabelValues("forecast").Inc()
		p.logger.Debug("discarding stale forecast result", zap.String("city", city))
		return
	}

	if !outcome.OK() {
		observability.PresenterAppliedTotal.WithLabelValues("forecast", "failure").Inc()
		p.errMsg.Set(ForecastErrorMessage)
		return
	}

	record := outcome.Value()
	p.forecast.Set(record.Entries)
	p.errMsg.Set("")
	observability.PresenterAppliedTotal.WithLabelValues("forecast", "success").Inc()
	p.logger.Debug("forecast applied",
		zap.String("city", record.City),
		zap.Int("entries", len(record.Entries)))
}
