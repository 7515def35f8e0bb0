// Package httpapi is the view layer: it turns HTTP requests into
// presenter commands and renders the observable presentation state as
// JSON. It is a terminal consumer of the presenter; nothing flows back
// into the core beyond the two load commands.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kjstillabower/hometown-weather/internal/lifecycle"
	"github.com/kjstillabower/hometown-weather/internal/models"
	"github.com/kjstillabower/hometown-weather/internal/presenter"
	"github.com/kjstillabower/hometown-weather/internal/validation"
)

// Handler holds dependencies for HTTP handlers. The API key and
// hometown come from the settings store (config); the handler only
// reads them as plain strings.
type Handler struct {
	presenter     *presenter.Presenter
	apiKey        string
	hometown      string
	cityMaxLength int
	logger        *zap.Logger

	titleCaser cases.Caser
}

// NewHandler returns a new Handler.
func NewHandler(p *presenter.Presenter, apiKey, hometown string, cityMaxLength int, logger *zap.Logger) *Handler {
	return &Handler{
		presenter:     p,
		apiKey:        apiKey,
		hometown:      hometown,
		cityMaxLength: cityMaxLength,
		logger:        logger,
		titleCaser:    cases.Title(language.Und),
	}
}

// weatherResponse is the rendered current-conditions payload.
type weatherResponse struct {
	City        string             `json:"city"`
	Temperature float64            `json:"temperature"`
	Humidity    int                `json:"humidity"`
	WindSpeed   float64            `json:"windSpeed"`
	Conditions  []models.Condition `json:"conditions"`
	IconURL     string             `json:"iconUrl,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// GetWeather handles GET /weather/{city}: issues the load-weather
// command, waits for its outcome to be applied, and renders the
// resulting state.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city, ok := h.cityFromRequest(w, r)
	if !ok {
		return
	}

	done := h.presenter.LoadWeather(r.Context(), city, h.apiKey)
	select {
	case <-done:
	case <-r.Context().Done():
		writeError(w, r, http.StatusGatewayTimeout, "TIMEOUT", "request cancelled or timed out")
		return
	}

	snap := h.presenter.Snapshot()
	if snap.ErrorMessage != "" || snap.Current == nil {
		writeError(w, r, http.StatusBadGateway, "FETCH_FAILED", presenter.WeatherErrorMessage)
		return
	}
	writeJSON(w, http.StatusOK, h.renderWeather(snap))
}

// GetForecast handles GET /forecast/{city}.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	city, ok := h.cityFromRequest(w, r)
	if !ok {
		return
	}

	done := h.presenter.LoadForecast(r.Context(), city, h.apiKey)
	select {
	case <-done:
	case <-r.Context().Done():
		writeError(w, r, http.StatusGatewayTimeout, "TIMEOUT", "request cancelled or timed out")
		return
	}

	snap := h.presenter.Snapshot()
	if snap.ErrorMessage != "" {
		writeError(w, r, http.StatusBadGateway, "FETCH_FAILED", presenter.ForecastErrorMessage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"city":    h.titleCaser.String(city),
		"entries": snap.Forecast,
	})
}

// GetState handles GET /state: the hometown dashboard payload, a plain
// dump of all four observable fields.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	snap := h.presenter.Snapshot()
	resp := map[string]interface{}{
		"hometown": h.titleCaser.String(h.hometown),
		"forecast": snap.Forecast,
	}
	if snap.Current != nil {
		resp["current"] = h.renderWeather(snap)
	}
	if snap.ErrorMessage != "" {
		resp["errorMessage"] = snap.ErrorMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "hometown-weather",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) renderWeather(snap presenter.Snapshot) weatherResponse {
	cw := snap.Current
	return weatherResponse{
		City:        h.titleCaser.String(cw.City),
		Temperature: cw.Temperature,
		Humidity:    cw.Humidity,
		WindSpeed:   cw.WindSpeed,
		Conditions:  cw.Conditions,
		IconURL:     snap.IconURL,
		Timestamp:   cw.Timestamp,
	}
}

func (h *Handler) cityFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"], h.cityMaxLength)
	if err != nil {
		code := "INVALID_CITY"
		if errors.Is(err, validation.ErrCityEmpty) {
			code = "CITY_REQUIRED"
		}
		writeError(w, r, http.StatusBadRequest, code, err.Error())
		return "", false
	}
	return city, true
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with
// code, message, and requestId (correlation ID) if available in request
// context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
