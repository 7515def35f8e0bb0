package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/hometown-weather/internal/client"
	"github.com/kjstillabower/hometown-weather/internal/config"
	"github.com/kjstillabower/hometown-weather/internal/httpapi"
	"github.com/kjstillabower/hometown-weather/internal/lifecycle"
	"github.com/kjstillabower/hometown-weather/internal/observability"
	"github.com/kjstillabower/hometown-weather/internal/presenter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	weatherClient := client.NewOpenWeatherClient(cfg.WeatherAPIURL, cfg.Units, &http.Client{}, logger)
	p := presenter.New(weatherClient, cfg.IconHost, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httpapi.NewHandler(p, cfg.WeatherAPIKey, cfg.Hometown, cfg.CityMaxLength, logger)

	router := mux.NewRouter()
	router.Use(httpapi.CorrelationIDMiddleware(logger))
	router.Use(httpapi.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	router.HandleFunc("/state", handler.GetState).Methods("GET")

	fetchRouter := router.NewRoute().Subrouter()
	fetchRouter.Use(httpapi.RateLimitMiddleware(limiter))
	fetchRouter.Use(httpapi.TimeoutMiddleware(cfg.RequestTimeout))
	fetchRouter.HandleFunc("/weather/{city}", handler.GetWeather).Methods("GET")
	fetchRouter.HandleFunc("/forecast/{city}", handler.GetForecast).Methods("GET")

	// Prime the presentation state with the saved hometown, same as the
	// view's on-load trigger. Failures only set the error field.
	primeCtx, primeCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	go func() {
		defer primeCancel()
		<-p.LoadWeather(primeCtx, cfg.Hometown, cfg.WeatherAPIKey)
		<-p.LoadForecast(primeCtx, cfg.Hometown, cfg.WeatherAPIKey)
		if msg := p.ErrorMessage().Get(); msg != "" {
			logger.Warn("hometown priming failed", zap.String("hometown", cfg.Hometown))
		} else {
			logger.Info("hometown primed", zap.String("hometown", cfg.Hometown))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("hometown", cfg.Hometown),
			zap.String("units", cfg.Units))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httpapi.InFlightCount()
	if inFlight > 0 {
		logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer waitCancel()
		if err := httpapi.WaitForInFlight(waitCtx, 100*time.Millisecond); err != nil {
			logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httpapi.InFlightCount()))
		}
	}

	logger.Info("shutdown complete")
}
