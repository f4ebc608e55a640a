// Command pager-demo pages through an HTTP endpoint until all items have
// been retrieved, logging progress and exposing Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pagekit/pagekit/pkg/httpsource"
	"github.com/pagekit/pagekit/pkg/logging"
	"github.com/pagekit/pagekit/pkg/pager"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

// jsonItem is the generic row shape when no schema is known up front.
type jsonItem = map[string]any

type config struct {
	URL         string
	PerPage     int
	UserAgent   string
	MetricsAddr string
	LogLevel    string
	LogPretty   bool
}

// loadConfig reads configuration from PAGER_* environment variables.
func loadConfig() config {
	v := viper.New()
	v.SetEnvPrefix("pager")
	v.AutomaticEnv()

	v.SetDefault("url", "")
	v.SetDefault("per_page", 30)
	v.SetDefault("user_agent", "pagekit-demo/0.1.0")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	return config{
		URL:         v.GetString("url"),
		PerPage:     v.GetInt("per_page"),
		UserAgent:   v.GetString("user_agent"),
		MetricsAddr: v.GetString("metrics_addr"),
		LogLevel:    v.GetString("log_level"),
		LogPretty:   v.GetBool("log_pretty"),
	}
}

func main() {
	cfg := loadConfig()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if cfg.URL == "" {
		logger.Error().Msg("PAGER_URL is required")
		os.Exit(1)
	}

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	source, err := httpsource.New[jsonItem](httpsource.Config{
		BaseURL:   cfg.URL,
		PerPage:   cfg.PerPage,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create page source")
		os.Exit(1)
	}

	ctrl, err := pager.New[jsonItem](source, pager.DefaultConfig())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create controller")
		os.Exit(1)
	}

	settled, cancel := ctrl.LoadSettled()
	defer cancel()
	go func() {
		for result := range settled {
			if result.Err != nil {
				continue
			}
			logger.Info().
				Int("page", result.Page).
				Int("count", result.Count).
				Int("items", len(ctrl.Items())).
				Msg("Page settled")
		}
	}()

	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancelCtx()

	start := time.Now()
	if err := ctrl.Reload(ctx); err != nil {
		logger.Error().Err(err).Msg("Initial load failed")
		os.Exit(1)
	}
	for !ctrl.HasReachedEnd() {
		if err := ctrl.LoadNextPage(ctx); err != nil {
			logger.Error().Err(err).Msg("Page load failed")
			os.Exit(1)
		}
	}

	total, _ := ctrl.TotalCount()
	logger.Info().
		Int("items", len(ctrl.Items())).
		Int("pages", ctrl.CurrentPage()).
		Int("total", total).
		Dur("duration", time.Since(start)).
		Msg("All items retrieved")
}
