package pricing

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/interfaces"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/monitoring"
)

// Service serves the streaming price-comparison endpoint and the
// autocomplete search proxy
type Service struct {
	config   *config.Config
	logger   *logger.Logger
	fetcher  *Fetcher
	searcher interfaces.IndexSearcher
	server   *http.Server
}

// New creates a new pricing service
func New(cfg *config.Config, log *logger.Logger, searcher interfaces.IndexSearcher) *Service {
	fetcher := NewFetcher(
		cfg.Upstream.BaseURL,
		cfg.Upstream.MaxAttempts,
		cfg.Upstream.AttemptTimeoutDuration(),
		cfg.Upstream.BackoffBaseDuration(),
		log,
	)

	return &Service{
		config:   cfg,
		logger:   log,
		fetcher:  fetcher,
		searcher: searcher,
	}
}

// Start starts the pricing service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	var handler http.Handler = router
	if s.config.Monitoring.Enabled {
		handler = monitoring.Middleware("pricing", router)
	}

	s.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	s.logger.Infof("Starting Pricing Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the pricing service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Pricing Service")
		return s.server.Close()
	}
	return nil
}
