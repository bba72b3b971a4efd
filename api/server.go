package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/mux"

	"github.com/openalpha/hifi/api/handlers"
	"github.com/openalpha/hifi/api/middleware"
	apitypes "github.com/openalpha/hifi/api/types"
	"github.com/openalpha/hifi/api/websocket"
	"github.com/openalpha/hifi/metrics"
)

// Server represents the API server
type Server struct {
	config  *Config
	logger  log.Logger
	service *PoolService
	hub     *websocket.Hub

	rateLimiter *middleware.RateLimiter
	httpServer  *http.Server
}

// NewServer creates an API server backed by an in-memory chain state
func NewServer(config *Config, logger log.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	hub := websocket.NewHub(nil, logger)
	service, err := NewPoolService(config, SystemClock{Offset: config.ClockOffset}, hub, logger)
	if err != nil {
		return nil, err
	}
	return newServer(config, service, hub, logger), nil
}

func newServer(config *Config, service *PoolService, hub *websocket.Hub, logger log.Logger) *Server {
	s := &Server{
		config:  config,
		logger:  logger.With("module", "api"),
		service: service,
		hub:     hub,
	}
	if !config.DisableRateLimit {
		rlConfig := middleware.DefaultRateLimitConfig()
		rlConfig.RequestsPerSecond = config.RateLimit
		rlConfig.Burst = config.RateBurst
		s.rateLimiter = middleware.NewRateLimiter(rlConfig)
	}
	s.httpServer = &http.Server{
		Addr:         config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Service returns the backing service
func (s *Server) Service() *PoolService {
	return s.service
}

// Handler builds the HTTP handler with all routes and middleware
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/v1/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/ws", s.hub.ServeWS)

	handlers.NewPoolHandler(s.service).RegisterRoutes(router)
	handlers.NewDelegationHandler(s.service).RegisterRoutes(router)
	handlers.NewTreasuryHandler(s.service, s.faucet()).RegisterRoutes(router)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "endpoint not found", "code": "not_found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed", "code": "method_not_allowed"})
	})

	router.Use(middleware.MetricsMiddleware)

	var handler http.Handler = router
	if s.rateLimiter != nil {
		handler = middleware.RateLimitMiddleware(s.rateLimiter)(handler)
	}
	return corsMiddleware(handler)
}

// faucet is nil when the faucet is disabled, which leaves its route out
func (s *Server) faucet() apitypes.FaucetService {
	if s.config.FaucetAmount.IsNil() || !s.config.FaucetAmount.IsPositive() {
		return nil
	}
	return s.service
}

// Start runs the hub, the block ticker and the HTTP listener until ctx is
// done or the listener fails
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)
	go s.service.Run(ctx)

	s.logger.Info("API server starting",
		"addr", s.config.Addr(),
		"chain_id", s.config.ChainID,
		"rate_limit", !s.config.DisableRateLimit,
		"stop_loss_sweep", s.config.Operator != "",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.logger.Info("API server stopping")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, s.service.Health())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
